// Package planner decides, for one section of a test request, how many
// items come from the question pool versus on-demand generation,
// respecting the caller's daily quota.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/examforge/examforge/internal/generator"
	"github.com/examforge/examforge/internal/ledger"
	"github.com/examforge/examforge/internal/model"
	"github.com/examforge/examforge/internal/policy"
	"github.com/examforge/examforge/internal/pool"
)

// ProgressFunc receives per-section progress transitions while a plan
// executes: the current phase plus the number of items secured so far.
type ProgressFunc func(status model.SectionStatus, completed int)

// Options tunes planner behavior
type Options struct {
	// RetryDelay is the pause before the single generation retry.
	RetryDelay time.Duration
	// QuestionsPerPassage is the expected question count per reading
	// passage group; shorter groups are reported, not retried.
	QuestionsPerPassage int
	// Now overrides the clock (tests); defaults to time.Now.
	Now func() time.Time
}

// Planner executes the pool-first / generate-on-shortfall policy for a
// single section.
type Planner struct {
	policy              *policy.Policy
	ledger              ledger.Ledger
	pool                pool.Source
	generator           generator.Source
	retryDelay          time.Duration
	questionsPerPassage int
	now                 func() time.Time
}

// New creates a section planner
func New(pol *policy.Policy, led ledger.Ledger, poolSrc pool.Source, genSrc generator.Source, opts Options) *Planner {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.QuestionsPerPassage <= 0 {
		opts.QuestionsPerPassage = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Planner{
		policy:              pol,
		ledger:              led,
		pool:                poolSrc,
		generator:           genSrc,
		retryDelay:          opts.RetryDelay,
		questionsPerPassage: opts.QuestionsPerPassage,
		now:                 opts.Now,
	}
}

// Plan runs the quota check, pool fetch and generation top-up for one
// section. The returned SectionResult always reflects what was actually
// delivered, even on error. The error is non-nil for quota exhaustion,
// total generation failure and ledger outages; only the latter is
// systemic and aborts sibling sections (the orchestrator checks with
// errors.Is against model.ErrLedgerUnavailable).
func (p *Planner) Plan(ctx context.Context, userID string, role policy.Role, req model.SectionRequest, difficulty model.Difficulty, progress ProgressFunc) (*model.SectionResult, error) {
	if progress == nil {
		progress = func(model.SectionStatus, int) {}
	}

	result := &model.SectionResult{
		Section:   req.Section,
		Requested: req.Count,
	}

	// Zero-count sections are a no-op success.
	if req.Count == 0 {
		return result, nil
	}

	dailyCap := p.policy.CapFor(role, req.Section)
	day := model.DayKey(p.now())

	granted, remaining, err := p.ledger.CheckAndIncrement(ctx, userID, req.Section, day, req.Count, dailyCap)
	if err != nil {
		// Fail closed: an unreachable ledger grants nothing.
		result.Error = err.Error()
		return result, err
	}
	result.Granted = granted
	result.Remaining = remaining

	if granted == 0 {
		err := fmt.Errorf("%w: section %s, %d requested, 0 remaining today", model.ErrQuotaExceeded, req.Section, req.Count)
		result.Error = err.Error()
		return result, err
	}

	progress(model.SectionPoolFetch, 0)

	poolItems, err := p.pool.Take(ctx, userID, req.Section, req.Subsection, difficulty, granted)
	if err != nil {
		// An unavailable pool means zero pool items, not a failed
		// section; generation covers the full grant.
		slog.Warn("Pool unavailable, falling back to generation",
			"user_id", userID,
			"section", req.Section,
			"error", err.Error(),
		)
		poolItems = nil
	}
	result.Items = poolItems
	result.FromPool = len(poolItems)

	shortfall := granted - len(poolItems)
	if shortfall > 0 {
		progress(model.SectionGenerating, len(poolItems))

		genItems, err := p.produceWithRetry(ctx, req.Section, difficulty, shortfall)
		if err != nil {
			// Deliver what the pool provided; the shortfall is lost for
			// this plan but the job carries on.
			result.Error = err.Error()
			slog.Error("Generation failed after retry",
				"user_id", userID,
				"section", req.Section,
				"shortfall", shortfall,
				"delivered", len(result.Items),
				"error", err.Error(),
			)
			return result, err
		}

		if len(genItems) > shortfall {
			genItems = genItems[:shortfall]
		}
		if len(genItems) < shortfall {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("generation produced %d of %d requested items", len(genItems), shortfall))
		}

		if req.Section.IsComposite() {
			p.checkPassageGroups(genItems, result)
		}

		// Pool items first; generated items fill the gap.
		result.Items = append(result.Items, genItems...)
		result.FromGenerated = len(genItems)
	}

	slog.Info("Section planned",
		"user_id", userID,
		"section", req.Section,
		"requested", req.Count,
		"granted", granted,
		"from_pool", result.FromPool,
		"from_generated", result.FromGenerated,
		"status", result.Status(),
	)

	return result, nil
}

// produceWithRetry calls the generation source with a single bounded
// retry using identical parameters.
func (p *Planner) produceWithRetry(ctx context.Context, section model.Section, difficulty model.Difficulty, count int) ([]model.Question, error) {
	items, err := p.generator.Produce(ctx, section, difficulty, count)
	if err == nil {
		return items, nil
	}

	slog.Warn("Generation attempt failed, retrying once",
		"section", section,
		"count", count,
		"error", err.Error(),
	)

	select {
	case <-time.After(p.retryDelay):
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", model.ErrGenerationFailed, ctx.Err())
	}

	items, err = p.generator.Produce(ctx, section, difficulty, count)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// checkPassageGroups records a warning for each generated passage group
// that carries fewer questions than expected.
func (p *Planner) checkPassageGroups(items []model.Question, result *model.SectionResult) {
	for i := range items {
		if got := len(items[i].SubQuestions); got < p.questionsPerPassage {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("passage group %d has %d of %d expected questions", i+1, got, p.questionsPerPassage))
		}
	}
}
