// Package orchestrator owns the job lifecycle for multi-section test
// generation: non-blocking submission, background execution with
// per-section progress, status polling and best-effort cancellation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/examforge/examforge/internal/ledger"
	"github.com/examforge/examforge/internal/metrics"
	"github.com/examforge/examforge/internal/model"
	"github.com/examforge/examforge/internal/planner"
	"github.com/examforge/examforge/internal/policy"
)

// AnonymousUser is the ledger key for unauthenticated callers
const AnonymousUser = "anonymous"

// LimitExceededError rejects a submission whose every requested section
// is already at its daily cap. It carries per-section usage so clients
// can render "X/Y used" without a second round trip.
type LimitExceededError struct {
	Info model.LimitsInfo
}

func (e *LimitExceededError) Error() string {
	return "daily limit exceeded for every requested section"
}

func (e *LimitExceededError) Unwrap() error {
	return model.ErrQuotaExceeded
}

// Orchestrator runs generation jobs. One background goroutine per job;
// sections within a job execute sequentially in request order, which
// preserves pool consumption ordering.
type Orchestrator struct {
	store     *JobStore
	planner   *planner.Planner
	policy    *policy.Policy
	ledger    ledger.Ledger
	collector *metrics.Collector
	now       func() time.Time

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// New creates an orchestrator bound to the given collaborators
func New(store *JobStore, pl *planner.Planner, pol *policy.Policy, led ledger.Ledger, collector *metrics.Collector) *Orchestrator {
	baseCtx, baseCancel := context.WithCancel(context.Background())

	return &Orchestrator{
		store:      store,
		planner:    pl,
		policy:     pol,
		ledger:     led,
		collector:  collector,
		now:        time.Now,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		cancels:    make(map[string]context.CancelFunc),
	}
}

// Submit validates the request, rejects it up front when every requested
// section is already over cap, creates the job in pending state and
// schedules background execution. It never blocks on generation.
func (o *Orchestrator) Submit(ctx context.Context, userID string, role policy.Role, req model.TestRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	if userID == "" {
		userID = AnonymousUser
	}

	if role != policy.RoleAdmin {
		info, blocked, err := o.limitsFor(ctx, userID, role, &req)
		if err != nil {
			// Fail closed: no quota visibility, no job.
			return "", err
		}
		if blocked {
			return "", &LimitExceededError{Info: info}
		}
	}

	job := &model.Job{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      string(role),
		Request:   req,
		Status:    model.JobPending,
		Sections:  make([]model.SectionProgress, len(req.Sections)),
		CreatedAt: o.now().UTC(),
		UpdatedAt: o.now().UTC(),
	}
	for i, sr := range req.Sections {
		job.Sections[i] = model.SectionProgress{
			Section: sr.Section,
			Target:  sr.Count,
			Status:  model.SectionWaiting,
		}
	}

	o.store.Put(job)
	o.collector.JobSubmitted()

	jobCtx, cancel := context.WithCancel(o.baseCtx)
	o.mu.Lock()
	o.cancels[job.ID] = cancel
	o.mu.Unlock()

	o.wg.Add(1)
	go o.run(jobCtx, job.ID, userID, role, req)

	slog.Info("Job submitted",
		"job_id", job.ID,
		"user_id", userID,
		"role", role,
		"sections", len(req.Sections),
		"total_count", req.TotalCount(),
	)

	return job.ID, nil
}

// Status returns a consistent snapshot of a job
func (o *Orchestrator) Status(jobID string) (*model.Job, error) {
	job, exists := o.store.Get(jobID)
	if !exists {
		return nil, fmt.Errorf("%w: %s", model.ErrJobNotFound, jobID)
	}
	return job, nil
}

// Jobs lists a user's jobs, most recent first
func (o *Orchestrator) Jobs(userID string) []model.JobSummary {
	if userID == "" {
		userID = AnonymousUser
	}
	return o.store.ListByUser(userID)
}

// Cancel stops scheduling further sections for a job. Sections already
// in flight finish; spent quota stays spent and used pool items stay
// used. Cancelling a terminal job is a no-op.
func (o *Orchestrator) Cancel(jobID string) error {
	job, exists := o.store.Get(jobID)
	if !exists {
		return fmt.Errorf("%w: %s", model.ErrJobNotFound, jobID)
	}
	if job.Status.Terminal() {
		return nil
	}

	o.mu.Lock()
	cancel, ok := o.cancels[jobID]
	o.mu.Unlock()
	if ok {
		cancel()
	}

	slog.Info("Job cancellation requested", "job_id", jobID)
	return nil
}

// Limits reports current usage against caps for every section, for the
// limits endpoint and quota-rejection payloads.
func (o *Orchestrator) Limits(ctx context.Context, userID string, role policy.Role) (model.LimitsInfo, error) {
	if userID == "" {
		userID = AnonymousUser
	}

	req := model.TestRequest{}
	for _, section := range model.AllSections {
		req.Sections = append(req.Sections, model.SectionRequest{Section: section, Count: 1})
	}

	info, _, err := o.limitsFor(ctx, userID, role, &req)
	return info, err
}

// Shutdown waits for in-flight jobs up to the context deadline, then
// abandons the rest.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("All jobs finished")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for jobs, abandoning in-flight work")
	}

	o.baseCancel()
}

// limitsFor builds the per-section usage/cap payload for the sections of
// a request and reports whether every requested section is blocked.
func (o *Orchestrator) limitsFor(ctx context.Context, userID string, role policy.Role, req *model.TestRequest) (model.LimitsInfo, bool, error) {
	day := model.DayKey(o.now())
	info := model.LimitsInfo{Day: day}

	blocked := true
	for _, sr := range req.Sections {
		dailyCap := o.policy.CapFor(role, sr.Section)
		if dailyCap == policy.Unlimited {
			info.Sections = append(info.Sections, model.SectionLimit{
				Section:   sr.Section,
				Unlimited: true,
			})
			blocked = false
			continue
		}

		used, err := o.ledger.Usage(ctx, userID, sr.Section, day)
		if err != nil {
			return model.LimitsInfo{}, false, err
		}

		remaining := dailyCap - used
		if remaining < 0 {
			remaining = 0
		}
		info.Sections = append(info.Sections, model.SectionLimit{
			Section:   sr.Section,
			Used:      used,
			Cap:       dailyCap,
			Remaining: remaining,
		})

		// Zero-count sections are a no-op success and never justify
		// rejecting the submission.
		if sr.Count == 0 || remaining > 0 {
			blocked = false
		}
	}

	return info, blocked, nil
}

// run is the background execution for one job
func (o *Orchestrator) run(ctx context.Context, jobID, userID string, role policy.Role, req model.TestRequest) {
	defer o.wg.Done()
	defer func() {
		o.mu.Lock()
		delete(o.cancels, jobID)
		o.mu.Unlock()
	}()

	o.store.Update(jobID, func(j *model.Job) {
		j.Status = model.JobRunning
	})

	var systemicErr error
	cancelled := false

	for i, sectionReq := range req.Sections {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		idx := i
		progress := func(status model.SectionStatus, completed int) {
			o.store.Update(jobID, func(j *model.Job) {
				j.Sections[idx].Status = status
				j.Sections[idx].Completed = completed
			})
		}

		start := o.now()
		result, err := o.planner.Plan(ctx, userID, role, sectionReq, req.Difficulty, progress)
		o.collector.SectionPlanned(time.Since(start))

		o.collector.ItemsServed(string(model.SourcePool), result.FromPool)
		o.collector.ItemsServed(string(model.SourceGenerated), result.FromGenerated)
		if errors.Is(err, model.ErrQuotaExceeded) {
			o.collector.QuotaDenied()
		}

		o.store.Update(jobID, func(j *model.Job) {
			j.Sections[idx].Status = result.Status()
			j.Sections[idx].Completed = len(result.Items)
			j.Sections[idx].FromPool = result.FromPool
			j.Sections[idx].FromGenerated = result.FromGenerated
			j.Sections[idx].Error = result.Error
			j.Result = append(j.Result, *result)
		})

		if errors.Is(err, model.ErrLedgerUnavailable) {
			// Quota can no longer be governed; abort remaining sections.
			systemicErr = err
			break
		}
	}

	o.finalize(jobID, systemicErr, cancelled)
}

// finalize derives the terminal job status from section outcomes
func (o *Orchestrator) finalize(jobID string, systemicErr error, cancelled bool) {
	var final model.JobStatus

	o.store.Update(jobID, func(j *model.Job) {
		switch {
		case systemicErr != nil:
			j.Status = model.JobFailed
			j.Error = systemicErr.Error()
		case cancelled:
			j.Status = model.JobCancelled
		default:
			allDone := true
			anySuccess := false
			for _, sp := range j.Sections {
				switch sp.Status {
				case model.SectionDone:
					anySuccess = true
				case model.SectionPartial:
					anySuccess = true
					allDone = false
				default:
					allDone = false
				}
			}

			switch {
			case allDone:
				j.Status = model.JobCompleted
			case anySuccess:
				j.Status = model.JobPartial
			default:
				j.Status = model.JobFailed
			}
		}
		final = j.Status
	})

	o.collector.JobFinished(string(final))

	slog.Info("Job finished",
		"job_id", jobID,
		"status", final,
	)
}
