package model

import "errors"

// Error taxonomy for the orchestration core. Section-level errors
// (quota, pool, generation) are recorded in SectionProgress and never
// abort sibling sections; systemic errors (ledger) fail the whole job.
var (
	// ErrQuotaExceeded means the daily cap for (user, section) is spent.
	ErrQuotaExceeded = errors.New("daily quota exceeded")

	// ErrPoolUnavailable means the question pool could not be reached.
	// Callers treat it as "zero pool items", never as fatal.
	ErrPoolUnavailable = errors.New("question pool unavailable")

	// ErrGenerationFailed covers provider errors and timeouts.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrLedgerUnavailable means quota accounting cannot be performed.
	// Callers must fail closed: grant nothing.
	ErrLedgerUnavailable = errors.New("usage ledger unavailable")

	// ErrInvalidRequest rejects a submission before a job is created.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrJobNotFound is returned by job lookups for unknown ids.
	ErrJobNotFound = errors.New("job not found")
)
