// Package ledger implements durable per-user, per-section, per-day usage
// accounting with atomic check-and-increment semantics.
package ledger

import (
	"context"

	"github.com/examforge/examforge/internal/model"
)

// Ledger gates every generation. CheckAndIncrement computes
// granted = max(0, min(requested, cap-current)) and atomically adds it
// to the counter for (user, section, day) before returning; concurrent
// callers for the same key never jointly exceed cap.
//
// A cap of policy.Unlimited grants the full requested count and performs
// no ledger write. Implementations return errors wrapping
// model.ErrLedgerUnavailable when the backing store cannot be reached;
// callers must treat that as "grant nothing".
type Ledger interface {
	CheckAndIncrement(ctx context.Context, userID string, section model.Section, day string, requested, cap int) (granted, remaining int, err error)

	// Usage returns the current counter for (user, section, day);
	// zero if no record exists.
	Usage(ctx context.Context, userID string, section model.Section, day string) (int, error)
}

// grant applies the quota arithmetic to a known current count
func grant(current, requested, cap int) (granted, remaining int) {
	available := cap - current
	if available < 0 {
		available = 0
	}
	granted = requested
	if granted > available {
		granted = available
	}
	if granted < 0 {
		granted = 0
	}
	return granted, available - granted
}
