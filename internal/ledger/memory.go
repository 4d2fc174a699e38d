package ledger

import (
	"context"
	"sync"

	"github.com/examforge/examforge/internal/model"
	"github.com/examforge/examforge/internal/policy"
)

// MemoryLedger is an in-process ledger keeping counters in a mutex-guarded
// map. Used for development and tests; counters do not survive restarts.
type MemoryLedger struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		counts: make(map[string]int),
	}
}

func usageKey(userID string, section model.Section, day string) string {
	return userID + "|" + string(section) + "|" + day
}

// CheckAndIncrement implements Ledger
func (l *MemoryLedger) CheckAndIncrement(ctx context.Context, userID string, section model.Section, day string, requested, cap int) (int, int, error) {
	if cap == policy.Unlimited {
		return requested, policy.Unlimited, nil
	}
	key := usageKey(userID, section, day)

	l.mu.Lock()
	defer l.mu.Unlock()

	granted, remaining := grant(l.counts[key], requested, cap)
	if granted > 0 {
		l.counts[key] += granted
	}
	return granted, remaining, nil
}

// Usage implements Ledger
func (l *MemoryLedger) Usage(ctx context.Context, userID string, section model.Section, day string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[usageKey(userID, section, day)], nil
}
