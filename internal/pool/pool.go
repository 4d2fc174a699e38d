// Package pool adapts the pre-vetted question pool. The pool is finite
// and exhaustible per user: an item marked used for a user is never
// returned to that user again.
package pool

import (
	"context"

	"github.com/examforge/examforge/internal/model"
)

// Source fetches up to count unused items for (section, subsection,
// difficulty) and marks each returned item used by the given user as a
// side effect. Returning fewer items than requested is normal, not an
// error. Errors wrap model.ErrPoolUnavailable and callers treat them as
// "zero items available".
type Source interface {
	Take(ctx context.Context, userID string, section model.Section, subsection string, difficulty model.Difficulty, count int) ([]model.Question, error)
}
