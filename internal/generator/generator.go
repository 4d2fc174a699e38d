// Package generator adapts the external content-generation provider.
// The provider is treated as untrusted and variable-latency: every call
// carries a timeout and failures (including expiry) surface as
// model.ErrGenerationFailed.
package generator

import (
	"context"

	"github.com/examforge/examforge/internal/model"
)

// Source produces count new items for (section, difficulty). Composite
// sections (reading) count passage groups, so count passages are
// requested, each carrying its own questions.
type Source interface {
	Produce(ctx context.Context, section model.Section, difficulty model.Difficulty, count int) ([]model.Question, error)
}
