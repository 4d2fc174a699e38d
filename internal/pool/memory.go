package pool

import (
	"context"
	"sync"

	"github.com/examforge/examforge/internal/model"
)

// MemoryPool is an in-process pool for development and tests
type MemoryPool struct {
	mu     sync.Mutex
	items  []model.Question
	usedBy map[string]map[string]bool // item id -> set of user ids
}

// NewMemoryPool creates a pool seeded with the given items
func NewMemoryPool(items ...model.Question) *MemoryPool {
	return &MemoryPool{
		items:  items,
		usedBy: make(map[string]map[string]bool),
	}
}

// Add appends items to the pool
func (p *MemoryPool) Add(items ...model.Question) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, items...)
}

// Take implements Source
func (p *MemoryPool) Take(ctx context.Context, userID string, section model.Section, subsection string, difficulty model.Difficulty, count int) ([]model.Question, error) {
	if count <= 0 {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var taken []model.Question
	for i := range p.items {
		if len(taken) == count {
			break
		}
		item := p.items[i]
		if item.Section != section || item.Difficulty != difficulty {
			continue
		}
		if subsection != "" && item.Subsection != subsection {
			continue
		}
		if p.usedBy[item.ID][userID] {
			continue
		}

		if p.usedBy[item.ID] == nil {
			p.usedBy[item.ID] = make(map[string]bool)
		}
		p.usedBy[item.ID][userID] = true

		item.Source = model.SourcePool
		taken = append(taken, item)
	}

	return taken, nil
}
