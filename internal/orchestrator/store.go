package orchestrator

import (
	"sort"
	"sync"
	"time"

	"github.com/examforge/examforge/internal/model"
)

// JobStore is the in-process job registry. It is an injected service
// with an explicit lifecycle, so every test can run against an isolated
// instance. Readers always receive deep copies: a snapshot never
// observes a job mid-mutation.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
	now  func() time.Time
}

// NewJobStore creates an empty job store
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*model.Job),
		now:  time.Now,
	}
}

// Put registers a job
func (s *JobStore) Put(job *model.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get returns a consistent snapshot of a job
func (s *JobStore) Get(jobID string) (*model.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, false
	}
	return job.Clone(), true
}

// Update applies a mutation to a job under the store lock and bumps
// UpdatedAt. Returns false for unknown ids.
func (s *JobStore) Update(jobID string, fn func(*model.Job)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return false
	}
	fn(job)
	job.UpdatedAt = s.now().UTC()
	return true
}

// ListByUser returns summaries of a user's jobs, most recent first
func (s *JobStore) ListByUser(userID string) []model.JobSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*model.Job, 0)
	for _, job := range s.jobs {
		if job.UserID == userID {
			matched = append(matched, job)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	summaries := make([]model.JobSummary, 0, len(matched))
	for _, job := range matched {
		summaries = append(summaries, job.ToSummary())
	}
	return summaries
}

// Prune removes terminal jobs last updated before the cutoff and
// returns how many were removed. Running jobs are never pruned.
func (s *JobStore) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked jobs
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
