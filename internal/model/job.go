package model

import (
	"time"
)

// JobStatus is the lifecycle state of a generation job
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobPartial   JobStatus = "partial"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether the job can no longer change state
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobPartial, JobFailed, JobCancelled:
		return true
	}
	return false
}

// SectionStatus is the per-section execution state
type SectionStatus string

const (
	SectionWaiting    SectionStatus = "waiting"
	SectionPoolFetch  SectionStatus = "pool_fetch"
	SectionGenerating SectionStatus = "generating"
	SectionDone       SectionStatus = "done"
	SectionPartial    SectionStatus = "partial"
	SectionFailed     SectionStatus = "failed"
)

// SectionProgress tracks execution of one requested section. Mutated
// only by the execution goroutine owning the job.
type SectionProgress struct {
	Section       Section       `json:"section"`
	Target        int           `json:"target"`
	Completed     int           `json:"completed"`
	Status        SectionStatus `json:"status"`
	FromPool      int           `json:"from_pool"`
	FromGenerated int           `json:"from_generated"`
	Error         string        `json:"error,omitempty"`
}

// Job is one multi-section generation request tracked from submission to
// a terminal state. Jobs are process-local and garbage-collected after a
// retention window; there is no persistence guarantee across restarts.
type Job struct {
	ID        string            `json:"job_id"`
	UserID    string            `json:"user_id,omitempty"`
	Role      string            `json:"role,omitempty"`
	Request   TestRequest       `json:"request"`
	Status    JobStatus         `json:"status"`
	Sections  []SectionProgress `json:"sections"`
	Result    []SectionResult   `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Clone returns a deep copy so status readers never observe a job
// mid-mutation.
func (j *Job) Clone() *Job {
	clone := *j

	clone.Request.Sections = append([]SectionRequest(nil), j.Request.Sections...)
	clone.Sections = append([]SectionProgress(nil), j.Sections...)

	if j.Result != nil {
		clone.Result = make([]SectionResult, len(j.Result))
		for i, sr := range j.Result {
			copied := sr
			copied.Items = append([]Question(nil), sr.Items...)
			copied.Warnings = append([]string(nil), sr.Warnings...)
			clone.Result[i] = copied
		}
	}

	return &clone
}

// JobSummary is the compact form used by job list responses
type JobSummary struct {
	ID        string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Sections  int       `json:"sections"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// ToSummary converts a Job to its list representation
func (j *Job) ToSummary() JobSummary {
	return JobSummary{
		ID:        j.ID,
		Status:    j.Status,
		Sections:  len(j.Request.Sections),
		CreatedAt: j.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
