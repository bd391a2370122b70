package domain

import (
	"time"

	"github.com/google/uuid"
)

// Job is one research request's full lifecycle record. The workflow engine
// exclusively mutates a job while executing it; everyone else sees copies
// committed to the registry.
type Job struct {
	ID         uuid.UUID `json:"id"`
	Query      string    `json:"query"`
	MaxResults int       `json:"max_results"`

	Status      JobStatus `json:"status"`
	CurrentStep Step      `json:"current_step"`
	RetryCount  int       `json:"retry_count"`

	Snapshot Snapshot `json:"snapshot"`

	ErrorMessage string   `json:"error_message,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewJob creates a pending job for the given query.
func NewJob(query string, maxResults int) Job {
	return Job{
		ID:          uuid.New(),
		Query:       query,
		MaxResults:  maxResults,
		Status:      JobStatusPending,
		CurrentStep: StepIntake,
		CreatedAt:   time.Now().UTC(),
	}
}

// Clone returns a deep copy of the job, safe to hand to concurrent readers.
func (j Job) Clone() Job {
	out := j
	out.Snapshot = j.Snapshot.Clone()
	if j.Warnings != nil {
		out.Warnings = make([]string, len(j.Warnings))
		copy(out.Warnings, j.Warnings)
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// Duration returns the wall-clock duration of the job, or zero if it has
// not finished.
func (j Job) Duration() time.Duration {
	if j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(j.CreatedAt)
}

// AddWarning appends a non-fatal diagnostic to the job.
func (j *Job) AddWarning(msg string) {
	if msg == "" {
		return
	}
	j.Warnings = append(j.Warnings, msg)
}
