package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   JobStatus
		terminal bool
	}{
		{JobStatusPending, false},
		{JobStatusRunning, false},
		{JobStatusCompleted, true},
		{JobStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestStep_IsTerminal(t *testing.T) {
	for _, step := range []Step{StepIntake, StepSearch, StepFilter, StepExtract, StepSynthesize, StepCite, StepReport} {
		assert.False(t, step.IsTerminal(), "step %s should not be terminal", step)
	}
	assert.True(t, StepDone.IsTerminal())
	assert.True(t, StepError.IsTerminal())
}

func TestNewJob(t *testing.T) {
	job := NewJob("what is raft consensus", 5)

	assert.NotEqual(t, "", job.ID.String())
	assert.Equal(t, "what is raft consensus", job.Query)
	assert.Equal(t, 5, job.MaxResults)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, StepIntake, job.CurrentStep)
	assert.Zero(t, job.RetryCount)
	assert.Nil(t, job.CompletedAt)
	assert.False(t, job.CreatedAt.IsZero())
}

func TestJob_Clone_Isolation(t *testing.T) {
	now := time.Now().UTC()
	job := NewJob("query", 3)
	job.Warnings = []string{"w1"}
	job.CompletedAt = &now
	job.Snapshot = Snapshot{
		FilteredResults: []SearchResult{{Title: "a", URL: "https://a.test"}},
		Extracted:       []ExtractedContent{{URL: "https://a.test", Succeeded: true, Text: "body"}},
		Citations:       []Citation{{SourceURL: "https://a.test", Title: "a"}},
		Report:          &Report{Markdown: "# a", Citations: []Citation{{SourceURL: "https://a.test"}}},
	}

	clone := job.Clone()

	// Mutating the clone must not leak back into the original.
	clone.Warnings[0] = "changed"
	clone.Snapshot.FilteredResults[0].Title = "changed"
	clone.Snapshot.Extracted[0].Text = "changed"
	clone.Snapshot.Citations[0].Title = "changed"
	clone.Snapshot.Report.Markdown = "changed"
	clone.Snapshot.Report.Citations[0].SourceURL = "changed"
	*clone.CompletedAt = now.Add(time.Hour)

	assert.Equal(t, "w1", job.Warnings[0])
	assert.Equal(t, "a", job.Snapshot.FilteredResults[0].Title)
	assert.Equal(t, "body", job.Snapshot.Extracted[0].Text)
	assert.Equal(t, "a", job.Snapshot.Citations[0].Title)
	assert.Equal(t, "# a", job.Snapshot.Report.Markdown)
	assert.Equal(t, "https://a.test", job.Snapshot.Report.Citations[0].SourceURL)
	assert.Equal(t, now, *job.CompletedAt)
}

func TestJob_Duration(t *testing.T) {
	job := NewJob("query", 3)
	assert.Zero(t, job.Duration())

	done := job.CreatedAt.Add(90 * time.Second)
	job.CompletedAt = &done
	assert.Equal(t, 90*time.Second, job.Duration())
}

func TestErrors_Unwrap(t *testing.T) {
	t.Run("validation error", func(t *testing.T) {
		err := NewValidationError("query", "must not be empty")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput))
		assert.Contains(t, err.Error(), "query")
	})

	t.Run("transient error", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewTransientError("search", cause)
		assert.True(t, errors.Is(err, cause))
		assert.Contains(t, err.Error(), "search")
	})

	t.Run("cancellation error", func(t *testing.T) {
		err := &CancellationError{Reason: "requested by user"}
		assert.True(t, errors.Is(err, ErrCancelled))
	})

	t.Run("not found error", func(t *testing.T) {
		err := NewNotFoundError("job", "abc")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("publish error", func(t *testing.T) {
		cause := errors.New("api quota exceeded")
		err := &PublishError{Cause: cause}
		assert.True(t, errors.Is(err, cause))
	})
}
