package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/helixir/research-report-service/internal/domain"
)

// fail is the error handler: it routes the job into the absorbing error
// state, records the failure cause, and attaches a minimal failure report
// built from whatever partial snapshot exists.
func (e *Engine) fail(job domain.Job, cause error) domain.Job {
	now := time.Now().UTC()

	failedStep := job.CurrentStep
	job.CurrentStep = domain.StepError
	job.Status = domain.JobStatusFailed
	job.CompletedAt = &now
	if cause != nil {
		job.ErrorMessage = fmt.Sprintf("%s: %v", failedStep, cause)
	} else {
		job.ErrorMessage = fmt.Sprintf("%s: unknown failure", failedStep)
	}

	if job.Snapshot.Report == nil {
		job.Snapshot.Report = &domain.Report{Markdown: failureReport(job, failedStep)}
	}

	if e.metrics != nil {
		if errors.Is(cause, domain.ErrCancelled) {
			e.metrics.RecordJobCancelled()
		} else {
			e.metrics.RecordJobFailed(job.Duration().Seconds())
		}
		e.metrics.RecordStageFailure(string(failedStep))
	}

	e.commit(job)
	return job
}

// failureReport summarizes a failed job and how far it got.
func failureReport(job domain.Job, failedStep domain.Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Research Failed: %s\n\n", job.Query)
	fmt.Fprintf(&b, "- **Job ID:** %s\n", job.ID)
	fmt.Fprintf(&b, "- **Failed at step:** %s\n", failedStep)
	fmt.Fprintf(&b, "- **Error:** %s\n", job.ErrorMessage)
	fmt.Fprintf(&b, "- **Search results gathered:** %d\n", len(job.Snapshot.RawResults))
	fmt.Fprintf(&b, "- **Sources extracted:** %d\n", len(job.Snapshot.Extracted))
	if len(job.Warnings) > 0 {
		b.WriteString("- **Warnings:**\n")
		for _, w := range job.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}
	return b.String()
}
