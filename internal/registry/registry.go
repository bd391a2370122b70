// Package registry provides the concurrency-safe job store and the
// background execution of submitted jobs. It is the only cross-job shared
// mutable structure: readers always receive full replacement copies, never
// references into a running engine's working state.
package registry

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/observability"
	"github.com/helixir/research-report-service/internal/workflow"
)

// Runner executes one job to a terminal state. The workflow engine is the
// production implementation.
type Runner interface {
	Run(ctx context.Context, job domain.Job) domain.Job
}

// Options carries the registry's optional collaborators and limits.
type Options struct {
	// Publisher pushes completed reports downstream. Nil disables publishing.
	Publisher workflow.Publisher

	// Notifier delivers terminal-state notifications. Nil disables them.
	Notifier workflow.Notifier

	// DefaultMaxResults is applied when a submission omits max_results.
	DefaultMaxResults int
}

// entry pairs a job's latest committed copy with its cancellation handle.
type entry struct {
	job    domain.Job
	cancel context.CancelFunc
}

// Registry stores jobs and runs each submission on its own goroutine.
type Registry struct {
	mu    sync.RWMutex
	jobs  map[uuid.UUID]*entry
	order []uuid.UUID

	runner    Runner
	publisher workflow.Publisher
	notifier  workflow.Notifier
	defaults  int

	logger  zerolog.Logger
	metrics *observability.Metrics

	wg sync.WaitGroup
}

// New creates a registry that executes submissions with the given runner.
func New(runner Runner, opts Options, logger zerolog.Logger, metrics *observability.Metrics) *Registry {
	defaults := opts.DefaultMaxResults
	if defaults <= 0 {
		defaults = 10
	}
	return &Registry{
		jobs:      make(map[uuid.UUID]*entry),
		runner:    runner,
		publisher: opts.Publisher,
		notifier:  opts.Notifier,
		defaults:  defaults,
		logger:    logger,
		metrics:   metrics,
	}
}

// Submit registers a new job and starts it in the background. It returns a
// snapshot of the pending job immediately.
func (r *Registry) Submit(ctx context.Context, query string, maxResults int) domain.Job {
	if maxResults == 0 {
		maxResults = r.defaults
	}
	job := domain.NewJob(query, maxResults)

	// The job's lifetime is detached from the submitting request.
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	r.mu.Lock()
	r.jobs[job.ID] = &entry{job: job.Clone(), cancel: cancel}
	r.order = append(r.order, job.ID)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordJobSubmitted()
	}
	r.logger.Info().
		Str("job_id", job.ID.String()).
		Str("query", job.Query).
		Int("max_results", maxResults).
		Msg("job submitted")

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		final := r.runner.Run(jobCtx, job)
		r.Commit(final)
		r.finish(final)
	}()

	return job
}

// finish runs the post-terminal side effects: publishing a completed report
// and delivering the terminal notification. Neither can change the job's
// terminal status.
func (r *Registry) finish(job domain.Job) {
	logger := observability.WithJobContext(r.logger, job.ID.String(), job.Query)

	if job.Status == domain.JobStatusCompleted && r.publisher != nil && job.Snapshot.Report != nil {
		url, err := r.publisher.Publish(context.Background(), job.Snapshot.Report.Markdown, job.Query)
		if err != nil {
			// Publish failure never demotes a completed job.
			job.AddWarning((&domain.PublishError{Cause: err}).Error())
			logger.Warn().Err(err).Msg("report publish failed")
			if r.metrics != nil {
				r.metrics.PublishAttempts.WithLabelValues(observability.OutcomeError).Inc()
			}
		} else {
			job.Snapshot.Report.PublishedURL = url
			logger.Info().Str("published_url", url).Msg("report published")
			if r.metrics != nil {
				r.metrics.PublishAttempts.WithLabelValues(observability.OutcomeSuccess).Inc()
			}
		}
		r.Commit(job)
	}

	if r.notifier != nil {
		n := workflow.Notification{
			JobID:        job.ID.String(),
			Query:        job.Query,
			Status:       string(job.Status),
			ErrorMessage: job.ErrorMessage,
			Warnings:     job.Warnings,
			CompletedAt:  job.CompletedAt,
		}
		if job.Snapshot.Report != nil {
			n.PublishedURL = job.Snapshot.Report.PublishedURL
		}
		if err := r.notifier.Notify(context.Background(), n); err != nil {
			logger.Warn().Err(err).Msg("notification delivery failed")
			if r.metrics != nil {
				r.metrics.NotificationsSent.WithLabelValues(observability.OutcomeError).Inc()
			}
		} else if r.metrics != nil {
			r.metrics.NotificationsSent.WithLabelValues(observability.OutcomeSuccess).Inc()
		}
	}
}

// Commit installs a full replacement copy of the job. Commits against a job
// already in a terminal state are ignored, keeping status monotonic.
func (r *Registry) Commit(job domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[job.ID]
	if !ok {
		return
	}
	if e.job.Status.IsTerminal() && !job.Status.IsTerminal() {
		return
	}
	e.job = job.Clone()
}

// Get returns a point-in-time snapshot of the job.
func (r *Registry) Get(id uuid.UUID) (domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, domain.NewNotFoundError("job", id.String())
	}
	return e.job.Clone(), nil
}

// List returns snapshots ordered most recent submission first. A limit of 0
// means no limit.
func (r *Registry) List(limit, offset int) []domain.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Job, 0, len(r.order))
	for i := len(r.order) - 1 - offset; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, r.jobs[r.order[i]].job.Clone())
	}
	return out
}

// Cancel requests cooperative cancellation of a running job. The engine
// observes it at the next stage boundary.
func (r *Registry) Cancel(id uuid.UUID) error {
	r.mu.RLock()
	e, ok := r.jobs[id]
	r.mu.RUnlock()

	if !ok {
		return domain.NewNotFoundError("job", id.String())
	}
	if e.job.Status.IsTerminal() {
		return domain.ErrAlreadyTerminal
	}

	r.logger.Info().Str("job_id", id.String()).Msg("cancellation requested")
	e.cancel()
	return nil
}

// Close waits for in-flight jobs to reach a terminal state, or until ctx
// expires.
func (r *Registry) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
