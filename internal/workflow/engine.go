package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/config"
	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/observability"
)

// Config carries the engine's tunables: retry policy, stage budgets, and
// validation limits.
type Config struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
	JobTimeout        time.Duration

	MaxQueryLength int
	MaxResultsCap  int

	Workers          int
	FetchTimeout     time.Duration
	StageTimeout     time.Duration
	FailureThreshold float64

	PerSourceChars int
	TotalChars     int
}

// NewConfig extracts the engine tunables from the application configuration.
func NewConfig(cfg *config.Config) Config {
	return Config{
		MaxRetries:        cfg.Workflow.MaxRetries,
		InitialBackoff:    cfg.Workflow.InitialBackoff,
		BackoffMultiplier: cfg.Workflow.BackoffMultiplier,
		MaxBackoff:        cfg.Workflow.MaxBackoff,
		JobTimeout:        cfg.Workflow.JobTimeout,
		MaxQueryLength:    cfg.Intake.MaxQueryLength,
		MaxResultsCap:     cfg.Intake.MaxResultsCap,
		Workers:           cfg.Extraction.Workers,
		FetchTimeout:      cfg.Extraction.FetchTimeout,
		StageTimeout:      cfg.Extraction.StageTimeout,
		FailureThreshold:  cfg.Extraction.FailureThreshold,
		PerSourceChars:    cfg.Synthesis.PerSourceChars,
		TotalChars:        cfg.Synthesis.TotalChars,
	}
}

// Engine drives one job through the pipeline. It is the only component that
// mutates a job while it runs; everyone else sees copies handed to the
// committer.
type Engine struct {
	cfg       Config
	search    SearchProvider
	synth     Synthesizer
	scheduler *Scheduler
	committer Committer
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewEngine wires an engine from its collaborator ports.
func NewEngine(cfg Config, search SearchProvider, fetcher ContentFetcher, synth Synthesizer, committer Committer, logger zerolog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		cfg:       cfg,
		search:    search,
		synth:     synth,
		scheduler: NewScheduler(fetcher, cfg.Workers, cfg.FetchTimeout, cfg.StageTimeout, logger, metrics),
		committer: committer,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes the job to a terminal state and returns the terminal job.
// It is invoked once per submission, on the job's own goroutine. Cancellation
// via ctx is observed at stage boundaries only.
func (e *Engine) Run(ctx context.Context, job domain.Job) domain.Job {
	logger := observability.WithJobContext(e.logger, job.ID.String(), job.Query)

	if e.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.JobTimeout)
		defer cancel()
	}

	job.Status = domain.JobStatusRunning
	e.commit(job)
	logger.Info().Msg("job started")

	for !job.CurrentStep.IsTerminal() {
		if err := ctx.Err(); err != nil {
			job = e.fail(job, boundaryError(err))
			break
		}

		stageLogger := observability.WithStageContext(logger, string(job.CurrentStep), job.RetryCount)
		stageLogger.Debug().Msg("stage starting")

		start := time.Now()
		out := e.runStage(ctx, &job)
		elapsed := time.Since(start).Seconds()
		if e.metrics != nil {
			e.metrics.RecordStage(string(job.CurrentStep), elapsed)
		}

		switch Transition(job.CurrentStep, out.Kind, e.cfg.MaxRetries-job.RetryCount) {
		case DecisionAdvance:
			job.Snapshot = out.Snapshot
			for _, w := range out.Warnings {
				job.AddWarning(w)
			}
			prev := job.CurrentStep
			job.CurrentStep = NextStep(job.CurrentStep)
			job.RetryCount = 0
			if job.CurrentStep == domain.StepDone {
				job = e.complete(job)
				logger.Info().Dur("duration", job.Duration()).Msg("job completed")
			} else {
				e.commit(job)
			}
			stageLogger.Info().
				Str("outcome", out.Kind.String()).
				Str("next_step", string(job.CurrentStep)).
				Float64("elapsed_seconds", elapsed).
				Msgf("stage %s finished", prev)

		case DecisionRetry:
			job.RetryCount++
			if e.metrics != nil {
				e.metrics.RecordStageRetry(string(job.CurrentStep))
			}
			delay := e.backoff(job.RetryCount)
			stageLogger.Warn().
				Err(out.Err).
				Int("retry_count", job.RetryCount).
				Dur("backoff", delay).
				Msg("stage failed transiently, retrying")
			e.commit(job)
			if err := sleepContext(ctx, delay); err != nil {
				job = e.fail(job, boundaryError(err))
			}

		case DecisionFail:
			stageLogger.Error().Err(out.Err).Msg("stage failed fatally")
			job.Snapshot = out.Snapshot
			job = e.fail(job, out.Err)
		}
	}

	return job
}

// runStage dispatches on the current step. Terminal steps never reach here.
func (e *Engine) runStage(ctx context.Context, job *domain.Job) Outcome {
	switch job.CurrentStep {
	case domain.StepIntake:
		return e.runIntake(job)
	case domain.StepSearch:
		return e.runSearch(ctx, job)
	case domain.StepFilter:
		return e.runFilter(job)
	case domain.StepExtract:
		return e.runExtract(ctx, job)
	case domain.StepSynthesize:
		return e.runSynthesize(ctx, job)
	case domain.StepCite:
		return e.runCite(job)
	case domain.StepReport:
		return e.runReport(job)
	default:
		return fatal(job.Snapshot, fmt.Errorf("no stage function for step %q", job.CurrentStep))
	}
}

// backoff returns the delay before the given retry attempt, doubling (or per
// the configured multiplier) each attempt and capped at MaxBackoff.
func (e *Engine) backoff(attempt int) time.Duration {
	delay := float64(e.cfg.InitialBackoff)
	for i := 1; i < attempt; i++ {
		delay *= e.cfg.BackoffMultiplier
	}
	d := time.Duration(delay)
	if e.cfg.MaxBackoff > 0 && d > e.cfg.MaxBackoff {
		d = e.cfg.MaxBackoff
	}
	return d
}

func (e *Engine) commit(job domain.Job) {
	if e.committer != nil {
		e.committer.Commit(job.Clone())
	}
}

func (e *Engine) complete(job domain.Job) domain.Job {
	now := time.Now().UTC()
	job.Status = domain.JobStatusCompleted
	job.CompletedAt = &now
	if e.metrics != nil {
		e.metrics.RecordJobCompleted(job.Duration().Seconds())
	}
	e.commit(job)
	return job
}

// boundaryError converts a context error observed at a stage boundary into
// the domain error that fails the job.
func boundaryError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("job timeout exceeded: %w", err)
	}
	return &domain.CancellationError{Reason: "cancel requested"}
}

// sleepContext waits for d or until the context ends, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
