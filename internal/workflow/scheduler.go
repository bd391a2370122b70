package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/observability"
)

// fetchTask is one unit of extraction work.
type fetchTask struct {
	index int
	url   string
}

// Scheduler fans page fetches out across a fixed-size worker pool and fans
// the results back in, preserving input order. It is used only by the
// extract stage.
type Scheduler struct {
	fetcher      ContentFetcher
	workers      int
	fetchTimeout time.Duration
	stageTimeout time.Duration
	logger       zerolog.Logger
	metrics      *observability.Metrics
}

// NewScheduler creates a scheduler running up to workers concurrent fetches,
// each bounded by fetchTimeout. A non-zero stageTimeout bounds the whole
// batch.
func NewScheduler(fetcher ContentFetcher, workers int, fetchTimeout, stageTimeout time.Duration, logger zerolog.Logger, metrics *observability.Metrics) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		fetcher:      fetcher,
		workers:      workers,
		fetchTimeout: fetchTimeout,
		stageTimeout: stageTimeout,
		logger:       logger,
		metrics:      metrics,
	}
}

// ExtractAll fetches every URL and returns one ExtractedContent per input,
// where results[i] corresponds to urls[i] regardless of the order in which
// fetches completed. Individual fetch failures are recorded in their slot,
// never returned as an error.
func (s *Scheduler) ExtractAll(ctx context.Context, urls []string) []domain.ExtractedContent {
	results := make([]domain.ExtractedContent, len(urls))
	if len(urls) == 0 {
		return results
	}

	if s.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.stageTimeout)
		defer cancel()
	}

	tasks := make(chan fetchTask)

	workers := s.workers
	if workers > len(urls) {
		workers = len(urls)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for task := range tasks {
				// Disjoint writes: each worker owns its slot by index.
				results[task.index] = s.fetchOne(ctx, task)
			}
		}()
	}

	for i, url := range urls {
		tasks <- fetchTask{index: i, url: url}
	}
	close(tasks)
	wg.Wait()

	return results
}

func (s *Scheduler) fetchOne(ctx context.Context, task fetchTask) domain.ExtractedContent {
	logger := observability.WithFetchContext(s.logger, task.url, task.index)

	fetchCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.fetcher.Fetch(fetchCtx, task.url)
	elapsed := time.Since(start).Seconds()

	if s.metrics != nil {
		s.metrics.RecordFetch(elapsed, err != nil)
	}

	if err != nil {
		logger.Warn().Err(err).Float64("elapsed_seconds", elapsed).Msg("content fetch failed")
		return domain.ExtractedContent{
			URL:       task.url,
			Succeeded: false,
			Error:     err.Error(),
		}
	}

	logger.Debug().Int("text_length", len(text)).Float64("elapsed_seconds", elapsed).Msg("content fetched")
	return domain.ExtractedContent{
		URL:       task.url,
		Text:      text,
		Succeeded: true,
	}
}
