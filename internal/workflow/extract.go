package workflow

import (
	"context"
	"fmt"

	"github.com/helixir/research-report-service/internal/domain"
)

// runExtract fans fetches out across the scheduler's worker pool. Individual
// fetch failures become warnings; the stage itself only fails, transiently,
// when the failure rate suggests the fetcher is systemically down.
func (e *Engine) runExtract(ctx context.Context, job *domain.Job) Outcome {
	snap := job.Snapshot.Clone()

	if len(snap.FilteredResults) == 0 {
		snap.Extracted = nil
		return partial(snap, "no sources to extract")
	}

	urls := make([]string, len(snap.FilteredResults))
	for i, r := range snap.FilteredResults {
		urls[i] = r.URL
	}

	extracted := e.scheduler.ExtractAll(ctx, urls)
	snap.Extracted = extracted

	failed := 0
	var warnings []string
	for _, ec := range extracted {
		if !ec.Succeeded {
			failed++
			warnings = append(warnings, fmt.Sprintf("failed to extract %s: %s", ec.URL, ec.Error))
		}
	}

	if failed > 0 && float64(failed) >= e.cfg.FailureThreshold*float64(len(extracted)) {
		return transient(job.Snapshot, string(domain.StepExtract),
			fmt.Errorf("%d of %d fetches failed", failed, len(extracted)))
	}
	if failed > 0 {
		return partial(snap, warnings...)
	}
	return success(snap)
}
