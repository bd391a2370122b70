package workflow

import (
	"context"

	"github.com/helixir/research-report-service/internal/domain"
)

// runSearch calls the search provider. Zero results is not an error; an
// unreachable provider is transient.
func (e *Engine) runSearch(ctx context.Context, job *domain.Job) Outcome {
	results, err := e.search.Search(ctx, job.Query, job.MaxResults)
	if err != nil {
		return transient(job.Snapshot, string(domain.StepSearch), err)
	}

	snap := job.Snapshot.Clone()
	snap.RawResults = results
	if len(results) == 0 {
		return partial(snap, "search returned no results")
	}
	return success(snap)
}
