// Package workflow implements the research pipeline: the per-job state
// machine, the retry and error-routing policy, the bounded-concurrency
// extraction scheduler, and the stage functions that carry a job from a raw
// query to a finished report.
package workflow

import (
	"context"
	"time"

	"github.com/helixir/research-report-service/internal/domain"
)

// SearchProvider runs a web search and returns ranked results.
type SearchProvider interface {
	// Search returns up to maxResults results for the query. An empty result
	// set is not an error.
	Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error)
}

// ContentFetcher retrieves the readable text of a single page. Timeouts are
// applied by the caller through the context.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Synthesizer turns a prepared prompt into report prose.
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string) (string, error)
}

// Publisher pushes a finished report to an external document store and
// returns the document URL.
type Publisher interface {
	Publish(ctx context.Context, markdown, title string) (string, error)
}

// Notification is the payload delivered to the Notifier when a job reaches a
// terminal state.
type Notification struct {
	JobID        string     `json:"job_id"`
	Query        string     `json:"query"`
	Status       string     `json:"status"`
	PublishedURL string     `json:"published_url,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Warnings     []string   `json:"warnings,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Notifier delivers terminal-state notifications. Delivery is best effort;
// errors never affect job status.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Committer receives a full replacement copy of the job after every state
// transition. Implementations must not retain references into the engine's
// working copy.
type Committer interface {
	Commit(job domain.Job)
}
