package workflow

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/helixir/research-report-service/internal/domain"
)

// mockSearchProvider implements SearchProvider with a pluggable function.
type mockSearchProvider struct {
	searchFn func(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error)
	calls    atomic.Int32
}

func (m *mockSearchProvider) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	m.calls.Add(1)
	if m.searchFn != nil {
		return m.searchFn(ctx, query, maxResults)
	}
	return nil, nil
}

// mockFetcher implements ContentFetcher with a pluggable function.
type mockFetcher struct {
	fetchFn func(ctx context.Context, url string) (string, error)
	calls   atomic.Int32
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	m.calls.Add(1)
	if m.fetchFn != nil {
		return m.fetchFn(ctx, url)
	}
	return "", nil
}

// mockSynthesizer implements Synthesizer with a pluggable function.
type mockSynthesizer struct {
	synthesizeFn func(ctx context.Context, prompt string) (string, error)
	calls        atomic.Int32
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, prompt string) (string, error) {
	m.calls.Add(1)
	if m.synthesizeFn != nil {
		return m.synthesizeFn(ctx, prompt)
	}
	return "synthesized text", nil
}

// commitRecorder records every committed job copy in order.
type commitRecorder struct {
	mu      sync.Mutex
	commits []domain.Job
}

func (r *commitRecorder) Commit(job domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, job)
}

func (r *commitRecorder) all() []domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Job, len(r.commits))
	copy(out, r.commits)
	return out
}
