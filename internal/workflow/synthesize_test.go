package workflow

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-report-service/internal/domain"
)

func synthesizeJob(snap domain.Snapshot) *domain.Job {
	job := domain.NewJob("test query", 10)
	job.Snapshot = snap
	return &job
}

func TestRunSynthesize_UsesExtractedContent(t *testing.T) {
	synth := &mockSynthesizer{}
	var captured string
	synth.synthesizeFn = func(ctx context.Context, prompt string) (string, error) {
		captured = prompt
		return "synthesis body", nil
	}

	e := newTestEngine(t, nil, nil, synth)
	out := e.runSynthesize(context.Background(), synthesizeJob(domain.Snapshot{
		FilteredResults: []domain.SearchResult{
			{Title: "Guide", URL: "https://a", Snippet: "short summary"},
		},
		Extracted: []domain.ExtractedContent{
			{URL: "https://a", Text: "full page text", Succeeded: true},
		},
	}))

	require.Equal(t, OutcomeSuccess, out.Kind)
	assert.Equal(t, "synthesis body", out.Snapshot.Synthesis)
	assert.Contains(t, captured, "test query")
	assert.Contains(t, captured, "full page text")
	assert.NotContains(t, captured, "short summary")
}

func TestRunSynthesize_SnippetFallback(t *testing.T) {
	synth := &mockSynthesizer{}
	var captured string
	synth.synthesizeFn = func(ctx context.Context, prompt string) (string, error) {
		captured = prompt
		return "fallback synthesis", nil
	}

	e := newTestEngine(t, nil, nil, synth)
	out := e.runSynthesize(context.Background(), synthesizeJob(domain.Snapshot{
		FilteredResults: []domain.SearchResult{
			{Title: "Guide", URL: "https://a", Snippet: "snippet only material"},
		},
		Extracted: []domain.ExtractedContent{
			{URL: "https://a", Succeeded: false, Error: "timeout"},
		},
	}))

	require.Equal(t, OutcomePartial, out.Kind)
	assert.Contains(t, captured, "snippet only material")
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "snippets")
}

func TestRunSynthesize_NoMaterialSkipsLLM(t *testing.T) {
	synth := &mockSynthesizer{}

	e := newTestEngine(t, nil, nil, synth)
	out := e.runSynthesize(context.Background(), synthesizeJob(domain.Snapshot{}))

	require.Equal(t, OutcomePartial, out.Kind)
	assert.NotEmpty(t, out.Snapshot.Synthesis)
	assert.Equal(t, int32(0), synth.calls.Load())
}

func TestBuildPrompt_TruncatesPerSource(t *testing.T) {
	e := newTestEngine(t, nil, nil, nil)
	e.cfg.PerSourceChars = 10
	e.cfg.TotalChars = 1000

	prompt := e.buildPrompt("query", []promptSource{
		{title: "T", url: "https://a", text: strings.Repeat("x", 100)},
	})

	assert.Contains(t, prompt, strings.Repeat("x", 10))
	assert.NotContains(t, prompt, strings.Repeat("x", 11))
}

func TestBuildPrompt_TruncatesTotal(t *testing.T) {
	e := newTestEngine(t, nil, nil, nil)
	e.cfg.PerSourceChars = 1000
	e.cfg.TotalChars = 500

	sources := make([]promptSource, 5)
	for i := range sources {
		sources[i] = promptSource{title: "T", url: "https://a", text: strings.Repeat("y", 400)}
	}

	prompt := e.buildPrompt("query", sources)

	// Header plus at most TotalChars of source material.
	assert.Less(t, len(prompt), 500+400)
}
