package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/helixir/research-report-service/internal/domain"
)

// runSynthesize builds a bounded prompt from the extracted content and calls
// the synthesizer once. Port errors are transient. An empty extraction set is
// not fatal: synthesis falls back to search snippets with a warning.
func (e *Engine) runSynthesize(ctx context.Context, job *domain.Job) Outcome {
	snap := job.Snapshot.Clone()

	sources, fallback := e.collectSources(snap)
	if len(sources) == 0 {
		snap.Synthesis = "No source material could be gathered for this query."
		return partial(snap, "no source material available for synthesis")
	}

	prompt := e.buildPrompt(job.Query, sources)

	text, err := e.synth.Synthesize(ctx, prompt)
	if err != nil {
		return transient(job.Snapshot, string(domain.StepSynthesize), err)
	}
	snap.Synthesis = text

	if fallback {
		return partial(snap, "synthesis used search snippets because no page content could be extracted")
	}
	return success(snap)
}

// promptSource is one source's contribution to the synthesis prompt.
type promptSource struct {
	title string
	url   string
	text  string
}

// collectSources gathers per-source text: extracted page content where a
// fetch succeeded, otherwise search snippets as fallback. The second return
// reports whether the fallback was used.
func (e *Engine) collectSources(snap domain.Snapshot) ([]promptSource, bool) {
	titles := make(map[string]string, len(snap.FilteredResults))
	for _, r := range snap.FilteredResults {
		titles[r.URL] = r.Title
	}

	var sources []promptSource
	for _, ec := range snap.Extracted {
		if !ec.Succeeded || ec.Text == "" {
			continue
		}
		sources = append(sources, promptSource{title: titles[ec.URL], url: ec.URL, text: ec.Text})
	}
	if len(sources) > 0 {
		return sources, false
	}

	for _, r := range snap.FilteredResults {
		if r.Snippet == "" {
			continue
		}
		sources = append(sources, promptSource{title: r.Title, url: r.URL, text: r.Snippet})
	}
	return sources, len(sources) > 0
}

// buildPrompt assembles the synthesis prompt, truncating each source to the
// per-source budget and the combined material to the total budget. Truncation
// keeps the prefix, so prompts are deterministic.
func (e *Engine) buildPrompt(query string, sources []promptSource) string {
	var b strings.Builder
	b.WriteString("You are a research analyst. Using only the source material below, ")
	b.WriteString("write a well-organized synthesis that answers the research question. ")
	b.WriteString("Be factual and concise; do not invent information absent from the sources.\n\n")
	fmt.Fprintf(&b, "Research question: %s\n\n", query)

	var material strings.Builder
	for i, src := range sources {
		text := src.text
		if len(text) > e.cfg.PerSourceChars {
			text = text[:e.cfg.PerSourceChars]
		}
		fmt.Fprintf(&material, "Source %d: %s (%s)\n%s\n\n", i+1, src.title, src.url, text)
		if material.Len() >= e.cfg.TotalChars {
			break
		}
	}
	content := material.String()
	if len(content) > e.cfg.TotalChars {
		content = content[:e.cfg.TotalChars]
	}

	b.WriteString(content)
	return b.String()
}
