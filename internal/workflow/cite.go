package workflow

import (
	"fmt"
	"time"

	"github.com/helixir/research-report-service/internal/domain"
)

// runCite builds one citation per distinct source URL among the succeeded
// extractions, in extraction order. Deterministic, no external calls.
func (e *Engine) runCite(job *domain.Job) Outcome {
	snap := job.Snapshot.Clone()

	titles := make(map[string]string, len(snap.FilteredResults))
	for _, r := range snap.FilteredResults {
		titles[r.URL] = r.Title
	}

	now := time.Now().UTC()
	seen := make(map[string]struct{}, len(snap.Extracted))
	var citations []domain.Citation
	for _, ec := range snap.Extracted {
		if !ec.Succeeded {
			continue
		}
		if _, dup := seen[ec.URL]; dup {
			continue
		}
		seen[ec.URL] = struct{}{}
		citations = append(citations, domain.Citation{
			SourceURL:      ec.URL,
			Title:          titles[ec.URL],
			AccessedAt:     now,
			FormattedEntry: formatAPA(titles[ec.URL], ec.URL, now),
		})
	}
	snap.Citations = citations

	return success(snap)
}

// formatAPA renders an APA-style reference entry, using the page title as the
// author surrogate since no author metadata exists.
func formatAPA(title, url string, accessed time.Time) string {
	if title == "" {
		title = url
	}
	return fmt.Sprintf("%s. (n.d.). Retrieved %s, from %s",
		title, accessed.Format("January 2, 2006"), url)
}
