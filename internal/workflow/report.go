package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/helixir/research-report-service/internal/domain"
)

// runReport assembles the final markdown report from the synthesis, the
// citations, and the job's metadata. Purely deterministic templating.
func (e *Engine) runReport(job *domain.Job) Outcome {
	snap := job.Snapshot.Clone()

	var b strings.Builder
	fmt.Fprintf(&b, "# Research Report: %s\n\n", job.Query)

	fmt.Fprintf(&b, "- **Job ID:** %s\n", job.ID)
	fmt.Fprintf(&b, "- **Created:** %s\n", job.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Generated:** %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Sources cited:** %d\n", len(snap.Citations))
	if len(job.Warnings) > 0 {
		b.WriteString("- **Warnings:**\n")
		for _, w := range job.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}
	b.WriteString("\n## Summary\n\n")
	b.WriteString(snap.Synthesis)
	b.WriteString("\n")

	if len(snap.Citations) > 0 {
		b.WriteString("\n## References\n\n")
		for i, c := range snap.Citations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c.FormattedEntry)
		}
	}

	snap.Report = &domain.Report{
		Markdown:  b.String(),
		Citations: append([]domain.Citation(nil), snap.Citations...),
	}
	return success(snap)
}
