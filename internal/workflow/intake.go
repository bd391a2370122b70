package workflow

import (
	"fmt"
	"strings"

	"github.com/helixir/research-report-service/internal/domain"
)

// runIntake validates the job's inputs. Violations are fatal: a malformed
// request never enters a retry loop.
func (e *Engine) runIntake(job *domain.Job) Outcome {
	query := strings.TrimSpace(job.Query)
	if query == "" {
		return fatal(job.Snapshot, domain.NewValidationError("query", "must not be empty"))
	}
	if len(job.Query) > e.cfg.MaxQueryLength {
		return fatal(job.Snapshot, domain.NewValidationError("query",
			fmt.Sprintf("exceeds maximum length of %d characters", e.cfg.MaxQueryLength)))
	}
	if job.MaxResults < 1 || job.MaxResults > e.cfg.MaxResultsCap {
		return fatal(job.Snapshot, domain.NewValidationError("max_results",
			fmt.Sprintf("must be in [1, %d]", e.cfg.MaxResultsCap)))
	}

	// Start the pipeline from a clean snapshot.
	return success(domain.Snapshot{})
}
