package workflow

import "github.com/helixir/research-report-service/internal/domain"

// OutcomeKind classifies how a stage function finished. The engine's
// transition rule is defined entirely in terms of this kind; stages never
// decide routing themselves.
type OutcomeKind int

const (
	// OutcomeSuccess advances to the next stage.
	OutcomeSuccess OutcomeKind = iota

	// OutcomePartial advances like success, with sub-item failures recorded
	// as warnings.
	OutcomePartial

	// OutcomeTransient re-runs the same stage after backoff while retry
	// budget remains, then fails the job.
	OutcomeTransient

	// OutcomeFatal fails the job immediately, with no retry.
	OutcomeFatal
)

// String returns the kind's log label.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomePartial:
		return "partial"
	case OutcomeTransient:
		return "transient"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the typed result of one stage execution. Stages return a new
// snapshot rather than mutating the one they were given.
type Outcome struct {
	Kind     OutcomeKind
	Snapshot domain.Snapshot
	Warnings []string
	Err      error
}

func success(snap domain.Snapshot) Outcome {
	return Outcome{Kind: OutcomeSuccess, Snapshot: snap}
}

func partial(snap domain.Snapshot, warnings ...string) Outcome {
	return Outcome{Kind: OutcomePartial, Snapshot: snap, Warnings: warnings}
}

func transient(snap domain.Snapshot, stage string, err error) Outcome {
	return Outcome{Kind: OutcomeTransient, Snapshot: snap, Err: domain.NewTransientError(stage, err)}
}

func fatal(snap domain.Snapshot, err error) Outcome {
	return Outcome{Kind: OutcomeFatal, Snapshot: snap, Err: err}
}
