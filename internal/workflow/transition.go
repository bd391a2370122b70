package workflow

import "github.com/helixir/research-report-service/internal/domain"

// Decision is the engine's routing verdict after a stage returns.
type Decision int

const (
	// DecisionAdvance moves to the next stage with retryCount reset to 0.
	DecisionAdvance Decision = iota

	// DecisionRetry re-runs the same stage after a backoff delay.
	DecisionRetry

	// DecisionFail routes the job to the absorbing error state.
	DecisionFail
)

// stepSequence is the fixed total order of pipeline stages. Only the retry
// counter cycles within a step; the sequence itself has no back-edges.
var stepSequence = []domain.Step{
	domain.StepIntake,
	domain.StepSearch,
	domain.StepFilter,
	domain.StepExtract,
	domain.StepSynthesize,
	domain.StepCite,
	domain.StepReport,
	domain.StepDone,
}

// NextStep returns the stage that follows s in the pipeline. Terminal steps
// map to themselves.
func NextStep(s domain.Step) domain.Step {
	for i, step := range stepSequence {
		if step == s && i+1 < len(stepSequence) {
			return stepSequence[i+1]
		}
	}
	return s
}

// Transition is the single routing rule of the engine: given the stage just
// executed, how it finished, and the remaining retry budget, decide what
// happens next. It is pure so the policy can be tested exhaustively.
func Transition(step domain.Step, kind OutcomeKind, retriesLeft int) Decision {
	if step.IsTerminal() {
		return DecisionFail
	}
	switch kind {
	case OutcomeSuccess, OutcomePartial:
		return DecisionAdvance
	case OutcomeTransient:
		if retriesLeft > 0 {
			return DecisionRetry
		}
		return DecisionFail
	default:
		return DecisionFail
	}
}
