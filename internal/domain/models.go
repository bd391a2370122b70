// Package domain provides domain models and business logic for the Research Report Service.
package domain

import (
	"time"
)

// JobStatus represents the top-level lifecycle states of a research job.
// Transitions are monotonic: once a job reaches Completed or Failed it
// never changes again.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal returns true if the status represents a final state that will not change.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// Step identifies a stage of the research pipeline. Steps execute in a
// fixed total order within a job; only the retry counter cycles within
// a step, never the step sequence itself.
type Step string

const (
	StepIntake     Step = "intake"
	StepSearch     Step = "search"
	StepFilter     Step = "filter"
	StepExtract    Step = "extract"
	StepSynthesize Step = "synthesize"
	StepCite       Step = "cite"
	StepReport     Step = "report"
	StepDone       Step = "done"
	StepError      Step = "error"
)

// IsTerminal returns true if the step is one of the two absorbing states.
func (s Step) IsTerminal() bool {
	return s == StepDone || s == StepError
}

// SearchResult is a single result returned by the search provider.
// RelevanceScore is zero until the filter stage assigns it.
type SearchResult struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Snippet        string  `json:"snippet"`
	RelevanceScore float64 `json:"relevance_score"`
}

// ExtractedContent holds the outcome of fetching one filtered URL.
// The extract stage produces exactly one entry per filtered result, in
// the same order as the filtered results, regardless of the order in
// which the fetches completed.
type ExtractedContent struct {
	URL       string `json:"url"`
	Text      string `json:"text,omitempty"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// Citation is a reference entry for one distinct source URL.
type Citation struct {
	SourceURL      string    `json:"source_url"`
	Title          string    `json:"title"`
	AccessedAt     time.Time `json:"accessed_at"`
	FormattedEntry string    `json:"formatted_entry"`
}

// Report is the final assembled research report.
type Report struct {
	Markdown     string     `json:"markdown"`
	Citations    []Citation `json:"citations,omitempty"`
	PublishedURL string     `json:"published_url,omitempty"`
}

// Snapshot is the accumulated intermediate data of a job. Stage functions
// consume one snapshot and return a new one; the registry only ever stores
// deep copies, so readers never observe the engine's working memory.
type Snapshot struct {
	RawResults      []SearchResult     `json:"raw_results,omitempty"`
	FilteredResults []SearchResult     `json:"filtered_results,omitempty"`
	Extracted       []ExtractedContent `json:"extracted,omitempty"`
	Synthesis       string             `json:"synthesis,omitempty"`
	Citations       []Citation         `json:"citations,omitempty"`
	Report          *Report            `json:"report,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Synthesis: s.Synthesis,
	}
	if s.RawResults != nil {
		out.RawResults = make([]SearchResult, len(s.RawResults))
		copy(out.RawResults, s.RawResults)
	}
	if s.FilteredResults != nil {
		out.FilteredResults = make([]SearchResult, len(s.FilteredResults))
		copy(out.FilteredResults, s.FilteredResults)
	}
	if s.Extracted != nil {
		out.Extracted = make([]ExtractedContent, len(s.Extracted))
		copy(out.Extracted, s.Extracted)
	}
	if s.Citations != nil {
		out.Citations = make([]Citation, len(s.Citations))
		copy(out.Citations, s.Citations)
	}
	if s.Report != nil {
		r := *s.Report
		if s.Report.Citations != nil {
			r.Citations = make([]Citation, len(s.Report.Citations))
			copy(r.Citations, s.Report.Citations)
		}
		out.Report = &r
	}
	return out
}
