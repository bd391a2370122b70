package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/helixir/research-report-service/internal/domain"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// submitResponse is returned from POST /api/v1/research.
type submitResponse struct {
	JobID      string    `json:"job_id"`
	Query      string    `json:"query"`
	MaxResults int       `json:"max_results"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// citationResponse is one reference entry of a finished report.
type citationResponse struct {
	SourceURL      string    `json:"source_url"`
	Title          string    `json:"title"`
	AccessedAt     time.Time `json:"accessed_at"`
	FormattedEntry string    `json:"formatted_entry"`
}

// reportResponse is the final report of a completed job.
type reportResponse struct {
	Markdown     string             `json:"markdown"`
	Citations    []citationResponse `json:"citations,omitempty"`
	PublishedURL string             `json:"published_url,omitempty"`
}

// jobResponse is the full job view returned from GET endpoints.
type jobResponse struct {
	JobID        string          `json:"job_id"`
	Query        string          `json:"query"`
	MaxResults   int             `json:"max_results"`
	Status       string          `json:"status"`
	CurrentStep  string          `json:"current_step"`
	RetryCount   int             `json:"retry_count"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Warnings     []string        `json:"warnings,omitempty"`
	Report       *reportResponse `json:"report,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	Duration     string          `json:"duration,omitempty"`
}

// listResponse wraps a page of job views.
type listResponse struct {
	Jobs   []jobResponse `json:"jobs"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// cancelResponse acknowledges a cancellation request.
type cancelResponse struct {
	JobID        string `json:"job_id"`
	Acknowledged bool   `json:"acknowledged"`
}

// toJobResponse converts a domain job into its API view.
func toJobResponse(job domain.Job) jobResponse {
	resp := jobResponse{
		JobID:        job.ID.String(),
		Query:        job.Query,
		MaxResults:   job.MaxResults,
		Status:       string(job.Status),
		CurrentStep:  string(job.CurrentStep),
		RetryCount:   job.RetryCount,
		ErrorMessage: job.ErrorMessage,
		Warnings:     job.Warnings,
		CreatedAt:    job.CreatedAt,
		CompletedAt:  job.CompletedAt,
	}
	if d := job.Duration(); d > 0 {
		resp.Duration = d.Round(time.Millisecond).String()
	}
	if job.Snapshot.Report != nil {
		report := &reportResponse{
			Markdown:     job.Snapshot.Report.Markdown,
			PublishedURL: job.Snapshot.Report.PublishedURL,
		}
		for _, c := range job.Snapshot.Report.Citations {
			report.Citations = append(report.Citations, citationResponse{
				SourceURL:      c.SourceURL,
				Title:          c.Title,
				AccessedAt:     c.AccessedAt,
				FormattedEntry: c.FormattedEntry,
			})
		}
		resp.Report = report
	}
	return resp
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the JSON error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
