package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/helixir/research-report-service/internal/domain"
)

// Pagination and validation constants.
const (
	defaultPageSize    = 50
	maxPageSize        = 100
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
)

var validate = validator.New()

// submitRequest is the JSON request body for starting a research job.
type submitRequest struct {
	Query      string `json:"query" validate:"required,max=10000"`
	MaxResults int    `json:"max_results" validate:"omitempty,min=1,max=25"`
}

// submitResearch handles POST /api/v1/research.
func (s *Server) submitResearch(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req submitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	job := s.store.Submit(r.Context(), req.Query, req.MaxResults)

	writeJSON(w, http.StatusAccepted, submitResponse{
		JobID:      job.ID.String(),
		Query:      job.Query,
		MaxResults: job.MaxResults,
		Status:     string(job.Status),
		CreatedAt:  job.CreatedAt,
	})
}

// getResearch handles GET /api/v1/research/{jobID}.
func (s *Server) getResearch(w http.ResponseWriter, r *http.Request) {
	id, ok := parseJobID(w, r)
	if !ok {
		return
	}

	job, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(job))
}

// listResearch handles GET /api/v1/research.
func (s *Server) listResearch(w http.ResponseWriter, r *http.Request) {
	limit := defaultPageSize
	offset := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxPageSize {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = v
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "offset must not be negative")
			return
		}
		offset = v
	}

	jobs := s.store.List(limit, offset)
	resp := listResponse{
		Jobs:   make([]jobResponse, 0, len(jobs)),
		Limit:  limit,
		Offset: offset,
	}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, toJobResponse(job))
	}

	writeJSON(w, http.StatusOK, resp)
}

// cancelResearch handles DELETE /api/v1/research/{jobID}.
func (s *Server) cancelResearch(w http.ResponseWriter, r *http.Request) {
	id, ok := parseJobID(w, r)
	if !ok {
		return
	}

	err := s.store.Cancel(id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, cancelResponse{JobID: id.String(), Acknowledged: true})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyTerminal):
		writeError(w, http.StatusConflict, "job is already in a terminal state")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// parseJobID extracts and validates the jobID path parameter.
func parseJobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "jobID")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return uuid.Nil, false
	}
	return id, true
}

// validationMessage flattens a validator error into a user-facing message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Query":
		if fe.Tag() == "required" {
			return "query is required"
		}
		return "query must be at most 10000 characters"
	case "MaxResults":
		return "max_results must be between 1 and 25"
	default:
		return "invalid request"
	}
}
