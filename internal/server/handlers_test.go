package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-report-service/internal/domain"
)

// fakeStore implements JobStore with pluggable functions.
type fakeStore struct {
	submitFn func(ctx context.Context, query string, maxResults int) domain.Job
	getFn    func(id uuid.UUID) (domain.Job, error)
	listFn   func(limit, offset int) []domain.Job
	cancelFn func(id uuid.UUID) error
}

func (f *fakeStore) Submit(ctx context.Context, query string, maxResults int) domain.Job {
	if f.submitFn != nil {
		return f.submitFn(ctx, query, maxResults)
	}
	return domain.NewJob(query, maxResults)
}

func (f *fakeStore) Get(id uuid.UUID) (domain.Job, error) {
	if f.getFn != nil {
		return f.getFn(id)
	}
	return domain.Job{}, domain.NewNotFoundError("job", id.String())
}

func (f *fakeStore) List(limit, offset int) []domain.Job {
	if f.listFn != nil {
		return f.listFn(limit, offset)
	}
	return nil
}

func (f *fakeStore) Cancel(id uuid.UUID) error {
	if f.cancelFn != nil {
		return f.cancelFn(id)
	}
	return domain.NewNotFoundError("job", id.String())
}

func newTestServer(store JobStore) *Server {
	return NewServer(Config{Address: "127.0.0.1:0"}, store, zerolog.Nop())
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestSubmitResearch(t *testing.T) {
	t.Run("accepts valid request", func(t *testing.T) {
		var gotQuery string
		var gotMax int
		store := &fakeStore{
			submitFn: func(ctx context.Context, query string, maxResults int) domain.Job {
				gotQuery, gotMax = query, maxResults
				return domain.NewJob(query, maxResults)
			},
		}
		s := newTestServer(store)

		rec := doRequest(t, s, http.MethodPost, "/api/v1/research", `{"query": "What is LangChain?", "max_results": 5}`)

		require.Equal(t, http.StatusAccepted, rec.Code)
		var resp submitResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "What is LangChain?", gotQuery)
		assert.Equal(t, 5, gotMax)
		assert.Equal(t, "pending", resp.Status)
		assert.NotEmpty(t, resp.JobID)
	})

	t.Run("rejects empty query", func(t *testing.T) {
		s := newTestServer(&fakeStore{})
		rec := doRequest(t, s, http.MethodPost, "/api/v1/research", `{"query": "   "}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "query is required")
	})

	t.Run("rejects oversized query", func(t *testing.T) {
		s := newTestServer(&fakeStore{})
		body := `{"query": "` + strings.Repeat("a", 10001) + `"}`
		rec := doRequest(t, s, http.MethodPost, "/api/v1/research", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects max_results out of range", func(t *testing.T) {
		s := newTestServer(&fakeStore{})
		rec := doRequest(t, s, http.MethodPost, "/api/v1/research", `{"query": "q", "max_results": 500}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "max_results")
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		s := newTestServer(&fakeStore{})
		rec := doRequest(t, s, http.MethodPost, "/api/v1/research", `{"query": `)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects non-JSON content type", func(t *testing.T) {
		s := newTestServer(&fakeStore{})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/research", strings.NewReader("query=x"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestGetResearch(t *testing.T) {
	t.Run("returns job view", func(t *testing.T) {
		job := domain.NewJob("What is LangChain?", 5)
		job.Status = domain.JobStatusCompleted
		job.CurrentStep = domain.StepDone
		now := time.Now().UTC()
		job.CompletedAt = &now
		job.Snapshot.Report = &domain.Report{
			Markdown:     "# Research Report",
			PublishedURL: "https://docs.google.com/document/d/x/edit",
			Citations: []domain.Citation{
				{SourceURL: "https://a", Title: "A", FormattedEntry: "A. (n.d.)."},
			},
		}
		store := &fakeStore{
			getFn: func(id uuid.UUID) (domain.Job, error) {
				require.Equal(t, job.ID, id)
				return job, nil
			},
		}
		s := newTestServer(store)

		rec := doRequest(t, s, http.MethodGet, "/api/v1/research/"+job.ID.String(), "")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp jobResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "completed", resp.Status)
		assert.Equal(t, "done", resp.CurrentStep)
		require.NotNil(t, resp.Report)
		assert.Equal(t, "# Research Report", resp.Report.Markdown)
		require.Len(t, resp.Report.Citations, 1)
		assert.NotEmpty(t, resp.Duration)
	})

	t.Run("not found", func(t *testing.T) {
		s := newTestServer(&fakeStore{})
		rec := doRequest(t, s, http.MethodGet, "/api/v1/research/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		s := newTestServer(&fakeStore{})
		rec := doRequest(t, s, http.MethodGet, "/api/v1/research/not-a-uuid", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListResearch(t *testing.T) {
	t.Run("passes pagination through", func(t *testing.T) {
		var gotLimit, gotOffset int
		store := &fakeStore{
			listFn: func(limit, offset int) []domain.Job {
				gotLimit, gotOffset = limit, offset
				return []domain.Job{domain.NewJob("q1", 5), domain.NewJob("q2", 5)}
			},
		}
		s := newTestServer(store)

		rec := doRequest(t, s, http.MethodGet, "/api/v1/research?limit=2&offset=4", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, gotLimit)
		assert.Equal(t, 4, gotOffset)
		var resp listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Jobs, 2)
	})

	t.Run("default pagination", func(t *testing.T) {
		var gotLimit int
		store := &fakeStore{
			listFn: func(limit, offset int) []domain.Job {
				gotLimit = limit
				return nil
			},
		}
		s := newTestServer(store)

		rec := doRequest(t, s, http.MethodGet, "/api/v1/research", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, defaultPageSize, gotLimit)
	})

	t.Run("rejects bad limit", func(t *testing.T) {
		s := newTestServer(&fakeStore{})
		rec := doRequest(t, s, http.MethodGet, "/api/v1/research?limit=9999", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCancelResearch(t *testing.T) {
	t.Run("acknowledges cancellation", func(t *testing.T) {
		id := uuid.New()
		store := &fakeStore{
			cancelFn: func(got uuid.UUID) error {
				require.Equal(t, id, got)
				return nil
			},
		}
		s := newTestServer(store)

		rec := doRequest(t, s, http.MethodDelete, "/api/v1/research/"+id.String(), "")

		require.Equal(t, http.StatusAccepted, rec.Code)
		var resp cancelResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Acknowledged)
	})

	t.Run("not found", func(t *testing.T) {
		s := newTestServer(&fakeStore{})
		rec := doRequest(t, s, http.MethodDelete, "/api/v1/research/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("already terminal", func(t *testing.T) {
		store := &fakeStore{
			cancelFn: func(uuid.UUID) error { return domain.ErrAlreadyTerminal },
		}
		s := newTestServer(store)

		rec := doRequest(t, s, http.MethodDelete, "/api/v1/research/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakeStore{})
	rec := doRequest(t, s, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}
