package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-report-service/internal/config"
	"github.com/helixir/research-report-service/internal/workflow"
)

// Compile-time interface checks.
var (
	_ workflow.Notifier = (*WebhookNotifier)(nil)
	_ workflow.Notifier = (*KafkaNotifier)(nil)
)

func TestWebhookNotify_DeliversPayload(t *testing.T) {
	var gotAuth, gotContentType string
	var gotPayload workflow.Notification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(config.NotifyConfig{
		WebhookURL: server.URL,
		AuthToken:  "hook-token",
		Timeout:    time.Second,
	}, zerolog.Nop())

	err := n.Notify(context.Background(), workflow.Notification{
		JobID:  "job-1",
		Query:  "what is langchain",
		Status: "completed",
	})

	require.NoError(t, err)
	assert.Equal(t, "Bearer hook-token", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "job-1", gotPayload.JobID)
	assert.Equal(t, "completed", gotPayload.Status)
}

func TestWebhookNotify_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := NewWebhookNotifier(config.NotifyConfig{WebhookURL: server.URL, Timeout: time.Second}, zerolog.Nop())

	err := n.Notify(context.Background(), workflow.Notification{JobID: "job-1"})
	assert.ErrorContains(t, err, "status 502")
}

func TestWebhookNotify_NoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := NewWebhookNotifier(config.NotifyConfig{WebhookURL: server.URL, Timeout: time.Second}, zerolog.Nop())

	require.NoError(t, n.Notify(context.Background(), workflow.Notification{JobID: "job-1"}))
	assert.Empty(t, gotAuth)
}

func TestNew(t *testing.T) {
	t.Run("none sink disables notifications", func(t *testing.T) {
		n, err := New(config.NotifyConfig{Sink: "none"}, zerolog.Nop())
		require.NoError(t, err)
		assert.Nil(t, n)
	})

	t.Run("webhook sink", func(t *testing.T) {
		n, err := New(config.NotifyConfig{Sink: "webhook", WebhookURL: "http://localhost:1"}, zerolog.Nop())
		require.NoError(t, err)
		assert.IsType(t, &WebhookNotifier{}, n)
	})

	t.Run("kafka sink", func(t *testing.T) {
		n, err := New(config.NotifyConfig{Sink: "kafka", Brokers: []string{"localhost:9092"}, Topic: "events"}, zerolog.Nop())
		require.NoError(t, err)
		assert.IsType(t, &KafkaNotifier{}, n)
	})

	t.Run("unknown sink", func(t *testing.T) {
		_, err := New(config.NotifyConfig{Sink: "carrier-pigeon"}, zerolog.Nop())
		assert.Error(t, err)
	})
}
