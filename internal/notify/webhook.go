// Package notify delivers terminal-state job notifications. Delivery is best
// effort: failures are logged and counted, never surfaced into job status.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/config"
	"github.com/helixir/research-report-service/internal/workflow"
)

// WebhookNotifier POSTs the notification payload as JSON to a configured
// endpoint. It implements the workflow.Notifier port.
type WebhookNotifier struct {
	client    *http.Client
	url       string
	authToken string
	logger    zerolog.Logger
}

// NewWebhookNotifier creates a webhook notifier from configuration.
func NewWebhookNotifier(cfg config.NotifyConfig, logger zerolog.Logger) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookNotifier{
		client:    &http.Client{Timeout: timeout},
		url:       cfg.WebhookURL,
		authToken: cfg.AuthToken,
		logger:    logger,
	}
}

// Notify delivers the payload. A non-2xx response is an error so the caller
// can count the failure.
func (n *WebhookNotifier) Notify(ctx context.Context, payload workflow.Notification) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+n.authToken)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("deliver notification: unexpected status %d", resp.StatusCode)
	}

	n.logger.Debug().
		Str("job_id", payload.JobID).
		Str("status", payload.Status).
		Msg("notification delivered")
	return nil
}
