package fetch

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"context"

	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/config"
)

// Fetcher retrieves a single page and reduces it to readable text. It
// implements the workflow.ContentFetcher port. Per-fetch timeouts come from
// the caller's context; the extraction scheduler applies them.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxLength int
	logger    zerolog.Logger
}

// NewFetcher creates a fetcher from the application configuration.
func NewFetcher(cfg config.ExtractionConfig, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		client:    &http.Client{},
		userAgent: cfg.UserAgent,
		maxLength: cfg.MaxContentLength,
		logger:    logger,
	}
}

// Fetch downloads the URL and returns its visible text, truncated to the
// configured maximum length.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "text/plain") {
		return "", fmt.Errorf("fetch %s: unsupported content type %q", url, contentType)
	}

	// Read a bounded amount of raw HTML; markup overhead means the visible
	// text is shorter still.
	limit := int64(f.maxLength) * 10
	if limit <= 0 {
		limit = 1 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}

	var text string
	if strings.Contains(contentType, "text/plain") {
		text = collapseWhitespace(string(body))
	} else {
		text, err = ExtractText(string(body))
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", url, err)
		}
	}

	if f.maxLength > 0 && len(text) > f.maxLength {
		text = text[:f.maxLength]
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("fetch %s: no readable text", url)
	}
	return text, nil
}
