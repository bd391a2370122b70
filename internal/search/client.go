package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/config"
	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/observability"
)

// searchResponse is the JSON shape of a SearxNG-compatible search API.
type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Client queries a SearxNG-compatible JSON search API. It implements the
// workflow.SearchProvider port.
type Client struct {
	http    *HTTPClient
	baseURL string
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewClient creates a search client from the application configuration.
func NewClient(cfg config.SearchConfig, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		http: NewHTTPClient(HTTPClientConfig{
			Timeout:    cfg.Timeout,
			RateLimit:  cfg.RateLimit,
			BurstSize:  cfg.BurstSize,
			MaxRetries: cfg.MaxRetries,
			APIKey:     cfg.APIKey,
		}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger,
		metrics: metrics,
	}
}

// Search queries the API and returns up to maxResults results. An empty
// result set is returned as-is; transport and server failures are returned
// as errors for the engine's retry policy to handle.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, url.Values{
		"q":      {query},
		"format": {"json"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(observability.OutcomeError)
		return nil, fmt.Errorf("search request: %w: %w", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.record(observability.OutcomeError)
		return nil, fmt.Errorf("search request: %w: unexpected status %d", domain.ErrServiceUnavailable, resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.record(observability.OutcomeError)
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, domain.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
		})
		if len(results) == maxResults {
			break
		}
	}

	c.record(observability.OutcomeSuccess)
	c.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("search completed")
	return results, nil
}

func (c *Client) record(outcome string) {
	if c.metrics != nil {
		c.metrics.SearchRequests.WithLabelValues(outcome).Inc()
	}
}
