// Package config provides configuration management for the research report service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research report service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Workflow contains workflow engine retry and timeout settings.
	Workflow WorkflowConfig `mapstructure:"workflow"`
	// Intake contains request validation limits.
	Intake IntakeConfig `mapstructure:"intake"`
	// Extraction contains content extraction fan-out settings.
	Extraction ExtractionConfig `mapstructure:"extraction"`
	// Synthesis contains prompt budget settings for the synthesize stage.
	Synthesis SynthesisConfig `mapstructure:"synthesis"`
	// Search contains search provider client settings.
	Search SearchConfig `mapstructure:"search"`
	// LLM contains LLM client settings for synthesis.
	LLM LLMConfig `mapstructure:"llm"`
	// Publish contains document publisher settings.
	Publish PublishConfig `mapstructure:"publish"`
	// Notify contains notification sink settings.
	Notify NotifyConfig `mapstructure:"notify"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading the request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the maximum time to wait for the next request on a kept-alive connection.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// WorkflowConfig holds workflow engine retry and timeout settings.
type WorkflowConfig struct {
	// MaxRetries is the retry budget per stage for transient errors (default: 3).
	MaxRetries int `mapstructure:"max_retries"`
	// InitialBackoff is the delay before the first retry (default: 1s).
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	// BackoffMultiplier controls exponential growth of the backoff interval (default: 2.0).
	BackoffMultiplier float64 `mapstructure:"backoff_multiplier"`
	// MaxBackoff caps the backoff interval.
	MaxBackoff time.Duration `mapstructure:"max_backoff"`
	// JobTimeout bounds the total runtime of a job. Zero disables the bound.
	JobTimeout time.Duration `mapstructure:"job_timeout"`
}

// IntakeConfig holds request validation limits.
type IntakeConfig struct {
	// MaxQueryLength is the maximum accepted query length in bytes.
	MaxQueryLength int `mapstructure:"max_query_length"`
	// MaxResultsCap is the upper bound on a job's max_results option.
	MaxResultsCap int `mapstructure:"max_results_cap"`
	// DefaultMaxResults is used when a request omits max_results.
	DefaultMaxResults int `mapstructure:"default_max_results"`
}

// ExtractionConfig holds content extraction fan-out settings.
type ExtractionConfig struct {
	// Workers is the number of concurrent fetches (default: 5).
	Workers int `mapstructure:"workers"`
	// FetchTimeout is the per-URL fetch timeout (default: 10s).
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	// StageTimeout bounds the whole extraction batch. Zero disables the bound.
	StageTimeout time.Duration `mapstructure:"stage_timeout"`
	// FailureThreshold is the fraction of failed fetches at which the batch
	// is treated as a systemic, retryable failure (default: 0.9).
	FailureThreshold float64 `mapstructure:"failure_threshold"`
	// MaxContentLength truncates each fetched page to this many bytes.
	MaxContentLength int `mapstructure:"max_content_length"`
	// UserAgent is the User-Agent header sent with page fetches.
	UserAgent string `mapstructure:"user_agent"`
}

// SynthesisConfig holds prompt budget settings.
type SynthesisConfig struct {
	// PerSourceChars truncates each source's text before prompting (default: 2000).
	PerSourceChars int `mapstructure:"per_source_chars"`
	// TotalChars truncates the concatenated prompt content (default: 15000).
	TotalChars int `mapstructure:"total_chars"`
}

// SearchConfig holds search provider client settings.
type SearchConfig struct {
	// BaseURL is the search API base URL (SearxNG-compatible JSON API).
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for search API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the rate limiter burst size.
	BurstSize int `mapstructure:"burst_size"`
	// MaxRetries is the maximum number of HTTP-level retry attempts.
	MaxRetries int `mapstructure:"max_retries"`
	// APIKey is an optional API key (loaded from RESEARCH_SEARCH_API_KEY).
	APIKey string `mapstructure:"-"`
}

// LLMConfig holds LLM client configuration for the synthesize stage.
type LLMConfig struct {
	// Model is the OpenAI model to use.
	Model string `mapstructure:"model"`
	// BaseURL is the OpenAI API base URL (for custom endpoints).
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for LLM API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// Temperature is the sampling temperature.
	Temperature float64 `mapstructure:"temperature"`
	// MaxTokens bounds the completion length. Zero leaves it to the provider.
	MaxTokens int `mapstructure:"max_tokens"`
	// APIKey is the OpenAI API key (loaded from RESEARCH_LLM_API_KEY).
	APIKey string `mapstructure:"-"`
}

// PublishConfig holds document publisher settings.
type PublishConfig struct {
	// Enabled controls whether completed reports are published.
	Enabled bool `mapstructure:"enabled"`
	// CredentialsFile is the path to a Google service account JSON file.
	CredentialsFile string `mapstructure:"credentials_file"`
	// FolderID is an optional Drive folder to place documents in.
	FolderID string `mapstructure:"folder_id"`
	// Timeout is the timeout for publish API calls.
	Timeout time.Duration `mapstructure:"timeout"`
}

// NotifyConfig holds notification sink settings.
type NotifyConfig struct {
	// Sink selects the notifier implementation (none, webhook, kafka).
	Sink string `mapstructure:"sink"`
	// WebhookURL is the webhook endpoint for the webhook sink.
	WebhookURL string `mapstructure:"webhook_url"`
	// Timeout is the timeout for webhook calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// Brokers is the list of Kafka broker addresses for the kafka sink.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the Kafka topic for job event messages.
	Topic string `mapstructure:"topic"`
	// BatchTimeout is the maximum time to wait for a Kafka batch to fill.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	// AuthToken is an optional bearer token for the webhook sink
	// (loaded from RESEARCH_NOTIFY_AUTH_TOKEN).
	AuthToken string `mapstructure:"-"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("RESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/research-report-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.LLM.APIKey = os.Getenv("RESEARCH_LLM_API_KEY")
	cfg.Search.APIKey = os.Getenv("RESEARCH_SEARCH_API_KEY")
	cfg.Notify.AuthToken = os.Getenv("RESEARCH_NOTIFY_AUTH_TOKEN")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Workflow defaults: three retries at 1s, 2s, 4s.
	v.SetDefault("workflow.max_retries", 3)
	v.SetDefault("workflow.initial_backoff", "1s")
	v.SetDefault("workflow.backoff_multiplier", 2.0)
	v.SetDefault("workflow.max_backoff", "60s")
	v.SetDefault("workflow.job_timeout", "0")

	// Intake defaults
	v.SetDefault("intake.max_query_length", 10000)
	v.SetDefault("intake.max_results_cap", 25)
	v.SetDefault("intake.default_max_results", 10)

	// Extraction defaults
	v.SetDefault("extraction.workers", 5)
	v.SetDefault("extraction.fetch_timeout", "10s")
	v.SetDefault("extraction.stage_timeout", "0")
	v.SetDefault("extraction.failure_threshold", 0.9)
	v.SetDefault("extraction.max_content_length", 20000)
	v.SetDefault("extraction.user_agent", "Helixir-ResearchService/1.0")

	// Synthesis defaults
	v.SetDefault("synthesis.per_source_chars", 2000)
	v.SetDefault("synthesis.total_chars", 15000)

	// Search defaults
	v.SetDefault("search.base_url", "http://localhost:8888")
	v.SetDefault("search.timeout", "30s")
	v.SetDefault("search.rate_limit", 5.0)
	v.SetDefault("search.burst_size", 5)
	v.SetDefault("search.max_retries", 3)

	// LLM defaults
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 0)

	// Publish defaults
	v.SetDefault("publish.enabled", false)
	v.SetDefault("publish.credentials_file", "")
	v.SetDefault("publish.folder_id", "")
	v.SetDefault("publish.timeout", "30s")

	// Notify defaults
	v.SetDefault("notify.sink", "none")
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.timeout", "30s")
	v.SetDefault("notify.brokers", []string{"localhost:9092"})
	v.SetDefault("notify.topic", "events.research_report_service")
	v.SetDefault("notify.batch_timeout", "10ms")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Workflow.MaxRetries < 0 {
		return fmt.Errorf("workflow max_retries must not be negative")
	}
	if c.Workflow.InitialBackoff < 0 {
		return fmt.Errorf("workflow initial_backoff must not be negative")
	}
	if c.Workflow.BackoffMultiplier < 1 {
		return fmt.Errorf("workflow backoff_multiplier must be at least 1")
	}

	if c.Intake.MaxQueryLength <= 0 {
		return fmt.Errorf("intake max_query_length must be positive")
	}
	if c.Intake.MaxResultsCap <= 0 {
		return fmt.Errorf("intake max_results_cap must be positive")
	}
	if c.Intake.DefaultMaxResults <= 0 || c.Intake.DefaultMaxResults > c.Intake.MaxResultsCap {
		return fmt.Errorf("intake default_max_results must be in [1, %d]", c.Intake.MaxResultsCap)
	}

	if c.Extraction.Workers <= 0 {
		return fmt.Errorf("extraction workers must be positive")
	}
	if c.Extraction.FetchTimeout <= 0 {
		return fmt.Errorf("extraction fetch_timeout must be positive")
	}
	if c.Extraction.FailureThreshold <= 0 || c.Extraction.FailureThreshold > 1 {
		return fmt.Errorf("extraction failure_threshold must be in (0, 1]")
	}

	if c.Synthesis.PerSourceChars <= 0 || c.Synthesis.TotalChars <= 0 {
		return fmt.Errorf("synthesis budgets must be positive")
	}

	if c.Search.BaseURL == "" {
		return fmt.Errorf("search base_url is required")
	}

	switch strings.ToLower(c.Notify.Sink) {
	case "none":
	case "webhook":
		if c.Notify.WebhookURL == "" {
			return fmt.Errorf("notify sink %q requires notify.webhook_url", c.Notify.Sink)
		}
	case "kafka":
		if len(c.Notify.Brokers) == 0 {
			return fmt.Errorf("notify sink %q requires notify.brokers", c.Notify.Sink)
		}
	default:
		return fmt.Errorf("invalid notify sink: %s", c.Notify.Sink)
	}

	if c.Publish.Enabled && c.Publish.CredentialsFile == "" {
		return fmt.Errorf("publish.credentials_file is required when publishing is enabled")
	}

	return nil
}
