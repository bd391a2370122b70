// Package observability provides logging and metrics support for the
// research report service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for jobs, stages, fetches, and collaborator calls
//   - Context helpers for propagating observability data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("job_id", jobID).Msg("job submitted")
//
// Add job context to a logger:
//
//	logger = observability.WithJobContext(logger, jobID, query)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("research_report")
//
// Record metrics:
//
//	metrics.JobsSubmitted.Inc()
//	metrics.StageRetries.WithLabelValues("search").Inc()
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - job_id: Research job identifier
//   - query: User's research query
//   - step: Pipeline step (intake, search, filter, ...)
//   - attempt: Retry attempt number within a step
//   - url: Fetched page URL
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
