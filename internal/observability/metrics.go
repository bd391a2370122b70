package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the research report service.
// Metrics are organized by subsystem: jobs, stages, extraction, and
// collaborator calls. All counters and histograms are registered via promauto
// for automatic registration with the default Prometheus registry.
type Metrics struct {
	// JobsSubmitted counts the total number of research jobs submitted.
	JobsSubmitted prometheus.Counter

	// JobsCompleted counts the total number of jobs that finished successfully.
	JobsCompleted prometheus.Counter

	// JobsFailed counts the total number of jobs that ended in failure.
	JobsFailed prometheus.Counter

	// JobsCancelled counts the total number of jobs cancelled by the user.
	JobsCancelled prometheus.Counter

	// JobDuration observes the end-to-end duration of jobs in seconds.
	JobDuration prometheus.Histogram

	// StageDuration observes stage execution duration in seconds, labeled by step.
	StageDuration *prometheus.HistogramVec

	// StageRetries counts retry attempts, labeled by step.
	StageRetries *prometheus.CounterVec

	// StageFailures counts fatal stage failures, labeled by step.
	StageFailures *prometheus.CounterVec

	// FetchesTotal counts content fetches attempted.
	FetchesTotal prometheus.Counter

	// FetchesFailed counts content fetches that failed.
	FetchesFailed prometheus.Counter

	// FetchDuration observes per-URL fetch duration in seconds.
	FetchDuration prometheus.Histogram

	// SearchRequests counts search provider calls, labeled by outcome.
	SearchRequests *prometheus.CounterVec

	// LLMRequests counts synthesis LLM calls, labeled by outcome.
	LLMRequests *prometheus.CounterVec

	// PublishAttempts counts report publish attempts, labeled by outcome.
	PublishAttempts *prometheus.CounterVec

	// NotificationsSent counts notification deliveries, labeled by outcome.
	NotificationsSent *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		JobsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "Total number of research jobs submitted",
		}),
		JobsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Total number of research jobs completed successfully",
		}),
		JobsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Total number of research jobs that failed",
		}),
		JobsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_cancelled_total",
			Help:      "Total number of research jobs cancelled",
		}),
		JobDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of research jobs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds by step",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"step"}),
		StageRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_retries_total",
			Help:      "Total number of stage retry attempts by step",
		}, []string{"step"}),
		StageFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Total number of fatal stage failures by step",
		}, []string{"step"}),
		FetchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Total number of content fetches attempted",
		}),
		FetchesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_failed_total",
			Help:      "Total number of content fetches that failed",
		}),
		FetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of per-URL content fetches in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		}),
		SearchRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of search provider calls by outcome",
		}, []string{"outcome"}),
		LLMRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of synthesis LLM calls by outcome",
		}, []string{"outcome"}),
		PublishAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_attempts_total",
			Help:      "Total number of report publish attempts by outcome",
		}, []string{"outcome"}),
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of notification deliveries by outcome",
		}, []string{"outcome"}),
	}
}

// Outcome label values for the *_total vectors.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// RecordJobSubmitted increments the submitted counter.
func (m *Metrics) RecordJobSubmitted() {
	m.JobsSubmitted.Inc()
}

// RecordJobCompleted increments the completed counter and observes duration.
func (m *Metrics) RecordJobCompleted(seconds float64) {
	m.JobsCompleted.Inc()
	m.JobDuration.Observe(seconds)
}

// RecordJobFailed increments the failed counter and observes duration.
func (m *Metrics) RecordJobFailed(seconds float64) {
	m.JobsFailed.Inc()
	m.JobDuration.Observe(seconds)
}

// RecordJobCancelled increments the cancelled counter.
func (m *Metrics) RecordJobCancelled() {
	m.JobsCancelled.Inc()
}

// RecordStage observes one stage execution.
func (m *Metrics) RecordStage(step string, seconds float64) {
	m.StageDuration.WithLabelValues(step).Observe(seconds)
}

// RecordStageRetry counts one retry of the given step.
func (m *Metrics) RecordStageRetry(step string) {
	m.StageRetries.WithLabelValues(step).Inc()
}

// RecordStageFailure counts one fatal failure of the given step.
func (m *Metrics) RecordStageFailure(step string) {
	m.StageFailures.WithLabelValues(step).Inc()
}

// RecordFetch observes one content fetch.
func (m *Metrics) RecordFetch(seconds float64, failed bool) {
	m.FetchesTotal.Inc()
	m.FetchDuration.Observe(seconds)
	if failed {
		m.FetchesFailed.Inc()
	}
}
