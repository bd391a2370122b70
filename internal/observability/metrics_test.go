package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: prometheus/promauto registers metrics globally, so each test uses a
// unique namespace to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_research_report_new")

	assert.NotNil(t, m.JobsSubmitted)
	assert.NotNil(t, m.JobsCompleted)
	assert.NotNil(t, m.JobsFailed)
	assert.NotNil(t, m.JobsCancelled)
	assert.NotNil(t, m.JobDuration)
	assert.NotNil(t, m.StageDuration)
	assert.NotNil(t, m.StageRetries)
	assert.NotNil(t, m.StageFailures)
	assert.NotNil(t, m.FetchesTotal)
	assert.NotNil(t, m.FetchesFailed)
	assert.NotNil(t, m.SearchRequests)
	assert.NotNil(t, m.LLMRequests)
	assert.NotNil(t, m.PublishAttempts)
	assert.NotNil(t, m.NotificationsSent)
}

func TestRecordJobSubmitted(t *testing.T) {
	m := NewMetrics("test_job_submitted")

	initial := testutil.ToFloat64(m.JobsSubmitted)
	m.RecordJobSubmitted()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.JobsSubmitted))
}

func TestRecordJobCompleted(t *testing.T) {
	m := NewMetrics("test_job_completed")

	initial := testutil.ToFloat64(m.JobsCompleted)
	m.RecordJobCompleted(5.5)
	assert.Equal(t, initial+1, testutil.ToFloat64(m.JobsCompleted))

	histCount, err := getHistogramSampleCount(m.JobDuration)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), histCount)
}

func TestRecordJobFailed(t *testing.T) {
	m := NewMetrics("test_job_failed")

	initial := testutil.ToFloat64(m.JobsFailed)
	m.RecordJobFailed(2.0)
	assert.Equal(t, initial+1, testutil.ToFloat64(m.JobsFailed))
}

func TestRecordStageRetry(t *testing.T) {
	m := NewMetrics("test_stage_retry")

	m.RecordStageRetry("search")
	m.RecordStageRetry("search")
	m.RecordStageRetry("extract")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.StageRetries.WithLabelValues("search")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StageRetries.WithLabelValues("extract")))
}

func TestRecordFetch(t *testing.T) {
	m := NewMetrics("test_fetch")

	m.RecordFetch(0.2, false)
	m.RecordFetch(1.2, true)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.FetchesTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FetchesFailed))
}

// getHistogramSampleCount extracts the sample count from a prometheus histogram.
func getHistogramSampleCount(h prometheus.Histogram) (uint64, error) {
	var metric dto.Metric
	if err := h.(prometheus.Metric).Write(&metric); err != nil {
		return 0, err
	}
	return metric.GetHistogram().GetSampleCount(), nil
}
