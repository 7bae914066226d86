package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCountsRequestsPerRoute(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/api/v1/amendments", "GET", 200, 5*time.Millisecond)
	m.RecordRequest("/api/v1/amendments", "GET", 200, 7*time.Millisecond)
	m.RecordRequest("/api/v1/amendments", "POST", 201, 3*time.Millisecond)

	assert.Equal(t, int64(2), m.RequestCount("/api/v1/amendments", "GET", 200))
	assert.Equal(t, int64(1), m.RequestCount("/api/v1/amendments", "POST", 201))
	assert.Equal(t, int64(0), m.RequestCount("/api/v1/amendments", "GET", 500))
}

func TestMetricsCountsErrorsPerCode(t *testing.T) {
	m := NewMetrics()

	m.RecordError("/api/v1/amendments/42", "GET", "NOT_FOUND")
	m.RecordError("/api/v1/amendments/42", "GET", "NOT_FOUND")

	assert.Equal(t, int64(2), m.ErrorCount("/api/v1/amendments/42", "GET", "NOT_FOUND"))
	assert.Equal(t, int64(0), m.ErrorCount("/api/v1/amendments/42", "GET", "FORBIDDEN"))
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics

	m.RecordRequest("/health", "GET", 200, time.Millisecond)
	m.RecordError("/health", "GET", "INTERNAL_ERROR")

	assert.Equal(t, int64(0), m.RequestCount("/health", "GET", 200))
	assert.Equal(t, int64(0), m.ErrorCount("/health", "GET", "INTERNAL_ERROR"))
}
