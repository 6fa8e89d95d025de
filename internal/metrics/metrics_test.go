package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHTTPRequest(t *testing.T) {
	m := New()
	m.RecordHTTPRequest("api", "get", "/dogs/{id}", "200", 20*time.Millisecond)
	m.RecordHTTPRequest("api", "GET", "/dogs/{id}", "200", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("api", "GET", "/dogs/{id}", "200")))
}

func TestRecordSupabaseRequest(t *testing.T) {
	m := New()
	m.RecordSupabaseRequest("post", 201)
	m.RecordSupabaseRequest("GET", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.supabaseRequests.WithLabelValues("POST", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.supabaseRequests.WithLabelValues("GET", "error")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.IncrementInFlight()
	m.RecordHTTPRequest("api", "GET", "/health", "200", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "http_requests_in_flight 1")
	assert.Contains(t, body, `http_requests_total{method="GET",path="/health",service="api",status="200"} 1`)
	assert.Contains(t, body, "http_request_duration_seconds_bucket")
}
