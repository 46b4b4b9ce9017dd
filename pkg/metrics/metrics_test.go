package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveProbe(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.ObserveProbe("dnsx", "success", 200*time.Millisecond)
	m.ObserveProbe("dnsx", "success", 300*time.Millisecond)
	m.ObserveProbe("sslyze", "timeout", 60*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.probesTotal.WithLabelValues("dnsx", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.probesTotal.WithLabelValues("sslyze", "timeout")))
}

func TestScanLifecycle(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.ScanStarted()
	m.ScanStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.scansInFlight))

	m.ScanFinished(time.Second, 0, false)
	m.ScanFinished(2*time.Second, 3, true)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.scansInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scansTotal.WithLabelValues("complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scansTotal.WithLabelValues("deadline")))
}

func TestObserveEnrich(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.ObserveEnrich("ipapi", nil, time.Millisecond)
	m.ObserveEnrich("cymru", errors.New("no answer"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.enrichTotal.WithLabelValues("ipapi", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.enrichTotal.WithLabelValues("cymru", "error")))
}

func TestHandlerServesExposition(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.ObserveRequest("/scan", http.StatusOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `siteintel_http_requests_total{code="200",route="/scan"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveProbe("dnsx", "success", time.Second)
		m.ScanStarted()
		m.ScanFinished(time.Second, 1, false)
		m.ObserveEnrich("ipapi", nil, 0)
		m.ObserveRequest("/health", 200)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
