package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteintel/siteintel/pkg/jsonutil"
	"github.com/siteintel/siteintel/pkg/metrics"
	"github.com/siteintel/siteintel/pkg/report"
	"github.com/siteintel/siteintel/pkg/target"
)

type fakeScanner struct {
	fn    func(ctx context.Context, t target.Target) *report.Report
	calls atomic.Int32
}

func (f *fakeScanner) Scan(ctx context.Context, t target.Target) *report.Report {
	f.calls.Add(1)
	if f.fn != nil {
		return f.fn(ctx, t)
	}
	return report.New("scan-1", t.Origin(), time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, jsonutil.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealth(t *testing.T) {
	h := New(&fakeScanner{}, Config{}).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","service":"siteintel"}`, rec.Body.String())
}

func TestScanReturnsReport(t *testing.T) {
	scanner := &fakeScanner{}
	h := New(scanner, Config{}).Routes()

	rec := post(t, h, `{"target":"  Example.com "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var rep report.Report
	require.NoError(t, jsonutil.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "https://example.com", rep.Target)
	assert.Equal(t, "scan-1", rep.ScanID)
	assert.Equal(t, int32(1), scanner.calls.Load())
}

func TestScanRejectsBadTargets(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `target=example.com`, "request body must be a JSON object with a target"},
		{"missing", `{}`, "target cannot be empty"},
		{"blank", `{"target":"   "}`, "target cannot be empty"},
		{"localhost", `{"target":"http://localhost:8080"}`, "scanning internal or reserved hostnames is not allowed"},
		{"metadata", `{"target":"metadata.google.internal"}`, "scanning internal or reserved hostnames is not allowed"},
		{"internal suffix", `{"target":"db.corp.internal"}`, "scanning internal or reserved hostnames is not allowed"},
		{"shell metachar", `{"target":"example.com;rm -rf /"}`, "invalid hostname format"},
		{"underscore", `{"target":"bad_host.example.com"}`, "invalid hostname format"},
	}

	scanner := &fakeScanner{}
	h := New(scanner, Config{}).Routes()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeError(t, rec))
		})
	}
	assert.Equal(t, int32(0), scanner.calls.Load())
}

func TestScanPanicIsGeneric500(t *testing.T) {
	scanner := &fakeScanner{fn: func(context.Context, target.Target) *report.Report {
		panic("secret internal detail")
	}}
	h := New(scanner, Config{}).Routes()

	rec := post(t, h, `{"target":"example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "scan failed", decodeError(t, rec))
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestScanNilReportIs500(t *testing.T) {
	scanner := &fakeScanner{fn: func(context.Context, target.Target) *report.Report { return nil }}
	rec := post(t, New(scanner, Config{}).Routes(), `{"target":"example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestScanRateLimited(t *testing.T) {
	h := New(&fakeScanner{}, Config{RequestRate: 0.001, RequestBurst: 1}).Routes()

	assert.Equal(t, http.StatusOK, post(t, h, `{"target":"example.com"}`).Code)
	rec := post(t, h, `{"target":"example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestScanConcurrencyBounded(t *testing.T) {
	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	scanner := &fakeScanner{fn: func(_ context.Context, t target.Target) *report.Report {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		return report.New("id", t.Origin(), time.Now())
	}}
	h := New(scanner, Config{MaxConcurrent: 2}).Routes()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			post(t, h, `{"target":"example.com"}`)
		}()
	}

	require.Eventually(t, func() bool { return inFlight.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(2), peak.Load())
	assert.Equal(t, int32(5), scanner.calls.Load())
}

func TestMetricsRoute(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)
	h := New(&fakeScanner{}, Config{Metrics: m}).Routes()

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `siteintel_http_requests_total{code="200",route="/health"} 1`)
}

func TestMetricsRouteDisabled(t *testing.T) {
	h := New(&fakeScanner{}, Config{}).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decodeError(t, rec))
}

func TestMethodNotAllowed(t *testing.T) {
	h := New(&fakeScanner{}, Config{}).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scan", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListenAndServeShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(&fakeScanner{}, Config{}).ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
