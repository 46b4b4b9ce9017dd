// Regression tests for concurrent use of the collectors.
package metrics

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Regression test: probes from one batch report from many goroutines at once.
func TestMetrics_ConcurrentObserve(t *testing.T) {
	t.Parallel()

	m, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const goroutines = 10
	const perGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				m.ScanStarted()
				m.ObserveProbe("dnsx", "success", time.Duration(i)*time.Millisecond)
				m.ObserveEnrich(fmt.Sprintf("src-%d", id%2), nil, 0)
				m.ScanFinished(time.Second, i%3, false)
			}
		}(g)
	}
	wg.Wait()

	want := float64(goroutines * perGoroutine)
	if got := testutil.ToFloat64(m.probesTotal.WithLabelValues("dnsx", "success")); got != want {
		t.Errorf("expected %v probes, got %v", want, got)
	}
	if got := testutil.ToFloat64(m.scansInFlight); got != 0 {
		t.Errorf("expected no scans in flight, got %v", got)
	}
}

// Regression test: scraping while scans finish must not deadlock.
func TestMetrics_ScrapeDuringObserve(t *testing.T) {
	t.Parallel()

	m, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				m.ObserveProbe("httpx", "failure", time.Millisecond)
				m.ObserveRequest("/scan", 200)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if _, err := m.Registry().Gather(); err != nil {
				t.Errorf("Gather: %v", err)
			}
		}
		close(stop)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scrape during observe deadlocked (5s timeout)")
	}
}
