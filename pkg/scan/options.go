package scan

import (
	"log/slog"
	"time"

	"github.com/siteintel/siteintel/pkg/metrics"
	"github.com/siteintel/siteintel/pkg/tracing"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDeadline sets the global probe batch deadline (default
// duration.ScanDeadline).
func WithDeadline(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.deadline = d
		}
	}
}

// WithResolver sets the IP ownership resolver. Without one, ASN and org
// come from the DNS probe only.
func WithResolver(r Resolver) Option {
	return func(c *Coordinator) { c.resolver = r }
}

// WithMetrics records probe and scan metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithTracing emits a span per scan and per probe.
func WithTracing(p *tracing.Provider) Option {
	return func(c *Coordinator) {
		if p != nil {
			c.tracer = p.Tracer()
		}
	}
}

// WithClock overrides the wall clock used for scan_timestamp and
// certificate expiry scoring.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}
