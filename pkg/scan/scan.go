// Package scan runs every probe against a target in parallel and merges
// their sections into one report.
//
// A scan always produces a report. Probes that hang are killed at their own
// budget; the batch as a whole is cut at a global deadline, after which the
// remaining probes are canceled and reaped and a single synthetic error
// records how many were still running. Sections are merged in adapter
// order, so the same set of outcomes always yields the same report.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/siteintel/siteintel/pkg/adapters"
	"github.com/siteintel/siteintel/pkg/classify"
	"github.com/siteintel/siteintel/pkg/duration"
	"github.com/siteintel/siteintel/pkg/metrics"
	"github.com/siteintel/siteintel/pkg/report"
	"github.com/siteintel/siteintel/pkg/runner"
	"github.com/siteintel/siteintel/pkg/scoring"
	"github.com/siteintel/siteintel/pkg/target"
)

// Prober runs one adapter. *runner.Runner implements it.
type Prober interface {
	Run(ctx context.Context, a adapters.Adapter, t target.Target) runner.Outcome
}

// Resolver looks up the network owner of an IPv4 address. Unknown fields
// are empty. *enrich.Chain implements it.
type Resolver interface {
	Resolve(ctx context.Context, ip string) (asn, org string)
}

// Coordinator owns the probe fan-out and the merge.
type Coordinator struct {
	adapters []adapters.Adapter
	prober   Prober
	resolver Resolver
	deadline time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

// New returns a coordinator that runs list, in order, through prober.
func New(list []adapters.Adapter, prober Prober, opts ...Option) *Coordinator {
	c := &Coordinator{
		adapters: list,
		prober:   prober,
		deadline: duration.ScanDeadline,
		logger:   slog.Default(),
		tracer:   noop.NewTracerProvider().Tracer("siteintel/scan"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deadline returns the global probe batch deadline.
func (c *Coordinator) Deadline() time.Duration { return c.deadline }

// Scan probes t and returns the merged report. It never panics and never
// returns nil; failures are recorded in the report's error list.
func (c *Coordinator) Scan(ctx context.Context, t target.Target) (rep *report.Report) {
	started := time.Now()
	rep = report.New(uuid.NewString(), t.Origin(), c.now())

	ctx, span := c.tracer.Start(ctx, "scan",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("scan_id", rep.ScanID),
			attribute.String("target", t.Origin()),
			attribute.Int("probes", len(c.adapters)),
		),
	)
	c.metrics.ScanStarted()

	deadlineHit := false
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("scan merge panicked",
				slog.String("scan_id", rep.ScanID),
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())),
			)
			rep.AddError(fmt.Sprintf("internal error: %v", p))
		}
		elapsed := time.Since(started)
		rep.DurationMS = elapsed.Milliseconds()

		c.metrics.ScanFinished(elapsed, len(rep.Errors), deadlineHit)
		span.SetAttributes(
			attribute.Int("errors", len(rep.Errors)),
			attribute.Int("security_score", rep.SecurityScore.Score),
		)
		if deadlineHit {
			span.SetStatus(codes.Error, ErrGlobalTimeout.Error())
		}
		span.End()

		c.logger.Info("scan finished",
			slog.String("scan_id", rep.ScanID),
			slog.String("target", rep.Target),
			slog.Int64("duration_ms", rep.DurationMS),
			slog.Int("errors", len(rep.Errors)),
		)
	}()

	outcomes, stillRunning := c.probe(ctx, t)
	c.merge(rep, outcomes)

	if stillRunning > 0 {
		deadlineHit = true
		msg := fmt.Sprintf("total scan timeout (%s) — %d tool(s) still running", formatSeconds(c.deadline), stillRunning)
		rep.AddError(msg)
		c.logger.Warn("scan deadline reached",
			slog.String("scan_id", rep.ScanID),
			slog.Int("still_running", stillRunning),
			slog.String("error", fmt.Errorf("%w: %s", ErrGlobalTimeout, msg).Error()),
		)
	}

	mergeTechnologies(rep)
	c.enrichIPInfo(ctx, rep)
	classifySubdomains(rep, t)
	rep.SecurityScore = scoring.Calculate(rep, c.now())
	return rep
}

// probe runs every adapter concurrently and waits for all of them, or for
// the global deadline. Either way every goroutine has settled and every
// child has been reaped when probe returns. stillRunning counts the probes
// that were canceled because the deadline (or ctx) ended first.
func (c *Coordinator) probe(ctx context.Context, t target.Target) (outcomes []runner.Outcome, stillRunning int) {
	batchCtx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	outcomes = make([]runner.Outcome, len(c.adapters))

	var wg sync.WaitGroup
	for i, a := range c.adapters {
		wg.Add(1)
		go func(i int, a adapters.Adapter) {
			defer wg.Done()
			outcomes[i] = c.runOne(batchCtx, a, t)
		}(i, a)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-batchCtx.Done():
		// Runners kill their process groups on cancellation; wait for
		// them to be reaped before reading outcomes.
		cancel()
		<-done
	}

	for _, out := range outcomes {
		if out.Kind == runner.Canceled {
			stillRunning++
		}
	}
	return outcomes, stillRunning
}

// runOne runs a single probe, turning a panic anywhere in it into a
// Failure so one broken adapter cannot take the scan down.
func (c *Coordinator) runOne(ctx context.Context, a adapters.Adapter, t target.Target) (out runner.Outcome) {
	name := a.Name()
	ctx, span := c.tracer.Start(ctx, "probe "+name, trace.WithAttributes(attribute.String("tool", name)))
	defer func() {
		if p := recover(); p != nil {
			out = runner.Outcome{Tool: name, Kind: runner.Failure, Reason: fmt.Sprintf("panic: %v", p), ExitCode: -1}
		}
		span.SetAttributes(attribute.String("outcome", out.Kind.String()))
		if err := out.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		c.metrics.ObserveProbe(name, out.Kind.String(), out.Elapsed)
	}()

	return c.prober.Run(ctx, a, t)
}

// merge applies outcomes in adapter order.
func (c *Coordinator) merge(rep *report.Report, outcomes []runner.Outcome) {
	for _, out := range outcomes {
		switch out.Kind {
		case runner.Success:
			if out.Section != nil {
				out.Section.Apply(rep)
			}
		case runner.Timeout, runner.Failure:
			rep.AddError(out.Message())
		case runner.Canceled:
			// Covered by the single deadline error.
		}
	}
}

// mergeTechnologies appends header-derived technology hints that the
// primary detector did not already report. Names compare case-insensitively
// and the first occurrence wins.
func mergeTechnologies(rep *report.Report) {
	extra := rep.Headers.ExtraTechnologies
	rep.Headers.ExtraTechnologies = nil
	if len(extra) == 0 {
		return
	}

	seen := make(map[string]struct{}, len(rep.Technologies)+len(extra))
	for _, tech := range rep.Technologies {
		seen[strings.ToLower(tech.Name)] = struct{}{}
	}
	for _, tech := range extra {
		key := strings.ToLower(tech.Name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		rep.Technologies = append(rep.Technologies, tech)
	}
}

// enrichIPInfo fills ip_info from the DNS section, asking the resolver only
// for fields DNS left empty.
func (c *Coordinator) enrichIPInfo(ctx context.Context, rep *report.Report) {
	rep.IPInfo.ASN = rep.DNS.ASN
	rep.IPInfo.Org = rep.DNS.HostingProvider
	if len(rep.DNS.ARecords) == 0 {
		return
	}
	ip := rep.DNS.ARecords[0]
	rep.IPInfo.IP = ip

	if c.resolver == nil || (rep.IPInfo.ASN != "" && rep.IPInfo.Org != "") {
		return
	}

	// The batch deadline does not bound enrichment; the resolver has its
	// own per-lookup timeout. A canceled parent still stops it.
	asn, org := c.resolver.Resolve(ctx, ip)
	if rep.IPInfo.ASN == "" {
		rep.IPInfo.ASN = asn
	}
	if rep.IPInfo.Org == "" {
		rep.IPInfo.Org = org
	}
}

// classifySubdomains folds the classification of discovered names into the
// subdomains section.
func classifySubdomains(rep *report.Report, t target.Target) {
	subs := &rep.Subdomains
	if len(subs.Subdomains) == 0 {
		return
	}
	res := classify.Classify(subs.Subdomains, subs.Sources, t.RegistrableDomain())
	subs.Classified = res.Classified
	subs.Categories = res.Categories
	subs.Groups = res.Clusters
	subs.Stats = res.Stats
}

// formatSeconds renders d in seconds: 120s, 0.1s.
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}
