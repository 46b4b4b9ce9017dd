// Package enrich resolves the network owner (ASN and organization) of an
// IPv4 address from a chain of best-effort sources.
//
// Sources are tried in order and only fill fields earlier sources left
// empty. Any failure (bad input, network error, unexpected payload) leaves
// the field empty; Resolve never returns an error.
package enrich

import (
	"context"
	"log/slog"
	"net"
	"regexp"
	"time"

	"github.com/siteintel/siteintel/pkg/duration"
)

var dottedQuad = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// ValidIPv4 reports whether ip is a dotted-quad IPv4 address with every
// octet in range.
func ValidIPv4(ip string) bool {
	if !dottedQuad.MatchString(ip) {
		return false
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.To4() != nil
}

// Result is what a source knows about an address.
type Result struct {
	ASN string
	Org string
}

// Complete reports whether both fields are known.
func (r Result) Complete() bool { return r.ASN != "" && r.Org != "" }

// fill copies fields of other into empty fields of r.
func (r *Result) fill(other Result) {
	if r.ASN == "" {
		r.ASN = other.ASN
	}
	if r.Org == "" {
		r.Org = other.Org
	}
}

// Source looks up one address.
type Source interface {
	Name() string
	Lookup(ctx context.Context, ip string) (Result, error)
}

// Observer is notified of every source lookup.
type Observer func(source string, err error, elapsed time.Duration)

// Chain queries sources in order.
type Chain struct {
	sources  []Source
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer
}

// Option configures a Chain.
type Option func(*Chain)

// WithTimeout bounds each source lookup (default duration.EnrichLookup).
func WithTimeout(d time.Duration) Option {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *Chain) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers a lookup observer, e.g. for metrics.
func WithObserver(o Observer) Option {
	return func(c *Chain) { c.observer = o }
}

// NewChain returns a chain over sources, tried in the given order.
func NewChain(sources []Source, opts ...Option) *Chain {
	c := &Chain{
		sources: sources,
		timeout: duration.EnrichLookup,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the ASN and organization of ip. Unknown fields are empty.
func (c *Chain) Resolve(ctx context.Context, ip string) (asn, org string) {
	if !ValidIPv4(ip) {
		c.logger.Debug("enrichment skipped", slog.String("ip", ip), slog.String("error", ErrInvalidAddress.Error()))
		return "", ""
	}

	var res Result
	for _, src := range c.sources {
		if res.Complete() || ctx.Err() != nil {
			break
		}

		r, err := c.lookup(ctx, src, ip)
		if err != nil {
			c.logger.Debug("enrichment source unavailable",
				slog.String("source", src.Name()),
				slog.String("ip", ip),
				slog.String("error", err.Error()),
			)
			continue
		}
		res.fill(r)
	}
	return res.ASN, res.Org
}

func (c *Chain) lookup(ctx context.Context, src Source, ip string) (Result, error) {
	lctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	r, err := src.Lookup(lctx, ip)
	if c.observer != nil {
		c.observer(src.Name(), err, time.Since(start))
	}
	return r, err
}
