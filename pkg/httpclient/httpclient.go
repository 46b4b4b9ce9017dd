// Package httpclient provides the outbound HTTP client factory. Outbound
// calls are lookups against third-party APIs, so certificates are verified,
// redirects are followed and every request carries the siteintel
// User-Agent.
package httpclient

import (
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/siteintel/siteintel/pkg/defaults"
	"github.com/siteintel/siteintel/pkg/duration"
)

// Config holds HTTP client configuration options.
type Config struct {
	// Timeout is the total request timeout (default: duration.EnrichLookup)
	Timeout time.Duration

	// UserAgent is set on every request (default: defaults.UserAgent())
	UserAgent string

	// Proxy is the HTTP/HTTPS proxy URL (optional)
	Proxy string

	// MaxIdleConns is the maximum number of idle connections (default: 16)
	MaxIdleConns int

	// DialTimeout is the timeout for establishing connections (default: duration.DialTimeout)
	DialTimeout time.Duration

	// TLSHandshakeTimeout is the timeout for TLS handshake (default: duration.TLSHandshake)
	TLSHandshakeTimeout time.Duration
}

// DefaultConfig returns the defaults for API lookups.
func DefaultConfig() Config {
	return Config{
		Timeout:             duration.EnrichLookup,
		UserAgent:           defaults.UserAgent(),
		MaxIdleConns:        16,
		DialTimeout:         duration.DialTimeout,
		TLSHandshakeTimeout: duration.TLSHandshake,
	}
}

// New creates a new HTTP client with the given configuration. Zero fields
// take their DefaultConfig value.
func New(cfg Config) *http.Client {
	def := DefaultConfig()
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = def.MaxIdleConns
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = def.DialTimeout
	}
	if cfg.TLSHandshakeTimeout == 0 {
		cfg.TLSHandshakeTimeout = def.TLSHandshakeTimeout
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: duration.KeepAlive,
	}

	transport := &http.Transport{
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConns,
		IdleConnTimeout:       duration.IdleConnTimeout,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: time.Second,
		DialContext:           dialer.DialContext,
		Proxy:                 http.ProxyFromEnvironment,
	}

	if cfg.Proxy != "" {
		if proxyURL, err := url.Parse(cfg.Proxy); err == nil && proxyURL.Host != "" {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
		// Malformed proxy URLs fall back to the environment.
	}

	return &http.Client{
		Transport: &userAgentTransport{base: transport, userAgent: cfg.UserAgent},
		Timeout:   cfg.Timeout,
	}
}

// userAgentTransport sets a fixed User-Agent on requests that carry none.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	// Clone the request to avoid mutating the caller's request.
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}
