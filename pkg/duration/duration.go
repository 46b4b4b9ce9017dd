// Package duration provides canonical time constants for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for all time-based configuration.
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, duration.EnrichLookup)
//	runner.New(runner.Config{Timeout: duration.ProbeTimeout})
//
// DO NOT use hardcoded time.Duration values like `60 * time.Second` anywhere.
// Instead, reference the appropriate constant from this package.
package duration

import "time"

// ============================================================================
// SCAN BUDGETS
// ============================================================================
//
// A scan is bounded twice: every probe has its own budget, and the whole
// batch has a global deadline measured from batch start.
// ============================================================================

const (
	// ProbeTimeout bounds a single external tool invocation (60s)
	ProbeTimeout = 60 * time.Second

	// ScanDeadline bounds the whole probe batch (120s)
	ScanDeadline = 120 * time.Second

	// ProbeReap is how long a killed child gets to be reaped before its
	// output pipes are force-closed (2s)
	ProbeReap = 2 * time.Second
)

// ============================================================================
// ENRICHMENT
// ============================================================================

const (
	// EnrichLookup bounds one IP ownership lookup (5s)
	EnrichLookup = 5 * time.Second

	// DNSTimeout is for a single DNS exchange (3s)
	DNSTimeout = 3 * time.Second
)

// ============================================================================
// HTTP CLIENT / SERVER
// ============================================================================

const (
	// DialTimeout is for establishing TCP connections (10s)
	DialTimeout = 10 * time.Second

	// KeepAlive is for TCP keep-alive interval (30s)
	KeepAlive = 30 * time.Second

	// IdleConnTimeout is for idle connection pool timeout (90s)
	IdleConnTimeout = 90 * time.Second

	// TLSHandshake is for TLS handshake timeout (10s)
	TLSHandshake = 10 * time.Second

	// ServerRead is the front end read timeout (10s)
	ServerRead = 10 * time.Second

	// ServerWrite must outlive a full scan (ScanDeadline plus merge headroom)
	ServerWrite = ScanDeadline + 30*time.Second

	// ServerShutdown is the graceful shutdown budget (10s)
	ServerShutdown = 10 * time.Second
)

// ============================================================================
// TELEMETRY
// ============================================================================

const (
	// TelemetryConnect bounds OTLP exporter setup (10s)
	TelemetryConnect = 10 * time.Second

	// TelemetryShutdown bounds span flushing on exit (5s)
	TelemetryShutdown = 5 * time.Second
)
