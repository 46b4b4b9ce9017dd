// Package defaults provides canonical default values for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for all runtime configuration defaults.
//
// Usage:
//
//	sem := make(chan struct{}, defaults.MaxConcurrentScans)
//	req.Header.Set("User-Agent", defaults.UserAgent())
//	req.Header.Set("Content-Type", defaults.ContentTypeJSON)
//
// DO NOT use hardcoded values like `MaxConcurrentScans: 5` anywhere.
// Instead, reference the appropriate constant from this package.
package defaults

import "fmt"

// Version is the current siteintel version
const Version = "1.3.0"

// ToolName is the product name used in user agents, metrics and the
// health endpoint.
const ToolName = "siteintel"

// UserAgent returns the siteintel user agent string.
func UserAgent() string {
	return fmt.Sprintf("%s/%s", ToolName, Version)
}

// ============================================================================
// CONCURRENCY SETTINGS
// ============================================================================
//
// A scan always runs every adapter in parallel; these bound how many scans
// the front end runs at once and how quickly it admits new ones.
// ============================================================================

const (
	// MaxConcurrentScans bounds simultaneous scans in the front end (5)
	MaxConcurrentScans = 5

	// RequestRate is the sustained scan admission rate per second (2)
	RequestRate = 2.0

	// RequestBurst is the admission burst size (5)
	RequestBurst = 5

	// EnrichRate is the sustained ipapi.co request rate per second (1)
	EnrichRate = 1.0

	// EnrichBurst is the ipapi.co burst size (2)
	EnrichBurst = 2
)

// ============================================================================
// OUTPUT LIMITS
// ============================================================================
//
// Limits applied when normalizing tool output into the report.
// ============================================================================

const (
	// StderrExcerpt is the maximum number of characters of stderr kept as a
	// diagnostic (500)
	StderrExcerpt = 500

	// MaxWhoisStatus caps the domain status words kept from WHOIS (10)
	MaxWhoisStatus = 10

	// ClusterMinSize is the smallest group of numbered siblings reported as
	// a subdomain cluster (3)
	ClusterMinSize = 3

	// DefaultTLSPort is used when the target names no port (443)
	DefaultTLSPort = 443
)

// ============================================================================
// BUFFER SIZES
// ============================================================================
//
// Use these for byte buffers and bounded reads.
// ============================================================================

const (
	// BufferSmall is for small reads such as enrichment API responses (8KB)
	BufferSmall = 8 * 1024

	// BufferRequest caps a scan request body (16KB)
	BufferRequest = 16 * 1024

	// BufferMax is the maximum captured output of one probe (16MB)
	BufferMax = 16 * 1024 * 1024
)

// ============================================================================
// ENDPOINTS
// ============================================================================

const (
	// ListenAddr is the default HTTP front end address
	ListenAddr = ":8080"

	// IPAPIURL is the ipapi.co base URL; the address and "/json/" are appended
	IPAPIURL = "https://ipapi.co"

	// CymruOriginZone answers reversed-IPv4 origin queries
	CymruOriginZone = "origin.asn.cymru.com"

	// CymruASNZone answers AS<n> description queries
	CymruASNZone = "asn.cymru.com"

	// DNSResolver is used for Cymru lookups when none is configured
	DNSResolver = "1.1.1.1:53"
)

// ============================================================================
// HTTP CONTENT TYPES
// ============================================================================

const (
	// ContentTypeJSON is application/json
	ContentTypeJSON = "application/json"
)
