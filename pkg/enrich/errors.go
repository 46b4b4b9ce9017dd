package enrich

import "errors"

// Sentinel errors for enrichment sources. None of these reach a report:
// the chain logs them and treats the field as unknown.
var (
	// ErrEnrichmentUnavailable indicates a source could not answer.
	ErrEnrichmentUnavailable = errors.New("enrich: source unavailable")

	// ErrInvalidAddress indicates the input is not a dotted-quad IPv4
	// address. No network call is made for it.
	ErrInvalidAddress = errors.New("enrich: invalid IPv4 address")
)
