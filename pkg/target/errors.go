package target

import "errors"

// Sentinel errors for target validation. Parse wraps these with the
// offending input; compare with errors.Is.
var (
	// ErrEmpty is returned for a blank target.
	ErrEmpty = errors.New("target: empty")

	// ErrInvalid is returned when the target is not a http(s) URL with a
	// well-formed hostname.
	ErrInvalid = errors.New("target: invalid hostname")

	// ErrBlocked is returned for internal or reserved hostnames.
	ErrBlocked = errors.New("target: scanning internal or reserved hostnames is not allowed")
)
