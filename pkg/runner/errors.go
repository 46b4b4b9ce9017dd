package runner

import "errors"

// Sentinel errors for probe failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrProbeTimeout indicates a probe exceeded its own time budget and
	// was killed.
	ErrProbeTimeout = errors.New("runner: probe timed out")

	// ErrProbeFailure indicates a probe could not be started, or its
	// output could not be normalized.
	ErrProbeFailure = errors.New("runner: probe failed")

	// ErrProbeCanceled indicates the caller's context ended before the
	// probe finished (the scan deadline, or the caller went away).
	ErrProbeCanceled = errors.New("runner: probe canceled")

	// ErrEmptyCommand indicates an adapter built an empty argument vector.
	ErrEmptyCommand = errors.New("runner: empty command")
)
