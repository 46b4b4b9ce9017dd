package runner

import (
	"fmt"
	"time"

	"github.com/siteintel/siteintel/pkg/report"
)

// Kind tags an Outcome.
type Kind int

// Outcome kinds.
const (
	// Success carries a normalized section.
	Success Kind = iota
	// Timeout means the per-probe budget expired and the probe was killed.
	Timeout
	// Failure means the probe could not run or its output could not be
	// normalized.
	Failure
	// Canceled means the caller's context ended first. It never becomes a
	// per-tool error; the coordinator reports all canceled probes at once.
	Canceled
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	case Failure:
		return "failure"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the result of one probe run.
type Outcome struct {
	Tool    string
	Kind    Kind
	Section report.Section // Success only
	Elapsed time.Duration

	// Budget is the per-probe timeout that expired (Timeout only).
	Budget time.Duration

	// Reason describes a Failure.
	Reason string

	// ExitCode of the child, or -1 when it did not exit on its own.
	ExitCode int
}

// Err returns the outcome as an error wrapping one of the package
// sentinels, or nil for Success.
func (o Outcome) Err() error {
	switch o.Kind {
	case Timeout:
		return fmt.Errorf("%w: %s after %s", ErrProbeTimeout, o.Tool, formatBudget(o.Budget))
	case Failure:
		return fmt.Errorf("%w: %s: %s", ErrProbeFailure, o.Tool, o.Reason)
	case Canceled:
		return fmt.Errorf("%w: %s", ErrProbeCanceled, o.Tool)
	default:
		return nil
	}
}

// Message is the human-readable report error for a Timeout or Failure,
// e.g. "dnsx timed out after 60s". It is empty for other kinds.
func (o Outcome) Message() string {
	switch o.Kind {
	case Timeout:
		return fmt.Sprintf("%s timed out after %s", o.Tool, formatBudget(o.Budget))
	case Failure:
		return fmt.Sprintf("%s failed: %s", o.Tool, o.Reason)
	default:
		return ""
	}
}

// formatBudget renders whole seconds as "60s" and anything else with
// time.Duration's own format.
func formatBudget(d time.Duration) string {
	if d > 0 && d%time.Second == 0 {
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
	return d.String()
}
