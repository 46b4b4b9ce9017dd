// Package runner executes one external tool invocation as a child process
// with a time budget, and normalizes its output through the adapter.
//
// Every run spawns at most one child, in its own process group, and always
// reaps it: when the per-probe budget expires or the caller's context ends,
// the whole group is killed and waited for before Run returns. Partial
// output of a killed probe is discarded.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync/atomic"
	"time"

	"golang.org/x/text/encoding/unicode"

	"github.com/siteintel/siteintel/pkg/adapters"
	"github.com/siteintel/siteintel/pkg/defaults"
	"github.com/siteintel/siteintel/pkg/duration"
	"github.com/siteintel/siteintel/pkg/iohelper"
	"github.com/siteintel/siteintel/pkg/target"
)

// Config configures a Runner.
type Config struct {
	// Timeout is the per-probe budget (default duration.ProbeTimeout).
	Timeout time.Duration

	// MaxOutput caps captured bytes per stream (default defaults.BufferMax).
	MaxOutput int

	// Logger receives probe lifecycle events (default slog.Default()).
	Logger *slog.Logger

	// OnStart is called with the child's pid right after it starts.
	OnStart func(tool string, pid int)
}

// Runner runs probes. It is safe for concurrent use; one Runner serves
// every probe of every scan.
type Runner struct {
	timeout   time.Duration
	maxOutput int
	logger    *slog.Logger
	onStart   func(tool string, pid int)

	// Stats tracks outcomes across all runs.
	Stats Stats
}

// New creates a Runner, filling unset fields of cfg with defaults.
func New(cfg Config) *Runner {
	r := &Runner{
		timeout:   cfg.Timeout,
		maxOutput: cfg.MaxOutput,
		logger:    cfg.Logger,
		onStart:   cfg.OnStart,
	}
	if r.timeout <= 0 {
		r.timeout = duration.ProbeTimeout
	}
	if r.maxOutput <= 0 {
		r.maxOutput = defaults.BufferMax
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Timeout returns the per-probe budget.
func (r *Runner) Timeout() time.Duration { return r.timeout }

// Run executes a's command for t and returns the tagged outcome. It never
// panics: a panic while building the command or normalizing output becomes
// a Failure.
func (r *Runner) Run(ctx context.Context, a adapters.Adapter, t target.Target) (out Outcome) {
	start := time.Now()
	tool := a.Name()
	out = Outcome{Tool: tool, ExitCode: -1}
	atomic.AddInt64(&r.Stats.Started, 1)

	defer func() {
		if p := recover(); p != nil {
			out = Outcome{Tool: tool, Kind: Failure, Reason: fmt.Sprintf("panic: %v", p), ExitCode: out.ExitCode}
		}
		out.Elapsed = time.Since(start)
		r.Stats.record(out.Kind)
		r.logOutcome(out)
	}()

	argv := a.BuildCommand(t).Argv()
	if len(argv) == 0 || argv[0] == "" {
		out.Kind = Failure
		out.Reason = ErrEmptyCommand.Error()
		return out
	}

	if ctx.Err() != nil {
		out.Kind = Canceled
		return out
	}

	probeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	stdout := iohelper.NewCappedBuffer(r.maxOutput)
	stderr := iohelper.NewCappedBuffer(r.maxOutput)

	cmd := exec.CommandContext(probeCtx, argv[0], argv[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killGroup(cmd.Process) }
	cmd.WaitDelay = duration.ProbeReap

	if err := cmd.Start(); err != nil {
		out.Kind = Failure
		out.Reason = err.Error()
		return out
	}
	if r.onStart != nil {
		r.onStart(tool, cmd.Process.Pid)
	}
	r.logger.Debug("probe started",
		slog.String("tool", tool),
		slog.Int("pid", cmd.Process.Pid),
		slog.String("target", t.Host()),
	)

	waitErr := cmd.Wait()
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	if probeCtx.Err() != nil {
		if ctx.Err() != nil {
			out.Kind = Canceled
			return out
		}
		out.Kind = Timeout
		out.Budget = r.timeout
		return out
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		out.Kind = Failure
		out.Reason = waitErr.Error()
		return out
	}

	if stdout.Truncated() || stderr.Truncated() {
		r.logger.Warn("probe output truncated",
			slog.String("tool", tool),
			slog.Int("max_bytes", r.maxOutput),
		)
	}

	// A non-zero exit is not a failure by itself; the adapter decides what
	// the output is worth.
	out.Section = a.ParseOutput(decode(stdout.Bytes()), decode(stderr.Bytes()))
	if out.Section == nil {
		out.Kind = Failure
		out.Reason = "adapter returned no section"
		return out
	}
	out.Kind = Success
	return out
}

func (r *Runner) logOutcome(out Outcome) {
	attrs := []any{
		slog.String("tool", out.Tool),
		slog.String("outcome", out.Kind.String()),
		slog.Duration("elapsed", out.Elapsed),
		slog.Int("exit_code", out.ExitCode),
	}
	switch out.Kind {
	case Success:
		r.logger.Debug("probe finished", attrs...)
	case Canceled:
		r.logger.Debug("probe canceled", attrs...)
	default:
		r.logger.Info("probe did not succeed", append(attrs, slog.String("error", out.Message()))...)
	}
}

// decode converts raw tool output to valid UTF-8, replacing invalid
// sequences with U+FFFD.
func decode(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	// Decoders hold state; use a fresh one per call for concurrent runs.
	s, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}
