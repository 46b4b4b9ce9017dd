//go:build unix

package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/siteintel/siteintel/pkg/adapters"
	"github.com/siteintel/siteintel/pkg/report"
	"github.com/siteintel/siteintel/pkg/target"
)

// fakeAdapter runs a fixed invocation and records what it was asked to
// parse.
type fakeAdapter struct {
	name  string
	inv   adapters.Invocation
	parse func(stdout, stderr string) report.Section

	mu     sync.Mutex
	stdout string
	stderr string
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) BuildCommand(target.Target) adapters.Invocation { return f.inv }

func (f *fakeAdapter) ParseOutput(stdout, stderr string) report.Section {
	f.mu.Lock()
	f.stdout, f.stderr = stdout, stderr
	f.mu.Unlock()
	if f.parse != nil {
		return f.parse(stdout, stderr)
	}
	return report.Technologies{{Name: strings.TrimSpace(stdout), Category: "Unknown"}}
}

func shell(name, script string) *fakeAdapter {
	return &fakeAdapter{name: name, inv: adapters.ShellPipeline(script)}
}

var tgt = target.MustParse("example.com")

// gone reports whether pid has exited. Zombies count as exited: they hold
// no resources beyond a process table slot, and reaping orphans is the
// job of whatever runs as init in the test environment.
func gone(pid int) bool {
	if runtime.GOOS == "linux" {
		data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
		if err != nil {
			return true
		}
		// pid (comm) S ...; comm may contain spaces, so split after ')'.
		i := bytes.LastIndexByte(data, ')')
		return i < 0 || i+2 >= len(data) || data[i+2] == 'Z'
	}
	return unix.Kill(pid, 0) != nil
}

func TestRun_Success(t *testing.T) {
	r := New(Config{Timeout: 5 * time.Second})
	a := shell("echoer", `printf 'hello\n'; printf 'warn' >&2`)

	out := r.Run(context.Background(), a, tgt)

	require.Equal(t, Success, out.Kind, out.Message())
	assert.Equal(t, "echoer", out.Tool)
	assert.Equal(t, 0, out.ExitCode)
	assert.Equal(t, "hello", out.Section.(report.Technologies)[0].Name)
	assert.Equal(t, "warn", a.stderr)
	assert.NoError(t, out.Err())
}

func TestRun_NonZeroExitIsNotFailure(t *testing.T) {
	r := New(Config{Timeout: 5 * time.Second})
	out := r.Run(context.Background(), shell("whoisish", `echo 'Registrar: Example'; exit 1`), tgt)

	require.Equal(t, Success, out.Kind)
	assert.Equal(t, 1, out.ExitCode)
	assert.Equal(t, "Registrar: Example", out.Section.(report.Technologies)[0].Name)
}

func TestRun_MissingBinary(t *testing.T) {
	r := New(Config{})
	a := &fakeAdapter{name: "ghost", inv: adapters.Exec("definitely-not-a-real-binary-siteintel")}

	out := r.Run(context.Background(), a, tgt)

	assert.Equal(t, Failure, out.Kind)
	assert.Contains(t, out.Message(), "ghost failed: ")
	assert.Contains(t, out.Reason, "executable file not found")
	assert.ErrorIs(t, out.Err(), ErrProbeFailure)
}

func TestRun_EmptyCommand(t *testing.T) {
	out := New(Config{}).Run(context.Background(), &fakeAdapter{name: "empty"}, tgt)
	assert.Equal(t, Failure, out.Kind)
	assert.Equal(t, ErrEmptyCommand.Error(), out.Reason)
}

func TestRun_TimeoutKillsAndReaps(t *testing.T) {
	var pid int
	r := New(Config{
		Timeout: 300 * time.Millisecond,
		OnStart: func(_ string, p int) { pid = p },
	})

	start := time.Now()
	out := r.Run(context.Background(), shell("slow", `echo partial; sleep 30`), tgt)

	assert.Equal(t, Timeout, out.Kind)
	assert.Equal(t, "slow timed out after 300ms", out.Message())
	assert.Nil(t, out.Section, "partial output is discarded")
	assert.Less(t, time.Since(start), 10*time.Second)

	require.NotZero(t, pid)
	assert.True(t, gone(pid), "child must be reaped before Run returns")
}

func TestRun_TimeoutKillsWholeProcessGroup(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "grandchild.pid")
	r := New(Config{Timeout: 300 * time.Millisecond})

	out := r.Run(context.Background(), shell("tree", `sleep 30 & echo $! > `+pidFile+`; wait`), tgt)
	require.Equal(t, Timeout, out.Kind)

	raw, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	grandchild, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return gone(grandchild) }, 5*time.Second, 20*time.Millisecond,
		"background child of the shell must be killed with its group")
}

func TestRun_ContextCanceled(t *testing.T) {
	var pid int
	r := New(Config{Timeout: time.Minute, OnStart: func(_ string, p int) { pid = p }})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	out := r.Run(ctx, shell("slow", `sleep 30`), tgt)

	assert.Equal(t, Canceled, out.Kind)
	assert.Empty(t, out.Message())
	assert.ErrorIs(t, out.Err(), ErrProbeCanceled)
	assert.True(t, gone(pid))
}

func TestRun_AlreadyCanceledNeverStarts(t *testing.T) {
	started := false
	r := New(Config{Timeout: time.Minute, OnStart: func(string, int) { started = true }})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := r.Run(ctx, shell("late", `echo hi`), tgt)

	assert.Equal(t, Canceled, out.Kind)
	assert.Empty(t, out.Message())
	assert.False(t, started)
}

// webtechShell parses with the real webtech adapter but runs a fixed script.
type webtechShell struct {
	adapters.Webtech
	script string
}

func (w *webtechShell) BuildCommand(target.Target) adapters.Invocation {
	return adapters.ShellPipeline(w.script)
}

func TestRun_WebtechObjectOutput(t *testing.T) {
	a := &webtechShell{script: `echo '{"tech":{"Nginx":{"version":"1.25"},"React":{}}}'`}

	out := New(Config{Timeout: 5 * time.Second}).Run(context.Background(), a, tgt)

	require.Equal(t, Success, out.Kind, out.Message())
	techs, ok := out.Section.(report.Technologies)
	require.True(t, ok)
	require.Len(t, techs, 2)
	assert.Equal(t, "Nginx", techs[0].Name)
	assert.Equal(t, "React", techs[1].Name)
}

func TestRun_PanicInParseBecomesFailure(t *testing.T) {
	a := shell("fragile", `echo '{}'`)
	a.parse = func(string, string) report.Section { panic("unexpected shape") }

	out := New(Config{Timeout: 5 * time.Second}).Run(context.Background(), a, tgt)

	assert.Equal(t, Failure, out.Kind)
	assert.Equal(t, "fragile failed: panic: unexpected shape", out.Message())
}

type panickyBuilder struct{ fakeAdapter }

func (p *panickyBuilder) BuildCommand(target.Target) adapters.Invocation { panic("no command") }

func TestRun_PanicInBuildBecomesFailure(t *testing.T) {
	out := New(Config{}).Run(context.Background(), &panickyBuilder{fakeAdapter{name: "builder"}}, tgt)
	assert.Equal(t, Failure, out.Kind)
	assert.Contains(t, out.Reason, "no command")
}

func TestRun_NilSectionIsFailure(t *testing.T) {
	a := shell("nil", `true`)
	a.parse = func(string, string) report.Section { return nil }
	out := New(Config{Timeout: 5 * time.Second}).Run(context.Background(), a, tgt)
	assert.Equal(t, Failure, out.Kind)
}

func TestRun_InvalidUTF8Replaced(t *testing.T) {
	a := shell("binary", `printf '\377ok'`)
	out := New(Config{Timeout: 5 * time.Second}).Run(context.Background(), a, tgt)

	require.Equal(t, Success, out.Kind)
	assert.Equal(t, "\uFFFDok", a.stdout)
}

func TestRun_OutputCapped(t *testing.T) {
	a := shell("chatty", `i=0; while [ $i -lt 200 ]; do echo 0123456789; i=$((i+1)); done`)
	out := New(Config{Timeout: 5 * time.Second, MaxOutput: 64}).Run(context.Background(), a, tgt)

	require.Equal(t, Success, out.Kind)
	assert.Len(t, a.stdout, 64)
}

func TestRun_ConcurrentStats(t *testing.T) {
	r := New(Config{Timeout: 5 * time.Second})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				r.Run(context.Background(), shell("ok", `true`), tgt)
			} else {
				r.Run(context.Background(), &fakeAdapter{name: "missing", inv: adapters.Exec("no-such-binary-siteintel")}, tgt)
			}
		}(i)
	}
	wg.Wait()

	snap := r.Stats.Snapshot()
	assert.Equal(t, int64(8), snap.Started)
	assert.Equal(t, int64(4), snap.Succeeded)
	assert.Equal(t, int64(4), snap.Failed)
}

func TestNew_Defaults(t *testing.T) {
	r := New(Config{})
	assert.Equal(t, 60*time.Second, r.Timeout())
	assert.NotNil(t, r.logger)
}
