// Package adapters turns each external analysis tool into a pair of pure
// functions: build the command line for a target, and normalize the tool's
// text output into one report section.
//
// Adapters never execute anything themselves (pkg/runner does) and never
// panic on malformed output: garbage in yields the section's documented
// defaults, optionally with an "_error" stderr excerpt.
package adapters

import (
	"os/exec"
	"slices"
	"strings"

	"github.com/siteintel/siteintel/pkg/defaults"
	"github.com/siteintel/siteintel/pkg/iohelper"
	"github.com/siteintel/siteintel/pkg/report"
	"github.com/siteintel/siteintel/pkg/target"
)

// Adapter is the contract every tool integration satisfies.
type Adapter interface {
	// Name is the tool name used in error messages, logs and metrics.
	Name() string

	// BuildCommand returns the invocation for t. It is pure.
	BuildCommand(t target.Target) Invocation

	// ParseOutput normalizes the tool's decoded output.
	ParseOutput(stdout, stderr string) report.Section
}

// Invocation is a command line. When Shell is set, Args is
// ["sh", "-c", script].
type Invocation struct {
	Args  []string
	Shell bool
}

// Exec returns a plain argv invocation.
func Exec(args ...string) Invocation {
	return Invocation{Args: args}
}

// ShellPipeline returns an invocation that runs script under sh -c.
func ShellPipeline(script string) Invocation {
	return Invocation{Args: []string{"sh", "-c", script}, Shell: true}
}

// Argv returns a copy of the argument vector.
func (inv Invocation) Argv() []string {
	return slices.Clone(inv.Args)
}

// String renders the invocation for logs.
func (inv Invocation) String() string {
	if inv.Shell && len(inv.Args) == 3 {
		return inv.Args[2]
	}
	return strings.Join(inv.Args, " ")
}

// Tool names, in report merge order.
const (
	NameWAFW00F   = "wafw00f"
	NameWebtech   = "webtech"
	NameSSLyze    = "sslyze"
	NameDNSX      = "dnsx"
	NameHTTPX     = "httpx"
	NameWhois     = "whois"
	NameSubfinder = "subfinder"
)

// Default returns a fresh, ordered list of the seven adapters using the
// binaries found on PATH.
func Default() []Adapter {
	return WithBinaries(nil)
}

// WithBinaries is like Default but lets bins override the executable used
// for a tool, keyed by tool name.
func WithBinaries(bins map[string]string) []Adapter {
	bin := func(name, fallback string) string {
		if b := strings.TrimSpace(bins[name]); b != "" {
			return b
		}
		return fallback
	}
	return []Adapter{
		&WAFW00F{Bin: bin(NameWAFW00F, "wafw00f")},
		&Webtech{Bin: bin(NameWebtech, "webtech")},
		&SSLyze{Python: bin(NameSSLyze, "python")},
		&DNSX{Bin: bin(NameDNSX, "dnsx")},
		&HTTPX{Bin: bin(NameHTTPX, "httpx")},
		&Whois{Bin: bin(NameWhois, "whois")},
		&Subfinder{Bin: bin(NameSubfinder, "subfinder")},
	}
}

// Names returns the tool names of list in order.
func Names(list []Adapter) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.Name()
	}
	return out
}

// ToolStatus describes whether a tool's executable can be found.
type ToolStatus struct {
	Name      string `json:"name"`
	Binary    string `json:"binary"`
	Path      string `json:"path"`
	Available bool   `json:"available"`
}

// binaryer is implemented by adapters that run a single named executable.
type binaryer interface {
	Binary() string
}

// CheckTools looks up each adapter's executable on PATH. Adapters that do
// not expose a binary are reported as available.
func CheckTools(list []Adapter) []ToolStatus {
	out := make([]ToolStatus, 0, len(list))
	for _, a := range list {
		st := ToolStatus{Name: a.Name(), Available: true}
		if b, ok := a.(binaryer); ok {
			st.Binary = b.Binary()
			path, err := exec.LookPath(st.Binary)
			st.Path = path
			st.Available = err == nil
		}
		out = append(out, st)
	}
	return out
}

// stderrExcerpt returns the diagnostic kept for malformed output.
func stderrExcerpt(stderr string) string {
	if strings.TrimSpace(stderr) == "" {
		return ""
	}
	return iohelper.Excerpt(stderr, defaults.StderrExcerpt)
}

// shellQuote quotes s for POSIX sh. Targets are already restricted to
// hostname characters; quoting keeps the pipeline safe regardless.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-._/:@%+=,", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
