package adapters

import (
	"strings"

	"github.com/siteintel/siteintel/pkg/jsonutil"
	"github.com/siteintel/siteintel/pkg/report"
	"github.com/siteintel/siteintel/pkg/target"
)

// WAFW00F fingerprints the web application firewall in front of the origin.
type WAFW00F struct {
	Bin string
}

// Name implements Adapter.
func (a *WAFW00F) Name() string { return NameWAFW00F }

// Binary returns the wafw00f executable.
func (a *WAFW00F) Binary() string { return a.Bin }

// BuildCommand implements Adapter.
func (a *WAFW00F) BuildCommand(t target.Target) Invocation {
	return Exec(a.Bin, "-a", "-o-", "-f", "json", t.Origin())
}

// ParseOutput implements Adapter. wafw00f prints a JSON array with one
// entry per target; "None" and "Generic" mean nothing specific was found.
func (a *WAFW00F) ParseOutput(stdout, stderr string) report.Section {
	var entries []any
	if err := jsonutil.Unmarshal([]byte(strings.TrimSpace(stdout)), &entries); err == nil && len(entries) > 0 {
		if entry, ok := entries[0].(map[string]any); ok {
			firewall := str(entry, "firewall")
			out := report.WAF{Details: entry}
			switch strings.ToLower(firewall) {
			case "", "none", "generic":
			default:
				out.Detected = true
				out.Provider = &firewall
			}
			return out
		}
	}

	out := report.DefaultWAF()
	out.Details["raw_stderr"] = stderrExcerpt(stderr)
	return out
}
