package adapters

import (
	"slices"
	"strings"

	"github.com/siteintel/siteintel/pkg/jsonutil"
	"github.com/siteintel/siteintel/pkg/report"
	"github.com/siteintel/siteintel/pkg/target"
)

// Subfinder enumerates subdomains of the registrable domain from passive
// sources.
type Subfinder struct {
	Bin string
}

// Name implements Adapter.
func (a *Subfinder) Name() string { return NameSubfinder }

// Binary returns the subfinder executable.
func (a *Subfinder) Binary() string { return a.Bin }

// BuildCommand implements Adapter.
func (a *Subfinder) BuildCommand(t target.Target) Invocation {
	return Exec(a.Bin, "-d", t.RegistrableDomain(), "-json", "-silent")
}

// ParseOutput implements Adapter. Lines are JSON {host, source} records,
// or bare hostnames from older releases. Names are lower-cased,
// de-duplicated and sorted.
func (a *Subfinder) ParseOutput(stdout, stderr string) report.Section {
	out := report.DefaultSubdomains()
	seen := map[string]bool{}

	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if jsonutil.Valid([]byte(line)) {
			var rec map[string]any
			if err := jsonutil.Unmarshal([]byte(line), &rec); err != nil {
				continue
			}
			host := strings.ToLower(strings.TrimSpace(str(rec, "host")))
			if host == "" || seen[host] {
				continue
			}
			seen[host] = true
			out.Subdomains = append(out.Subdomains, host)
			out.Sources[host] = strOr(rec, "source", "unknown")
			continue
		}

		host := strings.ToLower(line)
		if !seen[host] && strings.Contains(host, ".") {
			seen[host] = true
			out.Subdomains = append(out.Subdomains, host)
		}
	}

	slices.Sort(out.Subdomains)
	out.Count = len(out.Subdomains)
	return out
}
