package adapters

import (
	"regexp"
	"slices"
	"strings"

	whoisparser "github.com/likexian/whois-parser"

	"github.com/siteintel/siteintel/pkg/defaults"
	"github.com/siteintel/siteintel/pkg/report"
	"github.com/siteintel/siteintel/pkg/target"
)

// Whois queries domain registration data for the registrable domain.
type Whois struct {
	Bin string
}

// Name implements Adapter.
func (a *Whois) Name() string { return NameWhois }

// Binary returns the whois executable.
func (a *Whois) Binary() string { return a.Bin }

// BuildCommand implements Adapter.
func (a *Whois) BuildCommand(t target.Target) Invocation {
	return Exec(a.Bin, t.RegistrableDomain())
}

// ParseOutput implements Adapter. Structured parsing runs first; line
// patterns then fill whatever it left empty, which covers registries the
// parser does not know. whois exits non-zero on many valid answers, so
// only stdout matters.
func (a *Whois) ParseOutput(stdout, stderr string) report.Section {
	out := report.DefaultWhois()
	if strings.TrimSpace(stdout) == "" {
		return out
	}

	if info, err := whoisparser.Parse(stdout); err == nil {
		fromParser(&out, info)
	}
	fromLines(&out, stdout)
	return out
}

func fromParser(out *report.Whois, info whoisparser.WhoisInfo) {
	if d := info.Domain; d != nil {
		out.CreationDate = strings.TrimSpace(d.CreatedDate)
		out.ExpiryDate = strings.TrimSpace(d.ExpirationDate)
		out.UpdatedDate = strings.TrimSpace(d.UpdatedDate)
		for _, ns := range d.NameServers {
			addNameserver(out, ns)
		}
		for _, s := range d.Status {
			addStatus(out, s)
		}
	}
	if r := info.Registrar; r != nil {
		out.Registrar = strings.TrimSpace(r.Name)
	}
	if r := info.Registrant; r != nil {
		out.RegistrantOrg = strings.TrimSpace(r.Organization)
	}
}

// whoisField is a scalar field with the line patterns that can fill it,
// tried in order.
type whoisField struct {
	get      func(*report.Whois) *string
	patterns []*regexp.Regexp
}

var whoisFields = []whoisField{
	{
		get: func(w *report.Whois) *string { return &w.Registrar },
		patterns: compileAll(
			`(?i)^registrar\s*:\s*(.+)`,
			`(?i)^registrar name\s*:\s*(.+)`,
			`(?i)^sponsoring registrar\s*:\s*(.+)`,
		),
	},
	{
		get: func(w *report.Whois) *string { return &w.CreationDate },
		patterns: compileAll(
			`(?i)^creat(?:ion|ed)\s*date\s*:\s*(.+)`,
			`(?i)^registration\s*date\s*:\s*(.+)`,
		),
	},
	{
		get: func(w *report.Whois) *string { return &w.ExpiryDate },
		patterns: compileAll(
			`(?i)^(?:registry\s*)?expir(?:y|ation)\s*date\s*:\s*(.+)`,
			`(?i)^paid-till\s*:\s*(.+)`,
		),
	},
	{
		get: func(w *report.Whois) *string { return &w.UpdatedDate },
		patterns: compileAll(
			`(?i)^updated?\s*date\s*:\s*(.+)`,
			`(?i)^last[\s-]*(?:updated?|modified)\s*:\s*(.+)`,
		),
	},
	{
		get: func(w *report.Whois) *string { return &w.RegistrantOrg },
		patterns: compileAll(
			`(?i)^registrant\s*organi[sz]ation\s*:\s*(.+)`,
			`(?i)^registrant\s*:\s*(.+)`,
			`(?i)^org(?:anization)?\s*:\s*(.+)`,
		),
	},
}

var (
	nameserverLine = regexp.MustCompile(`(?i)^name\s*server\s*:\s*(.+)`)
	statusLine     = regexp.MustCompile(`(?i)^(?:domain\s*)?status\s*:\s*(.+)`)
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// fromLines fills empty fields from "Key: value" lines. Comment lines
// starting with % or # are ignored.
func fromLines(out *report.Whois, stdout string) {
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%") || strings.HasPrefix(line, "#") {
			continue
		}

		for _, f := range whoisFields {
			dst := f.get(out)
			if *dst != "" {
				continue
			}
			for _, re := range f.patterns {
				if m := re.FindStringSubmatch(line); m != nil {
					*dst = strings.TrimSpace(m[1])
					break
				}
			}
		}

		if m := nameserverLine.FindStringSubmatch(line); m != nil {
			addNameserver(out, m[1])
		}
		if m := statusLine.FindStringSubmatch(line); m != nil {
			addStatus(out, m[1])
		}
	}
}

// addNameserver records ns lower-cased without a trailing dot, once.
func addNameserver(out *report.Whois, ns string) {
	ns = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(ns)), ".")
	if ns != "" && !slices.Contains(out.Nameservers, ns) {
		out.Nameservers = append(out.Nameservers, ns)
	}
}

// addStatus records the first word of a status value (e.g.
// "clientTransferProhibited https://icann.org/epp#..."), once, up to the
// status cap.
func addStatus(out *report.Whois, s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return
	}
	word := fields[0]
	if len(out.Status) >= defaults.MaxWhoisStatus || slices.ContainsFunc(out.Status, func(have string) bool {
		return strings.EqualFold(have, word)
	}) {
		return
	}
	out.Status = append(out.Status, word)
}
