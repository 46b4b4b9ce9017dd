package adapters

import (
	"strings"

	"github.com/siteintel/siteintel/pkg/jsonutil"
	"github.com/siteintel/siteintel/pkg/report"
	"github.com/siteintel/siteintel/pkg/target"
)

// Webtech detects the technology stack with Wappalyzer rules.
type Webtech struct {
	Bin string
}

// Name implements Adapter.
func (a *Webtech) Name() string { return NameWebtech }

// Binary returns the webtech executable.
func (a *Webtech) Binary() string { return a.Bin }

// BuildCommand implements Adapter.
func (a *Webtech) BuildCommand(t target.Target) Invocation {
	return Exec(a.Bin, "-u", t.Origin())
}

// ParseOutput implements Adapter. The JSON "tech" member is either an
// object keyed by technology name or an array; plain text output is read
// one technology per line.
func (a *Webtech) ParseOutput(stdout, stderr string) report.Section {
	var doc struct {
		Tech jsonutil.RawValue `json:"tech"`
	}
	if err := jsonutil.Unmarshal([]byte(stdout), &doc); err != nil {
		return webtechLines(stdout)
	}

	out := report.Technologies{}
	switch doc.Tech.Kind() {
	case '{':
		members, err := jsonutil.Members(doc.Tech)
		if err != nil {
			return out
		}
		for _, m := range members {
			var info map[string]any
			_ = jsonutil.Unmarshal(m.Value, &info)
			out = append(out, report.Technology{
				Name:       m.Name,
				Category:   strOr(info, "category", "Unknown"),
				Version:    optString(info, "version"),
				Confidence: optNumber(info, "confidence"),
			})
		}
	case '[':
		var items []any
		if err := jsonutil.Unmarshal(doc.Tech, &items); err != nil {
			return out
		}
		for _, item := range items {
			switch v := item.(type) {
			case map[string]any:
				out = append(out, report.Technology{
					Name:       strOr(v, "name", "Unknown"),
					Category:   strOr(v, "category", "Unknown"),
					Version:    optString(v, "version"),
					Confidence: optNumber(v, "confidence"),
				})
			case string:
				out = append(out, report.Technology{Name: v, Category: "Unknown"})
			}
		}
	}
	return out
}

// webtechLines reads webtech's human-readable report: one technology per
// line, skipping headings, URLs and stray JSON.
func webtechLines(stdout string) report.Technologies {
	out := report.Technologies{}
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.Trim(line, "- \t\r")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "{") || strings.HasPrefix(line, "[") ||
			strings.HasPrefix(line, "Target") || strings.HasPrefix(line, "http") {
			continue
		}
		out = append(out, report.Technology{Name: line, Category: "Unknown"})
	}
	return out
}
