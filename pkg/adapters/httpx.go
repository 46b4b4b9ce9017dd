package adapters

import (
	"fmt"
	"strings"

	"github.com/siteintel/siteintel/pkg/jsonutil"
	"github.com/siteintel/siteintel/pkg/report"
	"github.com/siteintel/siteintel/pkg/target"
)

// HTTPX probes the origin with ProjectDiscovery httpx and extracts the
// response headers, the server banner and httpx's technology hints.
type HTTPX struct {
	Bin string
}

// Name implements Adapter.
func (a *HTTPX) Name() string { return NameHTTPX }

// Binary returns the httpx executable.
func (a *HTTPX) Binary() string { return a.Bin }

// BuildCommand implements Adapter. The port is dropped: httpx probes the
// scheme's default.
func (a *HTTPX) BuildCommand(t target.Target) Invocation {
	url := t.Scheme() + "://" + t.Host()
	return ShellPipeline(fmt.Sprintf("echo %s | %s -json -silent -title -server -tech-detect -status-code -follow-redirects -include-response-header",
		shellQuote(url), shellQuote(a.Bin)))
}

// ParseOutput implements Adapter. The first well-formed record wins.
func (a *HTTPX) ParseOutput(stdout, stderr string) report.Section {
	out := report.DefaultHeaders()
	for _, k := range report.SecurityHeaderKeys {
		out.SecurityHeaders[k] = report.HeaderMissing
	}

	var rec map[string]any
	if !jsonutil.FirstRecord(stdout, &rec) {
		out.Error = stderrExcerpt(stderr)
		return out
	}

	headers := ParseRawHeaders(str(rec, "response_header"))
	if len(headers) == 0 {
		for k, v := range obj(rec, "header") {
			headers[strings.ToLower(k)] = headerValue(v)
		}
	}

	out.AllHeaders = headers
	out.Server = strOr(rec, "webserver", headers["server"])

	// httpx may key parsed headers with underscores (content_type).
	for _, key := range report.SecurityHeaderKeys {
		v := headers[key]
		if v == "" {
			v = headers[strings.ReplaceAll(key, "-", "_")]
		}
		if v != "" {
			out.SecurityHeaders[key] = report.HeaderPresent
		}
	}

	for _, t := range list(rec, "tech") {
		if name, ok := t.(string); ok && name != "" {
			out.ExtraTechnologies = append(out.ExtraTechnologies, report.Technology{
				Name:     name,
				Category: "Unknown",
			})
		}
	}
	return out
}

// ParseRawHeaders parses a raw HTTP response header block into a map with
// lower-case keys. The status line is skipped; repeated headers are joined
// with "; ".
func ParseRawHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "HTTP/") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if prev, dup := headers[key]; dup {
			headers[key] = prev + "; " + value
		} else {
			headers[key] = value
		}
	}
	return headers
}

func headerValue(v any) string {
	switch t := v.(type) {
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, "; ")
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
