package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/siteintel/siteintel/pkg/adapters"
	"github.com/siteintel/siteintel/pkg/classify"
	"github.com/siteintel/siteintel/pkg/report"
)

func TestMain(m *testing.M) {
	SetNoColor(true)
	os.Exit(m.Run())
}

func sampleReport() *report.Report {
	rep := report.New("0b6c1c52", "https://example.com", time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	cf := "Cloudflare"
	rep.WAF = report.WAF{Detected: true, Provider: &cf, Details: map[string]any{}}
	rep.IPInfo = report.IPInfo{IP: "104.16.132.229", ASN: "AS13335", Org: "CLOUDFLARENET"}
	rep.Headers.SecurityHeaders = map[string]string{
		"strict-transport-security": report.HeaderPresent,
		"content-security-policy":   report.HeaderMissing,
	}
	rep.Technologies = report.Technologies{{Name: "Nginx", Category: "Web servers"}}
	rep.Subdomains.Count = 2
	rep.Subdomains.Classified = []classify.Subdomain{
		{Subdomain: "admin.example.com", Category: "Internal Tools", Interest: classify.Low},
		{Subdomain: "api.example.com", Category: "API & Compute", Interest: classify.Medium},
	}
	rep.SecurityScore = report.SecurityScore{Score: 72, Grade: "C", Recommendations: []string{"Enable HSTS"}}
	rep.Errors = []string{"sslyze timed out after 60s"}
	rep.DurationMS = 4200
	return rep
}

func TestRenderReport(t *testing.T) {
	out := RenderReport(sampleReport())

	for _, want := range []string{
		"https://example.com",
		"0b6c1c52",
		"4.2s",
		"72/100",
		"Cloudflare",
		"AS13335",
		"+ strict-transport-security",
		"- content-security-policy",
		"? x-frame-options",
		"Nginx",
		"api.example.com",
		"Enable HSTS",
		"! sslyze timed out after 60s",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderReportDefaults(t *testing.T) {
	out := RenderReport(report.New("id", "https://example.org", time.Now()))
	assert.Contains(t, out, "none detected")
	assert.NotContains(t, out, "Subdomains")
	assert.NotContains(t, out, "Errors")
}

func TestListTruncates(t *testing.T) {
	items := make([]string, 13)
	for i := range items {
		items[i] = "x"
	}
	assert.True(t, strings.HasSuffix(list(items), "(+3 more)"))
	assert.Equal(t, "a, b", list([]string{"a", "b"}))
}

func TestRenderToolsMissingFirst(t *testing.T) {
	out := RenderTools([]adapters.ToolStatus{
		{Name: "dnsx", Binary: "dnsx", Path: "/usr/bin/dnsx", Available: true},
		{Name: "sslyze", Binary: "python", Available: false},
	})
	assert.Less(t, strings.Index(out, "sslyze"), strings.Index(out, "dnsx"))
	assert.Contains(t, out, "python not on PATH")
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Café nginx", Sanitize("Café\x1b nginx"))
	assert.Equal(t, "ok", Sanitize("ok\xff"))
	assert.Equal(t, "a\tb", Sanitize("a\tb\n"))
}

func TestNonTerminalWriters(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTerminal(&buf))
	assert.False(t, UnicodeTerminal(&buf))
	assert.Equal(t, "[+]", Icon(&buf, "✔", "[+]"))
	assert.Equal(t, lineSpinner.Frames, SpinnerFor(&buf).Frames)

	stop := StartSpinner(&buf, "scanning")
	stop()
	stop()
	assert.Empty(t, buf.String())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "v1.3.0")
}
