package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/siteintel/siteintel/pkg/adapters"
	"github.com/siteintel/siteintel/pkg/report"
)

// maxListed caps long lists (technologies, subdomains) in the summary.
const maxListed = 10

type summary struct {
	b strings.Builder
}

func (s *summary) section(title string) {
	s.b.WriteString(SectionStyle.Render(title))
	s.b.WriteByte('\n')
}

func (s *summary) row(label, value string) {
	if value == "" {
		value = MutedStyle.Render("-")
	} else {
		value = ValueStyle.Render(Sanitize(value))
	}
	s.b.WriteString("  " + LabelStyle.Render(label) + value + "\n")
}

func (s *summary) line(text string) {
	s.b.WriteString("  " + text + "\n")
}

func list(items []string) string {
	if len(items) <= maxListed {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:maxListed], ", ") + fmt.Sprintf(" (+%d more)", len(items)-maxListed)
}

// RenderReport formats rep as a human-readable terminal summary.
func RenderReport(rep *report.Report) string {
	var s summary

	s.b.WriteString(TitleStyle.Render("siteintel report") + " " + URLStyle.Render(rep.Target) + "\n")
	s.row("Scan ID", rep.ScanID)
	s.row("Started", rep.ScanTimestamp)
	s.row("Duration", (time.Duration(rep.DurationMS) * time.Millisecond).String())

	score := rep.SecurityScore
	s.section("Security score")
	s.line(fmt.Sprintf("%s %s", GradeStyle(score.Grade).Render(score.Grade), ValueStyle.Render(fmt.Sprintf("%d/100", score.Score))))
	bd := score.Breakdown
	s.row("TLS", fmt.Sprintf("%d/25", bd.TLS))
	s.row("Headers", fmt.Sprintf("%d/30", bd.Headers))
	s.row("WAF", fmt.Sprintf("%d/15", bd.WAF))
	s.row("Certificate", fmt.Sprintf("%d/20", bd.Certificate))
	s.row("Server", fmt.Sprintf("%d/10", bd.ServerExposure))

	s.section("Edge")
	waf := "none detected"
	if rep.WAF.Detected {
		waf = "detected"
		if rep.WAF.Provider != nil {
			waf = *rep.WAF.Provider
		}
	}
	s.row("WAF", waf)
	s.row("CDN", rep.DNS.CDNDetected)
	s.row("Server", rep.Headers.Server)

	s.section("Network")
	s.row("IP", rep.IPInfo.IP)
	s.row("ASN", rep.IPInfo.ASN)
	s.row("Organization", rep.IPInfo.Org)
	s.row("A", list(rep.DNS.ARecords))
	s.row("CNAME", list(rep.DNS.CNAMERecords))
	s.row("NS", list(rep.DNS.NSRecords))
	s.row("MX", list(rep.DNS.MXRecords))

	s.section("TLS")
	s.row("Protocols", strings.Join(rep.TLS.Protocols, ", "))
	s.row("Ciphers", fmt.Sprintf("%d accepted", len(rep.TLS.CipherSuites)))
	s.row("Issuer", rep.TLS.Certificate.Issuer)
	s.row("Expiry", rep.TLS.Certificate.Expiry)

	s.section("Security headers")
	for _, key := range report.SecurityHeaderKeys {
		state, ok := rep.Headers.SecurityHeaders[key]
		switch {
		case !ok:
			s.line(MutedStyle.Render("? " + key))
		case state == report.HeaderPresent:
			s.line(OKStyle.Render("+ ") + key)
		default:
			s.line(ErrorStyle.Render("- ") + key)
		}
	}

	if len(rep.Technologies) > 0 {
		s.section("Technologies")
		names := make([]string, 0, len(rep.Technologies))
		for _, t := range rep.Technologies {
			name := t.Name
			if t.Version != nil && *t.Version != "" {
				name += " " + *t.Version
			}
			names = append(names, name)
		}
		s.line(ValueStyle.Render(Sanitize(list(names))))
	}

	s.section("Registration")
	s.row("Registrar", rep.Whois.Registrar)
	s.row("Registrant", rep.Whois.RegistrantOrg)
	s.row("Created", rep.Whois.CreationDate)
	s.row("Expires", rep.Whois.ExpiryDate)

	if subs := rep.Subdomains; subs.Count > 0 {
		s.section(fmt.Sprintf("Subdomains (%d)", subs.Count))
		s.line(fmt.Sprintf("%s %d  %s %d  %s %d",
			TierStyle("high").Render("high"), subs.Stats.High,
			TierStyle("medium").Render("medium"), subs.Stats.Medium,
			TierStyle("low").Render("low"), subs.Stats.Low,
		))
		for i, c := range subs.Classified {
			if i == maxListed {
				s.line(MutedStyle.Render(fmt.Sprintf("... %d more", len(subs.Classified)-maxListed)))
				break
			}
			s.line(fmt.Sprintf("%s %s %s",
				TierStyle(string(c.Interest)).Render(fmt.Sprintf("%-6s", c.Interest)),
				Sanitize(c.Subdomain),
				MutedStyle.Render("("+c.Category+")"),
			))
		}
		for _, g := range subs.Groups {
			s.line(MutedStyle.Render(fmt.Sprintf("cluster %s x%d (%s)", g.Prefix, g.Count, g.Category)))
		}
	}

	if len(score.Recommendations) > 0 {
		s.section("Recommendations")
		for _, r := range score.Recommendations {
			s.line(WarnStyle.Render("* ") + r)
		}
	}

	if len(rep.Errors) > 0 {
		s.section("Errors")
		for _, e := range rep.Errors {
			s.line(ErrorStyle.Render("! ") + Sanitize(e))
		}
	}

	return s.b.String()
}

// RenderTools formats tool availability, missing tools first.
func RenderTools(statuses []adapters.ToolStatus) string {
	sorted := slices.Clone(statuses)
	slices.SortStableFunc(sorted, func(a, b adapters.ToolStatus) int {
		switch {
		case a.Available == b.Available:
			return 0
		case !a.Available:
			return -1
		default:
			return 1
		}
	})

	var s summary
	s.section("Tools")
	for _, st := range sorted {
		where := st.Path
		if st.Binary == "" {
			where = "built in"
		}
		if st.Available {
			s.line(OKStyle.Render("ok      ") + fmt.Sprintf("%-10s %s", st.Name, MutedStyle.Render(where)))
		} else {
			s.line(ErrorStyle.Render("missing ") + fmt.Sprintf("%-10s %s", st.Name, MutedStyle.Render(st.Binary+" not on PATH")))
		}
	}
	return s.b.String()
}
