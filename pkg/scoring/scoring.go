// Package scoring derives a security posture score from a merged report.
//
// Five components add up to 100: TLS (25), security headers (30), WAF (15),
// certificate (20) and server exposure (10).
package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/siteintel/siteintel/pkg/report"
)

// Component maxima
const (
	MaxTLS            = 25
	MaxHeaders        = 30
	MaxWAF            = 15
	MaxCertificate    = 20
	MaxServerExposure = 10
)

// versionLeak matches a product/version token such as "Apache/2.4.41".
var versionLeak = regexp.MustCompile(`/[\d.]`)

// expiryLayouts are the certificate expiry formats seen in sslyze output.
var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"Jan 2 15:04:05 2006 MST",
}

// Calculate scores r as of now. It only reads r.
func Calculate(r *report.Report, now time.Time) report.SecurityScore {
	tls, tlsRecs := scoreTLS(r.TLS)
	headers, headerRecs := scoreHeaders(r.Headers)
	waf, wafRecs := scoreWAF(r.WAF)
	cert, certRecs := scoreCertificate(r.TLS.Certificate, now)
	server, serverRecs := scoreServerExposure(r.Headers.Server)

	total := tls + headers + waf + cert + server

	recs := []string{}
	for _, group := range [][]string{tlsRecs, headerRecs, wafRecs, certRecs, serverRecs} {
		recs = append(recs, group...)
	}

	return report.SecurityScore{
		Score: total,
		Grade: Grade(total),
		Breakdown: report.ScoreBreakdown{
			TLS:            tls,
			Headers:        headers,
			WAF:            waf,
			Certificate:    cert,
			ServerExposure: server,
		},
		Recommendations: recs,
	}
}

// Grade maps a total score to a letter.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 65:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

func scoreTLS(t report.TLS) (int, []string) {
	if len(t.Protocols) == 0 {
		return 0, []string{"No TLS detected"}
	}

	var legacy, has13 bool
	for _, p := range t.Protocols {
		if strings.Contains(p, "1.0") || strings.Contains(p, "1.1") {
			legacy = true
		}
		if strings.Contains(p, "1.3") {
			has13 = true
		}
	}

	score := MaxTLS
	var recs []string
	if legacy {
		score -= 10
		recs = append(recs, "Disable TLS 1.0/1.1; they have known vulnerabilities")
	}
	if !has13 {
		score -= 5
		recs = append(recs, "Enable TLS 1.3 for better performance and security")
	}
	return max(score, 0), recs
}

func scoreHeaders(h report.Headers) (int, []string) {
	var recs []string
	present := 0
	for _, key := range report.SecurityHeaderKeys {
		v := h.SecurityHeaders[key]
		if v != "" && v != report.HeaderMissing {
			present++
			continue
		}
		recs = append(recs, fmt.Sprintf("Add %s header", key))
	}

	ratio := float64(present) / float64(len(report.SecurityHeaderKeys))
	return int(math.Round(ratio * MaxHeaders)), recs
}

func scoreWAF(w report.WAF) (int, []string) {
	if w.Detected {
		return MaxWAF, nil
	}
	return 0, []string{"Consider deploying a Web Application Firewall"}
}

func scoreCertificate(c report.Certificate, now time.Time) (int, []string) {
	if c.Expiry == "" {
		return 0, []string{"No certificate found"}
	}

	expiry, ok := parseExpiry(c.Expiry)
	if !ok {
		// Unknown format: the certificate exists, its lifetime is unknown.
		return MaxCertificate, nil
	}

	score := MaxCertificate
	var recs []string
	days := expiry.Sub(now).Hours() / 24
	switch {
	case days < 0:
		score -= 20
		recs = append(recs, "Certificate has expired!")
	case days < 30:
		score -= 10
		recs = append(recs, fmt.Sprintf("Certificate expires in %d days; renew soon", int(math.Round(days))))
	}
	return max(score, 0), recs
}

func scoreServerExposure(server string) (int, []string) {
	score := MaxServerExposure
	var recs []string
	if server != "" && server != "N/A" && versionLeak.MatchString(server) {
		score -= 5
		recs = append(recs, fmt.Sprintf("Server header exposes version info (%s); consider hiding it", server))
	}
	return max(score, 0), recs
}

func parseExpiry(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
