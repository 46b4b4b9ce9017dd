// Package report defines the unified scan report: one schema that every
// probe's output is normalized into.
//
// The schema never changes shape. New seeds every key with its documented
// default, so a section whose probe failed, timed out or printed garbage is
// still present, just empty. Nil slices and maps are never emitted as null.
package report

import (
	"time"

	"github.com/siteintel/siteintel/pkg/classify"
)

// TimestampFormat is the UTC layout of scan_timestamp.
const TimestampFormat = "2006-01-02T15:04:05Z"

// SecurityHeaderKeys are the response headers checked for presence, in
// report order.
var SecurityHeaderKeys = []string{
	"strict-transport-security",
	"content-security-policy",
	"x-frame-options",
	"x-content-type-options",
	"x-xss-protection",
	"referrer-policy",
	"permissions-policy",
}

// Security header states.
const (
	HeaderPresent = "present"
	HeaderMissing = "missing"
)

// Report is the unified result of one scan.
type Report struct {
	ScanID        string        `json:"scan_id"`
	Target        string        `json:"target"`
	ScanTimestamp string        `json:"scan_timestamp"`
	WAF           WAF           `json:"waf"`
	Technologies  Technologies  `json:"technologies"`
	TLS           TLS           `json:"tls"`
	DNS           DNS           `json:"dns"`
	Headers       Headers       `json:"headers"`
	IPInfo        IPInfo        `json:"ip_info"`
	Whois         Whois         `json:"whois"`
	Subdomains    Subdomains    `json:"subdomains"`
	SecurityScore SecurityScore `json:"security_score"`
	Errors        []string      `json:"errors"`
	DurationMS    int64         `json:"duration_ms"`
}

// WAF is the firewall detection section.
type WAF struct {
	Detected bool           `json:"detected"`
	Provider *string        `json:"provider"`
	Details  map[string]any `json:"details"`
}

// Technology is one detected technology.
type Technology struct {
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Version    *string  `json:"version"`
	Confidence *float64 `json:"confidence"`
}

// Technologies is the technology list section.
type Technologies []Technology

// TLS is the TLS configuration section.
type TLS struct {
	Protocols    []string    `json:"protocols"`
	CipherSuites []string    `json:"cipher_suites"`
	Certificate  Certificate `json:"certificate"`
	Error        string      `json:"_error,omitempty"`
}

// Certificate describes the leaf certificate.
type Certificate struct {
	Issuer string   `json:"issuer"`
	Expiry string   `json:"expiry"`
	SAN    []string `json:"san"`
}

// DNS is the resolution section. ASN travels out of band to the
// coordinator and is never serialized.
type DNS struct {
	ARecords        []string `json:"a_records"`
	CNAMERecords    []string `json:"cname_records"`
	NSRecords       []string `json:"ns_records"`
	MXRecords       []string `json:"mx_records"`
	CDNDetected     string   `json:"cdn_detected"`
	HostingProvider string   `json:"hosting_provider"`
	Error           string   `json:"_error,omitempty"`

	ASN string `json:"-"`
}

// Headers is the HTTP response header section. ExtraTechnologies are
// technology hints for the coordinator and are never serialized.
type Headers struct {
	Server          string            `json:"server"`
	SecurityHeaders map[string]string `json:"security_headers"`
	AllHeaders      map[string]string `json:"all_headers"`
	Error           string            `json:"_error,omitempty"`

	ExtraTechnologies []Technology `json:"-"`
}

// IPInfo describes the primary address of the target.
type IPInfo struct {
	IP  string `json:"ip"`
	ASN string `json:"asn"`
	Org string `json:"org"`
}

// Whois is the domain registration section.
type Whois struct {
	Registrar     string   `json:"registrar"`
	CreationDate  string   `json:"creation_date"`
	ExpiryDate    string   `json:"expiry_date"`
	UpdatedDate   string   `json:"updated_date"`
	Nameservers   []string `json:"nameservers"`
	RegistrantOrg string   `json:"registrant_org"`
	Status        []string `json:"status"`
}

// Subdomains is the enumeration section plus its classification.
type Subdomains struct {
	Subdomains []string                 `json:"subdomains"`
	Sources    map[string]string        `json:"sources"`
	Count      int                      `json:"count"`
	Classified []classify.Subdomain     `json:"classified"`
	Categories []classify.CategoryCount `json:"categories"`
	Groups     []classify.Cluster       `json:"groups"`
	Stats      classify.TierStats       `json:"stats"`
}

// SecurityScore is the derived posture score.
type SecurityScore struct {
	Score           int            `json:"score"`
	Grade           string         `json:"grade"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
	Recommendations []string       `json:"recommendations"`
}

// ScoreBreakdown is the per-component score.
type ScoreBreakdown struct {
	TLS            int `json:"tls"`
	Headers        int `json:"headers"`
	WAF            int `json:"waf"`
	Certificate    int `json:"certificate"`
	ServerExposure int `json:"server_exposure"`
}

// New returns a report for target with every section at its default.
func New(scanID, target string, started time.Time) *Report {
	return &Report{
		ScanID:        scanID,
		Target:        target,
		ScanTimestamp: started.UTC().Format(TimestampFormat),
		WAF:           DefaultWAF(),
		Technologies:  Technologies{},
		TLS:           DefaultTLS(),
		DNS:           DefaultDNS(),
		Headers:       DefaultHeaders(),
		Whois:         DefaultWhois(),
		Subdomains:    DefaultSubdomains(),
		SecurityScore: SecurityScore{Grade: "F", Recommendations: []string{}},
		Errors:        []string{},
	}
}

// AddError appends a human-readable error to the report.
func (r *Report) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// DefaultWAF returns the "nothing detected" WAF section.
func DefaultWAF() WAF {
	return WAF{Details: map[string]any{}}
}

// DefaultTLS returns the empty TLS section.
func DefaultTLS() TLS {
	return TLS{
		Protocols:    []string{},
		CipherSuites: []string{},
		Certificate:  Certificate{SAN: []string{}},
	}
}

// DefaultDNS returns the empty DNS section.
func DefaultDNS() DNS {
	return DNS{
		ARecords:     []string{},
		CNAMERecords: []string{},
		NSRecords:    []string{},
		MXRecords:    []string{},
	}
}

// DefaultHeaders returns the empty headers section.
func DefaultHeaders() Headers {
	return Headers{
		SecurityHeaders: map[string]string{},
		AllHeaders:      map[string]string{},
	}
}

// DefaultWhois returns the empty WHOIS section.
func DefaultWhois() Whois {
	return Whois{Nameservers: []string{}, Status: []string{}}
}

// DefaultSubdomains returns the empty enumeration section.
func DefaultSubdomains() Subdomains {
	return Subdomains{
		Subdomains: []string{},
		Sources:    map[string]string{},
		Classified: []classify.Subdomain{},
		Categories: []classify.CategoryCount{},
		Groups:     []classify.Cluster{},
	}
}
