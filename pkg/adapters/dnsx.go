package adapters

import (
	"fmt"

	"github.com/siteintel/siteintel/pkg/jsonutil"
	"github.com/siteintel/siteintel/pkg/report"
	"github.com/siteintel/siteintel/pkg/target"
)

// DNSX resolves A/CNAME/NS/MX records and detects CDN and ASN ownership
// with ProjectDiscovery dnsx.
type DNSX struct {
	Bin string
}

// Name implements Adapter.
func (a *DNSX) Name() string { return NameDNSX }

// Binary returns the dnsx executable.
func (a *DNSX) Binary() string { return a.Bin }

// BuildCommand implements Adapter. dnsx reads hosts from stdin.
func (a *DNSX) BuildCommand(t target.Target) Invocation {
	return ShellPipeline(fmt.Sprintf("echo %s | %s -json -a -cname -ns -mx -resp -cdn -asn -silent",
		shellQuote(t.Host()), shellQuote(a.Bin)))
}

// ParseOutput implements Adapter. dnsx prints one JSON object per host;
// the first well-formed record wins.
func (a *DNSX) ParseOutput(stdout, stderr string) report.Section {
	out := report.DefaultDNS()

	var rec map[string]any
	if !jsonutil.FirstRecord(stdout, &rec) {
		out.Error = stderrExcerpt(stderr)
		return out
	}

	out.ARecords = strList(rec, "a")
	out.CNAMERecords = strList(rec, "cname")
	out.NSRecords = strList(rec, "ns")
	out.MXRecords = strList(rec, "mx")
	out.CDNDetected = str(rec, "cdn_name")

	if asn := obj(rec, "asn"); asn != nil {
		out.HostingProvider = str(asn, "as_org")
		out.ASN = str(asn, "as_number")
	}
	return out
}
