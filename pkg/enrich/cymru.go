package enrich

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/miekg/dns"

	"github.com/siteintel/siteintel/pkg/defaults"
	"github.com/siteintel/siteintel/pkg/duration"
)

// Cymru looks addresses up in Team Cymru's IP-to-ASN DNS service.
//
//	TXT 4.3.2.1.origin.asn.cymru.com -> "13335 | 104.16.0.0/13 | US | arin | 2014-03-28"
//	TXT AS13335.asn.cymru.com        -> "13335 | US | arin | 2010-07-14 | CLOUDFLARENET, US"
type Cymru struct {
	// Resolver is the host:port of the DNS server to ask.
	Resolver string

	// OriginZone and ASNZone default to the public Team Cymru zones.
	OriginZone string
	ASNZone    string

	client *dns.Client
}

// NewCymru returns a Team Cymru source using resolver (default
// defaults.DNSResolver).
func NewCymru(resolver string) *Cymru {
	if resolver == "" {
		resolver = defaults.DNSResolver
	}
	return &Cymru{
		Resolver:   resolver,
		OriginZone: defaults.CymruOriginZone,
		ASNZone:    defaults.CymruASNZone,
		client:     &dns.Client{Net: "udp", Timeout: duration.DNSTimeout},
	}
}

// Name implements Source.
func (s *Cymru) Name() string { return "cymru" }

// Lookup implements Source. The organization lookup only runs when the
// origin lookup produced an AS number.
func (s *Cymru) Lookup(ctx context.Context, ip string) (Result, error) {
	if !ValidIPv4(ip) {
		return Result{}, ErrInvalidAddress
	}

	origin, err := s.txt(ctx, reverseIPv4(ip)+"."+s.OriginZone)
	if err != nil {
		return Result{}, err
	}
	fields := splitPipes(origin)
	if len(fields) == 0 || fields[0] == "" {
		return Result{}, fmt.Errorf("%w: cymru: no origin for %s", ErrEnrichmentUnavailable, ip)
	}
	// Multi-origin prefixes list several AS numbers; the first is kept.
	number := strings.Fields(fields[0])[0]
	if !isDigits(number) {
		return Result{}, fmt.Errorf("%w: cymru: malformed origin %q for %s", ErrEnrichmentUnavailable, fields[0], ip)
	}
	res := Result{ASN: "AS" + number}

	desc, err := s.txt(ctx, "AS"+number+"."+s.ASNZone)
	if err != nil {
		// The AS number alone is still worth returning.
		return res, nil
	}
	if f := splitPipes(desc); len(f) >= 5 {
		res.Org = f[4]
	}
	return res, nil
}

// txt returns the first TXT string answered for name.
func (s *Cymru) txt(ctx context.Context, name string) (string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeTXT)

	in, _, err := s.client.ExchangeContext(ctx, msg, s.Resolver)
	if err != nil {
		return "", fmt.Errorf("%w: cymru: %s: %w", ErrEnrichmentUnavailable, name, err)
	}
	if in == nil || in.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("%w: cymru: %s: no answer", ErrEnrichmentUnavailable, name)
	}
	for _, ans := range in.Answer {
		if t, ok := ans.(*dns.TXT); ok && len(t.Txt) > 0 {
			return strings.Join(t.Txt, ""), nil
		}
	}
	return "", fmt.Errorf("%w: cymru: %s: no TXT record", ErrEnrichmentUnavailable, name)
}

// reverseIPv4 turns 1.2.3.4 into 4.3.2.1.
func reverseIPv4(ip string) string {
	v4 := net.ParseIP(ip).To4()
	return fmt.Sprintf("%d.%d.%d.%d", v4[3], v4[2], v4[1], v4[0])
}

func splitPipes(s string) []string {
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
