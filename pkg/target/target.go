// Package target validates and normalizes scan targets.
//
// A Target is the validated origin a scan runs against. Validation happens
// once, at the edge (HTTP front end or CLI); every adapter receives an
// already-safe hostname that matches a strict letters/digits/hyphens/dots
// pattern, so it can be placed on a command line.
package target

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// hostnameRe accepts dot-separated labels of letters, digits and inner
// hyphens, each at most 63 characters.
var hostnameRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?)*$`)

var (
	blockedHosts    = map[string]bool{"localhost": true, "metadata.google.internal": true}
	blockedSuffixes = []string{".localhost", ".internal"}
)

// Target is an immutable, validated scan origin.
type Target struct {
	scheme string
	host   string
	port   int
}

// Parse validates raw and returns the corresponding Target. Surrounding
// whitespace is trimmed, https:// is assumed when no scheme is given, and
// internationalized names are converted to their ASCII form.
func Parse(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, ErrEmpty
	}

	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}

	host := u.Hostname()
	if host == "" {
		return Target{}, fmt.Errorf("%w: no hostname in %q", ErrInvalid, raw)
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q: %v", ErrInvalid, host, err)
	}
	ascii = strings.ToLower(ascii)

	if !hostnameRe.MatchString(ascii) {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalid, host)
	}
	if Blocked(ascii) {
		return Target{}, fmt.Errorf("%w: %q", ErrBlocked, ascii)
	}

	t := Target{scheme: strings.ToLower(u.Scheme), host: ascii}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return Target{}, fmt.Errorf("%w: bad port %q", ErrInvalid, p)
		}
		t.port = port
	}
	return t, nil
}

// MustParse is like Parse but panics on error. For tests and constants.
func MustParse(raw string) Target {
	t, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// Blocked reports whether host names an internal or reserved destination.
func Blocked(host string) bool {
	host = strings.ToLower(host)
	if blockedHosts[host] {
		return true
	}
	for _, s := range blockedSuffixes {
		if strings.HasSuffix(host, s) {
			return true
		}
	}
	return false
}

// Scheme returns "http" or "https".
func (t Target) Scheme() string { return t.scheme }

// Host returns the lower-case ASCII hostname.
func (t Target) Host() string { return t.host }

// Port returns the explicit port, or 0 when none was given.
func (t Target) Port() int { return t.port }

// IsZero reports whether t is the zero Target.
func (t Target) IsZero() bool { return t.host == "" }

// Origin returns scheme://host[:port].
func (t Target) Origin() string {
	if t.port != 0 {
		return t.scheme + "://" + net.JoinHostPort(t.host, strconv.Itoa(t.port))
	}
	return t.scheme + "://" + t.host
}

// String implements fmt.Stringer.
func (t Target) String() string { return t.Origin() }

// HostPort returns host:port, using defaultPort when no port was given.
func (t Target) HostPort(defaultPort int) string {
	port := t.port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(t.host, strconv.Itoa(port))
}

// RegistrableDomain returns the last two labels of the hostname, or the
// whole hostname when it has fewer. Multi-label public suffixes such as
// co.uk are not recognized, so "shop.example.co.uk" yields "co.uk".
func (t Target) RegistrableDomain() string {
	labels := strings.Split(t.host, ".")
	if len(labels) < 2 {
		return t.host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}
