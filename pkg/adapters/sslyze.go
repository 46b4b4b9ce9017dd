package adapters

import (
	"slices"

	"github.com/siteintel/siteintel/pkg/defaults"
	"github.com/siteintel/siteintel/pkg/jsonutil"
	"github.com/siteintel/siteintel/pkg/report"
	"github.com/siteintel/siteintel/pkg/target"
)

// sslyzeProtocols maps sslyze scan commands to protocol names, oldest first.
var sslyzeProtocols = []struct {
	command  string
	protocol string
}{
	{"tls_1_0_cipher_suites", "TLSv1.0"},
	{"tls_1_1_cipher_suites", "TLSv1.1"},
	{"tls_1_2_cipher_suites", "TLSv1.2"},
	{"tls_1_3_cipher_suites", "TLSv1.3"},
}

// SSLyze inspects the TLS configuration and leaf certificate.
type SSLyze struct {
	// Python is the interpreter that has the sslyze module installed.
	Python string
}

// Name implements Adapter.
func (a *SSLyze) Name() string { return NameSSLyze }

// Binary returns the Python interpreter.
func (a *SSLyze) Binary() string { return a.Python }

// BuildCommand implements Adapter.
func (a *SSLyze) BuildCommand(t target.Target) Invocation {
	return Exec(a.Python, "-m", "sslyze", "--json_out=-", t.HostPort(defaults.DefaultTLSPort))
}

// ParseOutput implements Adapter. stdout is a single JSON document.
func (a *SSLyze) ParseOutput(stdout, stderr string) report.Section {
	out := report.DefaultTLS()

	var doc map[string]any
	if err := jsonutil.Unmarshal([]byte(stdout), &doc); err != nil {
		out.Error = stderrExcerpt(stderr)
		return out
	}

	results := list(doc, "server_scan_results")
	if len(results) == 0 {
		return out
	}
	first, _ := results[0].(map[string]any)
	commands := obj(first, "scan_result")

	for _, p := range sslyzeProtocols {
		accepted := list(obj(obj(commands, p.command), "result"), "accepted_cipher_suites")
		if len(accepted) == 0 {
			continue
		}
		out.Protocols = append(out.Protocols, p.protocol)
		for _, cs := range accepted {
			m, _ := cs.(map[string]any)
			name := str(obj(m, "cipher_suite"), "name")
			if name != "" && !slices.Contains(out.CipherSuites, name) {
				out.CipherSuites = append(out.CipherSuites, name)
			}
		}
	}

	deployments := list(obj(obj(commands, "certificate_info"), "result"), "certificate_deployments")
	if len(deployments) == 0 {
		return out
	}
	dep, _ := deployments[0].(map[string]any)
	chain := list(dep, "received_certificate_chain")
	if len(chain) == 0 {
		return out
	}
	leaf, _ := chain[0].(map[string]any)
	out.Certificate.Issuer = str(obj(leaf, "issuer"), "rfc4514_string")
	out.Certificate.Expiry = str(leaf, "not_valid_after")
	out.Certificate.SAN = strList(obj(leaf, "subject_alternative_name"), "dns")
	return out
}
