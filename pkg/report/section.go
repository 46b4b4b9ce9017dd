package report

// Section is the normalized output of one adapter. The set is closed: only
// the section types in this package implement it. Apply overwrites the
// matching part of r.
type Section interface {
	Apply(r *Report)
	section()
}

var (
	_ Section = WAF{}
	_ Section = Technologies{}
	_ Section = TLS{}
	_ Section = DNS{}
	_ Section = Headers{}
	_ Section = Whois{}
	_ Section = Subdomains{}
)

// Apply implements Section.
func (s WAF) Apply(r *Report) { r.WAF = s }

// Apply implements Section.
func (s Technologies) Apply(r *Report) {
	if s == nil {
		s = Technologies{}
	}
	r.Technologies = s
}

// Apply implements Section.
func (s TLS) Apply(r *Report) { r.TLS = s }

// Apply implements Section.
func (s DNS) Apply(r *Report) { r.DNS = s }

// Apply implements Section.
func (s Headers) Apply(r *Report) { r.Headers = s }

// Apply implements Section.
func (s Whois) Apply(r *Report) { r.Whois = s }

// Apply implements Section.
func (s Subdomains) Apply(r *Report) { r.Subdomains = s }

func (WAF) section()          {}
func (Technologies) section() {}
func (TLS) section()          {}
func (DNS) section()          {}
func (Headers) section()      {}
func (Whois) section()        {}
func (Subdomains) section()   {}
