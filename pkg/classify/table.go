package classify

// Tier is the interest level of a subdomain.
type Tier string

// Interest tiers, most interesting first.
const (
	High   Tier = "high"
	Medium Tier = "medium"
	Low    Tier = "low"
)

// Rank orders tiers for sorting: high=0, medium=1, low=2. Unknown tiers
// sort last.
func (t Tier) Rank() int {
	switch t {
	case High:
		return 0
	case Medium:
		return 1
	case Low:
		return 2
	default:
		return 3
	}
}

// Category is one row of the classification table.
type Category struct {
	Name        string
	Opportunity string
	Tier        Tier
	Keywords    []string
}

// Table is evaluated top to bottom; the first row with a keyword contained
// in any label of the subdomain prefix wins. Order matters: "webmail"
// must hit Email before Marketing sees "web", and "admin" must reach
// Internal Tools untouched by earlier rows.
var Table = []Category{
	{
		Name:        "Authentication & Identity",
		Opportunity: "Protect login flows with bot management, rate limiting and credential stuffing defenses",
		Tier:        High,
		Keywords:    []string{"auth", "login", "sso", "oauth", "signin", "idp", "identity", "accounts"},
	},
	{
		Name:        "E-commerce & Payments",
		Opportunity: "Guard checkout and payment paths with WAF rules, bot management and PCI-scoped controls",
		Tier:        High,
		Keywords:    []string{"shop", "store", "checkout", "pay", "billing", "cart", "order"},
	},
	{
		Name:        "Customer Portals",
		Opportunity: "Put authenticated customer surfaces behind zero trust access and DDoS protection",
		Tier:        High,
		Keywords:    []string{"portal", "dashboard", "customer", "client", "member"},
	},
	{
		Name:        "API & Compute",
		Opportunity: "API gateway with schema validation, rate limiting and edge compute offload",
		Tier:        Medium,
		Keywords:    []string{"api", "graphql", "gateway", "rpc", "backend", "compute", "lambda", "functions", "worker"},
	},
	{
		Name:        "Content & Media",
		Opportunity: "CDN caching, image optimization and object storage egress savings",
		Tier:        Medium,
		Keywords:    []string{"cdn", "static", "assets", "media", "img", "images", "video", "files", "download", "upload", "storage", "s3"},
	},
	{
		Name:        "Email & Communication",
		Opportunity: "Email security and DMARC enforcement",
		Tier:        Medium,
		Keywords:    []string{"mail", "smtp", "imap", "pop3", "mx", "webmail", "autodiscover"},
	},
	{
		Name:        "Marketing & Web",
		Opportunity: "Site performance, caching and page acceleration",
		Tier:        Medium,
		Keywords:    []string{"www", "web", "blog", "news", "marketing", "landing", "promo", "events", "careers", "docs", "help", "support"},
	},
	{
		Name:        "Development & Staging",
		Opportunity: "Gate non-production environments behind access policies",
		Tier:        Low,
		Keywords:    []string{"dev", "staging", "stage", "test", "qa", "uat", "sandbox", "demo", "preview", "beta"},
	},
	{
		Name:        "Internal Tools",
		Opportunity: "Replace VPN exposure of internal tools with zero trust access",
		Tier:        Low,
		Keywords:    []string{"admin", "internal", "intranet", "jira", "confluence", "wiki", "jenkins", "gitlab", "git", "grafana", "kibana", "monitor", "status"},
	},
	{
		Name:        "Infrastructure",
		Opportunity: "Network-layer DDoS protection and origin shielding",
		Tier:        Low,
		Keywords:    []string{"vpn", "remote", "proxy", "lb", "edge", "node", "host", "server", "db", "sql", "redis", "ns", "dns"},
	},
}

// Default is assigned to names no table row matches.
var Default = Category{
	Name:        "Other",
	Opportunity: "General CDN & security coverage",
	Tier:        Low,
}
