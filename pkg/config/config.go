// Package config loads runtime settings from a YAML file and command line
// flags. Flags that were set explicitly override the file; everything else
// falls back to pkg/defaults and pkg/duration.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/siteintel/siteintel/pkg/adapters"
	"github.com/siteintel/siteintel/pkg/defaults"
	"github.com/siteintel/siteintel/pkg/duration"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds all runtime settings.
type Config struct {
	// Front end
	ListenAddr         string  `yaml:"listen_addr"`
	MaxConcurrentScans int     `yaml:"max_concurrent_scans"`
	RequestRate        float64 `yaml:"request_rate"` // admitted scans per second
	RequestBurst       int     `yaml:"request_burst"`

	// Budgets
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
	ScanDeadline  time.Duration `yaml:"scan_deadline"`
	EnrichTimeout time.Duration `yaml:"enrich_timeout"`

	// Enrichment
	IPAPIURL      string  `yaml:"ipapi_url"`
	IPAPIEnabled  bool    `yaml:"ipapi_enabled"`
	CymruEnabled  bool    `yaml:"cymru_enabled"`
	CymruResolver string  `yaml:"cymru_resolver"`
	EnrichRate    float64 `yaml:"enrich_rate"` // ipapi.co calls per second

	// Telemetry
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Tools overrides the executable per tool name.
	Tools map[string]string `yaml:"tools"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:         defaults.ListenAddr,
		MaxConcurrentScans: defaults.MaxConcurrentScans,
		RequestRate:        defaults.RequestRate,
		RequestBurst:       defaults.RequestBurst,
		ProbeTimeout:       duration.ProbeTimeout,
		ScanDeadline:       duration.ScanDeadline,
		EnrichTimeout:      duration.EnrichLookup,
		IPAPIURL:           defaults.IPAPIURL,
		IPAPIEnabled:       true,
		CymruEnabled:       true,
		CymruResolver:      defaults.DNSResolver,
		EnrichRate:         defaults.EnrichRate,
		MetricsEnabled:     true,
		LogLevel:           "info",
		LogFormat:          FormatText,
		Tools:              map[string]string{},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML data over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Tools == nil {
		cfg.Tools = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.ListenAddr) == "" {
		problems = append(problems, "listen_addr must not be empty")
	}
	if c.MaxConcurrentScans < 1 {
		problems = append(problems, "max_concurrent_scans must be at least 1")
	}
	if c.RequestRate < 0 {
		problems = append(problems, "request_rate must not be negative")
	}
	if c.RequestBurst < 0 {
		problems = append(problems, "request_burst must not be negative")
	}
	if c.ProbeTimeout <= 0 {
		problems = append(problems, "probe_timeout must be positive")
	}
	if c.ScanDeadline <= 0 {
		problems = append(problems, "scan_deadline must be positive")
	}
	if c.EnrichTimeout <= 0 {
		problems = append(problems, "enrich_timeout must be positive")
	}
	if c.EnrichRate < 0 {
		problems = append(problems, "enrich_rate must not be negative")
	}
	if c.IPAPIEnabled && !strings.HasPrefix(c.IPAPIURL, "http://") && !strings.HasPrefix(c.IPAPIURL, "https://") {
		problems = append(problems, "ipapi_url must be an http(s) URL")
	}
	if c.CymruEnabled && strings.TrimSpace(c.CymruResolver) == "" {
		problems = append(problems, "cymru_resolver must not be empty")
	}
	if _, err := c.Level(); err != nil {
		problems = append(problems, fmt.Sprintf("log_level %q is not a level", c.LogLevel))
	}
	if c.LogFormat != FormatText && c.LogFormat != FormatJSON {
		problems = append(problems, fmt.Sprintf("log_format %q must be %q or %q", c.LogFormat, FormatText, FormatJSON))
	}

	known := adapters.Names(adapters.Default())
	for name := range c.Tools {
		if !slices.Contains(known, name) {
			problems = append(problems, fmt.Sprintf("tools: unknown tool %q", name))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	slices.Sort(problems)
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}

// ParseFlags parses args (without the program name) into a Config. A
// -config file is loaded first; flags given on the command line then
// override it. extra registers subcommand-specific flags on the same set.
// The remaining positional arguments are returned.
func ParseFlags(name string, args []string, extra ...func(fs *flag.FlagSet)) (*Config, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	for _, register := range extra {
		register(fs)
	}

	path := fs.String("config", "", "YAML configuration file")

	def := Default()
	listen := fs.String("listen", def.ListenAddr, "HTTP listen address")
	maxScans := fs.Int("max-scans", def.MaxConcurrentScans, "Concurrent scans")
	reqRate := fs.Float64("request-rate", def.RequestRate, "Admitted scans per second (0 = unlimited)")
	probeTimeout := fs.Duration("probe-timeout", def.ProbeTimeout, "Per-probe time budget")
	scanDeadline := fs.Duration("scan-deadline", def.ScanDeadline, "Global probe batch deadline")
	enrichTimeout := fs.Duration("enrich-timeout", def.EnrichTimeout, "Per-lookup enrichment timeout")
	ipapiURL := fs.String("ipapi-url", def.IPAPIURL, "ipapi.co base URL")
	noIPAPI := fs.Bool("no-ipapi", false, "Disable the ipapi.co lookup")
	noCymru := fs.Bool("no-cymru", false, "Disable the Team Cymru lookup")
	resolver := fs.String("resolver", def.CymruResolver, "DNS server for Team Cymru lookups")
	noMetrics := fs.Bool("no-metrics", false, "Disable /metrics")
	otlp := fs.String("otlp-endpoint", def.OTLPEndpoint, "OTLP gRPC endpoint for traces")
	otlpInsecure := fs.Bool("otlp-insecure", def.OTLPInsecure, "Use plaintext gRPC for OTLP")
	level := fs.String("log-level", def.LogLevel, "Log level: debug, info, warn, error")
	format := fs.String("log-format", def.LogFormat, "Log format: text, json")

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg := Default()
	if *path != "" {
		loaded, err := Load(*path)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.ListenAddr = *listen
		case "max-scans":
			cfg.MaxConcurrentScans = *maxScans
		case "request-rate":
			cfg.RequestRate = *reqRate
		case "probe-timeout":
			cfg.ProbeTimeout = *probeTimeout
		case "scan-deadline":
			cfg.ScanDeadline = *scanDeadline
		case "enrich-timeout":
			cfg.EnrichTimeout = *enrichTimeout
		case "ipapi-url":
			cfg.IPAPIURL = *ipapiURL
		case "no-ipapi":
			cfg.IPAPIEnabled = !*noIPAPI
		case "no-cymru":
			cfg.CymruEnabled = !*noCymru
		case "resolver":
			cfg.CymruResolver = *resolver
		case "no-metrics":
			cfg.MetricsEnabled = !*noMetrics
		case "otlp-endpoint":
			cfg.OTLPEndpoint = *otlp
		case "otlp-insecure":
			cfg.OTLPInsecure = *otlpInsecure
		case "log-level":
			cfg.LogLevel = *level
		case "log-format":
			cfg.LogFormat = *format
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}
