package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/siteintel/siteintel/pkg/adapters"
	"github.com/siteintel/siteintel/pkg/config"
	"github.com/siteintel/siteintel/pkg/defaults"
	"github.com/siteintel/siteintel/pkg/enrich"
	"github.com/siteintel/siteintel/pkg/httpclient"
	"github.com/siteintel/siteintel/pkg/metrics"
	"github.com/siteintel/siteintel/pkg/runner"
	"github.com/siteintel/siteintel/pkg/scan"
	"github.com/siteintel/siteintel/pkg/tracing"
)

// app is everything a subcommand needs, built once from the config.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	adapters    []adapters.Adapter
	metrics     *metrics.Metrics
	tracing     *tracing.Provider
	runner      *runner.Runner
	coordinator *scan.Coordinator
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == config.FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newEnrichChain builds the ownership lookup chain, ipapi.co first.
// It returns nil when every source is disabled.
func newEnrichChain(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *enrich.Chain {
	var sources []enrich.Source
	if cfg.IPAPIEnabled {
		client := httpclient.New(httpclient.Config{Timeout: cfg.EnrichTimeout})
		limiter := enrich.NewLimiter(cfg.EnrichRate, defaults.EnrichBurst)
		sources = append(sources, enrich.NewIPAPI(cfg.IPAPIURL, client, limiter))
	}
	if cfg.CymruEnabled {
		sources = append(sources, enrich.NewCymru(cfg.CymruResolver))
	}
	if len(sources) == 0 {
		return nil
	}
	return enrich.NewChain(sources,
		enrich.WithTimeout(cfg.EnrichTimeout),
		enrich.WithLogger(logger),
		enrich.WithObserver(m.ObserveEnrich),
	)
}

func newApp(ctx context.Context, cfg *config.Config, logw io.Writer) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   newLogger(cfg, logw),
		adapters: adapters.WithBinaries(cfg.Tools),
	}
	slog.SetDefault(a.logger)

	if cfg.MetricsEnabled {
		m, err := metrics.New()
		if err != nil {
			return nil, err
		}
		a.metrics = m
	}

	tp, err := tracing.Setup(ctx, tracing.Options{
		Endpoint: cfg.OTLPEndpoint,
		Insecure: cfg.OTLPInsecure,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	a.tracing = tp

	a.runner = runner.New(runner.Config{
		Timeout: cfg.ProbeTimeout,
		Logger:  a.logger,
	})

	opts := []scan.Option{
		scan.WithLogger(a.logger),
		scan.WithDeadline(cfg.ScanDeadline),
		scan.WithMetrics(a.metrics),
		scan.WithTracing(a.tracing),
	}
	if chain := newEnrichChain(cfg, a.logger, a.metrics); chain != nil {
		opts = append(opts, scan.WithResolver(chain))
	}
	a.coordinator = scan.New(a.adapters, a.runner, opts...)
	return a, nil
}

// close logs probe totals and flushes telemetry.
func (a *app) close() {
	snap := a.runner.Stats.Snapshot()
	a.logger.Debug("probe totals",
		slog.Int64("started", snap.Started),
		slog.Int64("finished", snap.Finished()),
		slog.Int64("succeeded", snap.Succeeded),
		slog.Int64("failed", snap.Failed),
		slog.Int64("timed_out", snap.TimedOut),
		slog.Int64("canceled", snap.Canceled),
	)
	if err := a.tracing.Shutdown(context.Background()); err != nil {
		a.logger.Warn("trace flush failed", slog.String("error", err.Error()))
	}
}

// logTools reports missing tool binaries at startup.
func (a *app) logTools() {
	for _, st := range adapters.CheckTools(a.adapters) {
		if !st.Available {
			a.logger.Warn("tool not found on PATH; its section will be empty",
				slog.String("tool", st.Name),
				slog.String("binary", st.Binary),
			)
		}
	}
}
