package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/siteintel/siteintel/pkg/config"
	"github.com/siteintel/siteintel/pkg/defaults"
	"github.com/siteintel/siteintel/pkg/server"
)

func runServe(args []string, stderr io.Writer) int {
	cfg, _, err := config.ParseFlags("serve", args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return defaults.ExitSuccess
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return defaults.ExitUserError
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return defaults.ExitInternalError
	}
	defer a.close()
	a.logTools()

	srv := server.New(a.coordinator, server.Config{
		MaxConcurrent: cfg.MaxConcurrentScans,
		RequestRate:   cfg.RequestRate,
		RequestBurst:  cfg.RequestBurst,
		Metrics:       a.metrics,
		Logger:        a.logger,
	})

	a.logger.Info("starting",
		slog.String("version", defaults.Version),
		slog.Duration("probe_timeout", cfg.ProbeTimeout),
		slog.Duration("scan_deadline", cfg.ScanDeadline),
		slog.Int("max_concurrent_scans", cfg.MaxConcurrentScans),
		slog.Bool("metrics", cfg.MetricsEnabled),
	)
	if err := srv.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		a.logger.Error("server stopped", slog.String("error", err.Error()))
		return defaults.ExitInternalError
	}
	return defaults.ExitSuccess
}
