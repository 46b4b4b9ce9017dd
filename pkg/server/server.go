// Package server is the HTTP front end: a health probe and a synchronous
// scan endpoint that validates the target, admits the request and returns
// the unified report.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/siteintel/siteintel/pkg/defaults"
	"github.com/siteintel/siteintel/pkg/duration"
	"github.com/siteintel/siteintel/pkg/iohelper"
	"github.com/siteintel/siteintel/pkg/jsonutil"
	"github.com/siteintel/siteintel/pkg/metrics"
	"github.com/siteintel/siteintel/pkg/report"
	"github.com/siteintel/siteintel/pkg/target"
)

// Scanner runs one scan. *scan.Coordinator implements it.
type Scanner interface {
	Scan(ctx context.Context, t target.Target) *report.Report
}

// Config configures a Server.
type Config struct {
	// MaxConcurrent bounds scans in flight (default defaults.MaxConcurrentScans).
	MaxConcurrent int

	// RequestRate and RequestBurst pace scan admission. A zero rate
	// disables pacing.
	RequestRate  float64
	RequestBurst int

	// Metrics, when set, is served at /metrics and records requests.
	Metrics *metrics.Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server handles HTTP requests.
type Server struct {
	scanner Scanner
	sem     chan struct{}
	limiter *rate.Limiter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New returns a Server that runs scans through scanner.
func New(scanner Scanner, cfg Config) *Server {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = defaults.MaxConcurrentScans
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestRate > 0 {
		burst := cfg.RequestBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestRate), burst)
	}

	return &Server{
		scanner: scanner,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		limiter: limiter,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

// Routes returns the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Post("/scan", s.handleScan)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// observe records the status code of every response against its route
// pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveRequest(route, status)
	})
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Service: defaults.ToolName})
}

type scanRequest struct {
	Target string `json:"target"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	body, err := iohelper.ReadBody(r.Body, iohelper.RequestMaxBodySize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	var req scanRequest
	if err := jsonutil.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object with a target")
		return
	}

	t, err := target.Parse(req.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, targetError(err))
		return
	}

	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "too many scan requests")
		return
	}

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-r.Context().Done():
		writeError(w, http.StatusServiceUnavailable, "server busy")
		return
	}

	rep, err := s.runScan(r.Context(), t)
	if err != nil {
		s.logger.Error("scan failed",
			slog.String("request_id", reqID),
			slog.String("target", t.Origin()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "scan failed")
		return
	}

	s.logger.Info("scan served",
		slog.String("request_id", reqID),
		slog.String("scan_id", rep.ScanID),
		slog.String("target", rep.Target),
		slog.Int("errors", len(rep.Errors)),
	)
	writeJSON(w, http.StatusOK, rep)
}

// runScan converts a panic or a nil report into an error, so internals
// never reach the client.
func (s *Server) runScan(ctx context.Context, t target.Target) (rep *report.Report, err error) {
	defer func() {
		if p := recover(); p != nil {
			rep = nil
			err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
		}
	}()
	rep = s.scanner.Scan(ctx, t)
	if rep == nil {
		return nil, errors.New("scanner returned no report")
	}
	return rep, nil
}

func targetError(err error) string {
	switch {
	case errors.Is(err, target.ErrEmpty):
		return "target cannot be empty"
	case errors.Is(err, target.ErrBlocked):
		return "scanning internal or reserved hostnames is not allowed"
	default:
		return "invalid hostname format"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := jsonutil.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", defaults.ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// ListenAndServe serves s on addr until ctx ends, then shuts down
// gracefully, letting in-flight scans finish within duration.ServerShutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: duration.ServerRead,
		ReadTimeout:       duration.ServerRead,
		WriteTimeout:      duration.ServerWrite,
		IdleTimeout:       duration.IdleConnTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), duration.ServerShutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
