// Package server exposes the health, info, metrics and webhook HTTP routes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/energy-exec/server/internal/metrics"
	logx "github.com/energy-exec/server/pkg/logger"
)

const serviceName = "energy-exec"

type Config struct {
	Addr            string        `envconfig:"HTTP_ADDR" default:":3000"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	config  Config
	version string
	mux     *http.ServeMux
	checks  map[string]Pinger
	now     func() time.Time
}

func New(config Config, version string) *Server {
	s := &Server{
		config:  config,
		version: version,
		mux:     http.NewServeMux(),
		checks:  map[string]Pinger{},
		now:     time.Now,
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.Handle("GET /metrics", metrics.Handler())
	return s
}

// AddCheck makes /health report 503 while p fails.
func (s *Server) AddCheck(name string, p Pinger) {
	s.checks[name] = p
}

// Mount registers h for POST requests on path, used for the chat webhook.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle("POST "+path, h)
	logx.Info().Str("path", path).Msg("Webhook route mounted")
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", s.config.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Warn().Err(err).Msg("HTTP server shutdown")
		return err
	}
	logx.Info().Msg("HTTP server stopped")
	return nil
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Service:   serviceName,
	}
	code := http.StatusOK
	for name, p := range s.checks {
		if err := p.Ping(r.Context()); err != nil {
			logx.Warn().Err(err).Str("check", name).Msg("Health check failed")
			if resp.Checks == nil {
				resp.Checks = map[string]string{}
			}
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Energy Exec API",
		"version": s.version,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warn().Err(err).Msg("Failed to write JSON response")
	}
}
