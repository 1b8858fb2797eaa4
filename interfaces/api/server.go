// Package api serves the chartgen workbench over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/felixgeelhaar/chartgen/application"
	"github.com/felixgeelhaar/chartgen/domain/config"
	"github.com/felixgeelhaar/chartgen/infrastructure/logging"
)

// Config configures the HTTP server.
type Config struct {
	Addr          string
	SessionCookie string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
	// SweepInterval is how often idle sessions are evicted.
	SweepInterval time.Duration
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		SessionCookie:   "chartgen_session",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		SweepInterval:   time.Minute,
	}
}

// ConfigFrom maps application configuration onto the server.
func ConfigFrom(app *config.AppConfig) Config {
	cfg := DefaultConfig()
	if app == nil {
		return cfg
	}
	s := app.Server
	if s.Addr != "" {
		cfg.Addr = s.Addr
	}
	if s.SessionCookie != "" {
		cfg.SessionCookie = s.SessionCookie
	}
	if s.ReadTimeout > 0 {
		cfg.ReadTimeout = s.ReadTimeout.Duration()
	}
	if s.WriteTimeout > 0 {
		cfg.WriteTimeout = s.WriteTimeout.Duration()
	}
	return cfg
}

// Server routes HTTP requests to a workbench.
type Server struct {
	workbench *application.Workbench
	config    Config
	router    *mux.Router
}

// NewServer creates a server for wb.
func NewServer(wb *application.Workbench, cfg Config) *Server {
	def := DefaultConfig()
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = def.SessionCookie
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}

	s := &Server{workbench: wb, config: cfg}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(recoverer, requestLogger)

	r.HandleFunc("/healthz", s.handleLiveness).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/generate", requireJSON(s.handleGenerate)).Methods(http.MethodPost)
	api.HandleFunc("/data", s.handleData).Methods(http.MethodGet)
	api.HandleFunc("/chart-types", s.handleChartTypes).Methods(http.MethodGet)
	api.HandleFunc("/charts", requireJSON(s.handleCreateChart)).Methods(http.MethodPost)
	api.HandleFunc("/charts/current", s.handleCurrentChart).Methods(http.MethodGet)
	api.HandleFunc("/charts/current", s.handleReleaseChart).Methods(http.MethodDelete)
	api.HandleFunc("/export", requireJSON(s.handleExport)).Methods(http.MethodPost)

	// Subrouters do not inherit these from the root.
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = http.HandlerFunc(notFound)
		router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	}
	return r
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", "not found", "")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", "")
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// sweep evicts idle workbench sessions until ctx is done.
func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.workbench.Sweep()
		}
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	go s.sweep(ctx)

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Add(logging.Component("api"), logging.Str("addr", s.config.Addr)).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	logging.Info().Add(logging.Component("api")).Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
