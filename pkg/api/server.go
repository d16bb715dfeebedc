// Package api serves the sequencing pipeline over HTTP.
//
// # Endpoints
//
//	POST /v1/sequence     run the pipeline on a job set
//	GET  /v1/runs         list stored runs, newest first (?limit=N)
//	GET  /v1/runs/{id}    fetch one stored run
//	GET  /healthz         liveness probe
//
// Errors are returned as JSON:
//
//	{"error": {"code": "EMPTY_MANUAL_SEQUENCE", "message": "..."}, "warnings": [...]}
//
// Invalid requests answer 400. Runs that cannot produce a sequence (no jobs,
// a manual sequence that matched nothing) answer 422 and still carry the
// warnings gathered before the failure. Unknown runs answer 404.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/changeover/pkg/pipeline"
	"github.com/matzehuels/changeover/pkg/store"
)

// Defaults for [Config].
const (
	DefaultMaxBodyBytes = 8 << 20
	DefaultMaxJobs      = 5000

	shutdownWait = 30 * time.Second
)

// Config configures a [Server].
type Config struct {
	// Runner executes sequencing requests. Nil uses a runner without cache.
	Runner *pipeline.Runner

	// Store records finished runs. Nil uses an in-memory store.
	Store store.Store

	// Logger receives request and run logs. Nil discards them.
	Logger *log.Logger

	// MaxBodyBytes bounds request bodies.
	MaxBodyBytes int64

	// MaxJobs bounds the number of jobs in one request.
	MaxJobs int

	// Debug adds per-request logging.
	Debug bool
}

// Server is the HTTP API.
type Server struct {
	runner  *pipeline.Runner
	store   store.Store
	logger  *log.Logger
	maxBody int64
	maxJobs int
	debug   bool
}

// New creates a server from cfg, filling in defaults.
func New(cfg Config) *Server {
	s := &Server{
		runner:  cfg.Runner,
		store:   cfg.Store,
		logger:  cfg.Logger,
		maxBody: cfg.MaxBodyBytes,
		maxJobs: cfg.MaxJobs,
		debug:   cfg.Debug,
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.store == nil {
		s.store = store.NewMemory()
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	if s.maxJobs <= 0 {
		s.maxJobs = DefaultMaxJobs
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hooksMiddleware)
	if s.debug {
		r.Use(s.loggingMiddleware)
	}

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/sequence", s.sequence)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{id}", s.getRun)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
