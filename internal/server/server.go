package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/liftoffbuild/liftoff/internal/run"
)

const (

	// Default listen address for the trigger API.
	DefaultAddr = ":8730"

	// Bound on graceful shutdown.
	shutdownTimeout = 10 * time.Second
)

// Holds server configuration.
type Config struct {
	Addr string // Listen address. Empty uses [DefaultAddr].
}

// Serves the HTTP trigger API.
//
// A POST to /api/runs starts a run for a revision and returns its
// identifier; GET /api/runs/{id} reports live progress. Triggers are
// single-flight per revision: a second trigger while a run for the
// same revision is still in progress is answered with the in-flight
// run instead of starting another.
type Server struct {
	addr        string
	coordinator *run.Coordinator
	httpServer  *http.Server

	mu       sync.Mutex
	runs     map[string]*run.Run // All runs by identifier.
	inflight map[string]*run.Run // Non-terminal runs by revision.
}

// Creates a new server around a coordinator.
//
// The listener is not opened until [Start] is called.
func New(cfg Config, c *run.Coordinator) *Server {
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	return &Server{
		addr:        addr,
		coordinator: c,
		runs:        make(map[string]*run.Run),
		inflight:    make(map[string]*run.Run),
	}
}

// Builds the API router.
func (s *Server) handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Route("/api", func(r chi.Router) {
		r.Post("/runs", s.handleTrigger)
		r.Get("/runs/{runID}", s.handleGetRun)
	})

	return router
}

// Opens the listener and begins serving requests.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.handler(),
	}

	slog.Info("server listening", "addr", s.addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}
	return nil
}

// Stops the server, allowing in-flight requests to complete.
//
// Runs already executing keep running to their terminal state; only the
// HTTP surface shuts down.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	slog.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Returns the in-flight run for a revision, or starts a new one.
func (s *Server) trigger(revision string) (*run.Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.inflight[revision]; ok {
		return r, false
	}

	r := s.coordinator.NewRun(revision)
	s.runs[r.ID] = r
	s.inflight[revision] = r

	go s.execute(r)

	return r, true
}

// Drives a run to completion on its own goroutine and clears the
// single-flight slot once it is terminal.
func (s *Server) execute(r *run.Run) {
	defer func() {
		s.mu.Lock()
		delete(s.inflight, r.Revision)
		s.mu.Unlock()
	}()

	if _, err := s.coordinator.Execute(context.Background(), r); err != nil {
		slog.Error("run failed", "run", r.ID, "revision", r.Revision, "error", err)
	}
}

// Looks up a run by identifier.
func (s *Server) lookup(id string) (*run.Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[id]
	return r, ok
}
