// Package httpapi serves a board over HTTP: CRUD routes per record type,
// view projections, CSV import, zip export, and a live change stream over
// server-sent events. Handlers stay thin; every domain rule lives behind
// the types.Store interface.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lawrns/foco/internal/version"
	"github.com/lawrns/foco/realtime"
	"github.com/lawrns/foco/types"
)

// Server wires a store and a change hub into an HTTP handler.
type Server struct {
	store    types.Store
	hub      *realtime.Hub
	logger   *slog.Logger
	name     string
	board    types.BoardConfig
	timeFunc func() time.Time
	shutdown time.Duration
}

// New builds a server over the given store. The hub feeds the event
// stream; pass the same hub the store publishes to.
func New(store types.Store, hub *realtime.Hub, opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		store:    store,
		hub:      hub,
		logger:   cfg.logger,
		name:     cfg.name,
		board:    cfg.board,
		timeFunc: cfg.timeFunc,
		shutdown: cfg.shutdownTimeout,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))
	r.Use(recoverPanics(s.logger))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleCreateProject)
			r.Get("/{id}", s.handleGetProject)
			r.Patch("/{id}", s.handleUpdateProject)
			r.Delete("/{id}", s.handleDeleteProject)
			r.Get("/{id}/kanban", s.handleKanban)
			r.Get("/{id}/gantt", s.handleGantt)
			r.Get("/{id}/summary", s.handleSummary)
		})
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)
			r.Get("/{id}", s.handleGetTask)
			r.Patch("/{id}", s.handleUpdateTask)
			r.Delete("/{id}", s.handleDeleteTask)
			r.Post("/{id}/move", s.handleMoveTask)
			r.Post("/{id}/complete", s.handleCompleteTask)
			r.Post("/{id}/reopen", s.handleReopenTask)
		})
		r.Route("/milestones", func(r chi.Router) {
			r.Get("/", s.handleListMilestones)
			r.Post("/", s.handleCreateMilestone)
			r.Patch("/{id}", s.handleUpdateMilestone)
			r.Delete("/{id}", s.handleDeleteMilestone)
			r.Post("/{id}/move", s.handleMoveMilestone)
		})
		r.Route("/members", func(r chi.Router) {
			r.Get("/", s.handleListMembers)
			r.Post("/", s.handleCreateMember)
			r.Patch("/{id}", s.handleUpdateMember)
			r.Delete("/{id}", s.handleDeleteMember)
		})
		r.Post("/import/csv", s.handleImportCSV)
		r.Get("/export", s.handleExport)
		r.Get("/events", s.handleEvents)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"name":    s.name,
		"version": version.Version,
	})
}

// ListenAndServe binds addr and serves until ctx is cancelled, then
// drains in-flight requests and returns.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the API on an existing listener until ctx is cancelled.
// Event streams inherit ctx through the server's base context, so
// cancelling it ends them and the drain can finish inside the shutdown
// timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: the event stream holds its response open
		// indefinitely.
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Serve(ln)
	}()
	s.logger.Info("http api listening", "addr", ln.Addr().String())

	select {
	case err := <-errs:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("http api stopped")
	return nil
}
