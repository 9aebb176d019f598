// Package server exposes the layout pipeline over HTTP.
//
// The API is deliberately small: one stateless endpoint that lays out a
// posted graph, and a named-layout store backed by MongoDB for clients
// that want to compute once and fetch many times. All geometry work goes
// through the same [pipeline.Runner] the CLI uses, so caching behaves
// identically in both.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/nestflow/nestflow/pkg/pipeline"
	"github.com/nestflow/nestflow/pkg/store"
)

// Options configure the server.
type Options struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Runner executes layout and render requests. Required.
	Runner *pipeline.Runner

	// Store persists named layouts. Optional; the /v1/layouts endpoints
	// return 503 when unset.
	Store *store.Store

	// Logger for request logging. Defaults to a discard logger.
	Logger *log.Logger
}

// ValidateAndSetDefaults fills unset fields with defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Runner == nil {
		return errors.New("server: runner is required")
	}
	if o.Addr == "" {
		o.Addr = ":8080"
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Server is the HTTP API server.
type Server struct {
	opts   Options
	router chi.Router
}

// New constructs a server and its route table.
func New(opts Options) (*Server, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	s := &Server{opts: opts}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(opts.Logger))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Route("/layouts", func(r chi.Router) {
			r.Get("/", s.handleListLayouts)
			r.Put("/{name}", s.handleSaveLayout)
			r.Get("/{name}", s.handleGetLayout)
			r.Delete("/{name}", s.handleDeleteLayout)
		})
	})

	s.router = r
	return s, nil
}

// Router returns the handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
