// Package server exposes the pipeline over HTTP.
//
// Routes:
//
//	POST   /v1/score                 score a tree (body: pipeline.Options)
//	POST   /v1/search                search for shortest trees (body: pipeline.Options)
//	GET    /v1/results               list archived results (?limit=N)
//	GET    /v1/results/{id}          one archived result
//	DELETE /v1/results/{id}          remove an archived result
//	GET    /v1/results/{id}/{format} draw a tree as svg, png, pdf or dot (?tree=N)
//	GET    /healthz                  liveness and build metadata
//	GET    /metrics                  Prometheus metrics, when configured
//
// Runs execute synchronously under the request context, so a client that
// disconnects cancels its search.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/parsimony/pkg/archive"
	"github.com/matzehuels/parsimony/pkg/buildinfo"
	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/observability"
	"github.com/matzehuels/parsimony/pkg/pipeline"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 8 << 20

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Server serves the HTTP API.
type Server struct {
	Runner *pipeline.Runner
	Store  archive.Store
	Logger *log.Logger

	// Metrics serves /metrics. Nil disables the route.
	Metrics http.Handler

	MaxBodyBytes int64
}

// New creates a server. A nil logger selects the runner's logger.
func New(runner *pipeline.Runner, store archive.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = runner.Logger
	}
	return &Server{
		Runner:       runner,
		Store:        store,
		Logger:       logger,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/score", s.handleScore)
		r.Post("/search", s.handleSearch)
		r.Get("/results", s.handleList)
		r.Get("/results/{id}", s.handleGet)
		r.Delete("/results/{id}", s.handleDelete)
		r.Get("/results/{id}/{format}", s.handleRender)
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.Logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// instrument reports every request to the HTTP hooks and the debug log.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(began)
		hooks.OnResponse(r.Context(), r.Method, route, status, elapsed)
		s.Logger.Debug("request", "method", r.Method, "route", route, "status", status, "duration", elapsed)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps coded errors to HTTP statuses. Internal failures are
// logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(r.Context(), err)
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, status, errorBody{Error: "internal error", Code: errors.ErrCodeInternal})
		return
	}
	writeJSON(w, status, errorBody{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

func statusFor(ctx context.Context, err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidTree, errors.ErrCodeInvalidMethod,
		errors.ErrCodeInvalidFormat, errors.ErrCodeEncoding:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeResultNotFound:
		return http.StatusNotFound
	case errors.ErrCodeBackend, errors.ErrCodeTimeout:
		return http.StatusServiceUnavailable
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	if ctx.Err() != nil {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
