// Package server exposes the render pipeline over HTTP.
//
// The API is the render contract of the pipeline made remote: a source
// snippet plus mode and parse-context selectors in, a graph artifact out.
// Each request gets a request id for log correlation; errors carry the
// machine-readable code from pkg/errors.
package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/astviz/astviz/pkg/pipeline"
)

// Config holds server construction options.
type Config struct {
	// Runner executes render requests. Required.
	Runner *pipeline.Runner

	// Logger receives request logs. Defaults to log.Default().
	Logger *log.Logger

	// MaxSourceBytes bounds request source size; zero uses the pipeline
	// default.
	MaxSourceBytes int

	// MaxDepth bounds tree depth per request; zero uses the parser default.
	MaxDepth int
}

// Server is the HTTP front end for the render pipeline.
type Server struct {
	runner         *pipeline.Runner
	logger         *log.Logger
	maxSourceBytes int
	maxDepth       int
	router         chi.Router
}

// New creates a Server and mounts its routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	s := &Server{
		runner:         cfg.Runner,
		logger:         cfg.Logger,
		maxSourceBytes: cfg.MaxSourceBytes,
		maxDepth:       cfg.MaxDepth,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Post("/bytecode", s.handleBytecode)
	})

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// requestID attaches a fresh UUID to each request for log correlation.
// Incoming X-Request-ID headers are honored so upstream proxies can thread
// their own ids through.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}

// logRequests logs one line per request with method, path, status, and
// elapsed time.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"id", requestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
