package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lazypower/workbench/internal/atomspace"
	"github.com/lazypower/workbench/internal/attention"
	"github.com/lazypower/workbench/internal/engine"
	"github.com/lazypower/workbench/internal/metrics"
	"github.com/lazypower/workbench/internal/snapshot"
	"github.com/lazypower/workbench/internal/workflow"
	"go.uber.org/zap"
)

// Backend is the part of the engine the API serves.
type Backend interface {
	Status() engine.Status
	Stats() attention.Stats
	TopAtoms(n int, types ...atomspace.Type) []snapshot.Record
	Atom(t atomspace.Type, name string) (engine.AtomDetail, error)
	Query(p atomspace.Pattern) []snapshot.Record
	Stimulate(t atomspace.Type, name string, amount float64) (float64, error)
	RunCycle(iterations int) attention.Stats
	ReasonAboutGoal(name string) (*engine.GoalReasoning, error)
	ExecuteWorkflow(ctx context.Context, id string) (*workflow.Report, error)
	Snapshot() snapshot.Document
}

// Server is the workbench HTTP API server.
type Server struct {
	backend Backend
	metrics *metrics.Collector
	logger  *zap.Logger
	router  chi.Router
	version string
	started time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics and serves /metrics.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a new Server over b.
func New(b Backend, version string, opts ...Option) *Server {
	s := &Server{
		backend: b,
		logger:  zap.NewNop(),
		version: version,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		r.Get("/atoms", s.handleQueryAtoms)
		r.Get("/atoms/{type}/{name}", s.handleGetAtom)

		r.Get("/attention/stats", s.handleAttentionStats)
		r.Get("/attention/top", s.handleTopAtoms)
		r.Post("/attention/stimulate", s.handleStimulate)
		r.Post("/attention/cycle", s.handleCycle)

		r.Get("/goals/{name}/reasoning", s.handleGoalReasoning)
		r.Post("/workflows/{id}/execute", s.handleExecuteWorkflow)

		r.Get("/snapshot", s.handleSnapshot)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router = r
}

// instrument logs each request and feeds the request metrics, labelled by
// route pattern rather than raw path.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		if s.metrics != nil {
			s.metrics.Request(r.Method, route, status, d)
		}
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", d))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps engine errors to a status code.
func fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrAtomNotFound),
		errors.Is(err, engine.ErrGoalNotFound),
		errors.Is(err, engine.ErrModelNotFound),
		errors.Is(err, workflow.ErrWorkflowNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
