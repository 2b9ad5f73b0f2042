package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/flowplan/pkg/httputil"
	"github.com/matzehuels/flowplan/pkg/observability"
	"github.com/matzehuels/flowplan/pkg/pipeline"
	"github.com/matzehuels/flowplan/pkg/worker"
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 60 * time.Second

// Config wires a Server.
type Config struct {
	// Runner executes every solver call. Required.
	Runner *pipeline.Runner
	// Worker serves /v1/diagnose. Nil disables the route.
	Worker *worker.Worker
	// Gatherer serves /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer
	// TTL overrides the cache lifetime of solve reports.
	TTL     time.Duration
	Timeout time.Duration
	Logger  *log.Logger
}

// Server is the HTTP front end of the pipeline.
type Server struct {
	runner   *pipeline.Runner
	worker   *worker.Worker
	gatherer prometheus.Gatherer
	ttl      time.Duration
	timeout  time.Duration
	logger   *log.Logger
}

// New creates a server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Server{
		runner:   cfg.Runner,
		worker:   cfg.Worker,
		gatherer: cfg.Gatherer,
		ttl:      cfg.TTL,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", s.route("/healthz", s.handleHealth))
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/solve", s.route("/v1/solve", s.handleSolve))
		r.Post("/flows", s.route("/v1/flows", s.handleFlows))
		r.Post("/propagate", s.route("/v1/propagate", s.handlePropagate))
		r.Post("/balance", s.route("/v1/balance", s.handleBalance))
		r.Post("/render", s.route("/v1/render", s.handleRender))
		if s.worker != nil {
			r.Post("/diagnose", s.route("/v1/diagnose", s.handleDiagnose))
		}
		r.Get("/traces", s.route("/v1/traces", s.handleRecentTraces))
		r.Get("/traces/{id}", s.route("/v1/traces/{id}", s.handleTrace))
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
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// handlerFunc is a route handler that reports failures by returning them.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// route adapts h to http.HandlerFunc, writing returned errors and reporting
// every request to the HTTP hooks under the given route pattern.
func (s *Server) route(pattern string, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, pattern)
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		if err := h(ww, r); err != nil {
			if ww.Status() == 0 {
				httputil.WriteError(ww, err)
			}
			s.logger.Warn("request failed",
				"route", pattern,
				"request", middleware.GetReqID(r.Context()),
				"err", err)
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, pattern, status, d)
		s.logger.Debug("request",
			"method", r.Method,
			"route", pattern,
			"status", status,
			"duration", d)
	}
}
