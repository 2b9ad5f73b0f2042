// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/flowplan/pkg/observability"
)

const namespace = "flowplan"

// =============================================================================
// Solver
// =============================================================================

// SolverHooks counts solves and records their latency.
type SolverHooks struct {
	inflight   prometheus.Gauge
	solves     *prometheus.CounterVec
	solveTime  prometheus.Histogram
	graphNodes prometheus.Histogram
	propagates prometheus.Histogram
	balances   *prometheus.CounterVec
	passes     prometheus.Histogram
}

// NewSolverHooks registers solver metrics on reg.
func NewSolverHooks(reg prometheus.Registerer) *SolverHooks {
	h := &SolverHooks{
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "solver", Name: "inflight",
			Help: "Solves currently running.",
		}),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "solver", Name: "solves_total",
			Help: "Completed solves by status.",
		}, []string{"status"}),
		solveTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "solver", Name: "solve_seconds",
			Help:    "Solve latency.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		graphNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "solver", Name: "graph_nodes",
			Help:    "Nodes per solved graph.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		propagates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "solver", Name: "propagate_reached_nodes",
			Help:    "Nodes changed per ratio propagation.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		balances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "solver", Name: "balance_runs_total",
			Help: "Balancer runs by outcome.",
		}, []string{"balanced"}),
		passes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "solver", Name: "balance_passes",
			Help:    "Passes per balancer run.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
	}
	reg.MustRegister(h.inflight, h.solves, h.solveTime, h.graphNodes, h.propagates, h.balances, h.passes)
	return h
}

func (h *SolverHooks) OnSolveStart(_ context.Context, nodes, _ int) {
	h.inflight.Inc()
	h.graphNodes.Observe(float64(nodes))
}

func (h *SolverHooks) OnSolveComplete(_ context.Context, status string, d time.Duration, err error) {
	h.inflight.Dec()
	if err != nil {
		status = "error"
	}
	h.solves.WithLabelValues(status).Inc()
	h.solveTime.Observe(d.Seconds())
}

func (h *SolverHooks) OnPropagate(_ context.Context, reached int, _ time.Duration) {
	h.propagates.Observe(float64(reached))
}

func (h *SolverHooks) OnBalance(_ context.Context, passes int, balanced bool, _ time.Duration) {
	h.balances.WithLabelValues(strconv.FormatBool(balanced)).Inc()
	h.passes.Observe(float64(passes))
}

// =============================================================================
// Cache
// =============================================================================

// CacheHooks counts cache lookups and writes by key type.
type CacheHooks struct {
	lookups *prometheus.CounterVec
	written *prometheus.CounterVec
}

// NewCacheHooks registers cache metrics on reg.
func NewCacheHooks(reg prometheus.Registerer) *CacheHooks {
	h := &CacheHooks{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "lookups_total",
			Help: "Cache lookups by key type and result.",
		}, []string{"key_type", "result"}),
		written: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "written_bytes_total",
			Help: "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
	}
	reg.MustRegister(h.lookups, h.written)
	return h
}

func (h *CacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.lookups.WithLabelValues(keyType, "hit").Inc()
}

func (h *CacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.lookups.WithLabelValues(keyType, "miss").Inc()
}

func (h *CacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.written.WithLabelValues(keyType).Add(float64(size))
}

// =============================================================================
// HTTP
// =============================================================================

// HTTPHooks counts requests and records response latency per route.
type HTTPHooks struct {
	requests  *prometheus.CounterVec
	responses *prometheus.HistogramVec
}

// NewHTTPHooks registers HTTP metrics on reg.
func NewHTTPHooks(reg prometheus.Registerer) *HTTPHooks {
	h := &HTTPHooks{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Requests received by method and route.",
		}, []string{"method", "route"}),
		responses: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "response_seconds",
			Help:    "Response latency by method, route and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
	reg.MustRegister(h.requests, h.responses)
	return h
}

func (h *HTTPHooks) OnRequest(_ context.Context, method, route string) {
	h.requests.WithLabelValues(method, route).Inc()
}

func (h *HTTPHooks) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	h.responses.WithLabelValues(method, route, strconv.Itoa(code)).Observe(d.Seconds())
}

// =============================================================================
// Worker
// =============================================================================

// WorkerHooks counts background submissions and times each answer.
type WorkerHooks struct {
	submits   *prometheus.CounterVec
	responses *prometheus.HistogramVec
}

// NewWorkerHooks registers worker metrics on reg.
func NewWorkerHooks(reg prometheus.Registerer) *WorkerHooks {
	h := &WorkerHooks{
		submits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "worker", Name: "submits_total",
			Help: "Background solve requests by outcome (accepted or busy).",
		}, []string{"outcome"}),
		responses: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "worker", Name: "response_seconds",
			Help:    "Time to each strict or permissive answer.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"mode", "feasible"}),
	}
	reg.MustRegister(h.submits, h.responses)
	return h
}

func (h *WorkerHooks) OnSubmit(_ context.Context, accepted bool) {
	outcome := "busy"
	if accepted {
		outcome = "accepted"
	}
	h.submits.WithLabelValues(outcome).Inc()
}

func (h *WorkerHooks) OnResponse(_ context.Context, mode string, feasible bool, d time.Duration) {
	h.responses.WithLabelValues(mode, strconv.FormatBool(feasible)).Observe(d.Seconds())
}

// Register installs every hook family on reg and in the global registry.
func Register(reg prometheus.Registerer) {
	observability.SetSolverHooks(NewSolverHooks(reg))
	observability.SetCacheHooks(NewCacheHooks(reg))
	observability.SetHTTPHooks(NewHTTPHooks(reg))
	observability.SetWorkerHooks(NewWorkerHooks(reg))
}

var (
	_ observability.SolverHooks = (*SolverHooks)(nil)
	_ observability.CacheHooks  = (*CacheHooks)(nil)
	_ observability.HTTPHooks   = (*HTTPHooks)(nil)
	_ observability.WorkerHooks = (*WorkerHooks)(nil)
)
