// Package observability lets the solver, cache, API and worker emit events
// without importing a metrics backend.
//
// Each event family has a hook interface with a no-op default. Binaries
// install real implementations once at startup; libraries fetch the current
// hooks at the call site:
//
//	prom.Register(reg) // installs Prometheus-backed hooks
//
//	hooks := observability.Solver()
//	hooks.OnSolveStart(ctx, len(nodes), len(conns))
//	defer func() { hooks.OnSolveComplete(ctx, status, time.Since(start), err) }()
//
// The Prometheus implementation lives in
// [github.com/matzehuels/flowplan/pkg/observability/prom].
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// SolverHooks receives LP solve, propagation and balancing events.
type SolverHooks interface {
	OnSolveStart(ctx context.Context, nodes, edges int)
	OnSolveComplete(ctx context.Context, status string, duration time.Duration, err error)
	// OnPropagate reports how many nodes one count edit changed.
	OnPropagate(ctx context.Context, reached int, duration time.Duration)
	OnBalance(ctx context.Context, passes int, balanced bool, duration time.Duration)
}

// CacheHooks receives result cache events. keyType is "solve", "flows" or
// "render".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives API request events. route is the chi route pattern,
// not the raw path.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, route string)
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// WorkerHooks receives background solve events.
type WorkerHooks interface {
	// OnSubmit reports whether a request was accepted or turned away busy.
	OnSubmit(ctx context.Context, accepted bool)
	// OnResponse reports one strict or permissive answer.
	OnResponse(ctx context.Context, mode string, feasible bool, duration time.Duration)
}

// Noop implementations, embeddable by partial implementations.
type (
	NoopSolverHooks struct{}
	NoopCacheHooks  struct{}
	NoopHTTPHooks   struct{}
	NoopWorkerHooks struct{}
)

func (NoopSolverHooks) OnSolveStart(context.Context, int, int)                        {}
func (NoopSolverHooks) OnSolveComplete(context.Context, string, time.Duration, error) {}
func (NoopSolverHooks) OnPropagate(context.Context, int, time.Duration)               {}
func (NoopSolverHooks) OnBalance(context.Context, int, bool, time.Duration)           {}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

func (NoopWorkerHooks) OnSubmit(context.Context, bool)                          {}
func (NoopWorkerHooks) OnResponse(context.Context, string, bool, time.Duration) {}

// =============================================================================
// Registry
// =============================================================================

// slot holds the installed hooks of one family. Loads are lock-free; an
// empty slot yields the family's no-op.
type slot[T any] struct {
	p    atomic.Pointer[T]
	noop T
}

func (s *slot[T]) get() T {
	if p := s.p.Load(); p != nil {
		return *p
	}
	return s.noop
}

// set installs h; a nil interface is ignored.
func (s *slot[T]) set(h T) {
	if any(h) != nil {
		s.p.Store(&h)
	}
}

var (
	solverSlot = slot[SolverHooks]{noop: NoopSolverHooks{}}
	cacheSlot  = slot[CacheHooks]{noop: NoopCacheHooks{}}
	httpSlot   = slot[HTTPHooks]{noop: NoopHTTPHooks{}}
	workerSlot = slot[WorkerHooks]{noop: NoopWorkerHooks{}}
)

func SetSolverHooks(h SolverHooks) { solverSlot.set(h) }
func SetCacheHooks(h CacheHooks)   { cacheSlot.set(h) }
func SetHTTPHooks(h HTTPHooks)     { httpSlot.set(h) }
func SetWorkerHooks(h WorkerHooks) { workerSlot.set(h) }

func Solver() SolverHooks { return solverSlot.get() }
func Cache() CacheHooks   { return cacheSlot.get() }
func HTTP() HTTPHooks     { return httpSlot.get() }
func Worker() WorkerHooks { return workerSlot.get() }

// Reset restores every family to its no-op. Tests call it in cleanup.
func Reset() {
	solverSlot.p.Store(nil)
	cacheSlot.p.Store(nil)
	httpSlot.p.Store(nil)
	workerSlot.p.Store(nil)
}
