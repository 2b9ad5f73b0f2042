// Package worker runs LP solves off the caller's goroutine.
//
// A [Worker] owns a single goroutine. Callers hand it a [Request] and read
// [Response] messages from the returned channel: always the strict result
// first and, when the strict model is infeasible, a permissive result that
// shows where supply falls short. The channel is closed after the last
// message.
//
// Only one request may be in flight; Submit returns [ErrBusy] otherwise.
// Requests are deep-copied on submit, so callers may keep editing their
// snapshot while the worker runs. In-flight solves are not cancelled.
package worker

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flowplan/pkg/errors"
	"github.com/matzehuels/flowplan/pkg/factory"
	"github.com/matzehuels/flowplan/pkg/observability"
	"github.com/matzehuels/flowplan/pkg/solver"
	"github.com/matzehuels/flowplan/pkg/solver/lp"
)

// ErrBusy is returned by Submit while a request is in flight.
var ErrBusy = errors.New(errors.ErrCodeBusy, "worker is busy")

// ErrStopped is returned by Submit before Start or after the worker's
// context is done.
var ErrStopped = errors.New(errors.ErrCodeInternal, "worker is not running")

// Mode says which model produced a response.
type Mode string

const (
	ModeStrict     Mode = "strict"
	ModePermissive Mode = "permissive"
)

// Request asks for one solve.
type Request struct {
	// ID identifies the request in responses. Submit fills it when empty.
	ID       string
	Snapshot factory.Snapshot
}

// Response carries one solve result.
type Response struct {
	RequestID string
	Mode      Mode
	Result    solver.Result
	Duration  time.Duration
}

type job struct {
	req Request
	out chan Response
}

// Worker solves snapshots on a dedicated goroutine.
type Worker struct {
	logger  *log.Logger
	opts    solver.Options
	jobs    chan job
	busy    atomic.Bool
	started atomic.Bool
	done    chan struct{}
}

// New creates a worker. A nil logger discards output. opts is used for
// every request; AllowDeficiency is overridden per mode.
func New(logger *log.Logger, opts solver.Options) *Worker {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}
	return &Worker{
		logger: logger,
		opts:   opts,
		jobs:   make(chan job),
		done:   make(chan struct{}),
	}
}

// Start launches the worker goroutine. It returns immediately; the
// goroutine exits when ctx is done. Calling Start twice has no effect.
func (w *Worker) Start(ctx context.Context) {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

// Done is closed when the worker goroutine has exited.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Submit hands req to the worker. The returned channel receives one or two
// responses and is then closed.
func (w *Worker) Submit(req Request) (<-chan Response, error) {
	if !w.started.Load() {
		return nil, ErrStopped
	}
	if !w.busy.CompareAndSwap(false, true) {
		observability.Worker().OnSubmit(context.Background(), false)
		return nil, ErrBusy
	}
	observability.Worker().OnSubmit(context.Background(), true)
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Snapshot = req.Snapshot.Clone()

	out := make(chan Response, 2)
	select {
	case w.jobs <- job{req: req, out: out}:
		return out, nil
	case <-w.done:
		w.busy.Store(false)
		return nil, ErrStopped
	}
}

// Busy reports whether a request is in flight.
func (w *Worker) Busy() bool { return w.busy.Load() }

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-w.jobs:
			w.handle(ctx, j)
		}
	}
}

func (w *Worker) handle(ctx context.Context, j job) {
	defer close(j.out)
	defer w.busy.Store(false)

	snap := j.req.Snapshot
	logger := w.logger.With("request", j.req.ID)

	opts := w.opts
	opts.Weights = snap.Weights
	if cat, err := snap.Catalog(); err == nil {
		opts.Catalog = cat
	} else {
		logger.Warn("ignoring product catalog", "err", err)
	}

	strict := w.solve(ctx, j.req, opts, ModeStrict)
	j.out <- strict
	logger.Debug("strict solve done", "feasible", strict.Result.Feasible, "duration", strict.Duration)

	if strict.Result.Err != nil || strict.Result.Status != lp.StatusInfeasible {
		return
	}

	relaxed := w.solve(ctx, j.req, opts, ModePermissive)
	if len(relaxed.Result.Unsatisfied) == 0 {
		return
	}
	j.out <- relaxed
	logger.Debug("permissive solve done", "shortfalls", len(relaxed.Result.Unsatisfied), "duration", relaxed.Duration)
}

func (w *Worker) solve(ctx context.Context, req Request, opts solver.Options, mode Mode) Response {
	start := time.Now()
	opts.AllowDeficiency = mode == ModePermissive
	res := solver.SolveContext(ctx, req.Snapshot.Nodes, req.Snapshot.Connections, req.Snapshot.TargetSet(), opts)
	observability.Worker().OnResponse(ctx, string(mode), res.Feasible, time.Since(start))
	return Response{
		RequestID: req.ID,
		Mode:      mode,
		Result:    res,
		Duration:  time.Since(start),
	}
}
