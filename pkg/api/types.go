package api

import (
	"github.com/matzehuels/flowplan/pkg/factory"
	flowio "github.com/matzehuels/flowplan/pkg/io"
	"github.com/matzehuels/flowplan/pkg/pipeline"
	"github.com/matzehuels/flowplan/pkg/trace"
)

// SolveRequest is the body of /v1/solve, /v1/diagnose, /v1/flows,
// /v1/balance and /v1/render.
type SolveRequest struct {
	Snapshot factory.Snapshot `json:"snapshot"`
	Options  pipeline.Options `json:"options"`
}

// SolveResponse answers /v1/solve and /v1/flows.
type SolveResponse struct {
	SnapshotHash string        `json:"snapshotHash,omitempty"`
	Report       flowio.Report `json:"report"`
	CacheHit     bool          `json:"cacheHit"`
	DurationMS   float64       `json:"durationMs"`
}

// DiagnoseResponse answers /v1/diagnose. Permissive is set only when the
// strict model is infeasible and the relaxed model shows shortfalls.
type DiagnoseResponse struct {
	RequestID  string         `json:"requestId"`
	Strict     flowio.Report  `json:"strict"`
	Permissive *flowio.Report `json:"permissive,omitempty"`
}

// HandleRef picks one handle of the edited node.
type HandleRef struct {
	Side  string `json:"side"` // "input" or "output"
	Index int    `json:"index"`
}

// PropagateRequest is the body of /v1/propagate.
type PropagateRequest struct {
	Snapshot factory.Snapshot `json:"snapshot"`
	NodeID   string           `json:"nodeId"`
	OldCount float64          `json:"oldCount"`
	NewCount float64          `json:"newCount"`
	Handle   *HandleRef       `json:"handle,omitempty"`
}

// PropagateResponse answers /v1/propagate.
type PropagateResponse struct {
	Counts  map[string]float64 `json:"counts"`
	TraceID string             `json:"traceId"`
}

// BalanceResponse answers /v1/balance.
type BalanceResponse struct {
	Counts    map[string]float64    `json:"counts"`
	Passes    int                   `json:"passes"`
	Balanced  bool                  `json:"balanced"`
	Remaining []flowio.HandleStatus `json:"remaining,omitempty"`
	Trace     *trace.Trace          `json:"trace"`
}

// HealthResponse answers /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
