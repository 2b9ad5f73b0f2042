package trace

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Kind names the solver that produced a trace.
type Kind string

const (
	KindBalance   Kind = "balance"
	KindPropagate Kind = "propagate"
)

// Direction says which way a change travelled from its step node.
type Direction string

const (
	Upstream   Direction = "upstream"
	Downstream Direction = "downstream"
)

// Warning codes.
const (
	WarnSelfLoopOnly = "self_loop_only"
	WarnTargetPinned = "target_pinned"
	WarnNoSupplier   = "no_supplier"
	WarnMaxPasses    = "max_passes"
)

// Touch is a node affected by a step.
type Touch struct {
	NodeID    string    `json:"nodeId"`
	Direction Direction `json:"direction"`
}

// Step is one proposed count change.
type Step struct {
	Index    int     `json:"index"`
	Pass     int     `json:"pass"`
	NodeID   string  `json:"nodeId"`
	OldCount float64 `json:"oldCount"`
	NewCount float64 `json:"newCount"`
	// Applied is false when the change was proposed but rejected, for
	// example because the node is a target.
	Applied bool    `json:"applied"`
	Reason  string  `json:"reason,omitempty"`
	Touched []Touch `json:"touched,omitempty"`
}

// Warning is a condition the solver noticed and stepped around.
type Warning struct {
	Code    string `json:"code"`
	NodeID  string `json:"nodeId,omitempty"`
	Message string `json:"message"`
}

// Trace is the full record of one solver run.
type Trace struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
	Steps     []Step    `json:"steps"`
	Warnings  []Warning `json:"warnings,omitempty"`
}

// JSON encodes the trace for storage or replay.
func (t *Trace) JSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// Parse decodes a trace written by [Trace.JSON].
func Parse(data []byte) (*Trace, error) {
	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse trace: %w", err)
	}
	return &t, nil
}

// Applied returns the steps that changed a count.
func (t *Trace) Applied() []Step {
	var out []Step
	for _, s := range t.Steps {
		if s.Applied {
			out = append(out, s)
		}
	}
	return out
}

// HasWarning reports whether the trace holds a warning with the code for
// the node. An empty nodeID matches any node.
func (t *Trace) HasWarning(code, nodeID string) bool {
	return slices.ContainsFunc(t.Warnings, func(w Warning) bool {
		return w.Code == code && (nodeID == "" || w.NodeID == nodeID)
	})
}

// Replay applies every applied step of t, in order, to a copy of counts.
func Replay(t *Trace, counts map[string]float64) map[string]float64 {
	out := maps.Clone(counts)
	if out == nil {
		out = make(map[string]float64)
	}
	if t == nil {
		return out
	}
	for _, s := range t.Steps {
		if s.Applied {
			out[s.NodeID] = s.NewCount
		}
	}
	return out
}

// =============================================================================
// Recorder
// =============================================================================

// Recorder accumulates a trace. The zero value is not usable; a nil
// *Recorder silently discards everything.
type Recorder struct {
	t      Trace
	warned map[string]struct{}
}

// NewRecorder starts a trace of the given kind with a fresh ID.
func NewRecorder(kind Kind) *Recorder {
	return &Recorder{
		t: Trace{
			ID:        uuid.NewString(),
			Kind:      kind,
			CreatedAt: time.Now().UTC(),
		},
		warned: make(map[string]struct{}),
	}
}

// Step appends a step and numbers it.
func (r *Recorder) Step(s Step) {
	if r == nil {
		return
	}
	s.Index = len(r.t.Steps)
	s.Touched = slices.Clone(s.Touched)
	r.t.Steps = append(r.t.Steps, s)
}

// Warn records a warning once per code and node.
func (r *Recorder) Warn(code, nodeID, format string, args ...any) {
	if r == nil {
		return
	}
	key := code + "\x00" + nodeID
	if _, dup := r.warned[key]; dup {
		return
	}
	r.warned[key] = struct{}{}
	r.t.Warnings = append(r.t.Warnings, Warning{
		Code:    code,
		NodeID:  nodeID,
		Message: fmt.Sprintf(format, args...),
	})
}

// Trace returns a copy of everything recorded so far, or nil for a nil
// recorder.
func (r *Recorder) Trace() *Trace {
	if r == nil {
		return nil
	}
	t := r.t
	t.Steps = make([]Step, len(r.t.Steps))
	for i, s := range r.t.Steps {
		s.Touched = slices.Clone(s.Touched)
		t.Steps[i] = s
	}
	t.Warnings = slices.Clone(r.t.Warnings)
	return &t
}
