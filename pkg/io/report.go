package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/flowplan/pkg/flow"
	"github.com/matzehuels/flowplan/pkg/graph"
	"github.com/matzehuels/flowplan/pkg/solver"
	"github.com/matzehuels/flowplan/pkg/solver/lp"
)

// Report is the serialized form of a solve.
type Report struct {
	Feasible        bool               `json:"feasible" yaml:"feasible"`
	Status          string             `json:"status" yaml:"status"`
	Fallback        bool               `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	MachineCounts   map[string]float64 `json:"machineCounts" yaml:"machineCounts"`
	Updates         map[string]float64 `json:"updates" yaml:"updates"`
	ConnectionFlows map[string]float64 `json:"connectionFlows" yaml:"connectionFlows"`
	Deficiencies    []HandleStatus     `json:"deficiencies,omitempty" yaml:"deficiencies,omitempty"`
	Excesses        []HandleStatus     `json:"excesses,omitempty" yaml:"excesses,omitempty"`
	Unsatisfied     []lp.Unsatisfied   `json:"unsatisfied,omitempty" yaml:"unsatisfied,omitempty"`
	Dropped         []string           `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	TraceID         string             `json:"traceId,omitempty" yaml:"traceId,omitempty"`
	Error           string             `json:"error,omitempty" yaml:"error,omitempty"`
}

// HandleStatus is one flagged handle in a report.
type HandleStatus struct {
	NodeID    string  `json:"nodeId" yaml:"nodeId"`
	Index     int     `json:"index" yaml:"index"`
	ProductID string  `json:"productId" yaml:"productId"`
	Expected  float64 `json:"expected" yaml:"expected"`
	Connected float64 `json:"connected" yaml:"connected"`
	Gap       float64 `json:"gap" yaml:"gap"`
	SelfLoop  bool    `json:"selfLoopOnly,omitempty" yaml:"selfLoopOnly,omitempty"`
}

// NewReport flattens a solver result.
func NewReport(res solver.Result) Report {
	r := Report{
		Feasible:        res.Feasible,
		Status:          res.Status.String(),
		Fallback:        res.Fallback,
		MachineCounts:   res.MachineCountByNode,
		Updates:         res.Updates,
		ConnectionFlows: res.FlowByConnection,
		Unsatisfied:     res.Unsatisfied,
		Dropped:         res.Dropped,
	}
	if res.Trace != nil {
		r.TraceID = res.Trace.ID
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	if res.FlowByNode != nil {
		r.Deficiencies, r.Excesses = FlowStatus(res.FlowByNode)
	}
	return r
}

// StatusEstimated marks a report built from the current counts without
// solving.
const StatusEstimated = "estimated"

// NewFlowReport describes g at its current counts with estimated flows.
func NewFlowReport(g *graph.Graph, fr *flow.Result) Report {
	r := Report{
		Feasible:        fr.Balanced(),
		Status:          StatusEstimated,
		MachineCounts:   g.Counts(),
		Updates:         map[string]float64{},
		ConnectionFlows: fr.EdgeFlows(),
		Dropped:         g.Dropped(),
	}
	r.Deficiencies, r.Excesses = FlowStatus(fr)
	return r
}

// FlowStatus lists the deficient inputs and excess outputs of a flow
// result.
func FlowStatus(f *flow.Result) (deficient, excess []HandleStatus) {
	deficient = DeficiencyStatus(f.Deficiencies())
	for _, e := range f.Excesses() {
		excess = append(excess, HandleStatus{
			NodeID:    e.NodeID,
			Index:     e.OutputIndex,
			ProductID: e.ProductID,
			Expected:  e.Produced,
			Connected: e.Connected,
			Gap:       e.Surplus,
		})
	}
	return deficient, excess
}

// DeficiencyStatus converts short input handles to report entries.
func DeficiencyStatus(ds []flow.Deficiency) []HandleStatus {
	var out []HandleStatus
	for _, d := range ds {
		out = append(out, HandleStatus{
			NodeID:    d.NodeID,
			Index:     d.InputIndex,
			ProductID: d.ProductID,
			Expected:  d.Needed,
			Connected: d.Connected,
			Gap:       d.Shortfall,
			SelfLoop:  d.SelfLoopOnly,
		})
	}
	return out
}

// WriteReport encodes r to w.
func WriteReport(w io.Writer, r Report, format Format) error {
	return encode(w, r, format)
}

// WriteResult encodes a solver result to w.
func WriteResult(w io.Writer, res solver.Result, format Format) error {
	return WriteReport(w, NewReport(res), format)
}

// DecodeReport parses a JSON report, as stored in the result cache.
func DecodeReport(data []byte) (Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}
