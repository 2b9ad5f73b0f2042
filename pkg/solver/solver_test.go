package solver

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/flowplan/pkg/factory"
	"github.com/matzehuels/flowplan/pkg/flow"
	"github.com/matzehuels/flowplan/pkg/graph"
	"github.com/matzehuels/flowplan/pkg/observability"
	"github.com/matzehuels/flowplan/pkg/solver/lp"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func node(id string, count float64, in, out []factory.Slot) factory.Node {
	return factory.Node{ID: id, Inputs: in, Outputs: out, RateModel: true, MachineCount: count}
}

func one(product string, rate float64) []factory.Slot {
	return []factory.Slot{{ProductID: product, Quantity: factory.Fixed(rate)}}
}

func conn(id, from, to string) factory.Connection {
	return factory.Connection{ID: id, SourceNodeID: from, TargetNodeID: to}
}

func twoProducers() ([]factory.Node, []factory.Connection) {
	return []factory.Node{
			node("p1", 1, nil, one("x", 2)),
			node("p2", 1, nil, one("x", 3)),
			node("c", 1, one("x", 10), nil),
		}, []factory.Connection{
			conn("e1", "p1", "c"),
			conn("e2", "p2", "c"),
			conn("stale", "gone", "c"),
		}
}

func TestSolveTwoProducers(t *testing.T) {
	nodes, conns := twoProducers()
	res := Solve(nodes, conns, factory.NewTargetSet("c"), Options{})

	if res.Err != nil || !res.Feasible {
		t.Fatalf("Solve() = feasible %v, err %v", res.Feasible, res.Err)
	}
	want := map[string]float64{"p2": 10.0 / 3}
	if diff := cmp.Diff(want, res.Updates, approx); diff != "" {
		t.Errorf("Updates mismatch (-want +got):\n%s", diff)
	}
	if got := res.MachineCountByNode["c"]; got != 1 {
		t.Errorf("target moved to %v", got)
	}
	if !res.FlowByNode.Balanced() {
		t.Errorf("deficiencies after solve: %+v", res.FlowByNode.Deficiencies())
	}
	if diff := cmp.Diff([]string{"stale"}, res.Dropped); diff != "" {
		t.Errorf("Dropped mismatch (-want +got):\n%s", diff)
	}
}

func TestSolveReturnsOptimum(t *testing.T) {
	nodes := []factory.Node{
		node("p1", 1, nil, one("x", 2)),
		node("p2", 1, nil, one("x", 3)),
		node("c", 1, one("x", 10), one("y", 1)),
		node("d", 1, one("y", 1), nil),
	}
	conns := []factory.Connection{
		conn("e1", "p1", "c"),
		conn("e2", "p2", "c"),
		conn("e3", "c", "d"),
	}
	res := Solve(nodes, conns, factory.NewTargetSet("c"), Options{})
	if res.Err != nil || !res.Feasible {
		t.Fatalf("Solve() = feasible %v, err %v", res.Feasible, res.Err)
	}

	wantCounts := map[string]float64{"p1": 0, "p2": 10.0 / 3, "c": 1, "d": 1}
	if diff := cmp.Diff(wantCounts, res.MachineCountByNode, approx); diff != "" {
		t.Errorf("MachineCountByNode mismatch (-want +got):\n%s", diff)
	}
	if got := res.MachineCountByNode["p1"] + res.MachineCountByNode["p2"]; got > 10.0/3+1e-9 {
		t.Errorf("p1+p2 = %v, minimum is 10/3", got)
	}
	if diff := cmp.Diff(map[string]float64{"p2": 10.0 / 3}, res.Updates, approx); diff != "" {
		t.Errorf("Updates mismatch (-want +got):\n%s", diff)
	}

	wantFlows := map[string]float64{"e1": 0, "e2": 10, "e3": 1}
	if diff := cmp.Diff(wantFlows, res.FlowByConnection, approx); diff != "" {
		t.Errorf("FlowByConnection mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(res.FlowByConnection, res.FlowByNode.EdgeFlows()); diff != "" {
		t.Errorf("FlowByNode disagrees with FlowByConnection (-conn +node):\n%s", diff)
	}
	if !res.FlowByNode.Balanced() {
		t.Errorf("deficiencies after feasible solve: %+v", res.FlowByNode.Deficiencies())
	}
	for _, nf := range res.FlowByNode.Nodes() {
		if nf.MachineCount != res.MachineCountByNode[nf.NodeID] {
			t.Errorf("%s flow count %v, solved %v", nf.NodeID, nf.MachineCount, res.MachineCountByNode[nf.NodeID])
		}
		for _, s := range nf.Outputs {
			if s.Known && s.Connected > s.Produced+flow.Epsilon {
				t.Errorf("%s output %d ships %v of %v", nf.NodeID, s.Index, s.Connected, s.Produced)
			}
		}
	}
}

func TestSolveDoesNotMutateNodes(t *testing.T) {
	nodes, conns := twoProducers()
	Solve(nodes, conns, factory.NewTargetSet("c"), Options{})
	for _, n := range nodes {
		if n.MachineCount != 1 {
			t.Errorf("%s count changed to %v", n.ID, n.MachineCount)
		}
	}
}

func TestSolveInfeasible(t *testing.T) {
	nodes := []factory.Node{
		node("loop", 1, one("seed", 2), one("seed", 1)),
	}
	conns := []factory.Connection{conn("s", "loop", "loop")}

	strict := Solve(nodes, conns, factory.NewTargetSet("loop"), Options{})
	if strict.Err != nil || strict.Feasible || strict.Status != lp.StatusInfeasible {
		t.Fatalf("strict = feasible %v, status %v, err %v", strict.Feasible, strict.Status, strict.Err)
	}
	if len(strict.Updates) != 0 {
		t.Errorf("Updates = %v, want none", strict.Updates)
	}
	if len(strict.Unsatisfied) != 1 || strict.Unsatisfied[0].Reason != lp.ReasonSelfLoopOnly {
		t.Errorf("Unsatisfied = %+v", strict.Unsatisfied)
	}
	if strict.FlowByNode.Balanced() {
		t.Error("flow of an infeasible model reported balanced")
	}

	relaxed := Solve(nodes, conns, factory.NewTargetSet("loop"), Options{AllowDeficiency: true})
	if relaxed.Status != lp.StatusOptimal || relaxed.Feasible {
		t.Errorf("relaxed = status %v, feasible %v", relaxed.Status, relaxed.Feasible)
	}
	if len(relaxed.Unsatisfied) != 1 {
		t.Errorf("relaxed Unsatisfied = %+v", relaxed.Unsatisfied)
	}
}

func TestSolveInvalidOptions(t *testing.T) {
	nodes, conns := twoProducers()
	res := Solve(nodes, conns, nil, Options{Weights: map[string]float64{"p1": -2}})
	if res.Err == nil || res.Fallback {
		t.Errorf("Solve() = err %v, fallback %v; want validation error", res.Err, res.Fallback)
	}
}

func TestExtractUpdates(t *testing.T) {
	tests := []struct {
		name    string
		current map[string]float64
		raw     map[string]float64
		want    map[string]float64
	}{
		{
			name:    "changed value kept",
			current: map[string]float64{"a": 1},
			raw:     map[string]float64{"a": 2},
			want:    map[string]float64{"a": 2},
		},
		{
			name:    "unchanged within epsilon dropped",
			current: map[string]float64{"a": 1},
			raw:     map[string]float64{"a": 1 + 1e-7},
			want:    map[string]float64{},
		},
		{
			name:    "near zero dropped",
			current: map[string]float64{"a": 4, "b": 2},
			raw:     map[string]float64{"a": 0, "b": 5e-7},
			want:    map[string]float64{},
		},
		{
			name:    "new node kept",
			current: map[string]float64{},
			raw:     map[string]float64{"fresh": 3},
			want:    map[string]float64{"fresh": 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractUpdates(tt.current, tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractUpdates() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPropagateWrappers(t *testing.T) {
	nodes := []factory.Node{
		node("a", 2, nil, one("ore", 1)),
		node("b", 2, one("ore", 1), one("plate", 1)),
		node("c", 2, one("plate", 1), nil),
	}
	conns := []factory.Connection{conn("e1", "a", "b"), conn("e2", "b", "c")}

	got := PropagateFromEdit(nodes, conns, "a", 2, 4)
	if diff := cmp.Diff(map[string]float64{"a": 4, "b": 4, "c": 4}, got, approx); diff != "" {
		t.Errorf("PropagateFromEdit mismatch (-want +got):\n%s", diff)
	}

	got = PropagateFromHandle(nodes, conns, "b", graph.SideOutput, 0, 2, 1)
	if diff := cmp.Diff(map[string]float64{"a": 1, "b": 1}, got, approx); diff != "" {
		t.Errorf("PropagateFromHandle mismatch (-want +got):\n%s", diff)
	}
}

type countingHooks struct {
	observability.NoopSolverHooks
	starts, completes, propagates int
	status                        string
}

func (h *countingHooks) OnSolveStart(context.Context, int, int) { h.starts++ }
func (h *countingHooks) OnSolveComplete(_ context.Context, status string, _ time.Duration, _ error) {
	h.completes++
	h.status = status
}
func (h *countingHooks) OnPropagate(context.Context, int, time.Duration) { h.propagates++ }

func TestSolveCallsHooks(t *testing.T) {
	h := &countingHooks{}
	observability.SetSolverHooks(h)
	defer observability.Reset()

	nodes, conns := twoProducers()
	Solve(nodes, conns, factory.NewTargetSet("c"), Options{})
	PropagateFromEdit(nodes, conns, "c", 1, 2)

	if h.starts != 1 || h.completes != 1 || h.propagates != 1 {
		t.Errorf("hooks = %+v", h)
	}
	if h.status != "optimal" {
		t.Errorf("status = %q", h.status)
	}
}
