package ratio

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/flowplan/pkg/factory"
	"github.com/matzehuels/flowplan/pkg/graph"
	"github.com/matzehuels/flowplan/pkg/trace"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func node(id string, count float64, in, out string) factory.Node {
	n := factory.Node{ID: id, CycleTime: factory.Fixed(1), MachineCount: count}
	if in != "" {
		n.Inputs = []factory.Slot{{ProductID: in, Quantity: factory.Fixed(1)}}
	}
	if out != "" {
		n.Outputs = []factory.Slot{{ProductID: out, Quantity: factory.Fixed(1)}}
	}
	return n
}

func conn(id, from, to string) factory.Connection {
	return factory.Connection{ID: id, SourceNodeID: from, TargetNodeID: to}
}

// chain builds a -> b -> c with the given counts, plus an unconnected node.
func chain(a, b, c float64) *graph.Graph {
	return graph.Build([]factory.Node{
		node("a", a, "", "ore"),
		node("b", b, "ore", "plate"),
		node("c", c, "plate", ""),
		node("island", 5, "", ""),
	}, []factory.Connection{
		conn("e1", "a", "b"),
		conn("e2", "b", "c"),
	}, nil)
}

func TestPropagateFromEdit(t *testing.T) {
	tests := []struct {
		name     string
		g        *graph.Graph
		id       string
		old, new float64
		want     map[string]float64
	}{
		{
			name: "chain doubles",
			g:    chain(2, 2, 2),
			id:   "a", old: 2, new: 4,
			want: map[string]float64{"a": 4, "b": 4, "c": 4},
		},
		{
			name: "identity",
			g:    chain(1, 3, 6),
			id:   "b", old: 3, new: 3,
			want: map[string]float64{"a": 1, "b": 3, "c": 6},
		},
		{
			name: "halving from the middle",
			g:    chain(1, 3, 6),
			id:   "b", old: 3, new: 1.5,
			want: map[string]float64{"a": 0.5, "b": 1.5, "c": 3},
		},
		{
			name: "zero old count",
			g:    chain(1, 0, 6),
			id:   "b", old: 0, new: 2,
			want: map[string]float64{"b": 2},
		},
		{
			name: "unknown node",
			g:    chain(1, 1, 1),
			id:   "ghost", old: 1, new: 2,
			want: map[string]float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PropagateFromEdit(tt.g, tt.id, tt.old, tt.new)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("PropagateFromEdit() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPropagateBranches(t *testing.T) {
	g := graph.Build([]factory.Node{
		node("src", 2, "", "ore"),
		node("left", 1, "ore", ""),
		node("right", 4, "ore", ""),
	}, []factory.Connection{
		conn("e1", "src", "left"),
		conn("e2", "src", "right"),
	}, nil)

	got := PropagateFromEdit(g, "left", 1, 3)
	want := map[string]float64{"src": 6, "left": 3, "right": 12}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestPropagateFromHandle(t *testing.T) {
	g := chain(2, 2, 2)

	got := PropagateFromHandle(g, "b", graph.SideInput, 0, 2, 4)
	want := map[string]float64{"b": 4, "c": 4}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("input handle mismatch (-want +got):\n%s", diff)
	}

	got = PropagateFromHandle(g, "b", graph.SideOutput, 0, 2, 4)
	want = map[string]float64{"a": 4, "b": 4}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("output handle mismatch (-want +got):\n%s", diff)
	}
}

func TestPropagateTraceReplays(t *testing.T) {
	g := chain(2, 3, 5)
	rec := trace.NewRecorder(trace.KindPropagate)
	got := Propagate(g, Edit{NodeID: "c", OldCount: 5, NewCount: 10}, rec)

	replayed := trace.Replay(rec.Trace(), g.Counts())
	for id, v := range got {
		if diff := cmp.Diff(v, replayed[id], approx); diff != "" {
			t.Errorf("replayed %s mismatch (-want +got):\n%s", id, diff)
		}
	}
	if replayed["island"] != 5 {
		t.Errorf("island = %v, want untouched 5", replayed["island"])
	}

	steps := rec.Trace().Steps
	if len(steps) != 3 || steps[0].Reason != "edit" {
		t.Fatalf("Steps = %+v", steps)
	}
	if d := steps[1].Touched[0].Direction; d != trace.Downstream {
		t.Errorf("b is scaled by its consumer, Direction = %v", d)
	}
}
