// Package ratio rescales machine counts around an interactive edit.
//
// When the user changes one node's count from old to new, every node
// reachable from it (in either direction) is scaled by the same ratio
// new/old. Ratios spread outward pass by pass: each node takes the largest
// ratio among its already-settled neighbors, and the passes stop when
// nothing moves by more than [RatioEpsilon] or after [MaxPasses].
//
// The handle variant starts from a single handle: nodes wired directly to
// that handle are left out, so an edit on an output does not rescale the
// consumers on the other end of it.
package ratio

import (
	"math"

	"github.com/matzehuels/flowplan/pkg/graph"
	"github.com/matzehuels/flowplan/pkg/trace"
)

const (
	// MaxPasses bounds the number of settling passes.
	MaxPasses = 10

	// RatioEpsilon is the smallest ratio change that counts as movement.
	RatioEpsilon = 1e-4

	// zeroCount is the old count below which no ratio can be formed.
	zeroCount = 1e-6
)

// Handle selects one handle of the edited node.
type Handle struct {
	Side  graph.Side
	Index int
}

// Edit describes one count change.
type Edit struct {
	NodeID   string
	OldCount float64
	NewCount float64
	// Handle restricts propagation to the given handle's side of the graph.
	Handle *Handle
}

// PropagateFromEdit scales every node reachable from nodeID.
func PropagateFromEdit(g *graph.Graph, nodeID string, oldCount, newCount float64) map[string]float64 {
	return Propagate(g, Edit{NodeID: nodeID, OldCount: oldCount, NewCount: newCount}, nil)
}

// PropagateFromHandle scales every node reachable from nodeID without going
// through the nodes wired to the given handle.
func PropagateFromHandle(g *graph.Graph, nodeID string, side graph.Side, idx int, oldCount, newCount float64) map[string]float64 {
	return Propagate(g, Edit{
		NodeID:   nodeID,
		OldCount: oldCount,
		NewCount: newCount,
		Handle:   &Handle{Side: side, Index: idx},
	}, nil)
}

// Propagate runs the propagation and reports every applied ratio to rec.
// The returned map holds the new count of every reached node, the edited
// node included. An unknown node yields an empty map.
func Propagate(g *graph.Graph, e Edit, rec *trace.Recorder) map[string]float64 {
	out := make(map[string]float64)
	if _, ok := g.Node(e.NodeID); !ok {
		return out
	}

	rec.Step(trace.Step{NodeID: e.NodeID, OldCount: e.OldCount, NewCount: e.NewCount, Applied: true, Reason: "edit"})
	if math.Abs(e.OldCount) < zeroCount {
		out[e.NodeID] = e.NewCount
		return out
	}

	exclude := excluded(g, e)
	reach := g.Reachable(e.NodeID, exclude)
	ratios := map[string]float64{e.NodeID: e.NewCount / e.OldCount}

	for pass := 1; pass <= MaxPasses; pass++ {
		changed := false
		for _, id := range reach[1:] {
			best, from, ok := vote(g, id, ratios)
			if !ok {
				continue
			}
			cur, settled := ratios[id]
			if settled && math.Abs(best-cur) <= RatioEpsilon {
				continue
			}
			if !settled {
				cur = 1
			}
			ratios[id] = best
			changed = true

			count := countOf(g, id)
			rec.Step(trace.Step{
				Pass:     pass,
				NodeID:   id,
				OldCount: count * cur,
				NewCount: count * best,
				Applied:  true,
				Reason:   "ratio",
				Touched:  []trace.Touch{{NodeID: from, Direction: direction(g, id, from)}},
			})
		}
		if !changed {
			break
		}
		if pass == MaxPasses {
			rec.Warn(trace.WarnMaxPasses, e.NodeID, "ratios still moving after %d passes", MaxPasses)
		}
	}

	for _, id := range reach {
		r, ok := ratios[id]
		if !ok {
			r = 1
		}
		out[id] = countOf(g, id) * r
	}
	out[e.NodeID] = e.NewCount
	return out
}

// excluded returns the nodes on the far side of the edited handle.
func excluded(g *graph.Graph, e Edit) map[string]bool {
	if e.Handle == nil {
		return nil
	}
	ex := make(map[string]bool)
	for _, edge := range g.HandleEdges(e.NodeID, e.Handle.Side, e.Handle.Index) {
		other := edge.To
		if e.Handle.Side == graph.SideInput {
			other = edge.From
		}
		if other != e.NodeID {
			ex[other] = true
		}
	}
	return ex
}

// vote returns the largest ratio among the settled neighbors of id.
func vote(g *graph.Graph, id string, ratios map[string]float64) (float64, string, bool) {
	best, from, ok := 0.0, "", false
	for _, nb := range g.Neighbors(id) {
		r, settled := ratios[nb]
		if !settled {
			continue
		}
		if !ok || r > best {
			best, from, ok = r, nb, true
		}
	}
	return best, from, ok
}

// direction says whether the voter sits upstream or downstream of id.
func direction(g *graph.Graph, id, voter string) trace.Direction {
	for _, e := range g.Incoming(id) {
		if e.From == voter {
			return trace.Upstream
		}
	}
	return trace.Downstream
}

func countOf(g *graph.Graph, id string) float64 {
	n, _ := g.Node(id)
	return n.MachineCount
}
