// Package balance closes input deficits by raising supplier counts pass by
// pass.
//
// It is the traced counterpart of the LP: slower and not minimal, but every
// change it makes is recorded as a [trace.Step], and every situation it
// cannot resolve (an input fed only by its own output, a supplier that is a
// pinned target) is recorded as a [trace.Warning]. The solver falls back to
// it when the LP breaks down.
package balance

import (
	"maps"
	"slices"

	"github.com/matzehuels/flowplan/pkg/factory"
	"github.com/matzehuels/flowplan/pkg/flow"
	"github.com/matzehuels/flowplan/pkg/graph"
	"github.com/matzehuels/flowplan/pkg/trace"
)

// DefaultMaxPasses bounds a run when Options.MaxPasses is zero.
const DefaultMaxPasses = 10

// Options configures a run.
type Options struct {
	MaxPasses int
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.MaxPasses <= 0 {
		o.MaxPasses = DefaultMaxPasses
	}
}

// Result is the outcome of a run.
type Result struct {
	// Counts holds the final count of every node.
	Counts   map[string]float64
	Passes   int
	Balanced bool
	// Remaining lists the deficits left after the last pass.
	Remaining []flow.Deficiency
}

// supplier is one external source feeding a deficient input.
type supplier struct {
	nodeID string
	rate   float64 // per machine on the feeding output
	supply float64 // current production on that output
}

// Run balances g starting from counts (nodes missing from counts keep their
// own count). Targets are never changed.
func Run(g *graph.Graph, counts map[string]float64, targets factory.TargetSet, opts Options, rec *trace.Recorder) *Result {
	opts.SetDefaults()

	cur := g.Counts()
	maps.Copy(cur, counts)

	res := &Result{Counts: cur}
	for res.Passes < opts.MaxPasses {
		defs := flow.Calculate(g, cur, nil).Deficiencies()
		if len(defs) == 0 {
			break
		}
		res.Passes++
		if !pass(g, cur, targets, defs, res.Passes, rec) {
			break
		}
	}

	res.Remaining = flow.Calculate(g, cur, nil).Deficiencies()
	res.Balanced = len(res.Remaining) == 0
	if !res.Balanced && res.Passes == opts.MaxPasses {
		rec.Warn(trace.WarnMaxPasses, "", "%d deficits left after %d passes", len(res.Remaining), res.Passes)
	}
	return res
}

// pass raises suppliers once for every deficit and reports whether any
// count changed.
func pass(g *graph.Graph, counts map[string]float64, targets factory.TargetSet, defs []flow.Deficiency, n int, rec *trace.Recorder) bool {
	changed := false
	for _, d := range defs {
		sups := suppliers(g, counts, d)
		if len(sups) == 0 {
			if d.SelfLoopOnly {
				rec.Warn(trace.WarnSelfLoopOnly, d.NodeID, "input %d (%s) is fed only by its own output", d.InputIndex, d.ProductID)
			} else {
				rec.Warn(trace.WarnNoSupplier, d.NodeID, "input %d (%s) has no supplier with a known rate", d.InputIndex, d.ProductID)
			}
			continue
		}

		total := 0.0
		for _, s := range sups {
			total += s.supply
		}
		for _, s := range sups {
			share := 1 / float64(len(sups))
			if total > flow.Epsilon {
				share = s.supply / total
			}
			old := counts[s.nodeID]
			step := trace.Step{
				Pass:     n,
				NodeID:   s.nodeID,
				OldCount: old,
				NewCount: old + d.Shortfall*share/s.rate,
				Touched:  touches(g, s.nodeID, d.NodeID),
			}
			if targets.Has(s.nodeID) {
				step.Reason = trace.WarnTargetPinned
				rec.Step(step)
				rec.Warn(trace.WarnTargetPinned, s.nodeID, "supplier of %s is a target and stays at %g", d.NodeID, old)
				continue
			}
			step.Applied = true
			step.Reason = "cover " + d.NodeID + " " + d.ProductID
			counts[s.nodeID] = step.NewCount
			changed = true
			rec.Step(step)
		}
	}
	return changed
}

// suppliers returns the distinct external sources feeding a deficient input
// through an output with a known, positive rate.
func suppliers(g *graph.Graph, counts map[string]float64, d flow.Deficiency) []supplier {
	var out []supplier
	seen := make(map[string]bool)
	for _, e := range g.IncomingToSlot(d.NodeID, d.InputIndex) {
		if e.IsSelfLoop() || seen[e.From] {
			continue
		}
		n, ok := g.Node(e.From)
		if !ok {
			continue
		}
		s, ok := n.Slot(graph.SideOutput, e.FromIndex)
		if !ok || !s.Rate.Known || s.Rate.PerMachine <= 0 {
			continue
		}
		seen[e.From] = true
		out = append(out, supplier{
			nodeID: e.From,
			rate:   s.Rate.PerMachine,
			supply: s.Rate.PerMachine * flow.CountOf(g, counts, e.From),
		})
	}
	return out
}

// touches lists the deficient consumer and everything upstream of the
// raised supplier.
func touches(g *graph.Graph, supplierID, consumerID string) []trace.Touch {
	out := []trace.Touch{{NodeID: consumerID, Direction: trace.Downstream}}
	up := g.Upstream(supplierID)
	slices.Sort(up)
	for _, id := range up {
		out = append(out, trace.Touch{NodeID: id, Direction: trace.Upstream})
	}
	return out
}
