package flow

import (
	"maps"
	"slices"

	"github.com/matzehuels/flowplan/pkg/graph"
)

// Epsilon absorbs floating-point noise from the LP when comparing rates. It
// is not a semantic tolerance.
const Epsilon = 1e-6

// SlotFlow is the flow status of one handle.
type SlotFlow struct {
	Side      graph.Side
	Index     int
	ProductID string
	Known     bool    // false for Variable handles
	Rate      float64 // per machine, per second
	Needed    float64 // inputs: rate × machine count
	Produced  float64 // outputs: rate × machine count
	Connected float64 // total flow on attached connections
	// Connections is the number of attached connections.
	Connections int
	Deficient   bool
	Excess      bool
}

// Shortfall returns how much an input lacks, or 0.
func (s SlotFlow) Shortfall() float64 {
	if !s.Deficient {
		return 0
	}
	return s.Needed - s.Connected
}

// Surplus returns how much an output overproduces, or 0.
func (s SlotFlow) Surplus() float64 {
	if !s.Excess {
		return 0
	}
	return s.Produced - s.Connected
}

// NodeFlow is the flow status of every handle on one node.
type NodeFlow struct {
	NodeID       string
	MachineCount float64
	Inputs       []SlotFlow
	Outputs      []SlotFlow
}

// Deficiency describes one deficient input handle.
type Deficiency struct {
	NodeID     string
	InputIndex int
	ProductID  string
	Needed     float64
	Connected  float64
	Shortfall  float64
	// SelfLoopOnly is set when every connection into the handle comes from
	// the node itself, so no machine-count ratio can close the gap.
	SelfLoopOnly bool
}

// Excess describes one output handle producing more than it delivers.
type Excess struct {
	NodeID      string
	OutputIndex int
	ProductID   string
	Produced    float64
	Connected   float64
	Surplus     float64
}

// Result holds the flow status of a whole graph.
type Result struct {
	nodes    map[string]*NodeFlow
	order    []string
	edges    map[string]float64
	selfOnly map[graph.HandleRef]bool
}

// Calculate computes the flow status of every handle.
//
// counts overrides node machine counts; nodes missing from it keep their own
// count. edgeFlow gives the flow on each connection; when nil, flows are
// estimated with [Estimate]. Connections absent from a non-nil edgeFlow carry
// no flow.
func Calculate(g *graph.Graph, counts, edgeFlow map[string]float64) *Result {
	if edgeFlow == nil {
		edgeFlow = Estimate(g, counts)
	}

	r := &Result{
		nodes:    make(map[string]*NodeFlow, g.NodeCount()),
		order:    g.NodeIDs(),
		edges:    make(map[string]float64, g.EdgeCount()),
		selfOnly: make(map[graph.HandleRef]bool),
	}
	for _, e := range g.Edges() {
		r.edges[e.ID] = edgeFlow[e.ID]
	}

	for _, n := range g.Nodes() {
		count := CountOf(g, counts, n.ID)
		nf := &NodeFlow{
			NodeID:       n.ID,
			MachineCount: count,
			Inputs:       make([]SlotFlow, len(n.Inputs)),
			Outputs:      make([]SlotFlow, len(n.Outputs)),
		}

		for i, s := range n.Inputs {
			in := g.IncomingToSlot(n.ID, i)
			sf := SlotFlow{
				Side:        graph.SideInput,
				Index:       i,
				ProductID:   s.ProductID,
				Known:       s.Rate.Known,
				Rate:        s.Rate.PerMachine,
				Connections: len(in),
			}
			selfOnly := len(in) > 0
			for _, e := range in {
				sf.Connected += r.edges[e.ID]
				selfOnly = selfOnly && e.IsSelfLoop()
			}
			if sf.Known {
				sf.Needed = sf.Rate * count
				sf.Deficient = sf.Connections > 0 && sf.Needed-sf.Connected > Epsilon
			}
			if selfOnly {
				r.selfOnly[graph.HandleRef{NodeID: n.ID, Index: i}] = true
			}
			nf.Inputs[i] = sf
		}

		for i, s := range n.Outputs {
			out := g.OutgoingFromSlot(n.ID, i)
			sf := SlotFlow{
				Side:        graph.SideOutput,
				Index:       i,
				ProductID:   s.ProductID,
				Known:       s.Rate.Known,
				Rate:        s.Rate.PerMachine,
				Connections: len(out),
			}
			for _, e := range out {
				sf.Connected += r.edges[e.ID]
			}
			if sf.Known {
				sf.Produced = sf.Rate * count
				sf.Excess = sf.Connections > 0 && sf.Produced-sf.Connected > Epsilon
			}
			nf.Outputs[i] = sf
		}

		r.nodes[n.ID] = nf
	}
	return r
}

// CountOf returns the machine count for id from counts, falling back to the
// count the node was built with.
func CountOf(g *graph.Graph, counts map[string]float64, id string) float64 {
	if c, ok := counts[id]; ok {
		return c
	}
	if n, ok := g.Node(id); ok {
		return n.MachineCount
	}
	return 0
}

// Node returns the flow status of one node.
func (r *Result) Node(id string) (*NodeFlow, bool) {
	nf, ok := r.nodes[id]
	return nf, ok
}

// Nodes returns the flow status of every node, sorted by node ID.
func (r *Result) Nodes() []*NodeFlow {
	out := make([]*NodeFlow, len(r.order))
	for i, id := range r.order {
		out[i] = r.nodes[id]
	}
	return out
}

// Edge returns the flow on one connection.
func (r *Result) Edge(id string) (float64, bool) {
	f, ok := r.edges[id]
	return f, ok
}

// EdgeFlows returns a copy of the flow on every connection.
func (r *Result) EdgeFlows() map[string]float64 { return maps.Clone(r.edges) }

// Deficiencies lists every deficient input, ordered by node ID then index.
func (r *Result) Deficiencies() []Deficiency {
	var out []Deficiency
	for _, id := range r.order {
		for _, s := range r.nodes[id].Inputs {
			if !s.Deficient {
				continue
			}
			out = append(out, Deficiency{
				NodeID:       id,
				InputIndex:   s.Index,
				ProductID:    s.ProductID,
				Needed:       s.Needed,
				Connected:    s.Connected,
				Shortfall:    s.Shortfall(),
				SelfLoopOnly: r.selfOnly[graph.HandleRef{NodeID: id, Index: s.Index}],
			})
		}
	}
	return out
}

// Excesses lists every output producing more than it delivers, ordered by
// node ID then index.
func (r *Result) Excesses() []Excess {
	var out []Excess
	for _, id := range r.order {
		for _, s := range r.nodes[id].Outputs {
			if !s.Excess {
				continue
			}
			out = append(out, Excess{
				NodeID:      id,
				OutputIndex: s.Index,
				ProductID:   s.ProductID,
				Produced:    s.Produced,
				Connected:   s.Connected,
				Surplus:     s.Surplus(),
			})
		}
	}
	return out
}

// Balanced reports whether no input is deficient.
func (r *Result) Balanced() bool {
	return len(r.Deficiencies()) == 0
}

// DeficientNodes returns the sorted IDs of nodes with a deficient input.
func (r *Result) DeficientNodes() []string {
	seen := make(map[string]struct{})
	for _, d := range r.Deficiencies() {
		seen[d.NodeID] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}
