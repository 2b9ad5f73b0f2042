package graph

import (
	"maps"
	"slices"

	"github.com/matzehuels/flowplan/pkg/errors"
	"github.com/matzehuels/flowplan/pkg/factory"
)

// Side addresses the input or output half of a node's handles.
type Side int

const (
	// SideInput selects input handles.
	SideInput Side = iota
	// SideOutput selects output handles.
	SideOutput
)

// String returns "input" or "output".
func (s Side) String() string {
	if s == SideOutput {
		return "output"
	}
	return "input"
}

// ParseSide parses "input" or "output".
func ParseSide(s string) (Side, error) {
	switch s {
	case "input":
		return SideInput, nil
	case "output":
		return SideOutput, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "handle side must be input or output, got %q", s)
}

// Rate is a resolved per-machine, per-second rate.
// Known is false for slots with a Variable quantity or cycle time.
type Rate struct {
	PerMachine float64
	Known      bool
}

// Slot is a node handle with its resolved rate.
type Slot struct {
	Index     int
	ProductID string
	Rate      Rate
}

// Node is a machine instance with resolved rates.
type Node struct {
	ID           string
	MachineCount float64
	RateModel    bool
	Inputs       []Slot
	Outputs      []Slot
}

// Slot returns the handle on the given side, or false when out of range.
func (n *Node) Slot(side Side, idx int) (Slot, bool) {
	slots := n.Inputs
	if side == SideOutput {
		slots = n.Outputs
	}
	if idx < 0 || idx >= len(slots) {
		return Slot{}, false
	}
	return slots[idx], true
}

// HandleRef addresses one handle of one node.
type HandleRef struct {
	NodeID string
	Index  int
}

// Edge is a connection that survived the build.
//
// ProductID is the concrete product carried: the source product, or the
// target product when the source is the wildcard. It is the wildcard itself
// only when both ends are wildcards.
type Edge struct {
	ID        string
	From      string
	FromIndex int
	To        string
	ToIndex   int
	ProductID string
}

// IsSelfLoop reports whether the edge feeds a node from itself.
func (e Edge) IsSelfLoop() bool { return e.From == e.To }

// ProductIndex lists every handle and connection touching one product.
type ProductIndex struct {
	Producers   []HandleRef
	Consumers   []HandleRef
	Connections []string
}

// Graph is the production graph. The zero value is not usable; use [Build].
type Graph struct {
	nodes    map[string]*Node
	order    []string
	products map[string]*ProductIndex
	edges    []Edge
	edgeByID map[string]int
	incoming map[string][]int // nodeID -> edge indexes ending at the node
	outgoing map[string][]int // nodeID -> edge indexes starting at the node
	dropped  []string
	catalog  *factory.Catalog
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeIDs returns all node IDs in sorted order.
func (g *Graph) NodeIDs() []string {
	return slices.Sorted(maps.Keys(g.nodes))
}

// Nodes returns all nodes in input order. The pointers refer to the graph's
// own nodes and must be treated as read-only.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of connections that survived the build.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Edges returns a copy of all edges in input order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// Edge returns the edge with the given connection ID.
func (g *Graph) Edge(id string) (Edge, bool) {
	i, ok := g.edgeByID[id]
	if !ok {
		return Edge{}, false
	}
	return g.edges[i], true
}

// Incoming returns the edges ending at the node.
func (g *Graph) Incoming(id string) []Edge { return g.collect(g.incoming[id], nil) }

// Outgoing returns the edges starting at the node.
func (g *Graph) Outgoing(id string) []Edge { return g.collect(g.outgoing[id], nil) }

// IncomingToSlot returns the edges ending at input idx of the node.
func (g *Graph) IncomingToSlot(id string, idx int) []Edge {
	return g.collect(g.incoming[id], func(e Edge) bool { return e.ToIndex == idx })
}

// OutgoingFromSlot returns the edges starting at output idx of the node.
func (g *Graph) OutgoingFromSlot(id string, idx int) []Edge {
	return g.collect(g.outgoing[id], func(e Edge) bool { return e.FromIndex == idx })
}

// HandleEdges returns the edges attached to one handle.
func (g *Graph) HandleEdges(id string, side Side, idx int) []Edge {
	if side == SideOutput {
		return g.OutgoingFromSlot(id, idx)
	}
	return g.IncomingToSlot(id, idx)
}

func (g *Graph) collect(idxs []int, keep func(Edge) bool) []Edge {
	var out []Edge
	for _, i := range idxs {
		if keep == nil || keep(g.edges[i]) {
			out = append(out, g.edges[i])
		}
	}
	return out
}

// Suppliers returns the distinct nodes feeding the node, sorted.
func (g *Graph) Suppliers(id string) []string {
	seen := make(map[string]struct{})
	for _, i := range g.incoming[id] {
		seen[g.edges[i].From] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Consumers returns the distinct nodes fed by the node, sorted.
func (g *Graph) Consumers(id string) []string {
	seen := make(map[string]struct{})
	for _, i := range g.outgoing[id] {
		seen[g.edges[i].To] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Neighbors returns the distinct nodes wired to the node in either
// direction, excluding the node itself, sorted.
func (g *Graph) Neighbors(id string) []string {
	seen := make(map[string]struct{})
	for _, i := range g.incoming[id] {
		seen[g.edges[i].From] = struct{}{}
	}
	for _, i := range g.outgoing[id] {
		seen[g.edges[i].To] = struct{}{}
	}
	delete(seen, id)
	return slices.Sorted(maps.Keys(seen))
}

// Product returns the index for a product ID.
func (g *Graph) Product(id string) (*ProductIndex, bool) {
	p, ok := g.products[id]
	return p, ok
}

// ProductIDs returns every indexed product ID in sorted order.
func (g *Graph) ProductIDs() []string {
	return slices.Sorted(maps.Keys(g.products))
}

// Dropped returns the IDs of connections discarded during the build.
func (g *Graph) Dropped() []string { return slices.Clone(g.dropped) }

// Category classifies a product using the catalog given to [Build].
func (g *Graph) Category(productID string) factory.Category {
	return g.catalog.Category(productID)
}

// Counts returns the machine count of every node as built.
func (g *Graph) Counts() map[string]float64 {
	out := make(map[string]float64, len(g.nodes))
	for id, n := range g.nodes {
		out[id] = n.MachineCount
	}
	return out
}
