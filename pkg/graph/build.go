package graph

import (
	"github.com/matzehuels/flowplan/pkg/factory"
)

// Build converts caller-owned topology into a production graph.
//
// Build is a pure transform: it never fails and never mutates its inputs.
// Nodes with an empty or duplicate ID and connections that reference
// missing nodes, out-of-range handles or mismatched products are dropped (see
// [Graph.Dropped]). The catalog may be nil; it only classifies products
// (see [Graph.Category]) and never affects rates.
func Build(nodes []factory.Node, conns []factory.Connection, cat *factory.Catalog) *Graph {
	g := &Graph{
		nodes:    make(map[string]*Node, len(nodes)),
		order:    make([]string, 0, len(nodes)),
		products: make(map[string]*ProductIndex),
		edgeByID: make(map[string]int, len(conns)),
		incoming: make(map[string][]int),
		outgoing: make(map[string][]int),
		catalog:  cat,
	}

	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		if _, dup := g.nodes[n.ID]; dup {
			continue
		}
		rn := resolve(n.Project())
		g.nodes[rn.ID] = rn
		g.order = append(g.order, rn.ID)
		for _, s := range rn.Outputs {
			p := g.index(s.ProductID)
			p.Producers = append(p.Producers, HandleRef{NodeID: rn.ID, Index: s.Index})
		}
		for _, s := range rn.Inputs {
			p := g.index(s.ProductID)
			p.Consumers = append(p.Consumers, HandleRef{NodeID: rn.ID, Index: s.Index})
		}
	}

	for _, c := range conns {
		e, ok := g.edgeFor(c)
		if !ok {
			g.dropped = append(g.dropped, c.ID)
			continue
		}
		i := len(g.edges)
		g.edges = append(g.edges, e)
		g.edgeByID[e.ID] = i
		g.outgoing[e.From] = append(g.outgoing[e.From], i)
		g.incoming[e.To] = append(g.incoming[e.To], i)

		src := g.nodes[e.From].Outputs[e.FromIndex].ProductID
		dst := g.nodes[e.To].Inputs[e.ToIndex].ProductID
		g.index(src).Connections = append(g.index(src).Connections, e.ID)
		if dst != src {
			g.index(dst).Connections = append(g.index(dst).Connections, e.ID)
		}
	}

	return g
}

// edgeFor validates a connection against the nodes built so far.
func (g *Graph) edgeFor(c factory.Connection) (Edge, bool) {
	if c.ID == "" {
		return Edge{}, false
	}
	if _, dup := g.edgeByID[c.ID]; dup {
		return Edge{}, false
	}
	src, ok := g.nodes[c.SourceNodeID]
	if !ok {
		return Edge{}, false
	}
	dst, ok := g.nodes[c.TargetNodeID]
	if !ok {
		return Edge{}, false
	}
	out, ok := src.Slot(SideOutput, c.SourceOutputIndex)
	if !ok {
		return Edge{}, false
	}
	in, ok := dst.Slot(SideInput, c.TargetInputIndex)
	if !ok {
		return Edge{}, false
	}
	if !factory.ProductsMatch(out.ProductID, in.ProductID) {
		return Edge{}, false
	}
	product := out.ProductID
	if product == factory.AnyProduct {
		product = in.ProductID
	}
	return Edge{
		ID:        c.ID,
		From:      c.SourceNodeID,
		FromIndex: c.SourceOutputIndex,
		To:        c.TargetNodeID,
		ToIndex:   c.TargetInputIndex,
		ProductID: product,
	}, true
}

func (g *Graph) index(product string) *ProductIndex {
	p, ok := g.products[product]
	if !ok {
		p = &ProductIndex{}
		g.products[product] = p
	}
	return p
}

// resolve turns a projection into a node with per-machine rates.
func resolve(p factory.Projection) *Node {
	n := &Node{
		ID:           p.ID,
		MachineCount: p.MachineCount,
		RateModel:    p.RateModel,
		Inputs:       make([]Slot, len(p.Inputs)),
		Outputs:      make([]Slot, len(p.Outputs)),
	}
	for i, s := range p.Inputs {
		n.Inputs[i] = Slot{Index: i, ProductID: s.ProductID, Rate: rateOf(s.Quantity, p)}
	}
	for i, s := range p.Outputs {
		n.Outputs[i] = Slot{Index: i, ProductID: s.ProductID, Rate: rateOf(s.Quantity, p)}
	}
	return n
}

// rateOf resolves a slot quantity to a per-machine, per-second rate.
func rateOf(q factory.Quantity, p factory.Projection) Rate {
	if q.IsVariable() {
		return Rate{}
	}
	if p.RateModel {
		return Rate{PerMachine: q.Value(), Known: true}
	}
	if p.CycleTime.IsVariable() || p.CycleTime.Value() <= 0 {
		return Rate{}
	}
	return Rate{PerMachine: q.Value() / p.CycleTime.Value(), Known: true}
}
