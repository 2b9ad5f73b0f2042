// Package graph builds the production graph a solver works on.
//
// # Overview
//
// [Build] converts caller-owned topology (a [factory.Node] slice plus a
// [factory.Connection] slice) into a [Graph]: every node resolved to
// per-machine rates, a per-product index of producers, consumers and
// connections, and a flat edge list in input order. The graph is derived and
// rebuilt for every solve; it never aliases the caller's slices.
//
// # Rates
//
// A slot's per-machine rate is quantity / cycleTime for standard nodes and
// the quantity itself for rate-model nodes. A Variable quantity (or a
// Variable cycle time on a standard node) leaves the slot unresolved
// ([Rate.Known] is false) and excludes it from every constraint.
//
// # Topology Drift
//
// The editor may hand over a topology that is mid-edit. Connections naming a
// missing node or an out-of-range handle, connections whose products
// disagree, and duplicate IDs are dropped silently during the build. They are
// listed by [Graph.Dropped] for diagnostics and never produce an error.
//
// # Traversal
//
// [Graph.Reachable], [Graph.Upstream] and [Graph.Downstream] walk the graph
// with an explicit worklist and visited set, so every traversal is bounded by
// the node count no matter how the network loops back on itself.
//
// # Concurrency
//
// A Graph is immutable after [Build] returns and may be read from multiple
// goroutines.
package graph
