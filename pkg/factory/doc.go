// Package factory defines the data model of a production network.
//
// # Overview
//
// A production network is made of machine instances ([Node]) that consume
// input goods and emit output goods at fixed per-cycle quantities, wired
// together by directed [Connection] values from an output handle of one node
// to an input handle of another. The editor that owns the network supplies
// these values; the solver packages read them and never mutate them.
//
// # Quantities
//
// A slot quantity is either a fixed nonnegative number or the symbolic
// Variable ([Variable]). A Variable quantity means the rate is undetermined:
// the slot takes part in no conservation constraint. Cycle times use the same
// [Quantity] type.
//
// # Machine Kinds
//
// Kind-specific settings live in a tagged union ([Kind]) instead of optional
// fields on the node: [Assembler], [Furnace], [Miner], [Generator], [Source]
// and [Sink]. Solvers only see the common [Projection] returned by
// [Node.Project], which folds the kind modifiers (assembler speed, miner
// yield) into cycle time and output quantities.
//
// # Catalog
//
// Product reference data is held in an explicit [Catalog] constructed once
// and passed by reference wherever product categories matter. Nothing in
// this module reads ambient global state.
//
// # Snapshots
//
// A [Snapshot] bundles nodes, connections, targets and objective weights into
// an immutable copy-in value. Off-thread solves deep-copy a snapshot with
// [Snapshot.Clone] so the worker never shares memory with the caller.
package factory
