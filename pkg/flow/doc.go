// Package flow computes per-handle supply and demand for a production graph.
//
// For every input handle the calculator compares the rate needed
// (per-machine rate × machine count) with the rate actually connected (the
// sum of flow on incoming connections). For every output handle it compares
// the rate produced with the rate drawn by outgoing connections. Handles that
// miss by more than [Epsilon] are flagged deficient or excess.
//
// Flow per connection either comes from a solver (the LP assigns an explicit
// flow to every connection) or is estimated with [Estimate], which splits
// each producer's output across its consumers in proportion to what they ask
// for.
//
// Unconnected handles and handles with a Variable rate impose no requirement
// and are never flagged. The calculator is pure and descriptive; it drives
// both editor highlighting and the deficiency checks of the solvers.
package flow
