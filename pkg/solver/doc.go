// Package solver is the entry point for computing machine counts.
//
// [Solve] runs the full batch pipeline: build the graph, solve the LP over
// the targets' dependency set, compute per-handle flows, and extract the
// counts that actually changed. Connections the LP does not model carry
// estimated flows capped by what their source has left. [PropagateFromEdit] and
// [PropagateFromHandle] are the interactive path: they rescale counts
// around a single edit without solving anything.
//
// # Outcomes
//
// An infeasible model is a normal outcome, reported through
// [Result.Feasible] and [Result.Unsatisfied]. Result.Err is set only when
// the LP breaks down; the counts then come from the iterative balancer in
// [github.com/matzehuels/flowplan/pkg/solver/balance] and Result.Fallback
// is true. Solve never panics.
//
// # Updates
//
// [ExtractUpdates] turns raw solver output into the map a caller should
// apply: only nodes whose count moved by more than [UpdateEpsilon], and
// never a count of (nearly) zero. [Result.MachineCountByNode] holds the
// full assignment, zeros included.
package solver
