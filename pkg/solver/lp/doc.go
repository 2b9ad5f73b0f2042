// Package lp computes minimal machine counts with a linear program.
//
// # Model
//
// Only the dependency set of the targets is modeled: the targets and every
// node upstream of them. Each such node gets a machine-count variable m and
// each connection into it a flow variable f. Nodes downstream of a target
// keep their counts and are left to the caller. For each resolved output
// handle with at least one modeled connection:
//
//	Σ f(out) ≤ rate · m
//
// For each resolved, connected input handle with a positive rate:
//
//	Σ f(in) ≥ rate · m
//
// Targets are pinned to their current count. The objective minimizes
// Σ weight · m. Inequalities are turned into equalities with one slack per
// row and the problem is handed to gonum's simplex, which works in standard
// form (min cᵀx, Ax = b, x ≥ 0).
//
// Handles with a Variable rate take part in no row, so a Variable output is
// an unlimited supply and a Variable input is an unlimited sink.
//
// # Permissive mode
//
// With [Options.AllowDeficiency] every demand row gets a shortfall variable
// d, penalized by [Options.DeficiencyPenalty]:
//
//	Σ f(in) + d ≥ rate · m
//
// The permissive model is always feasible and reports where supply falls
// short in [Solution.Shortfall].
//
// Shortfalls carry a reason: the input is fed only by itself, its supply is
// pinned because every path back to a source runs through a target, or
// supply is simply too low.
//
// Infeasibility is reported through [Solution.Status], never as an error.
// Errors are reserved for solver breakdown.
package lp
