// Package trace records the decisions of the iterative solvers.
//
// A [Recorder] collects one [Trace]: an ordered list of [Step] values (which
// node changed, from what count to what count, and which neighbors the
// change reached) plus [Warning] values for conditions the solver skipped,
// such as a deficient input fed only by its own output.
//
// Traces are observational. Nothing in a trace feeds back into a result;
// [Replay] re-applies the applied steps to a count map so tests can prove a
// trace mirrors the numbers it describes.
//
// A nil *Recorder is valid and records nothing, so solvers call it
// unconditionally.
package trace
