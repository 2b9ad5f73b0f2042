// Package pkg provides the core libraries for flowplan factory balancing.
//
// # Overview
//
// flowplan takes a snapshot of a factory production network (machines with
// input and output slots, connections between them, and a set of target
// machines whose counts are fixed) and decides how many copies of every
// other machine to run so that each connected input is supplied. The pkg
// directory is organized into four main areas:
//
//  1. [factory] and [graph] - Domain model and the resolved production graph
//  2. [flow] and [solver] - Flow estimation, the LP solver and its heuristics
//  3. [pipeline] - Orchestration (snapshot → solve/balance/propagate → report)
//  4. [api], [worker] and [cache] - Serving, background solves and persistence
//
// # Architecture
//
// The typical data flow through flowplan:
//
//	Snapshot (JSON/YAML)
//	         ↓
//	    [graph] package (resolve rates, index products, drop bad connections)
//	         ↓
//	    [flow] package (per-handle supply and demand at current counts)
//	         ↓
//	    [solver] package (LP, ratio propagation, iterative balancing)
//	         ↓
//	    Report, updated snapshot, trace, DOT/SVG/PNG/PDF
//
// # Quick Start
//
// Solve a snapshot and apply the result:
//
//	import (
//	    "github.com/matzehuels/flowplan/pkg/factory"
//	    flowio "github.com/matzehuels/flowplan/pkg/io"
//	    "github.com/matzehuels/flowplan/pkg/solver"
//	)
//
//	snap, _ := flowio.ImportSnapshot("factory.yaml")
//	res := solver.Solve(snap.Nodes, snap.Connections, snap.TargetSet(), solver.Options{})
//	if res.Feasible {
//	    snap.Nodes = factory.ApplyUpdates(snap.Nodes, res.Updates)
//	}
//
// # Main Packages
//
// ## Domain
//
// [factory] - Snapshot types: nodes, slots, quantities (fixed or variable),
// connections, machine kinds and the product catalog.
//
// [graph] - The production graph built from a snapshot, with per-slot rates,
// a product index and reachability queries.
//
// [flow] - Flow estimation over connections and per-handle deficiency and
// excess detection.
//
// ## Solving
//
// [solver/lp] - The linear program that minimizes total machine count,
// optionally allowing penalized deficiencies.
//
// [solver/ratio] - Ratio propagation of a single count edit through the
// graph.
//
// [solver/balance] - The iterative balancer used when no LP is available.
//
// [solver] - The entry points tying them together, with update extraction.
//
// [trace] - Step-by-step records of balancing and propagation runs, with
// in-memory and MongoDB stores.
//
// ## Infrastructure
//
// [pipeline] - Cached solve, flows, balance, propagate and render calls used
// by the CLI and the API. Ensures consistent behavior across entry points.
//
// [cache] - File, Redis and null result caches behind one interface.
//
// [api] - chi HTTP server and client.
//
// [worker] - Single-slot background solver that answers with a strict and
// a permissive result.
//
// [observability] - Hook interfaces with a Prometheus implementation.
//
// [render] - Graphviz drawing of the production graph and SVG conversion.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/solver/...             # Specific package
//	go test -run Example                 # Examples only
//
// [factory]: https://pkg.go.dev/github.com/matzehuels/flowplan/pkg/factory
// [graph]: https://pkg.go.dev/github.com/matzehuels/flowplan/pkg/graph
// [flow]: https://pkg.go.dev/github.com/matzehuels/flowplan/pkg/flow
// [solver]: https://pkg.go.dev/github.com/matzehuels/flowplan/pkg/solver
// [solver/lp]: https://pkg.go.dev/github.com/matzehuels/flowplan/pkg/solver/lp
// [solver/ratio]: https://pkg.go.dev/github.com/matzehuels/flowplan/pkg/solver/ratio
// [solver/balance]: https://pkg.go.dev/github.com/matzehuels/flowplan/pkg/solver/balance
// [trace]: https://pkg.go.dev/github.com/matzehuels/flowplan/pkg/trace
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowplan/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowplan/pkg/cache
// [api]: https://pkg.go.dev/github.com/matzehuels/flowplan/pkg/api
// [worker]: https://pkg.go.dev/github.com/matzehuels/flowplan/pkg/worker
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowplan/pkg/observability
// [render]: https://pkg.go.dev/github.com/matzehuels/flowplan/pkg/render
package pkg
