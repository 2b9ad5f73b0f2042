// Package api serves the solvers over HTTP.
//
// # Routes
//
//	GET  /healthz              liveness and build version
//	GET  /metrics              Prometheus metrics (when a gatherer is set)
//	POST /v1/solve             LP solve, cached
//	POST /v1/diagnose          strict then permissive solve on the worker
//	POST /v1/flows             flow status at the current counts, cached
//	POST /v1/propagate         ratio propagation of one count edit
//	POST /v1/balance           iterative balancer with its trace
//	POST /v1/render?format=svg diagram of the flow status
//	GET  /v1/traces            most recent archived traces
//	GET  /v1/traces/{id}       one archived trace
//
// Request bodies carry the snapshot inline. Errors are JSON
// {"code": ..., "error": ...} with the status given by
// [github.com/matzehuels/flowplan/pkg/errors.HTTPStatus].
//
// [Client] calls a running server with retries on transient failures.
package api
