// Package inspect exposes a running evaluator over HTTP for debugging
// and monitoring.
//
// It provides a Server-Sent Events stream of pass events, JSON endpoints
// for walking the dependency graph and listing memoized outcomes, and a
// health endpoint.
//
// # Endpoints
//
//	GET {prefix}/events?pattern=node_*   SSE stream of pass events
//	GET {prefix}/nodes                   memo table snapshot
//	GET {prefix}/graph?key=kind:name     one node with its deps and rdeps
//	GET /healthz                         service health
package inspect
