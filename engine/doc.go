// Package engine provides a memoizing, parallel evaluator over a
// dynamically discovered dependency graph.
//
// Work is keyed by eval.Key; each key kind maps to a registered Func that
// computes the key's value and requests dependencies through its Env. Dep
// requests are evaluated recursively and memoized, so shared dependencies
// are computed once per pass and reused across passes until invalidated.
//
// Each pass produces an immutable eval.Result through eval.Builder: the
// values of the requested roots, error descriptors for roots that failed,
// an overall-error flag covering failures anywhere in the transitive
// graph, and a walkable view of the evaluated graph for diagnostics.
//
// Two completion modes share the same evaluator:
//   - fail-fast (default): the first root failure cancels the pass
//   - keep-going: remaining roots keep evaluating so the pass collects as
//     many outcomes as possible
package engine
