package engine

import (
	"context"

	"github.com/kbukum/evalgraph/eval"
	"github.com/kbukum/evalgraph/logger"
)

// Func computes the value for keys of one kind. Implementations request
// dependencies through env; a dependency request either returns the
// dependency's value or its *eval.ErrorInfo as the error. A Func may
// recover from a dependency failure by returning its own value anyway, in
// which case the pass is still flagged as having encountered an error.
//
// Compute must be deterministic in its dependencies: requesting the same
// dependencies and seeing the same values should produce the same result,
// or memoization and change pruning will hand out stale values.
type Func interface {
	Compute(ctx context.Context, key eval.Key, env Env) (eval.Value, error)
}

// FuncFn adapts a plain function to the Func interface.
type FuncFn func(ctx context.Context, key eval.Key, env Env) (eval.Value, error)

func (f FuncFn) Compute(ctx context.Context, key eval.Key, env Env) (eval.Value, error) {
	return f(ctx, key, env)
}

// Env is handed to a Func during Compute to request dependencies and
// access per-pass facilities.
type Env interface {
	// Dep evaluates key as a dependency of the computing node and returns
	// its value. If the dependency failed, the returned error is its
	// *eval.ErrorInfo; returning that error from Compute propagates the
	// failure, ignoring it recovers from it. Dep is safe to call from
	// goroutines spawned by Compute, as long as they finish before
	// Compute returns.
	Dep(ctx context.Context, key eval.Key) (eval.Value, error)
	// Deps evaluates several dependencies in order and returns their
	// values keyed by key, stopping at the first failure.
	Deps(ctx context.Context, keys ...eval.Key) (map[eval.Key]eval.Value, error)
	// PassID identifies the evaluation pass.
	PassID() string
	// Logger returns the engine logger scoped to the computing node.
	Logger() *logger.Logger
}
