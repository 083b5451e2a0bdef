package engine

import (
	"context"
	"sync"

	"github.com/kbukum/evalgraph/eval"
	"github.com/kbukum/evalgraph/logger"
)

// funcEnv is the Env handed to a Func while its node computes. Dependency
// requests are recorded in order for fingerprinting and graph diagnostics,
// including requests that fail.
type funcEnv struct {
	ev    *Evaluator
	chain *chain
	log   *logger.Logger

	mu   sync.Mutex
	deps []eval.Key
}

func (fe *funcEnv) Dep(ctx context.Context, key eval.Key) (eval.Value, error) {
	fe.mu.Lock()
	fe.deps = append(fe.deps, key)
	fe.mu.Unlock()

	value, errInfo := fe.ev.evalKey(ctx, fe.chain, key)
	if errInfo != nil {
		return nil, errInfo
	}
	return value, nil
}

func (fe *funcEnv) Deps(ctx context.Context, keys ...eval.Key) (map[eval.Key]eval.Value, error) {
	values := make(map[eval.Key]eval.Value, len(keys))
	for _, key := range keys {
		value, err := fe.Dep(ctx, key)
		if err != nil {
			return nil, err
		}
		values[key] = value
	}
	return values, nil
}

func (fe *funcEnv) PassID() string { return fe.chain.pass.id }

func (fe *funcEnv) Logger() *logger.Logger { return fe.log }

func (fe *funcEnv) snapshotDeps() []eval.Key {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	deps := make([]eval.Key, len(fe.deps))
	copy(deps, fe.deps)
	return deps
}
