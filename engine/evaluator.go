package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/evalgraph/errors"
	"github.com/kbukum/evalgraph/eval"
	"github.com/kbukum/evalgraph/fingerprint"
	"github.com/kbukum/evalgraph/logger"
)

// Options configures an Evaluator.
type Options struct {
	// Parallelism limits concurrently evaluated root keys (0 = unlimited).
	Parallelism int
	// KeepGoing continues evaluating remaining roots after a failure
	// instead of cancelling the pass at the first error.
	KeepGoing bool
	// Retry configures re-evaluation of transiently failing nodes.
	Retry RetryConfig
}

// Evaluator evaluates keys against registered functions with memoization.
// The memo table persists across passes; Invalidate marks entries for
// re-evaluation. An Evaluator is safe for use by a single pass at a time.
type Evaluator struct {
	registry *Registry
	opts     Options
	log      *logger.Logger
	events   eventBus
	chainID  atomic.Uint64

	// mu guards the memo table and the wait bookkeeping used for
	// cross-chain deadlock detection. A chain can wait on several keys at
	// once when a function requests dependencies from concurrent
	// goroutines, so waits holds a set per chain.
	mu     sync.Mutex
	nodes  map[eval.Key]*node
	owners map[eval.Key]uint64
	waits  map[uint64]map[eval.Key]struct{}
}

// New creates an Evaluator over the given function registry.
func New(registry *Registry, opts Options) *Evaluator {
	opts.Retry.normalize()
	return &Evaluator{
		registry: registry,
		opts:     opts,
		log:      logger.WithComponent("engine"),
		nodes:    make(map[eval.Key]*node),
		owners:   make(map[eval.Key]uint64),
		waits:    make(map[uint64]map[eval.Key]struct{}),
	}
}

// Subscribe registers a listener for pass events.
func (e *Evaluator) Subscribe(l Listener) {
	e.events.add(l)
}

// pass is the per-Eval state shared by all evaluation chains.
type pass struct {
	id     string
	cancel context.CancelFunc

	mu          sync.Mutex
	sawError    bool
	catastrophe error
}

func (p *pass) noteError() {
	p.mu.Lock()
	p.sawError = true
	p.mu.Unlock()
}

func (p *pass) noteCatastrophe(err error) {
	p.mu.Lock()
	if p.catastrophe == nil {
		p.catastrophe = err
	}
	p.sawError = true
	p.mu.Unlock()
	p.cancel()
}

// chain tracks the dependency path of one recursive evaluation, for cycle
// detection. A chain belongs to a single goroutine; extending it for a
// child node copies the path.
type chain struct {
	id     uint64
	pass   *pass
	path   []eval.Key
	onPath map[eval.Key]struct{}
}

func (e *Evaluator) newChain(p *pass) *chain {
	return &chain{
		id:     e.chainID.Add(1),
		pass:   p,
		onPath: make(map[eval.Key]struct{}),
	}
}

func (c *chain) extend(key eval.Key) *chain {
	onPath := make(map[eval.Key]struct{}, len(c.onPath)+1)
	for k := range c.onPath {
		onPath[k] = struct{}{}
	}
	onPath[key] = struct{}{}
	path := make([]eval.Key, len(c.path), len(c.path)+1)
	copy(path, c.path)
	return &chain{id: c.id, pass: c.pass, path: append(path, key), onPath: onPath}
}

// Eval evaluates the given root keys and returns the pass outcome. The
// returned error covers only request-level problems (no roots, context
// already cancelled); per-key failures are reported inside the result.
func (e *Evaluator) Eval(ctx context.Context, roots ...eval.Key) (*eval.Result[eval.Value], error) {
	if len(roots) == 0 {
		return nil, errors.InvalidGraph("at least one root key is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Interrupted(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := &pass{id: uuid.NewString(), cancel: cancel}
	start := time.Now()
	e.events.emit(Event{Type: EventPassStarted, PassID: p.id, Roots: len(roots)})
	e.log.Info("evaluation pass started", logger.Fields(
		"pass_id", p.id,
		"roots", len(roots),
		"keep_going", e.opts.KeepGoing,
	))

	type rootOutcome struct {
		value   eval.Value
		errInfo *eval.ErrorInfo
	}
	outcomes := make([]rootOutcome, len(roots))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.concurrency(len(roots)))
	for i, root := range roots {
		wg.Add(1)
		go func(i int, root eval.Key) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			value, errInfo := e.evalKey(ctx, e.newChain(p), root)
			outcomes[i] = rootOutcome{value: value, errInfo: errInfo}
			if errInfo != nil && !e.opts.KeepGoing {
				cancel()
			}
		}(i, root)
	}
	wg.Wait()

	realFailure := false
	for _, o := range outcomes {
		if o.errInfo != nil && !isInterrupted(o.errInfo) {
			realFailure = true
			break
		}
	}

	builder := eval.NewBuilder[eval.Value]()
	seen := make(map[eval.Key]struct{}, len(roots))
	for i, root := range roots {
		if _, dup := seen[root]; dup {
			continue
		}
		seen[root] = struct{}{}
		o := outcomes[i]
		if o.errInfo == nil {
			builder.AddResult(root, o.value)
			continue
		}
		// A fail-fast cancel interrupts the other roots; those are noise,
		// the first failure is the pass outcome.
		if !e.opts.KeepGoing && realFailure && isInterrupted(o.errInfo) {
			continue
		}
		builder.AddError(root, o.errInfo)
	}

	p.mu.Lock()
	sawError := p.sawError
	catastrophe := p.catastrophe
	p.mu.Unlock()

	builder.SetHasError(sawError)
	if catastrophe != nil {
		builder.SetCatastrophe(catastrophe)
	}
	builder.SetGraph(e.Graph())
	result := builder.Build()

	duration := time.Since(start)
	e.events.emit(Event{
		Type:       EventPassFinished,
		PassID:     p.id,
		Roots:      len(roots),
		DurationMS: duration.Milliseconds(),
	})
	e.log.Info("evaluation pass finished", logger.Fields(
		"pass_id", p.id,
		"duration", duration.String(),
		"has_error", sawError,
	))
	return result, nil
}

// Invalidate marks the given keys and everything that transitively depends
// on them for re-evaluation in the next pass. Directly invalidated keys
// are always recomputed; transitively dirtied keys may be revalidated
// without recomputation when their dependency fingerprints are unchanged.
func (e *Evaluator) Invalidate(keys ...eval.Key) {
	e.mu.Lock()
	defer e.mu.Unlock()

	queue := make([]eval.Key, 0, len(keys))
	for _, key := range keys {
		if n, ok := e.nodes[key]; ok && n.status == statusDone {
			n.dirty = true
			n.invalidated = true
			queue = append(queue, key)
		}
	}

	dirtied := 0
	seen := make(map[eval.Key]struct{}, len(queue))
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		n, ok := e.nodes[key]
		if !ok {
			continue
		}
		for rdep := range n.rdeps {
			if rn, ok := e.nodes[rdep]; ok && rn.status == statusDone {
				rn.dirty = true
				queue = append(queue, rdep)
			}
		}
		dirtied++
	}

	e.log.Debug("invalidated nodes", logger.Fields("requested", len(keys), "dirtied", dirtied))
}

// evalKey evaluates one key within a chain, memoized. It returns the value
// or the error descriptor; exactly one is non-nil.
func (e *Evaluator) evalKey(ctx context.Context, c *chain, key eval.Key) (eval.Value, *eval.ErrorInfo) {
	if _, on := c.onPath[key]; on {
		return nil, e.cycleError(c, key)
	}

	for {
		e.mu.Lock()
		n, ok := e.nodes[key]

		if ok && n.status == statusDone && !n.dirty {
			e.mu.Unlock()
			if n.errInfo != nil {
				c.pass.noteError()
				return nil, n.errInfo
			}
			e.events.emit(Event{Type: EventNodeCached, PassID: c.pass.id, Key: keyString(key), Kind: key.Kind()})
			return n.value, nil
		}

		if ok && n.status == statusPending {
			if cycleKeys, deadlock := e.waitWouldCycle(c.id, key); deadlock {
				e.mu.Unlock()
				return nil, e.crossChainCycleError(c, key, cycleKeys)
			}
			e.noteWait(c.id, key)
			done := n.done
			e.mu.Unlock()

			select {
			case <-done:
				e.mu.Lock()
				e.clearWait(c.id, key)
				e.mu.Unlock()
				continue
			case <-ctx.Done():
				e.mu.Lock()
				e.clearWait(c.id, key)
				e.mu.Unlock()
				c.pass.noteError()
				return nil, interruptedInfo(key, ctx.Err())
			}
		}

		// Claim the key for this chain. A previous done-but-dirty node
		// hands its memo state to the fresh entry for change pruning.
		fresh := newNode(key)
		if ok {
			fresh.carryOver(n)
		}
		e.nodes[key] = fresh
		e.owners[key] = c.id
		e.mu.Unlock()
		return e.compute(ctx, c, fresh, n)
	}
}

// compute runs the node's function (or revalidates a dirty node) and
// records the outcome in the memo table.
func (e *Evaluator) compute(ctx context.Context, c *chain, n *node, prev *node) (eval.Value, *eval.ErrorInfo) {
	key := n.key
	start := time.Now()
	e.events.emit(Event{Type: EventNodeStarted, PassID: c.pass.id, Key: keyString(key), Kind: key.Kind()})

	child := c.extend(key)

	if prev != nil && prev.dirty && !prev.invalidated && prev.errInfo == nil && len(prev.deps) > 0 {
		if depsFp, ok := e.revalidateDeps(ctx, child, prev.deps); ok && depsFp == prev.depsFp {
			n.deps = prev.deps
			n.value = prev.value
			n.valueFp = prev.valueFp
			n.depsFp = depsFp
			e.finish(n, nil)
			e.events.emit(Event{
				Type:       EventNodePruned,
				PassID:     c.pass.id,
				Key:        keyString(key),
				Kind:       key.Kind(),
				DurationMS: time.Since(start).Milliseconds(),
			})
			return n.value, nil
		}
	}

	fn, registered := e.registry.Get(key.Kind())
	if !registered {
		errInfo := &eval.ErrorInfo{Err: errors.NoFunction(key.Kind()), RootCauses: []eval.Key{key}}
		c.pass.noteError()
		e.finish(n, errInfo)
		e.events.emit(Event{Type: EventNodeFailed, PassID: c.pass.id, Key: keyString(key), Kind: key.Kind(), Error: errInfo.Error()})
		return nil, errInfo
	}

	env := &funcEnv{
		ev:    e,
		chain: child,
		log:   e.log.WithFields(logger.Fields("key", keyString(key), "pass_id", c.pass.id)),
	}

	value, err := computeWithRetry(ctx, e.opts.Retry, key, func() (eval.Value, error) {
		return e.runFunc(ctx, fn, key, env, c.pass)
	}, func(attempt int, attemptErr error, backoff time.Duration) {
		e.events.emit(Event{
			Type:    EventNodeRetried,
			PassID:  c.pass.id,
			Key:     keyString(key),
			Kind:    key.Kind(),
			Attempt: attempt,
			Error:   attemptErr.Error(),
		})
		e.log.Warn("retrying node after transient failure", logger.Fields(
			"key", keyString(key),
			"attempt", attempt,
			"backoff", backoff.String(),
			"error", attemptErr.Error(),
		))
	})

	duration := time.Since(start)
	n.deps = env.snapshotDeps()

	if err == nil && value == nil {
		err = errors.Internal(fmt.Errorf("function for kind %q returned a nil value for %v", key.Kind(), key))
	}

	if err != nil {
		errInfo := toErrorInfo(key, err)
		c.pass.noteError()
		e.finish(n, errInfo)
		e.events.emit(Event{
			Type:       EventNodeFailed,
			PassID:     c.pass.id,
			Key:        keyString(key),
			Kind:       key.Kind(),
			Error:      errInfo.Error(),
			DurationMS: duration.Milliseconds(),
		})
		e.log.Debug("node failed", logger.Fields("key", keyString(key), "error", errInfo.Error()))
		return nil, errInfo
	}

	n.value = value
	n.valueFp = fingerprint.Hash(value)
	n.depsFp = e.depsFingerprint(n.deps)
	e.finish(n, nil)
	e.events.emit(Event{
		Type:       EventNodeComputed,
		PassID:     c.pass.id,
		Key:        keyString(key),
		Kind:       key.Kind(),
		DurationMS: duration.Milliseconds(),
	})
	return value, nil
}

// runFunc executes Compute with panic containment: a panicking function is
// an unrecoverable pass-level failure, not a per-key outcome.
func (e *Evaluator) runFunc(ctx context.Context, fn Func, key eval.Key, env Env, p *pass) (value eval.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			cat := errors.Catastrophic(fmt.Errorf("panic evaluating %v: %v", key, r))
			p.noteCatastrophe(cat)
			e.log.Error("node evaluation panicked", logger.Fields(
				"key", keyString(key),
				"panic", fmt.Sprint(r),
			))
			value, err = nil, cat
		}
	}()
	return fn.Compute(ctx, key, env)
}

// finish seals a node into the memo table and releases waiters.
func (e *Evaluator) finish(n *node, errInfo *eval.ErrorInfo) {
	e.mu.Lock()
	n.errInfo = errInfo
	n.status = statusDone
	n.dirty = false
	n.invalidated = false
	for _, dep := range n.deps {
		if dn, ok := e.nodes[dep]; ok {
			dn.rdeps[n.key] = struct{}{}
		}
	}
	delete(e.owners, n.key)
	e.mu.Unlock()
	close(n.done)
}

// revalidateDeps re-evaluates a dirty node's recorded dependencies and
// returns their combined fingerprint. ok is false when any dependency
// failed, in which case the node must recompute so its function sees the
// failure.
func (e *Evaluator) revalidateDeps(ctx context.Context, child *chain, deps []eval.Key) (fingerprint.Fingerprint, bool) {
	fps := make([]fingerprint.Fingerprint, 0, len(deps))
	for _, dep := range deps {
		if _, errInfo := e.evalKey(ctx, child, dep); errInfo != nil {
			return fingerprint.Zero, false
		}
		fps = append(fps, e.valueFingerprint(dep))
	}
	return fingerprint.Combine(fps...), true
}

func (e *Evaluator) depsFingerprint(deps []eval.Key) fingerprint.Fingerprint {
	fps := make([]fingerprint.Fingerprint, 0, len(deps))
	for _, dep := range deps {
		fps = append(fps, e.valueFingerprint(dep))
	}
	return fingerprint.Combine(fps...)
}

func (e *Evaluator) valueFingerprint(key eval.Key) fingerprint.Fingerprint {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n, ok := e.nodes[key]; ok {
		return n.valueFp
	}
	return fingerprint.Zero
}

// noteWait records that chainID is blocked on key. Caller must hold e.mu.
func (e *Evaluator) noteWait(chainID uint64, key eval.Key) {
	ws, ok := e.waits[chainID]
	if !ok {
		ws = make(map[eval.Key]struct{})
		e.waits[chainID] = ws
	}
	ws[key] = struct{}{}
}

// clearWait removes a recorded wait. Caller must hold e.mu.
func (e *Evaluator) clearWait(chainID uint64, key eval.Key) {
	ws, ok := e.waits[chainID]
	if !ok {
		return
	}
	delete(ws, key)
	if len(ws) == 0 {
		delete(e.waits, chainID)
	}
}

// waitWouldCycle reports whether blocking chainID on key would deadlock:
// the key's owning chain is itself (transitively) blocked on a key owned
// by chainID. A blocked chain can hold several waits at once, so every
// recorded wait is explored. Caller must hold e.mu.
func (e *Evaluator) waitWouldCycle(chainID uint64, key eval.Key) ([]eval.Key, bool) {
	visited := make(map[uint64]struct{})
	var walk func(owner uint64, trail []eval.Key) ([]eval.Key, bool)
	walk = func(owner uint64, trail []eval.Key) ([]eval.Key, bool) {
		if owner == chainID {
			return trail, true
		}
		if _, seen := visited[owner]; seen {
			return nil, false
		}
		visited[owner] = struct{}{}
		for next := range e.waits[owner] {
			nextOwner, ok := e.owners[next]
			if !ok {
				continue
			}
			extended := make([]eval.Key, len(trail), len(trail)+1)
			copy(extended, trail)
			if cycle, found := walk(nextOwner, append(extended, next)); found {
				return cycle, true
			}
		}
		return nil, false
	}

	owner, ok := e.owners[key]
	if !ok {
		return nil, false
	}
	return walk(owner, []eval.Key{key})
}

func (e *Evaluator) cycleError(c *chain, key eval.Key) *eval.ErrorInfo {
	cycle := cyclePath(c.path, key)
	evalErr := errors.CycleDetected(formatKeyPath(cycle))
	errInfo := &eval.ErrorInfo{Err: evalErr, RootCauses: []eval.Key{key}, Cycles: [][]eval.Key{cycle}}
	c.pass.noteError()
	e.events.emit(Event{Type: EventNodeFailed, PassID: c.pass.id, Key: keyString(key), Kind: key.Kind(), Error: evalErr.Error()})
	e.log.Warn("dependency cycle detected", logger.Fields(
		"pass_id", c.pass.id,
		"cycle", formatKeyPath(cycle),
	))
	return errInfo
}

func (e *Evaluator) crossChainCycleError(c *chain, key eval.Key, cycleKeys []eval.Key) *eval.ErrorInfo {
	cycle := append(cycleKeys, key)
	evalErr := errors.CycleDetected(formatKeyPath(cycle))
	errInfo := &eval.ErrorInfo{Err: evalErr, RootCauses: []eval.Key{key}, Cycles: [][]eval.Key{cycle}}
	c.pass.noteError()
	e.events.emit(Event{Type: EventNodeFailed, PassID: c.pass.id, Key: keyString(key), Kind: key.Kind(), Error: evalErr.Error()})
	e.log.Warn("dependency cycle detected across evaluation chains", logger.Fields(
		"pass_id", c.pass.id,
		"cycle", formatKeyPath(cycle),
	))
	return errInfo
}

func (e *Evaluator) concurrency(rootCount int) int {
	if e.opts.Parallelism <= 0 || e.opts.Parallelism > rootCount {
		return rootCount
	}
	return e.opts.Parallelism
}

// toErrorInfo converts a Compute error into an ErrorInfo, propagating root
// causes when the error is (or wraps) a dependency's descriptor.
func toErrorInfo(key eval.Key, err error) *eval.ErrorInfo {
	var depInfo *eval.ErrorInfo
	if stderrors.As(err, &depInfo) {
		return &eval.ErrorInfo{
			Err:        err,
			RootCauses: depInfo.RootCauses,
			Cycles:     depInfo.Cycles,
			Transient:  depInfo.Transient,
		}
	}
	return &eval.ErrorInfo{
		Err:        err,
		RootCauses: []eval.Key{key},
		Transient:  errors.IsRetryable(err),
	}
}

func interruptedInfo(key eval.Key, cause error) *eval.ErrorInfo {
	return &eval.ErrorInfo{
		Err:        errors.Interrupted(cause),
		RootCauses: []eval.Key{key},
	}
}

func isInterrupted(errInfo *eval.ErrorInfo) bool {
	if evalErr, ok := errors.AsEvalError(errInfo.Err); ok {
		return evalErr.Code == errors.ErrCodeInterrupted
	}
	return false
}

// cyclePath returns the cycle slice key -> ... -> key from the chain path.
func cyclePath(path []eval.Key, key eval.Key) []eval.Key {
	for i, k := range path {
		if k == key {
			cycle := make([]eval.Key, len(path)-i, len(path)-i+1)
			copy(cycle, path[i:])
			return append(cycle, key)
		}
	}
	return []eval.Key{key, key}
}

func formatKeyPath(keys []eval.Key) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, keyString(k))
	}
	return strings.Join(parts, " -> ")
}

func keyString(key eval.Key) string {
	return fmt.Sprint(key)
}
