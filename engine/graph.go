package engine

import (
	"context"
	"sort"

	"github.com/kbukum/evalgraph/errors"
	"github.com/kbukum/evalgraph/eval"
)

// Graph returns a read-only walkable view over the evaluator's memo
// table, suitable for attaching to a pass result. The view is live: it
// reflects nodes evaluated by later passes too.
func (e *Evaluator) Graph() eval.Walkable {
	return &memoGraph{ev: e}
}

// NodeInfo is a point-in-time summary of one memo table entry.
type NodeInfo struct {
	Key   string `json:"key"`
	Kind  string `json:"kind"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
	Deps  int    `json:"deps"`
	Rdeps int    `json:"rdeps"`
	Dirty bool   `json:"dirty"`
}

// Snapshot returns a summary of every node in the memo table, sorted by key.
func (e *Evaluator) Snapshot() []NodeInfo {
	e.mu.Lock()
	infos := make([]NodeInfo, 0, len(e.nodes))
	for key, n := range e.nodes {
		info := NodeInfo{
			Key:   keyString(key),
			Kind:  key.Kind(),
			Done:  n.status == statusDone,
			Deps:  len(n.deps),
			Rdeps: len(n.rdeps),
			Dirty: n.dirty,
		}
		if n.errInfo != nil {
			info.Error = n.errInfo.Error()
		}
		infos = append(infos, info)
	}
	e.mu.Unlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}

type memoGraph struct {
	ev *Evaluator
}

func (g *memoGraph) Done(key eval.Key) bool {
	g.ev.mu.Lock()
	defer g.ev.mu.Unlock()
	n, ok := g.ev.nodes[key]
	return ok && n.status == statusDone
}

func (g *memoGraph) Value(ctx context.Context, key eval.Key) (eval.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Interrupted(err)
	}
	g.ev.mu.Lock()
	defer g.ev.mu.Unlock()
	n, ok := g.ev.nodes[key]
	if !ok || n.status != statusDone || n.errInfo != nil {
		return nil, nil
	}
	return n.value, nil
}

func (g *memoGraph) Error(ctx context.Context, key eval.Key) (*eval.ErrorInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Interrupted(err)
	}
	g.ev.mu.Lock()
	defer g.ev.mu.Unlock()
	n, ok := g.ev.nodes[key]
	if !ok || n.status != statusDone {
		return nil, nil
	}
	return n.errInfo, nil
}

func (g *memoGraph) DirectDeps(ctx context.Context, key eval.Key) ([]eval.Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Interrupted(err)
	}
	g.ev.mu.Lock()
	defer g.ev.mu.Unlock()
	n, ok := g.ev.nodes[key]
	if !ok || n.status != statusDone {
		return nil, errors.NotFound("node", keyString(key))
	}
	deps := make([]eval.Key, len(n.deps))
	copy(deps, n.deps)
	return deps, nil
}

func (g *memoGraph) ReverseDeps(ctx context.Context, key eval.Key) ([]eval.Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Interrupted(err)
	}
	g.ev.mu.Lock()
	defer g.ev.mu.Unlock()
	n, ok := g.ev.nodes[key]
	if !ok || n.status != statusDone {
		return nil, errors.NotFound("node", keyString(key))
	}
	rdeps := make([]eval.Key, 0, len(n.rdeps))
	for rdep := range n.rdeps {
		rdeps = append(rdeps, rdep)
	}
	sort.Slice(rdeps, func(i, j int) bool {
		return keyString(rdeps[i]) < keyString(rdeps[j])
	})
	return rdeps, nil
}
