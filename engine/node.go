package engine

import (
	"github.com/kbukum/evalgraph/eval"
	"github.com/kbukum/evalgraph/fingerprint"
)

type nodeStatus int

const (
	// statusPending: claimed by a chain, Compute in progress.
	statusPending nodeStatus = iota
	// statusDone: evaluation finished with a value or an error.
	statusDone
)

// node is one memo-table entry. All fields are guarded by the evaluator
// mutex except value/errInfo/deps/fingerprints, which are written once
// before done is closed and only read afterwards.
type node struct {
	key    eval.Key
	status nodeStatus
	// done is closed when the node reaches statusDone, releasing waiters
	// from other evaluation chains.
	done chan struct{}

	value   eval.Value
	errInfo *eval.ErrorInfo

	// deps are the dependencies requested during the last evaluation, in
	// request order.
	deps []eval.Key
	// rdeps are the keys that requested this node as a dependency.
	rdeps map[eval.Key]struct{}

	// valueFp digests the node's value; depsFp summarizes the dependency
	// values it was computed from, enabling change pruning.
	valueFp fingerprint.Fingerprint
	depsFp  fingerprint.Fingerprint

	// dirty marks the node for re-evaluation in the next pass.
	// invalidated additionally forces recomputation even when the
	// dependency fingerprints come out unchanged.
	dirty       bool
	invalidated bool
}

func newNode(key eval.Key) *node {
	return &node{
		key:    key,
		status: statusPending,
		done:   make(chan struct{}),
		rdeps:  make(map[eval.Key]struct{}),
	}
}

// carryOver copies the reusable memo state from a previous evaluation of
// the same key into a freshly claimed node.
func (n *node) carryOver(prev *node) {
	n.value = prev.value
	n.deps = prev.deps
	n.rdeps = prev.rdeps
	n.valueFp = prev.valueFp
	n.depsFp = prev.depsFp
	n.dirty = prev.dirty
	n.invalidated = prev.invalidated
}
