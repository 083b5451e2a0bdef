// Package fingerprint provides stable content digests for evaluated
// values, used by the engine to decide whether a cached node can be
// reused after its dependencies were re-evaluated.
//
// Digests are BLAKE2b-256 over a deterministic JSON encoding of the
// value. Two values with the same encoding always produce the same
// fingerprint, so a node whose dependency fingerprints are unchanged
// can be marked clean without recomputing.
package fingerprint
