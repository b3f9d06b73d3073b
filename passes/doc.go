// Package passes holds the general design passes: partition propagation
// from subsystems, pruning of unreachable nodes, disconnection of
// dangling arcs, expansion of high-level nodes to primitives, empty
// hierarchy cleanup, and state-update node insertion.
//
// Passes mutate the design through the batched add/remove API so the
// graph invariants are restored before the next pass reads it. A pass
// that finds nothing to do returns a zero count, not an error.
package passes
