// Package core defines the typed dataflow graph intermediate
// representation the compiler passes operate on: Node (polymorphic over
// the hook set in node.go), Port, Arc, Subsystem hierarchy, Context
// stacks, and the Design container with its five master sentinels.
//
// Mutation discipline: arcs maintain their endpoint sets automatically
// (connecting or disconnecting an arc updates both ports), and pass-level
// graph surgery goes through Design.AddRemoveNodesAndArcs, which applies
// additions before deletions so replacements can transfer edges safely.
//
// Ownership: the Design owns nodes and arcs; subsystems exclusively own
// their direct children; ports are owned by their node; back-references
// (port to node, arc to port) are non-owning. The graph is inherently
// cyclic (feedback loops), which is safe under Go's garbage collector.
//
// Errors:
//
//	ErrValidation      - a node-level invariant was violated.
//	ErrTransform       - a graph-surgery invariant was violated.
//	ErrUnsupportedHook - a hook illegal for the node variant was invoked.
//	ErrNotFound        - a lookup referenced a missing node or arc.
package core
