package core

import "errors"

// Sentinel errors for the graph IR. Callers branch with errors.Is;
// violations carry the offending node's fully qualified name via %w
// wrapping at the raise site.
var (
	// ErrValidation indicates a node-level invariant was violated
	// (wrong arc count on a port, inconsistent type, bad parameter).
	ErrValidation = errors.New("core: validation failed")

	// ErrTransform indicates a pass-internal graph invariant was violated
	// (dangling arc, ID collision, illegal reparent).
	ErrTransform = errors.New("core: transform invariant violated")

	// ErrUnsupportedHook indicates a hook was invoked on a node variant
	// for which it is illegal (for example expanding a master node).
	ErrUnsupportedHook = errors.New("core: hook not supported by node variant")

	// ErrNotFound indicates a lookup referenced a node, arc, or path that
	// does not exist in the design.
	ErrNotFound = errors.New("core: not found")
)
