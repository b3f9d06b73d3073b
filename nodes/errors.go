package nodes

import "errors"

// Sentinel errors for the node library. Validation failures wrap
// core.ErrValidation so callers can branch on the error kind; these
// sentinels refine the cause.
var (
	// ErrBadParameter indicates a node parameter outside its legal range
	// (negative delay, mismatched initial-condition count, non-uniform
	// LUT breakpoints).
	ErrBadParameter = errors.New("nodes: invalid node parameter")

	// ErrUnsupported indicates a stored configuration with no emission
	// path (cubic LUT interpolation, non-evenly-spaced search methods).
	ErrUnsupported = errors.New("nodes: configuration not supported for emission")
)
