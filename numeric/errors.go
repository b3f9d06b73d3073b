package numeric

import "errors"

// Sentinel errors for the numeric package. Callers branch with errors.Is;
// lower layers attach context with %w.
var (
	// ErrUnknownType indicates a data-type string that matches no
	// production of the numeric data-type grammar.
	ErrUnknownType = errors.New("numeric: unknown data type string")

	// ErrBadDimensions indicates a DataType whose dimension vector is
	// empty or contains a non-positive entry.
	ErrBadDimensions = errors.New("numeric: invalid dimensions")

	// ErrBadLiteral indicates a numeric literal string that could not be
	// parsed into a NumericValue.
	ErrBadLiteral = errors.New("numeric: invalid numeric literal")

	// ErrBadWidth indicates a bit width outside the supported 1..64 range.
	ErrBadWidth = errors.New("numeric: invalid bit width")
)
