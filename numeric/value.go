package numeric

import (
	"fmt"
	"strconv"
)

// NumericValue is a tagged variant over an integer pair or a
// complex-double, used for constants and initial conditions.
//
// Fractional values are stored as complex128 (the imaginary part is zero
// unless Complex is set); integer values are stored as an int64 pair.
type NumericValue struct {
	realInt    int64
	imagInt    int64
	cplxVal    complex128
	fractional bool
	cplx       bool
}

// NewIntValue returns an integer NumericValue.
func NewIntValue(v int64) NumericValue {
	return NumericValue{realInt: v}
}

// NewComplexIntValue returns an integer NumericValue with real and
// imaginary components.
func NewComplexIntValue(re, im int64) NumericValue {
	return NumericValue{realInt: re, imagInt: im, cplx: true}
}

// NewRealValue returns a fractional NumericValue.
func NewRealValue(v float64) NumericValue {
	return NumericValue{cplxVal: complex(v, 0), fractional: true}
}

// NewComplexValue returns a fractional complex NumericValue.
func NewComplexValue(v complex128) NumericValue {
	return NumericValue{cplxVal: v, fractional: true, cplx: true}
}

// IsFractional reports whether the value is stored as a double.
func (v NumericValue) IsFractional() bool { return v.fractional }

// IsComplex reports whether the value carries an imaginary component.
func (v NumericValue) IsComplex() bool { return v.cplx }

// Real returns the real component as a float64 regardless of variant.
func (v NumericValue) Real() float64 {
	if v.fractional {
		return real(v.cplxVal)
	}

	return float64(v.realInt)
}

// Imag returns the imaginary component as a float64 regardless of variant.
func (v NumericValue) Imag() float64 {
	if v.fractional {
		return imag(v.cplxVal)
	}

	return float64(v.imagInt)
}

// Int64 returns the real component of an integer value. For fractional
// values the double is truncated.
func (v NumericValue) Int64() int64 {
	if v.fractional {
		return int64(real(v.cplxVal))
	}

	return v.realInt
}

// IsZero reports whether both components are zero.
func (v NumericValue) IsZero() bool {
	return v.Real() == 0 && v.Imag() == 0
}

// Equals reports component-wise equality after promoting both operands
// to doubles, so 2 equals 2.0.
func (v NumericValue) Equals(o NumericValue) bool {
	return v.Real() == o.Real() && v.Imag() == o.Imag()
}

// Component renders one component (real or imaginary) as a C literal.
func (v NumericValue) Component(imag bool) string {
	if imag {
		return formatComponent(v.Imag(), v.fractional)
	}

	return formatComponent(v.Real(), v.fractional)
}

func formatComponent(f float64, fractional bool) string {
	if !fractional {
		return strconv.FormatInt(int64(f), 10)
	}

	return strconv.FormatFloat(f, 'g', -1, 64)
}

// String renders the value for labels and debug dumps.
func (v NumericValue) String() string {
	if !v.cplx {
		return v.Component(false)
	}

	return fmt.Sprintf("%s + %si", v.Component(false), v.Component(true))
}

// Broadcast returns a sequence of n copies of v, used to expand a scalar
// initial condition to a vector signal.
func (v NumericValue) Broadcast(n int) []NumericValue {
	out := make([]NumericValue, n)
	for i := range out {
		out[i] = v
	}

	return out
}

// ZeroValue returns the additive identity in the variant matching dt.
func ZeroValue(dt DataType) NumericValue {
	if dt.FloatingPt {
		if dt.Complex {
			return NewComplexValue(0)
		}

		return NewRealValue(0)
	}
	if dt.Complex {
		return NewComplexIntValue(0, 0)
	}

	return NewIntValue(0)
}
