package numeric_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// TestParse_Floats covers the "single" and "double" productions.
func TestParse_Floats(t *testing.T) {
	dt, err := numeric.ParseDataTypeString("single")
	require.NoError(t, err)
	assert.True(t, dt.FloatingPt)
	assert.True(t, dt.Signed)
	assert.Equal(t, 32, dt.TotalBits)

	dt, err = numeric.ParseDataTypeString("double")
	require.NoError(t, err)
	assert.True(t, dt.FloatingPt)
	assert.Equal(t, 64, dt.TotalBits)
}

// TestParse_Bools covers both boolean spellings.
func TestParse_Bools(t *testing.T) {
	for _, s := range []string{"boolean", "logical"} {
		dt, err := numeric.ParseDataTypeString(s)
		require.NoError(t, err, s)
		assert.True(t, dt.IsBool(), s)
	}
}

// TestParse_Ints covers signed and unsigned integer widths.
func TestParse_Ints(t *testing.T) {
	cases := []struct {
		in     string
		signed bool
		bits   int
	}{
		{"int8", true, 8},
		{"uint16", false, 16},
		{"int32", true, 32},
		{"uint64", false, 64},
	}
	for _, c := range cases {
		dt, err := numeric.ParseDataTypeString(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.signed, dt.Signed, c.in)
		assert.Equal(t, c.bits, dt.TotalBits, c.in)
		assert.False(t, dt.FloatingPt, c.in)
	}
}

// TestParse_IntBadWidth rejects non-standard integer widths.
func TestParse_IntBadWidth(t *testing.T) {
	_, err := numeric.ParseDataTypeString("int24")
	assert.ErrorIs(t, err, numeric.ErrUnknownType)
}

// TestParse_FixSuffix covers the (u|s)fix<bits>[_En<frac>] production.
func TestParse_FixSuffix(t *testing.T) {
	dt, err := numeric.ParseDataTypeString("ufix48_En12")
	require.NoError(t, err)
	assert.False(t, dt.Signed)
	assert.Equal(t, 48, dt.TotalBits)
	assert.Equal(t, 12, dt.FractionalBits)

	dt, err = numeric.ParseDataTypeString("sfix16")
	require.NoError(t, err)
	assert.True(t, dt.Signed)
	assert.Equal(t, 16, dt.TotalBits)
	assert.Equal(t, 0, dt.FractionalBits)
}

// TestParse_Fixdt covers the fixdt(s,bits,frac) production.
func TestParse_Fixdt(t *testing.T) {
	dt, err := numeric.ParseDataTypeString("fixdt(1,32,7)")
	require.NoError(t, err)
	assert.True(t, dt.Signed)
	assert.Equal(t, 32, dt.TotalBits)
	assert.Equal(t, 7, dt.FractionalBits)

	dt, err = numeric.ParseDataTypeString("fixdt(0, 24, 0)")
	require.NoError(t, err)
	assert.False(t, dt.Signed)
	assert.Equal(t, 24, dt.TotalBits)
}

// TestParse_Unknown rejects anything outside the grammar.
func TestParse_Unknown(t *testing.T) {
	_, err := numeric.ParseDataTypeString("quaternion")
	assert.ErrorIs(t, err, numeric.ErrUnknownType)
}

// TestParse_RoundTrip checks String renders back into the grammar.
func TestParse_RoundTrip(t *testing.T) {
	for _, s := range []string{"single", "double", "boolean", "int16", "uint32", "sfix48_En12"} {
		dt, err := numeric.ParseDataTypeString(s)
		require.NoError(t, err, s)
		got, err := numeric.ParseDataTypeString(dt.String())
		require.NoError(t, err, s)
		assert.True(t, dt.EqualsIgnoringDimensions(got), s)
	}
}

// TestParseNumericLiterals covers scalar and array literals.
func TestParseNumericLiterals(t *testing.T) {
	vals, err := numeric.ParseNumericLiterals("[1, 2; 3]")
	require.NoError(t, err)
	require.Len(t, vals, 3)
	assert.Equal(t, int64(2), vals[1].Int64())

	vals, err = numeric.ParseNumericLiterals("2.5")
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.True(t, vals[0].IsFractional())
	assert.Equal(t, 2.5, vals[0].Real())

	vals, err = numeric.ParseNumericLiterals("3i")
	require.NoError(t, err)
	assert.True(t, vals[0].IsComplex())
	assert.Equal(t, 3.0, vals[0].Imag())

	_, err = numeric.ParseNumericLiterals("[1, two]")
	assert.ErrorIs(t, err, numeric.ErrBadLiteral)
}
