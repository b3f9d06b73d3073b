package numeric_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// TestDataType_ScalarInvariant checks scalar <=> product(dimensions)==1.
func TestDataType_ScalarInvariant(t *testing.T) {
	dt := numeric.NewDataType(false, true, false, 16, 0, nil)
	assert.True(t, dt.IsScalar())
	assert.Equal(t, 1, dt.NumElements())

	vec := numeric.NewDataType(false, true, false, 16, 0, []int{4})
	assert.True(t, vec.IsVector())
	assert.Equal(t, 4, vec.NumElements())

	mat := numeric.NewDataType(false, true, false, 16, 0, []int{2, 3})
	assert.Equal(t, 6, mat.NumElements())
}

// TestDataType_Validate rejects bad dimensions and bad float encodings.
func TestDataType_Validate(t *testing.T) {
	bad := numeric.DataType{TotalBits: 16, Dimensions: nil}
	assert.ErrorIs(t, bad.Validate(), numeric.ErrBadDimensions)

	badFloat := numeric.DataType{FloatingPt: true, Signed: false, TotalBits: 32, Dimensions: []int{1}}
	assert.Error(t, badFloat.Validate())

	ok := numeric.NewDataType(true, true, false, 64, 0, []int{8})
	assert.NoError(t, ok.Validate())
}

// TestDataType_CPUStorage checks width rounding to native storage types.
func TestDataType_CPUStorage(t *testing.T) {
	cases := []struct {
		bits    int
		storage int
	}{{1, 8}, {7, 8}, {9, 16}, {17, 32}, {33, 64}, {48, 64}}
	for _, c := range cases {
		dt := numeric.NewDataType(false, false, false, c.bits, 0, nil)
		assert.Equal(t, c.storage, dt.CPUStorageBits(), "bits=%d", c.bits)
	}
}

// TestDataType_CTypeName checks C rendering for representative types.
func TestDataType_CTypeName(t *testing.T) {
	assert.Equal(t, "float", numeric.NewDataType(true, true, false, 32, 0, nil).CTypeName())
	assert.Equal(t, "double", numeric.NewDataType(true, true, false, 64, 0, nil).CTypeName())
	assert.Equal(t, "bool", numeric.NewDataType(false, false, false, 1, 0, nil).CTypeName())
	assert.Equal(t, "uint64_t", numeric.NewDataType(false, false, false, 48, 12, nil).CTypeName())
	assert.Equal(t, "int16_t", numeric.NewDataType(false, true, false, 12, 3, nil).CTypeName())
}

// TestDataType_ExpandShrinkOutermost checks block expansion round trip.
func TestDataType_ExpandShrinkOutermost(t *testing.T) {
	dt := numeric.NewDataType(false, true, false, 16, 0, nil)
	b := dt.ExpandOutermost(4)
	require.Equal(t, []int{4}, b.Dimensions)

	back := b.ShrinkOutermost(4)
	assert.True(t, back.IsScalar())

	vec := numeric.NewDataType(false, true, false, 16, 0, []int{3, 2})
	bv := vec.ExpandOutermost(4)
	assert.Equal(t, []int{12, 2}, bv.Dimensions)
}

// TestVariable_CDecl checks declaration rendering with dims and init.
func TestVariable_CDecl(t *testing.T) {
	dt := numeric.NewDataType(false, true, false, 16, 0, []int{3})
	v := numeric.NewVariable("acc", dt, []numeric.NumericValue{numeric.NewIntValue(7)})
	assert.Equal(t, "int16_t acc[3] = {7, 7, 7}", v.CDecl(false, true, true))

	cdt := numeric.NewDataType(true, true, true, 64, 0, nil)
	cv := numeric.NewVariable("mix", cdt, nil)
	assert.Equal(t, "mix_re", cv.CName(false))
	assert.Equal(t, "mix_im", cv.CName(true))
	assert.Equal(t, "double mix_im = 0", cv.CDecl(true, true, true))
}
