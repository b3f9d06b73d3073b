package nodes_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// atanLUT builds the reference table: breakpoints [-5..5] step 1 with
// table = atan(x), wired to a double input.
func atanLUT(t *testing.T, interp nodes.InterpMethod, extrap nodes.ExtrapMethod) (*core.Design, *nodes.LUT) {
	t.Helper()
	var bp, td []numeric.NumericValue
	for x := -5; x <= 5; x++ {
		bp = append(bp, numeric.NewIntValue(int64(x)))
		td = append(td, numeric.NewRealValue(math.Atan(float64(x))))
	}
	l := nodes.NewLUT("atan", nil, bp, td, interp, extrap, nodes.SearchEvenlySpaced)

	d := core.NewDesign()
	d.AddNode(l)
	dbl := numeric.NewDataType(true, true, false, 64, 0, nil)
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(0), l.InputPort(0), dbl, -1))
	d.AddArc(core.NewArc(l.OutputPort(0), d.TerminatorMaster().InputPort(0), dbl, -1))
	d.AssignNodeIDs()

	return d, l
}

// TestLUT_ValidatePasses accepts the evenly spaced atan table.
func TestLUT_ValidatePasses(t *testing.T) {
	_, l := atanLUT(t, nodes.InterpNearest, nodes.ExtrapClip)
	assert.NoError(t, l.Validate())
}

// TestLUT_ValidateRejectsUneven rejects non-uniform breakpoints.
func TestLUT_ValidateRejectsUneven(t *testing.T) {
	bp := []numeric.NumericValue{
		numeric.NewIntValue(0), numeric.NewIntValue(1), numeric.NewIntValue(3),
	}
	td := []numeric.NumericValue{
		numeric.NewRealValue(0), numeric.NewRealValue(1), numeric.NewRealValue(2),
	}
	l := nodes.NewLUT("bad", nil, bp, td, nodes.InterpFlat, nodes.ExtrapNoCheck, nodes.SearchEvenlySpaced)
	d := core.NewDesign()
	d.AddNode(l)
	dbl := numeric.NewDataType(true, true, false, 64, 0, nil)
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(0), l.InputPort(0), dbl, -1))
	d.AddArc(core.NewArc(l.OutputPort(0), d.TerminatorMaster().InputPort(0), dbl, -1))

	err := l.Validate()
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Contains(t, err.Error(), "bad")
}

// TestLUT_NearestIndexExpression checks the floating-input index per
// the scaled-truncation rule with the 0.5 rounding bias.
func TestLUT_NearestIndexExpression(t *testing.T) {
	_, l := atanLUT(t, nodes.InterpNearest, nodes.ExtrapNoCheck)
	q := core.NewStmtQueue()
	expr, err := l.EmitValueExpr(q, 0, false)
	require.NoError(t, err)

	stmts := strings.Join(q.Statements(), "\n")
	assert.Contains(t, stmts, "- (-5))/1 + 0.5")
	assert.Contains(t, expr.Text, "_table[")
}

// TestLUT_FlatHasNoBias checks flat interpolation omits the bias.
func TestLUT_FlatHasNoBias(t *testing.T) {
	_, l := atanLUT(t, nodes.InterpFlat, nodes.ExtrapNoCheck)
	q := core.NewStmtQueue()
	_, err := l.EmitValueExpr(q, 0, false)
	require.NoError(t, err)

	stmts := strings.Join(q.Statements(), "\n")
	assert.NotContains(t, stmts, "0.5")
}

// TestLUT_ClipBranch checks clip extrapolation clamps to the endpoint
// indices 0 and 10.
func TestLUT_ClipBranch(t *testing.T) {
	_, l := atanLUT(t, nodes.InterpNearest, nodes.ExtrapClip)
	q := core.NewStmtQueue()
	_, err := l.EmitValueExpr(q, 0, false)
	require.NoError(t, err)

	stmts := strings.Join(q.Statements(), "\n")
	assert.Contains(t, stmts, "= 0;")
	assert.Contains(t, stmts, "= 10;")
	assert.Contains(t, stmts, "if (")
}

// TestLUT_IndexEmittedOncePerPass checks the index variable is emitted
// once even when the expression is requested repeatedly in one pass.
func TestLUT_IndexEmittedOncePerPass(t *testing.T) {
	_, l := atanLUT(t, nodes.InterpNearest, nodes.ExtrapNoCheck)
	q := core.NewStmtQueue()
	_, err := l.EmitValueExpr(q, 0, false)
	require.NoError(t, err)
	first := q.Len()
	_, err = l.EmitValueExpr(q, 0, false)
	require.NoError(t, err)
	assert.Equal(t, first, q.Len())

	// a fresh pass re-emits
	q2 := core.NewStmtQueue()
	_, err = l.EmitValueExpr(q2, 0, false)
	require.NoError(t, err)
	assert.NotZero(t, q2.Len())
}

// TestLUT_GlobalTableDecl checks the table is a file-scope const array.
func TestLUT_GlobalTableDecl(t *testing.T) {
	_, l := atanLUT(t, nodes.InterpNearest, nodes.ExtrapClip)
	require.True(t, l.HasGlobalDecl())
	decl := l.GlobalDeclText()
	assert.Contains(t, decl, "const ")
	assert.Contains(t, decl, "_table[11]")
}

// TestLUT_UnsupportedSearchRejectedAtEmission checks stored-but-unemittable
// search methods raise ErrUnsupported.
func TestLUT_UnsupportedSearchRejectedAtEmission(t *testing.T) {
	var bp, td []numeric.NumericValue
	for x := 0; x < 4; x++ {
		bp = append(bp, numeric.NewIntValue(int64(x)))
		td = append(td, numeric.NewRealValue(float64(x)))
	}
	l := nodes.NewLUT("bin", nil, bp, td, nodes.InterpFlat, nodes.ExtrapNoCheck, nodes.SearchBinary)
	d := core.NewDesign()
	d.AddNode(l)
	dbl := numeric.NewDataType(true, true, false, 64, 0, nil)
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(0), l.InputPort(0), dbl, -1))
	d.AddArc(core.NewArc(l.OutputPort(0), d.TerminatorMaster().InputPort(0), dbl, -1))

	q := core.NewStmtQueue()
	_, err := l.EmitValueExpr(q, 0, false)
	assert.ErrorIs(t, err, nodes.ErrUnsupported)
}
