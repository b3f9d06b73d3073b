package nodes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// TestSum_SignedEmission checks the +- sign vector drives the emitted
// expression.
func TestSum_SignedEmission(t *testing.T) {
	d := core.NewDesign()
	s := nodes.NewSum("s", nil, []bool{true, false})
	d.AddNode(s)
	dt := int16Scalar()
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(0), s.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(1), s.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(s.OutputPort(0), d.OutputMaster().InputPort(0), dt, -1))
	d.AssignNodeIDs()

	require.NoError(t, s.Validate())
	q := core.NewStmtQueue()
	expr, err := s.EmitValueExpr(q, 0, false)
	require.NoError(t, err)
	assert.Equal(t, "(in_port0-in_port1)", expr.Text)
}

// TestSum_ParseSignString covers the sign grammar.
func TestSum_ParseSignString(t *testing.T) {
	signs, err := nodes.ParseSignString("++-")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false}, signs)

	_, err = nodes.ParseSignString("+x")
	assert.ErrorIs(t, err, nodes.ErrBadParameter)
}

// TestProduct_Emission checks multiply/divide chains.
func TestProduct_Emission(t *testing.T) {
	d := core.NewDesign()
	p := nodes.NewProduct("p", nil, []bool{true, false})
	d.AddNode(p)
	dt := int16Scalar()
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(0), p.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(1), p.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(p.OutputPort(0), d.OutputMaster().InputPort(0), dt, -1))
	d.AssignNodeIDs()

	q := core.NewStmtQueue()
	expr, err := p.EmitValueExpr(q, 0, false)
	require.NoError(t, err)
	assert.Equal(t, "(in_port0/in_port1)", expr.Text)
}

// TestCompare_Emission checks operator parsing and rendering.
func TestCompare_Emission(t *testing.T) {
	op, err := nodes.ParseCompareOp(">=")
	require.NoError(t, err)

	d := core.NewDesign()
	c := nodes.NewCompare("c", nil, op)
	d.AddNode(c)
	dt := int16Scalar()
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(0), c.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(1), c.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(c.OutputPort(0), d.OutputMaster().InputPort(0), dt, -1))
	d.AssignNodeIDs()

	q := core.NewStmtQueue()
	expr, err := c.EmitValueExpr(q, 0, false)
	require.NoError(t, err)
	assert.Equal(t, "(in_port0 >= in_port1)", expr.Text)
}

// TestConstant_VectorGlobalDecl checks vector constants emit a
// file-scope array and reference it by name.
func TestConstant_VectorGlobalDecl(t *testing.T) {
	vec := numeric.NewDataType(false, true, false, 16, 0, []int{3})
	c := nodes.NewConstant("k", nil, []numeric.NumericValue{
		numeric.NewIntValue(1), numeric.NewIntValue(2), numeric.NewIntValue(3),
	}, vec)
	c.SetID(9)

	require.True(t, c.HasGlobalDecl())
	assert.Contains(t, c.GlobalDeclText(), "{1, 2, 3}")

	q := core.NewStmtQueue()
	expr, err := c.EmitValueExpr(q, 0, false)
	require.NoError(t, err)
	assert.True(t, expr.IsVariable)
}

// TestMux_ConditionalChain checks the selector-driven expression.
func TestMux_ConditionalChain(t *testing.T) {
	d := core.NewDesign()
	m := nodes.NewMux("m", nil, 2)
	d.AddNode(m)
	sel := numeric.NewDataType(false, false, false, 8, 0, nil)
	dt := int16Scalar()
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(0), m.SelectorPort(), sel, -1))
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(1), m.DataPort(0), dt, -1))
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(2), m.DataPort(1), dt, -1))
	d.AddArc(core.NewArc(m.OutputPort(0), d.OutputMaster().InputPort(0), dt, -1))
	d.AssignNodeIDs()

	require.NoError(t, m.Validate())
	q := core.NewStmtQueue()
	expr, err := m.EmitValueExpr(q, 0, false)
	require.NoError(t, err)
	assert.Equal(t, "((in_port0 == 0) ? in_port1 : in_port2)", expr.Text)
	assert.Equal(t, 2, m.NumSubContexts())
}

// TestFanOut_EvaluatedOnce checks a fanned-out expression is captured
// into a temporary instead of being re-evaluated per consumer.
func TestFanOut_EvaluatedOnce(t *testing.T) {
	d := core.NewDesign()
	s := nodes.NewSum("s", nil, []bool{true, true})
	a := nodes.NewSum("a", nil, []bool{true, true})
	b := nodes.NewSum("b", nil, []bool{true, true})
	for _, n := range []core.Node{s, a, b} {
		d.AddNode(n)
	}
	dt := int16Scalar()
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(0), s.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(1), s.InputPort(1), dt, -1))
	// s fans out to both inputs of a and one of b
	d.AddArc(core.NewArc(s.OutputPort(0), a.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(s.OutputPort(0), a.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(s.OutputPort(0), b.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(2), b.InputPort(1), dt, -1))
	d.AssignNodeIDs()

	q := core.NewStmtQueue()
	exprA, err := a.EmitValueExpr(q, 0, false)
	require.NoError(t, err)
	exprB, err := b.EmitValueExpr(q, 0, false)
	require.NoError(t, err)

	// one temp assignment for s, reused by both consumers
	assert.Equal(t, 1, q.Len())
	assert.Contains(t, exprA.Text, "_t1")
	assert.Contains(t, exprB.Text, "_t1")
}
