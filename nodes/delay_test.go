package nodes_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// wireDelay builds Input -> Delay -> Terminator so the delay has typed
// ports.
func wireDelay(d *core.Design, delay *nodes.Delay, dt numeric.DataType) {
	d.AddNode(delay)
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(0), delay.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(delay.OutputPort(0), d.TerminatorMaster().InputPort(0), dt, -1))
	d.AssignNodeIDs()
	d.AssignArcIDs()
}

func int16Scalar() numeric.DataType  { return numeric.NewDataType(false, true, false, 16, 0, nil) }
func int16Vec(n int) numeric.DataType {
	return numeric.NewDataType(false, true, false, 16, 0, []int{n})
}

// TestDelay_BufferSelection checks the automatic implementation rule:
// circular for N >= 2 or N == 1 with vector input, else shift register.
func TestDelay_BufferSelection(t *testing.T) {
	d := core.NewDesign()
	short := nodes.NewDelay("short", nil, 1, []numeric.NumericValue{numeric.NewIntValue(0)})
	wireDelay(d, short, int16Scalar())
	assert.False(t, short.UsesCircularBuffer())

	d2 := core.NewDesign()
	long := nodes.NewDelay("long", nil, 2, []numeric.NumericValue{numeric.NewIntValue(0), numeric.NewIntValue(0)})
	wireDelay(d2, long, int16Scalar())
	assert.True(t, long.UsesCircularBuffer())

	d3 := core.NewDesign()
	vec := nodes.NewDelay("vec", nil, 1, []numeric.NumericValue{numeric.NewIntValue(0)})
	wireDelay(d3, vec, int16Vec(4))
	assert.True(t, vec.UsesCircularBuffer())
}

// TestDelay_PowerOf2Rounding checks the buffer length rounds up and the
// update wraps by bitmask.
func TestDelay_PowerOf2Rounding(t *testing.T) {
	d := core.NewDesign()
	dl := nodes.NewDelay("dl", nil, 5, []numeric.NumericValue{numeric.NewIntValue(0)})
	dl.SetRoundToPowerOf2(true)
	wireDelay(d, dl, int16Scalar())
	dl.PropagateProperties()

	assert.Equal(t, 8, dl.BufferLength())

	q := core.NewStmtQueue()
	require.NoError(t, dl.EmitStateUpdate(q, nil))
	joined := fmt.Sprint(q.Statements())
	assert.Contains(t, joined, "& 7")
}

// TestDelay_ExtraSlot checks the +1 slot extends the buffer.
func TestDelay_ExtraSlot(t *testing.T) {
	d := core.NewDesign()
	dl := nodes.NewDelay("dl", nil, 3, []numeric.NumericValue{numeric.NewIntValue(0)})
	dl.SetAllocateExtraSpace(true)
	wireDelay(d, dl, int16Scalar())

	assert.Equal(t, 4, dl.BufferLength())
}

// TestDelay_StateFlags checks stateful marking and the combinational
// path rule.
func TestDelay_StateFlags(t *testing.T) {
	d := core.NewDesign()
	dl := nodes.NewDelay("dl", nil, 2, []numeric.NumericValue{numeric.NewIntValue(1), numeric.NewIntValue(2)})
	wireDelay(d, dl, int16Scalar())

	assert.True(t, dl.HasState())
	assert.False(t, dl.HasCombinationalPath())

	zero := nodes.NewDelay("zero", nil, 0, nil)
	assert.False(t, zero.HasState())
	assert.True(t, zero.HasCombinationalPath())
}

// TestDelay_InitialConditionBroadcast checks scalar initial conditions
// broadcast across the delay length and vector elements.
func TestDelay_InitialConditionBroadcast(t *testing.T) {
	d := core.NewDesign()
	dl := nodes.NewDelay("dl", nil, 3, []numeric.NumericValue{numeric.NewIntValue(7)})
	wireDelay(d, dl, int16Vec(2))
	dl.PropagateProperties()

	assert.Len(t, dl.InitCondition(), 6)
	for _, v := range dl.InitCondition() {
		assert.Equal(t, int64(7), v.Int64())
	}
}

// TestDelay_FirstInitialConditionSurfacesFirst checks the buffer layout
// puts initCondition[0] in the slot the first read returns.
func TestDelay_FirstInitialConditionSurfacesFirst(t *testing.T) {
	d := core.NewDesign()
	dl := nodes.NewDelay("dl", nil, 2, []numeric.NumericValue{numeric.NewIntValue(11), numeric.NewIntValue(22)})
	wireDelay(d, dl, int16Scalar())
	dl.PropagateProperties()

	vars := dl.StateVariables()
	require.NotEmpty(t, vars)
	buf := vars[0]

	q := core.NewStmtQueue()
	expr, err := dl.EmitValueExpr(q, 0, false)
	require.NoError(t, err)

	// resolve the emitted read index against the initializer layout:
	// offset starts at 0, so "(offset + 1) % 2" reads slot 1
	assert.Contains(t, expr.Text, buf.Name)
	init := buf.Init
	require.Len(t, init, 2)
	assert.Equal(t, int64(11), init[1].Int64(), "oldest slot read first must hold initCondition[0]")
	assert.Equal(t, int64(22), init[0].Int64())
}

// TestDelay_Validate rejects negative lengths and bad initial-condition
// counts.
func TestDelay_Validate(t *testing.T) {
	d := core.NewDesign()
	bad := nodes.NewDelay("bad", nil, 2, []numeric.NumericValue{numeric.NewIntValue(0), numeric.NewIntValue(0), numeric.NewIntValue(0)})
	wireDelay(d, bad, int16Scalar())
	assert.ErrorIs(t, bad.Validate(), core.ErrValidation)

	d2 := core.NewDesign()
	neg := nodes.NewDelay("neg", nil, -1, nil)
	wireDelay(d2, neg, int16Scalar())
	assert.ErrorIs(t, neg.Validate(), core.ErrValidation)
}

// TestTappedDelay_ExposesBuffer checks the tapped delay hands out the
// whole buffer and reserves the current-sample slot when requested.
func TestTappedDelay_ExposesBuffer(t *testing.T) {
	d := core.NewDesign()
	td := nodes.NewTappedDelay("td", nil, 3, []numeric.NumericValue{numeric.NewIntValue(0)}, true)
	d.AddNode(td)
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(0), td.InputPort(0), int16Scalar(), -1))
	d.AddArc(core.NewArc(td.OutputPort(0), d.TerminatorMaster().InputPort(0), int16Vec(4), -1))
	d.AssignNodeIDs()

	assert.True(t, td.AllocateExtraSpace())
	assert.Equal(t, 4, td.BufferLength())

	q := core.NewStmtQueue()
	expr, err := td.EmitValueExpr(q, 0, false)
	require.NoError(t, err)
	assert.True(t, expr.IsVariable)
	// the current sample was staged into the reserved slot first
	assert.NotZero(t, q.Len())
}
