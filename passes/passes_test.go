package passes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
	"github.com/ucb-cyarp/vitis-sub000/passes"
)

func int16Scalar() numeric.DataType {
	return numeric.NewDataType(false, true, false, 16, 0, nil)
}

// TestPrune_RemovesDeadChain checks an unconsumed combinational chain
// is removed while the live path and stateful nodes survive.
func TestPrune_RemovesDeadChain(t *testing.T) {
	d := core.NewDesign()
	dt := int16Scalar()

	live := nodes.NewSum("live", nil, []bool{true, true})
	deadA := nodes.NewSum("deadA", nil, []bool{true, true})
	deadB := nodes.NewSum("deadB", nil, []bool{true, true})
	keepState := nodes.NewDelay("st", nil, 1, []numeric.NumericValue{numeric.NewIntValue(0)})
	for _, n := range []core.Node{live, deadA, deadB, keepState} {
		d.AddNode(n)
	}
	in := d.InputMaster()
	d.AddArc(core.NewArc(in.OutputPort(0), live.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(in.OutputPort(1), live.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(live.OutputPort(0), d.OutputMaster().InputPort(0), dt, -1))
	// dead chain: deadA -> deadB -> Terminator
	d.AddArc(core.NewArc(in.OutputPort(0), deadA.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(in.OutputPort(1), deadA.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(deadA.OutputPort(0), deadB.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(in.OutputPort(1), deadB.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(deadB.OutputPort(0), d.TerminatorMaster().InputPort(0), dt, -1))
	// stateful node feeding only the terminator survives pruning
	d.AddArc(core.NewArc(in.OutputPort(0), keepState.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(keepState.OutputPort(0), d.TerminatorMaster().InputPort(0), dt, -1))
	d.AssignNodeIDs()
	d.AssignArcIDs()

	removed := passes.Prune(d, true)
	assert.Equal(t, 2, removed)

	remaining := map[string]bool{}
	for _, n := range d.Nodes() {
		remaining[n.Name()] = true
	}
	assert.True(t, remaining["live"])
	assert.True(t, remaining["st"])
	assert.False(t, remaining["deadA"])
	assert.False(t, remaining["deadB"])

	passes.DisconnectUnconnectedArcs(d, false)
	assert.NoError(t, d.ValidateNodes())
}

// TestPropagatePartitions checks descendants inherit the nearest
// annotated ancestor's partition and annotated nodes keep their own.
func TestPropagatePartitions(t *testing.T) {
	d := core.NewDesign()
	sub := core.NewSubsystem("sub", nil)
	sub.SetPartition(2)
	d.AddNode(sub)
	inner := core.NewSubsystem("inner", nil)
	d.AddNode(inner)
	d.ReparentNode(inner, sub)
	leaf := nodes.NewSum("leaf", nil, []bool{true, true})
	d.AddNode(leaf)
	d.ReparentNode(leaf, inner)
	pinned := nodes.NewSum("pinned", nil, []bool{true, true})
	pinned.SetPartition(7)
	d.AddNode(pinned)
	d.ReparentNode(pinned, sub)

	assigned := passes.PropagatePartitionsFromSubsystems(d)
	assert.Equal(t, 2, assigned) // inner and leaf
	assert.Equal(t, 2, inner.Partition())
	assert.Equal(t, 2, leaf.Partition())
	assert.Equal(t, 7, pinned.Partition())
}

// TestCreateStateUpdateNodes follows the two-input sum with delay
// feedback scenario: the StateUpdate order-depends on the delay (next
// state) and on the delay's readers.
func TestCreateStateUpdateNodes(t *testing.T) {
	d := core.NewDesign()
	dt := int16Scalar()
	sum := nodes.NewSum("sum", nil, []bool{true, true})
	prod := nodes.NewProduct("prod", nil, []bool{true, true})
	delay := nodes.NewDelay("delay", nil, 1, []numeric.NumericValue{numeric.NewIntValue(0)})
	for _, n := range []core.Node{sum, prod, delay} {
		d.AddNode(n)
	}
	in := d.InputMaster()
	d.AddArc(core.NewArc(in.OutputPort(0), sum.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(sum.OutputPort(0), delay.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(delay.OutputPort(0), d.OutputMaster().InputPort(0), dt, -1))
	d.AddArc(core.NewArc(delay.OutputPort(0), sum.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(delay.OutputPort(0), prod.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(in.OutputPort(1), prod.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(prod.OutputPort(0), d.TerminatorMaster().InputPort(0), dt, -1))
	d.AssignNodeIDs()
	d.AssignArcIDs()

	created := passes.CreateStateUpdateNodes(d, false)
	require.Len(t, created, 1)
	u := created[0]
	assert.Equal(t, core.Node(delay), u.Primary())

	// order dependencies: delay (next state) + sum and prod (readers)
	deps := map[core.Node]bool{}
	for _, a := range u.OrderConstraintInPort().Arcs() {
		deps[a.SrcNode()] = true
	}
	assert.True(t, deps[core.Node(delay)])
	assert.True(t, deps[core.Node(sum)])
	assert.True(t, deps[core.Node(prod)])
	assert.Len(t, deps, 3)
	assert.NoError(t, d.ValidateNodes())
}
