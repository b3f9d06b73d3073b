package multithread_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/multithread"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

func int16Scalar() numeric.DataType {
	return numeric.NewDataType(false, true, false, 16, 0, nil)
}

func intVals(vs ...int64) []numeric.NumericValue {
	out := make([]numeric.NumericValue, len(vs))
	for i, v := range vs {
		out[i] = numeric.NewIntValue(v)
	}

	return out
}

// buildCrossing builds producer(p0) -> [optional delay] -> consumer(p1).
func buildCrossing(t *testing.T, delayLen int, delayInit []numeric.NumericValue) (*core.Design, *nodes.Sum, *nodes.Sum) {
	t.Helper()
	d := core.NewDesign()
	dt := int16Scalar()
	prod := nodes.NewSum("prod", nil, []bool{true, true})
	prod.SetPartition(0)
	cons := nodes.NewSum("cons", nil, []bool{true, true})
	cons.SetPartition(1)
	d.AddNode(prod)
	d.AddNode(cons)
	in := d.InputMaster()
	d.AddArc(core.NewArc(in.OutputPort(0), prod.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(in.OutputPort(1), prod.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(in.OutputPort(2), cons.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(cons.OutputPort(0), d.OutputMaster().InputPort(0), dt, -1))

	if delayLen > 0 {
		dl := nodes.NewDelay("dl", nil, delayLen, delayInit)
		dl.SetPartition(0)
		d.AddNode(dl)
		d.AddArc(core.NewArc(prod.OutputPort(0), dl.InputPort(0), dt, -1))
		d.AddArc(core.NewArc(dl.OutputPort(0), cons.InputPort(0), dt, -1))
	} else {
		d.AddArc(core.NewArc(prod.OutputPort(0), cons.InputPort(0), dt, -1))
	}
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return d, prod, cons
}

// chainStateTotal sums FIFO initial conditions and adjacent delay
// lengths across the whole design.
func chainStateTotal(d *core.Design) int {
	total := 0
	for _, n := range d.Nodes() {
		switch v := n.(type) {
		case *nodes.ThreadCrossingFIFO:
			for i := 0; i < v.NumPortPairs(); i++ {
				total += len(v.InitConds(i))
			}
		case *nodes.Delay:
			total += v.DelayValue()
		}
	}

	return total
}

// TestInsert_SplitsCrossingArc checks the crossing arc becomes a
// producer arc into the FIFO and a consumer arc out of it.
func TestInsert_SplitsCrossingArc(t *testing.T) {
	d, prod, cons := buildCrossing(t, 0, nil)
	fifos, err := multithread.InsertPartitionCrossingFIFOs(d, nodes.FIFOLockless, 4)
	require.NoError(t, err)

	key := core.PartitionCrossing{SrcPartition: 0, DstPartition: 1}
	require.Len(t, fifos[key], 1)
	fifo := fifos[key][0]
	assert.Equal(t, 0, fifo.Partition())

	prodArc, err := fifo.InputPort(0).SoleArc()
	require.NoError(t, err)
	assert.Equal(t, core.Node(prod), prodArc.SrcNode())
	consArc, err := cons.InputPort(0).SoleArc()
	require.NoError(t, err)
	assert.Equal(t, core.Node(fifo), consArc.SrcNode())
	assert.NoError(t, d.ValidateNodes())
}

// TestAbsorb_InputFull folds the whole predecessor delay into the FIFO
// and preserves the chain state total.
func TestAbsorb_InputFull(t *testing.T) {
	d, prod, _ := buildCrossing(t, 3, intVals(1, 2, 3))
	before := chainStateTotal(d)
	require.Equal(t, 3, before)

	fifos, err := multithread.InsertPartitionCrossingFIFOs(d, nodes.FIFOLockless, 4)
	require.NoError(t, err)
	multithread.SetFIFOBlockSizes(fifos, 1, 1)
	require.NoError(t, multithread.AbsorbAdjacentDelaysIntoFIFOs(d, fifos, 1))

	assert.Equal(t, before, chainStateTotal(d))
	key := core.PartitionCrossing{SrcPartition: 0, DstPartition: 1}
	fifo := fifos[key][0]
	assert.Equal(t, 3, fifo.InitCondCount())

	// the delay is gone; the producer feeds the FIFO directly
	for _, n := range d.Nodes() {
		assert.NotEqual(t, "dl", n.Name())
	}
	prodArc, err := fifo.InputPort(0).SoleArc()
	require.NoError(t, err)
	assert.Equal(t, core.Node(prod), prodArc.SrcNode())
	assert.NoError(t, d.ValidateNodes())
}

// TestAbsorb_InputPartial moves only what fits; the delay shrinks and
// the chain total is unchanged.
func TestAbsorb_InputPartial(t *testing.T) {
	d, _, _ := buildCrossing(t, 6, intVals(1, 2, 3, 4, 5, 6))
	before := chainStateTotal(d)

	fifos, err := multithread.InsertPartitionCrossingFIFOs(d, nodes.FIFOLockless, 4)
	require.NoError(t, err)
	multithread.SetFIFOBlockSizes(fifos, 1, 1)
	require.NoError(t, multithread.AbsorbAdjacentDelaysIntoFIFOs(d, fifos, 1))

	assert.Equal(t, before, chainStateTotal(d))
	key := core.PartitionCrossing{SrcPartition: 0, DstPartition: 1}
	fifo := fifos[key][0]
	assert.Equal(t, 4, fifo.InitCondCount(), "capacity is 4 blocks of 1")

	var dl *nodes.Delay
	for _, n := range d.Nodes() {
		if v, ok := n.(*nodes.Delay); ok {
			dl = v
		}
	}
	require.NotNil(t, dl)
	assert.Equal(t, 2, dl.DelayValue())
	// the oldest conditions moved; the delay keeps the newest
	assert.Equal(t, int64(1), fifo.InitConds(0)[0].Int64())
	assert.Equal(t, int64(5), dl.InitCondition()[0].Int64())
}

// TestReshape_SplitsRemainder follows the two-partition scenario: one
// crossing arc carrying two initial conditions with block size 4 ends
// with a synthetic delay of length 2 and a FIFO count of 0.
func TestReshape_SplitsRemainder(t *testing.T) {
	d, _, _ := buildCrossing(t, 2, intVals(7, 8))
	before := chainStateTotal(d)

	fifos, err := multithread.InsertPartitionCrossingFIFOs(d, nodes.FIFOLockless, 2)
	require.NoError(t, err)
	multithread.SetFIFOBlockSizes(fifos, 4, 1)
	require.NoError(t, multithread.AbsorbAdjacentDelaysIntoFIFOs(d, fifos, 4))

	key := core.PartitionCrossing{SrcPartition: 0, DstPartition: 1}
	fifo := fifos[key][0]
	assert.Equal(t, 0, fifo.InitCondCount())
	assert.Zero(t, fifo.InitCondCount()%4)

	var reshaped *nodes.Delay
	for _, n := range d.Nodes() {
		if v, ok := n.(*nodes.Delay); ok {
			reshaped = v
		}
	}
	require.NotNil(t, reshaped, "a synthetic delay must carry the remainder")
	assert.Equal(t, 2, reshaped.DelayValue())
	assert.Equal(t, before, chainStateTotal(d))
	assert.NoError(t, d.ValidateNodes())
	assert.NoError(t, fifo.CheckInitCondsMultipleOfBlock())
}

// TestMerge_SharedCrossing merges two FIFOs of one crossing onto a
// single FIFO with two port pairs.
func TestMerge_SharedCrossing(t *testing.T) {
	d := core.NewDesign()
	dt := int16Scalar()
	prodA := nodes.NewSum("prodA", nil, []bool{true, true})
	prodB := nodes.NewSum("prodB", nil, []bool{true, true})
	cons := nodes.NewSum("cons", nil, []bool{true, true})
	prodA.SetPartition(0)
	prodB.SetPartition(0)
	cons.SetPartition(1)
	for _, n := range []core.Node{prodA, prodB, cons} {
		d.AddNode(n)
	}
	in := d.InputMaster()
	d.AddArc(core.NewArc(in.OutputPort(0), prodA.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(in.OutputPort(1), prodA.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(in.OutputPort(2), prodB.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(in.OutputPort(3), prodB.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(prodA.OutputPort(0), cons.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(prodB.OutputPort(0), cons.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(cons.OutputPort(0), d.OutputMaster().InputPort(0), dt, -1))
	d.AssignNodeIDs()
	d.AssignArcIDs()

	fifos, err := multithread.InsertPartitionCrossingFIFOs(d, nodes.FIFOLockless, 2)
	require.NoError(t, err)
	key := core.PartitionCrossing{SrcPartition: 0, DstPartition: 1}
	require.Len(t, fifos[key], 2, "independent sources become separate FIFOs")

	merged, err := multithread.MergeFIFOs(d, fifos, 1)
	require.NoError(t, err)
	survivor := merged[key]
	require.NotNil(t, survivor)
	assert.Equal(t, 2, survivor.NumPortPairs())

	// one FIFO per crossing remains in the design: the merged 0->1 FIFO,
	// plus the input-master->0 and 1->output-master FIFOs
	count := 0
	for _, n := range d.Nodes() {
		if _, ok := n.(*nodes.ThreadCrossingFIFO); ok {
			count++
		}
	}
	assert.Equal(t, 3, count)
	assert.NoError(t, d.ValidateNodes())
}

// TestDeadlock_ZeroCycleDetected checks a two-partition cycle with no
// initial data raises, and initial data on the back edge clears it.
func TestDeadlock_ZeroCycleDetected(t *testing.T) {
	d := core.NewDesign()
	dt := int16Scalar()
	a := nodes.NewSum("a", nil, []bool{true, true})
	a.SetPartition(0)
	b := nodes.NewSum("b", nil, []bool{true, true})
	b.SetPartition(1)
	d.AddNode(a)
	d.AddNode(b)
	in := d.InputMaster()
	d.AddArc(core.NewArc(in.OutputPort(0), a.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(a.OutputPort(0), b.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(in.OutputPort(1), b.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(b.OutputPort(0), a.InputPort(1), dt, -1))
	d.AssignNodeIDs()
	d.AssignArcIDs()

	fifos, err := multithread.InsertPartitionCrossingFIFOs(d, nodes.FIFOLockless, 2)
	require.NoError(t, err)
	multithread.SetFIFOBlockSizes(fifos, 1, 1)

	err = multithread.CheckForDeadlock(d, 1)
	assert.ErrorIs(t, err, multithread.ErrDeadlock)

	// seed the back edge with one block of initial data
	back := fifos[core.PartitionCrossing{SrcPartition: 1, DstPartition: 0}][0]
	back.SetInitConds(0, intVals(0))
	assert.NoError(t, multithread.CheckForDeadlock(d, 1))
}
