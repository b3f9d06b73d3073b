package sched_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
	"github.com/ucb-cyarp/vitis-sub000/passes"
	"github.com/ucb-cyarp/vitis-sub000/sched"
)

func int16Scalar() numeric.DataType {
	return numeric.NewDataType(false, true, false, 16, 0, nil)
}

// buildFeedbackDesign is the sum-with-delay-feedback scenario:
// Input[0] -> Sum; Input[1] -> Sum and Product; Sum -> Delay;
// Delay -> Output[0], Sum, Product.
func buildFeedbackDesign(t *testing.T) (*core.Design, *nodes.Sum, *nodes.Product, *nodes.Delay) {
	t.Helper()
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
	d.AddArc(core.NewArc(in.OutputPort(1), prod.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(sum.OutputPort(0), delay.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(delay.OutputPort(0), d.OutputMaster().InputPort(0), dt, -1))
	d.AddArc(core.NewArc(delay.OutputPort(0), sum.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(delay.OutputPort(0), prod.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(prod.OutputPort(0), d.TerminatorMaster().InputPort(0), dt, -1))
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return d, sum, prod, delay
}

// TestSchedule_FeedbackLoop checks the delayed feedback schedules with
// schedOrder(Sum) < schedOrder(Delay) and the delay marked stateful,
// with one state update ordered after sum and product.
func TestSchedule_FeedbackLoop(t *testing.T) {
	d, sum, prod, delay := buildFeedbackDesign(t)
	created := passes.CreateStateUpdateNodes(d, false)
	require.Len(t, created, 1)

	err := sched.ScheduleTopological(d, sched.Params{Heuristic: sched.HeuristicBFS})
	require.NoError(t, err)

	assert.True(t, delay.HasState())
	assert.Less(t, sum.SchedOrder(), delay.SchedOrder())
	assert.NotEqual(t, core.SchedOrderUnscheduled, prod.SchedOrder())
	u := created[0]
	assert.Greater(t, u.SchedOrder(), sum.SchedOrder())
	assert.Greater(t, u.SchedOrder(), prod.SchedOrder())

	require.NoError(t, sched.VerifyTopologicalOrder(d, true))
}

// TestSchedule_CycleDetected checks a combinational cycle is fatal and
// the residual dump hook fires.
func TestSchedule_CycleDetected(t *testing.T) {
	d := core.NewDesign()
	dt := int16Scalar()
	a := nodes.NewSum("a", nil, []bool{true, true})
	b := nodes.NewSum("b", nil, []bool{true, true})
	d.AddNode(a)
	d.AddNode(b)
	in := d.InputMaster()
	d.AddArc(core.NewArc(in.OutputPort(0), a.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(a.OutputPort(0), b.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(in.OutputPort(1), b.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(b.OutputPort(0), a.InputPort(1), dt, -1))
	d.AssignNodeIDs()
	d.AssignArcIDs()

	dumped := false
	err := sched.ScheduleTopological(d, sched.Params{},
		sched.WithCycleDump(func(residual *core.Design) { dumped = true }))
	assert.ErrorIs(t, err, sched.ErrSchedule)
	assert.Contains(t, err.Error(), "a")
	assert.True(t, dumped)
}

// TestSchedule_RandomSeedReproducible checks the seeded random
// heuristic yields identical schedules across runs.
func TestSchedule_RandomSeedReproducible(t *testing.T) {
	orders := func(seed int64) []int {
		d, sum, prod, delay := buildFeedbackDesign(t)
		require.NoError(t, sched.ScheduleTopological(d,
			sched.Params{Heuristic: sched.HeuristicRandom, RandSeed: seed}))

		return []int{sum.SchedOrder(), prod.SchedOrder(), delay.SchedOrder()}
	}
	assert.Equal(t, orders(42), orders(42))
}

// TestSchedule_PerPartition checks per-partition scheduling orders the
// output master only through the I/O partition and verification holds.
func TestSchedule_PerPartition(t *testing.T) {
	d, sum, _, _ := buildFeedbackDesign(t)
	sum.SetPartition(0)
	for _, n := range d.Nodes() {
		if n.Partition() == core.PartitionUnassigned {
			n.SetPartition(0)
		}
	}
	require.NoError(t, sched.ScheduleTopological(d, sched.Params{}, sched.WithPerPartition()))
	require.NoError(t, sched.VerifyTopologicalOrder(d, true))
	assert.NotEqual(t, core.SchedOrderUnscheduled, d.OutputMaster().SchedOrder())
}

// TestSCC_FifteenNodeGraph checks the Tarjan analysis on a 15-node
// graph: a five-node feedback loop, a three-node loop, three constant
// singletons, and four chain singletons give exactly nine components.
func TestSCC_FifteenNodeGraph(t *testing.T) {
	d := core.NewDesign()
	dt := int16Scalar()
	mk := func(name string) *nodes.Sum {
		s := nodes.NewSum(name, nil, []bool{true, true})
		d.AddNode(s)

		return s
	}
	// five-node loop
	var loop5 []*nodes.Sum
	for _, n := range []string{"l0", "l1", "l2", "l3", "l4"} {
		loop5 = append(loop5, mk(n))
	}
	for i := range loop5 {
		d.AddArc(core.NewArc(loop5[i].OutputPort(0), loop5[(i+1)%5].InputPort(0), dt, -1))
	}
	// three-node loop
	var loop3 []*nodes.Sum
	for _, n := range []string{"m0", "m1", "m2"} {
		loop3 = append(loop3, mk(n))
	}
	for i := range loop3 {
		d.AddArc(core.NewArc(loop3[i].OutputPort(0), loop3[(i+1)%3].InputPort(0), dt, -1))
	}
	// three constants feeding the chain
	var consts []*nodes.Constant
	for _, n := range []string{"c0", "c1", "c2"} {
		c := nodes.NewConstant(n, nil, []numeric.NumericValue{numeric.NewIntValue(1)}, dt)
		d.AddNode(c)
		consts = append(consts, c)
	}
	// four-node chain
	var chain []*nodes.Sum
	for _, n := range []string{"s0", "s1", "s2", "s3"} {
		chain = append(chain, mk(n))
	}
	for i := 0; i < 3; i++ {
		d.AddArc(core.NewArc(chain[i].OutputPort(0), chain[i+1].InputPort(0), dt, -1))
	}
	for i, c := range consts {
		d.AddArc(core.NewArc(c.OutputPort(0), chain[i].InputPort(1), dt, -1))
	}
	d.AssignNodeIDs()
	d.AssignArcIDs()

	require.Len(t, d.Nodes(), 15)
	comps := sched.StronglyConnectedComponents(d)
	assert.Len(t, comps, 9)

	sizes := map[int]int{}
	for _, c := range comps {
		sizes[len(c)]++
	}
	assert.Equal(t, 1, sizes[5], "one five-node loop")
	assert.Equal(t, 1, sizes[3], "one three-node loop")
	assert.Equal(t, 7, sizes[1], "three constants plus four chain nodes")
}

// TestVerify_FlagsViolation checks a manually corrupted order fails
// verification.
func TestVerify_FlagsViolation(t *testing.T) {
	d, sum, _, delay := buildFeedbackDesign(t)
	require.NoError(t, sched.ScheduleTopological(d, sched.Params{}))

	// corrupt: make the delay run before the sum that feeds it
	delay.SetSchedOrder(0)
	sum.SetSchedOrder(5)
	err := sched.VerifyTopologicalOrder(d, false)
	assert.ErrorIs(t, err, sched.ErrSchedule)
}
