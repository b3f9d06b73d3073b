package designs

import (
	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// Int16 is the default scalar element type of the test designs.
func Int16() numeric.DataType {
	return numeric.NewDataType(false, true, false, 16, 0, nil)
}

// FeedbackLoop builds the sum-with-delay-feedback design:
// Input[0] -> Sum; Input[1] -> Sum and Product; Sum -> Delay;
// Delay -> Output[0], Sum, Product.
func FeedbackLoop() (*core.Design, *nodes.Sum, *nodes.Product, *nodes.Delay) {
	d := core.NewDesign()
	dt := Int16()
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

// NestedHierarchy builds the 11-node nested-subsystem design: four
// top-level nodes (two of them subsystems), an inner subsystem in each
// outer one (outerB also holds chain B's gain constant), and two inner
// multiplier/delay pairs whose chains promote uint16 -> uint32 ->
// ufix48.
func NestedHierarchy() *core.Design {
	d := core.NewDesign()
	u16 := numeric.NewDataType(false, false, false, 16, 0, nil)
	u32 := numeric.NewDataType(false, false, false, 32, 0, nil)
	ufix48 := numeric.NewDataType(false, false, false, 48, 0, nil)

	outerA := core.NewSubsystem("outerA", nil)
	outerB := core.NewSubsystem("outerB", nil)
	gain := nodes.NewConstant("gain", nil, []numeric.NumericValue{numeric.NewIntValue(3)}, u16)
	tail := nodes.NewSum("tail", nil, []bool{true, true})
	for _, n := range []core.Node{outerA, outerB, gain, tail} {
		d.AddNode(n)
	}

	mkPair := func(parent *core.Subsystem, suffix string) (*nodes.Product, *nodes.Delay) {
		mul := nodes.NewProduct("mul_"+suffix, nil, []bool{true, true})
		dl := nodes.NewDelay("dl_"+suffix, nil, 1, []numeric.NumericValue{numeric.NewIntValue(0)})
		d.AddNode(mul)
		d.AddNode(dl)
		d.ReparentNode(mul, parent)
		d.ReparentNode(dl, parent)

		return mul, dl
	}
	innerA := core.NewSubsystem("innerA", nil)
	d.AddNode(innerA)
	d.ReparentNode(innerA, outerA)
	innerB := core.NewSubsystem("innerB", nil)
	d.AddNode(innerB)
	d.ReparentNode(innerB, outerB)
	gainB := nodes.NewConstant("gainB", nil, []numeric.NumericValue{numeric.NewIntValue(3)}, u16)
	d.AddNode(gainB)
	d.ReparentNode(gainB, outerB)
	mulA, dlA := mkPair(innerA, "a")
	mulB, dlB := mkPair(innerB, "b")

	in := d.InputMaster()
	// chain A: uint16 in, widened products, ufix48 out of the delay
	d.AddArc(core.NewArc(in.OutputPort(0), mulA.InputPort(0), u16, -1))
	d.AddArc(core.NewArc(gain.OutputPort(0), mulA.InputPort(1), u16, -1))
	d.AddArc(core.NewArc(mulA.OutputPort(0), dlA.InputPort(0), u32, -1))
	d.AddArc(core.NewArc(dlA.OutputPort(0), tail.InputPort(0), ufix48, -1))
	// chain B mirrors A, with its own gain inside outerB
	d.AddArc(core.NewArc(in.OutputPort(1), mulB.InputPort(0), u16, -1))
	d.AddArc(core.NewArc(gainB.OutputPort(0), mulB.InputPort(1), u16, -1))
	d.AddArc(core.NewArc(mulB.OutputPort(0), dlB.InputPort(0), u32, -1))
	d.AddArc(core.NewArc(dlB.OutputPort(0), tail.InputPort(1), ufix48, -1))
	d.AddArc(core.NewArc(tail.OutputPort(0), d.OutputMaster().InputPort(0), ufix48, -1))
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return d
}

// TwoPartitionCrossing builds producer(p0) -> Delay(len initLen) ->
// consumer(p1) with the given delay initial conditions.
func TwoPartitionCrossing(initLen int) *core.Design {
	d := core.NewDesign()
	dt := Int16()
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

	if initLen > 0 {
		init := make([]numeric.NumericValue, initLen)
		for i := range init {
			init[i] = numeric.NewIntValue(int64(i + 1))
		}
		dl := nodes.NewDelay("dl", nil, initLen, init)
		dl.SetPartition(0)
		d.AddNode(dl)
		d.AddArc(core.NewArc(prod.OutputPort(0), dl.InputPort(0), dt, -1))
		d.AddArc(core.NewArc(dl.OutputPort(0), cons.InputPort(0), dt, -1))
	} else {
		d.AddArc(core.NewArc(prod.OutputPort(0), cons.InputPort(0), dt, -1))
	}
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return d
}
