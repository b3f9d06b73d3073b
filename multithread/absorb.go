package multithread

import (
	"fmt"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// AbsorbAdjacentDelaysIntoFIFOs runs the absorption cases on every FIFO
// until a fixed point, then reshapes initial conditions to block
// multiples:
//
//	input absorption (full)    - predecessor Delay folded entirely in
//	input absorption (partial) - as many conditions as fit move in
//	output absorption          - common postfix of downstream Delays
//	reshape                    - remainder split into a synthetic Delay
//
// The total of (FIFO initial conditions + adjacent delay length) in
// each chain is invariant across all cases.
func AbsorbAdjacentDelaysIntoFIFOs(d *core.Design, fifos map[core.PartitionCrossing][]*nodes.ThreadCrossingFIFO, blockSize int) error {
	for _, group := range sortedFIFOGroups(fifos) {
		for _, fifo := range group {
			for {
				changed, err := absorbInputDelay(d, fifo, blockSize)
				if err != nil {
					return err
				}
				changedOut, err := absorbOutputDelays(d, fifo, blockSize)
				if err != nil {
					return err
				}
				if !changed && !changedOut {
					break
				}
			}
			if err := ReshapeFIFOInitialConditionsForBlockSize(d, fifo, blockSize); err != nil {
				return err
			}
		}
	}

	return nil
}

// capacitySamples is the FIFO's storage capacity in samples.
func capacitySamples(f *nodes.ThreadCrossingFIFO, blockSize int) int {
	return f.LengthBlocks() * blockSize
}

// absorbInputDelay folds the predecessor delay's initial conditions
// into the FIFO (fully or partially).
func absorbInputDelay(d *core.Design, fifo *nodes.ThreadCrossingFIFO, blockSize int) (bool, error) {
	if len(fifo.InputPorts()) != 1 {
		return false, fmt.Errorf("%w: FIFO %s has %d input ports during absorption",
			core.ErrTransform, fifo.FullyQualifiedName(), len(fifo.InputPorts()))
	}
	prodArc, err := fifo.InputPort(0).SoleArc()
	if err != nil {
		return false, err
	}
	delay, ok := prodArc.SrcNode().(*nodes.Delay)
	if !ok || delay.DelayValue() == 0 {
		return false, nil
	}
	if delay.Partition() != fifo.Partition() || !core.ContextStacksEqual(delay.Contexts(), fifo.Contexts()) {
		return false, nil
	}
	// the delay must feed exactly this FIFO and nothing else
	for _, p := range delay.OutputPorts() {
		for _, a := range p.Arcs() {
			if a != prodArc {
				return false, nil
			}
		}
	}
	if delay.OrderConstraintOutPresent() || delay.EarliestFirst() {
		return false, nil
	}
	room := capacitySamples(fifo, blockSize) - fifo.InitCondCount()
	if room <= 0 {
		return false, nil
	}
	ic := fifo.InitConds(0)
	delayIC := delay.InitCondition()

	if delay.DelayValue() <= room {
		// full absorption: the delay's conditions surface after the
		// FIFO's existing ones
		fifo.SetInitConds(0, append(ic, delayIC...))
		inArc, err := delay.InputPort(0).SoleArc()
		if err != nil {
			return false, err
		}
		prodArc.SetSrcPort(inArc.SrcPort())
		d.RemoveNode(delay)

		return true, nil
	}
	// partial absorption: the oldest conditions move in; the delay
	// shrinks accordingly
	fifo.SetInitConds(0, append(ic, delayIC[:room]...))
	delay.SetInitCondition(delayIC[room:])
	delay.SetDelayValue(delay.DelayValue() - room)

	return true, nil
}

// absorbOutputDelays moves the longest common postfix of the
// downstream delays' initial conditions into the FIFO front (the moved
// samples must still surface to consumers first), shrinking each delay.
func absorbOutputDelays(d *core.Design, fifo *nodes.ThreadCrossingFIFO, blockSize int) (bool, error) {
	if fifo.OrderConstraintOutPresent() {
		return false, nil
	}
	var consumers []*nodes.Delay
	for _, p := range fifo.OutputPorts() {
		for _, a := range p.Arcs() {
			delay, ok := a.DstNode().(*nodes.Delay)
			if !ok || delay.DelayValue() == 0 ||
				delay.Partition() != fifo.Partition() ||
				!core.ContextStacksEqual(delay.Contexts(), fifo.Contexts()) ||
				delay.EarliestFirst() {
				return false, nil
			}
			consumers = append(consumers, delay)
		}
	}
	if len(consumers) == 0 {
		return false, nil
	}
	move := commonPostfixLen(consumers)
	room := capacitySamples(fifo, blockSize) - fifo.InitCondCount()
	if move > room {
		move = room
	}
	if move <= 0 {
		return false, nil
	}
	// the postfix values are identical across consumers; take them once
	first := consumers[0].InitCondition()
	postfix := first[len(first)-move:]
	fifo.SetInitConds(0, append(append([]numeric.NumericValue(nil), postfix...), fifo.InitConds(0)...))

	for _, delay := range consumers {
		icd := delay.InitCondition()
		delay.SetInitCondition(icd[:len(icd)-move])
		delay.SetDelayValue(delay.DelayValue() - move)
		if delay.DelayValue() == 0 {
			// pass the connection through and drop the empty delay
			inArc, err := delay.InputPort(0).SoleArc()
			if err != nil {
				return false, err
			}
			for _, p := range delay.OutputPorts() {
				for _, a := range p.Arcs() {
					a.SetSrcPort(inArc.SrcPort())
				}
			}
			d.RemoveNode(delay)
		}
	}

	return true, nil
}

// commonPostfixLen computes the longest common elementwise postfix of
// the consumers' initial-condition vectors.
func commonPostfixLen(consumers []*nodes.Delay) int {
	min := consumers[0].DelayValue()
	for _, c := range consumers[1:] {
		if c.DelayValue() < min {
			min = c.DelayValue()
		}
	}
	match := 0
	first := consumers[0].InitCondition()
	for k := 1; k <= min; k++ {
		v := first[len(first)-k]
		same := true
		for _, c := range consumers[1:] {
			ic := c.InitCondition()
			if !ic[len(ic)-k].Equals(v) {
				same = false

				break
			}
		}
		if !same {
			break
		}
		match = k
	}

	return match
}

// ReshapeFIFOInitialConditionsForBlockSize splits off the remainder of
// the FIFO's initial conditions (count mod block size) into a newly
// synthesized Delay at the FIFO input - or at the output when the FIFO
// is driven by the input master.
func ReshapeFIFOInitialConditionsForBlockSize(d *core.Design, fifo *nodes.ThreadCrossingFIFO, blockSize int) error {
	for pair := 0; pair < fifo.NumPortPairs(); pair++ {
		ic := fifo.InitConds(pair)
		rem := len(ic) % blockSize
		if rem == 0 {
			continue
		}
		prodArc, err := fifo.InputPort(pair).SoleArc()
		if err != nil {
			return err
		}
		_, fromMaster := prodArc.SrcNode().(*core.MasterInput)
		if fromMaster {
			// move the head of the queue into an output-side delay so
			// those samples still surface first
			head := append([]numeric.NumericValue(nil), ic[:rem]...)
			fifo.SetInitConds(pair, ic[rem:])
			delay := nodes.NewDelay(fifo.Name()+"_reshape", fifo.Parent(), rem, head)
			delay.SetPartition(partitionOfConsumers(fifo, pair))
			d.AddNode(delay)
			if parent := fifo.Parent(); parent != nil {
				d.ReparentNode(delay, parent)
			}
			outPort := fifo.OutputPort(pair)
			dt := prodArc.DataType()
			for _, a := range outPort.Arcs() {
				a.SetSrcPort(delay.OutputPort(0))
			}
			d.AddArc(core.NewArc(outPort, delay.InputPort(0), dt, prodArc.SampleTime()))

			continue
		}
		// move the tail into an input-side delay
		tail := append([]numeric.NumericValue(nil), ic[len(ic)-rem:]...)
		fifo.SetInitConds(pair, ic[:len(ic)-rem])
		delay := nodes.NewDelay(fifo.Name()+"_reshape", fifo.Parent(), rem, tail)
		delay.SetPartition(fifo.Partition())
		delay.SetContexts(append([]core.Context(nil), fifo.Contexts()...))
		d.AddNode(delay)
		if parent := fifo.Parent(); parent != nil {
			d.ReparentNode(delay, parent)
		}
		dt := prodArc.DataType()
		src := prodArc.SrcPort()
		prodArc.SetSrcPort(delay.OutputPort(0))
		d.AddArc(core.NewArc(src, delay.InputPort(0), dt, prodArc.SampleTime()))
	}
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return fifo.CheckInitCondsMultipleOfBlock()
}

// partitionOfConsumers picks the partition of the FIFO's consumers on a
// port pair.
func partitionOfConsumers(fifo *nodes.ThreadCrossingFIFO, pair int) int {
	for _, a := range fifo.OutputPort(pair).Arcs() {
		if dst := a.DstNode(); dst != nil {
			return dst.Partition()
		}
	}

	return fifo.Partition()
}

// sortedFIFOGroups yields the crossing groups in deterministic order.
func sortedFIFOGroups(fifos map[core.PartitionCrossing][]*nodes.ThreadCrossingFIFO) [][]*nodes.ThreadCrossingFIFO {
	keys := make([]core.PartitionCrossing, 0, len(fifos))
	for k := range fifos {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0; j-- {
			a, b := keys[j-1], keys[j]
			if a.SrcPartition < b.SrcPartition || (a.SrcPartition == b.SrcPartition && a.DstPartition <= b.DstPartition) {
				break
			}
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	out := make([][]*nodes.ThreadCrossingFIFO, 0, len(keys))
	for _, k := range keys {
		out = append(out, fifos[k])
	}

	return out
}
