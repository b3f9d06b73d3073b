package multithread

import (
	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
)

// MergeFIFOs collapses the FIFOs of each (srcPart, dstPart) pair onto a
// single FIFO with multiple port pairs. Every member is first trimmed
// to the minimum initial-condition count of the group (the excess is
// reshaped into adjacent delays so no state is lost), then the donors'
// producer and consumer arcs are aliased onto fresh port pairs of the
// surviving FIFO.
//
// Returns the surviving FIFO per crossing.
func MergeFIFOs(d *core.Design, fifos map[core.PartitionCrossing][]*nodes.ThreadCrossingFIFO, blockSize int) (map[core.PartitionCrossing]*nodes.ThreadCrossingFIFO, error) {
	out := make(map[core.PartitionCrossing]*nodes.ThreadCrossingFIFO, len(fifos))
	for key, group := range fifos {
		if len(group) == 0 {
			continue
		}
		if len(group) == 1 {
			out[key] = group[0]

			continue
		}
		// 1. Trim everyone to the group minimum (in whole blocks).
		min := group[0].InitCondCount()
		for _, f := range group[1:] {
			if f.InitCondCount() < min {
				min = f.InitCondCount()
			}
		}
		for _, f := range group {
			if err := reshapeToSize(d, f, min, blockSize); err != nil {
				return nil, err
			}
		}

		// 2. Alias the donors onto the survivor.
		survivor := group[0]
		for _, donor := range group[1:] {
			for pair := 0; pair < donor.NumPortPairs(); pair++ {
				k := survivor.AddPortPair()
				survivor.SetInitConds(k, donor.InitConds(pair))
				survivor.SetPortClockDomain(k, donor.PortClockDomain(pair))
				if prodArc, err := donor.InputPort(pair).SoleArc(); err == nil {
					prodArc.SetDstPort(survivor.InputPort(k))
				}
				for _, a := range donor.OutputPort(pair).Arcs() {
					a.SetSrcPort(survivor.OutputPort(k))
				}
			}
			d.RemoveNode(donor)
		}
		out[key] = survivor
	}
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return out, nil
}

// reshapeToSize trims a FIFO's initial conditions down to target by
// moving the tail excess into a synthesized input-side delay (or the
// head into an output-side delay for master-driven FIFOs), using the
// same machinery as the block-size reshape.
func reshapeToSize(d *core.Design, fifo *nodes.ThreadCrossingFIFO, target, blockSize int) error {
	for pair := 0; pair < fifo.NumPortPairs(); pair++ {
		excess := fifo.InitCondCount() - target
		if excess <= 0 {
			continue
		}
		ic := fifo.InitConds(pair)
		prodArc, err := fifo.InputPort(pair).SoleArc()
		if err != nil {
			return err
		}
		tail := ic[len(ic)-excess:]
		fifo.SetInitConds(pair, ic[:len(ic)-excess])
		delay := nodes.NewDelay(fifo.Name()+"_merge", fifo.Parent(), excess, tail)
		delay.SetPartition(fifo.Partition())
		delay.SetContexts(append([]core.Context(nil), fifo.Contexts()...))
		d.AddNode(delay)
		if parent := fifo.Parent(); parent != nil {
			d.ReparentNode(delay, parent)
		}
		src := prodArc.SrcPort()
		dt := prodArc.DataType()
		prodArc.SetSrcPort(delay.OutputPort(0))
		d.AddArc(core.NewArc(src, delay.InputPort(0), dt, prodArc.SampleTime()))
	}

	return nil
}
