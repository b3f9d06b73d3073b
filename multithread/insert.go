package multithread

import (
	"fmt"
	"sort"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
)

// InsertPartitionCrossingFIFOs discovers the groupable partition
// crossings and instantiates one FIFO per group: arcs sharing a source
// port and destination partition share a FIFO; independent sources get
// their own. The FIFO lands in the source partition, inside the
// source's context family container when one exists - except when the
// source is an EnableOutput or a rate-change output, which place one
// level outward. The original arcs split into a producer arc into the
// FIFO and consumer arcs out of it.
//
// Returns the FIFOs grouped by crossing.
func InsertPartitionCrossingFIFOs(d *core.Design, impl nodes.FIFOImpl, lengthBlocks int) (map[core.PartitionCrossing][]*nodes.ThreadCrossingFIFO, error) {
	groups, err := d.GroupableCrossings(true)
	if err != nil {
		return nil, err
	}
	out := make(map[core.PartitionCrossing][]*nodes.ThreadCrossingFIFO)

	// deterministic crossing order
	keys := make([]core.PartitionCrossing, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].SrcPartition != keys[j].SrcPartition {
			return keys[i].SrcPartition < keys[j].SrcPartition
		}

		return keys[i].DstPartition < keys[j].DstPartition
	})

	for _, key := range keys {
		for gi, group := range groups[key] {
			if len(group) == 0 {
				continue
			}
			srcPort := group[0].SrcPort()
			src := srcPort.Node()
			name := fmt.Sprintf("fifo_p%dto%d_%d", key.SrcPartition, key.DstPartition, gi)
			fifo := nodes.NewThreadCrossingFIFO(name, nil, impl, lengthBlocks)
			fifo.SetPartition(key.SrcPartition)
			fifo.SetContexts(append([]core.Context(nil), src.Contexts()...))
			d.AddNode(fifo)
			d.ReparentNode(fifo, fifoHome(src, key.SrcPartition))

			dt := group[0].DataType()
			d.AddArc(core.NewArc(srcPort, fifo.InputPort(0), dt, group[0].SampleTime()))
			for _, a := range group {
				a.SetSrcPort(fifo.OutputPort(0))
			}
			if dom := enclosingDomainNode(src); dom != nil {
				fifo.SetPortClockDomain(0, dom)
			}
			out[key] = append(out[key], fifo)
		}
	}
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return out, nil
}

// fifoHome picks the subsystem the FIFO lives in: the source's context
// family container for its partition when present; one level outward
// when the source is an EnableOutput or rate-change output; otherwise
// the source's parent.
func fifoHome(src core.Node, srcPart int) *core.Subsystem {
	outward := false
	switch src.(type) {
	case *nodes.EnableOutput, *nodes.RateChangeImpl:
		outward = true
	}
	for _, c := range src.Contexts() {
		if fc := c.Root.FamilyContainer(srcPart); fc != nil && !outward {
			if family, ok := fc.(*nodes.ContextFamilyContainer); ok {
				return &family.Subsystem
			}
		}
	}
	parent := src.Parent()
	if outward && parent != nil {
		return parent.Parent()
	}

	return parent
}

// enclosingDomainNode resolves the nearest enclosing clock domain of n.
func enclosingDomainNode(n core.Node) core.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		owner := p.Owner()
		switch owner.(type) {
		case *nodes.ClockDomain, *nodes.UpsampleClockDomain, *nodes.DownsampleClockDomain:
			return owner
		}
	}

	return nil
}

// SetFIFOBlockSizes records the block geometry and per-port clock
// domains on every inserted FIFO.
func SetFIFOBlockSizes(fifos map[core.PartitionCrossing][]*nodes.ThreadCrossingFIFO, blockSize, subBlockSize int) {
	for _, group := range fifos {
		for _, f := range group {
			f.SetBlockSize(blockSize)
			f.SetSubBlockSize(subBlockSize)
		}
	}
}
