package passes

import (
	"github.com/ucb-cyarp/vitis-sub000/core"
)

// PropagatePartitionsFromSubsystems walks the hierarchy and assigns to
// every node lacking a partition the partition of its nearest annotated
// ancestor subsystem. Returns the number of nodes assigned.
func PropagatePartitionsFromSubsystems(d *core.Design) int {
	assigned := 0
	var walk func(n core.Node, inherited int)
	walk = func(n core.Node, inherited int) {
		if n.Partition() == core.PartitionUnassigned && inherited != core.PartitionUnassigned {
			n.SetPartition(inherited)
			assigned++
		}
		next := n.Partition()
		if sub, ok := n.(interface{ Children() []core.Node }); ok {
			for _, c := range sub.Children() {
				walk(c, next)
			}
		}
	}
	for _, n := range d.TopLevelNodes() {
		walk(n, core.PartitionUnassigned)
	}

	return assigned
}

// AssignPartitionToUnassigned gives every still-unassigned node the
// fallback partition. Used after explicit propagation so single-thread
// flows land everything in one partition.
func AssignPartitionToUnassigned(d *core.Design, partition int) int {
	assigned := 0
	for _, n := range d.Nodes() {
		if n.Partition() == core.PartitionUnassigned {
			n.SetPartition(partition)
			assigned++
		}
	}

	return assigned
}
