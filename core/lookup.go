package core

import (
	"fmt"
	"sort"
)

// NodesWithState enumerates the nodes reporting state, in node order.
func (d *Design) NodesWithState() []Node {
	var out []Node
	for _, n := range d.nodes {
		if n.HasState() {
			out = append(out, n)
		}
	}

	return out
}

// NodesWithGlobalDecl enumerates the nodes carrying a global declaration.
func (d *Design) NodesWithGlobalDecl() []Node {
	var out []Node
	for _, n := range d.nodes {
		if n.HasGlobalDecl() {
			out = append(out, n)
		}
	}

	return out
}

// ContextRoots enumerates every node implementing ContextRoot.
func (d *Design) ContextRoots() []ContextRoot {
	var out []ContextRoot
	for _, n := range d.nodes {
		if r, ok := n.(ContextRoot); ok {
			out = append(out, r)
		}
	}

	return out
}

// BlackBoxer marks opaque user-code primitives so they can be enumerated
// without the IR depending on the node library.
type BlackBoxer interface {
	Node
	IsBlackBox()
}

// BlackBoxes enumerates the opaque user-code primitives in the design.
func (d *Design) BlackBoxes() []Node {
	var out []Node
	for _, n := range d.nodes {
		if _, ok := n.(BlackBoxer); ok {
			out = append(out, n)
		}
	}

	return out
}

// NodesByPartition groups nodes by partition label. Master nodes are not
// included.
func (d *Design) NodesByPartition() map[int][]Node {
	out := make(map[int][]Node)
	for _, n := range d.nodes {
		out[n.Partition()] = append(out[n.Partition()], n)
	}

	return out
}

// PresentPartitions lists the distinct non-negative partition labels in
// ascending order.
func (d *Design) PresentPartitions() []int {
	seen := make(map[int]bool)
	for _, n := range d.nodes {
		if n.Partition() >= 0 {
			seen[n.Partition()] = true
		}
	}
	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)

	return out
}

// PartitionCrossing identifies an ordered pair of partitions.
type PartitionCrossing struct {
	SrcPartition int
	DstPartition int
}

// PartitionCrossings groups data arcs whose endpoints lie in different
// partitions by (src, dst) partition pair. When strict is true, an arc
// touching an unassigned partition is an error.
func (d *Design) PartitionCrossings(strict bool) (map[PartitionCrossing][]*Arc, error) {
	out := make(map[PartitionCrossing][]*Arc)
	for _, a := range d.arcs {
		srcN, dstN := a.SrcNode(), a.DstNode()
		if srcN == nil || dstN == nil {
			continue
		}
		srcPart, dstPart := srcN.Partition(), dstN.Partition()
		if srcPart == dstPart {
			continue
		}
		if strict && (srcPart == PartitionUnassigned || dstPart == PartitionUnassigned) {
			return nil, fmt.Errorf("%w: arc %s crosses into an unassigned partition",
				ErrTransform, a.String())
		}
		key := PartitionCrossing{SrcPartition: srcPart, DstPartition: dstPart}
		out[key] = append(out[key], a)
	}

	return out, nil
}

// GroupableCrossings refines PartitionCrossings: within each ordered
// partition pair, arcs that share the same source port are bundled into
// one group (they can share a single FIFO); independent sources become
// separate groups.
func (d *Design) GroupableCrossings(strict bool) (map[PartitionCrossing][][]*Arc, error) {
	crossings, err := d.PartitionCrossings(strict)
	if err != nil {
		return nil, err
	}
	out := make(map[PartitionCrossing][][]*Arc, len(crossings))
	for key, arcs := range crossings {
		var groups [][]*Arc
		index := make(map[*Port]int)
		for _, a := range arcs {
			src := a.SrcPort()
			if gi, ok := index[src]; ok {
				groups[gi] = append(groups[gi], a)

				continue
			}
			index[src] = len(groups)
			groups = append(groups, []*Arc{a})
		}
		out[key] = groups
	}

	return out, nil
}
