package contexts

import (
	"fmt"
	"sort"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// ReplicateContextDrivers clones each replicating root's decision
// driver into every partition that contains part of the context but not
// the driver itself, so the enable/select condition can be computed
// locally per partition. The replica re-uses the original driver's
// sources and is tied to the root with an order-constraint arc.
//
// Returns partition -> replica for each root that replicated.
func ReplicateContextDrivers(d *core.Design) map[core.ContextRoot]map[int]core.Node {
	orderT := numeric.NewDataType(false, false, false, 1, 0, nil)
	out := make(map[core.ContextRoot]map[int]core.Node)

	for _, r := range d.ContextRoots() {
		if !r.ShouldReplicateDrivers() {
			continue
		}
		drivers := r.ContextDecisionDriverArcs()
		if len(drivers) == 0 {
			continue
		}
		src := drivers[0].SrcNode()
		if src == nil {
			continue
		}
		for _, part := range contextPartitions(r) {
			if part == src.Partition() || part == core.PartitionUnassigned {
				continue
			}
			replica := src.ShallowClone(src.Parent())
			replica.SetID(-1)
			replica.SetName(fmt.Sprintf("%s_p%d", src.Name(), part))
			replica.SetPartition(part)

			var newArcs []*core.Arc
			for _, p := range src.InputPorts() {
				for _, a := range p.Arcs() {
					newArcs = append(newArcs,
						core.NewArc(a.SrcPort(), replica.InputPort(p.Num()), a.DataType(), a.SampleTime()))
				}
			}
			newArcs = append(newArcs,
				core.NewArc(replica.OrderConstraintOutPort(), r.OrderConstraintInPort(), orderT, -1))
			d.AddRemoveNodesAndArcs([]core.Node{replica}, nil, newArcs, nil)
			if parent := src.Parent(); parent != nil {
				d.ReparentNode(replica, parent)
			}
			if out[r] == nil {
				out[r] = make(map[int]core.Node)
			}
			out[r][part] = replica
		}
	}
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return out
}

// contextPartitions lists the distinct partitions of the nodes recorded
// in a root's subcontexts, sorted ascending.
func contextPartitions(r core.ContextRoot) []int {
	seen := make(map[int]bool)
	for i := 0; i < r.NumSubContexts(); i++ {
		for _, n := range r.NodesInSubContext(i) {
			seen[n.Partition()] = true
		}
	}
	var parts []int
	for p := range seen {
		parts = append(parts, p)
	}
	sortInts(parts)

	return parts
}

// EncapsulateContexts creates a ContextFamilyContainer per (root,
// partition) pair and a ContextContainer per subcontext, re-homes the
// discovered context nodes into their containers, and makes the
// decision drivers order-constraint dependencies of each family so the
// guard value exists before the family executes.
//
// After encapsulation a node's context stack is consistent with its
// structural parent chain.
func EncapsulateContexts(d *core.Design) []*nodes.ContextFamilyContainer {
	orderT := numeric.NewDataType(false, false, false, 1, 0, nil)
	var families []*nodes.ContextFamilyContainer

	for _, r := range d.ContextRoots() {
		if !needsEncapsulation(r) {
			continue
		}
		for _, part := range contextPartitions(r) {
			if part == core.PartitionUnassigned {
				continue
			}
			family := nodes.NewContextFamilyContainer(r, part, r.Parent())
			d.AddNode(family)
			if parent := r.Parent(); parent != nil {
				d.ReparentNode(family, parent)
			}
			r.SetFamilyContainer(part, family)
			families = append(families, family)

			for sub := 0; sub < r.NumSubContexts(); sub++ {
				container := nodes.NewContextContainer(family, sub)
				d.AddNode(container)
				family.Subsystem.AddChild(container)
				family.AddSubContainer(container)
				for _, n := range r.NodesInSubContext(sub) {
					if n.Partition() != part || n == core.Node(r) {
						continue
					}
					d.ReparentNode(n, &container.Subsystem)
				}
			}

			// decision drivers become scheduling dependencies of the family
			for _, a := range r.ContextDecisionDriverArcs() {
				if src := a.SrcPort(); src != nil {
					d.AddArc(core.NewArc(src.Node().OrderConstraintOutPort(),
						family.OrderConstraintInPort(), orderT, -1))
				}
			}
		}
		// the root itself joins its own partition's family
		if fc := r.FamilyContainer(r.Partition()); fc != nil {
			if family, ok := fc.(*nodes.ContextFamilyContainer); ok {
				d.ReparentNode(r, &family.Subsystem)
			}
		}
	}
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return families
}

// needsEncapsulation reports whether a root's context is emitted behind
// a guard (mux, enabled subsystem, downsample domain). Pure structural
// domains keep their hierarchy.
func needsEncapsulation(r core.ContextRoot) bool {
	switch r.(type) {
	case *nodes.Mux, *nodes.EnabledSubsystem, *nodes.DownsampleClockDomain:
		return true
	default:
		return false
	}
}

// CreateContextVariableUpdateNodes creates a ContextVariableUpdate per
// root with persistent decision state (mux selectors, enable lines):
// the update node consumes the decision driver and commits it to the
// decision variable the guards test.
func CreateContextVariableUpdateNodes(d *core.Design) []*nodes.ContextVariableUpdate {
	var created []*nodes.ContextVariableUpdate
	for _, r := range d.ContextRoots() {
		switch r.(type) {
		case *nodes.Mux, *nodes.EnabledSubsystem:
		default:
			continue
		}
		drivers := r.ContextDecisionDriverArcs()
		if len(drivers) == 0 {
			continue
		}
		u := nodes.NewContextVariableUpdate(r, r.Parent())
		a := core.NewArc(drivers[0].SrcPort(), u.InputPort(0), drivers[0].DataType(), drivers[0].SampleTime())
		d.AddRemoveNodesAndArcs([]core.Node{u}, nil, []*core.Arc{a}, nil)
		if parent := r.Parent(); parent != nil {
			d.ReparentNode(u, parent)
		}
		created = append(created, u)
	}
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return created
}

func sortInts(v []int) { sort.Ints(v) }
