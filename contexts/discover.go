package contexts

import (
	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
)

// DiscoverAndMarkContexts rebuilds every node's context stack and every
// root's subcontext registry from scratch:
//
//  1. hierarchical roots (enabled subsystems, clock domains, blocking
//     domains) contribute a context to every descendant;
//  2. mux roots contribute a context to the nodes that exclusively feed
//     one of their data ports, with the traversal stopping at
//     state-holding nodes and at FIFOs carrying initial state.
//
// Top-level context roots are registered on the design. Returns the
// number of (node, context) memberships recorded.
func DiscoverAndMarkContexts(d *core.Design) int {
	// 1. Reset prior discovery results.
	for _, n := range d.Nodes() {
		n.SetContexts(nil)
	}
	for _, r := range d.ContextRoots() {
		r.ClearSubContextNodes()
		d.RemoveTopLevelContextRoot(r)
	}

	marked := 0

	// 2. Hierarchical contexts from the subsystem tree.
	var walk func(n core.Node, stack []core.Context)
	walk = func(n core.Node, stack []core.Context) {
		n.SetContexts(append([]core.Context(nil), stack...))
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			top.Root.AddToSubContext(top.SubContext, n)
			marked++
		}
		next := stack
		if r, ok := n.(core.ContextRoot); ok && isHierarchicalRoot(n) {
			if len(stack) == 0 {
				d.AddTopLevelContextRoot(r)
			}
			next = append(append([]core.Context(nil), stack...), core.NewContext(r, 0))
		}
		if sub, ok := n.(interface{ Children() []core.Node }); ok {
			for _, c := range sub.Children() {
				walk(c, next)
			}
		}
	}
	for _, n := range d.TopLevelNodes() {
		walk(n, nil)
	}

	// 3. Mux cones.
	for _, r := range d.ContextRoots() {
		m, ok := r.(*nodes.Mux)
		if !ok {
			continue
		}
		if len(m.Contexts()) == 0 {
			d.AddTopLevelContextRoot(m)
		}
		for k := 0; k < m.NumDataPorts(); k++ {
			memo := make(map[core.Node]bool)
			cone := muxCone(m, k, memo)
			for _, n := range cone {
				n.PushContext(core.NewContext(m, k))
				m.AddToSubContext(k, n)
				marked++
			}
		}
	}

	return marked
}

// isHierarchicalRoot reports whether the root gates all hierarchy
// descendants (as opposed to mux cones, which are discovered by data
// flow).
func isHierarchicalRoot(n core.Node) bool {
	switch n.(type) {
	case *nodes.EnabledSubsystem, *nodes.ClockDomain, *nodes.UpsampleClockDomain,
		*nodes.DownsampleClockDomain, *nodes.BlockingDomain:
		return true
	default:
		return false
	}
}

// muxCone collects the nodes whose every data output transitively feeds
// only data port k of mux m. Traversal stops at (excludes) stateful
// nodes, FIFOs with initial state, masters, and context roots.
func muxCone(m *nodes.Mux, k int, memo map[core.Node]bool) []core.Node {
	var cone []core.Node
	var visit func(n core.Node)
	inCone := func(n core.Node) bool {
		if v, ok := memo[n]; ok {
			return v
		}
		memo[n] = false // break cycles pessimistically
		if core.IsMaster(n) || n.HasState() || n.HasGlobalDecl() {
			return false
		}
		if _, isRoot := n.(core.ContextRoot); isRoot {
			return false
		}
		if fifo, isFIFO := n.(*nodes.ThreadCrossingFIFO); isFIFO && fifo.InitCondCount() > 0 {
			return false
		}
		outs := 0
		for _, p := range n.OutputPorts() {
			for _, a := range p.Arcs() {
				outs++
				dst := a.DstNode()
				if dst == core.Node(m) {
					if a.DstPort() != m.DataPort(k) {
						return false
					}

					continue
				}
				if dst == nil || !solelyFeedsCone(dst, m, k, memo) {
					return false
				}
			}
		}
		if outs == 0 {
			return false
		}
		memo[n] = true

		return true
	}
	visit = func(n core.Node) {
		if inCone(n) {
			cone = append(cone, n)
			for _, p := range n.InputPorts() {
				for _, a := range p.Arcs() {
					if src := a.SrcNode(); src != nil {
						visit(src)
					}
				}
			}
		}
	}
	if k+1 <= len(m.InputPorts())-1 {
		for _, a := range m.DataPort(k).Arcs() {
			if src := a.SrcNode(); src != nil {
				visit(src)
			}
		}
	}

	return cone
}

// solelyFeedsCone memoizes whether n is already known to belong to the
// cone under construction.
func solelyFeedsCone(n core.Node, m *nodes.Mux, k int, memo map[core.Node]bool) bool {
	if v, ok := memo[n]; ok {
		return v
	}

	return false
}

// ExpandEnabledSubsystemContexts moves nodes whose only consumers are a
// single enabled subsystem's boundary inputs into that subsystem, so
// they join its context and are skipped while the subsystem is
// disabled. Returns the number of nodes moved.
func ExpandEnabledSubsystemContexts(d *core.Design) int {
	moved := 0
	for _, n := range d.Nodes() {
		var es *nodes.EnabledSubsystem
		if _, isEn := n.(*nodes.EnableInput); isEn {
			continue
		}
		if _, isRoot := n.(core.ContextRoot); isRoot {
			continue
		}
		if n.HasState() || core.IsMaster(n) {
			continue
		}
		sole := true
		count := 0
		for _, p := range n.OutputPorts() {
			for _, a := range p.Arcs() {
				count++
				ei, ok := a.DstNode().(*nodes.EnableInput)
				if !ok {
					sole = false

					break
				}
				parent, ok := enclosingEnabledSubsystem(ei)
				if !ok || (es != nil && es != parent) {
					sole = false

					break
				}
				es = parent
			}
		}
		if !sole || count == 0 || es == nil {
			continue
		}
		d.ReparentNode(n, &es.Subsystem)
		moved++
	}

	return moved
}

// enclosingEnabledSubsystem resolves the enabled subsystem that owns a
// boundary node.
func enclosingEnabledSubsystem(n core.Node) (*nodes.EnabledSubsystem, bool) {
	for p := n.Parent(); p != nil; {
		// the parent chain is built of *core.Subsystem embedded in
		// variants; match through the node registered at this level
		owner := p.Owner()
		if es, ok := owner.(*nodes.EnabledSubsystem); ok {
			return es, true
		}
		p = p.Parent()
	}

	return nil, false
}

// PlaceEnableNodesInPartitions assigns boundary enable nodes lacking a
// partition to their enclosing subsystem's partition. Returns the
// number of nodes placed.
func PlaceEnableNodesInPartitions(d *core.Design) int {
	placed := 0
	for _, n := range d.Nodes() {
		switch n.(type) {
		case *nodes.EnableInput, *nodes.EnableOutput:
		default:
			continue
		}
		if n.Partition() != core.PartitionUnassigned {
			continue
		}
		if p := n.Parent(); p != nil && p.Owner() != nil {
			n.SetPartition(p.Owner().Partition())
			placed++
		}
	}

	return placed
}
