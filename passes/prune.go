package passes

import (
	"github.com/ucb-cyarp/vitis-sub000/core"
)

// Prune removes unused nodes: nodes whose outputs reach nothing but the
// Unconnected and Terminator masters (and, when includeVis is true, the
// Visualization master). Subsystems, context roots, and stateful nodes
// are retained. The input arcs of each removed node are redirected to
// the Unconnected master, so their sources lose that consumer. Returns
// the number of nodes removed.
//
// Complexity: O(passes * (V + E)); each pass removes at least one node.
func Prune(d *core.Design, includeVis bool) int {
	removed := 0
	for {
		victim := findPruneVictim(d, includeVis)
		if victim == nil {
			return removed
		}
		// redirect the victim's input arcs to the unconnected master so
		// upstream fan-out counts drop, then drop the node
		for _, p := range victim.InputPorts() {
			for _, a := range p.Arcs() {
				a.SetDstPort(d.UnconnectedMaster().InputPort(0))
			}
		}
		d.RemoveNode(victim)
		removed++
	}
}

// findPruneVictim locates one node with no live consumers.
func findPruneVictim(d *core.Design, includeVis bool) core.Node {
	for _, n := range d.Nodes() {
		if n.HasState() {
			continue
		}
		if _, isSub := n.(interface{ Children() []core.Node }); isSub {
			continue
		}
		if _, isRoot := n.(core.ContextRoot); isRoot {
			continue
		}
		if liveOutDegree(d, n, includeVis) == 0 {
			return n
		}
	}

	return nil
}

// liveOutDegree counts outgoing arcs that terminate anywhere but the
// sink masters being ignored.
func liveOutDegree(d *core.Design, n core.Node, includeVis bool) int {
	count := 0
	for _, p := range n.OutputPorts() {
		for _, a := range p.Arcs() {
			dst := a.DstNode()
			if dst == nil {
				continue
			}
			if dst == core.Node(d.UnconnectedMaster()) || dst == core.Node(d.TerminatorMaster()) {
				continue
			}
			if includeVis && dst == core.Node(d.VisMaster()) {
				continue
			}
			count++
		}
	}
	// order-constraint consumers keep a node alive too
	if n.OrderConstraintOutPresent() {
		count += n.OrderConstraintOutPort().ArcCount()
	}

	return count
}

// DisconnectUnconnectedArcs removes arcs terminating at the Unconnected
// master (and the Visualization master when removeVis is set). Returns
// the number of arcs removed.
func DisconnectUnconnectedArcs(d *core.Design, removeVis bool) int {
	removed := 0
	for _, a := range d.Arcs() {
		dst := a.DstNode()
		if dst == nil {
			d.RemoveArc(a)
			removed++

			continue
		}
		if dst == core.Node(d.UnconnectedMaster()) || (removeVis && dst == core.Node(d.VisMaster())) {
			d.RemoveArc(a)
			removed++
		}
	}

	return removed
}
