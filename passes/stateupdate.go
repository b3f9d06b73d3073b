package passes

import (
	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// CreateStateUpdateNodes materializes the read-before-write ordering of
// every stateful node S as a synthetic StateUpdate node U:
//
//   - order-constraint arc S -> U: S computes its next state before U
//     commits it;
//   - order-constraint arc C -> U for every consumer C of S's outputs:
//     all reads of the previous state happen before the commit.
//
// U lands in S's partition; with includeContext it also mirrors S's
// context stack so the update is scheduled inside the same guards.
// ThreadCrossingFIFOs manage their own queue state and are skipped.
//
// Returns the created nodes.
func CreateStateUpdateNodes(d *core.Design, includeContext bool) []*nodes.StateUpdate {
	orderT := numeric.NewDataType(false, false, false, 1, 0, nil)
	var created []*nodes.StateUpdate

	for _, s := range d.NodesWithState() {
		if _, isFIFO := s.(*nodes.ThreadCrossingFIFO); isFIFO {
			continue
		}
		if _, isSU := s.(*nodes.StateUpdate); isSU {
			continue
		}
		u := nodes.NewStateUpdate(s, s.Parent())
		if includeContext {
			u.SetContexts(append([]core.Context(nil), s.Contexts()...))
			for _, c := range s.Contexts() {
				c.Root.AddToSubContext(c.SubContext, u)
			}
		}

		var newArcs []*core.Arc
		newArcs = append(newArcs,
			core.NewArc(s.OrderConstraintOutPort(), u.OrderConstraintInPort(), orderT, -1))
		for _, reader := range stateReaders(s) {
			if reader == core.Node(u) {
				continue
			}
			newArcs = append(newArcs,
				core.NewArc(reader.OrderConstraintOutPort(), u.OrderConstraintInPort(), orderT, -1))
		}
		d.AddRemoveNodesAndArcs([]core.Node{u}, nil, newArcs, nil)
		if parent := s.Parent(); parent != nil {
			d.ReparentNode(u, parent)
		}
		created = append(created, u)
	}
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return created
}

// stateReaders collects the distinct non-master consumers of a stateful
// node's data outputs.
func stateReaders(s core.Node) []core.Node {
	var out []core.Node
	seen := make(map[core.Node]bool)
	for _, p := range s.OutputPorts() {
		for _, a := range p.Arcs() {
			dst := a.DstNode()
			if dst == nil || seen[dst] || core.IsMaster(dst) {
				continue
			}
			seen[dst] = true
			out = append(out, dst)
		}
	}

	return out
}
