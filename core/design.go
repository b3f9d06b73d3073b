package core

import (
	"fmt"
	"strings"
)

// Design is the container for one dataflow graph: the five master
// sentinels, the node set, the arc set, and the top-level node list.
type Design struct {
	inputMaster       *MasterInput
	outputMaster      *MasterOutput
	visMaster         *MasterOutput
	terminatorMaster  *MasterOutput
	unconnectedMaster *MasterUnconnected

	nodes    []Node
	arcs     []*Arc
	topLevel []Node

	topContextRoots []ContextRoot
}

// NewDesign constructs an empty design with fresh master sentinels.
func NewDesign() *Design {
	return &Design{
		inputMaster:       NewMasterInput(),
		outputMaster:      NewMasterOutput(RoleOutput),
		visMaster:         NewMasterOutput(RoleVis),
		terminatorMaster:  NewMasterOutput(RoleTerminator),
		unconnectedMaster: NewMasterUnconnected(),
	}
}

// InputMaster returns the sentinel whose outputs are the design inputs.
func (d *Design) InputMaster() *MasterInput { return d.inputMaster }

// OutputMaster returns the primary output sink sentinel.
func (d *Design) OutputMaster() *MasterOutput { return d.outputMaster }

// VisMaster returns the visualization sink sentinel.
func (d *Design) VisMaster() *MasterOutput { return d.visMaster }

// TerminatorMaster returns the discard sink sentinel.
func (d *Design) TerminatorMaster() *MasterOutput { return d.terminatorMaster }

// UnconnectedMaster returns the dangling-port sink sentinel.
func (d *Design) UnconnectedMaster() *MasterUnconnected { return d.unconnectedMaster }

// MasterNodes returns the five sentinels.
func (d *Design) MasterNodes() []Node {
	return []Node{d.inputMaster, d.outputMaster, d.visMaster, d.terminatorMaster, d.unconnectedMaster}
}

// Nodes returns the node set in insertion order (masters excluded).
func (d *Design) Nodes() []Node {
	out := make([]Node, len(d.nodes))
	copy(out, d.nodes)

	return out
}

// Arcs returns the arc set in insertion order.
func (d *Design) Arcs() []*Arc {
	out := make([]*Arc, len(d.arcs))
	copy(out, d.arcs)

	return out
}

// TopLevelNodes returns the nodes with no parent subsystem.
func (d *Design) TopLevelNodes() []Node {
	out := make([]Node, len(d.topLevel))
	copy(out, d.topLevel)

	return out
}

// TopLevelContextRoots returns the context roots registered at top level.
func (d *Design) TopLevelContextRoots() []ContextRoot {
	out := make([]ContextRoot, len(d.topContextRoots))
	copy(out, d.topContextRoots)

	return out
}

// AddNode registers a node with the design. Nodes without a parent are
// also added to the top-level list.
func (d *Design) AddNode(n Node) {
	d.nodes = append(d.nodes, n)
	if n.Parent() == nil {
		d.addTopLevel(n)
	}
}

// AddArc registers an arc with the design.
func (d *Design) AddArc(a *Arc) {
	d.arcs = append(d.arcs, a)
}

// AddTopLevelContextRoot registers a context root discovered at the top
// level of the context hierarchy.
func (d *Design) AddTopLevelContextRoot(r ContextRoot) {
	for _, existing := range d.topContextRoots {
		if existing == r {
			return
		}
	}
	d.topContextRoots = append(d.topContextRoots, r)
}

// RemoveTopLevelContextRoot unregisters a context root.
func (d *Design) RemoveTopLevelContextRoot(r ContextRoot) {
	for i, existing := range d.topContextRoots {
		if existing == r {
			d.topContextRoots = append(d.topContextRoots[:i], d.topContextRoots[i+1:]...)

			return
		}
	}
}

// RemoveNode unregisters a node, detaches every arc still touching its
// ports by retargeting nothing (the arcs are disconnected), removes it
// from its parent's child list and the top-level list. Children of a
// subsystem are NOT removed; re-parent them first.
func (d *Design) RemoveNode(n Node) {
	for _, p := range n.Ports() {
		for _, a := range p.Arcs() {
			a.Disconnect()
			d.removeArcEntry(a)
		}
	}
	if parent := n.Parent(); parent != nil {
		parent.RemoveChild(n)
	}
	d.removeTopLevel(n)
	for i, existing := range d.nodes {
		if existing == n {
			d.nodes = append(d.nodes[:i], d.nodes[i+1:]...)

			break
		}
	}
	if r, ok := n.(ContextRoot); ok {
		d.RemoveTopLevelContextRoot(r)
	}
}

// RemoveArc disconnects an arc from its endpoints and unregisters it.
func (d *Design) RemoveArc(a *Arc) {
	a.Disconnect()
	d.removeArcEntry(a)
}

// AddRemoveNodesAndArcs applies a batch of graph surgery: additions are
// applied before deletions so a replacement node can take over the edges
// of the node it replaces before the original is dropped.
func (d *Design) AddRemoveNodesAndArcs(newNodes []Node, deletedNodes []Node, newArcs []*Arc, deletedArcs []*Arc) {
	for _, n := range newNodes {
		d.AddNode(n)
	}
	for _, a := range newArcs {
		d.AddArc(a)
	}
	for _, a := range deletedArcs {
		d.RemoveArc(a)
	}
	for _, n := range deletedNodes {
		d.RemoveNode(n)
	}
}

// ReparentNode moves n from its current parent to newParent (nil moves
// it to the top level), maintaining child lists and the top-level list.
func (d *Design) ReparentNode(n Node, newParent *Subsystem) {
	if old := n.Parent(); old != nil {
		old.RemoveChild(n)
	} else {
		d.removeTopLevel(n)
	}
	if newParent == nil {
		n.SetParent(nil)
		d.addTopLevel(n)

		return
	}
	newParent.AddChild(n)
}

// MaxNodeID returns the highest assigned node ID (masters included).
func (d *Design) MaxNodeID() int {
	max := MasterReservedMax
	for _, n := range d.nodes {
		if n.ID() > max {
			max = n.ID()
		}
	}

	return max
}

// AssignNodeIDs gives every node with a negative ID a fresh ID starting
// above the current maximum and above the reserved master range.
// Already-positive IDs are preserved.
func (d *Design) AssignNodeIDs() {
	next := d.MaxNodeID() + 1
	for _, n := range d.nodes {
		if n.ID() < 0 {
			n.SetID(next)
			next++
		}
	}
}

// RenumberNodeIDs reassigns all non-master node IDs densely starting
// above the reserved range.
func (d *Design) RenumberNodeIDs() {
	next := MasterReservedMax + 1
	for _, n := range d.nodes {
		n.SetID(next)
		next++
	}
}

// MaxArcID returns the highest assigned arc ID.
func (d *Design) MaxArcID() int {
	max := 0
	for _, a := range d.arcs {
		if a.ID() > max {
			max = a.ID()
		}
	}

	return max
}

// AssignArcIDs gives every arc with a negative ID a fresh ID above the
// current maximum, preserving already-positive IDs.
func (d *Design) AssignArcIDs() {
	next := d.MaxArcID() + 1
	for _, a := range d.arcs {
		if a.ID() < 0 {
			a.SetID(next)
			next++
		}
	}
}

// RenumberArcIDs reassigns all arc IDs densely starting at 1.
func (d *Design) RenumberArcIDs() {
	for i, a := range d.arcs {
		a.SetID(i + 1)
	}
}

// NodeByNamePath walks the hierarchy from the top level following
// instance names and returns the node at the end of the path.
func (d *Design) NodeByNamePath(path []string) (Node, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty name path", ErrNotFound)
	}
	var cur Node
	scope := d.topLevel
	for depth, name := range path {
		cur = nil
		for _, n := range scope {
			if n.Name() == name {
				cur = n

				break
			}
		}
		if cur == nil {
			return nil, fmt.Errorf("%w: name path %q (failed at depth %d)",
				ErrNotFound, strings.Join(path, "/"), depth)
		}
		if depth < len(path)-1 {
			sub, ok := cur.(interface{ Children() []Node })
			if !ok {
				return nil, fmt.Errorf("%w: %q is not a subsystem", ErrNotFound, name)
			}
			scope = sub.Children()
		}
	}

	return cur, nil
}

// ValidateNodes validates every node and the arc endpoint invariant.
func (d *Design) ValidateNodes() error {
	for _, n := range d.nodes {
		if err := n.Validate(); err != nil {
			return err
		}
	}
	for _, a := range d.arcs {
		if a.SrcPort() == nil || a.DstPort() == nil {
			return fmt.Errorf("%w: %s is dangling", ErrTransform, a.String())
		}
		if !portHasArc(a.SrcPort(), a) || !portHasArc(a.DstPort(), a) {
			return fmt.Errorf("%w: %s missing from an endpoint set", ErrTransform, a.String())
		}
	}

	return nil
}

// addTopLevel appends n to the top-level list if absent.
func (d *Design) addTopLevel(n Node) {
	for _, t := range d.topLevel {
		if t == n {
			return
		}
	}
	d.topLevel = append(d.topLevel, n)
}

// removeTopLevel drops n from the top-level list.
func (d *Design) removeTopLevel(n Node) {
	for i, t := range d.topLevel {
		if t == n {
			d.topLevel = append(d.topLevel[:i], d.topLevel[i+1:]...)

			return
		}
	}
}

// removeArcEntry drops a from the arc set.
func (d *Design) removeArcEntry(a *Arc) {
	for i, e := range d.arcs {
		if e == a {
			d.arcs = append(d.arcs[:i], d.arcs[i+1:]...)

			return
		}
	}
}

func portHasArc(p *Port, a *Arc) bool {
	for _, e := range p.arcs {
		if e == a {
			return true
		}
	}

	return false
}
