package core

// Subsystem is a node that owns a set of child nodes and forms the
// design hierarchy. Removing a subsystem does not remove its children;
// they must be re-parented first.
type Subsystem struct {
	NodeBase
	children []Node
}

// NewSubsystem constructs an empty subsystem under parent (nil for
// top level). The child is not added to the parent's list; use
// Design.ReparentNode or AddChild on the parent.
func NewSubsystem(name string, parent *Subsystem) *Subsystem {
	s := &Subsystem{}
	InitNode(&s.NodeBase, s)
	s.SetName(name)
	s.SetParent(parent)

	return s
}

// TypeName identifies the variant.
func (s *Subsystem) TypeName() string { return "Subsystem" }

// Owner returns the node variant this subsystem belongs to: itself for
// a plain subsystem, or the embedding variant (enabled subsystem, clock
// domain, blocking domain, container) whose hierarchy level it is.
func (s *Subsystem) Owner() Node { return s.base().Self() }

// Children returns the direct children in insertion order.
func (s *Subsystem) Children() []Node {
	out := make([]Node, len(s.children))
	copy(out, s.children)

	return out
}

// ChildCount returns the number of direct children.
func (s *Subsystem) ChildCount() int { return len(s.children) }

// AddChild appends n to the child list and points its parent here.
func (s *Subsystem) AddChild(n Node) {
	for _, c := range s.children {
		if c == n {
			return
		}
	}
	s.children = append(s.children, n)
	n.SetParent(s)
}

// RemoveChild removes n from the child list. The node's parent pointer
// is left for the caller to redirect.
func (s *Subsystem) RemoveChild(n Node) {
	for i, c := range s.children {
		if c == n {
			s.children = append(s.children[:i], s.children[i+1:]...)

			return
		}
	}
}

// Validate on a subsystem only checks its own ports; children validate
// individually through Design.ValidateNodes.
func (s *Subsystem) Validate() error {
	return s.NodeBase.Validate()
}

// HasCombinationalPath is false for the pure container.
func (s *Subsystem) HasCombinationalPath() bool { return false }

// ShallowClone copies the subsystem shell without children; CopyGraph
// re-creates the hierarchy.
func (s *Subsystem) ShallowClone(parent *Subsystem) Node {
	c := &Subsystem{}
	CloneBaseInto(&c.NodeBase, c, s, parent)

	return c
}

// ExpandedNode is a subsystem standing in for a higher-level node after
// expansion, preserving the original node for provenance.
type ExpandedNode struct {
	Subsystem
	orig Node
}

// NewExpandedNode wraps orig's place in the hierarchy with an expansion
// container named after it.
func NewExpandedNode(orig Node, parent *Subsystem) *ExpandedNode {
	e := &ExpandedNode{orig: orig}
	InitNode(&e.NodeBase, e)
	e.SetName(orig.Name() + "_expanded")
	e.SetParent(parent)

	return e
}

// TypeName identifies the variant.
func (e *ExpandedNode) TypeName() string { return "Expanded" }

// OrigNode returns the pre-expansion node.
func (e *ExpandedNode) OrigNode() Node { return e.orig }

// ShallowClone copies the container shell; the original reference is
// kept as-is and remapped by CopyGraph when the original was cloned too.
func (e *ExpandedNode) ShallowClone(parent *Subsystem) Node {
	c := &ExpandedNode{orig: e.orig}
	CloneBaseInto(&c.NodeBase, c, e, parent)

	return c
}

// RemapNodes redirects the provenance reference into a cloned graph.
func (e *ExpandedNode) RemapNodes(f func(Node) Node) {
	if e.orig != nil {
		e.orig = f(e.orig)
	}
}
