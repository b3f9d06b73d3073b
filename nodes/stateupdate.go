package nodes

import (
	"fmt"

	"github.com/ucb-cyarp/vitis-sub000/core"
)

// StateUpdate is the synthetic node that materializes the
// read-before-write ordering constraint of a stateful primary node: it
// order-depends on the primary (next state computed first) and on every
// consumer of the primary's outputs (all reads of the previous state
// happen first). When scheduled, it triggers the primary's state-update
// emission.
type StateUpdate struct {
	core.NodeBase
	primary core.Node
}

// NewStateUpdate constructs a state-update node for primary.
func NewStateUpdate(primary core.Node, parent *core.Subsystem) *StateUpdate {
	s := &StateUpdate{primary: primary}
	core.InitNode(&s.NodeBase, s)
	s.SetName(primary.Name() + "_stateUpdate")
	s.SetParent(parent)
	s.SetPartition(primary.Partition())

	return s
}

// TypeName identifies the variant.
func (s *StateUpdate) TypeName() string { return "StateUpdate" }

// Primary returns the stateful node this update serves.
func (s *StateUpdate) Primary() core.Node { return s.primary }

// Validate requires a primary and only order-constraint connectivity.
func (s *StateUpdate) Validate() error {
	if s.primary == nil {
		return fmt.Errorf("%w: state update %s has no primary node",
			core.ErrValidation, s.FullyQualifiedName())
	}
	if len(s.InputPorts()) > 0 || len(s.OutputPorts()) > 0 {
		return fmt.Errorf("%w: state update %s must only carry order constraints",
			core.ErrValidation, s.FullyQualifiedName())
	}

	return nil
}

// HasCombinationalPath is false: order constraints only.
func (s *StateUpdate) HasCombinationalPath() bool { return false }

// EmitStateUpdate delegates to the primary node.
func (s *StateUpdate) EmitStateUpdate(q *core.StmtQueue, stateUpdateSrc core.Node) error {
	return s.primary.EmitStateUpdate(q, s)
}

// RemapNodes redirects the primary reference into a cloned graph.
func (s *StateUpdate) RemapNodes(f func(core.Node) core.Node) {
	if s.primary != nil {
		s.primary = f(s.primary)
	}
}

// ShallowClone copies the node; the primary reference is remapped by
// CopyGraph.
func (s *StateUpdate) ShallowClone(parent *core.Subsystem) core.Node {
	c := &StateUpdate{primary: s.primary}
	core.CloneBaseInto(&c.NodeBase, c, s, parent)

	return c
}
