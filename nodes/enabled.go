package nodes

import (
	"fmt"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// EnabledSubsystem is a subsystem whose interior executes only when its
// enable line is true. It is a context root with a single subcontext.
// EnableInput/EnableOutput boundary nodes ring the interior; the enable
// driver fans out to their enable ports and to the subsystem's own.
type EnabledSubsystem struct {
	core.Subsystem
	core.SubContextRegistry

	replicateDrivers bool
}

// NewEnabledSubsystem constructs an enabled subsystem.
func NewEnabledSubsystem(name string, parent *core.Subsystem) *EnabledSubsystem {
	e := &EnabledSubsystem{}
	core.InitNode(&e.NodeBase, e)
	e.SetName(name)
	e.SetParent(parent)
	e.EnsureSubContexts(1)

	return e
}

// TypeName identifies the variant.
func (e *EnabledSubsystem) TypeName() string { return "Enabled Subsystem" }

// EnableInputs returns the boundary input nodes among the children.
func (e *EnabledSubsystem) EnableInputs() []*EnableInput {
	var out []*EnableInput
	for _, c := range e.Children() {
		if n, ok := c.(*EnableInput); ok {
			out = append(out, n)
		}
	}

	return out
}

// EnableOutputs returns the boundary output nodes among the children.
func (e *EnabledSubsystem) EnableOutputs() []*EnableOutput {
	var out []*EnableOutput
	for _, c := range e.Children() {
		if n, ok := c.(*EnableOutput); ok {
			out = append(out, n)
		}
	}

	return out
}

// DecisionVariable is the C variable carrying the enable decision.
func (e *EnabledSubsystem) DecisionVariable() numeric.Variable {
	dt := numeric.NewDataType(false, false, false, 1, 0, nil)

	return numeric.NewVariable(core.CIdentifier(e)+"_en", dt, []numeric.NumericValue{numeric.NewIntValue(0)})
}

// Validate requires a connected enable line.
func (e *EnabledSubsystem) Validate() error {
	if err := e.Subsystem.Validate(); err != nil {
		return err
	}
	if !e.EnablePortPresent() {
		return fmt.Errorf("%w: enabled subsystem %s has no enable driver",
			core.ErrValidation, e.FullyQualifiedName())
	}

	return nil
}

// ContextDecisionDriverArcs returns the enable-line arcs.
func (e *EnabledSubsystem) ContextDecisionDriverArcs() []*core.Arc {
	return e.EnablePort().Arcs()
}

// ShouldReplicateDrivers reflects the pass configuration.
func (e *EnabledSubsystem) ShouldReplicateDrivers() bool { return e.replicateDrivers }

// SetReplicateDrivers is set by the context passes.
func (e *EnabledSubsystem) SetReplicateDrivers(v bool) { e.replicateDrivers = v }

// RequiresContiguousBlocking: enabled regions may be split across
// sub-blocks (the guard re-evaluates per sub-block).
func (e *EnabledSubsystem) RequiresContiguousBlocking() bool { return false }

// GuardExpr tests the enable decision variable.
func (e *EnabledSubsystem) GuardExpr(sub int) string {
	return e.DecisionVariable().CName(false)
}

// ShallowClone copies the subsystem shell and subcontext registry.
func (e *EnabledSubsystem) ShallowClone(parent *core.Subsystem) core.Node {
	c := &EnabledSubsystem{replicateDrivers: e.replicateDrivers}
	core.CloneBaseInto(&c.NodeBase, c, e, parent)
	c.CloneRegistryFrom(&e.SubContextRegistry)

	return c
}

// EnableInput passes a signal across the enabled-subsystem boundary
// into the gated interior.
type EnableInput struct {
	core.NodeBase
}

// NewEnableInput constructs a boundary input node.
func NewEnableInput(name string, parent *core.Subsystem) *EnableInput {
	n := &EnableInput{}
	core.InitNode(&n.NodeBase, n)
	n.SetName(name)
	n.SetParent(parent)

	return n
}

// TypeName identifies the variant.
func (n *EnableInput) TypeName() string { return "Enable Input" }

// Validate requires the enable line and exactly one data input.
func (n *EnableInput) Validate() error {
	if err := n.NodeBase.Validate(); err != nil {
		return err
	}
	if len(n.InputPorts()) != 1 {
		return fmt.Errorf("%w: enable input %s needs exactly 1 data input",
			core.ErrValidation, n.FullyQualifiedName())
	}

	return nil
}

// EmitValueExpr passes the boundary signal through.
func (n *EnableInput) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	return core.EmitInputExpr(q, n, 0, imag)
}

// ShallowClone copies the node.
func (n *EnableInput) ShallowClone(parent *core.Subsystem) core.Node {
	c := &EnableInput{}
	core.CloneBaseInto(&c.NodeBase, c, n, parent)

	return c
}

// EnableOutput latches the interior signal at the enabled-subsystem
// boundary: while the subsystem is disabled, consumers observe the last
// value produced when it was enabled. The latch makes it stateful.
type EnableOutput struct {
	core.NodeBase
}

// NewEnableOutput constructs a boundary output node.
func NewEnableOutput(name string, parent *core.Subsystem) *EnableOutput {
	n := &EnableOutput{}
	core.InitNode(&n.NodeBase, n)
	n.SetName(name)
	n.SetParent(parent)

	return n
}

// TypeName identifies the variant.
func (n *EnableOutput) TypeName() string { return "Enable Output" }

// Validate requires exactly one data input.
func (n *EnableOutput) Validate() error {
	if err := n.NodeBase.Validate(); err != nil {
		return err
	}
	if len(n.InputPorts()) != 1 {
		return fmt.Errorf("%w: enable output %s needs exactly 1 data input",
			core.ErrValidation, n.FullyQualifiedName())
	}

	return nil
}

// HasState: the boundary latch persists across disabled cycles.
func (n *EnableOutput) HasState() bool { return true }

// HasCombinationalPath is false; consumers read the latch.
func (n *EnableOutput) HasCombinationalPath() bool { return false }

// latchType returns the latched element type.
func (n *EnableOutput) latchType() numeric.DataType {
	if arc, err := n.InputPort(0).SoleArc(); err == nil {
		return arc.DataType()
	}

	return numeric.NewDataType(false, true, false, 64, 0, nil)
}

// StateVariables declares the boundary latch.
func (n *EnableOutput) StateVariables() []numeric.Variable {
	return []numeric.Variable{
		numeric.NewVariable(core.CIdentifier(n)+"_latch", n.latchType(), nil),
	}
}

// EmitValueExpr reads the latch.
func (n *EnableOutput) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	v := numeric.Variable{Name: core.CIdentifier(n) + "_latch", Type: n.latchType()}

	return core.NewCExpr(v.CName(imag), true), nil
}

// EmitNextState refreshes the latch from the interior; the emitter
// places this inside the context guard, so it only runs while enabled.
func (n *EnableOutput) EmitNextState(q *core.StmtQueue) error {
	elemT := n.latchType()
	for _, im := range componentsOf(elemT) {
		in, err := core.EmitInputExpr(q, n, 0, im)
		if err != nil {
			return err
		}
		v := numeric.Variable{Name: core.CIdentifier(n) + "_latch", Type: elemT}
		if elemT.IsScalar() {
			q.Add("%s = %s;", v.CName(im), in.Text)
		} else {
			q.Add("for (int i = 0; i < %d; i++) { %s[i] = %s[i]; }", elemT.NumElements(), v.CName(im), in.Text)
		}
	}

	return nil
}

// ShallowClone copies the node.
func (n *EnableOutput) ShallowClone(parent *core.Subsystem) core.Node {
	c := &EnableOutput{}
	core.CloneBaseInto(&c.NodeBase, c, n, parent)

	return c
}
