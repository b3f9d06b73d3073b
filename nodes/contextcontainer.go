package nodes

import (
	"fmt"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// ContextFamilyContainer is the encapsulation product for one
// (context root, partition) pair: it owns a ContextContainer per
// subcontext and an order-constraint port through which the context
// decision drivers become scheduling dependencies of the whole family.
type ContextFamilyContainer struct {
	core.Subsystem

	root          core.ContextRoot
	partition     int
	subContainers []*ContextContainer
}

// NewContextFamilyContainer constructs a family container for root in
// the given partition.
func NewContextFamilyContainer(root core.ContextRoot, partition int, parent *core.Subsystem) *ContextFamilyContainer {
	f := &ContextFamilyContainer{root: root, partition: partition}
	core.InitNode(&f.NodeBase, f)
	f.SetName(fmt.Sprintf("%s_ctxFamily_p%d", root.Name(), partition))
	f.SetParent(parent)
	f.SetPartition(partition)

	return f
}

// TypeName identifies the variant.
func (f *ContextFamilyContainer) TypeName() string { return "ContextFamilyContainer" }

// Root returns the context root this family encapsulates.
func (f *ContextFamilyContainer) Root() core.ContextRoot { return f.root }

// SubContainers returns the per-subcontext containers in index order.
func (f *ContextFamilyContainer) SubContainers() []*ContextContainer {
	return append([]*ContextContainer(nil), f.subContainers...)
}

// AddSubContainer appends the container for the next subcontext.
func (f *ContextFamilyContainer) AddSubContainer(c *ContextContainer) {
	f.subContainers = append(f.subContainers, c)
}

// HasCombinationalPath is false for the pure container.
func (f *ContextFamilyContainer) HasCombinationalPath() bool { return false }

// RemapNodes redirects the root and container references.
func (f *ContextFamilyContainer) RemapNodes(remap func(core.Node) core.Node) {
	if f.root != nil {
		if r, ok := remap(f.root).(core.ContextRoot); ok {
			f.root = r
		}
	}
	for i, c := range f.subContainers {
		if mapped, ok := remap(c).(*ContextContainer); ok {
			f.subContainers[i] = mapped
		}
	}
}

// ShallowClone copies the container shell.
func (f *ContextFamilyContainer) ShallowClone(parent *core.Subsystem) core.Node {
	c := &ContextFamilyContainer{
		root:          f.root,
		partition:     f.partition,
		subContainers: append([]*ContextContainer(nil), f.subContainers...),
	}
	core.CloneBaseInto(&c.NodeBase, c, f, parent)

	return c
}

// ContextContainer owns the nodes of one subcontext inside a family
// container.
type ContextContainer struct {
	core.Subsystem
	subContext int
}

// NewContextContainer constructs the container for subcontext index sub.
func NewContextContainer(family *ContextFamilyContainer, sub int) *ContextContainer {
	c := &ContextContainer{subContext: sub}
	core.InitNode(&c.NodeBase, c)
	c.SetName(fmt.Sprintf("%s_sub%d", family.Name(), sub))
	c.SetParent(&family.Subsystem)
	c.SetPartition(family.Partition())

	return c
}

// TypeName identifies the variant.
func (c *ContextContainer) TypeName() string { return "ContextContainer" }

// SubContext returns the subcontext index this container holds.
func (c *ContextContainer) SubContext() int { return c.subContext }

// HasCombinationalPath is false for the pure container.
func (c *ContextContainer) HasCombinationalPath() bool { return false }

// ShallowClone copies the container shell.
func (c *ContextContainer) ShallowClone(parent *core.Subsystem) core.Node {
	cl := &ContextContainer{subContext: c.subContext}
	core.CloneBaseInto(&cl.NodeBase, cl, c, parent)

	return cl
}

// ContextVariableUpdate persists a context root's decision value into
// its decision variable so guards can test it after the driver has been
// consumed (mux selectors with persistent decision state).
type ContextVariableUpdate struct {
	core.NodeBase
	root core.ContextRoot
}

// NewContextVariableUpdate constructs the update node for root.
func NewContextVariableUpdate(root core.ContextRoot, parent *core.Subsystem) *ContextVariableUpdate {
	u := &ContextVariableUpdate{root: root}
	core.InitNode(&u.NodeBase, u)
	u.SetName(root.Name() + "_ctxVarUpdate")
	u.SetParent(parent)
	u.SetPartition(root.Partition())

	return u
}

// TypeName identifies the variant.
func (u *ContextVariableUpdate) TypeName() string { return "ContextVariableUpdate" }

// Root returns the context root whose decision this node persists.
func (u *ContextVariableUpdate) Root() core.ContextRoot { return u.root }

// Validate requires exactly one input: the decision driver.
func (u *ContextVariableUpdate) Validate() error {
	if err := u.NodeBase.Validate(); err != nil {
		return err
	}
	if len(u.InputPorts()) != 1 {
		return fmt.Errorf("%w: context variable update %s needs exactly 1 driver input",
			core.ErrValidation, u.FullyQualifiedName())
	}

	return nil
}

// decisionVariable resolves the root's decision variable.
func (u *ContextVariableUpdate) decisionVariable() (numeric.Variable, error) {
	switch r := u.root.(type) {
	case *Mux:
		return r.DecisionVariable(), nil
	case *EnabledSubsystem:
		return r.DecisionVariable(), nil
	default:
		return numeric.Variable{}, fmt.Errorf("%w: context variable update %s for a root without decision state",
			core.ErrValidation, u.FullyQualifiedName())
	}
}

// HasGlobalDecl: the decision variable is declared at file scope.
func (u *ContextVariableUpdate) HasGlobalDecl() bool { return true }

// GlobalDeclText declares the decision variable.
func (u *ContextVariableUpdate) GlobalDeclText() string {
	v, err := u.decisionVariable()
	if err != nil {
		return ""
	}

	return v.CDecl(false, true, true) + ";"
}

// EmitNextState assigns the driver value into the decision variable.
func (u *ContextVariableUpdate) EmitNextState(q *core.StmtQueue) error {
	v, err := u.decisionVariable()
	if err != nil {
		return err
	}
	in, err := core.EmitInputExpr(q, u, 0, false)
	if err != nil {
		return err
	}
	q.Add("%s = %s;", v.CName(false), in.Text)

	return nil
}

// RemapNodes redirects the root reference.
func (u *ContextVariableUpdate) RemapNodes(remap func(core.Node) core.Node) {
	if u.root != nil {
		if r, ok := remap(u.root).(core.ContextRoot); ok {
			u.root = r
		}
	}
}

// ShallowClone copies the node.
func (u *ContextVariableUpdate) ShallowClone(parent *core.Subsystem) core.Node {
	c := &ContextVariableUpdate{root: u.root}
	core.CloneBaseInto(&c.NodeBase, c, u, parent)

	return c
}
