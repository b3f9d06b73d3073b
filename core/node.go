package core

import (
	"fmt"
	"strings"

	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// Partition sentinels. Real partitions are non-negative thread labels.
const (
	// PartitionUnassigned marks a node not yet assigned to any partition.
	PartitionUnassigned = -1
	// PartitionIO marks a node executed by the I/O boundary thread.
	PartitionIO = -2
)

// SchedOrderUnscheduled marks a node the scheduler has not ordered yet.
const SchedOrderUnscheduled = -1

// Node is the polymorphic hook set every node variant provides. The
// scheduler and emitter depend only on these hooks, never on concrete
// variants. Variants embed NodeBase, which supplies identity, ports,
// context bookkeeping, and default hook implementations (illegal hooks
// return ErrUnsupportedHook).
type Node interface {
	// Identity and placement.
	ID() int
	SetID(id int)
	Name() string
	SetName(name string)
	Parent() *Subsystem
	SetParent(p *Subsystem)
	Partition() int
	SetPartition(part int)
	SchedOrder() int
	SetSchedOrder(order int)
	FullyQualifiedName() string

	// Context stack: the ordered sequence of nested contexts enclosing
	// this node, outermost first.
	Contexts() []Context
	SetContexts(cs []Context)
	PushContext(c Context)

	// Ports. The numbered accessors create the port on first use.
	InputPorts() []*Port
	OutputPorts() []*Port
	InputPort(num int) *Port
	OutputPort(num int) *Port
	OrderConstraintInPort() *Port
	OrderConstraintOutPort() *Port
	OrderConstraintInPresent() bool
	OrderConstraintOutPresent() bool
	EnablePort() *Port
	EnablePortPresent() bool
	Ports() []*Port

	// AcceptsMultipleDrivers reports whether input-side ports of this
	// node may carry more than one arc (master sinks and terminators).
	AcceptsMultipleDrivers() bool

	// Hook set.
	TypeName() string
	Label() string
	Validate() error
	CanExpand() bool
	Expand(d *Design) (*ExpandedNode, error)
	HasState() bool
	HasCombinationalPath() bool
	HasGlobalDecl() bool
	GlobalDeclText() string
	StateVariables() []numeric.Variable
	EmitValueExpr(q *StmtQueue, outputPort int, imag bool) (CExpr, error)
	EmitNextState(q *StmtQueue) error
	EmitStateUpdate(q *StmtQueue, stateUpdateSrc Node) error
	GraphMLParameters() []GraphMLParameter
	ShallowClone(parent *Subsystem) Node

	base() *NodeBase
}

// NodeBase carries the attributes common to every node and implements
// the default hook behaviors. Concrete variants embed it by pointer
// receiver and override the hooks they support.
type NodeBase struct {
	self       Node
	id         int
	name       string
	parent     *Subsystem
	partition  int
	schedOrder int
	contexts   []Context

	in       []*Port
	out      []*Port
	orderIn  *Port
	orderOut *Port
	enable   *Port
}

// InitNode wires a freshly allocated variant to its embedded NodeBase.
// Every variant constructor must call it before using ports.
func InitNode(b *NodeBase, self Node) {
	b.self = self
	b.id = -1
	b.partition = PartitionUnassigned
	b.schedOrder = SchedOrderUnscheduled
}

// ID returns the node ID (-1 when unassigned).
func (b *NodeBase) ID() int { return b.id }

// SetID assigns the node ID.
func (b *NodeBase) SetID(id int) { b.id = id }

// Name returns the instance name.
func (b *NodeBase) Name() string { return b.name }

// SetName assigns the instance name.
func (b *NodeBase) SetName(name string) { b.name = name }

// Parent returns the owning subsystem, or nil for top-level nodes.
func (b *NodeBase) Parent() *Subsystem { return b.parent }

// SetParent assigns the owning subsystem without touching child lists;
// use Design.ReparentNode for checked moves.
func (b *NodeBase) SetParent(p *Subsystem) { b.parent = p }

// Partition returns the node's partition label.
func (b *NodeBase) Partition() int { return b.partition }

// SetPartition assigns the node's partition label.
func (b *NodeBase) SetPartition(part int) { b.partition = part }

// SchedOrder returns the node's schedule order (-1 when unscheduled).
func (b *NodeBase) SchedOrder() int { return b.schedOrder }

// SetSchedOrder assigns the node's schedule order.
func (b *NodeBase) SetSchedOrder(order int) { b.schedOrder = order }

// Contexts returns the node's context stack, outermost first.
func (b *NodeBase) Contexts() []Context { return b.contexts }

// SetContexts replaces the node's context stack.
func (b *NodeBase) SetContexts(cs []Context) { b.contexts = cs }

// PushContext appends a context to the stack (innermost position).
func (b *NodeBase) PushContext(c Context) { b.contexts = append(b.contexts, c) }

// FullyQualifiedName joins the parent chain names with '/'.
func (b *NodeBase) FullyQualifiedName() string {
	parts := []string{b.name}
	for p := b.parent; p != nil; p = p.Parent() {
		parts = append(parts, p.Name())
	}
	// reverse: root first
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	return strings.Join(parts, "/")
}

// InputPorts returns the input ports in numeric order.
func (b *NodeBase) InputPorts() []*Port {
	out := make([]*Port, len(b.in))
	copy(out, b.in)

	return out
}

// OutputPorts returns the output ports in numeric order.
func (b *NodeBase) OutputPorts() []*Port {
	out := make([]*Port, len(b.out))
	copy(out, b.out)

	return out
}

// InputPort returns input port num, creating it (and any lower-numbered
// ports) on first use.
func (b *NodeBase) InputPort(num int) *Port {
	for len(b.in) <= num {
		b.in = append(b.in, newPort(b.self, PortInput, len(b.in)))
	}

	return b.in[num]
}

// OutputPort returns output port num, creating it on first use.
func (b *NodeBase) OutputPort(num int) *Port {
	for len(b.out) <= num {
		b.out = append(b.out, newPort(b.self, PortOutput, len(b.out)))
	}

	return b.out[num]
}

// OrderConstraintInPort returns the scheduling-only input port, creating
// it on first use.
func (b *NodeBase) OrderConstraintInPort() *Port {
	if b.orderIn == nil {
		b.orderIn = newPort(b.self, PortOrderConstraintIn, 0)
	}

	return b.orderIn
}

// OrderConstraintOutPort returns the scheduling-only output port,
// creating it on first use.
func (b *NodeBase) OrderConstraintOutPort() *Port {
	if b.orderOut == nil {
		b.orderOut = newPort(b.self, PortOrderConstraintOut, 0)
	}

	return b.orderOut
}

// OrderConstraintInPresent reports whether the port exists and has arcs.
func (b *NodeBase) OrderConstraintInPresent() bool {
	return b.orderIn != nil && b.orderIn.Connected()
}

// OrderConstraintOutPresent reports whether the port exists and has arcs.
func (b *NodeBase) OrderConstraintOutPresent() bool {
	return b.orderOut != nil && b.orderOut.Connected()
}

// EnablePort returns the enable port, creating it on first use. Only the
// enabled-subsystem boundary variants use it.
func (b *NodeBase) EnablePort() *Port {
	if b.enable == nil {
		b.enable = newPort(b.self, PortEnable, 0)
	}

	return b.enable
}

// EnablePortPresent reports whether the enable port exists and has arcs.
func (b *NodeBase) EnablePortPresent() bool {
	return b.enable != nil && b.enable.Connected()
}

// Ports returns every existing port of the node.
func (b *NodeBase) Ports() []*Port {
	ports := make([]*Port, 0, len(b.in)+len(b.out)+3)
	ports = append(ports, b.in...)
	ports = append(ports, b.out...)
	if b.enable != nil {
		ports = append(ports, b.enable)
	}
	if b.orderIn != nil {
		ports = append(ports, b.orderIn)
	}
	if b.orderOut != nil {
		ports = append(ports, b.orderOut)
	}

	return ports
}

// AcceptsMultipleDrivers defaults to false; master sinks override.
func (b *NodeBase) AcceptsMultipleDrivers() bool { return false }

// TypeName defaults to "Node"; variants override.
func (b *NodeBase) TypeName() string { return "Node" }

// Label defaults to the instance name; variants append parameters.
func (b *NodeBase) Label() string { return b.name }

// Validate checks the universal port invariants: every input-side port
// carries exactly one arc unless the variant accepts multiple drivers.
func (b *NodeBase) Validate() error {
	for _, p := range b.self.Ports() {
		if p.Kind() == PortInput && !b.self.AcceptsMultipleDrivers() && p.ArcCount() != 1 {
			return fmt.Errorf("%w: node %s input port %d has %d arcs, want 1",
				ErrValidation, b.self.FullyQualifiedName(), p.Num(), p.ArcCount())
		}
	}

	return nil
}

// CanExpand defaults to false.
func (b *NodeBase) CanExpand() bool { return false }

// Expand is illegal on variants that do not expand.
func (b *NodeBase) Expand(d *Design) (*ExpandedNode, error) {
	return nil, fmt.Errorf("%w: expand on %s (%s)", ErrUnsupportedHook, b.self.TypeName(), b.FullyQualifiedName())
}

// HasState defaults to false.
func (b *NodeBase) HasState() bool { return false }

// HasCombinationalPath defaults to true for nodes with inputs.
func (b *NodeBase) HasCombinationalPath() bool { return len(b.in) > 0 }

// HasGlobalDecl defaults to false.
func (b *NodeBase) HasGlobalDecl() bool { return false }

// GlobalDeclText defaults to empty.
func (b *NodeBase) GlobalDeclText() string { return "" }

// StateVariables defaults to none.
func (b *NodeBase) StateVariables() []numeric.Variable { return nil }

// EmitValueExpr is illegal on variants without a value expression.
func (b *NodeBase) EmitValueExpr(q *StmtQueue, outputPort int, imag bool) (CExpr, error) {
	return CExpr{}, fmt.Errorf("%w: emit value expression on %s (%s)",
		ErrUnsupportedHook, b.self.TypeName(), b.FullyQualifiedName())
}

// EmitNextState defaults to a no-op for stateless variants.
func (b *NodeBase) EmitNextState(q *StmtQueue) error { return nil }

// EmitStateUpdate defaults to a no-op for stateless variants.
func (b *NodeBase) EmitStateUpdate(q *StmtQueue, stateUpdateSrc Node) error { return nil }

// GraphMLParameters defaults to none.
func (b *NodeBase) GraphMLParameters() []GraphMLParameter { return nil }

// ShallowClone must be provided by each variant.
func (b *NodeBase) ShallowClone(parent *Subsystem) Node {
	panic(fmt.Sprintf("core: ShallowClone not implemented by %s", b.self.TypeName()))
}

// base returns the embedded NodeBase, sealing the Node interface to
// variants that embed it.
func (b *NodeBase) base() *NodeBase { return b }

// Self returns the node variant this base is embedded in.
func (b *NodeBase) Self() Node { return b.self }

// CloneBaseInto copies the common attributes onto a clone's NodeBase and
// wires it to its variant. Ports and arcs are not copied; context stacks
// are copied verbatim and remapped by Design.CopyGraph.
func CloneBaseInto(dst *NodeBase, self Node, src Node, parent *Subsystem) {
	InitNode(dst, self)
	sb := src.base()
	dst.id = sb.id
	dst.name = sb.name
	dst.parent = parent
	dst.partition = sb.partition
	dst.schedOrder = sb.schedOrder
	dst.contexts = append([]Context(nil), sb.contexts...)
}
