package core

import "fmt"

// PortKind classifies the role of a port on its node.
type PortKind int

const (
	// PortInput is an ordinary data input; accepts exactly one driving arc.
	PortInput PortKind = iota
	// PortOutput is a data output; may fan out to many arcs.
	PortOutput
	// PortEnable carries the enable line into an enabled subsystem boundary.
	PortEnable
	// PortOrderConstraintIn carries a scheduling-only dependency into a node.
	PortOrderConstraintIn
	// PortOrderConstraintOut carries a scheduling-only dependency out of a node.
	PortOrderConstraintOut
)

// String returns the canonical name of the port kind.
func (k PortKind) String() string {
	switch k {
	case PortInput:
		return "Input"
	case PortOutput:
		return "Output"
	case PortEnable:
		return "Enable"
	case PortOrderConstraintIn:
		return "OrderConstraintIn"
	case PortOrderConstraintOut:
		return "OrderConstraintOut"
	default:
		return fmt.Sprintf("PortKind(%d)", int(k))
	}
}

// IsInputSide reports whether arcs terminate at this kind of port.
func (k PortKind) IsInputSide() bool {
	return k == PortInput || k == PortEnable || k == PortOrderConstraintIn
}

// Port is one connection point on a node. Ports hold the set of arcs
// attached to them; arcs keep the set consistent as they connect and
// disconnect.
type Port struct {
	node Node
	kind PortKind
	num  int
	arcs []*Arc
}

// newPort constructs a port owned by node.
func newPort(node Node, kind PortKind, num int) *Port {
	return &Port{node: node, kind: kind, num: num}
}

// Node returns the owning node.
func (p *Port) Node() Node { return p.node }

// Kind returns the port kind.
func (p *Port) Kind() PortKind { return p.kind }

// Num returns the port number within its kind.
func (p *Port) Num() int { return p.num }

// Arcs returns a copy of the attached arc set in attachment order.
func (p *Port) Arcs() []*Arc {
	out := make([]*Arc, len(p.arcs))
	copy(out, p.arcs)

	return out
}

// ArcCount returns the number of attached arcs.
func (p *Port) ArcCount() int { return len(p.arcs) }

// Connected reports whether at least one arc is attached.
func (p *Port) Connected() bool { return len(p.arcs) > 0 }

// SoleArc returns the single attached arc. It errors when the port has
// zero or multiple arcs, naming the owning node.
func (p *Port) SoleArc() (*Arc, error) {
	if len(p.arcs) != 1 {
		return nil, fmt.Errorf("%w: node %s %s port %d has %d arcs, want 1",
			ErrValidation, p.node.FullyQualifiedName(), p.kind, p.num, len(p.arcs))
	}

	return p.arcs[0], nil
}

// attach adds an arc to the endpoint set. Called only by Arc.
func (p *Port) attach(a *Arc) {
	for _, e := range p.arcs {
		if e == a {
			return
		}
	}
	p.arcs = append(p.arcs, a)
}

// detach removes an arc from the endpoint set. Called only by Arc.
func (p *Port) detach(a *Arc) {
	for i, e := range p.arcs {
		if e == a {
			p.arcs = append(p.arcs[:i], p.arcs[i+1:]...)

			return
		}
	}
}
