package core

import (
	"fmt"

	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// Arc is a directed, typed edge between two ports. Connecting an arc
// registers it in both endpoint sets; disconnecting removes it from both.
// IDs are unique within a design and reassigned on demand.
type Arc struct {
	id         int
	src        *Port
	dst        *Port
	dataType   numeric.DataType
	sampleTime float64
}

// NewArc creates an arc between src and dst and registers it with both
// ports. The arc starts with an unassigned ID (-1).
func NewArc(src, dst *Port, dt numeric.DataType, sampleTime float64) *Arc {
	a := &Arc{id: -1, src: src, dst: dst, dataType: dt, sampleTime: sampleTime}
	src.attach(a)
	dst.attach(a)

	return a
}

// ID returns the arc ID (-1 when unassigned).
func (a *Arc) ID() int { return a.id }

// SetID assigns the arc ID.
func (a *Arc) SetID(id int) { a.id = id }

// SrcPort returns the source endpoint.
func (a *Arc) SrcPort() *Port { return a.src }

// DstPort returns the destination endpoint.
func (a *Arc) DstPort() *Port { return a.dst }

// SrcNode returns the node owning the source endpoint, or nil if the arc
// is disconnected on that side.
func (a *Arc) SrcNode() Node {
	if a.src == nil {
		return nil
	}

	return a.src.Node()
}

// DstNode returns the node owning the destination endpoint, or nil if
// the arc is disconnected on that side.
func (a *Arc) DstNode() Node {
	if a.dst == nil {
		return nil
	}

	return a.dst.Node()
}

// DataType returns the arc's signal type.
func (a *Arc) DataType() numeric.DataType { return a.dataType }

// SetDataType replaces the arc's signal type.
func (a *Arc) SetDataType(dt numeric.DataType) { a.dataType = dt }

// SampleTime returns the arc's sample time.
func (a *Arc) SampleTime() float64 { return a.sampleTime }

// SetSampleTime replaces the arc's sample time.
func (a *Arc) SetSampleTime(t float64) { a.sampleTime = t }

// SetSrcPort moves the source endpoint to p, maintaining both endpoint
// sets.
func (a *Arc) SetSrcPort(p *Port) {
	if a.src != nil {
		a.src.detach(a)
	}
	a.src = p
	if p != nil {
		p.attach(a)
	}
}

// SetDstPort moves the destination endpoint to p, maintaining both
// endpoint sets.
func (a *Arc) SetDstPort(p *Port) {
	if a.dst != nil {
		a.dst.detach(a)
	}
	a.dst = p
	if p != nil {
		p.attach(a)
	}
}

// Disconnect removes the arc from both endpoint sets. The arc keeps its
// type and ID but no longer appears in the graph topology.
func (a *Arc) Disconnect() {
	if a.src != nil {
		a.src.detach(a)
		a.src = nil
	}
	if a.dst != nil {
		a.dst.detach(a)
		a.dst = nil
	}
}

// String renders the arc for debug output.
func (a *Arc) String() string {
	srcName, dstName := "<nil>", "<nil>"
	if n := a.SrcNode(); n != nil {
		srcName = fmt.Sprintf("%s:%d", n.FullyQualifiedName(), a.src.Num())
	}
	if n := a.DstNode(); n != nil {
		dstName = fmt.Sprintf("%s:%d", n.FullyQualifiedName(), a.dst.Num())
	}

	return fmt.Sprintf("arc[%d] %s -> %s (%s)", a.id, srcName, dstName, a.dataType.String())
}
