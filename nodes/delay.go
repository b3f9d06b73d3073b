package nodes

import (
	"fmt"
	"strings"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// BufferType selects the delay line implementation.
type BufferType int

const (
	// BufferAuto picks circular buffer or shift register from the
	// delay length and element shape.
	BufferAuto BufferType = iota
	// BufferShiftRegister forces the shift-register implementation.
	BufferShiftRegister
	// BufferCircular forces the circular-buffer implementation.
	BufferCircular
)

// String returns the buffer type name.
func (b BufferType) String() string {
	switch b {
	case BufferShiftRegister:
		return "ShiftRegister"
	case BufferCircular:
		return "CircularBuffer"
	default:
		return "Auto"
	}
}

// Delay implements z^-N with an initial-condition sequence of length N.
//
// The implementation is a circular buffer for N >= 2 (or N == 1 with a
// vector element), optionally rounded up to a power of two so the wrap
// becomes a bitmask; otherwise a shift register. earliestFirst selects
// which end of the buffer holds the newest sample. allocateExtraSpace
// reserves one extra slot, adjacent to the newest sample per the
// direction flag, so TappedDelay and FIFO absorption can also expose the
// current input.
type Delay struct {
	core.NodeBase

	delayValue    int
	initCondition []numeric.NumericValue
	bufferImpl    BufferType
	roundToPow2   bool
	earliestFirst bool
	extraSpace    bool

	// deferredDimExpansion, when non-zero, records a block-dimension
	// expansion postponed until after FIFO delay absorption.
	deferredDimExpansion int
}

// NewDelay constructs a delay of length delayValue with the given
// initial conditions (one per delayed sample; a single value broadcasts).
func NewDelay(name string, parent *core.Subsystem, delayValue int, init []numeric.NumericValue) *Delay {
	d := &Delay{delayValue: delayValue, initCondition: append([]numeric.NumericValue(nil), init...)}
	core.InitNode(&d.NodeBase, d)
	d.SetName(name)
	d.SetParent(parent)

	return d
}

// TypeName identifies the variant.
func (d *Delay) TypeName() string { return "Delay" }

// DelayValue returns the delay length N.
func (d *Delay) DelayValue() int { return d.delayValue }

// SetDelayValue replaces the delay length (used by FIFO absorption).
func (d *Delay) SetDelayValue(n int) { d.delayValue = n }

// InitCondition returns the initial-condition sequence.
func (d *Delay) InitCondition() []numeric.NumericValue {
	return append([]numeric.NumericValue(nil), d.initCondition...)
}

// SetInitCondition replaces the initial-condition sequence.
func (d *Delay) SetInitCondition(init []numeric.NumericValue) {
	d.initCondition = append([]numeric.NumericValue(nil), init...)
}

// BufferImplementation returns the configured buffer type.
func (d *Delay) BufferImplementation() BufferType { return d.bufferImpl }

// SetBufferImplementation selects the buffer type.
func (d *Delay) SetBufferImplementation(b BufferType) { d.bufferImpl = b }

// RoundToPowerOf2 reports whether circular buffers round their length.
func (d *Delay) RoundToPowerOf2() bool { return d.roundToPow2 }

// SetRoundToPowerOf2 toggles power-of-two rounding.
func (d *Delay) SetRoundToPowerOf2(v bool) { d.roundToPow2 = v }

// EarliestFirst reports which end of the buffer holds the newest sample.
func (d *Delay) EarliestFirst() bool { return d.earliestFirst }

// SetEarliestFirst selects the buffer direction.
func (d *Delay) SetEarliestFirst(v bool) { d.earliestFirst = v }

// AllocateExtraSpace reports whether the +1 current-sample slot is
// reserved.
func (d *Delay) AllocateExtraSpace() bool { return d.extraSpace }

// SetAllocateExtraSpace toggles the +1 current-sample slot.
func (d *Delay) SetAllocateExtraSpace(v bool) { d.extraSpace = v }

// DeferredDimExpansion returns the postponed block-dimension factor.
func (d *Delay) DeferredDimExpansion() int { return d.deferredDimExpansion }

// SetDeferredDimExpansion records a postponed block-dimension factor.
func (d *Delay) SetDeferredDimExpansion(f int) { d.deferredDimExpansion = f }

// Label renders the node name and delay length.
func (d *Delay) Label() string {
	return fmt.Sprintf("%s\nDelay: %d", d.Name(), d.delayValue)
}

// inputType returns the element type of the delayed signal.
func (d *Delay) inputType() numeric.DataType {
	if len(d.InputPorts()) > 0 {
		if arc, err := d.InputPort(0).SoleArc(); err == nil {
			return arc.DataType()
		}
	}

	return numeric.NewDataType(false, true, false, 64, 0, nil)
}

// Validate checks the delay length and the initial-condition count.
func (d *Delay) Validate() error {
	if err := d.NodeBase.Validate(); err != nil {
		return err
	}
	if d.delayValue < 0 {
		return fmt.Errorf("%w: delay %s has negative length %d",
			core.ErrValidation, d.FullyQualifiedName(), d.delayValue)
	}
	elems := d.inputType().NumElements()
	want := d.delayValue * elems
	if len(d.initCondition) != want && len(d.initCondition) != d.delayValue && !(d.delayValue > 0 && len(d.initCondition) == 1) {
		return fmt.Errorf("%w: delay %s has %d initial conditions, want %d (or %d scalar-broadcast)",
			core.ErrValidation, d.FullyQualifiedName(), len(d.initCondition), want, d.delayValue)
	}

	return nil
}

// PropagateProperties broadcasts scalar initial conditions across vector
// elements once port types are known.
func (d *Delay) PropagateProperties() {
	elems := d.inputType().NumElements()
	want := d.delayValue * elems
	if len(d.initCondition) == 1 && want > 1 {
		d.initCondition = d.initCondition[0].Broadcast(want)
	} else if len(d.initCondition) == d.delayValue && elems > 1 {
		expanded := make([]numeric.NumericValue, 0, want)
		for _, v := range d.initCondition {
			expanded = append(expanded, v.Broadcast(elems)...)
		}
		d.initCondition = expanded
	}
}

// HasState is true for any nonzero delay.
func (d *Delay) HasState() bool { return d.delayValue > 0 }

// HasCombinationalPath is false: the output depends only on state.
func (d *Delay) HasCombinationalPath() bool { return d.delayValue == 0 }

// UsesCircularBuffer applies the implementation-selection rule.
func (d *Delay) UsesCircularBuffer() bool {
	switch d.bufferImpl {
	case BufferShiftRegister:
		return false
	case BufferCircular:
		return true
	}
	if d.delayValue >= 2 {
		return true
	}

	return d.delayValue == 1 && d.inputType().IsVector()
}

// BufferLength returns the allocated slot count: the delay length, plus
// the extra current-sample slot when reserved, rounded up to a power of
// two for circular buffers when requested.
func (d *Delay) BufferLength() int {
	n := d.delayValue
	if d.extraSpace {
		n++
	}
	if d.UsesCircularBuffer() && d.roundToPow2 {
		n = nextPow2(n)
	}

	return n
}

// stateVarNames derives the C state variable names.
func (d *Delay) stateVarNames() (buf, staging, offset string) {
	base := core.CIdentifier(d)

	return base + "_state", base + "_stateIn", base + "_offset"
}

// StateVariables lists the delay buffer, the input staging slot, and
// (for circular buffers) the head offset.
func (d *Delay) StateVariables() []numeric.Variable {
	if d.delayValue == 0 {
		return nil
	}
	buf, staging, offset := d.stateVarNames()
	elemT := d.inputType()
	bufT := elemT
	if d.BufferLength() > 1 || !elemT.IsScalar() {
		bufT = elemT.ExpandOutermost(d.BufferLength())
	}
	vars := []numeric.Variable{
		numeric.NewVariable(buf, bufT, d.bufferInitValues()),
		numeric.NewVariable(staging, elemT, nil),
	}
	if d.UsesCircularBuffer() {
		offT := numeric.NewDataType(false, false, false, 32, 0, nil)
		vars = append(vars, numeric.NewVariable(offset, offT, []numeric.NumericValue{numeric.NewIntValue(0)}))
	}

	return vars
}

// bufferInitValues lays the initial conditions out in buffer order so
// the first initial condition is the first sample presented: reading the
// oldest slot at startup must yield initCondition[0].
func (d *Delay) bufferInitValues() []numeric.NumericValue {
	elems := d.inputType().NumElements()
	n := d.delayValue * elems
	vals := d.initCondition
	if len(vals) == 0 {
		vals = numeric.ZeroValue(d.inputType()).Broadcast(n)
	} else if len(vals) == 1 && n > 1 {
		vals = vals[0].Broadcast(n)
	}
	out := make([]numeric.NumericValue, d.BufferLength()*elems)
	zero := numeric.ZeroValue(d.inputType())
	for i := range out {
		out[i] = zero
	}
	// Slot k (0-based from the newest end) holds the sample presented k+1
	// reads from now; initCondition[0] must surface first, so it lives in
	// the oldest slot.
	for k := 0; k < d.delayValue; k++ {
		slot := d.slotIndex(k + 1)
		src := (d.delayValue - 1 - k) * elems
		copy(out[slot*elems:(slot+1)*elems], vals[src:src+elems])
	}

	return out
}

// slotIndex maps "age" (1 = inserted last cycle) to a buffer index at
// startup (offset 0). The newest sample sits at the offset; inserts
// step the offset forward (earliestFirst) or backward, so age a lives
// a-1 steps against the insertion direction. Shift registers use the
// same layout with the offset pinned at zero and the extra slot at the
// insertion end.
func (d *Delay) slotIndex(age int) int {
	l := d.BufferLength()
	if !d.UsesCircularBuffer() {
		if d.earliestFirst {
			return age - 1 + d.extraOffset()
		}

		return d.delayValue - age
	}
	if d.earliestFirst {
		return ((l + 1 - age) % l)
	}

	return (age - 1) % l
}

// EmitValueExpr reads the oldest live sample (the z^-N output).
func (d *Delay) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	if d.delayValue == 0 {
		// passthrough
		return core.EmitInputExpr(q, d, 0, imag)
	}
	buf, _, offset := d.stateVarNames()
	v := numeric.Variable{Name: buf, Type: d.inputType()}
	name := v.CName(imag)
	if !d.UsesCircularBuffer() {
		if d.delayValue == 1 && d.inputType().IsScalar() && !d.extraSpace {
			return core.NewCExpr(name, true), nil
		}
		oldest := d.shiftOldestIndex()

		return core.NewCExpr(fmt.Sprintf("%s[%d]", name, oldest), true), nil
	}
	idx := d.circularReadIndex(offset)

	return core.NewCExpr(fmt.Sprintf("%s[%s]", name, idx), true), nil
}

// shiftOldestIndex returns the shift-register index of the oldest
// sample: the far end from where new samples enter.
func (d *Delay) shiftOldestIndex() int {
	if d.earliestFirst {
		// newest at index 0 (after the extra slot when present)
		return d.delayValue - 1 + d.extraOffset()
	}

	return 0
}

// extraOffset is 1 when the extra current-sample slot sits before the
// newest sample in index order.
func (d *Delay) extraOffset() int {
	if d.extraSpace && d.earliestFirst {
		return 1
	}

	return 0
}

// circularReadIndex renders the index expression of the oldest live
// sample relative to the head offset: age-N against the insertion
// direction.
func (d *Delay) circularReadIndex(offset string) string {
	l := d.BufferLength()
	dist := (d.delayValue - 1) % l
	if d.earliestFirst {
		// inserts walk forward, so older samples sit behind the offset
		dist = (l - d.delayValue + 1) % l
	}
	if d.roundToPow2 {
		return fmt.Sprintf("(%s + %d) & %d", offset, dist, l-1)
	}

	return fmt.Sprintf("(%s + %d) %% %d", offset, dist, l)
}

// EmitNextState stages the current input into the staging variable.
func (d *Delay) EmitNextState(q *core.StmtQueue) error {
	if d.delayValue == 0 {
		return nil
	}
	_, staging, _ := d.stateVarNames()
	elemT := d.inputType()
	for _, im := range componentsOf(elemT) {
		in, err := core.EmitInputExpr(q, d, 0, im)
		if err != nil {
			return err
		}
		v := numeric.Variable{Name: staging, Type: elemT}
		if elemT.IsScalar() {
			q.Add("%s = %s;", v.CName(im), in.Text)
		} else {
			q.Add("for (int i = 0; i < %d; i++) { %s[i] = %s[i]; }", elemT.NumElements(), v.CName(im), in.Text)
		}
	}

	return nil
}

// EmitStateUpdate advances the delay line: shift registers slide toward
// the oldest slot; circular buffers step the head offset and write the
// staged input at the head.
func (d *Delay) EmitStateUpdate(q *core.StmtQueue, stateUpdateSrc core.Node) error {
	if d.delayValue == 0 {
		return nil
	}
	buf, staging, offset := d.stateVarNames()
	elemT := d.inputType()
	for _, im := range componentsOf(elemT) {
		bufV := numeric.Variable{Name: buf, Type: elemT}
		stV := numeric.Variable{Name: staging, Type: elemT}
		bn, sn := bufV.CName(im), stV.CName(im)
		switch {
		case !d.UsesCircularBuffer() && d.delayValue == 1 && elemT.IsScalar() && !d.extraSpace:
			q.Add("%s = %s;", bn, sn)
		case !d.UsesCircularBuffer():
			d.emitShift(q, bn, sn, elemT)
		default:
			d.emitCircularAdvance(q, bn, sn, offset, elemT, im)
		}
	}

	return nil
}

// emitShift emits the shift-register slide and the newest-slot store.
func (d *Delay) emitShift(q *core.StmtQueue, bufName, stagingName string, elemT numeric.DataType) {
	n := d.delayValue
	newest := 0 + d.extraOffset()
	if d.earliestFirst {
		// slide away from index 0; newest lands at the low end
		q.Add("for (int i = %d; i > %d; i--) { %s[i] = %s[i-1]; }", n-1+d.extraOffset(), newest, bufName, bufName)
		d.emitElemCopy(q, fmt.Sprintf("%s[%d]", bufName, newest), stagingName, elemT)

		return
	}
	// newest at the high end; slide toward index 0
	q.Add("for (int i = 0; i < %d; i++) { %s[i] = %s[i+1]; }", n-1, bufName, bufName)
	d.emitElemCopy(q, fmt.Sprintf("%s[%d]", bufName, n-1), stagingName, elemT)
}

// emitCircularAdvance emits the offset step (bitmask wrap for power-of-2
// lengths) and the head store. The offset moves once per cycle; both
// components share it, so only the real pass steps it.
func (d *Delay) emitCircularAdvance(q *core.StmtQueue, bufName, stagingName, offset string, elemT numeric.DataType, imagPass bool) {
	l := d.BufferLength()
	if !imagPass {
		if d.earliestFirst {
			if d.roundToPow2 {
				q.Add("%s = (%s + 1) & %d;", offset, offset, l-1)
			} else {
				q.Add("%s = (%s + 1) %% %d;", offset, offset, l)
			}
		} else {
			if d.roundToPow2 {
				q.Add("%s = (%s - 1) & %d;", offset, offset, l-1)
			} else {
				q.Add("%s = (%s == 0) ? %d : %s - 1;", offset, offset, l-1, offset)
			}
		}
	}
	d.emitElemCopy(q, fmt.Sprintf("%s[%s]", bufName, offset), stagingName, elemT)
}

// emitElemCopy copies one logical sample (scalar or vector element set).
func (d *Delay) emitElemCopy(q *core.StmtQueue, dst, src string, elemT numeric.DataType) {
	if elemT.IsScalar() {
		q.Add("%s = %s;", dst, src)

		return
	}
	q.Add("for (int j = 0; j < %d; j++) { (&%s)[j] = %s[j]; }", elemT.NumElements(), dst, src)
}

// GraphMLParameters exports the delay configuration without the
// buffer-implementation artifacts (extra slot, rounding).
func (d *Delay) GraphMLParameters() []core.GraphMLParameter {
	vals := make([]string, len(d.initCondition))
	for i, v := range d.initCondition {
		vals[i] = v.String()
	}

	return []core.GraphMLParameter{
		{Key: "DelayLength", AttrType: "int", Value: fmt.Sprintf("%d", d.delayValue)},
		{Key: "InitialCondition", AttrType: "string", Value: "[" + strings.Join(vals, ", ") + "]"},
		{Key: "EarliestFirst", AttrType: "boolean", Value: fmt.Sprintf("%t", d.earliestFirst)},
	}
}

// ShallowClone copies the node parameters.
func (d *Delay) ShallowClone(parent *core.Subsystem) core.Node {
	c := &Delay{
		delayValue:           d.delayValue,
		initCondition:        append([]numeric.NumericValue(nil), d.initCondition...),
		bufferImpl:           d.bufferImpl,
		roundToPow2:          d.roundToPow2,
		earliestFirst:        d.earliestFirst,
		extraSpace:           d.extraSpace,
		deferredDimExpansion: d.deferredDimExpansion,
	}
	core.CloneBaseInto(&c.NodeBase, c, d, parent)

	return c
}

// componentsOf returns the component passes for a type: real only, or
// real then imaginary.
func componentsOf(dt numeric.DataType) []bool {
	if dt.Complex {
		return []bool{false, true}
	}

	return []bool{false}
}

// nextPow2 rounds up to the next power of two (minimum 1).
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
