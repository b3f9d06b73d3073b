package nodes

import (
	"fmt"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// TappedDelay is a Delay that exposes its full buffer as a vector
// output, optionally including the current (undelayed) input in the
// extra slot.
type TappedDelay struct {
	Delay
	includeCurrent bool
}

// NewTappedDelay constructs a tapped delay of the given length.
func NewTappedDelay(name string, parent *core.Subsystem, delayValue int, init []numeric.NumericValue, includeCurrent bool) *TappedDelay {
	t := &TappedDelay{includeCurrent: includeCurrent}
	core.InitNode(&t.NodeBase, t)
	t.SetName(name)
	t.SetParent(parent)
	t.delayValue = delayValue
	t.initCondition = append([]numeric.NumericValue(nil), init...)
	if includeCurrent {
		t.SetAllocateExtraSpace(true)
	}

	return t
}

// TypeName identifies the variant.
func (t *TappedDelay) TypeName() string { return "TappedDelay" }

// IncludeCurrent reports whether the current input occupies the extra
// slot of the exposed buffer.
func (t *TappedDelay) IncludeCurrent() bool { return t.includeCurrent }

// Label renders the node name and tap count.
func (t *TappedDelay) Label() string {
	return fmt.Sprintf("%s\nTappedDelay: %d", t.Name(), t.delayValue)
}

// Validate additionally requires a nonzero length: a zero-length tapped
// delay exposes nothing.
func (t *TappedDelay) Validate() error {
	if err := t.Delay.Validate(); err != nil {
		return err
	}
	if t.delayValue < 1 {
		return fmt.Errorf("%w: tapped delay %s needs length >= 1", core.ErrValidation, t.FullyQualifiedName())
	}

	return nil
}

// EmitValueExpr exposes the whole buffer. When the current input is
// included, the staged input is written into the reserved slot before
// the buffer name is handed out, so consumers see taps [current,
// z^-1, ...] (earliestFirst) or [..., z^-1, current].
func (t *TappedDelay) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	buf, _, offset := t.stateVarNames()
	elemT := t.inputType()
	v := numeric.Variable{Name: buf, Type: elemT}
	name := v.CName(imag)
	if t.includeCurrent {
		in, err := core.EmitInputExpr(q, t, 0, imag)
		if err != nil {
			return core.CExpr{}, err
		}
		t.emitElemCopy(q, fmt.Sprintf("%s[%s]", name, t.currentSlotExpr(offset)), in.Text, elemT)
	}

	return core.NewCExpr(name, true), nil
}

// currentSlotExpr renders the index of the extra current-sample slot,
// adjacent to the newest stored sample per the direction flag.
func (t *TappedDelay) currentSlotExpr(offset string) string {
	l := t.BufferLength()
	if !t.UsesCircularBuffer() {
		if t.earliestFirst {
			return "0"
		}

		return fmt.Sprintf("%d", l-1)
	}
	if t.earliestFirst {
		// inserts walk forward: the next insertion slot holds the current
		// sample
		if t.roundToPow2 {
			return fmt.Sprintf("(%s + 1) & %d", offset, l-1)
		}

		return fmt.Sprintf("(%s + 1) %% %d", offset, l)
	}
	if t.roundToPow2 {
		return fmt.Sprintf("(%s - 1) & %d", offset, l-1)
	}

	return fmt.Sprintf("(%s + %d) %% %d", offset, l-1, l)
}

// ShallowClone copies the node parameters.
func (t *TappedDelay) ShallowClone(parent *core.Subsystem) core.Node {
	c := &TappedDelay{includeCurrent: t.includeCurrent}
	c.delayValue = t.delayValue
	c.initCondition = append([]numeric.NumericValue(nil), t.initCondition...)
	c.bufferImpl = t.bufferImpl
	c.roundToPow2 = t.roundToPow2
	c.earliestFirst = t.earliestFirst
	c.extraSpace = t.extraSpace
	core.CloneBaseInto(&c.NodeBase, c, t, parent)

	return c
}
