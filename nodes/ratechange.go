package nodes

import (
	"fmt"

	"github.com/ucb-cyarp/vitis-sub000/core"
)

// RateChange is the generic placeholder for a node at a clock-domain
// boundary. The multirate specialization pass converts each placeholder
// into a RateChangeImpl for its side of the boundary.
type RateChange struct {
	core.NodeBase

	rateNum   int
	rateDen   int
	inputSide bool // true: crosses into the domain; false: out of it
}

// NewRateChange constructs a generic rate-change placeholder.
func NewRateChange(name string, parent *core.Subsystem, num, den int, inputSide bool) *RateChange {
	r := &RateChange{rateNum: num, rateDen: den, inputSide: inputSide}
	core.InitNode(&r.NodeBase, r)
	r.SetName(name)
	r.SetParent(parent)

	return r
}

// TypeName identifies the variant.
func (r *RateChange) TypeName() string { return "RateChange" }

// Rate returns the (numerator, denominator) rate of the crossing.
func (r *RateChange) Rate() (int, int) { return r.rateNum, r.rateDen }

// InputSide reports whether this node crosses into the domain.
func (r *RateChange) InputSide() bool { return r.inputSide }

// Validate requires a legal one-sided rational rate.
func (r *RateChange) Validate() error {
	if err := r.NodeBase.Validate(); err != nil {
		return err
	}
	if r.rateNum < 1 || r.rateDen < 1 || (r.rateNum != 1 && r.rateDen != 1) {
		return fmt.Errorf("%w: rate change %s has illegal rate %d/%d",
			core.ErrValidation, r.FullyQualifiedName(), r.rateNum, r.rateDen)
	}

	return nil
}

// Specialize converts the placeholder into the concrete implementation
// for its side and direction.
func (r *RateChange) Specialize() *RateChangeImpl {
	impl := &RateChangeImpl{
		rateNum:   r.rateNum,
		rateDen:   r.rateDen,
		inputSide: r.inputSide,
		upsample:  r.rateNum > r.rateDen,
	}
	core.InitNode(&impl.NodeBase, impl)
	impl.SetName(r.Name())
	impl.SetParent(r.Parent())
	impl.SetID(r.ID())
	impl.SetPartition(r.Partition())
	impl.SetContexts(append([]core.Context(nil), r.Contexts()...))

	return impl
}

// EmitValueExpr is illegal on the placeholder; it must be specialized
// before emission.
func (r *RateChange) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	return core.CExpr{}, fmt.Errorf("%w: unspecialized rate change %s reached emission",
		core.ErrUnsupportedHook, r.FullyQualifiedName())
}

// ShallowClone copies the placeholder.
func (r *RateChange) ShallowClone(parent *core.Subsystem) core.Node {
	c := &RateChange{rateNum: r.rateNum, rateDen: r.rateDen, inputSide: r.inputSide}
	core.CloneBaseInto(&c.NodeBase, c, r, parent)

	return c
}

// RateChangeImpl is the specialized boundary node. Upsample inputs hold
// their value across the inner iterations; downsample outputs take the
// phase-zero sample. The surrounding clock-domain loop and guard supply
// the iteration structure, so the implementation is a typed
// pass-through.
type RateChangeImpl struct {
	core.NodeBase

	rateNum   int
	rateDen   int
	inputSide bool
	upsample  bool
}

// TypeName identifies the specialized variant.
func (r *RateChangeImpl) TypeName() string {
	side := "Output"
	if r.inputSide {
		side = "Input"
	}
	if r.upsample {
		return "Upsample" + side
	}

	return "Downsample" + side
}

// Rate returns the (numerator, denominator) rate of the crossing.
func (r *RateChangeImpl) Rate() (int, int) { return r.rateNum, r.rateDen }

// InputSide reports whether this node crosses into the domain.
func (r *RateChangeImpl) InputSide() bool { return r.inputSide }

// Upsample reports the crossing direction.
func (r *RateChangeImpl) Upsample() bool { return r.upsample }

// Validate requires exactly one data input.
func (r *RateChangeImpl) Validate() error {
	if err := r.NodeBase.Validate(); err != nil {
		return err
	}
	if len(r.InputPorts()) != 1 {
		return fmt.Errorf("%w: rate change %s needs exactly 1 input",
			core.ErrValidation, r.FullyQualifiedName())
	}

	return nil
}

// EmitValueExpr passes the boundary signal through.
func (r *RateChangeImpl) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	return core.EmitInputExpr(q, r, 0, imag)
}

// GraphMLParameters exports the crossing configuration.
func (r *RateChangeImpl) GraphMLParameters() []core.GraphMLParameter {
	return []core.GraphMLParameter{
		{Key: "RateNumerator", AttrType: "int", Value: fmt.Sprintf("%d", r.rateNum)},
		{Key: "RateDenominator", AttrType: "int", Value: fmt.Sprintf("%d", r.rateDen)},
		{Key: "InputSide", AttrType: "boolean", Value: fmt.Sprintf("%t", r.inputSide)},
	}
}

// ShallowClone copies the node.
func (r *RateChangeImpl) ShallowClone(parent *core.Subsystem) core.Node {
	c := &RateChangeImpl{rateNum: r.rateNum, rateDen: r.rateDen, inputSide: r.inputSide, upsample: r.upsample}
	core.CloneBaseInto(&c.NodeBase, c, r, parent)

	return c
}
