package nodes

import (
	"fmt"

	"github.com/ucb-cyarp/vitis-sub000/core"
)

// BlockingDomain wraps a region that processes blockingLength samples
// per scheduler tick, iterated subBlockingLength samples at a time. The
// global domain encircles the whole design; sub-domains group regions
// that must execute together.
type BlockingDomain struct {
	core.Subsystem
	core.SubContextRegistry

	blockingLength    int
	subBlockingLength int
	global            bool
}

// NewBlockingDomain constructs a blocking domain.
func NewBlockingDomain(name string, parent *core.Subsystem, blockingLength, subBlockingLength int, global bool) *BlockingDomain {
	b := &BlockingDomain{blockingLength: blockingLength, subBlockingLength: subBlockingLength, global: global}
	core.InitNode(&b.NodeBase, b)
	b.SetName(name)
	b.SetParent(parent)
	b.EnsureSubContexts(1)

	return b
}

// TypeName identifies the variant.
func (b *BlockingDomain) TypeName() string {
	if b.global {
		return "BlockingDomain"
	}

	return "BlockingSubDomain"
}

// BlockingLength returns the samples processed per tick.
func (b *BlockingDomain) BlockingLength() int { return b.blockingLength }

// SubBlockingLength returns the inner iteration size.
func (b *BlockingDomain) SubBlockingLength() int { return b.subBlockingLength }

// IsGlobal reports whether this is the design-encircling domain.
func (b *BlockingDomain) IsGlobal() bool { return b.global }

// Validate requires a sub-block size dividing the block size.
func (b *BlockingDomain) Validate() error {
	if err := b.Subsystem.Validate(); err != nil {
		return err
	}
	if b.blockingLength < 1 || b.subBlockingLength < 1 || b.blockingLength%b.subBlockingLength != 0 {
		return fmt.Errorf("%w: blocking domain %s has block %d, sub-block %d",
			core.ErrValidation, b.FullyQualifiedName(), b.blockingLength, b.subBlockingLength)
	}

	return nil
}

// ContextDecisionDriverArcs: blocking is structural, not decided at
// runtime.
func (b *BlockingDomain) ContextDecisionDriverArcs() []*core.Arc { return nil }

// ShouldReplicateDrivers is false; there is no driver.
func (b *BlockingDomain) ShouldReplicateDrivers() bool { return false }

// RequiresContiguousBlocking is trivially false.
func (b *BlockingDomain) RequiresContiguousBlocking() bool { return false }

// ShallowClone copies the domain shell.
func (b *BlockingDomain) ShallowClone(parent *core.Subsystem) core.Node {
	c := &BlockingDomain{blockingLength: b.blockingLength, subBlockingLength: b.subBlockingLength, global: b.global}
	core.CloneBaseInto(&c.NodeBase, c, b, parent)
	c.CloneRegistryFrom(&b.SubContextRegistry)

	return c
}

// BlockingInput carries a blocked signal across the domain boundary,
// narrowing the block dimension to the per-iteration view.
type BlockingInput struct {
	core.NodeBase
	factor int
}

// NewBlockingInput constructs a boundary input node.
func NewBlockingInput(name string, parent *core.Subsystem, factor int) *BlockingInput {
	n := &BlockingInput{factor: factor}
	core.InitNode(&n.NodeBase, n)
	n.SetName(name)
	n.SetParent(parent)

	return n
}

// TypeName identifies the variant.
func (n *BlockingInput) TypeName() string { return "BlockingInput" }

// Factor returns the block expansion factor at this boundary.
func (n *BlockingInput) Factor() int { return n.factor }

// Validate requires exactly one input.
func (n *BlockingInput) Validate() error {
	if err := n.NodeBase.Validate(); err != nil {
		return err
	}
	if len(n.InputPorts()) != 1 {
		return fmt.Errorf("%w: blocking input %s needs exactly 1 input",
			core.ErrValidation, n.FullyQualifiedName())
	}

	return nil
}

// EmitValueExpr passes the boundary signal through. The per-sample view
// of the blocked signal is realized by the emitter's block loop and the
// per-slot FIFO reads, so the boundary node contributes no indexing of
// its own.
func (n *BlockingInput) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	return core.EmitInputExpr(q, n, 0, imag)
}

// ShallowClone copies the node.
func (n *BlockingInput) ShallowClone(parent *core.Subsystem) core.Node {
	c := &BlockingInput{factor: n.factor}
	core.CloneBaseInto(&c.NodeBase, c, n, parent)

	return c
}

// BlockingOutput gathers per-iteration results back into the blocked
// signal at the domain boundary.
type BlockingOutput struct {
	core.NodeBase
	factor int
}

// NewBlockingOutput constructs a boundary output node.
func NewBlockingOutput(name string, parent *core.Subsystem, factor int) *BlockingOutput {
	n := &BlockingOutput{factor: factor}
	core.InitNode(&n.NodeBase, n)
	n.SetName(name)
	n.SetParent(parent)

	return n
}

// TypeName identifies the variant.
func (n *BlockingOutput) TypeName() string { return "BlockingOutput" }

// Factor returns the block expansion factor at this boundary.
func (n *BlockingOutput) Factor() int { return n.factor }

// Validate requires exactly one input.
func (n *BlockingOutput) Validate() error {
	if err := n.NodeBase.Validate(); err != nil {
		return err
	}
	if len(n.InputPorts()) != 1 {
		return fmt.Errorf("%w: blocking output %s needs exactly 1 input",
			core.ErrValidation, n.FullyQualifiedName())
	}

	return nil
}

// EmitValueExpr passes the boundary signal through; gathering into the
// blocked dimension is realized by the emitter's block loop and the
// per-slot FIFO writes.
func (n *BlockingOutput) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	return core.EmitInputExpr(q, n, 0, imag)
}

// ShallowClone copies the node.
func (n *BlockingOutput) ShallowClone(parent *core.Subsystem) core.Node {
	c := &BlockingOutput{factor: n.factor}
	core.CloneBaseInto(&c.NodeBase, c, n, parent)

	return c
}
