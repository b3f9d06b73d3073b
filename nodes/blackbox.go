package nodes

import (
	"fmt"
	"strings"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// BlackBox wraps opaque user-provided C code. The global declaration is
// carried verbatim; each output port is produced by a call expression
// template in which %i placeholders are replaced by the input
// expressions in port order.
type BlackBox struct {
	core.NodeBase

	globalDecl string
	callExprs  []string // one template per output port
	stateful   bool
	combPath   bool
	stateVars  []numeric.Variable
}

// NewBlackBox constructs an opaque user-code node.
func NewBlackBox(name string, parent *core.Subsystem, globalDecl string, callExprs []string, stateful, combPath bool) *BlackBox {
	b := &BlackBox{
		globalDecl: globalDecl,
		callExprs:  append([]string(nil), callExprs...),
		stateful:   stateful,
		combPath:   combPath,
	}
	core.InitNode(&b.NodeBase, b)
	b.SetName(name)
	b.SetParent(parent)

	return b
}

// TypeName identifies the variant.
func (b *BlackBox) TypeName() string { return "BlackBox" }

// IsBlackBox marks the node for Design.BlackBoxes enumeration.
func (b *BlackBox) IsBlackBox() {}

// SetStateVariables supplies the state the user code declares through
// the compiler (so the state-update machinery orders around it).
func (b *BlackBox) SetStateVariables(vars []numeric.Variable) {
	b.stateVars = append([]numeric.Variable(nil), vars...)
}

// Validate requires one call template per output port.
func (b *BlackBox) Validate() error {
	if err := b.NodeBase.Validate(); err != nil {
		return err
	}
	if len(b.callExprs) != len(b.OutputPorts()) {
		return fmt.Errorf("%w: black box %s has %d call templates for %d outputs",
			core.ErrValidation, b.FullyQualifiedName(), len(b.callExprs), len(b.OutputPorts()))
	}

	return nil
}

// HasState reflects the user declaration.
func (b *BlackBox) HasState() bool { return b.stateful }

// HasCombinationalPath reflects the user declaration.
func (b *BlackBox) HasCombinationalPath() bool { return b.combPath }

// StateVariables returns the user-declared state.
func (b *BlackBox) StateVariables() []numeric.Variable {
	return append([]numeric.Variable(nil), b.stateVars...)
}

// HasGlobalDecl is true when user text was supplied.
func (b *BlackBox) HasGlobalDecl() bool { return b.globalDecl != "" }

// GlobalDeclText returns the user text verbatim.
func (b *BlackBox) GlobalDeclText() string { return b.globalDecl }

// EmitValueExpr instantiates the call template for the port, splicing
// the input expressions over the %0, %1, ... placeholders.
func (b *BlackBox) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	if outputPort >= len(b.callExprs) {
		return core.CExpr{}, fmt.Errorf("%w: black box %s has no template for output %d",
			core.ErrValidation, b.FullyQualifiedName(), outputPort)
	}
	expr := b.callExprs[outputPort]
	for i := range b.InputPorts() {
		in, err := core.EmitInputExpr(q, b, i, imag)
		if err != nil {
			return core.CExpr{}, err
		}
		expr = strings.ReplaceAll(expr, fmt.Sprintf("%%%d", i), in.Text)
	}

	return core.NewCExpr(expr, false), nil
}

// GraphMLParameters exports the opaque configuration.
func (b *BlackBox) GraphMLParameters() []core.GraphMLParameter {
	return []core.GraphMLParameter{
		{Key: "Stateful", AttrType: "boolean", Value: fmt.Sprintf("%t", b.stateful)},
	}
}

// ShallowClone copies the node parameters.
func (b *BlackBox) ShallowClone(parent *core.Subsystem) core.Node {
	c := &BlackBox{
		globalDecl: b.globalDecl,
		callExprs:  append([]string(nil), b.callExprs...),
		stateful:   b.stateful,
		combPath:   b.combPath,
		stateVars:  append([]numeric.Variable(nil), b.stateVars...),
	}
	core.CloneBaseInto(&c.NodeBase, c, b, parent)

	return c
}
