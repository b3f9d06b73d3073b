package nodes

import (
	"fmt"
	"strings"

	"github.com/ucb-cyarp/vitis-sub000/core"
)

// Product multiplies and divides its inputs according to a per-port
// operation vector.
type Product struct {
	core.NodeBase

	// multiply holds one entry per input port: true multiplies, false
	// divides.
	multiply []bool
}

// NewProduct constructs a product node with the given per-port ops.
func NewProduct(name string, parent *core.Subsystem, multiply []bool) *Product {
	p := &Product{multiply: append([]bool(nil), multiply...)}
	core.InitNode(&p.NodeBase, p)
	p.SetName(name)
	p.SetParent(parent)

	return p
}

// ParseOpString converts a "**/" style operation string.
func ParseOpString(str string) ([]bool, error) {
	ops := make([]bool, 0, len(str))
	for _, r := range str {
		switch r {
		case '*':
			ops = append(ops, true)
		case '/':
			ops = append(ops, false)
		case '|', ' ':
		default:
			return nil, fmt.Errorf("%w: operation character %q", ErrBadParameter, r)
		}
	}

	return ops, nil
}

// TypeName identifies the variant.
func (p *Product) TypeName() string { return "Product" }

// Ops returns the per-port operation vector.
func (p *Product) Ops() []bool { return append([]bool(nil), p.multiply...) }

// Validate requires at least one input and one op per input port.
func (p *Product) Validate() error {
	if err := p.NodeBase.Validate(); err != nil {
		return err
	}
	if len(p.InputPorts()) < 1 {
		return fmt.Errorf("%w: product %s needs >= 1 input", core.ErrValidation, p.FullyQualifiedName())
	}
	if len(p.multiply) != len(p.InputPorts()) {
		return fmt.Errorf("%w: product %s has %d ops for %d inputs",
			core.ErrValidation, p.FullyQualifiedName(), len(p.multiply), len(p.InputPorts()))
	}

	return nil
}

// EmitValueExpr renders the chained multiply/divide expression. A
// leading divide inverts from 1.
func (p *Product) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	var sb strings.Builder
	sb.WriteByte('(')
	for i := range p.InputPorts() {
		in, err := core.EmitInputExpr(q, p, i, imag)
		if err != nil {
			return core.CExpr{}, err
		}
		if i == 0 {
			if !p.multiply[i] {
				sb.WriteString("1/")
			}
		} else if p.multiply[i] {
			sb.WriteByte('*')
		} else {
			sb.WriteByte('/')
		}
		sb.WriteString(in.Text)
	}
	sb.WriteByte(')')

	return core.NewCExpr(sb.String(), false), nil
}

// GraphMLParameters exports the operation configuration.
func (p *Product) GraphMLParameters() []core.GraphMLParameter {
	var sb strings.Builder
	for _, m := range p.multiply {
		if m {
			sb.WriteByte('*')
		} else {
			sb.WriteByte('/')
		}
	}

	return []core.GraphMLParameter{{Key: "Inputs", AttrType: "string", Value: sb.String()}}
}

// ShallowClone copies the node parameters.
func (p *Product) ShallowClone(parent *core.Subsystem) core.Node {
	c := &Product{multiply: append([]bool(nil), p.multiply...)}
	core.CloneBaseInto(&c.NodeBase, c, p, parent)

	return c
}
