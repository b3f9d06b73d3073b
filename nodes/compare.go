package nodes

import (
	"fmt"

	"github.com/ucb-cyarp/vitis-sub000/core"
)

// CompareOp enumerates the relational operators.
type CompareOp int

const (
	CompareLT CompareOp = iota
	CompareLEQ
	CompareGT
	CompareGEQ
	CompareEQ
	CompareNEQ
)

// ParseCompareOp converts the Simulink-style operator string.
func ParseCompareOp(str string) (CompareOp, error) {
	switch str {
	case "<":
		return CompareLT, nil
	case "<=":
		return CompareLEQ, nil
	case ">":
		return CompareGT, nil
	case ">=":
		return CompareGEQ, nil
	case "==":
		return CompareEQ, nil
	case "~=", "!=":
		return CompareNEQ, nil
	default:
		return 0, fmt.Errorf("%w: compare operator %q", ErrBadParameter, str)
	}
}

// CSymbol returns the C operator text.
func (o CompareOp) CSymbol() string {
	switch o {
	case CompareLT:
		return "<"
	case CompareLEQ:
		return "<="
	case CompareGT:
		return ">"
	case CompareGEQ:
		return ">="
	case CompareEQ:
		return "=="
	default:
		return "!="
	}
}

// Compare applies a relational operator to its two inputs, producing a
// boolean.
type Compare struct {
	core.NodeBase
	op CompareOp
}

// NewCompare constructs a compare node.
func NewCompare(name string, parent *core.Subsystem, op CompareOp) *Compare {
	c := &Compare{op: op}
	core.InitNode(&c.NodeBase, c)
	c.SetName(name)
	c.SetParent(parent)

	return c
}

// TypeName identifies the variant.
func (c *Compare) TypeName() string { return "Compare" }

// Op returns the relational operator.
func (c *Compare) Op() CompareOp { return c.op }

// Label renders the node name with the operator.
func (c *Compare) Label() string { return c.Name() + "\n" + c.op.CSymbol() }

// Validate requires exactly two real inputs.
func (c *Compare) Validate() error {
	if err := c.NodeBase.Validate(); err != nil {
		return err
	}
	if len(c.InputPorts()) != 2 {
		return fmt.Errorf("%w: compare %s needs exactly 2 inputs", core.ErrValidation, c.FullyQualifiedName())
	}
	for _, p := range c.InputPorts() {
		if arc, err := p.SoleArc(); err == nil && arc.DataType().Complex {
			return fmt.Errorf("%w: compare %s cannot order complex operands", core.ErrValidation, c.FullyQualifiedName())
		}
	}

	return nil
}

// EmitValueExpr renders the parenthesized comparison.
func (c *Compare) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	lhs, err := core.EmitInputExpr(q, c, 0, false)
	if err != nil {
		return core.CExpr{}, err
	}
	rhs, err := core.EmitInputExpr(q, c, 1, false)
	if err != nil {
		return core.CExpr{}, err
	}

	return core.NewCExpr(fmt.Sprintf("(%s %s %s)", lhs.Text, c.op.CSymbol(), rhs.Text), false), nil
}

// GraphMLParameters exports the operator.
func (c *Compare) GraphMLParameters() []core.GraphMLParameter {
	return []core.GraphMLParameter{{Key: "CompareOp", AttrType: "string", Value: c.op.CSymbol()}}
}

// ShallowClone copies the node parameters.
func (c *Compare) ShallowClone(parent *core.Subsystem) core.Node {
	cl := &Compare{op: c.op}
	core.CloneBaseInto(&cl.NodeBase, cl, c, parent)

	return cl
}
