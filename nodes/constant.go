package nodes

import (
	"fmt"
	"strings"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// Constant drives a fixed value. Constants have no combinational input
// and are removed before scheduling (their value is folded into the
// consumers' expressions).
type Constant struct {
	core.NodeBase
	value    []numeric.NumericValue
	dataType numeric.DataType
}

// NewConstant constructs a constant node.
func NewConstant(name string, parent *core.Subsystem, value []numeric.NumericValue, dt numeric.DataType) *Constant {
	c := &Constant{value: append([]numeric.NumericValue(nil), value...), dataType: dt}
	core.InitNode(&c.NodeBase, c)
	c.SetName(name)
	c.SetParent(parent)

	return c
}

// TypeName identifies the variant.
func (c *Constant) TypeName() string { return "Constant" }

// Value returns the constant values (flattened).
func (c *Constant) Value() []numeric.NumericValue {
	return append([]numeric.NumericValue(nil), c.value...)
}

// DataType returns the declared constant type.
func (c *Constant) DataType() numeric.DataType { return c.dataType }

// Label renders the node name with a short value preview.
func (c *Constant) Label() string {
	if len(c.value) == 1 {
		return c.Name() + "\n" + c.value[0].String()
	}

	return fmt.Sprintf("%s\n[%d values]", c.Name(), len(c.value))
}

// Validate requires a value count matching the type shape.
func (c *Constant) Validate() error {
	if err := c.NodeBase.Validate(); err != nil {
		return err
	}
	if len(c.value) == 0 {
		return fmt.Errorf("%w: constant %s has no value", core.ErrValidation, c.FullyQualifiedName())
	}
	if len(c.value) != 1 && len(c.value) != c.dataType.NumElements() {
		return fmt.Errorf("%w: constant %s has %d values for %d elements",
			core.ErrValidation, c.FullyQualifiedName(), len(c.value), c.dataType.NumElements())
	}

	return nil
}

// HasCombinationalPath is false; constants have no inputs.
func (c *Constant) HasCombinationalPath() bool { return false }

// HasGlobalDecl is true for vector constants, which emit a file-scope
// array.
func (c *Constant) HasGlobalDecl() bool { return c.dataType.IsVector() }

// GlobalDeclText renders the const array declaration(s).
func (c *Constant) GlobalDeclText() string {
	if !c.HasGlobalDecl() {
		return ""
	}
	v := numeric.NewVariable(core.CIdentifier(c), c.dataType, c.value)
	decl := "const " + v.CDecl(false, true, true) + ";"
	if c.dataType.Complex {
		decl += "\nconst " + v.CDecl(true, true, true) + ";"
	}

	return decl
}

// EmitValueExpr renders the literal (scalar) or the global array name.
func (c *Constant) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	if c.dataType.IsVector() {
		v := numeric.NewVariable(core.CIdentifier(c), c.dataType, c.value)

		return core.NewCExpr(v.CName(imag), true), nil
	}

	return core.NewCExpr(c.value[0].Component(imag), false), nil
}

// GraphMLParameters exports the value and type.
func (c *Constant) GraphMLParameters() []core.GraphMLParameter {
	vals := make([]string, len(c.value))
	for i, v := range c.value {
		vals[i] = v.String()
	}

	return []core.GraphMLParameter{
		{Key: "Value", AttrType: "string", Value: "[" + strings.Join(vals, ", ") + "]"},
		{Key: "DataTypeStr", AttrType: "string", Value: c.dataType.String()},
	}
}

// ShallowClone copies the node parameters.
func (c *Constant) ShallowClone(parent *core.Subsystem) core.Node {
	cl := &Constant{value: append([]numeric.NumericValue(nil), c.value...), dataType: c.dataType}
	core.CloneBaseInto(&cl.NodeBase, cl, c, parent)

	return cl
}
