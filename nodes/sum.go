package nodes

import (
	"fmt"
	"strings"

	"github.com/ucb-cyarp/vitis-sub000/core"
)

// Sum adds and subtracts its inputs according to a per-port sign vector.
type Sum struct {
	core.NodeBase

	// signs holds one entry per input port: true adds, false subtracts.
	signs []bool
}

// NewSum constructs a sum node with the given per-port signs.
func NewSum(name string, parent *core.Subsystem, signs []bool) *Sum {
	s := &Sum{signs: append([]bool(nil), signs...)}
	core.InitNode(&s.NodeBase, s)
	s.SetName(name)
	s.SetParent(parent)

	return s
}

// ParseSignString converts a "++-" style sign string.
func ParseSignString(str string) ([]bool, error) {
	signs := make([]bool, 0, len(str))
	for _, r := range str {
		switch r {
		case '+':
			signs = append(signs, true)
		case '-':
			signs = append(signs, false)
		case '|', ' ':
			// Simulink spacer characters carry no port
		default:
			return nil, fmt.Errorf("%w: sign character %q", ErrBadParameter, r)
		}
	}

	return signs, nil
}

// TypeName identifies the variant.
func (s *Sum) TypeName() string { return "Sum" }

// Signs returns the per-port sign vector.
func (s *Sum) Signs() []bool { return append([]bool(nil), s.signs...) }

// Label renders the node name with its sign string.
func (s *Sum) Label() string {
	var sb strings.Builder
	for _, sign := range s.signs {
		if sign {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('-')
		}
	}

	return s.Name() + "\n" + sb.String()
}

// Validate requires at least two inputs and one sign per input port.
func (s *Sum) Validate() error {
	if err := s.NodeBase.Validate(); err != nil {
		return err
	}
	if len(s.InputPorts()) < 2 {
		return fmt.Errorf("%w: sum %s needs >= 2 inputs", core.ErrValidation, s.FullyQualifiedName())
	}
	if len(s.signs) != len(s.InputPorts()) {
		return fmt.Errorf("%w: sum %s has %d signs for %d inputs",
			core.ErrValidation, s.FullyQualifiedName(), len(s.signs), len(s.InputPorts()))
	}

	return nil
}

// EmitValueExpr renders the signed sum of the input expressions.
func (s *Sum) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	var sb strings.Builder
	sb.WriteByte('(')
	for i := range s.InputPorts() {
		in, err := core.EmitInputExpr(q, s, i, imag)
		if err != nil {
			return core.CExpr{}, err
		}
		if i == 0 {
			if !s.signs[i] {
				sb.WriteByte('-')
			}
		} else if s.signs[i] {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('-')
		}
		sb.WriteString(in.Text)
	}
	sb.WriteByte(')')

	return core.NewCExpr(sb.String(), false), nil
}

// GraphMLParameters exports the sign configuration.
func (s *Sum) GraphMLParameters() []core.GraphMLParameter {
	var sb strings.Builder
	for _, sign := range s.signs {
		if sign {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('-')
		}
	}

	return []core.GraphMLParameter{{Key: "InputSigns", AttrType: "string", Value: sb.String()}}
}

// ShallowClone copies the node parameters.
func (s *Sum) ShallowClone(parent *core.Subsystem) core.Node {
	c := &Sum{signs: append([]bool(nil), s.signs...)}
	core.CloneBaseInto(&c.NodeBase, c, s, parent)

	return c
}
