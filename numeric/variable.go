package numeric

import (
	"fmt"
	"strings"
)

// Variable is a named, typed slot (state element, staging temporary, or
// I/O port variable) that renders to a C declaration.
type Variable struct {
	// Name is the base C identifier, without the real/imaginary suffix.
	Name string

	// Type is the element type and shape of the variable.
	Type DataType

	// Init holds the initial values, flattened in row-major order. Empty
	// means zero-initialized. A single value broadcasts across the shape.
	Init []NumericValue
}

// NewVariable constructs a Variable.
func NewVariable(name string, dt DataType, init []NumericValue) Variable {
	return Variable{Name: name, Type: dt, Init: init}
}

// CName returns the C identifier for the requested component. The real
// component carries the _re suffix and the imaginary component _im when
// the type is complex; real-only variables use the bare name.
func (v Variable) CName(imag bool) string {
	if imag {
		return v.Name + "_im"
	}
	if v.Type.Complex {
		return v.Name + "_re"
	}

	return v.Name
}

// CDecl renders a declaration for one component of the variable.
// includeDims appends array dimensions; includeInit appends an
// initializer list built from Init (broadcasting a single value).
func (v Variable) CDecl(imag, includeDims, includeInit bool) string {
	var sb strings.Builder
	sb.WriteString(v.Type.CTypeName())
	sb.WriteByte(' ')
	sb.WriteString(v.CName(imag))
	if includeDims && v.Type.IsVector() {
		for _, d := range v.Type.Dimensions {
			fmt.Fprintf(&sb, "[%d]", d)
		}
	}
	if includeInit {
		sb.WriteString(" = ")
		sb.WriteString(v.cInitializer(imag))
	}

	return sb.String()
}

// cInitializer renders the initializer for one component.
func (v Variable) cInitializer(imag bool) string {
	n := v.Type.NumElements()
	vals := v.Init
	if len(vals) == 0 {
		vals = ZeroValue(v.Type).Broadcast(n)
	} else if len(vals) == 1 && n > 1 {
		vals = vals[0].Broadcast(n)
	}
	if v.Type.IsScalar() {
		return vals[0].Component(imag)
	}
	parts := make([]string, len(vals))
	for i, nv := range vals {
		parts[i] = nv.Component(imag)
	}

	return "{" + strings.Join(parts, ", ") + "}"
}
