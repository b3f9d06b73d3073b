package nodes

import (
	"fmt"
	"math"
	"strings"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// InterpMethod selects how inputs between breakpoints map to a table
// entry.
type InterpMethod int

const (
	// InterpFlat takes the breakpoint below.
	InterpFlat InterpMethod = iota
	// InterpNearest takes the nearest breakpoint, rounding up ties.
	InterpNearest
	// InterpLinear interpolates linearly between breakpoints.
	InterpLinear
	// InterpCubic interpolates with a cubic spline.
	InterpCubic
)

// ExtrapMethod selects how out-of-range inputs are handled.
type ExtrapMethod int

const (
	// ExtrapNoCheck emits no bounds logic.
	ExtrapNoCheck ExtrapMethod = iota
	// ExtrapClip clamps the input to the breakpoint range.
	ExtrapClip
	// ExtrapLinear extrapolates from the outer breakpoint pair.
	ExtrapLinear
	// ExtrapCubic extrapolates with a cubic spline.
	ExtrapCubic
)

// SearchMethod selects the breakpoint search strategy.
type SearchMethod int

const (
	// SearchEvenlySpaced scales the input directly into an index.
	SearchEvenlySpaced SearchMethod = iota
	// SearchLinear scans breakpoints, restarting each lookup.
	SearchLinear
	// SearchLinearMemory scans starting from the previous hit.
	SearchLinearMemory
	// SearchBinary bisects, restarting each lookup.
	SearchBinary
	// SearchBinaryMemory bisects starting from the previous hit.
	SearchBinaryMemory
)

// ParseInterpMethod converts the exchange-format string.
func ParseInterpMethod(s string) (InterpMethod, error) {
	switch strings.ToLower(s) {
	case "flat":
		return InterpFlat, nil
	case "nearest":
		return InterpNearest, nil
	case "linear":
		return InterpLinear, nil
	case "cubic", "cubic_spline":
		return InterpCubic, nil
	default:
		return 0, fmt.Errorf("%w: interpolation method %q", ErrBadParameter, s)
	}
}

// ParseExtrapMethod converts the exchange-format string.
func ParseExtrapMethod(s string) (ExtrapMethod, error) {
	switch strings.ToLower(s) {
	case "no-check", "nocheck", "none":
		return ExtrapNoCheck, nil
	case "clip":
		return ExtrapClip, nil
	case "linear":
		return ExtrapLinear, nil
	case "cubic", "cubic_spline":
		return ExtrapCubic, nil
	default:
		return 0, fmt.Errorf("%w: extrapolation method %q", ErrBadParameter, s)
	}
}

// ParseSearchMethod converts the exchange-format string.
func ParseSearchMethod(s string) (SearchMethod, error) {
	switch strings.ToLower(s) {
	case "evenly-spaced", "evenly_spaced_points":
		return SearchEvenlySpaced, nil
	case "linear", "linear_search_no_memory":
		return SearchLinear, nil
	case "linear-memory", "linear_search_memory":
		return SearchLinearMemory, nil
	case "binary", "binary_search_no_memory":
		return SearchBinary, nil
	case "binary-memory", "binary_search_memory":
		return SearchBinaryMemory, nil
	default:
		return 0, fmt.Errorf("%w: search method %q", ErrBadParameter, s)
	}
}

// LUT is a one-dimensional lookup table over evenly spaced breakpoints.
type LUT struct {
	core.NodeBase

	breakpoints []numeric.NumericValue
	table       []numeric.NumericValue
	interp      InterpMethod
	extrap      ExtrapMethod
	search      SearchMethod

	// indexQueue tracks the statement queue the index variable was last
	// emitted into, so the variable is emitted exactly once per pass even
	// when the real and imaginary components both request it.
	indexQueue *core.StmtQueue
}

// NewLUT constructs a lookup table node.
func NewLUT(name string, parent *core.Subsystem, breakpoints, table []numeric.NumericValue,
	interp InterpMethod, extrap ExtrapMethod, search SearchMethod) *LUT {
	l := &LUT{
		breakpoints: append([]numeric.NumericValue(nil), breakpoints...),
		table:       append([]numeric.NumericValue(nil), table...),
		interp:      interp,
		extrap:      extrap,
		search:      search,
	}
	core.InitNode(&l.NodeBase, l)
	l.SetName(name)
	l.SetParent(parent)

	return l
}

// TypeName identifies the variant.
func (l *LUT) TypeName() string { return "LUT" }

// Breakpoints returns the breakpoint vector.
func (l *LUT) Breakpoints() []numeric.NumericValue {
	return append([]numeric.NumericValue(nil), l.breakpoints...)
}

// Table returns the table data.
func (l *LUT) Table() []numeric.NumericValue {
	return append([]numeric.NumericValue(nil), l.table...)
}

// InterpMethod returns the interpolation method.
func (l *LUT) InterpMethod() InterpMethod { return l.interp }

// ExtrapMethod returns the extrapolation method.
func (l *LUT) ExtrapMethod() ExtrapMethod { return l.extrap }

// SearchMethod returns the search method.
func (l *LUT) SearchMethod() SearchMethod { return l.search }

// step returns the common breakpoint spacing.
func (l *LUT) step() float64 {
	m := len(l.breakpoints)

	return (l.breakpoints[m-1].Real() - l.breakpoints[0].Real()) / float64(m-1)
}

// Validate requires >= 2 evenly spaced breakpoints, a matching table,
// and a legal integer step when the input is an integer type.
func (l *LUT) Validate() error {
	if err := l.NodeBase.Validate(); err != nil {
		return err
	}
	m := len(l.breakpoints)
	if m < 2 {
		return fmt.Errorf("%w: LUT %s needs >= 2 breakpoints", core.ErrValidation, l.FullyQualifiedName())
	}
	if len(l.table) != m {
		return fmt.Errorf("%w: LUT %s table has %d entries for %d breakpoints",
			core.ErrValidation, l.FullyQualifiedName(), len(l.table), m)
	}
	s := l.step()
	if s <= 0 {
		return fmt.Errorf("%w: LUT %s breakpoints must ascend", core.ErrValidation, l.FullyQualifiedName())
	}
	for i := 1; i < m; i++ {
		got := l.breakpoints[i].Real() - l.breakpoints[i-1].Real()
		if math.Abs(got-s) > 1e-9*math.Max(1, math.Abs(s)) {
			return fmt.Errorf("%w: LUT %s breakpoints not evenly spaced (step %g vs %g at %d)",
				core.ErrValidation, l.FullyQualifiedName(), got, s, i)
		}
	}
	if in, ok := l.inputType(); ok && !in.FloatingPt {
		sInt := s == math.Trunc(s)
		invInt := s != 0 && (1/s) == math.Trunc(1/s)
		if !sInt && !invInt {
			return fmt.Errorf("%w: LUT %s integer input needs integer step or integer reciprocal step (got %g)",
				core.ErrValidation, l.FullyQualifiedName(), s)
		}
	}

	return nil
}

// inputType returns the driving arc type when connected.
func (l *LUT) inputType() (numeric.DataType, bool) {
	if len(l.InputPorts()) == 0 {
		return numeric.DataType{}, false
	}
	arc, err := l.InputPort(0).SoleArc()
	if err != nil {
		return numeric.DataType{}, false
	}

	return arc.DataType(), true
}

// HasGlobalDecl is true: the table is a file-scope const array.
func (l *LUT) HasGlobalDecl() bool { return true }

// GlobalDeclText renders the const table array (and the parallel
// imaginary table for complex data).
func (l *LUT) GlobalDeclText() string {
	dt := l.tableType()
	v := numeric.NewVariable(core.CIdentifier(l)+"_table", dt, l.table)
	decl := "const " + v.CDecl(false, true, true) + ";"
	if dt.Complex {
		decl += "\nconst " + v.CDecl(true, true, true) + ";"
	}

	return decl
}

// tableType derives the table element type from the stored data.
func (l *LUT) tableType() numeric.DataType {
	cplx := false
	fractional := false
	for _, v := range l.table {
		cplx = cplx || v.IsComplex()
		fractional = fractional || v.IsFractional()
	}
	if fractional {
		return numeric.NewDataType(true, true, cplx, 64, 0, []int{len(l.table)})
	}

	return numeric.NewDataType(false, true, cplx, 64, 0, []int{len(l.table)})
}

// EmitValueExpr computes the index (once per pass) and reads the table.
func (l *LUT) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	if l.search != SearchEvenlySpaced {
		return core.CExpr{}, fmt.Errorf("%w: LUT %s search method has no emission path",
			ErrUnsupported, l.FullyQualifiedName())
	}
	if l.interp != InterpFlat && l.interp != InterpNearest {
		return core.CExpr{}, fmt.Errorf("%w: LUT %s interpolation has no emission path",
			ErrUnsupported, l.FullyQualifiedName())
	}
	idxVar := core.CIdentifier(l) + "_idx"
	if l.indexQueue != q {
		if err := l.emitIndexComputation(q, idxVar); err != nil {
			return core.CExpr{}, err
		}
		l.indexQueue = q
	}
	table := numeric.Variable{Name: core.CIdentifier(l) + "_table", Type: l.tableType()}

	return core.NewCExpr(fmt.Sprintf("%s[%s]", table.CName(imag), idxVar), true), nil
}

// emitIndexComputation emits the index variable declaration and the
// scaled-input computation, wrapped in a clamp branch for clip
// extrapolation.
func (l *LUT) emitIndexComputation(q *core.StmtQueue, idxVar string) error {
	in, err := core.EmitInputExpr(q, l, 0, false)
	if err != nil {
		return err
	}
	inT, _ := l.inputType()
	m := len(l.breakpoints)
	b0 := l.breakpoints[0].Component(false)
	last := l.breakpoints[m-1].Component(false)
	comp := l.indexExpr(in.Text, inT)

	if l.extrap == ExtrapClip {
		q.Add("int64_t %s;", idxVar)
		q.Add("if (%s < %s) { %s = 0; } else if (%s > %s) { %s = %d; } else { %s = %s; }",
			in.Text, b0, idxVar, in.Text, last, idxVar, m-1, idxVar, comp)

		return nil
	}
	q.Add("int64_t %s = %s;", idxVar, comp)

	return nil
}

// indexExpr renders the in-range index computation for the input type.
func (l *LUT) indexExpr(x string, inT numeric.DataType) string {
	s := l.step()
	b0 := l.breakpoints[0].Component(false)
	if inT.FloatingPt || inT.TotalBits == 0 {
		if l.interp == InterpNearest {
			return fmt.Sprintf("(int64_t) ((%s - (%s))/%s + 0.5)", x, b0, formatStep(s))
		}

		return fmt.Sprintf("(int64_t) ((%s - (%s))/%s)", x, b0, formatStep(s))
	}
	if s >= 1 {
		si := int64(s)
		if l.interp == InterpNearest {
			return fmt.Sprintf("(%s - (%s) + %d) / %d", x, b0, si/2, si)
		}

		return fmt.Sprintf("(%s - (%s)) / %d", x, b0, si)
	}
	inv := int64(math.Round(1 / s))

	return fmt.Sprintf("(%s - (%s)) * %d", x, b0, inv)
}

// formatStep renders the breakpoint spacing as a C literal.
func formatStep(s float64) string {
	if s == math.Trunc(s) {
		return fmt.Sprintf("%d", int64(s))
	}

	return fmt.Sprintf("%g", s)
}

// GraphMLParameters exports the table configuration.
func (l *LUT) GraphMLParameters() []core.GraphMLParameter {
	bp := make([]string, len(l.breakpoints))
	for i, v := range l.breakpoints {
		bp[i] = v.String()
	}
	td := make([]string, len(l.table))
	for i, v := range l.table {
		td[i] = v.String()
	}

	return []core.GraphMLParameter{
		{Key: "BreakpointsForDimension1", AttrType: "string", Value: "[" + strings.Join(bp, ", ") + "]"},
		{Key: "TableData", AttrType: "string", Value: "[" + strings.Join(td, ", ") + "]"},
		{Key: "InterpMethod", AttrType: "string", Value: fmt.Sprintf("%d", int(l.interp))},
		{Key: "ExtrapMethod", AttrType: "string", Value: fmt.Sprintf("%d", int(l.extrap))},
		{Key: "SearchMethod", AttrType: "string", Value: fmt.Sprintf("%d", int(l.search))},
	}
}

// ShallowClone copies the node parameters.
func (l *LUT) ShallowClone(parent *core.Subsystem) core.Node {
	c := &LUT{
		breakpoints: append([]numeric.NumericValue(nil), l.breakpoints...),
		table:       append([]numeric.NumericValue(nil), l.table...),
		interp:      l.interp,
		extrap:      l.extrap,
		search:      l.search,
	}
	core.CloneBaseInto(&c.NodeBase, c, l, parent)

	return c
}
