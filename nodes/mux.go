package nodes

import (
	"fmt"
	"strings"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// GuardedRoot is implemented by context roots whose family containers
// emit a runtime guard: GuardExpr renders the C condition under which
// subcontext sub executes.
type GuardedRoot interface {
	core.ContextRoot
	GuardExpr(sub int) string
}

// Mux selects one of its data inputs according to the select line.
// Input port 0 is the selector; ports 1..N carry the data. As a context
// root it defines one subcontext per data port: the nodes feeding data
// port k execute only when the selector picks k.
type Mux struct {
	core.NodeBase
	core.SubContextRegistry

	replicateDrivers bool
	useSwitch        bool
}

// NewMux constructs a mux with numDataPorts data inputs.
func NewMux(name string, parent *core.Subsystem, numDataPorts int) *Mux {
	m := &Mux{}
	core.InitNode(&m.NodeBase, m)
	m.SetName(name)
	m.SetParent(parent)
	m.EnsureSubContexts(numDataPorts)

	return m
}

// TypeName identifies the variant.
func (m *Mux) TypeName() string { return "Mux" }

// NumDataPorts returns the data input count.
func (m *Mux) NumDataPorts() int { return m.NumSubContexts() }

// SelectorPort returns the select-line port.
func (m *Mux) SelectorPort() *core.Port { return m.InputPort(0) }

// DataPort returns data port k (0-based), which is input port k+1.
func (m *Mux) DataPort(k int) *core.Port { return m.InputPort(k + 1) }

// DecisionVariable is the persistent C variable carrying the selector
// decision across the context boundary.
func (m *Mux) DecisionVariable() numeric.Variable {
	dt := numeric.NewDataType(false, true, false, 32, 0, nil)

	return numeric.NewVariable(core.CIdentifier(m)+"_sel", dt, []numeric.NumericValue{numeric.NewIntValue(0)})
}

// Validate requires the selector plus at least two data ports.
func (m *Mux) Validate() error {
	if err := m.NodeBase.Validate(); err != nil {
		return err
	}
	if len(m.InputPorts()) < 3 {
		return fmt.Errorf("%w: mux %s needs a selector and >= 2 data inputs",
			core.ErrValidation, m.FullyQualifiedName())
	}
	if arc, err := m.SelectorPort().SoleArc(); err == nil {
		if dt := arc.DataType(); dt.FloatingPt || dt.Complex {
			return fmt.Errorf("%w: mux %s selector must be an integer signal",
				core.ErrValidation, m.FullyQualifiedName())
		}
	}

	return nil
}

// ContextDecisionDriverArcs returns the selector arcs.
func (m *Mux) ContextDecisionDriverArcs() []*core.Arc {
	return m.SelectorPort().Arcs()
}

// ShouldReplicateDrivers reflects the pass configuration.
func (m *Mux) ShouldReplicateDrivers() bool { return m.replicateDrivers }

// SetReplicateDrivers is set by the context passes.
func (m *Mux) SetReplicateDrivers(v bool) { m.replicateDrivers = v }

// RequiresContiguousBlocking: a mux context cannot be split across
// sub-blocks.
func (m *Mux) RequiresContiguousBlocking() bool { return true }

// GuardExpr renders the per-subcontext guard on the decision variable.
func (m *Mux) GuardExpr(sub int) string {
	return fmt.Sprintf("%s == %d", m.DecisionVariable().CName(false), sub)
}

// EmitValueExpr renders the selector-driven conditional chain, used by
// the non-context emission paths.
func (m *Mux) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	sel, err := core.EmitInputExpr(q, m, 0, false)
	if err != nil {
		return core.CExpr{}, err
	}
	var sb strings.Builder
	n := m.NumDataPorts()
	for k := 0; k < n-1; k++ {
		in, err := core.EmitInputExpr(q, m, k+1, imag)
		if err != nil {
			return core.CExpr{}, err
		}
		fmt.Fprintf(&sb, "(%s == %d) ? %s : ", sel.Text, k, in.Text)
	}
	last, err := core.EmitInputExpr(q, m, n, imag)
	if err != nil {
		return core.CExpr{}, err
	}
	sb.WriteString(last.Text)

	return core.NewCExpr("("+sb.String()+")", false), nil
}

// GraphMLParameters exports the port count.
func (m *Mux) GraphMLParameters() []core.GraphMLParameter {
	return []core.GraphMLParameter{
		{Key: "NumDataPorts", AttrType: "int", Value: fmt.Sprintf("%d", m.NumDataPorts())},
	}
}

// ShallowClone copies the node parameters and the subcontext registry
// (remapped by CopyGraph).
func (m *Mux) ShallowClone(parent *core.Subsystem) core.Node {
	c := &Mux{replicateDrivers: m.replicateDrivers, useSwitch: m.useSwitch}
	core.CloneBaseInto(&c.NodeBase, c, m, parent)
	c.CloneRegistryFrom(&m.SubContextRegistry)

	return c
}
