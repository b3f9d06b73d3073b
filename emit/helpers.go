package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// scheduledNodes returns the design's scheduled nodes in order. Pure
// containers and masters are filtered; they have no statements of their
// own.
func scheduledNodes(d *core.Design) []core.Node {
	var out []core.Node
	for _, n := range d.Nodes() {
		if n.SchedOrder() == core.SchedOrderUnscheduled {
			continue
		}
		if isPureContainer(n) {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SchedOrder() < out[j].SchedOrder() })

	return out
}

// isPureContainer filters hierarchy shells with no emission.
func isPureContainer(n core.Node) bool {
	switch n.(type) {
	case *core.Subsystem, *core.ExpandedNode,
		*nodes.ContextFamilyContainer, *nodes.ContextContainer,
		*nodes.EnabledSubsystem, *nodes.ClockDomain,
		*nodes.UpsampleClockDomain, *nodes.DownsampleClockDomain,
		*nodes.BlockingDomain:
		return true
	default:
		return false
	}
}

// stateVarDecls renders the file-scope state declarations for a node
// set, including the imaginary components of complex state.
func stateVarDecls(nodeSet []core.Node) []string {
	var out []string
	for _, n := range nodeSet {
		for _, v := range n.StateVariables() {
			out = append(out, v.CDecl(false, true, true)+";")
			if v.Type.Complex {
				out = append(out, v.CDecl(true, true, true)+";")
			}
		}
	}

	return out
}

// globalDecls renders the file-scope declarations contributed by nodes
// (constant tables, black-box text, decision variables).
func globalDecls(nodeSet []core.Node) []string {
	var out []string
	for _, n := range nodeSet {
		if n.HasGlobalDecl() {
			out = append(out, n.GlobalDeclText())
		}
	}

	return out
}

// emitNodeStatements appends node statements to the queue: output
// expressions (cached against fan-out), next-state staging, and
// state-update commits for StateUpdate nodes.
func emitNodeStatements(q *core.StmtQueue, n core.Node) error {
	if su, ok := n.(*nodes.StateUpdate); ok {
		return su.EmitStateUpdate(q, su)
	}
	for _, p := range n.OutputPorts() {
		if !p.Connected() {
			continue
		}
		dt := p.Arcs()[0].DataType()
		for _, im := range components(dt) {
			if _, err := core.EmitOutput(q, p, func() string { return dt.CTypeName() }, im); err != nil {
				return err
			}
		}
	}

	return n.EmitNextState(q)
}

// components returns the real-only or real+imaginary component passes.
func components(dt numeric.DataType) []bool {
	if dt.Complex {
		return []bool{false, true}
	}

	return []bool{false}
}

// guardChainFor renders the guard condition of a node's context stack,
// joining the guarded roots' conditions with &&. Returns "" when the
// node is unguarded.
func guardChainFor(n core.Node) string {
	var terms []string
	for _, c := range n.Contexts() {
		if g, ok := c.Root.(nodes.GuardedRoot); ok {
			terms = append(terms, g.GuardExpr(c.SubContext))
		}
	}

	return strings.Join(terms, " && ")
}

// outputAssignments renders the writes into the output struct from the
// output master's incoming arcs.
func outputAssignments(q *core.StmtQueue, d *core.Design, structVar string) error {
	out := d.OutputMaster()
	for _, p := range out.InputPorts() {
		for _, a := range p.Arcs() {
			src := a.SrcPort()
			dt := a.DataType()
			for _, im := range components(dt) {
				e, err := core.EmitOutput(q, src, func() string { return dt.CTypeName() }, im)
				if err != nil {
					return err
				}
				field := numeric.Variable{Name: out.PortName(p.Num()), Type: dt}
				q.Add("%s->%s = %s;", structVar, field.CName(im), e.Text)
			}
		}
	}

	return nil
}

// inputArgs renders the compute-function input parameter list from the
// input master's connected ports.
func inputArgs(d *core.Design) []string {
	var out []string
	in := d.InputMaster()
	for _, p := range in.OutputPorts() {
		if !p.Connected() {
			continue
		}
		dt := p.Arcs()[0].DataType()
		v := numeric.NewVariable(in.PortName(p.Num()), dt, nil)
		decl := fmt.Sprintf("const %s %s", dt.CTypeName(), v.CName(false))
		if dt.IsVector() {
			decl += fmt.Sprintf("[%d]", dt.NumElements())
		}
		out = append(out, decl)
		if dt.Complex {
			declIm := fmt.Sprintf("const %s %s", dt.CTypeName(), v.CName(true))
			if dt.IsVector() {
				declIm += fmt.Sprintf("[%d]", dt.NumElements())
			}
			out = append(out, declIm)
		}
	}

	return out
}

// outputStructDef renders the typedef of the design's output struct.
func outputStructDef(d *core.Design, designName string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "typedef struct {\n")
	out := d.OutputMaster()
	for _, p := range out.InputPorts() {
		if !p.Connected() {
			continue
		}
		dt := p.Arcs()[0].DataType()
		v := numeric.NewVariable(out.PortName(p.Num()), dt, nil)
		fmt.Fprintf(&sb, "    %s;\n", v.CDecl(false, true, false))
		if dt.Complex {
			fmt.Fprintf(&sb, "    %s;\n", v.CDecl(true, true, false))
		}
	}
	fmt.Fprintf(&sb, "} %sOutputType;", designName)

	return sb.String()
}

// fileHeader renders the common prologue of an emitted C file.
func fileHeader(includes ...string) string {
	var sb strings.Builder
	sb.WriteString("#include <stdint.h>\n#include <stdbool.h>\n")
	for _, inc := range includes {
		fmt.Fprintf(&sb, "#include %s\n", inc)
	}

	return sb.String()
}
