package emit

import (
	"fmt"
	"strings"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
	"github.com/ucb-cyarp/vitis-sub000/sched"
)

// SingleThreadConfig configures the single-threaded emission.
type SingleThreadConfig struct {
	Strategy sched.Strategy
}

// EmitSingleThreaded produces the single-threaded reference path:
// <design>.h with the output struct and prototypes, and <design>.c with
// the state declarations, the reset function, and one flat compute
// function following the configured traversal.
func EmitSingleThreaded(d *core.Design, designName string, sink Sink, cfg SingleThreadConfig) error {
	header := emitSingleThreadHeader(d, designName)
	if err := sink.WriteFile(designName+".h", header); err != nil {
		return err
	}
	body, err := emitSingleThreadBody(d, designName, cfg)
	if err != nil {
		return err
	}

	return sink.WriteFile(designName+".c", body)
}

// emitSingleThreadHeader renders <design>.h.
func emitSingleThreadHeader(d *core.Design, designName string) string {
	var sb strings.Builder
	guard := strings.ToUpper(designName) + "_H"
	fmt.Fprintf(&sb, "#ifndef %s\n#define %s\n\n", guard, guard)
	sb.WriteString(fileHeader())
	sb.WriteString("\n")
	sb.WriteString(outputStructDef(d, designName))
	sb.WriteString("\n\n")
	args := append(inputArgs(d), designName+"OutputType *output")
	fmt.Fprintf(&sb, "void %s(%s);\n", designName, strings.Join(args, ", "))
	fmt.Fprintf(&sb, "void %s_reset(void);\n", designName)
	fmt.Fprintf(&sb, "\n#endif // %s\n", guard)

	return sb.String()
}

// emitSingleThreadBody renders <design>.c.
func emitSingleThreadBody(d *core.Design, designName string, cfg SingleThreadConfig) (string, error) {
	var sb strings.Builder
	sb.WriteString(fileHeader(fmt.Sprintf("%q", designName+".h")))
	sb.WriteString("\n// state\n")
	allNodes := d.Nodes()
	for _, decl := range globalDecls(allNodes) {
		sb.WriteString(decl + "\n")
	}
	stateDecls := stateVarDecls(allNodes)
	for _, decl := range stateDecls {
		sb.WriteString("static " + decl + "\n")
	}
	// shadow const copies of the initial state, used by reset
	for _, n := range allNodes {
		for _, v := range n.StateVariables() {
			shadow := v
			shadow.Name = v.Name + "_initVal"
			sb.WriteString("static const " + shadow.CDecl(false, true, true) + ";\n")
			if v.Type.Complex {
				sb.WriteString("static const " + shadow.CDecl(true, true, true) + ";\n")
			}
		}
	}

	// reset restores every state declaration's initial value
	fmt.Fprintf(&sb, "\nvoid %s_reset(void) {\n", designName)
	for _, n := range allNodes {
		for _, v := range n.StateVariables() {
			for _, im := range components(v.Type) {
				if v.Type.IsScalar() {
					fmt.Fprintf(&sb, "    %s = %s_initVal%s;\n", v.CName(im), v.Name, imSuffix(v, im))
				} else {
					fmt.Fprintf(&sb, "    for (int i = 0; i < %d; i++) { %s[i] = %s_initVal%s[i]; }\n",
						v.Type.NumElements(), v.CName(im), v.Name, imSuffix(v, im))
				}
			}
		}
	}
	sb.WriteString("}\n")

	q := core.NewStmtQueue()
	var err error
	switch cfg.Strategy {
	case sched.StrategyBottomUp:
		err = emitBottomUp(q, d)
	case sched.StrategyTopologicalContext:
		err = emitTopological(q, d, true)
	default:
		err = emitTopological(q, d, false)
	}
	if err != nil {
		return "", err
	}

	args := append(inputArgs(d), designName+"OutputType *output")
	fmt.Fprintf(&sb, "\nvoid %s(%s) {\n", designName, strings.Join(args, ", "))
	for _, stmt := range q.Statements() {
		sb.WriteString(indent(stmt, 1))
	}
	sb.WriteString("}\n")

	return sb.String(), nil
}

// imSuffix mirrors Variable.CName's component suffix for the shadow
// initial-value arrays.
func imSuffix(v numeric.Variable, imag bool) string {
	if imag {
		return "_im"
	}
	if v.Type.Complex {
		return "_re"
	}

	return ""
}

// emitTopological walks the scheduled order, optionally wrapping
// context runs in their guards.
func emitTopological(q *core.StmtQueue, d *core.Design, withContexts bool) error {
	openGuard := ""
	for _, n := range scheduledNodes(d) {
		if core.IsMaster(n) {
			continue
		}
		guard := ""
		if withContexts {
			guard = guardChainFor(n)
		}
		if guard != openGuard {
			if openGuard != "" {
				q.AddRaw("}")
			}
			if guard != "" {
				q.Add("if (%s) {", guard)
			}
			openGuard = guard
		}
		if err := emitNodeStatements(q, n); err != nil {
			return err
		}
	}
	if openGuard != "" {
		q.AddRaw("}")
	}
	if err := outputAssignments(q, d, "output"); err != nil {
		return err
	}

	return emitStateCommits(q, d)
}

// emitBottomUp pulls expressions backwards from the output master;
// expression caching turns the recursion into a valid ordering.
func emitBottomUp(q *core.StmtQueue, d *core.Design) error {
	if err := outputAssignments(q, d, "output"); err != nil {
		return err
	}
	// stateful nodes still need their next-state staging and commits
	for _, n := range d.NodesWithState() {
		if err := n.EmitNextState(q); err != nil {
			return err
		}
	}

	return emitStateCommits(q, d)
}

// emitStateCommits appends the state-update statements of stateful
// nodes that have no explicit StateUpdate node scheduled.
func emitStateCommits(q *core.StmtQueue, d *core.Design) error {
	if hasScheduledStateUpdates(d) {
		return nil
	}
	for _, n := range d.NodesWithState() {
		if err := n.EmitStateUpdate(q, nil); err != nil {
			return err
		}
	}

	return nil
}

// hasScheduledStateUpdates reports whether explicit StateUpdate nodes
// exist in the schedule.
func hasScheduledStateUpdates(d *core.Design) bool {
	for _, n := range d.Nodes() {
		if n.TypeName() == "StateUpdate" && n.SchedOrder() != core.SchedOrderUnscheduled {
			return true
		}
	}

	return false
}

// indent prefixes a statement with 4*level spaces and a newline.
func indent(stmt string, level int) string {
	return strings.Repeat("    ", level) + stmt + "\n"
}
