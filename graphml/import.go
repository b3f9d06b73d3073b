package graphml

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// Import parses a GraphML document in the given dialect into a Design.
func Import(text string, dialect Dialect) (*core.Design, error) {
	var doc xmlGraphML
	if err := xml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(doc.Graph) == 0 {
		return nil, fmt.Errorf("%w: no graph element", ErrParse)
	}
	imp := &importer{
		design:  core.NewDesign(),
		dialect: dialect,
		byID:    make(map[string]core.Node),
	}
	if err := imp.importGraph(doc.Graph[0], nil); err != nil {
		return nil, err
	}
	for _, g := range doc.Graph {
		if err := imp.importEdges(g); err != nil {
			return nil, err
		}
	}
	imp.design.AssignNodeIDs()
	imp.design.AssignArcIDs()

	return imp.design, nil
}

type importer struct {
	design  *core.Design
	dialect Dialect
	byID    map[string]core.Node
}

// dataMap flattens the data entries of a node or edge.
func dataMap(data []xmlData) map[string]string {
	out := make(map[string]string, len(data))
	for _, d := range data {
		out[d.Key] = strings.TrimSpace(d.Value)
	}

	return out
}

// leafID translates a string path ID to the integer leaf ID.
func leafID(id string) (int, error) {
	parts := strings.FieldsFunc(id, func(r rune) bool { return r == ':' || r == '/' })
	if len(parts) == 0 {
		return 0, fmt.Errorf("%w: empty node id", ErrParse)
	}
	leaf := strings.TrimPrefix(parts[len(parts)-1], "n")
	v, err := strconv.Atoi(leaf)
	if err != nil {
		return 0, fmt.Errorf("%w: node id %q", ErrParse, id)
	}

	return v, nil
}

// importGraph walks one graph element, creating nodes under parent.
func (imp *importer) importGraph(g xmlGraph, parent *core.Subsystem) error {
	for _, xn := range g.Nodes {
		n, err := imp.importNode(xn, parent)
		if err != nil {
			return err
		}
		if n == nil {
			continue
		}
		for _, childGraph := range xn.Graph {
			sub := subsystemOf(n)
			if sub == nil {
				return fmt.Errorf("%w: node %q has a nested graph but is not a subsystem", ErrParse, xn.ID)
			}
			if err := imp.importGraph(childGraph, sub); err != nil {
				return err
			}
		}
	}

	return nil
}

// subsystemOf unwraps the embedded subsystem of any container variant.
func subsystemOf(n core.Node) *core.Subsystem {
	switch v := n.(type) {
	case *core.Subsystem:
		return v
	case *nodes.EnabledSubsystem:
		return &v.Subsystem
	case *core.ExpandedNode:
		return &v.Subsystem
	default:
		return nil
	}
}

// importNode creates one node from its data entries.
func (imp *importer) importNode(xn xmlNode, parent *core.Subsystem) (core.Node, error) {
	data := dataMap(xn.Data)
	id, err := leafID(xn.ID)
	if err != nil {
		return nil, err
	}
	name := data["instance_name"]
	if name == "" {
		name = xn.ID
	}
	kind := data["block_node_type"]

	var n core.Node
	switch kind {
	case "Master":
		n = imp.masterByName(name)
		if n == nil {
			return nil, fmt.Errorf("%w: unknown master %q", ErrParse, name)
		}
		imp.byID[xn.ID] = n

		return n, nil
	case "Subsystem":
		n = core.NewSubsystem(name, parent)
	case "Enabled Subsystem":
		n = nodes.NewEnabledSubsystem(name, parent)
	case "Expanded":
		sub := core.NewSubsystem(name, parent)
		n = sub
	case "Special Input Port":
		n = nodes.NewEnableInput(name, parent)
	case "Special Output Port":
		n = nodes.NewEnableOutput(name, parent)
	case "VectorFan":
		// fan-in/fan-out shims carry no behavior of their own
		n = core.NewSubsystem(name, parent)
	case "Standard", "":
		n, err = imp.standardNode(data, name, parent)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown block_node_type %q", ErrParse, kind)
	}
	n.SetID(id)
	if p, ok := data["block_partition_num"]; ok {
		if v, perr := strconv.Atoi(p); perr == nil {
			n.SetPartition(v)
		}
	}
	imp.design.AddNode(n)
	if parent != nil {
		imp.design.ReparentNode(n, parent)
	}
	imp.byID[xn.ID] = n

	return n, nil
}

// masterByName resolves the five sentinels.
func (imp *importer) masterByName(name string) core.Node {
	d := imp.design
	switch {
	case strings.Contains(name, "Input"):
		return d.InputMaster()
	case strings.Contains(name, "Visualization"), strings.Contains(name, "Vis"):
		return d.VisMaster()
	case strings.Contains(name, "Terminator"):
		return d.TerminatorMaster()
	case strings.Contains(name, "Unconnected"):
		return d.UnconnectedMaster()
	case strings.Contains(name, "Output"):
		return d.OutputMaster()
	default:
		return nil
	}
}

// standardNode builds a primitive from its block_function.
func (imp *importer) standardNode(data map[string]string, name string, parent *core.Subsystem) (core.Node, error) {
	fn := data["block_function"]
	switch fn {
	case "Sum", "Add", "Subtract":
		signs, err := nodes.ParseSignString(defaultStr(data["InputSigns"], "++"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		return nodes.NewSum(name, parent, signs), nil
	case "Product", "Multiply", "Divide":
		ops, err := nodes.ParseOpString(defaultStr(data["Inputs"], "**"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		return nodes.NewProduct(name, parent, ops), nil
	case "Delay":
		length, err := strconv.Atoi(defaultStr(data["DelayLength"], "1"))
		if err != nil {
			return nil, fmt.Errorf("%w: delay length %q", ErrParse, data["DelayLength"])
		}
		init, err := numeric.ParseNumericLiterals(defaultStr(data["InitialCondition"], "0"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		return nodes.NewDelay(name, parent, length, init), nil
	case "Constant":
		vals, err := numeric.ParseNumericLiterals(defaultStr(data["Value"], "0"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		dt := numeric.NewDataType(false, true, false, 64, 0, nil)
		if s, ok := data["DataTypeStr"]; ok {
			if parsed, derr := numeric.ParseDataTypeString(s); derr == nil {
				dt = parsed
			}
		}
		if len(vals) > 1 {
			dt.Dimensions = []int{len(vals)}
		}

		return nodes.NewConstant(name, parent, vals, dt), nil
	case "Compare", "Compare To Constant", "RelationalOperator":
		op, err := nodes.ParseCompareOp(defaultStr(data["CompareOp"], "<"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		return nodes.NewCompare(name, parent, op), nil
	case "Mux", "Multiport Switch":
		n, err := strconv.Atoi(defaultStr(data["NumDataPorts"], "2"))
		if err != nil || n < 2 {
			return nil, fmt.Errorf("%w: mux data ports %q", ErrParse, data["NumDataPorts"])
		}

		return nodes.NewMux(name, parent, n), nil
	case "LUT", "Lookup Table", "1-D Lookup Table":
		return importLUT(data, name, parent)
	case "TappedDelay":
		length, err := strconv.Atoi(defaultStr(data["DelayLength"], "1"))
		if err != nil {
			return nil, fmt.Errorf("%w: tapped delay length %q", ErrParse, data["DelayLength"])
		}
		init, err := numeric.ParseNumericLiterals(defaultStr(data["InitialCondition"], "0"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		return nodes.NewTappedDelay(name, parent, length, init, data["IncludeCurrent"] == "true"), nil
	default:
		return nil, fmt.Errorf("%w: unknown block_function %q", ErrParse, fn)
	}
}

// importLUT parses the table parameters.
func importLUT(data map[string]string, name string, parent *core.Subsystem) (core.Node, error) {
	bp, err := numeric.ParseNumericLiterals(data["BreakpointsForDimension1"])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	td, err := numeric.ParseNumericLiterals(data["TableData"])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	interp := nodes.InterpFlat
	if v, ok := data["InterpMethod"]; ok {
		if i, cerr := strconv.Atoi(v); cerr == nil {
			interp = nodes.InterpMethod(i)
		} else if m, perr := nodes.ParseInterpMethod(v); perr == nil {
			interp = m
		}
	}
	extrap := nodes.ExtrapNoCheck
	if v, ok := data["ExtrapMethod"]; ok {
		if i, cerr := strconv.Atoi(v); cerr == nil {
			extrap = nodes.ExtrapMethod(i)
		} else if m, perr := nodes.ParseExtrapMethod(v); perr == nil {
			extrap = m
		}
	}
	search := nodes.SearchEvenlySpaced
	if v, ok := data["SearchMethod"]; ok {
		if i, cerr := strconv.Atoi(v); cerr == nil {
			search = nodes.SearchMethod(i)
		} else if m, perr := nodes.ParseSearchMethod(v); perr == nil {
			search = m
		}
	}

	return nodes.NewLUT(name, parent, bp, td, interp, extrap, search), nil
}

// importEdges resolves every edge of a graph (and its nested graphs).
func (imp *importer) importEdges(g xmlGraph) error {
	for _, xe := range g.Edges {
		if err := imp.importEdge(xe); err != nil {
			return err
		}
	}
	for _, xn := range g.Nodes {
		for _, child := range xn.Graph {
			if err := imp.importEdges(child); err != nil {
				return err
			}
		}
	}

	return nil
}

// importEdge resolves one arc.
func (imp *importer) importEdge(xe xmlEdge) error {
	src, ok := imp.byID[xe.Source]
	if !ok {
		return fmt.Errorf("%w: edge %q references unknown source %q", ErrParse, xe.ID, xe.Source)
	}
	dst, ok := imp.byID[xe.Target]
	if !ok {
		return fmt.Errorf("%w: edge %q references unknown target %q", ErrParse, xe.ID, xe.Target)
	}
	data := dataMap(xe.Data)

	srcPortNum, _ := strconv.Atoi(defaultStr(data["arc_src_port"], "0"))
	dstPortNum, _ := strconv.Atoi(defaultStr(data["arc_dst_port"], "0"))

	dt := numeric.NewDataType(false, true, false, 64, 0, nil)
	if s, ok := data["arc_datatype"]; ok && s != "" {
		parsed, err := numeric.ParseDataTypeString(s)
		if err != nil {
			return err
		}
		dt = parsed
	}
	if w, ok := data["arc_width"]; ok {
		if width, err := strconv.Atoi(w); err == nil && width > 1 {
			dt.Dimensions = []int{width}
		}
	}
	if data["arc_complex"] == "true" {
		dt.Complex = true
	}
	sampleTime := -1.0
	if st, ok := data["arc_sample_time"]; ok {
		if v, err := strconv.ParseFloat(st, 64); err == nil {
			sampleTime = v
		}
	}

	var dstPort *core.Port
	switch data["arc_dst_port_type"] {
	case "Enable", "enable":
		dstPort = dst.EnablePort()
	case "OrderConstraintIn":
		dstPort = dst.OrderConstraintInPort()
	default:
		dstPort = dst.InputPort(dstPortNum)
	}
	var srcPort *core.Port
	if data["arc_src_port_type"] == "OrderConstraintOut" {
		srcPort = src.OrderConstraintOutPort()
	} else {
		srcPort = src.OutputPort(srcPortNum)
	}

	arc := core.NewArc(srcPort, dstPort, dt, sampleTime)
	if id, err := leafID(strings.TrimPrefix(xe.ID, "e")); err == nil {
		arc.SetID(id)
	}
	imp.design.AddArc(arc)

	return nil
}

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}

	return v
}
