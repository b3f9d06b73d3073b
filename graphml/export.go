package graphml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/emit"
)

// ErrParse indicates a malformed input graph or an unknown attribute
// value.
var ErrParse = errors.New("graphml: parse error")

// Dialect names the supported GraphML dialects.
type Dialect int

const (
	// DialectVitis is the native dialect written by Export.
	DialectVitis Dialect = iota
	// DialectSimulinkExport is the external modeling tool's dialect.
	DialectSimulinkExport
)

// xml document model shared by import and export.
type xmlGraphML struct {
	XMLName xml.Name   `xml:"graphml"`
	Keys    []xmlKey   `xml:"key"`
	Graph   []xmlGraph `xml:"graph"`
}

type xmlKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type xmlGraph struct {
	ID          string    `xml:"id,attr"`
	EdgeDefault string    `xml:"edgedefault,attr"`
	Nodes       []xmlNode `xml:"node"`
	Edges       []xmlEdge `xml:"edge"`
}

type xmlNode struct {
	ID    string     `xml:"id,attr"`
	Data  []xmlData  `xml:"data"`
	Graph []xmlGraph `xml:"graph"`
}

type xmlEdge struct {
	ID     string    `xml:"id,attr"`
	Source string    `xml:"source,attr"`
	Target string    `xml:"target,attr"`
	Data   []xmlData `xml:"data"`
}

type xmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// Export writes the design as GraphML with nested graphs per
// subsystem.
func Export(d *core.Design) (string, error) {
	root := xmlGraph{ID: "G", EdgeDefault: "directed"}

	// masters first, then the hierarchy
	for _, m := range d.MasterNodes() {
		root.Nodes = append(root.Nodes, exportNode(m))
	}
	for _, n := range d.TopLevelNodes() {
		root.Nodes = append(root.Nodes, exportNode(n))
	}
	arcs := d.Arcs()
	sort.SliceStable(arcs, func(i, j int) bool { return arcs[i].ID() < arcs[j].ID() })
	for _, a := range arcs {
		if a.SrcNode() == nil || a.DstNode() == nil {
			continue
		}
		e := xmlEdge{
			ID:     fmt.Sprintf("e%d", a.ID()),
			Source: fmt.Sprintf("n%d", a.SrcNode().ID()),
			Target: fmt.Sprintf("n%d", a.DstNode().ID()),
			Data: []xmlData{
				{Key: "arc_src_port", Value: fmt.Sprintf("%d", a.SrcPort().Num())},
				{Key: "arc_dst_port", Value: fmt.Sprintf("%d", a.DstPort().Num())},
				{Key: "arc_src_port_type", Value: a.SrcPort().Kind().String()},
				{Key: "arc_dst_port_type", Value: a.DstPort().Kind().String()},
				{Key: "arc_datatype", Value: a.DataType().String()},
				{Key: "arc_complex", Value: fmt.Sprintf("%t", a.DataType().Complex)},
				{Key: "arc_width", Value: fmt.Sprintf("%d", a.DataType().NumElements())},
				{Key: "arc_sample_time", Value: fmt.Sprintf("%g", a.SampleTime())},
			},
		}
		root.Edges = append(root.Edges, e)
	}

	doc := xmlGraphML{
		Keys: []xmlKey{
			{ID: "block_node_type", For: "node", AttrName: "block_node_type", AttrType: "string"},
			{ID: "block_function", For: "node", AttrName: "block_function", AttrType: "string"},
			{ID: "instance_name", For: "node", AttrName: "instance_name", AttrType: "string"},
			{ID: "block_partition_num", For: "node", AttrName: "block_partition_num", AttrType: "int"},
			{ID: "block_sched_order", For: "node", AttrName: "block_sched_order", AttrType: "int"},
		},
		Graph: []xmlGraph{root},
	}
	body, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	return xml.Header + string(body), nil
}

// exportNode renders one node (recursively for subsystems).
func exportNode(n core.Node) xmlNode {
	x := xmlNode{ID: fmt.Sprintf("n%d", n.ID())}
	x.Data = append(x.Data,
		xmlData{Key: "block_node_type", Value: blockNodeType(n)},
		xmlData{Key: "instance_name", Value: n.Name()},
		xmlData{Key: "block_partition_num", Value: fmt.Sprintf("%d", n.Partition())},
		xmlData{Key: "block_sched_order", Value: fmt.Sprintf("%d", n.SchedOrder())},
	)
	if bt := blockNodeType(n); bt == "Standard" {
		x.Data = append(x.Data, xmlData{Key: "block_function", Value: n.TypeName()})
	}
	for _, p := range n.GraphMLParameters() {
		x.Data = append(x.Data, xmlData{Key: p.Key, Value: p.Value})
	}
	if sub, ok := n.(interface{ Children() []core.Node }); ok {
		child := xmlGraph{ID: fmt.Sprintf("n%d:", n.ID()), EdgeDefault: "directed"}
		for _, c := range sub.Children() {
			child.Nodes = append(child.Nodes, exportNode(c))
		}
		if len(child.Nodes) > 0 {
			x.Graph = append(x.Graph, child)
		}
	}

	return x
}

// blockNodeType maps a node variant to the exchange-format kind.
func blockNodeType(n core.Node) string {
	switch n.TypeName() {
	case "Subsystem":
		return "Subsystem"
	case "Enabled Subsystem":
		return "Enabled Subsystem"
	case "Expanded":
		return "Expanded"
	case "Master Input", "Master Output", "Master Unconnected":
		return "Master"
	case "Enable Input":
		return "Special Input Port"
	case "Enable Output":
		return "Special Output Port"
	default:
		return "Standard"
	}
}

// DumpLevel selects which checkpoints the dumper writes.
type DumpLevel int

const (
	// DumpNone disables checkpoint artifacts.
	DumpNone DumpLevel = iota
	// DumpKey writes the pre/post blocking and post-scheduling graphs.
	DumpKey
	// DumpAll additionally writes the communication graphs.
	DumpAll
)

// Checkpoint names the dump points of the pipeline.
type Checkpoint string

const (
	CheckpointPreBlocking   Checkpoint = "preBlocking"
	CheckpointPostBlocking  Checkpoint = "postBlocking"
	CheckpointPostSchedule  Checkpoint = "postSchedule"
	CheckpointCommunication Checkpoint = "communicationGraph"
	CheckpointCommInitCond  Checkpoint = "communicationInitCondGraph"
)

// keyCheckpoints are written at DumpKey.
var keyCheckpoints = map[Checkpoint]bool{
	CheckpointPreBlocking:  true,
	CheckpointPostBlocking: true,
	CheckpointPostSchedule: true,
}

// Dumper writes checkpoint artifacts through an emit sink.
type Dumper struct {
	Sink       emit.Sink
	DesignName string
	Level      DumpLevel
}

// Dump writes the design at a checkpoint when the level selects it.
func (du *Dumper) Dump(d *core.Design, cp Checkpoint) error {
	if du == nil || du.Sink == nil || du.Level == DumpNone {
		return nil
	}
	if du.Level == DumpKey && !keyCheckpoints[cp] {
		return nil
	}
	body, err := Export(d)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%s_%s.graphml", du.DesignName, string(cp))

	return du.Sink.WriteFile(name, body)
}

// DumpResidual writes the scheduler's residual graph artifact, named
// after the design.
func (du *Dumper) DumpResidual(residual *core.Design) {
	if du == nil || du.Sink == nil {
		return
	}
	if body, err := Export(residual); err == nil {
		_ = du.Sink.WriteFile(du.DesignName+"_schedGraph.graphml", body)
	}
}

// sanity check that the dialect spellings stay stable for drivers
func (dl Dialect) String() string {
	if dl == DialectSimulinkExport {
		return "simulink-export"
	}

	return "vitis"
}

// ParseDialect converts the driver flag string.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "vitis":
		return DialectVitis, nil
	case "simulink-export", "simulink":
		return DialectSimulinkExport, nil
	default:
		return 0, fmt.Errorf("%w: unknown dialect %q", ErrParse, s)
	}
}
