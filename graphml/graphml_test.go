package graphml_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/emit"
	"github.com/ucb-cyarp/vitis-sub000/graphml"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

func int16Scalar() numeric.DataType {
	return numeric.NewDataType(false, true, false, 16, 0, nil)
}

// buildRoundTripDesign builds a small hierarchical design.
func buildRoundTripDesign(t *testing.T) *core.Design {
	t.Helper()
	d := core.NewDesign()
	dt := int16Scalar()
	sub := core.NewSubsystem("outer", nil)
	d.AddNode(sub)
	sum := nodes.NewSum("adder", nil, []bool{true, false})
	d.AddNode(sum)
	d.ReparentNode(sum, sub)
	delay := nodes.NewDelay("dl", nil, 2, []numeric.NumericValue{numeric.NewIntValue(1), numeric.NewIntValue(2)})
	d.AddNode(delay)
	in := d.InputMaster()
	d.AddArc(core.NewArc(in.OutputPort(0), sum.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(in.OutputPort(1), sum.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(sum.OutputPort(0), delay.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(delay.OutputPort(0), d.OutputMaster().InputPort(0), dt, -1))
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return d
}

// TestExport_Shape checks the document structure and attributes.
func TestExport_Shape(t *testing.T) {
	d := buildRoundTripDesign(t)
	body, err := graphml.Export(d)
	require.NoError(t, err)

	assert.Contains(t, body, "<graphml>")
	assert.Contains(t, body, "block_node_type")
	assert.Contains(t, body, "Subsystem")
	assert.Contains(t, body, "instance_name")
	assert.Contains(t, body, "arc_datatype")
	assert.Contains(t, body, "int16")
}

// TestImport_RoundTrip checks Import(Export(d)) preserves the design
// up to ID relabeling: node count, arc count, hierarchy, and types.
func TestImport_RoundTrip(t *testing.T) {
	d := buildRoundTripDesign(t)
	body, err := graphml.Export(d)
	require.NoError(t, err)

	d2, err := graphml.Import(body, graphml.DialectVitis)
	require.NoError(t, err)

	assert.Len(t, d2.Nodes(), len(d.Nodes()))
	assert.Len(t, d2.Arcs(), len(d.Arcs()))

	adder, err := d2.NodeByNamePath([]string{"outer", "adder"})
	require.NoError(t, err)
	assert.Equal(t, "Sum", adder.TypeName())
	sum := adder.(*nodes.Sum)
	assert.Equal(t, []bool{true, false}, sum.Signs())

	dl, err := d2.NodeByNamePath([]string{"dl"})
	require.NoError(t, err)
	delay := dl.(*nodes.Delay)
	assert.Equal(t, 2, delay.DelayValue())
	require.Len(t, delay.InitCondition(), 2)
	assert.Equal(t, int64(1), delay.InitCondition()[0].Int64())

	// second round trip is stable
	body2, err := graphml.Export(d2)
	require.NoError(t, err)
	d3, err := graphml.Import(body2, graphml.DialectVitis)
	require.NoError(t, err)
	assert.Len(t, d3.Nodes(), len(d2.Nodes()))
	assert.Len(t, d3.Arcs(), len(d2.Arcs()))
	require.NoError(t, d3.ValidateNodes())
}

// TestImport_UnknownFunction rejects unknown block functions.
func TestImport_UnknownFunction(t *testing.T) {
	text := `<?xml version="1.0" encoding="UTF-8"?>
<graphml><graph id="G" edgedefault="directed">
<node id="n7"><data key="block_node_type">Standard</data>
<data key="block_function">FluxCapacitor</data>
<data key="instance_name">f</data></node>
</graph></graphml>`
	_, err := graphml.Import(text, graphml.DialectSimulinkExport)
	assert.ErrorIs(t, err, graphml.ErrParse)
}

// TestImport_PathIDs checks string path IDs translate to leaf integers.
func TestImport_PathIDs(t *testing.T) {
	text := `<?xml version="1.0" encoding="UTF-8"?>
<graphml><graph id="G" edgedefault="directed">
<node id="n1::n12"><data key="block_node_type">Standard</data>
<data key="block_function">Delay</data>
<data key="DelayLength">1</data>
<data key="InitialCondition">0</data>
<data key="instance_name">deep</data></node>
</graph></graphml>`
	d, err := graphml.Import(text, graphml.DialectSimulinkExport)
	require.NoError(t, err)
	n, err := d.NodeByNamePath([]string{"deep"})
	require.NoError(t, err)
	assert.Equal(t, 12, n.ID())
}

// TestDumper_Levels checks checkpoint selection per dump level.
func TestDumper_Levels(t *testing.T) {
	d := buildRoundTripDesign(t)
	sink := emit.NewMemSink()
	du := &graphml.Dumper{Sink: sink, DesignName: "acc", Level: graphml.DumpKey}

	require.NoError(t, du.Dump(d, graphml.CheckpointPreBlocking))
	require.NoError(t, du.Dump(d, graphml.CheckpointCommunication))
	assert.Contains(t, sink.Files, "acc_preBlocking.graphml")
	assert.NotContains(t, sink.Files, "acc_communicationGraph.graphml")

	du.Level = graphml.DumpAll
	require.NoError(t, du.Dump(d, graphml.CheckpointCommunication))
	assert.Contains(t, sink.Files, "acc_communicationGraph.graphml")

	du.DumpResidual(d)
	assert.Contains(t, sink.Files, "acc_schedGraph.graphml")
}

// TestParseDialect covers the dialect spellings.
func TestParseDialect(t *testing.T) {
	dl, err := graphml.ParseDialect("vitis")
	require.NoError(t, err)
	assert.Equal(t, graphml.DialectVitis, dl)
	dl, err = graphml.ParseDialect("simulink-export")
	require.NoError(t, err)
	assert.Equal(t, graphml.DialectSimulinkExport, dl)
	_, err = graphml.ParseDialect("dot")
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "dialect"))
}
