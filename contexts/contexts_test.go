package contexts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucb-cyarp/vitis-sub000/contexts"
	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

func boolScalar() numeric.DataType {
	return numeric.NewDataType(false, false, false, 1, 0, nil)
}

func int16Scalar() numeric.DataType {
	return numeric.NewDataType(false, true, false, 16, 0, nil)
}

// buildEnabledFixture builds an enabled subsystem with interior sums
// fanned from a single Compare enable driver, per-partition as given.
func buildEnabledFixture(t *testing.T, interior int, partitions []int) (*core.Design, *nodes.EnabledSubsystem, *nodes.Compare) {
	t.Helper()
	d := core.NewDesign()
	dt := int16Scalar()

	cmp := nodes.NewCompare("cmp", nil, nodes.CompareGT)
	d.AddNode(cmp)
	cmp.SetPartition(0)
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(0), cmp.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(1), cmp.InputPort(1), dt, -1))

	es := nodes.NewEnabledSubsystem("en", nil)
	d.AddNode(es)
	d.AddArc(core.NewArc(cmp.OutputPort(0), es.EnablePort(), boolScalar(), -1))

	for i := 0; i < interior; i++ {
		ei := nodes.NewEnableInput("ei", nil)
		ei.SetPartition(partitions[i%len(partitions)])
		d.AddNode(ei)
		d.ReparentNode(ei, &es.Subsystem)
		d.AddArc(core.NewArc(cmp.OutputPort(0), ei.EnablePort(), boolScalar(), -1))
		d.AddArc(core.NewArc(d.InputMaster().OutputPort(2), ei.InputPort(0), dt, -1))

		s := nodes.NewSum("s", nil, []bool{true, true})
		s.SetPartition(partitions[i%len(partitions)])
		d.AddNode(s)
		d.ReparentNode(s, &es.Subsystem)
		d.AddArc(core.NewArc(ei.OutputPort(0), s.InputPort(0), dt, -1))
		d.AddArc(core.NewArc(ei.OutputPort(0), s.InputPort(1), dt, -1))
		d.AddArc(core.NewArc(s.OutputPort(0), d.TerminatorMaster().InputPort(0), dt, -1))
	}
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return d, es, cmp
}

// TestDiscover_EnabledSubsystem checks every interior node carries the
// enabled subsystem in its context stack, with the Compare as driver.
func TestDiscover_EnabledSubsystem(t *testing.T) {
	d, es, cmp := buildEnabledFixture(t, 15, []int{0})
	contexts.DiscoverAndMarkContexts(d)

	interior := 0
	for _, n := range d.Nodes() {
		if n.Parent() == nil || n.Parent().Owner() != core.Node(es) {
			continue
		}
		interior++
		stack := n.Contexts()
		require.NotEmpty(t, stack, "node %s has no context", n.Name())
		assert.Equal(t, core.Node(es), core.Node(stack[0].Root))
	}
	assert.Equal(t, 30, interior) // 15 enable inputs + 15 sums

	// the decision driver is the Compare
	drivers := es.ContextDecisionDriverArcs()
	require.NotEmpty(t, drivers)
	assert.Equal(t, core.Node(cmp), drivers[0].SrcNode())
}

// TestReplicateDrivers_PerPartition checks the driver is cloned once
// per partition that contains part of the context (scenario: two
// partitions, driver in partition 0).
func TestReplicateDrivers_PerPartition(t *testing.T) {
	d, es, cmp := buildEnabledFixture(t, 4, []int{0, 1})
	contexts.DiscoverAndMarkContexts(d)
	es.SetReplicateDrivers(true)

	replicas := contexts.ReplicateContextDrivers(d)
	require.Contains(t, replicas, core.ContextRoot(es))
	byPart := replicas[es]
	require.Len(t, byPart, 1, "only partition 1 lacks the driver")
	replica, ok := byPart[1]
	require.True(t, ok)
	assert.Equal(t, 1, replica.Partition())
	assert.Equal(t, cmp.TypeName(), replica.TypeName())

	// the replica shares the original driver's sources
	srcs := map[core.Node]bool{}
	for _, p := range replica.InputPorts() {
		for _, a := range p.Arcs() {
			srcs[a.SrcNode()] = true
		}
	}
	assert.True(t, srcs[core.Node(d.InputMaster())])
	assert.NoError(t, d.ValidateNodes())
}

// TestEncapsulate_FamilyPerPartition checks a family container exists
// per (root, partition) and nodes were re-homed under their subcontext
// container, keeping stacks consistent with the parent chain.
func TestEncapsulate_FamilyPerPartition(t *testing.T) {
	d, es, _ := buildEnabledFixture(t, 4, []int{0, 1})
	contexts.DiscoverAndMarkContexts(d)

	families := contexts.EncapsulateContexts(d)
	require.Len(t, families, 2)

	for _, part := range []int{0, 1} {
		fc := es.FamilyContainer(part)
		require.NotNil(t, fc, "no family container for partition %d", part)
		family, ok := fc.(*nodes.ContextFamilyContainer)
		require.True(t, ok)
		require.Len(t, family.SubContainers(), 1)
		container := family.SubContainers()[0]
		for _, child := range container.Children() {
			assert.Equal(t, part, child.Partition())
			stack := child.Contexts()
			require.NotEmpty(t, stack)
			assert.Equal(t, core.Node(es), core.Node(stack[0].Root))
		}
		assert.NotZero(t, container.ChildCount())
	}
}

// TestMuxConeDiscovery checks a chain feeding exactly one mux data port
// joins that subcontext, while shared or stateful nodes stay out.
func TestMuxConeDiscovery(t *testing.T) {
	d := core.NewDesign()
	dt := int16Scalar()
	sel := numeric.NewDataType(false, false, false, 8, 0, nil)

	m := nodes.NewMux("m", nil, 2)
	d.AddNode(m)
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(0), m.SelectorPort(), sel, -1))

	// cone for data port 0: a sum consumed only by the mux
	cone := nodes.NewSum("cone", nil, []bool{true, true})
	d.AddNode(cone)
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(1), cone.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(2), cone.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(cone.OutputPort(0), m.DataPort(0), dt, -1))

	// shared: feeds the mux AND the output master, so it stays outside
	shared := nodes.NewSum("shared", nil, []bool{true, true})
	d.AddNode(shared)
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(3), shared.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(d.InputMaster().OutputPort(4), shared.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(shared.OutputPort(0), m.DataPort(1), dt, -1))
	d.AddArc(core.NewArc(shared.OutputPort(0), d.OutputMaster().InputPort(0), dt, -1))

	d.AddArc(core.NewArc(m.OutputPort(0), d.OutputMaster().InputPort(1), dt, -1))
	d.AssignNodeIDs()
	d.AssignArcIDs()

	contexts.DiscoverAndMarkContexts(d)

	require.Len(t, m.NodesInSubContext(0), 1)
	assert.Equal(t, "cone", m.NodesInSubContext(0)[0].Name())
	assert.Empty(t, m.NodesInSubContext(1))

	stack := coneStack(d, "cone")
	require.Len(t, stack, 1)
	assert.Equal(t, core.Node(m), core.Node(stack[0].Root))
	assert.Equal(t, 0, stack[0].SubContext)
}

func coneStack(d *core.Design, name string) []core.Context {
	for _, n := range d.Nodes() {
		if n.Name() == name {
			return n.Contexts()
		}
	}

	return nil
}
