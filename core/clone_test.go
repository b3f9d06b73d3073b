package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucb-cyarp/vitis-sub000/core"
)

// buildCloneFixture creates a small hierarchical design with a feedback
// arc for clone testing.
func buildCloneFixture() (*core.Design, []core.Node, []*core.Arc) {
	d := core.NewDesign()
	sub := core.NewSubsystem("sub", nil)
	d.AddNode(sub)
	a := newStub("a", nil)
	d.AddNode(a)
	d.ReparentNode(a, sub)
	b := newStub("b", nil)
	d.AddNode(b)

	fwd := core.NewArc(a.OutputPort(0), b.InputPort(0), scalarInt16(), -1)
	back := core.NewArc(b.OutputPort(0), a.InputPort(0), scalarInt16(), -1)
	d.AddArc(fwd)
	d.AddArc(back)
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return d, []core.Node{sub, a, b}, []*core.Arc{fwd, back}
}

// TestCopyGraph_MapsAreInverse checks the clone maps are mutual inverses
// on every node and arc.
func TestCopyGraph_MapsAreInverse(t *testing.T) {
	d, nodes, arcs := buildCloneFixture()
	clone, maps, err := d.CopyGraph()
	require.NoError(t, err)

	for _, n := range nodes {
		c, ok := maps.NodeToCopy[n]
		require.True(t, ok, "missing clone of %s", n.Name())
		assert.Equal(t, n, maps.CopyToNode[c])
		assert.NotSame(t, n, c)
		assert.Equal(t, n.ID(), c.ID())
		assert.Equal(t, n.Name(), c.Name())
	}
	for _, a := range arcs {
		ca, ok := maps.ArcToCopy[a]
		require.True(t, ok)
		assert.Equal(t, a, maps.CopyToArc[ca])
		assert.Equal(t, a.ID(), ca.ID())
	}
	assert.Len(t, clone.Nodes(), len(nodes))
	assert.Len(t, clone.Arcs(), len(arcs))
}

// TestCopyGraph_TopologyPreserved checks ports and hierarchy carry over
// and the clone validates iff the original did.
func TestCopyGraph_TopologyPreserved(t *testing.T) {
	d, _, _ := buildCloneFixture()
	require.NoError(t, d.ValidateNodes())

	clone, maps, err := d.CopyGraph()
	require.NoError(t, err)
	require.NoError(t, clone.ValidateNodes())

	got, err := clone.NodeByNamePath([]string{"sub", "a"})
	require.NoError(t, err)
	assert.Equal(t, "sub/a", got.FullyQualifiedName())

	// feedback edge survives: a drives b, b drives a, all inside the clone
	arcOut, err := got.OutputPort(0).SoleArc()
	require.NoError(t, err)
	dstOrig := maps.CopyToNode[arcOut.DstNode()]
	assert.Equal(t, "b", dstOrig.Name())
	arcIn, err := got.InputPort(0).SoleArc()
	require.NoError(t, err)
	assert.Equal(t, "b", arcIn.SrcNode().Name())
}

// TestCopyGraph_MutationIsolation checks mutating the clone leaves the
// original untouched.
func TestCopyGraph_MutationIsolation(t *testing.T) {
	d, _, _ := buildCloneFixture()
	origArcs := len(d.Arcs())

	clone, _, err := d.CopyGraph()
	require.NoError(t, err)
	for _, a := range clone.Arcs() {
		clone.RemoveArc(a)
	}
	assert.Empty(t, clone.Arcs())
	assert.Len(t, d.Arcs(), origArcs)
	assert.NoError(t, d.ValidateNodes())
}
