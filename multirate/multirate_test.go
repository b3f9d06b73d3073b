package multirate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/multirate"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

func int16Scalar() numeric.DataType {
	return numeric.NewDataType(false, true, false, 16, 0, nil)
}

// buildDomainFixture builds a design with one clock domain containing a
// rate-change input placeholder and an interior sum.
func buildDomainFixture(t *testing.T, num, den int) (*core.Design, *nodes.ClockDomain) {
	t.Helper()
	d := core.NewDesign()
	dt := int16Scalar()

	cd := nodes.NewClockDomain("dom", nil)
	d.AddNode(cd)

	rc := nodes.NewRateChange("rcIn", nil, num, den, true)
	d.AddNode(rc)
	d.ReparentNode(rc, &cd.Subsystem)
	inner := nodes.NewSum("inner", nil, []bool{true, true})
	d.AddNode(inner)
	d.ReparentNode(inner, &cd.Subsystem)

	in := d.InputMaster()
	d.AddArc(core.NewArc(in.OutputPort(0), rc.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(rc.OutputPort(0), inner.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(rc.OutputPort(0), inner.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(inner.OutputPort(0), d.TerminatorMaster().InputPort(0), dt, -1))
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return d, cd
}

// TestRediscoverRates checks the domain rate is re-derived from its
// boundary rate-change nodes.
func TestRediscoverRates(t *testing.T) {
	d, cd := buildDomainFixture(t, 1, 4)
	require.NoError(t, multirate.RediscoverRateParameters(d))

	num, den := cd.Rate()
	assert.Equal(t, 1, num)
	assert.Equal(t, 4, den)
	assert.Len(t, cd.RateChangeInputs(), 1)
}

// TestSpecialize_Downsample checks a 1/4 domain specializes into a
// downsample domain with a counter support node, and the generic
// placeholder becomes a concrete implementation.
func TestSpecialize_Downsample(t *testing.T) {
	d, _ := buildDomainFixture(t, 1, 4)
	require.NoError(t, multirate.RediscoverRateParameters(d))

	specialized, err := multirate.SpecializeClockDomains(d)
	require.NoError(t, err)
	require.Len(t, specialized, 1)
	ds, ok := specialized[0].(*nodes.DownsampleClockDomain)
	require.True(t, ok, "expected a downsample domain, got %s", specialized[0].TypeName())

	created := multirate.CreateClockDomainSupportNodes(d)
	require.Len(t, created, 1)
	counter, ok := created[0].(*nodes.DownsampleCounter)
	require.True(t, ok)
	assert.Equal(t, 4, counter.Modulus())
	assert.Equal(t, counter, ds.Counter())

	// the generic placeholder was replaced
	for _, n := range d.Nodes() {
		_, generic := n.(*nodes.RateChange)
		assert.False(t, generic, "unspecialized rate change %s survived", n.Name())
	}
	assert.NoError(t, d.ValidateNodes())
}

// TestSpecialize_Upsample checks a 3/1 domain specializes into an
// upsample domain requiring contiguous blocking.
func TestSpecialize_Upsample(t *testing.T) {
	d, _ := buildDomainFixture(t, 3, 1)
	require.NoError(t, multirate.RediscoverRateParameters(d))

	specialized, err := multirate.SpecializeClockDomains(d)
	require.NoError(t, err)
	require.Len(t, specialized, 1)
	up, ok := specialized[0].(*nodes.UpsampleClockDomain)
	require.True(t, ok)
	assert.True(t, up.RequiresContiguousBlocking())
}

// TestEffectiveSubBlockingLength checks the rate-chain division rule:
// a node inside a 1/4 domain sees base/4; non-divisible bases are
// flagged non-integral.
func TestEffectiveSubBlockingLength(t *testing.T) {
	d, _ := buildDomainFixture(t, 1, 4)
	require.NoError(t, multirate.RediscoverRateParameters(d))
	inner, err := d.NodeByNamePath([]string{"dom", "inner"})
	require.NoError(t, err)

	eff, integral := multirate.EffectiveSubBlockingLength(inner, 8)
	assert.True(t, integral)
	assert.Equal(t, 2, eff)

	_, integral = multirate.EffectiveSubBlockingLength(inner, 2)
	assert.False(t, integral)
}

// TestValidateRates_OneLevel accepts the single-level fixture and
// assigns master port domains.
func TestValidateRates_OneLevel(t *testing.T) {
	d, _ := buildDomainFixture(t, 1, 4)
	require.NoError(t, multirate.RediscoverRateParameters(d))
	_, err := multirate.SpecializeClockDomains(d)
	require.NoError(t, err)
	multirate.CreateClockDomainSupportNodes(d)

	assert.NoError(t, multirate.ValidateRates(d))
}
