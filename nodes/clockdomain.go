package nodes

import (
	"fmt"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// ClockDomain is a subsystem-like context root whose interior executes
// at a rational multiple (num/den) of the enclosing domain's rate.
// Rate-change nodes live at its boundary. After the specialization pass
// every clock domain is an UpsampleClockDomain (den == 1) or a
// DownsampleClockDomain (num == 1).
type ClockDomain struct {
	core.Subsystem
	core.SubContextRegistry

	rateNum int
	rateDen int

	rcInputs  []core.Node
	rcOutputs []core.Node
}

// NewClockDomain constructs an unspecialized clock domain.
func NewClockDomain(name string, parent *core.Subsystem) *ClockDomain {
	c := &ClockDomain{rateNum: 1, rateDen: 1}
	core.InitNode(&c.NodeBase, c)
	c.SetName(name)
	c.SetParent(parent)
	c.EnsureSubContexts(1)

	return c
}

// TypeName identifies the variant.
func (c *ClockDomain) TypeName() string { return "ClockDomain" }

// Rate returns the (numerator, denominator) rate relative to the outer
// domain.
func (c *ClockDomain) Rate() (int, int) { return c.rateNum, c.rateDen }

// SetRate records the domain rate.
func (c *ClockDomain) SetRate(num, den int) { c.rateNum, c.rateDen = num, den }

// RateChangeInputs returns the boundary rate-change nodes on the input
// side.
func (c *ClockDomain) RateChangeInputs() []core.Node {
	return append([]core.Node(nil), c.rcInputs...)
}

// RateChangeOutputs returns the boundary rate-change nodes on the
// output side.
func (c *ClockDomain) RateChangeOutputs() []core.Node {
	return append([]core.Node(nil), c.rcOutputs...)
}

// AddRateChangeInput registers a boundary node on the input side.
func (c *ClockDomain) AddRateChangeInput(n core.Node) { c.rcInputs = append(c.rcInputs, n) }

// AddRateChangeOutput registers a boundary node on the output side.
func (c *ClockDomain) AddRateChangeOutput(n core.Node) { c.rcOutputs = append(c.rcOutputs, n) }

// ClearRateChangeNodes drops the boundary registry (before rediscovery).
func (c *ClockDomain) ClearRateChangeNodes() { c.rcInputs, c.rcOutputs = nil, nil }

// Specialized reports whether this is already an Upsample/Downsample
// variant.
func (c *ClockDomain) Specialized() bool { return false }

// Validate requires a pure rational rate with one side equal to 1.
func (c *ClockDomain) Validate() error {
	if err := c.Subsystem.Validate(); err != nil {
		return err
	}
	if c.rateNum < 1 || c.rateDen < 1 {
		return fmt.Errorf("%w: clock domain %s has illegal rate %d/%d",
			core.ErrValidation, c.FullyQualifiedName(), c.rateNum, c.rateDen)
	}
	if c.rateNum != 1 && c.rateDen != 1 {
		return fmt.Errorf("%w: clock domain %s rate %d/%d must upsample or downsample, not both",
			core.ErrValidation, c.FullyQualifiedName(), c.rateNum, c.rateDen)
	}

	return nil
}

// ContextDecisionDriverArcs: the base domain has no runtime decision;
// downsample variants override through their counter node.
func (c *ClockDomain) ContextDecisionDriverArcs() []*core.Arc { return nil }

// ShouldReplicateDrivers is false for clock domains; their decision is
// a local counter, cheap to replicate implicitly.
func (c *ClockDomain) ShouldReplicateDrivers() bool { return false }

// RequiresContiguousBlocking is false for the unspecialized domain.
func (c *ClockDomain) RequiresContiguousBlocking() bool { return false }

// cloneInto copies the domain parameters.
func (c *ClockDomain) cloneInto(dst *ClockDomain, parent *core.Subsystem) {
	dst.rateNum = c.rateNum
	dst.rateDen = c.rateDen
	dst.rcInputs = append([]core.Node(nil), c.rcInputs...)
	dst.rcOutputs = append([]core.Node(nil), c.rcOutputs...)
	dst.CloneRegistryFrom(&c.SubContextRegistry)
}

// RemapNodes redirects the boundary registries (the subcontext registry
// remaps through its own promoted method, which this overrides and
// extends).
func (c *ClockDomain) RemapNodes(f func(core.Node) core.Node) {
	c.SubContextRegistry.RemapNodes(f)
	for i, n := range c.rcInputs {
		c.rcInputs[i] = f(n)
	}
	for i, n := range c.rcOutputs {
		c.rcOutputs[i] = f(n)
	}
}

// ShallowClone copies the domain shell.
func (c *ClockDomain) ShallowClone(parent *core.Subsystem) core.Node {
	cl := &ClockDomain{}
	core.CloneBaseInto(&cl.NodeBase, cl, c, parent)
	c.cloneInto(cl, parent)

	return cl
}

// UpsampleClockDomain executes its interior num times per outer sample.
type UpsampleClockDomain struct {
	ClockDomain
}

// NewUpsampleClockDomain specializes base into an upsample domain.
func NewUpsampleClockDomain(name string, parent *core.Subsystem, num int) *UpsampleClockDomain {
	u := &UpsampleClockDomain{}
	core.InitNode(&u.NodeBase, u)
	u.SetName(name)
	u.SetParent(parent)
	u.rateNum, u.rateDen = num, 1
	u.EnsureSubContexts(1)

	return u
}

// TypeName identifies the variant.
func (u *UpsampleClockDomain) TypeName() string { return "UpsampleClockDomain" }

// Specialized reports true.
func (u *UpsampleClockDomain) Specialized() bool { return true }

// RequiresContiguousBlocking: the inner iteration cannot be split
// across sub-blocks.
func (u *UpsampleClockDomain) RequiresContiguousBlocking() bool { return true }

// ShallowClone copies the domain shell.
func (u *UpsampleClockDomain) ShallowClone(parent *core.Subsystem) core.Node {
	cl := &UpsampleClockDomain{}
	core.CloneBaseInto(&cl.NodeBase, cl, u, parent)
	u.cloneInto(&cl.ClockDomain, parent)

	return cl
}

// DownsampleClockDomain executes its interior once per den outer
// samples, gated by a counter support node.
type DownsampleClockDomain struct {
	ClockDomain
	counter *DownsampleCounter
}

// NewDownsampleClockDomain specializes base into a downsample domain.
func NewDownsampleClockDomain(name string, parent *core.Subsystem, den int) *DownsampleClockDomain {
	d := &DownsampleClockDomain{}
	core.InitNode(&d.NodeBase, d)
	d.SetName(name)
	d.SetParent(parent)
	d.rateNum, d.rateDen = 1, den
	d.EnsureSubContexts(1)

	return d
}

// TypeName identifies the variant.
func (d *DownsampleClockDomain) TypeName() string { return "DownsampleClockDomain" }

// Specialized reports true.
func (d *DownsampleClockDomain) Specialized() bool { return true }

// Counter returns the support node, or nil before support-node creation.
func (d *DownsampleClockDomain) Counter() *DownsampleCounter { return d.counter }

// SetCounter links the support node.
func (d *DownsampleClockDomain) SetCounter(c *DownsampleCounter) { d.counter = c }

// ContextDecisionDriverArcs returns the counter strobe arcs.
func (d *DownsampleClockDomain) ContextDecisionDriverArcs() []*core.Arc {
	if d.counter == nil {
		return nil
	}

	return d.counter.OutputPort(0).Arcs()
}

// GuardExpr gates the interior on the counter phase.
func (d *DownsampleClockDomain) GuardExpr(sub int) string {
	if d.counter == nil {
		return "1"
	}

	return fmt.Sprintf("%s == 0", d.counter.CounterVariable().CName(false))
}

// RemapNodes additionally redirects the counter link.
func (d *DownsampleClockDomain) RemapNodes(f func(core.Node) core.Node) {
	d.ClockDomain.RemapNodes(f)
	if d.counter != nil {
		if c, ok := f(d.counter).(*DownsampleCounter); ok {
			d.counter = c
		}
	}
}

// ShallowClone copies the domain shell.
func (d *DownsampleClockDomain) ShallowClone(parent *core.Subsystem) core.Node {
	cl := &DownsampleClockDomain{counter: d.counter}
	core.CloneBaseInto(&cl.NodeBase, cl, d, parent)
	d.cloneInto(&cl.ClockDomain, parent)

	return cl
}

// DownsampleCounter is the support node of a downsample domain: a
// modulo-den phase counter whose output strobes the domain's execution
// (phase zero) each outer cycle.
type DownsampleCounter struct {
	core.NodeBase
	modulus int
}

// NewDownsampleCounter constructs the counter support node.
func NewDownsampleCounter(name string, parent *core.Subsystem, modulus int) *DownsampleCounter {
	c := &DownsampleCounter{modulus: modulus}
	core.InitNode(&c.NodeBase, c)
	c.SetName(name)
	c.SetParent(parent)

	return c
}

// TypeName identifies the variant.
func (c *DownsampleCounter) TypeName() string { return "DownsampleCounter" }

// Modulus returns the counter modulus (the downsample factor).
func (c *DownsampleCounter) Modulus() int { return c.modulus }

// CounterVariable is the persistent phase counter.
func (c *DownsampleCounter) CounterVariable() numeric.Variable {
	dt := numeric.NewDataType(false, false, false, 32, 0, nil)

	return numeric.NewVariable(core.CIdentifier(c)+"_phase", dt, []numeric.NumericValue{numeric.NewIntValue(0)})
}

// Validate requires a modulus >= 2.
func (c *DownsampleCounter) Validate() error {
	if c.modulus < 2 {
		return fmt.Errorf("%w: downsample counter %s needs modulus >= 2",
			core.ErrValidation, c.FullyQualifiedName())
	}

	return nil
}

// HasState: the phase persists across cycles.
func (c *DownsampleCounter) HasState() bool { return true }

// HasCombinationalPath is false; the strobe reads the stored phase.
func (c *DownsampleCounter) HasCombinationalPath() bool { return false }

// StateVariables declares the phase counter.
func (c *DownsampleCounter) StateVariables() []numeric.Variable {
	return []numeric.Variable{c.CounterVariable()}
}

// EmitValueExpr strobes phase zero.
func (c *DownsampleCounter) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	return core.NewCExpr(fmt.Sprintf("(%s == 0)", c.CounterVariable().CName(false)), false), nil
}

// EmitStateUpdate advances the phase modulo the downsample factor.
func (c *DownsampleCounter) EmitStateUpdate(q *core.StmtQueue, stateUpdateSrc core.Node) error {
	v := c.CounterVariable().CName(false)
	q.Add("%s = (%s + 1) %% %d;", v, v, c.modulus)

	return nil
}

// ShallowClone copies the counter.
func (c *DownsampleCounter) ShallowClone(parent *core.Subsystem) core.Node {
	cl := &DownsampleCounter{modulus: c.modulus}
	core.CloneBaseInto(&cl.NodeBase, cl, c, parent)

	return cl
}
