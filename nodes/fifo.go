package nodes

import (
	"fmt"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// FIFOImpl selects the generated FIFO implementation variant.
type FIFOImpl int

const (
	// FIFOLockless is the single-producer/single-consumer lockless queue
	// with separate copy-in/copy-out block buffers.
	FIFOLockless FIFOImpl = iota
	// FIFOLocklessInPlace exposes the queue slots directly to the
	// compute loop, skipping the copy.
	FIFOLocklessInPlace
)

// ParseFIFOImpl converts the driver flag string.
func ParseFIFOImpl(s string) (FIFOImpl, error) {
	switch s {
	case "lockless", "LOCKLESS_X86":
		return FIFOLockless, nil
	case "lockless-inplace", "LOCKLESS_IN_PLACE_X86":
		return FIFOLocklessInPlace, nil
	default:
		return 0, fmt.Errorf("%w: FIFO implementation %q", ErrBadParameter, s)
	}
}

// String returns the flag spelling.
func (f FIFOImpl) String() string {
	if f == FIFOLocklessInPlace {
		return "lockless-inplace"
	}

	return "lockless"
}

// ThreadCrossingFIFO is the producer/consumer queue between two
// partitions. After merging it may carry several port pairs: input port
// i feeds output port i through the same queue, sharing head and tail
// indices. Initial conditions are tracked per port pair; after all
// transforms each pair's count must be a multiple of the block size.
type ThreadCrossingFIFO struct {
	core.NodeBase

	impl         FIFOImpl
	lengthBlocks int
	blockSize    int
	subBlockSize int
	cachedIdx    bool

	initConds        [][]numeric.NumericValue
	portClockDomains []core.Node

	// readBufVars is set by the emitter before consumer emission: the C
	// l-value each output port reads from in the current block.
	readBufVars []string
}

// NewThreadCrossingFIFO constructs a FIFO with one port pair.
func NewThreadCrossingFIFO(name string, parent *core.Subsystem, impl FIFOImpl, lengthBlocks int) *ThreadCrossingFIFO {
	f := &ThreadCrossingFIFO{
		impl:         impl,
		lengthBlocks: lengthBlocks,
		blockSize:    1,
		subBlockSize: 1,
		initConds:    [][]numeric.NumericValue{nil},
	}
	core.InitNode(&f.NodeBase, f)
	f.SetName(name)
	f.SetParent(parent)

	return f
}

// TypeName identifies the variant.
func (f *ThreadCrossingFIFO) TypeName() string { return "ThreadCrossingFIFO" }

// Impl returns the implementation variant.
func (f *ThreadCrossingFIFO) Impl() FIFOImpl { return f.impl }

// LengthBlocks returns the FIFO capacity in blocks.
func (f *ThreadCrossingFIFO) LengthBlocks() int { return f.lengthBlocks }

// SetLengthBlocks sets the FIFO capacity in blocks.
func (f *ThreadCrossingFIFO) SetLengthBlocks(n int) { f.lengthBlocks = n }

// BlockSize returns the transfer block size in samples.
func (f *ThreadCrossingFIFO) BlockSize() int { return f.blockSize }

// SetBlockSize sets the transfer block size.
func (f *ThreadCrossingFIFO) SetBlockSize(n int) { f.blockSize = n }

// SubBlockSize returns the sub-block size.
func (f *ThreadCrossingFIFO) SubBlockSize() int { return f.subBlockSize }

// SetSubBlockSize sets the sub-block size.
func (f *ThreadCrossingFIFO) SetSubBlockSize(n int) { f.subBlockSize = n }

// CachedIndexes reports whether head/tail indices are cached between
// checks in the generated code.
func (f *ThreadCrossingFIFO) CachedIndexes() bool { return f.cachedIdx }

// SetCachedIndexes selects the index-caching mode.
func (f *ThreadCrossingFIFO) SetCachedIndexes(v bool) { f.cachedIdx = v }

// NumPortPairs returns the number of (input, output) port pairs.
func (f *ThreadCrossingFIFO) NumPortPairs() int { return len(f.initConds) }

// AddPortPair grows the FIFO by one port pair (used by merging).
func (f *ThreadCrossingFIFO) AddPortPair() int {
	f.initConds = append(f.initConds, nil)
	f.portClockDomains = append(f.portClockDomains, nil)

	return len(f.initConds) - 1
}

// InitConds returns the initial conditions of port pair i.
func (f *ThreadCrossingFIFO) InitConds(i int) []numeric.NumericValue {
	if i < 0 || i >= len(f.initConds) {
		return nil
	}

	return append([]numeric.NumericValue(nil), f.initConds[i]...)
}

// SetInitConds replaces the initial conditions of port pair i.
func (f *ThreadCrossingFIFO) SetInitConds(i int, vals []numeric.NumericValue) {
	for len(f.initConds) <= i {
		f.initConds = append(f.initConds, nil)
	}
	f.initConds[i] = append([]numeric.NumericValue(nil), vals...)
}

// InitCondCount returns the per-pair initial-condition count (all pairs
// carry the same count after merging trims them).
func (f *ThreadCrossingFIFO) InitCondCount() int {
	if len(f.initConds) == 0 {
		return 0
	}

	return len(f.initConds[0])
}

// PortClockDomain returns the clock domain of port pair i, or nil.
func (f *ThreadCrossingFIFO) PortClockDomain(i int) core.Node {
	if i < 0 || i >= len(f.portClockDomains) {
		return nil
	}

	return f.portClockDomains[i]
}

// SetPortClockDomain records the clock domain of port pair i.
func (f *ThreadCrossingFIFO) SetPortClockDomain(i int, d core.Node) {
	for len(f.portClockDomains) <= i {
		f.portClockDomains = append(f.portClockDomains, nil)
	}
	f.portClockDomains[i] = d
}

// Label renders the node name with the queue geometry.
func (f *ThreadCrossingFIFO) Label() string {
	return fmt.Sprintf("%s\nFIFO %s len=%d blocks", f.Name(), f.impl, f.lengthBlocks)
}

// Validate checks queue geometry; the block-multiple invariant on
// initial conditions is checked separately after the transforms that
// are allowed to violate it transiently.
func (f *ThreadCrossingFIFO) Validate() error {
	if err := f.NodeBase.Validate(); err != nil {
		return err
	}
	if f.lengthBlocks < 1 {
		return fmt.Errorf("%w: FIFO %s needs length >= 1 block",
			core.ErrValidation, f.FullyQualifiedName())
	}
	if f.blockSize < 1 || f.subBlockSize < 1 || f.blockSize%f.subBlockSize != 0 {
		return fmt.Errorf("%w: FIFO %s block geometry %d/%d",
			core.ErrValidation, f.FullyQualifiedName(), f.blockSize, f.subBlockSize)
	}

	return nil
}

// CheckInitCondsMultipleOfBlock enforces the post-transform invariant:
// every port pair's initial-condition count is a multiple of the block
// size (excess must have been offloaded into an adjacent Delay).
func (f *ThreadCrossingFIFO) CheckInitCondsMultipleOfBlock() error {
	for i, ic := range f.initConds {
		if len(ic)%f.blockSize != 0 {
			return fmt.Errorf("%w: FIFO %s port %d has %d initial conditions, not a multiple of block size %d",
				core.ErrValidation, f.FullyQualifiedName(), i, len(ic), f.blockSize)
		}
	}

	return nil
}

// HasState: the queue occupancy persists across cycles.
func (f *ThreadCrossingFIFO) HasState() bool { return true }

// HasCombinationalPath is false; consumers read the current block
// buffer, not the producer expression.
func (f *ThreadCrossingFIFO) HasCombinationalPath() bool { return false }

// SetReadBufVar installs the l-value output port i reads from; the
// emitter calls this per block iteration before consumer emission.
func (f *ThreadCrossingFIFO) SetReadBufVar(i int, v string) {
	for len(f.readBufVars) <= i {
		f.readBufVars = append(f.readBufVars, "")
	}
	f.readBufVars[i] = v
}

// EmitValueExpr reads the installed block buffer for the port.
func (f *ThreadCrossingFIFO) EmitValueExpr(q *core.StmtQueue, outputPort int, imag bool) (core.CExpr, error) {
	if outputPort >= len(f.readBufVars) || f.readBufVars[outputPort] == "" {
		return core.CExpr{}, fmt.Errorf("%w: FIFO %s output %d read before the emitter installed its buffer",
			core.ErrUnsupportedHook, f.FullyQualifiedName(), outputPort)
	}
	v := f.readBufVars[outputPort]
	if imag {
		v += "_im"
	}

	return core.NewCExpr(v, true), nil
}

// GraphMLParameters exports the queue geometry.
func (f *ThreadCrossingFIFO) GraphMLParameters() []core.GraphMLParameter {
	return []core.GraphMLParameter{
		{Key: "FIFOImpl", AttrType: "string", Value: f.impl.String()},
		{Key: "LengthBlocks", AttrType: "int", Value: fmt.Sprintf("%d", f.lengthBlocks)},
		{Key: "BlockSize", AttrType: "int", Value: fmt.Sprintf("%d", f.blockSize)},
		{Key: "InitialConditionCount", AttrType: "int", Value: fmt.Sprintf("%d", f.InitCondCount())},
	}
}

// RemapNodes redirects the per-port clock-domain links.
func (f *ThreadCrossingFIFO) RemapNodes(remap func(core.Node) core.Node) {
	for i, d := range f.portClockDomains {
		if d != nil {
			f.portClockDomains[i] = remap(d)
		}
	}
}

// ShallowClone copies the queue configuration.
func (f *ThreadCrossingFIFO) ShallowClone(parent *core.Subsystem) core.Node {
	c := &ThreadCrossingFIFO{
		impl:         f.impl,
		lengthBlocks: f.lengthBlocks,
		blockSize:    f.blockSize,
		subBlockSize: f.subBlockSize,
		cachedIdx:    f.cachedIdx,
	}
	c.initConds = make([][]numeric.NumericValue, len(f.initConds))
	for i, ic := range f.initConds {
		c.initConds[i] = append([]numeric.NumericValue(nil), ic...)
	}
	c.portClockDomains = append([]core.Node(nil), f.portClockDomains...)
	core.CloneBaseInto(&c.NodeBase, c, f, parent)

	return c
}
