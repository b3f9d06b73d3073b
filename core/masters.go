package core

import (
	"github.com/ucb-cyarp/vitis-sub000/numeric"
)

// Reserved master node IDs. AssignNodeIDs hands out fresh IDs strictly
// above this range.
const (
	MasterInputID       = 1
	MasterOutputID      = 2
	MasterVisID         = 3
	MasterTerminatorID  = 4
	MasterUnconnectedID = 5

	// MasterReservedMax is the highest reserved master ID.
	MasterReservedMax = 5
)

// MasterRole distinguishes the output-like master sentinels.
type MasterRole int

const (
	// RoleOutput marks the design's primary output sink.
	RoleOutput MasterRole = iota
	// RoleVis marks the visualization sink.
	RoleVis
	// RoleTerminator marks the explicit discard sink.
	RoleTerminator
)

// String returns the role name.
func (r MasterRole) String() string {
	switch r {
	case RoleOutput:
		return "Output"
	case RoleVis:
		return "Visualization"
	case RoleTerminator:
		return "Terminator"
	default:
		return "Unknown"
	}
}

// masterBase carries behavior shared by all master sentinels: they sit
// outside the hierarchy, are exempt from expansion, and carry per-port
// clock-domain links assigned by the rate passes.
type masterBase struct {
	NodeBase
	portClockDomains map[int]Node // port num -> clock-domain node
}

// SetPortClockDomain links a port to the clock domain governing its rate.
func (m *masterBase) SetPortClockDomain(portNum int, domain Node) {
	if m.portClockDomains == nil {
		m.portClockDomains = make(map[int]Node)
	}
	m.portClockDomains[portNum] = domain
}

// PortClockDomain returns the clock domain linked to a port, or nil.
func (m *masterBase) PortClockDomain(portNum int) Node {
	return m.portClockDomains[portNum]
}

// ResetPortClockDomains clears every per-port clock-domain link.
func (m *masterBase) ResetPortClockDomains() {
	m.portClockDomains = nil
}

// HasCombinationalPath is false for design-boundary sentinels.
func (m *masterBase) HasCombinationalPath() bool { return false }

// MasterInput is the sentinel whose output ports are the design inputs.
type MasterInput struct {
	masterBase
}

// NewMasterInput constructs the input master.
func NewMasterInput() *MasterInput {
	m := &MasterInput{}
	InitNode(&m.NodeBase, m)
	m.SetID(MasterInputID)
	m.SetName("Input Master")
	m.SetPartition(PartitionIO)

	return m
}

// TypeName identifies the variant.
func (m *MasterInput) TypeName() string { return "Master Input" }

// Validate accepts any fan-out on the design inputs.
func (m *MasterInput) Validate() error { return nil }

// EmitValueExpr names the input variable for the requested port.
func (m *MasterInput) EmitValueExpr(q *StmtQueue, outputPort int, imag bool) (CExpr, error) {
	v := m.PortVariable(outputPort)

	return NewCExpr(v.CName(imag), true), nil
}

// PortVariable derives the C input variable for a port from the
// connected arc's type.
func (m *MasterInput) PortVariable(portNum int) numeric.Variable {
	dt := numeric.NewDataType(false, true, false, 64, 0, nil)
	if portNum < len(m.out) && m.out[portNum].Connected() {
		dt = m.out[portNum].Arcs()[0].DataType()
	}

	return numeric.NewVariable(m.PortName(portNum), dt, nil)
}

// PortName returns the emitted variable name for a port.
func (m *MasterInput) PortName(portNum int) string {
	return portName("in", portNum)
}

// ShallowClone copies the sentinel.
func (m *MasterInput) ShallowClone(parent *Subsystem) Node {
	c := &MasterInput{}
	CloneBaseInto(&c.NodeBase, c, m, parent)

	return c
}

// MasterOutput is the sentinel whose input ports are a design sink. The
// Output, Visualization, and Terminator masters are the three instances.
type MasterOutput struct {
	masterBase
	role MasterRole
}

// NewMasterOutput constructs an output-like master for the given role.
func NewMasterOutput(role MasterRole) *MasterOutput {
	m := &MasterOutput{role: role}
	InitNode(&m.NodeBase, m)
	m.SetPartition(PartitionIO)
	switch role {
	case RoleOutput:
		m.SetID(MasterOutputID)
		m.SetName("Output Master")
	case RoleVis:
		m.SetID(MasterVisID)
		m.SetName("Visualization Master")
	case RoleTerminator:
		m.SetID(MasterTerminatorID)
		m.SetName("Terminator Master")
	}

	return m
}

// TypeName identifies the variant.
func (m *MasterOutput) TypeName() string { return "Master Output" }

// Role returns which sink this master represents.
func (m *MasterOutput) Role() MasterRole { return m.role }

// AcceptsMultipleDrivers: output-like sinks accept many arcs per port.
func (m *MasterOutput) AcceptsMultipleDrivers() bool { return true }

// Validate accepts any connection pattern.
func (m *MasterOutput) Validate() error { return nil }

// PortName returns the emitted variable name for a port.
func (m *MasterOutput) PortName(portNum int) string {
	return portName("out", portNum)
}

// ShallowClone copies the sentinel.
func (m *MasterOutput) ShallowClone(parent *Subsystem) Node {
	c := &MasterOutput{role: m.role}
	CloneBaseInto(&c.NodeBase, c, m, parent)

	return c
}

// MasterUnconnected catches dangling ports so pruning can retarget arcs
// without deleting them.
type MasterUnconnected struct {
	masterBase
}

// NewMasterUnconnected constructs the unconnected master.
func NewMasterUnconnected() *MasterUnconnected {
	m := &MasterUnconnected{}
	InitNode(&m.NodeBase, m)
	m.SetID(MasterUnconnectedID)
	m.SetName("Unconnected Master")
	m.SetPartition(PartitionIO)

	return m
}

// TypeName identifies the variant.
func (m *MasterUnconnected) TypeName() string { return "Master Unconnected" }

// AcceptsMultipleDrivers: the unconnected sink accepts many arcs.
func (m *MasterUnconnected) AcceptsMultipleDrivers() bool { return true }

// Validate accepts any connection pattern.
func (m *MasterUnconnected) Validate() error { return nil }

// ShallowClone copies the sentinel.
func (m *MasterUnconnected) ShallowClone(parent *Subsystem) Node {
	c := &MasterUnconnected{}
	CloneBaseInto(&c.NodeBase, c, m, parent)

	return c
}

// IsMaster reports whether n is one of the five master sentinels.
func IsMaster(n Node) bool {
	switch n.(type) {
	case *MasterInput, *MasterOutput, *MasterUnconnected:
		return true
	default:
		return false
	}
}

// portName renders the canonical I/O variable name for a boundary port.
func portName(prefix string, portNum int) string {
	return prefix + "_port" + itoa(portNum)
}
