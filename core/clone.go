package core

import "fmt"

// NodeRemapper is implemented by node internals that hold references to
// other nodes (subcontext registries, expansion provenance) so CopyGraph
// can redirect them into the clone.
type NodeRemapper interface {
	RemapNodes(f func(Node) Node)
}

// CloneMaps is the bidirectional node/arc correspondence produced by
// CopyGraph.
type CloneMaps struct {
	NodeToCopy map[Node]Node
	CopyToNode map[Node]Node
	ArcToCopy  map[*Arc]*Arc
	CopyToArc  map[*Arc]*Arc
}

// CopyGraph deep-clones the design: hierarchy, ports, arcs, context
// stacks, and node cross-references, producing mutually inverse
// original/copy maps for nodes and arcs.
func (d *Design) CopyGraph() (*Design, *CloneMaps, error) {
	clone := &Design{}
	maps := &CloneMaps{
		NodeToCopy: make(map[Node]Node),
		CopyToNode: make(map[Node]Node),
		ArcToCopy:  make(map[*Arc]*Arc),
		CopyToArc:  make(map[*Arc]*Arc),
	}

	// 1. Clone the master sentinels.
	clone.inputMaster = d.inputMaster.ShallowClone(nil).(*MasterInput)
	clone.outputMaster = d.outputMaster.ShallowClone(nil).(*MasterOutput)
	clone.visMaster = d.visMaster.ShallowClone(nil).(*MasterOutput)
	clone.terminatorMaster = d.terminatorMaster.ShallowClone(nil).(*MasterOutput)
	clone.unconnectedMaster = d.unconnectedMaster.ShallowClone(nil).(*MasterUnconnected)
	masterPairs := [][2]Node{
		{d.inputMaster, clone.inputMaster},
		{d.outputMaster, clone.outputMaster},
		{d.visMaster, clone.visMaster},
		{d.terminatorMaster, clone.terminatorMaster},
		{d.unconnectedMaster, clone.unconnectedMaster},
	}
	for _, pair := range masterPairs {
		maps.NodeToCopy[pair[0]] = pair[1]
		maps.CopyToNode[pair[1]] = pair[0]
	}

	// 2. Clone the hierarchy from the top level down.
	var cloneRec func(n Node, parent *Subsystem)
	cloneRec = func(n Node, parent *Subsystem) {
		c := n.ShallowClone(parent)
		maps.NodeToCopy[n] = c
		maps.CopyToNode[c] = n
		if parent != nil {
			parent.AddChild(c)
		}
		clone.AddNode(c)
		if sub, ok := n.(interface{ Children() []Node }); ok {
			cs := c.(interface{ asSubsystem() *Subsystem }).asSubsystem()
			for _, child := range sub.Children() {
				cloneRec(child, cs)
			}
		}
	}
	for _, n := range d.topLevel {
		cloneRec(n, nil)
	}

	// 3. Clone arcs, locating the matching port on each cloned endpoint.
	for _, a := range d.arcs {
		if a.SrcPort() == nil || a.DstPort() == nil {
			return nil, nil, fmt.Errorf("%w: cannot clone dangling %s", ErrTransform, a.String())
		}
		srcClone, ok := maps.NodeToCopy[a.SrcNode()]
		if !ok {
			return nil, nil, fmt.Errorf("%w: arc source %s not in hierarchy", ErrTransform, a.SrcNode().FullyQualifiedName())
		}
		dstClone, ok := maps.NodeToCopy[a.DstNode()]
		if !ok {
			return nil, nil, fmt.Errorf("%w: arc destination %s not in hierarchy", ErrTransform, a.DstNode().FullyQualifiedName())
		}
		ca := NewArc(clonePort(srcClone, a.SrcPort()), clonePort(dstClone, a.DstPort()), a.DataType(), a.SampleTime())
		ca.SetID(a.ID())
		clone.AddArc(ca)
		maps.ArcToCopy[a] = ca
		maps.CopyToArc[ca] = a
	}

	// 4. Remap context stacks and node cross-references into the clone.
	remap := func(n Node) Node {
		if c, ok := maps.NodeToCopy[n]; ok {
			return c
		}

		return n
	}
	for _, c := range clone.nodes {
		cs := c.Contexts()
		for i := range cs {
			if mapped, ok := maps.NodeToCopy[cs[i].Root]; ok {
				cs[i].Root = mapped.(ContextRoot)
			}
		}
		c.SetContexts(cs)
		if rm, ok := c.(NodeRemapper); ok {
			rm.RemapNodes(remap)
		}
	}

	// 5. Rebuild the top-level context root registry.
	for _, r := range d.topContextRoots {
		if mapped, ok := maps.NodeToCopy[r]; ok {
			clone.AddTopLevelContextRoot(mapped.(ContextRoot))
		}
	}

	return clone, maps, nil
}

// clonePort resolves the port on the cloned node matching the original
// port's kind and number.
func clonePort(cloneNode Node, orig *Port) *Port {
	switch orig.Kind() {
	case PortInput:
		return cloneNode.InputPort(orig.Num())
	case PortOutput:
		return cloneNode.OutputPort(orig.Num())
	case PortEnable:
		return cloneNode.EnablePort()
	case PortOrderConstraintIn:
		return cloneNode.OrderConstraintInPort()
	default:
		return cloneNode.OrderConstraintOutPort()
	}
}

// asSubsystem lets cloned containers be used as parents during
// hierarchy cloning.
func (s *Subsystem) asSubsystem() *Subsystem { return s }
