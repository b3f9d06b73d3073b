package blocking

import (
	"fmt"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/multirate"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
)

// Result carries the artifacts of BlockAndSubBlock: the created
// domains and the deferred arc-dimension expansions to apply after FIFO
// delay absorption.
type Result struct {
	Global     *nodes.BlockingDomain
	SubDomains []*nodes.BlockingDomain

	// Deferred maps arcs adjacent to delays to the expansion factor
	// their outermost dimension still owes.
	Deferred map[*core.Arc]int
}

// BlockAndSubBlock wraps the design in a global blocking domain of
// factor blockLen, expands the master-port dimensions, inserts the
// boundary nodes, sub-blocks the interior by subBlockLen, and expands
// interior arc dimensions (deferring arcs adjacent to delays).
//
// Context discovery must have run; groups whose context roots require
// contiguity land in one sub-domain. subBlockLen must divide blockLen.
func BlockAndSubBlock(d *core.Design, blockLen, subBlockLen int) (*Result, error) {
	if blockLen < 1 || subBlockLen < 1 || blockLen%subBlockLen != 0 {
		return nil, fmt.Errorf("%w: block size %d with sub-block size %d",
			core.ErrTransform, blockLen, subBlockLen)
	}
	res := &Result{Deferred: make(map[*core.Arc]int)}

	// 1. Global blocking domain around every top-level node.
	global := nodes.NewBlockingDomain("blockingDomain", nil, blockLen, subBlockLen, true)
	d.AddNode(global)
	for _, n := range d.TopLevelNodes() {
		if n == core.Node(global) {
			continue
		}
		d.ReparentNode(n, &global.Subsystem)
	}
	res.Global = global

	// 2. Boundary nodes + master dimension expansion.
	if err := insertBoundaryNodes(d, global, blockLen); err != nil {
		return nil, err
	}

	// 3. Sub-block the interior: contiguous groups from contexts.
	res.SubDomains = createSubDomains(d, global, blockLen, subBlockLen)

	// 4. Expand interior arc dimensions by the sub-block factor,
	//    deferring arcs that touch a delay.
	expandInteriorArcs(d, subBlockLen, res.Deferred)

	d.AssignNodeIDs()
	d.AssignArcIDs()

	return res, nil
}

// insertBoundaryNodes creates one BlockingInput per used input-master
// port and one BlockingOutput per used output-master port, expanding
// the master-side arc dimensions by the block factor.
func insertBoundaryNodes(d *core.Design, global *nodes.BlockingDomain, blockLen int) error {
	in := d.InputMaster()
	for _, p := range in.OutputPorts() {
		arcs := p.Arcs()
		if len(arcs) == 0 {
			continue
		}
		bi := nodes.NewBlockingInput(fmt.Sprintf("blockingInput_%d", p.Num()), &global.Subsystem, blockLen)
		if dst := arcs[0].DstNode(); dst != nil {
			bi.SetPartition(dst.Partition())
		}
		d.AddNode(bi)
		global.Subsystem.AddChild(bi)
		innerT := arcs[0].DataType()
		blockedT := innerT.ExpandOutermost(blockLen)
		d.AddArc(core.NewArc(p, bi.InputPort(0), blockedT, arcs[0].SampleTime()))
		for _, a := range arcs {
			a.SetSrcPort(bi.OutputPort(0))
		}
	}
	for _, master := range []*core.MasterOutput{d.OutputMaster(), d.VisMaster()} {
		for _, p := range master.InputPorts() {
			arcs := p.Arcs()
			if len(arcs) == 0 {
				continue
			}
			bo := nodes.NewBlockingOutput(fmt.Sprintf("blockingOutput_%d", p.Num()), &global.Subsystem, blockLen)
			if src := arcs[0].SrcNode(); src != nil {
				bo.SetPartition(src.Partition())
			}
			d.AddNode(bo)
			global.Subsystem.AddChild(bo)
			innerT := arcs[0].DataType()
			blockedT := innerT.ExpandOutermost(blockLen)
			for _, a := range arcs {
				a.SetDstPort(bo.InputPort(0))
			}
			if len(bo.InputPort(0).Arcs()) > 1 {
				return fmt.Errorf("%w: output master port %d has multiple drivers at blocking",
					core.ErrTransform, p.Num())
			}
			d.AddArc(core.NewArc(bo.OutputPort(0), p, blockedT, arcs[0].SampleTime()))
		}
	}

	return nil
}

// createSubDomains groups nodes whose contexts forbid splitting and
// wraps each group in a sub-blocking domain. A node whose effective
// sub-block length is non-integral is enveloped too.
func createSubDomains(d *core.Design, global *nodes.BlockingDomain, blockLen, subBlockLen int) []*nodes.BlockingDomain {
	var subs []*nodes.BlockingDomain
	grouped := make(map[core.ContextRoot][]core.Node)
	var loose []core.Node

	for _, n := range d.Nodes() {
		if n == core.Node(global) || isBlockingInfra(n) {
			continue
		}
		if root := contiguousRootOf(n); root != nil {
			grouped[root] = append(grouped[root], n)

			continue
		}
		if _, integral := multirate.EffectiveSubBlockingLength(n, subBlockLen); !integral {
			loose = append(loose, n)
		}
	}

	mk := func(name string, members []core.Node) *nodes.BlockingDomain {
		sd := nodes.NewBlockingDomain(name, &global.Subsystem, subBlockLen, subBlockLen, false)
		d.AddNode(sd)
		global.Subsystem.AddChild(sd)
		// move only the outermost member of each hierarchy chain so
		// interior structure is preserved
		for _, m := range members {
			if m.Parent() != nil && memberOf(members, m.Parent().Owner()) {
				continue
			}
			d.ReparentNode(m, &sd.Subsystem)
		}

		return sd
	}

	i := 0
	for _, root := range d.ContextRoots() {
		members, ok := grouped[root]
		if !ok {
			continue
		}
		subs = append(subs, mk(fmt.Sprintf("subBlocking_%s", root.Name()), append(members, root)))
		i++
	}
	if len(loose) > 0 {
		subs = append(subs, mk(fmt.Sprintf("subBlocking_env%d", i), loose))
	}

	return subs
}

// contiguousRootOf returns the innermost context root on n's stack that
// requires contiguous blocking, or nil.
func contiguousRootOf(n core.Node) core.ContextRoot {
	stack := n.Contexts()
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Root.RequiresContiguousBlocking() {
			return stack[i].Root
		}
	}

	return nil
}

// isBlockingInfra filters the nodes the pass itself creates.
func isBlockingInfra(n core.Node) bool {
	switch n.(type) {
	case *nodes.BlockingDomain, *nodes.BlockingInput, *nodes.BlockingOutput:
		return true
	default:
		return false
	}
}

// memberOf reports whether x is in the member set.
func memberOf(members []core.Node, x core.Node) bool {
	for _, m := range members {
		if m == x {
			return true
		}
	}

	return false
}

// expandInteriorArcs multiplies interior arc dimensions by the
// sub-block factor. Arcs adjacent to a Delay are recorded in deferred
// instead, and the delay remembers the owed factor (FIFO absorption
// must see unexpanded initial conditions).
func expandInteriorArcs(d *core.Design, subBlockLen int, deferred map[*core.Arc]int) {
	if subBlockLen == 1 {
		return
	}
	for _, a := range d.Arcs() {
		src, dst := a.SrcNode(), a.DstNode()
		if src == nil || dst == nil || core.IsMaster(src) || core.IsMaster(dst) {
			continue
		}
		if isBlockingInfra(src) || isBlockingInfra(dst) {
			continue
		}
		if dl, ok := delayEndpoint(src, dst); ok {
			deferred[a] = subBlockLen
			dl.SetDeferredDimExpansion(subBlockLen)

			continue
		}
		a.SetDataType(a.DataType().ExpandOutermost(subBlockLen))
	}
}

// delayEndpoint returns the delay among the endpoints, if any.
func delayEndpoint(src, dst core.Node) (*nodes.Delay, bool) {
	if dl, ok := asDelay(src); ok {
		return dl, true
	}

	return asDelay(dst)
}

func asDelay(n core.Node) (*nodes.Delay, bool) {
	switch v := n.(type) {
	case *nodes.TappedDelay:
		return &v.Delay, true
	case *nodes.Delay:
		return v, true
	default:
		return nil, false
	}
}

// SpecializeDeferredDelays applies the postponed arc expansions after
// FIFO delay absorption, re-broadcasting each touched delay's initial
// conditions to the expanded element shape.
func SpecializeDeferredDelays(d *core.Design, deferred map[*core.Arc]int) {
	for a, factor := range deferred {
		if a.SrcPort() == nil || a.DstPort() == nil {
			continue // absorbed away
		}
		a.SetDataType(a.DataType().ExpandOutermost(factor))
	}
	for _, n := range d.Nodes() {
		if dl, ok := asDelay(n); ok && dl.DeferredDimExpansion() > 0 {
			dl.PropagateProperties()
			dl.SetDeferredDimExpansion(0)
		}
	}
}
