package multirate

import (
	"fmt"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
)

// FindClockDomains enumerates every clock domain in the design.
func FindClockDomains(d *core.Design) []*nodes.ClockDomain {
	var out []*nodes.ClockDomain
	for _, n := range d.Nodes() {
		switch cd := n.(type) {
		case *nodes.UpsampleClockDomain:
			out = append(out, &cd.ClockDomain)
		case *nodes.DownsampleClockDomain:
			out = append(out, &cd.ClockDomain)
		case *nodes.ClockDomain:
			out = append(out, cd)
		}
	}

	return out
}

// ResetMasterNodeClockDomainLinks clears the per-port clock-domain
// links on all five master sentinels before rediscovery.
func ResetMasterNodeClockDomainLinks(d *core.Design) {
	type resetter interface{ ResetPortClockDomains() }
	for _, m := range d.MasterNodes() {
		if r, ok := m.(resetter); ok {
			r.ResetPortClockDomains()
		}
	}
}

// RediscoverRateParameters re-derives each domain's (num, den) rate
// from its boundary rate-change nodes, and rebuilds the boundary
// registries by scanning the domain's children.
func RediscoverRateParameters(d *core.Design) error {
	for _, cd := range FindClockDomains(d) {
		cd.ClearRateChangeNodes()
		owner := cd.Owner()
		sub, ok := owner.(interface{ Children() []core.Node })
		if !ok {
			continue
		}
		num, den := 1, 1
		found := false
		for _, c := range sub.Children() {
			rc, isRC := rateChangeParams(c)
			if !isRC {
				continue
			}
			if rc.inputSide {
				cd.AddRateChangeInput(c)
			} else {
				cd.AddRateChangeOutput(c)
			}
			if found && (rc.num != num || rc.den != den) {
				return fmt.Errorf("%w: clock domain %s has conflicting rates %d/%d and %d/%d",
					core.ErrValidation, owner.FullyQualifiedName(), num, den, rc.num, rc.den)
			}
			num, den = rc.num, rc.den
			found = true
		}
		if found {
			cd.SetRate(num, den)
		}
	}

	return nil
}

type rcParams struct {
	num, den  int
	inputSide bool
}

// rateChangeParams extracts rate parameters from either rate-change
// variant.
func rateChangeParams(n core.Node) (rcParams, bool) {
	switch rc := n.(type) {
	case *nodes.RateChange:
		num, den := rc.Rate()

		return rcParams{num: num, den: den, inputSide: rc.InputSide()}, true
	case *nodes.RateChangeImpl:
		num, den := rc.Rate()

		return rcParams{num: num, den: den, inputSide: rc.InputSide()}, true
	default:
		return rcParams{}, false
	}
}

// SpecializeClockDomains rewrites each unspecialized domain into its
// Upsample or Downsample variant and converts generic rate-change
// placeholders into their concrete implementations. Returns the new
// domain nodes (already-specialized domains are returned unchanged).
func SpecializeClockDomains(d *core.Design) ([]core.Node, error) {
	var out []core.Node
	for _, cd := range FindClockDomains(d) {
		owner := cd.Owner()
		if cd.Specialized() {
			out = append(out, owner)

			continue
		}
		num, den := cd.Rate()
		var specialized core.Node
		switch {
		case num >= 1 && den == 1 && num > 1:
			specialized = nodes.NewUpsampleClockDomain(owner.Name(), owner.Parent(), num)
		case num == 1 && den > 1:
			specialized = nodes.NewDownsampleClockDomain(owner.Name(), owner.Parent(), den)
		case num == 1 && den == 1:
			out = append(out, owner)

			continue
		default:
			return nil, fmt.Errorf("%w: clock domain %s rate %d/%d cannot specialize",
				core.ErrValidation, owner.FullyQualifiedName(), num, den)
		}
		transplantDomain(d, owner, specialized)
		out = append(out, specialized)
	}

	// convert generic placeholders inside the specialized domains
	for _, n := range d.Nodes() {
		rc, ok := n.(*nodes.RateChange)
		if !ok {
			continue
		}
		impl := rc.Specialize()
		var newArcs, delArcs []*core.Arc
		for _, p := range rc.InputPorts() {
			for _, a := range p.Arcs() {
				newArcs = append(newArcs, core.NewArc(a.SrcPort(), impl.InputPort(p.Num()), a.DataType(), a.SampleTime()))
				delArcs = append(delArcs, a)
			}
		}
		for _, p := range rc.OutputPorts() {
			for _, a := range p.Arcs() {
				newArcs = append(newArcs, core.NewArc(impl.OutputPort(p.Num()), a.DstPort(), a.DataType(), a.SampleTime()))
				delArcs = append(delArcs, a)
			}
		}
		parent := rc.Parent()
		d.AddRemoveNodesAndArcs([]core.Node{impl}, []core.Node{rc}, newArcs, delArcs)
		if parent != nil {
			d.ReparentNode(impl, parent)
			replaceInDomainRegistry(parent.Owner(), rc, impl)
		}
	}
	d.AssignNodeIDs()
	d.AssignArcIDs()

	return out, nil
}

// transplantDomain moves the old domain's children, ports, and arcs
// onto its specialized replacement, then drops the old node.
func transplantDomain(d *core.Design, old core.Node, repl core.Node) {
	oldSub, _ := old.(interface{ Children() []core.Node })
	replParent, _ := repl.(interface{ AddChild(core.Node) })

	repl.SetID(old.ID())
	repl.SetPartition(old.Partition())
	repl.SetContexts(append([]core.Context(nil), old.Contexts()...))

	var newArcs, delArcs []*core.Arc
	for _, p := range old.InputPorts() {
		for _, a := range p.Arcs() {
			newArcs = append(newArcs, core.NewArc(a.SrcPort(), repl.InputPort(p.Num()), a.DataType(), a.SampleTime()))
			delArcs = append(delArcs, a)
		}
	}
	for _, p := range old.OutputPorts() {
		for _, a := range p.Arcs() {
			newArcs = append(newArcs, core.NewArc(repl.OutputPort(p.Num()), a.DstPort(), a.DataType(), a.SampleTime()))
			delArcs = append(delArcs, a)
		}
	}
	d.AddRemoveNodesAndArcs([]core.Node{repl}, nil, newArcs, delArcs)
	if parent := old.Parent(); parent != nil {
		d.ReparentNode(repl, parent)
	}
	if oldSub != nil && replParent != nil {
		for _, c := range oldSub.Children() {
			if subOld, ok := old.(interface{ RemoveChild(core.Node) }); ok {
				subOld.RemoveChild(c)
			}
			replParent.AddChild(c)
		}
	}
	d.RemoveNode(old)
}

// replaceInDomainRegistry swaps a boundary node reference after
// placeholder specialization.
func replaceInDomainRegistry(owner core.Node, old, repl core.Node) {
	cd, ok := clockDomainOf(owner)
	if !ok {
		return
	}
	ins, outs := cd.RateChangeInputs(), cd.RateChangeOutputs()
	cd.ClearRateChangeNodes()
	for _, n := range ins {
		if n == old {
			n = repl
		}
		cd.AddRateChangeInput(n)
	}
	for _, n := range outs {
		if n == old {
			n = repl
		}
		cd.AddRateChangeOutput(n)
	}
}

// clockDomainOf unwraps any clock-domain variant.
func clockDomainOf(n core.Node) (*nodes.ClockDomain, bool) {
	switch cd := n.(type) {
	case *nodes.UpsampleClockDomain:
		return &cd.ClockDomain, true
	case *nodes.DownsampleClockDomain:
		return &cd.ClockDomain, true
	case *nodes.ClockDomain:
		return cd, true
	default:
		return nil, false
	}
}

// CreateClockDomainSupportNodes creates the counter strobe for every
// downsample domain that lacks one. Returns the created nodes.
func CreateClockDomainSupportNodes(d *core.Design) []core.Node {
	var created []core.Node
	for _, n := range d.Nodes() {
		ds, ok := n.(*nodes.DownsampleClockDomain)
		if !ok || ds.Counter() != nil {
			continue
		}
		_, den := ds.Rate()
		counter := nodes.NewDownsampleCounter(ds.Name()+"_counter", ds.Parent(), den)
		counter.SetPartition(ds.Partition())
		d.AddNode(counter)
		if parent := ds.Parent(); parent != nil {
			d.ReparentNode(counter, parent)
		}
		ds.SetCounter(counter)
		created = append(created, counter)
	}
	d.AssignNodeIDs()

	return created
}
