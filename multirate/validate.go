package multirate

import (
	"fmt"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
)

// ValidateRates enforces the one-level rule for every rate-change node:
// the input side must live in the outer domain or in an adjacent domain
// one level down, and the output side symmetrically. Master-node ports
// inherit the rate of the domain on their connected side.
func ValidateRates(d *core.Design) error {
	for _, n := range d.Nodes() {
		params, isRC := rateChangeParams(n)
		if !isRC {
			continue
		}
		home, _ := enclosingClockDomain(n)
		if home == nil {
			return fmt.Errorf("%w: rate change %s lives outside any clock domain",
				core.ErrValidation, n.FullyQualifiedName())
		}
		if params.inputSide {
			if err := checkBoundarySide(n, home, true); err != nil {
				return err
			}
		} else if err := checkBoundarySide(n, home, false); err != nil {
			return err
		}
	}
	assignMasterPortDomains(d)

	return nil
}

// checkBoundarySide verifies the neighbors across the boundary differ
// by exactly one domain level.
func checkBoundarySide(rc core.Node, home core.Node, inputSide bool) error {
	var ports []*core.Port
	if inputSide {
		ports = rc.InputPorts()
	} else {
		ports = rc.OutputPorts()
	}
	for _, p := range ports {
		for _, a := range p.Arcs() {
			var peer core.Node
			if inputSide {
				peer = a.SrcNode()
			} else {
				peer = a.DstNode()
			}
			if peer == nil || core.IsMaster(peer) {
				continue
			}
			peerDom, peerDepth := enclosingClockDomain(peer)
			homeDom, homeDepth := enclosingClockDomain(rc)
			if peerDom == homeDom {
				return fmt.Errorf("%w: rate change %s does not cross a domain boundary",
					core.ErrValidation, rc.FullyQualifiedName())
			}
			if diff := homeDepth - peerDepth; diff != 1 && diff != -1 {
				return fmt.Errorf("%w: rate change %s crosses %d domain levels",
					core.ErrValidation, rc.FullyQualifiedName(), diff)
			}
		}
	}

	return nil
}

// enclosingClockDomain returns the nearest enclosing clock domain (nil
// at base rate) and the clock-domain nesting depth.
func enclosingClockDomain(n core.Node) (core.Node, int) {
	depth := 0
	var nearest core.Node
	for p := n.Parent(); p != nil; p = p.Parent() {
		owner := p.Owner()
		if _, ok := clockDomainOf(owner); ok {
			depth++
			if nearest == nil {
				nearest = owner
			}
		}
	}

	return nearest, depth
}

// assignMasterPortDomains links every master port to the clock domain
// of the node on the other end of its arcs.
func assignMasterPortDomains(d *core.Design) {
	type linker interface{ SetPortClockDomain(int, core.Node) }
	for _, m := range d.MasterNodes() {
		l, ok := m.(linker)
		if !ok {
			continue
		}
		for _, p := range m.Ports() {
			for _, a := range p.Arcs() {
				peer := a.DstNode()
				if peer == core.Node(m) {
					peer = a.SrcNode()
				}
				if peer == nil {
					continue
				}
				if dom, _ := enclosingClockDomain(peer); dom != nil {
					l.SetPortClockDomain(p.Num(), dom)
				}
			}
		}
	}
}

// FindPartitionClockDomainRates maps each partition to the set of
// domain rates present in it (1/1 for nodes at base rate).
func FindPartitionClockDomainRates(d *core.Design) map[int][][2]int {
	seen := make(map[int]map[[2]int]bool)
	for _, n := range d.Nodes() {
		part := n.Partition()
		rate := [2]int{1, 1}
		if dom, _ := enclosingClockDomain(n); dom != nil {
			if cd, ok := clockDomainOf(dom); ok {
				num, den := cd.Rate()
				rate = [2]int{num, den}
			}
		}
		if seen[part] == nil {
			seen[part] = make(map[[2]int]bool)
		}
		seen[part][rate] = true
	}
	out := make(map[int][][2]int, len(seen))
	for part, rates := range seen {
		for r := range rates {
			out[part] = append(out[part], r)
		}
	}

	return out
}

// EffectiveSubBlockingLength computes the sub-block length observed at
// a node: the base sub-block length divided by the rate reduction of
// the enclosing clock-domain chain. The boolean reports whether the
// result is integral; non-integral nodes must stay inside a blocking
// domain rather than be split.
func EffectiveSubBlockingLength(n core.Node, baseSubBlockingLength int) (int, bool) {
	num, den := 1, 1
	for p := n.Parent(); p != nil; p = p.Parent() {
		if cd, ok := clockDomainOf(p.Owner()); ok {
			cn, cdDen := cd.Rate()
			num *= cn
			den *= cdDen
		}
	}
	// effective = base * num / den
	scaled := baseSubBlockingLength * num
	if scaled%den != 0 {
		return 0, false
	}

	return scaled / den, true
}

// DiscoverDependencyBreakers finds nodes that can break dependency
// chains after sub-blocking: state-holding nodes whose effective
// sub-block length is integral (they play the role simple delays play
// in the unblocked design).
func DiscoverDependencyBreakers(d *core.Design, baseSubBlockingLength int) []core.Node {
	var out []core.Node
	for _, n := range d.Nodes() {
		if !n.HasState() || n.HasCombinationalPath() {
			continue
		}
		if _, ok := n.(*nodes.StateUpdate); ok {
			continue
		}
		if _, integral := EffectiveSubBlockingLength(n, baseSubBlockingLength); integral {
			out = append(out, n)
		}
	}

	return out
}
