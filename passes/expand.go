package passes

import (
	"errors"

	"github.com/ucb-cyarp/vitis-sub000/core"
)

// ExpandToPrimitives repeatedly expands every node reporting CanExpand
// until none remain, replacing each with the ExpandedNode subgraph its
// hook builds. Returns the number of expansions performed.
func ExpandToPrimitives(d *core.Design) (int, error) {
	expanded := 0
	for {
		progress := false
		for _, n := range d.Nodes() {
			if !n.CanExpand() {
				continue
			}
			if _, err := n.Expand(d); err != nil {
				if errors.Is(err, core.ErrUnsupportedHook) {
					continue
				}

				return expanded, err
			}
			expanded++
			progress = true
		}
		if !progress {
			return expanded, nil
		}
	}
}

// CleanupEmptyHierarchy removes subsystems that have no children left
// (all moved or pruned), walking upward so newly emptied parents are
// removed too. Context roots are never removed. Returns the number of
// subsystems removed.
func CleanupEmptyHierarchy(d *core.Design) int {
	removed := 0
	for {
		progress := false
		for _, n := range d.Nodes() {
			sub, ok := n.(interface {
				core.Node
				ChildCount() int
			})
			if !ok || sub.ChildCount() > 0 {
				continue
			}
			if _, isRoot := n.(core.ContextRoot); isRoot {
				continue
			}
			if _, isExp := n.(*core.ExpandedNode); isExp {
				continue
			}
			if hasLiveArcs(n) {
				continue
			}
			d.RemoveNode(n)
			removed++
			progress = true
		}
		if !progress {
			return removed
		}
	}
}

// hasLiveArcs reports whether any port of n still carries arcs.
func hasLiveArcs(n core.Node) bool {
	for _, p := range n.Ports() {
		if p.Connected() {
			return true
		}
	}

	return false
}
