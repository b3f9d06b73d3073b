package sched

import (
	"github.com/ucb-cyarp/vitis-sub000/core"
)

// StronglyConnectedComponents computes the SCCs of the non-master node
// graph (data arcs only) with an iterative Tarjan walk. Components are
// returned in reverse topological order of the condensation; each
// component lists its member nodes.
//
// Complexity: O(V + E).
func StronglyConnectedComponents(d *core.Design) [][]core.Node {
	nodes := d.Nodes()
	index := make(map[core.Node]int, len(nodes))
	lowlink := make(map[core.Node]int, len(nodes))
	onStack := make(map[core.Node]bool, len(nodes))
	var stack []core.Node
	var components [][]core.Node
	next := 0

	type frame struct {
		n     core.Node
		succs []core.Node
		i     int
	}

	successors := func(n core.Node) []core.Node {
		var out []core.Node
		for _, p := range n.OutputPorts() {
			for _, a := range p.Arcs() {
				dst := a.DstNode()
				if dst == nil || core.IsMaster(dst) {
					continue
				}
				out = append(out, dst)
			}
		}

		return out
	}

	var walk func(root core.Node)
	walk = func(root core.Node) {
		frames := []frame{{n: root, succs: successors(root)}}
		index[root] = next
		lowlink[root] = next
		next++
		stack = append(stack, root)
		onStack[root] = true

		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			if f.i < len(f.succs) {
				succ := f.succs[f.i]
				f.i++
				if _, seen := index[succ]; !seen {
					index[succ] = next
					lowlink[succ] = next
					next++
					stack = append(stack, succ)
					onStack[succ] = true
					frames = append(frames, frame{n: succ, succs: successors(succ)})
				} else if onStack[succ] && index[succ] < lowlink[f.n] {
					lowlink[f.n] = index[succ]
				}

				continue
			}
			// frame done: close the component if this is a root
			done := f.n
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := &frames[len(frames)-1]
				if lowlink[done] < lowlink[parent.n] {
					lowlink[parent.n] = lowlink[done]
				}
			}
			if lowlink[done] == index[done] {
				var comp []core.Node
				for {
					top := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[top] = false
					comp = append(comp, top)
					if top == done {
						break
					}
				}
				components = append(components, comp)
			}
		}
	}

	for _, n := range nodes {
		if _, seen := index[n]; !seen {
			walk(n)
		}
	}

	return components
}
