package multithread

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
)

// ErrDeadlock indicates a partition-graph cycle whose FIFOs carry no
// initial data: the emitted threads would block forever at startup.
var ErrDeadlock = errors.New("multithread: partition graph deadlock")

// CheckForDeadlock verifies deadlock-free startup: on every cycle of
// the partition-level graph built from the thread-crossing FIFOs, the
// initial conditions must total at least one block. Equivalently, the
// subgraph of zero-initial-data edges must be acyclic - any cycle in it
// is a cycle with zero total.
func CheckForDeadlock(d *core.Design, blockSize int) error {
	// 1. Build the zero-initial-data partition graph.
	adj := make(map[int][]int)
	partitions := make(map[int]bool)
	for _, n := range d.Nodes() {
		fifo, ok := n.(*nodes.ThreadCrossingFIFO)
		if !ok {
			continue
		}
		src := fifo.Partition()
		if src == core.PartitionIO {
			continue // the I/O thread produces and consumes independently
		}
		for pair := 0; pair < fifo.NumPortPairs(); pair++ {
			for _, a := range fifo.OutputPort(pair).Arcs() {
				dst := a.DstNode()
				if dst == nil || dst.Partition() == core.PartitionIO {
					continue
				}
				partitions[src] = true
				partitions[dst.Partition()] = true
				if len(fifo.InitConds(pair)) >= blockSize {
					continue // this edge carries a block of startup data
				}
				adj[src] = append(adj[src], dst.Partition())
			}
		}
	}

	// 2. Cycle detection over the starved edges (white/gray/black).
	const (
		white = 0
		gray  = 1
		black = 2
	)
	state := make(map[int]int, len(partitions))
	var visit func(p int, path []int) error
	visit = func(p int, path []int) error {
		state[p] = gray
		path = append(path, p)
		for _, next := range adj[p] {
			switch state[next] {
			case gray:
				return fmt.Errorf("%w: cycle %v -> %d has no initial data", ErrDeadlock, path, next)
			case white:
				if err := visit(next, path); err != nil {
					return err
				}
			}
		}
		state[p] = black

		return nil
	}
	var order []int
	for p := range partitions {
		order = append(order, p)
	}
	sort.Ints(order)
	for _, p := range order {
		if state[p] == white {
			if err := visit(p, nil); err != nil {
				return err
			}
		}
	}

	return nil
}
