package core

import (
	"sort"
	"strconv"
)

func itoa(v int) string { return strconv.Itoa(v) }

func sortInts(v []int) { sort.Ints(v) }

// SortNodesByID orders nodes by ID ascending for deterministic
// iteration in passes and dumps.
func SortNodesByID(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
}

// SortArcsByID orders arcs by ID ascending.
func SortArcsByID(arcs []*Arc) {
	sort.SliceStable(arcs, func(i, j int) bool { return arcs[i].ID() < arcs[j].ID() })
}
