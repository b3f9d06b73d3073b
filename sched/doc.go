// Package sched implements intra-partition scheduling: a destructive
// topological sort over a clone of the design with a configurable
// tie-break heuristic (BFS, DFS, or seeded random), back-propagation of
// the schedule order onto the original graph, post-schedule order
// verification, and Tarjan strongly-connected-component analysis for
// cycle diagnostics.
//
// The clone preparation disconnects the input master's outputs and the
// outputs of state-holding nodes (their values are constants within a
// cycle) and removes constant nodes, so only true same-cycle
// dependencies constrain the sort. Context family containers are
// scheduled as single units; their members receive consecutive orders.
//
// Errors:
//
//	ErrSchedule - a cycle in the residual graph, or a verification
//	              failure after back-propagation.
package sched
