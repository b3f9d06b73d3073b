// Package pipeline orchestrates the compiler passes in their fixed
// order. The order is load-bearing: moving a pass changes the
// semantics a downstream pass observes (state-update insertion before
// context discovery hides nodes from mux cones; blocking before
// discovery blocks the wrong groups).
//
// Two flows are provided: SingleThreaded emits the flat reference
// path; MultiThreaded runs the full partition pipeline (prune, clock
// domains, contexts, blocking, encapsulation, FIFO insertion,
// absorption, merge, deadlock check, state updates, per-partition
// scheduling, emission).
//
// Progress is logged through logrus with one structured line per pass.
package pipeline
