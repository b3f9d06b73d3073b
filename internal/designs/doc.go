// Package designs provides programmatic constructors for the canonical
// test designs used across the compiler's test suites: the
// sum-with-delay-feedback loop, the nested-subsystem hierarchy with a
// type-promotion chain, the enabled subsystem with a fanned Compare
// driver, and the two-partition crossing. Each constructor returns the
// design with IDs assigned, ready for the passes.
package designs
