// Package multithread implements the partition-level transforms: FIFO
// insertion on partition crossings, absorption of adjacent delays into
// the FIFOs' initial state, reshaping of initial conditions to block
// multiples, FIFO merging per partition pair, and the inter-thread
// deadlock check over the partition graph.
//
// Absorption preserves the invariant that the total of FIFO initial
// conditions plus adjacent delay length in each directly-connected
// chain never changes; a configuration the transforms cannot handle
// raises rather than silently skewing state.
package multithread
