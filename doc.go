// Module vitis-sub000 is a dataflow-to-software compiler: it takes a
// hierarchical, typed signal-flow graph describing a streaming DSP
// system and produces C sources and build scripts for a multi-threaded
// implementation of that graph, together with a single-threaded
// reference path.
//
// Package map, leaves first:
//
//   - numeric     - data types, numeric literals, C variables
//   - core        - the graph IR: nodes, ports, arcs, hierarchy, contexts
//   - nodes       - the node library: primitives, context roots, FIFOs
//   - passes      - prune, partition propagation, state-update insertion
//   - contexts    - context discovery, replication, encapsulation
//   - multirate   - clock-domain specialization and rate validation
//   - blocking    - blocking/sub-blocking with deferred delay expansion
//   - multithread - FIFO insertion, delay absorption, merge, deadlock
//   - sched       - topological scheduling, order verification, SCC
//   - emit        - single- and multi-threaded C emission
//   - graphml     - GraphML import/export and checkpoint dumps
//   - pipeline    - the fixed-order pass orchestration
//   - cmd/*       - the importer and the two generator drivers
package vitis
