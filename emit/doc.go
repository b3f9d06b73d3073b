// Package emit turns a scheduled design into C sources and build
// scripts: a single-threaded reference path (bottom-up, topological, or
// topological-with-contexts traversal) and a multi-threaded path with
// one compute function per partition, thread-crossing FIFO structures,
// I/O boundary threads, a benchmark kernel and driver, a Makefile, a
// per-design parameters header, and optional telemetry helpers.
//
// All artifacts flow through the Sink interface so tests capture them
// in memory while the drivers write the output directory.
//
// Errors:
//
//	ErrIO - the sink could not store an artifact.
package emit
