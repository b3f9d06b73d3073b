// Package graphml reads and writes designs in the GraphML interchange
// format. Two dialects are supported on import: the native dialect
// written by Export, and the dialect produced by the external modeling
// tool's exporter (string path IDs, block_node_type node kinds, numeric
// data-type strings per the grammar in package numeric).
//
// Export writes the design with nested <graph> elements mirroring the
// subsystem hierarchy. The checkpoint dumper emits debug artifacts at
// configurable pipeline stages.
//
// Errors:
//
//	ErrParse - malformed input graph or unknown attribute value.
package graphml
