// Package contexts implements the context system passes: expanding
// enabled-subsystem contexts, placing enable boundary nodes, context
// discovery and marking, per-partition replication of context decision
// drivers, encapsulation into ContextFamilyContainer/ContextContainer
// pairs, and creation of ContextVariableUpdate nodes for roots with
// persistent decision state.
//
// Ordering matters: discovery must run before blocking (so blocking
// groups honor contexts) and state-update insertion must run after
// discovery (a state-update order arc would otherwise hide nodes from
// mux cones). The pipeline driver enforces the order.
package contexts
