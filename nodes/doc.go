// Package nodes implements the node library: every concrete node
// variant the compiler instantiates beyond the package core sentinels.
//
// Primitives: Sum, Product, Compare, Constant, Delay, TappedDelay, LUT,
// BlackBox, and the synthetic StateUpdate. Context roots: Mux,
// EnabledSubsystem (with its EnableInput/EnableOutput boundary nodes),
// ClockDomain and its Upsample/Downsample specializations, and the
// BlockingDomain family. Inter-thread plumbing: ThreadCrossingFIFO.
// Encapsulation products: ContextFamilyContainer, ContextContainer,
// ContextVariableUpdate.
//
// Every variant embeds core.NodeBase and overrides only the hooks it
// supports; the scheduler and emitter never reference these types except
// through the hook set and a handful of documented type assertions.
//
// Errors:
//
//	ErrBadParameter - a node was configured with an illegal parameter.
//	ErrUnsupported  - a configuration is valid but has no emission path.
package nodes
