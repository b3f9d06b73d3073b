package core

// Context identifies one gated region: a context root together with the
// index of the subcontext the node belongs to. A node's context stack is
// the ordered sequence of nested contexts enclosing it; the node executes
// only when every root on the stack selects the recorded subcontext.
type Context struct {
	// Root is the node whose execution decision defines the context.
	Root ContextRoot

	// SubContext selects which of the root's gated regions the node
	// belongs to (mux data-port index, 0 for enabled subsystems and
	// clock domains).
	SubContext int
}

// NewContext constructs a Context.
func NewContext(root ContextRoot, subContext int) Context {
	return Context{Root: root, SubContext: subContext}
}

// Equals reports identity of root and subcontext index.
func (c Context) Equals(o Context) bool {
	return c.Root == o.Root && c.SubContext == o.SubContext
}

// ContextRoot is the capability implemented by nodes whose execution
// decision gates other nodes: Mux, EnabledSubsystem, ClockDomain, and
// their blocking counterparts.
type ContextRoot interface {
	Node

	// NumSubContexts returns how many gated regions the root defines.
	NumSubContexts() int

	// NodesInSubContext returns the nodes discovered to execute only in
	// subcontext i.
	NodesInSubContext(i int) []Node

	// AddToSubContext records a node as belonging to subcontext i.
	AddToSubContext(i int, n Node)

	// RemoveFromSubContext removes a node from subcontext i.
	RemoveFromSubContext(i int, n Node)

	// ClearSubContextNodes drops all recorded subcontext members,
	// keeping the subcontext count (used before rediscovery).
	ClearSubContextNodes()

	// ContextDecisionDriverArcs returns the arcs whose source computes
	// the root's execution decision (mux select line, enable driver,
	// clock-domain strobe).
	ContextDecisionDriverArcs() []*Arc

	// ShouldReplicateDrivers reports whether the decision driver should
	// be cloned into every partition containing part of the context.
	ShouldReplicateDrivers() bool

	// RequiresContiguousBlocking reports whether all nodes under the
	// root must land in one blocking group (Mux and upsample domains
	// cannot be split across sub-blocks).
	RequiresContiguousBlocking() bool

	// FamilyContainer returns the encapsulation container created for
	// this root in the given partition, or nil before encapsulation.
	FamilyContainer(partition int) Node

	// SetFamilyContainer records the encapsulation container for a
	// partition.
	SetFamilyContainer(partition int, container Node)

	// FamilyContainerPartitions lists partitions with containers, sorted.
	FamilyContainerPartitions() []int
}

// ContextStacksCompatible reports whether one stack is a prefix of the
// other, the compatibility relation arcs must satisfy unless they cross
// a context-family boundary or target a thread-crossing FIFO.
func ContextStacksCompatible(a, b []Context) bool {
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	for i := range short {
		if !short[i].Equals(long[i]) {
			return false
		}
	}

	return true
}

// CommonContextPrefix returns the shared outermost contexts of two
// stacks.
func CommonContextPrefix(a, b []Context) []Context {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var out []Context
	for i := 0; i < n; i++ {
		if !a[i].Equals(b[i]) {
			break
		}
		out = append(out, a[i])
	}

	return out
}

// ContextStacksEqual reports exact equality of two context stacks.
func ContextStacksEqual(a, b []Context) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}

	return true
}

// SubContextRegistry is the bookkeeping shared by every ContextRoot
// implementation: per-subcontext node sets and per-partition family
// containers. Variants embed it alongside NodeBase.
type SubContextRegistry struct {
	subContexts      [][]Node
	familyContainers map[int]Node
}

// EnsureSubContexts grows the registry to hold at least n subcontexts.
func (r *SubContextRegistry) EnsureSubContexts(n int) {
	for len(r.subContexts) < n {
		r.subContexts = append(r.subContexts, nil)
	}
}

// NumSubContexts returns the number of subcontexts tracked.
func (r *SubContextRegistry) NumSubContexts() int { return len(r.subContexts) }

// NodesInSubContext returns the nodes recorded in subcontext i.
func (r *SubContextRegistry) NodesInSubContext(i int) []Node {
	if i < 0 || i >= len(r.subContexts) {
		return nil
	}
	out := make([]Node, len(r.subContexts[i]))
	copy(out, r.subContexts[i])

	return out
}

// AddToSubContext records n in subcontext i, growing as needed.
func (r *SubContextRegistry) AddToSubContext(i int, n Node) {
	r.EnsureSubContexts(i + 1)
	for _, existing := range r.subContexts[i] {
		if existing == n {
			return
		}
	}
	r.subContexts[i] = append(r.subContexts[i], n)
}

// RemoveFromSubContext removes n from subcontext i.
func (r *SubContextRegistry) RemoveFromSubContext(i int, n Node) {
	if i < 0 || i >= len(r.subContexts) {
		return
	}
	for j, existing := range r.subContexts[i] {
		if existing == n {
			r.subContexts[i] = append(r.subContexts[i][:j], r.subContexts[i][j+1:]...)

			return
		}
	}
}

// ClearSubContextNodes drops all recorded nodes, keeping the subcontext
// count. Used when context discovery reruns after blocking.
func (r *SubContextRegistry) ClearSubContextNodes() {
	for i := range r.subContexts {
		r.subContexts[i] = nil
	}
}

// FamilyContainer returns the container for a partition, or nil.
func (r *SubContextRegistry) FamilyContainer(partition int) Node {
	return r.familyContainers[partition]
}

// SetFamilyContainer records the container for a partition.
func (r *SubContextRegistry) SetFamilyContainer(partition int, container Node) {
	if r.familyContainers == nil {
		r.familyContainers = make(map[int]Node)
	}
	r.familyContainers[partition] = container
}

// CloneRegistryFrom copies the registry contents (node pointers still
// referencing the source graph; CopyGraph remaps them afterwards).
func (r *SubContextRegistry) CloneRegistryFrom(src *SubContextRegistry) {
	r.subContexts = make([][]Node, len(src.subContexts))
	for i, ns := range src.subContexts {
		r.subContexts[i] = append([]Node(nil), ns...)
	}
	if src.familyContainers != nil {
		r.familyContainers = make(map[int]Node, len(src.familyContainers))
		for p, n := range src.familyContainers {
			r.familyContainers[p] = n
		}
	}
}

// RemapNodes redirects every recorded node reference through f.
func (r *SubContextRegistry) RemapNodes(f func(Node) Node) {
	for i, ns := range r.subContexts {
		for j, n := range ns {
			r.subContexts[i][j] = f(n)
		}
	}
	for p, n := range r.familyContainers {
		r.familyContainers[p] = f(n)
	}
}

// FamilyContainerPartitions lists partitions with containers, sorted
// ascending.
func (r *SubContextRegistry) FamilyContainerPartitions() []int {
	parts := make([]int, 0, len(r.familyContainers))
	for p := range r.familyContainers {
		parts = append(parts, p)
	}
	sortInts(parts)

	return parts
}
