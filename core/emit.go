package core

import "fmt"

// CExpr is the r-value returned by a node's value-expression hook: the C
// expression text plus whether it names a variable (and can therefore be
// referenced repeatedly without re-evaluation).
type CExpr struct {
	// Text is the C expression.
	Text string

	// IsVariable is true when Text is a bare variable reference.
	IsVariable bool
}

// NewCExpr constructs a CExpr.
func NewCExpr(text string, isVariable bool) CExpr {
	return CExpr{Text: text, IsVariable: isVariable}
}

// StmtQueue accumulates emitted C statements in order. Node emit hooks
// append statements and return expressions; the emitter drains the queue
// into the generated function body.
//
// The queue also carries the per-pass expression cache: an output port
// that fans out is evaluated once, captured in a temporary, and the
// temporary is handed to every consumer.
type StmtQueue struct {
	stmts   []string
	cache   map[*Port]map[bool]CExpr
	tmpNext int
}

// NewStmtQueue returns an empty statement queue.
func NewStmtQueue() *StmtQueue {
	return &StmtQueue{cache: make(map[*Port]map[bool]CExpr)}
}

// NextTempName hands out a fresh temporary variable name.
func (q *StmtQueue) NextTempName(hint string) string {
	q.tmpNext++

	return fmt.Sprintf("%s_t%d", hint, q.tmpNext)
}

// CachedExpr returns the memoized expression for a port component.
func (q *StmtQueue) CachedExpr(p *Port, imag bool) (CExpr, bool) {
	byImag, ok := q.cache[p]
	if !ok {
		return CExpr{}, false
	}
	e, ok := byImag[imag]

	return e, ok
}

// CacheExpr memoizes the expression for a port component.
func (q *StmtQueue) CacheExpr(p *Port, imag bool, e CExpr) {
	byImag, ok := q.cache[p]
	if !ok {
		byImag = make(map[bool]CExpr)
		q.cache[p] = byImag
	}
	byImag[imag] = e
}

// EmitOutput evaluates the expression driving output port p, memoizing
// the result. Non-variable expressions feeding more than one consumer
// are captured into a temporary so fan-out never re-evaluates work.
func EmitOutput(q *StmtQueue, p *Port, dt func() string, imag bool) (CExpr, error) {
	if e, ok := q.CachedExpr(p, imag); ok {
		return e, nil
	}
	e, err := p.Node().EmitValueExpr(q, p.Num(), imag)
	if err != nil {
		return CExpr{}, err
	}
	if !e.IsVariable && p.ArcCount() > 1 {
		tmp := q.NextTempName(identName(p.Node()))
		q.Add("%s %s = %s;", dt(), tmp, e.Text)
		e = NewCExpr(tmp, true)
	}
	q.CacheExpr(p, imag, e)

	return e, nil
}

// EmitInputExpr evaluates the expression driving input port num of node
// n (through its sole incoming arc).
func EmitInputExpr(q *StmtQueue, n Node, num int, imag bool) (CExpr, error) {
	arc, err := n.InputPort(num).SoleArc()
	if err != nil {
		return CExpr{}, err
	}
	src := arc.SrcPort()
	dt := arc.DataType()

	return EmitOutput(q, src, func() string { return dt.CTypeName() }, imag)
}

// identName renders a C-identifier-safe base name for a node.
func identName(n Node) string {
	var sb []byte
	for _, r := range n.Name() {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb = append(sb, byte(r))
		default:
			sb = append(sb, '_')
		}
	}
	if len(sb) == 0 {
		sb = []byte("node")
	}

	return fmt.Sprintf("%s_n%d", string(sb), n.ID())
}

// CIdentifier exposes the canonical C base name for a node's emitted
// variables.
func CIdentifier(n Node) string { return identName(n) }

// Add appends one formatted statement.
func (q *StmtQueue) Add(format string, args ...interface{}) {
	q.stmts = append(q.stmts, fmt.Sprintf(format, args...))
}

// AddRaw appends a pre-formatted statement verbatim.
func (q *StmtQueue) AddRaw(stmt string) {
	q.stmts = append(q.stmts, stmt)
}

// Statements returns the accumulated statements in emission order.
func (q *StmtQueue) Statements() []string {
	return q.stmts
}

// Len returns the number of queued statements.
func (q *StmtQueue) Len() int { return len(q.stmts) }

// GraphMLParameter is one exported key/value data entry for a node,
// together with the GraphML attribute type of the value.
type GraphMLParameter struct {
	Key      string
	AttrType string // "string", "int", "double", "boolean"
	Value    string
}
