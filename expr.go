package rtlsyn

// An ExprID addresses an expression node in an arena. Expressions form
// DAGs: shared sub-expressions are shared ids, never copies.
//
type ExprID int32

// NoExpr marks an absent expression (no reset, no default branch).
//
const NoExpr ExprID = -1

// An ExprOp tags an expression node.
//
type ExprOp uint8

// Expression node kinds.
const (
	XConst ExprOp = iota
	XSignal
	XNot    // logical not, 1 bit
	XBitNot // bitwise complement
	XRedAnd // reduction forms, 1 bit
	XRedOr
	XRedXor
	XAnd
	XOr
	XXor
	XAdd
	XSub
	XShl // shift by constant, amount in Value
	XShr
	XEq // comparisons, 1 bit
	XNeq
	XLt
	XLe
	XGt
	XGe
	XLAnd // logical and/or, 1 bit
	XLOr
	XCond   // priority branches: Args = cond0,val0,cond1,val1,... Else = default
	XSlice  // Args[0] bits Lo..Hi inclusive
	XConcat // Args in LSB-first order
)

var exprOpNames = map[ExprOp]string{
	XConst: "const", XSignal: "signal", XNot: "!", XBitNot: "~",
	XRedAnd: "&(red)", XRedOr: "|(red)", XRedXor: "^(red)",
	XAnd: "&", XOr: "|", XXor: "^", XAdd: "+", XSub: "-",
	XShl: "<<", XShr: ">>", XEq: "==", XNeq: "!=",
	XLt: "<", XLe: "<=", XGt: ">", XGe: ">=", XLAnd: "&&", XLOr: "||",
	XCond: "cond", XSlice: "slice", XConcat: "concat",
}

func (op ExprOp) String() string {
	if s, ok := exprOpNames[op]; ok {
		return s
	}
	return "op(?)"
}

// An ExprNode is one node of an expression DAG. Width is the node's
// fully resolved result width in bits.
//
type ExprNode struct {
	Op     ExprOp
	Width  int
	Signed bool
	Value  int64  // XConst value; XShl/XShr shift amount
	Signal string // XSignal name
	Args   []ExprID
	Else   ExprID // XCond default branch
	Lo, Hi int    // XSlice bit range, inclusive
}

// An ExprArena owns expression nodes addressed by index.
//
type ExprArena struct {
	nodes []ExprNode
}

// Add appends a node and returns its id.
//
func (a *ExprArena) Add(n ExprNode) ExprID {
	if n.Else == 0 && n.Op != XCond {
		n.Else = NoExpr
	}
	a.nodes = append(a.nodes, n)
	return ExprID(len(a.nodes) - 1)
}

// Node returns the node for id.
//
func (a *ExprArena) Node(id ExprID) *ExprNode {
	return &a.nodes[id]
}

// Len returns the node count.
//
func (a *ExprArena) Len() int { return len(a.nodes) }

// Const adds a constant node of the given width.
//
func (a *ExprArena) Const(v int64, width int, signed bool) ExprID {
	return a.Add(ExprNode{Op: XConst, Width: width, Signed: signed, Value: v, Else: NoExpr})
}

// SignalRef adds a reference to a signal.
//
func (a *ExprArena) SignalRef(name string, width int, signed bool) ExprID {
	return a.Add(ExprNode{Op: XSignal, Width: width, Signed: signed, Signal: name, Else: NoExpr})
}

func mask(v int64, w int) int64 {
	if w >= 64 {
		return v
	}
	return v & (1<<uint(w) - 1)
}

func signedVal(v int64, w int) int64 {
	if w >= 64 {
		return v
	}
	v = mask(v, w)
	if v&(1<<uint(w-1)) != 0 {
		v -= 1 << uint(w)
	}
	return v
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Eval evaluates node id with signal values supplied by look. Results
// are truncated to each node's width. Signed operands are
// sign-extended for comparisons.
//
func (a *ExprArena) Eval(id ExprID, look func(name string) int64) int64 {
	n := &a.nodes[id]
	switch n.Op {
	case XConst:
		return mask(n.Value, n.Width)
	case XSignal:
		return mask(look(n.Signal), n.Width)
	case XNot:
		return b2i(a.Eval(n.Args[0], look) == 0)
	case XBitNot:
		return mask(^a.Eval(n.Args[0], look), n.Width)
	case XRedAnd:
		x := a.Eval(n.Args[0], look)
		return b2i(x == mask(-1, a.nodes[n.Args[0]].Width))
	case XRedOr:
		return b2i(a.Eval(n.Args[0], look) != 0)
	case XRedXor:
		x := a.Eval(n.Args[0], look)
		var p int64
		for ; x != 0; x >>= 1 {
			p ^= x & 1
		}
		return p
	case XAnd:
		return mask(a.Eval(n.Args[0], look)&a.Eval(n.Args[1], look), n.Width)
	case XOr:
		return mask(a.Eval(n.Args[0], look)|a.Eval(n.Args[1], look), n.Width)
	case XXor:
		return mask(a.Eval(n.Args[0], look)^a.Eval(n.Args[1], look), n.Width)
	case XAdd:
		return mask(a.Eval(n.Args[0], look)+a.Eval(n.Args[1], look), n.Width)
	case XSub:
		return mask(a.Eval(n.Args[0], look)-a.Eval(n.Args[1], look), n.Width)
	case XShl:
		return mask(a.Eval(n.Args[0], look)<<uint(n.Value), n.Width)
	case XShr:
		x := a.Eval(n.Args[0], look)
		if n.Signed {
			// arithmetic shift: vacated bits take the sign
			return mask(signedVal(x, n.Width)>>uint(n.Value), n.Width)
		}
		return mask(x>>uint(n.Value), n.Width)
	case XEq:
		return b2i(a.Eval(n.Args[0], look) == a.Eval(n.Args[1], look))
	case XNeq:
		return b2i(a.Eval(n.Args[0], look) != a.Eval(n.Args[1], look))
	case XLt, XLe, XGt, XGe:
		x, y := a.cmpOperands(n, look)
		switch n.Op {
		case XLt:
			return b2i(x < y)
		case XLe:
			return b2i(x <= y)
		case XGt:
			return b2i(x > y)
		default:
			return b2i(x >= y)
		}
	case XLAnd:
		return b2i(a.Eval(n.Args[0], look) != 0 && a.Eval(n.Args[1], look) != 0)
	case XLOr:
		return b2i(a.Eval(n.Args[0], look) != 0 || a.Eval(n.Args[1], look) != 0)
	case XCond:
		for i := 0; i+1 < len(n.Args); i += 2 {
			if a.Eval(n.Args[i], look) != 0 {
				return mask(a.Eval(n.Args[i+1], look), n.Width)
			}
		}
		if n.Else == NoExpr {
			return 0
		}
		return mask(a.Eval(n.Else, look), n.Width)
	case XSlice:
		return mask(a.Eval(n.Args[0], look)>>uint(n.Lo), n.Width)
	case XConcat:
		var v int64
		shift := 0
		for _, p := range n.Args {
			v |= a.Eval(p, look) << uint(shift)
			shift += a.nodes[p].Width
		}
		return mask(v, n.Width)
	}
	return 0
}

func (a *ExprArena) cmpOperands(n *ExprNode, look func(string) int64) (int64, int64) {
	xn, yn := &a.nodes[n.Args[0]], &a.nodes[n.Args[1]]
	x, y := a.Eval(n.Args[0], look), a.Eval(n.Args[1], look)
	if xn.Signed && yn.Signed {
		return signedVal(x, xn.Width), signedVal(y, yn.Width)
	}
	return x, y
}

// refs appends the names of all signals referenced under id to out.
//
func (a *ExprArena) refs(id ExprID, out map[string]bool) {
	if id == NoExpr {
		return
	}
	n := &a.nodes[id]
	if n.Op == XSignal {
		out[n.Signal] = true
	}
	for _, arg := range n.Args {
		a.refs(arg, out)
	}
	if n.Op == XCond {
		a.refs(n.Else, out)
	}
}
