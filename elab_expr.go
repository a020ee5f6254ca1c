package rtlsyn

import (
	"github.com/hwtoolkit/rtlsyn/rtl"
)

// constEval folds e to an integer using the parameter environment.
// Signal references make an expression non-constant.
//
func constEval(e rtl.Expr, params map[string]int64) (int64, bool) {
	switch e := e.(type) {
	case *rtl.Const:
		return e.Value, true
	case *rtl.Ident:
		v, ok := params[e.Name]
		return v, ok
	case *rtl.Unary:
		x, ok := constEval(e.X, params)
		if !ok {
			return 0, false
		}
		switch e.Op {
		case rtl.OpLogicalNot:
			return b2i(x == 0), true
		case rtl.OpBitNot:
			return ^x, true
		}
		return 0, false
	case *rtl.Binary:
		x, ok := constEval(e.X, params)
		if !ok {
			return 0, false
		}
		y, ok := constEval(e.Y, params)
		if !ok {
			return 0, false
		}
		switch e.Op {
		case rtl.OpAdd:
			return x + y, true
		case rtl.OpSub:
			return x - y, true
		case rtl.OpMul:
			return x * y, true
		case rtl.OpDiv:
			if y == 0 {
				return 0, false
			}
			return x / y, true
		case rtl.OpAnd:
			return x & y, true
		case rtl.OpOr:
			return x | y, true
		case rtl.OpXor:
			return x ^ y, true
		case rtl.OpShl:
			return x << uint(y), true
		case rtl.OpShr:
			return x >> uint(y), true
		case rtl.OpEq:
			return b2i(x == y), true
		case rtl.OpNeq:
			return b2i(x != y), true
		case rtl.OpLt:
			return b2i(x < y), true
		case rtl.OpLe:
			return b2i(x <= y), true
		case rtl.OpGt:
			return b2i(x > y), true
		case rtl.OpGe:
			return b2i(x >= y), true
		case rtl.OpLAnd:
			return b2i(x != 0 && y != 0), true
		case rtl.OpLOr:
			return b2i(x != 0 || y != 0), true
		}
		return 0, false
	case *rtl.Ternary:
		c, ok := constEval(e.Cond, params)
		if !ok {
			return 0, false
		}
		if c != 0 {
			return constEval(e.Then, params)
		}
		return constEval(e.Else, params)
	}
	return 0, false
}

// unsizedWidth is the fallback width of an unsized constant with no
// context to take a width from.
const unsizedWidth = 32

var binOps = map[string]ExprOp{
	rtl.OpAnd: XAnd, rtl.OpOr: XOr, rtl.OpXor: XXor,
	rtl.OpAdd: XAdd, rtl.OpSub: XSub,
	rtl.OpEq: XEq, rtl.OpNeq: XNeq,
	rtl.OpLt: XLt, rtl.OpLe: XLe, rtl.OpGt: XGt, rtl.OpGe: XGe,
	rtl.OpLAnd: XLAnd, rtl.OpLOr: XLOr,
}

// elabExpr lowers a source expression into the arena, resolving
// parameters to constants and names to flat signals, and inserting
// explicit extension nodes so that word operators see operands of equal
// width. expected is the context width for unsized constants; 0 means
// no context.
//
func (ctx *elabCtx) elabExpr(sc *scope, e rtl.Expr, expected int) (ExprID, error) {
	a := ctx.out.Exprs
	switch e := e.(type) {
	case *rtl.Const:
		w := e.Width
		if w == 0 {
			if w = expected; w == 0 {
				w = unsizedWidth
			}
		}
		return a.Const(e.Value, w, e.Signed), nil

	case *rtl.Ident:
		if v, ok := sc.params[e.Name]; ok {
			w := expected
			if w == 0 {
				w = unsizedWidth
			}
			return a.Const(v, w, false), nil
		}
		s := ctx.lookupOrCreate(sc, e.Name)
		return a.SignalRef(s.Name, s.Width, s.Signed), nil

	case *rtl.Unary:
		return ctx.elabUnary(sc, e, expected)

	case *rtl.Binary:
		return ctx.elabBinary(sc, e, expected)

	case *rtl.Index:
		at, ok := constEval(e.At, sc.params)
		if !ok {
			return NoExpr, &UnsupportedConstructError{Module: sc.mod.Name, Construct: "non-constant bit select"}
		}
		x, err := ctx.elabExpr(sc, e.X, 0)
		if err != nil {
			return NoExpr, err
		}
		if xw := a.Node(x).Width; at < 0 || at >= int64(xw) {
			return NoExpr, &WidthMismatchError{Module: sc.mod.Name, Signal: describeRef(e), Declared: xw, Actual: int(at) + 1}
		}
		return a.Add(ExprNode{Op: XSlice, Width: 1, Args: []ExprID{x}, Lo: int(at), Hi: int(at), Else: NoExpr}), nil

	case *rtl.Slice:
		msb, ok1 := constEval(e.MSB, sc.params)
		lsb, ok2 := constEval(e.LSB, sc.params)
		if !ok1 || !ok2 {
			return NoExpr, &UnsupportedConstructError{Module: sc.mod.Name, Construct: "non-constant part select"}
		}
		x, err := ctx.elabExpr(sc, e.X, 0)
		if err != nil {
			return NoExpr, err
		}
		xw := a.Node(x).Width
		if lsb < 0 || msb < lsb || msb >= int64(xw) {
			return NoExpr, &WidthMismatchError{Module: sc.mod.Name, Signal: describeRef(e), Declared: xw, Actual: int(msb) + 1}
		}
		return a.Add(ExprNode{Op: XSlice, Width: int(msb - lsb + 1), Args: []ExprID{x}, Lo: int(lsb), Hi: int(msb), Else: NoExpr}), nil

	case *rtl.Ternary:
		cond, err := ctx.elabCond(sc, e.Cond)
		if err != nil {
			return NoExpr, err
		}
		thn, err := ctx.elabExpr(sc, e.Then, expected)
		if err != nil {
			return NoExpr, err
		}
		els, err := ctx.elabExpr(sc, e.Else, expected)
		if err != nil {
			return NoExpr, err
		}
		w := a.Node(thn).Width
		if ew := a.Node(els).Width; ew > w {
			w = ew
		}
		thn = ctx.extend(thn, w, a.Node(thn).Signed)
		els = ctx.extend(els, w, a.Node(els).Signed)
		return a.Add(ExprNode{Op: XCond, Width: w, Args: []ExprID{cond, thn}, Else: els}), nil

	case *rtl.Concat:
		// source order is MSB first, the arena stores LSB first
		args := make([]ExprID, 0, len(e.Parts))
		w := 0
		for i := len(e.Parts) - 1; i >= 0; i-- {
			p, err := ctx.elabExpr(sc, e.Parts[i], 0)
			if err != nil {
				return NoExpr, err
			}
			args = append(args, p)
			w += a.Node(p).Width
		}
		return a.Add(ExprNode{Op: XConcat, Width: w, Args: args, Else: NoExpr}), nil

	case *rtl.Repl:
		cnt, ok := constEval(e.Count, sc.params)
		if !ok || cnt < 1 {
			return NoExpr, &UnsupportedConstructError{Module: sc.mod.Name, Construct: "non-constant replication count"}
		}
		x, err := ctx.elabExpr(sc, e.X, 0)
		if err != nil {
			return NoExpr, err
		}
		args := make([]ExprID, cnt)
		for i := range args {
			args[i] = x
		}
		return a.Add(ExprNode{Op: XConcat, Width: int(cnt) * a.Node(x).Width, Args: args, Else: NoExpr}), nil
	}
	return NoExpr, &UnsupportedConstructError{Module: sc.mod.Name, Construct: "unknown expression"}
}

func (ctx *elabCtx) elabUnary(sc *scope, e *rtl.Unary, expected int) (ExprID, error) {
	a := ctx.out.Exprs
	x, err := ctx.elabExpr(sc, e.X, expected)
	if err != nil {
		return NoExpr, err
	}
	switch e.Op {
	case rtl.OpLogicalNot:
		return a.Add(ExprNode{Op: XNot, Width: 1, Args: []ExprID{x}, Else: NoExpr}), nil
	case rtl.OpBitNot:
		return a.Add(ExprNode{Op: XBitNot, Width: a.Node(x).Width, Args: []ExprID{x}, Else: NoExpr}), nil
	case rtl.OpRedAnd:
		return a.Add(ExprNode{Op: XRedAnd, Width: 1, Args: []ExprID{x}, Else: NoExpr}), nil
	case rtl.OpRedOr:
		return a.Add(ExprNode{Op: XRedOr, Width: 1, Args: []ExprID{x}, Else: NoExpr}), nil
	case rtl.OpRedXor:
		return a.Add(ExprNode{Op: XRedXor, Width: 1, Args: []ExprID{x}, Else: NoExpr}), nil
	}
	return NoExpr, &UnsupportedConstructError{Module: sc.mod.Name, Construct: "unary " + e.Op}
}

func (ctx *elabCtx) elabBinary(sc *scope, e *rtl.Binary, expected int) (ExprID, error) {
	a := ctx.out.Exprs
	if v, ok := constEval(e, sc.params); ok {
		w := expected
		if w == 0 {
			w = unsizedWidth
		}
		return a.Const(v, w, false), nil
	}

	switch e.Op {
	case rtl.OpMul, rtl.OpDiv:
		// only constant-foldable in this subset
		return NoExpr, &UnsupportedConstructError{Module: sc.mod.Name, Construct: "non-constant " + e.Op}
	case rtl.OpShl, rtl.OpShr:
		amt, ok := constEval(e.Y, sc.params)
		if !ok || amt < 0 {
			return NoExpr, &UnsupportedConstructError{Module: sc.mod.Name, Construct: "non-constant shift amount"}
		}
		x, err := ctx.elabExpr(sc, e.X, expected)
		if err != nil {
			return NoExpr, err
		}
		op := XShl
		if e.Op == rtl.OpShr {
			op = XShr
		}
		n := a.Node(x)
		return a.Add(ExprNode{Op: op, Width: n.Width, Signed: n.Signed, Value: amt, Args: []ExprID{x}, Else: NoExpr}), nil
	case rtl.OpLAnd, rtl.OpLOr:
		x, err := ctx.elabCond(sc, e.X)
		if err != nil {
			return NoExpr, err
		}
		y, err := ctx.elabCond(sc, e.Y)
		if err != nil {
			return NoExpr, err
		}
		op := XLAnd
		if e.Op == rtl.OpLOr {
			op = XLOr
		}
		return a.Add(ExprNode{Op: op, Width: 1, Args: []ExprID{x, y}, Else: NoExpr}), nil
	}

	op, ok := binOps[e.Op]
	if !ok {
		return NoExpr, &UnsupportedConstructError{Module: sc.mod.Name, Construct: "binary " + e.Op}
	}

	// operand context width: arithmetic results may widen to the
	// assignment target, comparisons only to each other
	opCtx := 0
	if op == XAdd || op == XSub || op == XAnd || op == XOr || op == XXor {
		opCtx = expected
	}
	x, err := ctx.elabExpr(sc, e.X, opCtx)
	if err != nil {
		return NoExpr, err
	}
	y, err := ctx.elabExpr(sc, e.Y, opCtx)
	if err != nil {
		return NoExpr, err
	}
	xn, yn := a.Node(x), a.Node(y)
	w := xn.Width
	if yn.Width > w {
		w = yn.Width
	}
	if opCtx > w {
		w = opCtx
	}
	signed := xn.Signed && yn.Signed
	x = ctx.extend(x, w, xn.Signed)
	y = ctx.extend(y, w, yn.Signed)

	switch op {
	case XEq, XNeq, XLt, XLe, XGt, XGe:
		return a.Add(ExprNode{Op: op, Width: 1, Args: []ExprID{x, y}, Else: NoExpr}), nil
	}
	return a.Add(ExprNode{Op: op, Width: w, Signed: signed, Args: []ExprID{x, y}, Else: NoExpr}), nil
}

// elabCond lowers a condition expression to one bit, inserting a
// reduction OR over wider operands (nonzero test).
//
func (ctx *elabCtx) elabCond(sc *scope, e rtl.Expr) (ExprID, error) {
	id, err := ctx.elabExpr(sc, e, 0)
	if err != nil {
		return NoExpr, err
	}
	a := ctx.out.Exprs
	if a.Node(id).Width == 1 {
		return id, nil
	}
	return a.Add(ExprNode{Op: XRedOr, Width: 1, Args: []ExprID{id}, Else: NoExpr}), nil
}

// extend widens id to w bits by concatenating zero bits, or copies of
// the sign bit when the operand is signed. Ids already at w bits pass
// through untouched.
//
func (ctx *elabCtx) extend(id ExprID, w int, signed bool) ExprID {
	a := ctx.out.Exprs
	n := a.Node(id)
	if n.Width == w {
		return id
	}
	if n.Width > w {
		return a.Add(ExprNode{Op: XSlice, Width: w, Args: []ExprID{id}, Lo: 0, Hi: w - 1, Else: NoExpr})
	}
	pad := w - n.Width
	var fill ExprID
	if signed {
		fill = a.Add(ExprNode{Op: XSlice, Width: 1, Args: []ExprID{id}, Lo: n.Width - 1, Hi: n.Width - 1, Else: NoExpr})
	} else {
		fill = a.Const(0, 1, false)
	}
	args := make([]ExprID, 1, pad+1)
	args[0] = id
	for i := 0; i < pad; i++ {
		args = append(args, fill)
	}
	return a.Add(ExprNode{Op: XConcat, Width: w, Args: args, Else: NoExpr})
}

func describeRef(e rtl.Expr) string {
	if r, ok := e.(rtl.Ref); ok && r.Base() != "" {
		return r.Base()
	}
	return "expression"
}
