package vlog

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hwtoolkit/rtlsyn/rtl"
)

// convertFile lowers the concrete syntax tree to rtl modules.
func convertFile(f *sourceFile) ([]*rtl.Module, error) {
	mods := make([]*rtl.Module, 0, len(f.Modules))
	for _, md := range f.Modules {
		m, err := convertModule(md)
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, nil
}

func convertModule(md *moduleDecl) (*rtl.Module, error) {
	m := &rtl.Module{Name: md.Name}
	for _, pd := range md.Params {
		def, err := convertExpr(pd.Default)
		if err != nil {
			return nil, errors.Wrapf(err, "module %s parameter %s", md.Name, pd.Name)
		}
		m.Params = append(m.Params, rtl.Param{Name: pd.Name, Default: def})
	}
	for _, pd := range md.Ports {
		var dir rtl.Dir
		switch pd.Dir {
		case "input":
			dir = rtl.Input
		case "output":
			dir = rtl.Output
		case "inout":
			dir = rtl.Inout
		}
		w, err := widthExpr(pd.Range)
		if err != nil {
			return nil, errors.Wrapf(err, "module %s port %s", md.Name, pd.Name)
		}
		m.Ports = append(m.Ports, rtl.Port{Name: pd.Name, Dir: dir, Width: w, Signed: pd.Signed})
	}
	for _, it := range md.Items {
		if err := convertItem(m, it); err != nil {
			return nil, errors.Wrapf(err, "module %s", md.Name)
		}
	}
	return m, nil
}

func convertItem(m *rtl.Module, it *moduleItem) error {
	switch {
	case it.Net != nil:
		kind := rtl.Wire
		if it.Net.Kind == "reg" {
			kind = rtl.Reg
		}
		w, err := widthExpr(it.Net.Range)
		if err != nil {
			return err
		}
		for _, name := range it.Net.Names {
			m.Decls = append(m.Decls, rtl.Decl{Name: name, Kind: kind, Width: w, Signed: it.Net.Signed})
		}
		return nil
	case it.Genvar != nil:
		// genvar declarations carry no information beyond the loop
		// header; nothing to record.
		return nil
	}
	item, err := convertBodyItem(it)
	if err != nil {
		return err
	}
	m.Items = append(m.Items, item)
	return nil
}

// convertBodyItem handles the items legal both at module level and
// inside a generate loop body.
func convertBodyItem(it *moduleItem) (rtl.Item, error) {
	switch {
	case it.Assign != nil:
		lhs, err := convertRef(it.Assign.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := convertExpr(it.Assign.RHS)
		if err != nil {
			return nil, err
		}
		return &rtl.Assign{LHS: lhs, RHS: rhs}, nil
	case it.Always != nil:
		return convertAlways(it.Always)
	case it.GenFor != nil:
		return convertGenerate(it.GenFor)
	case it.Instance != nil:
		return convertInstance(it.Instance)
	case it.Net != nil, it.Genvar != nil:
		return nil, errors.New("declaration not allowed inside generate body")
	}
	return nil, errors.New("empty module item")
}

func convertAlways(a *alwaysItem) (rtl.Item, error) {
	body, err := convertStmt(a.Body)
	if err != nil {
		return nil, err
	}
	if a.Sens.Star || a.Sens.StarP {
		return &rtl.AlwaysComb{Body: body}, nil
	}
	events := make([]rtl.EdgeEvent, len(a.Sens.Events))
	for i, ev := range a.Sens.Events {
		events[i] = rtl.EdgeEvent{Posedge: ev.Edge == "posedge", Signal: ev.Signal}
	}
	return &rtl.AlwaysFF{Events: events, Body: body}, nil
}

func convertGenerate(g *generateItem) (rtl.Item, error) {
	if g.Cond.Var != g.Var || g.Step.Var != g.Var {
		return nil, errors.Errorf("generate loop variable mismatch: for (%s = ...; %s < ...; %s = ...)",
			g.Var, g.Cond.Var, g.Step.Var)
	}
	from, err := convertExpr(g.From)
	if err != nil {
		return nil, err
	}
	to, err := convertExpr(g.Cond.To)
	if err != nil {
		return nil, err
	}
	step, err := convertExpr(g.Step.Incr)
	if err != nil {
		return nil, err
	}
	gf := &rtl.GenFor{Var: g.Var, From: from, To: to, Step: step}
	for _, it := range g.Body {
		item, err := convertBodyItem(it)
		if err != nil {
			return nil, err
		}
		gf.Body = append(gf.Body, item)
	}
	return gf, nil
}

func convertInstance(in *instanceItem) (rtl.Item, error) {
	inst := &rtl.Instance{
		Module:         in.Module,
		Name:           in.Name,
		ParamOverrides: make(map[string]rtl.Expr),
		PortConns:      make(map[string]rtl.Expr),
	}
	for _, nc := range in.Params {
		if nc.Actual == nil {
			return nil, errors.Errorf("instance %s: parameter override .%s has no value", in.Name, nc.Formal)
		}
		if _, ok := inst.ParamOverrides[nc.Formal]; ok {
			return nil, errors.Errorf("instance %s: duplicate parameter override .%s", in.Name, nc.Formal)
		}
		e, err := convertExpr(nc.Actual)
		if err != nil {
			return nil, err
		}
		inst.ParamOverrides[nc.Formal] = e
	}
	for _, nc := range in.Conns {
		if _, ok := inst.PortConns[nc.Formal]; ok {
			return nil, errors.Errorf("instance %s: duplicate connection .%s", in.Name, nc.Formal)
		}
		if nc.Actual == nil {
			continue // explicitly unconnected
		}
		e, err := convertExpr(nc.Actual)
		if err != nil {
			return nil, err
		}
		inst.PortConns[nc.Formal] = e
	}
	return inst, nil
}

func convertStmt(s *stmt) (rtl.Stmt, error) {
	switch {
	case s.Block != nil:
		b := &rtl.Block{}
		for _, sub := range s.Block.Stmts {
			st, err := convertStmt(sub)
			if err != nil {
				return nil, err
			}
			b.Stmts = append(b.Stmts, st)
		}
		return b, nil
	case s.If != nil:
		cond, err := convertExpr(s.If.Cond)
		if err != nil {
			return nil, err
		}
		thn, err := convertStmt(s.If.Then)
		if err != nil {
			return nil, err
		}
		var els rtl.Stmt
		if s.If.Else != nil {
			if els, err = convertStmt(s.If.Else); err != nil {
				return nil, err
			}
		}
		return &rtl.If{Cond: cond, Then: thn, Else: els}, nil
	case s.Case != nil:
		return convertCase(s.Case)
	case s.Assign != nil:
		lhs, err := convertRef(s.Assign.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := convertExpr(s.Assign.RHS)
		if err != nil {
			return nil, err
		}
		if s.Assign.Op == "<=" {
			return &rtl.NBAssign{LHS: lhs, RHS: rhs}, nil
		}
		return &rtl.BAssign{LHS: lhs, RHS: rhs}, nil
	}
	return nil, errors.New("empty statement")
}

func convertCase(cs *caseStmt) (rtl.Stmt, error) {
	subject, err := convertExpr(cs.Subject)
	if err != nil {
		return nil, err
	}
	c := &rtl.Case{Subject: subject}
	for _, it := range cs.Items {
		ci := rtl.CaseItem{}
		for _, v := range it.Values {
			e, err := convertExpr(v)
			if err != nil {
				return nil, err
			}
			ci.Values = append(ci.Values, e)
		}
		if ci.Body, err = convertStmt(it.Body); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, ci)
	}
	if cs.Default != nil {
		if c.Default, err = convertStmt(cs.Default); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func convertRef(r *refExpr) (rtl.Ref, error) {
	e, err := convertRefExpr(r)
	if err != nil {
		return nil, err
	}
	ref, ok := e.(rtl.Ref)
	if !ok {
		return nil, errors.Errorf("%s is not assignable", r.Name)
	}
	return ref, nil
}

func convertRefExpr(r *refExpr) (rtl.Expr, error) {
	base := &rtl.Ident{Name: r.Name}
	if r.Sel == nil {
		return base, nil
	}
	msb, err := convertExpr(r.Sel.MSB)
	if err != nil {
		return nil, err
	}
	if r.Sel.LSB == nil {
		return &rtl.Index{X: base, At: msb}, nil
	}
	lsb, err := convertExpr(r.Sel.LSB)
	if err != nil {
		return nil, err
	}
	return &rtl.Slice{X: base, MSB: msb, LSB: lsb}, nil
}

// widthExpr turns a [msb:lsb] range into a width expression, or nil for
// a scalar.
func widthExpr(r *rangeSpec) (rtl.Expr, error) {
	if r == nil {
		return nil, nil
	}
	msb, err := convertExpr(r.MSB)
	if err != nil {
		return nil, err
	}
	lsb, err := convertExpr(r.LSB)
	if err != nil {
		return nil, err
	}
	one := &rtl.Const{Value: 1}
	if c, ok := lsb.(*rtl.Const); ok && c.Value == 0 {
		return &rtl.Binary{Op: rtl.OpAdd, X: msb, Y: one}, nil
	}
	return &rtl.Binary{Op: rtl.OpAdd, X: &rtl.Binary{Op: rtl.OpSub, X: msb, Y: lsb}, Y: one}, nil
}

func convertExpr(e *expr) (rtl.Expr, error) {
	cond, err := convertLOr(e.Cond)
	if err != nil {
		return nil, err
	}
	if e.Then == nil {
		return cond, nil
	}
	thn, err := convertExpr(e.Then)
	if err != nil {
		return nil, err
	}
	els, err := convertExpr(e.Else)
	if err != nil {
		return nil, err
	}
	return &rtl.Ternary{Cond: cond, Then: thn, Else: els}, nil
}

func convertLOr(e *lorExpr) (rtl.Expr, error) {
	x, err := convertLAnd(e.Head)
	if err != nil {
		return nil, err
	}
	for _, t := range e.Tail {
		y, err := convertLAnd(t.Rhs)
		if err != nil {
			return nil, err
		}
		x = &rtl.Binary{Op: rtl.OpLOr, X: x, Y: y}
	}
	return x, nil
}

func convertLAnd(e *landExpr) (rtl.Expr, error) {
	x, err := convertBOr(e.Head)
	if err != nil {
		return nil, err
	}
	for _, t := range e.Tail {
		y, err := convertBOr(t.Rhs)
		if err != nil {
			return nil, err
		}
		x = &rtl.Binary{Op: rtl.OpLAnd, X: x, Y: y}
	}
	return x, nil
}

func convertBOr(e *borExpr) (rtl.Expr, error) {
	x, err := convertBXor(e.Head)
	if err != nil {
		return nil, err
	}
	for _, t := range e.Tail {
		y, err := convertBXor(t.Rhs)
		if err != nil {
			return nil, err
		}
		x = &rtl.Binary{Op: rtl.OpOr, X: x, Y: y}
	}
	return x, nil
}

func convertBXor(e *bxorExpr) (rtl.Expr, error) {
	x, err := convertBAnd(e.Head)
	if err != nil {
		return nil, err
	}
	for _, t := range e.Tail {
		y, err := convertBAnd(t.Rhs)
		if err != nil {
			return nil, err
		}
		x = &rtl.Binary{Op: rtl.OpXor, X: x, Y: y}
	}
	return x, nil
}

func convertBAnd(e *bandExpr) (rtl.Expr, error) {
	x, err := convertEq(e.Head)
	if err != nil {
		return nil, err
	}
	for _, t := range e.Tail {
		y, err := convertEq(t.Rhs)
		if err != nil {
			return nil, err
		}
		x = &rtl.Binary{Op: rtl.OpAnd, X: x, Y: y}
	}
	return x, nil
}

func convertEq(e *eqExpr) (rtl.Expr, error) {
	x, err := convertRel(e.Head)
	if err != nil {
		return nil, err
	}
	for _, t := range e.Tail {
		y, err := convertRel(t.Rhs)
		if err != nil {
			return nil, err
		}
		x = &rtl.Binary{Op: t.Op, X: x, Y: y}
	}
	return x, nil
}

func convertRel(e *relExpr) (rtl.Expr, error) {
	x, err := convertShift(e.Head)
	if err != nil {
		return nil, err
	}
	for _, t := range e.Tail {
		y, err := convertShift(t.Rhs)
		if err != nil {
			return nil, err
		}
		x = &rtl.Binary{Op: t.Op, X: x, Y: y}
	}
	return x, nil
}

func convertShift(e *shiftExpr) (rtl.Expr, error) {
	x, err := convertAdd(e.Head)
	if err != nil {
		return nil, err
	}
	for _, t := range e.Tail {
		y, err := convertAdd(t.Rhs)
		if err != nil {
			return nil, err
		}
		x = &rtl.Binary{Op: t.Op, X: x, Y: y}
	}
	return x, nil
}

func convertAdd(e *addExpr) (rtl.Expr, error) {
	x, err := convertMul(e.Head)
	if err != nil {
		return nil, err
	}
	for _, t := range e.Tail {
		y, err := convertMul(t.Rhs)
		if err != nil {
			return nil, err
		}
		x = &rtl.Binary{Op: t.Op, X: x, Y: y}
	}
	return x, nil
}

func convertMul(e *mulExpr) (rtl.Expr, error) {
	x, err := convertUnary(e.Head)
	if err != nil {
		return nil, err
	}
	for _, t := range e.Tail {
		y, err := convertUnary(t.Rhs)
		if err != nil {
			return nil, err
		}
		x = &rtl.Binary{Op: t.Op, X: x, Y: y}
	}
	return x, nil
}

func convertUnary(e *unaryExpr) (rtl.Expr, error) {
	x, err := convertPrimary(e.X)
	if err != nil {
		return nil, err
	}
	for i := len(e.Ops) - 1; i >= 0; i-- {
		switch op := e.Ops[i]; op {
		case "-":
			x = &rtl.Binary{Op: rtl.OpSub, X: &rtl.Const{Value: 0}, Y: x}
		default:
			x = &rtl.Unary{Op: op, X: x}
		}
	}
	return x, nil
}

func convertPrimary(e *primaryExpr) (rtl.Expr, error) {
	switch {
	case e.Sized != nil:
		return parseSized(*e.Sized)
	case e.Number != nil:
		v, err := strconv.ParseInt(*e.Number, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "constant %s", *e.Number)
		}
		return &rtl.Const{Value: v}, nil
	case e.Repl != nil:
		n, err := strconv.ParseInt(e.Repl.Count, 10, 32)
		if err != nil || n < 1 {
			return nil, errors.Errorf("bad replication count %s", e.Repl.Count)
		}
		x, err := convertExpr(e.Repl.X)
		if err != nil {
			return nil, err
		}
		return &rtl.Repl{Count: &rtl.Const{Value: n}, X: x}, nil
	case e.Concat != nil:
		c := &rtl.Concat{}
		for _, p := range e.Concat.Parts {
			x, err := convertExpr(p)
			if err != nil {
				return nil, err
			}
			c.Parts = append(c.Parts, x)
		}
		return c, nil
	case e.Paren != nil:
		return convertExpr(e.Paren)
	case e.Ref != nil:
		return convertRefExpr(e.Ref)
	}
	return nil, errors.New("empty expression")
}

// parseSized parses a sized constant like 4'b0101 or 8'hFF. The x and z
// digits read as 0, matching two-valued synthesis semantics.
func parseSized(tok string) (rtl.Expr, error) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '_':
			return -1
		}
		return r
	}, tok)
	i := strings.IndexByte(s, '\'')
	width, err := strconv.Atoi(s[:i])
	if err != nil || width < 1 || width > 64 {
		return nil, errors.Errorf("bad constant width in %s", tok)
	}
	var base int
	switch s[i+1] {
	case 'b', 'B':
		base = 2
	case 'o', 'O':
		base = 8
	case 'd', 'D':
		base = 10
	case 'h', 'H':
		base = 16
	}
	digits := strings.Map(func(r rune) rune {
		switch r {
		case 'x', 'X', 'z', 'Z':
			return '0'
		}
		return r
	}, s[i+2:])
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "constant %s", tok)
	}
	if width < 64 {
		v &= 1<<uint(width) - 1
	}
	return &rtl.Const{Value: int64(v), Width: width}, nil
}
