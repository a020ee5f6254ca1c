package rtlsyn

import (
	"github.com/hwtoolkit/rtlsyn/rtl"
)

// A processKind is the verdict of the structural process classifier.
//
type processKind int

const (
	procCombinational processKind = iota
	procSequential
)

// classifyProcess inspects the shape of a process block sensitivity
// list. A single rising-edge event makes the block sequential on that
// clock; anything else in an edge-sensitive list is outside the subset.
//
func classifyProcess(events []rtl.EdgeEvent) (kind processKind, clock string, ok bool) {
	if len(events) == 0 {
		return procCombinational, "", true
	}
	if len(events) == 1 && events[0].Posedge {
		return procSequential, events[0].Signal, true
	}
	return 0, "", false
}

// elabAlwaysFF infers one register per signal assigned in a clocked
// process: the block's assignment logic becomes the signal's next-state
// expression, with a leading unconditional reset test hoisted out as a
// synchronous reset.
//
func (ctx *elabCtx) elabAlwaysFF(sc *scope, ff *rtl.AlwaysFF) error {
	kind, clockName, ok := classifyProcess(ff.Events)
	if !ok || kind != procSequential {
		return &UnsupportedConstructError{Module: sc.mod.Name, Construct: "unsupported sensitivity list"}
	}
	clock := ctx.lookupOrCreate(sc, clockName)

	targets, err := collectTargets(sc, ff.Body)
	if err != nil {
		return err
	}
	a := ctx.out.Exprs
	for _, name := range targets {
		s := ctx.lookupOrCreate(sc, name)
		if ctx.driven[s.Name] {
			return &MultipleDriverError{Module: sc.mod.Name, Signal: s.Name}
		}
		ctx.driven[s.Name] = true
		s.Kind = KindRegister
		s.Clock = clock.Name

		self := a.SignalRef(s.Name, s.Width, s.Signed)
		body := unwrapBlock(ff.Body)

		// hoist a leading `if (rst) target <= constant;` as the
		// synchronous reset of this register
		if iff, ok := body.(*rtl.If); ok {
			if rhs, ok := resetAssign(iff.Then, name); ok {
				if _, isConst := constEval(rhs, sc.params); isConst {
					cond, err := ctx.elabCond(sc, iff.Cond)
					if err != nil {
						return err
					}
					val, err := ctx.elabExpr(sc, rhs, s.Width)
					if err != nil {
						return err
					}
					s.Reset = cond
					s.ResetValue = ctx.extend(val, s.Width, s.Signed)
					next := self
					if iff.Else != nil {
						next, err = ctx.extract(sc, iff.Else, name, s, self, false)
						if err != nil {
							return err
						}
					}
					s.Driver = next
					continue
				}
			}
		}

		next, err := ctx.extract(sc, ff.Body, name, s, self, false)
		if err != nil {
			return err
		}
		s.Driver = next
	}
	return nil
}

// elabAlwaysComb turns each signal assigned in a combinational process
// into a wire driven by a priority expression over the block's control
// flow. A path that leaves a signal unassigned is an error: no latches.
//
func (ctx *elabCtx) elabAlwaysComb(sc *scope, ac *rtl.AlwaysComb) error {
	targets, err := collectTargets(sc, ac.Body)
	if err != nil {
		return err
	}
	for _, name := range targets {
		s := ctx.lookupOrCreate(sc, name)
		if ctx.driven[s.Name] {
			return &MultipleDriverError{Module: sc.mod.Name, Signal: s.Name}
		}
		drv, err := ctx.extract(sc, ac.Body, name, s, NoExpr, true)
		if err != nil {
			return err
		}
		if drv == NoExpr {
			return &IncompleteDriverError{Module: ctx.out.Name, Signal: s.Name}
		}
		s.Driver = drv
		ctx.driven[s.Name] = true
	}
	return nil
}

// extract evaluates what stmt does to the named target, threading the
// current value down the control-flow tree so branches know their
// starting state. It returns the expression the target holds after the
// statement. comb mode treats an unassigned path as an error.
//
func (ctx *elabCtx) extract(sc *scope, stmt rtl.Stmt, target string, s *Signal, cur ExprID, comb bool) (ExprID, error) {
	a := ctx.out.Exprs
	switch stmt := stmt.(type) {
	case *rtl.Block:
		var err error
		for _, st := range stmt.Stmts {
			cur, err = ctx.extract(sc, st, target, s, cur, comb)
			if err != nil {
				return NoExpr, err
			}
		}
		return cur, nil

	case *rtl.NBAssign:
		return ctx.extractAssign(sc, stmt.LHS, stmt.RHS, target, s, cur)
	case *rtl.BAssign:
		return ctx.extractAssign(sc, stmt.LHS, stmt.RHS, target, s, cur)

	case *rtl.If:
		cond, err := ctx.elabCond(sc, stmt.Cond)
		if err != nil {
			return NoExpr, err
		}
		thn, err := ctx.extract(sc, stmt.Then, target, s, cur, comb)
		if err != nil {
			return NoExpr, err
		}
		els := cur
		if stmt.Else != nil {
			els, err = ctx.extract(sc, stmt.Else, target, s, cur, comb)
			if err != nil {
				return NoExpr, err
			}
		}
		if thn == els {
			// both branches agree, no selection needed
			return thn, nil
		}
		if comb && (thn == NoExpr || els == NoExpr) {
			return NoExpr, &IncompleteDriverError{Module: ctx.out.Name, Signal: s.Name}
		}
		return a.Add(ExprNode{Op: XCond, Width: s.Width, Signed: s.Signed, Args: []ExprID{cond, thn}, Else: els}), nil

	case *rtl.Case:
		return ctx.extractCase(sc, stmt, target, s, cur, comb)
	}
	return NoExpr, &UnsupportedConstructError{Module: sc.mod.Name, Construct: "unknown statement"}
}

func (ctx *elabCtx) extractAssign(sc *scope, lhs rtl.Ref, rhs rtl.Expr, target string, s *Signal, cur ExprID) (ExprID, error) {
	if lhs.Base() != target {
		return cur, nil
	}
	id, err := ctx.elabExpr(sc, rhs, s.Width)
	if err != nil {
		return NoExpr, err
	}
	return ctx.extend(id, s.Width, s.Signed), nil
}

// extractCase builds a priority conditional from a case statement:
// branch order is source order, so the first matching item wins, and
// unmatched subjects route to the default. A missing default is kept as
// an absent else branch for the bit blaster to reject, unless an
// earlier assignment already covers it.
//
func (ctx *elabCtx) extractCase(sc *scope, cs *rtl.Case, target string, s *Signal, cur ExprID, comb bool) (ExprID, error) {
	if !stmtAssigns(cs, target) {
		return cur, nil
	}
	a := ctx.out.Exprs
	subj, err := ctx.elabExpr(sc, cs.Subject, 0)
	if err != nil {
		return NoExpr, err
	}
	subjW := a.Node(subj).Width

	els := cur
	if cs.Default != nil {
		els, err = ctx.extract(sc, cs.Default, target, s, cur, comb)
		if err != nil {
			return NoExpr, err
		}
	}

	var args []ExprID
	for _, item := range cs.Items {
		cond := NoExpr
		for _, v := range item.Values {
			val, err := ctx.elabExpr(sc, v, subjW)
			if err != nil {
				return NoExpr, err
			}
			val = ctx.extend(val, subjW, a.Node(val).Signed)
			eq := a.Add(ExprNode{Op: XEq, Width: 1, Args: []ExprID{subj, val}, Else: NoExpr})
			if cond == NoExpr {
				cond = eq
			} else {
				// multiple match values on one branch OR together
				cond = a.Add(ExprNode{Op: XLOr, Width: 1, Args: []ExprID{cond, eq}, Else: NoExpr})
			}
		}
		if cond == NoExpr {
			return NoExpr, &UnsupportedConstructError{Module: sc.mod.Name, Construct: "case item without match values"}
		}
		val, err := ctx.extract(sc, item.Body, target, s, cur, comb)
		if err != nil {
			return NoExpr, err
		}
		if comb && val == NoExpr {
			return NoExpr, &IncompleteDriverError{Module: ctx.out.Name, Signal: s.Name}
		}
		args = append(args, cond, val)
	}
	return a.Add(ExprNode{Op: XCond, Width: s.Width, Signed: s.Signed, Args: args, Else: els}), nil
}

// stmtAssigns reports whether stmt assigns the named target anywhere.
//
func stmtAssigns(stmt rtl.Stmt, target string) bool {
	switch stmt := stmt.(type) {
	case *rtl.Block:
		for _, st := range stmt.Stmts {
			if stmtAssigns(st, target) {
				return true
			}
		}
	case *rtl.NBAssign:
		return stmt.LHS.Base() == target
	case *rtl.BAssign:
		return stmt.LHS.Base() == target
	case *rtl.If:
		if stmtAssigns(stmt.Then, target) {
			return true
		}
		return stmt.Else != nil && stmtAssigns(stmt.Else, target)
	case *rtl.Case:
		for _, it := range stmt.Items {
			if stmtAssigns(it.Body, target) {
				return true
			}
		}
		return stmt.Default != nil && stmtAssigns(stmt.Default, target)
	}
	return false
}

// collectTargets returns the names assigned anywhere under stmt, in
// first-assignment order.
//
func collectTargets(sc *scope, stmt rtl.Stmt) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	var walk func(rtl.Stmt) error
	add := func(lhs rtl.Ref) error {
		if _, ok := lhs.(*rtl.Ident); !ok {
			return &UnsupportedConstructError{Module: sc.mod.Name, Construct: "assignment to bit or part select"}
		}
		if n := lhs.Base(); !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
		return nil
	}
	walk = func(stmt rtl.Stmt) error {
		switch stmt := stmt.(type) {
		case *rtl.Block:
			for _, st := range stmt.Stmts {
				if err := walk(st); err != nil {
					return err
				}
			}
		case *rtl.NBAssign:
			return add(stmt.LHS)
		case *rtl.BAssign:
			return add(stmt.LHS)
		case *rtl.If:
			if err := walk(stmt.Then); err != nil {
				return err
			}
			if stmt.Else != nil {
				return walk(stmt.Else)
			}
		case *rtl.Case:
			for _, it := range stmt.Items {
				if err := walk(it.Body); err != nil {
					return err
				}
			}
			if stmt.Default != nil {
				return walk(stmt.Default)
			}
		}
		return nil
	}
	if err := walk(stmt); err != nil {
		return nil, err
	}
	return out, nil
}

// unwrapBlock strips single-statement begin/end wrappers.
//
func unwrapBlock(stmt rtl.Stmt) rtl.Stmt {
	for {
		b, ok := stmt.(*rtl.Block)
		if !ok || len(b.Stmts) != 1 {
			return stmt
		}
		stmt = b.Stmts[0]
	}
}

// resetAssign reports whether stmt is (or wraps) a sole unconditional
// assignment to target, returning its right-hand side.
//
func resetAssign(stmt rtl.Stmt, target string) (rtl.Expr, bool) {
	switch stmt := unwrapBlock(stmt).(type) {
	case *rtl.NBAssign:
		if stmt.LHS.Base() == target {
			return stmt.RHS, true
		}
	case *rtl.BAssign:
		if stmt.LHS.Base() == target {
			return stmt.RHS, true
		}
	case *rtl.Block:
		for _, st := range stmt.Stmts {
			if rhs, ok := resetAssign(st, target); ok {
				return rhs, ok
			}
		}
	}
	return nil, false
}
