package rtlsyn_test

import (
	"testing"

	syn "github.com/hwtoolkit/rtlsyn"
	"github.com/hwtoolkit/rtlsyn/rtl"
)

// AST construction shorthand for tests.

func id(n string) *rtl.Ident                { return &rtl.Ident{Name: n} }
func num(v int64) *rtl.Const                { return &rtl.Const{Value: v} }
func bits(w int64) rtl.Expr                 { return &rtl.Const{Value: w} }
func bin(op string, x, y rtl.Expr) rtl.Expr { return &rtl.Binary{Op: op, X: x, Y: y} }

func inPort(name string, w int64) rtl.Port {
	return rtl.Port{Name: name, Dir: rtl.Input, Width: bits(w)}
}

func outPort(name string, w int64) rtl.Port {
	return rtl.Port{Name: name, Dir: rtl.Output, Width: bits(w)}
}

func assign(lhs string, rhs rtl.Expr) rtl.Item {
	return &rtl.Assign{LHS: id(lhs), RHS: rhs}
}

func nb(lhs string, rhs rtl.Expr) rtl.Stmt  { return &rtl.NBAssign{LHS: id(lhs), RHS: rhs} }
func ba(lhs string, rhs rtl.Expr) rtl.Stmt  { return &rtl.BAssign{LHS: id(lhs), RHS: rhs} }
func block(stmts ...rtl.Stmt) rtl.Stmt      { return &rtl.Block{Stmts: stmts} }
func iff(c rtl.Expr, t, e rtl.Stmt) rtl.Stmt { return &rtl.If{Cond: c, Then: t, Else: e} }

func posedge(clk string, body rtl.Stmt) rtl.Item {
	return &rtl.AlwaysFF{Events: []rtl.EdgeEvent{{Posedge: true, Signal: clk}}, Body: body}
}

func design(mods ...*rtl.Module) *rtl.Design {
	d := rtl.NewDesign(mods[0].Name)
	for _, m := range mods {
		d.AddModule(m)
	}
	return d
}

func TestElaborate_assign(t *testing.T) {
	m, err := syn.Elaborate(design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("a", 4), inPort("b", 4), outPort("y", 4)},
		Items: []rtl.Item{assign("y", bin(rtl.OpAnd, id("a"), id("b")))},
	}))
	if err != nil {
		t.Fatal(err)
	}
	y := m.Signal("y")
	if y == nil || y.Width != 4 || y.Kind != syn.KindWire || !y.IsOutput {
		t.Fatalf("bad output signal: %+v", y)
	}
	if y.Driver == syn.NoExpr {
		t.Fatal("y has no driver")
	}
	if got := len(m.Inputs()); got != 2 {
		t.Fatalf("got %d inputs, want 2", got)
	}
	if err := syn.ValidateModule(m); err != nil {
		t.Fatal(err)
	}
}

func TestElaborate_parameters(t *testing.T) {
	child := &rtl.Module{
		Name:   "pass",
		Params: []rtl.Param{{Name: "W", Default: num(4)}},
		Ports: []rtl.Port{
			{Name: "d", Dir: rtl.Input, Width: id("W")},
			{Name: "q", Dir: rtl.Output, Width: id("W")},
		},
		Items: []rtl.Item{assign("q", id("d"))},
	}
	top := &rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("x", 8), outPort("y", 8), inPort("x4", 4), outPort("y4", 4)},
		Items: []rtl.Item{
			&rtl.Instance{
				Module:         "pass",
				Name:           "u0",
				ParamOverrides: map[string]rtl.Expr{"W": num(8)},
				PortConns:      map[string]rtl.Expr{"d": id("x"), "q": id("y")},
			},
			&rtl.Instance{
				Module:    "pass",
				Name:      "u1",
				PortConns: map[string]rtl.Expr{"d": id("x4"), "q": id("y4")},
			},
		},
	}
	m, err := syn.Elaborate(design(top, child))
	if err != nil {
		t.Fatal(err)
	}
	if s := m.Signal("u0.d"); s == nil || s.Width != 8 {
		t.Fatalf("u0.d: %+v", s)
	}
	if s := m.Signal("u1.d"); s == nil || s.Width != 4 {
		t.Fatalf("u1.d: %+v", s)
	}
	if s := m.Signal("y"); s.Driver == syn.NoExpr {
		t.Fatal("y not driven by child output")
	}
	if err := syn.ValidateModule(m); err != nil {
		t.Fatal(err)
	}
}

func TestElaborate_unknown_param_override(t *testing.T) {
	child := &rtl.Module{Name: "leaf"}
	top := &rtl.Module{
		Name: "top",
		Items: []rtl.Item{&rtl.Instance{
			Module:         "leaf",
			Name:           "u0",
			ParamOverrides: map[string]rtl.Expr{"BOGUS": num(1)},
		}},
	}
	_, err := syn.Elaborate(design(top, child))
	if _, ok := err.(*syn.UnresolvedParameterError); !ok {
		t.Fatalf("got %v, want UnresolvedParameterError", err)
	}
}

func TestElaborate_instantiation_cycle(t *testing.T) {
	a := &rtl.Module{
		Name:  "a",
		Items: []rtl.Item{&rtl.Instance{Module: "b", Name: "u"}},
	}
	b := &rtl.Module{
		Name:  "b",
		Items: []rtl.Item{&rtl.Instance{Module: "a", Name: "v"}},
	}
	_, err := syn.Elaborate(design(a, b))
	if _, ok := err.(*syn.InstantiationCycleError); !ok {
		t.Fatalf("got %v, want InstantiationCycleError", err)
	}
}

func TestElaborate_register_inference(t *testing.T) {
	m, err := syn.Elaborate(design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("clk", 1), inPort("d", 4), outPort("q", 4)},
		Items: []rtl.Item{posedge("clk", nb("q", id("d")))},
	}))
	if err != nil {
		t.Fatal(err)
	}
	q := m.Signal("q")
	if q.Kind != syn.KindRegister {
		t.Fatalf("q kind = %v, want register", q.Kind)
	}
	if q.Clock != "clk" {
		t.Fatalf("q clock = %q, want clk", q.Clock)
	}
	if q.Reset != syn.NoExpr {
		t.Fatal("q has a reset, want none")
	}
	if got := len(m.Registers()); got != 1 {
		t.Fatalf("got %d registers, want 1", got)
	}
}

func TestElaborate_sync_reset(t *testing.T) {
	m, err := syn.Elaborate(design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("clk", 1), inPort("rst", 1), inPort("d", 4), outPort("q", 4)},
		Items: []rtl.Item{posedge("clk",
			iff(id("rst"), nb("q", num(0)), nb("q", id("d"))),
		)},
	}))
	if err != nil {
		t.Fatal(err)
	}
	q := m.Signal("q")
	if q.Reset == syn.NoExpr || q.ResetValue == syn.NoExpr {
		t.Fatal("reset not hoisted")
	}
	if n := m.Exprs.Node(q.ResetValue); n.Op != syn.XConst || n.Value != 0 {
		t.Fatalf("reset value node: %+v", n)
	}
}

func TestElaborate_nonconstant_reset_folds_into_driver(t *testing.T) {
	// if the reset branch loads a non-constant, it stays part of the
	// next-state expression instead of becoming a reset
	m, err := syn.Elaborate(design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("clk", 1), inPort("rst", 1), inPort("d", 4), inPort("e", 4), outPort("q", 4)},
		Items: []rtl.Item{posedge("clk",
			iff(id("rst"), nb("q", id("e")), nb("q", id("d"))),
		)},
	}))
	if err != nil {
		t.Fatal(err)
	}
	q := m.Signal("q")
	if q.Reset != syn.NoExpr {
		t.Fatal("non-constant reset should not be hoisted")
	}
	if m.Exprs.Node(q.Driver).Op != syn.XCond {
		t.Fatalf("driver op = %v, want cond", m.Exprs.Node(q.Driver).Op)
	}
}

func TestElaborate_multiple_drivers(t *testing.T) {
	_, err := syn.Elaborate(design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("a", 1), inPort("b", 1), outPort("y", 1)},
		Items: []rtl.Item{
			assign("y", id("a")),
			assign("y", id("b")),
		},
	}))
	if _, ok := err.(*syn.MultipleDriverError); !ok {
		t.Fatalf("got %v, want MultipleDriverError", err)
	}
}

func TestElaborate_incomplete_comb_driver(t *testing.T) {
	_, err := syn.Elaborate(design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("en", 1), inPort("a", 1), outPort("y", 1)},
		Items: []rtl.Item{&rtl.AlwaysComb{
			Body: iff(id("en"), ba("y", id("a")), nil),
		}},
	}))
	if _, ok := err.(*syn.IncompleteDriverError); !ok {
		t.Fatalf("got %v, want IncompleteDriverError", err)
	}
}

func TestElaborate_undriven_output(t *testing.T) {
	_, err := syn.Elaborate(design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("a", 1), outPort("y", 1)},
	}))
	if _, ok := err.(*syn.IncompleteDriverError); !ok {
		t.Fatalf("got %v, want IncompleteDriverError", err)
	}
}

func TestElaborate_generate_unroll(t *testing.T) {
	child := &rtl.Module{
		Name:  "inv",
		Ports: []rtl.Port{inPort("d", 4), outPort("q", 4)},
		Items: []rtl.Item{assign("q", &rtl.Unary{Op: rtl.OpBitNot, X: id("d")})},
	}
	top := &rtl.Module{
		Name:   "top",
		Params: []rtl.Param{{Name: "N", Default: num(3)}},
		Ports:  []rtl.Port{inPort("x", 4)},
		Items: []rtl.Item{&rtl.GenFor{
			Var:  "i",
			From: num(0),
			To:   id("N"),
			Step: num(1),
			Body: []rtl.Item{&rtl.Instance{
				Module:    "inv",
				Name:      "u",
				PortConns: map[string]rtl.Expr{"d": id("x")},
			}},
		}},
	}
	m, err := syn.Elaborate(design(top, child))
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"u[0].q", "u[1].q", "u[2].q"} {
		if m.Signal(name) == nil {
			t.Fatalf("missing unrolled signal %s", name)
		}
	}
	if m.Signal("u[3].q") != nil {
		t.Fatal("loop unrolled too far")
	}
}

func TestElaborate_unresolvable_loop_bound(t *testing.T) {
	_, err := syn.Elaborate(design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("x", 4)},
		Items: []rtl.Item{&rtl.GenFor{
			Var:  "i",
			From: num(0),
			To:   id("x"), // a signal, not a parameter
			Step: num(1),
		}},
	}))
	if _, ok := err.(*syn.UnresolvableLoopBoundError); !ok {
		t.Fatalf("got %v, want UnresolvableLoopBoundError", err)
	}
}

func TestElaborate_inout_unsupported(t *testing.T) {
	_, err := syn.Elaborate(design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{{Name: "p", Dir: rtl.Inout, Width: bits(1)}},
	}))
	if _, ok := err.(*syn.UnsupportedConstructError); !ok {
		t.Fatalf("got %v, want UnsupportedConstructError", err)
	}
}

func TestElaborate_nonconstant_multiply(t *testing.T) {
	_, err := syn.Elaborate(design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("a", 4), inPort("b", 4), outPort("y", 4)},
		Items: []rtl.Item{assign("y", bin(rtl.OpMul, id("a"), id("b")))},
	}))
	if _, ok := err.(*syn.UnsupportedConstructError); !ok {
		t.Fatalf("got %v, want UnsupportedConstructError", err)
	}
}

func TestElaborate_connection_width_mismatch(t *testing.T) {
	child := &rtl.Module{
		Name:  "leaf",
		Ports: []rtl.Port{inPort("d", 4)},
	}
	top := &rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("x", 8)},
		Items: []rtl.Item{&rtl.Instance{
			Module:    "leaf",
			Name:      "u0",
			PortConns: map[string]rtl.Expr{"d": id("x")},
		}},
	}
	_, err := syn.Elaborate(design(top, child))
	if _, ok := err.(*syn.WidthMismatchError); !ok {
		t.Fatalf("got %v, want WidthMismatchError", err)
	}
}

func TestElaborate_unconnected_input_grounded(t *testing.T) {
	child := &rtl.Module{
		Name:  "leaf",
		Ports: []rtl.Port{inPort("d", 4), outPort("q", 4)},
		Items: []rtl.Item{assign("q", id("d"))},
	}
	top := &rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{outPort("y", 4)},
		Items: []rtl.Item{&rtl.Instance{
			Module:    "leaf",
			Name:      "u0",
			PortConns: map[string]rtl.Expr{"q": id("y")},
		}},
	}
	m, err := syn.Elaborate(design(top, child))
	if err != nil {
		t.Fatal(err)
	}
	d := m.Signal("u0.d")
	if d == nil || d.Driver == syn.NoExpr {
		t.Fatal("unconnected input not grounded")
	}
	if n := m.Exprs.Node(d.Driver); n.Op != syn.XConst || n.Value != 0 {
		t.Fatalf("ground driver: %+v", n)
	}
}

func TestElaborate_implicit_wire(t *testing.T) {
	m, err := syn.Elaborate(design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("a", 1), outPort("y", 1)},
		Items: []rtl.Item{
			assign("t", id("a")), // t never declared
			assign("y", id("t")),
		},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if s := m.Signal("t"); s == nil || s.Width != 1 {
		t.Fatalf("implicit wire t: %+v", s)
	}
}

func TestElaborate_prunes_dead_wires(t *testing.T) {
	m, err := syn.Elaborate(design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("a", 1), outPort("y", 1)},
		Decls: []rtl.Decl{{Name: "dead", Width: bits(4)}},
		Items: []rtl.Item{assign("y", id("a"))},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if m.Signal("dead") != nil {
		t.Fatal("undriven unused wire survived elaboration")
	}
}
