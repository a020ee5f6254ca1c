package rtlsyn_test

import (
	"reflect"
	"testing"

	syn "github.com/hwtoolkit/rtlsyn"
	"github.com/hwtoolkit/rtlsyn/rtl"
	"github.com/hwtoolkit/rtlsyn/synthtest"
)

// synth runs elaboration and bit blasting with both validation passes.
func synth(t *testing.T, d *rtl.Design) (*syn.Module, *syn.Netlist) {
	t.Helper()
	m, err := syn.Elaborate(d)
	if err != nil {
		t.Fatal(err)
	}
	if err := syn.ValidateModule(m); err != nil {
		t.Fatal(err)
	}
	n, err := syn.BitBlast(m)
	if err != nil {
		t.Fatal(err)
	}
	if err := syn.ValidateNetlist(n); err != nil {
		t.Fatal(err)
	}
	return m, n
}

func TestBlast_bitwise(t *testing.T) {
	m, n := synth(t, design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("a", 4), inPort("b", 4), outPort("y", 4), outPort("z", 1)},
		Items: []rtl.Item{
			assign("y", bin(rtl.OpOr,
				bin(rtl.OpAnd, id("a"), id("b")),
				&rtl.Unary{Op: rtl.OpBitNot, X: bin(rtl.OpXor, id("a"), id("b"))})),
			assign("z", &rtl.Unary{Op: rtl.OpLogicalNot, X: id("a")}),
		},
	}))
	synthtest.CompareCombinational(t, m, n)
}

func TestBlast_add_sub(t *testing.T) {
	m, n := synth(t, design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("a", 4), inPort("b", 4), outPort("s", 4), outPort("d", 4)},
		Items: []rtl.Item{
			assign("s", bin(rtl.OpAdd, id("a"), id("b"))),
			assign("d", bin(rtl.OpSub, id("a"), id("b"))),
		},
	}))
	synthtest.CompareCombinational(t, m, n)
}

func TestBlast_mixed_width_add(t *testing.T) {
	// the narrow operand zero-extends to the result width
	m, n := synth(t, design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("a", 6), inPort("b", 3), outPort("s", 6)},
		Items: []rtl.Item{assign("s", bin(rtl.OpAdd, id("a"), id("b")))},
	}))
	synthtest.CompareCombinational(t, m, n)
}

func TestBlast_comparisons(t *testing.T) {
	m, n := synth(t, design(&rtl.Module{
		Name: "top",
		Ports: []rtl.Port{
			inPort("a", 4), inPort("b", 4),
			outPort("eq", 1), outPort("ne", 1),
			outPort("lt", 1), outPort("le", 1),
			outPort("gt", 1), outPort("ge", 1),
		},
		Items: []rtl.Item{
			assign("eq", bin(rtl.OpEq, id("a"), id("b"))),
			assign("ne", bin(rtl.OpNeq, id("a"), id("b"))),
			assign("lt", bin(rtl.OpLt, id("a"), id("b"))),
			assign("le", bin(rtl.OpLe, id("a"), id("b"))),
			assign("gt", bin(rtl.OpGt, id("a"), id("b"))),
			assign("ge", bin(rtl.OpGe, id("a"), id("b"))),
		},
	}))
	synthtest.CompareCombinational(t, m, n)
}

func TestBlast_signed_compare(t *testing.T) {
	m, n := synth(t, design(&rtl.Module{
		Name: "top",
		Ports: []rtl.Port{
			{Name: "a", Dir: rtl.Input, Width: bits(4), Signed: true},
			{Name: "b", Dir: rtl.Input, Width: bits(4), Signed: true},
			outPort("lt", 1), outPort("ge", 1),
		},
		Items: []rtl.Item{
			assign("lt", bin(rtl.OpLt, id("a"), id("b"))),
			assign("ge", bin(rtl.OpGe, id("a"), id("b"))),
		},
	}))
	synthtest.CompareCombinational(t, m, n)
}

func TestBlast_shifts(t *testing.T) {
	m, n := synth(t, design(&rtl.Module{
		Name: "top",
		Ports: []rtl.Port{
			inPort("a", 4),
			{Name: "sa", Dir: rtl.Input, Width: bits(4), Signed: true},
			outPort("l", 4), outPort("r", 4),
			{Name: "ar", Dir: rtl.Output, Width: bits(4), Signed: true},
		},
		Items: []rtl.Item{
			assign("l", bin(rtl.OpShl, id("a"), num(2))),
			assign("r", bin(rtl.OpShr, id("a"), num(1))),
			assign("ar", bin(rtl.OpShr, id("sa"), num(2))),
		},
	}))
	synthtest.CompareCombinational(t, m, n)
}

func TestBlast_ternary(t *testing.T) {
	m, n := synth(t, design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("sel", 1), inPort("a", 4), inPort("b", 4), outPort("y", 4)},
		Items: []rtl.Item{
			assign("y", &rtl.Ternary{Cond: id("sel"), Then: id("a"), Else: id("b")}),
		},
	}))
	synthtest.CompareCombinational(t, m, n)
}

func TestBlast_concat_slice(t *testing.T) {
	m, n := synth(t, design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("a", 4), inPort("b", 4), outPort("y", 4), outPort("m", 1)},
		Items: []rtl.Item{
			// y = {a[1:0], b[3:2]}
			assign("y", &rtl.Concat{Parts: []rtl.Expr{
				&rtl.Slice{X: id("a"), MSB: num(1), LSB: num(0)},
				&rtl.Slice{X: id("b"), MSB: num(3), LSB: num(2)},
			}}),
			assign("m", &rtl.Index{X: id("a"), At: num(2)}),
		},
	}))
	synthtest.CompareCombinational(t, m, n)
}

func TestBlast_replication(t *testing.T) {
	m, n := synth(t, design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("a", 2), outPort("y", 6)},
		Items: []rtl.Item{
			assign("y", &rtl.Repl{Count: num(3), X: id("a")}),
		},
	}))
	synthtest.CompareCombinational(t, m, n)
}

func TestBlast_reductions(t *testing.T) {
	m, n := synth(t, design(&rtl.Module{
		Name: "top",
		Ports: []rtl.Port{
			inPort("a", 5),
			outPort("ra", 1), outPort("ro", 1), outPort("rx", 1),
		},
		Items: []rtl.Item{
			assign("ra", &rtl.Unary{Op: rtl.OpRedAnd, X: id("a")}),
			assign("ro", &rtl.Unary{Op: rtl.OpRedOr, X: id("a")}),
			assign("rx", &rtl.Unary{Op: rtl.OpRedXor, X: id("a")}),
		},
	}))
	synthtest.CompareCombinational(t, m, n)
}

func TestBlast_logical_ops(t *testing.T) {
	m, n := synth(t, design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("a", 3), inPort("b", 3), outPort("la", 1), outPort("lo", 1)},
		Items: []rtl.Item{
			assign("la", bin(rtl.OpLAnd, id("a"), id("b"))),
			assign("lo", bin(rtl.OpLOr, id("a"), id("b"))),
		},
	}))
	synthtest.CompareCombinational(t, m, n)
}

func TestBlast_priority_if_chain(t *testing.T) {
	// overlapping conditions: source order decides, first match wins
	m, n := synth(t, design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("c0", 1), inPort("c1", 1), inPort("c2", 1), outPort("y", 4)},
		Items: []rtl.Item{&rtl.AlwaysComb{
			Body: iff(id("c0"), ba("y", num(1)),
				iff(id("c1"), ba("y", num(2)),
					iff(id("c2"), ba("y", num(3)),
						ba("y", num(0))))),
		}},
	}))
	synthtest.CompareCombinational(t, m, n)
}

func TestBlast_case_priority(t *testing.T) {
	// value 1 appears in two items: the first item must win
	m, n := synth(t, design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("s", 2), inPort("a", 4), inPort("b", 4), outPort("y", 4)},
		Items: []rtl.Item{&rtl.AlwaysComb{
			Body: &rtl.Case{
				Subject: id("s"),
				Items: []rtl.CaseItem{
					{Values: []rtl.Expr{num(0), num(1)}, Body: ba("y", id("a"))},
					{Values: []rtl.Expr{num(1), num(2)}, Body: ba("y", id("b"))},
				},
				Default: ba("y", num(0)),
			},
		}},
	}))
	synthtest.CompareCombinational(t, m, n)
}

func TestBlast_case_missing_default(t *testing.T) {
	m, err := syn.Elaborate(design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("s", 1), inPort("a", 4), inPort("b", 4), outPort("y", 4)},
		Items: []rtl.Item{&rtl.AlwaysComb{
			Body: &rtl.Case{
				Subject: id("s"),
				Items: []rtl.CaseItem{
					{Values: []rtl.Expr{num(0)}, Body: ba("y", id("a"))},
					{Values: []rtl.Expr{num(1)}, Body: ba("y", id("b"))},
				},
			},
		}},
	}))
	if err != nil {
		t.Fatal(err)
	}
	_, err = syn.BitBlast(m)
	if _, ok := err.(*syn.MissingDefaultError); !ok {
		t.Fatalf("got %v, want MissingDefaultError", err)
	}
}

func counterDesign() *rtl.Design {
	return design(&rtl.Module{
		Name:  "counter",
		Ports: []rtl.Port{inPort("clk", 1), inPort("rst", 1), inPort("en", 1), outPort("q", 4)},
		Items: []rtl.Item{posedge("clk",
			iff(id("rst"), nb("q", num(0)),
				iff(id("en"), nb("q", bin(rtl.OpAdd, id("q"), num(1))), nil)),
		)},
	})
}

func TestBlast_counter(t *testing.T) {
	_, n := synth(t, counterDesign())

	sim, err := synthtest.NewSim(n)
	if err != nil {
		t.Fatal(err)
	}
	poke := func(name string, v uint64) {
		if err := sim.Poke(name, 1, v); err != nil {
			t.Fatal(err)
		}
	}
	peek := func() uint64 {
		v, err := sim.Peek("q", 4)
		if err != nil {
			t.Fatal(err)
		}
		return v
	}

	poke("rst", 1)
	poke("en", 0)
	sim.Step()
	if got := peek(); got != 0 {
		t.Fatalf("after reset q = %d, want 0", got)
	}

	poke("rst", 0)
	poke("en", 1)
	for i := 1; i <= 20; i++ {
		sim.Step()
		if got, want := peek(), uint64(i%16); got != want {
			t.Fatalf("cycle %d: q = %d, want %d", i, got, want)
		}
	}

	// disabled counter holds its value
	poke("en", 0)
	hold := peek()
	sim.Step()
	if got := peek(); got != hold {
		t.Fatalf("q moved while disabled: %d -> %d", hold, got)
	}
}

func TestBlast_counter_equivalence(t *testing.T) {
	m, n := synth(t, counterDesign())
	synthtest.CompareSequential(t, m, n, 100)
}

func TestBlast_deterministic(t *testing.T) {
	m, n1 := synth(t, counterDesign())
	n2, err := syn.BitBlast(m)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(n1.Prims, n2.Prims) {
		t.Fatal("re-blasting the same module produced different primitives")
	}
	if n1.NumNets() != n2.NumNets() {
		t.Fatalf("net counts differ: %d vs %d", n1.NumNets(), n2.NumNets())
	}
	for i := 0; i < n1.NumNets(); i++ {
		if n1.NetName(syn.NetID(i)) != n2.NetName(syn.NetID(i)) {
			t.Fatalf("net %d named %q vs %q", i, n1.NetName(syn.NetID(i)), n2.NetName(syn.NetID(i)))
		}
	}
}

func TestBlast_expression_sharing(t *testing.T) {
	// a shared subexpression must lower to one set of gates
	m, n := synth(t, design(&rtl.Module{
		Name:  "top",
		Ports: []rtl.Port{inPort("a", 4), inPort("b", 4), outPort("y", 4), outPort("z", 4)},
		Decls: []rtl.Decl{{Name: "t", Width: bits(4)}},
		Items: []rtl.Item{
			assign("t", bin(rtl.OpXor, id("a"), id("b"))),
			assign("y", bin(rtl.OpAnd, id("t"), id("a"))),
			assign("z", bin(rtl.OpOr, id("t"), id("b"))),
		},
	}))
	synthtest.CompareCombinational(t, m, n)

	xors := 0
	for i := range n.Prims {
		if n.Prims[i].Kind == syn.PrimXor {
			xors++
		}
	}
	if xors != 4 {
		t.Fatalf("got %d XOR gates, want 4", xors)
	}
}
