package vlog_test

import (
	"testing"

	"github.com/hwtoolkit/rtlsyn/rtl"
	"github.com/hwtoolkit/rtlsyn/vlog"
)

func parse(t *testing.T, src string) []*rtl.Module {
	t.Helper()
	p, err := vlog.NewParser()
	if err != nil {
		t.Fatal(err)
	}
	mods, err := p.ParseString("test.v", src)
	if err != nil {
		t.Fatal(err)
	}
	return mods
}

// parseExpr parses a single continuous assignment and returns its RHS.
func parseExpr(t *testing.T, expr string) rtl.Expr {
	t.Helper()
	mods := parse(t, "module m(output y);\nassign y = "+expr+";\nendmodule\n")
	return mods[0].Items[0].(*rtl.Assign).RHS
}

func TestParse_counter(t *testing.T) {
	mods := parse(t, `
// 4-bit counter with enable and synchronous reset
module counter #(parameter WIDTH = 4) (
    input clk,
    input rst,
    input en,
    output reg [WIDTH-1:0] count
);
    always @(posedge clk) begin
        if (rst)
            count <= 0;
        else if (en)
            count <= count + 1'b1;
    end
endmodule
`)
	if len(mods) != 1 {
		t.Fatalf("got %d modules, want 1", len(mods))
	}
	m := mods[0]
	if m.Name != "counter" {
		t.Fatalf("module name %q", m.Name)
	}
	if len(m.Params) != 1 || m.Params[0].Name != "WIDTH" {
		t.Fatalf("params: %+v", m.Params)
	}
	if c, ok := m.Params[0].Default.(*rtl.Const); !ok || c.Value != 4 {
		t.Fatalf("WIDTH default: %+v", m.Params[0].Default)
	}
	if len(m.Ports) != 4 {
		t.Fatalf("got %d ports, want 4", len(m.Ports))
	}
	count := m.Ports[3]
	if count.Name != "count" || count.Dir != rtl.Output || count.Width == nil {
		t.Fatalf("count port: %+v", count)
	}
	if len(m.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(m.Items))
	}
	ff, ok := m.Items[0].(*rtl.AlwaysFF)
	if !ok {
		t.Fatalf("item: %T", m.Items[0])
	}
	if len(ff.Events) != 1 || !ff.Events[0].Posedge || ff.Events[0].Signal != "clk" {
		t.Fatalf("events: %+v", ff.Events)
	}
	blk, ok := ff.Body.(*rtl.Block)
	if !ok || len(blk.Stmts) != 1 {
		t.Fatalf("body: %+v", ff.Body)
	}
	iff, ok := blk.Stmts[0].(*rtl.If)
	if !ok {
		t.Fatalf("stmt: %T", blk.Stmts[0])
	}
	if _, ok := iff.Then.(*rtl.NBAssign); !ok {
		t.Fatalf("then: %T", iff.Then)
	}
	if _, ok := iff.Else.(*rtl.If); !ok {
		t.Fatalf("else: %T", iff.Else)
	}
}

func TestParse_precedence(t *testing.T) {
	// & binds tighter than |
	e := parseExpr(t, "a | b & c")
	or, ok := e.(*rtl.Binary)
	if !ok || or.Op != rtl.OpOr {
		t.Fatalf("top: %+v", e)
	}
	if x, ok := or.X.(*rtl.Ident); !ok || x.Name != "a" {
		t.Fatalf("lhs: %+v", or.X)
	}
	and, ok := or.Y.(*rtl.Binary)
	if !ok || and.Op != rtl.OpAnd {
		t.Fatalf("rhs: %+v", or.Y)
	}

	// + binds tighter than <<
	e = parseExpr(t, "a + b << 1")
	shl, ok := e.(*rtl.Binary)
	if !ok || shl.Op != rtl.OpShl {
		t.Fatalf("top: %+v", e)
	}
	if add, ok := shl.X.(*rtl.Binary); !ok || add.Op != rtl.OpAdd {
		t.Fatalf("shift operand: %+v", shl.X)
	}

	// ternary binds loosest
	e = parseExpr(t, "s ? a : b + c")
	if _, ok := e.(*rtl.Ternary); !ok {
		t.Fatalf("top: %T", e)
	}
}

func TestParse_unary_reduction(t *testing.T) {
	e := parseExpr(t, "&a ^ |b")
	x, ok := e.(*rtl.Binary)
	if !ok || x.Op != rtl.OpXor {
		t.Fatalf("top: %+v", e)
	}
	if u, ok := x.X.(*rtl.Unary); !ok || u.Op != rtl.OpRedAnd {
		t.Fatalf("lhs: %+v", x.X)
	}
	if u, ok := x.Y.(*rtl.Unary); !ok || u.Op != rtl.OpRedOr {
		t.Fatalf("rhs: %+v", x.Y)
	}
}

func TestParse_numbers(t *testing.T) {
	tests := []struct {
		src   string
		value int64
		width int
	}{
		{"12", 12, 0},
		{"8'hFF", 255, 8},
		{"4'd9", 9, 4},
		{"4'b10x1", 9, 4}, // x reads as 0
		{"6'o17", 15, 6},
		{"8'b1010_1010", 170, 8},
	}
	for _, tt := range tests {
		c, ok := parseExpr(t, tt.src).(*rtl.Const)
		if !ok {
			t.Errorf("%s: not a constant", tt.src)
			continue
		}
		if c.Value != tt.value || c.Width != tt.width {
			t.Errorf("%s: got value %d width %d, want %d/%d", tt.src, c.Value, c.Width, tt.value, tt.width)
		}
	}
}

func TestParse_concat_repl(t *testing.T) {
	e := parseExpr(t, "{a, {2{b}}, c[3:1]}")
	cc, ok := e.(*rtl.Concat)
	if !ok || len(cc.Parts) != 3 {
		t.Fatalf("concat: %+v", e)
	}
	if _, ok := cc.Parts[0].(*rtl.Ident); !ok {
		t.Fatalf("part 0: %T", cc.Parts[0])
	}
	if _, ok := cc.Parts[1].(*rtl.Repl); !ok {
		t.Fatalf("part 1: %T", cc.Parts[1])
	}
	if _, ok := cc.Parts[2].(*rtl.Slice); !ok {
		t.Fatalf("part 2: %T", cc.Parts[2])
	}
}

func TestParse_instance(t *testing.T) {
	mods := parse(t, `
module top(input [7:0] x, output [7:0] y);
    pass #(.W(8)) u0 (.d(x), .q(y), .nc());
endmodule
`)
	inst, ok := mods[0].Items[0].(*rtl.Instance)
	if !ok {
		t.Fatalf("item: %T", mods[0].Items[0])
	}
	if inst.Module != "pass" || inst.Name != "u0" {
		t.Fatalf("instance: %+v", inst)
	}
	if len(inst.ParamOverrides) != 1 || inst.ParamOverrides["W"] == nil {
		t.Fatalf("overrides: %+v", inst.ParamOverrides)
	}
	// explicitly unconnected ports are dropped
	if len(inst.PortConns) != 2 {
		t.Fatalf("conns: %+v", inst.PortConns)
	}
}

func TestParse_generate(t *testing.T) {
	mods := parse(t, `
module top(input [3:0] x);
    genvar i;
    generate for (i = 0; i < 3; i = i + 1) begin : g
        inv u (.d(x[i]));
    end endgenerate
endmodule
`)
	gf, ok := mods[0].Items[0].(*rtl.GenFor)
	if !ok {
		t.Fatalf("item: %T", mods[0].Items[0])
	}
	if gf.Var != "i" {
		t.Fatalf("loop var %q", gf.Var)
	}
	if to, ok := gf.To.(*rtl.Const); !ok || to.Value != 3 {
		t.Fatalf("bound: %+v", gf.To)
	}
	if len(gf.Body) != 1 {
		t.Fatalf("body: %+v", gf.Body)
	}
}

func TestParse_comb_case(t *testing.T) {
	mods := parse(t, `
module mux(input [1:0] s, input a, input b, output reg y);
    always @(*) begin
        case (s)
            2'b00, 2'b01: y = a;
            2'b10: y = b;
            default: y = 1'b0;
        endcase
    end
endmodule
`)
	ac, ok := mods[0].Items[0].(*rtl.AlwaysComb)
	if !ok {
		t.Fatalf("item: %T", mods[0].Items[0])
	}
	cs, ok := ac.Body.(*rtl.Block).Stmts[0].(*rtl.Case)
	if !ok {
		t.Fatalf("stmt: %T", ac.Body.(*rtl.Block).Stmts[0])
	}
	if len(cs.Items) != 2 || cs.Default == nil {
		t.Fatalf("case: %+v", cs)
	}
	if len(cs.Items[0].Values) != 2 {
		t.Fatalf("first item values: %+v", cs.Items[0].Values)
	}
}

func TestParse_wire_decls(t *testing.T) {
	mods := parse(t, `
module m(input [3:0] a, output [3:0] y);
    wire [3:0] t, u;
    reg signed [7:0] acc;
    assign t = ~a;
    assign y = t;
endmodule
`)
	m := mods[0]
	if len(m.Decls) != 3 {
		t.Fatalf("got %d decls, want 3", len(m.Decls))
	}
	if m.Decls[0].Name != "t" || m.Decls[0].Kind != rtl.Wire {
		t.Fatalf("decl 0: %+v", m.Decls[0])
	}
	if m.Decls[2].Name != "acc" || m.Decls[2].Kind != rtl.Reg || !m.Decls[2].Signed {
		t.Fatalf("decl 2: %+v", m.Decls[2])
	}
}

func TestAssemble(t *testing.T) {
	src := `
module leaf(input d);
endmodule
module top(input x);
    leaf u (.d(x));
endmodule
`
	p, err := vlog.NewParser()
	if err != nil {
		t.Fatal(err)
	}
	mods, err := p.ParseString("test.v", src)
	if err != nil {
		t.Fatal(err)
	}

	d, err := vlog.Assemble(mods, "")
	if err != nil {
		t.Fatal(err)
	}
	if d.Top != "top" {
		t.Fatalf("default top %q, want top (last module)", d.Top)
	}

	d, err = vlog.Assemble(mods, "leaf")
	if err != nil {
		t.Fatal(err)
	}
	if d.Top != "leaf" {
		t.Fatalf("top %q", d.Top)
	}

	if _, err = vlog.Assemble(mods, "nope"); err == nil {
		t.Fatal("unknown top accepted")
	}
}

func TestParse_errors(t *testing.T) {
	p, err := vlog.NewParser()
	if err != nil {
		t.Fatal(err)
	}
	for _, src := range []string{
		"module m(input a;\nendmodule\n", // unclosed port list
		"module m(input a); assign = 1; endmodule\n",
		"not a verilog file at all\n",
	} {
		if _, err := p.ParseString("bad.v", src); err == nil {
			t.Errorf("accepted %q", src)
		}
	}
}
