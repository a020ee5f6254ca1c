/*
Package rtlsyn compiles a restricted RTL subset down to a gate-level
netlist of single-bit primitives (AND, OR, XOR, NOT, MUX, DFF).

The pipeline has two transform stages. Elaborate consumes an AST forest
(package rtl), resolves parameters, flattens the module hierarchy,
unrolls generate loops and infers registers from clocked processes,
producing one flat word-level Module. BitBlast consumes that module and
expands every word-level signal and operator into single-bit nets and
primitive gates, producing a Netlist. Both outputs are checked by the
validator (single driver per net, combinational acyclicity, width
agreement).

Front ends produce the rtl AST (see package vlog for a small Verilog
subset), and back ends serialize the Netlist (see package blif).

*/
package rtlsyn
