// Package rtl defines the AST schema consumed by the elaborator.
//
// The node set is closed: one type per supported construct. Front ends
// (see package vlog) produce these nodes; anything a front end cannot
// express in this schema is outside the supported RTL subset and must be
// rejected there or by the elaborator.
//
package rtl

// A Design is a forest of modules keyed by name, plus the name of the
// top module that elaboration starts from.
//
type Design struct {
	Modules map[string]*Module
	Top     string
}

// NewDesign returns an empty design with the given top module name.
//
func NewDesign(top string) *Design {
	return &Design{Modules: make(map[string]*Module), Top: top}
}

// AddModule registers m in the design.
//
func (d *Design) AddModule(m *Module) {
	d.Modules[m.Name] = m
}

// A Module is a single module declaration: ports, parameters, local
// declarations and body items, in source order.
//
type Module struct {
	Name   string
	Ports  []Port
	Params []Param
	Decls  []Decl
	Items  []Item
}

// A Dir is a port direction.
//
type Dir int

// Port directions.
const (
	Input Dir = iota
	Output
	Inout
)

func (d Dir) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	case Inout:
		return "inout"
	}
	return "dir(?)"
}

// A Port declares a module port. Width is an expression so that it may
// reference parameters; nil means 1 bit.
//
type Port struct {
	Name   string
	Dir    Dir
	Width  Expr
	Signed bool
}

// A Param declares a module parameter with its default value.
//
type Param struct {
	Name    string
	Default Expr
}

// A SigKind tells whether a declared signal is a plain wire or may be
// assigned in a clocked process.
//
type SigKind int

// Signal declaration kinds.
const (
	Wire SigKind = iota
	Reg
)

// A Decl declares a local signal. Width follows the same convention as
// Port.Width.
//
type Decl struct {
	Name   string
	Kind   SigKind
	Width  Expr
	Signed bool
}

// An Item is a module body item: continuous assignment, process block,
// instance or generate loop.
//
type Item interface{ item() }

// An Assign is a continuous assignment to a wire.
//
type Assign struct {
	LHS Ref
	RHS Expr
}

// An EdgeEvent is one entry of a process sensitivity list.
//
type EdgeEvent struct {
	Posedge bool
	Signal  string
}

// An AlwaysFF is a clocked process block: a body gated by edge events.
//
type AlwaysFF struct {
	Events []EdgeEvent
	Body   Stmt
}

// An AlwaysComb is a combinational process block.
//
type AlwaysComb struct {
	Body Stmt
}

// An Instance instantiates a child module. ParamOverrides and PortConns
// map formal names to actual expressions.
//
type Instance struct {
	Module         string
	Name           string
	ParamOverrides map[string]Expr
	PortConns      map[string]Expr
}

// A GenFor is a bounded generate loop. The loop variable iterates from
// From to To (exclusive) by Step; all three must fold to constants once
// parameters are resolved.
//
type GenFor struct {
	Var  string
	From Expr
	To   Expr
	Step Expr
	Body []Item
}

func (*Assign) item()     {}
func (*AlwaysFF) item()   {}
func (*AlwaysComb) item() {}
func (*Instance) item()   {}
func (*GenFor) item()     {}

// A Stmt is a statement inside a process body.
//
type Stmt interface{ stmt() }

// A Block is a begin/end statement list.
//
type Block struct {
	Stmts []Stmt
}

// An If is an if/else statement. Else may be nil.
//
type If struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

// A CaseItem is one branch of a case statement. Multiple match values
// per branch are allowed.
//
type CaseItem struct {
	Values []Expr
	Body   Stmt
}

// A Case is a case statement. Default may be nil; the elaborator
// requires it for combinational targets.
//
type Case struct {
	Subject Expr
	Items   []CaseItem
	Default Stmt
}

// An NBAssign is a non-blocking assignment (<=), used in clocked
// processes.
//
type NBAssign struct {
	LHS Ref
	RHS Expr
}

// A BAssign is a blocking assignment (=), used in combinational
// processes.
//
type BAssign struct {
	LHS Ref
	RHS Expr
}

func (*Block) stmt()    {}
func (*If) stmt()       {}
func (*Case) stmt()     {}
func (*NBAssign) stmt() {}
func (*BAssign) stmt()  {}
