package rtl

// An Expr is an expression node.
//
type Expr interface{ expr() }

// A Ref is an assignable reference: an identifier, a single bit of one,
// or a part-select.
//
type Ref interface {
	Expr
	// Base returns the referenced signal name.
	Base() string
}

// A Const is an integer constant. Width 0 means unsized; unsized
// constants take their width from context during elaboration.
//
type Const struct {
	Value  int64
	Width  int
	Signed bool
}

// An Ident references a signal or parameter by name.
//
type Ident struct {
	Name string
}

// Unary operators.
const (
	OpLogicalNot = "!"
	OpBitNot     = "~"
	OpRedAnd     = "&"
	OpRedOr      = "|"
	OpRedXor     = "^"
)

// A Unary applies a unary or reduction operator.
//
type Unary struct {
	Op string
	X  Expr
}

// Binary operators.
const (
	OpAnd  = "&"
	OpOr   = "|"
	OpXor  = "^"
	OpAdd  = "+"
	OpSub  = "-"
	OpMul  = "*" // constant contexts only
	OpDiv  = "/" // constant contexts only
	OpEq   = "=="
	OpNeq  = "!="
	OpLt   = "<"
	OpLe   = "<="
	OpGt   = ">"
	OpGe   = ">="
	OpLAnd = "&&"
	OpLOr  = "||"
	OpShl  = "<<"
	OpShr  = ">>"
)

// A Binary applies a binary operator.
//
type Binary struct {
	Op string
	X  Expr
	Y  Expr
}

// An Index selects a single bit: x[at].
//
type Index struct {
	X  Expr
	At Expr
}

// A Slice selects a contiguous bit range: x[msb:lsb].
//
type Slice struct {
	X   Expr
	MSB Expr
	LSB Expr
}

// A Ternary is cond ? then : else.
//
type Ternary struct {
	Cond Expr
	Then Expr
	Else Expr
}

// A Concat is a concatenation {a, b, c}; operand 0 holds the most
// significant bits.
//
type Concat struct {
	Parts []Expr
}

// A Repl is a replication {n{x}}.
//
type Repl struct {
	Count Expr
	X     Expr
}

func (*Const) expr()   {}
func (*Ident) expr()   {}
func (*Unary) expr()   {}
func (*Binary) expr()  {}
func (*Index) expr()   {}
func (*Slice) expr()   {}
func (*Ternary) expr() {}
func (*Concat) expr()  {}
func (*Repl) expr()    {}

// Base implements Ref.
func (i *Ident) Base() string { return i.Name }

// Base implements Ref.
func (i *Index) Base() string {
	if r, ok := i.X.(Ref); ok {
		return r.Base()
	}
	return ""
}

// Base implements Ref.
func (s *Slice) Base() string {
	if r, ok := s.X.(Ref); ok {
		return r.Base()
	}
	return ""
}
