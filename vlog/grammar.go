package vlog

// Grammar node types for the supported Verilog subset. These mirror the
// concrete syntax; package rtl holds the abstract form handed to the
// elaborator (see convert.go).

type sourceFile struct {
	Modules []*moduleDecl `parser:"@@*"`
}

type moduleDecl struct {
	Name   string        `parser:"\"module\" @Ident"`
	Params []*paramDecl  `parser:"(\"#\" \"(\" @@ (\",\" @@)* \")\")?"`
	Ports  []*portDecl   `parser:"\"(\" (@@ (\",\" @@)*)? \")\" \";\""`
	Items  []*moduleItem `parser:"@@* \"endmodule\""`
}

type paramDecl struct {
	Name    string `parser:"\"parameter\" @Ident"`
	Default *expr  `parser:"\"=\" @@"`
}

type portDecl struct {
	Dir    string     `parser:"@(\"input\" | \"output\" | \"inout\")"`
	Reg    bool       `parser:"@\"reg\"?"`
	Signed bool       `parser:"@\"signed\"?"`
	Range  *rangeSpec `parser:"@@?"`
	Name   string     `parser:"@Ident"`
}

type rangeSpec struct {
	MSB *expr `parser:"\"[\" @@"`
	LSB *expr `parser:"\":\" @@ \"]\""`
}

type moduleItem struct {
	Net      *netDecl      `parser:"  @@"`
	Assign   *assignItem   `parser:"| @@"`
	Always   *alwaysItem   `parser:"| @@"`
	Genvar   *genvarDecl   `parser:"| @@"`
	GenFor   *generateItem `parser:"| @@"`
	Instance *instanceItem `parser:"| @@"`
}

type netDecl struct {
	Kind   string     `parser:"@(\"wire\" | \"reg\")"`
	Signed bool       `parser:"@\"signed\"?"`
	Range  *rangeSpec `parser:"@@?"`
	Names  []string   `parser:"@Ident (\",\" @Ident)* \";\""`
}

type assignItem struct {
	LHS *refExpr `parser:"\"assign\" @@"`
	RHS *expr    `parser:"\"=\" @@ \";\""`
}

type alwaysItem struct {
	Sens *sensList `parser:"\"always\" \"@\" @@"`
	Body *stmt     `parser:"@@"`
}

// A sensList is either the combinational wildcard (star, with or without
// parentheses) or a list of edge events.
type sensList struct {
	Star   bool         `parser:"  @\"*\""`
	StarP  bool         `parser:"| \"(\" ( @\"*\""`
	Events []*edgeEvent `parser:"      | @@ (\"or\" @@)* ) \")\""`
}

type edgeEvent struct {
	Edge   string `parser:"@(\"posedge\" | \"negedge\")"`
	Signal string `parser:"@Ident"`
}

type genvarDecl struct {
	Name string `parser:"\"genvar\" @Ident \";\""`
}

type generateItem struct {
	Var   string        `parser:"\"generate\" \"for\" \"(\" @Ident \"=\""`
	From  *expr         `parser:"@@ \";\""`
	Cond  *genCond      `parser:"@@ \";\""`
	Step  *genStep      `parser:"@@ \")\""`
	Label string        `parser:"\"begin\" (\":\" @Ident)?"`
	Body  []*moduleItem `parser:"@@* \"end\" \"endgenerate\""`
}

type genCond struct {
	Var string `parser:"@Ident \"<\""`
	To  *expr  `parser:"@@"`
}

type genStep struct {
	Var  string `parser:"@Ident \"=\" Ident \"+\""`
	Incr *expr  `parser:"@@"`
}

type instanceItem struct {
	Module string       `parser:"@Ident"`
	Params []*namedConn `parser:"(\"#\" \"(\" @@ (\",\" @@)* \")\")?"`
	Name   string       `parser:"@Ident"`
	Conns  []*namedConn `parser:"\"(\" (@@ (\",\" @@)*)? \")\" \";\""`
}

type namedConn struct {
	Formal string `parser:"\".\" @Ident"`
	Actual *expr  `parser:"\"(\" @@? \")\""`
}

type stmt struct {
	Block  *blockStmt  `parser:"  @@"`
	If     *ifStmt     `parser:"| @@"`
	Case   *caseStmt   `parser:"| @@"`
	Assign *assignStmt `parser:"| @@"`
}

type blockStmt struct {
	Stmts []*stmt `parser:"\"begin\" @@* \"end\""`
}

type ifStmt struct {
	Cond *expr `parser:"\"if\" \"(\" @@ \")\""`
	Then *stmt `parser:"@@"`
	Else *stmt `parser:"(\"else\" @@)?"`
}

type caseStmt struct {
	Subject *expr       `parser:"\"case\" \"(\" @@ \")\""`
	Items   []*caseItem `parser:"@@*"`
	Default *stmt       `parser:"(\"default\" \":\" @@)? \"endcase\""`
}

type caseItem struct {
	Values []*expr `parser:"(?! \"default\") @@ (\",\" @@)* \":\""`
	Body   *stmt   `parser:"@@"`
}

// An assignStmt covers both non-blocking (<=) and blocking (=)
// assignments; Op records which one was written.
type assignStmt struct {
	LHS *refExpr `parser:"@@"`
	Op  string   `parser:"@(\"<=\" | \"=\")"`
	RHS *expr    `parser:"@@ \";\""`
}

// Expression tiers, loosest binding first.

type expr struct {
	Cond *lorExpr `parser:"@@"`
	Then *expr    `parser:"(\"?\" @@"`
	Else *expr    `parser:"\":\" @@)?"`
}

type lorExpr struct {
	Head *landExpr  `parser:"@@"`
	Tail []*lorTerm `parser:"@@*"`
}

type lorTerm struct {
	Rhs *landExpr `parser:"\"||\" @@"`
}

type landExpr struct {
	Head *borExpr    `parser:"@@"`
	Tail []*landTerm `parser:"@@*"`
}

type landTerm struct {
	Rhs *borExpr `parser:"\"&&\" @@"`
}

type borExpr struct {
	Head *bxorExpr  `parser:"@@"`
	Tail []*borTerm `parser:"@@*"`
}

type borTerm struct {
	Rhs *bxorExpr `parser:"\"|\" @@"`
}

type bxorExpr struct {
	Head *bandExpr   `parser:"@@"`
	Tail []*bxorTerm `parser:"@@*"`
}

type bxorTerm struct {
	Rhs *bandExpr `parser:"\"^\" @@"`
}

type bandExpr struct {
	Head *eqExpr     `parser:"@@"`
	Tail []*bandTerm `parser:"@@*"`
}

type bandTerm struct {
	Rhs *eqExpr `parser:"\"&\" @@"`
}

type eqExpr struct {
	Head *relExpr  `parser:"@@"`
	Tail []*eqTerm `parser:"@@*"`
}

type eqTerm struct {
	Op  string   `parser:"@(\"==\" | \"!=\")"`
	Rhs *relExpr `parser:"@@"`
}

type relExpr struct {
	Head *shiftExpr `parser:"@@"`
	Tail []*relTerm `parser:"@@*"`
}

type relTerm struct {
	Op  string     `parser:"@(\"<\" | \"<=\" | \">\" | \">=\")"`
	Rhs *shiftExpr `parser:"@@"`
}

type shiftExpr struct {
	Head *addExpr     `parser:"@@"`
	Tail []*shiftTerm `parser:"@@*"`
}

type shiftTerm struct {
	Op  string   `parser:"@(\"<<\" | \">>\")"`
	Rhs *addExpr `parser:"@@"`
}

type addExpr struct {
	Head *mulExpr   `parser:"@@"`
	Tail []*addTerm `parser:"@@*"`
}

type addTerm struct {
	Op  string   `parser:"@(\"+\" | \"-\")"`
	Rhs *mulExpr `parser:"@@"`
}

type mulExpr struct {
	Head *unaryExpr `parser:"@@"`
	Tail []*mulTerm `parser:"@@*"`
}

type mulTerm struct {
	Op  string     `parser:"@(\"*\" | \"/\")"`
	Rhs *unaryExpr `parser:"@@"`
}

type unaryExpr struct {
	Ops []string     `parser:"@(\"!\" | \"~\" | \"&\" | \"|\" | \"^\" | \"-\")*"`
	X   *primaryExpr `parser:"@@"`
}

type primaryExpr struct {
	Sized  *string     `parser:"  @SizedNumber"`
	Number *string     `parser:"| @Number"`
	Repl   *replExpr   `parser:"| @@"`
	Concat *concatExpr `parser:"| @@"`
	Paren  *expr       `parser:"| \"(\" @@ \")\""`
	Ref    *refExpr    `parser:"| @@"`
}

type replExpr struct {
	Count string `parser:"\"{\" @Number \"{\""`
	X     *expr  `parser:"@@ \"}\" \"}\""`
}

type concatExpr struct {
	Parts []*expr `parser:"\"{\" @@ (\",\" @@)* \"}\""`
}

type refExpr struct {
	Name string   `parser:"@Ident"`
	Sel  *selExpr `parser:"@@?"`
}

type selExpr struct {
	MSB *expr `parser:"\"[\" @@"`
	LSB *expr `parser:"(\":\" @@)? \"]\""`
}
