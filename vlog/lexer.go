package vlog

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// verilogLexer defines the token set of the supported Verilog subset.
//
var verilogLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "LineComment", Pattern: `//[^\n]*`},
	{Name: "BlockComment", Pattern: `/\*(?s:.)*?\*/`},
	{Name: "Whitespace", Pattern: `[\s]+`},

	// sized constants first so `4'b0101` is not split
	{Name: "SizedNumber", Pattern: `\d+\s*'\s*[bBdDhHoO][0-9a-fA-FxXzZ_]+`},
	{Name: "Number", Pattern: `\d+`},

	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_$]*`},

	// multi-character operators before their prefixes
	{Name: "Shl", Pattern: `<<`},
	{Name: "Shr", Pattern: `>>`},
	{Name: "Le", Pattern: `<=`},
	{Name: "Ge", Pattern: `>=`},
	{Name: "Eq", Pattern: `==`},
	{Name: "Neq", Pattern: `!=`},
	{Name: "LAnd", Pattern: `&&`},
	{Name: "LOr", Pattern: `\|\|`},

	{Name: "Punct", Pattern: `[@#(){}\[\]:;,.=+\-*/&|^~!<>?]`},
})
