// Package vlog parses a restricted synthesizable Verilog subset into
// the rtl AST schema.
//
// Supported constructs: module declarations with parameters and scalar
// or vector ports, wire/reg declarations, continuous assignments,
// always blocks (edge-triggered and combinational), named-connection
// module instantiation with parameter overrides, and generate-for
// loops. Everything else is a parse error here or an unsupported
// construct error during elaboration.
//
package vlog

import (
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"

	"github.com/hwtoolkit/rtlsyn/rtl"
)

// A Parser parses Verilog source into rtl modules.
//
type Parser struct {
	parser *participle.Parser[sourceFile]
}

// NewParser builds a parser for the supported subset.
//
func NewParser() (*Parser, error) {
	p, err := participle.Build[sourceFile](
		participle.Lexer(verilogLexer),
		participle.Elide("LineComment", "BlockComment", "Whitespace"),
		participle.UseLookahead(4),
	)
	if err != nil {
		return nil, errors.Wrap(err, "building parser")
	}
	return &Parser{parser: p}, nil
}

// Parse parses Verilog source from r. The filename is used in error
// positions only.
//
func (p *Parser) Parse(filename string, r io.Reader) ([]*rtl.Module, error) {
	f, err := p.parser.Parse(filename, r)
	if err != nil {
		return nil, err
	}
	return convertFile(f)
}

// ParseString parses Verilog source from a string.
//
func (p *Parser) ParseString(filename, src string) ([]*rtl.Module, error) {
	f, err := p.parser.ParseString(filename, src)
	if err != nil {
		return nil, err
	}
	return convertFile(f)
}

// ParseFile parses the Verilog file at path.
//
func (p *Parser) ParseFile(path string) ([]*rtl.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	return p.Parse(path, f)
}

// ParseDesign parses Verilog source from r and wraps the modules in a
// Design rooted at top. An empty top selects the last module in the
// file.
//
func (p *Parser) ParseDesign(filename string, r io.Reader, top string) (*rtl.Design, error) {
	mods, err := p.Parse(filename, r)
	if err != nil {
		return nil, err
	}
	return Assemble(mods, top)
}

// Assemble wraps parsed modules in a Design rooted at top. An empty top
// selects the last module.
//
func Assemble(mods []*rtl.Module, top string) (*rtl.Design, error) {
	if len(mods) == 0 {
		return nil, errors.New("no modules in source")
	}
	if top == "" {
		top = mods[len(mods)-1].Name
	}
	d := rtl.NewDesign(top)
	for _, m := range mods {
		if _, ok := d.Modules[m.Name]; ok {
			return nil, errors.Errorf("module %s declared twice", m.Name)
		}
		d.AddModule(m)
	}
	if _, ok := d.Modules[top]; !ok {
		return nil, errors.Errorf("top module %s not found", top)
	}
	return d, nil
}
