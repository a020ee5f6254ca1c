// Package blif serializes a gate-level netlist into the Berkeley Logic
// Interchange Format.
//
// Buses appear as individual bit signals (count_0, count_1, ...) since
// BLIF is inherently single-bit. DFFs become rising-edge latch records;
// their synchronous reset, when present, is already structural (a MUX
// ahead of the D input), so no extra latch controls are emitted.
//
package blif

import (
	"bufio"
	"io"
	"os"

	"github.com/hwtoolkit/rtlsyn"
	"github.com/pkg/errors"
)

// Write serializes n to w.
//
func Write(w io.Writer, n *rtlsyn.Netlist) error {
	b := bufio.NewWriter(w)
	e := &emitter{n: n, w: b}

	e.line(".model " + n.Name)
	e.ports(".inputs", n.Inputs)
	e.ports(".outputs", n.Outputs)
	e.line("")

	// constant drivers: no minterms means constant 0
	e.line(".names " + n.NetName(rtlsyn.Const0))
	e.line("")
	e.line(".names " + n.NetName(rtlsyn.Const1))
	e.line("1")
	e.line("")

	for i := range n.Prims {
		if err := e.prim(&n.Prims[i]); err != nil {
			return err
		}
	}
	e.line(".end")
	if e.err != nil {
		return e.err
	}
	return b.Flush()
}

// WriteFile serializes n to the named file.
//
func WriteFile(path string, n *rtlsyn.Netlist) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "blif")
	}
	if err := Write(f, n); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type emitter struct {
	n   *rtlsyn.Netlist
	w   *bufio.Writer
	err error
}

func (e *emitter) line(s string) {
	if e.err != nil {
		return
	}
	if _, err := e.w.WriteString(s + "\n"); err != nil {
		e.err = err
	}
}

func (e *emitter) ports(kw string, nets []rtlsyn.NetID) {
	s := kw
	for _, id := range nets {
		s += " " + e.n.NetName(id)
	}
	e.line(s)
}

func (e *emitter) prim(p *rtlsyn.Prim) error {
	name := e.n.NetName
	switch p.Kind {
	case rtlsyn.PrimAnd:
		e.line(".names " + name(p.In[0]) + " " + name(p.In[1]) + " " + name(p.Out))
		e.line("11 1")
	case rtlsyn.PrimOr:
		e.line(".names " + name(p.In[0]) + " " + name(p.In[1]) + " " + name(p.Out))
		e.line("1- 1")
		e.line("-1 1")
	case rtlsyn.PrimXor:
		e.line(".names " + name(p.In[0]) + " " + name(p.In[1]) + " " + name(p.Out))
		e.line("01 1")
		e.line("10 1")
	case rtlsyn.PrimNot:
		e.line(".names " + name(p.In[0]) + " " + name(p.Out))
		e.line("0 1")
	case rtlsyn.PrimMux:
		// inputs are [sel, d0, d1]: sel=0 passes d0, sel=1 passes d1
		e.line(".names " + name(p.In[0]) + " " + name(p.In[1]) + " " + name(p.In[2]) + " " + name(p.Out))
		e.line("01- 1")
		e.line("1-1 1")
	case rtlsyn.PrimDFF:
		e.line(".latch " + name(p.In[0]) + " " + name(p.Out) + " re " + name(p.Clock))
	default:
		return errors.Errorf("blif: unsupported primitive %s", p.Kind)
	}
	e.line("")
	return nil
}
