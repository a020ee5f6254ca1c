// Package synthtest provides simulation helpers for testing synthesis
// results: a gate-level netlist simulator, a word-level reference model,
// and equivalence checks comparing the two.
//
package synthtest

import (
	"github.com/pkg/errors"

	"github.com/hwtoolkit/rtlsyn"
)

// A Sim simulates a gate-level netlist. Combinational primitives are
// evaluated in topological order; DFFs hold state and advance on Step.
// All flops are assumed to share one clock, which is what the bit
// blaster produces for single clock domain designs.
//
type Sim struct {
	n      *rtlsyn.Netlist
	val    []bool
	order  []int // combinational prims, evaluation order
	dffs   []int
	byName map[string]rtlsyn.NetID
}

// NewSim builds a simulator for n. All register bits start at 0.
//
func NewSim(n *rtlsyn.Netlist) (*Sim, error) {
	s := &Sim{
		n:      n,
		val:    make([]bool, n.NumNets()),
		byName: make(map[string]rtlsyn.NetID, n.NumNets()),
	}
	s.val[rtlsyn.Const1] = true
	for id := rtlsyn.NetID(0); int(id) < n.NumNets(); id++ {
		s.byName[n.NetName(id)] = id
	}

	driver := make([]int, n.NumNets())
	for i := range driver {
		driver[i] = -1
	}
	for i := range n.Prims {
		if n.Prims[i].Kind == rtlsyn.PrimDFF {
			s.dffs = append(s.dffs, i)
			continue
		}
		driver[n.Prims[i].Out] = i
	}

	// depth-first ordering of the combinational prims
	const (
		white = iota
		grey
		black
	)
	state := make([]byte, len(n.Prims))
	var visit func(p int) error
	visit = func(p int) error {
		switch state[p] {
		case black:
			return nil
		case grey:
			return errors.Errorf("combinational cycle through net %s", n.NetName(n.Prims[p].Out))
		}
		state[p] = grey
		for _, in := range n.Prims[p].In {
			if d := driver[in]; d >= 0 {
				if err := visit(d); err != nil {
					return err
				}
			}
		}
		state[p] = black
		s.order = append(s.order, p)
		return nil
	}
	for i := range n.Prims {
		if n.Prims[i].Kind == rtlsyn.PrimDFF {
			continue
		}
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Poke sets the value of a word-level input signal of the given width.
//
func (s *Sim) Poke(name string, width int, v uint64) error {
	for i := 0; i < width; i++ {
		id, ok := s.byName[rtlsyn.BitName(name, i, width)]
		if !ok {
			return errors.Errorf("no net %s", rtlsyn.BitName(name, i, width))
		}
		s.val[id] = v>>uint(i)&1 != 0
	}
	return nil
}

// Peek reads the value of a word-level signal of the given width.
//
func (s *Sim) Peek(name string, width int) (uint64, error) {
	var v uint64
	for i := 0; i < width; i++ {
		id, ok := s.byName[rtlsyn.BitName(name, i, width)]
		if !ok {
			return 0, errors.Errorf("no net %s", rtlsyn.BitName(name, i, width))
		}
		if s.val[id] {
			v |= 1 << uint(i)
		}
	}
	return v, nil
}

// Eval propagates the current input and register values through the
// combinational primitives.
//
func (s *Sim) Eval() {
	for _, p := range s.order {
		pr := &s.n.Prims[p]
		in := pr.In
		var o bool
		switch pr.Kind {
		case rtlsyn.PrimAnd:
			o = s.val[in[0]] && s.val[in[1]]
		case rtlsyn.PrimOr:
			o = s.val[in[0]] || s.val[in[1]]
		case rtlsyn.PrimXor:
			o = s.val[in[0]] != s.val[in[1]]
		case rtlsyn.PrimNot:
			o = !s.val[in[0]]
		case rtlsyn.PrimMux:
			if s.val[in[0]] {
				o = s.val[in[2]]
			} else {
				o = s.val[in[1]]
			}
		}
		s.val[pr.Out] = o
	}
}

// Step simulates one positive clock edge: the settled D values load into
// the flops, then the combinational logic settles again.
//
func (s *Sim) Step() {
	s.Eval()
	next := make([]bool, len(s.dffs))
	for i, p := range s.dffs {
		next[i] = s.val[s.n.Prims[p].In[0]]
	}
	for i, p := range s.dffs {
		s.val[s.n.Prims[p].Out] = next[i]
	}
	s.Eval()
}
