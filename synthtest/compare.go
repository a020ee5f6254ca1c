package synthtest

import (
	"math/rand"
	"testing"
	"time"

	"github.com/hwtoolkit/rtlsyn"
)

// A Ref evaluates a flat word-level module directly, serving as the
// reference model in equivalence tests. Register state starts at 0 and
// advances on Step, mirroring the gate-level Sim.
//
type Ref struct {
	m     *rtlsyn.Module
	state map[string]int64
	in    map[string]int64
}

// NewRef builds a reference model for m.
//
func NewRef(m *rtlsyn.Module) *Ref {
	return &Ref{m: m, state: make(map[string]int64), in: make(map[string]int64)}
}

// Poke sets the value of a primary input.
//
func (r *Ref) Poke(name string, v uint64) {
	r.in[name] = int64(v)
}

func (r *Ref) look(name string) int64 {
	s := r.m.Signal(name)
	if s.IsInput {
		return r.in[name]
	}
	if s.Kind == rtlsyn.KindRegister {
		return r.state[name]
	}
	return r.m.Exprs.Eval(s.Driver, r.look)
}

// Peek reads the current value of any signal.
//
func (r *Ref) Peek(name string) uint64 {
	s := r.m.Signal(name)
	return maskU(uint64(r.look(name)), s.Width)
}

// Step advances all registers one clock, applying synchronous resets.
//
func (r *Ref) Step() {
	next := make(map[string]int64)
	for _, s := range r.m.Registers() {
		v := r.m.Exprs.Eval(s.Driver, r.look)
		if s.Reset != rtlsyn.NoExpr && r.m.Exprs.Eval(s.Reset, r.look) != 0 {
			v = r.m.Exprs.Eval(s.ResetValue, r.look)
		}
		next[s.Name] = v
	}
	for k, v := range next {
		r.state[k] = v
	}
}

func maskU(v uint64, w int) uint64 {
	if w >= 64 {
		return v
	}
	return v & (1<<uint(w) - 1)
}

// CompareCombinational checks that the netlist n computes the same
// outputs as the word-level module m on every input vector, exhaustively
// when the total input width allows it and on random vectors otherwise.
// The module must have no registers.
//
func CompareCombinational(t *testing.T, m *rtlsyn.Module, n *rtlsyn.Netlist) {
	t.Helper()
	if len(m.Registers()) > 0 {
		t.Fatal("CompareCombinational: module has registers")
	}
	inputs := m.Inputs()
	total := 0
	for _, s := range inputs {
		total += s.Width
	}

	sim, err := NewSim(n)
	if err != nil {
		t.Fatal(err)
	}
	ref := NewRef(m)

	check := func(vec uint64) {
		off := 0
		for _, s := range inputs {
			v := maskU(vec>>uint(off), s.Width)
			off += s.Width
			ref.Poke(s.Name, v)
			if err := sim.Poke(s.Name, s.Width, v); err != nil {
				t.Fatal(err)
			}
		}
		sim.Eval()
		for _, s := range m.Outputs() {
			want := ref.Peek(s.Name)
			got, err := sim.Peek(s.Name, s.Width)
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Fatalf("input vector %b: output %s = %d, want %d", vec, s.Name, got, want)
			}
		}
	}

	if total <= 16 {
		for vec := uint64(0); vec < 1<<uint(total); vec++ {
			check(vec)
		}
		return
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < 1000; i++ {
		check(rng.Uint64())
	}
}

// CompareSequential runs m and n side by side for the given number of
// clock cycles with random data inputs, comparing all outputs before
// each edge. Clock inputs are identified from the registers and held
// out of the random drive.
//
func CompareSequential(t *testing.T, m *rtlsyn.Module, n *rtlsyn.Netlist, cycles int) {
	t.Helper()
	clocks := make(map[string]bool)
	for _, s := range m.Registers() {
		clocks[s.Clock] = true
	}
	var data []*rtlsyn.Signal
	for _, s := range m.Inputs() {
		if !clocks[s.Name] {
			data = append(data, s)
		}
	}

	sim, err := NewSim(n)
	if err != nil {
		t.Fatal(err)
	}
	ref := NewRef(m)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for cycle := 0; cycle < cycles; cycle++ {
		for _, s := range data {
			v := maskU(rng.Uint64(), s.Width)
			ref.Poke(s.Name, v)
			if err := sim.Poke(s.Name, s.Width, v); err != nil {
				t.Fatal(err)
			}
		}
		sim.Eval()
		for _, s := range m.Outputs() {
			want := ref.Peek(s.Name)
			got, err := sim.Peek(s.Name, s.Width)
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Fatalf("cycle %d: output %s = %d, want %d", cycle, s.Name, got, want)
			}
		}
		sim.Step()
		ref.Step()
	}
}
