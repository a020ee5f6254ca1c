package rtlsyn

import "github.com/pkg/errors"

// ValidateModule checks the structural invariants of a flattened
// word-level module: every signal is driven exactly once, every
// referenced signal is defined, driver widths agree with declarations,
// and the combinational dependency graph is acyclic (registers break
// cycles). The first violation found is returned.
//
func ValidateModule(m *Module) error {
	for _, s := range m.Signals() {
		if s.IsInput {
			if s.Driver != NoExpr {
				return &MultipleDriverError{Module: m.Name, Signal: s.Name}
			}
			continue
		}
		if s.Driver == NoExpr {
			return &IncompleteDriverError{Module: m.Name, Signal: s.Name}
		}
		if w := m.Exprs.Node(s.Driver).Width; w != s.Width {
			return &WidthMismatchError{Module: m.Name, Signal: s.Name, Declared: s.Width, Actual: w}
		}
		refs := make(map[string]bool)
		m.Exprs.refs(s.Driver, refs)
		m.Exprs.refs(s.Reset, refs)
		m.Exprs.refs(s.ResetValue, refs)
		if s.Kind == KindRegister {
			refs[s.Clock] = true
		}
		for name := range refs {
			if m.Signal(name) == nil {
				return errors.Errorf("validate: module %s: %s references undefined signal %s", m.Name, s.Name, name)
			}
		}
	}
	return validateModuleAcyclic(m)
}

// validateModuleAcyclic runs a DFS over wire dependencies with
// back-edge detection. Register outputs are sources: a path through a
// DFF is not a combinational cycle.
//
func validateModuleAcyclic(m *Module) error {
	const (
		white = iota // unvisited
		grey         // on the current DFS path
		black        // done
	)
	color := make(map[string]int, len(m.order))

	var visit func(name string) error
	visit = func(name string) error {
		s := m.Signal(name)
		if s == nil || s.IsInput || s.Kind == KindRegister {
			return nil
		}
		switch color[name] {
		case grey:
			return &CombinationalCycleError{Net: name}
		case black:
			return nil
		}
		color[name] = grey
		refs := make(map[string]bool)
		m.Exprs.refs(s.Driver, refs)
		for dep := range refs {
			if err := visit(dep); err != nil {
				return err
			}
		}
		color[name] = black
		return nil
	}

	for _, s := range m.Signals() {
		if err := visit(s.Name); err != nil {
			return err
		}
	}
	return nil
}

// ValidateNetlist checks the gate-level invariants: every net has
// exactly one driver (a primitive output, a primary input bit, or a
// reserved constant) and the combinational sub-graph is acyclic with
// DFF outputs treated as sources.
//
func ValidateNetlist(n *Netlist) error {
	drivers := make([]int, n.NumNets())
	drivers[Const0] = 1
	drivers[Const1] = 1
	for _, in := range n.Inputs {
		drivers[in]++
	}
	driverOf := make([]int, n.NumNets()) // prim index + 1, 0 = none
	for i, p := range n.Prims {
		drivers[p.Out]++
		driverOf[p.Out] = i + 1
	}
	for id, cnt := range drivers {
		if cnt != 1 {
			return &MultiDriverNetError{Net: n.NetName(NetID(id)), Drivers: cnt}
		}
	}

	// every primitive input must trace to a defined driver
	for _, p := range n.Prims {
		for _, in := range p.In {
			if in < 0 || int(in) >= n.NumNets() {
				return &MultiDriverNetError{Net: "net(?)", Drivers: 0}
			}
		}
	}
	return validateNetlistAcyclic(n, driverOf)
}

func validateNetlistAcyclic(n *Netlist, driverOf []int) error {
	const (
		white = iota
		grey
		black
	)
	color := make([]int, n.NumNets())

	var visit func(id NetID) error
	visit = func(id NetID) error {
		pi := driverOf[id]
		if pi == 0 {
			return nil // primary input or constant
		}
		p := &n.Prims[pi-1]
		if p.Kind == PrimDFF {
			return nil // state element breaks the cycle
		}
		switch color[id] {
		case grey:
			return &CombinationalCycleError{Net: n.NetName(id)}
		case black:
			return nil
		}
		color[id] = grey
		for _, in := range p.In {
			if err := visit(in); err != nil {
				return err
			}
		}
		color[id] = black
		return nil
	}

	for id := 0; id < n.NumNets(); id++ {
		if err := visit(NetID(id)); err != nil {
			return err
		}
	}
	return nil
}
