package rtlsyn

// A SignalKind classifies a flat signal as combinational or clocked.
//
type SignalKind int

// Signal kinds.
const (
	KindWire SignalKind = iota
	KindRegister
)

func (k SignalKind) String() string {
	if k == KindRegister {
		return "register"
	}
	return "wire"
}

// A Signal is a word-level signal of the flattened module. A wire holds
// its single driving expression in Driver; a register holds its
// next-state expression in Driver plus its clock and optional
// synchronous reset.
//
type Signal struct {
	Name   string
	Width  int
	Signed bool
	Kind   SignalKind

	IsInput  bool
	IsOutput bool

	// Driver is the driving expression of a wire, or the next-state
	// expression of a register. NoExpr on primary inputs.
	Driver ExprID

	// Register only.
	Clock      string // clock signal name
	Reset      ExprID // reset condition, NoExpr if none
	ResetValue ExprID // value loaded while reset holds
}

// A Module is the flattened, word-level output of elaboration: every
// signal carries a resolved width and a driver classification, and no
// instances remain.
//
type Module struct {
	Name    string
	Exprs   *ExprArena
	signals map[string]*Signal
	order   []string
}

// NewModule returns an empty flat module.
//
func NewModule(name string) *Module {
	return &Module{
		Name:    name,
		Exprs:   &ExprArena{},
		signals: make(map[string]*Signal),
	}
}

// Signal returns the named signal, or nil.
//
func (m *Module) Signal(name string) *Signal {
	return m.signals[name]
}

// AddSignal registers s. Adding a name twice panics: elaboration
// guarantees global uniqueness via hierarchical prefixes.
//
func (m *Module) AddSignal(s *Signal) *Signal {
	if _, ok := m.signals[s.Name]; ok {
		panic("duplicate signal " + s.Name)
	}
	s.Driver = NoExpr
	s.Reset = NoExpr
	s.ResetValue = NoExpr
	m.signals[s.Name] = s
	m.order = append(m.order, s.Name)
	return s
}

// Signals returns all signals in declaration order.
//
func (m *Module) Signals() []*Signal {
	out := make([]*Signal, len(m.order))
	for i, n := range m.order {
		out[i] = m.signals[n]
	}
	return out
}

// Inputs returns the primary input signals in declaration order.
//
func (m *Module) Inputs() []*Signal {
	var out []*Signal
	for _, s := range m.Signals() {
		if s.IsInput {
			out = append(out, s)
		}
	}
	return out
}

// Outputs returns the primary output signals in declaration order.
//
func (m *Module) Outputs() []*Signal {
	var out []*Signal
	for _, s := range m.Signals() {
		if s.IsOutput {
			out = append(out, s)
		}
	}
	return out
}

// Registers returns the register signals in declaration order.
//
func (m *Module) Registers() []*Signal {
	var out []*Signal
	for _, s := range m.Signals() {
		if s.Kind == KindRegister {
			out = append(out, s)
		}
	}
	return out
}
