package rtlsyn

import (
	"strings"

	"github.com/pkg/errors"
)

// BitBlast lowers a flattened module into a gate-level netlist: every
// word-level signal becomes one net per bit (bit 0 least significant),
// every operator a network of primitives, every register one DFF per
// bit.
//
func BitBlast(m *Module) (*Netlist, error) {
	b := &blaster{
		m:      m,
		nl:     newNetlist(m.Name),
		bits:   make(map[string][]NetID),
		memo:   make(map[ExprID][]NetID),
		inprog: make(map[string]bool),
	}
	if err := b.run(); err != nil {
		return nil, err
	}
	return b.nl, nil
}

type blaster struct {
	m      *Module
	nl     *Netlist
	bits   map[string][]NetID // signal name -> per-bit nets
	memo   map[ExprID][]NetID // expression DAG sharing
	inprog map[string]bool
	cur    string // signal being driven, for error identity
}

func (b *blaster) run() error {
	// inputs and register outputs first: they are the sources every
	// combinational path traces back to
	for _, s := range b.m.Signals() {
		if s.IsInput || s.Kind == KindRegister {
			b.alloc(s)
		}
	}
	for _, s := range b.m.Signals() {
		if _, err := b.signalBits(s); err != nil {
			return err
		}
	}
	for _, s := range b.m.Registers() {
		if err := b.blastRegister(s); err != nil {
			return err
		}
	}
	for _, s := range b.m.Inputs() {
		b.nl.Inputs = append(b.nl.Inputs, b.bits[s.Name]...)
	}
	for _, s := range b.m.Outputs() {
		out, err := b.outputBits(s)
		if err != nil {
			return err
		}
		b.nl.Outputs = append(b.nl.Outputs, out...)
	}
	return nil
}

func (b *blaster) alloc(s *Signal) []NetID {
	nets := make([]NetID, s.Width)
	for i := range nets {
		nets[i] = b.nl.newNet(BitName(s.Name, i, s.Width))
	}
	b.bits[s.Name] = nets
	return nets
}

// signalBits returns the nets carrying a signal. Inputs and registers
// own fresh nets; a wire's nets are whatever its driving expression
// lowers to, renamed when anonymous.
//
func (b *blaster) signalBits(s *Signal) ([]NetID, error) {
	if nets, ok := b.bits[s.Name]; ok {
		return nets, nil
	}
	if b.inprog[s.Name] {
		return nil, &CombinationalCycleError{Net: s.Name}
	}
	b.inprog[s.Name] = true
	defer delete(b.inprog, s.Name)

	prev := b.cur
	b.cur = s.Name
	nets, err := b.expr(s.Driver)
	b.cur = prev
	if err != nil {
		return nil, err
	}
	if len(nets) != s.Width {
		return nil, &OperandWidthError{Signal: s.Name, Op: "=", Left: s.Width, Right: len(nets)}
	}
	// claim anonymous nets for this signal's bit names
	named := make([]NetID, s.Width)
	copy(named, nets)
	for i, id := range named {
		if strings.HasPrefix(b.nl.names[id], "__") {
			b.nl.names[id] = BitName(s.Name, i, s.Width)
		}
	}
	b.bits[s.Name] = named
	return named, nil
}

// outputBits returns nets for a primary output, inserting buffers when
// the driving nets already carry another name, so that the exported
// output bits keep the port's name.
//
func (b *blaster) outputBits(s *Signal) ([]NetID, error) {
	nets, err := b.signalBits(s)
	if err != nil {
		return nil, err
	}
	out := make([]NetID, len(nets))
	for i, id := range nets {
		want := BitName(s.Name, i, s.Width)
		if b.nl.names[id] == want {
			out[i] = id
			continue
		}
		o := b.nl.newNet(want)
		b.nl.buf(id, o)
		out[i] = o
	}
	return out, nil
}

func (b *blaster) blastRegister(s *Signal) error {
	b.cur = s.Name
	q := b.bits[s.Name]
	next, err := b.expr(s.Driver)
	if err != nil {
		return err
	}
	if len(next) != s.Width {
		return &OperandWidthError{Signal: s.Name, Op: "<=", Left: s.Width, Right: len(next)}
	}
	clk, err := b.clockNet(s)
	if err != nil {
		return err
	}

	rst := NoNet
	var rv []NetID
	if s.Reset != NoExpr {
		rn, err := b.expr(s.Reset)
		if err != nil {
			return err
		}
		rst = rn[0]
		rv, err = b.expr(s.ResetValue)
		if err != nil {
			return err
		}
		if len(rv) != s.Width {
			return &OperandWidthError{Signal: s.Name, Op: "reset", Left: s.Width, Right: len(rv)}
		}
	}
	for i := 0; i < s.Width; i++ {
		d := next[i]
		if rst != NoNet {
			// reset wins over the computed next state
			d = b.nl.mux(rst, next[i], rv[i])
		}
		b.nl.dffInto(d, clk, rst, q[i])
	}
	return nil
}

func (b *blaster) clockNet(s *Signal) (NetID, error) {
	clk := b.m.Signal(s.Clock)
	if clk == nil {
		return NoNet, errors.Errorf("bitblast: register %s: clock %q not found", s.Name, s.Clock)
	}
	if clk.Width != 1 {
		return NoNet, &OperandWidthError{Signal: s.Name, Op: "clock", Left: 1, Right: clk.Width}
	}
	nets, err := b.signalBits(clk)
	if err != nil {
		return NoNet, err
	}
	return nets[0], nil
}

// expr lowers an expression DAG node to its per-bit nets. Shared nodes
// lower once and share their gates.
//
func (b *blaster) expr(id ExprID) ([]NetID, error) {
	if nets, ok := b.memo[id]; ok {
		return nets, nil
	}
	nets, err := b.lower(id)
	if err != nil {
		return nil, err
	}
	b.memo[id] = nets
	return nets, nil
}

func (b *blaster) lower(id ExprID) ([]NetID, error) {
	a := b.m.Exprs
	n := a.Node(id)
	switch n.Op {
	case XConst:
		nets := make([]NetID, n.Width)
		for i := range nets {
			if n.Value>>uint(i)&1 != 0 {
				nets[i] = Const1
			} else {
				nets[i] = Const0
			}
		}
		return nets, nil

	case XSignal:
		s := b.m.Signal(n.Signal)
		if s == nil {
			return nil, errors.Errorf("bitblast: unknown signal %q near %s", n.Signal, b.cur)
		}
		return b.signalBits(s)

	case XNot:
		x, err := b.expr(n.Args[0])
		if err != nil {
			return nil, err
		}
		return []NetID{b.nl.not(b.orReduce(x))}, nil

	case XBitNot:
		x, err := b.expr(n.Args[0])
		if err != nil {
			return nil, err
		}
		nets := make([]NetID, len(x))
		for i, bit := range x {
			nets[i] = b.nl.not(bit)
		}
		return nets, nil

	case XRedAnd, XRedOr, XRedXor:
		x, err := b.expr(n.Args[0])
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case XRedAnd:
			return []NetID{b.reduce(x, b.nl.and)}, nil
		case XRedOr:
			return []NetID{b.orReduce(x)}, nil
		default:
			return []NetID{b.reduce(x, b.nl.xor)}, nil
		}

	case XAnd, XOr, XXor:
		x, y, err := b.operands(n)
		if err != nil {
			return nil, err
		}
		var g func(a, b NetID) NetID
		switch n.Op {
		case XAnd:
			g = b.nl.and
		case XOr:
			g = b.nl.or
		default:
			g = b.nl.xor
		}
		nets := make([]NetID, len(x))
		for i := range x {
			nets[i] = g(x[i], y[i])
		}
		return nets, nil

	case XAdd:
		x, y, err := b.operands(n)
		if err != nil {
			return nil, err
		}
		sum, _ := b.rippleAdd(x, y, Const0)
		return sum, nil

	case XSub:
		x, y, err := b.operands(n)
		if err != nil {
			return nil, err
		}
		// two's complement: a + ^b + 1
		inv := make([]NetID, len(y))
		for i, bit := range y {
			inv[i] = b.nl.not(bit)
		}
		diff, _ := b.rippleAdd(x, inv, Const1)
		return diff, nil

	case XShl, XShr:
		return b.shift(n)

	case XEq, XNeq:
		x, y, err := b.operands(n)
		if err != nil {
			return nil, err
		}
		diff := make([]NetID, len(x))
		for i := range x {
			diff[i] = b.nl.xor(x[i], y[i])
		}
		any := b.orReduce(diff)
		if n.Op == XNeq {
			return []NetID{any}, nil
		}
		return []NetID{b.nl.not(any)}, nil

	case XLt, XLe, XGt, XGe:
		return b.compare(n)

	case XLAnd, XLOr:
		x, err := b.expr(n.Args[0])
		if err != nil {
			return nil, err
		}
		y, err := b.expr(n.Args[1])
		if err != nil {
			return nil, err
		}
		xr, yr := b.orReduce(x), b.orReduce(y)
		if n.Op == XLAnd {
			return []NetID{b.nl.and(xr, yr)}, nil
		}
		return []NetID{b.nl.or(xr, yr)}, nil

	case XCond:
		return b.condTree(n)

	case XSlice:
		x, err := b.expr(n.Args[0])
		if err != nil {
			return nil, err
		}
		if n.Hi >= len(x) {
			return nil, &OperandWidthError{Signal: b.cur, Op: "slice", Left: n.Hi + 1, Right: len(x)}
		}
		return x[n.Lo : n.Hi+1], nil

	case XConcat:
		var nets []NetID
		for _, arg := range n.Args {
			part, err := b.expr(arg)
			if err != nil {
				return nil, err
			}
			nets = append(nets, part...)
		}
		return nets, nil
	}
	return nil, &UnknownOperatorError{Signal: b.cur, Op: n.Op.String()}
}

// operands lowers both arguments of a binary node and checks that
// their widths agree. Elaboration inserts explicit extensions, so a
// mismatch here is a contract violation.
//
func (b *blaster) operands(n *ExprNode) ([]NetID, []NetID, error) {
	x, err := b.expr(n.Args[0])
	if err != nil {
		return nil, nil, err
	}
	y, err := b.expr(n.Args[1])
	if err != nil {
		return nil, nil, err
	}
	if len(x) != len(y) {
		return nil, nil, &OperandWidthError{Signal: b.cur, Op: n.Op.String(), Left: len(x), Right: len(y)}
	}
	return x, y, nil
}

// rippleAdd builds a ripple-carry chain of full adders: two half
// adders and an OR per bit. The final carry out is returned and
// dropped by callers for modulo arithmetic.
//
func (b *blaster) rippleAdd(x, y []NetID, cin NetID) ([]NetID, NetID) {
	sum := make([]NetID, len(x))
	c := cin
	for i := range x {
		s0 := b.nl.xor(x[i], y[i])
		sum[i] = b.nl.xor(s0, c)
		c = b.nl.or(b.nl.and(s0, c), b.nl.and(x[i], y[i]))
	}
	return sum, c
}

func (b *blaster) shift(n *ExprNode) ([]NetID, error) {
	x, err := b.expr(n.Args[0])
	if err != nil {
		return nil, err
	}
	w := len(x)
	k := int(n.Value)
	nets := make([]NetID, w)
	for i := range nets {
		switch {
		case n.Op == XShl && i >= k:
			nets[i] = x[i-k]
		case n.Op == XShr && i+k < w:
			nets[i] = x[i+k]
		case n.Op == XShr && n.Signed:
			nets[i] = x[w-1] // arithmetic shift keeps the sign
		default:
			nets[i] = Const0
		}
	}
	return nets, nil
}

// compare lowers an ordering comparison through a subtraction carry
// chain. For same-sign or unsigned operands the borrow decides; for
// signed operands with differing signs the sign bits decide.
//
func (b *blaster) compare(n *ExprNode) ([]NetID, error) {
	x, y, err := b.operands(n)
	if err != nil {
		return nil, err
	}
	a, bb := x, y
	// a<b and a<=b come from the borrow of a-b; swap for > and >=
	if n.Op == XGt || n.Op == XGe {
		a, bb = y, x
	}
	lt := b.lessThan(a, bb, b.m.Exprs.Node(n.Args[0]).Signed && b.m.Exprs.Node(n.Args[1]).Signed)
	switch n.Op {
	case XLt, XGt:
		return []NetID{lt}, nil
	default:
		// a<=b == !(b<a)
		ge := b.lessThan(bb, a, b.m.Exprs.Node(n.Args[0]).Signed && b.m.Exprs.Node(n.Args[1]).Signed)
		return []NetID{b.nl.not(ge)}, nil
	}
}

func (b *blaster) lessThan(x, y []NetID, signed bool) NetID {
	inv := make([]NetID, len(y))
	for i, bit := range y {
		inv[i] = b.nl.not(bit)
	}
	_, carry := b.rippleAdd(x, inv, Const1)
	ltU := b.nl.not(carry) // no carry out of a-b means a < b
	if !signed {
		return ltU
	}
	sx, sy := x[len(x)-1], y[len(y)-1]
	negOnly := b.nl.and(sx, b.nl.not(sy))
	sameSign := b.nl.not(b.nl.xor(sx, sy))
	return b.nl.or(negOnly, b.nl.and(sameSign, ltU))
}

// condTree lowers a priority conditional to a MUX chain built from the
// default backward, so the first matching branch in source order wins.
//
func (b *blaster) condTree(n *ExprNode) ([]NetID, error) {
	if n.Else == NoExpr {
		return nil, &MissingDefaultError{Signal: b.cur}
	}
	res, err := b.expr(n.Else)
	if err != nil {
		return nil, err
	}
	if len(res) != n.Width {
		return nil, &OperandWidthError{Signal: b.cur, Op: "cond", Left: n.Width, Right: len(res)}
	}
	for i := len(n.Args) - 2; i >= 0; i -= 2 {
		cond, err := b.expr(n.Args[i])
		if err != nil {
			return nil, err
		}
		val, err := b.expr(n.Args[i+1])
		if err != nil {
			return nil, err
		}
		if len(val) != n.Width {
			return nil, &OperandWidthError{Signal: b.cur, Op: "cond", Left: n.Width, Right: len(val)}
		}
		next := make([]NetID, n.Width)
		for j := 0; j < n.Width; j++ {
			next[j] = b.nl.mux(cond[0], res[j], val[j])
		}
		res = next
	}
	return res, nil
}

func (b *blaster) reduce(x []NetID, g func(a, b NetID) NetID) NetID {
	r := x[0]
	for _, bit := range x[1:] {
		r = g(r, bit)
	}
	return r
}

func (b *blaster) orReduce(x []NetID) NetID {
	if len(x) == 1 {
		return x[0]
	}
	return b.reduce(x, b.nl.or)
}
