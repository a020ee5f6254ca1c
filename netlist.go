package rtlsyn

import "strconv"

// A NetID identifies a single-bit net in a Netlist.
//
type NetID int32

// NoNet marks an absent net reference (no reset on a DFF).
//
const NoNet NetID = -1

// Reserved constant nets, always present.
//
const (
	Const0 NetID = iota
	Const1
	cstNets
)

// A PrimKind is a primitive gate kind.
//
type PrimKind uint8

// Primitive kinds.
const (
	PrimAnd PrimKind = iota
	PrimOr
	PrimXor
	PrimNot
	PrimMux
	PrimDFF
)

var primNames = [...]string{"AND", "OR", "XOR", "NOT", "MUX", "DFF"}

func (k PrimKind) String() string {
	if int(k) < len(primNames) {
		return primNames[k]
	}
	return "PRIM(?)"
}

// A Prim is one primitive gate. Input order is significant:
//
//	AND, OR, XOR: [a, b]
//	NOT:          [in]
//	MUX:          [sel, d0, d1]  sel=0 -> d0, sel=1 -> d1
//	DFF:          [d] with Clock set, Reset optionally set
//
// A DFF's Reset names the synchronous reset net for back ends that
// track it; the reset multiplexing itself is structural, inserted in
// front of the D input by the bit blaster.
//
type Prim struct {
	Kind  PrimKind
	In    []NetID
	Out   NetID
	Clock NetID
	Reset NetID
}

// A Netlist is the flat gate-level output of bit blasting: single-bit
// nets and the primitives driving them. It is the terminal artifact of
// the pipeline and is not mutated after BitBlast returns it.
//
type Netlist struct {
	Name    string
	Inputs  []NetID // primary input bits, port order, LSB first
	Outputs []NetID // primary output bits, port order, LSB first
	Prims   []Prim

	names []string
	tmps  int
}

func newNetlist(name string) *Netlist {
	n := &Netlist{Name: name}
	n.newNet("$false")
	n.newNet("$true")
	return n
}

// newNet allocates a net and returns its id.
//
func (n *Netlist) newNet(name string) NetID {
	n.names = append(n.names, name)
	return NetID(len(n.names) - 1)
}

// tmp allocates an anonymous intermediate net.
//
func (n *Netlist) tmp() NetID {
	id := n.newNet("__" + strconv.Itoa(n.tmps))
	n.tmps++
	return id
}

// NumNets returns the net count, reserved constants included.
//
func (n *Netlist) NumNets() int { return len(n.names) }

// NetName returns the name of net id.
//
func (n *Netlist) NetName(id NetID) string {
	return n.names[id]
}

// BitName builds the canonical name of bit i of a word-level signal of
// the given width. One-bit signals keep their plain name.
//
func BitName(base string, i, width int) string {
	if width == 1 {
		return base
	}
	return base + "_" + strconv.Itoa(i)
}

func (n *Netlist) addPrim(p Prim) NetID {
	if p.Clock == 0 && p.Kind != PrimDFF {
		p.Clock = NoNet
	}
	if p.Reset == 0 && p.Kind != PrimDFF {
		p.Reset = NoNet
	}
	n.Prims = append(n.Prims, p)
	return p.Out
}

func (n *Netlist) and(a, b NetID) NetID {
	return n.addPrim(Prim{Kind: PrimAnd, In: []NetID{a, b}, Out: n.tmp()})
}

func (n *Netlist) or(a, b NetID) NetID {
	return n.addPrim(Prim{Kind: PrimOr, In: []NetID{a, b}, Out: n.tmp()})
}

func (n *Netlist) xor(a, b NetID) NetID {
	return n.addPrim(Prim{Kind: PrimXor, In: []NetID{a, b}, Out: n.tmp()})
}

func (n *Netlist) not(a NetID) NetID {
	return n.addPrim(Prim{Kind: PrimNot, In: []NetID{a}, Out: n.tmp()})
}

func (n *Netlist) mux(sel, d0, d1 NetID) NetID {
	return n.addPrim(Prim{Kind: PrimMux, In: []NetID{sel, d0, d1}, Out: n.tmp()})
}

// xorInto, muxInto and dffInto drive an existing net instead of a fresh
// temporary, used for the final bit of a signal.

func (n *Netlist) xorInto(a, b, out NetID) {
	n.addPrim(Prim{Kind: PrimXor, In: []NetID{a, b}, Out: out})
}

func (n *Netlist) muxInto(sel, d0, d1, out NetID) {
	n.addPrim(Prim{Kind: PrimMux, In: []NetID{sel, d0, d1}, Out: out})
}

func (n *Netlist) dffInto(d, clk, rst, q NetID) {
	n.addPrim(Prim{Kind: PrimDFF, In: []NetID{d}, Out: q, Clock: clk, Reset: rst})
}

// buf drives out with the value of a. Emitted as an OR of a with
// itself so that the netlist stays within the primitive set.
//
func (n *Netlist) buf(a, out NetID) {
	n.addPrim(Prim{Kind: PrimOr, In: []NetID{a, a}, Out: out})
}
