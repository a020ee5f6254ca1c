package rtlsyn

import (
	"strconv"

	"github.com/hwtoolkit/rtlsyn/rtl"
	"github.com/pkg/errors"
)

// Elaborate resolves parameters, flattens the module hierarchy, unrolls
// generate loops and infers registers, producing one flat word-level
// module from the design's top module.
//
func Elaborate(d *rtl.Design) (*Module, error) {
	top, ok := d.Modules[d.Top]
	if !ok {
		return nil, errors.Errorf("elaborate: top module %q not found", d.Top)
	}
	ctx := &elabCtx{
		design: d,
		out:    NewModule(top.Name),
		driven: make(map[string]bool),
	}
	env, err := ctx.resolveParams(top, nil, nil, "")
	if err != nil {
		return nil, err
	}
	if err := ctx.instantiate(top, "", env, nil); err != nil {
		return nil, err
	}
	if err := ctx.finish(); err != nil {
		return nil, err
	}
	return ctx.out, nil
}

// elabCtx is the run-scoped state threaded through recursive
// elaboration: the output module under construction, the current
// instantiation path and a record of which flat signals already have a
// driver. All of it is owned by a single Elaborate call.
//
type elabCtx struct {
	design *rtl.Design
	out    *Module
	stack  []string        // instantiation path, for cycle detection
	driven map[string]bool // flat signal name -> has a driver
}

// scope resolves source-level names of one module instance to flat
// signal names and constant parameter values.
//
type scope struct {
	mod    *rtl.Module
	prefix string // hierarchical prefix, "" at top
	params map[string]int64
}

func (sc *scope) flat(name string) string {
	return sc.prefix + name
}

// portConn carries one instance port connection while the child is
// being inlined.
//
type portConn struct {
	formal rtl.Port
	actual rtl.Expr // in the parent's scope; nil when unconnected
	parent *scope
}

// resolveParams computes the fully folded parameter environment of mod.
// Overrides are folded in the parent's environment; defaults in the
// child's own partial environment, so a default may reference an
// earlier parameter.
//
func (ctx *elabCtx) resolveParams(mod *rtl.Module, overrides map[string]rtl.Expr, parent *scope, instName string) (map[string]int64, error) {
	env := make(map[string]int64, len(mod.Params))
	for name := range overrides {
		found := false
		for _, p := range mod.Params {
			if p.Name == name {
				found = true
				break
			}
		}
		if !found {
			return nil, &UnresolvedParameterError{Module: mod.Name, Param: name}
		}
	}
	for _, p := range mod.Params {
		if ov, ok := overrides[p.Name]; ok {
			v, ok := constEval(ov, parent.params)
			if !ok {
				return nil, &UnresolvedParameterError{Module: parent.mod.Name, Param: instName + "." + p.Name}
			}
			env[p.Name] = v
			continue
		}
		if p.Default == nil {
			return nil, &UnresolvedParameterError{Module: mod.Name, Param: p.Name}
		}
		v, ok := constEval(p.Default, env)
		if !ok {
			return nil, &UnresolvedParameterError{Module: mod.Name, Param: p.Name}
		}
		env[p.Name] = v
	}
	return env, nil
}

// instantiate inlines one instance of mod into ctx.out under the given
// hierarchical prefix. conns is nil for the top module.
//
func (ctx *elabCtx) instantiate(mod *rtl.Module, prefix string, env map[string]int64, conns map[string]portConn) error {
	for _, m := range ctx.stack {
		if m == mod.Name {
			return &InstantiationCycleError{Module: mod.Name}
		}
	}
	ctx.stack = append(ctx.stack, mod.Name)
	defer func() { ctx.stack = ctx.stack[:len(ctx.stack)-1] }()

	sc := &scope{mod: mod, prefix: prefix, params: env}

	if err := ctx.declarePorts(sc, conns); err != nil {
		return err
	}
	for _, d := range mod.Decls {
		w, err := ctx.widthOf(sc, d.Width, d.Name)
		if err != nil {
			return err
		}
		ctx.out.AddSignal(&Signal{Name: sc.flat(d.Name), Width: w, Signed: d.Signed})
	}
	if err := ctx.walkItems(sc, mod.Items); err != nil {
		return err
	}

	// bind output ports to their parent-side actuals
	for _, pc := range conns {
		if pc.formal.Dir != rtl.Output || pc.actual == nil {
			continue
		}
		if err := ctx.bindOutput(sc, pc); err != nil {
			return err
		}
	}
	return nil
}

func (ctx *elabCtx) declarePorts(sc *scope, conns map[string]portConn) error {
	for _, p := range sc.mod.Ports {
		if p.Dir == rtl.Inout {
			return &UnsupportedConstructError{Module: sc.mod.Name, Construct: "inout port " + p.Name}
		}
		w, err := ctx.widthOf(sc, p.Width, p.Name)
		if err != nil {
			return err
		}
		s := &Signal{Name: sc.flat(p.Name), Width: w, Signed: p.Signed}
		if sc.prefix == "" {
			s.IsInput = p.Dir == rtl.Input
			s.IsOutput = p.Dir == rtl.Output
		}
		ctx.out.AddSignal(s)
		if sc.prefix == "" {
			if s.IsInput {
				ctx.driven[s.Name] = true
			}
			continue
		}

		// child instance: drive input ports from their actuals
		pc, connected := conns[p.Name]
		if p.Dir != rtl.Input {
			continue
		}
		if !connected || pc.actual == nil {
			// unconnected inputs are grounded
			s.Driver = ctx.out.Exprs.Const(0, w, false)
			ctx.driven[s.Name] = true
			continue
		}
		id, err := ctx.elabExpr(pc.parent, pc.actual, w)
		if err != nil {
			return err
		}
		if aw := ctx.out.Exprs.Node(id).Width; aw != w {
			return &WidthMismatchError{Module: pc.parent.mod.Name, Signal: s.Name, Declared: w, Actual: aw}
		}
		s.Driver = id
		ctx.driven[s.Name] = true
	}
	return nil
}

// bindOutput connects a child output port back to the signal named by
// the parent-side actual, which must be a plain identifier.
//
func (ctx *elabCtx) bindOutput(sc *scope, pc portConn) error {
	ref, ok := pc.actual.(*rtl.Ident)
	if !ok {
		return &UnsupportedConstructError{Module: pc.parent.mod.Name, Construct: "non-identifier actual on output port " + pc.formal.Name}
	}
	port := ctx.out.Signal(sc.flat(pc.formal.Name))
	target := ctx.lookupOrCreate(pc.parent, ref.Name)
	if target.Width != port.Width {
		return &WidthMismatchError{Module: pc.parent.mod.Name, Signal: target.Name, Declared: target.Width, Actual: port.Width}
	}
	if ctx.driven[target.Name] {
		return &MultipleDriverError{Module: pc.parent.mod.Name, Signal: target.Name}
	}
	target.Driver = ctx.out.Exprs.SignalRef(port.Name, port.Width, port.Signed)
	ctx.driven[target.Name] = true
	return nil
}

func (ctx *elabCtx) walkItems(sc *scope, items []rtl.Item) error {
	for _, it := range items {
		var err error
		switch it := it.(type) {
		case *rtl.Assign:
			err = ctx.elabAssign(sc, it)
		case *rtl.AlwaysFF:
			err = ctx.elabAlwaysFF(sc, it)
		case *rtl.AlwaysComb:
			err = ctx.elabAlwaysComb(sc, it)
		case *rtl.Instance:
			err = ctx.elabInstance(sc, it)
		case *rtl.GenFor:
			err = ctx.unroll(sc, it)
		default:
			err = &UnsupportedConstructError{Module: sc.mod.Name, Construct: itemName(it)}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func itemName(it rtl.Item) string {
	switch it.(type) {
	case *rtl.Assign:
		return "assign"
	case *rtl.AlwaysFF:
		return "always@(edge)"
	case *rtl.AlwaysComb:
		return "always@*"
	case *rtl.Instance:
		return "instance"
	case *rtl.GenFor:
		return "generate for"
	}
	return "unknown item"
}

func (ctx *elabCtx) elabAssign(sc *scope, a *rtl.Assign) error {
	ref, ok := a.LHS.(*rtl.Ident)
	if !ok {
		return &UnsupportedConstructError{Module: sc.mod.Name, Construct: "assignment to bit or part select"}
	}
	s := ctx.lookupOrCreate(sc, ref.Name)
	if ctx.driven[s.Name] {
		return &MultipleDriverError{Module: sc.mod.Name, Signal: s.Name}
	}
	id, err := ctx.elabExpr(sc, a.RHS, s.Width)
	if err != nil {
		return err
	}
	s.Driver = ctx.extend(id, s.Width, s.Signed)
	ctx.driven[s.Name] = true
	return nil
}

func (ctx *elabCtx) elabInstance(sc *scope, inst *rtl.Instance) error {
	child, ok := ctx.design.Modules[inst.Module]
	if !ok {
		return errors.Errorf("elaborate: module %s: unknown module %q in instance %s", sc.mod.Name, inst.Module, inst.Name)
	}
	env, err := ctx.resolveParams(child, inst.ParamOverrides, sc, inst.Name)
	if err != nil {
		return err
	}
	conns := make(map[string]portConn, len(inst.PortConns))
	for formal, actual := range inst.PortConns {
		var port *rtl.Port
		for i := range child.Ports {
			if child.Ports[i].Name == formal {
				port = &child.Ports[i]
				break
			}
		}
		if port == nil {
			return errors.Errorf("elaborate: module %s: instance %s has no port %q", sc.mod.Name, inst.Name, formal)
		}
		conns[formal] = portConn{formal: *port, actual: actual, parent: sc}
	}
	return ctx.instantiate(child, sc.prefix+inst.Name+".", env, conns)
}

// unroll expands a bounded generate loop into its constant number of
// copies. The loop variable is visible to the body as a parameter.
//
func (ctx *elabCtx) unroll(sc *scope, g *rtl.GenFor) error {
	from, ok1 := constEval(g.From, sc.params)
	to, ok2 := constEval(g.To, sc.params)
	step := int64(1)
	ok3 := true
	if g.Step != nil {
		step, ok3 = constEval(g.Step, sc.params)
	}
	if !ok1 || !ok2 || !ok3 || step <= 0 {
		return &UnresolvableLoopBoundError{Module: sc.mod.Name, Var: g.Var}
	}
	for i := from; i < to; i += step {
		env := make(map[string]int64, len(sc.params)+1)
		for k, v := range sc.params {
			env[k] = v
		}
		env[g.Var] = i
		iter := &scope{mod: sc.mod, prefix: sc.prefix, params: env}
		items := make([]rtl.Item, 0, len(g.Body))
		for _, it := range g.Body {
			if inst, ok := it.(*rtl.Instance); ok {
				// uniquify instance names across iterations
				c := *inst
				c.Name = inst.Name + "[" + strconv.FormatInt(i, 10) + "]"
				items = append(items, &c)
				continue
			}
			items = append(items, it)
		}
		if err := ctx.walkItems(iter, items); err != nil {
			return err
		}
	}
	return nil
}

// widthOf folds a declared width expression; nil means one bit.
//
func (ctx *elabCtx) widthOf(sc *scope, w rtl.Expr, signal string) (int, error) {
	if w == nil {
		return 1, nil
	}
	v, ok := constEval(w, sc.params)
	if !ok {
		return 0, &UnresolvedParameterError{Module: sc.mod.Name, Param: "width of " + signal}
	}
	if v < 1 || v > 64 {
		return 0, errors.Errorf("elaborate: module %s: width %d of %s out of range", sc.mod.Name, v, signal)
	}
	return int(v), nil
}

// lookupOrCreate resolves a source name to its flat signal, declaring
// an implicit one-bit wire when the name was never declared.
//
func (ctx *elabCtx) lookupOrCreate(sc *scope, name string) *Signal {
	if s := ctx.out.Signal(sc.flat(name)); s != nil {
		return s
	}
	return ctx.out.AddSignal(&Signal{Name: sc.flat(name), Width: 1})
}

// finish prunes undriven signals nothing refers to, then checks that
// everything remaining is fully driven.
//
func (ctx *elabCtx) finish() error {
	used := make(map[string]bool)
	for _, s := range ctx.out.Signals() {
		if s.Driver != NoExpr {
			ctx.out.Exprs.refs(s.Driver, used)
		}
		ctx.out.Exprs.refs(s.Reset, used)
		ctx.out.Exprs.refs(s.ResetValue, used)
		if s.Kind == KindRegister {
			used[s.Clock] = true
		}
	}
	var keep []string
	for _, name := range ctx.out.order {
		s := ctx.out.signals[name]
		if s.Driver == NoExpr && !s.IsInput {
			if !used[name] && !s.IsOutput {
				delete(ctx.out.signals, name)
				continue
			}
			return &IncompleteDriverError{Module: ctx.out.Name, Signal: name}
		}
		keep = append(keep, name)
	}
	ctx.out.order = keep
	return nil
}
