package rtlsyn

import "fmt"

// A Stage identifies the pipeline stage an error originated from.
//
type Stage string

// Pipeline stages.
const (
	StageElaborate Stage = "elaborate"
	StageBitBlast  Stage = "bitblast"
	StageValidate  Stage = "validate"
)

// UnsupportedConstructError reports an AST node outside the supported
// RTL subset.
//
type UnsupportedConstructError struct {
	Module    string
	Construct string
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("%s: module %s: unsupported construct %s", StageElaborate, e.Module, e.Construct)
}

// UnresolvedParameterError reports a parameter expression that does not
// fold to a constant.
//
type UnresolvedParameterError struct {
	Module string
	Param  string
}

func (e *UnresolvedParameterError) Error() string {
	return fmt.Sprintf("%s: module %s: parameter %s does not resolve to a constant", StageElaborate, e.Module, e.Param)
}

// InstantiationCycleError reports a module that directly or transitively
// instantiates itself.
//
type InstantiationCycleError struct {
	Module string
}

func (e *InstantiationCycleError) Error() string {
	return fmt.Sprintf("%s: module %s instantiates itself", StageElaborate, e.Module)
}

// WidthMismatchError reports a connection between a port or signal and
// an actual of a different width.
//
type WidthMismatchError struct {
	Module   string
	Signal   string
	Declared int
	Actual   int
}

func (e *WidthMismatchError) Error() string {
	return fmt.Sprintf("%s: module %s: width mismatch on %s: declared %d, connected %d", StageElaborate, e.Module, e.Signal, e.Declared, e.Actual)
}

// MultipleDriverError reports a signal assigned from more than one
// process or from both a process and a continuous assignment.
//
type MultipleDriverError struct {
	Module string
	Signal string
}

func (e *MultipleDriverError) Error() string {
	return fmt.Sprintf("%s: module %s: signal %s has multiple drivers", StageElaborate, e.Module, e.Signal)
}

// IncompleteDriverError reports a combinational signal left unassigned
// on some control-flow path. Latch inference is not performed.
//
type IncompleteDriverError struct {
	Module string
	Signal string
}

func (e *IncompleteDriverError) Error() string {
	return fmt.Sprintf("%s: module %s: signal %s not driven on all paths", StageElaborate, e.Module, e.Signal)
}

// UnresolvableLoopBoundError reports a generate loop whose bound is not
// a compile-time constant.
//
type UnresolvableLoopBoundError struct {
	Module string
	Var    string
}

func (e *UnresolvableLoopBoundError) Error() string {
	return fmt.Sprintf("%s: module %s: generate loop %s has a non-constant bound", StageElaborate, e.Module, e.Var)
}

// OperandWidthError reports a bitwise operation on operands of
// disagreeing widths.
//
type OperandWidthError struct {
	Signal string
	Op     string
	Left   int
	Right  int
}

func (e *OperandWidthError) Error() string {
	return fmt.Sprintf("%s: operand widths disagree for %q near %s: %d vs %d", StageBitBlast, e.Op, e.Signal, e.Left, e.Right)
}

// MissingDefaultError reports a case statement without a default branch
// feeding a combinational signal.
//
type MissingDefaultError struct {
	Signal string
}

func (e *MissingDefaultError) Error() string {
	return fmt.Sprintf("%s: conditional driving %s has no default branch", StageBitBlast, e.Signal)
}

// UnknownOperatorError reports an operator the bit blaster cannot
// lower.
//
type UnknownOperatorError struct {
	Signal string
	Op     string
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("%s: unknown operator %q near %s", StageBitBlast, e.Op, e.Signal)
}

// MultiDriverNetError reports a net driven by more than one primitive
// output, or by none.
//
type MultiDriverNetError struct {
	Net     string
	Drivers int
}

func (e *MultiDriverNetError) Error() string {
	return fmt.Sprintf("%s: net %s has %d drivers", StageValidate, e.Net, e.Drivers)
}

// CombinationalCycleError reports a cycle in the combinational
// sub-graph.
//
type CombinationalCycleError struct {
	Net string
}

func (e *CombinationalCycleError) Error() string {
	return fmt.Sprintf("%s: combinational cycle through %s", StageValidate, e.Net)
}
