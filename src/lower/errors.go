// Package lower drives AST-to-IR lowering: the expression evaluator, the
// statement driver, the call protocol and the top-level orchestrator
// named in the design. Grounded on vslc's backend/arm package (genFunction,
// genExpression, genIf/genWhile, genFunctionCall) generalized to a single
// linear, line-addressed register machine instead of per-target assembly
// text.
package lower

import (
	"fmt"

	"armgen/src/ast"
)

// UnsupportedOperatorError reports a binary operator that the folder
// recognizes but the emitter does not realize: division, modulo, shifts,
// logical and/or, or any comparison reaching general expression position
// (comparisons are only meaningful as an If/While guard, lowered via CMP).
type UnsupportedOperatorError struct {
	Op ast.BinaryOperator
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator in expression position: %s", e.Op)
}

// UnsupportedForRangeError reports a for-loop whose iterator is not a
// literal range(lo, hi) with integer bounds.
type UnsupportedForRangeError struct {
	Reason string
}

func (e *UnsupportedForRangeError) Error() string {
	return "unsupported for-range: " + e.Reason
}

// InvalidASTError reports a malformed AST shape reaching a lowering rule,
// e.g. an if/while condition that is not a comparison BinaryOp.
type InvalidASTError struct {
	Reason string
}

func (e *InvalidASTError) Error() string {
	return "invalid AST: " + e.Reason
}

// UnknownFunctionError reports a call site whose callee is absent from the
// functions directory.
type UnknownFunctionError struct {
	Name string
}

func (e *UnknownFunctionError) Error() string {
	return "unknown function: " + e.Name
}

// UnsupportedFlowError reports a Break or Continue statement. They are
// recognized AST shapes with no defined lowering (§9's open question);
// this module treats "undefined" as "reject", rather than silently
// emitting nothing the way the C original's commented-out branch did.
type UnsupportedFlowError struct {
	Kind string
}

func (e *UnsupportedFlowError) Error() string {
	return "unsupported control-flow statement: " + e.Kind
}
