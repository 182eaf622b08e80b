// Package fold implements the two classical scalar optimizations the
// lowering core applies before emission: constant propagation and constant
// folding. Both are pure AST-to-AST rewrites, consulting an env.Environment
// for the known-value side-table and returning a new tree rather than
// mutating nodes in place — the double-free/aliasing class visible in
// optimise_ir.c's in-place tag rewrite (e.g. freeing a node's old payload
// while reusing its tag slot) has no Go equivalent once nodes are
// replaced, not mutated.
package fold

import "armgen/src/ast"

// knownValues is the minimal read-only view ConstProp/ConstFold need from
// the Lowering Environment: the current known integer value bound to a
// name, if any.
type knownValues interface {
	KnownValueForName(name string) (int64, bool)
}

// ConstProp replaces every Name in expr whose current known value is an
// integer with an IntegerLiteral bearing that value; names without a known
// value are left untouched. The rewrite is shape-preserving outside
// replaced nodes and recurses into every sub-expression.
func ConstProp(expr ast.Expression, env knownValues) ast.Expression {
	switch e := expr.(type) {
	case *ast.Name:
		if v, ok := env.KnownValueForName(e.Value); ok {
			return &ast.IntegerLiteral{Value: v}
		}
		return e
	case *ast.IntegerLiteral:
		return e
	case *ast.BinaryOp:
		return &ast.BinaryOp{Op: e.Op, Left: ConstProp(e.Left, env), Right: ConstProp(e.Right, env)}
	case *ast.UnaryOp:
		return &ast.UnaryOp{Op: e.Op, Operand: ConstProp(e.Operand, env)}
	case *ast.Call:
		args := make([]ast.Expression, len(e.Args))
		for i, a := range e.Args {
			args[i] = ConstProp(a, env)
		}
		return &ast.Call{Callee: e.Callee, Args: args}
	default:
		return expr
	}
}

// ConstFold propagates known names first, then folds bottom-up: once both
// children of a binary op (or the sole child of a unary op) are integer
// literals, it computes the literal result and replaces the op node with
// it. ConstFold is idempotent: folding an already-folded tree returns the
// same tree.
func ConstFold(expr ast.Expression, env knownValues) ast.Expression {
	propagated := ConstProp(expr, env)
	return foldBottomUp(propagated)
}

func foldBottomUp(expr ast.Expression) ast.Expression {
	switch e := expr.(type) {
	case *ast.BinaryOp:
		left := foldBottomUp(e.Left)
		right := foldBottomUp(e.Right)
		if l, ok := left.(*ast.IntegerLiteral); ok {
			if r, ok := right.(*ast.IntegerLiteral); ok {
				if v, ok := EvalBinary(e.Op, l.Value, r.Value); ok {
					return &ast.IntegerLiteral{Value: v}
				}
			}
		}
		return &ast.BinaryOp{Op: e.Op, Left: left, Right: right}
	case *ast.UnaryOp:
		operand := foldBottomUp(e.Operand)
		if v, ok := operand.(*ast.IntegerLiteral); ok {
			return &ast.IntegerLiteral{Value: EvalUnary(e.Op, v.Value)}
		}
		return &ast.UnaryOp{Op: e.Op, Operand: operand}
	case *ast.Call:
		args := make([]ast.Expression, len(e.Args))
		for i, a := range e.Args {
			args[i] = foldBottomUp(a)
		}
		return &ast.Call{Callee: e.Callee, Args: args}
	default:
		return expr
	}
}

// EvalBinary computes the 64-bit two's-complement result of applying op to
// left and right, per §4.4.1. Division and modulo by zero report ok ==
// false so the caller leaves the expression unfolded; runtime behavior for
// those stays the emitter's responsibility. Shift distances outside
// [0, 63] are likewise left unfolded, since they are undefined and need
// not be folded.
func EvalBinary(op ast.BinaryOperator, left, right int64) (int64, bool) {
	switch op {
	case ast.Add:
		return left + right, true
	case ast.Sub:
		return left - right, true
	case ast.Mul:
		return left * right, true
	case ast.Or:
		return left | right, true
	case ast.Xor:
		return left ^ right, true
	case ast.And:
		return left & right, true
	case ast.Div:
		if right == 0 {
			return 0, false
		}
		return left / right, true
	case ast.Mod:
		if right == 0 {
			return 0, false
		}
		return left % right, true
	case ast.Shl:
		if right < 0 || right > 63 {
			return 0, false
		}
		return left << uint(right), true
	case ast.Shr:
		if right < 0 || right > 63 {
			return 0, false
		}
		return left >> uint(right), true
	case ast.LogAnd:
		return boolInt(left != 0 && right != 0), true
	case ast.LogOr:
		return boolInt(left != 0 || right != 0), true
	case ast.Eq:
		return boolInt(left == right), true
	case ast.Neq:
		return boolInt(left != right), true
	case ast.Lt:
		return boolInt(left < right), true
	case ast.Le:
		return boolInt(left <= right), true
	case ast.Gt:
		return boolInt(left > right), true
	case ast.Ge:
		return boolInt(left >= right), true
	default:
		return 0, false
	}
}

// EvalUnary computes the result of applying op to operand.
func EvalUnary(op ast.UnaryOperator, operand int64) int64 {
	if op == ast.Not {
		return ^operand
	}
	return -operand
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
