package lower

import (
	"armgen/src/ast"
	"armgen/src/env"
	"armgen/src/ir"
)

// binaryOpcodes maps the six binary operators the emitter realizes directly
// onto their IR opcode; every other BinaryOperator is rejected by
// EvalExpression with UnsupportedOperatorError.
var binaryOpcodes = map[ast.BinaryOperator]ir.Opcode{
	ast.Add: ir.ADD,
	ast.Sub: ir.SUB,
	ast.Mul: ir.MUL,
	ast.Or:  ir.ORR,
	ast.Xor: ir.EOR,
	ast.And: ir.AND,
}

// EvalExpression lowers expr to a sequence of IR instructions whose final
// result resides in the returned register. The register is either a fresh
// scratch register (literal/op/call cases) or the binding's own register
// (Name) — callers must only FreeIfTemporary what they did not ask for by
// name.
func EvalExpression(prog *ir.Program, expr ast.Expression, e *env.Environment, line *int) (int, error) {
	switch node := expr.(type) {
	case *ast.Name:
		reg, err := e.Lookup(node.Value)
		if err != nil {
			return 0, err
		}
		return reg, nil

	case *ast.IntegerLiteral:
		reg, err := e.FreshRegister()
		if err != nil {
			return 0, err
		}
		instr := ir.NewInstruction(ir.MOV, int64(reg), node.Value, int64(ir.NotUsed), int64(ir.NotUsed))
		instr.Dest.Type = ir.REG
		instr.Src1.Type = ir.IMM
		ir.Insert(prog, instr, line, 1)
		e.Remember(reg, node.Value)
		return reg, nil

	case *ast.BinaryOp:
		return evalBinaryOp(prog, node, e, line)

	case *ast.UnaryOp:
		return evalUnaryOp(prog, node, e, line)

	case *ast.Call:
		return EvalCall(prog, node, e, line)

	default:
		return 0, &InvalidASTError{Reason: "unrecognized expression node"}
	}
}

func evalBinaryOp(prog *ir.Program, node *ast.BinaryOp, e *env.Environment, line *int) (int, error) {
	opcode, ok := binaryOpcodes[node.Op]
	if !ok {
		return 0, &UnsupportedOperatorError{Op: node.Op}
	}

	left, err := EvalExpression(prog, node.Left, e, line)
	if err != nil {
		return 0, err
	}
	right, err := EvalExpression(prog, node.Right, e, line)
	if err != nil {
		return 0, err
	}

	dest, err := e.FreshRegister()
	if err != nil {
		return 0, err
	}
	instr := ir.NewInstruction(opcode, int64(dest), int64(left), int64(right), int64(ir.NotUsed))
	instr.Dest.Type = ir.REG
	instr.Src1.Type = ir.REG
	instr.Src2.Type = ir.REG
	ir.Insert(prog, instr, line, 1)
	e.RememberUnknown(dest)

	e.FreeIfTemporary(left)
	e.FreeIfTemporary(right)
	return dest, nil
}

func evalUnaryOp(prog *ir.Program, node *ast.UnaryOp, e *env.Environment, line *int) (int, error) {
	opcode := ir.NEG
	if node.Op == ast.Not {
		opcode = ir.MVN
	}

	src, err := EvalExpression(prog, node.Operand, e, line)
	if err != nil {
		return 0, err
	}
	dest, err := e.FreshRegister()
	if err != nil {
		return 0, err
	}
	instr := ir.NewInstruction(opcode, int64(dest), int64(src), int64(ir.NotUsed), int64(ir.NotUsed))
	instr.Dest.Type = ir.REG
	instr.Src1.Type = ir.REG
	ir.Insert(prog, instr, line, 1)
	e.RememberUnknown(dest)

	e.FreeIfTemporary(src)
	return dest, nil
}
