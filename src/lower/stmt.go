package lower

import (
	"armgen/src/ast"
	"armgen/src/env"
	"armgen/src/ir"
)

// ReservedReturnName is the distinguished assignment target that routes a
// value into X0 instead of a newly bound register.
const ReservedReturnName = "ret"

var comparisonCodes = map[ast.BinaryOperator]ir.BranchConditional{
	ast.Eq:  ir.EQ,
	ast.Neq: ir.NE,
	ast.Lt:  ir.LT,
	ast.Le:  ir.LE,
	ast.Gt:  ir.GT,
	ast.Ge:  ir.GE,
}

func comparisonCode(op ast.BinaryOperator) (ir.BranchConditional, error) {
	code, ok := comparisonCodes[op]
	if !ok {
		return 0, &InvalidASTError{Reason: "condition is not a comparison operator"}
	}
	return code, nil
}

// LowerStatements is the statement driver: it dispatches stmts by kind,
// owning the forward-patch bookkeeping for every control-flow construct it
// lowers. counterDelta is the unrolling hint described in §4.5: when
// nested inside a for-loop whose iteration count is statically known, the
// caller passes the number of remaining iterations so label arithmetic
// could account for the conceptually unrolled body. Every instruction in
// this package is still inserted with delta 1, since each instruction
// corresponds to exactly one program line regardless of how many times a
// surrounding loop will execute it; counterDelta is threaded through and
// computed at for-body emission purely so it is available to a future
// unrolling pass, and has no effect on line numbers today.
func LowerStatements(prog *ir.Program, stmts []ast.Statement, e *env.Environment, line *int, counterDelta int) error {
	for _, stmt := range stmts {
		if err := lowerStatement(prog, stmt, e, line, counterDelta); err != nil {
			return err
		}
	}
	return nil
}

func lowerStatement(prog *ir.Program, stmt ast.Statement, e *env.Environment, line *int, counterDelta int) error {
	switch node := stmt.(type) {
	case *ast.Assign:
		return lowerAssign(prog, node, e, line)
	case *ast.Return:
		return lowerReturn(prog, node, e, line)
	case *ast.If:
		return lowerIf(prog, node, e, line, counterDelta)
	case *ast.While:
		return lowerWhile(prog, node, e, line, counterDelta)
	case *ast.For:
		return lowerFor(prog, node, e, line, counterDelta)
	case *ast.FuncDef:
		return lowerFuncDef(prog, node, e, line, counterDelta)
	case *ast.Break:
		return &UnsupportedFlowError{Kind: "break"}
	case *ast.Continue:
		return &UnsupportedFlowError{Kind: "continue"}
	default:
		return &InvalidASTError{Reason: "unrecognized statement node"}
	}
}

func lowerAssign(prog *ir.Program, node *ast.Assign, e *env.Environment, line *int) error {
	valueReg, err := EvalExpression(prog, node.Value, e, line)
	if err != nil {
		return err
	}

	var dest int
	if node.Target == ReservedReturnName {
		dest = ir.X0
		if err := e.Bind(ReservedReturnName, ir.X0); err != nil {
			return err
		}
	} else {
		dest, err = e.LookupOrBind(node.Target)
		if err != nil {
			return err
		}
	}

	instr := ir.NewInstruction(ir.MOV, int64(dest), int64(valueReg), int64(ir.NotUsed), int64(ir.NotUsed))
	instr.Dest.Type = ir.REG
	instr.Src1.Type = ir.REG
	ir.Insert(prog, instr, line, 1)

	if v, ok := e.KnownValue(valueReg); ok {
		e.Remember(dest, v)
	} else {
		e.RememberUnknown(dest)
	}
	return nil
}

func lowerReturn(prog *ir.Program, node *ast.Return, e *env.Environment, line *int) error {
	if node.Value != nil {
		if err := lowerAssign(prog, &ast.Assign{Target: ReservedReturnName, Value: node.Value}, e, line); err != nil {
			return err
		}
	}

	// Pop the saved return address into RP. Nothing between the caller's
	// MOVZ SP and this point touches SP, so SP still holds the return line
	// (see SPEC_FULL.md's resolution of the call-protocol ambiguity).
	pop := ir.NewInstruction(ir.MOV, int64(ir.RP), int64(ir.SP), int64(ir.NotUsed), int64(ir.NotUsed))
	pop.Dest.Type = ir.REG
	pop.Src1.Type = ir.REG
	ir.Insert(prog, pop, line, 1)

	branch := ir.NewInstruction(ir.BR, int64(ir.RP), int64(ir.NotUsed), int64(ir.NotUsed), int64(ir.NotUsed))
	branch.Dest.Type = ir.REG
	ir.Insert(prog, branch, line, 1)
	return nil
}

func lowerCondition(prog *ir.Program, cond ast.Expression, e *env.Environment, line *int) (ir.BranchConditional, error) {
	binOp, ok := cond.(*ast.BinaryOp)
	if !ok {
		return 0, &InvalidASTError{Reason: "condition is not a binary op"}
	}
	code, err := comparisonCode(binOp.Op)
	if err != nil {
		return 0, err
	}

	left, err := EvalExpression(prog, binOp.Left, e, line)
	if err != nil {
		return 0, err
	}
	right, err := EvalExpression(prog, binOp.Right, e, line)
	if err != nil {
		return 0, err
	}

	cmp := ir.NewInstruction(ir.CMP, int64(left), int64(right), int64(ir.NotUsed), int64(ir.NotUsed))
	cmp.Dest.Type = ir.REG
	cmp.Src1.Type = ir.REG
	ir.Insert(prog, cmp, line, 1)

	e.FreeIfTemporary(left)
	e.FreeIfTemporary(right)
	return code, nil
}

func lowerIf(prog *ir.Program, node *ast.If, e *env.Environment, line *int, counterDelta int) error {
	code, err := lowerCondition(prog, node.Cond, e, line)
	if err != nil {
		return err
	}
	patches := ir.NewPatchList()

	bcond := ir.NewInstruction(ir.BCOND, 0, int64(code.Negate()), int64(ir.NotUsed), int64(ir.NotUsed))
	bcond.Dest.Type = ir.LABEL
	bcond.Src1.Type = ir.IMM
	ir.Insert(prog, bcond, line, 1)
	toElse := patches.Record(len(prog.Instructions)-1, ir.DestSlot)

	if err := LowerStatements(prog, node.Then, e, line, counterDelta); err != nil {
		return err
	}

	skipElse := ir.NewInstruction(ir.B, 0, int64(ir.NotUsed), int64(ir.NotUsed), int64(ir.NotUsed))
	skipElse.Dest.Type = ir.LABEL
	ir.Insert(prog, skipElse, line, 1)
	toEnd := patches.Record(len(prog.Instructions)-1, ir.DestSlot)

	patches.Resolve(prog, toElse, int64(*line))
	if err := LowerStatements(prog, node.Else, e, line, counterDelta); err != nil {
		return err
	}
	patches.Resolve(prog, toEnd, int64(*line))
	return nil
}

func lowerWhile(prog *ir.Program, node *ast.While, e *env.Environment, line *int, counterDelta int) error {
	loopHead := *line

	code, err := lowerCondition(prog, node.Cond, e, line)
	if err != nil {
		return err
	}
	patches := ir.NewPatchList()

	bcond := ir.NewInstruction(ir.BCOND, 0, int64(code.Negate()), int64(ir.NotUsed), int64(ir.NotUsed))
	bcond.Dest.Type = ir.LABEL
	bcond.Src1.Type = ir.IMM
	ir.Insert(prog, bcond, line, 1)
	toExit := patches.Record(len(prog.Instructions)-1, ir.DestSlot)

	if err := LowerStatements(prog, node.Body, e, line, counterDelta); err != nil {
		return err
	}

	back := ir.NewInstruction(ir.B, int64(loopHead), int64(ir.NotUsed), int64(ir.NotUsed), int64(ir.NotUsed))
	back.Dest.Type = ir.LABEL
	ir.Insert(prog, back, line, 1)

	patches.Resolve(prog, toExit, int64(*line))
	return nil
}

func lowerFor(prog *ir.Program, node *ast.For, e *env.Environment, line *int, counterDelta int) error {
	lo, ok := node.Lo.(*ast.IntegerLiteral)
	if !ok {
		return &UnsupportedForRangeError{Reason: "lower bound is not a literal integer"}
	}
	hi, ok := node.Hi.(*ast.IntegerLiteral)
	if !ok {
		return &UnsupportedForRangeError{Reason: "upper bound is not a literal integer"}
	}

	if err := lowerAssign(prog, &ast.Assign{Target: node.Var, Value: lo}, e, line); err != nil {
		return err
	}

	loopHead := *line
	reg, err := e.Lookup(node.Var)
	if err != nil {
		return err
	}

	cmp := ir.NewInstruction(ir.CMP, int64(reg), hi.Value, int64(ir.NotUsed), int64(ir.NotUsed))
	cmp.Dest.Type = ir.REG
	cmp.Src1.Type = ir.IMM
	ir.Insert(prog, cmp, line, 1)

	patches := ir.NewPatchList()
	bcond := ir.NewInstruction(ir.BCOND, 0, int64(ir.GE), int64(ir.NotUsed), int64(ir.NotUsed))
	bcond.Dest.Type = ir.LABEL
	bcond.Src1.Type = ir.IMM
	ir.Insert(prog, bcond, line, 1)
	toExit := patches.Record(len(prog.Instructions)-1, ir.DestSlot)

	bodyDelta := counterDelta + int(hi.Value-lo.Value)
	if err := LowerStatements(prog, node.Body, e, line, bodyDelta); err != nil {
		return err
	}

	reg, err = e.Lookup(node.Var)
	if err != nil {
		return err
	}
	inc := ir.NewInstruction(ir.ADD, int64(reg), int64(reg), 1, int64(ir.NotUsed))
	inc.Dest.Type = ir.REG
	inc.Src1.Type = ir.REG
	inc.Src2.Type = ir.IMM
	ir.Insert(prog, inc, line, 1)
	e.RememberUnknown(reg)

	back := ir.NewInstruction(ir.B, int64(loopHead), int64(ir.NotUsed), int64(ir.NotUsed), int64(ir.NotUsed))
	back.Dest.Type = ir.LABEL
	ir.Insert(prog, back, line, 1)

	patches.Resolve(prog, toExit, int64(*line))
	return nil
}

func lowerFuncDef(prog *ir.Program, node *ast.FuncDef, e *env.Environment, line *int, counterDelta int) error {
	if err := e.RecordFunction(node.Name, *line); err != nil {
		return err
	}

	callee := env.New(e.Funcs())
	for i, param := range node.Params {
		if err := callee.Bind(param, i+1); err != nil {
			return err
		}
	}

	return LowerStatements(prog, node.Body, callee, line, counterDelta)
}
