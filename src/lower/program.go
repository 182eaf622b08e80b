package lower

import (
	"armgen/src/ast"
	"armgen/src/env"
	"armgen/src/ir"
)

// Lower is the module's single entry point: it initializes a fresh
// Environment, emits the stack-pointer setup instruction, drives statement
// lowering over the program body, and returns the finished IR Program. No
// instruction is ever deleted or reordered after emission.
func Lower(prog ast.Program) (*ir.Program, error) {
	program := &ir.Program{}
	e := env.New(env.NewFunctionTable())
	line := 0

	setSP := ir.NewInstruction(ir.MOVZ, int64(ir.SP), int64(e.StackSize()), int64(ir.NotUsed), int64(ir.NotUsed))
	setSP.Dest.Type = ir.REG
	setSP.Src1.Type = ir.IMM
	ir.Insert(program, setSP, &line, 1)

	if err := LowerStatements(program, prog.Statements, e, &line, 0); err != nil {
		return nil, err
	}
	return program, nil
}
