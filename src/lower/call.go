package lower

import (
	"armgen/src/ast"
	"armgen/src/env"
	"armgen/src/ir"
)

// EvalCall implements the caller-save call protocol of §4.6. It is the
// single shared implementation of the push/MOVZ/save-args/branch/restore
// sequence — every call site, nested or not, goes through this routine so
// the call-site and return-site bookkeeping can never drift apart.
//
// Per SPEC_FULL.md's resolution of the store/load gap in the opcode set,
// "push"/"save"/"restore" are Environment-level bookkeeping only; the only
// instructions emitted are the MOVZ that materializes the return line, one
// MOV per argument, and the B to the callee's entry. The return line is
// not known until after the B is emitted, so it is threaded through the
// same forward-patch worklist used by control-flow lowering.
func EvalCall(prog *ir.Program, call *ast.Call, e *env.Environment, line *int) (int, error) {
	entryLine, ok := e.FindFunction(call.Callee)
	if !ok {
		return 0, &UnknownFunctionError{Name: call.Callee}
	}

	// Step 1: save the caller's frame pointer (SP) ahead of overwriting it.
	e.SaveRegister(ir.SP)

	// Step 2: materialize the return address once the post-call line is
	// known. The target is filled in after the B below is emitted. Tagged
	// LABEL rather than IMM since the value is a line number resolved
	// through the same forward-patch worklist as a branch target. The
	// encoded value is the line right after the B, not the line right
	// after this MOVZ.
	patches := ir.NewPatchList()
	returnAddr := ir.NewInstruction(ir.MOVZ, int64(ir.SP), 0, int64(ir.NotUsed), int64(ir.NotUsed))
	returnAddr.Dest.Type = ir.REG
	returnAddr.Src1.Type = ir.LABEL
	ir.Insert(prog, returnAddr, line, 1)
	returnPatch := patches.Record(len(prog.Instructions)-1, ir.Src1Slot)

	// Step 3: caller-save the return-value register.
	e.SaveRegister(ir.X0)

	// Step 4: evaluate and place each argument, up to MaxArgs-1.
	argCount := len(call.Args)
	if argCount > ir.MaxArgs-1 {
		argCount = ir.MaxArgs - 1
	}
	for i := 0; i < argCount; i++ {
		argReg := i + 1
		result, err := EvalExpression(prog, call.Args[i], e, line)
		if err != nil {
			return 0, err
		}
		e.SaveRegister(argReg)
		mov := ir.NewInstruction(ir.MOV, int64(argReg), int64(result), int64(ir.NotUsed), int64(ir.NotUsed))
		mov.Dest.Type = ir.REG
		mov.Src1.Type = ir.REG
		ir.Insert(prog, mov, line, 1)
		e.RememberUnknown(argReg)
		e.FreeIfTemporary(result)
	}

	// Step 5: branch to the callee's entry line.
	branch := ir.NewInstruction(ir.B, int64(entryLine), int64(ir.NotUsed), int64(ir.NotUsed), int64(ir.NotUsed))
	branch.Dest.Type = ir.LABEL
	ir.Insert(prog, branch, line, 1)

	// The callee resumes control here; this is the return line the MOVZ
	// above materializes.
	patches.Resolve(prog, returnPatch, int64(*line))

	// Step 6: restore arguments in reverse order, then the return register.
	for i := argCount; i >= 1; i-- {
		e.RestoreRegister(i)
	}
	e.RestoreRegister(ir.X0)

	return ir.X0, nil
}
