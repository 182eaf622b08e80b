package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armgen/src/ir"
)

func TestInsertAdvancesLineByDelta(t *testing.T) {
	prog := &ir.Program{}
	line := 0

	instr := ir.NewInstruction(ir.MOVZ, ir.SP, 5, int64(ir.NotUsed), int64(ir.NotUsed))
	instr.Dest.Type = ir.REG
	instr.Src1.Type = ir.IMM
	ir.Insert(prog, instr, &line, 1)

	require.Equal(t, 1, prog.Len())
	assert.Equal(t, 0, prog.Instructions[0].Line)
	assert.Equal(t, 1, line)

	second := ir.NewInstruction(ir.B, 0, int64(ir.NotUsed), int64(ir.NotUsed), int64(ir.NotUsed))
	second.Dest.Type = ir.LABEL
	ir.Insert(prog, second, &line, 4)
	assert.Equal(t, 1, prog.Instructions[1].Line)
	assert.Equal(t, 5, line)
}

func TestBranchConditionalNegationIsInvolution(t *testing.T) {
	for _, c := range []ir.BranchConditional{ir.EQ, ir.NE, ir.LT, ir.LE, ir.GT, ir.GE} {
		assert.Equal(t, c, c.Negate().Negate())
	}
}

func TestBranchConditionalNegationMap(t *testing.T) {
	assert.Equal(t, ir.NE, ir.EQ.Negate())
	assert.Equal(t, ir.EQ, ir.NE.Negate())
	assert.Equal(t, ir.GE, ir.LT.Negate())
	assert.Equal(t, ir.LT, ir.GE.Negate())
	assert.Equal(t, ir.GT, ir.LE.Negate())
	assert.Equal(t, ir.LE, ir.GT.Negate())
}
