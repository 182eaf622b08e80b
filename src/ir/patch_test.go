package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armgen/src/ir"
)

func TestPatchListResolvesForwardReference(t *testing.T) {
	prog := &ir.Program{}
	line := 0

	bcond := ir.NewInstruction(ir.BCOND, 0, int64(ir.GE), int64(ir.NotUsed), int64(ir.NotUsed))
	bcond.Dest.Type = ir.LABEL
	ir.Insert(prog, bcond, &line, 1)

	patches := ir.NewPatchList()
	patch := patches.Record(0, ir.DestSlot)
	require.Equal(t, 1, patches.Pending())

	filler := ir.NewInstruction(ir.ADD, 1, 1, 1, int64(ir.NotUsed))
	filler.Dest.Type = ir.REG
	filler.Src1.Type = ir.REG
	filler.Src2.Type = ir.IMM
	ir.Insert(prog, filler, &line, 1)

	patches.Resolve(prog, patch, int64(line))

	assert.Equal(t, 0, patches.Pending())
	assert.Equal(t, ir.LABEL, prog.Instructions[0].Dest.Type)
	assert.Equal(t, int64(2), prog.Instructions[0].Dest.Value)
}
