package ir

// Slot identifies which operand of an instruction a forward patch targets.
type Slot uint8

const (
	DestSlot Slot = iota
	Src1Slot
	Src2Slot
	Src3Slot
)

// Patch is an outstanding forward reference: the branch at Instruction
// has a placeholder LABEL operand in Slot that must be filled in once its
// target line is known.
type Patch struct {
	Instruction int
	Slot        Slot
}

// PatchList is the first-class forward-patch worklist named in the design
// notes: every placeholder branch target is recorded here at emission time
// and removed by Resolve once the target line is materialized. A PatchList
// with Pending() == 0 at the end of lowering is exactly the invariant "no
// LABEL remains UNUSED".
type PatchList struct {
	outstanding map[Patch]struct{}
}

// NewPatchList returns an empty worklist.
func NewPatchList() *PatchList {
	return &PatchList{outstanding: make(map[Patch]struct{})}
}

// Record registers a placeholder at the given instruction/slot and returns
// a handle for the later Resolve call. The instruction's slot is expected
// to already hold an UNUSED or zero-valued LABEL operand.
func (pl *PatchList) Record(instr int, slot Slot) Patch {
	p := Patch{Instruction: instr, Slot: slot}
	pl.outstanding[p] = struct{}{}
	return p
}

// Resolve writes line into the patch's operand slot as a LABEL and removes
// it from the worklist.
func (pl *PatchList) Resolve(p *Program, patch Patch, line int64) {
	instr := &p.Instructions[patch.Instruction]
	operand := Label(line)
	switch patch.Slot {
	case DestSlot:
		instr.Dest = operand
	case Src1Slot:
		instr.Src1 = operand
	case Src2Slot:
		instr.Src2 = operand
	case Src3Slot:
		instr.Src3 = operand
	}
	delete(pl.outstanding, patch)
}

// Pending reports the number of placeholders not yet resolved.
func (pl *PatchList) Pending() int {
	return len(pl.outstanding)
}
