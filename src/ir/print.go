package ir

import (
	"fmt"
	"strings"
)

// String renders operand for a textual instruction listing.
func (o Operand) String() string {
	switch o.Type {
	case REG:
		return fmt.Sprintf("r%d", o.Value)
	case IMM:
		return fmt.Sprintf("#%d", o.Value)
	case LABEL:
		return fmt.Sprintf("L%d", o.Value)
	default:
		return "-"
	}
}

// String renders a single instruction as "line: OP dest, src1, src2, src3",
// omitting UNUSED trailing operands. This is a debug/test listing, not the
// textual assembler the emitter produces downstream of this package.
func (i Instruction) String() string {
	operands := make([]string, 0, 4)
	for _, o := range []Operand{i.Dest, i.Src1, i.Src2, i.Src3} {
		if o.Type == UNUSED {
			continue
		}
		operands = append(operands, o.String())
	}
	if len(operands) == 0 {
		return fmt.Sprintf("%4d: %s", i.Line, i.Op)
	}
	return fmt.Sprintf("%4d: %s %s", i.Line, i.Op, strings.Join(operands, ", "))
}

// Dump renders the whole program as a newline-separated instruction listing.
func (p *Program) Dump() string {
	var sb strings.Builder
	for _, instr := range p.Instructions {
		sb.WriteString(instr.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
