package riscv

import (
	asm "github.com/wasmkit/rivet/internal/asm/riscv"
	"github.com/wasmkit/rivet/internal/engine/baseline"
)

// toBranchCond maps a portable condition onto a machine branch condition.
// The machine only has lt/ge forms, so the gt/le kinds come back with swap
// set and the caller exchanges the operands.
func toBranchCond(c baseline.Cond) (bc asm.BranchCond, swap bool) {
	switch c {
	case baseline.Equal:
		return asm.BranchEQ, false
	case baseline.NotEqual:
		return asm.BranchNE, false
	case baseline.LessThan:
		return asm.BranchLT, false
	case baseline.GreaterThanEqual:
		return asm.BranchGE, false
	case baseline.GreaterThan:
		return asm.BranchLT, true
	case baseline.LessThanEqual:
		return asm.BranchGE, true
	case baseline.UnsignedLessThan:
		return asm.BranchLTU, false
	case baseline.UnsignedGreaterThanEqual:
		return asm.BranchGEU, false
	case baseline.UnsignedGreaterThan:
		return asm.BranchLTU, true
	case baseline.UnsignedLessThanEqual:
		return asm.BranchGEU, true
	}
	panic("invalid condition")
}

// floatCompare selects the feq/flt/fle instruction realizing a float
// condition, with operand swap and result negation fixups.
type floatCompare struct {
	op32, op64 asm.Op
	swap       bool
	negate     bool
}

// toFloatCompare maps a portable condition onto a float compare. Float
// comparisons only arrive as equality or unsigned orderings; a signed
// ordering here is a compiler bug.
func toFloatCompare(c baseline.Cond) floatCompare {
	switch c {
	case baseline.Equal:
		return floatCompare{op32: asm.FEQS, op64: asm.FEQD}
	case baseline.NotEqual:
		return floatCompare{op32: asm.FEQS, op64: asm.FEQD, negate: true}
	case baseline.UnsignedLessThan:
		return floatCompare{op32: asm.FLTS, op64: asm.FLTD}
	case baseline.UnsignedLessThanEqual:
		return floatCompare{op32: asm.FLES, op64: asm.FLED}
	case baseline.UnsignedGreaterThan:
		return floatCompare{op32: asm.FLTS, op64: asm.FLTD, swap: true}
	case baseline.UnsignedGreaterThanEqual:
		return floatCompare{op32: asm.FLES, op64: asm.FLED, swap: true}
	}
	panic("condition " + c.String() + " has no float compare")
}
