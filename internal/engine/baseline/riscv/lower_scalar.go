package riscv

import (
	asm "github.com/wasmkit/rivet/internal/asm/riscv"
	"github.com/wasmkit/rivet/internal/engine/baseline"
)

// Scalar float lowering tables, indexed by the portable op.
var floatBinOps = [2]map[baseline.FloatBinOp]asm.Op{
	{ // f32
		baseline.FloatAdd:      asm.FADDS,
		baseline.FloatSub:      asm.FSUBS,
		baseline.FloatMul:      asm.FMULS,
		baseline.FloatDiv:      asm.FDIVS,
		baseline.FloatCopysign: asm.FSGNJS,
	},
	{ // f64
		baseline.FloatAdd:      asm.FADDD,
		baseline.FloatSub:      asm.FSUBD,
		baseline.FloatMul:      asm.FMULD,
		baseline.FloatDiv:      asm.FDIVD,
		baseline.FloatCopysign: asm.FSGNJD,
	},
}

var floatUnOps = [2]map[baseline.FloatUnOp]asm.Op{
	{
		baseline.FloatAbs:  asm.FABSS,
		baseline.FloatNeg:  asm.FNEGS,
		baseline.FloatSqrt: asm.FSQRTS,
	},
	{
		baseline.FloatAbs:  asm.FABSD,
		baseline.FloatNeg:  asm.FNEGD,
		baseline.FloatSqrt: asm.FSQRTD,
	},
}

func floatIndex(kind baseline.ValueKind) int {
	switch kind {
	case baseline.KindF32:
		return 0
	case baseline.KindF64:
		return 1
	}
	panic("non-float kind " + kind.String())
}

// EmitFloatBinOp lowers a scalar float binary operation, one instruction.
func (a *Assembler) EmitFloatBinOp(op baseline.FloatBinOp, kind baseline.ValueKind, dst, lhs, rhs asm.Reg) {
	a.RRR(floatBinOps[floatIndex(kind)][op], dst, lhs, rhs)
}

// EmitFloatUnOp lowers a scalar float unary operation, one instruction.
func (a *Assembler) EmitFloatUnOp(op baseline.FloatUnOp, kind baseline.ValueKind, dst, src asm.Reg) {
	a.RR(floatUnOps[floatIndex(kind)][op], dst, src)
}

var roundingModes = [...]asm.RoundingMode{
	baseline.RoundCeil:    asm.RUP,
	baseline.RoundFloor:   asm.RDN,
	baseline.RoundTrunc:   asm.RTZ,
	baseline.RoundNearest: asm.RNE,
}

// EmitFloatRound lowers ceil/floor/trunc/nearest as a single round-to-integer
// instruction with a static rounding mode. Returns true; the fast path is
// always available on this target.
func (a *Assembler) EmitFloatRound(kind baseline.RoundKind, vk baseline.ValueKind, dst, src asm.Reg) bool {
	op := asm.FROUNDS
	if floatIndex(vk) == 1 {
		op = asm.FROUNDD
	}
	a.Round(op, dst, src, roundingModes[kind])
	return true
}

// EmitFloatMinMax lowers f32/f64 min and max with wasm NaN semantics: if
// either operand is NaN the result is the canonical quiet NaN, otherwise
// the hardware min/max.
func (a *Assembler) EmitFloatMinMax(kind baseline.ValueKind, dst, lhs, rhs asm.Reg, isMin bool) {
	idx := floatIndex(kind)
	eq, minOp, maxOp := asm.FEQS, asm.FMINS, asm.FMAXS
	nan := int64(canonicalNaN32)
	mv := asm.FMVWX
	if idx == 1 {
		eq, minOp, maxOp = asm.FEQD, asm.FMIND, asm.FMAXD
		nan = canonicalNaN64
		mv = asm.FMVDX
	}

	nanBlock := a.AllocateLabel()
	done := a.AllocateLabel()

	a.RRR(eq, scratchReg, lhs, lhs)
	a.RRR(eq, scratchReg2, rhs, rhs)
	a.RRR(asm.AND, scratchReg, scratchReg, scratchReg2)
	a.BranchZero(asm.BranchEQ, scratchReg, nanBlock)

	if isMin {
		a.RRR(minOp, dst, lhs, rhs)
	} else {
		a.RRR(maxOp, dst, lhs, rhs)
	}
	a.Jump(done)

	a.Bind(nanBlock)
	a.Li(scratchReg, nan)
	a.RR(mv, dst, scratchReg)
	a.Bind(done)
}

// EmitSetCond lowers an integer compare-and-set: dst gets 0 or 1. Operands
// are assumed canonical 64-bit values (32-bit values sign-extended).
func (a *Assembler) EmitSetCond(c baseline.Cond, dst, lhs, rhs asm.Reg) {
	switch c {
	case baseline.Equal:
		a.RRR(asm.XOR, dst, lhs, rhs)
		a.RR(asm.SEQZ, dst, dst)
	case baseline.NotEqual:
		a.RRR(asm.XOR, dst, lhs, rhs)
		a.RR(asm.SNEZ, dst, dst)
	case baseline.LessThan:
		a.RRR(asm.SLT, dst, lhs, rhs)
	case baseline.GreaterThan:
		a.RRR(asm.SLT, dst, rhs, lhs)
	case baseline.GreaterThanEqual:
		a.RRR(asm.SLT, dst, lhs, rhs)
		a.RRI(asm.XORI, dst, dst, 1)
	case baseline.LessThanEqual:
		a.RRR(asm.SLT, dst, rhs, lhs)
		a.RRI(asm.XORI, dst, dst, 1)
	case baseline.UnsignedLessThan:
		a.RRR(asm.SLTU, dst, lhs, rhs)
	case baseline.UnsignedGreaterThan:
		a.RRR(asm.SLTU, dst, rhs, lhs)
	case baseline.UnsignedGreaterThanEqual:
		a.RRR(asm.SLTU, dst, lhs, rhs)
		a.RRI(asm.XORI, dst, dst, 1)
	case baseline.UnsignedLessThanEqual:
		a.RRR(asm.SLTU, dst, rhs, lhs)
		a.RRI(asm.XORI, dst, dst, 1)
	default:
		panic("invalid condition")
	}
}

// EmitFloatSetCond lowers a float compare-and-set into a gp register.
func (a *Assembler) EmitFloatSetCond(c baseline.Cond, kind baseline.ValueKind, dst, lhs, rhs asm.Reg) {
	fc := toFloatCompare(c)
	op := fc.op32
	if floatIndex(kind) == 1 {
		op = fc.op64
	}
	if fc.swap {
		lhs, rhs = rhs, lhs
	}
	a.RRR(op, dst, lhs, rhs)
	if fc.negate {
		a.RRI(asm.XORI, dst, dst, 1)
	}
}

// EmitBranchCond branches to target when `lhs c rhs` holds.
func (a *Assembler) EmitBranchCond(c baseline.Cond, lhs, rhs asm.Reg, target *asm.Label) {
	bc, swap := toBranchCond(c)
	if swap {
		lhs, rhs = rhs, lhs
	}
	a.Branch(bc, lhs, rhs, target)
}
