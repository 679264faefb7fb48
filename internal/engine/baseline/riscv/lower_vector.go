package riscv

import (
	asm "github.com/wasmkit/rivet/internal/asm/riscv"
	"github.com/wasmkit/rivet/internal/engine/baseline"
)

func shapeSew(s baseline.Shape) asm.SEW {
	switch s {
	case baseline.I8x16:
		return asm.E8
	case baseline.I16x8:
		return asm.E16
	case baseline.I32x4, baseline.F32x4:
		return asm.E32
	case baseline.I64x2, baseline.F64x2:
		return asm.E64
	}
	panic("invalid shape")
}

// vcfg configures the vector unit for the shape. Every lowering configures
// before use; nothing assumes a prior setting survives an opcode boundary.
func (a *Assembler) vcfg(s baseline.Shape) {
	a.VSetVLI(shapeSew(s), asm.M1)
}

// materializeMask turns the compare result in v0 into all-ones/all-zeros
// lanes in dst, the wasm representation of a vector compare.
func (a *Assembler) materializeMask(dst asm.Reg) {
	a.RR(asm.VMVVX, dst, asm.RegZERO)
	a.VMergeVIM(dst, dst, -1)
}

// EmitSplat broadcasts a scalar to all lanes. Float sources go through a gp
// register; there is no direct f-to-v broadcast.
func (a *Assembler) EmitSplat(s baseline.Shape, dst, src asm.Reg) {
	gp := src
	if src.IsFP() {
		gp = scratchReg
		if s == baseline.F64x2 {
			a.RR(asm.FMVXD, gp, src)
		} else {
			a.RR(asm.FMVXW, gp, src)
		}
	}
	a.vcfg(s)
	a.RR(asm.VMVVX, dst, gp)
}

var vecIntCompares = map[baseline.Cond]struct {
	op   asm.Op
	swap bool
}{
	baseline.Equal:                    {asm.VMSEQVV, false},
	baseline.NotEqual:                 {asm.VMSNEVV, false},
	baseline.LessThan:                 {asm.VMSLTVV, false},
	baseline.UnsignedLessThan:         {asm.VMSLTUVV, false},
	baseline.LessThanEqual:            {asm.VMSLEVV, false},
	baseline.UnsignedLessThanEqual:    {asm.VMSLEUVV, false},
	baseline.GreaterThan:              {asm.VMSLTVV, true},
	baseline.UnsignedGreaterThan:      {asm.VMSLTUVV, true},
	baseline.GreaterThanEqual:         {asm.VMSLEVV, true},
	baseline.UnsignedGreaterThanEqual: {asm.VMSLEUVV, true},
}

// EmitIntCompare lowers a lane-wise integer compare: mask into v0, then
// all-ones/all-zeros materialization into dst.
func (a *Assembler) EmitIntCompare(s baseline.Shape, c baseline.Cond, dst, lhs, rhs asm.Reg) {
	cmp, ok := vecIntCompares[c]
	if !ok {
		panic("invalid condition")
	}
	if cmp.swap {
		lhs, rhs = rhs, lhs
	}
	a.vcfg(s)
	a.RRR(cmp.op, maskReg, lhs, rhs)
	a.materializeMask(dst)
}

// EmitFloatCompare lowers a lane-wise float compare. Only equality and the
// unsigned orderings exist; callers pre-swap to reach gt/ge.
func (a *Assembler) EmitFloatCompare(s baseline.Shape, c baseline.Cond, dst, lhs, rhs asm.Reg) {
	var op asm.Op
	swap := false
	switch c {
	case baseline.Equal:
		op = asm.VMFEQVV
	case baseline.NotEqual:
		op = asm.VMFNEVV
	case baseline.UnsignedLessThan:
		op = asm.VMFLTVV
	case baseline.UnsignedLessThanEqual:
		op = asm.VMFLEVV
	case baseline.UnsignedGreaterThan:
		op, swap = asm.VMFLTVV, true
	case baseline.UnsignedGreaterThanEqual:
		op, swap = asm.VMFLEVV, true
	default:
		panic("condition " + c.String() + " has no float compare")
	}
	if swap {
		lhs, rhs = rhs, lhs
	}
	a.vcfg(s)
	a.RRR(op, maskReg, lhs, rhs)
	a.materializeMask(dst)
}

// EmitS128Const materializes a 16-byte constant from its two 64-bit halves.
func (a *Assembler) EmitS128Const(dst asm.Reg, lo, hi uint64) {
	a.VSetVLI(asm.E64, asm.M1)
	a.Li(scratchReg2, int64(hi))
	a.RR(asm.VMVSX, simdScratch2, scratchReg2)
	a.Li(scratchReg2, int64(lo))
	a.RR(asm.VMVSX, dst, scratchReg2)
	a.RRI(asm.VSLIDEUPVI, dst, simdScratch2, 1)
}

func (a *Assembler) EmitS128Not(dst, src asm.Reg) {
	a.VSetVLI(asm.E8, asm.M1)
	a.RR(asm.VNOTV, dst, src)
}

func (a *Assembler) EmitS128And(dst, lhs, rhs asm.Reg) {
	a.VSetVLI(asm.E8, asm.M1)
	a.RRR(asm.VANDVV, dst, lhs, rhs)
}

func (a *Assembler) EmitS128Or(dst, lhs, rhs asm.Reg) {
	a.VSetVLI(asm.E8, asm.M1)
	a.RRR(asm.VORVV, dst, lhs, rhs)
}

func (a *Assembler) EmitS128Xor(dst, lhs, rhs asm.Reg) {
	a.VSetVLI(asm.E8, asm.M1)
	a.RRR(asm.VXORVV, dst, lhs, rhs)
}

// EmitS128AndNot lowers dst = lhs & ^rhs.
func (a *Assembler) EmitS128AndNot(dst, lhs, rhs asm.Reg) {
	a.VSetVLI(asm.E8, asm.M1)
	a.RR(asm.VNOTV, simdScratch, rhs)
	a.RRR(asm.VANDVV, dst, lhs, simdScratch)
}

// EmitS128Select lowers dst = (src1 & mask) | (src2 & ^mask), bit-wise.
func (a *Assembler) EmitS128Select(dst, src1, src2, mask asm.Reg) {
	a.VSetVLI(asm.E8, asm.M1)
	a.RRR(asm.VANDVV, simdScratch, src1, mask)
	a.RR(asm.VNOTV, simdScratch2, mask)
	a.RRR(asm.VANDVV, simdScratch2, src2, simdScratch2)
	a.RRR(asm.VORVV, dst, simdScratch, simdScratch2)
}

// EmitRelaxedLaneSelect uses the strict select lowering; the relaxed form
// permits it.
func (a *Assembler) EmitRelaxedLaneSelect(dst, src1, src2, mask asm.Reg) {
	a.EmitS128Select(dst, src1, src2, mask)
}

// EmitIntNeg negates every lane.
func (a *Assembler) EmitIntNeg(s baseline.Shape, dst, src asm.Reg) {
	a.vcfg(s)
	a.RR(asm.VNEGV, dst, src)
}

// EmitIntAbs negates the negative lanes in place under a "lane < 0" mask.
func (a *Assembler) EmitIntAbs(s baseline.Shape, dst, src asm.Reg) {
	a.vcfg(s)
	a.RR(asm.VMVVX, simdScratch3, asm.RegZERO)
	a.RRR(asm.VMSLTVV, maskReg, src, simdScratch3)
	if dst != src {
		a.RR(asm.VMVVV, dst, src)
	}
	a.RRMasked(asm.VNEGV, dst, src)
}

var vecShifts = map[baseline.ShiftKind]struct{ vx, vi asm.Op }{
	baseline.ShiftLeft:   {asm.VSLLVX, asm.VSLLVI},
	baseline.ShiftRightS: {asm.VSRAVX, asm.VSRAVI},
	baseline.ShiftRightU: {asm.VSRLVX, asm.VSRLVI},
}

// EmitShift lowers a lane-wise shift by a register amount. The amount is
// masked to the lane width first, as wasm requires.
func (a *Assembler) EmitShift(s baseline.Shape, kind baseline.ShiftKind, dst, src, amount asm.Reg) {
	a.Andi(scratchReg, amount, int64(s.LaneBits()-1))
	a.vcfg(s)
	a.RRR(vecShifts[kind].vx, dst, src, scratchReg)
}

// EmitShiftImm lowers a lane-wise shift by a constant. A masked amount over
// 31 does not fit the immediate form and goes through a scratch register.
func (a *Assembler) EmitShiftImm(s baseline.Shape, kind baseline.ShiftKind, dst, src asm.Reg, amount int64) {
	masked := amount & int64(s.LaneBits()-1)
	a.vcfg(s)
	if masked <= 31 {
		a.RRI(vecShifts[kind].vi, dst, src, masked)
		return
	}
	a.Li(scratchReg, masked)
	a.RRR(vecShifts[kind].vx, dst, src, scratchReg)
}

var vecIntBinOps = map[baseline.VecIntBinOp]asm.Op{
	baseline.VecAdd:         asm.VADDVV,
	baseline.VecSub:         asm.VSUBVV,
	baseline.VecMul:         asm.VMULVV,
	baseline.VecAnd:         asm.VANDVV,
	baseline.VecOr:          asm.VORVV,
	baseline.VecXor:         asm.VXORVV,
	baseline.VecAddSatS:     asm.VSADDVV,
	baseline.VecAddSatU:     asm.VSADDUVV,
	baseline.VecSubSatS:     asm.VSSUBVV,
	baseline.VecSubSatU:     asm.VSSUBUVV,
	baseline.VecMinS:        asm.VMINVV,
	baseline.VecMinU:        asm.VMINUVV,
	baseline.VecMaxS:        asm.VMAXVV,
	baseline.VecMaxU:        asm.VMAXUVV,
	baseline.VecQ15MulRSatS: asm.VSMULVV,
}

// EmitIntBinOp lowers a lane-wise integer binary operation, one instruction
// after the configure.
func (a *Assembler) EmitIntBinOp(s baseline.Shape, op baseline.VecIntBinOp, dst, lhs, rhs asm.Reg) {
	a.vcfg(s)
	a.RRR(vecIntBinOps[op], dst, lhs, rhs)
}

// EmitExtMul lowers the extended widening multiply. The result shape has
// lanes twice the source width; low takes the lower source halves, high
// slides the upper halves down first. The widening multiply runs at the
// source element width with LMUL=1/2 so the result fits one register.
func (a *Assembler) EmitExtMul(s baseline.Shape, dst, lhs, rhs asm.Reg, low, signed bool) {
	op := asm.VWMULUVV
	if signed {
		op = asm.VWMULVV
	}
	srcSew := shapeSew(s.Narrowed())
	if low {
		a.VSetVLI(srcSew, asm.MF2)
		if dst == lhs || dst == rhs {
			a.RRR(op, simdScratch, lhs, rhs)
			a.VSetVLI(shapeSew(s), asm.M1)
			a.RR(asm.VMVVV, dst, simdScratch)
		} else {
			a.RRR(op, dst, lhs, rhs)
		}
		return
	}
	half := int64(s.Narrowed().LaneCount() / 2)
	a.VSetVLI(srcSew, asm.M1)
	a.RRI(asm.VSLIDEDOWNVI, simdScratch, lhs, half)
	a.RRI(asm.VSLIDEDOWNVI, simdScratch2, rhs, half)
	a.VSetVLI(srcSew, asm.MF2)
	a.RRR(op, dst, simdScratch, simdScratch2)
}

// EmitExtAddPairwise splits even and odd lanes with mask-driven compresses,
// then adds them with one widening add.
func (a *Assembler) EmitExtAddPairwise(s baseline.Shape, dst, src asm.Reg, signed bool) {
	src16 := s.Narrowed()
	srcSew := shapeSew(src16)
	lanes := src16.LaneCount()
	even := int64(0x5555) & (1<<lanes - 1)
	odd := int64(0xAAAA) & (1<<lanes - 1)

	a.VSetVLI(asm.E16, asm.M1)
	a.Li(scratchReg2, even)
	a.RR(asm.VMVSX, maskReg, scratchReg2)
	a.VSetVLI(srcSew, asm.M1)
	a.RRR(asm.VCOMPRESSVV, simdScratch, src, maskReg)

	a.VSetVLI(asm.E16, asm.M1)
	a.Li(scratchReg2, odd)
	a.RR(asm.VMVSX, maskReg, scratchReg2)
	a.VSetVLI(srcSew, asm.M1)
	a.RRR(asm.VCOMPRESSVV, simdScratch2, src, maskReg)

	op := asm.VWADDUVV
	if signed {
		op = asm.VWADDVV
	}
	a.VSetVLI(srcSew, asm.MF2)
	a.RRR(op, dst, simdScratch, simdScratch2)
}

// EmitDotProduct lowers i32x4 = dot(i16x8, i16x8): widening multiply into a
// register group, compress the even and odd products apart, add.
func (a *Assembler) EmitDotProduct(dst, lhs, rhs asm.Reg) {
	a.VSetVLI(asm.E16, asm.M1)
	a.RRR(asm.VWMULVV, simdScratch, lhs, rhs)

	a.VSetVLI(asm.E32, asm.M2)
	a.Li(scratchReg2, 0b01010101)
	a.RR(asm.VMVSX, maskReg, scratchReg2)
	a.RRR(asm.VCOMPRESSVV, simdScratch2, simdScratch, maskReg)
	a.Li(scratchReg2, 0b10101010)
	a.RR(asm.VMVSX, maskReg, scratchReg2)
	a.RRR(asm.VCOMPRESSVV, simdScratch3, simdScratch, maskReg)

	a.VSetVLI(asm.E32, asm.M1)
	a.RRR(asm.VADDVV, dst, simdScratch2, simdScratch3)
}

// EmitRoundingAverageU lowers the unsigned rounding average
// floor((a+b+1)/2): widen-add, add one, divide in the wide width, then
// saturating-narrow back down.
func (a *Assembler) EmitRoundingAverageU(s baseline.Shape, dst, lhs, rhs asm.Reg) {
	sew := shapeSew(s)
	wideSew := shapeSew(s.Widened())

	a.VSetVLI(sew, asm.M1)
	a.RRR(asm.VWADDUVV, simdScratch, lhs, rhs)
	a.Li(scratchReg2, 1)
	a.RRR(asm.VWADDUWX, simdScratch2, simdScratch, scratchReg2)
	a.VSetVLI(wideSew, asm.M2)
	a.Li(scratchReg2, 2)
	a.RRR(asm.VDIVUVX, simdScratch2, simdScratch2, scratchReg2)
	a.VSetVLI(sew, asm.M1)
	a.RRI(asm.VNCLIPUVI, dst, simdScratch2, 0)
}

// EmitAnyTrue sets dst to 1 if any bit of src is set: unsigned max
// reduction seeded with zero.
func (a *Assembler) EmitAnyTrue(dst, src asm.Reg) {
	a.VSetVLI(asm.E64, asm.M1)
	a.RR(asm.VMVSX, simdScratch, asm.RegZERO)
	a.RRR(asm.VREDMAXUVS, simdScratch, src, simdScratch)
	a.RR(asm.VMVXS, dst, simdScratch)
	a.RR(asm.SNEZ, dst, dst)
}

// EmitAllTrue sets dst to 1 if every lane of src is nonzero: unsigned min
// reduction seeded with all-ones.
func (a *Assembler) EmitAllTrue(s baseline.Shape, dst, src asm.Reg) {
	a.vcfg(s)
	a.Li(scratchReg2, -1)
	a.RR(asm.VMVSX, simdScratch, scratchReg2)
	a.RRR(asm.VREDMINUVS, simdScratch, src, simdScratch)
	a.RR(asm.VMVXS, dst, simdScratch)
	a.RR(asm.SNEZ, dst, dst)
}

// EmitBitmask gathers the sign bit of every lane into dst.
func (a *Assembler) EmitBitmask(s baseline.Shape, dst, src asm.Reg) {
	a.vcfg(s)
	a.RR(asm.VMVVX, simdScratch3, asm.RegZERO)
	a.RRR(asm.VMSLTVV, simdScratch, src, simdScratch3)
	a.VSetVLI(asm.E32, asm.M1)
	a.RR(asm.VMVXS, dst, simdScratch)
}

// EmitPopcnt counts bits per i8 lane with the classic clear-lowest-set-bit
// loop, driven by a "lane still nonzero" mask.
func (a *Assembler) EmitPopcnt(dst, src asm.Reg) {
	loop := a.AllocateLabel()
	a.VSetVLI(asm.E8, asm.M1)
	a.RR(asm.VMVVV, simdScratch, src)
	a.RI(asm.VMVVI, dst, 0)
	a.Bind(loop)
	a.RRI(asm.VMSNEVI, maskReg, simdScratch, 0)
	a.RRIMasked(asm.VADDVI, dst, dst, 1)
	a.RRI(asm.VADDVI, simdScratch2, simdScratch, -1)
	a.RRR(asm.VANDVV, simdScratch, simdScratch, simdScratch2)
	a.RR(asm.VFIRSTM, scratchReg, maskReg)
	a.Branch(asm.BranchGE, scratchReg, asm.RegZERO, loop)
}

// EmitSwizzle lowers the lane shuffle-by-variable-indices via a register
// gather. Out-of-range indices read as zero, matching wasm.
func (a *Assembler) EmitSwizzle(dst, data, indices asm.Reg) {
	a.VSetVLI(asm.E8, asm.M1)
	if dst == data || dst == indices {
		a.RRR(asm.VRGATHERVV, simdScratch, data, indices)
		a.RR(asm.VMVVV, dst, simdScratch)
		return
	}
	a.RRR(asm.VRGATHERVV, dst, data, indices)
}

// EmitRelaxedSwizzle uses the strict lowering.
func (a *Assembler) EmitRelaxedSwizzle(dst, data, indices asm.Reg) {
	a.EmitSwizzle(dst, data, indices)
}

// EmitNarrow packs the two source vectors into one vector of half-width
// lanes with saturation. The halves are staged into an adjacent register
// pair so the narrowing clip sees them as one wide group; the unsigned form
// clamps negatives to zero first.
func (a *Assembler) EmitNarrow(s baseline.Shape, dst, lhs, rhs asm.Reg, signed bool) {
	wideSew := shapeSew(s.Widened())
	a.VSetVLI(wideSew, asm.M1)
	if signed {
		a.RR(asm.VMVVV, simdScratch, lhs)
		a.RR(asm.VMVVV, simdScratch.OffsetBy(1), rhs)
	} else {
		a.RRR(asm.VMAXVX, simdScratch, lhs, asm.RegZERO)
		a.RRR(asm.VMAXVX, simdScratch.OffsetBy(1), rhs, asm.RegZERO)
	}
	a.vcfg(s)
	if signed {
		a.RRI(asm.VNCLIPVI, dst, simdScratch, 0)
	} else {
		a.RRI(asm.VNCLIPUVI, dst, simdScratch, 0)
	}
}

// EmitWiden sign- or zero-extends half the source lanes to the full width.
// The high half slides down first.
func (a *Assembler) EmitWiden(s baseline.Shape, dst, src asm.Reg, low, signed bool) {
	if !low {
		srcShape := s.Narrowed()
		a.vcfg(srcShape)
		a.RRI(asm.VSLIDEDOWNVI, simdScratch, src, int64(srcShape.LaneCount()/2))
		src = simdScratch
	}
	a.vcfg(s)
	if signed {
		a.RR(asm.VSEXTVF2, dst, src)
	} else {
		a.RR(asm.VZEXTVF2, dst, src)
	}
}

// EmitTruncSatF32x4 lowers i32x4.trunc_sat_f32x4: NaN lanes become zero via
// a self-equality mask, the rest convert with round-towards-zero.
func (a *Assembler) EmitTruncSatF32x4(dst, src asm.Reg, signed bool) {
	a.VSetVLI(asm.E32, asm.M1)
	a.RRR(asm.VMFEQVV, maskReg, src, src)
	a.RR(asm.VMVVX, simdScratch, asm.RegZERO)
	a.Fsrmi(asm.RTZ)
	if signed {
		a.RRMasked(asm.VFCVTXFV, simdScratch, src)
	} else {
		a.RRMasked(asm.VFCVTXUFV, simdScratch, src)
	}
	a.Fsrmi(asm.RNE)
	a.RR(asm.VMVVV, dst, simdScratch)
}

// EmitConvertI32x4 lowers f32x4.convert_i32x4.
func (a *Assembler) EmitConvertI32x4(dst, src asm.Reg, signed bool) {
	a.VSetVLI(asm.E32, asm.M1)
	if signed {
		a.RR(asm.VFCVTFXV, dst, src)
	} else {
		a.RR(asm.VFCVTFXUV, dst, src)
	}
}

// EmitTruncSatF64x2Zero lowers i32x4.trunc_sat_f64x2_zero: the two doubles
// narrow into the low lanes, NaNs become zero, the high lanes are zero.
func (a *Assembler) EmitTruncSatF64x2Zero(dst, src asm.Reg, signed bool) {
	a.VSetVLI(asm.E64, asm.M1)
	a.RRR(asm.VMFEQVV, maskReg, src, src)
	a.RR(asm.VMVVV, simdScratch, src)
	a.VSetVLI(asm.E32, asm.M1)
	a.RR(asm.VMVVX, dst, asm.RegZERO)
	a.Fsrmi(asm.RTZ)
	if signed {
		a.RRMasked(asm.VFNCVTXFW, dst, simdScratch)
	} else {
		a.RRMasked(asm.VFNCVTXUFW, dst, simdScratch)
	}
	a.Fsrmi(asm.RNE)
}

// EmitRelaxedTruncF32x4 converts without the NaN mask; relaxed semantics
// leave NaN lanes implementation-defined.
func (a *Assembler) EmitRelaxedTruncF32x4(dst, src asm.Reg, signed bool) {
	a.VSetVLI(asm.E32, asm.M1)
	a.Fsrmi(asm.RTZ)
	if signed {
		a.RR(asm.VFCVTXFV, dst, src)
	} else {
		a.RR(asm.VFCVTXUFV, dst, src)
	}
	a.Fsrmi(asm.RNE)
}

// EmitRelaxedTruncF64x2Zero is the relaxed narrowing truncation: a fixed
// low-lane mask instead of the NaN mask.
func (a *Assembler) EmitRelaxedTruncF64x2Zero(dst, src asm.Reg, signed bool) {
	a.VSetVLI(asm.E64, asm.M1)
	a.RR(asm.VMVVV, simdScratch, src)
	a.VSetVLI(asm.E32, asm.M1)
	a.RR(asm.VMVVX, dst, asm.RegZERO)
	a.Li(scratchReg2, 0b0011)
	a.RR(asm.VMVSX, maskReg, scratchReg2)
	a.Fsrmi(asm.RTZ)
	if signed {
		a.RRMasked(asm.VFNCVTXFW, dst, simdScratch)
	} else {
		a.RRMasked(asm.VFNCVTXUFW, dst, simdScratch)
	}
	a.Fsrmi(asm.RNE)
}

// EmitConvertLowI32x4 lowers f64x2.convert_low_i32x4 with a widening
// convert; a scratch detour covers destination-source aliasing.
func (a *Assembler) EmitConvertLowI32x4(dst, src asm.Reg, signed bool) {
	op := asm.VFWCVTFXUV
	if signed {
		op = asm.VFWCVTFXV
	}
	a.VSetVLI(asm.E32, asm.MF2)
	if dst == src {
		a.RR(op, simdScratch, src)
		a.VSetVLI(asm.E64, asm.M1)
		a.RR(asm.VMVVV, dst, simdScratch)
		return
	}
	a.RR(op, dst, src)
}

// EmitPromoteLow lowers f64x2.promote_low_f32x4.
func (a *Assembler) EmitPromoteLow(dst, src asm.Reg) {
	a.VSetVLI(asm.E32, asm.MF2)
	if dst == src {
		a.RR(asm.VFWCVTFFV, simdScratch, src)
		a.VSetVLI(asm.E64, asm.M1)
		a.RR(asm.VMVVV, dst, simdScratch)
		return
	}
	a.RR(asm.VFWCVTFFV, dst, src)
}

// EmitDemoteZero lowers f32x4.demote_f64x2_zero: narrow, then zero the two
// upper lanes with a constant-mask merge.
func (a *Assembler) EmitDemoteZero(dst, src asm.Reg) {
	a.VSetVLI(asm.E32, asm.M1)
	a.RR(asm.VFNCVTFFW, simdScratch, src)
	a.Li(scratchReg2, 0b1100)
	a.RR(asm.VMVSX, maskReg, scratchReg2)
	a.VMergeVXM(dst, simdScratch, asm.RegZERO)
}

// EmitFloatVecUnOp lowers abs/neg/sqrt lane-wise.
func (a *Assembler) EmitFloatVecUnOp(s baseline.Shape, op baseline.FloatUnOp, dst, src asm.Reg) {
	a.vcfg(s)
	switch op {
	case baseline.FloatAbs:
		a.RR(asm.VFABSV, dst, src)
	case baseline.FloatNeg:
		a.RR(asm.VFNEGV, dst, src)
	case baseline.FloatSqrt:
		a.RR(asm.VFSQRTV, dst, src)
	default:
		panic("invalid float unop")
	}
}

var vecFloatBinOps = map[baseline.VecFloatBinOp]asm.Op{
	baseline.VecFAdd: asm.VFADDVV,
	baseline.VecFSub: asm.VFSUBVV,
	baseline.VecFMul: asm.VFMULVV,
	baseline.VecFDiv: asm.VFDIVVV,
}

// EmitFloatVecBinOp lowers add/sub/mul/div lane-wise.
func (a *Assembler) EmitFloatVecBinOp(s baseline.Shape, op baseline.VecFloatBinOp, dst, lhs, rhs asm.Reg) {
	a.vcfg(s)
	a.RRR(vecFloatBinOps[op], dst, lhs, rhs)
}

// EmitVectorRound lowers ceil/floor/trunc/nearest lane-wise. Lanes whose
// magnitude reaches 2^mantissa-bits are already integral (and NaN lanes
// fail the magnitude compare), so only the small lanes round-trip through
// the integer domain; a final sign-inject restores the sign of -0 results.
// Returns true; the lowering is always available.
func (a *Assembler) EmitVectorRound(kind baseline.RoundKind, s baseline.Shape, dst, src asm.Reg) bool {
	threshold := int64(f32RoundThreshold)
	if s == baseline.F64x2 {
		threshold = f64RoundThreshold
	}
	a.vcfg(s)
	a.RR(asm.VFABSV, simdScratch, src)
	a.Li(scratchReg2, threshold)
	a.RR(asm.VMVVX, simdScratch2, scratchReg2)
	a.RRR(asm.VMFLTVV, maskReg, simdScratch, simdScratch2)
	a.Fsrmi(roundingModes[kind])
	a.RRMasked(asm.VFCVTXFV, simdScratch, src)
	a.RRMasked(asm.VFCVTFXV, simdScratch, simdScratch)
	a.Fsrmi(asm.RNE)
	a.VMergeVVM(dst, src, simdScratch)
	a.RRR(asm.VFSGNJVV, dst, dst, src)
	return true
}

// EmitFloatVecMinMax lowers f32x4/f64x2 min/max with NaN propagation: lanes
// where either input is NaN get the canonical quiet NaN, the rest get the
// hardware min/max under the both-ordered mask.
func (a *Assembler) EmitFloatVecMinMax(s baseline.Shape, dst, lhs, rhs asm.Reg, isMin bool) {
	nan := int64(canonicalNaN32)
	if s == baseline.F64x2 {
		nan = canonicalNaN64
	}
	a.vcfg(s)
	a.RRR(asm.VMFEQVV, maskReg, lhs, lhs)
	a.RRR(asm.VMFEQVV, simdScratch, rhs, rhs)
	a.RRR(asm.VANDVV, maskReg, maskReg, simdScratch)
	a.Li(scratchReg2, nan)
	a.RR(asm.VMVVX, simdScratch, scratchReg2)
	if isMin {
		a.RRRMasked(asm.VFMINVV, simdScratch, lhs, rhs)
	} else {
		a.RRRMasked(asm.VFMAXVV, simdScratch, lhs, rhs)
	}
	a.RR(asm.VMVVV, dst, simdScratch)
}

// EmitRelaxedMinMax lowers the relaxed min/max as plain hardware min/max.
func (a *Assembler) EmitRelaxedMinMax(s baseline.Shape, dst, lhs, rhs asm.Reg, isMin bool) {
	a.vcfg(s)
	if isMin {
		a.RRR(asm.VFMINVV, dst, lhs, rhs)
	} else {
		a.RRR(asm.VFMAXVV, dst, lhs, rhs)
	}
}

// EmitPMinMax lowers pmin/pmax: a single ordered compare and a merge, fixed
// operand order, no NaN handling.
func (a *Assembler) EmitPMinMax(s baseline.Shape, dst, lhs, rhs asm.Reg, isMin bool) {
	a.vcfg(s)
	if isMin {
		a.RRR(asm.VMFLTVV, maskReg, rhs, lhs)
	} else {
		a.RRR(asm.VMFLTVV, maskReg, lhs, rhs)
	}
	a.VMergeVVM(dst, lhs, rhs)
}

// EmitExtractLane moves one lane to a scalar register. Nonzero lanes slide
// to position zero first; sub-word integer lanes get their extension fixed
// up after the sign-extending element move.
func (a *Assembler) EmitExtractLane(s baseline.Shape, dst, src asm.Reg, lane int, signed bool) {
	a.vcfg(s)
	from := src
	if lane != 0 {
		a.RRI(asm.VSLIDEDOWNVI, simdScratch, src, int64(lane))
		from = simdScratch
	}
	if s.IsFloat() {
		a.RR(asm.VFMVFS, dst, from)
		return
	}
	a.RR(asm.VMVXS, dst, from)
	if !signed {
		switch s {
		case baseline.I8x16:
			a.Andi(dst, dst, 0xFF)
		case baseline.I16x8:
			a.RRI(asm.SLLI, dst, dst, 48)
			a.RRI(asm.SRLI, dst, dst, 48)
		}
	}
}

// EmitReplaceLane writes a scalar into one lane through a one-hot mask
// merge. Float values go through a gp register first.
func (a *Assembler) EmitReplaceLane(s baseline.Shape, dst, src, val asm.Reg, lane int) {
	gp := val
	if val.IsFP() {
		gp = scratchReg
		if s == baseline.F64x2 {
			a.RR(asm.FMVXD, gp, val)
		} else {
			a.RR(asm.FMVXW, gp, val)
		}
	}
	a.VSetVLI(asm.E64, asm.M1)
	a.Li(scratchReg2, 1<<lane)
	a.RR(asm.VMVSX, maskReg, scratchReg2)
	a.vcfg(s)
	a.VMergeVXM(dst, src, gp)
}

// EmitS128SetIfNan stores a nonzero flag to the address in dst when any
// float lane of src is NaN. A float max reduction propagates the NaN, then
// the scalar self-equality test decides.
func (a *Assembler) EmitS128SetIfNan(s baseline.Shape, dst, src asm.Reg) {
	eq := asm.FEQS
	if s == baseline.F64x2 {
		eq = asm.FEQD
	}
	skip := a.AllocateLabel()
	a.vcfg(s)
	a.RRR(asm.VFREDMAXVS, simdScratch, src, src)
	a.RR(asm.VFMVFS, scratchFP, simdScratch)
	a.RRR(eq, scratchReg, scratchFP, scratchFP)
	a.BranchZero(asm.BranchNE, scratchReg, skip)
	a.Li(scratchReg, 1)
	a.Sw(scratchReg, dst, 0)
	a.Bind(skip)
}

// Relaxed dot products and the fused multiply ops have no single-pass
// lowering here; the function falls back to another tier.

func (a *Assembler) EmitRelaxedDotProduct(dst, lhs, rhs asm.Reg) {
	a.bailout(baseline.BailoutRelaxedSIMD, "i16x8.dot_i8x16_i7x16_s")
}

func (a *Assembler) EmitRelaxedDotProductAdd(dst, lhs, rhs, acc asm.Reg) {
	a.bailout(baseline.BailoutRelaxedSIMD, "i32x4.dot_i8x16_i7x16_add_s")
}

func (a *Assembler) EmitFusedMulAdd(s baseline.Shape, dst, a1, a2, a3 asm.Reg) {
	a.bailout(baseline.BailoutRelaxedSIMD, s.String()+".qfma")
}

func (a *Assembler) EmitFusedMulSub(s baseline.Shape, dst, a1, a2, a3 asm.Reg) {
	a.bailout(baseline.BailoutRelaxedSIMD, s.String()+".qfms")
}
