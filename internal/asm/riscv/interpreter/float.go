package interpreter

import (
	"math"

	asm "github.com/wasmkit/rivet/internal/asm/riscv"
)

const (
	quietNaN32 = 0x7FC00000
	quietNaN64 = 0x7FF8000000000000
)

// execFloat handles the scalar float subset. Returns false for ops that are
// not scalar float.
func (m *Machine) execFloat(i *asm.Instruction) bool {
	switch i.Op {
	case asm.FADDS:
		m.setF32(i.Rd, m.f32(i.Rs1)+m.f32(i.Rs2))
	case asm.FSUBS:
		m.setF32(i.Rd, m.f32(i.Rs1)-m.f32(i.Rs2))
	case asm.FMULS:
		m.setF32(i.Rd, m.f32(i.Rs1)*m.f32(i.Rs2))
	case asm.FDIVS:
		m.setF32(i.Rd, m.f32(i.Rs1)/m.f32(i.Rs2))
	case asm.FSQRTS:
		m.setF32(i.Rd, float32(math.Sqrt(float64(m.f32(i.Rs1)))))
	case asm.FABSS:
		m.setF(i.Rd, m.f(i.Rs1)&0x7FFFFFFF)
	case asm.FNEGS:
		m.setF(i.Rd, m.f(i.Rs1)^0x80000000)
	case asm.FSGNJS:
		m.setF(i.Rd, m.f(i.Rs1)&0x7FFFFFFF|m.f(i.Rs2)&0x80000000)
	case asm.FMINS:
		m.setF(i.Rd, uint64(fminmax32(uint32(m.f(i.Rs1)), uint32(m.f(i.Rs2)), true)))
	case asm.FMAXS:
		m.setF(i.Rd, uint64(fminmax32(uint32(m.f(i.Rs1)), uint32(m.f(i.Rs2)), false)))
	case asm.FEQS:
		m.setX(i.Rd, b2u(m.f32(i.Rs1) == m.f32(i.Rs2)))
	case asm.FLTS:
		m.setX(i.Rd, b2u(m.f32(i.Rs1) < m.f32(i.Rs2)))
	case asm.FLES:
		m.setX(i.Rd, b2u(m.f32(i.Rs1) <= m.f32(i.Rs2)))
	case asm.FROUNDS:
		m.setF32(i.Rd, float32(roundFloat(float64(m.f32(i.Rs1)), i.RM)))
	case asm.FMVXW:
		m.setX(i.Rd, uint64(int64(int32(m.f(i.Rs1)))))
	case asm.FMVWX:
		m.setF(i.Rd, m.x(i.Rs1)&0xFFFFFFFF)

	case asm.FADDD:
		m.setF64(i.Rd, m.f64(i.Rs1)+m.f64(i.Rs2))
	case asm.FSUBD:
		m.setF64(i.Rd, m.f64(i.Rs1)-m.f64(i.Rs2))
	case asm.FMULD:
		m.setF64(i.Rd, m.f64(i.Rs1)*m.f64(i.Rs2))
	case asm.FDIVD:
		m.setF64(i.Rd, m.f64(i.Rs1)/m.f64(i.Rs2))
	case asm.FSQRTD:
		m.setF64(i.Rd, math.Sqrt(m.f64(i.Rs1)))
	case asm.FABSD:
		m.setF(i.Rd, m.f(i.Rs1)&^(1<<63))
	case asm.FNEGD:
		m.setF(i.Rd, m.f(i.Rs1)^(1<<63))
	case asm.FSGNJD:
		m.setF(i.Rd, m.f(i.Rs1)&^(1<<63)|m.f(i.Rs2)&(1<<63))
	case asm.FMIND:
		m.setF(i.Rd, fminmax64(m.f(i.Rs1), m.f(i.Rs2), true))
	case asm.FMAXD:
		m.setF(i.Rd, fminmax64(m.f(i.Rs1), m.f(i.Rs2), false))
	case asm.FEQD:
		m.setX(i.Rd, b2u(m.f64(i.Rs1) == m.f64(i.Rs2)))
	case asm.FLTD:
		m.setX(i.Rd, b2u(m.f64(i.Rs1) < m.f64(i.Rs2)))
	case asm.FLED:
		m.setX(i.Rd, b2u(m.f64(i.Rs1) <= m.f64(i.Rs2)))
	case asm.FROUNDD:
		m.setF64(i.Rd, roundFloat(m.f64(i.Rs1), i.RM))
	case asm.FMVXD:
		m.setX(i.Rd, m.f(i.Rs1))
	case asm.FMVDX:
		m.setF(i.Rd, m.x(i.Rs1))

	default:
		return false
	}
	return true
}

// fminmax32 implements the fmin.s/fmax.s rules: a single NaN input yields
// the other operand, two NaNs yield the canonical NaN, and -0 orders below
// +0.
func fminmax32(a, b uint32, isMin bool) uint32 {
	fa := math.Float32frombits(a)
	fb := math.Float32frombits(b)
	an := fa != fa
	bn := fb != fb
	switch {
	case an && bn:
		return quietNaN32
	case an:
		return b
	case bn:
		return a
	}
	if fa == fb {
		// Covers 0 == -0: the sign-bit union picks -0 for min, the
		// intersection picks +0 for max. Equal finite values share bits.
		if isMin {
			return a | b
		}
		return a & b
	}
	if (fa < fb) == isMin {
		return a
	}
	return b
}

// fminmax64 implements fmin.d/fmax.d with the same rules.
func fminmax64(a, b uint64, isMin bool) uint64 {
	fa := math.Float64frombits(a)
	fb := math.Float64frombits(b)
	an := fa != fa
	bn := fb != fb
	switch {
	case an && bn:
		return quietNaN64
	case an:
		return b
	case bn:
		return a
	}
	if fa == fb {
		if isMin {
			return a | b // -0 wins: union of sign bits keeps the set one
		}
		return a & b
	}
	if (fa < fb) == isMin {
		return a
	}
	return b
}

// roundFloat rounds to an integer-valued float under the given mode,
// preserving NaN, infinities, and values too large to have a fraction.
func roundFloat(v float64, rm asm.RoundingMode) float64 {
	if v != v || math.IsInf(v, 0) {
		return v
	}
	switch rm {
	case asm.RNE:
		return math.RoundToEven(v)
	case asm.RTZ:
		return math.Trunc(v)
	case asm.RDN:
		return math.Floor(v)
	case asm.RUP:
		return math.Ceil(v)
	case asm.RMM:
		return math.Round(v)
	}
	panic("invalid rounding mode")
}
