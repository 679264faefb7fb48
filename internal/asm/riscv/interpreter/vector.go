package interpreter

import (
	"encoding/binary"
	"math"

	asm "github.com/wasmkit/rivet/internal/asm/riscv"
)

// vlanes returns the number of active elements under the current
// configuration (vl with vsetvli rs1=zero: the maximum for SEW/LMUL).
func (m *Machine) vlanes() int {
	base := VLEN / m.sew.Bits()
	switch m.lmul {
	case asm.MF2:
		return base / 2
	case asm.M1:
		return base
	case asm.M2:
		return base * 2
	}
	panic("invalid lmul")
}

// velem reads element idx of width bits from the register group at base.
func (m *Machine) velem(base asm.Reg, idx, bits int) uint64 {
	per := VLEN / bits
	r := base.VecIndex() + idx/per
	if r > 31 {
		panic("vector register group out of range")
	}
	off := (idx % per) * bits / 8
	switch bits {
	case 8:
		return uint64(m.V[r][off])
	case 16:
		return uint64(binary.LittleEndian.Uint16(m.V[r][off:]))
	case 32:
		return uint64(binary.LittleEndian.Uint32(m.V[r][off:]))
	case 64:
		return binary.LittleEndian.Uint64(m.V[r][off:])
	}
	panic(bits)
}

// setVelem writes element idx of width bits in the register group at base.
func (m *Machine) setVelem(base asm.Reg, idx, bits int, v uint64) {
	per := VLEN / bits
	r := base.VecIndex() + idx/per
	if r > 31 {
		panic("vector register group out of range")
	}
	off := (idx % per) * bits / 8
	switch bits {
	case 8:
		m.V[r][off] = byte(v)
	case 16:
		binary.LittleEndian.PutUint16(m.V[r][off:], uint16(v))
	case 32:
		binary.LittleEndian.PutUint32(m.V[r][off:], uint32(v))
	case 64:
		binary.LittleEndian.PutUint64(m.V[r][off:], v)
	default:
		panic(bits)
	}
}

func (m *Machine) maskBit(l int) bool {
	return m.V[0][l/8]&(1<<(l%8)) != 0
}

func (m *Machine) maskBitOf(r asm.Reg, l int) bool {
	return m.V[r.VecIndex()][l/8]&(1<<(l%8)) != 0
}

// writeMask stores a fresh compare result into rd: bits [0,vl) from res,
// everything above cleared.
func (m *Machine) writeMask(rd asm.Reg, res []bool) {
	var out [16]byte
	for l, b := range res {
		if b {
			out[l/8] |= 1 << (l % 8)
		}
	}
	m.V[rd.VecIndex()] = out
}

func sext(v uint64, bits int) int64 {
	sh := 64 - bits
	return int64(v<<sh) >> sh
}

func trunc(v uint64, bits int) uint64 {
	if bits == 64 {
		return v
	}
	return v & (1<<bits - 1)
}

func (m *Machine) active(i *asm.Instruction, l int) bool {
	return !i.Masked || m.maskBit(l)
}

// gather reads vl elements of a register group into a slice, so lowerings
// with destination-source aliasing stay well-defined.
func (m *Machine) gather(base asm.Reg, vl, bits int) []uint64 {
	out := make([]uint64, vl)
	for l := range out {
		out[l] = m.velem(base, l, bits)
	}
	return out
}

func (m *Machine) execVector(i *asm.Instruction) bool {
	if i.Op == asm.VSETVLI {
		m.sew, m.lmul = i.Sew, i.Lmul
		return true
	}

	sb := m.sew.Bits()
	vl := m.vlanes()

	switch i.Op {
	case asm.VMVVV:
		src := m.gather(i.Rs1, vl, sb)
		for l := 0; l < vl; l++ {
			m.setVelem(i.Rd, l, sb, src[l])
		}
	case asm.VMVVX:
		for l := 0; l < vl; l++ {
			m.setVelem(i.Rd, l, sb, trunc(m.x(i.Rs1), sb))
		}
	case asm.VMVVI:
		for l := 0; l < vl; l++ {
			m.setVelem(i.Rd, l, sb, trunc(uint64(i.Imm), sb))
		}
	case asm.VMVSX:
		m.setVelem(i.Rd, 0, sb, trunc(m.x(i.Rs1), sb))
	case asm.VMVXS:
		m.setX(i.Rd, uint64(sext(m.velem(i.Rs1, 0, sb), sb)))
	case asm.VFMVFS:
		m.setF(i.Rd, m.velem(i.Rs1, 0, sb))
	case asm.VFMVSF:
		m.setVelem(i.Rd, 0, sb, trunc(m.f(i.Rs1), sb))

	case asm.VMERGEVVM:
		onFalse := m.gather(i.Rs1, vl, sb)
		onTrue := m.gather(i.Rs2, vl, sb)
		for l := 0; l < vl; l++ {
			if m.maskBit(l) {
				m.setVelem(i.Rd, l, sb, onTrue[l])
			} else {
				m.setVelem(i.Rd, l, sb, onFalse[l])
			}
		}
	case asm.VMERGEVXM:
		onFalse := m.gather(i.Rs1, vl, sb)
		for l := 0; l < vl; l++ {
			if m.maskBit(l) {
				m.setVelem(i.Rd, l, sb, trunc(m.x(i.Rs2), sb))
			} else {
				m.setVelem(i.Rd, l, sb, onFalse[l])
			}
		}
	case asm.VMERGEVIM:
		onFalse := m.gather(i.Rs1, vl, sb)
		for l := 0; l < vl; l++ {
			if m.maskBit(l) {
				m.setVelem(i.Rd, l, sb, trunc(uint64(i.Imm), sb))
			} else {
				m.setVelem(i.Rd, l, sb, onFalse[l])
			}
		}

	case asm.VADDVV, asm.VSUBVV, asm.VMULVV, asm.VANDVV, asm.VORVV, asm.VXORVV,
		asm.VMINVV, asm.VMINUVV, asm.VMAXVV, asm.VMAXUVV,
		asm.VSADDVV, asm.VSADDUVV, asm.VSSUBVV, asm.VSSUBUVV, asm.VSMULVV:
		lhs := m.gather(i.Rs1, vl, sb)
		rhs := m.gather(i.Rs2, vl, sb)
		for l := 0; l < vl; l++ {
			if !m.active(i, l) {
				continue
			}
			m.setVelem(i.Rd, l, sb, intBinOp(i.Op, lhs[l], rhs[l], sb))
		}
	case asm.VMAXVX:
		src := m.gather(i.Rs1, vl, sb)
		for l := 0; l < vl; l++ {
			v := src[l]
			if sext(v, sb) < sext(trunc(m.x(i.Rs2), sb), sb) {
				v = trunc(m.x(i.Rs2), sb)
			}
			m.setVelem(i.Rd, l, sb, v)
		}
	case asm.VDIVUVX:
		src := m.gather(i.Rs1, vl, sb)
		d := trunc(m.x(i.Rs2), sb)
		for l := 0; l < vl; l++ {
			if d == 0 {
				m.setVelem(i.Rd, l, sb, trunc(^uint64(0), sb))
			} else {
				m.setVelem(i.Rd, l, sb, src[l]/d)
			}
		}
	case asm.VADDVI:
		src := m.gather(i.Rs1, vl, sb)
		for l := 0; l < vl; l++ {
			if !m.active(i, l) {
				continue
			}
			m.setVelem(i.Rd, l, sb, trunc(src[l]+uint64(i.Imm), sb))
		}
	case asm.VNOTV:
		src := m.gather(i.Rs1, vl, sb)
		for l := 0; l < vl; l++ {
			if !m.active(i, l) {
				continue
			}
			m.setVelem(i.Rd, l, sb, trunc(^src[l], sb))
		}
	case asm.VNEGV:
		src := m.gather(i.Rs1, vl, sb)
		for l := 0; l < vl; l++ {
			if !m.active(i, l) {
				continue
			}
			m.setVelem(i.Rd, l, sb, trunc(-src[l], sb))
		}

	case asm.VSLLVX, asm.VSRLVX, asm.VSRAVX:
		m.shift(i, vl, sb, int(m.x(i.Rs2))&(sb-1))
	case asm.VSLLVI, asm.VSRLVI, asm.VSRAVI:
		m.shift(i, vl, sb, int(i.Imm)&(sb-1))

	case asm.VMSEQVV, asm.VMSNEVV, asm.VMSLTVV, asm.VMSLTUVV, asm.VMSLEVV, asm.VMSLEUVV:
		lhs := m.gather(i.Rs1, vl, sb)
		rhs := m.gather(i.Rs2, vl, sb)
		res := make([]bool, vl)
		for l := 0; l < vl; l++ {
			res[l] = intCompare(i.Op, lhs[l], rhs[l], sb)
		}
		m.writeMask(i.Rd, res)
	case asm.VMSNEVI:
		src := m.gather(i.Rs1, vl, sb)
		res := make([]bool, vl)
		for l := 0; l < vl; l++ {
			res[l] = src[l] != trunc(uint64(i.Imm), sb)
		}
		m.writeMask(i.Rd, res)

	case asm.VMFEQVV, asm.VMFNEVV, asm.VMFLTVV, asm.VMFLEVV:
		lhs := m.gather(i.Rs1, vl, sb)
		rhs := m.gather(i.Rs2, vl, sb)
		res := make([]bool, vl)
		for l := 0; l < vl; l++ {
			a, b := vfloat(lhs[l], sb), vfloat(rhs[l], sb)
			switch i.Op {
			case asm.VMFEQVV:
				res[l] = a == b
			case asm.VMFNEVV:
				res[l] = a != b
			case asm.VMFLTVV:
				res[l] = a < b
			case asm.VMFLEVV:
				res[l] = a <= b
			}
		}
		m.writeMask(i.Rd, res)

	case asm.VFADDVV, asm.VFSUBVV, asm.VFMULVV, asm.VFDIVVV, asm.VFMINVV, asm.VFMAXVV, asm.VFSGNJVV:
		lhs := m.gather(i.Rs1, vl, sb)
		rhs := m.gather(i.Rs2, vl, sb)
		for l := 0; l < vl; l++ {
			if !m.active(i, l) {
				continue
			}
			m.setVelem(i.Rd, l, sb, floatBinOp(i.Op, lhs[l], rhs[l], sb))
		}
	case asm.VFSQRTV, asm.VFABSV, asm.VFNEGV:
		src := m.gather(i.Rs1, vl, sb)
		for l := 0; l < vl; l++ {
			if !m.active(i, l) {
				continue
			}
			m.setVelem(i.Rd, l, sb, floatUnOp(i.Op, src[l], sb))
		}

	case asm.VFCVTXFV, asm.VFCVTXUFV:
		src := m.gather(i.Rs1, vl, sb)
		for l := 0; l < vl; l++ {
			if !m.active(i, l) {
				continue
			}
			f := roundFloat(vfloat(src[l], sb), m.frm)
			if i.Op == asm.VFCVTXFV {
				m.setVelem(i.Rd, l, sb, trunc(uint64(satS(f, sb)), sb))
			} else {
				m.setVelem(i.Rd, l, sb, trunc(satU(f, sb), sb))
			}
		}
	case asm.VFCVTFXV, asm.VFCVTFXUV:
		src := m.gather(i.Rs1, vl, sb)
		for l := 0; l < vl; l++ {
			if !m.active(i, l) {
				continue
			}
			var f float64
			if i.Op == asm.VFCVTFXV {
				f = float64(sext(src[l], sb))
			} else {
				f = float64(src[l])
			}
			m.setVelem(i.Rd, l, sb, vfbits(f, sb))
		}

	case asm.VFNCVTXFW, asm.VFNCVTXUFW, asm.VFNCVTFFW:
		for l := 0; l < vl; l++ {
			if !m.active(i, l) {
				continue
			}
			f := vfloat(m.velem(i.Rs1, l, 2*sb), 2*sb)
			switch i.Op {
			case asm.VFNCVTXFW:
				m.setVelem(i.Rd, l, sb, trunc(uint64(satS(roundFloat(f, m.frm), sb)), sb))
			case asm.VFNCVTXUFW:
				m.setVelem(i.Rd, l, sb, trunc(satU(roundFloat(f, m.frm), sb), sb))
			case asm.VFNCVTFFW:
				m.setVelem(i.Rd, l, sb, vfbits(f, sb))
			}
		}
	case asm.VFWCVTFXV, asm.VFWCVTFXUV, asm.VFWCVTFFV:
		src := m.gather(i.Rs1, vl, sb)
		for l := 0; l < vl; l++ {
			var f float64
			switch i.Op {
			case asm.VFWCVTFXV:
				f = float64(sext(src[l], sb))
			case asm.VFWCVTFXUV:
				f = float64(src[l])
			case asm.VFWCVTFFV:
				f = vfloat(src[l], sb)
			}
			m.setVelem(i.Rd, l, 2*sb, vfbits(f, 2*sb))
		}

	case asm.VSEXTVF2:
		src := m.gather(i.Rs1, vl, sb/2)
		for l := 0; l < vl; l++ {
			m.setVelem(i.Rd, l, sb, trunc(uint64(sext(src[l], sb/2)), sb))
		}
	case asm.VZEXTVF2:
		src := m.gather(i.Rs1, vl, sb/2)
		for l := 0; l < vl; l++ {
			m.setVelem(i.Rd, l, sb, src[l])
		}

	case asm.VNCLIPVI, asm.VNCLIPUVI:
		src := m.gather(i.Rs1, vl, 2*sb)
		sh := int(i.Imm)
		for l := 0; l < vl; l++ {
			if i.Op == asm.VNCLIPVI {
				v := sext(src[l], 2*sb) >> sh
				m.setVelem(i.Rd, l, sb, trunc(uint64(clampS(v, sb)), sb))
			} else {
				v := src[l] >> sh
				m.setVelem(i.Rd, l, sb, clampU(v, sb))
			}
		}

	case asm.VWMULVV, asm.VWMULUVV, asm.VWADDVV, asm.VWADDUVV:
		lhs := m.gather(i.Rs1, vl, sb)
		rhs := m.gather(i.Rs2, vl, sb)
		for l := 0; l < vl; l++ {
			var v uint64
			switch i.Op {
			case asm.VWMULVV:
				v = uint64(sext(lhs[l], sb) * sext(rhs[l], sb))
			case asm.VWMULUVV:
				v = lhs[l] * rhs[l]
			case asm.VWADDVV:
				v = uint64(sext(lhs[l], sb) + sext(rhs[l], sb))
			case asm.VWADDUVV:
				v = lhs[l] + rhs[l]
			}
			m.setVelem(i.Rd, l, 2*sb, trunc(v, 2*sb))
		}
	case asm.VWADDUWX:
		src := make([]uint64, vl)
		for l := range src {
			src[l] = m.velem(i.Rs1, l, 2*sb)
		}
		for l := 0; l < vl; l++ {
			m.setVelem(i.Rd, l, 2*sb, trunc(src[l]+m.x(i.Rs2), 2*sb))
		}

	case asm.VREDMAXUVS, asm.VREDMINUVS:
		acc := m.velem(i.Rs2, 0, sb)
		for l := 0; l < vl; l++ {
			v := m.velem(i.Rs1, l, sb)
			if (i.Op == asm.VREDMAXUVS) == (v > acc) {
				acc = v
			}
		}
		m.setVelem(i.Rd, 0, sb, acc)
	case asm.VFREDMAXVS:
		acc := vfloat(m.velem(i.Rs2, 0, sb), sb)
		for l := 0; l < vl; l++ {
			v := vfloat(m.velem(i.Rs1, l, sb), sb)
			if v != v || acc != acc {
				acc = math.NaN()
			} else if v > acc {
				acc = v
			}
		}
		m.setVelem(i.Rd, 0, sb, vfbits(acc, sb))

	case asm.VSLIDEDOWNVI:
		src := m.gather(i.Rs1, vl, sb)
		for l := 0; l < vl; l++ {
			from := l + int(i.Imm)
			if from < vl {
				m.setVelem(i.Rd, l, sb, src[from])
			} else {
				m.setVelem(i.Rd, l, sb, 0)
			}
		}
	case asm.VSLIDEUPVI:
		src := m.gather(i.Rs1, vl, sb)
		for l := vl - 1; l >= int(i.Imm); l-- {
			m.setVelem(i.Rd, l, sb, src[l-int(i.Imm)])
		}
	case asm.VRGATHERVV:
		data := m.gather(i.Rs1, vl, sb)
		idx := m.gather(i.Rs2, vl, sb)
		for l := 0; l < vl; l++ {
			if idx[l] < uint64(vl) {
				m.setVelem(i.Rd, l, sb, data[idx[l]])
			} else {
				m.setVelem(i.Rd, l, sb, 0)
			}
		}
	case asm.VFIRSTM:
		res := int64(-1)
		for l := 0; l < vl; l++ {
			if m.maskBitOf(i.Rs1, l) {
				res = int64(l)
				break
			}
		}
		m.setX(i.Rd, uint64(res))
	case asm.VCOMPRESSVV:
		src := m.gather(i.Rs1, vl, sb)
		k := 0
		for l := 0; l < vl; l++ {
			if m.maskBitOf(i.Rs2, l) {
				m.setVelem(i.Rd, k, sb, src[l])
				k++
			}
		}

	default:
		return false
	}
	return true
}

func (m *Machine) shift(i *asm.Instruction, vl, sb, amount int) {
	src := m.gather(i.Rs1, vl, sb)
	for l := 0; l < vl; l++ {
		var v uint64
		switch i.Op {
		case asm.VSLLVX, asm.VSLLVI:
			v = src[l] << amount
		case asm.VSRLVX, asm.VSRLVI:
			v = src[l] >> amount
		case asm.VSRAVX, asm.VSRAVI:
			v = uint64(sext(src[l], sb) >> amount)
		}
		m.setVelem(i.Rd, l, sb, trunc(v, sb))
	}
}

func intBinOp(op asm.Op, a, b uint64, sb int) uint64 {
	switch op {
	case asm.VADDVV:
		return trunc(a+b, sb)
	case asm.VSUBVV:
		return trunc(a-b, sb)
	case asm.VMULVV:
		return trunc(a*b, sb)
	case asm.VANDVV:
		return a & b
	case asm.VORVV:
		return a | b
	case asm.VXORVV:
		return a ^ b
	case asm.VMINVV:
		if sext(a, sb) < sext(b, sb) {
			return a
		}
		return b
	case asm.VMINUVV:
		if a < b {
			return a
		}
		return b
	case asm.VMAXVV:
		if sext(a, sb) > sext(b, sb) {
			return a
		}
		return b
	case asm.VMAXUVV:
		if a > b {
			return a
		}
		return b
	case asm.VSADDVV:
		return trunc(uint64(clampS(sext(a, sb)+sext(b, sb), sb)), sb)
	case asm.VSADDUVV:
		return clampU(a+b, sb)
	case asm.VSSUBVV:
		return trunc(uint64(clampS(sext(a, sb)-sext(b, sb), sb)), sb)
	case asm.VSSUBUVV:
		if b > a {
			return 0
		}
		return a - b
	case asm.VSMULVV:
		// Fixed-point multiply with round-to-nearest-up, the q15 idiom.
		prod := sext(a, sb) * sext(b, sb)
		rounded := (prod + 1<<(sb-2)) >> (sb - 1)
		return trunc(uint64(clampS(rounded, sb)), sb)
	}
	panic(op)
}

func intCompare(op asm.Op, a, b uint64, sb int) bool {
	switch op {
	case asm.VMSEQVV:
		return a == b
	case asm.VMSNEVV:
		return a != b
	case asm.VMSLTVV:
		return sext(a, sb) < sext(b, sb)
	case asm.VMSLTUVV:
		return a < b
	case asm.VMSLEVV:
		return sext(a, sb) <= sext(b, sb)
	case asm.VMSLEUVV:
		return a <= b
	}
	panic(op)
}

func vfloat(bits uint64, sb int) float64 {
	if sb == 32 {
		return float64(math.Float32frombits(uint32(bits)))
	}
	return math.Float64frombits(bits)
}

func vfbits(f float64, sb int) uint64 {
	if sb == 32 {
		return uint64(math.Float32bits(float32(f)))
	}
	return math.Float64bits(f)
}

func floatBinOp(op asm.Op, a, b uint64, sb int) uint64 {
	if op == asm.VFSGNJVV {
		sign := uint64(1) << (sb - 1)
		return trunc(a&^sign|b&sign, sb)
	}
	if op == asm.VFMINVV || op == asm.VFMAXVV {
		if sb == 32 {
			return uint64(fminmax32(uint32(a), uint32(b), op == asm.VFMINVV))
		}
		return fminmax64(a, b, op == asm.VFMINVV)
	}
	if sb == 32 {
		fa, fb := math.Float32frombits(uint32(a)), math.Float32frombits(uint32(b))
		var r float32
		switch op {
		case asm.VFADDVV:
			r = fa + fb
		case asm.VFSUBVV:
			r = fa - fb
		case asm.VFMULVV:
			r = fa * fb
		case asm.VFDIVVV:
			r = fa / fb
		}
		return uint64(math.Float32bits(r))
	}
	fa, fb := math.Float64frombits(a), math.Float64frombits(b)
	var r float64
	switch op {
	case asm.VFADDVV:
		r = fa + fb
	case asm.VFSUBVV:
		r = fa - fb
	case asm.VFMULVV:
		r = fa * fb
	case asm.VFDIVVV:
		r = fa / fb
	}
	return math.Float64bits(r)
}

func floatUnOp(op asm.Op, a uint64, sb int) uint64 {
	sign := uint64(1) << (sb - 1)
	switch op {
	case asm.VFABSV:
		return a &^ sign
	case asm.VFNEGV:
		return trunc(a^sign, sb)
	case asm.VFSQRTV:
		if sb == 32 {
			return uint64(math.Float32bits(float32(math.Sqrt(float64(math.Float32frombits(uint32(a)))))))
		}
		return math.Float64bits(math.Sqrt(math.Float64frombits(a)))
	}
	panic(op)
}

// satS converts an already-rounded float to a signed integer of the given
// width with saturation; NaN saturates positive, like the scalar fcvt.
func satS(f float64, bits int) int64 {
	max := int64(1)<<(bits-1) - 1
	min := -int64(1) << (bits - 1)
	if f != f {
		return max
	}
	if f >= float64(max) {
		return max
	}
	if f <= float64(min) {
		return min
	}
	return int64(f)
}

// satU is the unsigned counterpart; negatives clamp to zero.
func satU(f float64, bits int) uint64 {
	var max uint64 = 1<<bits - 1
	if bits == 64 {
		max = math.MaxUint64
	}
	if f != f {
		return max
	}
	if f >= float64(max) {
		return max
	}
	if f <= 0 {
		return 0
	}
	return uint64(f)
}

func clampS(v int64, bits int) int64 {
	max := int64(1)<<(bits-1) - 1
	min := -int64(1) << (bits - 1)
	if v > max {
		return max
	}
	if v < min {
		return min
	}
	return v
}

func clampU(v uint64, bits int) uint64 {
	max := uint64(1)<<bits - 1
	if v > max {
		return max
	}
	return v
}
