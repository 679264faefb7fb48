package riscv

import (
	"encoding/binary"
	"errors"
	"math"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	asm "github.com/wasmkit/rivet/internal/asm/riscv"
	"github.com/wasmkit/rivet/internal/asm/riscv/interpreter"
	"github.com/wasmkit/rivet/internal/engine/baseline"
)

func TestEmitSplat_ExtractLane(t *testing.T) {
	t.Run("i8x16", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitSplat(baseline.I8x16, asm.RegV8, asm.RegA1)
		a.EmitExtractLane(baseline.I8x16, asm.RegA0, asm.RegV8, 5, false)
		m := run(a, func(m *interpreter.Machine) { m.SetReg(asm.RegA1, 0xAB) })
		require.Equal(t, uint64(0xAB), m.Reg(asm.RegA0))

		a = newTestAssembler()
		a.EmitSplat(baseline.I8x16, asm.RegV8, asm.RegA1)
		a.EmitExtractLane(baseline.I8x16, asm.RegA0, asm.RegV8, 15, true)
		m = run(a, func(m *interpreter.Machine) { m.SetReg(asm.RegA1, 0xAB) })
		require.Equal(t, uint64(0xFFFFFFFFFFFFFFAB), m.Reg(asm.RegA0))
	})

	t.Run("i16x8", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitSplat(baseline.I16x8, asm.RegV8, asm.RegA1)
		a.EmitExtractLane(baseline.I16x8, asm.RegA0, asm.RegV8, 3, false)
		m := run(a, func(m *interpreter.Machine) { m.SetReg(asm.RegA1, 0xBEEF) })
		require.Equal(t, uint64(0xBEEF), m.Reg(asm.RegA0))
		require.Equal(t, lanes16(0xBEEF, 0xBEEF, 0xBEEF, 0xBEEF, 0xBEEF, 0xBEEF, 0xBEEF, 0xBEEF), m.Vec(asm.RegV8))
	})

	t.Run("i32x4 signed", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitSplat(baseline.I32x4, asm.RegV8, asm.RegA1)
		a.EmitExtractLane(baseline.I32x4, asm.RegA0, asm.RegV8, 2, true)
		m := run(a, func(m *interpreter.Machine) { m.SetReg(asm.RegA1, 0x80000001) })
		require.Equal(t, uint64(0xFFFFFFFF80000001), m.Reg(asm.RegA0))
	})

	t.Run("i64x2", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitSplat(baseline.I64x2, asm.RegV8, asm.RegA1)
		a.EmitExtractLane(baseline.I64x2, asm.RegA0, asm.RegV8, 1, true)
		m := run(a, func(m *interpreter.Machine) { m.SetReg(asm.RegA1, 0x123456789ABCDEF0) })
		require.Equal(t, uint64(0x123456789ABCDEF0), m.Reg(asm.RegA0))
	})

	t.Run("f32x4", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitSplat(baseline.F32x4, asm.RegV8, asm.RegFT1)
		a.EmitExtractLane(baseline.F32x4, asm.RegFT0, asm.RegV8, 2, false)
		m := run(a, func(m *interpreter.Machine) {
			m.SetReg(asm.RegFT1, uint64(math.Float32bits(1.5)))
		})
		require.Equal(t, uint64(math.Float32bits(1.5)), m.Reg(asm.RegFT0))
		require.Equal(t, lanesF32(1.5, 1.5, 1.5, 1.5), m.Vec(asm.RegV8))
	})

	t.Run("f64x2", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitSplat(baseline.F64x2, asm.RegV8, asm.RegFT1)
		a.EmitExtractLane(baseline.F64x2, asm.RegFT0, asm.RegV8, 1, false)
		m := run(a, func(m *interpreter.Machine) {
			m.SetReg(asm.RegFT1, math.Float64bits(-2.25))
		})
		require.Equal(t, math.Float64bits(-2.25), m.Reg(asm.RegFT0))
	})
}

func TestEmitReplaceLane(t *testing.T) {
	a := newTestAssembler()
	a.EmitSplat(baseline.I32x4, asm.RegV8, asm.RegA1)
	a.EmitReplaceLane(baseline.I32x4, asm.RegV10, asm.RegV8, asm.RegA2, 2)
	m := run(a, func(m *interpreter.Machine) {
		m.SetReg(asm.RegA1, 7)
		m.SetReg(asm.RegA2, 99)
	})
	require.Equal(t, lanes32(7, 7, 99, 7), m.Vec(asm.RegV10))
	require.Equal(t, lanes32(7, 7, 7, 7), m.Vec(asm.RegV8))

	a = newTestAssembler()
	a.EmitReplaceLane(baseline.F64x2, asm.RegV10, asm.RegV8, asm.RegFT1, 0)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF64(1.0, 2.0))
		m.SetReg(asm.RegFT1, math.Float64bits(-3.5))
	})
	require.Equal(t, lanesF64(-3.5, 2.0), m.Vec(asm.RegV10))
}

func TestEmitIntCompare(t *testing.T) {
	ones := uint32(0xFFFFFFFF)
	lhs := lanes32(1, uint32(0xFFFFFFFF), 5, 5) // [1, -1, 5, 5]
	rhs := lanes32(2, 0, 5, 3)

	for _, tc := range []struct {
		c   baseline.Cond
		exp [16]byte
	}{
		{baseline.Equal, lanes32(0, 0, ones, 0)},
		{baseline.NotEqual, lanes32(ones, ones, 0, ones)},
		{baseline.LessThan, lanes32(ones, ones, 0, 0)},
		{baseline.GreaterThan, lanes32(0, 0, 0, ones)},
		{baseline.LessThanEqual, lanes32(ones, ones, ones, 0)},
		{baseline.GreaterThanEqual, lanes32(0, 0, ones, ones)},
		// -1 is the largest unsigned value
		{baseline.UnsignedLessThan, lanes32(ones, 0, 0, 0)},
		{baseline.UnsignedGreaterThan, lanes32(0, ones, 0, ones)},
		{baseline.UnsignedGreaterThanEqual, lanes32(0, ones, ones, ones)},
		{baseline.UnsignedLessThanEqual, lanes32(ones, 0, ones, 0)},
	} {
		a := newTestAssembler()
		a.EmitIntCompare(baseline.I32x4, tc.c, asm.RegV10, asm.RegV8, asm.RegV9)
		m := run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lhs)
			m.SetVec(asm.RegV9, rhs)
		})
		require.Equal(t, tc.exp, m.Vec(asm.RegV10), "%s", tc.c)
	}
}

func TestEmitFloatCompare(t *testing.T) {
	ones := uint32(0xFFFFFFFF)
	nan := float32(math.NaN())
	lhs := lanesF32(1, nan, 3, 4)
	rhs := lanesF32(1, 2, 5, 3)

	for _, tc := range []struct {
		c   baseline.Cond
		exp [16]byte
	}{
		{baseline.Equal, lanes32(ones, 0, 0, 0)},
		{baseline.NotEqual, lanes32(0, ones, ones, ones)},
		{baseline.UnsignedLessThan, lanes32(0, 0, ones, 0)},
		{baseline.UnsignedLessThanEqual, lanes32(ones, 0, ones, 0)},
		{baseline.UnsignedGreaterThan, lanes32(0, 0, 0, ones)},
		{baseline.UnsignedGreaterThanEqual, lanes32(ones, 0, 0, ones)},
	} {
		a := newTestAssembler()
		a.EmitFloatCompare(baseline.F32x4, tc.c, asm.RegV10, asm.RegV8, asm.RegV9)
		m := run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lhs)
			m.SetVec(asm.RegV9, rhs)
		})
		require.Equal(t, tc.exp, m.Vec(asm.RegV10), "%s", tc.c)
	}
}

func TestEmitS128Const(t *testing.T) {
	a := newTestAssembler()
	a.EmitS128Const(asm.RegV8, 0x1122334455667788, 0xAABBCCDDEEFF0011)
	m := run(a, nil)
	require.Equal(t, lanes64(0x1122334455667788, 0xAABBCCDDEEFF0011), m.Vec(asm.RegV8))
}

func TestEmitS128Bitwise(t *testing.T) {
	x := lanes64(0xFF00FF00FF00FF00, 0x0123456789ABCDEF)
	y := lanes64(0x0F0F0F0F0F0F0F0F, 0xFFFFFFFF00000000)

	a := newTestAssembler()
	a.EmitS128Not(asm.RegV10, asm.RegV8)
	m := run(a, func(m *interpreter.Machine) { m.SetVec(asm.RegV8, x) })
	require.Equal(t, lanes64(0x00FF00FF00FF00FF, 0xFEDCBA9876543210), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitS128And(asm.RegV10, asm.RegV8, asm.RegV9)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, x)
		m.SetVec(asm.RegV9, y)
	})
	require.Equal(t, lanes64(0x0F000F000F000F00, 0x0123456700000000), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitS128Or(asm.RegV10, asm.RegV8, asm.RegV9)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, x)
		m.SetVec(asm.RegV9, y)
	})
	require.Equal(t, lanes64(0xFF0FFF0FFF0FFF0F, 0xFFFFFFFF89ABCDEF), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitS128Xor(asm.RegV10, asm.RegV8, asm.RegV9)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, x)
		m.SetVec(asm.RegV9, y)
	})
	require.Equal(t, lanes64(0xF00FF00FF00FF00F, 0xFEDCBA9889ABCDEF), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitS128AndNot(asm.RegV10, asm.RegV8, asm.RegV9)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, x)
		m.SetVec(asm.RegV9, y)
	})
	require.Equal(t, lanes64(0xF000F000F000F000, 0x0000000089ABCDEF), m.Vec(asm.RegV10))
}

func TestEmitS128Select(t *testing.T) {
	a := newTestAssembler()
	a.EmitS128Select(asm.RegV10, asm.RegV8, asm.RegV9, asm.RegV11)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes64(0xAAAAAAAAAAAAAAAA, 0xAAAAAAAAAAAAAAAA))
		m.SetVec(asm.RegV9, lanes64(0x5555555555555555, 0x5555555555555555))
		m.SetVec(asm.RegV11, lanes64(0xFFFFFFFF00000000, 0x00000000FFFFFFFF))
	})
	require.Equal(t, lanes64(0xAAAAAAAA55555555, 0x55555555AAAAAAAA), m.Vec(asm.RegV10))
}

func TestEmitIntNeg(t *testing.T) {
	a := newTestAssembler()
	a.EmitIntNeg(baseline.I32x4, asm.RegV10, asm.RegV8)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes32(1, 0, uint32(0xFFFFFFFF), 0x80000000))
	})
	// -INT_MIN wraps back to INT_MIN.
	require.Equal(t, lanes32(uint32(0xFFFFFFFF), 0, 1, 0x80000000), m.Vec(asm.RegV10))
}

func TestEmitIntAbs(t *testing.T) {
	a := newTestAssembler()
	a.EmitIntAbs(baseline.I8x16, asm.RegV10, asm.RegV8)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes8(1, 0xFF, 0, 0x80, 0x7F, 0x81))
	})
	// abs(-128) wraps to -128.
	require.Equal(t, lanes8(1, 1, 0, 0x80, 0x7F, 0x7F), m.Vec(asm.RegV10))

	// In-place form.
	a = newTestAssembler()
	a.EmitIntAbs(baseline.I32x4, asm.RegV8, asm.RegV8)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes32(uint32(0xFFFFFFFE), 3, 0, uint32(0x80000000)))
	})
	require.Equal(t, lanes32(2, 3, 0, 0x80000000), m.Vec(asm.RegV8))
}

func TestEmitShift(t *testing.T) {
	// Register amounts are masked to the lane width.
	a := newTestAssembler()
	a.EmitShift(baseline.I32x4, baseline.ShiftLeft, asm.RegV10, asm.RegV8, asm.RegA1)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes32(1, 2, 0x80000000, 5))
		m.SetReg(asm.RegA1, 33)
	})
	require.Equal(t, lanes32(2, 4, 0, 10), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitShift(baseline.I16x8, baseline.ShiftRightS, asm.RegV10, asm.RegV8, asm.RegA1)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes16(0x8000, 16, 0xFFFF, 4))
		m.SetReg(asm.RegA1, 2)
	})
	require.Equal(t, lanes16(0xE000, 4, 0xFFFF, 1), m.Vec(asm.RegV10))
}

func TestEmitShiftImm(t *testing.T) {
	// The form over 31 cannot use the immediate encoding.
	a := newTestAssembler()
	a.EmitShiftImm(baseline.I64x2, baseline.ShiftRightU, asm.RegV10, asm.RegV8, 40)
	require.Contains(t, textLines(a), "li t5, 40")
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes64(0xFFFFFF0000000000, 1<<41))
	})
	require.Equal(t, lanes64(0xFFFFFF, 2), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitShiftImm(baseline.I8x16, baseline.ShiftLeft, asm.RegV10, asm.RegV8, 9)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes8(1, 0x80, 3))
	})
	// 9 masked to 1
	require.Equal(t, lanes8(2, 0, 6), m.Vec(asm.RegV10))
}

func TestEmitIntBinOp(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitIntBinOp(baseline.I32x4, baseline.VecAdd, asm.RegV10, asm.RegV8, asm.RegV9)
		m := run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lanes32(1, uint32(0xFFFFFFFF), 100, 0))
			m.SetVec(asm.RegV9, lanes32(2, 1, 50, 0))
		})
		require.Equal(t, lanes32(3, 0, 150, 0), m.Vec(asm.RegV10))
	})

	t.Run("add sat unsigned", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitIntBinOp(baseline.I8x16, baseline.VecAddSatU, asm.RegV10, asm.RegV8, asm.RegV9)
		m := run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lanes8(200, 255, 1))
			m.SetVec(asm.RegV9, lanes8(100, 255, 2))
		})
		require.Equal(t, lanes8(255, 255, 3), m.Vec(asm.RegV10))
	})

	t.Run("sub sat signed", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitIntBinOp(baseline.I8x16, baseline.VecSubSatS, asm.RegV10, asm.RegV8, asm.RegV9)
		m := run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lanes8(0x9C, 0x64, 10)) // [-100, 100, 10]
			m.SetVec(asm.RegV9, lanes8(0x64, 0x9C, 3))  // [100, -100, 3]
		})
		require.Equal(t, lanes8(0x80, 0x7F, 7), m.Vec(asm.RegV10))
	})

	t.Run("min max", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitIntBinOp(baseline.I16x8, baseline.VecMinS, asm.RegV10, asm.RegV8, asm.RegV9)
		m := run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lanes16(0xFFFF, 5)) // [-1, 5]
			m.SetVec(asm.RegV9, lanes16(1, 3))
		})
		require.Equal(t, lanes16(0xFFFF, 3), m.Vec(asm.RegV10))

		a = newTestAssembler()
		a.EmitIntBinOp(baseline.I16x8, baseline.VecMaxU, asm.RegV10, asm.RegV8, asm.RegV9)
		m = run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lanes16(0xFFFF, 5))
			m.SetVec(asm.RegV9, lanes16(1, 3))
		})
		require.Equal(t, lanes16(0xFFFF, 5), m.Vec(asm.RegV10))
	})

	t.Run("q15 mulr sat", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitIntBinOp(baseline.I16x8, baseline.VecQ15MulRSatS, asm.RegV10, asm.RegV8, asm.RegV9)
		m := run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lanes16(0x4000, 0x8000, 0x2000))
			m.SetVec(asm.RegV9, lanes16(0x4000, 0x8000, 0x2000))
		})
		// 0.5*0.5 = 0.25; -1*-1 saturates to 0x7FFF
		require.Equal(t, lanes16(0x2000, 0x7FFF, 0x0800), m.Vec(asm.RegV10))
	})
}

func TestEmitExtMul(t *testing.T) {
	t.Run("i16x8 low signed", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitExtMul(baseline.I16x8, asm.RegV10, asm.RegV8, asm.RegV9, true, true)
		m := run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lanes8(2, 0xFE, 0x80, 100, 0, 1, 2, 3, 9, 9, 9, 9, 9, 9, 9, 9))
			m.SetVec(asm.RegV9, lanes8(3, 3, 0x80, 100, 5, 1, 2, 3, 9, 9, 9, 9, 9, 9, 9, 9))
		})
		// -2*3 = -6, -128*-128 = 16384, 100*100 = 10000
		require.Equal(t, lanes16(6, 0xFFFA, 0x4000, 10000, 0, 1, 4, 9), m.Vec(asm.RegV10))
	})

	t.Run("i16x8 high unsigned", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitExtMul(baseline.I16x8, asm.RegV10, asm.RegV8, asm.RegV9, false, false)
		m := run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lanes8(9, 9, 9, 9, 9, 9, 9, 9, 255, 2, 3, 4, 5, 6, 7, 8))
			m.SetVec(asm.RegV9, lanes8(9, 9, 9, 9, 9, 9, 9, 9, 255, 2, 3, 4, 5, 6, 7, 8))
		})
		require.Equal(t, lanes16(65025, 4, 9, 16, 25, 36, 49, 64), m.Vec(asm.RegV10))
	})

	t.Run("i64x2 high signed", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitExtMul(baseline.I64x2, asm.RegV10, asm.RegV8, asm.RegV9, false, true)
		m := run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lanes32(9, 9, uint32(0xFFFFFFFE), 100000)) // high half [-2, 100000]
			m.SetVec(asm.RegV9, lanes32(9, 9, 3, 100000))
		})
		require.Equal(t, lanes64(0xFFFFFFFFFFFFFFFA, 10000000000), m.Vec(asm.RegV10))
	})

	t.Run("i32x4 low aliased dst", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitExtMul(baseline.I32x4, asm.RegV8, asm.RegV8, asm.RegV9, true, false)
		m := run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lanes16(10, 0xFFFF, 7, 2, 9, 9, 9, 9))
			m.SetVec(asm.RegV9, lanes16(10, 0xFFFF, 6, 2, 9, 9, 9, 9))
		})
		// unsigned: 0xFFFF^2 = 0xFFFE0001
		require.Equal(t, lanes32(100, 0xFFFE0001, 42, 4), m.Vec(asm.RegV8))
	})

	t.Run("i32x4 reference sweep", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		mod32 := new(big.Int).Lsh(big.NewInt(1), 32)
		for _, signed := range []bool{true, false} {
			for _, low := range []bool{true, false} {
				for iter := 0; iter < 64; iter++ {
					var lhs, rhs [16]byte
					rng.Read(lhs[:])
					rng.Read(rhs[:])

					a := newTestAssembler()
					a.EmitExtMul(baseline.I32x4, asm.RegV10, asm.RegV8, asm.RegV9, low, signed)
					m := run(a, func(m *interpreter.Machine) {
						m.SetVec(asm.RegV8, lhs)
						m.SetVec(asm.RegV9, rhs)
					})

					var want [16]byte
					for l := 0; l < 4; l++ {
						src := l
						if !low {
							src += 4
						}
						av := binary.LittleEndian.Uint16(lhs[src*2:])
						bv := binary.LittleEndian.Uint16(rhs[src*2:])
						pa, pb := new(big.Int), new(big.Int)
						if signed {
							pa.SetInt64(int64(int16(av)))
							pb.SetInt64(int64(int16(bv)))
						} else {
							pa.SetUint64(uint64(av))
							pb.SetUint64(uint64(bv))
						}
						prod := new(big.Int).Mod(pa.Mul(pa, pb), mod32)
						binary.LittleEndian.PutUint32(want[l*4:], uint32(prod.Uint64()))
					}
					require.Equal(t, want, m.Vec(asm.RegV10),
						"low=%v signed=%v lhs=%x rhs=%x", low, signed, lhs, rhs)
				}
			}
		}
	})
}

func TestEmitExtAddPairwise(t *testing.T) {
	a := newTestAssembler()
	a.EmitExtAddPairwise(baseline.I16x8, asm.RegV10, asm.RegV8, true)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes8(1, 2, 0xFF, 0xFF, 0x80, 0x80, 100, 100, 0, 1, 2, 3, 4, 5, 6, 7))
	})
	// [-1,-1] -> -2, [-128,-128] -> -256
	require.Equal(t, lanes16(3, 0xFFFE, 0xFF00, 200, 1, 5, 9, 13), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitExtAddPairwise(baseline.I32x4, asm.RegV10, asm.RegV8, false)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes16(0xFFFF, 0xFFFF, 1, 2, 1000, 2000, 0, 5))
	})
	require.Equal(t, lanes32(0x1FFFE, 3, 3000, 5), m.Vec(asm.RegV10))
}

func TestEmitDotProduct(t *testing.T) {
	a := newTestAssembler()
	a.EmitDotProduct(asm.RegV10, asm.RegV8, asm.RegV9)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes16(1, 2, 0xFFFF, 4, 0x8000, 0x8000, 7, 8))
		m.SetVec(asm.RegV9, lanes16(10, 20, 3, 4, 0x8000, 0x8000, 1, 1))
	})
	// 1*10+2*20 = 50; -1*3+4*4 = 13; (-32768)^2 * 2 = 0x80000000 (wraps
	// negative in i32); 7+8 = 15
	require.Equal(t, lanes32(50, 13, 0x80000000, 15), m.Vec(asm.RegV10))
}

func TestEmitRoundingAverageU(t *testing.T) {
	a := newTestAssembler()
	a.EmitRoundingAverageU(baseline.I8x16, asm.RegV10, asm.RegV8, asm.RegV9)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes8(255, 0, 1, 10))
		m.SetVec(asm.RegV9, lanes8(255, 0, 2, 13))
	})
	// floor((a+b+1)/2)
	require.Equal(t, lanes8(255, 0, 2, 12), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitRoundingAverageU(baseline.I16x8, asm.RegV10, asm.RegV8, asm.RegV9)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes16(0xFFFF, 4, 1000))
		m.SetVec(asm.RegV9, lanes16(0xFFFF, 7, 2001))
	})
	require.Equal(t, lanes16(0xFFFF, 6, 1501), m.Vec(asm.RegV10))
}

func TestEmitAnyTrue(t *testing.T) {
	a := newTestAssembler()
	a.EmitAnyTrue(asm.RegA0, asm.RegV8)
	m := run(a, func(m *interpreter.Machine) { m.SetVec(asm.RegV8, [16]byte{}) })
	require.Equal(t, uint64(0), m.Reg(asm.RegA0))

	a = newTestAssembler()
	a.EmitAnyTrue(asm.RegA0, asm.RegV8)
	m = run(a, func(m *interpreter.Machine) { m.SetVec(asm.RegV8, lanes8(0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1)) })
	require.Equal(t, uint64(1), m.Reg(asm.RegA0))
}

func TestEmitAllTrue(t *testing.T) {
	a := newTestAssembler()
	a.EmitAllTrue(baseline.I8x16, asm.RegA0, asm.RegV8)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes8(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16))
	})
	require.Equal(t, uint64(1), m.Reg(asm.RegA0))

	a = newTestAssembler()
	a.EmitAllTrue(baseline.I32x4, asm.RegA0, asm.RegV8)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes32(1, 2, 0, 4))
	})
	require.Equal(t, uint64(0), m.Reg(asm.RegA0))
}

func TestEmitBitmask(t *testing.T) {
	a := newTestAssembler()
	a.EmitBitmask(baseline.I32x4, asm.RegA0, asm.RegV8)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes32(uint32(0x80000000), 1, uint32(0xFFFFFFFF), 0))
	})
	require.Equal(t, uint64(0b0101), m.Reg(asm.RegA0))

	a = newTestAssembler()
	a.EmitBitmask(baseline.I16x8, asm.RegA0, asm.RegV8)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes16(0x8000, 0, 0, 0, 0, 0, 0, 0x8001))
	})
	require.Equal(t, uint64(0b10000001), m.Reg(asm.RegA0))
}

func TestEmitPopcnt(t *testing.T) {
	a := newTestAssembler()
	a.EmitPopcnt(asm.RegV10, asm.RegV8)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes8(0, 1, 3, 0xFF, 0x80, 0xAA, 0x0F, 7))
	})
	require.Equal(t, lanes8(0, 1, 2, 8, 1, 4, 4, 3), m.Vec(asm.RegV10))
}

func TestEmitSwizzle(t *testing.T) {
	data := lanes8(0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E, 0x1F)

	a := newTestAssembler()
	a.EmitSwizzle(asm.RegV10, asm.RegV8, asm.RegV9)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, data)
		m.SetVec(asm.RegV9, lanes8(15, 0, 1, 16, 255, 7, 7, 2))
	})
	// Out-of-range indices select zero; the implicit zero indices in the
	// upper lanes select data[0].
	require.Equal(t,
		lanes8(0x1F, 0x10, 0x11, 0, 0, 0x17, 0x17, 0x12, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10),
		m.Vec(asm.RegV10))

	// Destination aliases the data register.
	a = newTestAssembler()
	a.EmitSwizzle(asm.RegV8, asm.RegV8, asm.RegV9)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, data)
		m.SetVec(asm.RegV9, lanes8(1, 1, 1, 1)) // trailing indices are zero
	})
	require.Equal(t,
		lanes8(0x11, 0x11, 0x11, 0x11, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10),
		m.Vec(asm.RegV8))
}

func TestEmitNarrow(t *testing.T) {
	a := newTestAssembler()
	a.EmitNarrow(baseline.I8x16, asm.RegV10, asm.RegV8, asm.RegV9, true)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes16(300, 0xFED4, 5, 127, 128, 0xFF80, 0xFF7F, 0)) // [300,-300,5,127,128,-128,-129,0]
		m.SetVec(asm.RegV9, lanes16(1, 2, 3, 4, 5, 6, 7, 8))
	})
	require.Equal(t,
		lanes8(127, 0x80, 5, 127, 127, 0x80, 0x80, 0, 1, 2, 3, 4, 5, 6, 7, 8),
		m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitNarrow(baseline.I8x16, asm.RegV10, asm.RegV8, asm.RegV9, false)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes16(300, 0xFFFF, 255, 0, 1, 2, 3, 4)) // -1 clamps to 0
		m.SetVec(asm.RegV9, lanes16(256, 5, 6, 7, 8, 9, 10, 11))
	})
	require.Equal(t,
		lanes8(255, 0, 255, 0, 1, 2, 3, 4, 255, 5, 6, 7, 8, 9, 10, 11),
		m.Vec(asm.RegV10))
}

func TestEmitWiden(t *testing.T) {
	a := newTestAssembler()
	a.EmitWiden(baseline.I16x8, asm.RegV10, asm.RegV8, true, true)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes8(1, 0xFF, 0x80, 127, 0, 5, 6, 7, 9, 9, 9, 9, 9, 9, 9, 9))
	})
	require.Equal(t, lanes16(1, 0xFFFF, 0xFF80, 127, 0, 5, 6, 7), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitWiden(baseline.I16x8, asm.RegV10, asm.RegV8, false, false)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes8(9, 9, 9, 9, 9, 9, 9, 9, 1, 0xFF, 0x80, 127, 0, 5, 6, 7))
	})
	require.Equal(t, lanes16(1, 255, 128, 127, 0, 5, 6, 7), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitWiden(baseline.I64x2, asm.RegV10, asm.RegV8, true, true)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes32(uint32(0xFFFFFFFB), 7, 9, 9))
	})
	require.Equal(t, lanes64(0xFFFFFFFFFFFFFFFB, 7), m.Vec(asm.RegV10))
}

func TestEmitTruncSatF32x4(t *testing.T) {
	nan := float32(math.NaN())

	a := newTestAssembler()
	a.EmitTruncSatF32x4(asm.RegV10, asm.RegV8, true)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF32(1.5, nan, -2.7, 3.1e9))
	})
	require.Equal(t, lanes32(1, 0, uint32(0xFFFFFFFE), 0x7FFFFFFF), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitTruncSatF32x4(asm.RegV10, asm.RegV8, false)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF32(1.5, nan, -2.7, 3.1e9))
	})
	require.Equal(t, lanes32(1, 0, 0, 3100000000), m.Vec(asm.RegV10))
}

func TestEmitTruncSatF64x2Zero(t *testing.T) {
	a := newTestAssembler()
	a.EmitTruncSatF64x2Zero(asm.RegV10, asm.RegV8, true)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF64(2.9, math.NaN()))
	})
	require.Equal(t, lanes32(2, 0, 0, 0), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitTruncSatF64x2Zero(asm.RegV10, asm.RegV8, false)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF64(-1.5, 5.9))
	})
	require.Equal(t, lanes32(0, 5, 0, 0), m.Vec(asm.RegV10))
}

func TestEmitRelaxedTruncF32x4(t *testing.T) {
	a := newTestAssembler()
	a.EmitRelaxedTruncF32x4(asm.RegV10, asm.RegV8, true)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF32(1.9, -1.9, 100, -0.5))
	})
	require.Equal(t, lanes32(1, uint32(0xFFFFFFFF), 100, 0), m.Vec(asm.RegV10))
}

func TestEmitConvertI32x4(t *testing.T) {
	a := newTestAssembler()
	a.EmitConvertI32x4(asm.RegV10, asm.RegV8, true)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes32(0, 1, uint32(0xFFFFFFFF), 100))
	})
	require.Equal(t, lanesF32(0, 1, -1, 100), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitConvertI32x4(asm.RegV10, asm.RegV8, false)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes32(0, 1, uint32(0xFFFFFFFF), 100))
	})
	require.Equal(t, lanesF32(0, 1, 4294967295, 100), m.Vec(asm.RegV10))
}

func TestEmitConvertLowI32x4(t *testing.T) {
	a := newTestAssembler()
	a.EmitConvertLowI32x4(asm.RegV10, asm.RegV8, true)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes32(3, uint32(0xFFFFFFFB), 9, 9)) // [3, -5]
	})
	require.Equal(t, lanesF64(3, -5), m.Vec(asm.RegV10))

	// Destination aliases the source.
	a = newTestAssembler()
	a.EmitConvertLowI32x4(asm.RegV8, asm.RegV8, false)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes32(7, uint32(0xFFFFFFFF), 9, 9))
	})
	require.Equal(t, lanesF64(7, 4294967295), m.Vec(asm.RegV8))
}

func TestEmitPromoteLow(t *testing.T) {
	a := newTestAssembler()
	a.EmitPromoteLow(asm.RegV10, asm.RegV8)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF32(1.5, -2.25, 9, 9))
	})
	require.Equal(t, lanesF64(1.5, -2.25), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitPromoteLow(asm.RegV8, asm.RegV8)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF32(0.5, 4, 9, 9))
	})
	require.Equal(t, lanesF64(0.5, 4), m.Vec(asm.RegV8))
}

func TestEmitDemoteZero(t *testing.T) {
	a := newTestAssembler()
	a.EmitDemoteZero(asm.RegV10, asm.RegV8)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF64(1.5, -2.25))
	})
	require.Equal(t, lanesF32(1.5, -2.25, 0, 0), m.Vec(asm.RegV10))
}

func TestEmitFloatVecBinOp(t *testing.T) {
	a := newTestAssembler()
	a.EmitFloatVecBinOp(baseline.F32x4, baseline.VecFAdd, asm.RegV10, asm.RegV8, asm.RegV9)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF32(1.5, -2, 0.25, 100))
		m.SetVec(asm.RegV9, lanesF32(0.5, 2, 0.25, -50))
	})
	require.Equal(t, lanesF32(2, 0, 0.5, 50), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitFloatVecBinOp(baseline.F64x2, baseline.VecFDiv, asm.RegV10, asm.RegV8, asm.RegV9)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF64(1, -3))
		m.SetVec(asm.RegV9, lanesF64(8, 2))
	})
	require.Equal(t, lanesF64(0.125, -1.5), m.Vec(asm.RegV10))
}

func TestEmitFloatVecUnOp(t *testing.T) {
	a := newTestAssembler()
	a.EmitFloatVecUnOp(baseline.F32x4, baseline.FloatAbs, asm.RegV10, asm.RegV8)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF32(-1.5, 2, float32(math.Inf(-1)), 0))
	})
	require.Equal(t, lanesF32(1.5, 2, float32(math.Inf(1)), 0), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitFloatVecUnOp(baseline.F64x2, baseline.FloatSqrt, asm.RegV10, asm.RegV8)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF64(9, 2.25))
	})
	require.Equal(t, lanesF64(3, 1.5), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitFloatVecUnOp(baseline.F32x4, baseline.FloatNeg, asm.RegV10, asm.RegV8)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF32(0, -1, 2, -3))
	})
	require.Equal(t, lanesF32(float32(math.Copysign(0, -1)), 1, -2, 3), m.Vec(asm.RegV10))
}

func TestEmitVectorRound(t *testing.T) {
	t.Run("nearest", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitVectorRound(baseline.RoundNearest, baseline.F32x4, asm.RegV10, asm.RegV8)
		m := run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lanesF32(2.5, 3.5, -1.5, 1e30))
		})
		// ties to even; lanes past the integral threshold pass through
		require.Equal(t, lanesF32(2, 4, -2, 1e30), m.Vec(asm.RegV10))
	})

	t.Run("trunc keeps negative zero", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitVectorRound(baseline.RoundTrunc, baseline.F32x4, asm.RegV10, asm.RegV8)
		m := run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lanesF32(-0.7, 0.7, -2.9, 2.9))
		})
		require.Equal(t,
			lanes32(0x80000000, 0, uint32(math.Float32bits(-2)), uint32(math.Float32bits(2))),
			m.Vec(asm.RegV10))
	})

	t.Run("nan passes through", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitVectorRound(baseline.RoundCeil, baseline.F32x4, asm.RegV10, asm.RegV8)
		m := run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lanes32(0x7FC00001, uint32(math.Float32bits(1.2)), 0, 0))
		})
		require.Equal(t, lanes32(0x7FC00001, uint32(math.Float32bits(2)), 0, 0), m.Vec(asm.RegV10))
	})

	t.Run("f64x2 floor", func(t *testing.T) {
		a := newTestAssembler()
		a.EmitVectorRound(baseline.RoundFloor, baseline.F64x2, asm.RegV10, asm.RegV8)
		m := run(a, func(m *interpreter.Machine) {
			m.SetVec(asm.RegV8, lanesF64(-2.5, 2.5))
		})
		require.Equal(t, lanesF64(-3, 2), m.Vec(asm.RegV10))
	})
}

func TestEmitFloatVecMinMax(t *testing.T) {
	nan32lane := uint32(canonicalNaN32)

	a := newTestAssembler()
	a.EmitFloatVecMinMax(baseline.F32x4, asm.RegV10, asm.RegV8, asm.RegV9, true)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes32(uint32(math.Float32bits(1)), 0x7FC00001, uint32(math.Float32bits(3)), 0))
		m.SetVec(asm.RegV9, lanes32(uint32(math.Float32bits(2)), uint32(math.Float32bits(2)), 0xFFC00000, 0x80000000))
	})
	// NaN in either operand yields the canonical NaN; min(+0,-0) is -0
	require.Equal(t,
		lanes32(uint32(math.Float32bits(1)), nan32lane, nan32lane, 0x80000000),
		m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitFloatVecMinMax(baseline.F32x4, asm.RegV10, asm.RegV8, asm.RegV9, false)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes32(uint32(math.Float32bits(1)), 0x7FC00001, 0, 0))
		m.SetVec(asm.RegV9, lanes32(uint32(math.Float32bits(2)), uint32(math.Float32bits(2)), 0x80000000, 0)) // max(+0,-0) is +0
	})
	require.Equal(t, lanes32(uint32(math.Float32bits(2)), nan32lane, 0, 0), m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitFloatVecMinMax(baseline.F64x2, asm.RegV10, asm.RegV8, asm.RegV9, true)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF64(5, math.NaN()))
		m.SetVec(asm.RegV9, lanesF64(-1, 2))
	})
	require.Equal(t, lanes64(math.Float64bits(-1), canonicalNaN64), m.Vec(asm.RegV10))
}

func TestEmitPMinMax(t *testing.T) {
	nanBits := uint32(math.Float32bits(float32(math.NaN())))

	a := newTestAssembler()
	a.EmitPMinMax(baseline.F32x4, asm.RegV10, asm.RegV8, asm.RegV9, true)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanes32(uint32(math.Float32bits(3)), nanBits, uint32(math.Float32bits(1)), 0))
		m.SetVec(asm.RegV9, lanes32(uint32(math.Float32bits(1)), uint32(math.Float32bits(1)), nanBits, 0x80000000))
	})
	// pmin is rhs < lhs ? rhs : lhs: NaN compares unordered, so the lhs
	// survives; pmin(+0,-0) keeps +0.
	require.Equal(t,
		lanes32(uint32(math.Float32bits(1)), nanBits, uint32(math.Float32bits(1)), 0),
		m.Vec(asm.RegV10))

	a = newTestAssembler()
	a.EmitPMinMax(baseline.F64x2, asm.RegV10, asm.RegV8, asm.RegV9, false)
	m = run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF64(1, -5))
		m.SetVec(asm.RegV9, lanesF64(2, -7))
	})
	require.Equal(t, lanesF64(2, -5), m.Vec(asm.RegV10))
}

func TestEmitRelaxedMinMax(t *testing.T) {
	a := newTestAssembler()
	a.EmitRelaxedMinMax(baseline.F32x4, asm.RegV10, asm.RegV8, asm.RegV9, true)
	m := run(a, func(m *interpreter.Machine) {
		m.SetVec(asm.RegV8, lanesF32(1, 4, -1, 0))
		m.SetVec(asm.RegV9, lanesF32(2, 3, -2, 5))
	})
	require.Equal(t, lanesF32(1, 3, -2, 0), m.Vec(asm.RegV10))
}

func TestEmitS128SetIfNan(t *testing.T) {
	a := newTestAssembler()
	a.EmitS128SetIfNan(baseline.F32x4, asm.RegA1, asm.RegV8)
	m := run(a, func(m *interpreter.Machine) {
		m.SetReg(asm.RegA1, 64)
		m.SetVec(asm.RegV8, lanesF32(1, 2, float32(math.NaN()), 4))
	})
	require.EqualValues(t, 1, m.Mem[64])

	a = newTestAssembler()
	a.EmitS128SetIfNan(baseline.F64x2, asm.RegA1, asm.RegV8)
	m = run(a, func(m *interpreter.Machine) {
		m.SetReg(asm.RegA1, 64)
		m.SetVec(asm.RegV8, lanesF64(1, -2))
	})
	require.EqualValues(t, 0, m.Mem[64])
}

func TestRelaxedSIMDBailouts(t *testing.T) {
	a := newTestAssembler()
	a.EmitRelaxedDotProduct(asm.RegV10, asm.RegV8, asm.RegV9)
	err := a.Bailout()
	require.Error(t, err)
	var b *baseline.BailoutError
	require.True(t, errors.As(err, &b))
	require.Equal(t, baseline.BailoutRelaxedSIMD, b.Kind)

	// The first bailout of a function wins.
	a.EmitFusedMulAdd(baseline.F32x4, asm.RegV10, asm.RegV8, asm.RegV9, asm.RegV11)
	require.Same(t, err, a.Bailout())

	a = newTestAssembler()
	a.EmitFusedMulSub(baseline.F64x2, asm.RegV10, asm.RegV8, asm.RegV9, asm.RegV11)
	require.True(t, errors.As(a.Bailout(), &b))
	require.Contains(t, b.Detail, "qfms")
}
