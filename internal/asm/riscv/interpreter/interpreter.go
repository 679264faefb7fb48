// Package interpreter executes symbolic instruction streams against a small
// rv64+V machine model at VLEN=128. It exists as a test oracle for the code
// generator; anything it does not model is a panic, not an error value.
package interpreter

import (
	"encoding/binary"
	"fmt"
	"math"

	asm "github.com/wasmkit/rivet/internal/asm/riscv"
)

// VLEN is the vector register width in bits.
const VLEN = 128

// Machine is one interpreter instance: scalar and vector register files, a
// flat byte-addressed memory, and the current vector and rounding
// configuration.
type Machine struct {
	X [32]uint64
	F [32]uint64   // raw bit patterns; f32 values live in the low 32 bits
	V [32][16]byte // little-endian lanes

	Mem []byte

	sew  asm.SEW
	lmul asm.LMUL
	frm  asm.RoundingMode

	// StubCalls and FuncCalls record call instructions in execution order.
	StubCalls []asm.StubID
	FuncCalls []int
	// Stubs, when set, lets a test intercept a stub call. An unhandled
	// StubStackOverflow halts the machine; the real stub does not return.
	Stubs map[asm.StubID]func(*Machine)

	halted bool
}

// New returns a Machine with memSize bytes of memory and sp parked at the
// top of it.
func New(memSize int) *Machine {
	m := &Machine{Mem: make([]byte, memSize)}
	m.X[2] = uint64(memSize)
	return m
}

// SP returns the current stack pointer.
func (m *Machine) SP() uint64 { return m.X[2] }

// SetReg writes a register of any file.
func (m *Machine) SetReg(r asm.Reg, v uint64) {
	switch {
	case r.IsGP():
		if r != asm.RegZERO {
			m.X[r.GPIndex()] = v
		}
	case r.IsFP():
		m.F[r.FPIndex()] = v
	default:
		panic("SetReg on vector register")
	}
}

// Reg reads a register of the gp or fp file.
func (m *Machine) Reg(r asm.Reg) uint64 {
	switch {
	case r.IsGP():
		return m.X[r.GPIndex()]
	case r.IsFP():
		return m.F[r.FPIndex()]
	default:
		panic("Reg on vector register")
	}
}

// SetVec writes a full vector register.
func (m *Machine) SetVec(r asm.Reg, b [16]byte) { m.V[r.VecIndex()] = b }

// Vec reads a full vector register.
func (m *Machine) Vec(r asm.Reg) [16]byte { return m.V[r.VecIndex()] }

func (m *Machine) x(r asm.Reg) uint64 { return m.X[r.GPIndex()] }

func (m *Machine) setX(r asm.Reg, v uint64) {
	if r == asm.RegZERO {
		return
	}
	m.X[r.GPIndex()] = v
}

func (m *Machine) f(r asm.Reg) uint64          { return m.F[r.FPIndex()] }
func (m *Machine) setF(r asm.Reg, v uint64)    { m.F[r.FPIndex()] = v }
func (m *Machine) f32(r asm.Reg) float32       { return math.Float32frombits(uint32(m.f(r))) }
func (m *Machine) f64(r asm.Reg) float64       { return math.Float64frombits(m.f(r)) }
func (m *Machine) setF32(r asm.Reg, v float32) { m.setF(r, uint64(math.Float32bits(v))) }
func (m *Machine) setF64(r asm.Reg, v float64) { m.setF(r, math.Float64bits(v)) }

const maxSteps = 1 << 22

// Run executes the stream from its first instruction until control falls off
// either end, a non-returning stub is reached, or ret/jr leaves through a
// zero link register.
func (m *Machine) Run(instrs []asm.Instruction) {
	m.halted = false
	pc := 0
	for steps := 0; !m.halted && pc >= 0 && pc < len(instrs)*4; steps++ {
		if steps == maxSteps {
			panic("interpreter ran away")
		}
		if pc%4 != 0 {
			panic(fmt.Sprintf("misaligned pc %#x", pc))
		}
		i := &instrs[pc/4]
		next := pc + 4

		switch i.Op {
		case asm.NOP:
		case asm.EBREAK:
			panic(fmt.Sprintf("ebreak at pc %#x", pc))
		case asm.RET:
			next = m.leave(int(m.X[1]), len(instrs))
		case asm.JR:
			next = m.leave(int(m.x(i.Rs1)), len(instrs))
		case asm.J:
			next = i.Label.Pos() * 4
		case asm.BCOND:
			if evalBranch(i.Cond, m.x(i.Rs1), m.x(i.Rs2)) {
				next = i.Label.Pos() * 4
			}
		case asm.CALLSTUB:
			m.StubCalls = append(m.StubCalls, i.Stub)
			if h := m.Stubs[i.Stub]; h != nil {
				h(m)
			} else if i.Stub == asm.StubStackOverflow {
				m.halted = true
			}
		case asm.TAILSTUB:
			m.StubCalls = append(m.StubCalls, i.Stub)
			m.halted = true
		case asm.CALLFN:
			m.FuncCalls = append(m.FuncCalls, int(i.Imm))
		case asm.TAILFN:
			m.FuncCalls = append(m.FuncCalls, int(i.Imm))
			m.halted = true
		case asm.CALLREG:
			// Indirect call target is outside the stream; model it as a
			// no-op call.
		default:
			m.exec(i)
		}
		pc = next
	}
}

func (m *Machine) leave(target, n int) int {
	if target == 0 || target >= n*4 {
		m.halted = true
		return 0
	}
	return target
}

func evalBranch(c asm.BranchCond, a, b uint64) bool {
	switch c {
	case asm.BranchEQ:
		return a == b
	case asm.BranchNE:
		return a != b
	case asm.BranchLT:
		return int64(a) < int64(b)
	case asm.BranchGE:
		return int64(a) >= int64(b)
	case asm.BranchLTU:
		return a < b
	case asm.BranchGEU:
		return a >= b
	}
	panic("invalid branch condition")
}

func (m *Machine) exec(i *asm.Instruction) {
	switch i.Op {
	case asm.LI:
		m.setX(i.Rd, uint64(i.Imm))
	case asm.MV:
		m.setX(i.Rd, m.x(i.Rs1))
	case asm.ADD:
		m.setX(i.Rd, m.x(i.Rs1)+m.x(i.Rs2))
	case asm.SUB:
		m.setX(i.Rd, m.x(i.Rs1)-m.x(i.Rs2))
	case asm.AND:
		m.setX(i.Rd, m.x(i.Rs1)&m.x(i.Rs2))
	case asm.OR:
		m.setX(i.Rd, m.x(i.Rs1)|m.x(i.Rs2))
	case asm.XOR:
		m.setX(i.Rd, m.x(i.Rs1)^m.x(i.Rs2))
	case asm.SLT:
		m.setX(i.Rd, b2u(int64(m.x(i.Rs1)) < int64(m.x(i.Rs2))))
	case asm.SLTU:
		m.setX(i.Rd, b2u(m.x(i.Rs1) < m.x(i.Rs2)))
	case asm.SEQZ:
		m.setX(i.Rd, b2u(m.x(i.Rs1) == 0))
	case asm.SNEZ:
		m.setX(i.Rd, b2u(m.x(i.Rs1) != 0))
	case asm.NOT:
		m.setX(i.Rd, ^m.x(i.Rs1))
	case asm.ADDI:
		m.setX(i.Rd, m.x(i.Rs1)+uint64(i.Imm))
	case asm.ANDI:
		m.setX(i.Rd, m.x(i.Rs1)&uint64(i.Imm))
	case asm.ORI:
		m.setX(i.Rd, m.x(i.Rs1)|uint64(i.Imm))
	case asm.XORI:
		m.setX(i.Rd, m.x(i.Rs1)^uint64(i.Imm))
	case asm.SLLI:
		m.setX(i.Rd, m.x(i.Rs1)<<(i.Imm&63))
	case asm.SRLI:
		m.setX(i.Rd, m.x(i.Rs1)>>(i.Imm&63))
	case asm.SRAI:
		m.setX(i.Rd, uint64(int64(m.x(i.Rs1))>>(i.Imm&63)))

	case asm.LB:
		m.setX(i.Rd, uint64(int64(int8(m.load(i, 1)))))
	case asm.LBU:
		m.setX(i.Rd, m.load(i, 1))
	case asm.LW:
		m.setX(i.Rd, uint64(int64(int32(m.load(i, 4)))))
	case asm.LWU:
		m.setX(i.Rd, m.load(i, 4))
	case asm.LD:
		m.setX(i.Rd, m.load(i, 8))
	case asm.SW:
		m.store(i, 4, m.x(i.Rd))
	case asm.SD:
		m.store(i, 8, m.x(i.Rd))
	case asm.FLW:
		m.setF(i.Rd, m.load(i, 4))
	case asm.FSW:
		m.store(i, 4, m.f(i.Rd))
	case asm.FLD:
		m.setF(i.Rd, m.load(i, 8))
	case asm.FSD:
		m.store(i, 8, m.f(i.Rd))

	case asm.FSRMI:
		m.frm = i.RM

	default:
		if !m.execFloat(i) && !m.execVector(i) {
			panic("unimplemented op: " + i.String())
		}
	}
}

func (m *Machine) addr(i *asm.Instruction, size int) int {
	a := int(m.x(i.Rs1)) + int(i.Imm)
	if a < 0 || a+size > len(m.Mem) {
		panic(fmt.Sprintf("memory access out of range: %d (%s)", a, i))
	}
	return a
}

func (m *Machine) load(i *asm.Instruction, size int) uint64 {
	a := m.addr(i, size)
	switch size {
	case 1:
		return uint64(m.Mem[a])
	case 4:
		return uint64(binary.LittleEndian.Uint32(m.Mem[a:]))
	case 8:
		return binary.LittleEndian.Uint64(m.Mem[a:])
	}
	panic(size)
}

func (m *Machine) store(i *asm.Instruction, size int, v uint64) {
	a := m.addr(i, size)
	switch size {
	case 4:
		binary.LittleEndian.PutUint32(m.Mem[a:], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(m.Mem[a:], v)
	default:
		panic(size)
	}
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
