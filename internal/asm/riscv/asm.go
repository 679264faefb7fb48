// Package riscv provides the instruction-emission primitives the baseline
// code generator lowers onto. Instructions are kept in symbolic form with
// fixed four-byte program-counter spacing; binary encoding is the concern of
// a final assembly step and is out of scope here.
package riscv

import (
	"fmt"
	"strings"
)

type (
	// Assembler is an append-only stream of instructions plus the relocation
	// records produced for stub calls. One Assembler belongs to exactly one
	// function compilation and must not be shared across goroutines.
	Assembler struct {
		instrs    []Instruction
		relocs    []Reloc
		nextLabel uint32
	}

	// Label is a position in the emitted code, allocated first and bound to
	// an instruction index later.
	Label struct {
		id    uint32
		pos   int32
		bound bool
	}

	// PatchPoint is the handle of a reserved instruction window emitted
	// before its final content is known. It is filled in exactly once via
	// Patcher.
	PatchPoint struct {
		index, size int
	}

	// Patcher overwrites a reserved instruction window sequentially.
	Patcher struct {
		a    *Assembler
		pp   PatchPoint
		next int
	}

	// RelocKind distinguishes what a relocation entry refers to.
	RelocKind uint8

	// Reloc records a call site that must be fixed up to the address of a
	// runtime stub or another function when the code object is installed.
	Reloc struct {
		PC   int
		Kind RelocKind
		Stub StubID // valid when Kind == RelocStub
		Func int    // valid when Kind == RelocFunction
	}
)

const (
	RelocStub RelocKind = iota
	RelocFunction
)

// String implements fmt.Stringer.
func (l *Label) String() string {
	return fmt.Sprintf("L%d", l.id)
}

// Pos returns the instruction index the label is bound to.
func (l *Label) Pos() int {
	if !l.bound {
		panic("label " + l.String() + " is unbound")
	}
	return int(l.pos)
}

// AllocateLabel allocates an unused label.
func (a *Assembler) AllocateLabel() *Label {
	a.nextLabel++
	return &Label{id: a.nextLabel}
}

// Bind binds the label to the position of the next emitted instruction.
func (a *Assembler) Bind(l *Label) {
	if l.bound {
		panic("label " + l.String() + " bound twice")
	}
	l.pos = int32(len(a.instrs))
	l.bound = true
}

// PCOffset returns the byte offset of the next instruction to be emitted.
func (a *Assembler) PCOffset() int { return len(a.instrs) * 4 }

// Instructions returns the emitted stream.
func (a *Assembler) Instructions() []Instruction { return a.instrs }

// Relocs returns the recorded relocation entries.
func (a *Assembler) Relocs() []Reloc { return a.relocs }

// Reset prepares the Assembler for the next function.
func (a *Assembler) Reset() {
	a.instrs = a.instrs[:0]
	a.relocs = a.relocs[:0]
	a.nextLabel = 0
}

// Text renders the stream as an assembly listing.
func (a *Assembler) Text() string {
	var sb strings.Builder
	for i := range a.instrs {
		fmt.Fprintf(&sb, "%#06x  %s\n", i*4, &a.instrs[i])
	}
	return sb.String()
}

func (a *Assembler) emit(i Instruction) {
	a.instrs = append(a.instrs, i)
}

// ReservePatch reserves a window of n placeholder instructions and returns
// its handle. The window contents count as nops until patched.
func (a *Assembler) ReservePatch(n int) PatchPoint {
	pp := PatchPoint{index: len(a.instrs), size: n}
	for i := 0; i < n; i++ {
		a.emit(Instruction{Op: NOP})
	}
	return pp
}

// PatchAt returns a Patcher overwriting the reserved window.
func (a *Assembler) PatchAt(pp PatchPoint) *Patcher {
	return &Patcher{a: a, pp: pp}
}

func (p *Patcher) emit(i Instruction) {
	if p.next == p.pp.size {
		panic("patch window overflow")
	}
	p.a.instrs[p.pp.index+p.next] = i
	p.next++
}

// Addi overwrites the next slot of the window with an addi instruction.
func (p *Patcher) Addi(rd, rs1 Reg, imm int64) {
	p.emit(Instruction{Op: ADDI, Rd: rd, Rs1: rs1, Imm: imm})
}

// Jump overwrites the next slot of the window with an unconditional jump.
func (p *Patcher) Jump(l *Label) {
	p.emit(Instruction{Op: J, Label: l})
}

// Generic emission. The flat Reg space lets the scalar and vector subsets
// share the same operand shapes; lowering tables pick the Op.

// RRR emits a three-register instruction.
func (a *Assembler) RRR(op Op, rd, rs1, rs2 Reg) {
	a.emit(Instruction{Op: op, Rd: rd, Rs1: rs1, Rs2: rs2})
}

// RRRMasked emits a three-register vector instruction masked by v0.
func (a *Assembler) RRRMasked(op Op, rd, rs1, rs2 Reg) {
	a.emit(Instruction{Op: op, Rd: rd, Rs1: rs1, Rs2: rs2, Masked: true})
}

// RR emits a two-register instruction.
func (a *Assembler) RR(op Op, rd, rs1 Reg) {
	a.emit(Instruction{Op: op, Rd: rd, Rs1: rs1})
}

// RRMasked emits a two-register vector instruction masked by v0.
func (a *Assembler) RRMasked(op Op, rd, rs1 Reg) {
	a.emit(Instruction{Op: op, Rd: rd, Rs1: rs1, Masked: true})
}

// RRI emits a register-register-immediate instruction.
func (a *Assembler) RRI(op Op, rd, rs1 Reg, imm int64) {
	a.emit(Instruction{Op: op, Rd: rd, Rs1: rs1, Imm: imm})
}

// RRIMasked emits a register-register-immediate vector instruction masked by v0.
func (a *Assembler) RRIMasked(op Op, rd, rs1 Reg, imm int64) {
	a.emit(Instruction{Op: op, Rd: rd, Rs1: rs1, Imm: imm, Masked: true})
}

// RI emits a register-immediate instruction.
func (a *Assembler) RI(op Op, rd Reg, imm int64) {
	a.emit(Instruction{Op: op, Rd: rd, Imm: imm})
}

// Named helpers for the frequent scalar instructions.

func (a *Assembler) Nop()                       { a.emit(Instruction{Op: NOP}) }
func (a *Assembler) Ebreak()                    { a.emit(Instruction{Op: EBREAK}) }
func (a *Assembler) Ret()                       { a.emit(Instruction{Op: RET}) }
func (a *Assembler) Li(rd Reg, imm int64)       { a.RI(LI, rd, imm) }
func (a *Assembler) Mv(rd, rs Reg)              { a.RR(MV, rd, rs) }
func (a *Assembler) Addi(rd, rs Reg, imm int64) { a.RRI(ADDI, rd, rs, imm) }
func (a *Assembler) Add(rd, rs1, rs2 Reg)       { a.RRR(ADD, rd, rs1, rs2) }
func (a *Assembler) Sub(rd, rs1, rs2 Reg)       { a.RRR(SUB, rd, rs1, rs2) }
func (a *Assembler) Andi(rd, rs Reg, imm int64) { a.RRI(ANDI, rd, rs, imm) }
func (a *Assembler) Not(rd, rs Reg)             { a.RR(NOT, rd, rs) }

// Ld emits a 64-bit load of offset(rs1) into rd.
func (a *Assembler) Ld(rd, rs1 Reg, offset int64) { a.RRI(LD, rd, rs1, offset) }

// Sd emits a 64-bit store of rd to offset(rs1).
func (a *Assembler) Sd(rd, rs1 Reg, offset int64) { a.RRI(SD, rd, rs1, offset) }

// Lw emits a 32-bit sign-extending load.
func (a *Assembler) Lw(rd, rs1 Reg, offset int64) { a.RRI(LW, rd, rs1, offset) }

// Lb emits an 8-bit sign-extending load.
func (a *Assembler) Lb(rd, rs1 Reg, offset int64) { a.RRI(LB, rd, rs1, offset) }

// Lbu emits an 8-bit zero-extending load.
func (a *Assembler) Lbu(rd, rs1 Reg, offset int64) { a.RRI(LBU, rd, rs1, offset) }

// Lwu emits a 32-bit zero-extending load.
func (a *Assembler) Lwu(rd, rs1 Reg, offset int64) { a.RRI(LWU, rd, rs1, offset) }

// Sw emits a 32-bit store.
func (a *Assembler) Sw(rd, rs1 Reg, offset int64) { a.RRI(SW, rd, rs1, offset) }

// Fld emits a double-precision load.
func (a *Assembler) Fld(rd, rs1 Reg, offset int64) { a.RRI(FLD, rd, rs1, offset) }

// Fsd emits a double-precision store.
func (a *Assembler) Fsd(rd, rs1 Reg, offset int64) { a.RRI(FSD, rd, rs1, offset) }

// Branch emits a conditional branch comparing rs1 against rs2.
func (a *Assembler) Branch(c BranchCond, rs1, rs2 Reg, l *Label) {
	a.emit(Instruction{Op: BCOND, Cond: c, Rs1: rs1, Rs2: rs2, Label: l})
}

// BranchZero emits a conditional branch comparing rs1 against zero.
func (a *Assembler) BranchZero(c BranchCond, rs1 Reg, l *Label) {
	a.Branch(c, rs1, RegZERO, l)
}

// Jump emits an unconditional jump.
func (a *Assembler) Jump(l *Label) {
	a.emit(Instruction{Op: J, Label: l})
}

// JumpReg emits an indirect jump through a register.
func (a *Assembler) JumpReg(rs1 Reg) {
	a.emit(Instruction{Op: JR, Rs1: rs1})
}

// CallReg emits an indirect call through a register.
func (a *Assembler) CallReg(rs1 Reg) {
	a.emit(Instruction{Op: CALLREG, Rs1: rs1})
}

// CallStub emits a call to a runtime stub, recording a relocation at the
// call site.
func (a *Assembler) CallStub(s StubID) {
	a.relocs = append(a.relocs, Reloc{PC: a.PCOffset(), Kind: RelocStub, Stub: s})
	a.emit(Instruction{Op: CALLSTUB, Stub: s})
}

// TailStub emits a tail jump to a runtime stub, recording a relocation.
func (a *Assembler) TailStub(s StubID) {
	a.relocs = append(a.relocs, Reloc{PC: a.PCOffset(), Kind: RelocStub, Stub: s})
	a.emit(Instruction{Op: TAILSTUB, Stub: s})
}

// CallFunction emits a direct call to another function's code object,
// recording a relocation by function index.
func (a *Assembler) CallFunction(index int) {
	a.relocs = append(a.relocs, Reloc{PC: a.PCOffset(), Kind: RelocFunction, Func: index})
	a.emit(Instruction{Op: CALLFN, Imm: int64(index)})
}

// TailFunction emits a tail jump to another function's code object,
// recording a relocation by function index.
func (a *Assembler) TailFunction(index int) {
	a.relocs = append(a.relocs, Reloc{PC: a.PCOffset(), Kind: RelocFunction, Func: index})
	a.emit(Instruction{Op: TAILFN, Imm: int64(index)})
}

// Fsrmi sets the dynamic floating-point rounding mode.
func (a *Assembler) Fsrmi(rm RoundingMode) {
	a.emit(Instruction{Op: FSRMI, RM: rm})
}

// Round emits a Zfa round-to-integer instruction with a static rounding mode.
func (a *Assembler) Round(op Op, rd, rs1 Reg, rm RoundingMode) {
	a.emit(Instruction{Op: op, Rd: rd, Rs1: rs1, RM: rm})
}

// VSetVLI configures the vector unit for the given element width and group
// multiplier. Vector-emitting code must configure before every use; nothing
// may assume a prior setting survives across opcode boundaries.
func (a *Assembler) VSetVLI(sew SEW, lmul LMUL) {
	a.emit(Instruction{Op: VSETVLI, Sew: sew, Lmul: lmul})
}

// VMergeVVM emits vd[i] = v0[i] ? vs1[i] : vs2[i].
func (a *Assembler) VMergeVVM(vd, vs2, vs1 Reg) {
	a.emit(Instruction{Op: VMERGEVVM, Rd: vd, Rs1: vs2, Rs2: vs1})
}

// VMergeVXM emits vd[i] = v0[i] ? rs1 : vs2[i].
func (a *Assembler) VMergeVXM(vd, vs2, rs1 Reg) {
	a.emit(Instruction{Op: VMERGEVXM, Rd: vd, Rs1: vs2, Rs2: rs1})
}

// VMergeVIM emits vd[i] = v0[i] ? imm : vs2[i].
func (a *Assembler) VMergeVIM(vd, vs2 Reg, imm int64) {
	a.emit(Instruction{Op: VMERGEVIM, Rd: vd, Rs1: vs2, Imm: imm})
}
