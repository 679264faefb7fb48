package riscv

import (
	"fmt"
	"strconv"
)

type (
	// Instruction represents one riscv64 instruction in the output stream.
	// Fields are interpreted depending on Op; see the format table below.
	// Every instruction occupies four bytes of program counter, including
	// the vector instructions.
	Instruction struct {
		Op            Op
		Rd, Rs1, Rs2  Reg
		Imm           int64
		Cond          BranchCond
		Sew           SEW
		Lmul          LMUL
		RM            RoundingMode
		Masked        bool
		Label         *Label
		Stub          StubID
	}

	// Op is the mnemonic of an instruction.
	Op uint16

	// BranchCond is a condition of a conditional branch instruction.
	BranchCond uint8

	// SEW is the selected element width of the vector unit.
	SEW uint8

	// LMUL is the register group multiplier of the vector unit.
	LMUL uint8

	// RoundingMode is a floating-point rounding mode.
	RoundingMode uint8

	// StubID identifies a well-known runtime stub called via relocation.
	StubID uint8
)

const (
	BranchEQ BranchCond = iota
	BranchNE
	BranchLT
	BranchGE
	BranchLTU
	BranchGEU
)

var branchCondNames = [...]string{
	BranchEQ:  "beq",
	BranchNE:  "bne",
	BranchLT:  "blt",
	BranchGE:  "bge",
	BranchLTU: "bltu",
	BranchGEU: "bgeu",
}

// Invert returns the negated branch condition.
func (c BranchCond) Invert() BranchCond {
	switch c {
	case BranchEQ:
		return BranchNE
	case BranchNE:
		return BranchEQ
	case BranchLT:
		return BranchGE
	case BranchGE:
		return BranchLT
	case BranchLTU:
		return BranchGEU
	case BranchGEU:
		return BranchLTU
	default:
		panic(c)
	}
}

const (
	E8 SEW = iota
	E16
	E32
	E64
)

// Bits returns the element width in bits.
func (s SEW) Bits() int { return 8 << s }

// String implements fmt.Stringer.
func (s SEW) String() string { return "e" + strconv.Itoa(s.Bits()) }

const (
	MF2 LMUL = iota
	M1
	M2
)

// String implements fmt.Stringer.
func (l LMUL) String() string {
	switch l {
	case MF2:
		return "mf2"
	case M1:
		return "m1"
	case M2:
		return "m2"
	default:
		panic(l)
	}
}

const (
	RNE RoundingMode = iota // round to nearest, ties to even
	RTZ                     // round towards zero
	RDN                     // round down
	RUP                     // round up
	RMM                     // round to nearest, ties to max magnitude
)

var roundingModeNames = [...]string{RNE: "rne", RTZ: "rtz", RDN: "rdn", RUP: "rup", RMM: "rmm"}

// String implements fmt.Stringer.
func (r RoundingMode) String() string { return roundingModeNames[r] }

const (
	// StubStackOverflow is the non-returning stack-overflow trap.
	StubStackOverflow StubID = iota
	// StubDebugBreak traps into the debugger under debug code.
	StubDebugBreak
)

var stubNames = [...]string{
	StubStackOverflow: "stack_overflow",
	StubDebugBreak:    "debug_break",
}

// String implements fmt.Stringer.
func (s StubID) String() string { return stubNames[s] }

// Instruction mnemonics. The vector subset follows the V extension at
// VLEN=128; FROUNDS/FROUNDD are the Zfa round-to-integer instructions.
const (
	NOP Op = iota
	EBREAK
	RET

	LI
	MV
	ADD
	SUB
	AND
	OR
	XOR
	SLT
	SLTU
	SEQZ
	SNEZ
	NOT
	ADDI
	ANDI
	ORI
	XORI
	SLLI
	SRLI
	SRAI

	LB
	LBU
	LW
	LWU
	LD
	SW
	SD
	FLW
	FSW
	FLD
	FSD

	BCOND
	J
	JR
	CALLSTUB
	CALLREG
	TAILSTUB
	CALLFN
	TAILFN

	FSRMI

	FADDS
	FSUBS
	FMULS
	FDIVS
	FSQRTS
	FABSS
	FNEGS
	FSGNJS
	FMINS
	FMAXS
	FEQS
	FLTS
	FLES
	FROUNDS
	FMVXW
	FMVWX

	FADDD
	FSUBD
	FMULD
	FDIVD
	FSQRTD
	FABSD
	FNEGD
	FSGNJD
	FMIND
	FMAXD
	FEQD
	FLTD
	FLED
	FROUNDD
	FMVXD
	FMVDX

	VSETVLI

	VMVVV
	VMVVX
	VMVVI
	VMVSX
	VMVXS
	VFMVFS
	VFMVSF

	VMERGEVVM
	VMERGEVXM
	VMERGEVIM

	VADDVV
	VADDVI
	VSUBVV
	VMULVV
	VDIVUVX
	VMINVV
	VMINUVV
	VMAXVV
	VMAXUVV
	VMAXVX
	VANDVV
	VORVV
	VXORVV
	VNOTV
	VNEGV

	VSLLVX
	VSLLVI
	VSRLVX
	VSRLVI
	VSRAVX
	VSRAVI

	VMSEQVV
	VMSNEVV
	VMSNEVI
	VMSLTVV
	VMSLTUVV
	VMSLEVV
	VMSLEUVV

	VMFEQVV
	VMFNEVV
	VMFLTVV
	VMFLEVV

	VFADDVV
	VFSUBVV
	VFMULVV
	VFDIVVV
	VFSQRTV
	VFABSV
	VFNEGV
	VFMINVV
	VFMAXVV
	VFSGNJVV

	VFCVTXFV
	VFCVTXUFV
	VFCVTFXV
	VFCVTFXUV
	VFNCVTXFW
	VFNCVTXUFW
	VFNCVTFFW
	VFWCVTFXV
	VFWCVTFXUV
	VFWCVTFFV

	VSEXTVF2
	VZEXTVF2
	VNCLIPVI
	VNCLIPUVI

	VSADDVV
	VSADDUVV
	VSSUBVV
	VSSUBUVV
	VSMULVV

	VWMULVV
	VWMULUVV
	VWADDVV
	VWADDUVV
	VWADDUWX

	VREDMAXUVS
	VREDMINUVS
	VFREDMAXVS

	VSLIDEDOWNVI
	VSLIDEUPVI
	VRGATHERVV
	VFIRSTM
	VCOMPRESSVV

	numOps
)

type opFormat uint8

const (
	fNone opFormat = iota
	fRRR           // op rd, rs1, rs2
	fRR            // op rd, rs1
	fRI            // op rd, imm
	fRRI           // op rd, rs1, imm
	fMem           // op rd, imm(rs1)
	fBranch        // b<cond> rs1, rs2, label
	fJump          // j label
	fJumpReg       // jr rs1
	fCallStub      // call <stub>
	fTailStub      // tail <stub>
	fCallFn        // call/tail to a function by index, via relocation
	fCallReg       // jalr rs1
	fRound         // op rd, rs1, rm
	fFsrmi         // fsrmi rm
	fVset          // vsetvli t5, zero, sew, lmul
	fMergeVV       // op vd, vs2, vs1, v0
	fMergeVX       // op vd, vs2, rs1, v0
	fMergeVI       // op vd, vs2, imm, v0
)

var opTable = [numOps]struct {
	name string
	fmt  opFormat
}{
	NOP:    {"nop", fNone},
	EBREAK: {"ebreak", fNone},
	RET:    {"ret", fNone},

	LI:   {"li", fRI},
	MV:   {"mv", fRR},
	ADD:  {"add", fRRR},
	SUB:  {"sub", fRRR},
	AND:  {"and", fRRR},
	OR:   {"or", fRRR},
	XOR:  {"xor", fRRR},
	SLT:  {"slt", fRRR},
	SLTU: {"sltu", fRRR},
	SEQZ: {"seqz", fRR},
	SNEZ: {"snez", fRR},
	NOT:  {"not", fRR},
	ADDI: {"addi", fRRI},
	ANDI: {"andi", fRRI},
	ORI:  {"ori", fRRI},
	XORI: {"xori", fRRI},
	SLLI: {"slli", fRRI},
	SRLI: {"srli", fRRI},
	SRAI: {"srai", fRRI},

	LB:  {"lb", fMem},
	LBU: {"lbu", fMem},
	LW:  {"lw", fMem},
	LWU: {"lwu", fMem},
	LD:  {"ld", fMem},
	SW:  {"sw", fMem},
	SD:  {"sd", fMem},
	FLW: {"flw", fMem},
	FSW: {"fsw", fMem},
	FLD: {"fld", fMem},
	FSD: {"fsd", fMem},

	BCOND:    {"", fBranch},
	J:        {"j", fJump},
	JR:       {"jr", fJumpReg},
	CALLSTUB: {"call", fCallStub},
	CALLREG:  {"jalr", fCallReg},
	TAILSTUB: {"tail", fTailStub},
	CALLFN:   {"call", fCallFn},
	TAILFN:   {"tail", fCallFn},

	FSRMI: {"fsrmi", fFsrmi},

	FADDS:   {"fadd.s", fRRR},
	FSUBS:   {"fsub.s", fRRR},
	FMULS:   {"fmul.s", fRRR},
	FDIVS:   {"fdiv.s", fRRR},
	FSQRTS:  {"fsqrt.s", fRR},
	FABSS:   {"fabs.s", fRR},
	FNEGS:   {"fneg.s", fRR},
	FSGNJS:  {"fsgnj.s", fRRR},
	FMINS:   {"fmin.s", fRRR},
	FMAXS:   {"fmax.s", fRRR},
	FEQS:    {"feq.s", fRRR},
	FLTS:    {"flt.s", fRRR},
	FLES:    {"fle.s", fRRR},
	FROUNDS: {"fround.s", fRound},
	FMVXW:   {"fmv.x.w", fRR},
	FMVWX:   {"fmv.w.x", fRR},

	FADDD:   {"fadd.d", fRRR},
	FSUBD:   {"fsub.d", fRRR},
	FMULD:   {"fmul.d", fRRR},
	FDIVD:   {"fdiv.d", fRRR},
	FSQRTD:  {"fsqrt.d", fRR},
	FABSD:   {"fabs.d", fRR},
	FNEGD:   {"fneg.d", fRR},
	FSGNJD:  {"fsgnj.d", fRRR},
	FMIND:   {"fmin.d", fRRR},
	FMAXD:   {"fmax.d", fRRR},
	FEQD:    {"feq.d", fRRR},
	FLTD:    {"flt.d", fRRR},
	FLED:    {"fle.d", fRRR},
	FROUNDD: {"fround.d", fRound},
	FMVXD:   {"fmv.x.d", fRR},
	FMVDX:   {"fmv.d.x", fRR},

	VSETVLI: {"vsetvli", fVset},

	VMVVV:  {"vmv.v.v", fRR},
	VMVVX:  {"vmv.v.x", fRR},
	VMVVI:  {"vmv.v.i", fRI},
	VMVSX:  {"vmv.s.x", fRR},
	VMVXS:  {"vmv.x.s", fRR},
	VFMVFS: {"vfmv.f.s", fRR},
	VFMVSF: {"vfmv.s.f", fRR},

	VMERGEVVM: {"vmerge.vvm", fMergeVV},
	VMERGEVXM: {"vmerge.vxm", fMergeVX},
	VMERGEVIM: {"vmerge.vim", fMergeVI},

	VADDVV:  {"vadd.vv", fRRR},
	VADDVI:  {"vadd.vi", fRRI},
	VSUBVV:  {"vsub.vv", fRRR},
	VMULVV:  {"vmul.vv", fRRR},
	VDIVUVX: {"vdivu.vx", fRRR},
	VMINVV:  {"vmin.vv", fRRR},
	VMINUVV: {"vminu.vv", fRRR},
	VMAXVV:  {"vmax.vv", fRRR},
	VMAXUVV: {"vmaxu.vv", fRRR},
	VMAXVX:  {"vmax.vx", fRRR},
	VANDVV:  {"vand.vv", fRRR},
	VORVV:   {"vor.vv", fRRR},
	VXORVV:  {"vxor.vv", fRRR},
	VNOTV:   {"vnot.v", fRR},
	VNEGV:   {"vneg.v", fRR},

	VSLLVX: {"vsll.vx", fRRR},
	VSLLVI: {"vsll.vi", fRRI},
	VSRLVX: {"vsrl.vx", fRRR},
	VSRLVI: {"vsrl.vi", fRRI},
	VSRAVX: {"vsra.vx", fRRR},
	VSRAVI: {"vsra.vi", fRRI},

	VMSEQVV:  {"vmseq.vv", fRRR},
	VMSNEVV:  {"vmsne.vv", fRRR},
	VMSNEVI:  {"vmsne.vi", fRRI},
	VMSLTVV:  {"vmslt.vv", fRRR},
	VMSLTUVV: {"vmsltu.vv", fRRR},
	VMSLEVV:  {"vmsle.vv", fRRR},
	VMSLEUVV: {"vmsleu.vv", fRRR},

	VMFEQVV: {"vmfeq.vv", fRRR},
	VMFNEVV: {"vmfne.vv", fRRR},
	VMFLTVV: {"vmflt.vv", fRRR},
	VMFLEVV: {"vmfle.vv", fRRR},

	VFADDVV:  {"vfadd.vv", fRRR},
	VFSUBVV:  {"vfsub.vv", fRRR},
	VFMULVV:  {"vfmul.vv", fRRR},
	VFDIVVV:  {"vfdiv.vv", fRRR},
	VFSQRTV:  {"vfsqrt.v", fRR},
	VFABSV:   {"vfabs.v", fRR},
	VFNEGV:   {"vfneg.v", fRR},
	VFMINVV:  {"vfmin.vv", fRRR},
	VFMAXVV:  {"vfmax.vv", fRRR},
	VFSGNJVV: {"vfsgnj.vv", fRRR},

	VFCVTXFV:   {"vfcvt.x.f.v", fRR},
	VFCVTXUFV:  {"vfcvt.xu.f.v", fRR},
	VFCVTFXV:   {"vfcvt.f.x.v", fRR},
	VFCVTFXUV:  {"vfcvt.f.xu.v", fRR},
	VFNCVTXFW:  {"vfncvt.x.f.w", fRR},
	VFNCVTXUFW: {"vfncvt.xu.f.w", fRR},
	VFNCVTFFW:  {"vfncvt.f.f.w", fRR},
	VFWCVTFXV:  {"vfwcvt.f.x.v", fRR},
	VFWCVTFXUV: {"vfwcvt.f.xu.v", fRR},
	VFWCVTFFV:  {"vfwcvt.f.f.v", fRR},

	VSEXTVF2:  {"vsext.vf2", fRR},
	VZEXTVF2:  {"vzext.vf2", fRR},
	VNCLIPVI:  {"vnclip.wi", fRRI},
	VNCLIPUVI: {"vnclipu.wi", fRRI},

	VSADDVV:  {"vsadd.vv", fRRR},
	VSADDUVV: {"vsaddu.vv", fRRR},
	VSSUBVV:  {"vssub.vv", fRRR},
	VSSUBUVV: {"vssubu.vv", fRRR},
	VSMULVV:  {"vsmul.vv", fRRR},

	VWMULVV:  {"vwmul.vv", fRRR},
	VWMULUVV: {"vwmulu.vv", fRRR},
	VWADDVV:  {"vwadd.vv", fRRR},
	VWADDUVV: {"vwaddu.vv", fRRR},
	VWADDUWX: {"vwaddu.wx", fRRR},

	VREDMAXUVS: {"vredmaxu.vs", fRRR},
	VREDMINUVS: {"vredminu.vs", fRRR},
	VFREDMAXVS: {"vfredmax.vs", fRRR},

	VSLIDEDOWNVI: {"vslidedown.vi", fRRI},
	VSLIDEUPVI:   {"vslideup.vi", fRRI},
	VRGATHERVV:   {"vrgather.vv", fRRR},
	VFIRSTM:      {"vfirst.m", fRR},
	VCOMPRESSVV:  {"vcompress.vv", fRRR},
}

// String implements fmt.Stringer. The output follows standard riscv64
// assembly syntax so emitted sequences can be asserted against literally.
func (i *Instruction) String() string {
	info := opTable[i.Op]
	var str string
	switch info.fmt {
	case fNone:
		str = info.name
	case fRRR:
		str = fmt.Sprintf("%s %s, %s, %s", info.name, i.Rd, i.Rs1, i.Rs2)
	case fRR:
		str = fmt.Sprintf("%s %s, %s", info.name, i.Rd, i.Rs1)
	case fRI:
		str = fmt.Sprintf("%s %s, %d", info.name, i.Rd, i.Imm)
	case fRRI:
		str = fmt.Sprintf("%s %s, %s, %d", info.name, i.Rd, i.Rs1, i.Imm)
	case fMem:
		str = fmt.Sprintf("%s %s, %d(%s)", info.name, i.Rd, i.Imm, i.Rs1)
	case fBranch:
		str = fmt.Sprintf("%s %s, %s, %s", branchCondNames[i.Cond], i.Rs1, i.Rs2, i.Label)
	case fJump:
		str = fmt.Sprintf("j %s", i.Label)
	case fJumpReg:
		str = fmt.Sprintf("jr %s", i.Rs1)
	case fCallStub:
		str = fmt.Sprintf("call <%s>", i.Stub)
	case fCallFn:
		str = fmt.Sprintf("%s <function %d>", info.name, i.Imm)
	case fTailStub:
		str = fmt.Sprintf("tail <%s>", i.Stub)
	case fCallReg:
		str = fmt.Sprintf("jalr %s", i.Rs1)
	case fRound:
		str = fmt.Sprintf("%s %s, %s, %s", info.name, i.Rd, i.Rs1, i.RM)
	case fFsrmi:
		str = fmt.Sprintf("fsrmi %s", i.RM)
	case fVset:
		str = fmt.Sprintf("vsetvli t5, zero, %s, %s, ta, ma", i.Sew, i.Lmul)
	case fMergeVV:
		str = fmt.Sprintf("%s %s, %s, %s, v0", info.name, i.Rd, i.Rs1, i.Rs2)
	case fMergeVX:
		str = fmt.Sprintf("%s %s, %s, %s, v0", info.name, i.Rd, i.Rs1, i.Rs2)
	case fMergeVI:
		str = fmt.Sprintf("%s %s, %s, %d, v0", info.name, i.Rd, i.Rs1, i.Imm)
	default:
		panic(i.Op)
	}
	if i.Masked {
		str += ", v0.t"
	}
	return str
}
