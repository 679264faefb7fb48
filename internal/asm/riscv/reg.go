package riscv

// Riscv64-specific registers.
//
// The flat Reg space covers the integer, floating-point and vector register
// files. ABI mnemonics are used for the integer and floating-point files.

// Reg is a physical register of the riscv64 target.
type Reg uint8

const (
	// RegInvalid is the zero value of Reg and never names a real register.
	RegInvalid Reg = iota

	// Integer registers.

	RegZERO
	RegRA
	RegSP
	RegGP
	RegTP
	RegT0
	RegT1
	RegT2
	RegFP // aka s0
	RegS1
	RegA0
	RegA1
	RegA2
	RegA3
	RegA4
	RegA5
	RegA6
	RegA7
	RegS2
	RegS3
	RegS4
	RegS5
	RegS6
	RegS7
	RegS8
	RegS9
	RegS10
	RegS11
	RegT3
	RegT4
	RegT5
	RegT6

	// Floating-point registers.

	RegFT0
	RegFT1
	RegFT2
	RegFT3
	RegFT4
	RegFT5
	RegFT6
	RegFT7
	RegFS0
	RegFS1
	RegFA0
	RegFA1
	RegFA2
	RegFA3
	RegFA4
	RegFA5
	RegFA6
	RegFA7
	RegFS2
	RegFS3
	RegFS4
	RegFS5
	RegFS6
	RegFS7
	RegFS8
	RegFS9
	RegFS10
	RegFS11
	RegFT8
	RegFT9
	RegFT10
	RegFT11

	// Vector registers.

	RegV0
	RegV1
	RegV2
	RegV3
	RegV4
	RegV5
	RegV6
	RegV7
	RegV8
	RegV9
	RegV10
	RegV11
	RegV12
	RegV13
	RegV14
	RegV15
	RegV16
	RegV17
	RegV18
	RegV19
	RegV20
	RegV21
	RegV22
	RegV23
	RegV24
	RegV25
	RegV26
	RegV27
	RegV28
	RegV29
	RegV30
	RegV31

	numRegisters
)

// IsGP returns true if r is an integer register.
func (r Reg) IsGP() bool { return r >= RegZERO && r <= RegT6 }

// IsFP returns true if r is a floating-point register.
func (r Reg) IsFP() bool { return r >= RegFT0 && r <= RegFT11 }

// IsVec returns true if r is a vector register.
func (r Reg) IsVec() bool { return r >= RegV0 && r <= RegV31 }

// GPIndex returns the hardware index (0..31) of an integer register.
func (r Reg) GPIndex() int {
	if !r.IsGP() {
		panic("not a gp register: " + r.String())
	}
	return int(r - RegZERO)
}

// FPIndex returns the hardware index (0..31) of a floating-point register.
func (r Reg) FPIndex() int {
	if !r.IsFP() {
		panic("not an fp register: " + r.String())
	}
	return int(r - RegFT0)
}

// VecIndex returns the hardware index (0..31) of a vector register.
func (r Reg) VecIndex() int {
	if !r.IsVec() {
		panic("not a vector register: " + r.String())
	}
	return int(r - RegV0)
}

// OffsetBy returns the register n places after r in the same register file.
// Used for register groups of the widening vector instructions.
func (r Reg) OffsetBy(n int) Reg {
	ret := r + Reg(n)
	if r.IsVec() != ret.IsVec() || r.IsFP() != ret.IsFP() {
		panic("register offset crosses register files")
	}
	return ret
}

var regNames = [...]string{
	RegZERO: "zero",
	RegRA:   "ra",
	RegSP:   "sp",
	RegGP:   "gp",
	RegTP:   "tp",
	RegT0:   "t0",
	RegT1:   "t1",
	RegT2:   "t2",
	RegFP:   "fp",
	RegS1:   "s1",
	RegA0:   "a0",
	RegA1:   "a1",
	RegA2:   "a2",
	RegA3:   "a3",
	RegA4:   "a4",
	RegA5:   "a5",
	RegA6:   "a6",
	RegA7:   "a7",
	RegS2:   "s2",
	RegS3:   "s3",
	RegS4:   "s4",
	RegS5:   "s5",
	RegS6:   "s6",
	RegS7:   "s7",
	RegS8:   "s8",
	RegS9:   "s9",
	RegS10:  "s10",
	RegS11:  "s11",
	RegT3:   "t3",
	RegT4:   "t4",
	RegT5:   "t5",
	RegT6:   "t6",
	RegFT0:  "ft0",
	RegFT1:  "ft1",
	RegFT2:  "ft2",
	RegFT3:  "ft3",
	RegFT4:  "ft4",
	RegFT5:  "ft5",
	RegFT6:  "ft6",
	RegFT7:  "ft7",
	RegFS0:  "fs0",
	RegFS1:  "fs1",
	RegFA0:  "fa0",
	RegFA1:  "fa1",
	RegFA2:  "fa2",
	RegFA3:  "fa3",
	RegFA4:  "fa4",
	RegFA5:  "fa5",
	RegFA6:  "fa6",
	RegFA7:  "fa7",
	RegFS2:  "fs2",
	RegFS3:  "fs3",
	RegFS4:  "fs4",
	RegFS5:  "fs5",
	RegFS6:  "fs6",
	RegFS7:  "fs7",
	RegFS8:  "fs8",
	RegFS9:  "fs9",
	RegFS10: "fs10",
	RegFS11: "fs11",
	RegFT8:  "ft8",
	RegFT9:  "ft9",
	RegFT10: "ft10",
	RegFT11: "ft11",
	RegV0:   "v0",
	RegV1:   "v1",
	RegV2:   "v2",
	RegV3:   "v3",
	RegV4:   "v4",
	RegV5:   "v5",
	RegV6:   "v6",
	RegV7:   "v7",
	RegV8:   "v8",
	RegV9:   "v9",
	RegV10:  "v10",
	RegV11:  "v11",
	RegV12:  "v12",
	RegV13:  "v13",
	RegV14:  "v14",
	RegV15:  "v15",
	RegV16:  "v16",
	RegV17:  "v17",
	RegV18:  "v18",
	RegV19:  "v19",
	RegV20:  "v20",
	RegV21:  "v21",
	RegV22:  "v22",
	RegV23:  "v23",
	RegV24:  "v24",
	RegV25:  "v25",
	RegV26:  "v26",
	RegV27:  "v27",
	RegV28:  "v28",
	RegV29:  "v29",
	RegV30:  "v30",
	RegV31:  "v31",
}

// String implements fmt.Stringer.
func (r Reg) String() string {
	if r == RegInvalid || r >= numRegisters {
		return "reg?"
	}
	return regNames[r]
}
