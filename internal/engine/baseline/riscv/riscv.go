// Package riscv is the riscv64+V emission core of the baseline compiler:
// it lowers portable operations onto the symbolic assembler, one short
// instruction sequence per operation, in a single pass.
package riscv

import (
	"fmt"

	"github.com/sirupsen/logrus"

	asm "github.com/wasmkit/rivet/internal/asm/riscv"
	"github.com/wasmkit/rivet/internal/engine/baseline"
)

// Register conventions. The two integer scratches and the float scratch are
// never allocatable; the vector scratches start at an even register so they
// can serve as LMUL=2 groups.
const (
	scratchReg  = asm.RegT5
	scratchReg2 = asm.RegT6
	scratchFP   = asm.RegFT11

	// instanceReg holds the instance pointer across the function body.
	instanceReg = asm.RegS1

	simdScratch  = asm.RegV24 // group {v24, v25} under LMUL=2
	simdScratch2 = asm.RegV26 // group {v26, v27} under LMUL=2
	simdScratch3 = asm.RegV28
	maskReg      = asm.RegV0
)

// Canonical quiet NaN bit patterns, materialized by the NaN-propagating
// min/max lowerings.
const (
	canonicalNaN32 = 0x7FC00000
	canonicalNaN64 = 0x7FF8000000000000
)

// Bit patterns of 2^23 (f32) and 2^52 (f64). Values at or above these
// magnitudes are already integral, so the round helper leaves them alone.
const (
	f32RoundThreshold = 0x4B000000
	f64RoundThreshold = 0x4330000000000000
)

// Assembler is the machine-specific half of the baseline compiler. It embeds
// the instruction stream and adds the lowering methods; the target-neutral
// driver talks to it through baseline.Machine.
type Assembler struct {
	*asm.Assembler

	cfg        baseline.Config
	offs       baseline.InstanceOffsets
	safepoints *baseline.SafepointTableBuilder
	log        logrus.FieldLogger

	bailoutErr error
	frame      framePatch
}

var _ baseline.Machine = (*Assembler)(nil)

// New returns an Assembler ready for its first function.
func New(cfg baseline.Config, sp *baseline.SafepointTableBuilder, log logrus.FieldLogger) *Assembler {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Assembler{
		Assembler:  &asm.Assembler{},
		cfg:        cfg,
		offs:       baseline.NewInstanceOffsets(),
		safepoints: sp,
		log:        log,
	}
}

// Bailout returns the sticky bailout error, if any.
func (a *Assembler) Bailout() error { return a.bailoutErr }

// bailout records the first bailout of the function. Emission continues so
// callers need no error plumbing; the driver discards the stream at the end.
func (a *Assembler) bailout(kind baseline.BailoutKind, detail string) {
	if a.bailoutErr != nil {
		return
	}
	a.bailoutErr = baseline.NewBailout(kind, detail)
	a.log.WithField("cause", detail).Debug("bailout requested")
}

// Reset clears all per-function state.
func (a *Assembler) Reset() {
	a.Assembler.Reset()
	a.bailoutErr = nil
	a.frame = framePatch{}
}

// FinishCode is called once emission is complete and the prologue patched.
func (a *Assembler) FinishCode() {
	if !a.frame.patched {
		panic("FinishCode before PatchPrepareStackFrame")
	}
}

// AbortCompilation discards the emitted stream after a bailout.
func (a *Assembler) AbortCompilation() { a.Assembler.Reset() }

// AssertUnreachable marks a state the code generator believes impossible.
// Under DebugCode it traps so the mistake is loud.
func (a *Assembler) AssertUnreachable(reason string) {
	if a.cfg.DebugCode {
		a.log.WithField("reason", reason).Debug("emitting unreachable trap")
		a.Ebreak()
	}
}

// addImm adds a possibly 12-bit-overflowing immediate to rs, writing rd.
func (a *Assembler) addImm(rd, rs asm.Reg, imm int64) {
	if imm >= -2048 && imm < 2048 {
		a.Addi(rd, rs, imm)
		return
	}
	a.Li(scratchReg2, imm)
	a.Add(rd, rs, scratchReg2)
}

// LoadInstanceFromFrame reloads the instance pointer from its frame slot.
func (a *Assembler) LoadInstanceFromFrame(dst asm.Reg) {
	a.Ld(dst, asm.RegFP, -baseline.FrameInstanceOffset.I64())
}

// SpillInstance stores the instance pointer to its frame slot.
func (a *Assembler) SpillInstance(instance asm.Reg) {
	a.Sd(instance, asm.RegFP, -baseline.FrameInstanceOffset.I64())
}

// LoadFromInstance loads a field of the instance object. Only the field
// sizes the runtime layout uses are supported.
func (a *Assembler) LoadFromInstance(dst, instance asm.Reg, offset baseline.Offset, size int) {
	switch size {
	case 1:
		a.Lbu(dst, instance, offset.I64())
	case 4:
		a.Lw(dst, instance, offset.I64())
	case 8:
		a.Ld(dst, instance, offset.I64())
	default:
		panic(fmt.Sprintf("unsupported instance field size %d", size))
	}
}

// LoadSpillAddress materializes the address of an fp-relative spill slot.
func (a *Assembler) LoadSpillAddress(dst asm.Reg, offset int) {
	a.addImm(dst, asm.RegFP, int64(-offset))
}

// StackCheck branches to ool when the stack pointer is at or below the limit
// loaded via the instance held in limitInstance.
func (a *Assembler) StackCheck(ool *asm.Label, limitInstance asm.Reg) {
	a.Ld(scratchReg, limitInstance, a.offs.StackLimitAddress.I64())
	a.Ld(scratchReg, scratchReg, 0)
	a.Branch(asm.BranchGEU, scratchReg, asm.RegSP, ool)
}

// EmitSmiCheck tests the small-integer tag bit of obj and branches.
func (a *Assembler) EmitSmiCheck(obj asm.Reg, target *asm.Label, mode baseline.SmiCheckMode) {
	a.Andi(scratchReg, obj, 1)
	switch mode {
	case baseline.JumpOnSmi:
		a.BranchZero(asm.BranchEQ, scratchReg, target)
	case baseline.JumpOnNotSmi:
		a.BranchZero(asm.BranchNE, scratchReg, target)
	default:
		panic("invalid smi check mode")
	}
}

// EmitSelect would fuse a select with a preceding comparison. This target
// has no fused form; the caller falls back to branches.
func (a *Assembler) EmitSelect(dst, condition, trueVal, falseVal asm.Reg, kind baseline.ValueKind) bool {
	return false
}

// EmitSetIfNan stores a nonzero flag to the address in dst when the scalar
// in src is NaN.
func (a *Assembler) EmitSetIfNan(dst, src asm.Reg, kind baseline.ValueKind) {
	skip := a.AllocateLabel()
	switch kind {
	case baseline.KindF32:
		a.RRR(asm.FEQS, scratchReg, src, src)
	case baseline.KindF64:
		a.RRR(asm.FEQD, scratchReg, src, src)
	default:
		panic("set-if-nan on non-float kind")
	}
	a.BranchZero(asm.BranchNE, scratchReg, skip)
	a.Li(scratchReg, 1)
	a.Sw(scratchReg, dst, 0)
	a.Bind(skip)
}
