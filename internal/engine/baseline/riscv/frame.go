package riscv

import (
	asm "github.com/wasmkit/rivet/internal/asm/riscv"
)

// Frames below this size get their allocation patched straight into the
// prologue; larger frames jump to an out-of-line path with a stack check
// first, since a big allocation could step over the guard page.
const bigFrameSize = 4096

// prologuePatchSlots is the width of the reserved prologue window. One slot
// for the small-frame addi or the large-frame jump, the rest stays nops.
const prologuePatchSlots = 3

type framePatch struct {
	pp       asm.PatchPoint
	after    *asm.Label
	reserved bool
	patched  bool
}

// PrepareStackFrame reserves the prologue patch window. The frame size is
// unknown until the whole body has been lowered, so the window is filled by
// PatchPrepareStackFrame at the end.
func (a *Assembler) PrepareStackFrame() {
	if a.frame.reserved {
		panic("PrepareStackFrame called twice")
	}
	a.frame.pp = a.ReservePatch(prologuePatchSlots)
	a.frame.after = a.AllocateLabel()
	a.Bind(a.frame.after)
	a.frame.reserved = true
}

// PatchPrepareStackFrame fills the prologue window for the final frame size.
// Small frames get a single in-place sp adjustment. Large frames jump to an
// out-of-line path appended at the current end of the stream: stack check
// against the real limit, stack-overflow stub call with an empty safepoint,
// the allocation, and a jump back to just after the window.
func (a *Assembler) PatchPrepareStackFrame(frameSize int) {
	if !a.frame.reserved {
		panic("PatchPrepareStackFrame without PrepareStackFrame")
	}
	if a.frame.patched {
		panic("PatchPrepareStackFrame called twice")
	}
	a.frame.patched = true

	if frameSize < bigFrameSize {
		a.PatchAt(a.frame.pp).Addi(asm.RegSP, asm.RegSP, int64(-frameSize))
		return
	}

	ool := a.AllocateLabel()
	a.PatchAt(a.frame.pp).Jump(ool)
	a.Bind(ool)

	// A frame bigger than the whole stack budget overflows unconditionally;
	// skip the limit check and fall through to the stub call.
	if frameSize < a.cfg.StackSizeKB*1024 {
		continuation := a.AllocateLabel()
		a.Ld(scratchReg, instanceReg, a.offs.RealStackLimitAddress.I64())
		a.Ld(scratchReg, scratchReg, 0)
		a.addImm(scratchReg, scratchReg, int64(frameSize))
		a.Branch(asm.BranchGEU, asm.RegSP, scratchReg, continuation)

		a.CallStub(asm.StubStackOverflow)
		a.safepoints.DefineSafepoint(a.PCOffset())
		if a.cfg.DebugCode {
			// The stub does not return.
			a.Ebreak()
		}
		a.Bind(continuation)
	} else {
		a.CallStub(asm.StubStackOverflow)
		a.safepoints.DefineSafepoint(a.PCOffset())
		if a.cfg.DebugCode {
			a.Ebreak()
		}
	}

	a.Li(scratchReg, int64(frameSize))
	a.Sub(asm.RegSP, asm.RegSP, scratchReg)
	a.Jump(a.frame.after)
}

// PrepareTailCall shifts the current frame into the caller's so the callee
// returns directly to the caller's caller. The slot copy runs from the
// highest index down; source and destination ranges overlap when the callee
// has more stack parameters than the caller.
func (a *Assembler) PrepareTailCall(calleeStackParams, stackParamDelta int) {
	// Complete the frame record on the stack: return address, then caller fp.
	a.Ld(scratchReg, asm.RegFP, 8)
	a.push(scratchReg)
	a.Ld(scratchReg, asm.RegFP, 0)
	a.push(scratchReg)

	slotCount := calleeStackParams + 2
	for i := slotCount - 1; i >= 0; i-- {
		a.Ld(scratchReg, asm.RegSP, int64(i*8))
		a.Sd(scratchReg, asm.RegFP, int64((i-stackParamDelta)*8))
	}

	// Rebase sp off the shifted frame and reload the link registers.
	a.addImm(asm.RegSP, asm.RegFP, int64(-stackParamDelta*8))
	a.Ld(asm.RegFP, asm.RegSP, 0)
	a.Ld(asm.RegRA, asm.RegSP, 8)
	a.Addi(asm.RegSP, asm.RegSP, 16)
}

func (a *Assembler) push(r asm.Reg) {
	a.Addi(asm.RegSP, asm.RegSP, -8)
	a.Sd(r, asm.RegSP, 0)
}
