package riscv

import (
	asm "github.com/wasmkit/rivet/internal/asm/riscv"
	"github.com/wasmkit/rivet/internal/engine/baseline"
)

// PushRegisters saves the set around a call: one sp adjustment for the gp
// subset with stores at descending offsets, then one for the float/vector
// subset at ascending offsets. Vector registers spill their low double only;
// that is all the scalar call ABI preserves.
func (a *Assembler) PushRegisters(regs baseline.RegSet) {
	gp := regs.GPSubset()
	if n := gp.Count(); n > 0 {
		offset := int64(n * 8)
		a.Addi(asm.RegSP, asm.RegSP, -offset)
		gp.Ascending(func(r asm.Reg) {
			offset -= 8
			a.Sd(r, asm.RegSP, offset)
		})
	}

	fp := regs.FPSubset().Union(regs.VecSubset())
	if n := fp.Count(); n > 0 {
		a.Addi(asm.RegSP, asm.RegSP, int64(-n*8))
		if !regs.VecSubset().IsEmpty() {
			a.VSetVLI(asm.E64, asm.M1)
		}
		offset := int64(0)
		fp.Ascending(func(r asm.Reg) {
			if r.IsVec() {
				a.RR(asm.VFMVFS, scratchFP, r)
				a.Fsd(scratchFP, asm.RegSP, offset)
			} else {
				a.Fsd(r, asm.RegSP, offset)
			}
			offset += 8
		})
	}
}

// PopRegisters is the exact mirror of PushRegisters; push and pop of any set
// leave sp unchanged.
func (a *Assembler) PopRegisters(regs baseline.RegSet) {
	fp := regs.FPSubset().Union(regs.VecSubset())
	if !fp.IsEmpty() {
		if !regs.VecSubset().IsEmpty() {
			a.VSetVLI(asm.E64, asm.M1)
		}
		offset := int64(0)
		fp.Ascending(func(r asm.Reg) {
			if r.IsVec() {
				a.Fld(scratchFP, asm.RegSP, offset)
				a.RR(asm.VFMVSF, r, scratchFP)
			} else {
				a.Fld(r, asm.RegSP, offset)
			}
			offset += 8
		})
		a.Addi(asm.RegSP, asm.RegSP, offset)
	}

	gp := regs.GPSubset()
	if !gp.IsEmpty() {
		offset := int64(0)
		gp.Descending(func(r asm.Reg) {
			a.Ld(r, asm.RegSP, offset)
			offset += 8
		})
		a.Addi(asm.RegSP, asm.RegSP, offset)
	}
}

// RecordSpillsInSafepoint walks the pushed gp registers in store order and
// tags the slots of the reference-holding ones.
func (a *Assembler) RecordSpillsInSafepoint(sp *baseline.Safepoint, allSpills, refSpills baseline.RegSet, spillOffset int) {
	slot := spillOffset
	allSpills.GPSubset().Ascending(func(r asm.Reg) {
		if refSpills.Has(r) {
			sp.DefineTaggedSlot(slot)
		}
		slot++
	})
}

// DropStackSlotsAndRet releases the argument area and returns.
func (a *Assembler) DropStackSlotsAndRet(numStackSlots int) {
	if numStackSlots > 0 {
		a.addImm(asm.RegSP, asm.RegSP, int64(numStackSlots*8))
	}
	a.Ret()
}

// CallNativeWasmCode calls another function's code object directly and
// records a safepoint for the return address.
func (a *Assembler) CallNativeWasmCode(funcIndex int) *baseline.Safepoint {
	a.CallFunction(funcIndex)
	return a.safepoints.DefineSafepoint(a.PCOffset())
}

// TailCallNativeWasmCode jumps to another function's code object. No
// safepoint; this frame is gone.
func (a *Assembler) TailCallNativeWasmCode(funcIndex int) {
	a.TailFunction(funcIndex)
}

// CallIndirect calls through a register and records a safepoint.
func (a *Assembler) CallIndirect(target asm.Reg) *baseline.Safepoint {
	a.CallReg(target)
	return a.safepoints.DefineSafepoint(a.PCOffset())
}

// TailCallIndirect jumps through a register.
func (a *Assembler) TailCallIndirect(target asm.Reg) {
	a.JumpReg(target)
}

// CallRuntimeStub calls a runtime stub and records a safepoint.
func (a *Assembler) CallRuntimeStub(stub asm.StubID) *baseline.Safepoint {
	a.CallStub(stub)
	return a.safepoints.DefineSafepoint(a.PCOffset())
}

// AllocateStackSlot carves size bytes off the stack and leaves the slot
// address in addr.
func (a *Assembler) AllocateStackSlot(addr asm.Reg, size int) {
	a.addImm(asm.RegSP, asm.RegSP, int64(-size))
	a.Mv(addr, asm.RegSP)
}

// DeallocateStackSlot releases an AllocateStackSlot reservation.
func (a *Assembler) DeallocateStackSlot(size int) {
	a.addImm(asm.RegSP, asm.RegSP, int64(size))
}
