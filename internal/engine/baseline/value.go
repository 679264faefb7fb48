// Package baseline holds the target-independent pieces of the baseline
// (single-pass) WebAssembly compiler: the operand-stack value model, register
// sets, portable conditions and operations, the safepoint table, and the
// per-function compile driver. The machine-specific emission core lives in
// the riscv subpackage.
package baseline

import (
	"fmt"

	"github.com/wasmkit/rivet/internal/asm/riscv"
)

// ValueKind is the type of an operand-stack value.
type ValueKind uint8

const (
	KindI32 ValueKind = iota
	KindI64
	KindF32
	KindF64
	KindS128
	KindRef
)

var kindNames = [...]string{
	KindI32:  "i32",
	KindI64:  "i64",
	KindF32:  "f32",
	KindF64:  "f64",
	KindS128: "s128",
	KindRef:  "ref",
}

// String implements fmt.Stringer.
func (k ValueKind) String() string { return kindNames[k] }

// SlotSize returns the spill-slot size in bytes for the kind.
func (k ValueKind) SlotSize() int {
	if k == KindS128 {
		return 16
	}
	return 8
}

// NeedsAlignment returns true if a spill slot of this kind must be aligned
// to its own size. Only the 128-bit vector kind needs it; everything else
// occupies one pointer-sized slot.
func (k ValueKind) NeedsAlignment() bool { return k == KindS128 }

// IsRef returns true for kinds the garbage collector must see.
func (k ValueKind) IsRef() bool { return k == KindRef }

// ValueLoc distinguishes where a VarState currently lives.
type ValueLoc uint8

const (
	LocRegister ValueLoc = iota
	LocStack
)

// VarState is one operand-stack value: a kind bound to either a physical
// register or a frame-relative spill slot, never both at once.
type VarState struct {
	Kind   ValueKind
	Loc    ValueLoc
	Reg    riscv.Reg // valid when Loc == LocRegister
	Offset int32     // fp-relative spill offset, valid when Loc == LocStack
}

// NewRegisterValue returns a VarState bound to a register.
func NewRegisterValue(k ValueKind, r riscv.Reg) VarState {
	return VarState{Kind: k, Loc: LocRegister, Reg: r}
}

// NewStackValue returns a VarState bound to a spill slot.
func NewStackValue(k ValueKind, offset int32) VarState {
	return VarState{Kind: k, Loc: LocStack, Offset: offset}
}

// String implements fmt.Stringer.
func (v VarState) String() string {
	if v.Loc == LocRegister {
		return fmt.Sprintf("%s:%s", v.Kind, v.Reg)
	}
	return fmt.Sprintf("%s:[fp-%d]", v.Kind, v.Offset)
}
