package riscv

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	asm "github.com/wasmkit/rivet/internal/asm/riscv"
	"github.com/wasmkit/rivet/internal/asm/riscv/interpreter"
	"github.com/wasmkit/rivet/internal/engine/baseline"
)

func TestPatchPrepareStackFrame_SmallFrame(t *testing.T) {
	a := newTestAssembler()
	a.PrepareStackFrame()
	a.Ret()
	a.PatchPrepareStackFrame(4095)

	require.Equal(t, []string{
		"addi sp, sp, -4095",
		"nop",
		"nop",
		"ret",
	}, textLines(a))
	require.Empty(t, a.safepoints.Safepoints())
}

func TestPatchPrepareStackFrame_LargeFrame(t *testing.T) {
	a := newTestAssembler()
	a.PrepareStackFrame()
	a.Ret()
	a.PatchPrepareStackFrame(4096)

	require.Equal(t, []string{
		"j L2",
		"nop",
		"nop",
		"ret",
		// out-of-line: stack check against the real limit plus frame size
		"ld t5, 16(s1)",
		"ld t5, 0(t5)",
		"li t6, 4096",
		"add t5, t5, t6",
		"bgeu sp, t5, L3",
		"call <stack_overflow>",
		// continuation: the allocation, then back to the body
		"li t5, 4096",
		"sub sp, sp, t5",
		"j L1",
	}, textLines(a))

	// The stub call records one safepoint with no tagged slots.
	spts := a.safepoints.Safepoints()
	require.Len(t, spts, 1)
	require.Equal(t, 10*4, spts[0].PC)
	require.Empty(t, spts[0].TaggedSlots)
}

func TestPatchPrepareStackFrame_FrameBiggerThanStack(t *testing.T) {
	cfg := baseline.DefaultConfig()
	a := New(cfg, &baseline.SafepointTableBuilder{}, nil)
	a.PrepareStackFrame()
	a.Ret()

	// A frame past the stack budget overflows unconditionally; no limit
	// check is emitted.
	a.PatchPrepareStackFrame(cfg.StackSizeKB * 1024)
	lines := textLines(a)
	require.Equal(t, "call <stack_overflow>", lines[4])
	require.NotContains(t, lines, "ld t5, 16(s1)")
}

func TestPatchPrepareStackFrame_DebugCode(t *testing.T) {
	cfg := baseline.DefaultConfig()
	cfg.DebugCode = true
	a := New(cfg, &baseline.SafepointTableBuilder{}, nil)
	a.PrepareStackFrame()
	a.PatchPrepareStackFrame(8192)
	require.Contains(t, textLines(a), "ebreak")
}

func TestPatchPrepareStackFrame_Interpreted(t *testing.T) {
	for _, tc := range []struct {
		name      string
		frameSize int
		overflow  bool
	}{
		{"small frame", 256, false},
		{"large frame fits", 4096, false},
		{"large frame overflows", 20480, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAssembler()
			a.PrepareStackFrame()
			a.Ret()
			a.PatchPrepareStackFrame(tc.frameSize)

			const spStart = 64 * 1024
			m := interpreter.New(128 * 1024)
			m.SetReg(asm.RegSP, spStart)
			// Instance object at 1024; its real-stack-limit field points at
			// a limit word holding 48KiB.
			m.SetReg(instanceReg, 1024)
			binary.LittleEndian.PutUint64(m.Mem[1024+16:], 2048)
			binary.LittleEndian.PutUint64(m.Mem[2048:], 48*1024)
			m.Run(a.Instructions())

			if tc.overflow {
				require.Equal(t, []asm.StubID{asm.StubStackOverflow}, m.StubCalls)
				return
			}
			require.Empty(t, m.StubCalls)
			require.Equal(t, uint64(spStart-tc.frameSize), m.SP())
		})
	}
}

func TestPatchPrepareStackFrame_Panics(t *testing.T) {
	a := newTestAssembler()
	require.Panics(t, func() { a.PatchPrepareStackFrame(64) })

	a.PrepareStackFrame()
	require.Panics(t, func() { a.PrepareStackFrame() })
	a.PatchPrepareStackFrame(64)
	require.Panics(t, func() { a.PatchPrepareStackFrame(64) })
}

func TestPrepareTailCall_Pattern(t *testing.T) {
	a := newTestAssembler()
	a.PrepareTailCall(1, 1)

	require.Equal(t, []string{
		"ld t5, 8(fp)",
		"addi sp, sp, -8",
		"sd t5, 0(sp)",
		"ld t5, 0(fp)",
		"addi sp, sp, -8",
		"sd t5, 0(sp)",
		// three slots move highest-index-first
		"ld t5, 16(sp)",
		"sd t5, 8(fp)",
		"ld t5, 8(sp)",
		"sd t5, 0(fp)",
		"ld t5, 0(sp)",
		"sd t5, -8(fp)",
		"addi sp, fp, -8",
		"ld fp, 0(sp)",
		"ld ra, 8(sp)",
		"addi sp, sp, 16",
	}, textLines(a))
}

func TestPrepareTailCall_OverlappingCopy(t *testing.T) {
	// Callee stack params overlap the slots they move into; the descending
	// copy must read every source slot before it is overwritten.
	a := newTestAssembler()
	a.PrepareTailCall(4, 2)

	m := interpreter.New(1024)
	m.SetReg(asm.RegSP, 400)
	m.SetReg(asm.RegFP, 416)
	binary.LittleEndian.PutUint64(m.Mem[416:], 0xAAAA) // caller fp
	binary.LittleEndian.PutUint64(m.Mem[424:], 0xBBBB) // return address
	binary.LittleEndian.PutUint64(m.Mem[400:], 0x111)  // stack param 0
	binary.LittleEndian.PutUint64(m.Mem[408:], 0x222)  // stack param 1
	m.Run(a.Instructions())

	require.Equal(t, uint64(0xAAAA), m.Reg(asm.RegFP))
	require.Equal(t, uint64(0xBBBB), m.Reg(asm.RegRA))
	require.Equal(t, uint64(416), m.SP())

	// The param slots shifted up by stackParamDelta*8 = 16 bytes.
	require.Equal(t, uint64(0x111), binary.LittleEndian.Uint64(m.Mem[416:]))
	require.Equal(t, uint64(0x222), binary.LittleEndian.Uint64(m.Mem[424:]))
	require.Equal(t, uint64(0xAAAA), binary.LittleEndian.Uint64(m.Mem[432:]))
	require.Equal(t, uint64(0xBBBB), binary.LittleEndian.Uint64(m.Mem[440:]))
}
