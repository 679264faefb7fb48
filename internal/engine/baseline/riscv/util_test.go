package riscv

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/wasmkit/rivet/internal/asm/riscv/interpreter"
	"github.com/wasmkit/rivet/internal/engine/baseline"
)

func newTestAssembler() *Assembler {
	return New(baseline.DefaultConfig(), &baseline.SafepointTableBuilder{}, nil)
}

// textLines strips the pc column off the listing.
func textLines(a *Assembler) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimSuffix(a.Text(), "\n"), "\n") {
		_, instr, _ := strings.Cut(line, "  ")
		out = append(out, instr)
	}
	return out
}

// run executes the emitted stream on a fresh machine.
func run(a *Assembler, setup func(*interpreter.Machine)) *interpreter.Machine {
	m := interpreter.New(1024)
	if setup != nil {
		setup(m)
	}
	m.Run(a.Instructions())
	return m
}

func lanes8(vs ...uint8) [16]byte {
	var out [16]byte
	copy(out[:], vs)
	return out
}

func lanes16(vs ...uint16) [16]byte {
	var out [16]byte
	for i, v := range vs {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func lanes32(vs ...uint32) [16]byte {
	var out [16]byte
	for i, v := range vs {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

func lanes64(vs ...uint64) [16]byte {
	var out [16]byte
	for i, v := range vs {
		binary.LittleEndian.PutUint64(out[i*8:], v)
	}
	return out
}

func lanesF32(vs ...float32) [16]byte {
	var out [16]byte
	for i, v := range vs {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func lanesF64(vs ...float64) [16]byte {
	var out [16]byte
	for i, v := range vs {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}
