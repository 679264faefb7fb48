package baseline

import (
	"math/bits"
	"strings"

	"github.com/wasmkit/rivet/internal/asm/riscv"
)

// RegSet is a bit set over the flat register space. It is a value type;
// mutation goes through pointer receivers, everything else copies.
type RegSet [2]uint64

// NewRegSet returns a set containing the given registers.
func NewRegSet(regs ...riscv.Reg) RegSet {
	var s RegSet
	for _, r := range regs {
		s.Set(r)
	}
	return s
}

// Set adds r to the set.
func (s *RegSet) Set(r riscv.Reg) { s[r>>6] |= 1 << (r & 63) }

// Clear removes r from the set.
func (s *RegSet) Clear(r riscv.Reg) { s[r>>6] &^= 1 << (r & 63) }

// Has reports whether r is in the set.
func (s RegSet) Has(r riscv.Reg) bool { return s[r>>6]&(1<<(r&63)) != 0 }

// IsEmpty reports whether the set contains no registers.
func (s RegSet) IsEmpty() bool { return s[0] == 0 && s[1] == 0 }

// Count returns the number of registers in the set.
func (s RegSet) Count() int { return bits.OnesCount64(s[0]) + bits.OnesCount64(s[1]) }

// Union returns the union of s and o.
func (s RegSet) Union(o RegSet) RegSet { return RegSet{s[0] | o[0], s[1] | o[1]} }

// GPSubset returns the integer registers in the set.
func (s RegSet) GPSubset() RegSet {
	out := s
	out.filter(riscv.Reg.IsGP)
	return out
}

// FPSubset returns the scalar float registers in the set.
func (s RegSet) FPSubset() RegSet {
	out := s
	out.filter(riscv.Reg.IsFP)
	return out
}

// VecSubset returns the vector registers in the set.
func (s RegSet) VecSubset() RegSet {
	out := s
	out.filter(riscv.Reg.IsVec)
	return out
}

func (s *RegSet) filter(keep func(riscv.Reg) bool) {
	for r := s.First(); r != riscv.RegInvalid; r = s.nextAfter(r) {
		if !keep(r) {
			s.Clear(r)
		}
	}
}

// First returns the lowest-numbered register in the set, or RegInvalid.
func (s RegSet) First() riscv.Reg {
	if s[0] != 0 {
		return riscv.Reg(bits.TrailingZeros64(s[0]))
	}
	if s[1] != 0 {
		return riscv.Reg(64 + bits.TrailingZeros64(s[1]))
	}
	return riscv.RegInvalid
}

// Last returns the highest-numbered register in the set, or RegInvalid.
func (s RegSet) Last() riscv.Reg {
	if s[1] != 0 {
		return riscv.Reg(127 - bits.LeadingZeros64(s[1]))
	}
	if s[0] != 0 {
		return riscv.Reg(63 - bits.LeadingZeros64(s[0]))
	}
	return riscv.RegInvalid
}

func (s RegSet) nextAfter(r riscv.Reg) riscv.Reg {
	masked := s
	for i := riscv.Reg(0); i <= r; i++ {
		masked.Clear(i)
	}
	return masked.First()
}

// Ascending calls fn for each register in the set, lowest first.
func (s RegSet) Ascending(fn func(riscv.Reg)) {
	for r := s.First(); r != riscv.RegInvalid; r = s.nextAfter(r) {
		fn(r)
	}
}

// Descending calls fn for each register in the set, highest first.
func (s RegSet) Descending(fn func(riscv.Reg)) {
	var rev []riscv.Reg
	s.Ascending(func(r riscv.Reg) { rev = append(rev, r) })
	for i := len(rev) - 1; i >= 0; i-- {
		fn(rev[i])
	}
}

// String implements fmt.Stringer.
func (s RegSet) String() string {
	var names []string
	s.Ascending(func(r riscv.Reg) { names = append(names, r.String()) })
	return "{" + strings.Join(names, ", ") + "}"
}
