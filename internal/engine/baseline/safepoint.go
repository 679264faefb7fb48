package baseline

import "sort"

// Safepoint records, for one call site, which frame slots hold tagged
// (garbage-collected) values at the moment execution can stop there.
type Safepoint struct {
	// PC is the byte offset of the instruction after the call.
	PC int
	// TaggedSlots are frame slot indices, sorted ascending.
	TaggedSlots []int
}

// DefineTaggedSlot marks slot as holding a tagged value. Duplicate slots
// collapse to one entry.
func (s *Safepoint) DefineTaggedSlot(slot int) {
	for _, existing := range s.TaggedSlots {
		if existing == slot {
			return
		}
	}
	s.TaggedSlots = append(s.TaggedSlots, slot)
	sort.Ints(s.TaggedSlots)
}

// SafepointTableBuilder collects safepoints during code emission. The
// finished table is consumed by the embedder's stack walker.
type SafepointTableBuilder struct {
	safepoints []*Safepoint
}

// DefineSafepoint opens a new safepoint at pc and returns it for tagged-slot
// registration. Safepoints must be defined in ascending pc order.
func (b *SafepointTableBuilder) DefineSafepoint(pc int) *Safepoint {
	if n := len(b.safepoints); n > 0 && b.safepoints[n-1].PC >= pc {
		panic("safepoints must be defined in ascending pc order")
	}
	sp := &Safepoint{PC: pc}
	b.safepoints = append(b.safepoints, sp)
	return sp
}

// Safepoints returns all safepoints defined so far, in pc order.
func (b *SafepointTableBuilder) Safepoints() []*Safepoint { return b.safepoints }

// Reset clears the builder for reuse.
func (b *SafepointTableBuilder) Reset() { b.safepoints = b.safepoints[:0] }
