package baseline

// Offset is a byte offset into a runtime data structure, or -1 if the field
// is absent in the current layout.
type Offset int32

// U32 encodes the offset as uint32 for instruction immediates.
func (o Offset) U32() uint32 { return uint32(o) }

// I64 encodes the offset as int64 for instruction immediates.
func (o Offset) I64() int64 { return int64(o) }

// Frame layout, fp-relative. The three slots below the saved ra/fp pair are
// fixed: a marker identifying the frame type, the instance pointer, and the
// feedback vector for tier-up counting.
const (
	FrameMarkerOffset         Offset = 8
	FrameInstanceOffset       Offset = 16
	FrameFeedbackVectorOffset Offset = 24

	// StaticFrameSize is the fixed part of every frame, before value spill
	// slots. Spill slot offsets start below this.
	StaticFrameSize = int(FrameFeedbackVectorOffset)
)

// FrameMarker tags a baseline wasm frame in the frame-marker slot.
const FrameMarker int64 = 0x8

// InstanceOffsets locates the fields of the instance object that generated
// code reads directly.
type InstanceOffsets struct {
	// RealStackLimitAddress points at the thread's true stack limit, past
	// the safety margin used for regular stack checks.
	RealStackLimitAddress Offset
	// StackLimitAddress points at the stack limit with margin.
	StackLimitAddress Offset
	// Memory0Start and Memory0Size describe linear memory zero.
	Memory0Start Offset
	Memory0Size  Offset
}

// NewInstanceOffsets returns the layout used by the runtime.
func NewInstanceOffsets() InstanceOffsets {
	return InstanceOffsets{
		RealStackLimitAddress: 16,
		StackLimitAddress:     24,
		Memory0Start:          32,
		Memory0Size:           40,
	}
}
