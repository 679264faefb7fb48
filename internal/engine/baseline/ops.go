package baseline

// Shape is a 128-bit vector interpretation: lane type and lane count.
type Shape uint8

const (
	I8x16 Shape = iota
	I16x8
	I32x4
	I64x2
	F32x4
	F64x2

	numShapes
)

var shapeNames = [numShapes]string{
	I8x16: "i8x16",
	I16x8: "i16x8",
	I32x4: "i32x4",
	I64x2: "i64x2",
	F32x4: "f32x4",
	F64x2: "f64x2",
}

// String implements fmt.Stringer.
func (s Shape) String() string { return shapeNames[s] }

// LaneCount returns the number of lanes in a 128-bit vector of this shape.
func (s Shape) LaneCount() int {
	switch s {
	case I8x16:
		return 16
	case I16x8:
		return 8
	case I32x4, F32x4:
		return 4
	case I64x2, F64x2:
		return 2
	}
	panic("invalid shape")
}

// LaneBits returns the width of one lane in bits.
func (s Shape) LaneBits() int { return 128 / s.LaneCount() }

// IsFloat reports whether lanes are floating point.
func (s Shape) IsFloat() bool { return s == F32x4 || s == F64x2 }

// Widened returns the shape with lanes twice as wide, as produced by the
// widening multiplies and pairwise adds.
func (s Shape) Widened() Shape {
	switch s {
	case I8x16:
		return I16x8
	case I16x8:
		return I32x4
	case I32x4:
		return I64x2
	}
	panic("shape has no widened form")
}

// Narrowed returns the shape with lanes half as wide.
func (s Shape) Narrowed() Shape {
	switch s {
	case I16x8:
		return I8x16
	case I32x4:
		return I16x8
	case I64x2:
		return I32x4
	}
	panic("shape has no narrowed form")
}

// VecIntBinOp selects an integer lane-wise binary operation.
type VecIntBinOp uint8

const (
	VecAdd VecIntBinOp = iota
	VecSub
	VecMul
	VecAnd
	VecOr
	VecXor
	VecAddSatS
	VecAddSatU
	VecSubSatS
	VecSubSatU
	VecMinS
	VecMinU
	VecMaxS
	VecMaxU
	VecQ15MulRSatS
)

// VecFloatBinOp selects a float lane-wise binary operation.
type VecFloatBinOp uint8

const (
	VecFAdd VecFloatBinOp = iota
	VecFSub
	VecFMul
	VecFDiv
)

// ShiftKind selects a lane-wise shift.
type ShiftKind uint8

const (
	ShiftLeft ShiftKind = iota
	ShiftRightS
	ShiftRightU
)

// FloatBinOp selects a scalar float binary operation.
type FloatBinOp uint8

const (
	FloatAdd FloatBinOp = iota
	FloatSub
	FloatMul
	FloatDiv
	FloatCopysign
)

// FloatUnOp selects a scalar float unary operation.
type FloatUnOp uint8

const (
	FloatAbs FloatUnOp = iota
	FloatNeg
	FloatSqrt
)

// RoundKind selects a rounding direction for the *.ceil/floor/trunc/nearest
// family, scalar and vector alike.
type RoundKind uint8

const (
	RoundCeil RoundKind = iota
	RoundFloor
	RoundTrunc
	RoundNearest
)

var roundNames = [...]string{
	RoundCeil:    "ceil",
	RoundFloor:   "floor",
	RoundTrunc:   "trunc",
	RoundNearest: "nearest",
}

// String implements fmt.Stringer.
func (k RoundKind) String() string { return roundNames[k] }

// SmiCheckMode picks which way a small-integer tag check branches.
type SmiCheckMode uint8

const (
	JumpOnSmi SmiCheckMode = iota
	JumpOnNotSmi
)
