package baseline

// Cond is a portable comparison condition as it appears in wasm compare and
// branch opcodes. The machine layer maps it onto branch or set-condition
// sequences.
type Cond uint8

const (
	Equal Cond = iota
	NotEqual
	LessThan
	LessThanEqual
	GreaterThan
	GreaterThanEqual
	UnsignedLessThan
	UnsignedLessThanEqual
	UnsignedGreaterThan
	UnsignedGreaterThanEqual

	numConds
)

var condNames = [numConds]string{
	Equal:                    "eq",
	NotEqual:                 "ne",
	LessThan:                 "lt_s",
	LessThanEqual:            "le_s",
	GreaterThan:              "gt_s",
	GreaterThanEqual:         "ge_s",
	UnsignedLessThan:         "lt_u",
	UnsignedLessThanEqual:    "le_u",
	UnsignedGreaterThan:      "gt_u",
	UnsignedGreaterThanEqual: "ge_u",
}

// String implements fmt.Stringer.
func (c Cond) String() string { return condNames[c] }

// IsSigned reports whether the condition compares as signed. Equality
// conditions count as signed here; sign does not change their meaning.
func (c Cond) IsSigned() bool { return c < UnsignedLessThan }

// Negate returns the condition that holds exactly when c does not.
func (c Cond) Negate() Cond {
	switch c {
	case Equal:
		return NotEqual
	case NotEqual:
		return Equal
	case LessThan:
		return GreaterThanEqual
	case LessThanEqual:
		return GreaterThan
	case GreaterThan:
		return LessThanEqual
	case GreaterThanEqual:
		return LessThan
	case UnsignedLessThan:
		return UnsignedGreaterThanEqual
	case UnsignedLessThanEqual:
		return UnsignedGreaterThan
	case UnsignedGreaterThan:
		return UnsignedLessThanEqual
	case UnsignedGreaterThanEqual:
		return UnsignedLessThan
	}
	panic("invalid condition")
}

// Flip returns the condition with the operands swapped, so that
// `a c b` equals `b c.Flip() a`.
func (c Cond) Flip() Cond {
	switch c {
	case Equal, NotEqual:
		return c
	case LessThan:
		return GreaterThan
	case LessThanEqual:
		return GreaterThanEqual
	case GreaterThan:
		return LessThan
	case GreaterThanEqual:
		return LessThanEqual
	case UnsignedLessThan:
		return UnsignedGreaterThan
	case UnsignedLessThanEqual:
		return UnsignedGreaterThanEqual
	case UnsignedGreaterThan:
		return UnsignedLessThan
	case UnsignedGreaterThanEqual:
		return UnsignedLessThanEqual
	}
	panic("invalid condition")
}
