package baseline

import "fmt"

// BailoutKind classifies why the baseline compiler gave up on a function.
// A bailout is not a bug; it hands the function to a slower tier.
type BailoutKind uint8

const (
	// BailoutSIMD means the vector unit is unavailable or an opcode needs a
	// vector lowering this tier does not have.
	BailoutSIMD BailoutKind = iota
	// BailoutRelaxedSIMD covers relaxed-simd opcodes with no single-pass
	// lowering on this target.
	BailoutRelaxedSIMD
	// BailoutUnsupported covers everything else the baseline tier does not
	// implement.
	BailoutUnsupported
)

var bailoutKindNames = [...]string{
	BailoutSIMD:        "simd",
	BailoutRelaxedSIMD: "relaxed simd",
	BailoutUnsupported: "unsupported",
}

// String implements fmt.Stringer.
func (k BailoutKind) String() string { return bailoutKindNames[k] }

// BailoutError aborts baseline compilation of one function.
type BailoutError struct {
	Kind   BailoutKind
	Detail string
}

// Error implements error.
func (e *BailoutError) Error() string {
	return fmt.Sprintf("baseline compiler bailout (%s): %s", e.Kind, e.Detail)
}

// NewBailout returns a BailoutError with the given kind and detail.
func NewBailout(kind BailoutKind, detail string) *BailoutError {
	return &BailoutError{Kind: kind, Detail: detail}
}
