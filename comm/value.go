package comm

// Shape classifies an argument slot at the dispatch layer. Dispatch knows
// only whether a slot carries word bits or a string; full type tags live a
// layer up in the bridge.
type Shape uint8

const (
	ShapeWord Shape = iota
	ShapeString
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeWord:
		return "word"
	case ShapeString:
		return "string"
	default:
		return "shape(?)"
	}
}

// Value is the untyped payload moved through dispatch: either 64 raw bits
// or a string. The bridge packs typed values into these and unpacks results.
type Value struct {
	Str     string
	Bits    uint64
	Stringy bool
}

// Word wraps raw bits.
func Word(bits uint64) Value {
	return Value{Bits: bits}
}

// Str wraps a string.
func Str(s string) Value {
	return Value{Str: s, Stringy: true}
}

// Shape returns the slot shape this value occupies.
func (v Value) Shape() Shape {
	if v.Stringy {
		return ShapeString
	}
	return ShapeWord
}
