package astcruntime

import (
	"fmt"
	"math"
	"strconv"
)

// Tag identifies the payload shape of a TaggedValue.
// All marshaling decisions are tag-driven, never inferred from payload bits.
type Tag uint8

const (
	TagVoid Tag = iota
	TagInt32
	TagInt64
	TagFloat32
	TagFloat64
	TagPointer
	TagString
)

// String returns the lowercase tag name.
func (t Tag) String() string {
	switch t {
	case TagVoid:
		return "void"
	case TagInt32:
		return "i32"
	case TagInt64:
		return "i64"
	case TagFloat32:
		return "f32"
	case TagFloat64:
		return "f64"
	case TagPointer:
		return "ptr"
	case TagString:
		return "string"
	default:
		return "tag(" + strconv.Itoa(int(t)) + ")"
	}
}

// Valid reports whether t is one of the defined tags.
func (t Tag) Valid() bool {
	return t <= TagString
}

// Handle is an opaque capability reference to a native value held in a
// resource table. Raw addresses never cross the bytecode/native boundary;
// pointer-tagged values carry a Handle instead. Handle 0 is always invalid.
type Handle uint32

// TaggedValue is the closed variant exchanged between bytecode and native
// code. The tag is fixed at construction; accessors refuse mismatched tags.
type TaggedValue struct {
	str  string
	bits uint64
	tag  Tag
}

// Void returns the void value.
func Void() TaggedValue {
	return TaggedValue{tag: TagVoid}
}

// Int32 constructs an i32 value.
func Int32(v int32) TaggedValue {
	return TaggedValue{tag: TagInt32, bits: uint64(uint32(v))}
}

// Int64 constructs an i64 value.
func Int64(v int64) TaggedValue {
	return TaggedValue{tag: TagInt64, bits: uint64(v)}
}

// Float32 constructs an f32 value.
func Float32(v float32) TaggedValue {
	return TaggedValue{tag: TagFloat32, bits: uint64(math.Float32bits(v))}
}

// Float64 constructs an f64 value.
func Float64(v float64) TaggedValue {
	return TaggedValue{tag: TagFloat64, bits: math.Float64bits(v)}
}

// Pointer constructs a pointer value carrying a resource handle.
func Pointer(h Handle) TaggedValue {
	return TaggedValue{tag: TagPointer, bits: uint64(h)}
}

// String constructs a string value.
func String(s string) TaggedValue {
	return TaggedValue{tag: TagString, str: s}
}

// Tag returns the value's tag.
func (v TaggedValue) Tag() Tag { return v.tag }

// IsVoid reports whether the value carries no payload.
func (v TaggedValue) IsVoid() bool { return v.tag == TagVoid }

// AsInt32 returns the i32 payload, or false if the tag differs.
func (v TaggedValue) AsInt32() (int32, bool) {
	if v.tag != TagInt32 {
		return 0, false
	}
	return int32(uint32(v.bits)), true
}

// AsInt64 returns the i64 payload, or false if the tag differs.
func (v TaggedValue) AsInt64() (int64, bool) {
	if v.tag != TagInt64 {
		return 0, false
	}
	return int64(v.bits), true
}

// AsFloat32 returns the f32 payload, or false if the tag differs.
func (v TaggedValue) AsFloat32() (float32, bool) {
	if v.tag != TagFloat32 {
		return 0, false
	}
	return math.Float32frombits(uint32(v.bits)), true
}

// AsFloat64 returns the f64 payload, or false if the tag differs.
func (v TaggedValue) AsFloat64() (float64, bool) {
	if v.tag != TagFloat64 {
		return 0, false
	}
	return math.Float64frombits(v.bits), true
}

// AsPointer returns the handle payload, or false if the tag differs.
func (v TaggedValue) AsPointer() (Handle, bool) {
	if v.tag != TagPointer {
		return 0, false
	}
	return Handle(v.bits), true
}

// AsString returns the string payload, or false if the tag differs.
func (v TaggedValue) AsString() (string, bool) {
	if v.tag != TagString {
		return "", false
	}
	return v.str, true
}

// Bits returns the raw payload bits. Tag-blind; intended for marshaling
// layers that have already validated the tag.
func (v TaggedValue) Bits() uint64 { return v.bits }

// String implements fmt.Stringer for diagnostics.
func (v TaggedValue) String() string {
	switch v.tag {
	case TagVoid:
		return "void"
	case TagInt32:
		n, _ := v.AsInt32()
		return fmt.Sprintf("i32(%d)", n)
	case TagInt64:
		n, _ := v.AsInt64()
		return fmt.Sprintf("i64(%d)", n)
	case TagFloat32:
		f, _ := v.AsFloat32()
		return fmt.Sprintf("f32(%g)", f)
	case TagFloat64:
		f, _ := v.AsFloat64()
		return fmt.Sprintf("f64(%g)", f)
	case TagPointer:
		return fmt.Sprintf("ptr(#%d)", v.bits)
	case TagString:
		return fmt.Sprintf("string(%q)", v.str)
	default:
		return "invalid"
	}
}
