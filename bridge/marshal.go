package bridge

import (
	"math"
	"strconv"

	astcruntime "github.com/astcvm/astc-runtime"
	"github.com/astcvm/astc-runtime/comm"
	"github.com/astcvm/astc-runtime/errors"
)

// shapesFor maps a typed signature onto dispatch-layer slot shapes.
// Strings travel as string values, everything else as raw word bits.
func shapesFor(sig astcruntime.CallSignature) []comm.Shape {
	shapes := make([]comm.Shape, len(sig.Params))
	for i, p := range sig.Params {
		if p == astcruntime.TagString {
			shapes[i] = comm.ShapeString
		} else {
			shapes[i] = comm.ShapeWord
		}
	}
	return shapes
}

// marshalArgs packs tagged values for dispatch. Tags were already checked
// against the signature, so packing is mechanical.
func marshalArgs(args []astcruntime.TaggedValue) []comm.Value {
	out := make([]comm.Value, len(args))
	for i, a := range args {
		if s, ok := a.AsString(); ok {
			out[i] = comm.Str(s)
		} else {
			out[i] = comm.Word(a.Bits())
		}
	}
	return out
}

// unmarshalResult reinterprets a dispatch result under the declared return
// tag. The tag decides everything; payload bits are never sniffed.
func unmarshalResult(name string, ret astcruntime.Tag, v comm.Value) (astcruntime.TaggedValue, error) {
	wantString := ret == astcruntime.TagString
	if ret != astcruntime.TagVoid && wantString != v.Stringy {
		return astcruntime.Void(), errors.TypeMismatch(errors.PhaseBridge,
			[]string{name, "result"},
			ret.String(), v.Shape().String())
	}

	switch ret {
	case astcruntime.TagVoid:
		return astcruntime.Void(), nil
	case astcruntime.TagInt32:
		return astcruntime.Int32(int32(uint32(v.Bits))), nil
	case astcruntime.TagInt64:
		return astcruntime.Int64(int64(v.Bits)), nil
	case astcruntime.TagFloat32:
		return astcruntime.Float32(math.Float32frombits(uint32(v.Bits))), nil
	case astcruntime.TagFloat64:
		return astcruntime.Float64(math.Float64frombits(v.Bits)), nil
	case astcruntime.TagPointer:
		return astcruntime.Pointer(astcruntime.Handle(v.Bits)), nil
	case astcruntime.TagString:
		return astcruntime.String(v.Str), nil
	default:
		return astcruntime.Void(), errors.InvalidInput(errors.PhaseBridge,
			"unknown return tag "+strconv.Itoa(int(ret)))
	}
}

func argLabel(i int) string {
	return "arg" + strconv.Itoa(i)
}
