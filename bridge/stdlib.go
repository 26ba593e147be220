package bridge

import (
	"fmt"

	astcruntime "github.com/astcvm/astc-runtime"
	"github.com/astcvm/astc-runtime/comm"
	"github.com/astcvm/astc-runtime/errors"
	"github.com/astcvm/astc-runtime/resource"
)

// typeBuffer tags malloc'd buffers in the resource table.
const typeBuffer resource.TypeID = 1

// RegisterStdlib installs the conventional libc interface set under the
// given module name: printf, malloc, free, and strlen. The functions run
// on the host; malloc and free manage handles in the bridge's resource
// table rather than raw memory.
func (b *Bridge) RegisterStdlib(module string) error {
	type entry struct {
		symbol string
		sig    astcruntime.CallSignature
		target comm.Target
	}

	entries := []entry{
		{
			symbol: "printf",
			sig: astcruntime.Signature(astcruntime.TagInt32, astcruntime.TagString).
				WithDescription("write a string to standard output, returning bytes written"),
			target: comm.Func1(func(v comm.Value) (comm.Value, error) {
				n, err := fmt.Fprint(b.stdout, v.Str)
				if err != nil {
					return comm.Value{}, err
				}
				return comm.Word(uint64(uint32(int32(n)))), nil
			}),
		},
		{
			symbol: "malloc",
			sig: astcruntime.Signature(astcruntime.TagPointer, astcruntime.TagInt32).
				WithDescription("allocate a buffer, returning its handle"),
			target: comm.Func1(func(v comm.Value) (comm.Value, error) {
				size := int32(uint32(v.Bits))
				if size < 0 {
					return comm.Value{}, errors.InvalidInput(errors.PhaseBridge, "negative allocation size")
				}
				h, err := b.resources.Insert(typeBuffer, make([]byte, size))
				if err != nil {
					return comm.Value{}, err
				}
				return comm.Word(uint64(h)), nil
			}),
		},
		{
			symbol: "free",
			sig: astcruntime.Signature(astcruntime.TagVoid, astcruntime.TagPointer).
				WithDescription("release a buffer handle"),
			target: comm.Func1(func(v comm.Value) (comm.Value, error) {
				if _, ok := b.resources.Remove(resource.Handle(v.Bits)); !ok {
					return comm.Value{}, errors.NotFound(errors.PhaseBridge, "buffer handle", "")
				}
				return comm.Value{}, nil
			}),
		},
		{
			symbol: "strlen",
			sig: astcruntime.Signature(astcruntime.TagInt32, astcruntime.TagString).
				WithDescription("length of a string in bytes"),
			target: comm.Func1(func(v comm.Value) (comm.Value, error) {
				return comm.Word(uint64(uint32(len(v.Str)))), nil
			}),
		},
	}

	for _, e := range entries {
		name := module + "." + e.symbol
		if err := b.RegisterHostInterface(name, e.sig, e.target); err != nil {
			return err
		}
	}
	return nil
}
