package runtime

import (
	"context"
	"encoding/binary"
	"path/filepath"
	"testing"

	astcruntime "github.com/astcvm/astc-runtime"
	"github.com/astcvm/astc-runtime/comm"
	"github.com/astcvm/astc-runtime/config"
	"github.com/astcvm/astc-runtime/nativefmt"
	"github.com/astcvm/astc-runtime/vm"
)

func newRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New(context.Background(), config.Default(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rt.Close() })
	return rt
}

func writeUserModule(t *testing.T, name string, exports ...string) string {
	t.Helper()
	f := &nativefmt.File{
		Header: nativefmt.Header{
			Arch: nativefmt.ArchX8664,
			Type: nativefmt.ModuleUser,
		},
		Manifest: nativefmt.Manifest{Version: "1.0.0"},
		Code:     []byte{0xc3},
	}
	for i, sym := range exports {
		f.Exports = append(f.Exports, nativefmt.Export{
			Name: sym, Type: nativefmt.ExportFunction, Offset: uint64(i * 16), Size: 16,
		})
	}
	path := filepath.Join(t.TempDir(), name+".native")
	if err := nativefmt.EncodeFile(f, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEndToEndCall(t *testing.T) {
	rt := newRuntime(t)

	err := rt.RegisterFunc("mathlib", "add", comm.Func2(func(a, b comm.Value) (comm.Value, error) {
		return comm.Word(uint64(uint32(int32(a.Bits) + int32(b.Bits)))), nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.LoadModule("mathlib", writeUserModule(t, "mathlib", "add")); err != nil {
		t.Fatal(err)
	}

	sig := astcruntime.Signature(astcruntime.TagInt32, astcruntime.TagInt32, astcruntime.TagInt32)
	if err := rt.Bridge().RegisterInterface("math.add", "mathlib", "add", sig); err != nil {
		t.Fatal(err)
	}

	var result astcruntime.TaggedValue
	err = rt.Call("math.add",
		[]astcruntime.TaggedValue{astcruntime.Int32(15), astcruntime.Int32(27)}, &result)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if v, _ := result.AsInt32(); v != 42 {
		t.Errorf("result = %d, want 42", v)
	}
}

func TestBytecodeCallThroughBridge(t *testing.T) {
	rt := newRuntime(t)

	rt.RegisterFunc("mathlib", "add", comm.Func2(func(a, b comm.Value) (comm.Value, error) {
		return comm.Word(uint64(uint32(int32(a.Bits) + int32(b.Bits)))), nil
	}))
	rt.LoadModule("mathlib", writeUserModule(t, "mathlib", "add"))
	rt.Bridge().RegisterInterface("math.add", "mathlib", "add",
		astcruntime.Signature(astcruntime.TagInt32, astcruntime.TagInt32, astcruntime.TagInt32))

	// i32.const 15; i32.const 27; call [0](2 args); return
	var buf []byte
	emit := func(op vm.Opcode, operands ...uint32) {
		buf = append(buf, byte(op), byte(len(operands)))
		for _, w := range operands {
			var le [4]byte
			binary.LittleEndian.PutUint32(le[:], w)
			buf = append(buf, le[:]...)
		}
	}
	emit(vm.OpI32Const, 15)
	emit(vm.OpI32Const, 27)
	emit(vm.OpCall, 0, 2)
	emit(vm.OpReturn)

	v, sig, err := rt.Execute(buf, []string{"math.add"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if sig != vm.SignalReturn {
		t.Errorf("signal = %v", sig)
	}
	w, err := v.Pop()
	if err != nil || w != 42 {
		t.Fatalf("stack top = %d, %v", w, err)
	}
	if v.Capacity() != config.Default().StackCapacity {
		t.Errorf("vm capacity = %d", v.Capacity())
	}
}

func TestResolveRequiresRegisteredHostFunc(t *testing.T) {
	rt := newRuntime(t)
	rt.LoadModule("mathlib", writeUserModule(t, "mathlib", "add"))

	_, err := rt.Registry().ResolveSymbol("mathlib", "add")
	if err == nil {
		t.Fatal("resolved export with no host function")
	}
}

func TestUnloadFlagsInterfaces(t *testing.T) {
	rt := newRuntime(t)
	rt.RegisterFunc("mathlib", "add", comm.Func2(func(a, b comm.Value) (comm.Value, error) {
		return comm.Word(a.Bits + b.Bits), nil
	}))
	rt.LoadModule("mathlib", writeUserModule(t, "mathlib", "add"))
	rt.Bridge().RegisterInterface("math.add", "mathlib", "add",
		astcruntime.Signature(astcruntime.TagInt32, astcruntime.TagInt32, astcruntime.TagInt32))

	if err := rt.UnloadModule("mathlib"); err != nil {
		t.Fatal(err)
	}
	if rt.Registry().Len() != 0 {
		t.Error("module still in registry")
	}

	in, ok := rt.Bridge().Lookup("math.add")
	if !ok {
		t.Fatal("interface removed on unload")
	}
	if in.Active {
		t.Error("interface still active after unload")
	}

	var result astcruntime.TaggedValue
	err := rt.Call("math.add",
		[]astcruntime.TaggedValue{astcruntime.Int32(1), astcruntime.Int32(2)}, &result)
	if err != nil {
		t.Fatalf("call after unload: %v", err)
	}
}

func TestTwoRuntimesShareNothing(t *testing.T) {
	a := newRuntime(t)
	b := newRuntime(t)

	a.RegisterFunc("m", "f", comm.Func0(func() (comm.Value, error) { return comm.Word(1), nil }))
	a.LoadModule("m", writeUserModule(t, "m", "f"))
	a.Bridge().RegisterHostInterface("only.a",
		astcruntime.Signature(astcruntime.TagInt32),
		comm.Func0(func() (comm.Value, error) { return comm.Word(1), nil }))

	if _, ok := b.Bridge().Lookup("only.a"); ok {
		t.Error("interface leaked across runtimes")
	}
	if b.Registry().Len() != 0 {
		t.Error("module leaked across runtimes")
	}
}
