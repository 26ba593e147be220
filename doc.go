// Package astcruntime provides the execution core of the ASTC three-layer
// stack: a bytecode interpreter, a dynamic .native module loader, a typed
// FFI bridge, and the inter-module dispatch layer they share.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	astc-runtime/        Root package with the TaggedValue and CallSignature contracts
//	├── runtime/         Owned context object wiring all subsystems together
//	├── vm/              ASTC bytecode interpreter (stack machine)
//	├── bridge/          Typed marshaling boundary between bytecode and native calls
//	├── comm/            Interface registry and sync/async dispatch
//	├── loader/          Module registry, symbol resolution, dependency ordering
//	├── nativefmt/       .native module file format (header, exports, manifest)
//	├── engine/          wazero backend for modules carrying WebAssembly code
//	├── resource/        Capability handle table for pointer payloads
//	├── config/          TOML runtime configuration
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Create a runtime, load a module, and call through the bridge:
//
//	rt, err := runtime.New(ctx, config.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	rt.RegisterFunc("mathlib", "add", comm.Func2(func(a, b comm.Value) comm.Value {
//	    return comm.I32Value(int32(a.Bits) + int32(b.Bits))
//	}))
//
//	if err := rt.LoadModule("mathlib", "bin/mathlib.native"); err != nil {
//	    log.Fatal(err)
//	}
//
//	sig := astcruntime.Signature(astcruntime.TagInt32,
//	    astcruntime.TagInt32, astcruntime.TagInt32)
//	if err := rt.Bridge().RegisterInterface("math.add", "mathlib", "add", sig); err != nil {
//	    log.Fatal(err)
//	}
//
//	var result astcruntime.TaggedValue
//	err = rt.Bridge().Call("math.add",
//	    []astcruntime.TaggedValue{astcruntime.Int32(15), astcruntime.Int32(27)}, &result)
//
// # Thread Safety
//
// Runtime registries serialize mutation internally. The VM is NOT
// thread-safe; each goroutine needs its own VM, or access must be
// synchronized externally.
package astcruntime
