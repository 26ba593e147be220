package engine

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/astcvm/astc-runtime/comm"
	"github.com/astcvm/astc-runtime/errors"
	"github.com/astcvm/astc-runtime/loader"
	"github.com/astcvm/astc-runtime/nativefmt"
)

// Instance is one live wasm module.
type Instance struct {
	module api.Module
}

// Target wraps the named export as a dispatch target. Arity comes from
// the wasm type signature; parameters and the result travel as raw word
// bits, strings being a host-side concern the engine does not support.
func (i *Instance) Target(ctx context.Context, symbol string) (comm.Target, error) {
	fn := i.module.ExportedFunction(symbol)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseResolve, "wasm export", symbol)
	}

	def := fn.Definition()
	arity := len(def.ParamTypes())
	if arity > comm.MaxArity {
		return nil, errors.Unsupported(errors.PhaseResolve,
			"wasm export "+symbol+" exceeds dispatch arity")
	}

	return &wasmTarget{ctx: ctx, fn: fn, arity: arity}, nil
}

type wasmTarget struct {
	ctx   context.Context
	fn    api.Function
	arity int
}

func (t *wasmTarget) Arity() int { return t.arity }

func (t *wasmTarget) Invoke(args []comm.Value) (comm.Value, error) {
	raw := make([]uint64, len(args))
	for i, a := range args {
		if a.Stringy {
			return comm.Value{}, errors.Unsupported(errors.PhaseDispatch,
				"string argument into wasm export")
		}
		raw[i] = a.Bits
	}

	out, err := t.fn.Call(t.ctx, raw...)
	if err != nil {
		return comm.Value{}, err
	}
	if len(out) == 0 {
		return comm.Value{}, nil
	}
	return comm.Word(out[0]), nil
}

// Binder adapts the engine to the loader: modules whose code section is a
// wasm binary get instantiated on first resolution and their exports
// bound as targets.
func (e *Engine) Binder(ctx context.Context) loader.Binder {
	return loader.BinderFunc(func(m *loader.Module, export nativefmt.Export) (comm.Target, error) {
		inst, err := e.Instantiate(ctx, m.Name, m.File.Code)
		if err != nil {
			return nil, err
		}
		return inst.Target(ctx, export.Name)
	})
}
