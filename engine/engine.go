package engine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/astcvm/astc-runtime/errors"
)

// Config holds configuration for engine creation.
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages
	// (64KB each). 0 means the wazero default.
	MemoryLimitPages uint32
}

// Engine executes module bodies that are WebAssembly binaries. It wraps a
// single wazero runtime; instances are cached per module name.
type Engine struct {
	runtime   wazero.Runtime
	instances map[string]*Instance
	mu        sync.Mutex
}

// New creates an engine.
func New(ctx context.Context, cfg Config) *Engine {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	return &Engine{
		runtime:   wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		instances: make(map[string]*Instance),
	}
}

// IsWasm reports whether code starts with the wasm magic.
func IsWasm(code []byte) bool {
	return len(code) >= 4 &&
		code[0] == 0x00 && code[1] == 0x61 && code[2] == 0x73 && code[3] == 0x6d
}

// Instantiate compiles and instantiates a wasm binary under name,
// returning the cached instance on repeated calls.
func (e *Engine) Instantiate(ctx context.Context, name string, code []byte) (*Instance, error) {
	e.mu.Lock()
	if inst, ok := e.instances[name]; ok {
		e.mu.Unlock()
		return inst, nil
	}
	e.mu.Unlock()

	if !IsWasm(code) {
		return nil, errors.InvalidInput(errors.PhaseLoad, "module body is not a wasm binary")
	}

	compiled, err := e.runtime.CompileModule(ctx, code)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindStructural, err, "compile wasm module "+name)
	}

	mod, err := e.runtime.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindRuntime, err, "instantiate wasm module "+name)
	}

	inst := &Instance{module: mod}

	e.mu.Lock()
	if racing, ok := e.instances[name]; ok {
		e.mu.Unlock()
		mod.Close(ctx)
		return racing, nil
	}
	e.instances[name] = inst
	e.mu.Unlock()

	Logger().Info("wasm module instantiated", zap.String("module", name))
	return inst, nil
}

// Release drops the cached instance for name, if any.
func (e *Engine) Release(ctx context.Context, name string) {
	e.mu.Lock()
	inst, ok := e.instances[name]
	if ok {
		delete(e.instances, name)
	}
	e.mu.Unlock()

	if ok {
		inst.module.Close(ctx)
	}
}

// Close shuts the engine and every instance down.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.instances = make(map[string]*Instance)
	e.mu.Unlock()
	return e.runtime.Close(ctx)
}
