package runtime

import (
	"context"

	"go.uber.org/zap"

	astcruntime "github.com/astcvm/astc-runtime"
	"github.com/astcvm/astc-runtime/bridge"
	"github.com/astcvm/astc-runtime/comm"
	"github.com/astcvm/astc-runtime/config"
	"github.com/astcvm/astc-runtime/engine"
	"github.com/astcvm/astc-runtime/loader"
	"github.com/astcvm/astc-runtime/nativefmt"
	"github.com/astcvm/astc-runtime/resource"
	"github.com/astcvm/astc-runtime/vm"
)

// Runtime owns one complete execution context: the module registry, the
// dispatcher, the bridge with its resource table, the wasm engine, and
// the host function registry. Nothing is process-global; two Runtimes
// share no state.
type Runtime struct {
	cfg        config.Config
	logger     *zap.Logger
	registry   *loader.Registry
	dispatcher *comm.Dispatcher
	bridge     *bridge.Bridge
	resources  *resource.Table
	engine     *engine.Engine
	hosts      *HostRegistry
	ctx        context.Context
}

// Options tunes construction beyond the file-loadable config.
type Options struct {
	// Executor replaces the dispatcher's inline executor.
	Executor comm.Executor

	// Logger overrides the logger built from cfg.LogLevel.
	Logger *zap.Logger
}

// New builds a runtime from configuration. The context is retained for
// engine operations that outlive New, so it should stay valid until
// Close.
func New(ctx context.Context, cfg config.Config, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = cfg.NewLogger()
		if err != nil {
			return nil, err
		}
	}

	loader.SetLogger(logger.Named("loader"))
	comm.SetLogger(logger.Named("comm"))
	bridge.SetLogger(logger.Named("bridge"))
	vm.SetLogger(logger.Named("vm"))
	engine.SetLogger(logger.Named("engine"))

	resources := resource.NewTable(cfg.MaxResources)
	dispatcher := comm.NewDispatcher(comm.Options{
		Executor:      opts.Executor,
		MaxInterfaces: cfg.MaxInterfaces,
		MaxPending:    cfg.MaxPending,
	})
	registry := loader.NewRegistry(loader.Options{
		ModuleDir:  cfg.ModuleDir,
		MaxModules: cfg.MaxModules,
	})
	eng := engine.New(ctx, engine.Config{MemoryLimitPages: cfg.WasmMemoryPages})
	hosts := NewHostRegistry()

	registry.RegisterBinder(nativefmt.ModuleVM, eng.Binder(ctx))
	registry.RegisterBinder(nativefmt.ModuleUser, hosts)
	registry.RegisterBinder(nativefmt.ModuleLibc, hosts)

	b := bridge.New(registry, dispatcher, resources, bridge.Options{
		MaxInterfaces: cfg.MaxInterfaces,
	})

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		dispatcher: dispatcher,
		bridge:     b,
		resources:  resources,
		engine:     eng,
		hosts:      hosts,
		ctx:        ctx,
	}, nil
}

// Close releases the engine, the resource table, and flushes the logger.
func (r *Runtime) Close() error {
	err := r.engine.Close(r.ctx)
	if cerr := r.resources.Close(); err == nil {
		err = cerr
	}
	_ = r.logger.Sync()
	return err
}

// Registry returns the module registry.
func (r *Runtime) Registry() *loader.Registry { return r.registry }

// Bridge returns the typed call bridge.
func (r *Runtime) Bridge() *bridge.Bridge { return r.bridge }

// Dispatcher returns the communication dispatcher.
func (r *Runtime) Dispatcher() *comm.Dispatcher { return r.dispatcher }

// Hosts returns the host function registry.
func (r *Runtime) Hosts() *HostRegistry { return r.hosts }

// Logger returns the runtime's logger.
func (r *Runtime) Logger() *zap.Logger { return r.logger }

// RegisterFunc binds a Go function to a module export, making it
// resolvable once that module loads.
func (r *Runtime) RegisterFunc(module, symbol string, target comm.Target) error {
	return r.hosts.RegisterFunc(module, symbol, target)
}

// LoadModule loads a single module file.
func (r *Runtime) LoadModule(name, path string) (*loader.Module, error) {
	return r.registry.Load(name, path)
}

// LoadModules loads a batch in dependency order; see loader.LoadOrdered.
func (r *Runtime) LoadModules(paths map[string]string) ([]string, error) {
	return r.registry.LoadOrdered(paths)
}

// UnloadModule removes a module. Interfaces already bound to it stay
// callable but are flagged inactive.
func (r *Runtime) UnloadModule(name string) error {
	if err := r.registry.Unload(name); err != nil {
		return err
	}
	r.bridge.NoteModuleUnloaded(name)
	r.engine.Release(r.ctx, name)
	return nil
}

// AutoLoad loads the configured auto-load list from the module directory,
// falling back to the platform module set when the list is empty. Returns
// how many loaded.
func (r *Runtime) AutoLoad() int {
	if len(r.cfg.AutoLoad) > 0 {
		return r.registry.AutoLoadNamed(r.cfg.AutoLoad)
	}
	return r.registry.AutoLoadPlatformModules()
}

// NewVM creates an interpreter wired to this runtime's bridge. The name
// table maps call instruction operands to interface names.
func (r *Runtime) NewVM(names []string) *vm.VM {
	v := vm.New(r.cfg.StackCapacity)
	v.SetCaller(r.bridge)
	v.SetNameTable(names)
	return v
}

// Execute runs a bytecode buffer on a fresh VM and returns it for state
// inspection.
func (r *Runtime) Execute(buf []byte, names []string) (*vm.VM, vm.Signal, error) {
	v := r.NewVM(names)
	sig, err := v.ExecuteBytecode(buf)
	return v, sig, err
}

// Call invokes a bridge interface directly.
func (r *Runtime) Call(name string, args []astcruntime.TaggedValue, result *astcruntime.TaggedValue) error {
	return r.bridge.Call(name, args, result)
}
