package bridge

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	astcruntime "github.com/astcvm/astc-runtime"
	"github.com/astcvm/astc-runtime/comm"
	"github.com/astcvm/astc-runtime/errors"
	"github.com/astcvm/astc-runtime/loader"
	"github.com/astcvm/astc-runtime/resource"
)

// DefaultMaxInterfaces bounds a bridge created with zero options.
const DefaultMaxInterfaces = 256

// Options configures a Bridge.
type Options struct {
	// Stdout receives printf output from the stdlib interface set.
	// Nil means os.Stdout.
	Stdout io.Writer

	// MaxInterfaces bounds the interface registry. Zero means
	// DefaultMaxInterfaces.
	MaxInterfaces int
}

// NativeInterface is one registered typed interface. The target was bound
// through the loader at registration time; Active goes false when the
// providing module unloads, though the binding itself keeps working.
type NativeInterface struct {
	Name      string
	Module    string
	Symbol    string
	Signature astcruntime.CallSignature
	target    comm.Target
	Active    bool
}

// Bridge is the typed boundary between bytecode and native code. Every
// interface declares a full CallSignature, and Call enforces it exactly:
// no coercion, no variadics, no partial application.
type Bridge struct {
	interfaces map[string]*NativeInterface
	registry   *loader.Registry
	dispatcher *comm.Dispatcher
	resources  *resource.Table
	stdout     io.Writer
	maxIfaces  int
	mu         sync.Mutex
}

// New creates a bridge over a module registry, a dispatcher, and a
// resource table.
func New(registry *loader.Registry, dispatcher *comm.Dispatcher, resources *resource.Table, opts Options) *Bridge {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.MaxInterfaces <= 0 {
		opts.MaxInterfaces = DefaultMaxInterfaces
	}
	return &Bridge{
		interfaces: make(map[string]*NativeInterface),
		registry:   registry,
		dispatcher: dispatcher,
		resources:  resources,
		stdout:     opts.Stdout,
		maxIfaces:  opts.MaxInterfaces,
	}
}

// Resources returns the bridge's resource table.
func (b *Bridge) Resources() *resource.Table {
	return b.resources
}

// RegisterInterface binds name to the exported symbol of a loaded module
// under the given signature. Resolution happens now, so a bad module or
// symbol fails registration rather than the first call. Re-registering a
// name overwrites it with a warning.
func (b *Bridge) RegisterInterface(name, module, symbol string, sig astcruntime.CallSignature) error {
	target, err := b.registry.ResolveSymbol(module, symbol)
	if err != nil {
		return errors.Registration(errors.PhaseBridge, name, err)
	}
	return b.register(name, module, symbol, sig, target)
}

// RegisterHostInterface binds name directly to a dispatch target without
// going through the loader. The stdlib set and engine-internal helpers
// use this.
func (b *Bridge) RegisterHostInterface(name string, sig astcruntime.CallSignature, target comm.Target) error {
	return b.register(name, "", "", sig, target)
}

func (b *Bridge) register(name, module, symbol string, sig astcruntime.CallSignature, target comm.Target) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseBridge, "empty interface name")
	}
	if err := sig.Validate(); err != nil {
		return errors.Registration(errors.PhaseBridge, name, err)
	}
	if len(sig.Params) != target.Arity() {
		return errors.ArgCountMismatch(errors.PhaseBridge, name, target.Arity(), len(sig.Params))
	}

	b.mu.Lock()
	if _, exists := b.interfaces[name]; exists {
		Logger().Warn("overwriting registered interface", zap.String("interface", name))
	} else if len(b.interfaces) >= b.maxIfaces {
		b.mu.Unlock()
		return errors.Capacity(errors.PhaseBridge, "interface registry", b.maxIfaces)
	}
	b.interfaces[name] = &NativeInterface{
		Name:      name,
		Module:    module,
		Symbol:    symbol,
		Signature: sig,
		target:    target,
		Active:    true,
	}
	b.mu.Unlock()

	if err := b.dispatcher.RegisterInterface(name, target, shapesFor(sig)...); err != nil {
		b.mu.Lock()
		delete(b.interfaces, name)
		b.mu.Unlock()
		return err
	}

	Logger().Debug("interface registered",
		zap.String("interface", name),
		zap.String("module", module),
		zap.String("signature", sig.String()))
	return nil
}

// UnregisterInterface removes a binding from the bridge and the
// dispatcher.
func (b *Bridge) UnregisterInterface(name string) error {
	b.mu.Lock()
	_, exists := b.interfaces[name]
	if exists {
		delete(b.interfaces, name)
	}
	b.mu.Unlock()

	if !exists {
		return errors.NotFound(errors.PhaseBridge, "interface", name)
	}
	return b.dispatcher.UnregisterInterface(name)
}

// Lookup returns a copy of the named interface's registration.
func (b *Bridge) Lookup(name string) (NativeInterface, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	in, exists := b.interfaces[name]
	if !exists {
		return NativeInterface{}, false
	}
	return *in, true
}

// NoteModuleUnloaded deactivates every interface resolved from the named
// module. The bindings stay callable; the flag and a warning record that
// their provider is gone.
func (b *Bridge) NoteModuleUnloaded(module string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, in := range b.interfaces {
		if in.Module == module && in.Active {
			in.Active = false
			Logger().Warn("interface outlives its module",
				zap.String("interface", in.Name),
				zap.String("module", module))
		}
	}
}

// Call invokes a registered interface with full signature checking. The
// checks run in order and the target is never invoked on a failed check:
// unknown name, then argument count, then per-position tag equality.
func (b *Bridge) Call(name string, args []astcruntime.TaggedValue, result *astcruntime.TaggedValue) error {
	b.mu.Lock()
	in, exists := b.interfaces[name]
	if !exists {
		b.mu.Unlock()
		return errors.NotFound(errors.PhaseBridge, "interface", name)
	}
	sig := in.Signature
	active := in.Active
	b.mu.Unlock()

	if !active {
		Logger().Warn("calling interface whose module was unloaded",
			zap.String("interface", name))
	}

	if len(args) != len(sig.Params) {
		return errors.ArgCountMismatch(errors.PhaseBridge, name, len(sig.Params), len(args))
	}
	for i, arg := range args {
		if arg.Tag() != sig.Params[i] {
			return errors.TypeMismatch(errors.PhaseBridge,
				[]string{name, argLabel(i)},
				sig.Params[i].String(), arg.Tag().String())
		}
	}

	var ctx comm.CallContext
	ctx.SetArgs(marshalArgs(args)...)
	if err := b.dispatcher.CallSync(name, &ctx); err != nil {
		return err
	}

	out, err := unmarshalResult(name, sig.Return, ctx.Result)
	if err != nil {
		return err
	}
	if result != nil {
		*result = out
	}
	return nil
}

// Interfaces returns the registered interface names, unordered.
func (b *Bridge) Interfaces() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := make([]string, 0, len(b.interfaces))
	for name := range b.interfaces {
		names = append(names, name)
	}
	return names
}
