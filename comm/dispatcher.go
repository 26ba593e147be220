package comm

import (
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/astcvm/astc-runtime/errors"
)

// Default capacities for a Dispatcher created with zero options.
const (
	DefaultMaxInterfaces = 256
	DefaultMaxPending    = 1024
)

// Options configures a Dispatcher.
type Options struct {
	// Executor runs asynchronous calls. Nil means InlineExecutor.
	Executor Executor

	// MaxInterfaces bounds the interface registry. Zero means
	// DefaultMaxInterfaces.
	MaxInterfaces int

	// MaxPending bounds the asynchronous call table. The table is
	// append-only, so this bounds the total number of CallAsync issues
	// over the dispatcher's lifetime. Zero means DefaultMaxPending.
	MaxPending int
}

type iface struct {
	target Target
	shapes []Shape
}

// Dispatcher routes calls between modules by interface name. Registration
// and dispatch are safe for concurrent use; a single mutex serializes all
// mutation.
type Dispatcher struct {
	interfaces map[string]iface
	pending    []PendingCall
	exec       Executor
	nextID     uint64
	maxIfaces  int
	maxPending int
	mu         sync.Mutex
}

// NewDispatcher creates a dispatcher with the given options.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.Executor == nil {
		opts.Executor = InlineExecutor{}
	}
	if opts.MaxInterfaces <= 0 {
		opts.MaxInterfaces = DefaultMaxInterfaces
	}
	if opts.MaxPending <= 0 {
		opts.MaxPending = DefaultMaxPending
	}
	return &Dispatcher{
		interfaces: make(map[string]iface),
		exec:       opts.Executor,
		maxIfaces:  opts.MaxInterfaces,
		maxPending: opts.MaxPending,
	}
}

// RegisterInterface binds name to a target. The shape list declares what
// each argument slot carries and must match the target's arity. A name
// already registered is overwritten with a warning.
func (d *Dispatcher) RegisterInterface(name string, target Target, shapes ...Shape) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseDispatch, "empty interface name")
	}
	if target == nil {
		return errors.InvalidInput(errors.PhaseDispatch, "nil target")
	}
	if target.Arity() < 0 || target.Arity() > MaxArity {
		return errors.Unsupported(errors.PhaseDispatch, "target arity above maximum")
	}
	if len(shapes) != target.Arity() {
		return errors.ArgCountMismatch(errors.PhaseDispatch, name, target.Arity(), len(shapes))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.interfaces[name]; exists {
		Logger().Warn("overwriting registered interface", zap.String("interface", name))
	} else if len(d.interfaces) >= d.maxIfaces {
		return errors.Capacity(errors.PhaseDispatch, "interface registry", d.maxIfaces)
	}

	d.interfaces[name] = iface{target: target, shapes: shapes}
	Logger().Debug("interface registered",
		zap.String("interface", name),
		zap.Int("arity", target.Arity()))
	return nil
}

// UnregisterInterface removes a binding.
func (d *Dispatcher) UnregisterInterface(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.interfaces[name]; !exists {
		return errors.NotFound(errors.PhaseDispatch, "interface", name)
	}
	delete(d.interfaces, name)
	return nil
}

// Interfaces returns the registered interface names, unordered.
func (d *Dispatcher) Interfaces() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.interfaces))
	for name := range d.interfaces {
		names = append(names, name)
	}
	return names
}

// CallSync dispatches a call and blocks for its result. Arity and shape
// mismatches are rejected before the target runs; ctx.Status reflects the
// outcome either way.
func (d *Dispatcher) CallSync(name string, ctx *CallContext) error {
	d.mu.Lock()
	in, exists := d.interfaces[name]
	d.mu.Unlock()

	if !exists {
		ctx.Status = StatusNotFound
		return errors.NotFound(errors.PhaseDispatch, "interface", name)
	}
	if err := checkShapes(name, in, ctx); err != nil {
		ctx.Status = StatusError
		return err
	}

	invoke(name, in.target, ctx)
	if ctx.Status == StatusError {
		return errors.New(errors.PhaseDispatch, errors.KindRuntime).
			Detail("interface %s failed", name).Build()
	}
	return nil
}

// CallAsync validates the call, records it in the pending table, and hands
// it to the executor. The returned id is strictly increasing and never
// reused. With the default inline executor the call is resolved before
// CallAsync returns.
func (d *Dispatcher) CallAsync(name string, ctx *CallContext) (uint64, error) {
	d.mu.Lock()
	in, exists := d.interfaces[name]
	if !exists {
		d.mu.Unlock()
		return 0, errors.NotFound(errors.PhaseDispatch, "interface", name)
	}
	if err := checkShapes(name, in, ctx); err != nil {
		d.mu.Unlock()
		return 0, err
	}
	if len(d.pending) >= d.maxPending {
		d.mu.Unlock()
		return 0, errors.Capacity(errors.PhaseDispatch, "pending call table", d.maxPending)
	}

	d.nextID++
	id := d.nextID
	d.pending = append(d.pending, PendingCall{
		ID:        id,
		Interface: name,
		Ctx:       *ctx,
		IssuedAt:  time.Now(),
	})
	idx := len(d.pending) - 1
	d.mu.Unlock()

	d.exec.Submit(func() {
		var call CallContext
		d.mu.Lock()
		call = d.pending[idx].Ctx
		d.mu.Unlock()

		invoke(name, in.target, &call)

		d.mu.Lock()
		if !d.pending[idx].Done {
			d.pending[idx].Ctx = call
			d.pending[idx].Done = true
		}
		d.mu.Unlock()
	})

	Logger().Debug("async call issued",
		zap.String("interface", name),
		zap.Uint64("id", id))
	return id, nil
}

// CheckAsync polls an asynchronous call. Unknown ids return NotFound. A
// resolved call copies its context into out and reports done; polling is
// stable, the same id always reports the same outcome.
func (d *Dispatcher) CheckAsync(id uint64, out *CallContext) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id == 0 || id > d.nextID {
		return false, errors.NotFound(errors.PhaseDispatch, "pending call", strconv.FormatUint(id, 10))
	}
	call := &d.pending[id-1]
	if !call.Done {
		return false, nil
	}
	if out != nil {
		*out = call.Ctx
	}
	return true, nil
}

// PendingCount returns the number of issued asynchronous calls that have
// not yet resolved.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for i := range d.pending {
		if !d.pending[i].Done {
			n++
		}
	}
	return n
}

func checkShapes(name string, in iface, ctx *CallContext) error {
	if ctx.ArgCount != in.target.Arity() {
		return errors.ArgCountMismatch(errors.PhaseDispatch, name, in.target.Arity(), ctx.ArgCount)
	}
	for i := 0; i < ctx.ArgCount; i++ {
		if ctx.Args[i].Shape() != in.shapes[i] {
			return errors.TypeMismatch(errors.PhaseDispatch,
				[]string{name, "arg" + strconv.Itoa(i)},
				in.shapes[i].String(), ctx.Args[i].Shape().String())
		}
	}
	return nil
}

func invoke(name string, target Target, ctx *CallContext) {
	result, err := target.Invoke(ctx.Args[:ctx.ArgCount])
	if err != nil {
		Logger().Warn("interface invocation failed",
			zap.String("interface", name),
			zap.Error(err))
		ctx.Status = StatusError
		return
	}
	ctx.Result = result
	ctx.Status = StatusSuccess
}
