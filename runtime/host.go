package runtime

import (
	"sync"

	"github.com/astcvm/astc-runtime/comm"
	"github.com/astcvm/astc-runtime/errors"
	"github.com/astcvm/astc-runtime/loader"
	"github.com/astcvm/astc-runtime/nativefmt"
)

// HostRegistry holds Go functions standing in for the exports of native
// modules. It doubles as the loader's Binder for user and libc modules:
// resolving a symbol looks up the function registered under
// (module, symbol).
type HostRegistry struct {
	funcs map[string]map[string]comm.Target
	mu    sync.RWMutex
}

// NewHostRegistry creates an empty host registry.
func NewHostRegistry() *HostRegistry {
	return &HostRegistry{
		funcs: make(map[string]map[string]comm.Target),
	}
}

// RegisterFunc binds a Go function to a module export. Must happen before
// the symbol is resolved; re-registration overwrites.
func (r *HostRegistry) RegisterFunc(module, symbol string, target comm.Target) error {
	if module == "" || symbol == "" {
		return errors.InvalidInput(errors.PhaseLoad, "empty module or symbol name")
	}
	if target == nil {
		return errors.InvalidInput(errors.PhaseLoad, "nil target")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[module] == nil {
		r.funcs[module] = make(map[string]comm.Target)
	}
	r.funcs[module][symbol] = target
	return nil
}

// Lookup returns the function registered under (module, symbol).
func (r *HostRegistry) Lookup(module, symbol string) (comm.Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	target, ok := r.funcs[module][symbol]
	return target, ok
}

// Bind implements loader.Binder.
func (r *HostRegistry) Bind(m *loader.Module, export nativefmt.Export) (comm.Target, error) {
	target, ok := r.Lookup(m.Name, export.Name)
	if !ok {
		return nil, errors.New(errors.PhaseResolve, errors.KindNotFound).
			Path(m.Name, export.Name).
			Detail("no host function registered for export").Build()
	}
	return target, nil
}
