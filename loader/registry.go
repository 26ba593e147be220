package loader

import (
	"sync"

	"go.uber.org/zap"

	"github.com/astcvm/astc-runtime/comm"
	"github.com/astcvm/astc-runtime/errors"
	"github.com/astcvm/astc-runtime/nativefmt"
)

// DefaultMaxModules bounds a registry created with zero options.
const DefaultMaxModules = 64

// Options configures a Registry.
type Options struct {
	// ModuleDir is where AutoLoadPlatformModules looks for module files.
	ModuleDir string

	// MaxModules bounds the registry. Zero means DefaultMaxModules.
	MaxModules int
}

// Registry holds loaded modules in load order and resolves their exported
// symbols to dispatch targets. Safe for concurrent use.
type Registry struct {
	modules   []*Module
	index     map[string]int
	binders   map[nativefmt.ModuleType]Binder
	moduleDir string
	maxMods   int
	mu        sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options) *Registry {
	if opts.MaxModules <= 0 {
		opts.MaxModules = DefaultMaxModules
	}
	return &Registry{
		index:     make(map[string]int),
		binders:   make(map[nativefmt.ModuleType]Binder),
		moduleDir: opts.ModuleDir,
		maxMods:   opts.MaxModules,
	}
}

// RegisterBinder installs the binder used for modules of the given type.
func (r *Registry) RegisterBinder(t nativefmt.ModuleType, b Binder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.binders[t] = b
}

// Load reads, validates, and registers the module file at path under name.
// Loading a name that is already registered is a no-op returning the
// existing module. The module enters the registry only if the file is
// fully valid.
func (r *Registry) Load(name, path string) (*Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i, exists := r.index[name]; exists {
		return r.modules[i], nil
	}
	if len(r.modules) >= r.maxMods {
		return nil, errors.Capacity(errors.PhaseLoad, "module registry", r.maxMods)
	}

	f, err := nativefmt.DecodeFile(path)
	if err != nil {
		return nil, err
	}

	m := r.commitLocked(name, path, f)
	return m, nil
}

// commitLocked registers an already-validated file.
func (r *Registry) commitLocked(name, path string, f *nativefmt.File) *Module {
	m := &Module{
		File:  f,
		Name:  name,
		Path:  path,
		State: StateLoaded,
		Order: len(r.modules),
	}
	r.index[name] = len(r.modules)
	r.modules = append(r.modules, m)

	Logger().Info("module loaded",
		zap.String("module", name),
		zap.String("path", path),
		zap.Stringer("arch", f.Header.Arch),
		zap.Stringer("type", f.Header.Type),
		zap.Int("exports", len(f.Exports)))
	return m
}

// Unload removes a module and compacts the registry. Symbols already
// resolved from it keep working; a warning is logged when the module still
// has references.
func (r *Registry) Unload(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, exists := r.index[name]
	if !exists {
		return errors.NotFound(errors.PhaseLoad, "module", name)
	}

	m := r.modules[i]
	if m.RefCount > 0 {
		Logger().Warn("unloading module with live references",
			zap.String("module", name),
			zap.Int("refs", m.RefCount))
	}

	r.modules = append(r.modules[:i], r.modules[i+1:]...)
	delete(r.index, name)
	for j := i; j < len(r.modules); j++ {
		r.index[r.modules[j].Name] = j
		r.modules[j].Order = j
	}

	Logger().Info("module unloaded", zap.String("module", name))
	return nil
}

// Get returns the named module.
func (r *Registry) Get(name string) (*Module, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, exists := r.index[name]
	if !exists {
		return nil, false
	}
	return r.modules[i], true
}

// Modules returns the registry contents in load order.
func (r *Registry) Modules() []*Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// Len returns the number of loaded modules.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.modules)
}

// MarkInitialized transitions a loaded module to the initialized state.
func (r *Registry) MarkInitialized(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, exists := r.index[name]
	if !exists {
		return errors.NotFound(errors.PhaseLoad, "module", name)
	}
	r.modules[i].State = StateInitialized
	return nil
}

// ResolveSymbol binds the named export of one module to a dispatch target.
func (r *Registry) ResolveSymbol(module, symbol string) (comm.Target, error) {
	r.mu.Lock()
	i, exists := r.index[module]
	if !exists {
		r.mu.Unlock()
		return nil, errors.NotFound(errors.PhaseResolve, "module", module)
	}
	m := r.modules[i]
	r.mu.Unlock()

	return r.bind(m, symbol)
}

// ResolveSymbolGlobal searches every module in load order and binds the
// first match. Shadowed definitions in later modules are ignored; use
// ResolveSymbolAll to see them.
func (r *Registry) ResolveSymbolGlobal(symbol string) (comm.Target, error) {
	r.mu.Lock()
	var m *Module
	for _, cand := range r.modules {
		if cand.FindExport(symbol) != nil {
			m = cand
			break
		}
	}
	r.mu.Unlock()

	if m == nil {
		return nil, errors.NotFound(errors.PhaseResolve, "symbol", symbol)
	}
	return r.bind(m, symbol)
}

// Match is one result of ResolveSymbolAll.
type Match struct {
	Target comm.Target
	Module string
}

// ResolveSymbolAll binds every module exporting the symbol, in load
// order. An empty result is not an error.
func (r *Registry) ResolveSymbolAll(symbol string) ([]Match, error) {
	r.mu.Lock()
	var candidates []*Module
	for _, m := range r.modules {
		if m.FindExport(symbol) != nil {
			candidates = append(candidates, m)
		}
	}
	r.mu.Unlock()

	matches := make([]Match, 0, len(candidates))
	for _, m := range candidates {
		target, err := r.bind(m, symbol)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{Module: m.Name, Target: target})
	}
	return matches, nil
}

func (r *Registry) bind(m *Module, symbol string) (comm.Target, error) {
	export := m.FindExport(symbol)
	if export == nil {
		return nil, errors.New(errors.PhaseResolve, errors.KindNotFound).
			Path(m.Name, symbol).
			Detail("symbol not exported").Build()
	}
	if export.Type != nativefmt.ExportFunction {
		return nil, errors.New(errors.PhaseResolve, errors.KindInvalidInput).
			Path(m.Name, symbol).
			Detail("export is not a function").Build()
	}

	r.mu.Lock()
	binder, ok := r.binders[m.File.Header.Type]
	r.mu.Unlock()
	if !ok {
		return nil, errors.Unsupported(errors.PhaseResolve,
			"no binder for module type "+m.File.Header.Type.String())
	}

	target, err := binder.Bind(m, *export)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseResolve, errors.KindRuntime, err,
			"bind "+m.Name+"."+symbol)
	}

	r.mu.Lock()
	m.RefCount++
	r.mu.Unlock()
	return target, nil
}
