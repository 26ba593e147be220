package loader

import (
	"github.com/astcvm/astc-runtime/nativefmt"
)

// State tracks a module through its lifecycle.
type State uint8

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
	StateInitialized
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateInitialized:
		return "initialized"
	case StateError:
		return "error"
	default:
		return "state(?)"
	}
}

// Module is one entry of the registry. Order is the position in the load
// sequence, which global symbol resolution walks first to last.
type Module struct {
	File     *nativefmt.File
	Name     string
	Path     string
	State    State
	Order    int
	RefCount int
}

// Version returns the module's manifest version, empty when absent.
func (m *Module) Version() string {
	return m.File.Manifest.Version
}

// Deps returns the module's declared dependencies.
func (m *Module) Deps() []nativefmt.Dependency {
	return m.File.Manifest.Deps
}

// FindExport returns the named export entry, or nil.
func (m *Module) FindExport(symbol string) *nativefmt.Export {
	return m.File.FindExport(symbol)
}
