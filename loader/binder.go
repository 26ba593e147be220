package loader

import (
	"github.com/astcvm/astc-runtime/comm"
	"github.com/astcvm/astc-runtime/nativefmt"
)

// Binder turns an exported function into a dispatch target. The registry
// never hands out code addresses; resolution goes through the binder
// registered for the module's type. The host side binds user and libc
// modules against registered Go functions, and the wasm engine binds
// modules whose code section is a wasm binary.
type Binder interface {
	Bind(m *Module, export nativefmt.Export) (comm.Target, error)
}

// BinderFunc adapts a function to the Binder interface.
type BinderFunc func(m *Module, export nativefmt.Export) (comm.Target, error)

// Bind calls f.
func (f BinderFunc) Bind(m *Module, export nativefmt.Export) (comm.Target, error) {
	return f(m, export)
}
