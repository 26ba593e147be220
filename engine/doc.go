// Package engine runs module bodies that are WebAssembly binaries on a
// wazero runtime. It plugs into the loader as a Binder: resolving a
// symbol from a wasm-bodied module instantiates it once and wraps the
// export as a dispatch target.
package engine
