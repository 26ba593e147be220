// Package runtime wires the execution core together behind one owned
// context object. A Runtime holds its own module registry, dispatcher,
// bridge, resource table, wasm engine, and host function registry, with
// explicit New and Close; nothing lives in package-level state, so
// independent Runtimes can coexist in one process.
package runtime
