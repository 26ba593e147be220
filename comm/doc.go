// Package comm is the module communication layer: a name-keyed interface
// registry with synchronous and asynchronous dispatch. Targets are plain
// Go functions specialized by arity; arguments move as untyped word or
// string Values, with typed checking handled a layer up by the bridge.
//
// Asynchronous calls get strictly increasing ids that are never reused,
// recorded in an append-only pending table. The executor that runs them is
// pluggable; the default runs calls inline so CallAsync resolves before it
// returns, and any replacement must resolve each call exactly once.
package comm
