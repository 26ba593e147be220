// Package loader manages the registry of .native modules: loading and
// validating module files, ordering batches by their dependency
// manifests, and resolving exported symbols into dispatch targets.
//
// Resolution never exposes code addresses. Each module type has a Binder
// that turns an export entry into a comm.Target; what the target closes
// over is the binder's business. Global resolution walks modules in load
// order and the first exporter of a symbol wins.
package loader
