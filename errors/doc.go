// Package errors provides the structured error type shared by the runtime
// core. Errors carry a Phase (where), a Kind (what), an optional element
// path, and an optional cause; two errors match under errors.Is when their
// Phase and Kind agree, which is what callers branch on.
package errors
