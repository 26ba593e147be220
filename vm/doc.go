// Package vm interprets ASTC bytecode against a word-addressed stack
// machine. Arithmetic, stack, and comparison opcodes execute directly;
// branch and return opcodes surface as signals for the loop driver; call
// opcodes delegate through a Caller into the module subsystem.
//
// Execution errors are sticky: once set on a VM, every further dispatch
// short-circuits with the same error until ClearError.
package vm
