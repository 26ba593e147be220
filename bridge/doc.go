// Package bridge is the typed boundary between bytecode and native code.
// Interfaces are registered under a name with a full CallSignature and
// resolve through the module loader at registration time, so a missing
// module or symbol fails immediately. Calls enforce the signature exactly:
// argument count, then per-position tag equality, with no coercion; a call
// that fails a check never reaches the target.
package bridge
