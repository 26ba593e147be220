// Package resource implements the capability handle table that stands
// between bytecode and native values. Raw pointers never cross the
// boundary; a pointer-tagged value carries a Handle into a Table owned by
// the runtime, and native code redeems the handle for the value. Handles
// start at 1, slot 0 being the permanent invalid handle.
package resource
