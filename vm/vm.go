package vm

import (
	"go.uber.org/zap"

	astcruntime "github.com/astcvm/astc-runtime"
	"github.com/astcvm/astc-runtime/errors"
)

// Word is one slot of the operand stack.
type Word uint32

// DefaultStackCapacity is the stack size used when New is given zero.
const DefaultStackCapacity = 64 * 1024

// NumRegisters is the size of the fixed register file.
const NumRegisters = 16

// ErrCode classifies the sticky execution errors.
type ErrCode uint8

const (
	ErrNone ErrCode = iota
	ErrStackOverflow
	ErrStackUnderflow
	ErrInvalidInstruction
	ErrDivisionByZero
	ErrModuleCallFailed
)

// String returns the error code name.
func (c ErrCode) String() string {
	switch c {
	case ErrNone:
		return "none"
	case ErrStackOverflow:
		return "stack_overflow"
	case ErrStackUnderflow:
		return "stack_underflow"
	case ErrInvalidInstruction:
		return "invalid_instruction"
	case ErrDivisionByZero:
		return "division_by_zero"
	case ErrModuleCallFailed:
		return "module_call_failed"
	default:
		return "err(?)"
	}
}

// Caller lets the interpreter delegate call instructions without knowing
// the bridge. The runtime wires its bridge in through this.
type Caller interface {
	Call(name string, args []astcruntime.TaggedValue, result *astcruntime.TaggedValue) error
}

// VM is one bytecode execution context: operand stack, register file,
// program counter, counters, and a sticky error slot. Not safe for
// concurrent use; each VM belongs to one goroutine.
type VM struct {
	stack     []Word
	caller    Caller
	names     []string
	lastErr   error
	errMsg    string
	Registers [NumRegisters]Word
	Flags     Word
	Module    string
	Function  string
	sp        int
	pc        int
	InstCount uint64
	CallCount uint64
	errCode   ErrCode
}

// New creates a VM with the given stack capacity in words. Zero means
// DefaultStackCapacity.
func New(capacity int) *VM {
	if capacity <= 0 {
		capacity = DefaultStackCapacity
	}
	return &VM{stack: make([]Word, capacity)}
}

// SetCaller wires the module subsystem in. A nil caller makes every call
// instruction fail with ErrModuleCallFailed.
func (v *VM) SetCaller(c Caller) {
	v.caller = c
}

// SetNameTable installs the per-program interface name table that call
// instructions index into.
func (v *VM) SetNameTable(names []string) {
	v.names = names
}

// ModuleSubsystemAvailable reports whether call instructions can
// delegate anywhere.
func (v *VM) ModuleSubsystemAvailable() bool {
	return v.caller != nil
}

// Reset clears the stack pointer, program counter, counters, registers,
// and the sticky error. The stack buffer is kept.
func (v *VM) Reset() {
	v.sp = 0
	v.pc = 0
	v.InstCount = 0
	v.CallCount = 0
	v.Flags = 0
	v.Registers = [NumRegisters]Word{}
	v.errCode = ErrNone
	v.errMsg = ""
	v.lastErr = nil
}

// PC returns the current program counter.
func (v *VM) PC() int { return v.pc }

// Depth returns the number of words on the stack.
func (v *VM) Depth() int { return v.sp }

// Capacity returns the stack capacity in words.
func (v *VM) Capacity() int { return len(v.stack) }

// LastError returns the sticky error code and message.
func (v *VM) LastError() (ErrCode, string) {
	return v.errCode, v.errMsg
}

// ClearError clears the sticky error, re-enabling dispatch.
func (v *VM) ClearError() {
	v.errCode = ErrNone
	v.errMsg = ""
	v.lastErr = nil
}

// Push places a word on the stack.
func (v *VM) Push(w Word) error {
	if v.sp >= len(v.stack) {
		return v.fail(ErrStackOverflow, "push at depth %d, capacity %d", v.sp, len(v.stack))
	}
	v.stack[v.sp] = w
	v.sp++
	return nil
}

// Pop removes and returns the top word. The stack pointer is untouched
// on underflow.
func (v *VM) Pop() (Word, error) {
	if v.sp == 0 {
		return 0, v.fail(ErrStackUnderflow, "pop on empty stack")
	}
	v.sp--
	return v.stack[v.sp], nil
}

// fail records a sticky error and returns it.
func (v *VM) fail(code ErrCode, format string, args ...any) error {
	err := errors.New(errors.PhaseExec, errors.KindRuntime).
		Detail(format, args...).Build()
	v.errCode = code
	v.errMsg = err.Detail
	v.lastErr = err

	Logger().Debug("execution error",
		zap.Stringer("code", code),
		zap.String("detail", err.Detail),
		zap.Int("pc", v.pc))
	return err
}

// failCause is like fail with an underlying error attached.
func (v *VM) failCause(code ErrCode, cause error, detail string) error {
	err := errors.New(errors.PhaseExec, errors.KindRuntime).
		Detail(detail).Cause(cause).Build()
	v.errCode = code
	v.errMsg = detail
	v.lastErr = err
	return err
}
