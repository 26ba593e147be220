package vm

import (
	"encoding/binary"

	astcruntime "github.com/astcvm/astc-runtime"
)

// MaxOperands caps the operand count of one encoded instruction.
const MaxOperands = 4

// ExecuteInstruction runs a single instruction. Branch and return
// outcomes come back as signals for the loop driver; errors are sticky
// and short-circuit all further dispatch until ClearError.
func (v *VM) ExecuteInstruction(op Opcode, operands []Word) (Signal, error) {
	if v.errCode != ErrNone {
		return SignalNone, v.lastErr
	}
	v.InstCount++

	switch op {
	case OpNop:
		return SignalNone, nil

	case OpI32Const:
		if len(operands) < 1 {
			return SignalNone, v.fail(ErrInvalidInstruction, "i32.const needs an operand")
		}
		return SignalNone, v.Push(operands[0])

	case OpDrop:
		_, err := v.Pop()
		return SignalNone, err

	case OpI32Add, OpI32Sub, OpI32Mul, OpI32DivS,
		OpI32And, OpI32Or, OpI32Xor, OpI32Shl, OpI32ShrS,
		OpI32Eq, OpI32Ne, OpI32LtS, OpI32GtS:
		return SignalNone, v.binaryOp(op)

	case OpI32Eqz:
		a, err := v.Pop()
		if err != nil {
			return SignalNone, err
		}
		return SignalNone, v.Push(boolWord(a == 0))

	case OpBr:
		return SignalBranch, nil

	case OpBrIf:
		pred, err := v.Pop()
		if err != nil {
			return SignalNone, err
		}
		if pred != 0 {
			return SignalBranchTaken, nil
		}
		return SignalNone, nil

	case OpReturn:
		return SignalReturn, nil

	case OpCall:
		return SignalNone, v.call(operands)

	default:
		return SignalNone, v.fail(ErrInvalidInstruction, "opcode 0x%02x", uint8(op))
	}
}

// binaryOp pops b then a and pushes the result of a op b.
func (v *VM) binaryOp(op Opcode) error {
	b, err := v.Pop()
	if err != nil {
		return err
	}
	a, err := v.Pop()
	if err != nil {
		return err
	}
	ai, bi := int32(a), int32(b)

	var out int32
	switch op {
	case OpI32Add:
		out = ai + bi
	case OpI32Sub:
		out = ai - bi
	case OpI32Mul:
		out = ai * bi
	case OpI32DivS:
		if bi == 0 {
			return v.fail(ErrDivisionByZero, "i32.div_s by zero")
		}
		out = ai / bi
	case OpI32And:
		out = ai & bi
	case OpI32Or:
		out = ai | bi
	case OpI32Xor:
		out = ai ^ bi
	case OpI32Shl:
		out = ai << (uint32(bi) & 31)
	case OpI32ShrS:
		out = ai >> (uint32(bi) & 31)
	case OpI32Eq:
		return v.Push(boolWord(ai == bi))
	case OpI32Ne:
		return v.Push(boolWord(ai != bi))
	case OpI32LtS:
		return v.Push(boolWord(ai < bi))
	case OpI32GtS:
		return v.Push(boolWord(ai > bi))
	}
	return v.Push(Word(out))
}

// call delegates to the module subsystem. Operand 0 indexes the name
// table, operand 1 is the argument count; arguments are popped as i32
// values, last pushed becoming the last argument.
func (v *VM) call(operands []Word) error {
	if v.caller == nil {
		return v.fail(ErrModuleCallFailed, "module subsystem unavailable")
	}
	if len(operands) < 2 {
		return v.fail(ErrInvalidInstruction, "call needs name index and arg count")
	}

	nameIdx := int(operands[0])
	argc := int(operands[1])
	if nameIdx >= len(v.names) {
		return v.fail(ErrModuleCallFailed, "name index %d outside table of %d", nameIdx, len(v.names))
	}
	if argc > astcruntime.MaxSignatureParams {
		return v.fail(ErrInvalidInstruction, "call arg count %d too large", argc)
	}
	name := v.names[nameIdx]

	args := make([]astcruntime.TaggedValue, argc)
	for i := argc - 1; i >= 0; i-- {
		w, err := v.Pop()
		if err != nil {
			return err
		}
		args[i] = astcruntime.Int32(int32(w))
	}

	v.CallCount++
	var result astcruntime.TaggedValue
	if err := v.caller.Call(name, args, &result); err != nil {
		return v.failCause(ErrModuleCallFailed, err, "call "+name)
	}

	switch result.Tag() {
	case astcruntime.TagVoid:
		return nil
	case astcruntime.TagInt32, astcruntime.TagFloat32, astcruntime.TagPointer:
		return v.Push(Word(uint32(result.Bits())))
	default:
		return v.fail(ErrModuleCallFailed,
			"call %s returned %s, which does not fit a stack word", name, result.Tag())
	}
}

// ExecuteBytecode decodes and runs a bytecode buffer: opcode byte,
// operand count byte, then count little-endian 4-byte words. Execution
// stops at a return signal, at the end of the buffer, or on any error.
// Branch signals are observed and counted but the program counter just
// moves to the next instruction; resolving targets is the caller's
// business.
func (v *VM) ExecuteBytecode(buf []byte) (Signal, error) {
	v.pc = 0
	last := SignalNone

	for v.pc < len(buf) {
		if len(buf)-v.pc < 2 {
			return last, v.fail(ErrInvalidInstruction, "truncated instruction at pc %d", v.pc)
		}
		op := Opcode(buf[v.pc])
		count := int(buf[v.pc+1])
		if count > MaxOperands {
			return last, v.fail(ErrInvalidInstruction, "operand count %d at pc %d", count, v.pc)
		}
		if len(buf)-v.pc-2 < count*4 {
			return last, v.fail(ErrInvalidInstruction, "truncated operands at pc %d", v.pc)
		}

		var operands [MaxOperands]Word
		for i := 0; i < count; i++ {
			operands[i] = Word(binary.LittleEndian.Uint32(buf[v.pc+2+i*4:]))
		}

		sig, err := v.ExecuteInstruction(op, operands[:count])
		if err != nil {
			return last, err
		}
		last = sig
		v.pc += 2 + count*4

		if sig == SignalReturn {
			return sig, nil
		}
	}
	return last, nil
}

func boolWord(b bool) Word {
	if b {
		return 1
	}
	return 0
}
