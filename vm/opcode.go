package vm

// Opcode identifies one bytecode instruction. The numbering follows the
// wasm-derived encoding the toolchain emits.
type Opcode uint8

const (
	OpNop    Opcode = 0x01
	OpBr     Opcode = 0x0C
	OpBrIf   Opcode = 0x0D
	OpReturn Opcode = 0x0F
	OpCall   Opcode = 0x10
	OpDrop   Opcode = 0x1A

	OpI32Const Opcode = 0x41

	OpI32Eqz Opcode = 0x45
	OpI32Eq  Opcode = 0x46
	OpI32Ne  Opcode = 0x47
	OpI32LtS Opcode = 0x48
	OpI32GtS Opcode = 0x4A

	OpI32Add  Opcode = 0x6A
	OpI32Sub  Opcode = 0x6B
	OpI32Mul  Opcode = 0x6C
	OpI32DivS Opcode = 0x6D

	OpI32And  Opcode = 0x71
	OpI32Or   Opcode = 0x72
	OpI32Xor  Opcode = 0x73
	OpI32Shl  Opcode = 0x74
	OpI32ShrS Opcode = 0x75
)

// String returns the mnemonic.
func (op Opcode) String() string {
	switch op {
	case OpNop:
		return "nop"
	case OpBr:
		return "br"
	case OpBrIf:
		return "br_if"
	case OpReturn:
		return "return"
	case OpCall:
		return "call"
	case OpDrop:
		return "drop"
	case OpI32Const:
		return "i32.const"
	case OpI32Eqz:
		return "i32.eqz"
	case OpI32Eq:
		return "i32.eq"
	case OpI32Ne:
		return "i32.ne"
	case OpI32LtS:
		return "i32.lt_s"
	case OpI32GtS:
		return "i32.gt_s"
	case OpI32Add:
		return "i32.add"
	case OpI32Sub:
		return "i32.sub"
	case OpI32Mul:
		return "i32.mul"
	case OpI32DivS:
		return "i32.div_s"
	case OpI32And:
		return "i32.and"
	case OpI32Or:
		return "i32.or"
	case OpI32Xor:
		return "i32.xor"
	case OpI32Shl:
		return "i32.shl"
	case OpI32ShrS:
		return "i32.shr_s"
	default:
		return "invalid"
	}
}

// Signal is the control outcome of one instruction. Branch signals carry
// intent only; the loop driver decides what to do with the target, the
// interpreter itself never rewrites the program counter.
type Signal uint8

const (
	SignalNone Signal = iota
	SignalBranch
	SignalBranchTaken
	SignalReturn
)

// String returns the signal name.
func (s Signal) String() string {
	switch s {
	case SignalNone:
		return "none"
	case SignalBranch:
		return "branch"
	case SignalBranchTaken:
		return "branch_taken"
	case SignalReturn:
		return "return"
	default:
		return "signal(?)"
	}
}
