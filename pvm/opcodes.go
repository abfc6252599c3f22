package pvm

// Opcode identifies the instruction at a code offset: the one-byte
// on-wire value.
type Opcode = byte

// Control-flow opcodes.
const (
	OpTrap Opcode = iota
	OpFallthrough
	OpHalt // clean termination, distinct from TRAP's panic
	OpJump
	OpJumpInd
	OpLoadImmJump
	OpLoadImmJumpInd
	OpEcalli
)

// Load/store opcodes: direct addressing with an immediate address.
const (
	OpLoadU8 Opcode = iota + 16
	OpLoadI8
	OpLoadU16
	OpLoadI16
	OpLoadU32
	OpLoadI32
	OpLoadU64
	OpStoreU8
	OpStoreU16
	OpStoreU32
	OpStoreU64
)

// Indirect (register + offset) load/store opcodes.
const (
	OpLoadIndU8 Opcode = iota + 32
	OpLoadIndI8
	OpLoadIndU16
	OpLoadIndI16
	OpLoadIndU32
	OpLoadIndI32
	OpLoadIndU64
	OpStoreIndU8
	OpStoreIndU16
	OpStoreIndU32
	OpStoreIndU64
)

// Store-immediate opcodes: the value stored is an encoded constant rather
// than a register.
const (
	OpStoreImmU8 Opcode = iota + 48
	OpStoreImmU16
	OpStoreImmU32
	OpStoreImmU64
	OpStoreImmIndU8
	OpStoreImmIndU16
	OpStoreImmIndU32
	OpStoreImmIndU64
)

// Arithmetic width selects the 32- or 64-bit interpretation shared by
// several instruction groups.
type Width int

const (
	Width32 Width = 32
	Width64 Width = 64
)

// Arithmetic opcodes, register and immediate forms, 32-bit then
// 64-bit.
const (
	OpAdd32 Opcode = iota + 64
	OpAddImm32
	OpSub32
	OpSubImm32
	OpMul32
	OpMulImm32
	OpDivU32
	OpDivUImm32
	OpDivS32
	OpDivSImm32
	OpRemU32
	OpRemUImm32
	OpRemS32
	OpRemSImm32

	OpAdd64
	OpAddImm64
	OpSub64
	OpSubImm64
	OpMul64
	OpMulImm64
	OpDivU64
	OpDivUImm64
	OpDivS64
	OpDivSImm64
	OpRemU64
	OpRemUImm64
	OpRemS64
	OpRemSImm64
)

// Bitwise opcodes, always 64-bit, no sign extension.
const (
	OpAnd Opcode = iota + 96
	OpAndImm
	OpOr
	OpOrImm
	OpXor
	OpXorImm
	OpAndInv
	OpAndInvImm
	OpOrInv
	OpOrInvImm
	OpXnor
	OpXnorImm
)

// ShiftOp names one shift/rotate operation, shared by the 32- and 64-bit,
// register/immediate/alt-immediate opcode families.
type ShiftOp int

const (
	ShiftLeftLogical ShiftOp = iota
	ShiftRightLogical
	ShiftRightArith
	RotateLeft
	RotateRight
)

// Shift/rotate opcodes: register amount, immediate amount, and
// "alt-immediate" (the shifted value is the immediate, the amount is the
// register), each at both widths.
const (
	OpShloLReg32 Opcode = iota + 112
	OpShloLImm32
	OpShloLImmAlt32
	OpShloRReg32
	OpShloRImm32
	OpShloRImmAlt32
	OpSharRReg32
	OpSharRImm32
	OpSharRImmAlt32
	OpRotLReg32
	OpRotLImm32
	OpRotLImmAlt32
	OpRotRReg32
	OpRotRImm32
	OpRotRImmAlt32

	OpShloLReg64
	OpShloLImm64
	OpShloLImmAlt64
	OpShloRReg64
	OpShloRImm64
	OpShloRImmAlt64
	OpSharRReg64
	OpSharRImm64
	OpSharRImmAlt64
	OpRotLReg64
	OpRotLImm64
	OpRotLImmAlt64
	OpRotRReg64
	OpRotRImm64
	OpRotRImmAlt64
)

// Comparison and branch opcodes.
const (
	OpSetLtU Opcode = iota + 160
	OpSetLtUImm
	OpSetLtS
	OpSetLtSImm
	OpSetGtU
	OpSetGtUImm
	OpSetGtS
	OpSetGtSImm

	OpBranchEqImm
	OpBranchNeImm
	OpBranchLtUImm
	OpBranchLeUImm
	OpBranchGeUImm
	OpBranchGtUImm
	OpBranchLtSImm
	OpBranchLeSImm
	OpBranchGeSImm
	OpBranchGtSImm

	OpBranchEq
	OpBranchNe
	OpBranchLtU
	OpBranchLtS
	OpBranchGeU
	OpBranchGeS
)

// Conditional-move and min/max opcodes.
const (
	OpCmovIz Opcode = iota + 200
	OpCmovNz
	OpMin
	OpMax
	OpMinU
	OpMaxU
)

// Register-utility opcodes.
const (
	OpMoveReg Opcode = iota + 210
	OpSbrk
	OpCountSetBits32
	OpCountSetBits64
	OpLeadingZeroBits32
	OpLeadingZeroBits64
	OpTrailingZeroBits32
	OpTrailingZeroBits64
	OpSignExtend8
	OpSignExtend16
	OpZeroExtend16
	OpReverseBytes
)
