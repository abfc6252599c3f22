package pvm

// GasModel selects how the step loop prices an instruction. The
// per-instruction model is the default; the per-basic-block model coexists
// behind the same interface without duplicating the step loop.
type GasModel interface {
	// InstructionCost returns the gas an instruction at pc with the given
	// opcode costs, charged before execution.
	InstructionCost(op Opcode, isBlockStart bool) uint64
	// HostCallSurcharge is the additional gas the ECALLI prologue charges
	// once the instruction's own cost has been debited.
	HostCallSurcharge() uint64
}

// PerInstructionGasModel is the default rule: every instruction costs
// exactly 1 gas unit, and the ECALLI prologue charges an additional 10.
type PerInstructionGasModel struct{}

func (PerInstructionGasModel) InstructionCost(Opcode, bool) uint64 { return 1 }
func (PerInstructionGasModel) HostCallSurcharge() uint64           { return 10 }

// PerBasicBlockGasModel is the alternative cost model: a block is charged
// once at its first instruction, individual
// memory operations cost extra, and instructions flagged "unlikely" add a
// flat surcharge. "Unlikely" opcodes are configured by the caller (e.g. the
// divide-by-zero and overflow paths of the arithmetic group).
type PerBasicBlockGasModel struct {
	BlockCost      uint64
	MemoryOpCost   uint64
	UnlikelyCost   uint64
	MemoryOpcodes  map[Opcode]bool
	UnlikelyMarked map[Opcode]bool
}

// NewPerBasicBlockGasModel returns the model with its conventional
// constants: block charge once, memory ops cost more, and an "unlikely"
// marker adds 40.
func NewPerBasicBlockGasModel() *PerBasicBlockGasModel {
	return &PerBasicBlockGasModel{
		BlockCost:      1,
		MemoryOpCost:   2,
		UnlikelyCost:   40,
		MemoryOpcodes:  defaultMemoryOpcodes(),
		UnlikelyMarked: map[Opcode]bool{},
	}
}

func (m *PerBasicBlockGasModel) InstructionCost(op Opcode, isBlockStart bool) uint64 {
	var cost uint64
	if isBlockStart {
		cost += m.BlockCost
	}
	if m.MemoryOpcodes[op] {
		cost += m.MemoryOpCost
	}
	if m.UnlikelyMarked[op] {
		cost += m.UnlikelyCost
	}
	if cost == 0 {
		// Every instruction debits at least something: a basic block's
		// interior instructions are otherwise free under this model, but
		// the step loop must never observably busy-loop.
		cost = 1
	}
	return cost
}

func (m *PerBasicBlockGasModel) HostCallSurcharge() uint64 { return 10 }

func defaultMemoryOpcodes() map[Opcode]bool {
	ops := []Opcode{
		OpLoadU8, OpLoadI8, OpLoadU16, OpLoadI16, OpLoadU32, OpLoadI32, OpLoadU64,
		OpStoreU8, OpStoreU16, OpStoreU32, OpStoreU64,
		OpLoadIndU8, OpLoadIndI8, OpLoadIndU16, OpLoadIndI16, OpLoadIndU32, OpLoadIndI32, OpLoadIndU64,
		OpStoreIndU8, OpStoreIndU16, OpStoreIndU32, OpStoreIndU64,
		OpStoreImmU8, OpStoreImmU16, OpStoreImmU32, OpStoreImmU64,
		OpStoreImmIndU8, OpStoreImmIndU16, OpStoreImmIndU32, OpStoreImmIndU64,
	}
	m := make(map[Opcode]bool, len(ops))
	for _, op := range ops {
		m[op] = true
	}
	return m
}
