package pvm

// ExecutionTrace is optional diagnostic state a test harness attaches to a
// Core before running it: the sequence of PCs visited and a per-opcode
// execution count, scoped to what a conformance harness needs rather than
// a full source-level debugger trace.
type ExecutionTrace struct {
	PCs          []uint64
	OpcodeCounts map[Opcode]uint64
	GasPerStep   []uint64

	lastGas uint64
}

// NewExecutionTrace returns an empty trace ready to attach to a Core.
func NewExecutionTrace() *ExecutionTrace {
	return &ExecutionTrace{OpcodeCounts: make(map[Opcode]uint64)}
}

// RecordFetch is called once per Step, before the handler runs, with the PC
// and opcode about to execute.
func (t *ExecutionTrace) RecordFetch(pc uint64, op Opcode) {
	t.PCs = append(t.PCs, pc)
	t.OpcodeCounts[op]++
}

// RecordGas appends the gas balance observed after an instruction executes;
// callers compute the per-step delta themselves from consecutive entries.
func (t *ExecutionTrace) RecordGas(remaining uint64) {
	t.GasPerStep = append(t.GasPerStep, remaining)
}
