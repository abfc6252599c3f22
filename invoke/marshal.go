package invoke

import (
	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
)

// ResultKind classifies Ψ_M's outer result.
type ResultKind int

const (
	ResultBlob ResultKind = iota
	ResultPanic
	ResultOOG
)

// MarshalResult is Ψ_M's output: (gas_consumed, result, final_context).
type MarshalResult[C any] struct {
	GasConsumed uint64
	Kind        ResultKind
	Blob        []byte
	Context     C
}

// PsiM implements the marshalling invocation Ψ_M: run Y, drive
// the machine to termination, and classify the terminal state into
// {blob, PANIC, OOG}.
func PsiM[C any](
	programBlob []byte,
	initialPC uint64,
	gasLimit uint64,
	argumentBlob []byte,
	mutator pvm.Mutator[C],
	initialContext C,
	model pvm.GasModel,
	registry *pvm.Registry,
) MarshalResult[C] {
	y, err := Y(programBlob, argumentBlob)
	if err != nil {
		return MarshalResult[C]{Kind: ResultPanic, Context: initialContext}
	}

	core := pvm.NewCore(y.Program, y.Registers, y.RAM, gasLimit, model, registry)
	core.PC = initialPC
	core.HeapBreak = y.HeapBreak
	core.HeapMax = y.HeapMax

	machine := pvm.NewMachine(core, mutator, initialContext)
	out := machine.Run()

	finalGas := core.Gas
	gasConsumed := gasLimit - finalGas
	if finalGas > gasLimit {
		gasConsumed = gasLimit
	}

	switch out.Code {
	case pvm.ResultOOG:
		return MarshalResult[C]{GasConsumed: gasConsumed, Kind: ResultOOG, Context: machine.Context}
	case pvm.ResultHalt:
		r7 := core.Regs.AsU32(7)
		r8 := core.Regs.AsU32(8)
		data, err := core.RAM.ReadOctets(r7, r8)
		if err != nil {
			return MarshalResult[C]{GasConsumed: gasConsumed, Kind: ResultBlob, Blob: []byte{}, Context: machine.Context}
		}
		return MarshalResult[C]{GasConsumed: gasConsumed, Kind: ResultBlob, Blob: data, Context: machine.Context}
	default:
		// PANIC, FAULT, or any mutator-set terminal code other than OOG/HALT.
		return MarshalResult[C]{GasConsumed: gasConsumed, Kind: ResultPanic, Context: machine.Context}
	}
}
