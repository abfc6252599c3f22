package invoke

import (
	"github.com/Esscrypt/peanutbutterandjam-sub002/codec"
	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
)

// MaxServiceCodeSize is the shared size cap for Refine and Accumulate code
// blobs.
const MaxServiceCodeSize = 4_000_000

// RefineGasLimit is the fixed package refine gas cap.
const RefineGasLimit = 5_000_000_000

// MaxSegmentSize and MaxPackageExports bound the export host call.
const (
	MaxSegmentSize    = 4_104
	MaxPackageExports = 3_072
)

// Account is a minimal service account: the code it currently runs (keyed
// by its own hash in the preimage store) plus the wider preimage store
// historical-lookup reads from.
type Account struct {
	CodeHash  [32]byte
	Preimages map[[32]byte][]byte
	Balance   uint64
}

// Code resolves the account's current service code from its preimage
// store.
func (a *Account) Code() ([]byte, bool) {
	if a.Preimages == nil {
		return nil, false
	}
	c, ok := a.Preimages[a.CodeHash]
	return c, ok
}

// WorkItem is the piece of a work package Refine executes: the service it
// runs under and its payload.
type WorkItem struct {
	ServiceID uint32
	Payload   []byte
}

// innerMachine is a nested PVM instance created by the "machine" host call;
// Refine programs can peek/poke its memory and invoke it step by step.
type innerMachine struct {
	core *pvm.Core
}

// RefineContext is Refine's mutable invocation context: the
// current service, the accounts dictionary, the timeslot historical
// lookups resolve against, the segments exported so far, and any nested
// machines created via the "machine" host call.
type RefineContext struct {
	CurrentServiceID uint32
	Accounts         map[uint32]*Account
	LookupTimeslot   uint32
	ExportSegments   [][]byte
	AuthorizerTrace  []byte
	ImportSegments   [][]byte

	machines      map[uint64]*innerMachine
	nextMachineID uint64
}

// RefineResultKind is Ψ_R's outer classification.
type RefineResultKind int

const (
	RefineOK RefineResultKind = iota
	RefineBad
	RefineBig
)

// RefineOutcome is Ψ_R's return value: (result_or_error, exported_segments,
// gas_consumed).
type RefineOutcome struct {
	Kind             RefineResultKind
	Blob             []byte
	ExportedSegments [][]byte
	GasConsumed      uint64
}

// Refine implements the Ψ_R invocation.
func Refine(
	coreIndex, workItemIndex uint32,
	workItem WorkItem,
	authorizerTrace []byte,
	importSegments [][]byte,
	exportOffset uint32,
	accounts map[uint32]*Account,
) RefineOutcome {
	acct, ok := accounts[workItem.ServiceID]
	if !ok {
		return RefineOutcome{Kind: RefineBad}
	}
	code, ok := acct.Code()
	if !ok {
		return RefineOutcome{Kind: RefineBad}
	}
	if len(code) > MaxServiceCodeSize {
		return RefineOutcome{Kind: RefineBig}
	}

	argument := make([]byte, 0, 16+len(workItem.Payload))
	argument = append(argument, codec.EncodeU32BE(coreIndex)...)
	argument = append(argument, codec.EncodeU32BE(workItemIndex)...)
	argument = append(argument, codec.EncodeU32BE(workItem.ServiceID)...)
	argument = append(argument, codec.EncodeU32BE(uint32(len(workItem.Payload)))...)
	argument = append(argument, workItem.Payload...)

	ctx := RefineContext{
		CurrentServiceID: workItem.ServiceID,
		Accounts:         accounts,
		AuthorizerTrace:  authorizerTrace,
		ImportSegments:   importSegments,
		machines:         make(map[uint64]*innerMachine),
	}

	res := PsiM[RefineContext](code, 0, RefineGasLimit, argument, refineMutator, ctx, pvm.PerInstructionGasModel{}, pvm.DefaultRegistry())

	switch res.Kind {
	case ResultPanic:
		return RefineOutcome{Kind: RefineBad, GasConsumed: res.GasConsumed}
	case ResultOOG:
		return RefineOutcome{Kind: RefineBig, GasConsumed: res.GasConsumed}
	default:
		return RefineOutcome{
			Kind:             RefineOK,
			Blob:             res.Blob,
			ExportedSegments: res.Context.ExportSegments,
			GasConsumed:      res.GasConsumed,
		}
	}
}
