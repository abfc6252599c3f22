package invoke

import (
	"github.com/Esscrypt/peanutbutterandjam-sub002/codec"
	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
	"golang.org/x/crypto/blake2b"
)

// MinPublicIndex is the lower bound the next_free_id derivation folds
// back in: indices below it are reserved for system services.
const MinPublicIndex = 1 << 16

// DeferredTransfer is one deferred-transfer input or output.
type DeferredTransfer struct {
	Source uint32
	Dest   uint32
	Amount uint64
	Gas    uint64
	Memo   [128]byte
}

// Input is one item of Accumulate's input list; Type 1 marks a deferred
// transfer.
type Input struct {
	Type     uint8
	Transfer DeferredTransfer
}

// PartialState is the slice of world state Accumulate reads and returns an
// updated copy of: the accounts dictionary and the entropy accumulator
// next_free_id hashes against.
type PartialState struct {
	Accounts           map[uint32]*Account
	EntropyAccumulator [32]byte
}

func (s *PartialState) clone() *PartialState {
	accounts := make(map[uint32]*Account, len(s.Accounts))
	for id, a := range s.Accounts {
		cp := *a
		accounts[id] = &cp
	}
	return &PartialState{Accounts: accounts, EntropyAccumulator: s.EntropyAccumulator}
}

// Implications is Accumulate's running side-effect record.
type Implications struct {
	ServiceID  uint32
	State      *PartialState
	NextFreeID uint32
	Transfers  []DeferredTransfer
	Yield      *[32]byte
	Provisions map[uint32][]byte
}

// clone deep-copies an implication record. The two sides of an
// ImplicationsPair must never share State or Provisions storage: the
// regular side is mutated throughout execution while the exceptional side
// stays at its last checkpoint.
func (im Implications) clone() Implications {
	cp := im
	cp.State = im.State.clone()
	cp.Provisions = make(map[uint32][]byte, len(im.Provisions))
	for k, v := range im.Provisions {
		cp.Provisions[k] = append([]byte(nil), v...)
	}
	cp.Transfers = append([]DeferredTransfer(nil), im.Transfers...)
	if im.Yield != nil {
		y := *im.Yield
		cp.Yield = &y
	}
	return cp
}

// ImplicationsPair is (regular, exceptional); the collapse step at the end
// of Ψ_A picks one based on the terminal result code.
type ImplicationsPair struct {
	Regular     Implications
	Exceptional Implications
}

// AccumulateResultKind classifies which side of the pair supplied the
// final effects.
type AccumulateResultKind int

const (
	AccumulateRegular AccumulateResultKind = iota
	AccumulateExceptional
	AccumulateBad
	AccumulateEmpty
)

// AccumulateOutcome is Ψ_A's return value: (post_state, deferred_xfers,
// yield, gas_used, provisions), tagged with which collapse branch was
// taken.
type AccumulateOutcome struct {
	Kind       AccumulateResultKind
	PostState  *PartialState
	Transfers  []DeferredTransfer
	Yield      *[32]byte
	GasUsed    uint64
	Provisions map[uint32][]byte
}

// Accumulate implements the Ψ_A invocation.
func Accumulate(partialState *PartialState, timeslot uint32, serviceID uint32, gas uint64, inputs []Input, initialPC uint64) AccumulateOutcome {
	acct, ok := partialState.Accounts[serviceID]
	if !ok {
		return AccumulateOutcome{Kind: AccumulateBad}
	}
	code, ok := acct.Code()
	if !ok {
		return AccumulateOutcome{Kind: AccumulateBad}
	}
	if len(code) == 0 || len(code) > MaxServiceCodeSize {
		return AccumulateOutcome{Kind: AccumulateEmpty, PostState: partialState}
	}

	postState := partialState.clone()
	postAcct := postState.Accounts[serviceID]
	for _, in := range inputs {
		if in.Type != 1 || in.Transfer.Dest != serviceID {
			continue
		}
		postAcct.Balance += in.Transfer.Amount
	}

	nextFreeID := deriveNextFreeID(serviceID, partialState.EntropyAccumulator, timeslot)

	implications := Implications{
		ServiceID:  serviceID,
		State:      postState,
		NextFreeID: nextFreeID,
		Transfers:  nil,
		Provisions: make(map[uint32][]byte),
	}
	pair := ImplicationsPair{Regular: implications, Exceptional: implications.clone()}

	argument := make([]byte, 0, 16)
	argument = append(argument, codec.EncodeU32LE(timeslot)...)
	argument = append(argument, codec.EncodeU32LE(serviceID)...)
	argument = append(argument, encodeNaturalArg(uint64(len(inputs)))...)

	res := PsiM[ImplicationsPair](code, initialPC, gas, argument, accumulateMutator, pair, pvm.PerInstructionGasModel{}, pvm.DefaultRegistry())

	var chosen Implications
	var kind AccumulateResultKind
	if res.Kind == ResultBlob {
		chosen = res.Context.Regular
		kind = AccumulateRegular
	} else {
		chosen = res.Context.Exceptional
		kind = AccumulateExceptional
	}

	return AccumulateOutcome{
		Kind:       kind,
		PostState:  chosen.State,
		Transfers:  chosen.Transfers,
		Yield:      chosen.Yield,
		GasUsed:    res.GasConsumed,
		Provisions: chosen.Provisions,
	}
}

// deriveNextFreeID derives the next allocatable service index: hash
// encode_u32(service_id) || entropy_accumulator || encode_u32(timeslot)
// with Blake2b, take the first 4 bytes big-endian, and fold into the
// public-index range.
func deriveNextFreeID(serviceID uint32, entropy [32]byte, timeslot uint32) uint32 {
	preimage := make([]byte, 0, 40)
	preimage = append(preimage, codec.EncodeU32BE(serviceID)...)
	preimage = append(preimage, entropy[:]...)
	preimage = append(preimage, codec.EncodeU32BE(timeslot)...)

	sum := blake2b.Sum256(preimage)
	h := uint32(sum[0])<<24 | uint32(sum[1])<<16 | uint32(sum[2])<<8 | uint32(sum[3])

	span := uint64(1)<<32 - MinPublicIndex - 256
	return uint32(uint64(h)%span) + MinPublicIndex
}
