package invoke

import "testing"

func TestAccumulateAbsentServiceIsBad(t *testing.T) {
	state := &PartialState{Accounts: map[uint32]*Account{}}
	out := Accumulate(state, 0, 99, 1000, nil, 0)
	if out.Kind != AccumulateBad {
		t.Fatalf("Kind: got %d, want AccumulateBad", out.Kind)
	}
}

func TestAccumulateEmptyCodeIsEmpty(t *testing.T) {
	hash := [32]byte{1}
	state := &PartialState{Accounts: map[uint32]*Account{
		1: {CodeHash: hash, Preimages: map[[32]byte][]byte{hash: {}}},
	}}
	out := Accumulate(state, 0, 1, 1000, nil, 0)
	if out.Kind != AccumulateEmpty {
		t.Fatalf("Kind: got %d, want AccumulateEmpty", out.Kind)
	}
	if out.PostState != state {
		t.Fatal("AccumulateEmpty should return the original, unmodified partial state")
	}
}

func TestAccumulateOversizedCodeIsEmpty(t *testing.T) {
	hash := [32]byte{2}
	state := &PartialState{Accounts: map[uint32]*Account{
		1: {CodeHash: hash, Preimages: map[[32]byte][]byte{hash: make([]byte, MaxServiceCodeSize+1)}},
	}}
	out := Accumulate(state, 0, 1, 1000, nil, 0)
	if out.Kind != AccumulateEmpty {
		t.Fatalf("Kind: got %d, want AccumulateEmpty", out.Kind)
	}
}

func TestAccumulateHaltAppliesTransfersAndCollapsesRegular(t *testing.T) {
	hash := [32]byte{3}
	blob := buildProgramBlob(nil, nil, 0, 0)
	blob = replaceFirstOpcode(blob, 0x02) // pvm.OpHalt
	state := &PartialState{Accounts: map[uint32]*Account{
		7: {CodeHash: hash, Preimages: map[[32]byte][]byte{hash: blob}, Balance: 100},
	}}
	inputs := []Input{
		{Type: 1, Transfer: DeferredTransfer{Dest: 7, Amount: 50}},
		{Type: 1, Transfer: DeferredTransfer{Dest: 99, Amount: 999}}, // not this service, ignored
		{Type: 0, Transfer: DeferredTransfer{Dest: 7, Amount: 999}},  // wrong type, ignored
	}
	out := Accumulate(state, 10, 7, 1_000_000, inputs, 0)
	if out.Kind != AccumulateRegular {
		t.Fatalf("Kind: got %d, want AccumulateRegular", out.Kind)
	}
	if got := out.PostState.Accounts[7].Balance; got != 150 {
		t.Fatalf("PostState balance: got %d, want 150", got)
	}
	if out.PostState == state {
		t.Fatal("Accumulate must operate on a cloned PartialState, not mutate the input")
	}
	if state.Accounts[7].Balance != 100 {
		t.Fatalf("input state balance: got %d, want unchanged 100", state.Accounts[7].Balance)
	}
}

func TestAccumulatePanicCollapsesExceptional(t *testing.T) {
	hash := [32]byte{4}
	blob := buildProgramBlob(nil, nil, 0, 0) // default instruction is TRAP
	state := &PartialState{Accounts: map[uint32]*Account{
		7: {CodeHash: hash, Preimages: map[[32]byte][]byte{hash: blob}},
	}}
	out := Accumulate(state, 0, 7, 1000, nil, 0)
	if out.Kind != AccumulateExceptional {
		t.Fatalf("Kind: got %d, want AccumulateExceptional", out.Kind)
	}
}

func TestDeriveNextFreeIDIsDeterministicAndInRange(t *testing.T) {
	entropy := [32]byte{1, 2, 3}
	a := deriveNextFreeID(5, entropy, 10)
	b := deriveNextFreeID(5, entropy, 10)
	if a != b {
		t.Fatalf("deriveNextFreeID is not deterministic: got %d and %d", a, b)
	}
	if a < MinPublicIndex {
		t.Fatalf("deriveNextFreeID: got %d, want >= %d", a, MinPublicIndex)
	}
	c := deriveNextFreeID(6, entropy, 10)
	if a == c {
		t.Fatal("deriveNextFreeID: expected different service ids to (almost always) derive different ids")
	}
}
