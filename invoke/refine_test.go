package invoke

import "testing"

func TestRefineAbsentServiceIsBad(t *testing.T) {
	out := Refine(0, 0, WorkItem{ServiceID: 99}, nil, nil, 0, map[uint32]*Account{})
	if out.Kind != RefineBad {
		t.Fatalf("Kind: got %d, want RefineBad", out.Kind)
	}
}

func TestRefineAbsentCodePreimageIsBad(t *testing.T) {
	accounts := map[uint32]*Account{
		1: {CodeHash: [32]byte{1}, Preimages: map[[32]byte][]byte{}},
	}
	out := Refine(0, 0, WorkItem{ServiceID: 1}, nil, nil, 0, accounts)
	if out.Kind != RefineBad {
		t.Fatalf("Kind: got %d, want RefineBad", out.Kind)
	}
}

func TestRefineOversizedCodeIsBig(t *testing.T) {
	hash := [32]byte{2}
	accounts := map[uint32]*Account{
		1: {CodeHash: hash, Preimages: map[[32]byte][]byte{hash: make([]byte, MaxServiceCodeSize+1)}},
	}
	out := Refine(0, 0, WorkItem{ServiceID: 1}, nil, nil, 0, accounts)
	if out.Kind != RefineBig {
		t.Fatalf("Kind: got %d, want RefineBig", out.Kind)
	}
}

func TestRefineHaltReturnsEncodedArgument(t *testing.T) {
	hash := [32]byte{3}
	blob := buildProgramBlob(nil, nil, 0, 0)
	blob = replaceFirstOpcode(blob, 0x02) // pvm.OpHalt
	accounts := map[uint32]*Account{
		5: {CodeHash: hash, Preimages: map[[32]byte][]byte{hash: blob}},
	}
	payload := []byte{0xAA}
	out := Refine(1, 2, WorkItem{ServiceID: 5, Payload: payload}, nil, nil, 0, accounts)
	if out.Kind != RefineOK {
		t.Fatalf("Kind: got %d, want RefineOK", out.Kind)
	}
	// argument = coreIndex(4,BE) + workItemIndex(4,BE) + serviceID(4,BE) +
	// payloadLen(4,BE) + payload
	want := []byte{0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 5, 0, 0, 0, 1, 0xAA}
	if string(out.Blob) != string(want) {
		t.Fatalf("Blob: got %v, want %v", out.Blob, want)
	}
}
