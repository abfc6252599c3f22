package invoke

import "testing"

func TestIsAuthorizedAbsentCodeIsBad(t *testing.T) {
	out := IsAuthorized(nil, 0)
	if out.Kind != AuthBad {
		t.Fatalf("Kind: got %d, want AuthBad", out.Kind)
	}
}

func TestIsAuthorizedOversizedCodeIsBig(t *testing.T) {
	out := IsAuthorized(make([]byte, MaxAuthCodeSize+1), 0)
	if out.Kind != AuthBig {
		t.Fatalf("Kind: got %d, want AuthBig", out.Kind)
	}
}

func TestIsAuthorizedHaltReturnsCoreIndexArgument(t *testing.T) {
	blob := buildProgramBlob(nil, nil, 0, 0)
	blob = replaceFirstOpcode(blob, 0x02) // pvm.OpHalt
	out := IsAuthorized(blob, 7)
	if out.Kind != AuthOK {
		t.Fatalf("Kind: got %d, want AuthOK", out.Kind)
	}
	if len(out.Blob) != 2 || out.Blob[0] != 7 || out.Blob[1] != 0 {
		t.Fatalf("Blob: got %v, want the little-endian core index [7 0]", out.Blob)
	}
}

func TestIsAuthorizedMalformedBlobIsBad(t *testing.T) {
	out := IsAuthorized([]byte{0x04}, 0)
	if out.Kind != AuthBad {
		t.Fatalf("Kind: got %d, want AuthBad", out.Kind)
	}
}
