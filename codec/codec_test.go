package codec

import (
	"bytes"
	"testing"
)

func TestReadFixedEncodeFixedLERoundTrip(t *testing.T) {
	cases := []struct {
		width int
		value uint64
	}{
		{1, 0x00}, {1, 0xFF}, {2, 0xBEEF}, {4, 0xDEADBEEF}, {8, 0x0123456789ABCDEF},
	}
	for _, c := range cases {
		enc := EncodeFixedLE(c.value, c.width)
		if len(enc) != c.width {
			t.Fatalf("EncodeFixedLE(%d, %d): got length %d", c.value, c.width, len(enc))
		}
		r := NewReader(enc)
		got, err := r.ReadFixed(c.width)
		if err != nil {
			t.Fatalf("ReadFixed: %v", err)
		}
		if got != c.value {
			t.Fatalf("round trip width %d: got 0x%X, want 0x%X", c.width, got, c.value)
		}
	}
}

func TestReadFixedTruncated(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.ReadFixed(4); err == nil {
		t.Fatal("expected truncation error reading 4 bytes from a 2-byte buffer")
	}
}

func TestReadByteAndReadBytes(t *testing.T) {
	r := NewReader([]byte{0xAA, 0xBB, 0xCC})
	b, err := r.ReadByte()
	if err != nil || b != 0xAA {
		t.Fatalf("ReadByte: got (0x%X, %v)", b, err)
	}
	rest, err := r.ReadBytes(2)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(rest, []byte{0xBB, 0xCC}) {
		t.Fatalf("ReadBytes: got %v", rest)
	}
	if _, err := r.ReadByte(); err == nil {
		t.Fatal("expected error reading past end of buffer")
	}
}

func TestNaturalRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 0x7F, 0x80, 0xFF, 0x100, 0x3FFF, 0x4000,
		0x1FFFFF, 0x200000, 0xFFFFFFFF, 0x100000000,
		0x00FFFFFFFFFF, 0xFFFFFFFFFFFFFFFF,
	}
	for _, v := range values {
		enc := EncodeNatural(v)
		r := NewReader(enc)
		got, err := r.ReadNatural()
		if err != nil {
			t.Fatalf("ReadNatural(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("natural round trip: got %d, want %d (encoded %x)", got, v, enc)
		}
	}
}

func TestNaturalMaxWidthUsesNinthByte(t *testing.T) {
	enc := EncodeNatural(0xFFFFFFFFFFFFFFFF)
	if len(enc) != 9 {
		t.Fatalf("expected the 9-byte maximal encoding, got %d bytes: %x", len(enc), enc)
	}
	if enc[0] != 0xFF {
		t.Fatalf("expected the 9-byte form's prefix byte to be 0xFF, got 0x%X", enc[0])
	}
}

func TestReadNaturalTruncated(t *testing.T) {
	// A prefix byte claiming extra bytes follow, with none supplied.
	r := NewReader([]byte{0x80})
	if _, err := r.ReadNatural(); err == nil {
		t.Fatal("expected truncation error decoding a natural whose continuation bytes are missing")
	}
}

func TestDecodeSignedImmediate(t *testing.T) {
	cases := []struct {
		in   []byte
		want int64
	}{
		{nil, 0},
		{[]byte{}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0xFF}, -1},
		{[]byte{0x80}, -128},
		{[]byte{0x00, 0x80}, -32768},
		{[]byte{0xFF, 0x7F}, 32767},
		{[]byte{0xFF, 0xFF, 0xFF, 0xFF}, -1},
		{[]byte{0xFF, 0xFF, 0xFF, 0x7F}, 2147483647},
	}
	for _, c := range cases {
		got := DecodeSignedImmediate(c.in)
		if got != c.want {
			t.Fatalf("DecodeSignedImmediate(%x): got %d, want %d", c.in, got, c.want)
		}
	}
}

func TestEncodeU32AndU16(t *testing.T) {
	le := EncodeU32LE(0x01020304)
	if !bytes.Equal(le, []byte{0x04, 0x03, 0x02, 0x01}) {
		t.Fatalf("EncodeU32LE: got %x", le)
	}
	be := EncodeU32BE(0x01020304)
	if !bytes.Equal(be, []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Fatalf("EncodeU32BE: got %x", be)
	}
	u16 := EncodeU16LE(0xBEEF)
	if !bytes.Equal(u16, []byte{0xEF, 0xBE}) {
		t.Fatalf("EncodeU16LE: got %x", u16)
	}
}
