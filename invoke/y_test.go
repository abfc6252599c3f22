package invoke

import (
	"testing"

	"github.com/Esscrypt/peanutbutterandjam-sub002/codec"
	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
	"github.com/stretchr/testify/require"
)

// buildProgramBlob assembles a minimal program blob in DecodeBlob's wire
// format: one no-operand instruction, no jump table, with the given
// auxiliary sections.
func buildProgramBlob(o, w []byte, stackSize, extraPages uint64) []byte {
	code := []byte{pvm.OpTrap}
	bitmask := []byte{0x01}
	var out []byte
	out = append(out, 4) // jump table entry width
	out = append(out, codec.EncodeNatural(0)...)
	out = append(out, codec.EncodeNatural(uint64(len(code)))...)
	out = append(out, code...)
	out = append(out, bitmask...)
	out = append(out, codec.EncodeNatural(uint64(len(o)))...)
	out = append(out, o...)
	out = append(out, codec.EncodeNatural(uint64(len(w)))...)
	out = append(out, w...)
	out = append(out, codec.EncodeNatural(stackSize)...)
	out = append(out, codec.EncodeNatural(extraPages)...)
	return out
}

func TestYSeedsRegistersFromArgument(t *testing.T) {
	blob := buildProgramBlob(nil, nil, 0, 0)
	argument := []byte{1, 2, 3, 4}
	res, err := Y(blob, argument)
	require.NoError(t, err)

	const Z = uint64(pvm.ZoneSize)
	argStart := uint32(uint64(1)<<32 - Z - Z)
	require.Equal(t, uint64(argStart), res.Registers.Get(7), "r7 (argument address)")
	require.Equal(t, uint64(len(argument)), res.Registers.Get(8), "r8 (argument length)")

	data, err := res.RAM.ReadOctets(argStart, uint32(len(argument)))
	require.NoError(t, err)
	require.Equal(t, argument, data)
}

func TestYReadOnlyDataIsReadableNotWritable(t *testing.T) {
	o := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	blob := buildProgramBlob(o, nil, 0, 0)
	res, err := Y(blob, nil)
	require.NoError(t, err)

	roStart := uint32(pvm.ZoneSize)
	data, err := res.RAM.ReadOctets(roStart, uint32(len(o)))
	require.NoError(t, err)
	require.Equal(t, o, data)

	err = res.RAM.WriteOctets(roStart, []byte{0})
	require.Error(t, err, "writing to the read-only data region must fault")
}

func TestYReadWriteDataAndHeapBounds(t *testing.T) {
	w := []byte{1, 2, 3}
	blob := buildProgramBlob(nil, w, 4096, 2)
	res, err := Y(blob, nil)
	require.NoError(t, err)

	const Z = uint64(pvm.ZoneSize)
	const P = uint64(pvm.PageSize)
	rwStart := uint32(2 * Z)
	data, err := res.RAM.ReadOctets(rwStart, uint32(len(w)))
	require.NoError(t, err)
	require.Equal(t, w, data)

	wantHeapBreak := rwStart + uint32(P) + uint32(2*P) // w padded to 1 page, plus 2 extra pages
	require.Equal(t, wantHeapBreak, res.HeapBreak)
	require.Greater(t, res.HeapMax, res.HeapBreak)
}

func TestYStackRegionIsWritable(t *testing.T) {
	blob := buildProgramBlob(nil, nil, 4096, 0)
	res, err := Y(blob, nil)
	require.NoError(t, err)

	const Z = uint64(pvm.ZoneSize)
	stackStart := uint32((uint64(1)<<32 - 2*Z - Z) - pvm.PageSize)
	require.NoError(t, res.RAM.WriteOctets(stackStart, []byte{1}))
}

func TestYRejectsTruncatedBlob(t *testing.T) {
	_, err := Y([]byte{0x04}, nil)
	require.Error(t, err, "truncated program blob must fail to decode")
}
