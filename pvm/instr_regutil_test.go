package pvm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// destSrcOperands builds the single-byte "dest, src" encoding shared by every
// group-8 unary op: low nibble is dest (regA), high nibble is src (regB).
func destSrcOperands(dest, src int) []byte {
	return []byte{byte(dest&0x0F) | byte(src&0x0F)<<4}
}

func runRegUtil(t *testing.T, op Opcode, dest, src int, value uint64) uint64 {
	t.Helper()
	operands := destSrcOperands(dest, src)
	code := append([]byte{op}, operands...)
	bitmask := make([]bool, len(code))
	bitmask[0] = true
	c := newTestCore(t, code, bitmask, 1000)
	c.Regs.Set(src, value)
	out := c.Step()
	require.True(t, out.Running(), "result: got %s, want RUNNING", out.Code)
	return c.Regs.Get(dest)
}

func TestMoveRegCopiesFullWidth(t *testing.T) {
	got := runRegUtil(t, OpMoveReg, 1, 0, 0x0102030405060708)
	require.EqualValues(t, 0x0102030405060708, got)
}

func TestCountSetBits32OnlyCountsLowWord(t *testing.T) {
	got := runRegUtil(t, OpCountSetBits32, 1, 0, 0xFFFFFFFF00000003)
	require.EqualValues(t, 2, got, "only the low 32 bits (0x3) are counted")
}

func TestCountSetBits64CountsFullWord(t *testing.T) {
	got := runRegUtil(t, OpCountSetBits64, 1, 0, 0xF0F0F0F0F0F0F0F0)
	require.EqualValues(t, 32, got)
}

func TestLeadingZeroBits32OfOneIs31(t *testing.T) {
	got := runRegUtil(t, OpLeadingZeroBits32, 1, 0, 1)
	require.EqualValues(t, 31, got)
}

func TestTrailingZeroBits64OfEightIsThree(t *testing.T) {
	got := runRegUtil(t, OpTrailingZeroBits64, 1, 0, 8)
	require.EqualValues(t, 3, got)
}

func TestSignExtend8FillsHighBitsWhenNegative(t *testing.T) {
	got := runRegUtil(t, OpSignExtend8, 1, 0, 0xFF)
	require.EqualValues(t, uint64(0xFFFFFFFFFFFFFFFF), got)
}

func TestSignExtend8LeavesPositiveByteUntouched(t *testing.T) {
	got := runRegUtil(t, OpSignExtend8, 1, 0, 0x7F)
	require.EqualValues(t, 0x7F, got)
}

func TestZeroExtend16NeverSignExtends(t *testing.T) {
	got := runRegUtil(t, OpZeroExtend16, 1, 0, 0xFFFFFFFF)
	require.EqualValues(t, 0xFFFF, got, "zero-extension must not propagate bit 15 upward")
}

func TestReverseBytesFlipsAllEightBytes(t *testing.T) {
	got := runRegUtil(t, OpReverseBytes, 1, 0, 0x0102030405060708)
	require.EqualValues(t, 0x0807060504030201, got)
}

func TestSbrkReturnsPreviousBreakAndGrowsHeap(t *testing.T) {
	operands := destSrcOperands(1, 0)
	code := append([]byte{OpSbrk}, operands...)
	bitmask := make([]bool, len(code))
	bitmask[0] = true
	c := newTestCore(t, code, bitmask, 1000)
	c.HeapBreak = PageSize
	c.HeapMax = PageSize * 4
	c.Regs.Set(0, PageSize) // grow by one page
	out := c.Step()
	require.True(t, out.Running())
	require.EqualValues(t, PageSize, c.Regs.Get(1), "SBRK returns the break as it was before growth")
	require.EqualValues(t, PageSize*2, c.HeapBreak)
}

func TestSbrkClampsGrowthAtHeapMax(t *testing.T) {
	operands := destSrcOperands(1, 0)
	code := append([]byte{OpSbrk}, operands...)
	bitmask := make([]bool, len(code))
	bitmask[0] = true
	c := newTestCore(t, code, bitmask, 1000)
	c.HeapBreak = PageSize
	c.HeapMax = PageSize * 2
	c.Regs.Set(0, PageSize*10) // request far more than available
	out := c.Step()
	require.True(t, out.Running())
	require.EqualValues(t, c.HeapMax, c.HeapBreak, "growth is capped at HeapMax")
}
