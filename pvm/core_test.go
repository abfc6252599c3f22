package pvm

import (
	"testing"

	"github.com/Esscrypt/peanutbutterandjam-sub002/program"
	"github.com/stretchr/testify/require"
)

// newTestCore builds a Core over code/bitmask with an otherwise-empty RAM
// and the default per-instruction gas model and registry.
func newTestCore(t *testing.T, code []byte, bitmask []bool, gas uint64) *Core {
	t.Helper()
	p, err := program.New(code, bitmask, nil)
	require.NoError(t, err)
	return NewCore(p, RegisterFile{}, NewRAM(), gas, PerInstructionGasModel{}, DefaultRegistry())
}

func TestTrapPanicsWithGasOne(t *testing.T) {
	c := newTestCore(t, []byte{OpTrap}, []bool{true}, 1000)
	out := c.Run()
	require.Equal(t, ResultPanic, out.Code)
	require.EqualValues(t, 999, c.Gas, "1 gas charged for the TRAP instruction")
}

func TestFallthroughThenPaddedTrapChargesTwoGas(t *testing.T) {
	// A single FALLTHROUGH instruction: PC advances into the zero-padded
	// extension, whose first byte decodes as opcode 0 (TRAP).
	c := newTestCore(t, []byte{OpFallthrough}, []bool{true}, 1000)
	out := c.Run()
	require.Equal(t, ResultPanic, out.Code)
	require.EqualValues(t, 998, c.Gas, "2 instructions charged: FALLTHROUGH then the padded TRAP")
}

func TestHaltLeavesR7AndR8Untouched(t *testing.T) {
	c := newTestCore(t, []byte{OpHalt}, []bool{true}, 1000)
	c.Regs.Set(7, 0xAAAA)
	c.Regs.Set(8, 0xBBBB)
	out := c.Run()
	require.Equal(t, ResultHalt, out.Code)
	require.EqualValues(t, 0xAAAA, c.Regs.Get(7))
	require.EqualValues(t, 0xBBBB, c.Regs.Get(8))
}

func TestLookupFailurePanics(t *testing.T) {
	// Opcode 9 falls in the unused gap between the control and load/store
	// groups and has no registered handler.
	c := newTestCore(t, []byte{9}, []bool{true}, 1000)
	out := c.Run()
	require.Equal(t, ResultPanic, out.Code)
}

func TestStepPastEndOfExtendedCodePanics(t *testing.T) {
	c := newTestCore(t, []byte{OpFallthrough}, []bool{true}, 1000)
	c.PC = uint64(c.Program.ExtendedLen())
	out := c.Step()
	require.Equal(t, ResultPanic, out.Code)
}

// divU32Program builds: DIV_U_32 rD=2, rA=0, rB=1 as a single instruction,
// using the regDAB encoding (operands[0] low=D, high=A; operands[1] low=B).
func divU32Program(t *testing.T, d, a, b int) (*program.Program, error) {
	t.Helper()
	operand0 := byte(d&0x0F) | byte(a&0x0F)<<4
	operand1 := byte(b & 0x0F)
	code := []byte{OpDivU32, operand0, operand1}
	bitmask := []bool{true, false, false}
	return program.New(code, bitmask, nil)
}

func TestDivU32ByZeroYieldsAllOnes(t *testing.T) {
	p, err := divU32Program(t, 2, 0, 1)
	require.NoError(t, err)
	c := NewCore(p, RegisterFile{}, NewRAM(), 1000, PerInstructionGasModel{}, DefaultRegistry())
	c.Regs.Set(0, 100)
	c.Regs.Set(1, 0)
	out := c.Step()
	require.True(t, out.Running(), "div by zero does not fault: got %s", out.Code)
	require.Equal(t, ^uint64(0), c.Regs.Get(2))
}

func TestAdd32OverflowWrapsAndSignExtends(t *testing.T) {
	operand0 := byte(2) | byte(0)<<4
	operand1 := byte(1)
	code := []byte{OpAdd32, operand0, operand1}
	bitmask := []bool{true, false, false}
	p, err := program.New(code, bitmask, nil)
	require.NoError(t, err)
	c := NewCore(p, RegisterFile{}, NewRAM(), 1000, PerInstructionGasModel{}, DefaultRegistry())
	c.Regs.Set(0, 0xFFFFFFFF)
	c.Regs.Set(1, 1)
	out := c.Step()
	require.True(t, out.Running())
	require.EqualValues(t, 0, c.Regs.Get(2), "mod 2^32 wraparound")
}

func TestOutOfGasStopsExecution(t *testing.T) {
	c := newTestCore(t, []byte{OpFallthrough, OpFallthrough}, []bool{true, true}, 1)
	out := c.Run()
	require.Equal(t, ResultOOG, out.Code)
	require.Zero(t, c.Gas)
}

// directStoreProgram builds STORE_U32 regA, imm-address as a single
// instruction: operands[0] holds regA in its low nibble, the trailing
// bytes (after the 1-byte register nibble) hold the sign-extended address.
func directStoreProgram(t *testing.T, reg int, addr uint32) *program.Program {
	t.Helper()
	operands := append([]byte{byte(reg & 0x0F)}, uint32LEImm(addr)...)
	code := append([]byte{OpStoreU32}, operands...)
	bitmask := make([]bool, len(code))
	bitmask[0] = true
	p, err := program.New(code, bitmask, nil)
	require.NoError(t, err)
	return p
}

func uint32LEImm(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestStoreToReadOnlyPageFaults(t *testing.T) {
	addr := uint32(reservedPages * PageSize)
	p := directStoreProgram(t, 0, addr)
	ram := NewRAM()
	require.NoError(t, ram.SetPageAccessRights(addr, PageSize, AccessRead, false))
	c := NewCore(p, RegisterFile{}, ram, 1000, PerInstructionGasModel{}, DefaultRegistry())
	c.Regs.Set(0, 0x1234)
	out := c.Step()
	require.Equal(t, ResultFault, out.Code)
	require.Equal(t, addr, out.FaultAddr)
}
