// Package pvm implements the Polkadot-style virtual machine: a deterministic
// register machine that decodes a program blob, initializes paged memory
// with per-page access rights, and executes instructions under a gas budget.
package pvm

// NumRegisters is the size of the PVM register file, r0..r12.
const NumRegisters = 13

// RegisterFile holds the 13 general-purpose registers. All arithmetic is
// modular u64; 32-bit instructions operate on the low half and sign-extend
// the result back into the full 64 bits.
type RegisterFile struct {
	R [NumRegisters]uint64
}

// Get returns the raw 64-bit value of register i.
func (rf *RegisterFile) Get(i int) uint64 {
	return rf.R[i]
}

// Set stores a raw 64-bit value into register i.
func (rf *RegisterFile) Set(i int, v uint64) {
	rf.R[i] = v
}

// AsU32 returns the low 32 bits of register i, r mod 2^32.
func (rf *RegisterFile) AsU32(i int) uint32 {
	return uint32(rf.R[i])
}

// AsI64 reinterprets register i as a two's-complement signed 64-bit value.
func (rf *RegisterFile) AsI64(i int) int64 {
	return int64(rf.R[i])
}

// AsI32 reinterprets the low 32 bits of register i as signed.
func (rf *RegisterFile) AsI32(i int) int32 {
	return int32(rf.R[i])
}

// SetSignExtended32 writes a 32-bit result into register i after sign
// extension to 64 bits.
func (rf *RegisterFile) SetSignExtended32(i int, v uint32) {
	rf.R[i] = SignExtend32To64(v)
}

// SignExtend32To64 extends a u32 to u64, preserving bit 31 as the sign.
func SignExtend32To64(v uint32) uint64 {
	if v&0x8000_0000 != 0 {
		return uint64(v) | 0xFFFF_FFFF_0000_0000
	}
	return uint64(v) & 0x0000_0000_FFFF_FFFF
}

// AsI64FromU32 reinterprets a u32 as a signed 32-bit value, widened to int64.
func AsI64FromU32(v uint32) int64 {
	return int64(int32(v))
}
