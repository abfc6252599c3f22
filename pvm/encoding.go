package pvm

import "github.com/Esscrypt/peanutbutterandjam-sub002/codec"

// regA extracts the low-nibble register index from operands[0].
func regA(operands []byte) int {
	if len(operands) == 0 {
		return 0
	}
	return int(operands[0] & 0x0F)
}

// regB extracts the high-nibble register index from operands[0].
func regB(operands []byte) int {
	if len(operands) == 0 {
		return 0
	}
	return int(operands[0] >> 4)
}

// regDAB decodes the "regD regA regB" encoding: operands[0] low nibble is
// D, high nibble is A; operands[1] low nibble is B.
func regDAB(operands []byte) (d, a, b int) {
	if len(operands) > 0 {
		d = int(operands[0] & 0x0F)
		a = int(operands[0] >> 4)
	}
	if len(operands) > 1 {
		b = int(operands[1] & 0x0F)
	}
	return
}

// immAfter decodes the single trailing immediate of an instruction whose
// first skipBytes operand bytes are consumed by register nibbles; the
// immediate's length is min(maxLen, max(0, fskip - skipBytes)).
func immAfter(operands []byte, skipBytes, maxLen int) int64 {
	avail := len(operands) - skipBytes
	if avail < 0 {
		avail = 0
	}
	n := avail
	if n > maxLen {
		n = maxLen
	}
	if skipBytes > len(operands) {
		return codec.DecodeSignedImmediate(nil)
	}
	return codec.DecodeSignedImmediate(operands[skipBytes : skipBytes+n])
}

// splitTwoImmediates divides the operand bytes after skipBytes between two
// trailing immediates: the first takes up to maxLen bytes, the remainder
// (also capped at maxLen) goes to the second. Used by the dual-immediate
// instructions (LOAD_IMM_JUMP, STORE_IMM_IND_*, the BRANCH_*_IMM family).
func splitTwoImmediates(operands []byte, skipBytes, maxLen int) (first, second int64) {
	rest := operands
	if skipBytes <= len(rest) {
		rest = rest[skipBytes:]
	} else {
		rest = nil
	}
	n1 := len(rest)
	if n1 > maxLen {
		n1 = maxLen
	}
	first = codec.DecodeSignedImmediate(rest[:n1])
	rest2 := rest[n1:]
	n2 := len(rest2)
	if n2 > maxLen {
		n2 = maxLen
	}
	second = codec.DecodeSignedImmediate(rest2[:n2])
	return
}

// maxImmediateLen is the cap used for single-immediate instructions: a
// full 64-bit sign-extended value may span up to 8 operand bytes.
const maxImmediateLen = 8

// maxSplitImmediateLen is the per-field cap used when an instruction
// encodes two immediates in its operand bytes.
const maxSplitImmediateLen = 4
