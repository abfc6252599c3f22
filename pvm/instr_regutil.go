package pvm

import "math/bits"

// registerRegisterUtils installs the register utilities: pure register-to-
// register transforms plus SBRK, the heap-growth instruction.
func registerRegisterUtils(r *Registry) {
	r.Register(OpMoveReg, opMoveReg)
	r.Register(OpSbrk, opSbrk)

	r.Register(OpCountSetBits32, makeUnary32(func(v uint32) uint32 { return uint32(bits.OnesCount32(v)) }))
	r.Register(OpCountSetBits64, makeUnary64(func(v uint64) uint64 { return uint64(bits.OnesCount64(v)) }))
	r.Register(OpLeadingZeroBits32, makeUnary32(func(v uint32) uint32 { return uint32(bits.LeadingZeros32(v)) }))
	r.Register(OpLeadingZeroBits64, makeUnary64(func(v uint64) uint64 { return uint64(bits.LeadingZeros64(v)) }))
	r.Register(OpTrailingZeroBits32, makeUnary32(func(v uint32) uint32 { return uint32(bits.TrailingZeros32(v)) }))
	r.Register(OpTrailingZeroBits64, makeUnary64(func(v uint64) uint64 { return uint64(bits.TrailingZeros64(v)) }))

	r.Register(OpSignExtend8, makeSignExtend(8))
	r.Register(OpSignExtend16, makeSignExtend(16))
	r.Register(OpZeroExtend16, opZeroExtend16)
	r.Register(OpReverseBytes, opReverseBytes)
}

// opMoveReg: regA (dest) <- regB (src), full 64 bits, no extension.
func opMoveReg(c *Core, operands []byte) Outcome {
	dest, src := regA(operands), regB(operands)
	c.Regs.Set(dest, c.Regs.Get(src))
	return outcomeContinue()
}

// makeUnary32 builds a 32-bit unary op: regA (dest) <- f(as_u32(regB)),
// result sign-extended to 64 bits.
func makeUnary32(f func(uint32) uint32) Handler {
	return func(c *Core, operands []byte) Outcome {
		dest, src := regA(operands), regB(operands)
		c.Regs.SetSignExtended32(dest, f(c.Regs.AsU32(src)))
		return outcomeContinue()
	}
}

// makeUnary64 builds a 64-bit unary op: regA (dest) <- f(regB), full width.
func makeUnary64(f func(uint64) uint64) Handler {
	return func(c *Core, operands []byte) Outcome {
		dest, src := regA(operands), regB(operands)
		c.Regs.Set(dest, f(c.Regs.Get(src)))
		return outcomeContinue()
	}
}

// makeSignExtend builds SIGN_EXTEND_{8,16}: regA (dest) <- the low `width`
// bits of regB, sign-extended to 64 bits.
func makeSignExtend(width int) Handler {
	return func(c *Core, operands []byte) Outcome {
		dest, src := regA(operands), regB(operands)
		v := c.Regs.Get(src) & ((uint64(1) << uint(width)) - 1)
		c.Regs.Set(dest, signExtend(v, width/8))
		return outcomeContinue()
	}
}

// opZeroExtend16: regA (dest) <- low 16 bits of regB, zero-extended.
func opZeroExtend16(c *Core, operands []byte) Outcome {
	dest, src := regA(operands), regB(operands)
	c.Regs.Set(dest, c.Regs.Get(src)&0xFFFF)
	return outcomeContinue()
}

// opReverseBytes: regA (dest) <- regB with its 8 bytes reversed.
func opReverseBytes(c *Core, operands []byte) Outcome {
	dest, src := regA(operands), regB(operands)
	c.Regs.Set(dest, bits.ReverseBytes64(c.Regs.Get(src)))
	return outcomeContinue()
}

// opSbrk grows the heap by as_u32(regB) bytes and returns the previous
// break in regA. Growth is capped by HeapMax (the start of the stack
// region); a request that would exceed it is satisfied as far as possible
// and the previous break is still returned, a best-effort bump allocator
// rather than a faulting instruction.
func opSbrk(c *Core, operands []byte) Outcome {
	dest, src := regA(operands), regB(operands)
	prev := c.HeapBreak
	grow := c.Regs.AsU32(src)
	next := prev + grow
	if next < prev || next > c.HeapMax {
		next = c.HeapMax
	}
	if next > prev {
		pageStart := prev - prev%PageSize
		pageEnd := next
		if pageEnd%PageSize != 0 {
			pageEnd += PageSize - pageEnd%PageSize
		}
		_ = c.RAM.SetPageAccessRights(pageStart, pageEnd-pageStart, AccessWrite, false)
	}
	c.HeapBreak = next
	c.Regs.Set(dest, uint64(prev))
	return outcomeContinue()
}
