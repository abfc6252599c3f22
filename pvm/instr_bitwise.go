package pvm

// registerBitwise installs the bitwise instructions: always over
// the full 64-bit register width, register and immediate forms.
func registerBitwise(r *Registry) {
	type binop struct {
		op Opcode
		f  func(a, b uint64) uint64
	}
	regOps := []binop{
		{OpAnd, func(a, b uint64) uint64 { return a & b }},
		{OpOr, func(a, b uint64) uint64 { return a | b }},
		{OpXor, func(a, b uint64) uint64 { return a ^ b }},
		{OpAndInv, func(a, b uint64) uint64 { return a &^ b }},
		{OpOrInv, func(a, b uint64) uint64 { return a | ^b }},
		{OpXnor, func(a, b uint64) uint64 { return ^(a ^ b) }},
	}
	for _, b := range regOps {
		r.Register(b.op, makeRegBitwise(b.f))
	}

	immOps := []binop{
		{OpAndImm, func(a, b uint64) uint64 { return a & b }},
		{OpOrImm, func(a, b uint64) uint64 { return a | b }},
		{OpXorImm, func(a, b uint64) uint64 { return a ^ b }},
		{OpAndInvImm, func(a, b uint64) uint64 { return a &^ b }},
		{OpOrInvImm, func(a, b uint64) uint64 { return a | ^b }},
		{OpXnorImm, func(a, b uint64) uint64 { return ^(a ^ b) }},
	}
	for _, b := range immOps {
		r.Register(b.op, makeImmBitwise(b.f))
	}
}

func makeRegBitwise(f func(a, b uint64) uint64) Handler {
	return func(c *Core, operands []byte) Outcome {
		d, a, b := regDAB(operands)
		c.Regs.Set(d, f(c.Regs.Get(a), c.Regs.Get(b)))
		return outcomeContinue()
	}
}

func makeImmBitwise(f func(a, b uint64) uint64) Handler {
	return func(c *Core, operands []byte) Outcome {
		d := regA(operands)
		a := regB(operands)
		imm := immAfter(operands, 1, maxImmediateLen)
		c.Regs.Set(d, f(c.Regs.Get(a), uint64(imm)))
		return outcomeContinue()
	}
}
