package pvm

// registerArithmetic installs the arithmetic instructions: add/sub/mul/div/rem,
// each in register and immediate forms, at widths 32 and 64.
func registerArithmetic(r *Registry) {
	type binop struct {
		op Opcode
		w  Width
		f  func(a, b uint64, w Width) uint64
	}
	regOps := []binop{
		{OpAdd32, Width32, arithAdd}, {OpSub32, Width32, arithSub}, {OpMul32, Width32, arithMul},
		{OpDivU32, Width32, arithDivU}, {OpDivS32, Width32, arithDivS},
		{OpRemU32, Width32, arithRemU}, {OpRemS32, Width32, arithRemS},

		{OpAdd64, Width64, arithAdd}, {OpSub64, Width64, arithSub}, {OpMul64, Width64, arithMul},
		{OpDivU64, Width64, arithDivU}, {OpDivS64, Width64, arithDivS},
		{OpRemU64, Width64, arithRemU}, {OpRemS64, Width64, arithRemS},
	}
	for _, b := range regOps {
		r.Register(b.op, makeRegBinop(b.w, b.f))
	}

	immOps := []binop{
		{OpAddImm32, Width32, arithAdd}, {OpSubImm32, Width32, arithSub}, {OpMulImm32, Width32, arithMul},
		{OpDivUImm32, Width32, arithDivU}, {OpDivSImm32, Width32, arithDivS},
		{OpRemUImm32, Width32, arithRemU}, {OpRemSImm32, Width32, arithRemS},

		{OpAddImm64, Width64, arithAdd}, {OpSubImm64, Width64, arithSub}, {OpMulImm64, Width64, arithMul},
		{OpDivUImm64, Width64, arithDivU}, {OpDivSImm64, Width64, arithDivS},
		{OpRemUImm64, Width64, arithRemU}, {OpRemSImm64, Width64, arithRemS},
	}
	for _, b := range immOps {
		r.Register(b.op, makeImmBinop(b.w, b.f))
	}
}

func maskWidth(v uint64, w Width) uint64 {
	if w == Width32 {
		return v & 0xFFFFFFFF
	}
	return v
}

func signExtendResult(v uint64, w Width) uint64 {
	if w == Width32 {
		return SignExtend32To64(uint32(v))
	}
	return v
}

func arithAdd(a, b uint64, w Width) uint64 { return signExtendResult(maskWidth(a+b, w), w) }
func arithSub(a, b uint64, w Width) uint64 { return signExtendResult(maskWidth(a-b, w), w) }
func arithMul(a, b uint64, w Width) uint64 { return signExtendResult(maskWidth(a*b, w), w) }

// arithDivU: division by zero yields all-ones.
func arithDivU(a, b uint64, w Width) uint64 {
	a, b = maskWidth(a, w), maskWidth(b, w)
	if b == 0 {
		return ^uint64(0)
	}
	return signExtendResult(maskWidth(a/b, w), w)
}

func arithRemU(a, b uint64, w Width) uint64 {
	a, b = maskWidth(a, w), maskWidth(b, w)
	if b == 0 {
		return signExtendResult(a, w)
	}
	return signExtendResult(maskWidth(a%b, w), w)
}

// arithDivS mirrors two's-complement division: divide-by-zero yields -1;
// the MIN_INT / -1 overflow case yields the dividend unchanged.
func arithDivS(a, b uint64, w Width) uint64 {
	sa, sb := asSigned(a, w), asSigned(b, w)
	if sb == 0 {
		return ^uint64(0)
	}
	minVal := minSigned(w)
	if sa == minVal && sb == -1 {
		return signExtendResult(maskWidth(a, w), w)
	}
	return signExtendResult(maskWidth(uint64(sa/sb), w), w)
}

func arithRemS(a, b uint64, w Width) uint64 {
	sa, sb := asSigned(a, w), asSigned(b, w)
	if sb == 0 {
		return signExtendResult(maskWidth(a, w), w)
	}
	minVal := minSigned(w)
	if sa == minVal && sb == -1 {
		return 0
	}
	return signExtendResult(maskWidth(uint64(sa%sb), w), w)
}

func asSigned(v uint64, w Width) int64 {
	if w == Width32 {
		return int64(int32(uint32(v)))
	}
	return int64(v)
}

func minSigned(w Width) int64 {
	if w == Width32 {
		return int64(int32(-2147483648))
	}
	return -9223372036854775808
}

func makeRegBinop(w Width, f func(a, b uint64, w Width) uint64) Handler {
	return func(c *Core, operands []byte) Outcome {
		d, a, b := regDAB(operands)
		result := f(c.Regs.Get(a), c.Regs.Get(b), w)
		c.Regs.Set(d, result)
		return outcomeContinue()
	}
}

func makeImmBinop(w Width, f func(a, b uint64, w Width) uint64) Handler {
	return func(c *Core, operands []byte) Outcome {
		d := regA(operands)
		a := regB(operands)
		imm := immAfter(operands, 1, maxImmediateLen)
		result := f(c.Regs.Get(a), uint64(imm), w)
		c.Regs.Set(d, result)
		return outcomeContinue()
	}
}
