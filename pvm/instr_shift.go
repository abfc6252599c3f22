package pvm

// registerShifts installs the shift and rotate instructions: logical/arithmetic shifts
// and rotates, each in register-amount, immediate-amount, and
// "alt-immediate" (shifted value is the immediate, amount is the register)
// forms, at widths 32 and 64. Shift/rotate amounts are taken mod the width.
func registerShifts(r *Registry) {
	type entry struct {
		op   Opcode
		w    Width
		kind ShiftOp
	}
	entries := []entry{
		{OpShloLReg32, Width32, ShiftLeftLogical}, {OpShloRReg32, Width32, ShiftRightLogical}, {OpSharRReg32, Width32, ShiftRightArith},
		{OpRotLReg32, Width32, RotateLeft}, {OpRotRReg32, Width32, RotateRight},

		{OpShloLReg64, Width64, ShiftLeftLogical}, {OpShloRReg64, Width64, ShiftRightLogical}, {OpSharRReg64, Width64, ShiftRightArith},
		{OpRotLReg64, Width64, RotateLeft}, {OpRotRReg64, Width64, RotateRight},
	}
	for _, e := range entries {
		r.Register(e.op, makeRegShift(e.w, e.kind))
	}

	immEntries := []entry{
		{OpShloLImm32, Width32, ShiftLeftLogical}, {OpShloRImm32, Width32, ShiftRightLogical}, {OpSharRImm32, Width32, ShiftRightArith},
		{OpRotLImm32, Width32, RotateLeft}, {OpRotRImm32, Width32, RotateRight},

		{OpShloLImm64, Width64, ShiftLeftLogical}, {OpShloRImm64, Width64, ShiftRightLogical}, {OpSharRImm64, Width64, ShiftRightArith},
		{OpRotLImm64, Width64, RotateLeft}, {OpRotRImm64, Width64, RotateRight},
	}
	for _, e := range immEntries {
		r.Register(e.op, makeImmShift(e.w, e.kind))
	}

	altEntries := []entry{
		{OpShloLImmAlt32, Width32, ShiftLeftLogical}, {OpShloRImmAlt32, Width32, ShiftRightLogical}, {OpSharRImmAlt32, Width32, ShiftRightArith},
		{OpRotLImmAlt32, Width32, RotateLeft}, {OpRotRImmAlt32, Width32, RotateRight},

		{OpShloLImmAlt64, Width64, ShiftLeftLogical}, {OpShloRImmAlt64, Width64, ShiftRightLogical}, {OpSharRImmAlt64, Width64, ShiftRightArith},
		{OpRotLImmAlt64, Width64, RotateLeft}, {OpRotRImmAlt64, Width64, RotateRight},
	}
	for _, e := range altEntries {
		r.Register(e.op, makeAltImmShift(e.w, e.kind))
	}
}

func widthBits(w Width) uint { return uint(w) }

func applyShift(value uint64, amount uint64, w Width, kind ShiftOp) uint64 {
	bits := widthBits(w)
	amt := uint(amount) % bits
	v := maskWidth(value, w)
	switch kind {
	case ShiftLeftLogical:
		return signExtendResult(maskWidth(v<<amt, w), w)
	case ShiftRightLogical:
		return signExtendResult(maskWidth(v>>amt, w), w)
	case ShiftRightArith:
		sv := asSigned(value, w)
		return signExtendResult(maskWidth(uint64(sv>>amt), w), w)
	case RotateLeft:
		if amt == 0 {
			return signExtendResult(v, w)
		}
		return signExtendResult(maskWidth((v<<amt)|(v>>(bits-amt)), w), w)
	case RotateRight:
		if amt == 0 {
			return signExtendResult(v, w)
		}
		return signExtendResult(maskWidth((v>>amt)|(v<<(bits-amt)), w), w)
	default:
		return v
	}
}

func makeRegShift(w Width, kind ShiftOp) Handler {
	return func(c *Core, operands []byte) Outcome {
		d, a, b := regDAB(operands)
		result := applyShift(c.Regs.Get(a), c.Regs.Get(b), w, kind)
		c.Regs.Set(d, result)
		return outcomeContinue()
	}
}

// makeImmShift: value in regA, shift amount is the trailing immediate.
func makeImmShift(w Width, kind ShiftOp) Handler {
	return func(c *Core, operands []byte) Outcome {
		d := regA(operands)
		a := regB(operands)
		imm := immAfter(operands, 1, maxImmediateLen)
		result := applyShift(c.Regs.Get(a), uint64(imm), w, kind)
		c.Regs.Set(d, result)
		return outcomeContinue()
	}
}

// makeAltImmShift: the shifted value is the trailing immediate, the amount
// comes from regA.
func makeAltImmShift(w Width, kind ShiftOp) Handler {
	return func(c *Core, operands []byte) Outcome {
		d := regA(operands)
		a := regB(operands)
		imm := immAfter(operands, 1, maxImmediateLen)
		result := applyShift(uint64(imm), c.Regs.Get(a), w, kind)
		c.Regs.Set(d, result)
		return outcomeContinue()
	}
}
