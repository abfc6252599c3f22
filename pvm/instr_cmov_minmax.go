package pvm

// registerCmovMinMax installs conditional move and
// min/max, each a pure register-register-register transform with no
// immediate forms.
func registerCmovMinMax(r *Registry) {
	r.Register(OpCmovIz, makeCmov(func(v uint64) bool { return v == 0 }))
	r.Register(OpCmovNz, makeCmov(func(v uint64) bool { return v != 0 }))

	r.Register(OpMin, makeMinMax(func(a, b int64) bool { return a < b }))
	r.Register(OpMax, makeMinMax(func(a, b int64) bool { return a > b }))
	r.Register(OpMinU, makeMinMaxU(func(a, b uint64) bool { return a < b }))
	r.Register(OpMaxU, makeMinMaxU(func(a, b uint64) bool { return a > b }))
}

// makeCmov builds CMOV_IZ/CMOV_NZ regD, regA, regB: regD <- regA if the
// predicate over regB holds, else regD is left unchanged.
func makeCmov(predicate func(v uint64) bool) Handler {
	return func(c *Core, operands []byte) Outcome {
		d, a, b := regDAB(operands)
		if predicate(c.Regs.Get(b)) {
			c.Regs.Set(d, c.Regs.Get(a))
		}
		return outcomeContinue()
	}
}

func makeMinMax(pick func(a, b int64) bool) Handler {
	return func(c *Core, operands []byte) Outcome {
		d, a, b := regDAB(operands)
		av, bv := c.Regs.AsI64(a), c.Regs.AsI64(b)
		if pick(av, bv) {
			c.Regs.Set(d, uint64(av))
		} else {
			c.Regs.Set(d, uint64(bv))
		}
		return outcomeContinue()
	}
}

func makeMinMaxU(pick func(a, b uint64) bool) Handler {
	return func(c *Core, operands []byte) Outcome {
		d, a, b := regDAB(operands)
		av, bv := c.Regs.Get(a), c.Regs.Get(b)
		if pick(av, bv) {
			c.Regs.Set(d, av)
		} else {
			c.Regs.Set(d, bv)
		}
		return outcomeContinue()
	}
}
