package pvm

// registerCompareBranch installs the comparison and branch instructions: SET_LT/SET_GT
// register comparisons, and the BRANCH family (register-register and
// register-immediate), each redirecting PC on a true condition.
func registerCompareBranch(r *Registry) {
	type setOp struct {
		op  Opcode
		f   func(a, b uint64) bool
		imm bool
	}
	setOps := []setOp{
		{OpSetLtU, func(a, b uint64) bool { return a < b }, false},
		{OpSetLtUImm, func(a, b uint64) bool { return a < b }, true},
		{OpSetLtS, func(a, b uint64) bool { return int64(a) < int64(b) }, false},
		{OpSetLtSImm, func(a, b uint64) bool { return int64(a) < int64(b) }, true},
		{OpSetGtU, func(a, b uint64) bool { return a > b }, false},
		{OpSetGtUImm, func(a, b uint64) bool { return a > b }, true},
		{OpSetGtS, func(a, b uint64) bool { return int64(a) > int64(b) }, false},
		{OpSetGtSImm, func(a, b uint64) bool { return int64(a) > int64(b) }, true},
	}
	for _, s := range setOps {
		if s.imm {
			r.Register(s.op, makeImmSet(s.f))
		} else {
			r.Register(s.op, makeRegSet(s.f))
		}
	}

	type branchImm struct {
		op Opcode
		f  func(a, b uint64) bool
	}
	branchImmOps := []branchImm{
		{OpBranchEqImm, func(a, b uint64) bool { return a == b }},
		{OpBranchNeImm, func(a, b uint64) bool { return a != b }},
		{OpBranchLtUImm, func(a, b uint64) bool { return a < b }},
		{OpBranchLeUImm, func(a, b uint64) bool { return a <= b }},
		{OpBranchGeUImm, func(a, b uint64) bool { return a >= b }},
		{OpBranchGtUImm, func(a, b uint64) bool { return a > b }},
		{OpBranchLtSImm, func(a, b uint64) bool { return int64(a) < int64(b) }},
		{OpBranchLeSImm, func(a, b uint64) bool { return int64(a) <= int64(b) }},
		{OpBranchGeSImm, func(a, b uint64) bool { return int64(a) >= int64(b) }},
		{OpBranchGtSImm, func(a, b uint64) bool { return int64(a) > int64(b) }},
	}
	for _, b := range branchImmOps {
		r.Register(b.op, makeBranchImm(b.f))
	}

	branchRegOps := []branchImm{
		{OpBranchEq, func(a, b uint64) bool { return a == b }},
		{OpBranchNe, func(a, b uint64) bool { return a != b }},
		{OpBranchLtU, func(a, b uint64) bool { return a < b }},
		{OpBranchLtS, func(a, b uint64) bool { return int64(a) < int64(b) }},
		{OpBranchGeU, func(a, b uint64) bool { return a >= b }},
		{OpBranchGeS, func(a, b uint64) bool { return int64(a) >= int64(b) }},
	}
	for _, b := range branchRegOps {
		r.Register(b.op, makeBranchReg(b.f))
	}
}

func makeRegSet(f func(a, b uint64) bool) Handler {
	return func(c *Core, operands []byte) Outcome {
		d, a, b := regDAB(operands)
		c.Regs.Set(d, boolToReg(f(c.Regs.Get(a), c.Regs.Get(b))))
		return outcomeContinue()
	}
}

func makeImmSet(f func(a, b uint64) bool) Handler {
	return func(c *Core, operands []byte) Outcome {
		d := regA(operands)
		a := regB(operands)
		imm := immAfter(operands, 1, maxImmediateLen)
		c.Regs.Set(d, boolToReg(f(c.Regs.Get(a), uint64(imm))))
		return outcomeContinue()
	}
}

func boolToReg(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

// makeBranchImm: BRANCH_*_IMM regA, imm-operand, imm-offset. If the
// comparison of regA against the operand holds, PC is set to PC + the
// signed offset, unlike
// group 1's JUMP, which targets an absolute address; otherwise execution
// falls through normally.
func makeBranchImm(f func(a, b uint64) bool) Handler {
	return func(c *Core, operands []byte) Outcome {
		a := regA(operands)
		operand, offset := splitTwoImmediates(operands, 1, maxSplitImmediateLen)
		if f(c.Regs.Get(a), uint64(operand)) {
			c.PC = c.PC + uint64(offset)
			return Outcome{Code: resultRunning, Jumped: true, EndsBlock: true}
		}
		return Outcome{Code: resultRunning, EndsBlock: true}
	}
}

// makeBranchReg: BRANCH_* regA, regB, imm-offset. PC-relative, same as
// makeBranchImm.
func makeBranchReg(f func(a, b uint64) bool) Handler {
	return func(c *Core, operands []byte) Outcome {
		a, b, _ := regDAB(operands)
		offset := immAfter(operands, 2, maxImmediateLen)
		if f(c.Regs.Get(a), c.Regs.Get(b)) {
			c.PC = c.PC + uint64(offset)
			return Outcome{Code: resultRunning, Jumped: true, EndsBlock: true}
		}
		return Outcome{Code: resultRunning, EndsBlock: true}
	}
}
