package pvm

// registerControl installs the control-flow instructions: TRAP, FALLTHROUGH, HALT,
// the jump family, and ECALLI.
func registerControl(r *Registry) {
	r.Register(OpTrap, opTrap)
	r.Register(OpFallthrough, opFallthrough)
	r.Register(OpHalt, opHalt)
	r.Register(OpJump, opJump)
	r.Register(OpJumpInd, opJumpInd)
	r.Register(OpLoadImmJump, opLoadImmJump)
	r.Register(OpLoadImmJumpInd, opLoadImmJumpInd)
	r.Register(OpEcalli, opEcalli)
}

// opTrap always panics: an explicit request for undefined behavior.
func opTrap(c *Core, operands []byte) Outcome {
	return outcomePanic()
}

// opFallthrough ends a basic block but does not change control flow.
func opFallthrough(c *Core, operands []byte) Outcome {
	return Outcome{Code: resultRunning, EndsBlock: true}
}

// opHalt is the PVM's only clean-termination instruction. (r7, r8) are left
// untouched, so Ψ_M's result extraction reuses whatever Y or a prior
// instruction put there: for a program that halts immediately, that is
// the caller's own argument blob.
func opHalt(c *Core, operands []byte) Outcome {
	return Outcome{Code: ResultHalt, EndsBlock: true}
}

// opJump sets PC to a sign-extended immediate target.
func opJump(c *Core, operands []byte) Outcome {
	imm := immAfter(operands, 0, maxImmediateLen)
	c.PC = uint64(imm)
	return Outcome{Code: resultRunning, Jumped: true, EndsBlock: true}
}

// opJumpInd resolves PC from the jump table: jump_table[as_u32(regA) + imm].
// Out-of-range indices PANIC.
func opJumpInd(c *Core, operands []byte) Outcome {
	a := regA(operands)
	imm := immAfter(operands, 1, maxImmediateLen)
	index := c.Regs.AsU32(a) + uint32(imm)
	target, ok := c.Program.JumpTarget(index)
	if !ok {
		return outcomePanic()
	}
	c.PC = uint64(target)
	return Outcome{Code: resultRunning, Jumped: true, EndsBlock: true}
}

// opLoadImmJump loads an immediate into a register then jumps to a second
// immediate target: LOAD_IMM_JUMP reg, imm, target.
func opLoadImmJump(c *Core, operands []byte) Outcome {
	reg := regA(operands)
	imm, target := splitTwoImmediates(operands, 1, maxSplitImmediateLen)
	c.Regs.Set(reg, uint64(imm))
	c.PC = uint64(target)
	return Outcome{Code: resultRunning, Jumped: true, EndsBlock: true}
}

// opLoadImmJumpInd loads an immediate into a register then performs an
// indirect jump: LOAD_IMM_JUMP_IND reg, imm, regA, imm2.
func opLoadImmJumpInd(c *Core, operands []byte) Outcome {
	reg := regA(operands)
	a := regB(operands)
	imm, imm2 := splitTwoImmediates(operands, 1, maxSplitImmediateLen)
	c.Regs.Set(reg, uint64(imm))
	index := c.Regs.AsU32(a) + uint32(imm2)
	target, ok := c.Program.JumpTarget(index)
	if !ok {
		return outcomePanic()
	}
	c.PC = uint64(target)
	return Outcome{Code: resultRunning, Jumped: true, EndsBlock: true}
}

// opEcalli requests a host call. By convention the host-call id is held in
// r0; PC is not advanced here; the Machine's host-call sub-protocol resumes
// the loop (or terminates it) once the context mutator returns.
func opEcalli(c *Core, operands []byte) Outcome {
	hcid := c.Regs.Get(0)
	return Outcome{Code: ResultHost, HostCallID: hcid, EndsBlock: true}
}
