package pvm

import (
	"github.com/Esscrypt/peanutbutterandjam-sub002/program"
)

// ResultCode classifies why a VM state is (or is not) terminal. Spec §3.
type ResultCode int

const (
	// resultRunning is an internal, non-terminal marker: the instruction
	// executed normally and the step loop should continue.
	resultRunning ResultCode = iota
	ResultHalt
	ResultPanic
	ResultOOG
	ResultFault
	ResultHost
)

func (r ResultCode) String() string {
	switch r {
	case resultRunning:
		return "RUNNING"
	case ResultHalt:
		return "HALT"
	case ResultPanic:
		return "PANIC"
	case ResultOOG:
		return "OOG"
	case ResultFault:
		return "FAULT"
	case ResultHost:
		return "HOST"
	default:
		return "UNKNOWN"
	}
}

// Instruction is the decoded (opcode, operands, pc) triple a handler acts
// on. operands has length fskip.
type Instruction struct {
	Opcode   Opcode
	Operands []byte
	PC       uint64
}

// Outcome is what a single instruction handler reports back to the step
// loop: the resulting code, whether the handler already repositioned PC
// (so the loop must not also advance it by 1+fskip), and whether this
// instruction ends a basic block (used only by the per-block gas model).
type Outcome struct {
	Code       ResultCode
	Jumped     bool
	EndsBlock  bool
	FaultAddr  uint32
	HostCallID uint64
}

func outcomeContinue() Outcome { return Outcome{Code: resultRunning} }

// Running reports whether o is the internal "keep stepping" marker rather
// than a terminal or host-yielding outcome. Exported so callers outside the
// package (the debugger's step loop) can tell the two apart without seeing
// the unexported resultRunning value itself.
func (o Outcome) Running() bool { return o.Code == resultRunning }
func outcomePanic() Outcome     { return Outcome{Code: ResultPanic, EndsBlock: true} }
func outcomeFault(addr uint32) Outcome {
	return Outcome{Code: ResultFault, FaultAddr: addr, EndsBlock: true}
}

// Handler implements one opcode's pure transformation of (registers, RAM,
// PC, gas-adjacent state). It must not itself debit gas; the step loop
// does that uniformly from the GasModel.
type Handler func(c *Core, operands []byte) Outcome

// Core is the non-generic engine: registers, paged RAM, the decoded
// program, and the gas counter. It has no notion of a host-call context;
// that is layered on top by Machine, so that Is-Authorized's unit context,
// Refine's context, and Accumulate's ImplicationsPair each get their own
// static type without duplicating the fetch/decode/execute loop.
type Core struct {
	Regs    RegisterFile
	RAM     *RAM
	PC      uint64
	Gas     uint64
	Program *program.Program

	GasModel GasModel
	Registry *Registry

	FaultAddress uint32
	HostCallID   uint64

	// HeapBreak and HeapMax bound SBRK's growth: the heap starts at the end
	// of the read-write data region (after Y's z extra pages) and may never
	// be grown past the start of the stack region.
	HeapBreak uint32
	HeapMax   uint32

	atBlockStart bool

	pendingJumped   bool
	pendingInstrLen uint64

	// Trace is optional execution-tracking state attached by the test
	// harness; nil in normal operation.
	Trace *ExecutionTrace
}

// NewCore constructs a Core ready to run from program p, the register file
// and RAM produced by Y, and the given gas budget.
func NewCore(p *program.Program, regs RegisterFile, ram *RAM, gas uint64, model GasModel, reg *Registry) *Core {
	if model == nil {
		model = PerInstructionGasModel{}
	}
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Core{
		Regs:         regs,
		RAM:          ram,
		PC:           0,
		Gas:          gas,
		Program:      p,
		GasModel:     model,
		Registry:     reg,
		atBlockStart: true,
	}
}

// Step executes exactly one instruction: fetch, decode, gas-check-and-
// debit, dispatch, and PC advancement. It returns the instruction's
// Outcome; a resultRunning code means the caller should call Step again.
func (c *Core) Step() Outcome {
	if c.PC >= uint64(c.Program.ExtendedLen()) {
		return outcomePanic()
	}
	pc := int(c.PC)
	opcode := c.Program.OpcodeAt(pc)
	fskip := c.Program.Fskip(pc)
	operands := c.Program.Operands(pc, fskip)

	cost := c.GasModel.InstructionCost(opcode, c.atBlockStart)
	if c.Gas < cost {
		c.Gas = 0
		return Outcome{Code: ResultOOG}
	}
	c.Gas -= cost

	handler, ok := c.Registry.Lookup(opcode)
	if !ok {
		return outcomePanic()
	}

	if c.Trace != nil {
		c.Trace.RecordFetch(c.PC, opcode)
	}

	out := handler(c, operands)
	c.atBlockStart = out.EndsBlock

	switch out.Code {
	case ResultFault:
		c.FaultAddress = out.FaultAddr
		return out
	case ResultHost:
		c.HostCallID = out.HostCallID
		// PC is not advanced here: advancement is deferred until the
		// context mutator resumes. pendingJumped and pendingInstrLen record what Step would
		// have done, for ResumeAfterHost to apply once the mutator returns.
		c.pendingJumped = out.Jumped
		c.pendingInstrLen = uint64(1 + fskip)
		return out
	case ResultPanic, ResultHalt, ResultOOG:
		return out
	}

	if !out.Jumped {
		c.PC += uint64(1 + fskip)
	}
	return out
}

// Run drives Step to termination, returning the first terminal (non-
// resultRunning) outcome. It never handles ResultHost itself: that sub-
// protocol needs a context, and is implemented by Machine.Run.
func (c *Core) Run() Outcome {
	for {
		out := c.Step()
		if out.Code != resultRunning {
			return out
		}
	}
}

// ResumeAfterHost advances PC as Step would have for the ECALLI instruction
// that requested a host call, now that the context mutator has returned
// control. It must be called exactly once per ResultHost before the step
// loop resumes.
func (c *Core) ResumeAfterHost() {
	if !c.pendingJumped {
		c.PC += c.pendingInstrLen
	}
}

// DebitHostCallSurcharge applies the ECALLI prologue's extra gas charge.
// Returns false (OOG) if insufficient gas remains.
func (c *Core) DebitHostCallSurcharge() bool {
	surcharge := c.GasModel.HostCallSurcharge()
	if c.Gas < surcharge {
		c.Gas = 0
		return false
	}
	c.Gas -= surcharge
	return true
}
