// Package debugger is a terminal stepper over a single pvm.Core: a CLI and
// a tcell/tview TUI that let a developer single-step a program, inspect
// registers and the page map, set breakpoints on PC, and watch registers,
// gas, or memory ranges for changes.
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Esscrypt/peanutbutterandjam-sub002/hostcall"
	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
)

// inertMutator answers every host call with WHAT, since a bare debugging
// session has no invocation context (no Refine/Accumulate world state) to
// mutate; it exists so the debugger can single-step a program containing
// ECALLI without pulling in the invoke package's wrapper-specific context
// types.
func inertMutator(_ uint64, core *pvm.Core, ctx struct{}) (pvm.MutatorOutcome, struct{}) {
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.What)
	return pvm.ContinueRunning(), ctx
}

// Debugger holds the machine under inspection plus its breakpoint and
// command-history state.
type Debugger struct {
	Machine *pvm.Machine[struct{}]

	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	History     *CommandHistory

	Running bool

	Output strings.Builder
}

// NewDebugger wraps core in a Machine with the inert mutator and a fresh
// Debugger.
func NewDebugger(core *pvm.Core) *Debugger {
	return &Debugger{
		Machine:     pvm.NewMachine[struct{}](core, inertMutator, struct{}{}),
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		History:     NewCommandHistory(),
	}
}

// ShouldBreak reports whether the current PC has an enabled breakpoint whose
// Condition (if any) holds against the machine's current registers and gas.
func (d *Debugger) ShouldBreak() (bool, string) {
	bp, stop, err := d.Breakpoints.ShouldStop(d.Machine.Core.PC, d.Machine.Core)
	if err != nil {
		return true, fmt.Sprintf("breakpoint error: %s", err)
	}
	if !stop {
		return false, ""
	}
	if bp.Condition != "" {
		return true, fmt.Sprintf("breakpoint #%d (%s)", bp.ID, bp.Condition)
	}
	return true, fmt.Sprintf("breakpoint #%d", bp.ID)
}

// Step executes exactly one instruction, transparently completing any
// host-call round trip the instruction triggers, via the underlying
// Machine's single-step method.
func (d *Debugger) Step() pvm.Outcome {
	return d.Machine.Step()
}

// WatchHit checks every watchpoint against the machine's current state and
// describes the first that changed, if any.
func (d *Debugger) WatchHit() (string, bool) {
	wp, old, now, hit := d.Watchpoints.CheckAll(d.Machine.Core)
	if !hit {
		return "", false
	}
	return fmt.Sprintf("watchpoint #%d (%s): 0x%X -> 0x%X", wp.ID, wp.Label(), old, now), true
}

// ExecuteCommand parses and runs one debugger command line, appending any
// textual result to d.Output.
func (d *Debugger) ExecuteCommand(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		if last := d.History.GetLast(); last != "" {
			line = last
		} else {
			return nil
		}
	}
	d.History.Add(line, d.Machine.Core.PC, d.Machine.Core.Gas)

	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "step", "s":
		out := d.Step()
		d.printf("pc=0x%016X gas=%d result=%s\n", d.Machine.Core.PC, d.Machine.Core.Gas, out.Code)
	case "continue", "c":
		d.Running = true
	case "break", "b":
		if len(args) < 1 {
			return fmt.Errorf("usage: break <pc> [condition]")
		}
		pc, err := parseUint(args[0])
		if err != nil {
			return err
		}
		condition := strings.Join(args[1:], " ")
		bp, err := d.Breakpoints.Add(d.Machine.Core, pc, false, condition)
		if err != nil {
			return err
		}
		if condition != "" {
			d.printf("breakpoint #%d at pc=0x%016X if %s\n", bp.ID, bp.Address, condition)
		} else {
			d.printf("breakpoint #%d at pc=0x%016X\n", bp.ID, bp.Address)
		}
	case "delete", "d":
		if len(args) != 1 {
			return fmt.Errorf("usage: delete <id>")
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		if err := d.Breakpoints.Remove(id); err != nil {
			return err
		}
	case "watch", "w":
		if len(args) < 1 {
			return fmt.Errorf("usage: watch gas | watch r<N> | watch <addr> <width>")
		}
		wp, err := d.addWatch(args)
		if err != nil {
			return err
		}
		d.printf("watchpoint #%d on %s\n", wp.ID, wp.Label())
	case "unwatch":
		if len(args) != 1 {
			return fmt.Errorf("usage: unwatch <id>")
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		if err := d.Watchpoints.Remove(id); err != nil {
			return err
		}
	case "watches":
		for _, wp := range d.Watchpoints.All() {
			state := "enabled"
			if !wp.Enabled {
				state = "disabled"
			}
			d.printf("#%d %s %s (hits: %d)\n", wp.ID, wp.Label(), state, wp.HitCount)
		}
	case "regs", "r":
		for i := 0; i < pvm.NumRegisters; i++ {
			d.printf("r%-2d = 0x%016X\n", i, d.Machine.Core.Regs.Get(i))
		}
	case "gas":
		d.printf("gas = %d\n", d.Machine.Core.Gas)
	case "history":
		for i, e := range d.History.GetAll() {
			d.printf("%3d: pc=0x%016X gas=%-8d %s\n", i, e.PC, e.Gas, e.Command)
		}
	case "pages":
		for _, e := range d.Machine.Core.RAM.PageMap() {
			d.printf("0x%08X rights=%d\n", e.Address, e.Rights)
		}
	case "mem", "m":
		if len(args) != 2 {
			return fmt.Errorf("usage: mem <addr> <len>")
		}
		addr, err := parseUint(args[0])
		if err != nil {
			return err
		}
		length, err := parseUint(args[1])
		if err != nil {
			return err
		}
		data, err := d.Machine.Core.RAM.ReadOctets(uint32(addr), uint32(length))
		if err != nil {
			return err
		}
		d.printf("%x\n", data)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}

// addWatch parses the watch command's subject: "gas", "r<N>", or
// "<hex addr> <width>".
func (d *Debugger) addWatch(args []string) (*Watchpoint, error) {
	core := d.Machine.Core
	switch {
	case args[0] == "gas":
		return d.Watchpoints.AddGas(core), nil
	case strings.HasPrefix(args[0], "r"):
		idx, err := strconv.Atoi(args[0][1:])
		if err != nil {
			return nil, fmt.Errorf("invalid register %q", args[0])
		}
		return d.Watchpoints.AddRegister(core, idx)
	default:
		if len(args) != 2 {
			return nil, fmt.Errorf("usage: watch <addr> <width>")
		}
		addr, err := parseUint(args[0])
		if err != nil {
			return nil, err
		}
		width, err := parseUint(args[1])
		if err != nil {
			return nil, err
		}
		return d.Watchpoints.AddMemory(core, uint32(addr), uint32(width))
	}
}

// GetOutput drains and returns the output buffer.
func (d *Debugger) GetOutput() string {
	s := d.Output.String()
	d.Output.Reset()
	return s
}

func (d *Debugger) printf(format string, args ...interface{}) {
	fmt.Fprintf(&d.Output, format, args...)
}

func parseUint(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return strconv.ParseUint(s, 16, 64)
}
