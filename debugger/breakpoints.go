package debugger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
)

// Breakpoint pauses execution when the core's PC reaches Address and, if a
// Condition is set, the condition holds against the current registers and
// gas.
type Breakpoint struct {
	ID        int
	Address   uint64
	Enabled   bool
	Temporary bool   // consumed by its first actual stop
	Condition string // e.g. "r3 > 0x10" or "gas < 100"; empty stops always
	HitCount  int
}

// BreakpointManager owns every breakpoint of one debugging session. The
// debugger is single-goroutine, like the machine it steps, so there is no
// locking. Breakpoints are keyed by id; a pc index resolves the at-most-one
// breakpoint per code offset.
type BreakpointManager struct {
	byID   map[int]*Breakpoint
	byPC   map[uint64]int
	nextID int
}

// NewBreakpointManager returns an empty manager.
func NewBreakpointManager() *BreakpointManager {
	return &BreakpointManager{
		byID:   make(map[int]*Breakpoint),
		byPC:   make(map[uint64]int),
		nextID: 1,
	}
}

// Add sets a breakpoint at pc, validated against core's program: a pc past
// the padded code, or one pointing into the middle of an instruction's
// operand bytes, can never be fetched as an opcode and is rejected. A nil
// core skips validation. Adding to a pc that already has a breakpoint
// re-arms the existing one in place.
func (bm *BreakpointManager) Add(core *pvm.Core, pc uint64, temporary bool, condition string) (*Breakpoint, error) {
	if core != nil {
		if pc >= uint64(core.Program.ExtendedLen()) {
			return nil, fmt.Errorf("pc 0x%X is past the end of the program", pc)
		}
		if !core.Program.IsInstructionStart(int(pc)) {
			return nil, fmt.Errorf("pc 0x%X is inside an instruction's operands", pc)
		}
	}

	if id, ok := bm.byPC[pc]; ok {
		bp := bm.byID[id]
		bp.Enabled = true
		bp.Temporary = temporary
		bp.Condition = condition
		return bp, nil
	}

	bp := &Breakpoint{
		ID:        bm.nextID,
		Address:   pc,
		Enabled:   true,
		Temporary: temporary,
		Condition: condition,
	}
	bm.byID[bp.ID] = bp
	bm.byPC[pc] = bp.ID
	bm.nextID++
	return bp, nil
}

// Remove deletes a breakpoint by id.
func (bm *BreakpointManager) Remove(id int) error {
	bp, ok := bm.byID[id]
	if !ok {
		return fmt.Errorf("no breakpoint #%d", id)
	}
	delete(bm.byID, id)
	delete(bm.byPC, bp.Address)
	return nil
}

// RemoveAt deletes the breakpoint at pc, if one exists.
func (bm *BreakpointManager) RemoveAt(pc uint64) error {
	id, ok := bm.byPC[pc]
	if !ok {
		return fmt.Errorf("no breakpoint at pc 0x%016X", pc)
	}
	return bm.Remove(id)
}

// SetEnabled arms or disarms a breakpoint without forgetting it.
func (bm *BreakpointManager) SetEnabled(id int, enabled bool) error {
	bp, ok := bm.byID[id]
	if !ok {
		return fmt.Errorf("no breakpoint #%d", id)
	}
	bp.Enabled = enabled
	return nil
}

// At returns the breakpoint at pc, or nil.
func (bm *BreakpointManager) At(pc uint64) *Breakpoint {
	if id, ok := bm.byPC[pc]; ok {
		return bm.byID[id]
	}
	return nil
}

// All returns every breakpoint ordered by address.
func (bm *BreakpointManager) All() []*Breakpoint {
	out := make([]*Breakpoint, 0, len(bm.byID))
	for _, bp := range bm.byID {
		out = append(out, bp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Clear forgets every breakpoint.
func (bm *BreakpointManager) Clear() {
	bm.byID = make(map[int]*Breakpoint)
	bm.byPC = make(map[uint64]int)
}

// Count returns the number of breakpoints.
func (bm *BreakpointManager) Count() int {
	return len(bm.byID)
}

// ShouldStop reports whether execution should pause at pc given the core's
// current register/gas state. A hit is only counted, and a temporary
// breakpoint only consumed, when the stop actually fires: an enabled
// breakpoint whose condition evaluates false is passed over untouched. The
// returned Breakpoint is a snapshot, valid after a temporary breakpoint's
// deletion.
func (bm *BreakpointManager) ShouldStop(pc uint64, core *pvm.Core) (*Breakpoint, bool, error) {
	bp := bm.At(pc)
	if bp == nil || !bp.Enabled {
		return nil, false, nil
	}

	if bp.Condition != "" {
		hold, err := evalCondition(bp.Condition, core)
		if err != nil {
			return nil, false, fmt.Errorf("breakpoint %d: %w", bp.ID, err)
		}
		if !hold {
			return nil, false, nil
		}
	}

	bp.HitCount++
	hit := *bp
	if bp.Temporary {
		delete(bm.byID, bp.ID)
		delete(bm.byPC, bp.Address)
	}
	return &hit, true, nil
}

// evalCondition evaluates a breakpoint condition of the form
// "<lhs> <op> <rhs>", where lhs/rhs are each either "gas", "rN" (a register
// index), or a literal (decimal or 0x-prefixed hex), and op is one of
// == != < <= > >=.
func evalCondition(condition string, core *pvm.Core) (bool, error) {
	fields := strings.Fields(condition)
	if len(fields) != 3 {
		return false, fmt.Errorf("malformed condition %q: want \"<lhs> <op> <rhs>\"", condition)
	}

	lhs, err := conditionOperand(fields[0], core)
	if err != nil {
		return false, err
	}
	rhs, err := conditionOperand(fields[2], core)
	if err != nil {
		return false, err
	}

	switch fields[1] {
	case "==":
		return lhs == rhs, nil
	case "!=":
		return lhs != rhs, nil
	case "<":
		return lhs < rhs, nil
	case "<=":
		return lhs <= rhs, nil
	case ">":
		return lhs > rhs, nil
	case ">=":
		return lhs >= rhs, nil
	default:
		return false, fmt.Errorf("unknown operator %q in condition %q", fields[1], condition)
	}
}

func conditionOperand(tok string, core *pvm.Core) (uint64, error) {
	switch {
	case tok == "gas":
		return core.Gas, nil
	case strings.HasPrefix(tok, "r"):
		idx, err := strconv.Atoi(tok[1:])
		if err != nil || idx < 0 || idx >= pvm.NumRegisters {
			return 0, fmt.Errorf("invalid register operand %q", tok)
		}
		return core.Regs.Get(idx), nil
	default:
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X"), hexOrDecBase(tok), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid literal operand %q", tok)
		}
		return v, nil
	}
}

func hexOrDecBase(tok string) int {
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		return 16
	}
	return 10
}
