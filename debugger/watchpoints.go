package debugger

import (
	"fmt"

	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
)

// WatchKind selects what a watchpoint observes: a register, the remaining
// gas budget, or a range of RAM.
type WatchKind int

const (
	WatchRegister WatchKind = iota
	WatchGas
	WatchMemory
)

// Watchpoint pauses execution when its observed value differs from the
// value recorded at the previous observation. Detection is by comparing
// values across Step calls, not by intercepting individual loads and
// stores, so a write that restores the old value between two observations
// is invisible.
type Watchpoint struct {
	ID       int
	Kind     WatchKind
	Register int    // register index when Kind == WatchRegister
	Address  uint32 // start address when Kind == WatchMemory
	Width    uint32 // observed bytes when Kind == WatchMemory: 1, 2, 4, or 8
	Enabled  bool
	HitCount int

	last      uint64
	lastKnown bool // false until the first successful observation
}

// Label renders the subject the way the watch command names it.
func (w *Watchpoint) Label() string {
	switch w.Kind {
	case WatchRegister:
		return fmt.Sprintf("r%d", w.Register)
	case WatchGas:
		return "gas"
	default:
		return fmt.Sprintf("[0x%08X:%d]", w.Address, w.Width)
	}
}

// observe reads the subject's current value as a little-endian u64. ok is
// false when a memory subject's range is not readable under the current
// page access rights.
func (w *Watchpoint) observe(core *pvm.Core) (uint64, bool) {
	switch w.Kind {
	case WatchRegister:
		return core.Regs.Get(w.Register), true
	case WatchGas:
		return core.Gas, true
	default:
		data, err := core.RAM.ReadOctets(w.Address, w.Width)
		if err != nil {
			return 0, false
		}
		var v uint64
		for i := len(data) - 1; i >= 0; i-- {
			v = v<<8 | uint64(data[i])
		}
		return v, true
	}
}

// WatchpointManager owns the session's watchpoints. Like the breakpoint
// manager it is single-goroutine and unlocked.
type WatchpointManager struct {
	watchpoints []*Watchpoint
	nextID      int
}

// NewWatchpointManager returns an empty manager.
func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{nextID: 1}
}

// AddRegister watches register r for value changes.
func (wm *WatchpointManager) AddRegister(core *pvm.Core, r int) (*Watchpoint, error) {
	if r < 0 || r >= pvm.NumRegisters {
		return nil, fmt.Errorf("no register r%d", r)
	}
	return wm.add(core, &Watchpoint{Kind: WatchRegister, Register: r}), nil
}

// AddGas watches the remaining gas budget. Under the per-instruction model
// it changes every step, so this is mostly useful disabled and re-enabled
// around a region of interest.
func (wm *WatchpointManager) AddGas(core *pvm.Core) *Watchpoint {
	return wm.add(core, &Watchpoint{Kind: WatchGas})
}

// AddMemory watches width bytes at addr. The range need not be readable
// yet: a page that only later gains read rights starts reporting from its
// first readable observation.
func (wm *WatchpointManager) AddMemory(core *pvm.Core, addr, width uint32) (*Watchpoint, error) {
	switch width {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("watch width must be 1, 2, 4, or 8 bytes, not %d", width)
	}
	return wm.add(core, &Watchpoint{Kind: WatchMemory, Address: addr, Width: width}), nil
}

// add assigns an id, seeds the baseline value from core if possible, and
// registers the watchpoint.
func (wm *WatchpointManager) add(core *pvm.Core, wp *Watchpoint) *Watchpoint {
	wp.ID = wm.nextID
	wp.Enabled = true
	wm.nextID++
	if core != nil {
		if v, ok := wp.observe(core); ok {
			wp.last, wp.lastKnown = v, true
		}
	}
	wm.watchpoints = append(wm.watchpoints, wp)
	return wp
}

// Remove deletes a watchpoint by id.
func (wm *WatchpointManager) Remove(id int) error {
	for i, wp := range wm.watchpoints {
		if wp.ID == id {
			wm.watchpoints = append(wm.watchpoints[:i], wm.watchpoints[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no watchpoint #%d", id)
}

// SetEnabled arms or disarms a watchpoint. Re-enabling clears the stale
// baseline so the next observation re-seeds it instead of firing on
// whatever changed while disabled.
func (wm *WatchpointManager) SetEnabled(id int, enabled bool) error {
	for _, wp := range wm.watchpoints {
		if wp.ID == id {
			if enabled && !wp.Enabled {
				wp.lastKnown = false
			}
			wp.Enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("no watchpoint #%d", id)
}

// All returns the watchpoints in creation order.
func (wm *WatchpointManager) All() []*Watchpoint {
	out := make([]*Watchpoint, len(wm.watchpoints))
	copy(out, wm.watchpoints)
	return out
}

// Clear forgets every watchpoint.
func (wm *WatchpointManager) Clear() {
	wm.watchpoints = nil
}

// Count returns the number of watchpoints.
func (wm *WatchpointManager) Count() int {
	return len(wm.watchpoints)
}

// CheckAll observes every enabled watchpoint against core and returns the
// first whose value changed since its previous observation, together with
// the old and new values. Unreadable memory subjects are skipped until
// their pages become readable again.
func (wm *WatchpointManager) CheckAll(core *pvm.Core) (wp *Watchpoint, old, now uint64, hit bool) {
	for _, w := range wm.watchpoints {
		if !w.Enabled {
			continue
		}
		v, ok := w.observe(core)
		if !ok {
			continue
		}
		if !w.lastKnown {
			w.last, w.lastKnown = v, true
			continue
		}
		if v != w.last {
			old = w.last
			w.last = v
			w.HitCount++
			return w, old, v, true
		}
	}
	return nil, 0, 0, false
}
