package debugger

import (
	"testing"

	"github.com/Esscrypt/peanutbutterandjam-sub002/program"
	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
)

func newTestCoreForWatchpoints(t *testing.T) *pvm.Core {
	t.Helper()
	p, err := program.New([]byte{pvm.OpTrap}, []bool{true}, nil)
	if err != nil {
		t.Fatalf("program.New: %v", err)
	}
	return pvm.NewCore(p, pvm.RegisterFile{}, pvm.NewRAM(), 1000, pvm.PerInstructionGasModel{}, pvm.DefaultRegistry())
}

func TestWatchpointRegisterFiresOnChange(t *testing.T) {
	wm := NewWatchpointManager()
	core := newTestCoreForWatchpoints(t)
	core.Regs.Set(3, 10)

	wp, err := wm.AddRegister(core, 3)
	if err != nil {
		t.Fatalf("AddRegister: %v", err)
	}

	if _, _, _, hit := wm.CheckAll(core); hit {
		t.Fatal("no change yet: the baseline was seeded at Add time")
	}

	core.Regs.Set(3, 20)
	got, old, now, hit := wm.CheckAll(core)
	if !hit || got.ID != wp.ID {
		t.Fatal("register change should fire the watchpoint")
	}
	if old != 10 || now != 20 {
		t.Fatalf("old/now: got 0x%X/0x%X, want 0xA/0x14", old, now)
	}
	if got.HitCount != 1 {
		t.Fatalf("HitCount: got %d, want 1", got.HitCount)
	}

	if _, _, _, hit := wm.CheckAll(core); hit {
		t.Fatal("a fired watchpoint re-baselines: no further hit without a new change")
	}
}

func TestWatchpointRejectsUnknownRegister(t *testing.T) {
	wm := NewWatchpointManager()
	core := newTestCoreForWatchpoints(t)
	if _, err := wm.AddRegister(core, pvm.NumRegisters); err == nil {
		t.Fatal("register index out of range should be rejected")
	}
}

func TestWatchpointGasFiresWhenGasChanges(t *testing.T) {
	wm := NewWatchpointManager()
	core := newTestCoreForWatchpoints(t)

	wm.AddGas(core)
	core.Gas -= 7

	got, old, now, hit := wm.CheckAll(core)
	if !hit || got.Kind != WatchGas {
		t.Fatal("gas change should fire the watchpoint")
	}
	if old != 1000 || now != 993 {
		t.Fatalf("old/now: got %d/%d, want 1000/993", old, now)
	}
}

func TestWatchpointMemoryFiresOnWrite(t *testing.T) {
	wm := NewWatchpointManager()
	core := newTestCoreForWatchpoints(t)
	addr := uint32(4 * pvm.PageSize)
	if err := core.RAM.SetPageAccessRights(addr, pvm.PageSize, pvm.AccessWrite, false); err != nil {
		t.Fatalf("SetPageAccessRights: %v", err)
	}

	if _, err := wm.AddMemory(core, addr, 4); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}

	if err := core.RAM.WriteOctets(addr, []byte{0xEF, 0xBE, 0xAD, 0xDE}); err != nil {
		t.Fatalf("WriteOctets: %v", err)
	}
	got, old, now, hit := wm.CheckAll(core)
	if !hit {
		t.Fatal("memory change should fire the watchpoint")
	}
	if old != 0 || now != 0xDEADBEEF {
		t.Fatalf("old/now: got 0x%X/0x%X, want 0/0xDEADBEEF", old, now)
	}
	if got.Label() == "" {
		t.Fatal("Label should render the watched range")
	}
}

func TestWatchpointMemoryRejectsBadWidth(t *testing.T) {
	wm := NewWatchpointManager()
	core := newTestCoreForWatchpoints(t)
	if _, err := wm.AddMemory(core, 0, 3); err == nil {
		t.Fatal("width 3 should be rejected")
	}
}

func TestWatchpointUnreadableMemoryIsSkippedUntilReadable(t *testing.T) {
	wm := NewWatchpointManager()
	core := newTestCoreForWatchpoints(t)
	addr := uint32(4 * pvm.PageSize)

	// The page has no rights yet: the baseline cannot be seeded.
	if _, err := wm.AddMemory(core, addr, 1); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	if _, _, _, hit := wm.CheckAll(core); hit {
		t.Fatal("an unreadable subject should be skipped, not fired")
	}

	// Grant rights and write: the first readable observation seeds the
	// baseline rather than firing.
	if err := core.RAM.SetPageAccessRights(addr, pvm.PageSize, pvm.AccessWrite, false); err != nil {
		t.Fatalf("SetPageAccessRights: %v", err)
	}
	if err := core.RAM.WriteOctets(addr, []byte{0x55}); err != nil {
		t.Fatalf("WriteOctets: %v", err)
	}
	if _, _, _, hit := wm.CheckAll(core); hit {
		t.Fatal("first readable observation seeds the baseline")
	}

	if err := core.RAM.WriteOctets(addr, []byte{0x66}); err != nil {
		t.Fatalf("WriteOctets: %v", err)
	}
	if _, _, _, hit := wm.CheckAll(core); !hit {
		t.Fatal("a change after the baseline should fire")
	}
}

func TestWatchpointDisableClearsStaleBaseline(t *testing.T) {
	wm := NewWatchpointManager()
	core := newTestCoreForWatchpoints(t)
	core.Regs.Set(1, 5)

	wp, err := wm.AddRegister(core, 1)
	if err != nil {
		t.Fatalf("AddRegister: %v", err)
	}
	if err := wm.SetEnabled(wp.ID, false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}

	core.Regs.Set(1, 6) // changes while disabled
	if err := wm.SetEnabled(wp.ID, true); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if _, _, _, hit := wm.CheckAll(core); hit {
		t.Fatal("re-enabling must re-seed the baseline, not fire on the change made while disabled")
	}

	core.Regs.Set(1, 7)
	if _, _, _, hit := wm.CheckAll(core); !hit {
		t.Fatal("a change after re-enabling should fire")
	}
}

func TestWatchpointRemove(t *testing.T) {
	wm := NewWatchpointManager()
	core := newTestCoreForWatchpoints(t)
	wp, _ := wm.AddRegister(core, 0)
	if err := wm.Remove(wp.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if wm.Count() != 0 {
		t.Fatalf("Count: got %d, want 0", wm.Count())
	}
	if err := wm.Remove(wp.ID); err == nil {
		t.Fatal("removing an unknown id should error")
	}
}
