package hostcall

import (
	"testing"

	"github.com/Esscrypt/peanutbutterandjam-sub002/program"
	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
)

func newTestCore(t *testing.T) *pvm.Core {
	t.Helper()
	p, err := program.New([]byte{0x00}, []bool{true}, nil)
	if err != nil {
		t.Fatalf("program.New: %v", err)
	}
	return pvm.NewCore(p, pvm.RegisterFile{}, pvm.NewRAM(), 1000, pvm.PerInstructionGasModel{}, pvm.DefaultRegistry())
}

func TestUnknownWritesWhat(t *testing.T) {
	core := newTestCore(t)
	out, ok := Unknown(core)
	if !ok || !out.Continue {
		t.Fatalf("Unknown: got (%v, %v), want continue/ok", out, ok)
	}
	if got := core.Regs.Get(ReturnCodeReg); got != What {
		t.Fatalf("r7: got %d, want WHAT (%d)", got, What)
	}
}

func TestReadMemArgReadsAddrAndLenFromRegisters(t *testing.T) {
	core := newTestCore(t)
	addr := uint32(4 * pvm.PageSize)
	if err := core.RAM.SetPageAccessRights(addr, pvm.PageSize, pvm.AccessWrite, false); err != nil {
		t.Fatalf("SetPageAccessRights: %v", err)
	}
	if err := core.RAM.WriteOctets(addr, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("WriteOctets: %v", err)
	}
	core.Regs.Set(7, uint64(addr))
	core.Regs.Set(8, 4)
	data, ok := ReadMemArg(core, 7, 8)
	if !ok {
		t.Fatal("ReadMemArg: expected ok=true")
	}
	if len(data) != 4 || data[0] != 1 || data[3] != 4 {
		t.Fatalf("ReadMemArg: got %v", data)
	}
}

func TestReadMemArgFaultsOnInaccessiblePage(t *testing.T) {
	core := newTestCore(t)
	core.Regs.Set(7, uint64(4*pvm.PageSize))
	core.Regs.Set(8, 4)
	if _, ok := ReadMemArg(core, 7, 8); ok {
		t.Fatal("ReadMemArg: expected ok=false reading an inaccessible page")
	}
}

func TestWriteMemOutWritesToAddrRegister(t *testing.T) {
	core := newTestCore(t)
	addr := uint32(4 * pvm.PageSize)
	if err := core.RAM.SetPageAccessRights(addr, pvm.PageSize, pvm.AccessWrite, false); err != nil {
		t.Fatalf("SetPageAccessRights: %v", err)
	}
	core.Regs.Set(7, uint64(addr))
	if !WriteMemOut(core, 7, []byte{9, 9}) {
		t.Fatal("WriteMemOut: expected ok=true")
	}
	got, err := core.RAM.ReadOctets(addr, 2)
	if err != nil {
		t.Fatalf("ReadOctets: %v", err)
	}
	if got[0] != 9 || got[1] != 9 {
		t.Fatalf("WriteMemOut: got %v", got)
	}
}

func TestWriteMemOutFaultsOnReadOnlyPage(t *testing.T) {
	core := newTestCore(t)
	addr := uint32(4 * pvm.PageSize)
	if err := core.RAM.SetPageAccessRights(addr, pvm.PageSize, pvm.AccessRead, false); err != nil {
		t.Fatalf("SetPageAccessRights: %v", err)
	}
	core.Regs.Set(7, uint64(addr))
	if WriteMemOut(core, 7, []byte{9}) {
		t.Fatal("WriteMemOut: expected ok=false writing to a read-only page")
	}
}
