// Package hostcall holds the constants and small memory-ABI helpers shared
// by every context mutator: the well-known return codes, and the
// read/write-arguments-through-registers-and-RAM conventions every host
// call follows. It does not itself implement any specific host call; those
// live in invoke, one file per invocation wrapper, since each needs its
// own context type.
package hostcall

import "github.com/Esscrypt/peanutbutterandjam-sub002/pvm"

// Well-known 64-bit return codes written into r7 by a context mutator.
const (
	// None signals "no data" for a lookup-style host call.
	None uint64 = ^uint64(0)
	// Full signals a capacity-exhausted condition (e.g. the export or
	// provision list is already at its cap).
	Full uint64 = ^uint64(0) - 1
	// Huh signals an unknown subject (e.g. a segment or service index that
	// does not exist).
	Huh uint64 = ^uint64(0) - 2
	// Who signals a bad actor id (a service id that is not a valid actor).
	Who uint64 = ^uint64(0) - 3
	// What signals an unrecognized host-call id.
	What uint64 = 2
	// Ok signals unconditional success with no further payload semantics.
	Ok uint64 = 0
)

// ReturnCodeReg is the register a mutator writes its status code into.
const ReturnCodeReg = 7

// ArgRegs names the registers (r7..r12) a host call's arguments are taken
// from, by convention index 0 == r7.
var ArgRegs = [6]int{7, 8, 9, 10, 11, 12}

// Unknown is the mutator response every context's dispatcher falls back to
// for an unrecognized host-call id: it is a domain error, not a VM error,
// so execution continues with WHAT in r7.
func Unknown(core *pvm.Core) (pvm.MutatorOutcome, bool) {
	core.Regs.Set(ReturnCodeReg, What)
	return pvm.ContinueRunning(), true
}

// ReadMemArg reads a (addr, len) pair out of two argument registers and
// returns the bytes at that range, or ok=false on a RAM fault. How a
// fault is reported is the caller's choice; most host calls treat an
// unreadable argument range as a domain error in r7.
func ReadMemArg(core *pvm.Core, addrReg, lenReg int) ([]byte, bool) {
	addr := core.Regs.AsU32(addrReg)
	length := core.Regs.AsU32(lenReg)
	data, err := core.RAM.ReadOctets(addr, length)
	if err != nil {
		return nil, false
	}
	return data, true
}

// WriteMemOut writes all of data to the address held in addrReg; no length
// cap is applied. Returns ok=false on a RAM fault.
func WriteMemOut(core *pvm.Core, addrReg int, data []byte) bool {
	addr := core.Regs.AsU32(addrReg)
	return core.RAM.WriteOctets(addr, data) == nil
}
