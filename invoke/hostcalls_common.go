package invoke

import (
	"github.com/Esscrypt/peanutbutterandjam-sub002/codec"
	"github.com/Esscrypt/peanutbutterandjam-sub002/hostcall"
	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
)

// Host-call ids 0..13 are the general table shared by Is-Authorized
// (gas, fetch only) and Refine (all ten named calls). Accumulate answers
// only gas from this range; every other id below 14 gets WHAT there and is
// not dispatched to the Refine host functions.
const (
	hostcallGas uint64 = iota
	hostcallFetch
	hostcallHistoricalLookup
	hostcallExport
	hostcallMachine
	hostcallPeek
	hostcallPoke
	hostcallPages
	hostcallInvoke
	hostcallExpunge
)

// accumulate-specific ids, 14..26.
const (
	hostcallBless uint64 = iota + 14
	hostcallAssign
	hostcallDesignate
	hostcallCheckpoint
	hostcallNew
	hostcallUpgrade
	hostcallTransfer
	hostcallEject
	hostcallQuery
	hostcallSolicit
	hostcallForget
	hostcallYield
	hostcallProvide
)

// handleFetch implements the shared "fetch" host call: it writes data (the
// piece of context-specific data the caller resolved, e.g. a segment or
// the authorizer trace) to the address in r8, capped at the length in r9,
// and reports the number of bytes written in r7, or hostcall.None if data
// is nil. Actual source resolution (which blob "fetch" returns) is
// context-specific and owned by each wrapper's dispatcher; this helper is
// only the memory-ABI plumbing.
func handleFetch(core *pvm.Core, data []byte) {
	if data == nil {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.None)
		return
	}
	destAddr := 8
	maxLenReg := 9
	maxLen := core.Regs.AsU32(maxLenReg)
	n := uint32(len(data))
	if n > maxLen {
		n = maxLen
	}
	if !hostcall.WriteMemOut(core, destAddr, data[:n]) {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	core.Regs.Set(hostcall.ReturnCodeReg, uint64(n))
}

// encodeNaturalArg builds the length-prefixed count fields the wrappers
// append to their argument blobs.
func encodeNaturalArg(n uint64) []byte {
	return codec.EncodeNatural(n)
}
