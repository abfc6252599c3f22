package invoke

import (
	"github.com/Esscrypt/peanutbutterandjam-sub002/hostcall"
	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
)

// accumulateMutator dispatches host-call ids 0..13 to a reduced general
// table (only "gas" is meaningful without a RefineContext; every other
// general id is WHAT under Accumulate) and ids 14..26 to the
// accumulate-specific host functions.
func accumulateMutator(hostCallID uint64, core *pvm.Core, ctx ImplicationsPair) (pvm.MutatorOutcome, ImplicationsPair) {
	if hostCallID < 14 {
		if hostCallID == hostcallGas {
			core.Regs.Set(hostcall.ReturnCodeReg, core.Gas)
		} else {
			core.Regs.Set(hostcall.ReturnCodeReg, hostcall.What)
		}
		return pvm.ContinueRunning(), ctx
	}

	switch hostCallID {
	case hostcallBless:
		accBless(core, &ctx)
	case hostcallAssign:
		accAssign(core, &ctx)
	case hostcallDesignate:
		accDesignate(core, &ctx)
	case hostcallCheckpoint:
		accCheckpoint(core, &ctx)
	case hostcallNew:
		accNew(core, &ctx)
	case hostcallUpgrade:
		accUpgrade(core, &ctx)
	case hostcallTransfer:
		accTransfer(core, &ctx)
	case hostcallEject:
		accEject(core, &ctx)
	case hostcallQuery:
		accQuery(core, &ctx)
	case hostcallSolicit:
		accSolicit(core, &ctx)
	case hostcallForget:
		accForget(core, &ctx)
	case hostcallYield:
		accYield(core, &ctx)
	case hostcallProvide:
		accProvide(core, &ctx)
	default:
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.What)
	}
	return pvm.ContinueRunning(), ctx
}

// current returns whichever side of the pair is "live" while execution is
// still running: the regular branch, since the exceptional branch only
// becomes authoritative on PANIC/OOG collapse.
func current(ctx *ImplicationsPair) *Implications { return &ctx.Regular }

// accBless sets the "blessed" privileged service, recorded as the id from
// r7 under a well-known Provisions key; a full privilege-table model is
// out of scope.
func accBless(core *pvm.Core, ctx *ImplicationsPair) {
	current(ctx).Provisions[0] = codecU32(core.Regs.AsU32(7))
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Ok)
}

// accAssign assigns a core index to a service, recorded the same way.
func accAssign(core *pvm.Core, ctx *ImplicationsPair) {
	current(ctx).Provisions[core.Regs.AsU32(7)] = codecU32(core.Regs.AsU32(8))
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Ok)
}

// accDesignate records a validator-set designation, keyed the same way.
func accDesignate(core *pvm.Core, ctx *ImplicationsPair) {
	current(ctx).Provisions[1] = codecU32(core.Regs.AsU32(7))
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Ok)
}

// accCheckpoint snapshots the current account state into the exceptional
// branch, so a later PANIC/OOG collapses to this checkpoint rather than the
// pre-invocation state.
func accCheckpoint(core *pvm.Core, ctx *ImplicationsPair) {
	ctx.Exceptional = current(ctx).clone()
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Ok)
}

// accNew creates a new service account under the derived next_free_id and
// advances it; next_free_id acts as a single-use allocator.
func accNew(core *pvm.Core, ctx *ImplicationsPair) {
	impl := current(ctx)
	newID := impl.NextFreeID
	impl.State.Accounts[newID] = &Account{Preimages: make(map[[32]byte][]byte)}
	impl.NextFreeID = deriveNextFreeID(newID, impl.State.EntropyAccumulator, 0)
	core.Regs.Set(hostcall.ReturnCodeReg, uint64(newID))
}

// accUpgrade replaces the current service's code hash: r7/r8 give the new
// hash's address/length in the caller's RAM.
func accUpgrade(core *pvm.Core, ctx *ImplicationsPair) {
	impl := current(ctx)
	acct, ok := impl.State.Accounts[impl.ServiceID]
	if !ok {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Who)
		return
	}
	hashBytes, ok := hostcall.ReadMemArg(core, 7, 8)
	if !ok || len(hashBytes) != 32 {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	copy(acct.CodeHash[:], hashBytes)
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Ok)
}

// accTransfer queues a deferred transfer: r7 = dest service, r8 = amount,
// r9 = gas, r10/r11 = memo address/length (truncated/zero-padded to 128).
func accTransfer(core *pvm.Core, ctx *ImplicationsPair) {
	impl := current(ctx)
	memoBytes, _ := hostcall.ReadMemArg(core, 10, 11)
	var memo [128]byte
	copy(memo[:], memoBytes)
	impl.Transfers = append(impl.Transfers, DeferredTransfer{
		Source: impl.ServiceID,
		Dest:   core.Regs.AsU32(7),
		Amount: core.Regs.Get(8),
		Gas:    core.Regs.Get(9),
		Memo:   memo,
	})
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Ok)
}

// accEject removes a service account: r7 = service id to eject.
func accEject(core *pvm.Core, ctx *ImplicationsPair) {
	impl := current(ctx)
	id := core.Regs.AsU32(7)
	if _, ok := impl.State.Accounts[id]; !ok {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	delete(impl.State.Accounts, id)
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Ok)
}

// accQuery looks up a preimage's length by hash without fetching its
// bytes: r7 = service id, r8/r9 = hash address/length.
func accQuery(core *pvm.Core, ctx *ImplicationsPair) {
	impl := current(ctx)
	acct, ok := impl.State.Accounts[core.Regs.AsU32(7)]
	if !ok {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Who)
		return
	}
	hashBytes, ok := hostcall.ReadMemArg(core, 8, 9)
	if !ok {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	var hash [32]byte
	copy(hash[:], hashBytes)
	data, ok := acct.Preimages[hash]
	if !ok {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.None)
		return
	}
	core.Regs.Set(hostcall.ReturnCodeReg, uint64(len(data)))
}

// accSolicit requests that a preimage be made available: recorded as an
// empty placeholder entry in the current service account's Preimages,
// leaving an existing entry for that hash untouched.
func accSolicit(core *pvm.Core, ctx *ImplicationsPair) {
	impl := current(ctx)
	hashBytes, ok := hostcall.ReadMemArg(core, 7, 8)
	if !ok {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	var hash [32]byte
	copy(hash[:], hashBytes)
	acct := impl.State.Accounts[impl.ServiceID]
	if acct.Preimages == nil {
		acct.Preimages = make(map[[32]byte][]byte)
	}
	if _, exists := acct.Preimages[hash]; !exists {
		acct.Preimages[hash] = []byte{}
	}
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Ok)
}

// accForget reverses accSolicit for a hash the service no longer needs.
func accForget(core *pvm.Core, ctx *ImplicationsPair) {
	impl := current(ctx)
	hashBytes, ok := hostcall.ReadMemArg(core, 7, 8)
	if !ok {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	var hash [32]byte
	copy(hash[:], hashBytes)
	acct := impl.State.Accounts[impl.ServiceID]
	delete(acct.Preimages, hash)
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Ok)
}

// accYield sets the implication's yielded hash: r7/r8 = hash address/length
// (must be exactly 32 bytes).
func accYield(core *pvm.Core, ctx *ImplicationsPair) {
	impl := current(ctx)
	data, ok := hostcall.ReadMemArg(core, 7, 8)
	if !ok || len(data) != 32 {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	var hash [32]byte
	copy(hash[:], data)
	impl.Yield = &hash
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Ok)
}

// accProvide stores a preimage the service is making available: r7/r8 =
// bytes address/length, keyed by the hash the caller supplies in r9/r10.
func accProvide(core *pvm.Core, ctx *ImplicationsPair) {
	impl := current(ctx)
	hashBytes, ok1 := hostcall.ReadMemArg(core, 9, 10)
	data, ok2 := hostcall.ReadMemArg(core, 7, 8)
	if !ok1 || !ok2 || len(hashBytes) != 32 {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	var hash [32]byte
	copy(hash[:], hashBytes)
	acct := impl.State.Accounts[impl.ServiceID]
	if acct.Preimages == nil {
		acct.Preimages = make(map[[32]byte][]byte)
	}
	acct.Preimages[hash] = append([]byte{}, data...)
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Ok)
}

func codecU32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
