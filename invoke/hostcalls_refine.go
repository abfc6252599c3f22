package invoke

import (
	"github.com/Esscrypt/peanutbutterandjam-sub002/hostcall"
	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
)

// refineMutator dispatches host-call ids 0..9 to Refine's ten named host
// functions. Each reads its arguments from r7..r12, mutates RefineContext
// and/or RAM, writes its result into r7, and returns continue.
func refineMutator(hostCallID uint64, core *pvm.Core, ctx RefineContext) (pvm.MutatorOutcome, RefineContext) {
	switch hostCallID {
	case hostcallGas:
		core.Regs.Set(hostcall.ReturnCodeReg, core.Gas)
	case hostcallFetch:
		refineFetch(core, &ctx)
	case hostcallHistoricalLookup:
		refineHistoricalLookup(core, &ctx)
	case hostcallExport:
		refineExport(core, &ctx)
	case hostcallMachine:
		refineMachine(core, &ctx)
	case hostcallPeek:
		refinePeek(core, &ctx)
	case hostcallPoke:
		refinePoke(core, &ctx)
	case hostcallPages:
		refinePages(core, &ctx)
	case hostcallInvoke:
		refineInvoke(core, &ctx)
	case hostcallExpunge:
		refineExpunge(core, &ctx)
	default:
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.What)
	}
	return pvm.ContinueRunning(), ctx
}

// refineFetch: r7 selects the source (0 = authorizer trace, 1 = the import
// segment indexed by r10); r8/r9 are the destination address/capacity.
func refineFetch(core *pvm.Core, ctx *RefineContext) {
	selector := core.Regs.Get(7)
	var data []byte
	switch selector {
	case 0:
		data = ctx.AuthorizerTrace
	case 1:
		idx := core.Regs.AsU32(10)
		if int(idx) < len(ctx.ImportSegments) {
			data = ctx.ImportSegments[idx]
		}
	}
	handleFetch(core, data)
}

// refineHistoricalLookup: r7 = service id, r8/r9 = hash bytes address/len,
// r10/r11 = destination address/capacity.
func refineHistoricalLookup(core *pvm.Core, ctx *RefineContext) {
	serviceID := uint32(core.Regs.Get(7))
	acct, ok := ctx.Accounts[serviceID]
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
	destAddr, maxLen := 10, core.Regs.AsU32(11)
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

// refineExport: r7/r8 = source address/len. Appends the segment, padded
// (conceptually) to MaxSegmentSize, to ctx.ExportSegments.
func refineExport(core *pvm.Core, ctx *RefineContext) {
	if len(ctx.ExportSegments) >= MaxPackageExports {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Full)
		return
	}
	data, ok := hostcall.ReadMemArg(core, 7, 8)
	if !ok {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	if len(data) > MaxSegmentSize {
		data = data[:MaxSegmentSize]
	}
	ctx.ExportSegments = append(ctx.ExportSegments, data)
	core.Regs.Set(hostcall.ReturnCodeReg, uint64(len(ctx.ExportSegments)-1))
}

// refineMachine: r7/r8 = program blob address/len in the caller's RAM.
// Decodes a fresh program and seeds an inner machine with an empty
// argument, registering it under a new id returned in r7.
func refineMachine(core *pvm.Core, ctx *RefineContext) {
	blobBytes, ok := hostcall.ReadMemArg(core, 7, 8)
	if !ok {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	y, err := Y(blobBytes, nil)
	if err != nil {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	inner := pvm.NewCore(y.Program, y.Registers, y.RAM, core.Gas, pvm.PerInstructionGasModel{}, pvm.DefaultRegistry())
	inner.HeapBreak, inner.HeapMax = y.HeapBreak, y.HeapMax
	id := ctx.nextMachineID
	ctx.nextMachineID++
	if ctx.machines == nil {
		ctx.machines = make(map[uint64]*innerMachine)
	}
	ctx.machines[id] = &innerMachine{core: inner}
	core.Regs.Set(hostcall.ReturnCodeReg, id)
}

// refinePeek: r7 = machine id, r8/r9 = source address/len in the inner
// machine, r10 = destination address in the caller's RAM.
func refinePeek(core *pvm.Core, ctx *RefineContext) {
	m, ok := ctx.machines[core.Regs.Get(7)]
	if !ok {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Who)
		return
	}
	data, err := m.core.RAM.ReadOctets(core.Regs.AsU32(8), core.Regs.AsU32(9))
	if err != nil {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	if !hostcall.WriteMemOut(core, 10, data) {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Ok)
}

// refinePoke: r7 = machine id, r8/r9 = source address/len in the caller's
// RAM, r10 = destination address in the inner machine.
func refinePoke(core *pvm.Core, ctx *RefineContext) {
	m, ok := ctx.machines[core.Regs.Get(7)]
	if !ok {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Who)
		return
	}
	data, ok := hostcall.ReadMemArg(core, 8, 9)
	if !ok {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	if err := m.core.RAM.WriteOctets(core.Regs.AsU32(10), data); err != nil {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Ok)
}

// refinePages: r7 = machine id, r8 = page-aligned address, r9 =
// page-aligned length, r10 = rights (0 none, 1 read, 2 write).
func refinePages(core *pvm.Core, ctx *RefineContext) {
	m, ok := ctx.machines[core.Regs.Get(7)]
	if !ok {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Who)
		return
	}
	rights := pvm.AccessRights(core.Regs.Get(10))
	if err := m.core.RAM.SetPageAccessRights(core.Regs.AsU32(8), core.Regs.AsU32(9), rights, false); err != nil {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Huh)
		return
	}
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Ok)
}

// refineInvoke: r7 = machine id. Runs the inner machine's own Ψ loop to
// termination and reports its terminal result code in r7.
func refineInvoke(core *pvm.Core, ctx *RefineContext) {
	m, ok := ctx.machines[core.Regs.Get(7)]
	if !ok {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Who)
		return
	}
	out := m.core.Run()
	core.Regs.Set(hostcall.ReturnCodeReg, uint64(out.Code))
}

// refineExpunge: r7 = machine id. Discards the inner machine, reporting its
// last gas balance in r7.
func refineExpunge(core *pvm.Core, ctx *RefineContext) {
	m, ok := ctx.machines[core.Regs.Get(7)]
	if !ok {
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.Who)
		return
	}
	delete(ctx.machines, core.Regs.Get(7))
	core.Regs.Set(hostcall.ReturnCodeReg, m.core.Gas)
}
