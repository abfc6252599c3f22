// Package invoke implements the program initializer Y, the marshalling
// invocation Ψ_M, and the three invocation wrappers (Is-Authorized, Refine,
// Accumulate) that are thin specializations of Ψ_M over pvm.Machine.
package invoke

import (
	"fmt"

	"github.com/Esscrypt/peanutbutterandjam-sub002/program"
	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
)

// InputAreaSize is the input-area size I used by the layout-feasibility
// inequality and by the argument/stack region addresses. Fixed at one
// zone: every region boundary in the standard layout is already
// zone-aligned.
const InputAreaSize = pvm.ZoneSize

// ErrLayoutInfeasible is Y's "None" result: the program's
// declared sections cannot fit the 32-bit address space under the fixed
// zone layout.
var ErrLayoutInfeasible = fmt.Errorf("invoke: program memory layout infeasible")

// Result is what Y produces: the decoded program plus the register file and
// RAM it seeded, and the heap bounds SBRK needs.
type Result struct {
	Program   *program.Program
	Registers pvm.RegisterFile
	RAM       *pvm.RAM
	HeapBreak uint32
	HeapMax   uint32
}

func ceilTo(x, unit uint64) uint64 {
	if x == 0 {
		return 0
	}
	return ((x + unit - 1) / unit) * unit
}

// Y is the standard program initializer: decode the blob, check the layout is
// feasible, lay out the six memory regions, and seed the initial register
// file.
func Y(programBlob []byte, argument []byte) (*Result, error) {
	blob, err := program.DecodeBlob(programBlob)
	if err != nil {
		return nil, err
	}

	const Z = uint64(pvm.ZoneSize)
	const P = uint64(pvm.PageSize)
	const I = uint64(InputAreaSize)

	oLen := uint64(len(blob.ReadOnlyData))
	wLen := uint64(len(blob.ReadWriteData))
	zPages := uint64(blob.ExtraPages)
	sLen := uint64(blob.StackSize)
	aLen := uint64(len(argument))

	feasible := 5*Z + ceilTo(oLen, Z) + ceilTo(wLen+zPages*P, Z) + ceilTo(sLen, Z) + I
	if feasible > uint64(1)<<32 {
		return nil, ErrLayoutInfeasible
	}

	ram := pvm.NewRAM()

	// Read-only data: [Z, Z + ceil_P(|o|))
	roStart := Z
	roLen := ceilTo(oLen, P)
	if roLen > 0 {
		if err := ram.SetPageAccessRights(uint32(roStart), uint32(roLen), pvm.AccessWrite, false); err != nil {
			return nil, err
		}
		if err := ram.WriteOctets(uint32(roStart), blob.ReadOnlyData); err != nil {
			return nil, err
		}
		if err := ram.SetPageAccessRights(uint32(roStart), uint32(roLen), pvm.AccessRead, false); err != nil {
			return nil, err
		}
	}

	// Read-write data: [2Z + ceil_Z(|o|), ...) + z extra pages, padded to P.
	rwStart := 2*Z + ceilTo(oLen, Z)
	rwDataLen := ceilTo(wLen, P)
	heapTailLen := zPages * P
	rwTotalLen := rwDataLen + heapTailLen
	if rwTotalLen > 0 {
		if err := ram.SetPageAccessRights(uint32(rwStart), uint32(rwTotalLen), pvm.AccessWrite, false); err != nil {
			return nil, err
		}
		if wLen > 0 {
			if err := ram.WriteOctets(uint32(rwStart), blob.ReadWriteData); err != nil {
				return nil, err
			}
		}
	}
	heapBreak := rwStart + rwTotalLen

	// Stack: [2^32 - 2Z - I - ceil_P(s), 2^32 - 2Z - I)
	stackLen := ceilTo(sLen, P)
	stackStart := (uint64(1)<<32 - 2*Z - I) - stackLen
	if stackLen > 0 {
		if err := ram.SetPageAccessRights(uint32(stackStart), uint32(stackLen), pvm.AccessWrite, false); err != nil {
			return nil, err
		}
	}
	heapMax := stackStart

	// Argument: [2^32 - Z - I, ...), padded to P, padding pages marked.
	argStart := uint64(1)<<32 - Z - I
	argPaddedLen := ceilTo(aLen, P)
	if argPaddedLen > 0 {
		if err := ram.SetPageAccessRights(uint32(argStart), uint32(argPaddedLen), pvm.AccessWrite, true); err != nil {
			return nil, err
		}
		if aLen > 0 {
			if err := ram.WriteOctets(uint32(argStart), argument); err != nil {
				return nil, err
			}
		}
		if err := ram.SetPageAccessRights(uint32(argStart), uint32(argPaddedLen), pvm.AccessRead, true); err != nil {
			return nil, err
		}
	}

	var regs pvm.RegisterFile
	regs.Set(0, uint64(1)<<32-65536)
	regs.Set(1, uint64(1)<<32-2*Z-I)
	regs.Set(7, argStart)
	regs.Set(8, aLen)

	return &Result{
		Program:   blob.Program,
		Registers: regs,
		RAM:       ram,
		HeapBreak: uint32(heapBreak),
		HeapMax:   uint32(heapMax),
	}, nil
}
