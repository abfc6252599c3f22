package pvm

// memWidth describes one load/store instruction's access size and, for
// loads, whether the result sign- or zero-extends.
type memWidth struct {
	bytes  int
	signed bool
}

var (
	wU8  = memWidth{1, false}
	wI8  = memWidth{1, true}
	wU16 = memWidth{2, false}
	wI16 = memWidth{2, true}
	wU32 = memWidth{4, false}
	wI32 = memWidth{4, true}
	wU64 = memWidth{8, false}
)

func signExtend(v uint64, bytes int) uint64 {
	bits := uint(bytes * 8)
	if bits >= 64 {
		return v
	}
	signBit := uint64(1) << (bits - 1)
	if v&signBit != 0 {
		return v | (^uint64(0) << bits)
	}
	return v
}

func bytesToUint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func uintToBytes(v uint64, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = byte(v >> uint(8*i))
	}
	return out
}

// registerLoadStore installs the load/store instructions: direct, indirect, and
// immediate-store addressing at every width.
func registerLoadStore(r *Registry) {
	directLoads := []struct {
		op Opcode
		w  memWidth
	}{
		{OpLoadU8, wU8}, {OpLoadI8, wI8},
		{OpLoadU16, wU16}, {OpLoadI16, wI16},
		{OpLoadU32, wU32}, {OpLoadI32, wI32},
		{OpLoadU64, wU64},
	}
	for _, d := range directLoads {
		r.Register(d.op, makeDirectLoad(d.w))
	}

	directStores := []struct {
		op Opcode
		n  int
	}{
		{OpStoreU8, 1}, {OpStoreU16, 2}, {OpStoreU32, 4}, {OpStoreU64, 8},
	}
	for _, d := range directStores {
		r.Register(d.op, makeDirectStore(d.n))
	}

	indirectLoads := []struct {
		op Opcode
		w  memWidth
	}{
		{OpLoadIndU8, wU8}, {OpLoadIndI8, wI8},
		{OpLoadIndU16, wU16}, {OpLoadIndI16, wI16},
		{OpLoadIndU32, wU32}, {OpLoadIndI32, wI32},
		{OpLoadIndU64, wU64},
	}
	for _, d := range indirectLoads {
		r.Register(d.op, makeIndirectLoad(d.w))
	}

	indirectStores := []struct {
		op Opcode
		n  int
	}{
		{OpStoreIndU8, 1}, {OpStoreIndU16, 2}, {OpStoreIndU32, 4}, {OpStoreIndU64, 8},
	}
	for _, d := range indirectStores {
		r.Register(d.op, makeIndirectStore(d.n))
	}

	immStores := []struct {
		op Opcode
		n  int
	}{
		{OpStoreImmU8, 1}, {OpStoreImmU16, 2}, {OpStoreImmU32, 4}, {OpStoreImmU64, 8},
	}
	for _, d := range immStores {
		r.Register(d.op, makeImmStore(d.n))
	}

	immIndStores := []struct {
		op Opcode
		n  int
	}{
		{OpStoreImmIndU8, 1}, {OpStoreImmIndU16, 2}, {OpStoreImmIndU32, 4}, {OpStoreImmIndU64, 8},
	}
	for _, d := range immIndStores {
		r.Register(d.op, makeImmIndStore(d.n))
	}
}

// makeDirectLoad builds LOAD_{width} reg, imm-address.
func makeDirectLoad(w memWidth) Handler {
	return func(c *Core, operands []byte) Outcome {
		reg := regA(operands)
		addr := uint32(immAfter(operands, 1, maxImmediateLen))
		bytes, err := c.RAM.ReadOctets(addr, uint32(w.bytes))
		if err != nil {
			return outcomeFault(faultAddrOf(err))
		}
		v := bytesToUint(bytes)
		if w.signed {
			v = signExtend(v, w.bytes)
		}
		c.Regs.Set(reg, v)
		return outcomeContinue()
	}
}

// makeDirectStore builds STORE_{width} imm-address, regA (source in regA,
// nibble low of operands[0]; address is the trailing immediate).
func makeDirectStore(n int) Handler {
	return func(c *Core, operands []byte) Outcome {
		reg := regA(operands)
		addr := uint32(immAfter(operands, 1, maxImmediateLen))
		v := c.Regs.Get(reg)
		if err := c.RAM.WriteOctets(addr, uintToBytes(v, n)); err != nil {
			return outcomeFault(faultAddrOf(err))
		}
		return outcomeContinue()
	}
}

// makeIndirectLoad builds LOAD_IND_{width} regD, regA, imm-offset: address
// is as_u32(regA) + imm.
func makeIndirectLoad(w memWidth) Handler {
	return func(c *Core, operands []byte) Outcome {
		d, a, _ := regDAB(operands)
		offset := immAfter(operands, 2, maxImmediateLen)
		addr := c.Regs.AsU32(a) + uint32(offset)
		bytes, err := c.RAM.ReadOctets(addr, uint32(w.bytes))
		if err != nil {
			return outcomeFault(faultAddrOf(err))
		}
		v := bytesToUint(bytes)
		if w.signed {
			v = signExtend(v, w.bytes)
		}
		c.Regs.Set(d, v)
		return outcomeContinue()
	}
}

// makeIndirectStore builds STORE_IND_{width} regB(source), regA(base),
// imm-offset.
func makeIndirectStore(n int) Handler {
	return func(c *Core, operands []byte) Outcome {
		src, base, _ := regDAB(operands)
		offset := immAfter(operands, 2, maxImmediateLen)
		addr := c.Regs.AsU32(base) + uint32(offset)
		v := c.Regs.Get(src)
		if err := c.RAM.WriteOctets(addr, uintToBytes(v, n)); err != nil {
			return outcomeFault(faultAddrOf(err))
		}
		return outcomeContinue()
	}
}

// makeImmStore builds STORE_IMM_{width} imm-address, imm-value.
func makeImmStore(n int) Handler {
	return func(c *Core, operands []byte) Outcome {
		addr, value := splitTwoImmediates(operands, 0, maxSplitImmediateLen)
		if err := c.RAM.WriteOctets(uint32(addr), uintToBytes(uint64(value), n)); err != nil {
			return outcomeFault(faultAddrOf(err))
		}
		return outcomeContinue()
	}
}

// makeImmIndStore builds STORE_IMM_IND_{width} regA(base), imm-offset,
// imm-value.
func makeImmIndStore(n int) Handler {
	return func(c *Core, operands []byte) Outcome {
		base := regA(operands)
		offset, value := splitTwoImmediates(operands, 1, maxSplitImmediateLen)
		addr := c.Regs.AsU32(base) + uint32(offset)
		if err := c.RAM.WriteOctets(addr, uintToBytes(uint64(value), n)); err != nil {
			return outcomeFault(faultAddrOf(err))
		}
		return outcomeContinue()
	}
}

func faultAddrOf(err error) uint32 {
	if fe, ok := err.(*FaultError); ok {
		return fe.Address
	}
	return 0
}
