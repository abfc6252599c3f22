// Package program decodes a PVM program blob into its three sections
// (instruction stream, opcode bitmask, and dynamic jump table) and provides
// the skip function used to find instruction boundaries. This is the
// "Program Decoder" component; the exact on-the-wire section layout is
// owned by this package, but the blob's contents beyond that layout (the
// actual opcodes) are opaque to it.
package program

import (
	"errors"
	"fmt"

	"github.com/Esscrypt/peanutbutterandjam-sub002/codec"
)

// codePadding and bitmaskPadding: the bitmask is virtually
// extended with 16 1-bits (and the code with 16 zero bytes) so stepping
// past the end of a program deterministically executes TRAP-equivalents.
const (
	codePadding    = 16
	bitmaskPadding = 16
	// maxOperandLen is the saturation point of Fskip: no single instruction
	// carries more than 24 operand bytes.
	maxOperandLen = 24
)

// DecodeError is returned when a program blob cannot be parsed into its
// three sections. Ψ_M maps this to PANIC with zero gas consumed.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("program: decode error: %s", e.Reason)
}

// Program is the decoded, padding-extended form of a program blob: the
// instruction stream, one bit per code byte marking opcode boundaries, and
// the ordered jump table addressable by dynamic jumps.
type Program struct {
	// Code is the raw instruction stream, without padding.
	Code []byte
	// Bitmask has one bit per Code byte; bit i is set iff Code[i] begins a
	// new instruction.
	Bitmask []bool
	// JumpTable holds code offsets addressable by JUMP_IND.
	JumpTable []uint32

	// extended mirrors Code and Bitmask with the trap padding appended,
	// computed once at construction.
	extendedCode    []byte
	extendedBitmask []bool
}

// New validates |bitmask| == |code| and precomputes the
// padded extension used by Fskip and by the step loop's bounds check.
func New(code []byte, bitmask []bool, jumpTable []uint32) (*Program, error) {
	if len(code) != len(bitmask) {
		return nil, &DecodeError{Reason: fmt.Sprintf("bitmask length %d does not match code length %d", len(bitmask), len(code))}
	}
	p := &Program{Code: code, Bitmask: bitmask, JumpTable: jumpTable}
	p.extendedCode = make([]byte, len(code)+codePadding)
	copy(p.extendedCode, code)
	p.extendedBitmask = make([]bool, len(bitmask)+bitmaskPadding)
	copy(p.extendedBitmask, bitmask)
	for i := len(bitmask); i < len(p.extendedBitmask); i++ {
		p.extendedBitmask[i] = true
	}
	return p, nil
}

// ExtendedLen returns the length of the padding-extended code, the upper
// bound the step loop's PC range check compares against.
func (p *Program) ExtendedLen() int {
	return len(p.extendedCode)
}

// OpcodeAt returns the opcode byte at code offset i, reading from the
// zero-padded extension past the end of Code.
func (p *Program) OpcodeAt(i int) byte {
	return p.extendedCode[i]
}

// Operands returns the fskip operand bytes following the opcode at offset i.
func (p *Program) Operands(i int, fskip int) []byte {
	start := i + 1
	return p.extendedCode[start : start+fskip]
}

// Fskip returns the number of operand bytes belonging to the instruction
// whose opcode is at code offset i: min(24, j-1) where j>=1 is the smallest
// index such that bitmask[i+j] = 1 in the padding-extended bitmask.
func (p *Program) Fskip(i int) int {
	j := 1
	for {
		idx := i + j
		if idx >= len(p.extendedBitmask) {
			// The 16-bit padding guarantees a 1 bit is always found within
			// range for any i inside the extended code; this branch only
			// guards against a malformed extension.
			return maxOperandLen
		}
		if p.extendedBitmask[idx] {
			break
		}
		j++
	}
	skip := j - 1
	if skip > maxOperandLen {
		return maxOperandLen
	}
	return skip
}

// IsInstructionStart reports whether code offset i holds an instruction's
// opcode rather than one of the preceding instruction's operand bytes,
// consulting the padding-extended bitmask (every padding byte is an opcode).
func (p *Program) IsInstructionStart(i int) bool {
	if i < 0 || i >= len(p.extendedBitmask) {
		return false
	}
	return p.extendedBitmask[i]
}

// JumpTarget resolves a JUMP_IND argument (an index into JumpTable) to a
// code offset. ok is false if the index is out of range.
func (p *Program) JumpTarget(index uint32) (uint32, bool) {
	if int(index) >= len(p.JumpTable) {
		return 0, false
	}
	return p.JumpTable[index], true
}

// Blob is the decoded auxiliary layout the program initializer Y consumes in
// addition to (code, bitmask, jump table): read-only data, read-write data,
// stack size, and the count of extra writable heap pages. The exact section
// framing of a JAM program blob (section lengths, jump-table entry width) is
// owned by the codec package; DecodeBlob only assembles the result.
type Blob struct {
	Program       *Program
	ReadOnlyData  []byte
	ReadWriteData []byte
	StackSize     uint32
	ExtraPages    uint32
}

// DecodeBlob parses a full program blob: jump-table entry width and count,
// jump-table entries, code length and bytes, the opcode bitmask, and the o/
// w/s/z auxiliary sections used by Y. Section order:
//
//	jumpTableEntryWidth (1 byte)
//	jumpTableLen        (natural number)
//	jumpTable entries   (jumpTableLen * jumpTableEntryWidth bytes, LE)
//	codeLen             (natural number)
//	code                (codeLen bytes)
//	bitmask             (ceil(codeLen/8) bytes, bit i of byte i/8)
//	oLen, o             (natural number, then oLen bytes)
//	wLen, w             (natural number, then wLen bytes)
//	stackSize           (natural number)
//	extraPages          (natural number)
func DecodeBlob(blob []byte) (*Blob, error) {
	r := codec.NewReader(blob)

	entryWidth, err := r.ReadByte()
	if err != nil {
		return nil, &DecodeError{Reason: "truncated jump table entry width"}
	}
	jumpTableLen, err := r.ReadNatural()
	if err != nil {
		return nil, &DecodeError{Reason: "truncated jump table length"}
	}
	jumpTable := make([]uint32, jumpTableLen)
	for i := range jumpTable {
		v, err := r.ReadFixed(int(entryWidth))
		if err != nil {
			return nil, &DecodeError{Reason: "truncated jump table entry"}
		}
		jumpTable[i] = uint32(v)
	}

	codeLen, err := r.ReadNatural()
	if err != nil {
		return nil, &DecodeError{Reason: "truncated code length"}
	}
	code, err := r.ReadBytes(int(codeLen))
	if err != nil {
		return nil, &DecodeError{Reason: "truncated code"}
	}
	bitmaskBytes, err := r.ReadBytes(int(codeLen+7) / 8)
	if err != nil {
		return nil, &DecodeError{Reason: "truncated bitmask"}
	}
	bitmask := make([]bool, codeLen)
	for i := range bitmask {
		bitmask[i] = bitmaskBytes[i/8]&(1<<uint(i%8)) != 0
	}

	oLen, err := r.ReadNatural()
	if err != nil {
		return nil, &DecodeError{Reason: "truncated o length"}
	}
	o, err := r.ReadBytes(int(oLen))
	if err != nil {
		return nil, &DecodeError{Reason: "truncated o"}
	}
	wLen, err := r.ReadNatural()
	if err != nil {
		return nil, &DecodeError{Reason: "truncated w length"}
	}
	w, err := r.ReadBytes(int(wLen))
	if err != nil {
		return nil, &DecodeError{Reason: "truncated w"}
	}
	stackSize, err := r.ReadNatural()
	if err != nil {
		return nil, &DecodeError{Reason: "truncated stack size"}
	}
	extraPages, err := r.ReadNatural()
	if err != nil {
		return nil, &DecodeError{Reason: "truncated extra page count"}
	}

	prog, err := New(code, bitmask, jumpTable)
	if err != nil {
		return nil, err
	}
	return &Blob{
		Program:       prog,
		ReadOnlyData:  o,
		ReadWriteData: w,
		StackSize:     uint32(stackSize),
		ExtraPages:    uint32(extraPages),
	}, nil
}

// Decode implements decode_program_blob: it returns only the (code,
// bitmask, jump table) triple, discarding the o/w/s/z sections. Callers
// that also need the auxiliary sections (the program initializer) should
// call DecodeBlob directly.
func Decode(blob []byte) (*Program, error) {
	full, err := DecodeBlob(blob)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			return nil, de
		}
		return nil, &DecodeError{Reason: err.Error()}
	}
	return full.Program, nil
}
