package pvm

import (
	"fmt"
	"sort"
)

// PageSize is the fixed page granularity P of the PVM's address space, 4 KiB.
const PageSize = 4096

// ZoneSize is the memory-layout alignment unit Z used by the program
// initializer, 64 KiB.
const ZoneSize = 65536

// reservedPages is the number of pages at the bottom of the 32-bit address
// space that always carry AccessNone rights, regardless of program layout.
const reservedPages = 4

// AccessRights describes what a page allows. Write implies Read.
type AccessRights byte

const (
	AccessNone AccessRights = iota
	AccessRead
	AccessWrite
)

// page is the sparse per-4KiB-page state: its access rights, whether it is
// excluded from page-map serialization, and its lazily allocated bytes.
type page struct {
	rights    AccessRights
	isPadding bool
	data      []byte // nil until first write; reads of an unallocated page are all zero
}

// FaultError reports the first address whose page access rights rejected a
// memory operation. Memory contents are left unchanged when this is returned.
type FaultError struct {
	Address uint32
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("memory access fault at address 0x%08X", e.Address)
}

// RAM is the PVM's paged address space: a sparse byte map keyed by page
// index, with access rights tracked per page. Addresses never touched read
// as zero whenever their page's rights permit reads.
type RAM struct {
	pages map[uint32]*page
}

// NewRAM returns an empty address space. All pages start out with
// AccessNone rights, including the four reserved pages at the bottom of the
// address space, which can never be granted other rights (invariant 3).
func NewRAM() *RAM {
	return &RAM{pages: make(map[uint32]*page)}
}

func pageIndex(addr uint32) uint32 {
	return addr / PageSize
}

func (m *RAM) pageAt(idx uint32) *page {
	p, ok := m.pages[idx]
	if !ok {
		p = &page{rights: AccessNone}
		m.pages[idx] = p
	}
	return p
}

// SetPageAccessRights sets the access rights of every page covering
// [addr, addr+len). addr and len must both be page-aligned. isPadding marks
// the covered pages so they are excluded from the serialized page map.
func (m *RAM) SetPageAccessRights(addr, length uint32, rights AccessRights, isPadding bool) error {
	if addr%PageSize != 0 || length%PageSize != 0 {
		return fmt.Errorf("pvm: SetPageAccessRights: addr 0x%X and length 0x%X must be page-aligned", addr, length)
	}
	startPage := pageIndex(addr)
	numPages := length / PageSize
	for i := uint32(0); i < numPages; i++ {
		idx := startPage + i
		if idx < reservedPages {
			continue // reserved pages are permanently AccessNone
		}
		p := m.pageAt(idx)
		p.rights = rights
		p.isPadding = isPadding
	}
	return nil
}

// checkRange walks every page covering [addr, addr+length) and returns the
// base address of the first page lacking the requested rights, or ok=true
// if every page covers the range.
func (m *RAM) checkRange(addr, length uint32, need AccessRights) (faultAddr uint32, ok bool) {
	if length == 0 {
		return 0, true
	}
	startPage := pageIndex(addr)
	endPage := pageIndex(addr + length - 1)
	for idx := startPage; idx <= endPage; idx++ {
		var rights AccessRights
		if idx < reservedPages {
			rights = AccessNone
		} else if p, present := m.pages[idx]; present {
			rights = p.rights
		} else {
			rights = AccessNone
		}
		allowed := rights == AccessWrite || (need == AccessRead && rights == AccessRead)
		if !allowed {
			return idx * PageSize, false
		}
	}
	return 0, true
}

// ReadOctets reads length bytes starting at addr. Faults on the first
// address whose page lacks read access; reads never allocate storage.
func (m *RAM) ReadOctets(addr, length uint32) ([]byte, error) {
	if faultAddr, ok := m.checkRange(addr, length, AccessRead); !ok {
		return nil, &FaultError{Address: faultAddr}
	}
	out := make([]byte, length)
	for i := uint32(0); i < length; i++ {
		a := addr + i
		idx := pageIndex(a)
		if p, present := m.pages[idx]; present && p.data != nil {
			out[i] = p.data[a%PageSize]
		}
	}
	return out, nil
}

// WriteOctets writes bytes starting at addr. Faults if any covered page
// lacks write access; on fault, memory is left entirely unchanged. Pages are
// allocated lazily on first write.
func (m *RAM) WriteOctets(addr uint32, bytes []byte) error {
	length := uint32(len(bytes))
	if faultAddr, ok := m.checkRange(addr, length, AccessWrite); !ok {
		return &FaultError{Address: faultAddr}
	}
	for i, b := range bytes {
		a := addr + uint32(i)
		idx := pageIndex(a)
		p := m.pageAt(idx)
		if p.data == nil {
			p.data = make([]byte, PageSize)
		}
		p.data[a%PageSize] = b
	}
	return nil
}

// WriteZeroed writes length zero bytes starting at addr. It simply defers
// to WriteOctets, so it needs write access and allocates the pages it
// touches.
func (m *RAM) WriteZeroed(addr, length uint32) error {
	return m.WriteOctets(addr, make([]byte, length))
}

// PageMapEntry describes one page's rights in the serialized page map.
type PageMapEntry struct {
	Address uint32
	Rights  AccessRights
}

// PageMap returns every page that carries non-default rights and is not
// marked as padding, sorted by address. Used by tests, the debugger, and
// the inspection API.
func (m *RAM) PageMap() []PageMapEntry {
	out := make([]PageMapEntry, 0, len(m.pages))
	for idx, p := range m.pages {
		if p.isPadding || p.rights == AccessNone {
			continue
		}
		out = append(out, PageMapEntry{Address: idx * PageSize, Rights: p.rights})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// PageMapWithContents is PageMap plus each page's current byte contents
// (all zero for a page that was never written).
type PageWithContents struct {
	PageMapEntry
	Data []byte
}

func (m *RAM) PageMapWithContents() []PageWithContents {
	entries := m.PageMap()
	out := make([]PageWithContents, 0, len(entries))
	for _, e := range entries {
		idx := pageIndex(e.Address)
		p := m.pages[idx]
		data := make([]byte, PageSize)
		if p.data != nil {
			copy(data, p.data)
		}
		out = append(out, PageWithContents{PageMapEntry: e, Data: data})
	}
	return out
}
