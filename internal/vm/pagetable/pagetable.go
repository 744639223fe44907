// Package pagetable is the two-level 64 KiB-granule page-table manager of
// spec §4.2 (component C2), grounded on the original vm/pagetable.rs that
// spec.md directly distills, with L3-entry field packing done through
// internal/bitfield the way the teacher's bitfield package packs page
// flags, instead of hand-rolled shifts.
package pagetable

import "coreos/internal/bitfield"

const (
	// PageSize is the 64 KiB granule, spec §3 "Page".
	PageSize = 65536

	// l2Entries/l3Entries size each level's table to fill one page,
	// spec §4.2 ("8192 entries").
	l2Entries = 8192
	l3Entries = 8192

	// numL3Tables is fixed at 2: only L2 slots 0 and 1 are ever used,
	// spec §3 "1 GiB addressable per space".
	numL3Tables = 2

	l3IndexBits = 13
)

// Attr selects the L3 ATTR field (0=normal, 1=device), spec §3.
type Attr uint8

const (
	AttrNormal Attr = 0
	AttrDevice Attr = 1
)

// AP selects the L3/L2 access-permission field, spec §3.
type AP uint8

const (
	APKernelRW AP = 0b00
	APUserRW   AP = 0b01
	APKernelRO AP = 0b10
	APUserRO   AP = 0b11
)

// SH selects the shareability field, spec §3.
type SH uint8

const (
	SHOuter SH = 0b10
	SHInner SH = 0b11
)

// l3Fields mirrors spec §3 "L3 entry": VALID, TYPE=page, ATTR, AP, SH,
// AF=1, ADDR. Packed/unpacked via internal/bitfield rather than hand
// shifting, as the teacher's page-flags packing does.
type l3Fields struct {
	Valid bool   `bitfield:",1"`
	Typ   uint8  `bitfield:",1"` // 1 = page
	Attr  uint8  `bitfield:",2"`
	AP    uint8  `bitfield:",2"`
	SH    uint8  `bitfield:",2"`
	AF    uint8  `bitfield:",1"`
	_pad  uint8  `bitfield:",7"`
	Addr  uint32 `bitfield:",32"` // page base >> 16, i.e. bits [47:16]
}

// l2Fields mirrors spec §3 "L2 entry": VALID, TYPE=table, ADDR.
type l2Fields struct {
	Valid bool   `bitfield:",1"`
	Typ   uint8  `bitfield:",1"` // 1 = table
	_pad  uint32 `bitfield:",14"`
	Addr  uint32 `bitfield:",32"` // L3 table base >> 16
}

// EncodeL3 packs an L3 page descriptor, spec §3 "L3 entry".
func EncodeL3(attr Attr, ap AP, sh SH, pageBase uintptr) uint64 {
	v, err := bitfield.Pack(l3Fields{
		Valid: true,
		Typ:   1,
		Attr:  uint8(attr),
		AP:    uint8(ap),
		SH:    uint8(sh),
		AF:    1,
		Addr:  uint32(pageBase >> 16),
	}, &Config64)
	if err != nil {
		panic(err)
	}
	return v
}

// Config64 fixes the packed width for both entry kinds at 64 bits.
var Config64 = bitfield.Config{NumBits: 64}

func decodeL3(raw uint64) l3Fields {
	var f l3Fields
	if err := bitfield.Unpack(raw, &f); err != nil {
		panic(err)
	}
	return f
}

func encodeL2(pageBase uintptr) uint64 {
	v, err := bitfield.Pack(l2Fields{
		Valid: true,
		Typ:   1,
		Addr:  uint32(pageBase >> 16),
	}, &Config64)
	if err != nil {
		panic(err)
	}
	return v
}

// l3Table is one owned 64 KiB-aligned L3 page table of 8192 entries.
type l3Table struct {
	entries [l3Entries]uint64
}

// l2Table is the single owned L2 table; only entries[0] and entries[1] are
// ever used, spec §3.
type l2Table struct {
	entries [l2Entries]uint64
}

// PageTable is one L2 table plus its two owned L3 tables, spec §3 "Page
// table". Exclusively owned by either the kernel or one process.
type PageTable struct {
	l2 l2Table
	l3 [numL3Tables]l3Table
}

// New constructs a PageTable whose L2 entries permanently point at the
// owned L3 tables, spec §4.2 "construction". L3 entries begin invalid.
func New() *PageTable {
	pt := &PageTable{}
	for i := 0; i < numL3Tables; i++ {
		pt.l2.entries[i] = encodeL2(l3TableAddr(&pt.l3[i]))
	}
	return pt
}

// l3TableAddr returns a stable physical-style address for an l3Table. In a
// real kernel this IS the physical address (tables live in identity-mapped
// RAM); in host tests it's simply the Go runtime's address of the table,
// which is sufficient since tests only round-trip through locate/get/set.
func l3TableAddr(t *l3Table) uintptr {
	return addrOf(t)
}

// locate returns the (l2Index, l3Index) for va, spec §4.2 "Virtual-to-index
// mapping": va must be 64 KiB aligned; L2 index = bit 29; L3 index = bits
// [28:16]. Panics on misalignment or an out-of-range L2 index, spec §7.
func locate(va uintptr) (l2Index, l3Index int) {
	if va%PageSize != 0 {
		panic("pagetable: virtual address not aligned to the 64 KiB granule")
	}
	l2Index = int(va >> 29)
	l3Index = int((va >> 16) & ((1 << l3IndexBits) - 1))
	if l2Index > 1 {
		panic("pagetable: L2 index exceeds 1")
	}
	return l2Index, l3Index
}

// SetEntry overwrites the L3 entry addressed by va with raw, spec §4.2
// "set_entry".
func (pt *PageTable) SetEntry(va uintptr, raw uint64) {
	l2i, l3i := locate(va)
	pt.l3[l2i].entries[l3i] = raw
}

// IsValid returns the VALID bit of the L3 entry addressed by va, spec
// §4.2 "is_valid".
func (pt *PageTable) IsValid(va uintptr) bool {
	l2i, l3i := locate(va)
	return decodeL3(pt.l3[l2i].entries[l3i]).Valid
}

// PageAddr returns the physical page base the L3 entry at va resolves to,
// and whether the entry is valid.
func (pt *PageTable) PageAddr(va uintptr) (uintptr, bool) {
	l2i, l3i := locate(va)
	f := decodeL3(pt.l3[l2i].entries[l3i])
	return uintptr(f.Addr) << 16, f.Valid
}

// BaseAddr returns the physical base of the L2 table, passed to TTBR,
// spec §4.2 "get_baddr".
func (pt *PageTable) BaseAddr() uintptr {
	return addrOf(&pt.l2)
}

// Entry pairs an L3 slot's virtual-address key (for iteration) with its
// decoded fields.
type Entry struct {
	VA    uintptr
	Valid bool
	Addr  uintptr
}

// Entries iterates every L3 entry across both owned L3 tables in order,
// spec §4.2 "Iterating a page table yields every L3 entry across both L3
// tables in order."
func (pt *PageTable) Entries() []Entry {
	out := make([]Entry, 0, numL3Tables*l3Entries)
	for l2i := 0; l2i < numL3Tables; l2i++ {
		for l3i := 0; l3i < l3Entries; l3i++ {
			f := decodeL3(pt.l3[l2i].entries[l3i])
			va := uintptr(l2i)<<29 | uintptr(l3i)<<16
			out = append(out, Entry{VA: va, Valid: f.Valid, Addr: uintptr(f.Addr) << 16})
		}
	}
	return out
}
