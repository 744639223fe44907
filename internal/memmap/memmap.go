// Package memmap is the "atag-parsed or probed memory map" collaborator of
// spec §1, yielding the (start, end) of usable RAM that internal/alloc and
// internal/vm/pagetable identity-map. Grounded directly on the teacher's
// page.go atag/atagMem/getMemSize parser.
package memmap

import "encoding/binary"

type atagTag uint32

const (
	atagNone atagTag = 0x00000000
	atagCore atagTag = 0x54410001
	atagMem  atagTag = 0x54410002
)

// fallbackRAMSize is what QEMU's virt machine is assumed to carry when no
// ATAG list is present (it uses a device tree instead) — the teacher's own
// fallback in getMemSize.
const fallbackRAMSize = 128 * 1024 * 1024

// Region is the half-open physical byte range [Start, End) of usable RAM,
// spec §3 "Heap region" source.
type Region struct {
	Start uintptr
	End   uintptr
}

// Probe parses an ATAG list rooted at raw (a byte slice over physical
// memory starting at the ATAG base) and returns the usable RAM region
// starting at zero. If raw is empty or carries no ATAG_MEM tag, it falls
// back to the fixed 128 MiB QEMU/virt assumption, exactly as the teacher's
// getMemSize does for atagsPtr == 0.
func Probe(raw []byte) Region {
	size := parseMemSize(raw)
	if size == 0 {
		size = fallbackRAMSize
	}
	return Region{Start: 0, End: uintptr(size)}
}

// parseMemSize walks the ATAG list tag by tag until ATAG_NONE or the
// slice is exhausted, returning the size field of the first ATAG_MEM tag
// found (0 if none).
func parseMemSize(raw []byte) uint32 {
	off := 0
	for off+8 <= len(raw) {
		tagWords := binary.LittleEndian.Uint32(raw[off:])
		tag := atagTag(binary.LittleEndian.Uint32(raw[off+4:]))
		if tag == atagNone || tagWords == 0 {
			return 0
		}
		if tag == atagMem && off+16 <= len(raw) {
			return binary.LittleEndian.Uint32(raw[off+8:])
		}
		off += int(tagWords) * 4
	}
	return 0
}
