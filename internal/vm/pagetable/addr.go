package pagetable

import "unsafe"

// addrOf returns the Go address of v, standing in for a physical address:
// on real hardware these tables live in identity-mapped RAM so the two
// coincide, and host tests only need a stable, unique value to round-trip
// through locate/SetEntry/PageAddr.
func addrOf(v any) uintptr {
	switch p := v.(type) {
	case *l3Table:
		return uintptr(unsafe.Pointer(p))
	case *l2Table:
		return uintptr(unsafe.Pointer(p))
	default:
		panic("pagetable: addrOf called with an unsupported type")
	}
}
