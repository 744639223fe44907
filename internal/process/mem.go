package process

import "unsafe"

// copyToPage writes data into the physical page at addr. On real hardware
// addr is byte-addressable RAM; in host tests the allocator hands out
// addresses inside an ordinary Go []byte, so this is just as valid there.
func copyToPage(addr uintptr, data []byte) {
	dst := unsafe.Slice((*byte)(unsafe.Pointer(addr)), len(data))
	copy(dst, data)
}
