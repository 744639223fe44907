// Package alloc is the size-class bin allocator backing the global kernel
// heap (spec §4.1, component C1), grounded on the original Rust
// allocator/bin.rs that spec.md directly distills: a fixed array of 30
// free lists indexed by size class, split-on-demand from a larger class
// when the exact class is empty, and bump-allocation from an
// ever-advancing watermark when no free list has a usable block.
package alloc

import (
	"sync"
	"unsafe"
)

const (
	// NumClasses is the count of size classes, spec §3 "Size class k ∈
	// [0, 29]".
	NumClasses = 30

	// maxRequestSize rejects size > 2^32, spec §3.
	maxRequestSize = uint64(1) << 32

	minBlockAlign = 8
)

// classOf returns the smallest k with 2^(k+3) >= size, spec §3's "mapping
// size ↦ k returns the smallest k with 2^(k+3) ≥ size", equivalent to the
// original's get_bin_index.
func classOf(size uint64) int {
	for shift := uint(3); shift <= 32; shift++ {
		if size <= uint64(1)<<shift {
			return int(shift - 3)
		}
	}
	return NumClasses - 1
}

// classSize returns 2^(k+3), the original's get_bin_size.
func classSize(k int) uint64 {
	return uint64(1) << uint(k+3)
}

// freeBlock is threaded through the free memory itself: the first word of
// every free block holds the address of the next free block in its class,
// spec §3 "Free-list head".
type freeBlock struct {
	next uintptr
}

// Allocator is the bin allocator, spec §3 "Allocator state": (bump_cursor,
// end, bins[0..30], max_size). Exclusive mutation is enforced by mu, spec
// §5 "Shared resources: the kernel heap... exclusive mutation under a
// kernel mutex".
type Allocator struct {
	mu sync.Mutex

	start      uintptr
	end        uintptr
	bumpCursor uintptr
	maxSize    uint64
	bins       [NumClasses]uintptr // head address of each class's free list, 0 = empty
}

// New constructs an allocator over the half-open byte range [start, end),
// spec §3 "Heap region". Immutable after construction except through
// Alloc/Dealloc.
func New(start, end uintptr) *Allocator {
	return &Allocator{
		start:      start,
		end:        end,
		bumpCursor: start,
		maxSize:    uint64(end - start),
	}
}

func isPowerOfTwo(align uintptr) bool {
	return align != 0 && align&(align-1) == 0
}

func alignUp(addr uintptr, align uintptr) uintptr {
	return (addr + align - 1) &^ (align - 1)
}

// Alloc reserves size bytes aligned to align (a power of two), returning 0
// on failure. Caller guarantees size > 0 and align is a power of two, spec
// §4.1.
func (a *Allocator) Alloc(size uint64, align uintptr) uintptr {
	if size == 0 || uint64(size) > maxRequestSize || !isPowerOfTwo(align) {
		return 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	k := classOf(size)
	if k >= NumClasses || size > a.maxSize {
		return 0
	}

	if addr := a.takeFromBins(k, align); addr != 0 {
		return addr
	}

	return a.bumpAllocate(k, align)
}

// takeFromBins searches classes k, k+1, ... upward for a block whose
// address satisfies align, splitting surplus space down into the
// intervening classes when the match is found in a larger class, spec
// §4.1 "Algorithm".
func (a *Allocator) takeFromBins(k int, align uintptr) uintptr {
	for class := k; class < NumClasses; class++ {
		var prev uintptr
		addr := a.bins[class]
		for addr != 0 {
			block := (*freeBlock)(unsafe.Pointer(addr))
			if addr%align == 0 {
				a.unlink(class, prev, addr, block.next)
				if class != k {
					a.splitSurplus(addr+uintptr(classSize(k)), k, class)
				}
				return addr
			}
			prev = addr
			addr = block.next
		}
	}
	return 0
}

func (a *Allocator) unlink(class int, prev, addr, next uintptr) {
	if prev == 0 {
		a.bins[class] = next
		return
	}
	(*freeBlock)(unsafe.Pointer(prev)).next = next
}

// splitSurplus pushes one block of size 2^(j+3) onto bin[j] for each
// intermediate class j = k, k+1, ..., bigBin-1, starting at address and
// advancing by 2^(j+3) each step, spec §4.1.
func (a *Allocator) splitSurplus(address uintptr, k, bigBin int) {
	for j := k; j < bigBin; j++ {
		a.push(j, address)
		address += uintptr(classSize(j))
	}
}

func (a *Allocator) push(class int, addr uintptr) {
	block := (*freeBlock)(unsafe.Pointer(addr))
	block.next = a.bins[class]
	a.bins[class] = addr
}

// bumpAllocate rounds bumpCursor up to align, reserves 2^(k+3) bytes and
// advances the cursor, returning 0 on overflow or exhaustion, spec §4.1.
func (a *Allocator) bumpAllocate(k int, align uintptr) uintptr {
	addr := alignUp(a.bumpCursor, align)
	size := classSize(k)
	newCursor := addr + uintptr(size)
	if newCursor < addr || newCursor > a.end {
		return 0
	}
	a.bumpCursor = newCursor
	return addr
}

// Dealloc returns the block at address, previously allocated with the
// given size, to its size class's free list. Coalescing is not performed;
// callers must deallocate with the same size used to allocate, spec
// §4.1/§9 Open Questions.
func (a *Allocator) Dealloc(address uintptr, size uint64, align uintptr) {
	_ = align
	a.mu.Lock()
	defer a.mu.Unlock()
	k := classOf(size)
	if k >= NumClasses {
		return
	}
	a.push(k, address)
}

// MaxSize returns the allocator's total addressable byte range.
func (a *Allocator) MaxSize() uint64 { return a.maxSize }
