package pagetable

import (
	"coreos/internal/alloc"
	"coreos/internal/platform"
)

// User wraps a process's own PageTable together with the allocator its
// pages are drawn from, so Free can return every mapped page, grounded on
// the original UserPageTable holding a reference to the kernel allocator
// for exactly this purpose.
type User struct {
	pt    *PageTable
	alloc *alloc.Allocator
}

// NewUser constructs an empty user address space backed by a, spec §4.2
// "User page table: built empty; pages are mapped in lazily by Alloc."
func NewUser(a *alloc.Allocator) *User {
	return &User{pt: New(), alloc: a}
}

// Table returns the underlying PageTable, e.g. for BaseAddr() / TTBR1.
func (u *User) Table() *PageTable { return u.pt }

// Alloc reserves one physical page from the allocator and maps it with the
// given access permission in the table slot for va - platform.USERImgBase
// (the table covers the user space starting at the image base), panicking
// if va lies below
// platform.USERImgBase or the slot is already mapped — both programmer
// errors per spec §7 "Attempting to map an already-mapped virtual address
// panics", grounded on the original alloc()'s two assert!s.
func (u *User) Alloc(va uintptr, ap AP) uintptr {
	if va < platform.USERImgBase {
		panic("pagetable: virtual address below the user image base")
	}
	off := va - platform.USERImgBase
	if u.pt.IsValid(off) {
		panic("pagetable: virtual address already mapped")
	}
	page := u.alloc.Alloc(PageSize, PageSize)
	if page == 0 {
		panic("pagetable: out of physical memory")
	}
	u.pt.SetEntry(off, EncodeL3(AttrNormal, ap, SHInner, page))
	return page
}

// Free releases every page this table still maps back to the allocator,
// spec §4.2 "Destruction: every valid L3 entry's physical page is
// deallocated", grounded on the original page table Drop impl.
func (u *User) Free() {
	for _, e := range u.pt.Entries() {
		if e.Valid {
			u.alloc.Dealloc(e.Addr, PageSize, PageSize)
		}
	}
}
