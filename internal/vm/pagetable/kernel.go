package pagetable

import "coreos/internal/memmap"

// NewKernel builds the one shared kernel PageTable by identity-mapping
// every 64 KiB page of usable RAM as normal/inner-shareable memory and the
// MMIO window [ioStart, ioEnd) as device/outer-shareable memory, grounded
// on the original KernPageTable::new classifying each physical page as
// normal or device before writing its L3 entry. Spec §4.2 "Kernel page
// table: identity maps all of physical RAM plus the MMIO window."
func NewKernel(ram memmap.Region, ioStart, ioEnd uintptr) *PageTable {
	pt := New()

	for pa := alignDown(ram.Start); pa < ram.End; pa += PageSize {
		pt.SetEntry(pa, EncodeL3(AttrNormal, APKernelRW, SHInner, pa))
	}
	for pa := alignDown(ioStart); pa < ioEnd; pa += PageSize {
		pt.SetEntry(pa, EncodeL3(AttrDevice, APKernelRW, SHOuter, pa))
	}
	return pt
}

func alignDown(addr uintptr) uintptr {
	return addr &^ (PageSize - 1)
}
