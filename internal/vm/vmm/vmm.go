// Package vmm is the virtual-memory manager of spec §4.3 (component C3):
// a process-wide singleton that builds the one kernel page table on core 0
// and then brings up the MMU identically on every core, grounded directly
// on the original kern/src/vm.rs VMManager.
package vmm

import (
	"sync"
	"sync/atomic"

	"coreos/internal/memmap"
	"coreos/internal/vm/pagetable"
)

// MMU abstracts the register writes setup() performs, so host tests can
// exercise VMManager's sequencing without real AArch64 system registers.
// The teacher's setup() talks to MAIR_EL1/TCR_EL1/TTBR*_EL1/SCTLR_EL1
// directly; here that's collapsed to one collaborator call per concern.
type MMU interface {
	// Supports64KGranule reports ID_AA64MMFR0_EL1.TGran64 == 0.
	Supports64KGranule() bool
	SetTranslationRegisters(baseAddr uintptr)
	EnableMMU()
}

// VMManager is the C3 singleton, spec §3 "Virtual memory manager".
// Constructed via New and shared across all cores.
type VMManager struct {
	mmu MMU

	mu        sync.Mutex
	kernPT    *pagetable.PageTable
	kernBase  atomic.Uintptr
	readyCore atomic.Int32
	numCores  int
}

// New returns an uninitialized VMManager, spec §4.3 "construction": must
// be Initialize()'d on core 0, then Setup() on every core, before any
// memory access relies on the MMU.
func New(mmu MMU, numCores int) *VMManager {
	return &VMManager{mmu: mmu, numCores: numCores}
}

// Initialize constructs the one kernel page table, identity-mapping ram
// and the MMIO window. Must be called exactly once, by core 0, before any
// core calls Setup, spec §4.3 "Initialization is core-0-only".
func (v *VMManager) Initialize(ram memmap.Region, ioStart, ioEnd uintptr) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.kernPT = pagetable.NewKernel(ram, ioStart, ioEnd)
	v.kernBase.Store(v.kernPT.BaseAddr())
}

// Setup configures MAIR/TCR/TTBR/SCTLR for the calling core and enables
// its MMU, panicking if the core lacks 64 KiB granule support, spec §7
// "Panics if the running core does not support the 64 KiB translation
// granule."
func (v *VMManager) Setup() {
	if !v.mmu.Supports64KGranule() {
		panic("vmm: core does not support the 64 KiB translation granule")
	}
	base := v.kernBase.Load()
	if base == 0 {
		panic("vmm: Setup called before Initialize")
	}
	v.mmu.SetTranslationRegisters(base)
	v.mmu.EnableMMU()
}

// Wait runs Setup for the calling core and then spins until every core
// has done the same, spec §4.3 "Cross-core barrier: wait() must not be
// called while holding any lock, since a core ahead of the MMU transition
// may spin on a lock a core behind the transition will never release."
// Wait itself does not check whether the caller holds a lock.
func (v *VMManager) Wait() {
	v.Setup()
	v.readyCore.Add(1)
	for v.readyCore.Load() != int32(v.numCores) {
	}
}

// BaseAddr returns the physical base of the kernel page table, for TTBR.
func (v *VMManager) BaseAddr() uintptr {
	return v.kernBase.Load()
}
