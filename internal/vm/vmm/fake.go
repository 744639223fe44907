package vmm

import "sync"

// FakeMMU is an in-memory MMU for host tests: it records what Setup would
// have written instead of touching system registers.
type FakeMMU struct {
	mu sync.Mutex

	Granule64Supported bool
	EnabledBase        uintptr
	Enabled            bool
}

func NewFakeMMU() *FakeMMU {
	return &FakeMMU{Granule64Supported: true}
}

func (f *FakeMMU) Supports64KGranule() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Granule64Supported
}

func (f *FakeMMU) SetTranslationRegisters(baseAddr uintptr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.EnabledBase = baseAddr
}

func (f *FakeMMU) EnableMMU() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Enabled = true
}
