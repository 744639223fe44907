// Package blockdev is the SD/eMMC block-device collaborator of spec §1
// ("a block-device that reads 512-byte sectors") and §6 ("read_sector(n,
// buf) -> bytes_read or error"). A real MMIO SDHCI driver (grounded on the
// teacher's sdhci.go/sdhci_init_qemu.go, part of the larger mazboot
// variant) is out of this core's scope; this package ships the interface
// plus an in-memory fake for host tests of anything layered on top of it.
package blockdev

import "errors"

const SectorSize = 512

var (
	ErrShortBuffer = errors.New("blockdev: buffer shorter than sector size")
	ErrTimedOut    = errors.New("blockdev: hardware timeout")
)

// Device reads fixed 512-byte sectors by index.
type Device interface {
	ReadSector(n uint64, buf []byte) (int, error)
}

// Memory is an in-memory fake Device backing tests that exercise the
// filesystem/process-loader layer without real SD hardware.
type Memory struct {
	sectors [][SectorSize]byte
}

// NewMemory builds a fake block device of the given sector count.
func NewMemory(numSectors int) *Memory {
	return &Memory{sectors: make([][SectorSize]byte, numSectors)}
}

// WriteSector seeds sector n with data, for test setup.
func (m *Memory) WriteSector(n uint64, data []byte) {
	copy(m.sectors[n][:], data)
}

func (m *Memory) ReadSector(n uint64, buf []byte) (int, error) {
	if len(buf) < SectorSize {
		return 0, ErrShortBuffer
	}
	if n >= uint64(len(m.sectors)) {
		return 0, ErrTimedOut
	}
	copy(buf, m.sectors[n][:])
	return SectorSize, nil
}
