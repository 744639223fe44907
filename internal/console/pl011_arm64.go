//go:build arm64 && qemuvirt

package console

import _ "unsafe"

// PL011 UART base address for the QEMU virt machine, grounded on the
// teacher's uart_qemu.go QEMU_UART_BASE constant.
const (
	uartBase = 0x09000000
	uartDR   = uartBase + 0x00
	uartFR   = uartBase + 0x18
)

//go:linkname mmioRead mmio_read
func mmioRead(reg uintptr) uint32

//go:linkname mmioWrite mmio_write
func mmioWrite(reg uintptr, data uint32)

//go:linkname uartInitPL011 uart_init_pl011
func uartInitPL011()

// PL011 is the real PL011 UART Console, grounded on uart_qemu.go.
type PL011 struct{}

func NewPL011() *PL011 {
	uartInitPL011()
	return &PL011{}
}

func (u *PL011) PutByte(b byte) {
	for mmioRead(uartFR)&(1<<5) != 0 {
		// wait for transmit FIFO space
	}
	mmioWrite(uartDR, uint32(b))
}

func (u *PL011) GetByte() (byte, bool) {
	if mmioRead(uartFR)&(1<<4) != 0 {
		return 0, false
	}
	return byte(mmioRead(uartDR)), true
}
