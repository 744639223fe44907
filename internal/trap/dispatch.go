package trap

import (
	"coreos/internal/irq"
	"coreos/internal/platform"
	"coreos/internal/trapframe"
)

// ExceptionKind is the vector table's broad classification, spec §4.8
// "classify synchronous/IRQ/FIQ/SError", grounded on the original Kind
// enum.
type ExceptionKind int

const (
	Synchronous ExceptionKind = iota
	Irq
	Fiq
	SError
)

// Info names which vector entry was taken, passed alongside the raw ESR,
// grounded on the original Info{source, kind} struct. Only the kind is
// carried; there is no source field.
type Info struct {
	Kind ExceptionKind
}

// Dispatcher wires the exception vector to C9 (syscalls) and C7 (IRQs),
// spec §4.8. DebugBreak is invoked for Brk syndromes, standing in for the
// teacher's debug shell callback — out of scope here per spec's explicit
// Non-goal on shell functionality.
//
// IRQ and CoreIRQ are the two distinct registries spec §3 names: IRQ
// holds shared peripheral (SPI) handlers, CoreIRQ holds this core's local
// (SGI/PPI) handlers such as the generic timer. CoreIRQ may be nil, in
// which case every pending interrupt is looked up in IRQ.
type Dispatcher struct {
	IRQ        *irq.Registry
	CoreIRQ    *irq.Registry
	Ctrl       platform.Controller
	Syscall    func(num uint16, tf *trapframe.Frame)
	DebugBreak func(tf *trapframe.Frame)
}

// Handle is the single entry point called from the exception vector with
// the decoded Info, the raw ESR (valid only for Synchronous) and the
// current trap frame, grounded on the original handle_exception.
func (d *Dispatcher) Handle(info Info, esr uint32, tf *trapframe.Frame) {
	switch info.Kind {
	case Synchronous:
		d.handleSynchronous(esr, tf)
	case Irq:
		d.handleIRQ(tf)
	case Fiq, SError:
		// Ignored: nothing is reported and the trap frame is left as is.
	}
}

func (d *Dispatcher) handleSynchronous(esr uint32, tf *trapframe.Frame) {
	syn := DecodeESR(esr)
	switch syn.Kind {
	case Brk:
		tf.ELR += 4
		if d.DebugBreak != nil {
			d.DebugBreak(tf)
		}
	case Svc:
		if d.Syscall != nil {
			d.Syscall(syn.Imm16, tf)
		}
	default:
		// Every other synchronous class (aborts, alignment faults, ...)
		// returns without action: nothing is reported and ELR is not
		// advanced.
	}
}

// spuriousIRQ is the GICC_IAR sentinel value meaning "no pending
// interrupt", spec §4.8 "IRQ dispatch" grounded on the GICv2 spec's
// reserved interrupt ID 1023.
const spuriousIRQ = 1023

// coreLocalIRQMax is the first SPI id in the GICv2 interrupt space
// (0-15 SGI, 16-31 PPI, 32+ SPI); ids below it, like the generic timer's
// PPI 27, are core-local and dispatched through CoreIRQ.
const coreLocalIRQMax = 32

// handleIRQ drains every acknowledged interrupt, routing core-local
// ids (SGI/PPI) to CoreIRQ and shared peripheral ids (SPI) to IRQ, spec
// §4.8 "for every pending global interrupt, invoke its handler; likewise
// for every pending core-local interrupt, invoke the per-core handler."
func (d *Dispatcher) handleIRQ(tf *trapframe.Frame) {
	for {
		id := d.Ctrl.Acknowledge()
		if id == spuriousIRQ {
			return
		}
		reg := d.IRQ
		if id < coreLocalIRQMax && d.CoreIRQ != nil {
			reg = d.CoreIRQ
		}
		reg.Invoke(id, tf)
		d.Ctrl.EndOfInterrupt(id)
	}
}
