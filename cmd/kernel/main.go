// Command kernel is the boot entry point: boot, run on core 0, sets up the
// logger, probes RAM, initializes the VMM and builds the scheduler and the
// IRQ registries; enterCore, run on every core, joins the MMU barrier and
// returns that core's exception dispatcher. No allocator or filesystem is
// constructed here, and nothing here wakes the secondary cores or enters
// the scheduler. Grounded on the teacher's KernelMain, generalized from
// its UART-then-heap-then-framebuffer sequence.
package main

import (
	"coreos/internal/console"
	"coreos/internal/irq"
	"coreos/internal/memmap"
	"coreos/internal/platform"
	"coreos/internal/sched"
	"coreos/internal/syscall"
	"coreos/internal/trap"
	"coreos/internal/trapframe"
	"coreos/internal/vm/vmm"
)

// kernel is the set of singletons every core shares: logger, VMM,
// scheduler, IRQ registries, syscall table and platform controller (there
// is no allocator or filesystem singleton). Built
// once by boot() on core 0 and referenced (never rebuilt) by every core
// thereafter.
type kernel struct {
	log       *console.Logger
	vmm       *vmm.VMManager
	sched     *sched.Global
	globalIRQ *irq.Registry
	coreIRQ   *irq.PerCore
	syscalls  *syscall.Table
	ctrl      platform.Controller
}

// boot runs the core-0-only portion of the boot protocol: logger, memory
// probe, VMM initialization, scheduler and global IRQ registry. It does
// not initialize an allocator or a filesystem.
func boot(con console.Console, ctrl platform.Controller, atags []byte) *kernel {
	log := console.NewLogger(con)
	log.Puts("booting\r\n")

	ram := memmap.Probe(atags)
	log.Puts("usable RAM: ")
	log.PutMemSize(uint64(ram.End - ram.Start))
	log.Puts("\r\n")

	v := vmm.New(ctrl, platform.NumCores)
	v.Initialize(ram, platform.IOBase, platform.IOBaseEnd)

	globalIRQ := irq.New()
	globalIRQ.Initialize()
	ctrl.EnableIRQ(platform.IRQTimerPPI)

	k := &kernel{
		log:       log,
		vmm:       v,
		sched:     sched.NewGlobal(),
		globalIRQ: globalIRQ,
		coreIRQ:   irq.NewPerCore(platform.NumCores),
		ctrl:      ctrl,
	}
	k.syscalls = &syscall.Table{Sched: k.sched, Console: con, Ctrl: ctrl}
	k.globalIRQ.Register(platform.IRQTimerPPI, func(tf *trapframe.Frame) {
		k.sched.TimerHandler(k.ctrl, tf)
	})
	return k
}

// enterCore is run by every core (including 0) after boot: it joins the
// MMU barrier, initializes the core's local IRQ registry with the timer
// handler (the timer PPI is core-local, so the dispatcher routes it there)
// and returns the core's dispatcher. It does not start the scheduler's
// switch loop.
func (k *kernel) enterCore(core int) *trap.Dispatcher {
	k.vmm.Wait()
	local := k.coreIRQ.For(core)
	local.Initialize()
	local.Register(platform.IRQTimerPPI, func(tf *trapframe.Frame) {
		k.sched.TimerHandler(k.ctrl, tf)
	})

	return &trap.Dispatcher{
		IRQ:     k.globalIRQ,
		CoreIRQ: local,
		Ctrl:    k.ctrl,
		Syscall: func(num uint16, tf *trapframe.Frame) {
			k.syscalls.Handle(syscall.Number(num), tf)
		},
	}
}

func main() {
	// The real entry point is reached from boot.s with a hardware Console
	// and platform.Controller wired in; this package is otherwise exercised
	// purely through internal/*'s own tests, per the collaborator pattern
	// spec §1 uses to keep UART/GIC register layouts out of scope.
}
