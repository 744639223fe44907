// Package irq is the fixed-size interrupt-vector registry of spec §3/§4.7
// (component C7), grounded on the original kern/src/traps/irq.rs Irq: a
// mutex-guarded array of optional handlers, indexed by interrupt number,
// global for shared peripheral IRQs and instantiated once more per core
// for the local timer.
package irq

import (
	"fmt"
	"sync"

	"coreos/internal/trapframe"
)

// MaxInterrupts bounds the registry's fixed array, spec §3 "IRQ registry:
// a fixed-size mapping from interrupt index to an optional handler."
const MaxInterrupts = 64

// Handler runs with a mutable trap frame, e.g. to preempt the running
// process.
type Handler func(tf *trapframe.Frame)

// Registry is a fixed-size [MaxInterrupts]Handler guarded by a mutex.
// Must be Initialize()'d before Register/Invoke; both panic otherwise,
// spec §7 "Invoking an unregistered or uninitialized interrupt index is a
// fatal error."
type Registry struct {
	mu          sync.Mutex
	handlers    [MaxInterrupts]Handler
	initialized bool
}

// New returns an uninitialized Registry.
func New() *Registry {
	return &Registry{}
}

// Initialize clears every slot, must be called exactly once before use.
func (r *Registry) Initialize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = [MaxInterrupts]Handler{}
	r.initialized = true
}

// Register installs h for interrupt id, panicking if the registry is
// uninitialized or id is out of range.
func (r *Registry) Register(id uint32, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustBeReady(id)
	r.handlers[id] = h
}

// Invoke runs the handler registered for id, panicking if the registry is
// uninitialized, id is out of range, or no handler was ever registered
// for it, grounded on the original invoke's two panic!s.
func (r *Registry) Invoke(id uint32, tf *trapframe.Frame) {
	r.mu.Lock()
	r.mustBeReady(id)
	h := r.handlers[id]
	r.mu.Unlock()

	if h == nil {
		panic(fmt.Sprintf("irq: no handler registered for interrupt %d", id))
	}
	h(tf)
}

func (r *Registry) mustBeReady(id uint32) {
	if !r.initialized {
		panic("irq: registry has not been initialized")
	}
	if id >= MaxInterrupts {
		panic(fmt.Sprintf("irq: interrupt index %d out of range", id))
	}
}
