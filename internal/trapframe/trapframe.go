// Package trapframe is the fixed-layout saved-state record of spec §3
// "Trap frame" (component C4): exactly the bits an exception vector saves
// on entry and restores on return. Grounded on the original
// traps/frame.rs TrapFrame, generalized from its elr/spsr/sp/tpidr/qs/gprs
// fields to the spec's full TTBR0/TTBR1/ELR/SPSR/SP/TPIDR/SIMD/GPR set —
// the teacher's own frame.rs carries a "FIXME: Fill me in" marking TTBR0/
// TTBR1 as never finished.
package trapframe

// Frame is owned by its Process while suspended and referenced by the
// current exception handler while that process is running, spec §3.
// Field order and sizes must match the context-save/restore assembly
// stubs exactly: this is a hardware ABI, not just a Go struct.
type Frame struct {
	TTBR0 uint64
	TTBR1 uint64
	ELR   uint64 // saved PC
	SPSR  uint64 // saved status
	SP    uint64
	TPIDR uint64 // process id

	SIMD [32]SIMDReg
	GPR  [32]uint64
}

// SIMDReg is one 128-bit SIMD/FP register, split into two 64-bit halves
// since Go has no native 128-bit integer type.
type SIMDReg struct {
	Lo, Hi uint64
}

// New returns a zeroed Frame, the state of a process that has never run.
func New() *Frame {
	return &Frame{}
}

// SetReturn configures the frame so that restoring it resumes execution
// at pc with status spsr — used when synthesizing a fresh process's
// initial frame, spec §4.5 "Process creation".
func (f *Frame) SetReturn(pc, spsr uint64) {
	f.ELR = pc
	f.SPSR = spsr
}

// SetArg writes GPR[n], the AArch64 calling convention's n-th argument
// register, used both to pass a syscall's arguments in and its return
// value out, spec §4.9 "Argument marshalling".
func (f *Frame) SetArg(n int, v uint64) {
	f.GPR[n] = v
}

// Arg reads GPR[n].
func (f *Frame) Arg(n int) uint64 {
	return f.GPR[n]
}
