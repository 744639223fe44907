// Package process is the per-process record of spec §3/§4.5 (component
// C5): a trap frame, kernel stack, user page table and scheduling state,
// grounded on the original kern/src/process/process.rs Process.
package process

import (
	"fmt"

	"coreos/internal/alloc"
	"coreos/internal/fsys"
	"coreos/internal/platform"
	"coreos/internal/trapframe"
	"coreos/internal/vm/pagetable"
)

// Id is a monotonically increasing process identifier; reuse is
// forbidden, spec §3 "Scheduler state".
type Id uint64

// PollFunc reports whether a waiting process has become ready, spec §3
// "Waiting(poll) where poll is a stored closure over process state".
type PollFunc func(*Process) bool

// State is one of Ready, Running, Waiting or Dead, spec §3 "Process
// state". Only Waiting carries data (its poll function).
type State struct {
	kind stateKind
	poll PollFunc
}

type stateKind int

const (
	Ready stateKind = iota
	Running
	Waiting
	Dead
)

func (s State) Kind() stateKind { return s.kind }

func (s stateKind) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Waiting:
		return "Waiting"
	case Dead:
		return "Dead"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func ReadyState() State            { return State{kind: Ready} }
func RunningState() State          { return State{kind: Running} }
func DeadState() State             { return State{kind: Dead} }
func WaitingState(p PollFunc) State { return State{kind: Waiting, poll: p} }

// kernelStackSize is one page, spec §4.5 "one page for the kernel stack".
const kernelStackSize = platform.PageSize

// stackAlign is AArch64's mandatory stack-pointer alignment, grounded on
// the original get_stack_top()'s "stack pointer must be 16 byte aligned".
const stackAlign = 16

// Process is {trap_frame, kernel_stack, user_page_table, state}, spec §3
// "Process". Created at boot from a statically identified program image
// or synthesized as a kernel thread; destroyed only on transition to
// Dead.
type Process struct {
	ID Id

	Frame       *trapframe.Frame
	KernelStack []byte
	UserPT      *pagetable.User

	state State
}

// New returns a fresh process with a zeroed trap frame, a zeroed kernel
// stack and an empty user page table, in state Ready, spec §4.5
// "Construction".
func New(a *alloc.Allocator) *Process {
	return &Process{
		Frame:       trapframe.New(),
		KernelStack: make([]byte, kernelStackSize),
		UserPT:      pagetable.NewUser(a),
		state:       ReadyState(),
	}
}

// StackTop returns the 16-byte-aligned top of the user stack page, spec
// §4.5, grounded on the original get_stack_top rounding the last valid
// offset in the page down to the nearest multiple of 16.
func StackTop() uintptr {
	top := uintptr(platform.USERStackBase) + platform.PageSize - 1
	return top &^ (stackAlign - 1)
}

// Load builds a process from the ELF-less raw program image at path:
// a fresh Process, one RW stack page, and enough RWX image pages to hold
// the whole file, with the trap frame primed to enter it at EL0, spec
// §4.5 "Loading a program". Grounded on the original load/do_load/
// create_process_from_file.
func Load(fs fsys.FileSystem, a *alloc.Allocator, kernPTBase uintptr, path string) (*Process, error) {
	entry, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("process: open %s: %w", path, err)
	}
	file, ok := entry.(fsys.File)
	if !ok {
		return nil, fmt.Errorf("process: %s is not a file", path)
	}

	p := New(a)
	p.UserPT.Alloc(platform.USERStackBase, pagetable.APUserRW)

	va := uintptr(platform.USERImgBase)
	buf := make([]byte, platform.PageSize)
	for copied := 0; copied < file.Size(); {
		page := p.UserPT.Alloc(va, pagetable.APUserRW)
		n, rerr := file.Read(buf)
		if n > 0 {
			copyToPage(page, buf[:n])
		}
		copied += n
		va += platform.PageSize
		if rerr != nil {
			break
		}
	}

	p.Frame.SetReturn(uint64(platform.USERImgBase), 0x0000_0340)
	p.Frame.SP = uint64(StackTop())
	p.Frame.TTBR0 = uint64(kernPTBase)
	p.Frame.TTBR1 = uint64(p.UserPT.Table().BaseAddr())
	p.state = ReadyState()
	return p, nil
}

// State returns the process's current scheduling state.
func (p *Process) State() State { return p.state }

// SetState overwrites the process's scheduling state directly; used by
// the scheduler during schedule-out/schedule-in transitions.
func (p *Process) SetState(s State) { p.state = s }

// IsReady reports whether p may be scheduled, re-polling a Waiting
// process and flipping it to Ready if its event has occurred, spec §4.6
// "is_ready". Grounded on the original Process::is_ready.
func (p *Process) IsReady() bool {
	switch p.state.kind {
	case Ready:
		return true
	case Waiting:
		poll := p.state.poll
		if poll(p) {
			p.state = ReadyState()
			return true
		}
		return false
	default:
		return false
	}
}
