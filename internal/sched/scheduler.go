// Package sched is the round-robin scheduler of spec §3/§4.6 (component
// C6), grounded on the original kern/src/process/scheduler.rs Scheduler
// and GlobalScheduler.
package sched

import (
	"container/list"
	"errors"
	"sync"

	"coreos/internal/process"
	"coreos/internal/trapframe"
)

// ErrIDOverflow is returned by add/Add when the process id space is
// exhausted, spec §4.6 "add(p)... Returns failure on id overflow."
var ErrIDOverflow = errors.New("sched: process id space exhausted")

// Scheduler holds the ordered queue of processes and the last-id counter,
// spec §3 "Scheduler state". Not safe for concurrent use directly — callers
// go through Global, which owns the mutex.
type Scheduler struct {
	processes *list.List // of *process.Process, front = next to run
	lastID    process.Id
	hasLastID bool
}

func newScheduler() *Scheduler {
	return &Scheduler{processes: list.New()}
}

// add assigns the next process id, stamps it into the trap frame's TPIDR
// field and appends the process to the queue, spec §4.6 "add": ids are
// monotonically increasing and never reused. Returns ErrIDOverflow if the
// id space is exhausted.
func (s *Scheduler) add(p *process.Process) (process.Id, error) {
	var id process.Id
	if s.hasLastID {
		if s.lastID == ^process.Id(0) {
			return 0, ErrIDOverflow
		}
		id = s.lastID + 1
	}
	s.lastID = id
	s.hasLastID = true

	p.ID = id
	p.Frame.TPIDR = uint64(id)
	s.processes.PushBack(p)
	return id, nil
}

// scheduleOut finds the Running process whose TPIDR matches tf, moves it
// to newState, copies tf into its saved frame, and requeues it at the
// back, spec §4.6 "schedule_out". Returns false if no such process
// exists.
func (s *Scheduler) scheduleOut(newState process.State, tf *trapframe.Frame) bool {
	for e := s.processes.Front(); e != nil; e = e.Next() {
		p := e.Value.(*process.Process)
		if p.State().Kind() == process.Running && p.Frame.TPIDR == tf.TPIDR {
			s.processes.Remove(e)
			p.SetState(newState)
			*p.Frame = *tf
			s.processes.PushBack(p)
			return true
		}
	}
	return false
}

// switchTo scans the queue for the first ready process (re-polling
// Waiting processes as it goes), moves it to Running, copies its saved
// frame into tf and moves it to the front of the queue, spec §4.6
// "switch_to". Returns (id, false) if no process is ready.
func (s *Scheduler) switchTo(tf *trapframe.Frame) (process.Id, bool) {
	for e := s.processes.Front(); e != nil; e = e.Next() {
		p := e.Value.(*process.Process)
		if p.IsReady() {
			s.processes.Remove(e)
			p.SetState(process.RunningState())
			*tf = *p.Frame
			s.processes.PushFront(p)
			return process.Id(tf.TPIDR), true
		}
	}
	return 0, false
}

// kill schedules the current process out as Dead and drops it from the
// queue entirely, spec §4.6 "kill".
func (s *Scheduler) kill(tf *trapframe.Frame) (process.Id, bool) {
	if !s.scheduleOut(process.DeadState(), tf) {
		return 0, false
	}
	back := s.processes.Back()
	s.processes.Remove(back)
	return process.Id(tf.TPIDR), true
}

// Global wraps Scheduler in a mutex: every queue operation, including the
// re-polling of Waiting processes inside switchTo, runs with the lock
// held, and the lock is released between switch_to attempts. Grounded on
// the original GlobalScheduler::critical.
type Global struct {
	mu  sync.Mutex
	sch *Scheduler
}

// NewGlobal returns a Global scheduler with an empty queue.
func NewGlobal() *Global {
	return &Global{sch: newScheduler()}
}

// Add enqueues p and returns its newly assigned id, or ErrIDOverflow if
// the id space is exhausted.
func (g *Global) Add(p *process.Process) (process.Id, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sch.add(p)
}

// Switch performs a full context switch: the current process transitions
// to newState and tf is overwritten with the next ready process's saved
// frame, spec §4.6 "Switch = schedule_out then switch_to". Blocks
// (spinning, never holding the lock) until a ready process exists.
func (g *Global) Switch(newState process.State, tf *trapframe.Frame) process.Id {
	g.mu.Lock()
	g.sch.scheduleOut(newState, tf)
	g.mu.Unlock()
	return g.SwitchTo(tf)
}

// SwitchTo repeatedly attempts switch_to until a ready process exists,
// calling idle between attempts without holding the lock.
func (g *Global) SwitchTo(tf *trapframe.Frame) process.Id {
	for {
		g.mu.Lock()
		id, ok := g.sch.switchTo(tf)
		g.mu.Unlock()
		if ok {
			return id
		}
		idle()
	}
}

// Kill terminates the currently running process, spec §4.6 "kill".
func (g *Global) Kill(tf *trapframe.Frame) (process.Id, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sch.kill(tf)
}

// idle runs between failed switch_to attempts. It is a no-op and no build
// replaces it with a WFE/WFI instruction, so SwitchTo busy-spins.
var idle = func() {}
