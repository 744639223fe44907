package sched

import (
	"testing"
	"unsafe"

	"coreos/internal/alloc"
	"coreos/internal/process"
	"coreos/internal/trapframe"
)

func newTestProcess(t *testing.T) *process.Process {
	t.Helper()
	buf := make([]byte, 1<<16)
	start := uintptr(unsafe.Pointer(&buf[0]))
	return process.New(alloc.New(start, start+uintptr(len(buf))))
}

func TestAddAssignsMonotonicIDs(t *testing.T) {
	g := NewGlobal()
	p0 := newTestProcess(t)
	p1 := newTestProcess(t)

	id0, err0 := g.Add(p0)
	id1, err1 := g.Add(p1)
	if err0 != nil || err1 != nil {
		t.Fatalf("unexpected errors: %v, %v", err0, err1)
	}
	if id0 != 0 || id1 != 1 {
		t.Fatalf("ids = %d, %d; want 0, 1", id0, id1)
	}
	if p1.Frame.TPIDR != uint64(id1) {
		t.Fatalf("trap frame TPIDR = %d, want %d", p1.Frame.TPIDR, id1)
	}
}

func TestSwitchToPicksReadyProcess(t *testing.T) {
	g := NewGlobal()
	p := newTestProcess(t)
	p.Frame.ELR = 0x1234
	g.Add(p)

	tf := trapframe.New()
	id := g.SwitchTo(tf)
	if id != p.ID {
		t.Fatalf("SwitchTo returned id %d, want %d", id, p.ID)
	}
	if tf.ELR != 0x1234 {
		t.Fatalf("tf.ELR = %#x, want restored 0x1234", tf.ELR)
	}
	if p.State().Kind() != process.Running {
		t.Fatalf("process state = %v, want Running", p.State().Kind())
	}
}

func TestSwitchRoundRobins(t *testing.T) {
	g := NewGlobal()
	pA := newTestProcess(t)
	pB := newTestProcess(t)
	g.Add(pA)
	g.Add(pB)

	tf := trapframe.New()
	first := g.SwitchTo(tf)

	second := g.Switch(process.ReadyState(), tf)
	if second == first {
		t.Fatalf("expected round robin to a different process, got %d twice", first)
	}

	third := g.Switch(process.ReadyState(), tf)
	if third != first {
		t.Fatalf("expected round robin back to process %d, got %d", first, third)
	}
}

func TestKillRemovesProcess(t *testing.T) {
	g := NewGlobal()
	pA := newTestProcess(t)
	pB := newTestProcess(t)
	g.Add(pA)
	g.Add(pB)

	tf := trapframe.New()
	g.SwitchTo(tf)

	id, ok := g.Kill(tf)
	if !ok {
		t.Fatal("expected Kill to succeed on the running process")
	}
	if id != pA.ID {
		t.Fatalf("killed id = %d, want %d", id, pA.ID)
	}

	// Only pB remains; two consecutive switches must return the same id.
	next1 := g.SwitchTo(tf)
	next2 := g.Switch(process.ReadyState(), tf)
	if next1 != pB.ID || next2 != pB.ID {
		t.Fatalf("expected only surviving process %d to run, got %d then %d", pB.ID, next1, next2)
	}
}

func TestAddReportsIDOverflow(t *testing.T) {
	g := NewGlobal()
	g.sch.lastID = ^process.Id(0)
	g.sch.hasLastID = true

	p := newTestProcess(t)
	if _, err := g.Add(p); err != ErrIDOverflow {
		t.Fatalf("err = %v, want ErrIDOverflow", err)
	}
}

func TestWaitingProcessSkippedUntilPollSucceeds(t *testing.T) {
	g := NewGlobal()
	waiter := newTestProcess(t)
	ready := newTestProcess(t)

	pollCalls := 0
	waiter.SetState(process.WaitingState(func(*process.Process) bool {
		pollCalls++
		return pollCalls > 1
	}))

	g.Add(waiter)
	g.Add(ready)

	tf := trapframe.New()
	id := g.SwitchTo(tf)
	if id != ready.ID {
		t.Fatalf("expected waiting process skipped, got id %d want %d", id, ready.ID)
	}
}
