package syscall

import (
	"testing"
	"time"
	"unsafe"

	"coreos/internal/alloc"
	"coreos/internal/platform"
	"coreos/internal/process"
	"coreos/internal/sched"
	"coreos/internal/trapframe"
)

func newTestAllocator(t *testing.T) *alloc.Allocator {
	t.Helper()
	buf := make([]byte, 1<<16)
	start := uintptr(unsafe.Pointer(&buf[0]))
	return alloc.New(start, start+uintptr(len(buf)))
}

type fakeConsole struct{ out []byte }

func (c *fakeConsole) PutByte(b byte) { c.out = append(c.out, b) }

func newTestTable(t *testing.T) (*Table, *platform.Fake, *fakeConsole) {
	t.Helper()
	ctrl := platform.NewFake(time.Unix(1000, 0))
	console := &fakeConsole{}
	return &Table{Sched: sched.NewGlobal(), Console: console, Ctrl: ctrl}, ctrl, console
}

func TestSysWrite(t *testing.T) {
	tbl, _, console := newTestTable(t)
	tf := trapframe.New()
	tf.GPR[0] = 'A'
	tbl.Handle(NRWrite, tf)
	if string(console.out) != "A" {
		t.Fatalf("console got %q, want %q", console.out, "A")
	}
	if tf.GPR[7] != uint64(Ok) {
		t.Fatalf("status = %d, want Ok", tf.GPR[7])
	}
}

func TestSysGetpid(t *testing.T) {
	tbl, _, _ := newTestTable(t)
	tf := trapframe.New()
	tf.TPIDR = 42
	tbl.Handle(NRGetpid, tf)
	if tf.GPR[0] != 42 {
		t.Fatalf("getpid returned %d, want 42", tf.GPR[0])
	}
}

func TestSysTime(t *testing.T) {
	tbl, _, _ := newTestTable(t)
	tf := trapframe.New()
	tbl.Handle(NRTime, tf)
	if tf.GPR[0] != 1000 {
		t.Fatalf("secs = %d, want 1000", tf.GPR[0])
	}
}

func TestSysWriteStrRejectsAddressBelowImageBase(t *testing.T) {
	tbl, _, _ := newTestTable(t)
	tf := trapframe.New()
	tf.GPR[0] = 0x100 // below platform.USERImgBase
	tf.GPR[1] = 4
	tbl.Handle(NRWriteStr, tf)
	if OsError(tf.GPR[7]) != BadAddress {
		t.Fatalf("status = %d, want BadAddress", tf.GPR[7])
	}
}

func TestSysWriteStrRejectsOverflow(t *testing.T) {
	tbl, _, _ := newTestTable(t)
	tf := trapframe.New()
	tf.GPR[0] = ^uint64(0) - 2 // va + len overflows u64
	tf.GPR[1] = 10
	tbl.Handle(NRWriteStr, tf)
	if OsError(tf.GPR[7]) != BadAddress {
		t.Fatalf("status = %d, want BadAddress", tf.GPR[7])
	}
}

func TestSysWriteStrWritesValidUTF8(t *testing.T) {
	tbl, _, console := newTestTable(t)

	old := ReadUser
	defer func() { ReadUser = old }()
	ReadUser = func(va uintptr, length int) []byte { return []byte("hi")[:length] }

	tf := trapframe.New()
	tf.GPR[0] = uint64(platform.USERImgBase)
	tf.GPR[1] = 2
	tbl.Handle(NRWriteStr, tf)

	if string(console.out) != "hi" {
		t.Fatalf("console got %q, want %q", console.out, "hi")
	}
	if OsError(tf.GPR[7]) != Ok || tf.GPR[0] != 2 {
		t.Fatalf("status=%d written=%d, want Ok/2", tf.GPR[7], tf.GPR[0])
	}
}

func TestSysSleepInstallsWaitingAndSwitches(t *testing.T) {
	tbl, ctrl, _ := newTestTable(t)

	sleeper := process.New(newTestAllocator(t))
	other := process.New(newTestAllocator(t))
	if _, err := tbl.Sched.Add(sleeper); err != nil {
		t.Fatalf("Add(sleeper): %v", err)
	}
	if _, err := tbl.Sched.Add(other); err != nil {
		t.Fatalf("Add(other): %v", err)
	}

	tf := trapframe.New()
	id := tbl.Sched.SwitchTo(tf) // sleeper runs first
	if id != sleeper.ID {
		t.Fatalf("expected sleeper to run first, got id %d", id)
	}

	tf.GPR[0] = 100 // ms
	tbl.Handle(NRSleep, tf)
	// tf now holds the next process's frame; the sleeper's status is in its
	// own saved frame.
	if OsError(sleeper.Frame.GPR[7]) != Ok {
		t.Fatalf("sys_sleep status = %d, want Ok", sleeper.Frame.GPR[7])
	}
	if sleeper.State().Kind() != process.Waiting {
		t.Fatalf("sleeper state = %v, want Waiting", sleeper.State().Kind())
	}

	// Before the deadline, the poll must report not-ready.
	if sleeper.IsReady() {
		t.Fatal("expected sleeper not ready before its wake alarm")
	}
	ctrl.Advance(200 * time.Millisecond)
	if !sleeper.IsReady() {
		t.Fatal("expected sleeper ready after its wake alarm elapses")
	}
}

func TestUnknownSyscallPanics(t *testing.T) {
	tbl, _, _ := newTestTable(t)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown syscall number")
		}
	}()
	tbl.Handle(Number(99), trapframe.New())
}
