package trapframe

import "testing"

func TestNewIsZeroed(t *testing.T) {
	f := New()
	if f.ELR != 0 || f.SPSR != 0 || f.TPIDR != 0 {
		t.Fatalf("expected zeroed frame, got %+v", f)
	}
}

func TestSetReturn(t *testing.T) {
	f := New()
	f.SetReturn(0x4000_0000, 0x3c5)
	if f.ELR != 0x4000_0000 || f.SPSR != 0x3c5 {
		t.Fatalf("SetReturn did not take effect: %+v", f)
	}
}

func TestArgRoundTrip(t *testing.T) {
	f := New()
	f.SetArg(0, 42)
	f.SetArg(1, 7)
	if f.Arg(0) != 42 || f.Arg(1) != 7 {
		t.Fatalf("Arg round trip failed: %+v", f.GPR[:2])
	}
}
