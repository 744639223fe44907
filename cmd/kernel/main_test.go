package main

import (
	"sync"
	"testing"
	"time"

	"coreos/internal/console"
	"coreos/internal/platform"
)

func TestBootWiresSchedulerAndTimerHandler(t *testing.T) {
	con := console.NewFake()
	ctrl := platform.NewFake(time.Unix(0, 0))

	k := boot(con, ctrl, nil)
	if k.sched == nil || k.globalIRQ == nil || k.vmm == nil {
		t.Fatal("boot did not construct all singletons")
	}

	if string(con.Out) == "" {
		t.Fatal("expected boot to log something to the console")
	}
}

func TestEnterCoreJoinsBarrierAndBuildsDispatcher(t *testing.T) {
	con := console.NewFake()
	ctrl := platform.NewFake(time.Unix(0, 0))
	k := boot(con, ctrl, nil)

	// platform.NumCores cores must all reach the MMU barrier before any
	// enterCore call returns, spec §5 "MMU boot barrier".
	var wg sync.WaitGroup
	results := make([]bool, platform.NumCores)
	for i := 0; i < platform.NumCores; i++ {
		wg.Add(1)
		go func(core int) {
			defer wg.Done()
			d := k.enterCore(core)
			results[core] = d != nil && d.IRQ != nil && d.CoreIRQ != nil && d.Ctrl != nil && d.Syscall != nil
		}(i)
	}
	wg.Wait()
	for core, ok := range results {
		if !ok {
			t.Fatalf("enterCore(%d) did not build a fully wired dispatcher", core)
		}
	}
}
