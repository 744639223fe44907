package sched

import (
	"coreos/internal/platform"
	"coreos/internal/process"
	"coreos/internal/trapframe"
)

// TimerHandler re-arms the next tick and preempts the running process
// back to Ready, spec §2 "timer interrupt on a core ... C7 invokes
// scheduler timer handler → C6 swaps trap frame", grounded on the
// original GlobalScheduler::timer_handler.
func (g *Global) TimerHandler(ctrl platform.Controller, tf *trapframe.Frame) {
	ctrl.ArmTick(platform.Tick)
	g.Switch(process.ReadyState(), tf)
}
