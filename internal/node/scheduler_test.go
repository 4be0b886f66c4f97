// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import (
	"testing"
	"time"

	"github.com/lumenworks/lumenbus/pkg/lumen"
)

func TestScheduler_BlinkAlternates(t *testing.T) {
	r := newRig(3)

	cfg := programConfig(t, lumen.NewBlinkMessage(lumen.AddressBroadcast, 1,
		500, [3]uint8{255, 0, 0}, 500, [3]uint8{0, 0, 0}))
	if err := r.pool.Assign(1, cfg); err != nil {
		t.Fatalf("assign: %v", err)
	}
	out := r.outputs[1]

	// First tick turns the output on.
	if !r.sched.Run() {
		t.Fatal("first tick reported no change")
	}
	if out.Values != [3]uint8{255, 0, 0} {
		t.Fatalf("after first tick values = %v", out.Values)
	}

	// Mid-period ticks change nothing.
	r.clock.Advance(100 * time.Millisecond)
	if r.sched.Run() {
		t.Error("mid-period tick reported change")
	}
	if out.Values != [3]uint8{255, 0, 0} {
		t.Errorf("mid-period values = %v", out.Values)
	}

	// Past the on period: off.
	r.clock.Advance(450 * time.Millisecond)
	if !r.sched.Run() {
		t.Fatal("toggle tick reported no change")
	}
	if out.Values != [3]uint8{0, 0, 0} {
		t.Errorf("after toggle values = %v", out.Values)
	}

	// And back on again.
	r.clock.Advance(550 * time.Millisecond)
	r.sched.Run()
	if out.Values != [3]uint8{255, 0, 0} {
		t.Errorf("second cycle values = %v", out.Values)
	}
}

func TestScheduler_TimedChangeRunsToCompletion(t *testing.T) {
	r := newRig(3)

	cfg := programConfig(t, lumen.NewTimedChangeMessage(lumen.AddressBroadcast, 1,
		1000, [3]uint8{10, 20, 30}, [3]uint8{200, 0, 0}))
	if err := r.pool.Assign(1, cfg); err != nil {
		t.Fatalf("assign: %v", err)
	}
	out := r.outputs[1]

	r.sched.Run()
	if out.Values != [3]uint8{10, 20, 30} {
		t.Fatalf("start values = %v", out.Values)
	}

	r.clock.Advance(500 * time.Millisecond)
	r.sched.Run()
	if out.Values != [3]uint8{10, 20, 30} {
		t.Errorf("values changed before the period: %v", out.Values)
	}

	r.clock.Advance(600 * time.Millisecond)
	if !r.sched.Run() {
		t.Fatal("change tick reported no change")
	}
	if out.Values != [3]uint8{200, 0, 0} {
		t.Errorf("stop values = %v", out.Values)
	}
	if tr := r.pool.Tracker(1); tr == nil || !tr.Done() {
		t.Fatal("tracker not flagged done after completion")
	}

	// The next tick releases the finished tracker without stepping it.
	r.sched.Run()
	if r.pool.Tracker(1) != nil {
		t.Error("finished tracker not released")
	}
	if out.Values != [3]uint8{200, 0, 0} {
		t.Errorf("release tick disturbed output: %v", out.Values)
	}
}

func TestScheduler_FadeInterpolates(t *testing.T) {
	r := newRig(3)

	cfg := programConfig(t, lumen.NewFadeMessage(lumen.AddressBroadcast, 1,
		1000, [3]uint8{0, 0, 0}, [3]uint8{200, 100, 0}, 0))
	if err := r.pool.Assign(1, cfg); err != nil {
		t.Fatalf("assign: %v", err)
	}
	out := r.outputs[1]

	r.clock.Advance(500 * time.Millisecond)
	r.sched.Run()
	if out.Values != [3]uint8{100, 50, 0} {
		t.Errorf("midpoint values = %v, want [100 50 0]", out.Values)
	}

	r.clock.Advance(600 * time.Millisecond)
	r.sched.Run()
	if out.Values != [3]uint8{200, 100, 0} {
		t.Errorf("final values = %v", out.Values)
	}
	if tr := r.pool.Tracker(1); tr == nil || !tr.Done() {
		t.Error("fade did not finish")
	}
}

func TestScheduler_FadeCycleRestarts(t *testing.T) {
	r := newRig(3)

	cfg := programConfig(t, lumen.NewFadeMessage(lumen.AddressBroadcast, 1,
		1000, [3]uint8{0, 0, 0}, [3]uint8{200, 200, 200}, lumen.FadeFlagCycle))
	if err := r.pool.Assign(1, cfg); err != nil {
		t.Fatalf("assign: %v", err)
	}
	out := r.outputs[1]

	r.clock.Advance(1100 * time.Millisecond)
	r.sched.Run()
	if out.Values != [3]uint8{200, 200, 200} {
		t.Fatalf("end-of-cycle values = %v", out.Values)
	}
	if tr := r.pool.Tracker(1); tr == nil || tr.Done() {
		t.Fatal("cycling fade flagged done")
	}

	// A new cycle begins from the start values.
	r.clock.Advance(500 * time.Millisecond)
	r.sched.Run()
	if out.Values != [3]uint8{100, 100, 100} {
		t.Errorf("second-cycle midpoint = %v, want [100 100 100]", out.Values)
	}
}

func TestScheduler_GenericIsOneShot(t *testing.T) {
	r := newRig(3)

	var data [lumen.ProgramDataLen]uint8
	data[0], data[1], data[2] = 5, 6, 7
	cfg := programConfig(t, lumen.NewProgramMessage(lumen.AddressBroadcast, 1, lumen.ProgramGeneric, data))
	if err := r.pool.Assign(1, cfg); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if !r.sched.Run() {
		t.Fatal("one-shot tick reported no change")
	}
	if r.outputs[1].Values != [3]uint8{5, 6, 7} {
		t.Errorf("values = %v", r.outputs[1].Values)
	}
	r.sched.Run()
	if r.pool.Tracker(1) != nil {
		t.Error("one-shot tracker not released")
	}
}

func TestScheduler_DoneTrackerNotStepped(t *testing.T) {
	r := newRig(3)

	if err := r.pool.Assign(1, blinkConfig(t, 1)); err != nil {
		t.Fatalf("assign: %v", err)
	}
	r.pool.Tracker(1).SetDone(true)

	before := r.outputs[1].Values
	if r.sched.Run() {
		t.Error("releasing a done tracker reported a change")
	}
	if r.outputs[1].Values != before {
		t.Error("done tracker was stepped")
	}
	if r.pool.Tracker(1) != nil {
		t.Error("done tracker not released")
	}
}

func TestScheduler_FollowerTracksSensor(t *testing.T) {
	r := newRig(3)

	cfg := programConfig(t, lumen.NewLevelValueMessage(lumen.AddressBroadcast, 0))
	if err := r.pool.Assign(0, cfg); err != nil {
		t.Fatalf("assign: %v", err)
	}
	out := r.outputs[0]

	r.sensors.Record(lumen.SensorReading{SensorType: lumen.SensorTypeLight, Data: []byte{0x20, 0x03}}) // 800
	if !r.sched.Run() {
		t.Fatal("follower tick reported no change")
	}
	if out.Value != 800 {
		t.Errorf("follower value = %d, want 800", out.Value)
	}

	// Unchanged reading: no repaint.
	if r.sched.Run() {
		t.Error("unchanged reading reported a change")
	}

	r.sensors.Record(lumen.SensorReading{SensorType: lumen.SensorTypeLight, Data: []byte{0x64, 0x00}}) // 100
	if !r.sched.Run() {
		t.Fatal("new reading reported no change")
	}
	if out.Value != 100 {
		t.Errorf("follower value = %d, want 100", out.Value)
	}
}

func TestScheduler_RunExternalRecordsSensorData(t *testing.T) {
	r := newRig(3)

	r.sched.RunExternal(lumen.ProgramSensorData, lumen.SensorReading{
		SensorType: lumen.SensorTypeSound,
		Data:       []byte{0x2C, 0x01}, // 300
	})
	if r.sensors.Sound() != 300 {
		t.Errorf("sound level = %d, want 300", r.sensors.Sound())
	}

	// Unknown program types are ignored.
	if r.sched.RunExternal(0x77, nil) {
		t.Error("unknown external program reported a change")
	}
}
