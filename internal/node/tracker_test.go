// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import (
	"errors"
	"testing"

	"github.com/lumenworks/lumenbus/pkg/lumen"
)

func blinkConfig(t *testing.T, output uint8) lumen.ProgramConfig {
	t.Helper()
	return programConfig(t, lumen.NewBlinkMessage(lumen.AddressBroadcast, output,
		500, [3]uint8{255, 0, 0}, 500, [3]uint8{0, 0, 0}))
}

func TestPoolAssign_CreatesOneTracker(t *testing.T) {
	r := newRig(3)

	if err := r.pool.Assign(1, blinkConfig(t, 1)); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	tr := r.pool.Tracker(1)
	if tr == nil {
		t.Fatal("no tracker after assign")
	}
	if tr.program.Type != lumen.ProgramBlink {
		t.Errorf("tracker program type 0x%02X, want BLINK", tr.program.Type)
	}
	if r.pool.Active() != 1 {
		t.Errorf("active trackers = %d, want 1", r.pool.Active())
	}
}

func TestPoolAssign_ReplacesPriorState(t *testing.T) {
	r := newRig(3)

	if err := r.pool.Assign(1, blinkConfig(t, 1)); err != nil {
		t.Fatalf("assign blink: %v", err)
	}
	priorState := r.pool.Tracker(1).state

	fade := programConfig(t, lumen.NewFadeMessage(lumen.AddressBroadcast, 1,
		1000, [3]uint8{0, 0, 0}, [3]uint8{255, 255, 255}, 0))
	if err := r.pool.Assign(1, fade); err != nil {
		t.Fatalf("assign fade: %v", err)
	}

	tr := r.pool.Tracker(1)
	if tr.program.Type != lumen.ProgramFade {
		t.Errorf("program type 0x%02X, want FADE", tr.program.Type)
	}
	if tr.state == priorState {
		t.Error("prior program state survived reassignment")
	}
	if r.pool.Active() != 1 {
		t.Errorf("active trackers = %d, want 1", r.pool.Active())
	}
}

func TestPoolAssign_NoneClears(t *testing.T) {
	r := newRig(3)

	none := programConfig(t, lumen.NewProgramNoneMessage(lumen.AddressBroadcast, 1))

	// Clearing an empty slot succeeds.
	if err := r.pool.Assign(1, none); err != nil {
		t.Fatalf("clear empty slot: %v", err)
	}

	if err := r.pool.Assign(1, blinkConfig(t, 1)); err != nil {
		t.Fatalf("assign blink: %v", err)
	}
	if err := r.pool.Assign(1, none); err != nil {
		t.Fatalf("clear active slot: %v", err)
	}
	if r.pool.Tracker(1) != nil {
		t.Error("tracker survived a clearing message")
	}
}

func TestPoolAssign_InvalidOutput(t *testing.T) {
	r := newRig(3)

	err := r.pool.Assign(99, blinkConfig(t, 99))
	if !errors.Is(err, ErrInvalidOutput) {
		t.Errorf("expected ErrInvalidOutput, got %v", err)
	}
}

func TestPoolAssign_UnknownProgramLeavesPriorTracker(t *testing.T) {
	r := newRig(3)

	if err := r.pool.Assign(1, blinkConfig(t, 1)); err != nil {
		t.Fatalf("assign blink: %v", err)
	}

	bogus := lumen.ProgramConfig{
		OutputHeader: lumen.OutputHeader{Type: lumen.OutputProgram, Output: 1},
		Program:      0x77,
	}
	err := r.pool.Assign(1, bogus)
	if !errors.Is(err, ErrUnknownProgram) {
		t.Fatalf("expected ErrUnknownProgram, got %v", err)
	}

	tr := r.pool.Tracker(1)
	if tr == nil || tr.program.Type != lumen.ProgramBlink {
		t.Error("failed assign disturbed the prior tracker")
	}
}

func TestPoolAssign_ExternalOnlyProgramRejected(t *testing.T) {
	r := newRig(3)

	cfg := lumen.ProgramConfig{
		OutputHeader: lumen.OutputHeader{Type: lumen.OutputProgram, Output: 1},
		Program:      lumen.ProgramSensorData,
	}
	if err := r.pool.Assign(1, cfg); !errors.Is(err, ErrUnknownProgram) {
		t.Errorf("expected ErrUnknownProgram for external-only program, got %v", err)
	}
}

func TestPoolRelease_Idempotent(t *testing.T) {
	r := newRig(3)

	r.pool.Release(1)
	r.pool.Release(1)
	r.pool.Release(-1)
	r.pool.Release(99)

	if err := r.pool.Assign(1, blinkConfig(t, 1)); err != nil {
		t.Fatalf("assign: %v", err)
	}
	r.pool.Release(1)
	r.pool.Release(1)
	if r.pool.Tracker(1) != nil {
		t.Error("tracker present after release")
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(newFakeClock(), &SensorState{})

	for _, pt := range []uint8{
		lumen.ProgramNone, lumen.ProgramBlink, lumen.ProgramTimedChange,
		lumen.ProgramFade, lumen.ProgramLevelValue, lumen.ProgramSoundValue,
		lumen.ProgramGeneric, lumen.ProgramSensorData,
	} {
		if _, ok := reg.Lookup(pt); !ok {
			t.Errorf("program 0x%02X not registered", pt)
		}
	}

	if _, ok := reg.Lookup(0x77); ok {
		t.Error("lookup of unregistered type succeeded")
	}
}
