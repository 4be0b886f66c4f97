// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import (
	"encoding/binary"
	"time"

	"github.com/lumenworks/lumenbus/pkg/lumen"
)

// Program implementations. Each parses its own 12 parameter bytes in
// Setup and keeps its mutable state in the tracker slot.

type blinkState struct {
	onPeriod  time.Duration
	offPeriod time.Duration
	on        [3]uint8
	off       [3]uint8
	isOn      bool
	next      time.Time
}

func newBlinkProgram(clock Clock) *Program {
	return &Program{
		Type: lumen.ProgramBlink,
		Name: "blink",
		Setup: func(t *Tracker, cfg lumen.ProgramConfig) error {
			st := &blinkState{
				onPeriod:  time.Duration(binary.LittleEndian.Uint16(cfg.Data[0:2])) * time.Millisecond,
				offPeriod: time.Duration(binary.LittleEndian.Uint16(cfg.Data[5:7])) * time.Millisecond,
				next:      clock.Now(),
			}
			copy(st.on[:], cfg.Data[2:5])
			copy(st.off[:], cfg.Data[7:10])
			t.state = st
			return nil
		},
		Step: func(t *Tracker, _ any) bool {
			st := t.state.(*blinkState)
			now := clock.Now()
			if now.Before(st.next) {
				return false
			}
			st.isOn = !st.isOn
			vals, period := st.off, st.offPeriod
			if st.isOn {
				vals, period = st.on, st.onPeriod
			}
			st.next = now.Add(period)
			t.output.ApplyLevels(vals)
			return true
		},
	}
}

type timedChangeState struct {
	stop    [3]uint8
	start   [3]uint8
	at      time.Time
	started bool
}

func newTimedChangeProgram(clock Clock) *Program {
	return &Program{
		Type: lumen.ProgramTimedChange,
		Name: "timed_change",
		Setup: func(t *Tracker, cfg lumen.ProgramConfig) error {
			period := time.Duration(binary.LittleEndian.Uint32(cfg.Data[0:4])) * time.Millisecond
			st := &timedChangeState{at: clock.Now().Add(period)}
			copy(st.start[:], cfg.Data[4:7])
			copy(st.stop[:], cfg.Data[7:10])
			t.state = st
			return nil
		},
		Step: func(t *Tracker, _ any) bool {
			st := t.state.(*timedChangeState)
			if !st.started {
				st.started = true
				t.output.ApplyLevels(st.start)
				return true
			}
			if clock.Now().Before(st.at) {
				return false
			}
			t.output.ApplyLevels(st.stop)
			t.SetDone(true)
			return true
		},
	}
}

type fadeState struct {
	from   [3]uint8
	to     [3]uint8
	begin  time.Time
	period time.Duration
	cycle  bool
}

func newFadeProgram(clock Clock) *Program {
	return &Program{
		Type: lumen.ProgramFade,
		Name: "fade",
		Setup: func(t *Tracker, cfg lumen.ProgramConfig) error {
			st := &fadeState{
				period: time.Duration(binary.LittleEndian.Uint32(cfg.Data[0:4])) * time.Millisecond,
				begin:  clock.Now(),
				cycle:  cfg.Data[10]&lumen.FadeFlagCycle != 0,
			}
			copy(st.from[:], cfg.Data[4:7])
			copy(st.to[:], cfg.Data[7:10])
			if st.period <= 0 {
				st.period = time.Millisecond
			}
			t.state = st
			return nil
		},
		Step: func(t *Tracker, _ any) bool {
			st := t.state.(*fadeState)
			now := clock.Now()
			elapsed := now.Sub(st.begin)
			if elapsed >= st.period {
				changed := t.output.ApplyLevels(st.to)
				if st.cycle {
					st.begin = now
					return true
				}
				t.SetDone(true)
				return changed
			}
			var vals [3]uint8
			for i := range vals {
				span := int64(st.to[i]) - int64(st.from[i])
				vals[i] = uint8(int64(st.from[i]) + span*elapsed.Milliseconds()/st.period.Milliseconds())
			}
			return t.output.ApplyLevels(vals)
		},
	}
}

// followerState tracks the last sensor value applied so repeated ticks
// with an unchanged reading report no change.
type followerState struct {
	last    uint16
	applied bool
}

func newLevelValueProgram(sensors *SensorState) *Program {
	return &Program{
		Type:  lumen.ProgramLevelValue,
		Name:  "level_value",
		Setup: setupFollower,
		Step: func(t *Tracker, _ any) bool {
			return stepFollower(t, sensors.Light())
		},
	}
}

func newSoundValueProgram(sensors *SensorState) *Program {
	return &Program{
		Type:  lumen.ProgramSoundValue,
		Name:  "sound_value",
		Setup: setupFollower,
		Step: func(t *Tracker, _ any) bool {
			return stepFollower(t, sensors.Sound())
		},
	}
}

func setupFollower(t *Tracker, _ lumen.ProgramConfig) error {
	t.state = &followerState{}
	return nil
}

func stepFollower(t *Tracker, reading uint16) bool {
	st := t.state.(*followerState)
	if st.applied && st.last == reading {
		return false
	}
	st.last = reading
	st.applied = true

	if t.output.Type == lumen.OutputValue {
		return t.output.SetValue(reading)
	}
	// Sensor readings are 10-bit; scale down to one channel byte.
	level := uint8(min(int(reading/4), 255))
	return t.output.ApplyLevels([3]uint8{level, level, level})
}

// The generic program applies its first three parameter bytes as levels
// once and finishes: a one-shot set routed through the program
// machinery so a host can mix it with timed programs.
func newGenericProgram() *Program {
	return &Program{
		Type: lumen.ProgramGeneric,
		Name: "generic",
		Setup: func(t *Tracker, cfg lumen.ProgramConfig) error {
			var vals [3]uint8
			copy(vals[:], cfg.Data[0:3])
			t.state = vals
			return nil
		},
		Step: func(t *Tracker, _ any) bool {
			vals := t.state.([3]uint8)
			t.output.ApplyLevels(vals)
			t.SetDone(true)
			return true
		},
	}
}

// The sensor-data handler is registry-only: it has no Setup so it can
// never own an output. RunExternal feeds it one reading at a time.
func newSensorDataProgram(sensors *SensorState) *Program {
	return &Program{
		Type: lumen.ProgramSensorData,
		Name: "sensor_data",
		Step: func(_ *Tracker, arg any) bool {
			if r, ok := arg.(lumen.SensorReading); ok {
				sensors.Record(r)
			}
			return false
		},
	}
}
