// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import "github.com/lumenworks/lumenbus/pkg/lumen"

// Program is one registered behavior driving an output's value over
// time. Setup parses the 12-byte parameter block into the tracker's
// state; Step advances the animation and reports whether any output
// value changed. Registry entries are immutable after construction.
//
// Programs with a nil Setup cannot be assigned to an output; they exist
// only for RunExternal fan-out (sensor handlers). Step receives a nil
// tracker in that case.
type Program struct {
	Type  uint8
	Name  string
	Setup func(t *Tracker, cfg lumen.ProgramConfig) error
	Step  func(t *Tracker, arg any) bool
}

// Registry is the fixed program table, populated once at startup.
type Registry struct {
	programs []*Program
}

// NewRegistry builds the program table. The clock drives all program
// timing; sensors back the level and sound follower programs.
func NewRegistry(clock Clock, sensors *SensorState) *Registry {
	return &Registry{programs: []*Program{
		{Type: lumen.ProgramNone, Name: "none"},
		newBlinkProgram(clock),
		newTimedChangeProgram(clock),
		newFadeProgram(clock),
		newLevelValueProgram(sensors),
		newSoundValueProgram(sensors),
		newGenericProgram(),
		newSensorDataProgram(sensors),
	}}
}

// Lookup finds a program by type identifier.
func (r *Registry) Lookup(programType uint8) (*Program, bool) {
	for _, p := range r.programs {
		if p.Type == programType {
			return p, true
		}
	}
	return nil, false
}
