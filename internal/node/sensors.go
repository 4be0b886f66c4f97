// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import "github.com/lumenworks/lumenbus/pkg/lumen"

// SensorState holds the most recent reading per sensor kind. Sensor
// broadcasts feed it through the registry's sensor-data handler; the
// level and sound follower programs read it on each tick. All access
// happens from the control loop, so no locking is needed.
type SensorState struct {
	light uint16
	sound uint16
}

// Record stores one reading. Unknown sensor types are ignored.
func (s *SensorState) Record(r lumen.SensorReading) {
	switch r.SensorType {
	case lumen.SensorTypeLight:
		s.light = r.Value()
	case lumen.SensorTypeSound:
		s.sound = r.Value()
	}
}

// Light returns the latest light level.
func (s *SensorState) Light() uint16 { return s.light }

// Sound returns the latest sound level.
func (s *SensorState) Sound() uint16 { return s.sound }
