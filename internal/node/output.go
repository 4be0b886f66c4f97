// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import "github.com/lumenworks/lumenbus/pkg/lumen"

// OutputDescriptor is one physical output channel: static wiring from
// the boot configuration plus the live values the core computes for the
// external renderer to apply. The wiring fields are never mutated after
// construction.
type OutputDescriptor struct {
	Type  uint8 // lumen.OutputValue, OutputRGB or OutputPixels
	Index uint8

	// Static wiring
	Pin       uint8    // value output
	Pins      [3]uint8 // rgb output
	ClockPin  uint8    // pixel strip
	DataPin   uint8
	NumPixels uint16
	RGBType   uint8

	// Live values
	Value  uint16
	Values [3]uint8
}

// SetValue sets the single-channel level. Returns true when the value
// changed.
func (o *OutputDescriptor) SetValue(v uint16) bool {
	if o.Value == v {
		return false
	}
	o.Value = v
	return true
}

// ApplyLevels sets the channel levels computed by a program. Value
// outputs take channel zero; rgb and pixel outputs take all three.
// Returns true when any live value changed.
func (o *OutputDescriptor) ApplyLevels(vals [3]uint8) bool {
	if o.Type == lumen.OutputValue {
		return o.SetValue(uint16(vals[0]))
	}
	if o.Values == vals {
		return false
	}
	o.Values = vals
	return true
}

// Config returns the wire representation used in poll responses.
func (o *OutputDescriptor) Config() lumen.OutputConfig {
	return lumen.OutputConfig{
		OutputHeader: lumen.OutputHeader{Type: o.Type, Output: o.Index},
		Pin:          o.Pin,
		Value:        o.Value,
		Pins:         o.Pins,
		Values:       o.Values,
		ClockPin:     o.ClockPin,
		DataPin:      o.DataPin,
		NumPixels:    o.NumPixels,
		RGBType:      o.RGBType,
	}
}

// wireSize returns the encoded size of this output's config entry.
func (o *OutputDescriptor) wireSize() int {
	switch o.Type {
	case lumen.OutputValue:
		return lumen.OutputHdrLen + 3
	case lumen.OutputRGB:
		return lumen.OutputHdrLen + 6
	case lumen.OutputPixels:
		return lumen.OutputHdrLen + 5
	default:
		return lumen.OutputHdrLen
	}
}
