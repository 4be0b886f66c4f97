// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lumenworks/lumenbus/pkg/lumen"
)

// Config is the node identity descriptor, loaded once at boot. It is
// read-only to the core; only the effective address changes at runtime,
// and that lives on the dispatcher, not here.
type Config struct {
	Address    uint16 `toml:"address"`
	DeviceID   uint16 `toml:"device_id"`
	ObjectType uint8  `toml:"object_type"`

	SerialPort string   `toml:"serial_port"`
	Baud       int      `toml:"baud"`
	BusPorts   []string `toml:"bus_ports"`

	Tick duration `toml:"tick"`

	Outputs []OutputConfig `toml:"output"`
}

// OutputConfig is one output's static wiring as written in the config
// file.
type OutputConfig struct {
	Type      string  `toml:"type"` // "value", "rgb" or "pixels"
	Pin       uint8   `toml:"pin"`
	Pins      []uint8 `toml:"pins"`
	ClockPin  uint8   `toml:"clock_pin"`
	DataPin   uint8   `toml:"data_pin"`
	NumPixels uint16  `toml:"num_pixels"`
	RGBType   uint8   `toml:"rgb_type"`
}

// duration lets tick periods be written as "50ms" in TOML.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

const (
	defaultBaud = 115200
	defaultTick = 50 * time.Millisecond
)

// LoadConfig reads and validates a node configuration file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks identity and wiring, and fills defaults for baud rate
// and tick period.
func (c *Config) Validate() error {
	switch c.Address {
	case lumen.AddressBroadcast, lumen.AddressInvalid:
		return fmt.Errorf("address 0x%04X is reserved", c.Address)
	}
	if len(c.Outputs) == 0 {
		return fmt.Errorf("at least one output is required")
	}
	for i, oc := range c.Outputs {
		switch oc.Type {
		case "value", "pixels":
		case "rgb":
			if len(oc.Pins) != 3 {
				return fmt.Errorf("output %d: rgb needs 3 pins, have %d", i, len(oc.Pins))
			}
		default:
			return fmt.Errorf("output %d: unknown type %q", i, oc.Type)
		}
	}
	if c.Baud == 0 {
		c.Baud = defaultBaud
	}
	if c.Tick.Duration == 0 {
		c.Tick.Duration = defaultTick
	}
	return nil
}

// Descriptors builds the runtime output descriptors from the wiring
// config.
func (c *Config) Descriptors() []*OutputDescriptor {
	outs := make([]*OutputDescriptor, len(c.Outputs))
	for i, oc := range c.Outputs {
		out := &OutputDescriptor{Index: uint8(i)}
		switch oc.Type {
		case "value":
			out.Type = lumen.OutputValue
			out.Pin = oc.Pin
		case "rgb":
			out.Type = lumen.OutputRGB
			copy(out.Pins[:], oc.Pins)
		case "pixels":
			out.Type = lumen.OutputPixels
			out.ClockPin = oc.ClockPin
			out.DataPin = oc.DataPin
			out.NumPixels = oc.NumPixels
			out.RGBType = oc.RGBType
		}
		outs[i] = out
	}
	return outs
}
