// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lumenworks/lumenbus/pkg/lumen"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Full(t *testing.T) {
	path := writeConfig(t, `
address = 3
device_id = 12
object_type = 1
serial_port = "/dev/ttyUSB0"
baud = 57600
bus_ports = ["/dev/ttyS1", "/dev/ttyS2"]
tick = "25ms"

[[output]]
type = "value"
pin = 9

[[output]]
type = "rgb"
pins = [3, 5, 6]

[[output]]
type = "pixels"
clock_pin = 13
data_pin = 12
num_pixels = 50
rgb_type = 1
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Address != 3 || cfg.DeviceID != 12 || cfg.ObjectType != 1 {
		t.Errorf("identity: %+v", cfg)
	}
	if cfg.Baud != 57600 {
		t.Errorf("baud = %d", cfg.Baud)
	}
	if len(cfg.BusPorts) != 2 {
		t.Errorf("bus ports: %v", cfg.BusPorts)
	}
	if cfg.Tick.Duration != 25*time.Millisecond {
		t.Errorf("tick = %v", cfg.Tick.Duration)
	}

	outs := cfg.Descriptors()
	if len(outs) != 3 {
		t.Fatalf("%d descriptors", len(outs))
	}
	if outs[0].Type != lumen.OutputValue || outs[0].Pin != 9 {
		t.Errorf("output 0: %+v", outs[0])
	}
	if outs[1].Type != lumen.OutputRGB || outs[1].Pins != [3]uint8{3, 5, 6} {
		t.Errorf("output 1: %+v", outs[1])
	}
	if outs[2].Type != lumen.OutputPixels || outs[2].NumPixels != 50 {
		t.Errorf("output 2: %+v", outs[2])
	}
	if outs[2].Index != 2 {
		t.Errorf("output 2 index = %d", outs[2].Index)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
address = 3
device_id = 12

[[output]]
type = "value"
pin = 9
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Baud != defaultBaud {
		t.Errorf("default baud = %d, want %d", cfg.Baud, defaultBaud)
	}
	if cfg.Tick.Duration != defaultTick {
		t.Errorf("default tick = %v, want %v", cfg.Tick.Duration, defaultTick)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{
			name: "reserved broadcast address",
			contents: `
address = 0xFFFF
device_id = 12
[[output]]
type = "value"
pin = 9
`,
		},
		{
			name: "no outputs",
			contents: `
address = 3
device_id = 12
`,
		},
		{
			name: "rgb without three pins",
			contents: `
address = 3
device_id = 12
[[output]]
type = "rgb"
pins = [3, 5]
`,
		},
		{
			name: "unknown output type",
			contents: `
address = 3
device_id = 12
[[output]]
type = "servo"
`,
		},
		{
			name:     "unparseable file",
			contents: `address = [[`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.contents)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
