// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package lumen

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// FormatMessage formats a decoded message into a human-readable string for
// the monitor and poll tools.
func FormatMessage(m *Message) string {
	result := fmt.Sprintf("%s (0x%02X) dest=%s flags=%s len=%d\n",
		FormatMessageType(m.Header.Type), m.Header.Type,
		formatAddress(m.Header.Dest), FormatFlags(m.Header.Flags), m.Header.Length)
	result += formatPayload(m.Payload)
	return result
}

// FormatMessageType returns the human-readable name for a message type.
func FormatMessageType(msgType uint8) string {
	switch msgType {
	case MsgTypeOutput:
		return "OUTPUT"
	case MsgTypePoll:
		return "POLL"
	case MsgTypeSetAddress:
		return "SET_ADDR"
	case MsgTypeSensor:
		return "SENSOR"
	case MsgTypeDumpConfig:
		return "DUMP_CONFIG"
	default:
		return "UNKNOWN"
	}
}

// FormatOutputType returns the human-readable name for an output sub-type.
func FormatOutputType(outputType uint8) string {
	switch outputType {
	case OutputValue:
		return "VALUE"
	case OutputRGB:
		return "RGB"
	case OutputProgram:
		return "PROGRAM"
	case OutputPixels:
		return "PIXELS"
	default:
		return "UNKNOWN"
	}
}

// FormatProgramType returns the human-readable name for a program type.
func FormatProgramType(program uint8) string {
	switch program {
	case ProgramNone:
		return "NONE"
	case ProgramBlink:
		return "BLINK"
	case ProgramTimedChange:
		return "TIMED_CHANGE"
	case ProgramLevelValue:
		return "LEVEL_VALUE"
	case ProgramSoundValue:
		return "SOUND_VALUE"
	case ProgramFade:
		return "FADE"
	case ProgramGeneric:
		return "GENERIC"
	case ProgramSensorData:
		return "SENSOR_DATA"
	default:
		return "UNKNOWN"
	}
}

// FormatFlags renders the flag byte as a pipe-separated list.
func FormatFlags(flags uint8) string {
	if flags == 0 {
		return "0"
	}
	names := []struct {
		bit  uint8
		name string
	}{
		{FlagAck, "ACK"},
		{FlagResponse, "RESPONSE"},
		{FlagMoreData, "MORE_DATA"},
		{FlagError, "ERROR"},
	}
	parts := []string{}
	for _, n := range names {
		if flags&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("0x%02X", flags)
	}
	return strings.Join(parts, "|")
}

func formatAddress(addr uint16) string {
	switch addr {
	case AddressBroadcast:
		return "BROADCAST"
	case AddressInvalid:
		return "INVALID"
	default:
		return fmt.Sprintf("%d", addr)
	}
}

func formatPayload(p Payload) string {
	switch v := p.(type) {
	case nil:
		return ""

	case Poll:
		return "  (poll request)\n"

	case DumpConfig:
		return "  (dump request)\n"

	case SetValue:
		return fmt.Sprintf("  Output %d: value=%d\n", v.Output, v.Value)

	case SetRGB:
		return fmt.Sprintf("  Output %d: rgb=(%d,%d,%d)\n", v.Output, v.Values[0], v.Values[1], v.Values[2])

	case SetPixels:
		return fmt.Sprintf("  Output %d: pixels=(%d,%d,%d)\n", v.Output, v.Values[0], v.Values[1], v.Values[2])

	case ProgramConfig:
		return formatProgramConfig(v)

	case SetAddress:
		return fmt.Sprintf("  Device: %d, New address: %d\n", v.DeviceID, v.NewAddress)

	case PollResponse:
		result := fmt.Sprintf("  Device %d addr=%d proto=%d hw=%d outputs=%d type=%d buffer=%d\n",
			v.Config.DeviceID, v.Config.Address, v.Config.ProtocolVersion,
			v.Config.HardwareVersion, v.Config.NumOutputs, v.ObjectType, v.BufferSize)
		for _, oc := range v.Outputs {
			result += "    " + formatOutputConfig(oc)
		}
		return result

	case SensorData:
		result := ""
		for _, r := range v.Readings {
			result += fmt.Sprintf("  Sensor %s: value=%d (%d bytes)\n", formatSensorType(r.SensorType), r.Value(), len(r.Data))
		}
		return result

	case ConfigDump:
		return fmt.Sprintf("  Config dump: %d bytes CBOR\n", len(v.Raw))

	default:
		return fmt.Sprintf("  Payload: %#v\n", p)
	}
}

func formatProgramConfig(v ProgramConfig) string {
	result := fmt.Sprintf("  Output %d: program=%s (0x%02X)", v.Output, FormatProgramType(v.Program), v.Program)

	switch v.Program {
	case ProgramBlink:
		onPeriod := binary.LittleEndian.Uint16(v.Data[0:2])
		offPeriod := binary.LittleEndian.Uint16(v.Data[5:7])
		result += fmt.Sprintf(" on=%dms(%d,%d,%d) off=%dms(%d,%d,%d)",
			onPeriod, v.Data[2], v.Data[3], v.Data[4],
			offPeriod, v.Data[7], v.Data[8], v.Data[9])

	case ProgramTimedChange, ProgramFade:
		period := binary.LittleEndian.Uint32(v.Data[0:4])
		result += fmt.Sprintf(" period=%dms start=(%d,%d,%d) stop=(%d,%d,%d)",
			period, v.Data[4], v.Data[5], v.Data[6],
			v.Data[7], v.Data[8], v.Data[9])
	}

	return result + "\n"
}

func formatOutputConfig(oc OutputConfig) string {
	switch oc.Type {
	case OutputValue:
		return fmt.Sprintf("value output %d: pin=%d value=%d\n", oc.Output, oc.Pin, oc.Value)
	case OutputRGB:
		return fmt.Sprintf("rgb output %d: pins=(%d,%d,%d) values=(%d,%d,%d)\n", oc.Output,
			oc.Pins[0], oc.Pins[1], oc.Pins[2], oc.Values[0], oc.Values[1], oc.Values[2])
	case OutputPixels:
		return fmt.Sprintf("pixels output %d: clock=%d data=%d count=%d rgbtype=%d\n", oc.Output,
			oc.ClockPin, oc.DataPin, oc.NumPixels, oc.RGBType)
	default:
		return fmt.Sprintf("output %d: type=0x%02X\n", oc.Output, oc.Type)
	}
}

func formatSensorType(sensorType uint8) string {
	switch sensorType {
	case SensorTypeLight:
		return "LIGHT"
	case SensorTypeSound:
		return "SOUND"
	case SensorTypeCapacitive:
		return "CAPACITIVE"
	default:
		return fmt.Sprintf("0x%02X", sensorType)
	}
}
