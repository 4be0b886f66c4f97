// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

// Package lumen implements the Lumen wire protocol spoken by addressable
// lighting/sensor nodes on a shared RS-485 bus and by the serial bridge to
// a host.
//
// Every message starts with a fixed 8-byte header followed by a typed
// payload whose layout is fully determined by the message type. All
// multi-byte fields are little-endian. Byte-level framing and line-level
// CRC are the transport's job; the header carries its own CRC-8 as an
// end-to-end check that survives bus-to-serial relaying.
package lumen

// Header framing
const (
	StartCode       = 0xFC
	ProtocolVersion = 2
	HeaderLen       = 8

	// MaxMessageSize matches the smallest receive buffer deployed on the
	// bus; the dispatcher refuses to relay anything larger.
	MaxMessageSize = 128
)

// Reserved addresses
const (
	AddressBroadcast uint16 = 0xFFFF // all nodes
	AddressInvalid   uint16 = 0xFFFE // unassigned/unconfigured node
)

// Message types
const (
	MsgTypeOutput     = 0x01
	MsgTypePoll       = 0x02
	MsgTypeSetAddress = 0x03
	MsgTypeSensor     = 0x04
	MsgTypeDumpConfig = 0xE0
)

// Header flags
const (
	FlagAck      = 1 << 0
	FlagResponse = 1 << 1
	FlagMoreData = 1 << 2
	FlagError    = 1 << 3
)

// Output sub-types, shared by OUTPUT messages and output descriptors
const (
	OutputValue   = 0x01
	OutputRGB     = 0x02
	OutputProgram = 0x03
	OutputPixels  = 0x04
)

// Program types carried in OUTPUT/PROGRAM messages
const (
	ProgramNone        = 0x00 // reserved: clears any active program
	ProgramBlink       = 0x01
	ProgramTimedChange = 0x02
	ProgramLevelValue  = 0x03
	ProgramSoundValue  = 0x04
	ProgramFade        = 0x05
	ProgramGeneric     = 0x06

	// ProgramSensorData is registry-only: it is invoked for each inbound
	// sensor reading and never assigned to an output.
	ProgramSensorData = 0xFE
)

// ProgramDataLen is the fixed size of the opaque parameter block in a
// program configuration message. Each program parses its own parameters
// out of these bytes during setup.
const ProgramDataLen = 12

// Sensor reading types
const (
	SensorTypeLight      = 0x01
	SensorTypeSound      = 0x02
	SensorTypeCapacitive = 0x03
)

// Fade program flags
const (
	FadeFlagCycle = 1 << 0 // restart from the start values when done
)

// Payload sizes (excluding the message header)
const (
	OutputHdrLen         = 2
	ValuePayloadLen      = OutputHdrLen + 2
	RGBPayloadLen        = OutputHdrLen + 3
	PixelsPayloadLen     = OutputHdrLen + 3
	ProgramPayloadLen    = OutputHdrLen + 1 + ProgramDataLen
	SetAddressPayloadLen = 4
	ConfigHdrLen         = 10
	PollResponseMinLen   = ConfigHdrLen + 4
)

// ConfigMagic marks the start of a node configuration header inside poll
// responses. Must match the value burned into every node's stored config.
const ConfigMagic = 0x5C
