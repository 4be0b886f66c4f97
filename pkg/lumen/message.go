// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package lumen

import "fmt"

// Header is the fixed envelope at the start of every Lumen message.
// On the wire: start:u8, crc:u8, version:u8, length:u8, type:u8, flags:u8,
// dest:u16 (little-endian). Length covers the whole message including the
// header itself.
type Header struct {
	CRC     uint8
	Version uint8
	Length  uint8
	Type    uint8
	Flags   uint8
	Dest    uint16
}

// IsBroadcast returns true if the message is addressed to all nodes.
func (h Header) IsBroadcast() bool {
	return h.Dest == AddressBroadcast
}

// IsAck returns true if the ACK flag is set.
func (h Header) IsAck() bool {
	return h.Flags&FlagAck != 0
}

// Message is a decoded Lumen message: the envelope plus a typed payload.
// Payload is nil for header-only messages (poll requests, dump requests).
type Message struct {
	Header  Header
	Payload Payload
}

// Payload is implemented by every typed message payload. Decoding produces
// exactly one of the concrete types below; dispatchers switch on them
// exhaustively instead of walking raw bytes.
type Payload interface {
	payload()
}

// OutputHeader prefixes every OUTPUT payload and every output descriptor
// in a poll response: the output sub-type plus the output channel index.
type OutputHeader struct {
	Type   uint8
	Output uint8
}

// SetValue sets a single-channel output level directly.
type SetValue struct {
	OutputHeader
	Value uint16
}

// SetRGB sets a three-channel output directly.
type SetRGB struct {
	OutputHeader
	Values [3]uint8
}

// SetPixels sets a whole pixel strip to one color.
type SetPixels struct {
	OutputHeader
	Values [3]uint8
}

// ProgramConfig assigns an animation program to an output. Data is the
// opaque parameter block the program's setup parses for itself;
// Program == ProgramNone clears the output's active program.
type ProgramConfig struct {
	OutputHeader
	Program uint8
	Data    [ProgramDataLen]uint8
}

// Poll is a request for a node to self-describe. Header-only on the wire;
// responses carry a PollResponse payload with FlagResponse set.
type Poll struct{}

// ConfigHeader mirrors a node's stored configuration header, reported
// verbatim in poll responses.
type ConfigHeader struct {
	Magic           uint8
	ProtocolVersion uint8
	HardwareVersion uint8
	Baud            uint8
	NumOutputs      uint8
	Flags           uint8
	DeviceID        uint16
	Address         uint16
}

// OutputConfig describes one output's static wiring inside a poll response.
// Exactly one of the type-specific sections is meaningful, selected by
// OutputHeader.Type.
type OutputConfig struct {
	OutputHeader

	// OutputValue
	Pin   uint8
	Value uint16

	// OutputRGB
	Pins   [3]uint8
	Values [3]uint8

	// OutputPixels
	ClockPin  uint8
	DataPin   uint8
	NumPixels uint16
	RGBType   uint8
}

// PollResponse is a node's self-description: its configuration header,
// object type, declared receive buffer limit, and as many output
// descriptors as fit the requester's limit.
type PollResponse struct {
	Config     ConfigHeader
	ObjectType uint8
	BufferSize uint16
	MsgVersion uint8
	Outputs    []OutputConfig
}

// SetAddress changes a node's effective bus address. DeviceID zero is a
// wildcard matching every node; otherwise only the node with the matching
// configured device identifier applies the change.
type SetAddress struct {
	DeviceID   uint16
	NewAddress uint16
}

// SensorReading is one reading inside a SENSOR message.
type SensorReading struct {
	SensorType uint8
	Data       []byte
}

// Value returns the reading interpreted as a little-endian unsigned level.
// Readings shorter than two bytes widen; longer ones truncate.
func (r SensorReading) Value() uint16 {
	switch len(r.Data) {
	case 0:
		return 0
	case 1:
		return uint16(r.Data[0])
	default:
		return uint16(r.Data[0]) | uint16(r.Data[1])<<8
	}
}

// SensorData carries a batch of sensor readings. Broadcast with FlagAck by
// sensor nodes; every node on the bus may consume it.
type SensorData struct {
	Readings []SensorReading
}

// ConfigDump carries a node's full configuration, CBOR-encoded. The
// self-describing encoding sidesteps the fixed-layout truncation rules
// that apply to poll responses.
type ConfigDump struct {
	Raw []byte
}

// DumpConfig is a request for a ConfigDump. Header-only on the wire.
type DumpConfig struct{}

func (SetValue) payload()      {}
func (SetRGB) payload()        {}
func (SetPixels) payload()     {}
func (ProgramConfig) payload() {}
func (Poll) payload()          {}
func (PollResponse) payload()  {}
func (SetAddress) payload()    {}
func (SensorData) payload()    {}
func (ConfigDump) payload()    {}
func (DumpConfig) payload()    {}

func (m *Message) String() string {
	return fmt.Sprintf("lumen.Message{type=%s dest=0x%04X flags=0x%02X len=%d}",
		FormatMessageType(m.Header.Type), m.Header.Dest, m.Header.Flags, m.Header.Length)
}
