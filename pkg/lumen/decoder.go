// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package lumen

import (
	"encoding/binary"
	"fmt"
)

// Decode parses a complete wire frame into a typed Message.
//
// Errors report the first problem found: ErrMalformedHeader for framing or
// length inconsistencies, ErrVersionMismatch for an unsupported protocol
// version, ErrUnknownType for an unregistered message type, and
// ErrTruncatedPayload when the declared type needs more bytes than the
// frame carries.
func Decode(data []byte) (*Message, error) {
	if len(data) < HeaderLen {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedHeader, len(data), HeaderLen)
	}
	if data[0] != StartCode {
		return nil, fmt.Errorf("%w: bad start code 0x%02X", ErrMalformedHeader, data[0])
	}

	hdr := Header{
		CRC:     data[1],
		Version: data[2],
		Length:  data[3],
		Type:    data[4],
		Flags:   data[5],
		Dest:    binary.LittleEndian.Uint16(data[6:8]),
	}

	if hdr.Version != ProtocolVersion {
		return nil, fmt.Errorf("%w: got %d, support %d", ErrVersionMismatch, hdr.Version, ProtocolVersion)
	}
	if int(hdr.Length) != len(data) {
		return nil, fmt.Errorf("%w: declared length %d, frame is %d bytes", ErrMalformedHeader, hdr.Length, len(data))
	}
	// A zero CRC means the sender did not fill it in; legacy host tools
	// rely on the transport checksum alone.
	if hdr.CRC != 0 {
		if want := messageCRC(data); hdr.CRC != want {
			return nil, fmt.Errorf("%w: CRC 0x%02X, computed 0x%02X", ErrMalformedHeader, hdr.CRC, want)
		}
	}

	payload, err := decodePayload(hdr, data[HeaderLen:])
	if err != nil {
		return nil, err
	}
	return &Message{Header: hdr, Payload: payload}, nil
}

func decodePayload(hdr Header, body []byte) (Payload, error) {
	switch hdr.Type {
	case MsgTypeOutput:
		return decodeOutput(body)

	case MsgTypePoll:
		if len(body) == 0 {
			return Poll{}, nil
		}
		return decodePollResponse(body)

	case MsgTypeSetAddress:
		if len(body) < SetAddressPayloadLen {
			return nil, fmt.Errorf("%w: set-address needs %d bytes, have %d", ErrTruncatedPayload, SetAddressPayloadLen, len(body))
		}
		return SetAddress{
			DeviceID:   binary.LittleEndian.Uint16(body[0:2]),
			NewAddress: binary.LittleEndian.Uint16(body[2:4]),
		}, nil

	case MsgTypeSensor:
		return decodeSensorData(body)

	case MsgTypeDumpConfig:
		if len(body) == 0 {
			return DumpConfig{}, nil
		}
		raw := make([]byte, len(body))
		copy(raw, body)
		return ConfigDump{Raw: raw}, nil

	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownType, hdr.Type)
	}
}

func decodeOutput(body []byte) (Payload, error) {
	if len(body) < OutputHdrLen {
		return nil, fmt.Errorf("%w: output header needs %d bytes, have %d", ErrTruncatedPayload, OutputHdrLen, len(body))
	}
	oh := OutputHeader{Type: body[0], Output: body[1]}
	rest := body[OutputHdrLen:]

	switch oh.Type {
	case OutputValue:
		if len(rest) < 2 {
			return nil, fmt.Errorf("%w: value payload", ErrTruncatedPayload)
		}
		return SetValue{OutputHeader: oh, Value: binary.LittleEndian.Uint16(rest[0:2])}, nil

	case OutputRGB:
		if len(rest) < 3 {
			return nil, fmt.Errorf("%w: rgb payload", ErrTruncatedPayload)
		}
		return SetRGB{OutputHeader: oh, Values: [3]uint8{rest[0], rest[1], rest[2]}}, nil

	case OutputPixels:
		if len(rest) < 3 {
			return nil, fmt.Errorf("%w: pixels payload", ErrTruncatedPayload)
		}
		return SetPixels{OutputHeader: oh, Values: [3]uint8{rest[0], rest[1], rest[2]}}, nil

	case OutputProgram:
		if len(rest) < 1+ProgramDataLen {
			return nil, fmt.Errorf("%w: program payload needs %d bytes, have %d", ErrTruncatedPayload, 1+ProgramDataLen, len(rest))
		}
		cfg := ProgramConfig{OutputHeader: oh, Program: rest[0]}
		copy(cfg.Data[:], rest[1:1+ProgramDataLen])
		return cfg, nil

	default:
		return nil, fmt.Errorf("%w: output sub-type 0x%02X", ErrUnknownType, oh.Type)
	}
}

func decodePollResponse(body []byte) (Payload, error) {
	if len(body) < PollResponseMinLen {
		return nil, fmt.Errorf("%w: poll response needs %d bytes, have %d", ErrTruncatedPayload, PollResponseMinLen, len(body))
	}
	if body[0] != ConfigMagic {
		return nil, fmt.Errorf("%w: bad config magic 0x%02X", ErrMalformedHeader, body[0])
	}

	resp := PollResponse{
		Config: ConfigHeader{
			Magic:           body[0],
			ProtocolVersion: body[1],
			HardwareVersion: body[2],
			Baud:            body[3],
			NumOutputs:      body[4],
			Flags:           body[5],
			DeviceID:        binary.LittleEndian.Uint16(body[6:8]),
			Address:         binary.LittleEndian.Uint16(body[8:10]),
		},
		ObjectType: body[ConfigHdrLen],
		BufferSize: binary.LittleEndian.Uint16(body[ConfigHdrLen+1 : ConfigHdrLen+3]),
		MsgVersion: body[ConfigHdrLen+3],
	}

	rest := body[PollResponseMinLen:]
	for len(rest) > 0 {
		oc, n, err := decodeOutputConfig(rest)
		if err != nil {
			return nil, err
		}
		resp.Outputs = append(resp.Outputs, oc)
		rest = rest[n:]
	}
	return resp, nil
}

func decodeOutputConfig(data []byte) (OutputConfig, int, error) {
	if len(data) < OutputHdrLen {
		return OutputConfig{}, 0, fmt.Errorf("%w: output config header", ErrTruncatedPayload)
	}
	oc := OutputConfig{OutputHeader: OutputHeader{Type: data[0], Output: data[1]}}
	rest := data[OutputHdrLen:]

	switch oc.Type {
	case OutputValue:
		if len(rest) < 3 {
			return OutputConfig{}, 0, fmt.Errorf("%w: value config", ErrTruncatedPayload)
		}
		oc.Pin = rest[0]
		oc.Value = binary.LittleEndian.Uint16(rest[1:3])
		return oc, OutputHdrLen + 3, nil

	case OutputRGB:
		if len(rest) < 6 {
			return OutputConfig{}, 0, fmt.Errorf("%w: rgb config", ErrTruncatedPayload)
		}
		copy(oc.Pins[:], rest[0:3])
		copy(oc.Values[:], rest[3:6])
		return oc, OutputHdrLen + 6, nil

	case OutputPixels:
		if len(rest) < 5 {
			return OutputConfig{}, 0, fmt.Errorf("%w: pixels config", ErrTruncatedPayload)
		}
		oc.ClockPin = rest[0]
		oc.DataPin = rest[1]
		oc.NumPixels = binary.LittleEndian.Uint16(rest[2:4])
		oc.RGBType = rest[4]
		return oc, OutputHdrLen + 5, nil

	default:
		return OutputConfig{}, 0, fmt.Errorf("%w: output config type 0x%02X", ErrUnknownType, oc.Type)
	}
}

func decodeSensorData(body []byte) (Payload, error) {
	var sd SensorData
	for len(body) > 0 {
		if len(body) < 2 {
			return nil, fmt.Errorf("%w: sensor reading header", ErrTruncatedPayload)
		}
		r := SensorReading{SensorType: body[0]}
		dataLen := int(body[1])
		if len(body) < 2+dataLen {
			return nil, fmt.Errorf("%w: sensor reading declares %d data bytes, %d remain", ErrTruncatedPayload, dataLen, len(body)-2)
		}
		r.Data = make([]byte, dataLen)
		copy(r.Data, body[2:2+dataLen])
		sd.Readings = append(sd.Readings, r)
		body = body[2+dataLen:]
	}
	return sd, nil
}

// Accumulator reassembles whole frames from a non-blocking byte stream.
// Bytes before a start code are discarded; once a start code is seen the
// header's declared length decides when the frame is complete.
type Accumulator struct {
	buf     []byte
	skipped int
}

// NewAccumulator creates a frame accumulator for a byte stream.
func NewAccumulator() *Accumulator {
	return &Accumulator{buf: make([]byte, 0, MaxMessageSize)}
}

// Reset drops any partial frame.
func (a *Accumulator) Reset() {
	a.buf = a.buf[:0]
}

// Skipped returns the count of bytes discarded while hunting for a start
// code since the last complete frame.
func (a *Accumulator) Skipped() int {
	return a.skipped
}

// Feed consumes one byte. It returns a complete frame once the declared
// length has been accumulated, or nil while a frame is still in progress.
// A declared length that cannot be a valid message resynchronizes the
// stream and reports the error.
func (a *Accumulator) Feed(b byte) ([]byte, error) {
	if len(a.buf) == 0 {
		if b != StartCode {
			a.skipped++
			return nil, nil
		}
		a.buf = append(a.buf, b)
		return nil, nil
	}

	a.buf = append(a.buf, b)
	if len(a.buf) < HeaderLen {
		return nil, nil
	}

	length := int(a.buf[3])
	if length < HeaderLen || length > MaxMessageSize {
		a.Reset()
		return nil, fmt.Errorf("%w: declared length %d", ErrMalformedHeader, length)
	}
	if len(a.buf) < length {
		return nil, nil
	}

	frame := make([]byte, length)
	copy(frame, a.buf)
	a.Reset()
	a.skipped = 0
	return frame, nil
}
