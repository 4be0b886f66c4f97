// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package lumen

import (
	"encoding/binary"
	"fmt"
)

// Encode serializes a Message to wire format, filling in the length and
// CRC fields. Encoding only fails for messages that cannot be represented
// on the wire (oversized, or carrying an unknown payload type); callers
// must separately check the destination transport's capacity before
// sending.
func Encode(m *Message) ([]byte, error) {
	body, err := encodePayload(m.Payload)
	if err != nil {
		return nil, err
	}

	total := HeaderLen + len(body)
	if total > MaxMessageSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLarge, total, MaxMessageSize)
	}
	if total > 0xFF {
		return nil, fmt.Errorf("%w: %d bytes exceeds length field", ErrMessageTooLarge, total)
	}

	frame := make([]byte, HeaderLen, total)
	frame[0] = StartCode
	frame[1] = 0 // CRC filled in below
	frame[2] = ProtocolVersion
	frame[3] = uint8(total)
	frame[4] = m.Header.Type
	frame[5] = m.Header.Flags
	binary.LittleEndian.PutUint16(frame[6:8], m.Header.Dest)
	frame = append(frame, body...)

	frame[1] = messageCRC(frame)
	return frame, nil
}

// MustEncode encodes a message built by this package's constructors.
// Panics on encoding error.
func MustEncode(m *Message) []byte {
	frame, err := Encode(m)
	if err != nil {
		panic(fmt.Sprintf("lumen: encode error: %v", err))
	}
	return frame
}

func encodePayload(p Payload) ([]byte, error) {
	switch v := p.(type) {
	case nil:
		return nil, nil

	case Poll:
		return nil, nil

	case DumpConfig:
		return nil, nil

	case SetValue:
		body := make([]byte, ValuePayloadLen)
		body[0], body[1] = v.Type, v.Output
		binary.LittleEndian.PutUint16(body[2:4], v.Value)
		return body, nil

	case SetRGB:
		body := make([]byte, 0, RGBPayloadLen)
		body = append(body, v.Type, v.Output)
		return append(body, v.Values[0], v.Values[1], v.Values[2]), nil

	case SetPixels:
		body := make([]byte, 0, PixelsPayloadLen)
		body = append(body, v.Type, v.Output)
		return append(body, v.Values[0], v.Values[1], v.Values[2]), nil

	case ProgramConfig:
		body := make([]byte, 0, ProgramPayloadLen)
		body = append(body, v.Type, v.Output, v.Program)
		return append(body, v.Data[:]...), nil

	case SetAddress:
		body := make([]byte, SetAddressPayloadLen)
		binary.LittleEndian.PutUint16(body[0:2], v.DeviceID)
		binary.LittleEndian.PutUint16(body[2:4], v.NewAddress)
		return body, nil

	case PollResponse:
		return encodePollResponse(v)

	case SensorData:
		var body []byte
		for _, r := range v.Readings {
			if len(r.Data) > 0xFF {
				return nil, fmt.Errorf("%w: sensor reading data %d bytes", ErrMessageTooLarge, len(r.Data))
			}
			body = append(body, r.SensorType, uint8(len(r.Data)))
			body = append(body, r.Data...)
		}
		return body, nil

	case ConfigDump:
		return v.Raw, nil

	default:
		return nil, fmt.Errorf("%w: payload %T", ErrUnknownType, p)
	}
}

func encodePollResponse(v PollResponse) ([]byte, error) {
	body := make([]byte, PollResponseMinLen)
	body[0] = v.Config.Magic
	body[1] = v.Config.ProtocolVersion
	body[2] = v.Config.HardwareVersion
	body[3] = v.Config.Baud
	body[4] = v.Config.NumOutputs
	body[5] = v.Config.Flags
	binary.LittleEndian.PutUint16(body[6:8], v.Config.DeviceID)
	binary.LittleEndian.PutUint16(body[8:10], v.Config.Address)
	body[ConfigHdrLen] = v.ObjectType
	binary.LittleEndian.PutUint16(body[ConfigHdrLen+1:ConfigHdrLen+3], v.BufferSize)
	body[ConfigHdrLen+3] = v.MsgVersion

	for _, oc := range v.Outputs {
		enc, err := encodeOutputConfig(oc)
		if err != nil {
			return nil, err
		}
		body = append(body, enc...)
	}
	return body, nil
}

func encodeOutputConfig(oc OutputConfig) ([]byte, error) {
	switch oc.Type {
	case OutputValue:
		enc := make([]byte, OutputHdrLen+3)
		enc[0], enc[1] = oc.Type, oc.Output
		enc[2] = oc.Pin
		binary.LittleEndian.PutUint16(enc[3:5], oc.Value)
		return enc, nil

	case OutputRGB:
		enc := make([]byte, 0, OutputHdrLen+6)
		enc = append(enc, oc.Type, oc.Output)
		enc = append(enc, oc.Pins[:]...)
		return append(enc, oc.Values[:]...), nil

	case OutputPixels:
		enc := make([]byte, OutputHdrLen+5)
		enc[0], enc[1] = oc.Type, oc.Output
		enc[2] = oc.ClockPin
		enc[3] = oc.DataPin
		binary.LittleEndian.PutUint16(enc[4:6], oc.NumPixels)
		enc[6] = oc.RGBType
		return enc, nil

	default:
		return nil, fmt.Errorf("%w: output config type 0x%02X", ErrUnknownType, oc.Type)
	}
}
