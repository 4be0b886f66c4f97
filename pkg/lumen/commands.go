// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package lumen

import "encoding/binary"

// Message constructors used by host tooling and by nodes building
// responses. These guarantee the payload layouts each program's setup
// expects to find in its parameter block.

// NewValueMessage creates an OUTPUT/VALUE message setting a single-channel
// output level directly.
func NewValueMessage(dest uint16, output uint8, value uint16) *Message {
	return &Message{
		Header:  Header{Type: MsgTypeOutput, Dest: dest},
		Payload: SetValue{OutputHeader: OutputHeader{Type: OutputValue, Output: output}, Value: value},
	}
}

// NewRGBMessage creates an OUTPUT/RGB message setting a three-channel
// output directly.
func NewRGBMessage(dest uint16, output uint8, r, g, b uint8) *Message {
	return &Message{
		Header:  Header{Type: MsgTypeOutput, Dest: dest},
		Payload: SetRGB{OutputHeader: OutputHeader{Type: OutputRGB, Output: output}, Values: [3]uint8{r, g, b}},
	}
}

// NewProgramMessage creates an OUTPUT/PROGRAM message with a raw parameter
// block. Prefer the typed program constructors below.
func NewProgramMessage(dest uint16, output uint8, program uint8, data [ProgramDataLen]uint8) *Message {
	return &Message{
		Header: Header{Type: MsgTypeOutput, Dest: dest},
		Payload: ProgramConfig{
			OutputHeader: OutputHeader{Type: OutputProgram, Output: output},
			Program:      program,
			Data:         data,
		},
	}
}

// NewProgramNoneMessage clears any active program on an output.
func NewProgramNoneMessage(dest uint16, output uint8) *Message {
	return NewProgramMessage(dest, output, ProgramNone, [ProgramDataLen]uint8{})
}

// NewBlinkMessage assigns the blink program: alternate between the on and
// off values with the given periods (milliseconds).
func NewBlinkMessage(dest uint16, output uint8, onPeriod uint16, on [3]uint8, offPeriod uint16, off [3]uint8) *Message {
	var data [ProgramDataLen]uint8
	binary.LittleEndian.PutUint16(data[0:2], onPeriod)
	copy(data[2:5], on[:])
	binary.LittleEndian.PutUint16(data[5:7], offPeriod)
	copy(data[7:10], off[:])
	return NewProgramMessage(dest, output, ProgramBlink, data)
}

// NewTimedChangeMessage assigns the timed-change program: show the start
// values immediately, switch to the stop values after the change period
// (milliseconds), then finish.
func NewTimedChangeMessage(dest uint16, output uint8, changePeriod uint32, start, stop [3]uint8) *Message {
	var data [ProgramDataLen]uint8
	binary.LittleEndian.PutUint32(data[0:4], changePeriod)
	copy(data[4:7], start[:])
	copy(data[7:10], stop[:])
	return NewProgramMessage(dest, output, ProgramTimedChange, data)
}

// NewFadeMessage assigns the fade program: interpolate from the start to
// the stop values over the change period (milliseconds). FadeFlagCycle
// restarts the fade from the beginning when it completes.
func NewFadeMessage(dest uint16, output uint8, changePeriod uint32, start, stop [3]uint8, flags uint8) *Message {
	var data [ProgramDataLen]uint8
	binary.LittleEndian.PutUint32(data[0:4], changePeriod)
	copy(data[4:7], start[:])
	copy(data[7:10], stop[:])
	data[10] = flags
	return NewProgramMessage(dest, output, ProgramFade, data)
}

// NewLevelValueMessage assigns the light-level follower program.
func NewLevelValueMessage(dest uint16, output uint8) *Message {
	return NewProgramMessage(dest, output, ProgramLevelValue, [ProgramDataLen]uint8{})
}

// NewSoundValueMessage assigns the sound-level follower program.
func NewSoundValueMessage(dest uint16, output uint8) *Message {
	return NewProgramMessage(dest, output, ProgramSoundValue, [ProgramDataLen]uint8{})
}

// NewPollRequest creates a POLL request. Nodes answer with a PollResponse
// carrying FlagResponse; broadcast polls are answered after an
// address-proportional backoff.
func NewPollRequest(dest uint16) *Message {
	return &Message{
		Header:  Header{Type: MsgTypePoll, Flags: FlagResponse, Dest: dest},
		Payload: Poll{},
	}
}

// NewSetAddressMessage changes the effective address of the node whose
// device identifier matches, or of every node when deviceID is zero.
func NewSetAddressMessage(dest uint16, deviceID uint16, newAddress uint16) *Message {
	return &Message{
		Header:  Header{Type: MsgTypeSetAddress, Dest: dest},
		Payload: SetAddress{DeviceID: deviceID, NewAddress: newAddress},
	}
}

// NewSensorMessage creates a SENSOR broadcast carrying a batch of
// readings. The ACK flag marks it as sensor data (as opposed to a sensor
// configuration request).
func NewSensorMessage(dest uint16, readings ...SensorReading) *Message {
	return &Message{
		Header:  Header{Type: MsgTypeSensor, Flags: FlagAck, Dest: dest},
		Payload: SensorData{Readings: readings},
	}
}

// NewDumpConfigRequest asks a node for its full CBOR-encoded
// configuration.
func NewDumpConfigRequest(dest uint16) *Message {
	return &Message{
		Header:  Header{Type: MsgTypeDumpConfig, Flags: FlagResponse, Dest: dest},
		Payload: DumpConfig{},
	}
}
