// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/lumenworks/lumenbus/pkg/lumen"
)

func countFrames(sent [][]byte, frame []byte) int {
	n := 0
	for _, f := range sent {
		if bytes.Equal(f, frame) {
			n++
		}
	}
	return n
}

func TestDispatcher_BroadcastRelayedOnceAndDispatched(t *testing.T) {
	r := newRig(3)

	frame := lumen.MustEncode(lumen.NewValueMessage(lumen.AddressBroadcast, 0, 42))
	r.disp.ProcessFrame(r.busA, frame)

	if countFrames(r.serial.sent, frame) != 1 {
		t.Errorf("serial got %d copies, want 1", countFrames(r.serial.sent, frame))
	}
	if countFrames(r.busB.sent, frame) != 1 {
		t.Errorf("busB got %d copies, want 1", countFrames(r.busB.sent, frame))
	}
	if len(r.busA.sent) != 0 {
		t.Errorf("frame echoed back to its source transport")
	}
	if r.outputs[0].Value != 42 {
		t.Errorf("broadcast not dispatched locally: value=%d", r.outputs[0].Value)
	}
}

func TestDispatcher_ForeignDestRelayedNotDispatched(t *testing.T) {
	r := newRig(3)

	frame := lumen.MustEncode(lumen.NewValueMessage(99, 0, 77))
	r.disp.ProcessFrame(r.busA, frame)

	if countFrames(r.serial.sent, frame) != 1 || countFrames(r.busB.sent, frame) != 1 {
		t.Error("foreign-destination frame not relayed to the other transports")
	}
	if r.outputs[0].Value != 0 {
		t.Errorf("foreign-destination frame dispatched locally: value=%d", r.outputs[0].Value)
	}
	if r.pool.Active() != 0 {
		t.Error("foreign-destination frame touched the tracker pool")
	}
}

func TestDispatcher_AckForwardedToSerialOnly(t *testing.T) {
	r := newRig(3)

	msg := lumen.NewValueMessage(99, 0, 5)
	msg.Header.Flags = lumen.FlagAck
	frame := lumen.MustEncode(msg)
	r.disp.ProcessFrame(r.busA, frame)

	if countFrames(r.serial.sent, frame) != 1 {
		t.Error("ack not echoed to the serial bridge")
	}
	if len(r.busB.sent) != 0 {
		t.Error("ack processing did not stop after the serial echo")
	}
	if r.outputs[0].Value != 0 {
		t.Error("foreign ack dispatched locally")
	}
}

func TestDispatcher_SerialOriginAckRelayedToBuses(t *testing.T) {
	r := newRig(3)

	// The serial bridge is the echo target, so an ack arriving there has
	// nowhere to be echoed; it must still reach the buses as ordinary
	// foreign traffic.
	msg := lumen.NewValueMessage(99, 0, 5)
	msg.Header.Flags = lumen.FlagAck
	frame := lumen.MustEncode(msg)
	r.disp.ProcessFrame(r.serial, frame)

	if countFrames(r.busA.sent, frame) != 1 {
		t.Errorf("busA got %d copies, want 1", countFrames(r.busA.sent, frame))
	}
	if countFrames(r.busB.sent, frame) != 1 {
		t.Errorf("busB got %d copies, want 1", countFrames(r.busB.sent, frame))
	}
	if len(r.serial.sent) != 0 {
		t.Error("ack echoed back to its source transport")
	}
	if r.outputs[0].Value != 0 {
		t.Error("foreign ack dispatched locally")
	}
}

func TestDispatcher_SensorAckExemptFromShortCircuit(t *testing.T) {
	r := newRig(3)

	// A sensor frame with the ack flag and a foreign unicast dest still
	// takes the normal relay path instead of the serial echo.
	msg := lumen.NewSensorMessage(99, lumen.SensorReading{
		SensorType: lumen.SensorTypeLight,
		Data:       []byte{0x20, 0x03},
	})
	frame := lumen.MustEncode(msg)
	r.disp.ProcessFrame(r.busA, frame)

	if countFrames(r.serial.sent, frame) != 1 || countFrames(r.busB.sent, frame) != 1 {
		t.Error("foreign sensor ack not relayed to all other transports")
	}
	if r.sensors.Light() != 0 {
		t.Error("foreign-destination sensor data consumed locally")
	}
}

func TestDispatcher_SensorBroadcastFeedsFollowers(t *testing.T) {
	r := newRig(3)

	frame := lumen.MustEncode(lumen.NewSensorMessage(lumen.AddressBroadcast,
		lumen.SensorReading{SensorType: lumen.SensorTypeLight, Data: []byte{0x20, 0x03}},
		lumen.SensorReading{SensorType: lumen.SensorTypeSound, Data: []byte{0x2C, 0x01}},
	))
	r.disp.ProcessFrame(r.busA, frame)

	if r.sensors.Light() != 800 {
		t.Errorf("light level = %d, want 800", r.sensors.Light())
	}
	if r.sensors.Sound() != 300 {
		t.Errorf("sound level = %d, want 300", r.sensors.Sound())
	}
}

func TestDispatcher_SetAddressScenario(t *testing.T) {
	r := newRig(3)

	// Wildcard device id retargets the node from 3 to 7.
	frame := lumen.MustEncode(lumen.NewSetAddressMessage(3, 0, 7))
	r.disp.ProcessFrame(r.serial, frame)

	if r.disp.Address() != 7 {
		t.Fatalf("address = %d, want 7", r.disp.Address())
	}
	if r.busA.SourceAddress() != 7 || r.serial.SourceAddress() != 7 {
		t.Error("transport source addresses not updated")
	}

	// A poll to the new address is answered.
	r.disp.ProcessFrame(r.serial, lumen.MustEncode(lumen.NewPollRequest(7)))
	if len(r.serial.sent) != 1 {
		t.Fatalf("poll to new address: %d responses, want 1", len(r.serial.sent))
	}

	// A poll to the old address is not. It is relayed to the buses as
	// foreign traffic, but produces no response.
	r.serial.sent = nil
	r.disp.ProcessFrame(r.serial, lumen.MustEncode(lumen.NewPollRequest(3)))
	if len(r.serial.sent) != 0 {
		t.Error("poll to the old address was answered")
	}
}

func TestDispatcher_SetAddressDeviceMismatchIgnored(t *testing.T) {
	r := newRig(3) // device id 12

	r.disp.ProcessFrame(r.serial, lumen.MustEncode(lumen.NewSetAddressMessage(3, 55, 9)))
	if r.disp.Address() != 3 {
		t.Errorf("address changed on device-id mismatch: %d", r.disp.Address())
	}

	r.disp.ProcessFrame(r.serial, lumen.MustEncode(lumen.NewSetAddressMessage(3, 12, 9)))
	if r.disp.Address() != 9 {
		t.Errorf("address = %d, want 9 after matching device id", r.disp.Address())
	}
}

func TestDispatcher_BroadcastPollBacksOffByAddress(t *testing.T) {
	for _, addr := range []uint16{1, 5, 30} {
		r := newRig(addr)
		r.disp.ProcessFrame(r.serial, lumen.MustEncode(lumen.NewPollRequest(lumen.AddressBroadcast)))

		want := time.Duration(addr) * defaultPollDelayUnit
		if len(r.clock.slept) != 1 || r.clock.slept[0] != want {
			t.Errorf("address %d: slept %v, want [%v]", addr, r.clock.slept, want)
		}
		if len(r.serial.sent) != 1 {
			t.Errorf("address %d: %d responses, want 1", addr, len(r.serial.sent))
		}
	}
}

func TestDispatcher_UnicastPollAnsweredImmediately(t *testing.T) {
	r := newRig(5)

	r.disp.ProcessFrame(r.busA, lumen.MustEncode(lumen.NewPollRequest(5)))
	if len(r.clock.slept) != 0 {
		t.Errorf("unicast poll slept %v", r.clock.slept)
	}
	if len(r.busA.sent) != 1 {
		t.Fatalf("%d responses on the arrival transport, want 1", len(r.busA.sent))
	}

	m, err := lumen.Decode(r.busA.sent[0])
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	resp, ok := m.Payload.(lumen.PollResponse)
	if !ok {
		t.Fatalf("response payload is %T", m.Payload)
	}
	if resp.Config.Address != 5 || resp.Config.DeviceID != 12 {
		t.Errorf("response identity: address=%d device=%d", resp.Config.Address, resp.Config.DeviceID)
	}
	if resp.Config.NumOutputs != 3 || len(resp.Outputs) != 3 {
		t.Errorf("response outputs: declared=%d listed=%d", resp.Config.NumOutputs, len(resp.Outputs))
	}
	if m.Header.Flags&lumen.FlagResponse == 0 {
		t.Error("response flag not set")
	}
}

func TestDispatcher_PollResponseTruncatedToCapacity(t *testing.T) {
	r := newRig(5)
	// Room for the response header and exactly one value descriptor.
	r.busA.capacity = lumen.HeaderLen + lumen.PollResponseMinLen + lumen.OutputHdrLen + 3

	r.disp.ProcessFrame(r.busA, lumen.MustEncode(lumen.NewPollRequest(5)))
	if len(r.busA.sent) != 1 {
		t.Fatalf("%d responses, want 1", len(r.busA.sent))
	}

	m, err := lumen.Decode(r.busA.sent[0])
	if err != nil {
		t.Fatalf("decode truncated response: %v", err)
	}
	resp := m.Payload.(lumen.PollResponse)
	if len(resp.Outputs) != 1 {
		t.Errorf("truncated response lists %d outputs, want 1", len(resp.Outputs))
	}
	// The declared output count still reflects the real hardware.
	if resp.Config.NumOutputs != 3 {
		t.Errorf("declared outputs = %d, want 3", resp.Config.NumOutputs)
	}
}

func TestDispatcher_OversizedRelayDropped(t *testing.T) {
	r := newRig(3)
	r.busB.capacity = 4

	frame := lumen.MustEncode(lumen.NewValueMessage(lumen.AddressBroadcast, 0, 1))
	r.disp.ProcessFrame(r.busA, frame)

	if len(r.busB.sent) != 0 {
		t.Error("oversized frame relayed past the capacity guard")
	}
	if countFrames(r.serial.sent, frame) != 1 {
		t.Error("capacity drop on one transport suppressed the other relays")
	}
}

func TestDispatcher_OversizedResponseRefused(t *testing.T) {
	r := newRig(5)
	// Too small for even an output-free poll response.
	r.busA.capacity = lumen.HeaderLen + lumen.PollResponseMinLen - 1

	frame := lumen.MustEncode(lumen.NewPollRequest(5))
	m, err := lumen.Decode(frame)
	if err != nil {
		t.Fatalf("decode poll request: %v", err)
	}

	err = r.disp.Process(r.busA, frame, m)
	if !errors.Is(err, lumen.ErrMessageTooLarge) {
		t.Errorf("Process returned %v, want ErrMessageTooLarge", err)
	}
	if len(r.busA.sent) != 0 {
		t.Error("oversized response written past the capacity guard")
	}
}

func TestDispatcher_DirectWritesBypassPool(t *testing.T) {
	r := newRig(3)

	r.disp.ProcessFrame(r.busA, lumen.MustEncode(lumen.NewRGBMessage(3, 1, 10, 20, 30)))
	if r.outputs[1].Values != [3]uint8{10, 20, 30} {
		t.Errorf("rgb values = %v", r.outputs[1].Values)
	}
	if r.pool.Active() != 0 {
		t.Error("direct write created a tracker")
	}

	// Unicast to this node is consumed, not relayed.
	if len(r.serial.sent) != 0 || len(r.busB.sent) != 0 {
		t.Error("unicast frame for this node was relayed")
	}
}

func TestDispatcher_ProgramMessageAssigns(t *testing.T) {
	r := newRig(3)

	r.disp.ProcessFrame(r.busA, lumen.MustEncode(lumen.NewBlinkMessage(3, 1,
		500, [3]uint8{255, 0, 0}, 500, [3]uint8{0, 0, 0})))

	tr := r.pool.Tracker(1)
	if tr == nil || tr.program.Type != lumen.ProgramBlink {
		t.Fatal("program message did not assign a blink tracker")
	}
}

func TestDispatcher_DumpConfigRoundTrip(t *testing.T) {
	r := newRig(3)

	r.disp.ProcessFrame(r.serial, lumen.MustEncode(lumen.NewDumpConfigRequest(3)))
	if len(r.serial.sent) != 1 {
		t.Fatalf("%d dump responses, want 1", len(r.serial.sent))
	}

	m, err := lumen.Decode(r.serial.sent[0])
	if err != nil {
		t.Fatalf("decode dump response: %v", err)
	}
	dump, ok := m.Payload.(lumen.ConfigDump)
	if !ok {
		t.Fatalf("payload is %T, want ConfigDump", m.Payload)
	}

	var desc dumpDescriptor
	if err := cbor.Unmarshal(dump.Raw, &desc); err != nil {
		t.Fatalf("unmarshal descriptor: %v", err)
	}
	if desc.Address != 3 || desc.DeviceID != 12 {
		t.Errorf("descriptor identity: address=%d device=%d", desc.Address, desc.DeviceID)
	}
	if len(desc.Outputs) != 3 {
		t.Errorf("descriptor lists %d outputs, want 3", len(desc.Outputs))
	}
	if desc.Outputs[2].NumPixels != 50 {
		t.Errorf("pixel count = %d, want 50", desc.Outputs[2].NumPixels)
	}
}

func TestDispatcher_MalformedFrameDropped(t *testing.T) {
	r := newRig(3)

	r.disp.ProcessFrame(r.busA, []byte{0x01, 0x02, 0x03})
	r.disp.ProcessFrame(r.busA, nil)

	if len(r.serial.sent) != 0 || len(r.busB.sent) != 0 {
		t.Error("malformed frames were relayed")
	}
	if r.pool.Active() != 0 {
		t.Error("malformed frame touched the pool")
	}
}
