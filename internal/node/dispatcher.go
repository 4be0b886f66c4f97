// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"

	"github.com/lumenworks/lumenbus/pkg/lumen"
)

const hardwareVersion = 1

// defaultPollDelayUnit spaces broadcast-poll responses by node address
// so nodes answering the same broadcast do not collide on the shared
// bus.
const defaultPollDelayUnit = 2 * time.Millisecond

// Dispatcher applies the addressing, forwarding and type-dispatch rules
// to every inbound message. It is stateless across messages except for
// the node's effective address, which set-address can change at
// runtime.
type Dispatcher struct {
	address    uint16
	deviceID   uint16
	objectType uint8
	baud       int

	outputs  []*OutputDescriptor
	pool     *Pool
	sched    *Scheduler
	renderer Renderer

	serial Transport // host bridge, may be nil
	buses  []Transport

	clock     Clock
	delayUnit time.Duration
	log       zerolog.Logger
}

// NewDispatcher wires the dispatcher to the node identity and its
// transports, and stamps the node's source address onto each transport.
func NewDispatcher(cfg *Config, outputs []*OutputDescriptor, pool *Pool, sched *Scheduler,
	renderer Renderer, serial Transport, buses []Transport, clock Clock, log zerolog.Logger) *Dispatcher {

	d := &Dispatcher{
		address:    cfg.Address,
		deviceID:   cfg.DeviceID,
		objectType: cfg.ObjectType,
		baud:       cfg.Baud,
		outputs:    outputs,
		pool:       pool,
		sched:      sched,
		renderer:   renderer,
		serial:     serial,
		buses:      buses,
		clock:      clock,
		delayUnit:  defaultPollDelayUnit,
		log:        log,
	}
	for _, t := range d.transports() {
		t.SetSourceAddress(d.address)
	}
	return d
}

// Address returns the node's current effective address.
func (d *Dispatcher) Address() uint16 { return d.address }

func (d *Dispatcher) transports() []Transport {
	all := make([]Transport, 0, len(d.buses)+1)
	if d.serial != nil {
		all = append(all, d.serial)
	}
	return append(all, d.buses...)
}

// ProcessFrame decodes one raw frame and runs it through the dispatch
// rules. Bad frames are logged and dropped; they never halt the node.
func (d *Dispatcher) ProcessFrame(from Transport, frame []byte) {
	m, err := lumen.Decode(frame)
	if err != nil {
		d.log.Warn().Err(err).Str("transport", from.Name()).Int("len", len(frame)).Msg("dropping frame")
		return
	}
	if err := d.Process(from, frame, m); err != nil {
		d.log.Warn().Err(err).Str("transport", from.Name()).Str("type", lumen.FormatMessageType(m.Header.Type)).Msg("dispatch failed")
	}
}

// Process applies the per-message rules: the serial ack-forward special
// case, cross-transport relay, the local address filter, and finally
// type dispatch.
func (d *Dispatcher) Process(from Transport, frame []byte, m *lumen.Message) error {
	hdr := m.Header
	forThisNode := hdr.Dest == d.address || hdr.IsBroadcast()

	// A non-broadcast ack for another node arriving from a bus is
	// echoed verbatim onto the serial bridge so whichever origin
	// listens there sees it, then dropped. Sensor traffic is exempt:
	// sensor data is for everyone even when flagged as an ack. When
	// the ack arrived on the serial bridge itself there is no echo
	// target; it relays to the buses like any other foreign traffic.
	if hdr.IsAck() && !hdr.IsBroadcast() && hdr.Dest != d.address && hdr.Type != lumen.MsgTypeSensor {
		if d.serial != nil && from != d.serial {
			d.forward(d.serial, frame)
			return nil
		}
	}

	// Broadcast and foreign-destination traffic is repeated on every
	// other live transport, whether or not this node also consumes it.
	if hdr.IsBroadcast() || !forThisNode {
		for _, t := range d.transports() {
			if t == from {
				continue
			}
			d.forward(t, frame)
		}
	}

	if !forThisNode {
		return nil
	}

	switch p := m.Payload.(type) {
	case lumen.SetValue:
		return d.applyDirect(p.Output, func(out *OutputDescriptor) bool {
			return out.SetValue(p.Value)
		})

	case lumen.SetRGB:
		return d.applyDirect(p.Output, func(out *OutputDescriptor) bool {
			return out.ApplyLevels(p.Values)
		})

	case lumen.SetPixels:
		return d.applyDirect(p.Output, func(out *OutputDescriptor) bool {
			return out.ApplyLevels(p.Values)
		})

	case lumen.ProgramConfig:
		return d.pool.Assign(int(p.Output), p)

	case lumen.Poll:
		return d.handlePoll(from, hdr)

	case lumen.SetAddress:
		d.handleSetAddress(p)
		return nil

	case lumen.SensorData:
		if hdr.IsAck() {
			for _, r := range p.Readings {
				d.sched.RunExternal(lumen.ProgramSensorData, r)
			}
		}
		return nil

	case lumen.DumpConfig:
		return d.handleDumpConfig(from)

	case lumen.PollResponse, lumen.ConfigDump:
		// Responses from peers; host tooling consumes these, not nodes.
		return nil

	default:
		return fmt.Errorf("%w: payload %T", lumen.ErrUnknownType, p)
	}
}

// applyDirect writes a value straight to an output descriptor,
// bypassing the tracker pool.
func (d *Dispatcher) applyDirect(index uint8, apply func(*OutputDescriptor) bool) error {
	if int(index) >= len(d.outputs) || d.outputs[index] == nil {
		return fmt.Errorf("%w: index %d", ErrInvalidOutput, index)
	}
	if apply(d.outputs[index]) && d.renderer != nil {
		d.renderer.Apply(d.outputs[index])
	}
	return nil
}

// handlePoll answers with this node's self-description on the transport
// the poll arrived on. Broadcast polls wait address-proportionally
// first so responders take turns on the shared bus.
func (d *Dispatcher) handlePoll(from Transport, hdr lumen.Header) error {
	if hdr.IsBroadcast() {
		d.clock.Sleep(time.Duration(d.address) * d.delayUnit)
	}

	resp := lumen.PollResponse{
		Config: lumen.ConfigHeader{
			Magic:           lumen.ConfigMagic,
			ProtocolVersion: lumen.ProtocolVersion,
			HardwareVersion: hardwareVersion,
			Baud:            uint8(d.baud / 1200),
			NumOutputs:      uint8(len(d.outputs)),
			DeviceID:        d.deviceID,
			Address:         d.address,
		},
		ObjectType: d.objectType,
		BufferSize: uint16(from.Capacity()),
		MsgVersion: lumen.ProtocolVersion,
	}

	// Truncate the descriptor list to what the transport can carry.
	size := lumen.HeaderLen + lumen.PollResponseMinLen
	for _, out := range d.outputs {
		n := out.wireSize()
		if size+n > from.Capacity() {
			break
		}
		resp.Outputs = append(resp.Outputs, out.Config())
		size += n
	}

	return d.send(from, &lumen.Message{
		Header:  lumen.Header{Type: lumen.MsgTypePoll, Flags: lumen.FlagResponse, Dest: lumen.AddressBroadcast},
		Payload: resp,
	})
}

// handleSetAddress changes the effective address when the device id is
// a wildcard or matches. A mismatch leaves the address unchanged and is
// not an error.
func (d *Dispatcher) handleSetAddress(p lumen.SetAddress) {
	if p.DeviceID != 0 && p.DeviceID != d.deviceID {
		return
	}
	d.log.Info().Uint16("old", d.address).Uint16("new", p.NewAddress).Msg("address changed")
	d.address = p.NewAddress
	for _, t := range d.transports() {
		t.SetSourceAddress(p.NewAddress)
	}
}

// dumpDescriptor is the CBOR self-description a node returns for a
// config dump request.
type dumpDescriptor struct {
	Address    uint16       `cbor:"address"`
	DeviceID   uint16       `cbor:"device_id"`
	ObjectType uint8        `cbor:"object_type"`
	Baud       int          `cbor:"baud"`
	Outputs    []dumpOutput `cbor:"outputs"`
}

type dumpOutput struct {
	Type      uint8  `cbor:"type"`
	Pin       uint8  `cbor:"pin,omitempty"`
	Pins      []int  `cbor:"pins,omitempty"`
	ClockPin  uint8  `cbor:"clock_pin,omitempty"`
	DataPin   uint8  `cbor:"data_pin,omitempty"`
	NumPixels uint16 `cbor:"num_pixels,omitempty"`
	RGBType   uint8  `cbor:"rgb_type,omitempty"`
}

func (d *Dispatcher) handleDumpConfig(from Transport) error {
	desc := dumpDescriptor{
		Address:    d.address,
		DeviceID:   d.deviceID,
		ObjectType: d.objectType,
		Baud:       d.baud,
	}
	for _, out := range d.outputs {
		do := dumpOutput{Type: out.Type}
		switch out.Type {
		case lumen.OutputValue:
			do.Pin = out.Pin
		case lumen.OutputRGB:
			do.Pins = []int{int(out.Pins[0]), int(out.Pins[1]), int(out.Pins[2])}
		case lumen.OutputPixels:
			do.ClockPin = out.ClockPin
			do.DataPin = out.DataPin
			do.NumPixels = out.NumPixels
			do.RGBType = out.RGBType
		}
		desc.Outputs = append(desc.Outputs, do)
	}

	raw, err := cbor.Marshal(desc)
	if err != nil {
		return fmt.Errorf("encode config dump: %w", err)
	}

	return d.send(from, &lumen.Message{
		Header:  lumen.Header{Type: lumen.MsgTypeDumpConfig, Flags: lumen.FlagResponse, Dest: lumen.AddressBroadcast},
		Payload: lumen.ConfigDump{Raw: raw},
	})
}

// send encodes and transmits one message, enforcing the transport's
// capacity first.
func (d *Dispatcher) send(to Transport, m *lumen.Message) error {
	frame, err := lumen.Encode(m)
	if err != nil {
		return err
	}
	if len(frame) > to.Capacity() {
		return fmt.Errorf("%w: %d bytes for %s (capacity %d)", lumen.ErrMessageTooLarge, len(frame), to.Name(), to.Capacity())
	}
	return to.Send(frame)
}

// forward retransmits a raw frame, dropping it with a diagnostic when
// it exceeds the destination's capacity.
func (d *Dispatcher) forward(to Transport, frame []byte) {
	if len(frame) > to.Capacity() {
		d.log.Warn().Str("transport", to.Name()).Int("len", len(frame)).Int("capacity", to.Capacity()).Msg("relay dropped, frame too large")
		return
	}
	if err := to.Send(frame); err != nil {
		d.log.Warn().Err(err).Str("transport", to.Name()).Msg("relay failed")
	}
}
