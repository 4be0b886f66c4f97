// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.bug.st/serial"

	"github.com/lumenworks/lumenbus/pkg/lumen"
)

// Transport is one byte channel the node participates on: the serial
// host bridge or an RS-485 bus socket. Receives are non-blocking;
// TryReceive returns (nil, nil) when no complete frame is ready.
type Transport interface {
	Name() string
	Send(frame []byte) error
	TryReceive() ([]byte, error)
	Capacity() int
	SourceAddress() uint16
	SetSourceAddress(addr uint16)
	Close() error
}

// RawWriter is implemented by transports that can carry out-of-band
// bytes alongside protocol frames (the serial bridge's ready
// heartbeat).
type RawWriter interface {
	WriteRaw(data []byte) error
}

// SerialTransport runs the protocol over a serial port via
// go.bug.st/serial, reassembling frames with the codec accumulator.
type SerialTransport struct {
	name    string
	port    serial.Port
	acc     *lumen.Accumulator
	source  uint16
	pending []byte
	readBuf []byte
	log     zerolog.Logger
}

// OpenSerialTransport opens a serial port in non-blocking mode: reads
// time out after one millisecond so the control loop never stalls on a
// quiet port.
func OpenSerialTransport(name, portName string, baud int, log zerolog.Logger) (*SerialTransport, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrTransportUnavailable, portName, err)
	}
	if err := port.SetReadTimeout(time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrTransportUnavailable, portName, err)
	}
	return &SerialTransport{
		name:    name,
		port:    port,
		acc:     lumen.NewAccumulator(),
		source:  lumen.AddressInvalid,
		readBuf: make([]byte, 64),
		log:     log.With().Str("transport", name).Logger(),
	}, nil
}

func (t *SerialTransport) Name() string { return t.name }

func (t *SerialTransport) Send(frame []byte) error {
	if _, err := t.port.Write(frame); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTransportUnavailable, t.name, err)
	}
	return nil
}

// TryReceive drains buffered bytes through the accumulator and returns
// the first complete frame, or (nil, nil) when the port is quiet.
func (t *SerialTransport) TryReceive() ([]byte, error) {
	for {
		for len(t.pending) > 0 {
			b := t.pending[0]
			t.pending = t.pending[1:]
			frame, err := t.acc.Feed(b)
			if err != nil {
				t.log.Debug().Err(err).Msg("framing error, resyncing")
				continue
			}
			if frame != nil {
				return frame, nil
			}
		}

		n, err := t.port.Read(t.readBuf)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTransportUnavailable, t.name, err)
		}
		if n == 0 {
			return nil, nil
		}
		t.pending = append(t.pending[:0], t.readBuf[:n]...)
	}
}

func (t *SerialTransport) Capacity() int { return lumen.MaxMessageSize }

func (t *SerialTransport) SourceAddress() uint16        { return t.source }
func (t *SerialTransport) SetSourceAddress(addr uint16) { t.source = addr }

// WriteRaw writes bytes outside the protocol framing.
func (t *SerialTransport) WriteRaw(data []byte) error {
	_, err := t.port.Write(data)
	return err
}

func (t *SerialTransport) Close() error { return t.port.Close() }

// WSTransport runs the protocol over a WebSocket, one frame per binary
// message. It lets a networked host stand in for the serial bridge.
//
// A WebSocket read blocks, so a pump goroutine feeds inbound frames
// into a buffered channel and TryReceive drains it without blocking.
type WSTransport struct {
	name   string
	conn   *websocket.Conn
	source uint16
	frames chan []byte
	errs   chan error
	log    zerolog.Logger
}

// NewWSTransport wraps an established WebSocket connection and starts
// its reader.
func NewWSTransport(name string, conn *websocket.Conn, log zerolog.Logger) *WSTransport {
	t := &WSTransport{
		name:   name,
		conn:   conn,
		source: lumen.AddressInvalid,
		frames: make(chan []byte, 16),
		errs:   make(chan error, 1),
		log:    log.With().Str("transport", name).Logger(),
	}
	go t.readLoop()
	return t
}

func (t *WSTransport) readLoop() {
	for {
		messageType, data, err := t.conn.ReadMessage()
		if err != nil {
			t.errs <- fmt.Errorf("%w: %s: %v", ErrTransportUnavailable, t.name, err)
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		select {
		case t.frames <- data:
		default:
			t.log.Warn().Msg("inbound frame dropped, receive queue full")
		}
	}
}

func (t *WSTransport) Name() string { return t.name }

func (t *WSTransport) Send(frame []byte) error {
	if err := t.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTransportUnavailable, t.name, err)
	}
	return nil
}

// TryReceive returns the next queued frame, or (nil, nil) when none is
// waiting.
func (t *WSTransport) TryReceive() ([]byte, error) {
	select {
	case frame := <-t.frames:
		return frame, nil
	case err := <-t.errs:
		return nil, err
	default:
		return nil, nil
	}
}

func (t *WSTransport) Capacity() int { return lumen.MaxMessageSize }

func (t *WSTransport) SourceAddress() uint16        { return t.source }
func (t *WSTransport) SetSourceAddress(addr uint16) { t.source = addr }

func (t *WSTransport) Close() error { return t.conn.Close() }
