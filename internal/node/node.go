// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

// Package node implements the firmware core: program registry, tracker
// pool, scheduler, dispatcher and the single-threaded control loop that
// ties them to the serial bridge and bus transports.
package node

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// readyInterval rate-limits the serial heartbeat emitted while the
// bridge is quiet, so host tooling can detect a live node.
const readyInterval = 5 * time.Second

// Node owns the control loop. All core state is touched only from Run's
// goroutine; concurrency is by interleaving, not locks.
type Node struct {
	cfg      *Config
	disp     *Dispatcher
	sched    *Scheduler
	serial   Transport
	buses    []Transport
	clock    Clock
	log      zerolog.Logger
	lastSeen time.Time
	lastHint time.Time
}

// New assembles a node from its configuration and transports. The
// serial transport may be nil when the node runs bus-only.
func New(cfg *Config, serial Transport, buses []Transport, renderer Renderer, clock Clock, log zerolog.Logger) *Node {
	outputs := cfg.Descriptors()
	sensors := &SensorState{}
	registry := NewRegistry(clock, sensors)
	pool := NewPool(outputs, registry, log)
	sched := NewScheduler(pool, registry, renderer, log)
	disp := NewDispatcher(cfg, outputs, pool, sched, renderer, serial, buses, clock, log)

	return &Node{
		cfg:    cfg,
		disp:   disp,
		sched:  sched,
		serial: serial,
		buses:  buses,
		clock:  clock,
		log:    log,
	}
}

// Dispatcher exposes the dispatcher, mainly for its current address.
func (n *Node) Dispatcher() *Dispatcher { return n.disp }

// Run executes the control loop until the context is cancelled: drain
// serial then each bus (one message per transport per iteration), run
// one scheduler tick, emit the serial heartbeat if due, sleep to the
// next tick boundary.
func (n *Node) Run(ctx context.Context) error {
	n.log.Info().
		Uint16("address", n.cfg.Address).
		Uint16("device_id", n.cfg.DeviceID).
		Int("outputs", len(n.cfg.Outputs)).
		Dur("tick", n.cfg.Tick.Duration).
		Msg("node starting")

	n.lastSeen = n.clock.Now()

	for {
		select {
		case <-ctx.Done():
			n.log.Info().Msg("node stopping")
			return ctx.Err()
		default:
		}

		if n.serial != nil {
			n.checkTransport(n.serial)
		}
		for _, bus := range n.buses {
			n.checkTransport(bus)
		}

		n.sched.Run()
		n.heartbeat()
		n.clock.Sleep(n.cfg.Tick.Duration)
	}
}

// checkTransport processes at most one complete message from a
// transport. Transport errors are logged and skipped; a dead port must
// not halt the loop.
func (n *Node) checkTransport(t Transport) {
	frame, err := t.TryReceive()
	if err != nil {
		n.log.Debug().Err(err).Str("transport", t.Name()).Msg("receive failed")
		return
	}
	if frame == nil {
		return
	}
	n.lastSeen = n.clock.Now()
	n.disp.ProcessFrame(t, frame)
}

// heartbeat writes a "ready" line on the serial bridge when no traffic
// has been seen for a while, so a freshly attached host knows the node
// is listening. Rate-limited to one line per interval.
func (n *Node) heartbeat() {
	rw, ok := n.serial.(RawWriter)
	if !ok {
		return
	}
	now := n.clock.Now()
	if now.Sub(n.lastSeen) < readyInterval || now.Sub(n.lastHint) < readyInterval {
		return
	}
	n.lastHint = now
	if err := rw.WriteRaw([]byte("ready\n")); err != nil {
		n.log.Debug().Err(err).Msg("heartbeat write failed")
	}
}
