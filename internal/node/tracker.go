// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lumenworks/lumenbus/pkg/lumen"
)

const trackerFlagDone = 1 << 0

// Tracker is the per-output record of an in-progress program. The pool
// exclusively owns tracker state: it is set on assignment and dropped
// exactly once, when the slot is released.
type Tracker struct {
	program *Program
	output  *OutputDescriptor
	flags   uint8
	state   any
}

// Output returns the descriptor this tracker drives.
func (t *Tracker) Output() *OutputDescriptor { return t.output }

// Done reports whether the program has marked itself finished.
func (t *Tracker) Done() bool { return t.flags&trackerFlagDone != 0 }

// SetDone marks the program finished; the scheduler releases the slot
// at the next tick.
func (t *Tracker) SetDone(done bool) {
	if done {
		t.flags |= trackerFlagDone
	} else {
		t.flags &^= trackerFlagDone
	}
}

// Pool holds one optional tracker slot per physical output.
type Pool struct {
	outputs  []*OutputDescriptor
	registry *Registry
	slots    []*Tracker
	log      zerolog.Logger
}

// NewPool creates a pool with one empty slot per output descriptor.
func NewPool(outputs []*OutputDescriptor, registry *Registry, log zerolog.Logger) *Pool {
	return &Pool{
		outputs:  outputs,
		registry: registry,
		slots:    make([]*Tracker, len(outputs)),
		log:      log,
	}
}

// Len returns the number of output slots.
func (p *Pool) Len() int { return len(p.slots) }

// Tracker returns the live tracker for an output, or nil.
func (p *Pool) Tracker(index int) *Tracker {
	if index < 0 || index >= len(p.slots) {
		return nil
	}
	return p.slots[index]
}

// Assign installs a program on an output from a program-config message.
//
// Validation happens before any mutation: a bad output index or unknown
// program type leaves the prior tracker untouched. The reserved "none"
// type clears the slot and always succeeds. A setup failure releases
// the slot, since the prior program's state was already dropped for
// reuse.
func (p *Pool) Assign(index int, cfg lumen.ProgramConfig) error {
	if index < 0 || index >= len(p.outputs) || p.outputs[index] == nil {
		return fmt.Errorf("%w: index %d", ErrInvalidOutput, index)
	}
	prog, ok := p.registry.Lookup(cfg.Program)
	if !ok {
		return fmt.Errorf("%w: type 0x%02X", ErrUnknownProgram, cfg.Program)
	}
	if cfg.Program == lumen.ProgramNone {
		p.Release(index)
		return nil
	}
	if prog.Setup == nil {
		return fmt.Errorf("%w: %s cannot drive an output", ErrUnknownProgram, prog.Name)
	}

	t := p.slots[index]
	if t == nil {
		t = &Tracker{}
		p.slots[index] = t
	}
	t.program = prog
	t.output = p.outputs[index]
	t.flags = 0
	t.state = nil

	if err := prog.Setup(t, cfg); err != nil {
		p.Release(index)
		return fmt.Errorf("%s setup: %w", prog.Name, err)
	}

	p.log.Debug().Int("output", index).Str("program", prog.Name).Msg("program assigned")
	return nil
}

// Release clears an output's tracker slot. Idempotent; safe on empty
// slots and out-of-range indices.
func (p *Pool) Release(index int) {
	if index < 0 || index >= len(p.slots) || p.slots[index] == nil {
		return
	}
	p.slots[index] = nil
}

// Active returns the number of live trackers.
func (p *Pool) Active() int {
	n := 0
	for _, t := range p.slots {
		if t != nil {
			n++
		}
	}
	return n
}
