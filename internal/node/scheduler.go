// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import "github.com/rs/zerolog"

// Scheduler advances every active tracker once per control-loop
// iteration. It owns the tick-time cleanup: trackers flagged DONE are
// released at tick entry, before any stepping.
type Scheduler struct {
	pool     *Pool
	registry *Registry
	renderer Renderer
	log      zerolog.Logger
}

// NewScheduler creates a scheduler over the tracker pool. The renderer
// may be nil when no output backend is attached.
func NewScheduler(pool *Pool, registry *Registry, renderer Renderer, log zerolog.Logger) *Scheduler {
	return &Scheduler{pool: pool, registry: registry, renderer: renderer, log: log}
}

// Run performs one tick: release finished trackers, step the rest, and
// render any output whose value changed. Reports whether any output
// changed this tick.
func (s *Scheduler) Run() bool {
	changed := false
	for i := 0; i < s.pool.Len(); i++ {
		t := s.pool.Tracker(i)
		if t == nil {
			continue
		}
		if t.Done() {
			s.log.Debug().Int("output", i).Str("program", t.program.Name).Msg("program finished")
			s.pool.Release(i)
			continue
		}
		if t.program.Step == nil {
			continue
		}
		if t.program.Step(t, nil) {
			changed = true
			if s.renderer != nil {
				s.renderer.Apply(t.output)
			}
		}
	}
	return changed
}

// RunExternal invokes a registered program's step with no tracker or
// output context. Sensor fan-out uses it to hand each reading to the
// sensor-data handler. Unknown types are ignored.
func (s *Scheduler) RunExternal(programType uint8, arg any) bool {
	prog, ok := s.registry.Lookup(programType)
	if !ok || prog.Step == nil {
		return false
	}
	return prog.Step(nil, arg)
}
