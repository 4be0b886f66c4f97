// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import (
	"github.com/rs/zerolog"

	"github.com/lumenworks/lumenbus/pkg/lumen"
)

// Renderer receives output values after they change. Pin-level drivers
// (PWM, LED strips) implement this outside the core.
type Renderer interface {
	Apply(out *OutputDescriptor)
}

// LogRenderer logs every applied value. It stands in for a hardware
// renderer on development hosts.
type LogRenderer struct {
	Log zerolog.Logger
}

func (r LogRenderer) Apply(out *OutputDescriptor) {
	ev := r.Log.Debug().Uint8("output", out.Index)
	if out.Type == lumen.OutputValue {
		ev.Uint16("value", out.Value).Msg("render")
		return
	}
	ev.Uints8("values", out.Values[:]).Msg("render")
}
