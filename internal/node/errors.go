// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import "errors"

var (
	// ErrInvalidOutput indicates an output index with no configured
	// descriptor.
	ErrInvalidOutput = errors.New("node: invalid output")

	// ErrUnknownProgram indicates a program type with no registry entry,
	// or one that cannot drive an output.
	ErrUnknownProgram = errors.New("node: unknown program")

	// ErrTransportUnavailable indicates a transport that cannot currently
	// send or receive.
	ErrTransportUnavailable = errors.New("node: transport unavailable")
)
