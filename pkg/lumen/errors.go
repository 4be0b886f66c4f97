// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package lumen

import "errors"

// Decode and dispatch error taxonomy. All are local, non-fatal conditions:
// a dispatcher drops the offending message and keeps going.
var (
	ErrMalformedHeader  = errors.New("lumen: malformed header")
	ErrVersionMismatch  = errors.New("lumen: protocol version mismatch")
	ErrUnknownType      = errors.New("lumen: unknown message type")
	ErrTruncatedPayload = errors.New("lumen: truncated payload")
	ErrMessageTooLarge  = errors.New("lumen: message too large for transport")
)
