// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package lumen

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks message and error counts for the monitor tools.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	TotalMessages   uint64
	ValidMessages   uint64
	HeaderErrors    uint64
	VersionErrors   uint64
	TruncatedErrors uint64
	UnknownTypes    uint64

	ByType map[uint8]uint64

	// Rates (calculated)
	MessageRate float64 // messages/sec
	ErrorRate   float64 // errors/sec
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
		ByType:         make(map[uint8]uint64),
	}
}

// Update records one decode result.
func (s *Statistics) Update(m *Message, decodeErr error) {
	s.TotalMessages++
	s.LastUpdateTime = time.Now()

	if decodeErr != nil {
		switch {
		case errors.Is(decodeErr, ErrVersionMismatch):
			s.VersionErrors++
		case errors.Is(decodeErr, ErrTruncatedPayload):
			s.TruncatedErrors++
		case errors.Is(decodeErr, ErrUnknownType):
			s.UnknownTypes++
		default:
			s.HeaderErrors++
		}
		return
	}

	s.ValidMessages++
	if m != nil {
		s.ByType[m.Header.Type]++
	}
}

// CalculateRates recalculates the message and error rates.
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.MessageRate = float64(s.TotalMessages) / elapsed
		errorCount := s.HeaderErrors + s.VersionErrors + s.TruncatedErrors + s.UnknownTypes
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

// String returns a formatted statistics summary.
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent float64
	if s.TotalMessages > 0 {
		validPercent = float64(s.ValidMessages) * 100.0 / float64(s.TotalMessages)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Messages:  %8d (%.1f/sec)\n", s.TotalMessages, s.MessageRate)
	result += fmt.Sprintf("Valid Messages:  %8d (%.1f%%)\n", s.ValidMessages, validPercent)

	if s.HeaderErrors > 0 {
		result += fmt.Sprintf("Header Errors:   %8d\n", s.HeaderErrors)
	}
	if s.VersionErrors > 0 {
		result += fmt.Sprintf("Version Errors:  %8d\n", s.VersionErrors)
	}
	if s.TruncatedErrors > 0 {
		result += fmt.Sprintf("Truncated:       %8d\n", s.TruncatedErrors)
	}
	if s.UnknownTypes > 0 {
		result += fmt.Sprintf("Unknown Types:   %8d\n", s.UnknownTypes)
	}

	for _, t := range []uint8{MsgTypeOutput, MsgTypePoll, MsgTypeSetAddress, MsgTypeSensor, MsgTypeDumpConfig} {
		if n := s.ByType[t]; n > 0 {
			result += fmt.Sprintf("%-16s %8d\n", FormatMessageType(t)+":", n)
		}
	}

	return result
}
