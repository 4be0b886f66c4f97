// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

// Package logging configures the process-wide zerolog logger.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets up a console logger tagged with the component name. The
// level comes from LUMENBUS_LOG_LEVEL (trace, debug, info, warn, error);
// unset or unrecognized values default to info.
func Init(component string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).With().Timestamp().Str("component", component).Logger()
	logger = logger.Level(levelFromEnv())
	log.Logger = logger
	return logger
}

func levelFromEnv() zerolog.Level {
	switch strings.ToLower(os.Getenv("LUMENBUS_LOG_LEVEL")) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
