// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log is a thin convenience wrapper around github.com/luxfi/log,
// the teacher's structured logging dependency. Loggers are built per
// component with New (network.Coordinator and cmd/dicemesh-node each call
// it themselves); nothing in dicemesh reaches for a package global.
package log

import (
	"github.com/luxfi/log"
)

// Logger is re-exported so callers only need to import pkg/log.
type Logger = log.Logger

// New returns a named component logger, mirroring the teacher's
// log.NewLogger("component") idiom (see internal/ringtail/finalizer.go in
// the pack).
func New(component string) Logger {
	return log.NewLogger(component)
}

// NoOp returns a logger that discards everything, for tests and dry runs.
func NoOp() Logger {
	return log.NewNoOpLogger()
}
