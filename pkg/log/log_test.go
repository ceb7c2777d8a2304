// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package log

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewReturnsUsableLogger(t *testing.T) {
	l := New("dicemesh-test")
	require.NotNil(t, l)
	l.Info("hello", "peer", "abcd", "round", 1)
	l.Warn("something happened", "error", "boom")
}

func TestNoOpDiscardsWithoutPanicking(t *testing.T) {
	l := NoOp()
	require.NotNil(t, l)
	require.NotPanics(t, func() {
		l.Info("discarded")
		l.Warn("discarded", "k", "v")
	})
}
