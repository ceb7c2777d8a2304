// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/dicemesh/internal/wire"
)

func TestReassemblerCompletesOnLastFragment(t *testing.T) {
	r := NewReassembler()
	now := time.Now()
	msgID := [16]byte{9}
	frags := wire.Split(msgID, []byte("hello dicemesh"), 4)
	require.True(t, len(frags) > 1)

	for i, f := range frags[:len(frags)-1] {
		out, done := r.Add(f, now)
		require.False(t, done, "fragment %d should not complete yet", i)
		require.Nil(t, out)
	}

	out, done := r.Add(frags[len(frags)-1], now)
	require.True(t, done)
	require.Equal(t, []byte("hello dicemesh"), out)
}

func TestReassemblerExpiresStalePartials(t *testing.T) {
	r := NewReassembler()
	now := time.Now()
	msgID := [16]byte{7}
	frags := wire.Split(msgID, []byte("abcdefgh"), 2)
	r.Add(frags[0], now)

	require.Equal(t, 0, r.ExpireStale(now.Add(30*time.Second)))
	require.Equal(t, 1, r.ExpireStale(now.Add(61*time.Second)))
}

func TestRecordCRCFailureTripsAtThreshold(t *testing.T) {
	r := NewReassembler()
	for i := 0; i < crcFailureSuspectThreshold-1; i++ {
		require.False(t, r.RecordCRCFailure("peerA"))
	}
	require.True(t, r.RecordCRCFailure("peerA"))
}
