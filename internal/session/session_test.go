// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/dicemesh/internal/types"
)

func testPeer(b byte) types.PeerId {
	var p types.PeerId
	p[0] = b
	return p
}

func TestOpenStartsConnecting(t *testing.T) {
	m := NewManager()
	now := time.Now()
	s := m.Open(testPeer(1), now)
	require.Equal(t, Connecting, s.state)

	got, ok := m.State(testPeer(1))
	require.True(t, ok)
	require.Equal(t, Connecting, got)
}

func TestLegalTransitionSequence(t *testing.T) {
	m := NewManager()
	now := time.Now()
	peer := testPeer(2)
	m.Open(peer, now)

	require.NoError(t, m.Transition(peer, Authenticated, now))
	require.NoError(t, m.Transition(peer, Active, now))
	require.NoError(t, m.Transition(peer, Closed, now))

	got, _ := m.State(peer)
	require.Equal(t, Closed, got)
}

func TestIllegalTransitionRejected(t *testing.T) {
	m := NewManager()
	now := time.Now()
	peer := testPeer(3)
	m.Open(peer, now)

	err := m.Transition(peer, Active, now)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionFromClosedAlwaysRejected(t *testing.T) {
	m := NewManager()
	now := time.Now()
	peer := testPeer(4)
	m.Open(peer, now)
	require.NoError(t, m.Transition(peer, Closed, now))

	err := m.Transition(peer, Connecting, now)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionUnknownSession(t *testing.T) {
	m := NewManager()
	err := m.Transition(testPeer(9), Active, time.Now())
	require.ErrorIs(t, err, ErrUnknownSession)
}

func TestTouchUnknownSession(t *testing.T) {
	m := NewManager()
	err := m.Touch(testPeer(9), time.Now())
	require.ErrorIs(t, err, ErrUnknownSession)
}

func TestActivePeersOnlyListsActive(t *testing.T) {
	m := NewManager()
	now := time.Now()
	p1, p2 := testPeer(1), testPeer(2)
	m.Open(p1, now)
	m.Open(p2, now)
	require.NoError(t, m.Transition(p1, Authenticated, now))
	require.NoError(t, m.Transition(p1, Active, now))

	active := m.ActivePeers()
	require.Equal(t, []types.PeerId{p1}, active)
}

func TestExpireStaleClosesOldSessions(t *testing.T) {
	m := NewManager()
	now := time.Now()
	peer := testPeer(5)
	m.Open(peer, now)
	require.NoError(t, m.Transition(peer, Authenticated, now))
	require.NoError(t, m.Transition(peer, Active, now))

	expired := m.ExpireStale(now.Add(30*time.Second), 15*time.Second)
	require.Equal(t, []types.PeerId{peer}, expired)

	got, _ := m.State(peer)
	require.Equal(t, Closed, got)
}

func TestExpireStaleIgnoresFreshSessions(t *testing.T) {
	m := NewManager()
	now := time.Now()
	peer := testPeer(6)
	m.Open(peer, now)

	expired := m.ExpireStale(now.Add(5*time.Second), 15*time.Second)
	require.Empty(t, expired)
}
