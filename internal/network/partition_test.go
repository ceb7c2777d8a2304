// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/dicemesh/internal/types"
)

func TestDetectorUnreachableAfterTimeout(t *testing.T) {
	d := NewDetector()
	now := time.Now()
	p1, p2 := testPeer(1), testPeer(2)
	d.Heartbeat(p1, now)
	d.Heartbeat(p2, now)

	require.Empty(t, d.Unreachable(now.Add(5*time.Second)))

	later := now.Add(20 * time.Second)
	d.Heartbeat(p2, later)
	unreachable := d.Unreachable(later)
	require.Equal(t, []types.PeerId{p1}, unreachable)
}

func TestDetectorQuorumLost(t *testing.T) {
	d := NewDetector()
	now := time.Now()
	d.Heartbeat(testPeer(1), now)
	d.Heartbeat(testPeer(2), now)

	require.False(t, d.QuorumLost(now, 3, 2))
	require.True(t, d.QuorumLost(now.Add(20*time.Second), 3, 2))
}

func TestAttemptAdvancesThroughLifecycle(t *testing.T) {
	a := NewAttempt(StrategyActiveReconnection, time.Now())
	require.Equal(t, Initializing, a.State)
	a.Advance()
	require.Equal(t, DetectingPeers, a.State)
	a.Advance()
	a.Advance()
	a.Advance()
	require.Equal(t, Finalizing, a.State)
	a.Advance()
	require.Equal(t, Complete, a.State)
	a.Advance()
	require.Equal(t, Complete, a.State, "advancing past Complete is a no-op")
}

func TestAttemptFailFromNonTerminal(t *testing.T) {
	a := NewAttempt(StrategyMajorityRule, time.Now())
	a.Advance()
	a.Fail()
	require.Equal(t, Failed, a.State)
}

func TestChooseStrategyBranches(t *testing.T) {
	require.Equal(t, StrategyByzantineExclusion, ChooseStrategy(5, 10, 7, true, 0, time.Minute))
	require.Equal(t, StrategyEmergencyRollback, ChooseStrategy(5, 10, 7, false, 2*time.Minute, time.Minute))
	require.Equal(t, StrategyMajorityRule, ChooseStrategy(3, 10, 7, false, 0, time.Minute))
	require.Equal(t, StrategyActiveReconnection, ChooseStrategy(9, 10, 7, false, 0, time.Minute))
	require.Equal(t, StrategySplitBrainMerkleCompare, ChooseStrategy(8, 10, 7, false, 0, time.Minute))
}
