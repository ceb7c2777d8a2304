// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSuspectTrackerExclusionAtThreshold(t *testing.T) {
	tr := NewSuspectTracker(3, time.Minute)
	peer := testPeer(1)
	now := time.Now()

	tr.Raise(peer, now)
	tr.Raise(peer, now)
	require.False(t, tr.IsExcluded(peer, now))

	tr.Raise(peer, now)
	require.True(t, tr.IsExcluded(peer, now))
}

func TestSuspectTrackerFlagsDecayIndependently(t *testing.T) {
	tr := NewSuspectTracker(2, time.Minute)
	peer := testPeer(1)
	t0 := time.Now()

	tr.Raise(peer, t0)
	tr.Raise(peer, t0.Add(50*time.Second))

	require.True(t, tr.IsExcluded(peer, t0.Add(55*time.Second)))
	// First flag has now decayed (>1 minute old); only the second remains.
	require.False(t, tr.IsExcluded(peer, t0.Add(90*time.Second)))
}

func TestSuspectTrackerExcludedList(t *testing.T) {
	tr := NewSuspectTracker(1, time.Minute)
	now := time.Now()
	tr.Raise(testPeer(1), now)

	excluded := tr.Excluded(now)
	require.Len(t, excluded, 1)
}
