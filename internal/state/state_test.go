// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/dicemesh/internal/types"
)

func testPeer(b byte) types.PeerId {
	var p types.PeerId
	p[0] = b
	return p
}

func TestCopyOnWriteIsolatesClones(t *testing.T) {
	g := New(types.GameId{1})
	g.SetBalance(testPeer(1), 100)

	clone := g.Clone()
	clone.SetBalance(testPeer(1), 50)

	require.EqualValues(t, 100, g.Balance(testPeer(1)))
	require.EqualValues(t, 50, clone.Balance(testPeer(1)))
}

func TestHeaderPackingRoundTrips(t *testing.T) {
	g := New(types.GameId{1})
	g.SetHeader(PhasePoint, 6, 12345, 5, 999, 42)

	require.Equal(t, PhasePoint, g.Phase())
	require.EqualValues(t, 6, g.Point())
	require.EqualValues(t, 12345, g.RollCount())
	require.EqualValues(t, 5, g.FirePoints())
	require.EqualValues(t, 999, g.HotStreak())
	require.EqualValues(t, 42, g.SeriesID())
}

func TestStateHashDeterministic(t *testing.T) {
	build := func() *Game {
		g := New(types.GameId{9})
		g.SetBalance(testPeer(2), 200)
		g.SetBalance(testPeer(1), 300)
		return g
	}
	h1 := build().StateHash(1000)
	h2 := build().StateHash(1000)
	require.Equal(t, h1, h2)

	h3 := build().StateHash(1001)
	require.NotEqual(t, h1, h3)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	g := New(types.GameId{3})
	g.SetBalance(testPeer(1), 10)
	g.SetBalance(testPeer(2), 20)
	g.SetHeader(PhasePoint, 8, 4, 1, 2, 3)
	g.AdvanceSeq()

	snap := g.Snapshot()
	restored := Restore(snap)

	require.Equal(t, g.SeqNum(), restored.SeqNum())
	require.Equal(t, g.Phase(), restored.Phase())
	require.Equal(t, g.Balance(testPeer(1)), restored.Balance(testPeer(1)))
	require.Equal(t, g.Balance(testPeer(2)), restored.Balance(testPeer(2)))
}

func TestSnapshotEncodeDecode(t *testing.T) {
	g := New(types.GameId{4})
	g.SetBalance(testPeer(1), 77)
	snap := g.Snapshot()

	encoded := snap.Encode()
	decoded, err := DecodeSnapshot(encoded)
	require.NoError(t, err)
	require.Equal(t, snap, decoded)
}

func TestDeltaApplyRequiresMatchingBase(t *testing.T) {
	base := New(types.GameId{5})
	base.SetBalance(testPeer(1), 10)

	derived := base.Clone()
	derived.SetBalance(testPeer(1), 50)
	derived.AdvanceSeq()

	delta := DeltaFrom(base, derived)
	applied, err := delta.Apply(base)
	require.NoError(t, err)
	require.EqualValues(t, 50, applied.Balance(testPeer(1)))

	_, err = delta.Apply(derived)
	require.ErrorIs(t, err, ErrDeltaBaseMismatch)
}

func TestTotalBalanceConservation(t *testing.T) {
	g := New(types.GameId{6})
	g.SetBalance(testPeer(1), 100)
	g.SetBalance(testPeer(2), 200)

	total, err := g.TotalBalance()
	require.NoError(t, err)
	require.EqualValues(t, 300, total)
}
