// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package entropy

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

func TestCommitRevealRoundTrip(t *testing.T) {
	p1, p2, p3 := testPeer(1), testPeer(2), testPeer(3)
	nonce1 := [32]byte{1}
	nonce2 := [32]byte{2}
	nonce3 := [32]byte{3}

	pool := NewPool(7)
	require.NoError(t, pool.AddCommit(Commitment{Player: p1, Round: 7, Commitment: CommitHash(nonce1, 7)}))
	require.NoError(t, pool.AddCommit(Commitment{Player: p2, Round: 7, Commitment: CommitHash(nonce2, 7)}))
	require.NoError(t, pool.AddCommit(Commitment{Player: p3, Round: 7, Commitment: CommitHash(nonce3, 7)}))

	require.ErrorIs(t, pool.AddCommit(Commitment{Player: p1, Round: 7}), ErrAlreadyCommitted)

	require.NoError(t, pool.FinalizeCommitSet())

	require.NoError(t, pool.AddReveal(Reveal{Player: p1, Round: 7, Nonce: nonce1}))
	require.NoError(t, pool.AddReveal(Reveal{Player: p2, Round: 7, Nonce: nonce2}))
	require.NoError(t, pool.AddReveal(Reveal{Player: p3, Round: 7, Nonce: nonce3}))

	roll, err := pool.DeriveRoll(MinRevealFloor(3))
	require.NoError(t, err)
	require.GreaterOrEqual(t, roll.D1, byte(1))
	require.LessOrEqual(t, roll.D1, byte(6))
	require.GreaterOrEqual(t, roll.D2, byte(1))
	require.LessOrEqual(t, roll.D2, byte(6))
	require.Len(t, roll.Revealers, 3)
}

func TestRevealMismatchRejected(t *testing.T) {
	p1 := testPeer(1)
	nonce1 := [32]byte{1}
	wrongNonce := [32]byte{9}

	pool := NewPool(1)
	require.NoError(t, pool.AddCommit(Commitment{Player: p1, Round: 1, Commitment: CommitHash(nonce1, 1)}))
	require.NoError(t, pool.FinalizeCommitSet())

	err := pool.AddReveal(Reveal{Player: p1, Round: 1, Nonce: wrongNonce})
	require.ErrorIs(t, err, ErrRevealMismatch)
}

func TestRevealBeforeFinalizeIsBuffered(t *testing.T) {
	p1 := testPeer(1)
	nonce1 := [32]byte{1}

	pool := NewPool(1)
	require.NoError(t, pool.AddCommit(Commitment{Player: p1, Round: 1, Commitment: CommitHash(nonce1, 1)}))

	err := pool.AddReveal(Reveal{Player: p1, Round: 1, Nonce: nonce1})
	require.ErrorIs(t, err, ErrCommitNotFinalized)

	require.NoError(t, pool.FinalizeCommitSet())
	roll, err := pool.DeriveRoll(1)
	require.NoError(t, err)
	require.Len(t, roll.Revealers, 1)
}

func TestInsufficientRevealsFails(t *testing.T) {
	p1, p2, p3 := testPeer(1), testPeer(2), testPeer(3)
	pool := NewPool(1)
	require.NoError(t, pool.AddCommit(Commitment{Player: p1, Round: 1, Commitment: CommitHash([32]byte{1}, 1)}))
	require.NoError(t, pool.AddCommit(Commitment{Player: p2, Round: 1, Commitment: CommitHash([32]byte{2}, 1)}))
	require.NoError(t, pool.AddCommit(Commitment{Player: p3, Round: 1, Commitment: CommitHash([32]byte{3}, 1)}))
	require.NoError(t, pool.FinalizeCommitSet())
	require.NoError(t, pool.AddReveal(Reveal{Player: p1, Round: 1, Nonce: [32]byte{1}}))

	_, err := pool.DeriveRoll(MinRevealFloor(3))
	require.ErrorIs(t, err, ErrInsufficientReveals)

	missing := pool.MarkNonRevealers()
	require.Len(t, missing, 2)
}

func TestDeriveRollDeterministic(t *testing.T) {
	p1, p2 := testPeer(1), testPeer(2)
	build := func() *Pool {
		pool := NewPool(42)
		_ = pool.AddCommit(Commitment{Player: p1, Round: 42, Commitment: CommitHash([32]byte{0xAA}, 42)})
		_ = pool.AddCommit(Commitment{Player: p2, Round: 42, Commitment: CommitHash([32]byte{0xBB}, 42)})
		_ = pool.FinalizeCommitSet()
		_ = pool.AddReveal(Reveal{Player: p1, Round: 42, Nonce: [32]byte{0xAA}})
		_ = pool.AddReveal(Reveal{Player: p2, Round: 42, Nonce: [32]byte{0xBB}})
		return pool
	}

	r1, err := build().DeriveRoll(2)
	require.NoError(t, err)
	r2, err := build().DeriveRoll(2)
	require.NoError(t, err)
	require.Equal(t, r1, r2)
}

func TestCommitFloorAndMinRevealFloor(t *testing.T) {
	require.Equal(t, 3, CommitFloor(3))  // ceil(6/3)+1 = 2+1
	require.Equal(t, 8, CommitFloor(10)) // ceil(20/3)+1 = 7+1
	require.Equal(t, 2, MinRevealFloor(3))
	require.Equal(t, 3, MinRevealFloor(5))
}
