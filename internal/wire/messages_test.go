// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/dicemesh/internal/types"
)

func TestProposalRoundTrip(t *testing.T) {
	p := Proposal{
		ProposalID:    types.Hash256{1},
		Proposer:      testPeer(1),
		PrevStateHash: types.Hash256{2},
		Op:            Operation{Tag: OpResolvePhase, NewPhase: 1},
		Timestamp:     123456,
		Signature:     types.Signature{9, 9},
	}
	enc, err := p.Encode(nil)
	require.NoError(t, err)

	got, err := DecodeProposal(enc)
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestProposalTruncatedErrors(t *testing.T) {
	_, err := DecodeProposal(make([]byte, 10))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestVoteRoundTrip(t *testing.T) {
	v := Vote{
		ProposalID: types.Hash256{3},
		Voter:      testPeer(2),
		Direction:  DirectionFor,
		Timestamp:  42,
		Signature:  types.Signature{7},
	}
	enc := v.Encode(nil)

	got, err := DecodeVote(enc)
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestVoteTruncatedErrors(t *testing.T) {
	_, err := DecodeVote(make([]byte, 5))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestCommitRoundTrip(t *testing.T) {
	c := Commit{
		Player:     testPeer(3),
		Round:      5,
		Commitment: types.Hash256{4},
		Timestamp:  99,
		Signature:  types.Signature{1},
	}
	enc := c.Encode(nil)

	got, err := DecodeCommit(enc)
	require.NoError(t, err)
	require.Equal(t, c, got)
}

func TestRevealRoundTrip(t *testing.T) {
	r := Reveal{
		Player:    testPeer(4),
		Round:     5,
		Nonce:     [32]byte{8, 8, 8},
		Timestamp: 100,
		Signature: types.Signature{2},
	}
	enc := r.Encode(nil)

	got, err := DecodeReveal(enc)
	require.NoError(t, err)
	require.Equal(t, r, got)
}
