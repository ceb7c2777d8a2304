// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPeerIdFromBytesRejectsWrongLength(t *testing.T) {
	_, err := PeerIdFromBytes(make([]byte, 31))
	require.ErrorIs(t, err, ErrWrongLength)

	id, err := PeerIdFromBytes(make([]byte, 32))
	require.NoError(t, err)
	require.True(t, id.IsZero())
}

func TestPeerIdLessIsByteOrder(t *testing.T) {
	var a, b PeerId
	a[0] = 1
	b[0] = 2
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.False(t, a.Less(a))
}

func TestSortPeerIdsAscending(t *testing.T) {
	var a, b, c PeerId
	a[0], b[0], c[0] = 3, 1, 2
	sorted := SortPeerIds([]PeerId{a, b, c})
	require.Equal(t, []PeerId{b, c, a}, sorted)
}

func TestSortPeerIdsDoesNotMutateInput(t *testing.T) {
	var a, b PeerId
	a[0], b[0] = 2, 1
	in := []PeerId{a, b}
	SortPeerIds(in)
	require.Equal(t, []PeerId{a, b}, in)
}

func TestGameIdFromBytesRejectsWrongLength(t *testing.T) {
	_, err := GameIdFromBytes(make([]byte, 15))
	require.ErrorIs(t, err, ErrWrongLength)

	_, err = GameIdFromBytes(make([]byte, 16))
	require.NoError(t, err)
}

func TestHash256ZeroAndFromBytes(t *testing.T) {
	var h Hash256
	require.True(t, h.IsZero())

	h2, err := Hash256FromBytes(make([]byte, 32))
	require.NoError(t, err)
	require.True(t, h2.IsZero())

	_, err = Hash256FromBytes(make([]byte, 10))
	require.ErrorIs(t, err, ErrWrongLength)
}

func TestSignatureFromBytesRejectsWrongLength(t *testing.T) {
	_, err := SignatureFromBytes(make([]byte, 63))
	require.ErrorIs(t, err, ErrWrongLength)

	_, err = SignatureFromBytes(make([]byte, 64))
	require.NoError(t, err)
}

func TestStringersAreHex(t *testing.T) {
	var p PeerId
	p[0] = 0xAB
	require.Equal(t, "ab", p.String()[:2])
	require.Len(t, p.String(), 64)

	var g GameId
	g[0] = 0xCD
	require.Equal(t, "cd", g.String()[:2])
	require.Len(t, g.String(), 32)

	var h Hash256
	h[0] = 0xEF
	require.Equal(t, "ef", h.String()[:2])
}
