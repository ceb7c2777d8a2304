// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xcrypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	msg := []byte("dicemesh proposal")
	sig := key.Sign(msg)

	err = Verify(key.PublicKeyBytes(), msg, sig)
	require.NoError(t, err)
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	sig := key.Sign([]byte("original"))
	err = Verify(key.PublicKeyBytes(), []byte("tampered"), sig)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	key1, err := GenerateKey()
	require.NoError(t, err)
	key2, err := GenerateKey()
	require.NoError(t, err)

	msg := []byte("dicemesh proposal")
	sig := key1.Sign(msg)
	err = Verify(key2.PublicKeyBytes(), msg, sig)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestPeerIdIsDeterministic(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	id1 := key.PeerId()
	id2 := key.PeerId()
	require.Equal(t, id1, id2)
}

func TestDistinctKeysYieldDistinctPeerIds(t *testing.T) {
	key1, err := GenerateKey()
	require.NoError(t, err)
	key2, err := GenerateKey()
	require.NoError(t, err)

	require.NotEqual(t, key1.PeerId(), key2.PeerId())
}

func TestSumSHA256Deterministic(t *testing.T) {
	h1 := SumSHA256([]byte("a"), []byte("b"))
	h2 := SumSHA256([]byte("a"), []byte("b"))
	require.Equal(t, h1, h2)

	h3 := SumSHA256([]byte("ab"))
	require.Equal(t, h1, h3, "SumSHA256 concatenates its arguments before hashing")

	h4 := SumSHA256([]byte("ba"))
	require.NotEqual(t, h1, h4)
}

func TestRandomNonceIsNotAllZero(t *testing.T) {
	n1, err := RandomNonce()
	require.NoError(t, err)
	n2, err := RandomNonce()
	require.NoError(t, err)

	require.NotEqual(t, [32]byte{}, n1)
	require.NotEqual(t, n1, n2)
}
