// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xcrypto provides the signing and hashing primitives shared by
// every dicemesh wire message: peer keypairs over secp256k1 (the curve
// already present in the teacher's dependency graph via its geth/decred
// indirect requires) and SHA-256 digests for commitments, state hashes and
// Merkle nodes.
package xcrypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/luxfi/dicemesh/internal/types"
)

// ErrInvalidSignature is returned when a signature fails to verify.
var ErrInvalidSignature = errors.New("invalid signature")

// PrivateKey is a peer's signing key. The corresponding PeerId is the
// 32-byte X-coordinate-prefixed compressed public key's hash identity.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey draws a fresh private key from crypto/rand.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: key}, nil
}

// PeerId derives this key's 32-byte identifier: SHA-256 of the compressed
// public key encoding.
func (p *PrivateKey) PeerId() types.PeerId {
	pub := p.key.PubKey().SerializeCompressed()
	return SumSHA256(pub)
}

// PublicKeyBytes returns the 33-byte compressed public key, published
// alongside a PeerId so peers can verify signatures without a PKI lookup.
func (p *PrivateKey) PublicKeyBytes() []byte {
	return p.key.PubKey().SerializeCompressed()
}

// Sign signs msg, returning a 64-byte compact (R||S) signature.
func (p *PrivateKey) Sign(msg []byte) types.Signature {
	digest := sha256.Sum256(msg)
	// SignCompact yields [1 recovery byte | 32-byte R | 32-byte S]; the
	// recovery byte is dropped since verification here always carries an
	// explicit PeerId public key and never needs key recovery.
	compact := ecdsa.SignCompact(p.key, digest[:], true)
	var out types.Signature
	copy(out[:], compact[1:])
	return out
}

// Verify checks sig over msg against pubKeyBytes (33-byte compressed form,
// as published alongside the PeerId it hashes to).
func Verify(pubKeyBytes []byte, msg []byte, sig types.Signature) error {
	pub, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return ErrInvalidSignature
	}
	r := new(secp256k1.ModNScalar)
	s := new(secp256k1.ModNScalar)
	if overflow := r.SetByteSlice(sig[:32]); overflow {
		return ErrInvalidSignature
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow {
		return ErrInvalidSignature
	}
	digest := sha256.Sum256(msg)
	parsed := ecdsa.NewSignature(r, s)
	if !parsed.Verify(digest[:], pub) {
		return ErrInvalidSignature
	}
	return nil
}

// SumSHA256 returns the SHA-256 digest of data as a Hash256. SHA-256 is
// mandated by name in spec.md §4.B/§6 for state hashes, commitments and
// Merkle nodes, so this wraps crypto/sha256 directly rather than an
// ecosystem alternative (see DESIGN.md's standard-library justification).
func SumSHA256(data ...[]byte) types.Hash256 {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	var out types.Hash256
	copy(out[:], h.Sum(nil))
	return out
}

// RandomNonce draws 32 cryptographically random bytes for a commit-reveal
// nonce.
func RandomNonce() ([32]byte, error) {
	var nonce [32]byte
	_, err := rand.Read(nonce[:])
	return nonce, err
}
