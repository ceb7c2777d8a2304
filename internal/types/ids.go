// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package types defines the opaque identifiers and primitive wire values
// shared across every dicemesh component: PeerId, GameId, Hash256 and
// Signature.
package types

import (
	"bytes"
	"encoding/hex"
	"errors"
	"sort"
)

// ErrWrongLength is returned when a byte slice does not match a fixed-size type.
var ErrWrongLength = errors.New("wrong byte length")

// PeerId is a 32-byte opaque peer identifier. Equality is byte equality;
// peers sort by byte order for deterministic serialization.
type PeerId [32]byte

// PeerIdFromBytes copies b into a PeerId, requiring an exact 32-byte length.
func PeerIdFromBytes(b []byte) (PeerId, error) {
	var id PeerId
	if len(b) != len(id) {
		return id, ErrWrongLength
	}
	copy(id[:], b)
	return id, nil
}

func (p PeerId) String() string {
	return hex.EncodeToString(p[:])
}

// Less reports whether p sorts before other in ascending PeerId order.
func (p PeerId) Less(other PeerId) bool {
	return bytes.Compare(p[:], other[:]) < 0
}

// IsZero reports whether p is the zero value.
func (p PeerId) IsZero() bool {
	return p == PeerId{}
}

// SortPeerIds returns a sorted copy of ids in ascending byte order, the
// canonical order required by §4.A's entropy derivation and §4.B's balance
// serialization.
func SortPeerIds(ids []PeerId) []PeerId {
	out := make([]PeerId, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// GameId is a 16-byte opaque game identifier.
type GameId [16]byte

func GameIdFromBytes(b []byte) (GameId, error) {
	var id GameId
	if len(b) != len(id) {
		return id, ErrWrongLength
	}
	copy(id[:], b)
	return id, nil
}

func (g GameId) String() string {
	return hex.EncodeToString(g[:])
}

// Hash256 is a 32-byte cryptographic digest, produced by SHA-256.
type Hash256 [32]byte

func Hash256FromBytes(b []byte) (Hash256, error) {
	var h Hash256
	if len(b) != len(h) {
		return h, ErrWrongLength
	}
	copy(h[:], b)
	return h, nil
}

func (h Hash256) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash256) IsZero() bool {
	return h == Hash256{}
}

// Signature is a 64-byte signature over a canonical byte serialization,
// verifiable against a PeerId acting as the signer's public key.
type Signature [64]byte

func SignatureFromBytes(b []byte) (Signature, error) {
	var s Signature
	if len(b) != len(s) {
		return s, ErrWrongLength
	}
	copy(s[:], b)
	return s, nil
}
