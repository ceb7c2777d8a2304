// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"encoding/binary"

	"github.com/luxfi/dicemesh/internal/types"
)

// SyncRequest opens a sync session (§4.C phase 1 / §6).
type SyncRequest struct {
	SessionID uint64
	LocalRoot types.Hash256
	Bloom     []byte
}

func (m SyncRequest) Encode(dst []byte) []byte {
	dst = types.PutUint64LE(dst, m.SessionID)
	dst = append(dst, m.LocalRoot[:]...)
	dst = types.PutUvarint(dst, uint64(len(m.Bloom)))
	return append(dst, m.Bloom...)
}

func DecodeSyncRequest(b []byte) (SyncRequest, error) {
	if len(b) < 8+32 {
		return SyncRequest{}, ErrTruncated
	}
	var m SyncRequest
	m.SessionID = binary.LittleEndian.Uint64(b[0:8])
	copy(m.LocalRoot[:], b[8:40])
	n0, n, err := types.ReadUvarint(b[40:])
	if err != nil {
		return SyncRequest{}, err
	}
	pos := 40 + n
	if len(b)-pos < int(n0) {
		return SyncRequest{}, ErrTruncated
	}
	m.Bloom = append([]byte(nil), b[pos:pos+int(n0)]...)
	return m, nil
}

// SyncResponse answers a SyncRequest with the responder's own root and bloom.
type SyncResponse struct {
	SessionID  uint64
	Accepted   bool
	RemoteRoot types.Hash256
	Bloom      []byte
}

func (m SyncResponse) Encode(dst []byte) []byte {
	dst = types.PutUint64LE(dst, m.SessionID)
	accepted := byte(0)
	if m.Accepted {
		accepted = 1
	}
	dst = append(dst, accepted)
	dst = append(dst, m.RemoteRoot[:]...)
	dst = types.PutUvarint(dst, uint64(len(m.Bloom)))
	return append(dst, m.Bloom...)
}

func DecodeSyncResponse(b []byte) (SyncResponse, error) {
	if len(b) < 8+1+32 {
		return SyncResponse{}, ErrTruncated
	}
	var m SyncResponse
	m.SessionID = binary.LittleEndian.Uint64(b[0:8])
	m.Accepted = b[8] != 0
	copy(m.RemoteRoot[:], b[9:41])
	n0, n, err := types.ReadUvarint(b[41:])
	if err != nil {
		return SyncResponse{}, err
	}
	pos := 41 + n
	if len(b)-pos < int(n0) {
		return SyncResponse{}, ErrTruncated
	}
	m.Bloom = append([]byte(nil), b[pos:pos+int(n0)]...)
	return m, nil
}

// MerkleRequest asks for the children of a node at the given tree level/index
// during the Merkle-compare phase.
type MerkleRequest struct {
	SessionID uint64
	Level     uint32
	Index     uint32
}

// MerkleResponse carries the hashes of the requested node's children (or, at
// the leaf level, the leaf itself).
type MerkleResponse struct {
	SessionID uint64
	Level     uint32
	Index     uint32
	Children  []types.Hash256
}

// StateRequest asks for compact history records by game identifier.
type StateRequest struct {
	SessionID uint64
	GameIDs   []types.GameId
}

// StateResponse carries either full records or a binary diff against a
// common base (DiffUpdate), per the responder's choice.
type StateResponse struct {
	SessionID uint64
	Records   [][]byte
}

// DiffUpdate carries a binary diff of one game's history against BaseHash.
type DiffUpdate struct {
	GameID   types.GameId
	DiffData []byte
	BaseHash types.Hash256
}

// SyncComplete reports the final stats of a successful sync session.
type SyncComplete struct {
	SessionID       uint64
	RecordsSynced   uint32
	BytesTransferred uint64
}

// SyncError reports that a session failed; the session may be restarted
// with a fresh SessionID.
type SyncError struct {
	SessionID uint64
	Message   string
}
