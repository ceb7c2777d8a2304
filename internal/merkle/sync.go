// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package merkle

import (
	"errors"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/luxfi/dicemesh/internal/state"
	"github.com/luxfi/dicemesh/internal/types"
	"github.com/luxfi/dicemesh/internal/wire"
)

// SessionPhase is the sync session's state machine position, per §4.C's
// five-phase protocol: Bloom exchange → Merkle compare → state
// request/transfer → verify → complete/failed.
type SessionPhase int

const (
	PhaseBloomExchange SessionPhase = iota
	PhaseMerkleCompare
	PhaseStateTransfer
	PhaseVerify
	PhaseComplete
	PhaseFailed
)

var (
	ErrSessionNotInPhase = errors.New("sync session not in the required phase")
	ErrVerifyFailed      = errors.New("post-transfer state hash verification failed")
)

// falsePositiveRate is the Bloom filter's target false-positive rate for
// divergence detection (§4.C): low enough that a false "no divergence" is
// rare, high enough to keep the filter compact over a mesh link.
const falsePositiveRate = 0.01

// BuildBloom inserts every game id's state hash into a Bloom filter sized
// for n expected entries, for the session's opening BloomExchange phase.
func BuildBloom(n int, entries map[types.GameId]types.Hash256) *bloom.BloomFilter {
	if n < 1 {
		n = 1
	}
	f := bloom.NewWithEstimates(uint(n), falsePositiveRate)
	for id, h := range entries {
		f.Add(bloomKey(id, h))
	}
	return f
}

func bloomKey(id types.GameId, h types.Hash256) []byte {
	key := make([]byte, 0, len(id)+len(h))
	key = append(key, id[:]...)
	key = append(key, h[:]...)
	return key
}

// Divergent returns the subset of local entries whose (game_id, state_hash)
// pair the remote Bloom filter does NOT contain — candidates for
// divergence, subject to the filter's false-positive rate (§4.C).
func Divergent(remote *bloom.BloomFilter, local map[types.GameId]types.Hash256) []types.GameId {
	var out []types.GameId
	for id, h := range local {
		if !remote.Test(bloomKey(id, h)) {
			out = append(out, id)
		}
	}
	return out
}

// Session drives one peer-to-peer sync session through §4.C's phases.
type Session struct {
	id        uint64
	phase     SessionPhase
	localTree *Tree
	gameOrder []types.GameId // leaf index -> game id, ascending GameId order

	recordsSynced    uint32
	bytesTransferred uint64
}

// NewSession starts a sync session over the given local game records,
// keyed by game id and hashed to a Merkle leaf per record's Snapshot
// encoding.
func NewSession(id uint64, games map[types.GameId]*state.Game) *Session {
	ids := make([]types.GameId, 0, len(games))
	for gid := range games {
		ids = append(ids, gid)
	}
	sortGameIds(ids)

	leaves := make([]types.Hash256, len(ids))
	for i, gid := range ids {
		leaves[i] = Leaf(games[gid].Snapshot().Encode())
	}

	return &Session{
		id:        id,
		phase:     PhaseBloomExchange,
		localTree: Build(leaves),
		gameOrder: ids,
	}
}

func sortGameIds(ids []types.GameId) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && string(ids[j][:]) < string(ids[j-1][:]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

// Root returns the local Merkle root for the opening MerkleCompare message.
func (s *Session) Root() types.Hash256 { return s.localTree.Root() }

// AdvanceToMerkleCompare transitions out of BloomExchange once both peers'
// filters have been exchanged and at least one divergent candidate exists
// (callers that found zero divergence should instead call Complete
// directly, skipping the remaining phases per §4.C).
func (s *Session) AdvanceToMerkleCompare() error {
	if s.phase != PhaseBloomExchange {
		return ErrSessionNotInPhase
	}
	s.phase = PhaseMerkleCompare
	return nil
}

// AdvanceToStateTransfer transitions into requesting full records for the
// game ids that the Merkle compare phase identified as diverging.
func (s *Session) AdvanceToStateTransfer() error {
	if s.phase != PhaseMerkleCompare {
		return ErrSessionNotInPhase
	}
	s.phase = PhaseStateTransfer
	return nil
}

// ApplyTransfer records one received StateResponse record against the
// running transfer stats; the session stays in StateTransfer until
// AdvanceToVerify is called. Verification itself (re-deriving state_hash
// and comparing) is the caller's responsibility since it needs the
// reconstructed state.Game.
func (s *Session) ApplyTransfer(recordBytes []byte) error {
	if s.phase != PhaseStateTransfer {
		return ErrSessionNotInPhase
	}
	s.recordsSynced++
	s.bytesTransferred += uint64(len(recordBytes))
	return nil
}

// AdvanceToVerify transitions from StateTransfer into the Verify phase.
func (s *Session) AdvanceToVerify() error {
	if s.phase != PhaseStateTransfer {
		return ErrSessionNotInPhase
	}
	s.phase = PhaseVerify
	return nil
}

// Complete marks the session successful, producing the SyncComplete
// message to send. Callers that found zero Bloom divergence may call this
// directly from PhaseBloomExchange.
func (s *Session) Complete() wire.SyncComplete {
	s.phase = PhaseComplete
	return wire.SyncComplete{
		SessionID:        s.id,
		RecordsSynced:    s.recordsSynced,
		BytesTransferred: s.bytesTransferred,
	}
}

// Fail marks the session failed, producing the SyncError message to send.
// Per §4.C, a failed session may be restarted with a fresh session id.
func (s *Session) Fail(reason string) wire.SyncError {
	s.phase = PhaseFailed
	return wire.SyncError{SessionID: s.id, Message: reason}
}

// Phase returns the session's current phase.
func (s *Session) Phase() SessionPhase { return s.phase }
