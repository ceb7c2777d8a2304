// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"

	"github.com/luxfi/dicemesh/internal/types"
)

// Snapshot is a full, self-contained serialization of a Game at a point in
// time, used as the base record a sequence of Deltas reconstructs from
// (§4.C's "state request/transfer" sync phase).
type Snapshot struct {
	GameID    types.GameId
	SeqNum    uint64
	HeaderLo  uint64
	HeaderHi  uint64
	Players   []types.PeerId
	Balances  []uint64
}

// Snapshot captures the current state of g as a Snapshot value.
func (g *Game) Snapshot() Snapshot {
	players := g.SortedPlayers()
	balances := make([]uint64, len(players))
	for i, p := range players {
		balances[i] = g.body.balances[p]
	}
	return Snapshot{
		GameID:   g.id,
		SeqNum:   g.seqNum,
		HeaderLo: g.body.header.lo,
		HeaderHi: g.body.header.hi,
		Players:  players,
		Balances: balances,
	}
}

// Restore reconstructs a Game from a Snapshot.
func Restore(s Snapshot) *Game {
	b := newBody()
	b.header = header{lo: s.HeaderLo, hi: s.HeaderHi}
	for i, p := range s.Players {
		b.balances[p] = s.Balances[i]
	}
	return &Game{id: s.GameID, seqNum: s.SeqNum, body: b}
}

// Encode serializes a Snapshot to bytes for the sync-session StateResponse
// message (§6).
func (s Snapshot) Encode() []byte {
	out := make([]byte, 0, 16+len(s.GameID)+8+8+8+len(s.Players)*40)
	out = append(out, s.GameID[:]...)
	out = types.PutUint64LE(out, s.SeqNum)
	out = types.PutUint64LE(out, s.HeaderLo)
	out = types.PutUint64LE(out, s.HeaderHi)
	out = types.PutUvarint(out, uint64(len(s.Players)))
	for i, p := range s.Players {
		out = append(out, p[:]...)
		out = types.PutUint64LE(out, s.Balances[i])
	}
	return out
}

// DecodeSnapshot parses a Snapshot previously produced by Encode.
func DecodeSnapshot(b []byte) (Snapshot, error) {
	if len(b) < 16+8+8+8 {
		return Snapshot{}, ErrTruncatedSnapshot
	}
	var s Snapshot
	copy(s.GameID[:], b[0:16])
	pos := 16
	s.SeqNum = binary.LittleEndian.Uint64(b[pos : pos+8])
	pos += 8
	s.HeaderLo = binary.LittleEndian.Uint64(b[pos : pos+8])
	pos += 8
	s.HeaderHi = binary.LittleEndian.Uint64(b[pos : pos+8])
	pos += 8

	count, n, err := types.ReadUvarint(b[pos:])
	if err != nil {
		return Snapshot{}, err
	}
	pos += n
	s.Players = make([]types.PeerId, count)
	s.Balances = make([]uint64, count)
	for i := range s.Players {
		if len(b)-pos < 32+8 {
			return Snapshot{}, ErrTruncatedSnapshot
		}
		copy(s.Players[i][:], b[pos:pos+32])
		pos += 32
		s.Balances[i] = binary.LittleEndian.Uint64(b[pos : pos+8])
		pos += 8
	}
	return s, nil
}

// Delta is an incremental state change applied against a base SeqNum,
// reconstructable without retransmitting the full Snapshot (§4.C).
type Delta struct {
	GameID       types.GameId
	BaseSeqNum   uint64
	NewSeqNum    uint64
	HeaderLo     uint64
	HeaderHi     uint64
	BalanceDiffs map[types.PeerId]uint64 // full post-delta balance, only for changed players
}

// Apply reconstructs the post-delta Game from g (which must be at
// d.BaseSeqNum) by cloning and overlaying the delta's changes. Returns
// ErrDeltaBaseMismatch if g is not at the delta's expected base.
func (d Delta) Apply(g *Game) (*Game, error) {
	if g.seqNum != d.BaseSeqNum {
		return nil, ErrDeltaBaseMismatch
	}
	ng := g.Clone()
	ng.body = ng.mutate()
	ng.body.header = header{lo: d.HeaderLo, hi: d.HeaderHi}
	for p, bal := range d.BalanceDiffs {
		ng.body.balances[p] = bal
	}
	ng.seqNum = d.NewSeqNum
	return ng, nil
}

// DeltaFrom computes the Delta needed to go from base to g. Both must share
// the same GameId.
func DeltaFrom(base, g *Game) Delta {
	diffs := make(map[types.PeerId]uint64)
	for _, p := range g.SortedPlayers() {
		nb := g.body.balances[p]
		if ob, ok := base.body.balances[p]; !ok || ob != nb {
			diffs[p] = nb
		}
	}
	return Delta{
		GameID:       g.id,
		BaseSeqNum:   base.seqNum,
		NewSeqNum:    g.seqNum,
		HeaderLo:     g.body.header.lo,
		HeaderHi:     g.body.header.hi,
		BalanceDiffs: diffs,
	}
}
