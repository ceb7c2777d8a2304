// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state implements spec.md §4.B: the compact, bit-packed replicated
// game state, its copy-on-write clone semantics, and the deterministic
// state_hash used by consensus to detect divergence.
//
// Grounded on original_source/src/protocol/state/compact_state.rs for the
// header bit-layout, and on the teacher's state-sharing idiom in
// consensus.go (state passed by value with explicit Clone, never aliased
// across goroutines without an owning copy).
package state

import (
	"encoding/binary"
	"sort"
	"sync/atomic"

	"github.com/luxfi/dicemesh/internal/types"
	"github.com/luxfi/dicemesh/internal/xcrypto"
)

// Phase is the craps-style game phase packed into the header's 2 phase bits.
type Phase byte

const (
	PhaseComeOut Phase = 0
	PhasePoint   Phase = 1
	PhaseResolved Phase = 2
)

// header packs spec.md §4.B's 128-bit compact header:
//
//	phase:2 | point:4 | roll_count:24 | fire_points:4 | hot_streak:16 |
//	series_id:32 | reserved:46
//
// into two uint64 words for cheap copy and comparison.
type header struct {
	lo uint64 // phase(2) | point(4) | roll_count(24) | fire_points(4) | hot_streak(16) | low bits of series_id(14)
	hi uint64 // series_id bits 14-31 (series_id >> 14); the bits above them are reserved and zero
}

func packHeader(phase Phase, point uint8, rollCount uint32, firePoints uint8, hotStreak uint16, seriesID uint32) header {
	var lo uint64
	lo |= uint64(phase) & 0x3
	lo |= (uint64(point) & 0xF) << 2
	lo |= (uint64(rollCount) & 0xFFFFFF) << 6
	lo |= (uint64(firePoints) & 0xF) << 30
	lo |= (uint64(hotStreak) & 0xFFFF) << 34
	lo |= (uint64(seriesID) & 0x3FFF) << 50
	hi := uint64(seriesID) >> 14
	return header{lo: lo, hi: hi}
}

func (h header) phase() Phase        { return Phase(h.lo & 0x3) }
func (h header) point() uint8        { return uint8((h.lo >> 2) & 0xF) }
func (h header) rollCount() uint32   { return uint32((h.lo >> 6) & 0xFFFFFF) }
func (h header) firePoints() uint8   { return uint8((h.lo >> 30) & 0xF) }
func (h header) hotStreak() uint16   { return uint16((h.lo >> 34) & 0xFFFF) }
func (h header) seriesID() uint32    { return uint32(h.lo>>50) | uint32(h.hi<<14) }

// body holds the mutable, reference-counted payload shared by copy-on-write
// clones. refs tracks outstanding owners; a mutation that finds refs > 1
// deep-copies before writing, per §4.B's CoW rule.
type body struct {
	refs     int32
	header   header
	balances map[types.PeerId]uint64
	// No player order is stored: SortedPlayers derives state_hash's
	// ascending-PeerId order from balances' keys on every call.
}

func newBody() *body {
	return &body{refs: 1, balances: make(map[types.PeerId]uint64)}
}

// Game is the compact replicated state of a single dice game, per §4.B.
// The zero value is not usable; construct with New.
type Game struct {
	id      types.GameId
	seqNum  uint64
	body    *body
}

// New constructs a fresh Game in ComeOut phase with no players.
func New(id types.GameId) *Game {
	return &Game{id: id, seqNum: 0, body: newBody()}
}

// GameId returns the game's identifier.
func (g *Game) GameId() types.GameId { return g.id }

// SeqNum returns the monotonic sequence number of the last applied operation.
func (g *Game) SeqNum() uint64 { return g.seqNum }

func (g *Game) Phase() Phase       { return g.body.header.phase() }
func (g *Game) Point() uint8       { return g.body.header.point() }
func (g *Game) RollCount() uint32  { return g.body.header.rollCount() }
func (g *Game) FirePoints() uint8  { return g.body.header.firePoints() }
func (g *Game) HotStreak() uint16  { return g.body.header.hotStreak() }
func (g *Game) SeriesID() uint32   { return g.body.header.seriesID() }

// Balance returns a player's balance, or 0 if the player has no entry.
func (g *Game) Balance(p types.PeerId) uint64 { return g.body.balances[p] }

// SortedPlayers returns every player with a balance entry, ascending by
// PeerId — the canonical iteration order for state_hash (§4.B) and for
// balance-sum conservation checks.
func (g *Game) SortedPlayers() []types.PeerId {
	out := make([]types.PeerId, 0, len(g.body.balances))
	for p := range g.body.balances {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Clone returns a copy-on-write handle to the same body: cheap (no
// allocation beyond the new Game struct) until the first mutation on either
// handle, at which point that handle deep-copies the body before writing.
func (g *Game) Clone() *Game {
	atomic.AddInt32(&g.body.refs, 1)
	return &Game{id: g.id, seqNum: g.seqNum, body: g.body}
}

// mutate returns a body safe to write to: g.body itself if this handle is
// the sole owner, or a deep copy (with refs reset to 1) otherwise.
func (g *Game) mutate() *body {
	if atomic.LoadInt32(&g.body.refs) == 1 {
		return g.body
	}
	atomic.AddInt32(&g.body.refs, -1)
	nb := &body{
		refs:     1,
		header:   g.body.header,
		balances: make(map[types.PeerId]uint64, len(g.body.balances)),
	}
	for k, v := range g.body.balances {
		nb.balances[k] = v
	}
	g.body = nb
	return nb
}

// SetHeader replaces the packed header fields, triggering CoW if this
// handle's body is shared.
func (g *Game) SetHeader(phase Phase, point uint8, rollCount uint32, firePoints uint8, hotStreak uint16, seriesID uint32) {
	b := g.mutate()
	b.header = packHeader(phase, point, rollCount, firePoints, hotStreak, seriesID)
}

// SetBalance writes a player's balance, triggering CoW if shared.
func (g *Game) SetBalance(p types.PeerId, balance uint64) {
	b := g.mutate()
	b.balances[p] = balance
}

// AdvanceSeq bumps the sequence number after an operation is applied;
// called by the consensus engine once a proposal finalizes against this
// state.
func (g *Game) AdvanceSeq() { g.seqNum++ }

// StateHash computes §4.B's deterministic state_hash:
//
//	H(game_id ∥ seq_num_le ∥ timestamp_le ∥ phase ∥
//	  for each player in ascending PeerId order: player ∥ balance_le)
func (g *Game) StateHash(timestamp uint64) types.Hash256 {
	var buf []byte
	buf = append(buf, g.id[:]...)

	var seqLE [8]byte
	binary.LittleEndian.PutUint64(seqLE[:], g.seqNum)
	buf = append(buf, seqLE[:]...)

	var tsLE [8]byte
	binary.LittleEndian.PutUint64(tsLE[:], timestamp)
	buf = append(buf, tsLE[:]...)

	buf = append(buf, byte(g.Phase()))

	for _, p := range g.SortedPlayers() {
		buf = append(buf, p[:]...)
		var balLE [8]byte
		binary.LittleEndian.PutUint64(balLE[:], g.body.balances[p])
		buf = append(buf, balLE[:]...)
	}

	return xcrypto.SumSHA256(buf)
}

// TotalBalance sums every player's balance, for the conservation-of-value
// invariant that Chain.Tick checks after every applied operation.
func (g *Game) TotalBalance() (uint64, error) {
	vals := make([]uint64, 0, len(g.body.balances))
	for _, v := range g.body.balances {
		vals = append(vals, v)
	}
	return types.SumBalances(vals)
}
