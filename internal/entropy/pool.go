// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package entropy implements spec.md §4.A: the commit-reveal randomness
// protocol that derives an unbiased dice roll from an aggregated pool of
// per-peer secret nonces. No single peer, nor any proper subset smaller
// than the participant set, can bias or predict the outcome: each peer
// commits to a nonce before any reveal, and the roll is a pure function of
// the final reveal set.
//
// Grounded on original_source/src/protocol/consensus/commit_reveal.rs for
// phase semantics; there is no teacher analog (luxfi-consensus has no
// commit-reveal component), so the Go shape follows this module's own
// struct+receiver idiom.
package entropy

import (
	"encoding/binary"
	"errors"
	"sort"

	"github.com/luxfi/dicemesh/internal/types"
	"github.com/luxfi/dicemesh/internal/xcrypto"
)

var (
	ErrAlreadyCommitted   = errors.New("peer already committed this round")
	ErrUnknownCommit      = errors.New("no commit recorded for this peer/round")
	ErrRevealMismatch     = errors.New("reveal does not match commitment")
	ErrInsufficientReveals = errors.New("insufficient reveals to derive a fair roll")
	ErrCommitNotFinalized = errors.New("reveal received before commit set finalized")
)

// Commitment is one peer's published H(nonce ∥ round) for a round, per §4.A.
type Commitment struct {
	Player     types.PeerId
	Round      uint64
	Commitment types.Hash256
}

// Reveal is one peer's published nonce for a round it committed to.
type Reveal struct {
	Player types.PeerId
	Round  uint64
	Nonce  [32]byte
}

// CommitHash computes H(nonce ∥ round_le) — the value a peer publishes as
// its commitment, and the value a reveal is checked against.
func CommitHash(nonce [32]byte, round uint64) types.Hash256 {
	var roundLE [8]byte
	binary.LittleEndian.PutUint64(roundLE[:], round)
	return xcrypto.SumSHA256(nonce[:], roundLE[:])
}

// Pool aggregates one round's commitments and reveals and derives the dice
// roll once enough reveals are in. A Pool is single-round: a freshly
// constructed Pool is required for the next round, per spec.md §5's
// "fresh pool per round" resource policy.
type Pool struct {
	round       uint64
	commits     map[types.PeerId]Commitment
	commitOrder []types.PeerId

	commitSetFinalized bool
	pendingReveals      []Reveal // reveals received before finalization

	reveals     map[types.PeerId]Reveal
	nonRevealers types.Set[types.PeerId]
}

// NewPool constructs an empty pool for round.
func NewPool(round uint64) *Pool {
	return &Pool{
		round:        round,
		commits:      make(map[types.PeerId]Commitment),
		reveals:      make(map[types.PeerId]Reveal),
		nonRevealers: types.SetOf[types.PeerId](),
	}
}

// Round returns the round this pool is gathering entropy for.
func (p *Pool) Round() uint64 { return p.round }

// AddCommit records a peer's commitment. Signature verification is the
// caller's responsibility (commits only reach the pool after the
// consensus engine finalizes the commit set, per §4.A phase 1).
func (p *Pool) AddCommit(c Commitment) error {
	if c.Round != p.round {
		return ErrUnknownCommit
	}
	if _, ok := p.commits[c.Player]; ok {
		return ErrAlreadyCommitted
	}
	p.commits[c.Player] = c
	p.commitOrder = append(p.commitOrder, c.Player)
	return nil
}

// FinalizeCommitSet marks the commit set closed, releasing any reveals that
// arrived early into the active reveal set. Chain calls it each time a
// reveal operation for this round is finalized, before adding that
// reveal; it does not count commits itself.
func (p *Pool) FinalizeCommitSet() error {
	p.commitSetFinalized = true
	pending := p.pendingReveals
	p.pendingReveals = nil
	for _, r := range pending {
		if err := p.AddReveal(r); err != nil {
			return err
		}
	}
	return nil
}

// AddReveal verifies and records a reveal. A reveal arriving before the
// commit set is finalized is buffered, not rejected (§4.A phase 2).
func (p *Pool) AddReveal(r Reveal) error {
	if r.Round != p.round {
		return ErrUnknownCommit
	}
	if !p.commitSetFinalized {
		p.pendingReveals = append(p.pendingReveals, r)
		return ErrCommitNotFinalized
	}
	c, ok := p.commits[r.Player]
	if !ok {
		return ErrUnknownCommit
	}
	if CommitHash(r.Nonce, r.Round) != c.Commitment {
		return ErrRevealMismatch
	}
	p.reveals[r.Player] = r
	return nil
}

// MarkNonRevealers records, after the reveal deadline, every committed peer
// that never revealed — they are suspects per §4.A's failure semantics.
func (p *Pool) MarkNonRevealers() []types.PeerId {
	var missing []types.PeerId
	for _, player := range p.commitOrder {
		if _, ok := p.reveals[player]; !ok {
			missing = append(missing, player)
			p.nonRevealers.Add(player)
		}
	}
	return missing
}

// Roll is a derived dice outcome: two faces in [1,6] plus the peer set the
// derivation was computed over, for reproducibility by any observer.
type Roll struct {
	D1, D2    byte
	Round     uint64
	Revealers []types.PeerId
}

// DeriveRoll computes the round's dice roll from the current reveal set,
// per §4.A phase 3: concatenate nonces in ascending PeerId order, append
// the round counter as little-endian 8 bytes, SHA-256 the result, and map
// output bytes [0] and [1] as (b mod 6) + 1.
//
// minReveals is the failure-semantics floor from §4.A (see
// MinRevealFloor): if fewer than ⌊|committed|/2⌋+1 reveals are present, the round cannot be fairly
// derived and ErrInsufficientReveals is returned — the caller restarts the
// round excluding the non-revealer(s).
func (p *Pool) DeriveRoll(minReveals int) (Roll, error) {
	if len(p.reveals) < minReveals {
		return Roll{}, ErrInsufficientReveals
	}

	revealers := make([]types.PeerId, 0, len(p.reveals))
	for player := range p.reveals {
		revealers = append(revealers, player)
	}
	revealers = types.SortPeerIds(revealers)

	var buf []byte
	for _, player := range revealers {
		r := p.reveals[player]
		buf = append(buf, r.Nonce[:]...)
	}
	var roundLE [8]byte
	binary.LittleEndian.PutUint64(roundLE[:], p.round)
	buf = append(buf, roundLE[:]...)

	digest := xcrypto.SumSHA256(buf)
	d1 := digest[0]%6 + 1
	d2 := digest[1]%6 + 1

	return Roll{D1: d1, D2: d2, Round: p.round, Revealers: revealers}, nil
}

// MinRevealFloor computes ⌊committed/2⌋+1, the minimum reveal count §4.A's
// failure semantics require before a round may be re-derived excluding
// non-revealers.
func MinRevealFloor(committed int) int {
	return committed/2 + 1
}

// CommitFloor computes ⌈2*participants/3⌉+1, the commit-set finalization
// threshold from §4.A phase 1 (delegated to the consensus engine's vote
// threshold in practice, exposed here for documentation/testing symmetry).
func CommitFloor(participants int) int {
	return ceilDiv(2*participants, 3) + 1
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// sortedCopy returns a copy of ids in ascending PeerId order, a
// deterministic ordering that does not depend on map iteration.
func sortedCopy(ids []types.PeerId) []types.PeerId {
	out := append([]types.PeerId(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
