// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import "sync"

// Treasury models the house/bank as an external value source, resolving
// spec.md §9's open question on treasury accounting: player balances
// conserve among themselves under UpdateBalances, but bets paid out or
// collected cross a boundary with an external treasury account that is not
// itself part of any game's replicated state (grounded on
// original_source/src/economy/treasury.rs, which tracks the bank
// separately from player ledgers for exactly this reason — game state
// conservation checks would otherwise reject every payout as a
// counterfeit balance increase).
type Treasury struct {
	mu      sync.Mutex
	balance int64
	floor   int64 // what player total plus treasury balance must sum to, i.e. the funds that must always be accounted for somewhere
}

// NewTreasury constructs a Treasury seeded with startingBalance, alongside
// the player pool's own starting total (initialPlayerTotal). The sum of
// the two is fixed for the life of the Treasury as the conserved floor:
// every subsequent Apply moves value between the two sides without
// changing that sum.
func NewTreasury(startingBalance int64, initialPlayerTotal uint64) *Treasury {
	return &Treasury{balance: startingBalance, floor: startingBalance + int64(initialPlayerTotal)}
}

// Apply records a transfer between the treasury and the player pool: a
// positive delta is a payout (treasury decreases, players increase), a
// negative delta is a collection (treasury increases, players decrease).
func (t *Treasury) Apply(delta int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balance -= delta
}

// Balance returns the treasury's current balance.
func (t *Treasury) Balance() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance
}

// Conserves checks the supplemented invariant: player total plus treasury
// balance must equal the floor established at genesis. Player-to-player
// transfers (bets among players, not against the house) never change this
// sum; only Apply does, and only in lockstep with the matching PlaceBet
// or UpdateBalances operation.
func (t *Treasury) Conserves(playerTotal uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int64(playerTotal)+t.balance == t.floor
}
