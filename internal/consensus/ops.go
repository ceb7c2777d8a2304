// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"errors"

	"github.com/luxfi/dicemesh/internal/state"
	"github.com/luxfi/dicemesh/internal/types"
	"github.com/luxfi/dicemesh/internal/wire"
)

var (
	ErrInsufficientBalance = errors.New("bet exceeds player balance")
	ErrUnknownBetKind      = errors.New("unknown bet kind")
	ErrPhaseMismatch       = errors.New("operation not valid in the game's current phase")
)

// ApplyOperation mutates g according to op, implementing §4's six
// GameOperation variants. It is the default applyOp passed to Chain.Tick;
// callers needing custom bet-resolution rules may supply their own
// function with the same signature instead. treasury may be nil, in which
// case operations that move value to or from the house (PlaceBet's escrow,
// UpdateBalances' settlements) skip the Treasury side of the ledger — only
// appropriate for tests exercising state transitions in isolation, since a
// live Chain's Treasury must track every such movement to keep
// Treasury.Conserves meaningful.
func ApplyOperation(g *state.Game, op wire.Operation, treasury *Treasury) error {
	switch op.Tag {
	case wire.OpPlaceBet:
		return applyPlaceBet(g, op, treasury)
	case wire.OpCommitRandomness, wire.OpRevealRandomness:
		// Commit/reveal operations leave the game state unchanged; the
		// commit-reveal state lives in internal/entropy's Pool, which
		// Chain.Tick feeds with each finalized commit/reveal operation
		// after this function returns.
		return nil
	case wire.OpProcessRoll:
		return applyProcessRoll(g, op)
	case wire.OpResolvePhase:
		return applyResolvePhase(g, op)
	case wire.OpUpdateBalances:
		return applyUpdateBalances(g, op, treasury)
	default:
		return ErrUnknownOpTag
	}
}

var ErrUnknownOpTag = errors.New("unknown operation tag")

// applyPlaceBet escrows a player's wager with the house: the stake leaves
// the player's balance and, since it isn't credited to any other player,
// is held by Treasury until an UpdateBalances settlement pays it back out
// (win) or the house keeps it (loss).
func applyPlaceBet(g *state.Game, op wire.Operation, treasury *Treasury) error {
	bal := g.Balance(op.Player)
	if op.Amount > bal {
		return ErrInsufficientBalance
	}
	g.SetBalance(op.Player, bal-op.Amount)
	if treasury != nil {
		treasury.Apply(-int64(op.Amount))
	}
	return nil
}

// applyProcessRoll advances the point/series/hot-streak/fire-point bits
// per the rolled dice, per §4.B's header semantics: in ComeOut, a 7 or 11
// leaves the game in ComeOut with no point, a 2, 3 or 12 stays in ComeOut
// and resets fire points and the hot streak, and any other total
// establishes that total as the point; in Point phase, rolling the point
// resolves the series, rolling a 7 ("seven-out") ends the hot streak and
// resets fire points.
func applyProcessRoll(g *state.Game, op wire.Operation) error {
	total := int(op.D1) + int(op.D2)
	rollCount := g.RollCount() + 1

	switch g.Phase() {
	case state.PhaseComeOut:
		switch total {
		case 7, 11:
			g.SetHeader(state.PhaseComeOut, 0, rollCount, g.FirePoints(), g.HotStreak(), g.SeriesID())
		case 2, 3, 12:
			g.SetHeader(state.PhaseComeOut, 0, rollCount, 0, 0, g.SeriesID())
		default:
			g.SetHeader(state.PhasePoint, uint8(total), rollCount, g.FirePoints(), g.HotStreak(), g.SeriesID())
		}
	case state.PhasePoint:
		switch {
		case total == int(g.Point()):
			firePoints := g.FirePoints()
			if firePoints < 6 {
				firePoints++
			}
			g.SetHeader(state.PhaseComeOut, 0, rollCount, firePoints, g.HotStreak()+1, g.SeriesID()+1)
		case total == 7:
			g.SetHeader(state.PhaseComeOut, 0, rollCount, 0, 0, g.SeriesID()+1)
		default:
			g.SetHeader(state.PhasePoint, g.Point(), rollCount, g.FirePoints(), g.HotStreak(), g.SeriesID())
		}
	default:
		return ErrPhaseMismatch
	}
	return nil
}

func applyResolvePhase(g *state.Game, op wire.Operation) error {
	g.SetHeader(state.Phase(op.NewPhase), g.Point(), g.RollCount(), g.FirePoints(), g.HotStreak(), g.SeriesID())
	return nil
}

// applyUpdateBalances nets every player's deltas and applies them. Deltas
// need not sum to zero across players: a net-positive sum is a house
// payout (e.g. a pass-line win, paid from escrowed/treasury funds), a
// net-negative sum is a collection (e.g. a losing bet's stake settling to
// the house). Either way, Treasury.Apply is called with the net so
// Treasury.Conserves keeps holding.
func applyUpdateBalances(g *state.Game, op wire.Operation, treasury *Treasury) error {
	deltas := make(map[types.PeerId]int64, len(op.BalanceEntries))
	order := make([]types.PeerId, 0, len(op.BalanceEntries))
	for _, e := range op.BalanceEntries {
		if _, seen := deltas[e.Player]; !seen {
			order = append(order, e.Player)
		}
		deltas[e.Player] += e.Delta
	}
	var net int64
	for _, player := range order {
		delta := deltas[player]
		newBal, err := types.AddBalance(g.Balance(player), delta)
		if err != nil {
			return err
		}
		g.SetBalance(player, newBal)
		net += delta
	}
	if treasury != nil {
		treasury.Apply(net)
	}
	return nil
}
