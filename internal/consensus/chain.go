// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"errors"
	"time"

	"github.com/luxfi/dicemesh/internal/entropy"
	"github.com/luxfi/dicemesh/internal/state"
	"github.com/luxfi/dicemesh/internal/types"
	"github.com/luxfi/dicemesh/internal/wire"
)

var (
	ErrForkRejected      = errors.New("competing proposal extends a known but non-canonical predecessor")
	ErrUnknownPredecessor = errors.New("proposal's prev_state_hash matches no known finalized state")
	ErrConservationViolated = errors.New("balance conservation violated by this operation")
)

// Block is one finalized entry of the canonical, append-only chain (§4.D):
// a finalized Proposal plus the resulting state_hash.
type Block struct {
	Proposal  wire.Proposal
	StateHash types.Hash256
	Game      *state.Game
}

// Chain is the append-only sequence of finalized blocks for one game,
// plus the set of open (unfinalized) proposals competing to extend it.
//
// Grounded on the teacher's acceptor.go/acceptor_group.go "accept and move
// on, never revisit" idiom: Tick is the only way a Block is appended,
// and once appended its VoteTracker is dropped (§4.D: "finalization drops
// the VoteTracker").
type Chain struct {
	blocks []Block
	open   map[types.Hash256]*GameProposal // keyed by ProposalID

	Treasury *Treasury
	Suspects *SuspectTracker

	genesis *state.Game

	clockSkew time.Duration
	pubKeys   map[types.PeerId][]byte

	entropyPools  map[uint64]*entropy.Pool
	entropyStarts map[uint64]time.Time
}

// NewChain starts a chain with the given genesis game state. suspects may
// be nil, in which case double-vote and non-reveal events are detected but
// never accumulate toward exclusion — useful for isolated tests that don't
// exercise §8's Byzantine-suspect scenario. clockSkew bounds how far a
// Proposal/Vote timestamp may drift from the local clock (pkg/config's
// ClockSkewTolerance).
func NewChain(genesis *state.Game, treasury *Treasury, suspects *SuspectTracker, clockSkew time.Duration) *Chain {
	return &Chain{
		blocks:        nil,
		open:          make(map[types.Hash256]*GameProposal),
		Treasury:      treasury,
		Suspects:      suspects,
		genesis:       genesis,
		clockSkew:     clockSkew,
		pubKeys:       make(map[types.PeerId][]byte),
		entropyPools:  make(map[uint64]*entropy.Pool),
		entropyStarts: make(map[uint64]time.Time),
	}
}

// RegisterParticipant publishes peer's compressed public key so its
// Proposals and Votes can be signature-checked. A peer with no registered
// key is treated as a non-participant and rejected (§4.D).
func (c *Chain) RegisterParticipant(peer types.PeerId, pubKey []byte) {
	c.pubKeys[peer] = pubKey
}

// Head returns the most recently finalized Block, or the zero Block if the
// chain has no finalized blocks yet.
func (c *Chain) Head() (Block, bool) {
	if len(c.blocks) == 0 {
		return Block{}, false
	}
	return c.blocks[len(c.blocks)-1], true
}

// SubmitProposal validates and admits a new open GameProposal. It returns
// an error, and casts no vote, when the proposer is not a registered
// participant, the proposal_id or signature does not verify, or the
// timestamp is outside clock skew tolerance. It then applies fork
// handling: once the chain has a head, the proposal's prev_state_hash must
// match the head's state_hash, and any other value (whether a known
// non-canonical predecessor or an unknown one) is rejected with
// ErrForkRejected.
func (c *Chain) SubmitProposal(p wire.Proposal, now time.Time) (*GameProposal, error) {
	pubKey, ok := c.pubKeys[p.Proposer]
	if !ok {
		return nil, ErrUnknownVoter
	}
	if err := VerifyProposalSignature(p, pubKey); err != nil {
		return nil, err
	}
	if err := ValidateTimestamp(p.Timestamp, now, c.clockSkew); err != nil {
		return nil, err
	}

	if head, ok := c.Head(); ok {
		if p.PrevStateHash != head.StateHash {
			return nil, ErrForkRejected
		}
	}
	if _, exists := c.open[p.ProposalID]; exists {
		return c.open[p.ProposalID], nil
	}
	gp := &GameProposal{Msg: p, Votes: NewVoteTracker(), SubmittedAt: now}
	c.open[p.ProposalID] = gp
	return gp, nil
}

// Vote validates and casts a signed Vote on an open proposal, per §4.D:
// the voter must be a registered participant, the signature must check out
// against its timestamp-bound unsigned fields, and the timestamp must fall
// within clock skew tolerance. A second vote from a peer that already
// voted is rejected and raises a Byzantine-suspect flag against it (§8
// scenario 2: double-voting is grounds for suspicion, not merely a
// dropped message).
func (c *Chain) Vote(v wire.Vote, now time.Time) error {
	gp, ok := c.open[v.ProposalID]
	if !ok {
		return ErrProposalNotFound
	}
	pubKey, ok := c.pubKeys[v.Voter]
	if !ok {
		return ErrUnknownVoter
	}
	if err := VerifyVoteSignature(v, pubKey); err != nil {
		return err
	}
	if err := ValidateTimestamp(v.Timestamp, now, c.clockSkew); err != nil {
		return err
	}

	err := gp.Votes.CastVote(v.Voter, v.Direction)
	if err != nil {
		if c.Suspects != nil {
			c.Suspects.Raise(v.Voter, now)
		}
		return err
	}
	return nil
}

// Tick evaluates every open proposal against the current participant
// count, finalizing or dropping as thresholds dictate, and returns
// AntiCheatFlags keyed by proposal for those decided this tick (accepted
// or rejected) that tripped at least one heuristic.
func (c *Chain) Tick(participants int, now time.Time, fastWindow time.Duration, applyOp func(*state.Game, wire.Operation, *Treasury) error) (map[types.Hash256]AntiCheatFlags, error) {
	flagged := make(map[types.Hash256]AntiCheatFlags)
	for id, gp := range c.open {
		outcome := gp.Votes.Evaluate(participants)
		if outcome == OutcomePending {
			continue
		}

		elapsed := now.Sub(gp.SubmittedAt)
		flags := EvaluateAntiCheat(gp.Votes, participants, elapsed, fastWindow)
		if flags.LowParticipation || flags.NearUnanimousFast {
			flagged[id] = flags
		}

		delete(c.open, id)
		if outcome == OutcomeRejected {
			continue
		}

		head, hasHead := c.Head()
		var base *state.Game
		if hasHead {
			base = head.Game.Clone()
		} else if c.genesis != nil {
			base = c.genesis.Clone()
		} else {
			base = newGenesisFromProposal(gp.Msg)
		}

		if err := applyOp(base, gp.Msg.Op, c.Treasury); err != nil {
			return flagged, err
		}
		c.recordEntropyOp(gp.Msg.Op, gp.Msg.Proposer, now)
		total, err := base.TotalBalance()
		if err != nil {
			return flagged, err
		}
		if c.Treasury != nil && !c.Treasury.Conserves(total) {
			return flagged, ErrConservationViolated
		}
		base.AdvanceSeq()

		c.blocks = append(c.blocks, Block{
			Proposal:  gp.Msg,
			StateHash: base.StateHash(gp.Msg.Timestamp),
			Game:      base,
		})
	}
	return flagged, nil
}

func newGenesisFromProposal(p wire.Proposal) *state.Game {
	return state.New(derivedGameID(p))
}

func derivedGameID(p wire.Proposal) types.GameId {
	var id types.GameId
	copy(id[:], p.Proposer[:16])
	return id
}

// recordEntropyOp feeds a finalized commit/reveal operation into its
// round's entropy.Pool (§4.A): OpCommitRandomness and OpRevealRandomness
// only reach this point once the BFT engine itself has finalized them, so
// by the time a commitment or reveal lands here it is already agreed, not
// merely claimed.
func (c *Chain) recordEntropyOp(op wire.Operation, proposer types.PeerId, now time.Time) {
	switch op.Tag {
	case wire.OpCommitRandomness:
		pool := c.poolFor(op.Round, now)
		_ = pool.AddCommit(entropy.Commitment{Player: proposer, Round: op.Round, Commitment: op.Commitment})
	case wire.OpRevealRandomness:
		pool := c.poolFor(op.Round, now)
		_ = pool.FinalizeCommitSet()
		_ = pool.AddReveal(entropy.Reveal{Player: proposer, Round: op.Round, Nonce: op.RevealNonce})
	}
}

func (c *Chain) poolFor(round uint64, now time.Time) *entropy.Pool {
	p, ok := c.entropyPools[round]
	if !ok {
		p = entropy.NewPool(round)
		c.entropyPools[round] = p
		c.entropyStarts[round] = now
	}
	return p
}

// ExpireEntropyRounds sweeps every tracked entropy round older than
// revealDeadline, marking every committed peer that never revealed as a
// Byzantine suspect (§4.A's failure semantics) and dropping the round's
// pool. Returns the non-revealers found, keyed by round.
func (c *Chain) ExpireEntropyRounds(now time.Time, revealDeadline time.Duration) map[uint64][]types.PeerId {
	expired := make(map[uint64][]types.PeerId)
	for round, started := range c.entropyStarts {
		if now.Sub(started) <= revealDeadline {
			continue
		}
		pool := c.entropyPools[round]
		missing := pool.MarkNonRevealers()
		if len(missing) > 0 {
			expired[round] = missing
			if c.Suspects != nil {
				for _, peer := range missing {
					c.Suspects.Raise(peer, now)
				}
			}
		}
		delete(c.entropyPools, round)
		delete(c.entropyStarts, round)
	}
	return expired
}
