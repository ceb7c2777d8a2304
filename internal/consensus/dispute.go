// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"errors"
	"time"

	"github.com/luxfi/dicemesh/internal/types"
	"github.com/luxfi/dicemesh/internal/wire"
)

var (
	ErrDisputeAlreadyOpen   = errors.New("a dispute is already open against this state_hash")
	ErrDisputeClosed        = errors.New("dispute already resolved")
	ErrDuplicateDisputeVote = errors.New("peer already voted on this dispute")
	ErrMalformedClaim       = errors.New("dispute claim is not well-formed")
	ErrInvalidEvidence      = errors.New("dispute evidence item is empty or malformed")
)

// DisputeOutcome is the resolution of a raised dispute.
type DisputeOutcome int

const (
	DisputeOutcomePending   DisputeOutcome = iota
	DisputeOutcomeUpheld                   // disputed state_hash confirmed invalid; this package performs no rollback
	DisputeOutcomeDismissed                 // disputed state_hash confirmed valid
)

// ClaimKind tags the variant of a Dispute's Claim, per §4.D.
type ClaimKind int

const (
	ClaimInvalidBet ClaimKind = iota
	ClaimInvalidRoll
	ClaimInvalidPayout
	ClaimDoubleSpending
	ClaimConsensusViolation
)

// Claim is the tagged disagreement a Dispute raises against a finalized
// state_hash. Exactly one field group is meaningful, selected by Kind.
type Claim struct {
	Kind ClaimKind

	// ClaimInvalidBet: the PlaceBet operation alleged invalid.
	Bet *wire.Operation

	// ClaimInvalidRoll: the ProcessRoll operation alleged invalid.
	Roll *wire.Operation

	// ClaimInvalidPayout: the UpdateBalances operation alleged invalid.
	Payout *wire.Operation

	// ClaimDoubleSpending: the conflicting PlaceBet operations the same
	// nonce/player was used across.
	ConflictingBets []wire.Operation

	// ClaimConsensusViolation: free-form description of the violated rule
	// (e.g. "conservation of value broken at block 412").
	Detail string
}

// validate checks claim well-formedness per §4.D: "InvalidRoll requires a
// roll with values in 1..=6; DoubleSpending requires ≥2 conflicting bets."
func (c Claim) validate() error {
	switch c.Kind {
	case ClaimInvalidBet:
		if c.Bet == nil || c.Bet.Tag != wire.OpPlaceBet {
			return ErrMalformedClaim
		}
	case ClaimInvalidRoll:
		if c.Roll == nil || c.Roll.Tag != wire.OpProcessRoll {
			return ErrMalformedClaim
		}
		if c.Roll.D1 < 1 || c.Roll.D1 > 6 || c.Roll.D2 < 1 || c.Roll.D2 > 6 {
			return ErrMalformedClaim
		}
	case ClaimInvalidPayout:
		if c.Payout == nil || c.Payout.Tag != wire.OpUpdateBalances {
			return ErrMalformedClaim
		}
	case ClaimDoubleSpending:
		if len(c.ConflictingBets) < 2 {
			return ErrMalformedClaim
		}
		for _, bet := range c.ConflictingBets {
			if bet.Tag != wire.OpPlaceBet {
				return ErrMalformedClaim
			}
		}
	case ClaimConsensusViolation:
		if c.Detail == "" {
			return ErrMalformedClaim
		}
	default:
		return ErrMalformedClaim
	}
	return nil
}

// EvidenceKind tags the variant of one EvidenceItem.
type EvidenceKind int

const (
	EvidenceSignedTransaction EvidenceKind = iota
	EvidenceMerkleProof
)

// EvidenceItem is one typed piece of supporting evidence attached to a
// Dispute, per §4.D: "non-empty signed transaction, non-empty merkle proof,
// etc."
type EvidenceItem struct {
	Kind EvidenceKind

	SignedTx    []byte
	MerkleProof []types.Hash256
}

func (e EvidenceItem) validate() error {
	switch e.Kind {
	case EvidenceSignedTransaction:
		if len(e.SignedTx) == 0 {
			return ErrInvalidEvidence
		}
	case EvidenceMerkleProof:
		if len(e.MerkleProof) == 0 {
			return ErrInvalidEvidence
		}
	default:
		return ErrInvalidEvidence
	}
	return nil
}

// DisputeVote is one participant's response to a raised Dispute, per §4.D's
// four-option ballot.
type DisputeVote int

const (
	DisputeVoteAbstain DisputeVote = iota
	DisputeVoteUphold
	DisputeVoteReject
	DisputeVoteNeedMoreEvidence
)

// Dispute tracks one raise_dispute challenge against a finalized
// state_hash, per §4.D's dispute-resolution procedure: any participant may
// raise a dispute before DisputeDeadline elapses, and it resolves by
// DisputeMajority vote among the participant set once a minimum-votes floor
// is reached.
type Dispute struct {
	DisputedHash types.Hash256
	Raiser       types.PeerId
	RaisedAt     time.Time
	Claim        Claim
	Evidence     []EvidenceItem

	votes   map[types.PeerId]DisputeVote
	outcome DisputeOutcome
}

// NewDispute opens a dispute against disputedHash, raised by raiser, after
// validating claim well-formedness and every evidence item. A malformed
// claim or evidence item is rejected outright rather than broadcast (§4.D).
func NewDispute(disputedHash types.Hash256, raiser types.PeerId, claim Claim, evidence []EvidenceItem, now time.Time) (*Dispute, error) {
	if err := claim.validate(); err != nil {
		return nil, err
	}
	for _, item := range evidence {
		if err := item.validate(); err != nil {
			return nil, err
		}
	}
	return &Dispute{
		DisputedHash: disputedHash,
		Raiser:       raiser,
		RaisedAt:     now,
		Claim:        claim,
		Evidence:     evidence,
		votes:        make(map[types.PeerId]DisputeVote),
	}, nil
}

// CastVote records voter's DisputeVote, rejecting a second vote from the
// same peer or any vote cast after resolution.
func (d *Dispute) CastVote(voter types.PeerId, vote DisputeVote) error {
	if d.outcome != DisputeOutcomePending {
		return ErrDisputeClosed
	}
	if _, ok := d.votes[voter]; ok {
		return ErrDuplicateDisputeVote
	}
	d.votes[voter] = vote
	return nil
}

// Evaluate applies §4.D's dispute resolution: once at least
// ParticipationFloor(participants) votes have been cast, the first of
// Uphold/Reject to reach DisputeMajority(participants) wins and fixes d's
// outcome; NeedMoreEvidence and Abstain votes count toward the floor but
// not toward either majority.
func (d *Dispute) Evaluate(participants int) DisputeOutcome {
	if d.outcome != DisputeOutcomePending {
		return d.outcome
	}
	if len(d.votes) < ParticipationFloor(participants) {
		return DisputeOutcomePending
	}

	majority := DisputeMajority(participants)
	var uphold, reject int
	for _, v := range d.votes {
		switch v {
		case DisputeVoteUphold:
			uphold++
		case DisputeVoteReject:
			reject++
		}
	}
	if uphold >= majority {
		d.outcome = DisputeOutcomeUpheld
	} else if reject >= majority {
		d.outcome = DisputeOutcomeDismissed
	}
	return d.outcome
}

// Expired reports whether now is past raisedAt+deadline without a
// resolution. It only reports; d's outcome stays Pending.
func (d *Dispute) Expired(now time.Time, deadline time.Duration) bool {
	return d.outcome == DisputeOutcomePending && now.Sub(d.RaisedAt) > deadline
}
