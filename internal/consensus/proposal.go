// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"errors"
	"fmt"
	"time"

	"github.com/luxfi/dicemesh/internal/types"
	"github.com/luxfi/dicemesh/internal/wire"
	"github.com/luxfi/dicemesh/internal/xcrypto"
)

var (
	ErrSignatureInvalid    = errors.New("proposal or vote signature invalid")
	ErrTimestampOutOfRange = errors.New("message timestamp outside clock skew tolerance")
	ErrProposalIDMismatch  = errors.New("proposal_id does not match H(unsigned fields)")
	ErrDuplicateVote       = errors.New("peer already voted on this proposal")
	ErrUnknownVoter        = errors.New("vote cast by a non-participant")
	ErrProposalNotFound    = errors.New("no open proposal with this id")
	ErrAlreadyFinalized    = errors.New("proposal already finalized")
)

// ValidateTimestamp checks ts (unix seconds) against now within tolerance
// in either direction. tolerance is config.Config.ClockSkewTolerance,
// passed in rather than hardcoded so engines can run with a widened bound
// under test.
func ValidateTimestamp(ts uint64, now time.Time, tolerance time.Duration) error {
	t := time.Unix(int64(ts), 0)
	diff := now.Sub(t)
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerance {
		return ErrTimestampOutOfRange
	}
	return nil
}

// VerifyProposalSignature checks a Proposal's ProposalID derivation and its
// Signature against the claimed Proposer's public key bytes.
func VerifyProposalSignature(p wire.Proposal, proposerPubKey []byte) error {
	unsigned, err := p.EncodeUnsigned(nil)
	if err != nil {
		return err
	}
	// ProposalID is defined as H(unsigned fields minus the id field itself);
	// re-derive over the fields following ProposalID to check binding.
	rest := unsigned[len(p.ProposalID):]
	if xcrypto.SumSHA256(rest) != p.ProposalID {
		return ErrProposalIDMismatch
	}
	if err := xcrypto.Verify(proposerPubKey, unsigned, p.Signature); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return nil
}

// VerifyVoteSignature checks a Vote's Signature against the claimed
// Voter's public key bytes.
func VerifyVoteSignature(v wire.Vote, voterPubKey []byte) error {
	unsigned := v.EncodeUnsigned(nil)
	if err := xcrypto.Verify(voterPubKey, unsigned, v.Signature); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return nil
}

// GameProposal is the consensus engine's in-flight view of a submitted
// Proposal: the message itself plus the tally of votes cast against it.
type GameProposal struct {
	Msg       wire.Proposal
	Votes     *VoteTracker
	SubmittedAt time.Time
}

// VoteTracker accumulates at most one vote per participant for a single
// proposal, per §4.D's "at most one vote" rule.
type VoteTracker struct {
	votes map[types.PeerId]wire.Direction
	order []types.PeerId
}

// NewVoteTracker constructs an empty tracker.
func NewVoteTracker() *VoteTracker {
	return &VoteTracker{votes: make(map[types.PeerId]wire.Direction)}
}

// CastVote records voter's direction, rejecting a second vote from the
// same peer.
func (vt *VoteTracker) CastVote(voter types.PeerId, dir wire.Direction) error {
	if _, ok := vt.votes[voter]; ok {
		return ErrDuplicateVote
	}
	vt.votes[voter] = dir
	vt.order = append(vt.order, voter)
	return nil
}

// Counts returns the number of for/against/abstain votes cast so far.
func (vt *VoteTracker) Counts() (for_, against, abstain int) {
	for _, d := range vt.votes {
		switch d {
		case wire.DirectionFor:
			for_++
		case wire.DirectionAgainst:
			against++
		case wire.DirectionAbstain:
			abstain++
		}
	}
	return
}

// Total returns the number of distinct peers who have voted.
func (vt *VoteTracker) Total() int { return len(vt.votes) }

// Outcome is the result of evaluating a VoteTracker against the current
// participant count.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeAccepted
	OutcomeRejected
)

// Evaluate applies §4.D's threshold arithmetic: below the participation
// floor the proposal stays Pending; at or above it, AcceptThreshold "for"
// votes accepts, RejectThreshold "against" votes rejects, otherwise it
// remains Pending (awaiting more votes, or eventual timeout).
func (vt *VoteTracker) Evaluate(participants int) Outcome {
	if vt.Total() < ParticipationFloor(participants) {
		return OutcomePending
	}
	for_, against, _ := vt.Counts()
	if for_ >= AcceptThreshold(participants) {
		return OutcomeAccepted
	}
	if against >= RejectThreshold(participants) {
		return OutcomeRejected
	}
	return OutcomePending
}

// AntiCheatFlags reports heuristic signals from a finalized tally (§4.D):
// suspiciously low participation relative to the registered participant
// count, or near-unanimity that arrived implausibly fast. Chain.Tick
// returns them to its caller; they raise no flag in the SuspectTracker.
type AntiCheatFlags struct {
	LowParticipation bool
	NearUnanimousFast bool
}

// nearUnanimousNumerator/Denominator express §4.D's ">90% one way"
// near-unanimity bound as an integer ratio (dominant*10 > total*9) so the
// check never depends on floating-point rounding.
const (
	nearUnanimousNumerator   = 9
	nearUnanimousDenominator = 10
)

// EvaluateAntiCheat inspects a finalized VoteTracker's shape. elapsed is
// the time between proposal submission and finalization.
func EvaluateAntiCheat(vt *VoteTracker, participants int, elapsed time.Duration, fastWindow time.Duration) AntiCheatFlags {
	for_, against, _ := vt.Counts()
	total := vt.Total()
	flags := AntiCheatFlags{}
	if total < participants {
		flags.LowParticipation = true
	}
	dominant := for_
	if against > dominant {
		dominant = against
	}
	if total > 0 && dominant*nearUnanimousDenominator > total*nearUnanimousNumerator && elapsed < fastWindow {
		flags.NearUnanimousFast = true
	}
	return flags
}
