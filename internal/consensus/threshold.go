// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package consensus implements spec.md §4.D: proposal submission and
// validation, vote tracking, BFT acceptance/rejection thresholds, fork
// handling, dispute resolution, and the Byzantine-suspect tracker that
// feeds exclusion decisions back to the network layer.
//
// Grounded on the teacher's threshold/ and poll/ packages for the
// quorum-arithmetic idiom (participation floor distinct from
// acceptance/rejection thresholds), generalized from Avalanche-style
// repeated sampling to this protocol's single-round proposal/vote.
package consensus

// ParticipationFloor returns ⌈2n/3⌉, the minimum number of cast votes
// (for, against, or abstain) a proposal must receive before it can be
// finalized at all, per §4.D.
func ParticipationFloor(n int) int {
	return ceilDiv(2*n, 3)
}

// AcceptThreshold returns ⌊2n/3⌋+1, the minimum "for" vote count to accept
// a proposal, per §4.D.
func AcceptThreshold(n int) int {
	return (2*n)/3 + 1
}

// RejectThreshold returns ⌊2n/3⌋+1, the minimum "against" vote count to
// reject a proposal outright (symmetric to AcceptThreshold, per §4.D).
func RejectThreshold(n int) int {
	return (2*n)/3 + 1
}

// DisputeMajority returns ⌊n/2⌋+1, the majority needed to resolve a
// dispute one way or the other (§4.D's dispute resolution).
func DisputeMajority(n int) int {
	return n/2 + 1
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
