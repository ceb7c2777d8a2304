// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"time"

	"github.com/luxfi/dicemesh/internal/types"
)

// detectionTick and heartbeatTimeout are §4.E's partition-detection
// cadence: check every 10s, declare a peer unreachable after 15s of
// silence.
const (
	detectionTick    = 10 * time.Second
	heartbeatTimeout = 15 * time.Second
)

// Strategy is the recovery approach chosen once a partition is detected,
// per §4.E.
type Strategy int

const (
	StrategyMajorityRule Strategy = iota
	StrategySplitBrainMerkleCompare
	StrategyActiveReconnection
	StrategyByzantineExclusion
	StrategyEmergencyRollback
)

// RecoveryState is a recovery attempt's position in its own lifecycle,
// independent of which Strategy is in use.
type RecoveryState int

const (
	Initializing RecoveryState = iota
	DetectingPeers
	SynchronizingState
	ValidatingConsensus
	Finalizing
	Complete
	Failed
)

// Detector watches ActivePeers' last-heartbeat times and declares a
// quorum loss once too few peers remain reachable.
type Detector struct {
	lastSeen map[types.PeerId]time.Time
}

// NewDetector constructs an empty Detector.
func NewDetector() *Detector {
	return &Detector{lastSeen: make(map[types.PeerId]time.Time)}
}

// Heartbeat records a heartbeat (or any received message) from peer.
func (d *Detector) Heartbeat(peer types.PeerId, now time.Time) {
	d.lastSeen[peer] = now
}

// Unreachable returns every tracked peer silent for more than
// heartbeatTimeout.
func (d *Detector) Unreachable(now time.Time) []types.PeerId {
	var out []types.PeerId
	for peer, last := range d.lastSeen {
		if now.Sub(last) > heartbeatTimeout {
			out = append(out, peer)
		}
	}
	return out
}

// QuorumLost reports whether the count of still-reachable peers has
// fallen below participationFloor, the signal that triggers a recovery
// attempt.
func (d *Detector) QuorumLost(now time.Time, totalParticipants, participationFloor int) bool {
	reachable := 0
	for _, last := range d.lastSeen {
		if now.Sub(last) <= heartbeatTimeout {
			reachable++
		}
	}
	return reachable < participationFloor
}

// Attempt is one tracked recovery attempt, moving through Initializing →
// DetectingPeers → SynchronizingState → ValidatingConsensus → Finalizing
// → (Complete | Failed), per §4.E.
type Attempt struct {
	Strategy Strategy
	State    RecoveryState
	StartedAt time.Time
}

// NewAttempt starts a recovery attempt with the chosen strategy.
func NewAttempt(strategy Strategy, now time.Time) *Attempt {
	return &Attempt{Strategy: strategy, State: Initializing, StartedAt: now}
}

// Advance moves the attempt to the next lifecycle state in sequence. It is
// a no-op once the attempt has reached Complete or Failed.
func (a *Attempt) Advance() {
	switch a.State {
	case Initializing:
		a.State = DetectingPeers
	case DetectingPeers:
		a.State = SynchronizingState
	case SynchronizingState:
		a.State = ValidatingConsensus
	case ValidatingConsensus:
		a.State = Finalizing
	case Finalizing:
		a.State = Complete
	}
}

// Fail marks the attempt Failed from any non-terminal state.
func (a *Attempt) Fail() {
	if a.State != Complete {
		a.State = Failed
	}
}

// ChooseStrategy picks a recovery strategy from the observed partition
// shape, per §4.E: an outright minority immediately defers to majority
// rule; a near-even split requires comparing Merkle roots to find the
// canonical side; isolated single-peer drops warrant active reconnection
// before anything heavier; peers already over the Byzantine-suspect
// threshold are excluded rather than recovered; and a partition that
// persists past PartitionRecoveryTimeout escalates to an emergency
// rollback to the last cross-signed checkpoint.
func ChooseStrategy(reachable, total int, participationFloor int, suspectedByzantine bool, persisted time.Duration, recoveryTimeout time.Duration) Strategy {
	switch {
	case suspectedByzantine:
		return StrategyByzantineExclusion
	case persisted > recoveryTimeout:
		return StrategyEmergencyRollback
	case reachable < participationFloor:
		return StrategyMajorityRule
	case total-reachable == 1:
		return StrategyActiveReconnection
	default:
		return StrategySplitBrainMerkleCompare
	}
}
