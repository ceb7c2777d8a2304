// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"sync"
	"time"

	"github.com/luxfi/dicemesh/internal/types"
)

// SuspectTracker implements the supplemented Byzantine-suspect heuristic
// (grounded on original_source/src/protocol/reputation/suspect.rs, which
// the distilled spec dropped): each flag raised against a peer decays
// independently after decayWindow, and a peer with threshold or more
// undecayed flags is reported by IsExcluded and Excluded until its flags
// decay back below threshold. The tracker only reports; it does not
// remove the peer from Chain's participant registry.
type SuspectTracker struct {
	mu        sync.Mutex
	threshold int
	decay     time.Duration
	flags     map[types.PeerId][]time.Time
}

// NewSuspectTracker constructs a tracker with the given exclusion
// threshold and per-flag decay window (pkg/config's SuspectThreshold and
// SuspectDecayWindow).
func NewSuspectTracker(threshold int, decay time.Duration) *SuspectTracker {
	return &SuspectTracker{
		threshold: threshold,
		decay:     decay,
		flags:     make(map[types.PeerId][]time.Time),
	}
}

// Raise records one suspect flag against peer at time now. Within this
// package it is called by Chain.Vote for a double vote (§4.D) and by
// Chain.ExpireEntropyRounds for a non-reveal after commit (§4.A).
func (t *SuspectTracker) Raise(peer types.PeerId, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flags[peer] = append(t.flags[peer], now)
}

// ActiveFlags returns the number of peer's flags that have not yet decayed
// as of now, pruning expired entries in the process.
func (t *SuspectTracker) ActiveFlags(peer types.PeerId, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pruneLocked(peer, now)
}

func (t *SuspectTracker) pruneLocked(peer types.PeerId, now time.Time) int {
	times := t.flags[peer]
	if len(times) == 0 {
		return 0
	}
	live := times[:0]
	for _, ts := range times {
		if now.Sub(ts) < t.decay {
			live = append(live, ts)
		}
	}
	if len(live) == 0 {
		delete(t.flags, peer)
		return 0
	}
	t.flags[peer] = live
	return len(live)
}

// IsExcluded reports whether peer currently has threshold or more
// undecayed flags and should be excluded from the active participant set.
func (t *SuspectTracker) IsExcluded(peer types.PeerId, now time.Time) bool {
	return t.ActiveFlags(peer, now) >= t.threshold
}

// Excluded returns every tracked peer currently over threshold, pruning
// decayed flags for all of them as a side effect.
func (t *SuspectTracker) Excluded(now time.Time) []types.PeerId {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []types.PeerId
	for peer := range t.flags {
		if t.pruneLocked(peer, now) >= t.threshold {
			out = append(out, peer)
		}
	}
	return out
}
