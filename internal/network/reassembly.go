// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"sync"
	"time"

	"github.com/luxfi/dicemesh/internal/wire"
)

// reassemblyTimeout is how long an incomplete fragment set is held before
// being discarded, per §4.E.
const reassemblyTimeout = 60 * time.Second

// crcFailureSuspectThreshold is the number of CRC failures from a single
// peer (counted since the Reassembler was created; the count never resets)
// at which RecordCRCFailure reports that peer as suspect
// (supplemented from original_source's transport layer, which treats
// repeated checksum failures as a tamper/flood signal rather than noise).
const crcFailureSuspectThreshold = 5

type partialMessage struct {
	total    uint16
	frags    map[uint16]wire.Fragment
	lastSeen time.Time
}

// Reassembler buffers incomplete fragment sets keyed by message id alone
// (not by sending peer), reassembling once complete or expiring stale
// entries.
type Reassembler struct {
	mu          sync.Mutex
	pending     map[[16]byte]*partialMessage
	crcFailures map[string]int
}

// NewReassembler constructs an empty Reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{
		pending:     make(map[[16]byte]*partialMessage),
		crcFailures: make(map[string]int),
	}
}

// Add records an incoming fragment and returns the reassembled message
// once every fragment of its set has arrived.
func (r *Reassembler) Add(f wire.Fragment, now time.Time) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pm, ok := r.pending[f.MessageID]
	if !ok {
		pm = &partialMessage{total: f.TotalFragments, frags: make(map[uint16]wire.Fragment)}
		r.pending[f.MessageID] = pm
	}
	pm.frags[f.FragmentID] = f
	pm.lastSeen = now

	if uint16(len(pm.frags)) < pm.total {
		return nil, false
	}

	ordered := make([]wire.Fragment, pm.total)
	for i := uint16(0); i < pm.total; i++ {
		ordered[i] = pm.frags[i]
	}
	delete(r.pending, f.MessageID)
	return wire.Reassemble(ordered), true
}

// ExpireStale drops any partial message not touched within
// reassemblyTimeout, returning the count dropped.
func (r *Reassembler) ExpireStale(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, pm := range r.pending {
		if now.Sub(pm.lastSeen) > reassemblyTimeout {
			delete(r.pending, id)
			n++
		}
	}
	return n
}

// RecordCRCFailure tallies a CRC failure from peerKey (typically the
// peer's hex PeerId) and reports whether the peer has now crossed the
// suspect threshold.
func (r *Reassembler) RecordCRCFailure(peerKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.crcFailures[peerKey]++
	return r.crcFailures[peerKey] >= crcFailureSuspectThreshold
}
