// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"sync"
	"time"

	"github.com/luxfi/dicemesh/internal/types"
)

// retransmitInterval is how often Coordinator.Run checks for Critical
// messages due a resend; the wait before each resend is the
// Retransmitter's backoff.
const retransmitInterval = 10 * time.Second

// pending is one unacknowledged Critical-priority send awaiting retry.
type pending struct {
	msg      Outbound
	lastSent time.Time
}

// Retransmitter tracks unacknowledged Critical messages per peer and
// resends them with exponential backoff up to maxRetries, per §4.E.
type Retransmitter struct {
	mu         sync.Mutex
	maxRetries int
	base       time.Duration
	inFlight   map[[16]byte]*pending
}

// NewRetransmitter constructs a Retransmitter with the given retry budget
// and base backoff interval (pkg/config's MaxRetries, RetryBaseInterval).
func NewRetransmitter(maxRetries int, base time.Duration) *Retransmitter {
	return &Retransmitter{
		maxRetries: maxRetries,
		base:       base,
		inFlight:   make(map[[16]byte]*pending),
	}
}

// Track begins tracking a Critical send for potential retransmission.
func (r *Retransmitter) Track(messageID [16]byte, msg Outbound, now time.Time) {
	if msg.Priority != PriorityCritical {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight[messageID] = &pending{msg: msg, lastSent: now}
}

// Ack stops tracking messageID, having received confirmation of delivery.
func (r *Retransmitter) Ack(messageID [16]byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, messageID)
}

// backoff returns the exponential backoff duration for the given attempt
// number (0-indexed).
func (r *Retransmitter) backoff(attempt int) time.Duration {
	d := r.base
	for i := 0; i < attempt; i++ {
		d *= 2
	}
	return d
}

// DueRetries returns every tracked message whose backoff window has
// elapsed, incrementing its retry count; messages that exhaust maxRetries
// are dropped and returned separately as Exhausted so the caller can raise
// a suspect flag or declare the peer unresponsive (ErrPeerUnresponsive).
type DueResult struct {
	Retry     []Outbound
	Exhausted []types.PeerId
}

func (r *Retransmitter) DueRetries(now time.Time) DueResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res DueResult
	for id, p := range r.inFlight {
		if now.Sub(p.lastSent) < r.backoff(p.msg.Retries) {
			continue
		}
		if p.msg.Retries >= r.maxRetries {
			res.Exhausted = append(res.Exhausted, p.msg.Peer)
			delete(r.inFlight, id)
			continue
		}
		p.msg.Retries++
		p.lastSent = now
		res.Retry = append(res.Retry, p.msg)
	}
	return res
}
