// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package network implements spec.md §4.E: the mesh coordinator's
// priority-queued dispatch, fragmentation/reassembly, adaptive
// compression, retransmission, and partition detection/recovery.
//
// Grounded on the teacher's router/ package for the per-peer outbound
// queue shape, generalized from a single FIFO to four priority lanes
// drained in strict priority order with a per-tick byte budget.
package network

import "github.com/luxfi/dicemesh/internal/types"

// Priority is an outbound message's dispatch priority, per §4.E.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// Outbound is one queued outbound message awaiting dispatch to Peer.
type Outbound struct {
	Peer     types.PeerId
	Priority Priority
	Payload  []byte
	Retries  int
}

// PeerQueue is one peer's four FIFO lanes, drained highest-priority-first.
type PeerQueue struct {
	lanes [4][]Outbound
}

// NewPeerQueue constructs an empty PeerQueue.
func NewPeerQueue() *PeerQueue {
	return &PeerQueue{}
}

// Push enqueues msg onto its priority lane.
func (q *PeerQueue) Push(msg Outbound) {
	q.lanes[msg.Priority] = append(q.lanes[msg.Priority], msg)
}

// Len returns the total number of queued messages across all lanes.
func (q *PeerQueue) Len() int {
	n := 0
	for _, l := range q.lanes {
		n += len(l)
	}
	return n
}

// Drain pops messages in Critical, High, Normal, Low order until either
// the queue is empty or budget bytes have been consumed, per §4.E's
// scheduler-tick byte-budget rule.
func (q *PeerQueue) Drain(budget int) []Outbound {
	var out []Outbound
	spent := 0
	for lane := PriorityCritical; lane >= PriorityLow; lane-- {
		l := q.lanes[lane]
		i := 0
		for ; i < len(l); i++ {
			if spent >= budget {
				break
			}
			out = append(out, l[i])
			spent += len(l[i].Payload)
		}
		q.lanes[lane] = l[i:]
		if spent >= budget {
			break
		}
	}
	return out
}
