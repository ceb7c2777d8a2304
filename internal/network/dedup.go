// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"container/list"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Dedup is a fixed-capacity LRU of recently seen message hashes, dropping
// the mesh's natural duplicate deliveries (broadcast re-propagation, retry
// races) before they reach application handling, per §4.E.
type Dedup struct {
	mu       sync.Mutex
	capacity int
	index    map[uint64]*list.Element
	order    *list.List
}

// NewDedup constructs a Dedup with room for capacity entries (pkg/config's
// SessionHistoryLRUSize).
func NewDedup(capacity int) *Dedup {
	return &Dedup{
		capacity: capacity,
		index:    make(map[uint64]*list.Element),
		order:    list.New(),
	}
}

// Seen reports whether payload has been seen before, recording it as seen
// either way (first-seen returns false, marks the entry; repeats return
// true and move it to most-recently-used).
func (d *Dedup) Seen(payload []byte) bool {
	key := xxhash.Sum64(payload)

	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.index[key]; ok {
		d.order.MoveToFront(el)
		return true
	}

	el := d.order.PushFront(key)
	d.index[key] = el
	if d.order.Len() > d.capacity {
		oldest := d.order.Back()
		if oldest != nil {
			d.order.Remove(oldest)
			delete(d.index, oldest.Value.(uint64))
		}
	}
	return false
}
