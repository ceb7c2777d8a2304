// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"

	"github.com/luxfi/dicemesh/internal/types"
)

// loopbackTransport is a placeholder network.Transport that accepts sends
// and never produces inbound traffic. A real deployment replaces this
// with whatever radio/socket layer the mesh runs over; this keeps the
// coordinator runnable standalone for local smoke-testing.
type loopbackTransport struct {
	done chan struct{}
}

func newLoopbackTransport() *loopbackTransport {
	return &loopbackTransport{done: make(chan struct{})}
}

func (t *loopbackTransport) Send(peer types.PeerId, frame []byte) error {
	return nil
}

func (t *loopbackTransport) Recv(ctx context.Context) (types.PeerId, []byte, error) {
	select {
	case <-ctx.Done():
		return types.PeerId{}, nil, ctx.Err()
	case <-t.done:
		return types.PeerId{}, nil, errors.New("transport closed")
	}
}
