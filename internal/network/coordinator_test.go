// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/dicemesh/internal/types"
	"github.com/luxfi/dicemesh/pkg/config"
)

// fakeTransport records every frame sent to it, keyed by peer.
type fakeTransport struct {
	mu   sync.Mutex
	sent map[types.PeerId][][]byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sent: make(map[types.PeerId][][]byte)}
}

func (f *fakeTransport) Send(peer types.PeerId, frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), frame...)
	f.sent[peer] = append(f.sent[peer], cp)
	return nil
}

func (f *fakeTransport) Recv(ctx context.Context) (types.PeerId, []byte, error) {
	<-ctx.Done()
	return types.PeerId{}, nil, ctx.Err()
}

func (f *fakeTransport) count(peer types.PeerId) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent[peer])
}

func TestEnqueueFragmentsAndDispatchSends(t *testing.T) {
	cfg := config.Default()
	transport := newFakeTransport()
	c := NewCoordinator(cfg, transport)

	peer := testPeer(1)
	require.NoError(t, c.Enqueue(peer, PriorityNormal, []byte("hello from dicemesh")))

	c.dispatchTick()
	require.Equal(t, 1, transport.count(peer))
}

func TestHandleInboundRoundTripsThroughEnqueue(t *testing.T) {
	cfg := config.Default()
	sender := newFakeTransport()
	c := NewCoordinator(cfg, sender)

	peer := testPeer(2)
	payload := []byte("round trip payload")
	require.NoError(t, c.Enqueue(peer, PriorityHigh, payload))
	c.dispatchTick()

	receiver := NewCoordinator(cfg, newFakeTransport())
	now := time.Now()

	var got []byte
	for _, frame := range sender.sent[peer] {
		msg, complete := receiver.HandleInbound(peer, frame, now)
		if complete {
			got = msg
		}
	}
	require.Equal(t, payload, got)
}

func TestHandleInboundDedupsRepeatedFrame(t *testing.T) {
	cfg := config.Default()
	sender := newFakeTransport()
	c := NewCoordinator(cfg, sender)

	peer := testPeer(3)
	payload := []byte("short")
	require.NoError(t, c.Enqueue(peer, PriorityLow, payload))
	c.dispatchTick()

	receiver := NewCoordinator(cfg, newFakeTransport())
	now := time.Now()
	frame := sender.sent[peer][0]

	_, complete := receiver.HandleInbound(peer, frame, now)
	require.True(t, complete)

	_, complete = receiver.HandleInbound(peer, frame, now)
	require.False(t, complete, "identical frame should be deduped")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := config.Default()
	cfg.SchedulerTick = 5 * time.Millisecond
	c := NewCoordinator(cfg, newFakeTransport())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after context cancellation")
	}
}
