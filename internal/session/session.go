// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package session implements the supplemented per-peer session lifecycle
// (Connecting → Authenticated → Active → Closed) that the distilled spec
// omitted but original_source/src/session/lifecycle.rs models explicitly.
// cmd/dicemesh-node passes the number of Active sessions to
// consensus.Chain.Tick as the participant count; the network coordinator's
// partition detector keeps its own heartbeat record and does not read
// session state.
//
// Grounded on original_source/src/session/lifecycle.rs for the state
// names and transition rules, and on the teacher's uptime/uptime.go for
// the connected/disconnected bookkeeping idiom (first-seen/last-seen
// timestamps driving derived status).
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/luxfi/dicemesh/internal/types"
)

// State is a session's lifecycle position.
type State int

const (
	Connecting State = iota
	Authenticated
	Active
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Authenticated:
		return "authenticated"
	case Active:
		return "active"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidTransition = errors.New("invalid session state transition")
	ErrUnknownSession    = errors.New("no session for this peer")
)

// transitions enumerates the legal moves; anything else is rejected.
var transitions = map[State][]State{
	Connecting:    {Authenticated, Closed},
	Authenticated: {Active, Closed},
	Active:        {Closed},
	Closed:        {},
}

// Session tracks one peer connection's lifecycle and liveness.
type Session struct {
	Peer        types.PeerId
	state       State
	ConnectedAt time.Time
	LastSeen    time.Time
}

// Manager owns every peer's Session, serializing transitions.
type Manager struct {
	mu       sync.Mutex
	sessions map[types.PeerId]*Session
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[types.PeerId]*Session)}
}

// Open starts a new session for peer in the Connecting state, replacing
// any prior session for the same peer, whatever its state.
func (m *Manager) Open(peer types.PeerId, now time.Time) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Session{Peer: peer, state: Connecting, ConnectedAt: now, LastSeen: now}
	m.sessions[peer] = s
	return s
}

// Transition moves peer's session to next, rejecting moves not present in
// the transitions table.
func (m *Manager) Transition(peer types.PeerId, next State, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[peer]
	if !ok {
		return ErrUnknownSession
	}
	for _, allowed := range transitions[s.state] {
		if allowed == next {
			s.state = next
			s.LastSeen = now
			return nil
		}
	}
	return ErrInvalidTransition
}

// Touch updates LastSeen for a heartbeat or any received message, without
// changing state.
func (m *Manager) Touch(peer types.PeerId, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[peer]
	if !ok {
		return ErrUnknownSession
	}
	s.LastSeen = now
	return nil
}

// State returns peer's current state, and false if no session is tracked.
func (m *Manager) State(peer types.PeerId) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[peer]
	if !ok {
		return Closed, false
	}
	return s.state, true
}

// ActivePeers returns every peer currently in the Active state;
// cmd/dicemesh-node uses its length as the participant count for
// consensus.Chain.Tick.
func (m *Manager) ActivePeers() []types.PeerId {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.PeerId
	for peer, s := range m.sessions {
		if s.state == Active {
			out = append(out, peer)
		}
	}
	return out
}

// ExpireStale transitions to Closed any session whose LastSeen is older
// than timeout (the heartbeat-timeout check), returning the expired peers.
func (m *Manager) ExpireStale(now time.Time, timeout time.Duration) []types.PeerId {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []types.PeerId
	for peer, s := range m.sessions {
		if s.state != Closed && now.Sub(s.LastSeen) > timeout {
			s.state = Closed
			expired = append(expired, peer)
		}
	}
	return expired
}
