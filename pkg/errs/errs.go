// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package errs implements the error taxonomy of spec.md §7: six kinds of
// failure, each with a fixed handling policy enforced by the caller, not by
// this package. This package only classifies and wraps; it never decides
// what to do with an error.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the six policy buckets.
type Kind int

const (
	// Validation: signature invalid, out-of-range dice, malformed
	// message, timestamp out of window. Policy: drop, mark sender
	// suspect, do not propagate.
	Validation Kind = iota
	// Protocol: duplicate vote, proposal not found, sequence gap.
	// Policy: log locally, return diagnostic to caller, do not forward.
	Protocol
	// ConsensusFailure: insufficient participation before deadline, no
	// threshold reachable. Policy: mark round failed, increment failure
	// counter, restart round.
	ConsensusFailure
	// Partition: peer unresponsive, quorum lost. Policy: escalate to
	// network recovery.
	Partition
	// Byzantine: double vote, double propose, invalid-message flood.
	// Policy: add suspect flag, exclude at threshold.
	Byzantine
	// System: cryptographic primitive failure, arithmetic overflow.
	// Policy: fatal, abort the engine to prevent silent corruption.
	System
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Protocol:
		return "protocol"
	case ConsensusFailure:
		return "consensus_failure"
	case Partition:
		return "partition"
	case Byzantine:
		return "byzantine"
	case System:
		return "system"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with its taxonomy Kind.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New classifies cause under kind.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// Newf is New with a formatted message as the cause.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Cause: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, defaulting to System for unclassified errors — an unclassified
// error is itself a design bug and must not be allowed to fail silently.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return System
}

// Sentinel causes reused across packages so callers can errors.Is against a
// stable value regardless of which component raised it.
var (
	ErrSignatureInvalid    = errors.New("signature invalid")
	ErrTimestampOutOfRange = errors.New("timestamp out of range")
	ErrMalformedMessage    = errors.New("malformed message")
	ErrDuplicateVote       = errors.New("duplicate vote")
	ErrProposalNotFound    = errors.New("proposal not found")
	ErrSequenceGap         = errors.New("sequence gap")
	ErrInsufficientQuorum  = errors.New("insufficient participation")
	ErrNoThresholdReached  = errors.New("no threshold reachable")
	ErrPeerUnresponsive    = errors.New("peer unresponsive")
	ErrQuorumLost          = errors.New("quorum lost")
	ErrDoubleVote          = errors.New("double vote detected")
	ErrDoublePropose       = errors.New("double proposal detected")
	ErrMessageFlood        = errors.New("invalid message flood")
	ErrOverflow            = errors.New("arithmetic overflow")
	ErrCryptoFailure       = errors.New("cryptographic primitive failure")
)
