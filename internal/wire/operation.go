// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire implements the binary wire formats fixed by spec.md §6:
// proposal/vote/randomness messages, the sync-session message set, and the
// fragment envelope. The encoding is deliberately NOT protobuf/JSON — the
// spec nails down an exact byte layout because state_hash computation (and
// therefore consensus) depends on bit-exact cross-peer serialization.
package wire

import (
	"errors"
	"fmt"

	"github.com/luxfi/dicemesh/internal/types"
)

// OpTag identifies a GameOperation variant in a Proposal message.
type OpTag byte

const (
	OpPlaceBet          OpTag = 0x01
	OpCommitRandomness   OpTag = 0x02
	OpRevealRandomness   OpTag = 0x03
	OpProcessRoll        OpTag = 0x04
	OpResolvePhase       OpTag = 0x05
	OpUpdateBalances     OpTag = 0x06
)

var ErrUnknownOpTag = errors.New("unknown operation tag")
var ErrTruncated = errors.New("truncated message")

// Operation is the decoded form of a GameOperation (spec.md §3/§6). Exactly
// one of the typed fields is meaningful, selected by Tag.
type Operation struct {
	Tag OpTag

	// PlaceBet
	Player   types.PeerId
	BetKind  byte
	Amount   uint64
	Nonce    uint64

	// CommitRandomness / RevealRandomness / ProcessRoll
	Round      uint64
	Commitment types.Hash256
	RevealNonce [32]byte
	D1, D2      byte
	ProofHashes []types.Hash256

	// ResolvePhase
	NewPhase        byte
	ResolutionBytes []byte

	// UpdateBalances
	BalanceEntries []BalanceDelta
	Reason         string
}

// BalanceDelta is one entry of an UpdateBalances operation.
type BalanceDelta struct {
	Player types.PeerId
	Delta  int64
}

// Encode appends the binary op_tag + op_body encoding of op to dst.
func (op Operation) Encode(dst []byte) ([]byte, error) {
	dst = append(dst, byte(op.Tag))
	switch op.Tag {
	case OpPlaceBet:
		dst = append(dst, op.Player[:]...)
		dst = append(dst, op.BetKind)
		dst = types.PutUvarint(dst, op.Amount)
		dst = types.PutUint64LE(dst, op.Nonce)
	case OpCommitRandomness:
		dst = append(dst, op.Player[:]...)
		dst = types.PutUint64LE(dst, op.Round)
		dst = append(dst, op.Commitment[:]...)
	case OpRevealRandomness:
		dst = append(dst, op.Player[:]...)
		dst = types.PutUint64LE(dst, op.Round)
		dst = append(dst, op.RevealNonce[:]...)
	case OpProcessRoll:
		dst = types.PutUint64LE(dst, op.Round)
		dst = append(dst, op.D1, op.D2)
		dst = types.PutUvarint(dst, uint64(len(op.ProofHashes)))
		for _, h := range op.ProofHashes {
			dst = append(dst, h[:]...)
		}
	case OpResolvePhase:
		dst = append(dst, op.NewPhase)
		dst = types.PutUvarint(dst, uint64(len(op.ResolutionBytes)))
		dst = append(dst, op.ResolutionBytes...)
	case OpUpdateBalances:
		dst = types.PutUvarint(dst, uint64(len(op.BalanceEntries)))
		for _, e := range op.BalanceEntries {
			dst = append(dst, e.Player[:]...)
			dst = types.PutUint64LE(dst, uint64(e.Delta))
		}
		reason := []byte(op.Reason)
		dst = types.PutUvarint(dst, uint64(len(reason)))
		dst = append(dst, reason...)
	default:
		return nil, ErrUnknownOpTag
	}
	return dst, nil
}

// DecodeOperation reads an op_tag + op_body from the front of b, returning
// the decoded Operation and the number of bytes consumed.
func DecodeOperation(b []byte) (Operation, int, error) {
	if len(b) < 1 {
		return Operation{}, 0, ErrTruncated
	}
	tag := OpTag(b[0])
	pos := 1
	var op Operation
	op.Tag = tag

	need := func(n int) error {
		if len(b)-pos < n {
			return ErrTruncated
		}
		return nil
	}

	switch tag {
	case OpPlaceBet:
		if err := need(32 + 1); err != nil {
			return op, 0, err
		}
		copy(op.Player[:], b[pos:pos+32])
		pos += 32
		op.BetKind = b[pos]
		pos++
		amount, n, err := types.ReadUvarint(b[pos:])
		if err != nil {
			return op, 0, err
		}
		op.Amount = amount
		pos += n
		if err := need(8); err != nil {
			return op, 0, err
		}
		op.Nonce = leUint64(b[pos:])
		pos += 8
	case OpCommitRandomness:
		if err := need(32 + 8 + 32); err != nil {
			return op, 0, err
		}
		copy(op.Player[:], b[pos:pos+32])
		pos += 32
		op.Round = leUint64(b[pos:])
		pos += 8
		copy(op.Commitment[:], b[pos:pos+32])
		pos += 32
	case OpRevealRandomness:
		if err := need(32 + 8 + 32); err != nil {
			return op, 0, err
		}
		copy(op.Player[:], b[pos:pos+32])
		pos += 32
		op.Round = leUint64(b[pos:])
		pos += 8
		copy(op.RevealNonce[:], b[pos:pos+32])
		pos += 32
	case OpProcessRoll:
		if err := need(8 + 2); err != nil {
			return op, 0, err
		}
		op.Round = leUint64(b[pos:])
		pos += 8
		op.D1, op.D2 = b[pos], b[pos+1]
		pos += 2
		count, n, err := types.ReadUvarint(b[pos:])
		if err != nil {
			return op, 0, err
		}
		pos += n
		if err := need(int(count) * 32); err != nil {
			return op, 0, err
		}
		op.ProofHashes = make([]types.Hash256, count)
		for i := range op.ProofHashes {
			copy(op.ProofHashes[i][:], b[pos:pos+32])
			pos += 32
		}
	case OpResolvePhase:
		if err := need(1); err != nil {
			return op, 0, err
		}
		op.NewPhase = b[pos]
		pos++
		n0, n, err := types.ReadUvarint(b[pos:])
		if err != nil {
			return op, 0, err
		}
		pos += n
		if err := need(int(n0)); err != nil {
			return op, 0, err
		}
		op.ResolutionBytes = append([]byte(nil), b[pos:pos+int(n0)]...)
		pos += int(n0)
	case OpUpdateBalances:
		count, n, err := types.ReadUvarint(b[pos:])
		if err != nil {
			return op, 0, err
		}
		pos += n
		op.BalanceEntries = make([]BalanceDelta, count)
		for i := range op.BalanceEntries {
			if err := need(32 + 8); err != nil {
				return op, 0, err
			}
			var e BalanceDelta
			copy(e.Player[:], b[pos:pos+32])
			pos += 32
			e.Delta = int64(leUint64(b[pos:]))
			pos += 8
			op.BalanceEntries[i] = e
		}
		rn, n, err := types.ReadUvarint(b[pos:])
		if err != nil {
			return op, 0, err
		}
		pos += n
		if err := need(int(rn)); err != nil {
			return op, 0, err
		}
		op.Reason = string(b[pos : pos+int(rn)])
		pos += int(rn)
	default:
		return op, 0, fmt.Errorf("%w: 0x%02x", ErrUnknownOpTag, tag)
	}
	return op, pos, nil
}

func leUint64(b []byte) uint64 {
	_ = b[7]
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}
