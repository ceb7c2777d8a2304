// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"encoding/binary"

	"github.com/luxfi/dicemesh/internal/types"
)

// Proposal is the binary layout of §6's "Proposal message":
//
//	proposal_id: 32B | proposer: 32B | prev_state_hash: 32B |
//	op_tag: u8 | op_body: varlen | timestamp: u64_le | signature: 64B
type Proposal struct {
	ProposalID     types.Hash256
	Proposer       types.PeerId
	PrevStateHash  types.Hash256
	Op             Operation
	Timestamp      uint64
	Signature      types.Signature
}

// EncodeUnsigned appends every field except Signature, the canonical byte
// serialization signed over per §4.D. ProposalID is the hash of the bytes
// that follow the ProposalID field itself (see
// consensus.VerifyProposalSignature).
func (p Proposal) EncodeUnsigned(dst []byte) ([]byte, error) {
	dst = append(dst, p.ProposalID[:]...)
	dst = append(dst, p.Proposer[:]...)
	dst = append(dst, p.PrevStateHash[:]...)
	var err error
	dst, err = p.Op.Encode(dst)
	if err != nil {
		return nil, err
	}
	dst = types.PutUint64LE(dst, p.Timestamp)
	return dst, nil
}

// Encode appends the full wire encoding, including Signature.
func (p Proposal) Encode(dst []byte) ([]byte, error) {
	dst, err := p.EncodeUnsigned(dst)
	if err != nil {
		return nil, err
	}
	return append(dst, p.Signature[:]...), nil
}

// DecodeProposal parses a Proposal from b.
func DecodeProposal(b []byte) (Proposal, error) {
	if len(b) < 32+32+32 {
		return Proposal{}, ErrTruncated
	}
	var p Proposal
	copy(p.ProposalID[:], b[0:32])
	copy(p.Proposer[:], b[32:64])
	copy(p.PrevStateHash[:], b[64:96])
	pos := 96

	op, n, err := DecodeOperation(b[pos:])
	if err != nil {
		return Proposal{}, err
	}
	p.Op = op
	pos += n

	if len(b)-pos < 8+64 {
		return Proposal{}, ErrTruncated
	}
	p.Timestamp = binary.LittleEndian.Uint64(b[pos : pos+8])
	pos += 8
	copy(p.Signature[:], b[pos:pos+64])
	return p, nil
}

// Direction is a Vote's cast direction.
type Direction byte

const (
	DirectionAgainst Direction = 0
	DirectionFor     Direction = 1
	DirectionAbstain Direction = 2
)

// Vote is §6's "Vote message":
//
//	proposal_id 32B | voter 32B | direction u8 | timestamp u64_le | signature 64B
type Vote struct {
	ProposalID types.Hash256
	Voter      types.PeerId
	Direction  Direction
	Timestamp  uint64
	Signature  types.Signature
}

func (v Vote) EncodeUnsigned(dst []byte) []byte {
	dst = append(dst, v.ProposalID[:]...)
	dst = append(dst, v.Voter[:]...)
	dst = append(dst, byte(v.Direction))
	dst = types.PutUint64LE(dst, v.Timestamp)
	return dst
}

func (v Vote) Encode(dst []byte) []byte {
	dst = v.EncodeUnsigned(dst)
	return append(dst, v.Signature[:]...)
}

func DecodeVote(b []byte) (Vote, error) {
	if len(b) < 32+32+1+8+64 {
		return Vote{}, ErrTruncated
	}
	var v Vote
	copy(v.ProposalID[:], b[0:32])
	copy(v.Voter[:], b[32:64])
	v.Direction = Direction(b[64])
	v.Timestamp = binary.LittleEndian.Uint64(b[65:73])
	copy(v.Signature[:], b[73:137])
	return v, nil
}

// Commit is a RandomnessCommit message: player 32B | round u64_le |
// commitment 32B | timestamp u64_le | signature 64B.
type Commit struct {
	Player     types.PeerId
	Round      uint64
	Commitment types.Hash256
	Timestamp  uint64
	Signature  types.Signature
}

func (c Commit) EncodeUnsigned(dst []byte) []byte {
	dst = append(dst, c.Player[:]...)
	dst = types.PutUint64LE(dst, c.Round)
	dst = append(dst, c.Commitment[:]...)
	dst = types.PutUint64LE(dst, c.Timestamp)
	return dst
}

func (c Commit) Encode(dst []byte) []byte {
	return append(c.EncodeUnsigned(dst), c.Signature[:]...)
}

func DecodeCommit(b []byte) (Commit, error) {
	if len(b) < 32+8+32+8+64 {
		return Commit{}, ErrTruncated
	}
	var c Commit
	copy(c.Player[:], b[0:32])
	c.Round = binary.LittleEndian.Uint64(b[32:40])
	copy(c.Commitment[:], b[40:72])
	c.Timestamp = binary.LittleEndian.Uint64(b[72:80])
	copy(c.Signature[:], b[80:144])
	return c, nil
}

// Reveal is a RandomnessReveal message: player 32B | round u64_le | nonce
// 32B | timestamp u64_le | signature 64B.
type Reveal struct {
	Player    types.PeerId
	Round     uint64
	Nonce     [32]byte
	Timestamp uint64
	Signature types.Signature
}

func (r Reveal) EncodeUnsigned(dst []byte) []byte {
	dst = append(dst, r.Player[:]...)
	dst = types.PutUint64LE(dst, r.Round)
	dst = append(dst, r.Nonce[:]...)
	dst = types.PutUint64LE(dst, r.Timestamp)
	return dst
}

func (r Reveal) Encode(dst []byte) []byte {
	return append(r.EncodeUnsigned(dst), r.Signature[:]...)
}

func DecodeReveal(b []byte) (Reveal, error) {
	if len(b) < 32+8+32+8+64 {
		return Reveal{}, ErrTruncated
	}
	var r Reveal
	copy(r.Player[:], b[0:32])
	r.Round = binary.LittleEndian.Uint64(b[32:40])
	copy(r.Nonce[:], b[40:72])
	r.Timestamp = binary.LittleEndian.Uint64(b[72:80])
	copy(r.Signature[:], b[80:144])
	return r, nil
}
