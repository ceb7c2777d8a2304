// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/luxfi/dicemesh/internal/types"
)

// FragmentHeaderSize is the fixed overhead of a Fragment envelope:
// message_id(16) + fragment_id(2) + total_fragments(2) + data_len(2) + crc32(4).
const FragmentHeaderSize = 16 + 2 + 2 + 2 + 4

// Fragment is §6's fragment envelope: a slice of a larger outbound message
// that exceeded MTU-32, individually framed for reassembly.
type Fragment struct {
	MessageID      [16]byte
	FragmentID     uint16
	TotalFragments uint16
	Data           []byte
}

// Encode serializes the fragment, appending a CRC32 of Data.
func (f Fragment) Encode() []byte {
	out := make([]byte, 0, FragmentHeaderSize+len(f.Data))
	out = append(out, f.MessageID[:]...)
	out = types.PutUint16LE(out, f.FragmentID)
	out = types.PutUint16LE(out, f.TotalFragments)
	out = types.PutUint16LE(out, uint16(len(f.Data)))
	out = append(out, f.Data...)
	out = types.PutUint32LE(out, crc32.ChecksumIEEE(f.Data))
	return out
}

// DecodeFragment parses a Fragment and verifies its CRC32. A CRC mismatch
// returns ErrFragmentCRC per spec.md §4.E.
func DecodeFragment(b []byte) (Fragment, error) {
	if len(b) < FragmentHeaderSize {
		return Fragment{}, ErrTruncated
	}
	var f Fragment
	copy(f.MessageID[:], b[0:16])
	f.FragmentID = binary.LittleEndian.Uint16(b[16:18])
	f.TotalFragments = binary.LittleEndian.Uint16(b[18:20])
	dataLen := binary.LittleEndian.Uint16(b[20:22])
	pos := 22
	if len(b)-pos < int(dataLen)+4 {
		return Fragment{}, ErrTruncated
	}
	f.Data = append([]byte(nil), b[pos:pos+int(dataLen)]...)
	pos += int(dataLen)
	wantCRC := binary.LittleEndian.Uint32(b[pos : pos+4])
	gotCRC := crc32.ChecksumIEEE(f.Data)
	if wantCRC != gotCRC {
		return Fragment{}, ErrFragmentCRC
	}
	return f, nil
}

// ErrFragmentCRC is returned when a decoded fragment's checksum does not
// match its data.
var ErrFragmentCRC = fragmentCRCError{}

type fragmentCRCError struct{}

func (fragmentCRCError) Error() string { return "fragment crc32 mismatch" }

// Split breaks msg into fragments no larger than maxPayload bytes of data
// each, implementing §4.E's fragmentation rule (outbound messages exceeding
// MTU-32 are split).
func Split(messageID [16]byte, msg []byte, maxPayload int) []Fragment {
	if maxPayload <= 0 {
		maxPayload = 1
	}
	total := (len(msg) + maxPayload - 1) / maxPayload
	if total == 0 {
		total = 1
	}
	frags := make([]Fragment, 0, total)
	for i := 0; i < total; i++ {
		start := i * maxPayload
		end := start + maxPayload
		if end > len(msg) {
			end = len(msg)
		}
		frags = append(frags, Fragment{
			MessageID:      messageID,
			FragmentID:     uint16(i),
			TotalFragments: uint16(total),
			Data:           msg[start:end],
		})
	}
	return frags
}

// Reassemble concatenates a complete, ordered set of fragments back into
// the original message. Callers are responsible for confirming the set is
// complete (len(frags) == frags[0].TotalFragments) before calling.
func Reassemble(frags []Fragment) []byte {
	total := 0
	for _, f := range frags {
		total += len(f.Data)
	}
	out := make([]byte, 0, total)
	for _, f := range frags {
		out = append(out, f.Data...)
	}
	return out
}
