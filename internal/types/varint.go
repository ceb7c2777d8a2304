// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"encoding/binary"
	"errors"
)

// ErrVarintTooLong is returned when a varint exceeds the 10-byte cap
// mandated by spec.md §4.B.
var ErrVarintTooLong = errors.New("varint exceeds 10 bytes")

// PutUvarint appends the continuation-bit little-endian varint encoding of v
// to dst, 1-10 bytes, matching binary.PutUvarint's wire shape.
func PutUvarint(dst []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(dst, buf[:n]...)
}

// ReadUvarint decodes a varint from the front of b, returning the value, the
// number of bytes consumed, and an error if b is empty, truncated, or the
// encoding exceeds 10 bytes.
func ReadUvarint(b []byte) (uint64, int, error) {
	v, n := binary.Uvarint(b)
	if n == 0 {
		return 0, 0, errors.New("truncated varint")
	}
	if n < 0 {
		return 0, 0, ErrVarintTooLong
	}
	return v, n, nil
}

// PutUint64LE appends v as 8 little-endian bytes.
func PutUint64LE(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

// PutUint32LE appends v as 4 little-endian bytes.
func PutUint32LE(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

// PutUint16LE appends v as 2 little-endian bytes.
func PutUint16LE(dst []byte, v uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return append(dst, buf[:]...)
}
