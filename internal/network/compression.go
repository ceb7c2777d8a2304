// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"

	"github.com/golang/snappy"
)

// Codec identifies which compression, if any, was applied to a payload.
type Codec byte

const (
	CodecNone   Codec = 0
	CodecSnappy Codec = 1
	CodecGzip   Codec = 2
)

var ErrUnknownCodec = errors.New("unknown compression codec")

// ChooseCodec's threshold argument (pkg/config's CompressionThreshold) is
// the minimum payload size §4.E bothers compressing at all; smaller
// payloads are sent raw since framing overhead would erase any savings.
//
// highUtilization/lowUtilization are the bandwidth-utilization bands at
// which the adaptive policy shifts from snappy (fast, modest ratio) to
// gzip (slower, better ratio) and back.
const (
	highUtilization = 0.80
	lowUtilization  = 0.40
)

// ChooseCodec implements §4.E's adaptive compression policy: below
// threshold bytes, don't bother; otherwise prefer snappy, but switch to
// gzip once bandwidth utilization crosses highUtilization, reverting to
// snappy once it drops back under lowUtilization.
func ChooseCodec(payloadLen int, threshold int, utilization float64, currentlyGzip bool) Codec {
	if payloadLen < threshold {
		return CodecNone
	}
	switch {
	case utilization >= highUtilization:
		return CodecGzip
	case utilization <= lowUtilization:
		return CodecSnappy
	case currentlyGzip:
		return CodecGzip
	default:
		return CodecSnappy
	}
}

// Compress encodes src with the given codec, prefixing a single codec byte.
func Compress(codec Codec, src []byte) ([]byte, error) {
	switch codec {
	case CodecNone:
		return append([]byte{byte(CodecNone)}, src...), nil
	case CodecSnappy:
		return append([]byte{byte(CodecSnappy)}, snappy.Encode(nil, src)...), nil
	case CodecGzip:
		var buf bytes.Buffer
		buf.WriteByte(byte(CodecGzip))
		gw := gzip.NewWriter(&buf)
		if _, err := gw.Write(src); err != nil {
			return nil, err
		}
		if err := gw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, ErrUnknownCodec
	}
}

// Decompress reads the codec byte prefix and decodes accordingly.
func Decompress(b []byte) ([]byte, error) {
	if len(b) < 1 {
		return nil, ErrUnknownCodec
	}
	codec := Codec(b[0])
	body := b[1:]
	switch codec {
	case CodecNone:
		return append([]byte(nil), body...), nil
	case CodecSnappy:
		return snappy.Decode(nil, body)
	case CodecGzip:
		gr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		return io.ReadAll(gr)
	default:
		return nil, ErrUnknownCodec
	}
}
