// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import "errors"

var (
	ErrTruncatedSnapshot = errors.New("truncated snapshot")
	ErrDeltaBaseMismatch = errors.New("delta base sequence number does not match state")
)
