// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThresholdArithmetic(t *testing.T) {
	require.Equal(t, 7, ParticipationFloor(10)) // ceil(20/3) = 7
	require.Equal(t, 7, AcceptThreshold(10))    // floor(20/3)+1 = 6+1
	require.Equal(t, 7, RejectThreshold(10))
	require.Equal(t, 6, DisputeMajority(10)) // floor(10/2)+1

	require.Equal(t, 3, ParticipationFloor(4))
	require.Equal(t, 3, AcceptThreshold(4))
}
