// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddUint64Overflow(t *testing.T) {
	_, err := AddUint64(math.MaxUint64, 1)
	require.ErrorIs(t, err, ErrOverflow)

	sum, err := AddUint64(10, 20)
	require.NoError(t, err)
	require.EqualValues(t, 30, sum)
}

func TestSubUint64Underflow(t *testing.T) {
	_, err := SubUint64(5, 10)
	require.ErrorIs(t, err, ErrUnderflow)

	diff, err := SubUint64(10, 4)
	require.NoError(t, err)
	require.EqualValues(t, 6, diff)
}

func TestMulUint64Overflow(t *testing.T) {
	_, err := MulUint64(math.MaxUint64, 2)
	require.ErrorIs(t, err, ErrOverflow)

	product, err := MulUint64(6, 7)
	require.NoError(t, err)
	require.EqualValues(t, 42, product)
}

func TestAddBalancePositiveAndNegativeDelta(t *testing.T) {
	got, err := AddBalance(100, 50)
	require.NoError(t, err)
	require.EqualValues(t, 150, got)

	got, err = AddBalance(100, -30)
	require.NoError(t, err)
	require.EqualValues(t, 70, got)

	_, err = AddBalance(10, -20)
	require.ErrorIs(t, err, ErrUnderflow)
}

func TestSumBalancesOverflow(t *testing.T) {
	total, err := SumBalances([]uint64{1, 2, 3})
	require.NoError(t, err)
	require.EqualValues(t, 6, total)

	_, err = SumBalances([]uint64{math.MaxUint64, 1})
	require.ErrorIs(t, err, ErrOverflow)
}

func TestMinMaxInt(t *testing.T) {
	require.Equal(t, 3, MinInt(3, 7))
	require.Equal(t, 7, MaxInt(3, 7))
	require.Equal(t, 3, MinInt(7, 3))
}
