// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetAddContainsRemove(t *testing.T) {
	s := SetOf(1, 2, 3)
	require.True(t, s.Contains(2))
	require.Equal(t, 3, s.Len())

	s.Remove(2)
	require.False(t, s.Contains(2))
	require.Equal(t, 2, s.Len())

	s.Add(9)
	require.True(t, s.Contains(9))
}

func TestSetUnionIntersectionDifference(t *testing.T) {
	a := SetOf(1, 2, 3)
	b := SetOf(2, 3, 4)

	union := a.Union(b)
	require.Equal(t, 4, union.Len())

	inter := a.Intersection(b)
	require.Equal(t, 2, inter.Len())
	require.True(t, inter.Contains(2))
	require.True(t, inter.Contains(3))

	diff := a.Difference(b)
	require.Equal(t, 1, diff.Len())
	require.True(t, diff.Contains(1))
}

func TestSetCloneIsIndependent(t *testing.T) {
	a := SetOf(1, 2)
	clone := a.Clone()
	clone.Add(3)

	require.Equal(t, 2, a.Len())
	require.Equal(t, 3, clone.Len())
}

func TestSetListContainsAllElements(t *testing.T) {
	s := SetOf("a", "b", "c")
	list := s.List()
	require.Len(t, list, 3)
	require.ElementsMatch(t, []string{"a", "b", "c"}, list)
}

func TestSetStringNonEmpty(t *testing.T) {
	s := SetOf(1)
	require.Equal(t, "{1}", s.String())

	empty := SetOf[int]()
	require.Equal(t, "{}", empty.String())
}
