// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOfClassifiesWrappedError(t *testing.T) {
	err := New(Byzantine, ErrDoubleVote)
	require.Equal(t, Byzantine, KindOf(err))
	require.True(t, errors.Is(err, ErrDoubleVote))
}

func TestKindOfDefaultsToSystemForUnclassified(t *testing.T) {
	require.Equal(t, System, KindOf(errors.New("plain error")))
}

func TestNewfFormatsCause(t *testing.T) {
	err := Newf(Protocol, "sequence gap at %d", 7)
	require.Equal(t, "protocol: sequence gap at 7", err.Error())
	require.Equal(t, Protocol, KindOf(err))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(System, cause)
	require.Equal(t, cause, errors.Unwrap(err))
}

func TestKindStringers(t *testing.T) {
	cases := map[Kind]string{
		Validation:       "validation",
		Protocol:         "protocol",
		ConsensusFailure: "consensus_failure",
		Partition:        "partition",
		Byzantine:        "byzantine",
		System:           "system",
		Kind(99):         "unknown",
	}
	for kind, want := range cases {
		require.Equal(t, want, kind.String())
	}
}
