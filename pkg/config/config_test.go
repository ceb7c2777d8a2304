// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 300*time.Second, cfg.ClockSkewTolerance)
}

func TestValidateRejectsBadByzantineThreshold(t *testing.T) {
	cfg := Default()
	cfg.ByzantineThresholdFraction = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalidByzantineThreshold)

	cfg.ByzantineThresholdFraction = 1
	require.ErrorIs(t, cfg.Validate(), ErrInvalidByzantineThreshold)
}

func TestValidateRejectsBadParticipantBounds(t *testing.T) {
	cfg := Default()
	cfg.MinParticipants = 10
	cfg.MaxParticipants = 5
	require.ErrorIs(t, cfg.Validate(), ErrInvalidParticipantBounds)
}

func TestValidateRejectsUndersizedMTU(t *testing.T) {
	cfg := Default()
	cfg.MTU = 10
	require.ErrorIs(t, cfg.Validate(), ErrInvalidMTU)
}

func TestValidateRejectsNonPositiveBandwidth(t *testing.T) {
	cfg := Default()
	cfg.BandwidthBPS = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalidBandwidth)
}

func TestLoadWithNilViperReturnsValidDefault(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, Default().MTU, cfg.MTU)
}

func TestLoadHonorsExplicitOverride(t *testing.T) {
	v := viper.New()
	v.Set("mtu", 512)
	v.Set("clock_skew_tolerance", "60s")

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, 512, cfg.MTU)
	require.Equal(t, 60*time.Second, cfg.ClockSkewTolerance)
}

func TestLoadRejectsInvalidOverride(t *testing.T) {
	v := viper.New()
	v.Set("bandwidth_bps", 0)

	_, err := Load(v)
	require.ErrorIs(t, err, ErrInvalidBandwidth)
}
