// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines and loads dicemesh's runtime configuration via
// viper, the environment/config inputs enumerated in spec.md §6. It mirrors
// the teacher's config/config.go error-sentinel and Default*/validate idiom.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"

	"github.com/luxfi/dicemesh/internal/types"
)

var (
	ErrInvalidByzantineThreshold = errors.New("byzantine threshold fraction must be in (0, 1)")
	ErrInvalidParticipantBounds  = errors.New("min participants must be <= max participants")
	ErrInvalidMTU                = errors.New("mtu must be large enough to carry a fragment header")
	ErrInvalidBandwidth          = errors.New("bandwidth budget must be positive")
)

// minFragmentOverhead is the fragment envelope size (§6): message_id(16) +
// fragment_id(2) + total_fragments(2) + data_len(2) + crc32(4).
const minFragmentOverhead = 26

// Config holds every environment/config input named in spec.md §6.
type Config struct {
	// Participants is the initial BFT participant set.
	Participants []types.PeerId

	// ParticipantKeys maps each registered participant to its compressed
	// secp256k1 public key, used to verify Proposal/Vote signatures (§4.D).
	// A deployment populates this from its keygen/enrollment process; it is
	// not sourced from viper since key material doesn't belong in a config
	// file meant to be diffed and committed.
	ParticipantKeys map[types.PeerId][]byte

	// ByzantineThresholdFraction defaults to 2/3; thresholds are derived
	// from it, not hardcoded, so a deployment can widen or narrow fault
	// tolerance.
	ByzantineThresholdFraction float64

	ProposalTimeout   time.Duration
	DisputeDeadline   time.Duration
	HeartbeatInterval time.Duration
	PartitionRecoveryTimeout time.Duration
	SyncSessionTimeout       time.Duration

	MTU               int
	BandwidthBPS      int
	SchedulerTick     time.Duration
	CompressionThreshold int
	MaxRetries        int
	RetryBaseInterval time.Duration

	SessionHistoryLRUSize int
	MinParticipants       int
	MaxParticipants       int

	SuspectThreshold   int
	SuspectDecayWindow time.Duration

	// ClockSkewTolerance bounds how far a Proposal/Vote/Commit/Reveal
	// timestamp may drift from the local clock before it is rejected (§3).
	ClockSkewTolerance time.Duration
}

// Default returns the parameter set named throughout spec.md's worked
// scenarios (§8): 30ms scheduler tick, 15s heartbeat, 300s clock skew, etc.
func Default() Config {
	return Config{
		ByzantineThresholdFraction: 2.0 / 3.0,
		ProposalTimeout:            30 * time.Second,
		DisputeDeadline:            time.Hour,
		HeartbeatInterval:          15 * time.Second,
		PartitionRecoveryTimeout:   5 * time.Minute,
		SyncSessionTimeout:         10 * time.Minute,
		MTU:                  244,
		BandwidthBPS:          8_000,
		SchedulerTick:         30 * time.Millisecond,
		CompressionThreshold:  64,
		MaxRetries:            3,
		RetryBaseInterval:     10 * time.Second,
		SessionHistoryLRUSize: 10_000,
		MinParticipants:       3,
		MaxParticipants:       256,
		SuspectThreshold:      3,
		SuspectDecayWindow:    5 * time.Minute,
		ClockSkewTolerance:    300 * time.Second,
	}
}

// Validate checks the invariants that protect the rest of the system from
// degenerate configuration.
func (c Config) Validate() error {
	if c.ByzantineThresholdFraction <= 0 || c.ByzantineThresholdFraction >= 1 {
		return ErrInvalidByzantineThreshold
	}
	if c.MinParticipants > c.MaxParticipants {
		return ErrInvalidParticipantBounds
	}
	if c.MTU <= minFragmentOverhead {
		return ErrInvalidMTU
	}
	if c.BandwidthBPS <= 0 {
		return ErrInvalidBandwidth
	}
	return nil
}

// Load reads configuration from file, environment (DICEMESH_ prefix) and
// flags already bound to v, in viper's standard precedence order.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvPrefix("DICEMESH")
	v.AutomaticEnv()

	cfg := Default()
	bindDefaults(v, cfg)

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	cfg.ByzantineThresholdFraction = v.GetFloat64("byzantine_threshold_fraction")
	cfg.ProposalTimeout = v.GetDuration("proposal_timeout")
	cfg.DisputeDeadline = v.GetDuration("dispute_deadline")
	cfg.HeartbeatInterval = v.GetDuration("heartbeat_interval")
	cfg.PartitionRecoveryTimeout = v.GetDuration("partition_recovery_timeout")
	cfg.SyncSessionTimeout = v.GetDuration("sync_session_timeout")
	cfg.MTU = v.GetInt("mtu")
	cfg.BandwidthBPS = v.GetInt("bandwidth_bps")
	cfg.SchedulerTick = v.GetDuration("scheduler_tick")
	cfg.CompressionThreshold = v.GetInt("compression_threshold")
	cfg.MaxRetries = v.GetInt("max_retries")
	cfg.RetryBaseInterval = v.GetDuration("retry_base_interval")
	cfg.SessionHistoryLRUSize = v.GetInt("session_history_lru_size")
	cfg.MinParticipants = v.GetInt("min_participants")
	cfg.MaxParticipants = v.GetInt("max_participants")
	cfg.SuspectThreshold = v.GetInt("suspect_threshold")
	cfg.SuspectDecayWindow = v.GetDuration("suspect_decay_window")
	cfg.ClockSkewTolerance = v.GetDuration("clock_skew_tolerance")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func bindDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("byzantine_threshold_fraction", cfg.ByzantineThresholdFraction)
	v.SetDefault("proposal_timeout", cfg.ProposalTimeout)
	v.SetDefault("dispute_deadline", cfg.DisputeDeadline)
	v.SetDefault("heartbeat_interval", cfg.HeartbeatInterval)
	v.SetDefault("partition_recovery_timeout", cfg.PartitionRecoveryTimeout)
	v.SetDefault("sync_session_timeout", cfg.SyncSessionTimeout)
	v.SetDefault("mtu", cfg.MTU)
	v.SetDefault("bandwidth_bps", cfg.BandwidthBPS)
	v.SetDefault("scheduler_tick", cfg.SchedulerTick)
	v.SetDefault("compression_threshold", cfg.CompressionThreshold)
	v.SetDefault("max_retries", cfg.MaxRetries)
	v.SetDefault("retry_base_interval", cfg.RetryBaseInterval)
	v.SetDefault("session_history_lru_size", cfg.SessionHistoryLRUSize)
	v.SetDefault("min_participants", cfg.MinParticipants)
	v.SetDefault("max_participants", cfg.MaxParticipants)
	v.SetDefault("suspect_threshold", cfg.SuspectThreshold)
	v.SetDefault("suspect_decay_window", cfg.SuspectDecayWindow)
	v.SetDefault("clock_skew_tolerance", cfg.ClockSkewTolerance)
}
