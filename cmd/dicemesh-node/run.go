// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/dicemesh/internal/consensus"
	"github.com/luxfi/dicemesh/internal/network"
	"github.com/luxfi/dicemesh/internal/session"
	"github.com/luxfi/dicemesh/internal/state"
	"github.com/luxfi/dicemesh/pkg/config"
	"github.com/luxfi/dicemesh/pkg/log"
)

// exitReason distinguishes a clean operator-requested shutdown from the
// abort conditions spec.md §6 names as unrecoverable: state-hash
// determinism failure, signature-subsystem failure, or a persistent
// conservation-of-value violation. cmd/dicemesh-node maps each to a
// distinct process exit code so a supervising process can tell them apart.
//
// Only exitConservationViolation is reachable from this node's own
// consensus loop today (Chain.Tick surfaces ErrConservationViolated
// directly). exitStateHashMismatch belongs to a peer's Merkle sync
// session discovering a root it cannot reconcile (internal/merkle's
// ErrVerifyFailed) and exitSignatureFailure to the message-ingress path
// rejecting a forged Proposal/Vote (xcrypto.ErrInvalidSignature) — both
// are wired as distinct codes here so the supervising process already has
// a stable contract once those paths are connected to this loop.
type exitReason int

const (
	exitClean exitReason = iota
	exitStateHashMismatch
	exitSignatureFailure
	exitConservationViolation
)

func (r exitReason) code() int {
	switch r {
	case exitClean:
		return 0
	case exitStateHashMismatch:
		return 2
	case exitSignatureFailure:
		return 3
	case exitConservationViolation:
		return 4
	default:
		return 1
	}
}

// fatalExit wraps an unrecoverable abort condition with the exitReason the
// operator's supervisor should act on.
type fatalExit struct {
	reason exitReason
	cause  error
}

func (e *fatalExit) Error() string { return e.cause.Error() }
func (e *fatalExit) Unwrap() error { return e.cause }

func runNode(cmd *cobra.Command, args []string) error {
	logger := log.New("node")
	if verbose {
		logger = log.New("node") // same logger: log.New takes no level, so verbose changes nothing
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	treasury := consensus.NewTreasury(0, 0)
	genesis := state.New([16]byte{})
	suspects := consensus.NewSuspectTracker(cfg.SuspectThreshold, cfg.SuspectDecayWindow)
	chain := consensus.NewChain(genesis, treasury, suspects, cfg.ClockSkewTolerance)
	for peer, pubKey := range cfg.ParticipantKeys {
		chain.RegisterParticipant(peer, pubKey)
	}
	sessions := session.NewManager()

	transport := newLoopbackTransport()
	coord := network.NewCoordinator(cfg, transport)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("dicemesh node starting", "min_participants", cfg.MinParticipants)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return coord.Run(gctx) })
	g.Go(func() error { return runConsensusLoop(gctx, chain, sessions, cfg, logger) })

	err = g.Wait()
	if err == nil || errors.Is(err, context.Canceled) {
		logger.Info("shutdown requested")
		return nil
	}

	var fatal *fatalExit
	if errors.As(err, &fatal) {
		logger.Warn("node aborting on unrecoverable condition", "reason", fatal.reason.code(), "error", fatal.cause.Error())
		os.Exit(fatal.reason.code())
	}
	return err
}

// runConsensusLoop drives Chain.Tick and session expiry on cfg.SchedulerTick
// cadence until ctx is cancelled or the chain aborts with a fatal
// condition, closing the gap where chain/sessions were constructed but
// never actually exercised by the run loop.
func runConsensusLoop(ctx context.Context, chain *consensus.Chain, sessions *session.Manager, cfg config.Config, logger log.Logger) error {
	ticker := time.NewTicker(cfg.SchedulerTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := time.Now()
			for _, peer := range sessions.ExpireStale(now, cfg.HeartbeatInterval*2) {
				logger.Warn("session expired", "peer", peer.String())
			}

			participants := len(sessions.ActivePeers())
			if participants == 0 {
				continue
			}
			flagged, err := chain.Tick(participants, now, cfg.ProposalTimeout, consensus.ApplyOperation)
			if err != nil {
				if errors.Is(err, consensus.ErrConservationViolated) {
					return &fatalExit{reason: exitConservationViolation, cause: err}
				}
				return err
			}
			for proposalID, flags := range flagged {
				logger.Warn("proposal flagged by anti-cheat heuristic",
					"proposal", proposalID.String(),
					"low_participation", flags.LowParticipation,
					"near_unanimous_fast", flags.NearUnanimousFast)
			}

			for round, nonRevealers := range chain.ExpireEntropyRounds(now, cfg.ProposalTimeout) {
				for _, peer := range nonRevealers {
					logger.Warn("entropy round expired without reveal",
						"round", round, "peer", peer.String())
				}
			}
		}
	}
}
