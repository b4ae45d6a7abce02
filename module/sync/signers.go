package sync

import (
	"crypto/ecdsa"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/PanGan21/indexer-go/model/payments"
	"github.com/PanGan21/indexer-go/module"
	"github.com/PanGan21/indexer-go/module/component"
	"github.com/PanGan21/indexer-go/module/irrecoverable"
	"github.com/PanGan21/indexer-go/module/snapshot"
)

// SignerSyncer maintains the attestation signer map. It rebuilds the map
// whenever the allocation snapshot changes, and periodically re-validates the
// dispute-manager address the signing domain is bound to. Signers are not
// published until the dispute manager is known.
type SignerSyncer struct {
	*component.ComponentManager

	log             zerolog.Logger
	metrics         module.RefreshMetrics
	source          DisputeManagerSource
	operator        *ecdsa.PrivateKey
	refreshInterval time.Duration
	allocations     *snapshot.Value[payments.AllocationSnapshot]
	table           *snapshot.Value[payments.SignerSnapshot]

	disputeManager common.Address
	haveDispute    bool
}

func NewSignerSyncer(
	log zerolog.Logger,
	metrics module.RefreshMetrics,
	source DisputeManagerSource,
	operator *ecdsa.PrivateKey,
	refreshInterval time.Duration,
	allocations *snapshot.Value[payments.AllocationSnapshot],
	table *snapshot.Value[payments.SignerSnapshot],
) *SignerSyncer {
	s := &SignerSyncer{
		log:             log.With().Str("component", "signer_syncer").Logger(),
		metrics:         metrics,
		source:          source,
		operator:        operator,
		refreshInterval: refreshInterval,
		allocations:     allocations,
		table:           table,
	}
	s.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(s.runRebuild).
		Build()
	return s
}

func (s *SignerSyncer) runRebuild(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	s.refreshDisputeManager(ctx)
	s.rebuild()
	ready()

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.allocations.Update():
			s.rebuild()
		case <-ticker.C:
			s.refreshDisputeManager(ctx)
			s.rebuild()
		}
	}
}

func (s *SignerSyncer) refreshDisputeManager(ctx irrecoverable.SignalerContext) {
	disputeManager, err := s.source.DisputeManager(ctx)
	if err != nil {
		s.metrics.SnapshotRefreshFailed("dispute_manager")
		s.log.Warn().Err(err).Msg("could not refresh dispute manager")
		return
	}
	if s.haveDispute && disputeManager != s.disputeManager {
		s.log.Info().
			Str("old", s.disputeManager.Hex()).
			Str("new", disputeManager.Hex()).
			Msg("dispute manager changed")
	}
	s.disputeManager = disputeManager
	s.haveDispute = true
}

func (s *SignerSyncer) rebuild() {
	if !s.haveDispute {
		return
	}
	allocations, ok := s.allocations.Latest()
	if !ok {
		return
	}

	signers := make([]*payments.AttestationSigner, 0, allocations.Size())
	for _, allocation := range allocations.All() {
		if !allocation.Active() {
			continue
		}
		signer, err := payments.DeriveAttestationSigner(s.operator, allocation.ID)
		if err != nil {
			// a single underivable allocation must not block the rest
			s.log.Error().Err(err).
				Str("allocation", allocation.ID.Hex()).
				Msg("could not derive attestation signer")
			continue
		}
		signers = append(signers, signer)
	}

	s.table.Publish(payments.NewSignerSnapshot(signers, s.disputeManager))
	s.metrics.SnapshotRefreshed("signers")
	s.log.Debug().Int("signers", len(signers)).Msg("signer snapshot published")
}
