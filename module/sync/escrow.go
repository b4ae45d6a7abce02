package sync

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/PanGan21/indexer-go/model/payments"
	"github.com/PanGan21/indexer-go/module"
	"github.com/PanGan21/indexer-go/module/component"
	"github.com/PanGan21/indexer-go/module/irrecoverable"
	"github.com/PanGan21/indexer-go/module/snapshot"
)

// EscrowSyncer keeps the escrow account snapshot current.
type EscrowSyncer struct {
	*component.ComponentManager

	log      zerolog.Logger
	metrics  module.RefreshMetrics
	source   EscrowSource
	indexer  common.Address
	interval time.Duration
	table    *snapshot.Value[payments.EscrowAccounts]
}

func NewEscrowSyncer(
	log zerolog.Logger,
	metrics module.RefreshMetrics,
	source EscrowSource,
	indexer common.Address,
	interval time.Duration,
	table *snapshot.Value[payments.EscrowAccounts],
) *EscrowSyncer {
	s := &EscrowSyncer{
		log:      log.With().Str("component", "escrow_syncer").Logger(),
		metrics:  metrics,
		source:   source,
		indexer:  indexer,
		interval: interval,
		table:    table,
	}
	s.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(s.runRefresh).
		Build()
	return s
}

func (s *EscrowSyncer) runRefresh(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	s.refresh(ctx)
	ready()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *EscrowSyncer) refresh(ctx irrecoverable.SignalerContext) {
	balances, err := s.source.EscrowAccounts(ctx, s.indexer)
	if err != nil {
		s.metrics.SnapshotRefreshFailed("escrow")
		s.log.Warn().Err(err).Msg("could not refresh escrow accounts")
		return
	}
	s.table.Publish(payments.NewEscrowAccounts(balances))
	s.metrics.SnapshotRefreshed("escrow")
	s.log.Debug().Int("payers", len(balances)).Msg("escrow snapshot published")
}
