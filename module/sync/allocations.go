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

// AllocationSyncer keeps the allocation snapshot current.
type AllocationSyncer struct {
	*component.ComponentManager

	log      zerolog.Logger
	metrics  module.RefreshMetrics
	source   AllocationSource
	indexer  common.Address
	interval time.Duration
	table    *snapshot.Value[payments.AllocationSnapshot]
}

func NewAllocationSyncer(
	log zerolog.Logger,
	metrics module.RefreshMetrics,
	source AllocationSource,
	indexer common.Address,
	interval time.Duration,
	table *snapshot.Value[payments.AllocationSnapshot],
) *AllocationSyncer {
	s := &AllocationSyncer{
		log:      log.With().Str("component", "allocation_syncer").Logger(),
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

func (s *AllocationSyncer) runRefresh(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	// the first refresh happens before readiness is signalled, so a node
	// with a reachable source starts serving with warm tables
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

func (s *AllocationSyncer) refresh(ctx irrecoverable.SignalerContext) {
	allocations, err := s.source.Allocations(ctx, s.indexer)
	if err != nil {
		// stale-but-present beats no data; keep the old snapshot
		s.metrics.SnapshotRefreshFailed("allocations")
		s.log.Warn().Err(err).Msg("could not refresh allocations")
		return
	}
	s.table.Publish(payments.NewAllocationSnapshot(allocations))
	s.metrics.SnapshotRefreshed("allocations")
	s.log.Debug().Int("allocations", len(allocations)).Msg("allocation snapshot published")
}
