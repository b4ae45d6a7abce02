// Package tap owns the receipt lifecycle: a receipt arrives as checking, runs
// the validation pipeline against the current reference snapshots, and leaves
// either failed or reserved-and-persisted.
package tap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/PanGan21/indexer-go/model/payments"
	"github.com/PanGan21/indexer-go/module"
	"github.com/PanGan21/indexer-go/module/checks"
	"github.com/PanGan21/indexer-go/module/component"
	"github.com/PanGan21/indexer-go/module/irrecoverable"
	"github.com/PanGan21/indexer-go/module/snapshot"
	"github.com/PanGan21/indexer-go/storage"
)

// Manager validates incoming receipts and hands reserved ones to durable
// storage. It also runs the reconciliation worker that resets the local
// reservation ledger each time a fresh escrow snapshot is published.
type Manager struct {
	*component.ComponentManager

	log         zerolog.Logger
	checks      []checks.Named
	tracker     *EscrowTracker
	receipts    storage.Receipts
	metrics     module.PaymentMetrics
	allocations *snapshot.Value[payments.AllocationSnapshot]
	signers     *snapshot.Value[payments.SignerSnapshot]
	escrow      *snapshot.Value[payments.EscrowAccounts]
}

func NewManager(
	log zerolog.Logger,
	metrics module.PaymentMetrics,
	receipts storage.Receipts,
	tracker *EscrowTracker,
	allocations *snapshot.Value[payments.AllocationSnapshot],
	signers *snapshot.Value[payments.SignerSnapshot],
	escrow *snapshot.Value[payments.EscrowAccounts],
	pipeline []checks.Named,
) *Manager {
	m := &Manager{
		log:         log.With().Str("component", "tap_manager").Logger(),
		checks:      pipeline,
		tracker:     tracker,
		receipts:    receipts,
		metrics:     metrics,
		allocations: allocations,
		signers:     signers,
		escrow:      escrow,
	}
	m.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(m.runReconciliation).
		Build()
	return m
}

// Process runs the full pipeline for one receipt: checks, escrow reservation,
// persistence. On success it returns the reserved receipt. On a check failure
// it returns a *checks.Error and the receipt is terminally rejected.
//
// If persistence fails after all checks passed, the receipt's validity
// stands: the reservation is kept, the reserved receipt is returned together
// with an internal-kind error, and the caller should retry Persist (or call
// Abort to give the reservation up) instead of re-running the checks.
func (m *Manager) Process(ctx context.Context, deployment payments.DeploymentID, signed *payments.SignedReceipt) (*payments.ReservedReceipt, error) {
	checking := payments.NewCheckingReceipt(deployment, signed)

	checkCtx, err := m.buildContext()
	if err != nil {
		return nil, err
	}

	for _, check := range m.checks {
		err := check.Check(ctx, checkCtx, checking)
		if err != nil {
			failed := checking.Fail(err)
			m.metrics.ReceiptRejected(check.Name())
			m.log.Debug().
				Err(failed.Reason).
				Str("check", check.Name()).
				Str("payer", signed.Receipt.Payer.Hex()).
				Uint64("nonce", signed.Receipt.Nonce).
				Msg("receipt rejected")
			return nil, err
		}
	}

	// authoritative admission: re-verified and subtracted under the
	// ledger's critical section
	payer := signed.Receipt.Payer
	err = m.tracker.Reserve(payer, signed.Receipt.Value)
	if err != nil {
		m.metrics.ReceiptRejected("reserve")
		return nil, err
	}
	reserved := checking.Reserve()

	// the caller may have abandoned the request while checks ran; bail out
	// before the write so the reservation is fully rolled back
	if err := ctx.Err(); err != nil {
		m.tracker.Release(payer, signed.Receipt.Value)
		return nil, checks.NewInternalError(fmt.Errorf("request abandoned before persistence: %w", err))
	}

	err = m.Persist(reserved)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			// replay slipped past the uniqueness check; the storage
			// constraint is the second line of defense
			m.tracker.Release(payer, signed.Receipt.Value)
			m.metrics.ReceiptRejected("uniqueness")
			return nil, checks.NewPaymentError(fmt.Errorf("%w: payer %s, nonce %d",
				checks.ErrDuplicateReceipt, payer.Hex(), signed.Receipt.Nonce))
		}
		// system failure, not the payer's fault; reservation stands so the
		// persistence step can be retried without re-running checks
		return reserved, checks.NewInternalError(fmt.Errorf("could not persist reserved receipt: %w", err))
	}

	m.metrics.ReceiptReserved()
	m.log.Debug().
		Str("payer", payer.Hex()).
		Uint64("nonce", signed.Receipt.Nonce).
		Str("value", signed.Receipt.Value.String()).
		Msg("receipt reserved and persisted")
	return reserved, nil
}

// Persist writes a reserved receipt to durable storage. Safe to retry.
func (m *Manager) Persist(reserved *payments.ReservedReceipt) error {
	return m.receipts.Store(reserved)
}

// Abort gives up the reservation of a receipt that could not be persisted.
func (m *Manager) Abort(reserved *payments.ReservedReceipt) {
	m.tracker.Release(reserved.Signed.Receipt.Payer, reserved.Signed.Receipt.Value)
}

// buildContext assembles the check context from the latest published
// reference snapshots. Any table that has never refreshed yields a not-ready
// error rather than a false rejection.
func (m *Manager) buildContext() (*checks.Context, error) {
	allocations, ok := m.allocations.Latest()
	if !ok {
		return nil, checks.NewNotReadyError(fmt.Errorf("%w: allocations", checks.ErrNotReady))
	}
	signers, ok := m.signers.Latest()
	if !ok {
		return nil, checks.NewNotReadyError(fmt.Errorf("%w: attestation signers", checks.ErrNotReady))
	}
	escrow, ok := m.escrow.Latest()
	if !ok {
		return nil, checks.NewNotReadyError(fmt.Errorf("%w: escrow accounts", checks.ErrNotReady))
	}
	return &checks.Context{
		Allocations: allocations,
		Signers:     signers,
		Escrow:      escrow,
		Now:         time.Now(),
	}, nil
}

// runReconciliation resets the reservation ledger whenever a fresher escrow
// snapshot is published.
func (m *Manager) runReconciliation(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.escrow.Update():
			m.tracker.Reconcile()
			m.log.Debug().Msg("reservation ledger reconciled against fresh escrow snapshot")
		}
	}
}
