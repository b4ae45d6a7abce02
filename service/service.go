// Package service exposes the payment-verification boundary consumed by the
// transport layer: appraisals are stored before a query is dispatched, and
// the accompanying receipt is validated once it arrives.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/PanGan21/indexer-go/model/payments"
	"github.com/PanGan21/indexer-go/module"
	"github.com/PanGan21/indexer-go/module/checks"
	"github.com/PanGan21/indexer-go/module/mempool"
	"github.com/PanGan21/indexer-go/module/tap"
	"github.com/PanGan21/indexer-go/storage"
)

const (
	persistRetryBase  = 50 * time.Millisecond
	persistMaxRetries = 3
)

// Service is the inbound boundary of the receipt validation core.
type Service struct {
	log        zerolog.Logger
	appraisals *mempool.Appraisals
	manager    *tap.Manager
	metrics    module.PaymentMetrics
}

func New(log zerolog.Logger, metrics module.PaymentMetrics, appraisals *mempool.Appraisals, manager *tap.Manager) *Service {
	return &Service{
		log:        log.With().Str("component", "service").Logger(),
		appraisals: appraisals,
		manager:    manager,
		metrics:    metrics,
	}
}

// AppraiseAndStore records the fee this node computed for a query, strictly
// before the query is answered. A repeat appraisal for the same id is a
// no-op: the query id commits to the signed receipt, so it can only come
// from the same receipt being retried, and the originally stored value
// stands. It is never overwritten.
func (s *Service) AppraiseAndStore(queryID payments.QueryID, value *big.Int) error {
	err := s.appraisals.Put(queryID, value)
	if errors.Is(err, mempool.ErrAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not store appraisal for query %s: %w", queryID, err)
	}
	s.metrics.AppraisalsPending(s.appraisals.Size())
	return nil
}

// ValidateReceipt runs the receipt through the full check pipeline and, on
// success, reserves its value and persists it for later redemption. Failures
// are *checks.Error values carrying the rejection kind and reason.
//
// When the checks pass but the write fails, the receipt's validity stands:
// persistence is retried with backoff before the reservation is given up,
// so a transient storage hiccup does not force the payer through the whole
// pipeline again.
func (s *Service) ValidateReceipt(ctx context.Context, deployment payments.DeploymentID, signed *payments.SignedReceipt) (*payments.ReservedReceipt, error) {
	reserved, err := s.manager.Process(ctx, deployment, signed)
	if err != nil {
		if reserved == nil {
			return nil, err
		}
		persistErr := s.retryPersist(ctx, reserved)
		if persistErr != nil {
			s.manager.Abort(reserved)
			return nil, checks.NewInternalError(fmt.Errorf("could not persist reserved receipt after retries: %w", persistErr))
		}
		s.log.Warn().
			Str("payer", signed.Receipt.Payer.Hex()).
			Uint64("nonce", signed.Receipt.Nonce).
			Msg("reserved receipt persisted on retry")
	}
	s.metrics.AppraisalsPending(s.appraisals.Size())
	return reserved, nil
}

// retryPersist retries the persistence of a reserved receipt with fibonacci
// backoff. A duplicate-key result is not retried: the receipt is already
// durable under its (payer, nonce) key.
func (s *Service) retryPersist(ctx context.Context, reserved *payments.ReservedReceipt) error {
	backoff := retry.WithMaxRetries(persistMaxRetries, retry.NewFibonacci(persistRetryBase))
	return retry.Do(ctx, backoff, func(context.Context) error {
		err := s.manager.Persist(reserved)
		if err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
			return retry.RetryableError(err)
		}
		return nil
	})
}
