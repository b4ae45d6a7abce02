// Package sync implements the background refresh components that keep the
// reference tables current: allocations, escrow balances, and the attestation
// signer map derived from them. Each syncer polls its external source at a
// configured interval and atomically publishes a fresh immutable snapshot;
// refresh failures are logged and retried on the next tick without clearing
// the previously published snapshot.
package sync

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PanGan21/indexer-go/model/payments"
)

// AllocationSource provides this indexer's active allocations.
type AllocationSource interface {
	Allocations(ctx context.Context, indexer common.Address) ([]*payments.Allocation, error)
}

// EscrowSource provides escrow balances per payer.
type EscrowSource interface {
	EscrowAccounts(ctx context.Context, indexer common.Address) (map[common.Address]*big.Int, error)
}

// DisputeManagerSource provides the dispute-manager address attestation
// domains are validated against.
type DisputeManagerSource interface {
	DisputeManager(ctx context.Context) (common.Address, error)
}
