// Package storage defines the durable-storage interfaces of the node.
package storage

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/PanGan21/indexer-go/model/payments"
)

// Receipts stores validated, reserved receipts for later batch redemption.
// The store is append-only; (payer, nonce) is unique.
type Receipts interface {
	// Store persists a reserved receipt. Returns ErrAlreadyExists if a
	// receipt for the same (payer, nonce) has been stored before.
	Store(receipt *payments.ReservedReceipt) error

	// Exists reports whether a receipt for (payer, nonce) is persisted.
	Exists(payer common.Address, nonce uint64) (bool, error)

	// ByPayerNonce retrieves a persisted receipt. Returns ErrNotFound if
	// no receipt for (payer, nonce) exists.
	ByPayerNonce(payer common.Address, nonce uint64) (*payments.ReservedReceipt, error)

	// ByAllocation returns all persisted receipts against the allocation,
	// the batch-read interface used by the redemption process.
	ByAllocation(allocation common.Address) ([]*payments.ReservedReceipt, error)
}
