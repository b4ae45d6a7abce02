// Package badger implements the durable stores on top of BadgerDB.
package badger

import (
	"fmt"
	"math/big"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/PanGan21/indexer-go/model/payments"
	"github.com/PanGan21/indexer-go/storage/badger/operation"
)

// Receipts implements storage.Receipts on badger.
type Receipts struct {
	db *badger.DB
}

func NewReceipts(db *badger.DB) *Receipts {
	return &Receipts{db: db}
}

func (r *Receipts) Store(receipt *payments.ReservedReceipt) error {
	msg := receipt.Signed.Receipt
	stored := &operation.StoredReceipt{
		Payer:        msg.Payer.Bytes(),
		AllocationID: msg.AllocationID.Bytes(),
		Deployment:   common.Hash(receipt.Deployment).Bytes(),
		TimestampNs:  msg.TimestampNs,
		Nonce:        msg.Nonce,
		Value:        msg.Value.Bytes(),
		Signature:    receipt.Signed.Signature,
		ReservedAt:   receipt.ReservedAt.UnixNano(),
	}
	err := r.db.Update(operation.InsertReceipt(msg.Payer, msg.Nonce, msg.AllocationID, stored))
	if err != nil {
		return fmt.Errorf("could not store receipt (payer: %s, nonce: %d): %w", msg.Payer.Hex(), msg.Nonce, err)
	}
	return nil
}

func (r *Receipts) Exists(payer common.Address, nonce uint64) (bool, error) {
	var found bool
	err := r.db.View(operation.ReceiptExists(payer, nonce, &found))
	if err != nil {
		return false, fmt.Errorf("could not check receipt (payer: %s, nonce: %d): %w", payer.Hex(), nonce, err)
	}
	return found, nil
}

func (r *Receipts) ByPayerNonce(payer common.Address, nonce uint64) (*payments.ReservedReceipt, error) {
	var stored operation.StoredReceipt
	err := r.db.View(operation.RetrieveReceipt(payer, nonce, &stored))
	if err != nil {
		return nil, fmt.Errorf("could not retrieve receipt (payer: %s, nonce: %d): %w", payer.Hex(), nonce, err)
	}
	return fromStored(&stored), nil
}

func (r *Receipts) ByAllocation(allocation common.Address) ([]*payments.ReservedReceipt, error) {
	var payers []common.Address
	var nonces []uint64
	err := r.db.View(operation.LookupReceiptsByAllocation(allocation, &payers, &nonces))
	if err != nil {
		return nil, fmt.Errorf("could not look up receipts for allocation %s: %w", allocation.Hex(), err)
	}

	receipts := make([]*payments.ReservedReceipt, 0, len(payers))
	err = r.db.View(func(tx *badger.Txn) error {
		for i := range payers {
			var stored operation.StoredReceipt
			err := operation.RetrieveReceipt(payers[i], nonces[i], &stored)(tx)
			if err != nil {
				return err
			}
			receipts = append(receipts, fromStored(&stored))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not retrieve receipts for allocation %s: %w", allocation.Hex(), err)
	}
	return receipts, nil
}

func fromStored(stored *operation.StoredReceipt) *payments.ReservedReceipt {
	return &payments.ReservedReceipt{
		Signed: &payments.SignedReceipt{
			Receipt: payments.Receipt{
				Payer:        common.BytesToAddress(stored.Payer),
				AllocationID: common.BytesToAddress(stored.AllocationID),
				TimestampNs:  stored.TimestampNs,
				Nonce:        stored.Nonce,
				Value:        new(big.Int).SetBytes(stored.Value),
			},
			Signature: stored.Signature,
		},
		Deployment: payments.DeploymentID(common.BytesToHash(stored.Deployment)),
		ReservedAt: time.Unix(0, stored.ReservedAt),
	}
}
