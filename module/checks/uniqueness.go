package checks

import (
	"context"
	"fmt"

	"github.com/PanGan21/indexer-go/model/payments"
	"github.com/PanGan21/indexer-go/storage"
)

// UniquenessCheck rejects receipts whose (payer, nonce) pair has already been
// persisted, preventing double redemption of the same receipt.
type UniquenessCheck struct {
	receipts storage.Receipts
}

func NewUniquenessCheck(receipts storage.Receipts) *UniquenessCheck {
	return &UniquenessCheck{receipts: receipts}
}

func (u *UniquenessCheck) Name() string {
	return "uniqueness"
}

func (u *UniquenessCheck) Check(_ context.Context, _ *Context, receipt *payments.CheckingReceipt) error {
	payer := receipt.Signed.Receipt.Payer
	nonce := receipt.Signed.Receipt.Nonce

	exists, err := u.receipts.Exists(payer, nonce)
	if err != nil {
		return NewInternalError(fmt.Errorf("could not check receipt uniqueness: %w", err))
	}
	if exists {
		return NewPaymentError(fmt.Errorf("%w: payer %s, nonce %d", ErrDuplicateReceipt, payer.Hex(), nonce))
	}
	return nil
}
