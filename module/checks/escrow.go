package checks

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PanGan21/indexer-go/model/payments"
)

// ReservationLedger exposes the value already reserved locally against a
// payer since the last escrow refresh.
type ReservationLedger interface {
	Reserved(payer common.Address) *big.Int
}

// EscrowCheck confirms the payer's last known escrow balance, minus local
// reservations not yet reflected in the snapshot, covers the receipt value.
// This check is advisory: the authoritative admission happens atomically in
// the reservation ledger after all checks pass, so two concurrent receipts
// against the same payer cannot both be admitted past the same balance.
type EscrowCheck struct {
	ledger ReservationLedger
}

func NewEscrowCheck(ledger ReservationLedger) *EscrowCheck {
	return &EscrowCheck{ledger: ledger}
}

func (e *EscrowCheck) Name() string {
	return "escrow"
}

func (e *EscrowCheck) Check(_ context.Context, checkCtx *Context, receipt *payments.CheckingReceipt) error {
	if checkCtx.Escrow == nil {
		return NewNotReadyError(ErrNotReady)
	}

	payer := receipt.Signed.Receipt.Payer
	balance, ok := checkCtx.Escrow.Balance(payer)
	if !ok {
		return NewPaymentError(fmt.Errorf("%w: %s", ErrUnknownPayer, payer.Hex()))
	}

	available := new(big.Int).Sub(balance, e.ledger.Reserved(payer))
	if available.Cmp(receipt.Signed.Receipt.Value) < 0 {
		return NewPaymentError(fmt.Errorf("%w: available %s, receipt value %s",
			ErrInsufficientEscrow, available, receipt.Signed.Receipt.Value))
	}
	return nil
}
