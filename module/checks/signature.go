package checks

import (
	"context"
	"fmt"

	"github.com/PanGan21/indexer-go/model/payments"
)

// SignatureCheck recovers the receipt's signer and confirms it is the
// attestation signer authorized for the claimed allocation, and that the
// allocation is known and still open.
type SignatureCheck struct {
	domain *payments.Domain
}

func NewSignatureCheck(domain *payments.Domain) *SignatureCheck {
	return &SignatureCheck{domain: domain}
}

func (s *SignatureCheck) Name() string {
	return "signature"
}

func (s *SignatureCheck) Check(_ context.Context, checkCtx *Context, receipt *payments.CheckingReceipt) error {
	if checkCtx.Allocations == nil || checkCtx.Signers == nil {
		return NewNotReadyError(ErrNotReady)
	}

	allocationID := receipt.Signed.Receipt.AllocationID
	allocation, ok := checkCtx.Allocations.ByID(allocationID)
	if !ok {
		return NewPaymentError(fmt.Errorf("%w: %s", ErrUnknownAllocation, allocationID.Hex()))
	}
	if !allocation.Active() {
		return NewPaymentError(fmt.Errorf("%w: %s closed at epoch %d", ErrClosedAllocation, allocationID.Hex(), allocation.ClosedAtEpoch))
	}

	signer, ok := checkCtx.Signers.ByAllocation(allocationID)
	if !ok {
		// allocation known but the signer map has not caught up yet
		return NewNotReadyError(fmt.Errorf("%w: no signer for allocation %s", ErrNotReady, allocationID.Hex()))
	}

	recovered, err := receipt.Signed.RecoverSigner(s.domain)
	if err != nil {
		return NewPaymentError(fmt.Errorf("%w: %s", ErrInvalidSignature, err))
	}
	if recovered != signer.Address() {
		return NewPaymentError(fmt.Errorf("%w: recovered %s, authorized %s",
			ErrInvalidSignature, recovered.Hex(), signer.Address().Hex()))
	}
	return nil
}
