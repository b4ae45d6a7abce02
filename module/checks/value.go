package checks

import (
	"context"
	"fmt"

	"github.com/PanGan21/indexer-go/model/payments"
	"github.com/PanGan21/indexer-go/module/mempool"
)

// ValueCheck compares the receipt's claimed value against the appraisal this
// node stored before answering the query. The appraisal is consumed: a second
// receipt for the same query finds no appraisal and is rejected.
type ValueCheck struct {
	appraisals *mempool.Appraisals
}

func NewValueCheck(appraisals *mempool.Appraisals) *ValueCheck {
	return &ValueCheck{appraisals: appraisals}
}

func (v *ValueCheck) Name() string {
	return "value"
}

func (v *ValueCheck) Check(_ context.Context, _ *Context, receipt *payments.CheckingReceipt) error {
	queryID := receipt.Signed.UniqueHash()
	value := receipt.Signed.Receipt.Value

	appraised, ok := v.appraisals.Take(queryID)
	if !ok {
		// either a protocol violation or an appraisal that already
		// expired; a hard rejection in both cases
		return NewPaymentError(fmt.Errorf("%w: query %s", ErrNoAppraisal, queryID))
	}
	if value.Cmp(appraised) != 0 {
		return NewPaymentError(fmt.Errorf("%w: value %s, appraised %s", ErrValueMismatch, value, appraised))
	}
	return nil
}
