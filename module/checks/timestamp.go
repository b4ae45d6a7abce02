package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/PanGan21/indexer-go/model/payments"
)

// TimestampCheck bounds how far a receipt's timestamp may deviate from the
// node's clock, rejecting both stale and future-dated receipts.
type TimestampCheck struct {
	window time.Duration
}

func NewTimestampCheck(window time.Duration) *TimestampCheck {
	return &TimestampCheck{window: window}
}

func (t *TimestampCheck) Name() string {
	return "timestamp"
}

func (t *TimestampCheck) Check(_ context.Context, checkCtx *Context, receipt *payments.CheckingReceipt) error {
	ts := time.Unix(0, int64(receipt.Signed.Receipt.TimestampNs))
	drift := checkCtx.Now.Sub(ts)
	if drift > t.window || drift < -t.window {
		return NewPaymentError(fmt.Errorf("%w: receipt at %s, now %s, window %s",
			ErrTimestampOutOfRange, ts.UTC().Format(time.RFC3339Nano), checkCtx.Now.UTC().Format(time.RFC3339Nano), t.window))
	}
	return nil
}
