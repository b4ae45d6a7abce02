// Package checks implements the ordered receipt validation pipeline. Each
// check is independent and free of ordering-dependent side effects; the
// manager runs them in a fixed order and a receipt passes only if every
// check passes.
package checks

import (
	"context"
	"time"

	"github.com/PanGan21/indexer-go/model/payments"
)

// Context carries the immutable reference snapshots one validation runs
// against. It is assembled by the manager from the latest published tables,
// so every check within a single validation observes a consistent view.
type Context struct {
	Allocations *payments.AllocationSnapshot
	Signers     *payments.SignerSnapshot
	Escrow      *payments.EscrowAccounts
	Now         time.Time
}

// Check validates one aspect of a receipt. A nil return approves; a non-nil
// return must be a *Error carrying the rejection kind and reason.
type Check interface {
	Check(ctx context.Context, checkCtx *Context, receipt *payments.CheckingReceipt) error
}

// Name identifies a check in logs and metrics.
type Named interface {
	Check
	Name() string
}
