package tap

import (
	"time"

	"github.com/PanGan21/indexer-go/model/payments"
	"github.com/PanGan21/indexer-go/module/checks"
	"github.com/PanGan21/indexer-go/module/mempool"
	"github.com/PanGan21/indexer-go/storage"
)

// DefaultPipeline returns the check list in its fixed order. New checks are
// added here, not registered dynamically.
func DefaultPipeline(
	appraisals *mempool.Appraisals,
	domain *payments.Domain,
	receipts storage.Receipts,
	tracker *EscrowTracker,
	acceptanceWindow time.Duration,
) []checks.Named {
	return []checks.Named{
		checks.NewValueCheck(appraisals),
		checks.NewSignatureCheck(domain),
		checks.NewUniquenessCheck(receipts),
		checks.NewEscrowCheck(tracker),
		checks.NewTimestampCheck(acceptanceWindow),
	}
}
