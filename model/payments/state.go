package payments

import (
	"time"
)

// Receipt lifecycle. A receipt enters as Checking and leaves either as Failed
// (terminal, discarded) or Reserved (value held against the payer's escrow,
// pending persistence). Transitions are one-directional by construction:
// a CheckingReceipt is consumed to produce exactly one of the other two, and
// neither of those can re-enter checking.

// CheckingReceipt is a receipt in the middle of validation.
type CheckingReceipt struct {
	Signed     *SignedReceipt
	Deployment DeploymentID
	ReceivedAt time.Time
}

func NewCheckingReceipt(deployment DeploymentID, signed *SignedReceipt) *CheckingReceipt {
	return &CheckingReceipt{
		Signed:     signed,
		Deployment: deployment,
		ReceivedAt: time.Now(),
	}
}

// Reserve transitions the receipt into the reserved state after all checks
// have passed and its value has been held against the payer's escrow.
func (c *CheckingReceipt) Reserve() *ReservedReceipt {
	return &ReservedReceipt{
		Signed:     c.Signed,
		Deployment: c.Deployment,
		ReservedAt: time.Now(),
	}
}

// Fail transitions the receipt into the terminal failed state.
func (c *CheckingReceipt) Fail(err error) *FailedReceipt {
	return &FailedReceipt{
		Signed:     c.Signed,
		Deployment: c.Deployment,
		Reason:     err,
	}
}

// ReservedReceipt is a fully validated receipt whose value has been reserved.
// It is the unit handed to durable storage for later batch redemption.
type ReservedReceipt struct {
	Signed     *SignedReceipt
	Deployment DeploymentID
	ReservedAt time.Time
}

// FailedReceipt is a receipt rejected by the check pipeline.
type FailedReceipt struct {
	Signed     *SignedReceipt
	Deployment DeploymentID
	Reason     error
}
