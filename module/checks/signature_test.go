package checks_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PanGan21/indexer-go/model/payments"
	"github.com/PanGan21/indexer-go/module/checks"
	"github.com/PanGan21/indexer-go/utils/unittest"
)

// signatureFixtures derives a signer for one allocation and signs a receipt
// with it, returning everything the signature check needs.
func signatureFixtures(t *testing.T) (*payments.AllocationSnapshot, *payments.SignerSnapshot, *payments.CheckingReceipt, *payments.Allocation) {
	operator := unittest.KeyFixture(t)
	allocation := unittest.AllocationFixture()

	signer, err := payments.DeriveAttestationSigner(operator, allocation.ID)
	require.NoError(t, err)

	receipt := unittest.ReceiptFixture(unittest.AddressFixture(), allocation.ID, 100)
	signed := unittest.SignedReceiptFixture(t, receipt, signer.Key())

	allocations := payments.NewAllocationSnapshot([]*payments.Allocation{allocation})
	signers := payments.NewSignerSnapshot([]*payments.AttestationSigner{signer}, unittest.AddressFixture())
	return allocations, signers, payments.NewCheckingReceipt(unittest.DeploymentFixture(), signed), allocation
}

func TestSignatureCheckValid(t *testing.T) {
	allocations, signers, receipt, _ := signatureFixtures(t)
	check := checks.NewSignatureCheck(unittest.DomainFixture())

	err := check.Check(context.Background(), contextFixture(allocations, signers, nil), receipt)
	require.NoError(t, err)
}

func TestSignatureCheckUnknownAllocation(t *testing.T) {
	_, signers, receipt, _ := signatureFixtures(t)
	check := checks.NewSignatureCheck(unittest.DomainFixture())

	// empty allocation snapshot: the claimed allocation is unknown
	empty := payments.NewAllocationSnapshot(nil)
	err := check.Check(context.Background(), contextFixture(empty, signers, nil), receipt)
	require.ErrorIs(t, err, checks.ErrUnknownAllocation)
	assert.Equal(t, checks.KindPayment, checks.KindOf(err))
}

func TestSignatureCheckClosedAllocation(t *testing.T) {
	_, signers, receipt, allocation := signatureFixtures(t)
	check := checks.NewSignatureCheck(unittest.DomainFixture())

	closed := *allocation
	closed.ClosedAtEpoch = 200
	allocations := payments.NewAllocationSnapshot([]*payments.Allocation{&closed})

	err := check.Check(context.Background(), contextFixture(allocations, signers, nil), receipt)
	require.ErrorIs(t, err, checks.ErrClosedAllocation)
}

func TestSignatureCheckWrongSigner(t *testing.T) {
	allocations, _, receipt, allocation := signatureFixtures(t)
	check := checks.NewSignatureCheck(unittest.DomainFixture())

	// a signer map built from a different operator authorizes a different key
	otherOperator := unittest.KeyFixture(t)
	otherSigner, err := payments.DeriveAttestationSigner(otherOperator, allocation.ID)
	require.NoError(t, err)
	signers := payments.NewSignerSnapshot([]*payments.AttestationSigner{otherSigner}, unittest.AddressFixture())

	err = check.Check(context.Background(), contextFixture(allocations, signers, nil), receipt)
	require.ErrorIs(t, err, checks.ErrInvalidSignature)
	assert.Equal(t, checks.KindPayment, checks.KindOf(err))
}

func TestSignatureCheckSignerNotReady(t *testing.T) {
	allocations, _, receipt, _ := signatureFixtures(t)
	check := checks.NewSignatureCheck(unittest.DomainFixture())

	// allocation is known but no signer has been derived yet
	signers := payments.NewSignerSnapshot(nil, common.Address{})
	err := check.Check(context.Background(), contextFixture(allocations, signers, nil), receipt)
	require.ErrorIs(t, err, checks.ErrNotReady)
	assert.Equal(t, checks.KindNotReady, checks.KindOf(err))
}

func TestSignatureCheckNilSnapshots(t *testing.T) {
	_, _, receipt, _ := signatureFixtures(t)
	check := checks.NewSignatureCheck(unittest.DomainFixture())

	err := check.Check(context.Background(), contextFixture(nil, nil, nil), receipt)
	require.ErrorIs(t, err, checks.ErrNotReady)
	assert.Equal(t, checks.KindNotReady, checks.KindOf(err))
}
