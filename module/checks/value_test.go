package checks_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PanGan21/indexer-go/model/payments"
	"github.com/PanGan21/indexer-go/module/checks"
	"github.com/PanGan21/indexer-go/module/mempool"
	"github.com/PanGan21/indexer-go/utils/unittest"
)

func checkingReceiptFixture(t *testing.T, value int64) *payments.CheckingReceipt {
	key := unittest.KeyFixture(t)
	receipt := unittest.ReceiptFixture(unittest.AddressFixture(), unittest.AddressFixture(), value)
	signed := unittest.SignedReceiptFixture(t, receipt, key)
	return payments.NewCheckingReceipt(unittest.DeploymentFixture(), signed)
}

func TestValueCheckMatch(t *testing.T) {
	appraisals := mempool.NewAppraisals(time.Minute)
	check := checks.NewValueCheck(appraisals)

	receipt := checkingReceiptFixture(t, 100)
	require.NoError(t, appraisals.Put(receipt.Signed.UniqueHash(), big.NewInt(100)))

	err := check.Check(context.Background(), contextFixture(nil, nil, nil), receipt)
	require.NoError(t, err)
	// the appraisal is consumed
	assert.Equal(t, uint(0), appraisals.Size())
}

func TestValueCheckMismatch(t *testing.T) {
	appraisals := mempool.NewAppraisals(time.Minute)
	check := checks.NewValueCheck(appraisals)

	// any difference rejects, including off by one
	receipt := checkingReceiptFixture(t, 101)
	require.NoError(t, appraisals.Put(receipt.Signed.UniqueHash(), big.NewInt(100)))

	err := check.Check(context.Background(), contextFixture(nil, nil, nil), receipt)
	require.ErrorIs(t, err, checks.ErrValueMismatch)
	assert.Equal(t, checks.KindPayment, checks.KindOf(err))
}

func TestValueCheckNoAppraisal(t *testing.T) {
	appraisals := mempool.NewAppraisals(time.Minute)
	check := checks.NewValueCheck(appraisals)

	receipt := checkingReceiptFixture(t, 100)
	err := check.Check(context.Background(), contextFixture(nil, nil, nil), receipt)
	require.ErrorIs(t, err, checks.ErrNoAppraisal)
	assert.Equal(t, checks.KindPayment, checks.KindOf(err))
}

func TestValueCheckConsumedOnce(t *testing.T) {
	appraisals := mempool.NewAppraisals(time.Minute)
	check := checks.NewValueCheck(appraisals)

	receipt := checkingReceiptFixture(t, 100)
	require.NoError(t, appraisals.Put(receipt.Signed.UniqueHash(), big.NewInt(100)))

	require.NoError(t, check.Check(context.Background(), contextFixture(nil, nil, nil), receipt))
	// a replay of the same receipt finds no appraisal
	err := check.Check(context.Background(), contextFixture(nil, nil, nil), receipt)
	require.ErrorIs(t, err, checks.ErrNoAppraisal)
}
