package tap_test

import (
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PanGan21/indexer-go/model/payments"
	"github.com/PanGan21/indexer-go/module/checks"
	"github.com/PanGan21/indexer-go/module/snapshot"
	"github.com/PanGan21/indexer-go/module/tap"
	"github.com/PanGan21/indexer-go/utils/unittest"
)

func escrowValueFixture(payer common.Address, balance int64) *snapshot.Value[payments.EscrowAccounts] {
	escrow := snapshot.NewValue[payments.EscrowAccounts]()
	escrow.Publish(payments.NewEscrowAccounts(map[common.Address]*big.Int{
		payer: big.NewInt(balance),
	}))
	return escrow
}

func TestTrackerReserveSubtracts(t *testing.T) {
	payer := unittest.AddressFixture()
	tracker := tap.NewEscrowTracker(escrowValueFixture(payer, 100))

	require.NoError(t, tracker.Reserve(payer, big.NewInt(60)))
	assert.Equal(t, big.NewInt(60), tracker.Reserved(payer))

	// 40 left, 41 does not fit
	err := tracker.Reserve(payer, big.NewInt(41))
	require.ErrorIs(t, err, checks.ErrInsufficientEscrow)

	require.NoError(t, tracker.Reserve(payer, big.NewInt(40)))
	assert.Equal(t, big.NewInt(100), tracker.Reserved(payer))
}

func TestTrackerReserveNotReady(t *testing.T) {
	tracker := tap.NewEscrowTracker(snapshot.NewValue[payments.EscrowAccounts]())

	err := tracker.Reserve(unittest.AddressFixture(), big.NewInt(1))
	require.ErrorIs(t, err, checks.ErrNotReady)
	assert.Equal(t, checks.KindNotReady, checks.KindOf(err))
}

func TestTrackerReserveUnknownPayer(t *testing.T) {
	tracker := tap.NewEscrowTracker(escrowValueFixture(unittest.AddressFixture(), 100))

	err := tracker.Reserve(unittest.AddressFixture(), big.NewInt(1))
	require.ErrorIs(t, err, checks.ErrUnknownPayer)
}

func TestTrackerRelease(t *testing.T) {
	payer := unittest.AddressFixture()
	tracker := tap.NewEscrowTracker(escrowValueFixture(payer, 100))

	require.NoError(t, tracker.Reserve(payer, big.NewInt(80)))
	tracker.Release(payer, big.NewInt(30))
	assert.Equal(t, big.NewInt(50), tracker.Reserved(payer))

	// releasing the rest clears the entry entirely
	tracker.Release(payer, big.NewInt(50))
	assert.Equal(t, 0, tracker.Reserved(payer).Sign())

	// releasing for an untracked payer is a no-op
	tracker.Release(unittest.AddressFixture(), big.NewInt(10))
}

func TestTrackerReconcileClears(t *testing.T) {
	payer := unittest.AddressFixture()
	escrow := escrowValueFixture(payer, 100)
	tracker := tap.NewEscrowTracker(escrow)

	require.NoError(t, tracker.Reserve(payer, big.NewInt(100)))
	require.ErrorIs(t, tracker.Reserve(payer, big.NewInt(1)), checks.ErrInsufficientEscrow)

	// a fresh snapshot is assumed to account for redeemed value
	escrow.Publish(payments.NewEscrowAccounts(map[common.Address]*big.Int{
		payer: big.NewInt(40),
	}))
	tracker.Reconcile()

	require.NoError(t, tracker.Reserve(payer, big.NewInt(40)))
	require.ErrorIs(t, tracker.Reserve(payer, big.NewInt(1)), checks.ErrInsufficientEscrow)
}

func TestTrackerConcurrentReserve(t *testing.T) {
	payer := unittest.AddressFixture()
	tracker := tap.NewEscrowTracker(escrowValueFixture(payer, 100))

	// 10 concurrent reservations of 60 against a balance of 100: exactly
	// one can win
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tracker.Reserve(payer, big.NewInt(60)); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, big.NewInt(60), tracker.Reserved(payer))
}
