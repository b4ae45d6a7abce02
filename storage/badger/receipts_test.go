package badger_test

import (
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PanGan21/indexer-go/storage"
	badgerstorage "github.com/PanGan21/indexer-go/storage/badger"
	"github.com/PanGan21/indexer-go/utils/unittest"
)

func TestReceiptsStoreRetrieve(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		store := badgerstorage.NewReceipts(db)

		expected := unittest.ReservedReceiptFixture(t, unittest.AddressFixture(), unittest.AddressFixture(), 100)
		require.NoError(t, store.Store(expected))

		payer := expected.Signed.Receipt.Payer
		nonce := expected.Signed.Receipt.Nonce

		exists, err := store.Exists(payer, nonce)
		require.NoError(t, err)
		assert.True(t, exists)

		actual, err := store.ByPayerNonce(payer, nonce)
		require.NoError(t, err)
		assert.Equal(t, expected.Signed.Receipt.Payer, actual.Signed.Receipt.Payer)
		assert.Equal(t, expected.Signed.Receipt.AllocationID, actual.Signed.Receipt.AllocationID)
		assert.Equal(t, expected.Signed.Receipt.TimestampNs, actual.Signed.Receipt.TimestampNs)
		assert.Equal(t, expected.Signed.Receipt.Nonce, actual.Signed.Receipt.Nonce)
		assert.Equal(t, 0, expected.Signed.Receipt.Value.Cmp(actual.Signed.Receipt.Value))
		assert.Equal(t, expected.Signed.Signature, actual.Signed.Signature)
		assert.Equal(t, expected.Deployment, actual.Deployment)
		assert.Equal(t, expected.ReservedAt.UnixNano(), actual.ReservedAt.UnixNano())
	})
}

func TestReceiptsNotFound(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		store := badgerstorage.NewReceipts(db)

		exists, err := store.Exists(unittest.AddressFixture(), 42)
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = store.ByPayerNonce(unittest.AddressFixture(), 42)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestReceiptsDuplicate(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		store := badgerstorage.NewReceipts(db)

		receipt := unittest.ReservedReceiptFixture(t, unittest.AddressFixture(), unittest.AddressFixture(), 100)
		require.NoError(t, store.Store(receipt))

		err := store.Store(receipt)
		require.ErrorIs(t, err, storage.ErrAlreadyExists)
	})
}

func TestReceiptsSamePayerDistinctNonces(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		store := badgerstorage.NewReceipts(db)

		payer := unittest.AddressFixture()
		allocation := unittest.AddressFixture()

		first := unittest.ReservedReceiptFixture(t, payer, allocation, 100)
		second := unittest.ReservedReceiptFixture(t, payer, allocation, 200)
		require.NoError(t, store.Store(first))
		require.NoError(t, store.Store(second))

		got, err := store.ByPayerNonce(payer, first.Signed.Receipt.Nonce)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Signed.Receipt.Value.Cmp(first.Signed.Receipt.Value))
	})
}

func TestReceiptsByAllocation(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		store := badgerstorage.NewReceipts(db)

		allocation := unittest.AddressFixture()
		other := unittest.AddressFixture()

		for i := int64(1); i <= 3; i++ {
			require.NoError(t, store.Store(unittest.ReservedReceiptFixture(t, unittest.AddressFixture(), allocation, i*100)))
		}
		require.NoError(t, store.Store(unittest.ReservedReceiptFixture(t, unittest.AddressFixture(), other, 999)))

		receipts, err := store.ByAllocation(allocation)
		require.NoError(t, err)
		require.Len(t, receipts, 3)
		for _, receipt := range receipts {
			assert.Equal(t, allocation, receipt.Signed.Receipt.AllocationID)
		}

		receipts, err = store.ByAllocation(unittest.AddressFixture())
		require.NoError(t, err)
		assert.Empty(t, receipts)
	})
}
