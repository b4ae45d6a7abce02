package mempool_test

import (
	"crypto/rand"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PanGan21/indexer-go/model/payments"
	"github.com/PanGan21/indexer-go/module/mempool"
)

func queryIDFixture() payments.QueryID {
	var id common.Hash
	_, _ = rand.Read(id[:])
	return payments.QueryID(id)
}

func TestPutAndTake(t *testing.T) {
	appraisals := mempool.NewAppraisals(time.Minute)
	queryID := queryIDFixture()

	require.NoError(t, appraisals.Put(queryID, big.NewInt(100)))
	assert.Equal(t, uint(1), appraisals.Size())

	value, ok := appraisals.Take(queryID)
	require.True(t, ok)
	assert.Equal(t, int64(100), value.Int64())
	assert.Equal(t, uint(0), appraisals.Size())
}

func TestPutDuplicate(t *testing.T) {
	appraisals := mempool.NewAppraisals(time.Minute)
	queryID := queryIDFixture()

	require.NoError(t, appraisals.Put(queryID, big.NewInt(100)))
	err := appraisals.Put(queryID, big.NewInt(200))
	require.ErrorIs(t, err, mempool.ErrAlreadyExists)

	// the original appraisal stands
	value, ok := appraisals.Take(queryID)
	require.True(t, ok)
	assert.Equal(t, int64(100), value.Int64())
}

func TestTakeAbsent(t *testing.T) {
	appraisals := mempool.NewAppraisals(time.Minute)
	_, ok := appraisals.Take(queryIDFixture())
	assert.False(t, ok)
}

// TestTakeAtMostOnce verifies that concurrent takes for the same id succeed
// exactly once.
func TestTakeAtMostOnce(t *testing.T) {
	appraisals := mempool.NewAppraisals(time.Minute)
	queryID := queryIDFixture()
	require.NoError(t, appraisals.Put(queryID, big.NewInt(100)))

	const workers = 16
	var wg sync.WaitGroup
	successes := make(chan *big.Int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if value, ok := appraisals.Take(queryID); ok {
				successes <- value
			}
		}()
	}
	wg.Wait()
	close(successes)

	var taken []*big.Int
	for value := range successes {
		taken = append(taken, value)
	}
	require.Len(t, taken, 1)
	assert.Equal(t, int64(100), taken[0].Int64())
}

func TestMutatingTakenValue(t *testing.T) {
	appraisals := mempool.NewAppraisals(time.Minute)
	queryID := queryIDFixture()

	original := big.NewInt(100)
	require.NoError(t, appraisals.Put(queryID, original))

	// mutating the caller's value after Put must not affect the stored one
	original.SetInt64(999)
	value, ok := appraisals.Take(queryID)
	require.True(t, ok)
	assert.Equal(t, int64(100), value.Int64())
}

func TestEvictExpired(t *testing.T) {
	appraisals := mempool.NewAppraisals(time.Minute)
	expired := queryIDFixture()
	fresh := queryIDFixture()

	require.NoError(t, appraisals.Put(expired, big.NewInt(1)))
	require.NoError(t, appraisals.Put(fresh, big.NewInt(2)))

	evicted := appraisals.EvictExpired(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 2, evicted)
	assert.Equal(t, uint(0), appraisals.Size())

	require.NoError(t, appraisals.Put(fresh, big.NewInt(2)))
	evicted = appraisals.EvictExpired(time.Now())
	assert.Equal(t, 0, evicted)
	assert.Equal(t, uint(1), appraisals.Size())
}
