package mempool_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/PanGan21/indexer-go/module/irrecoverable"
	"github.com/PanGan21/indexer-go/module/mempool"
	"github.com/PanGan21/indexer-go/utils/unittest"
)

func TestJanitorEvictsExpired(t *testing.T) {
	appraisals := mempool.NewAppraisals(50 * time.Millisecond)
	janitor := mempool.NewAppraisalJanitor(zerolog.Nop(), appraisals, 10*time.Millisecond)

	require.NoError(t, appraisals.Put(queryIDFixture(), big.NewInt(100)))

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	janitor.Start(ctx)
	unittest.RequireCloseBefore(t, janitor.Ready(), time.Second, "janitor ready")

	require.Eventually(t, func() bool {
		return appraisals.Size() == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	unittest.RequireCloseBefore(t, janitor.Done(), time.Second, "janitor done")
}
