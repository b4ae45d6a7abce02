package unittest

import (
	"crypto/ecdsa"
	"crypto/rand"
	"math/big"
	mathrand "math/rand"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/PanGan21/indexer-go/model/payments"
)

// DomainFixture is the signing domain used across tests.
func DomainFixture() *payments.Domain {
	return &payments.Domain{
		Name:              "TAP",
		Version:           "1",
		ChainID:           big.NewInt(1337),
		VerifyingContract: common.HexToAddress("0x1111111111111111111111111111111111111111"),
	}
}

func KeyFixture(t testing.TB) *ecdsa.PrivateKey {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func AddressFixture() common.Address {
	var addr common.Address
	_, _ = rand.Read(addr[:])
	return addr
}

func DeploymentFixture() payments.DeploymentID {
	var d common.Hash
	_, _ = rand.Read(d[:])
	return payments.DeploymentID(d)
}

func AllocationFixture(opts ...func(*payments.Allocation)) *payments.Allocation {
	alloc := &payments.Allocation{
		ID:             AddressFixture(),
		Deployment:     DeploymentFixture(),
		CreatedAtEpoch: 100,
	}
	for _, opt := range opts {
		opt(alloc)
	}
	return alloc
}

func WithClosedAtEpoch(epoch uint64) func(*payments.Allocation) {
	return func(alloc *payments.Allocation) {
		alloc.ClosedAtEpoch = epoch
	}
}

// ReceiptFixture builds a receipt with a fresh timestamp and random nonce.
func ReceiptFixture(payer common.Address, allocation common.Address, value int64) *payments.Receipt {
	return &payments.Receipt{
		Payer:        payer,
		AllocationID: allocation,
		TimestampNs:  uint64(time.Now().UnixNano()),
		Nonce:        mathrand.Uint64(),
		Value:        big.NewInt(value),
	}
}

// SignedReceiptFixture signs the receipt within the test domain.
func SignedReceiptFixture(t testing.TB, receipt *payments.Receipt, key *ecdsa.PrivateKey) *payments.SignedReceipt {
	signed, err := payments.SignReceipt(DomainFixture(), receipt, key)
	require.NoError(t, err)
	return signed
}

// ReservedReceiptFixture builds a persisted-form receipt without going
// through the pipeline.
func ReservedReceiptFixture(t testing.TB, payer common.Address, allocation common.Address, value int64) *payments.ReservedReceipt {
	key := KeyFixture(t)
	signed := SignedReceiptFixture(t, ReceiptFixture(payer, allocation, value), key)
	return &payments.ReservedReceipt{
		Signed:     signed,
		Deployment: DeploymentFixture(),
		ReservedAt: time.Now(),
	}
}
