package payments_test

import (
	"crypto/ecdsa"
	"crypto/rand"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PanGan21/indexer-go/model/payments"
)

func testDomain() *payments.Domain {
	return &payments.Domain{
		Name:              "TAP",
		Version:           "1",
		ChainID:           big.NewInt(1337),
		VerifyingContract: common.HexToAddress("0x1111111111111111111111111111111111111111"),
	}
}

func testReceipt() *payments.Receipt {
	return &payments.Receipt{
		Payer:        common.HexToAddress("0x2222222222222222222222222222222222222222"),
		AllocationID: common.HexToAddress("0x3333333333333333333333333333333333333333"),
		TimestampNs:  uint64(time.Now().UnixNano()),
		Nonce:        42,
		Value:        big.NewInt(100),
	}
}

func genKey(t *testing.T) *ecdsa.PrivateKey {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func TestSignAndRecover(t *testing.T) {
	domain := testDomain()
	key := genKey(t)

	signed, err := payments.SignReceipt(domain, testReceipt(), key)
	require.NoError(t, err)

	recovered, err := signed.RecoverSigner(domain)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), recovered)
}

func TestRecoverTamperedValue(t *testing.T) {
	domain := testDomain()
	key := genKey(t)

	signed, err := payments.SignReceipt(domain, testReceipt(), key)
	require.NoError(t, err)

	// raising the claimed value invalidates the signature
	signed.Receipt.Value = big.NewInt(101)
	recovered, err := signed.RecoverSigner(domain)
	if err == nil {
		assert.NotEqual(t, crypto.PubkeyToAddress(key.PublicKey), recovered)
	}
}

func TestRecoverWrongDomain(t *testing.T) {
	domain := testDomain()
	key := genKey(t)

	signed, err := payments.SignReceipt(domain, testReceipt(), key)
	require.NoError(t, err)

	other := testDomain()
	other.ChainID = big.NewInt(1)
	recovered, err := signed.RecoverSigner(other)
	if err == nil {
		assert.NotEqual(t, crypto.PubkeyToAddress(key.PublicKey), recovered)
	}
}

func TestRecoverMalformedSignature(t *testing.T) {
	domain := testDomain()
	key := genKey(t)

	signed, err := payments.SignReceipt(domain, testReceipt(), key)
	require.NoError(t, err)

	signed.Signature = signed.Signature[:10]
	_, err = signed.RecoverSigner(domain)
	require.Error(t, err)
}

func TestUniqueHash(t *testing.T) {
	domain := testDomain()
	key := genKey(t)

	first, err := payments.SignReceipt(domain, testReceipt(), key)
	require.NoError(t, err)

	second := testReceipt()
	second.Nonce = 43
	signedSecond, err := payments.SignReceipt(domain, second, key)
	require.NoError(t, err)

	assert.NotEqual(t, first.UniqueHash(), signedSecond.UniqueHash())
	// deterministic for the same signed receipt
	assert.Equal(t, first.UniqueHash(), first.UniqueHash())
}
