package checks_test

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PanGan21/indexer-go/model/payments"
	"github.com/PanGan21/indexer-go/module/checks"
	"github.com/PanGan21/indexer-go/storage"
)

// contextFixture builds a check context over the given snapshots; nil parts
// stay nil so not-ready paths can be exercised.
func contextFixture(
	allocations *payments.AllocationSnapshot,
	signers *payments.SignerSnapshot,
	escrow *payments.EscrowAccounts,
) *checks.Context {
	return &checks.Context{
		Allocations: allocations,
		Signers:     signers,
		Escrow:      escrow,
		Now:         time.Now(),
	}
}

// memReceipts is an in-memory storage.Receipts used by check tests.
type memReceipts struct {
	stored map[string]*payments.ReservedReceipt
	err    error
}

func newMemReceipts() *memReceipts {
	return &memReceipts{stored: make(map[string]*payments.ReservedReceipt)}
}

func receiptKey(payer common.Address, nonce uint64) string {
	return payer.Hex() + "/" + big.NewInt(int64(nonce)).String()
}

func (m *memReceipts) Store(receipt *payments.ReservedReceipt) error {
	if m.err != nil {
		return m.err
	}
	key := receiptKey(receipt.Signed.Receipt.Payer, receipt.Signed.Receipt.Nonce)
	if _, ok := m.stored[key]; ok {
		return storage.ErrAlreadyExists
	}
	m.stored[key] = receipt
	return nil
}

func (m *memReceipts) Exists(payer common.Address, nonce uint64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.stored[receiptKey(payer, nonce)]
	return ok, nil
}

func (m *memReceipts) ByPayerNonce(payer common.Address, nonce uint64) (*payments.ReservedReceipt, error) {
	receipt, ok := m.stored[receiptKey(payer, nonce)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return receipt, nil
}

func (m *memReceipts) ByAllocation(allocation common.Address) ([]*payments.ReservedReceipt, error) {
	var receipts []*payments.ReservedReceipt
	for _, receipt := range m.stored {
		if receipt.Signed.Receipt.AllocationID == allocation {
			receipts = append(receipts, receipt)
		}
	}
	return receipts, nil
}

// zeroLedger reports no local reservations.
type zeroLedger struct{}

func (zeroLedger) Reserved(common.Address) *big.Int {
	return new(big.Int)
}

// fixedLedger reports the same reservation for every payer.
type fixedLedger struct {
	reserved *big.Int
}

func (l fixedLedger) Reserved(common.Address) *big.Int {
	return new(big.Int).Set(l.reserved)
}
