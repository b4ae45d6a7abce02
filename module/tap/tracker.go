package tap

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PanGan21/indexer-go/model/payments"
	"github.com/PanGan21/indexer-go/module/checks"
	"github.com/PanGan21/indexer-go/module/snapshot"
)

// EscrowTracker is the local reservation ledger: it accounts for receipt
// values reserved since the last escrow snapshot was published, so a burst of
// concurrent receipts against one payer cannot jointly overspend the last
// known balance. "read balance, check sufficiency, subtract" runs under a
// single critical section; the payer population is small enough that one
// mutex beats per-payer locks.
type EscrowTracker struct {
	mu       sync.Mutex
	escrow   *snapshot.Value[payments.EscrowAccounts]
	reserved map[common.Address]*big.Int
}

func NewEscrowTracker(escrow *snapshot.Value[payments.EscrowAccounts]) *EscrowTracker {
	return &EscrowTracker{
		escrow:   escrow,
		reserved: make(map[common.Address]*big.Int),
	}
}

var _ checks.ReservationLedger = (*EscrowTracker)(nil)

// Reserved returns the value currently reserved against the payer.
func (t *EscrowTracker) Reserved(payer common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	reserved, ok := t.reserved[payer]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(reserved)
}

// Reserve atomically verifies sufficiency against the latest escrow snapshot
// and subtracts value from the payer's working balance. This is the
// authoritative admission decision: of two concurrent reservations whose sum
// exceeds the balance, exactly one succeeds.
func (t *EscrowTracker) Reserve(payer common.Address, value *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	accounts, ok := t.escrow.Latest()
	if !ok {
		return checks.NewNotReadyError(checks.ErrNotReady)
	}
	balance, ok := accounts.Balance(payer)
	if !ok {
		return checks.NewPaymentError(fmt.Errorf("%w: %s", checks.ErrUnknownPayer, payer.Hex()))
	}

	reserved, ok := t.reserved[payer]
	if !ok {
		reserved = new(big.Int)
	}
	available := new(big.Int).Sub(balance, reserved)
	if available.Cmp(value) < 0 {
		return checks.NewPaymentError(fmt.Errorf("%w: available %s, receipt value %s",
			checks.ErrInsufficientEscrow, available, value))
	}

	t.reserved[payer] = new(big.Int).Add(reserved, value)
	return nil
}

// Release returns a previously reserved value to the payer's working balance,
// used when persistence fails or the request is abandoned.
func (t *EscrowTracker) Release(payer common.Address, value *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	reserved, ok := t.reserved[payer]
	if !ok {
		return
	}
	remaining := new(big.Int).Sub(reserved, value)
	if remaining.Sign() <= 0 {
		delete(t.reserved, payer)
		return
	}
	t.reserved[payer] = remaining
}

// Reconcile resets the ledger against a freshly published escrow snapshot,
// which is assumed to reflect redeemed value.
func (t *EscrowTracker) Reconcile() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reserved = make(map[common.Address]*big.Int)
}
