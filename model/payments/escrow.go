package payments

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EscrowAccounts is an immutable snapshot of payer escrow balances as of its
// refresh time. Balances are authoritative only as of that time; reservations
// made since the refresh are tracked separately by the manager.
type EscrowAccounts struct {
	balances map[common.Address]*big.Int
}

func NewEscrowAccounts(balances map[common.Address]*big.Int) *EscrowAccounts {
	copied := make(map[common.Address]*big.Int, len(balances))
	for payer, balance := range balances {
		copied[payer] = new(big.Int).Set(balance)
	}
	return &EscrowAccounts{balances: copied}
}

// Balance returns the escrow balance for the payer at snapshot time. The
// second return is false for payers with no escrow account.
func (e *EscrowAccounts) Balance(payer common.Address) (*big.Int, bool) {
	balance, ok := e.balances[payer]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(balance), true
}

// Payers returns the payers with a known escrow account.
func (e *EscrowAccounts) Payers() []common.Address {
	payers := make([]common.Address, 0, len(e.balances))
	for payer := range e.balances {
		payers = append(payers, payer)
	}
	return payers
}

func (e *EscrowAccounts) Size() int {
	return len(e.balances)
}
