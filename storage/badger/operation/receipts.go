package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"
)

// StoredReceipt is the codec-level representation of a reserved receipt.
type StoredReceipt struct {
	Payer        []byte
	AllocationID []byte
	Deployment   []byte
	TimestampNs  uint64
	Nonce        uint64
	Value        []byte // big-endian big.Int bytes
	Signature    []byte
	ReservedAt   int64 // unix nanoseconds
}

// InsertReceipt writes the receipt under its (payer, nonce) key, together
// with the allocation index entry used for batch reads. Fails with
// storage.ErrAlreadyExists on a duplicate (payer, nonce).
func InsertReceipt(payer common.Address, nonce uint64, allocation common.Address, receipt *StoredReceipt) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		err := insert(makePrefix(codeReceipt, payer, nonce), receipt)(tx)
		if err != nil {
			return err
		}
		err = insert(makePrefix(codeAllocationIndex, allocation, payer, nonce), struct{}{})(tx)
		if err != nil {
			return fmt.Errorf("could not insert allocation index: %w", err)
		}
		return nil
	}
}

// RetrieveReceipt loads the receipt stored under (payer, nonce).
func RetrieveReceipt(payer common.Address, nonce uint64, receipt *StoredReceipt) func(*badger.Txn) error {
	return retrieve(makePrefix(codeReceipt, payer, nonce), receipt)
}

// ReceiptExists checks whether a receipt for (payer, nonce) is stored.
func ReceiptExists(payer common.Address, nonce uint64, found *bool) func(*badger.Txn) error {
	return exists(makePrefix(codeReceipt, payer, nonce), found)
}

// LookupReceiptsByAllocation collects the (payer, nonce) pairs of all
// receipts stored against the allocation.
func LookupReceiptsByAllocation(allocation common.Address, payers *[]common.Address, nonces *[]uint64) func(*badger.Txn) error {
	prefix := makePrefix(codeAllocationIndex, allocation)
	return iterateKeys(prefix, func(key []byte) error {
		rest := key[len(prefix):]
		if len(rest) != common.AddressLength+8 {
			return fmt.Errorf("malformed allocation index key %x", key)
		}
		*payers = append(*payers, common.BytesToAddress(rest[:common.AddressLength]))
		*nonces = append(*nonces, binary.BigEndian.Uint64(rest[common.AddressLength:]))
		return nil
	})
}
