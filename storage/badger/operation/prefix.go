package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// key prefixes; new codes are appended, existing codes never change
	codeReceipt         = 1 // (payer, nonce) -> stored receipt
	codeAllocationIndex = 2 // (allocation, payer, nonce) -> empty
)

// makePrefix composes a key from a prefix code and key segments. Supported
// segment types are addresses and uint64s; anything else is a programming
// error.
func makePrefix(code byte, keys ...interface{}) []byte {
	prefix := []byte{code}
	for _, key := range keys {
		switch k := key.(type) {
		case common.Address:
			prefix = append(prefix, k.Bytes()...)
		case uint64:
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], k)
			prefix = append(prefix, b[:]...)
		default:
			panic(fmt.Sprintf("unsupported key segment type (%T)", key))
		}
	}
	return prefix
}
