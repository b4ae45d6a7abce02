package operation

import (
	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack"

	"github.com/PanGan21/indexer-go/module/irrecoverable"
)

// encodeEntity encodes the entity with msgpack and compresses the result
// with snappy. Encoding failures are exceptions: they indicate an entity
// type the codec cannot represent, not a recoverable condition.
func encodeEntity(entity interface{}) ([]byte, error) {
	val, err := msgpack.Marshal(entity)
	if err != nil {
		return nil, irrecoverable.NewExceptionf("could not encode entity: %w", err)
	}
	return snappy.Encode(nil, val), nil
}

// decodeValue decompresses and decodes a stored value into entity.
func decodeValue(val []byte, entity interface{}) error {
	uncompressed, err := snappy.Decode(nil, val)
	if err != nil {
		return irrecoverable.NewExceptionf("could not uncompress value: %w", err)
	}
	err = msgpack.Unmarshal(uncompressed, entity)
	if err != nil {
		return irrecoverable.NewExceptionf("could not decode entity: %w", err)
	}
	return nil
}
