// Package operation provides the functional badger primitives the storage
// layer is composed from. Each operation is a closure over a transaction,
// so stores can combine them inside a single View/Update.
package operation

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/PanGan21/indexer-go/storage"
)

// insert encodes the entity and writes it under key. It errors with
// storage.ErrAlreadyExists if the key is already present, which is how the
// uniqueness constraint on receipt keys is enforced.
func insert(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("could not check key: %w", err)
		}

		val, err := encodeEntity(entity)
		if err != nil {
			return err
		}

		err = tx.Set(key, val)
		if err != nil {
			return fmt.Errorf("could not store data: %w", err)
		}
		return nil
	}
}

// retrieve reads the value under key and decodes it into entity. It errors
// with storage.ErrNotFound if the key does not exist.
func retrieve(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("could not load data: %w", err)
		}
		err = item.Value(func(val []byte) error {
			return decodeValue(val, entity)
		})
		if err != nil {
			return fmt.Errorf("could not load value: %w", err)
		}
		return nil
	}
}

// exists checks whether the key is present and stores the result in found.
func exists(key []byte, found *bool) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			*found = false
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not check key: %w", err)
		}
		*found = true
		return nil
	}
}

// iterateKeys calls handle with every key sharing the given prefix. Values
// are not loaded.
func iterateKeys(prefix []byte, handle func(key []byte) error) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			err := handle(key)
			if err != nil {
				return fmt.Errorf("could not handle key %x: %w", key, err)
			}
		}
		return nil
	}
}
