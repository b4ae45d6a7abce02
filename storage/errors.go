package storage

import (
	"errors"
)

var (
	// ErrNotFound is returned when a key does not exist in the database.
	// Note: badger.ErrKeyNotFound is the error returned by the badger API;
	// everything in storage/badger converts it to ErrNotFound before
	// returning, so callers only ever match against this sentinel.
	ErrNotFound = errors.New("key not found")

	// ErrAlreadyExists is returned when a key already exists. For receipts
	// this is the storage-level uniqueness constraint on (payer, nonce),
	// the second line of defense against replay.
	ErrAlreadyExists = errors.New("key already exists")
)
