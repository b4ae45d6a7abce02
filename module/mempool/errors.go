package mempool

import (
	"errors"
)

// ErrAlreadyExists is returned when adding an entry whose key is already
// present. A second appraisal for the same query id must never silently
// replace the first, since that would allow a value-mismatch bypass.
var ErrAlreadyExists = errors.New("entry already exists in mempool")
