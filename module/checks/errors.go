package checks

import (
	"errors"
)

// Kind classifies a check failure for the caller. The transport layer maps
// kinds (plus the sentinel reason) to a status class without needing
// pipeline internals.
type Kind int

const (
	// KindPayment is a terminal user/payment rejection. Never retried.
	KindPayment Kind = iota
	// KindNotReady means a reference table has no snapshot yet. The caller
	// may retry shortly.
	KindNotReady
	// KindInternal is a system-side failure unrelated to the payer.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindPayment:
		return "payment"
	case KindNotReady:
		return "not_ready"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Payment rejection reasons. Each carries a distinct sentinel so callers can
// match with errors.Is; the wrapping Error supplies the kind.
var (
	ErrNoAppraisal         = errors.New("no appraised value found for query")
	ErrValueMismatch       = errors.New("receipt value differs from appraised value")
	ErrUnknownAllocation   = errors.New("receipt names an unknown allocation")
	ErrClosedAllocation    = errors.New("receipt names a closed allocation")
	ErrInvalidSignature    = errors.New("receipt signature invalid for allocation signer")
	ErrDuplicateReceipt    = errors.New("receipt (payer, nonce) already redeemed")
	ErrUnknownPayer        = errors.New("no escrow account for payer")
	ErrInsufficientEscrow  = errors.New("payer escrow balance insufficient")
	ErrTimestampOutOfRange = errors.New("receipt timestamp outside acceptance window")

	// ErrNotReady is the reason used when a reference table has never
	// successfully refreshed.
	ErrNotReady = errors.New("reference data not available yet")
)

// Error is the closed error type returned by checks and the manager: a kind
// plus a wrapped reason. The reason is inspectable through errors.Is /
// errors.As without the caller knowing its concrete shape.
type Error struct {
	kind Kind
	err  error
}

func (e *Error) Error() string {
	return "receipt check failed (" + e.kind.String() + "): " + e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Kind() Kind {
	return e.kind
}

func NewPaymentError(err error) *Error {
	return &Error{kind: KindPayment, err: err}
}

func NewNotReadyError(err error) *Error {
	return &Error{kind: KindNotReady, err: err}
}

func NewInternalError(err error) *Error {
	return &Error{kind: KindInternal, err: err}
}

// KindOf extracts the failure kind from err. Unrecognized errors are
// classified internal.
func KindOf(err error) Kind {
	var checkErr *Error
	if errors.As(err, &checkErr) {
		return checkErr.Kind()
	}
	return KindInternal
}
