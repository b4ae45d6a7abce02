package service

import (
	"errors"
	"net/http"

	"github.com/PanGan21/indexer-go/module/checks"
)

// ErrNoReceipt is returned when a request arrives without a payment receipt.
var ErrNoReceipt = errors.New("no receipt provided with the request")

// StatusFor maps a validation failure onto the protocol-level status class:
// payment-required, unauthorized, bad-request, or service-unavailable. The
// internal reason strings are never interpreted here beyond sentinel
// identity.
func StatusFor(err error) int {
	if errors.Is(err, ErrNoReceipt) {
		return http.StatusPaymentRequired
	}

	switch checks.KindOf(err) {
	case checks.KindNotReady:
		return http.StatusServiceUnavailable
	case checks.KindInternal:
		// system-side failure; retryable, never conflated with a payment
		// rejection
		return http.StatusServiceUnavailable
	case checks.KindPayment:
		if errors.Is(err, checks.ErrInvalidSignature) ||
			errors.Is(err, checks.ErrUnknownAllocation) ||
			errors.Is(err, checks.ErrClosedAllocation) {
			return http.StatusUnauthorized
		}
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
