// Package irrecoverable provides the error-escalation primitive used by all
// long-running components: errors a component cannot recover from are thrown
// through its context instead of being returned up a call chain that has no
// way to handle them.
package irrecoverable

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/atomic"
)

// Signaler transports a single irrecoverable error out of a component.
// Subsequent throws are a fatal programming error.
type Signaler struct {
	errChan   chan error
	errThrown *atomic.Bool
}

func NewSignaler() (*Signaler, <-chan error) {
	errChan := make(chan error, 1)
	return &Signaler{
		errChan:   errChan,
		errThrown: atomic.NewBool(false),
	}, errChan
}

// Throw sends the error and terminates the calling goroutine. It must never
// be called with nil and must be called at most once per Signaler.
func (s *Signaler) Throw(err error) {
	defer runtime.Goexit()
	if s.errThrown.CompareAndSwap(false, true) {
		s.errChan <- err
		close(s.errChan)
	} else {
		panic(fmt.Errorf("signaler threw a second irrecoverable error: %w", err))
	}
}

// SignalerContext is a drop-in replacement for context.Context that also
// carries the Throw escalation path.
type SignalerContext interface {
	context.Context
	Throw(err error)
	sealed()
}

type signalerCtx struct {
	context.Context
	*Signaler
}

func (signalerCtx) sealed() {}

// WithSignaler derives a SignalerContext from parent, returning the channel
// on which at most one thrown error is delivered.
func WithSignaler(parent context.Context) (SignalerContext, <-chan error) {
	sig, errChan := NewSignaler()
	return &signalerCtx{parent, sig}, errChan
}

// Throw escalates through ctx if it is a SignalerContext, and panics
// otherwise: a component run without a signaler has no recovery path.
func Throw(ctx context.Context, err error) {
	if sc, ok := ctx.(SignalerContext); ok {
		sc.Throw(err)
	}
	panic(fmt.Errorf("irrecoverable error thrown without signaler context: %w", err))
}
