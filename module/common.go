package module

import (
	"errors"

	"github.com/PanGan21/indexer-go/module/irrecoverable"
)

// ErrMultipleStartup is returned when Start is called more than once on a
// startable component.
var ErrMultipleStartup = errors.New("component may only be started once")

// ReadyDoneAware exposes channels that close once startup, respectively
// shutdown, of a component has completed.
type ReadyDoneAware interface {
	// Ready closes once the component is ready to serve.
	Ready() <-chan struct{}

	// Done closes once the component has fully shut down.
	Done() <-chan struct{}
}

// Startable is a component that can be started once. Shutdown is signalled by
// cancelling the context passed to Start; irrecoverable errors are thrown
// through it.
type Startable interface {
	Start(ctx irrecoverable.SignalerContext)
}
