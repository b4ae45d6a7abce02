// Package snapshot provides the published-value primitive behind the
// reference tables: background refresh loops publish immutable snapshots,
// request handlers read the latest one without ever blocking on I/O.
package snapshot

import (
	"go.uber.org/atomic"

	"github.com/PanGan21/indexer-go/module"
)

// Value holds the latest published snapshot of type T. Publication replaces
// the whole snapshot with a single atomic pointer swap; readers never observe
// a partially updated value and never block the publisher. Before the first
// Publish, Latest reports ok=false, which consumers must surface as a
// not-ready condition rather than a rejection.
type Value[T any] struct {
	current  atomic.Pointer[T]
	notifier module.Notifier
}

func NewValue[T any]() *Value[T] {
	return &Value[T]{
		notifier: module.NewNotifier(),
	}
}

// Publish replaces the current snapshot and signals the update channel.
// The published value must not be mutated afterwards.
func (v *Value[T]) Publish(snapshot *T) {
	v.current.Store(snapshot)
	v.notifier.Notify()
}

// Latest returns the most recently published snapshot. ok is false until the
// first Publish.
func (v *Value[T]) Latest() (*T, bool) {
	snapshot := v.current.Load()
	if snapshot == nil {
		return nil, false
	}
	return snapshot, true
}

// Update returns the channel signalled on every Publish. Signals are
// collapsed; the channel supports a single consumer.
func (v *Value[T]) Update() <-chan struct{} {
	return v.notifier.Channel()
}
