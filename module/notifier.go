package module

// Notifier informs worker routines about the arrival of new work without ever
// blocking the notifying side. It behaves like a channel in that it can be
// passed by value while sharing internal state: notifications are collapsed
// into a single pending signal, so a worker that reads the channel after any
// number of Notify calls observes exactly one wake-up.
type Notifier struct {
	notifier chan struct{} // buffered, capacity 1
}

func NewNotifier() Notifier {
	return Notifier{notifier: make(chan struct{}, 1)}
}

// Notify records a pending signal. Notifying while a signal is already
// pending is a no-op.
func (n Notifier) Notify() {
	select {
	case n.notifier <- struct{}{}:
	default:
	}
}

// Channel returns the channel to receive notifications on.
func (n Notifier) Channel() <-chan struct{} {
	return n.notifier
}
