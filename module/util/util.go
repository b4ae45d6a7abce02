package util

import (
	"github.com/PanGan21/indexer-go/module"
)

// WaitError waits for either an error on errChan or the closing of done.
// It returns the error if one arrives first, and nil otherwise.
func WaitError(errChan <-chan error, done <-chan struct{}) error {
	select {
	case err := <-errChan:
		return err
	case <-done:
		// the done channel may have closed concurrently with an error;
		// give the error priority
		select {
		case err := <-errChan:
			return err
		default:
			return nil
		}
	}
}

// AllReady returns a channel that closes when all components are ready.
func AllReady(components ...module.ReadyDoneAware) <-chan struct{} {
	ready := make(chan struct{})
	go func() {
		for _, c := range components {
			<-c.Ready()
		}
		close(ready)
	}()
	return ready
}

// AllDone returns a channel that closes when all components are done.
func AllDone(components ...module.ReadyDoneAware) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		for _, c := range components {
			<-c.Done()
		}
		close(done)
	}()
	return done
}
