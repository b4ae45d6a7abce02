// Package component manages the worker goroutines of long-running components
// behind a uniform Start / Ready / Done contract.
package component

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/atomic"

	"github.com/PanGan21/indexer-go/module"
	"github.com/PanGan21/indexer-go/module/irrecoverable"
	"github.com/PanGan21/indexer-go/module/util"
)

// ErrComponentShutdown is returned by a component which has already been
// shut down.
var ErrComponentShutdown = errors.New("component has already shut down")

// Component is a unit that can be started once and exposes channels closing
// when startup and shutdown have completed.
type Component interface {
	module.Startable
	module.ReadyDoneAware
}

// ReadyFunc is called within a ComponentWorker to indicate that the worker is
// ready. The ComponentManager's Ready channel closes once all workers have
// called it.
type ReadyFunc func()

// ComponentWorker is one worker routine of a component. It receives the
// SignalerContext to throw irrecoverable errors through, and must call ready
// once its startup is complete.
type ComponentWorker func(ctx irrecoverable.SignalerContext, ready ReadyFunc)

// ComponentManagerBuilder accumulates workers for a ComponentManager.
type ComponentManagerBuilder interface {
	// AddWorker adds a worker routine. Not concurrency-safe.
	AddWorker(ComponentWorker) ComponentManagerBuilder

	// Build returns a new ComponentManager running the accumulated workers.
	Build() *ComponentManager
}

type componentManagerBuilder struct {
	workers []ComponentWorker
}

func NewComponentManagerBuilder() ComponentManagerBuilder {
	return &componentManagerBuilder{}
}

func (b *componentManagerBuilder) AddWorker(worker ComponentWorker) ComponentManagerBuilder {
	b.workers = append(b.workers, worker)
	return b
}

func (b *componentManagerBuilder) Build() *ComponentManager {
	return &ComponentManager{
		started:        atomic.NewBool(false),
		ready:          make(chan struct{}),
		done:           make(chan struct{}),
		workersDone:    make(chan struct{}),
		shutdownSignal: make(chan struct{}),
		workers:        b.workers,
	}
}

var _ Component = (*ComponentManager)(nil)

// ComponentManager implements the Component interface for a set of worker
// routines. Ready() closes once every worker has signalled readiness; Done()
// closes after every worker has returned. Shutdown is triggered by cancelling
// the context passed to Start; any error thrown by a worker cancels the
// remaining workers and is escalated to the parent context.
type ComponentManager struct {
	started        *atomic.Bool
	ready          chan struct{}
	done           chan struct{}
	workersDone    chan struct{}
	shutdownSignal chan struct{}

	workers []ComponentWorker
}

// Start launches all worker routines. It must only be called once and panics
// otherwise.
func (c *ComponentManager) Start(parent irrecoverable.SignalerContext) {
	if !c.started.CompareAndSwap(false, true) {
		panic(module.ErrMultipleStartup)
	}

	ctx, cancel := context.WithCancel(parent)
	signalerCtx, errChan := irrecoverable.WithSignaler(ctx)

	go func() {
		<-ctx.Done()
		close(c.shutdownSignal)
	}()

	go func() {
		// close done only after any pending worker error has propagated,
		// otherwise the parent may observe completion before the failure
		defer func() {
			<-c.workersDone
			close(c.done)
		}()

		if err := util.WaitError(errChan, c.workersDone); err != nil {
			cancel()
			parent.Throw(err)
		}
	}()

	var workersReady sync.WaitGroup
	var workersDone sync.WaitGroup
	workersReady.Add(len(c.workers))
	workersDone.Add(len(c.workers))

	for _, worker := range c.workers {
		worker := worker
		go func() {
			defer workersDone.Done()
			var readyOnce sync.Once
			worker(signalerCtx, func() {
				readyOnce.Do(workersReady.Done)
			})
		}()
	}

	go func() {
		workersReady.Wait()
		close(c.ready)
	}()
	go func() {
		workersDone.Wait()
		close(c.workersDone)
	}()
}

// Ready closes once all worker routines have signalled readiness. If a worker
// exits before doing so, the channel never closes.
func (c *ComponentManager) Ready() <-chan struct{} {
	return c.ready
}

// Done closes once all worker routines have shut down.
func (c *ComponentManager) Done() <-chan struct{} {
	return c.done
}

// ShutdownSignal returns a channel closing when shutdown has commenced,
// either through context cancellation or a worker error. Returns nil before
// Start.
func (c *ComponentManager) ShutdownSignal() <-chan struct{} {
	return c.shutdownSignal
}
