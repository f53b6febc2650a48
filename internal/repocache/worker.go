package repocache

import (
	"context"
	"sync"
	"sync/atomic"
)

// worker runs status refreshes one at a time. Requests land in a one-slot
// mailbox, so any number of requests made while a refresh is pending
// collapse into a single run.
type worker struct {
	mailbox chan struct{}
	quit    chan struct{}
	exited  chan struct{}

	state     atomic.Int32
	requested atomic.Uint64

	mu        sync.Mutex
	completed uint64
	done      chan struct{}

	closeOnce sync.Once
}

func newWorker() *worker {
	return &worker{
		mailbox: make(chan struct{}, 1),
		quit:    make(chan struct{}),
		exited:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (w *worker) start(run func()) {
	go func() {
		defer close(w.exited)

		for {
			select {
			case <-w.quit:
				return
			case <-w.mailbox:
			}

			// every request counted so far is served by this run
			target := w.requested.Load()
			run()
			w.complete(target)
		}
	}()
}

// schedule requests a refresh. It returns false once the worker is closed.
func (w *worker) schedule() bool {
	if w.isClosed() {
		return false
	}

	w.requested.Add(1)
	w.state.CompareAndSwap(int32(StateIdle), int32(StateRunning))

	select {
	case w.mailbox <- struct{}{}:
	default:
	}

	return true
}

func (w *worker) complete(target uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.completed = max(w.completed, target)
	close(w.done)
	w.done = make(chan struct{})
}

// settle blocks until every request made before the call has been run.
func (w *worker) settle(ctx context.Context) error {
	target := w.requested.Load()

	for {
		if w.isClosed() {
			return ErrClosed
		}

		w.mu.Lock()
		if w.completed >= target {
			w.mu.Unlock()
			return nil
		}
		done := w.done
		w.mu.Unlock()

		select {
		case <-done:
		case <-w.quit:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// close stops the worker. A run in progress is awaited until ctx expires
// and abandoned afterwards.
func (w *worker) close(ctx context.Context) error {
	w.closeOnce.Do(func() {
		close(w.quit)
	})

	select {
	case <-w.exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *worker) isClosed() bool {
	select {
	case <-w.quit:
		return true
	default:
		return false
	}
}

func (w *worker) setState(s State) {
	w.state.Store(int32(s))
}

func (w *worker) currentState() State {
	return State(w.state.Load())
}
