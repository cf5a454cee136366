package uwb

import (
	"context"
	"sync/atomic"
)

// Dispatcher is the single-threaded serial executor that guarantees
// at-most-one driver call in flight for the whole manager (spec §4.2,
// §5). Every command — init/start/stop/reconfigure/send/multicast-update —
// is posted here as a closure and runs to completion (including its bounded
// wait for the expected driver notification) before the next queued command
// starts.
//
// The run loop follows the same ctx-or-channel select shape used elsewhere
// in this codebase for single-goroutine event loops; the difference here is
// that all sessions share one loop instead of one loop per session, because
// spec §4.2 requires commands across sessions to be globally ordered.
type Dispatcher struct {
	queue  chan command
	closed atomic.Bool
}

type command struct {
	fn   func(ctx context.Context)
	done chan struct{}
}

// defaultQueueDepth bounds the number of commands that may be queued ahead
// of the one currently executing before Post blocks on enqueueing.
const defaultQueueDepth = 256

// NewDispatcher constructs a Dispatcher. Run must be called exactly once,
// typically from a dedicated goroutine owned by the daemon's supervision
// tree (cmd/uwbd).
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		queue: make(chan command, defaultQueueDepth),
	}
}

// Run executes queued commands one at a time until ctx is cancelled. It is
// the dispatcher's single worker loop; nothing else reads from d.queue.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-d.queue:
			cmd.fn(ctx)
			close(cmd.done)
		}
	}
}

// Post enqueues fn and blocks until it has run to completion or ctx is
// cancelled first. fn receives the dispatcher's run context, not the
// caller's — cancelling the caller's ctx only stops the caller from
// waiting, it does not abort fn once it has started (matching spec §5's
// "no explicit cancel" rule: only deInitSession aborts in-flight work).
//
// Commands posted while another is executing enqueue behind it; each caller
// still waits for its own command to finish (or its ctx to end) before Post
// returns.
func (d *Dispatcher) Post(ctx context.Context, fn func(ctx context.Context)) error {
	if d.closed.Load() {
		return ErrDispatcherClosed
	}

	cmd := command{fn: fn, done: make(chan struct{})}

	select {
	case d.queue <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the dispatcher closed; subsequent Post calls fail fast with
// ErrDispatcherClosed instead of enqueuing. Run must still be stopped
// separately via context cancellation.
func (d *Dispatcher) Close() {
	d.closed.Store(true)
}
