package loader

import (
	"context"
	"errors"
	"runtime/debug"

	"thumbgrid/internal/logging"
)

// ErrLoopStopped is returned by Call once the loop has exited.
var ErrLoopStopped = errors.New("loop stopped")

// Loop runs posted functions one at a time on a single goroutine. It is the
// interactive context of the coordinator: slot bindings are only touched
// from functions running on the loop.
type Loop struct {
	funcs chan func()
	done  chan struct{}
}

// NewLoop creates a loop whose queue holds up to buffer pending functions.
func NewLoop(buffer int) *Loop {
	if buffer < 0 {
		buffer = 0
	}
	return &Loop{
		funcs: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run executes posted functions until ctx is cancelled. It must be called
// exactly once. Functions still queued when ctx ends are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.funcs:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Loop function panicked: %v\n%s", r, debug.Stack())
		}
	}()
	fn()
}

// Post queues fn to run on the loop. It blocks while the queue is full and
// returns false if the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case <-l.done:
		return false
	case l.funcs <- fn:
		return true
	}
}

// Call runs fn on the loop and waits for it to return.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrLoopStopped
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
