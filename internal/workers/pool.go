package workers

import (
	"errors"
	"sync"
	"sync/atomic"

	"thumbgrid/internal/logging"
)

var (
	// ErrPoolClosed is returned by Submit after Close has been called.
	ErrPoolClosed = errors.New("worker pool closed")
	// ErrQueueFull is returned by TrySubmit when no queue slot is free.
	ErrQueueFull = errors.New("worker pool queue full")
)

// Pool runs submitted tasks on a fixed set of goroutines.
//
// Tasks run to completion once started; there is no preemption. Submit
// blocks while the queue is full.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	active atomic.Int64
}

// NewPool starts size workers reading from a queue of queueSize tasks.
func NewPool(size, queueSize int) *Pool {
	if size < 1 {
		size = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	p := &Pool{
		tasks: make(chan func(), queueSize),
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	logging.Debug("Worker pool started with %d workers (queue %d)", size, queueSize)
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task func()) {
	p.active.Add(1)
	defer p.active.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			logging.Error("Worker %d: task panicked: %v", id, r)
		}
	}()

	task()
}

// Submit queues a task for execution.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	p.tasks <- task
	return nil
}

// TrySubmit queues a task without blocking. Callers that must never stall,
// such as the load coordinator's loop, use it instead of Submit.
func (p *Pool) TrySubmit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Active returns the number of tasks currently executing.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Close stops accepting tasks and waits for queued tasks to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	logging.Debug("Worker pool stopped")
}
