/*
Package workers provides worker pool sizing and a small fixed-size worker
pool used to run thumbnail load tasks off the interactive loop.

# Sizing

When running in containers the number of usable CPUs may be limited by cgroup
constraints. runtime.NumCPU() reports the host CPU count, while GOMAXPROCS
(Go 1.19+) respects the container limit, so the helpers here derive worker
counts from GOMAXPROCS:

	numWorkers := workers.ForCPU(8)    // decode-heavy work, max 8
	numWorkers := workers.Count(2, 16) // two per CPU, max 16

The THUMBGRID_WORKERS environment variable pins the count (still capped by
the limit argument). Invalid values are ignored.

# Pool

Pool runs tasks on a fixed set of goroutines:

	pool := workers.NewPool(workers.ForCPU(8), 64)
	defer pool.Close()

	if err := pool.Submit(func() { ... }); err != nil {
		// pool closed
	}

Submit blocks while the queue is full; TrySubmit fails with ErrQueueFull
instead. Tasks are never preempted. A panicking task is logged and the worker keeps
serving the queue. Close stops intake and waits for queued tasks.
*/
package workers
