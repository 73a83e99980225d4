/*
Package loader coordinates asynchronous thumbnail loads for recycled display
slots.

Display layers reuse a small set of slots while the user scrolls, so a slot
may be rebound to a new source before the previous load has finished. The
Coordinator tracks one token per slot. A load's result is applied only when
it reaches the Loop and its token still matches; anything else is discarded
and the slot is left alone.

	loop := loader.NewLoop(256)
	go loop.Run(ctx)

	coord, err := loader.NewCoordinator(loader.Config{
		Cache:    svc,
		Producer: media.NewGenerator(),
		Pool:     pool,
		Loop:     loop,
	})

	loop.Post(func() {
		coord.Request(cell, "/photos/a.jpg", 160, 160)
	})

Memory hits are applied synchronously inside Request. Misses show the
placeholder and run on the worker pool: the disk tier is consulted first,
then the Producer, and the result is written back to both tiers before the
completion is posted to the loop. Superseded tasks are not cancelled; they
run to completion and still warm the caches.
*/
package loader
