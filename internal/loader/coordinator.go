package loader

import (
	"errors"
	"fmt"
	"image"
	"time"

	"thumbgrid/internal/cache"
	"thumbgrid/internal/logging"
	"thumbgrid/internal/media"

	"golang.org/x/sync/singleflight"
)

// SlotID identifies a display slot for as long as it exists.
type SlotID int

// Token identifies one request. Tokens increase monotonically; 0 is never
// issued.
type Token uint64

// State is the lifecycle state of a slot's current request.
type State int

const (
	StatePending State = iota
	StateApplied
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateApplied:
		return "applied"
	case StateDiscarded:
		return "discarded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Slot is a reusable display element that shows one thumbnail at a time.
// SetImage is only called from the loop goroutine.
type Slot interface {
	ID() SlotID
	SetImage(img image.Image)
}

// Producer builds a thumbnail of exactly width x height for a source path.
// media.Generator is the production implementation.
type Producer interface {
	Produce(path string, width, height int) (image.Image, error)
}

// Submitter runs tasks in the background. TrySubmit must not block: it is
// called on the loop goroutine, which workers need to reach to report
// completions. workers.Pool satisfies it.
type Submitter interface {
	TrySubmit(task func()) error
}

// Config wires a Coordinator.
type Config struct {
	Cache    *cache.Service
	Producer Producer
	Pool     Submitter
	Loop     *Loop
	// Placeholder is shown while a request is pending. Nil clears the slot.
	Placeholder image.Image
	// Observer defaults to a no-op.
	Observer Observer
}

type binding struct {
	token Token
	key   cache.Key
	state State
	slot  Slot
}

type task struct {
	token Token
	slot  SlotID
	key   cache.Key
	start time.Time
}

// Coordinator binds slots to thumbnail requests. Each slot has at most one
// live token; a background result is applied only if its token is still the
// slot's current one when the completion reaches the loop.
//
// Request, Release and State must be called on the loop goroutine.
type Coordinator struct {
	cache       *cache.Service
	producer    Producer
	pool        Submitter
	loop        *Loop
	placeholder image.Image
	observer    Observer

	lastToken Token
	bindings  map[SlotID]*binding

	inflight singleflight.Group
}

// NewCoordinator validates cfg and returns a coordinator.
func NewCoordinator(cfg Config) (*Coordinator, error) {
	switch {
	case cfg.Cache == nil:
		return nil, errors.New("loader: cache is required")
	case cfg.Producer == nil:
		return nil, errors.New("loader: producer is required")
	case cfg.Pool == nil:
		return nil, errors.New("loader: pool is required")
	case cfg.Loop == nil:
		return nil, errors.New("loader: loop is required")
	}

	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	return &Coordinator{
		cache:       cfg.Cache,
		producer:    cfg.Producer,
		pool:        cfg.Pool,
		loop:        cfg.Loop,
		placeholder: cfg.Placeholder,
		observer:    observer,
		bindings:    make(map[SlotID]*binding),
	}, nil
}

func (c *Coordinator) mint() Token {
	c.lastToken++
	return c.lastToken
}

// Request binds slot to the thumbnail of path at width x height. A memory
// hit is applied before Request returns. Otherwise the slot shows the
// placeholder and a background task produces the thumbnail. Any earlier
// request for the slot is superseded either way.
func (c *Coordinator) Request(slot Slot, path string, width, height int) Token {
	key := cache.Key{Path: path, Width: width, Height: height}
	id := slot.ID()
	token := c.mint()

	if thumb, ok := c.cache.Memory().Get(key); ok {
		c.bindings[id] = &binding{token: token, key: key, state: StateApplied, slot: slot}
		slot.SetImage(thumb.Image)
		c.observer.ObserveRequest("memory")
		return token
	}

	b := &binding{token: token, key: key, state: StatePending, slot: slot}
	c.bindings[id] = b
	slot.SetImage(c.placeholder)
	c.observer.ObserveRequest("dispatched")

	t := task{token: token, slot: id, key: key, start: time.Now()}
	if err := c.pool.TrySubmit(func() { c.run(t) }); err != nil {
		logging.Warn("Failed to dispatch thumbnail task for %s: %v", key, err)
		b.state = StateDiscarded
		c.observer.ObserveFailure("unknown", err)
		c.observer.ObserveOutcome("discarded", time.Since(t.start).Seconds())
	}
	return token
}

// Release forgets slot id. A pending result for it will be discarded.
func (c *Coordinator) Release(id SlotID) {
	delete(c.bindings, id)
}

// State reports the current request of slot id.
func (c *Coordinator) State(id SlotID) (State, Token, bool) {
	b, ok := c.bindings[id]
	if !ok {
		return 0, 0, false
	}
	return b.state, b.token, true
}

// run executes on a worker goroutine.
func (c *Coordinator) run(t task) {
	thumb, err := c.load(t.key)
	if !c.loop.Post(func() { c.complete(t, thumb, err) }) {
		logging.Debug("Loop stopped, dropping result for %s", t.key)
		c.observer.ObserveOutcome("discarded", time.Since(t.start).Seconds())
	}
}

// load serves key from the cache tiers or produces it. Concurrent loads of the
// same key share one execution.
func (c *Coordinator) load(key cache.Key) (*cache.Thumbnail, error) {
	v, err, _ := c.inflight.Do(key.String(), func() (any, error) {
		// An earlier task for the same key may have finished since dispatch.
		if thumb, ok := c.cache.Memory().Get(key); ok {
			return thumb, nil
		}

		disk := c.cache.Disk()

		var thumb *cache.Thumbnail
		if disk.Exists(key) {
			t, err := disk.Read(key)
			if err != nil {
				return nil, err
			}
			thumb = t
		} else {
			img, err := c.producer.Produce(key.Path, key.Width, key.Height)
			if err != nil {
				return nil, err
			}
			thumb = cache.NewThumbnail(img)
			if err := disk.Write(key, thumb); err != nil {
				return nil, err
			}
		}

		c.cache.Memory().PutIfAbsent(key, thumb)
		return thumb, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cache.Thumbnail), nil
}

// complete executes on the loop goroutine.
func (c *Coordinator) complete(t task, thumb *cache.Thumbnail, err error) {
	elapsed := time.Since(t.start).Seconds()
	b, ok := c.bindings[t.slot]
	current := ok && b.token == t.token

	if err != nil {
		c.observer.ObserveFailure(classify(err), err)
		logging.Warn("Failed to load thumbnail %s: %v", t.key, err)
		if current {
			b.state = StateDiscarded
		}
		c.observer.ObserveOutcome("discarded", elapsed)
		return
	}

	if !current {
		logging.Debug("Discarding stale thumbnail %s for slot %d", t.key, t.slot)
		c.observer.ObserveOutcome("discarded", elapsed)
		return
	}

	b.state = StateApplied
	b.slot.SetImage(thumb.Image)
	c.observer.ObserveOutcome("applied", elapsed)
}

func classify(err error) string {
	switch {
	case errors.Is(err, media.ErrProbe):
		return "probe"
	case errors.Is(err, media.ErrDecode):
		return "decode"
	case errors.Is(err, media.ErrMetadata):
		return "metadata"
	case errors.Is(err, cache.ErrDiskWrite):
		return "disk_write"
	case errors.Is(err, cache.ErrDiskRead):
		return "disk_read"
	default:
		return "unknown"
	}
}
