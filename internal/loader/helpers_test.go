package loader

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"thumbgrid/internal/cache"
	"thumbgrid/internal/workers"
)

const waitTimeout = 5 * time.Second

type fakeProducer struct {
	mu       sync.Mutex
	calls    map[string]int
	gates    map[string]chan struct{}
	produced map[string]image.Image
	err      error
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{
		calls:    make(map[string]int),
		gates:    make(map[string]chan struct{}),
		produced: make(map[string]image.Image),
	}
}

// gate makes Produce for path block until the returned function is called.
func (p *fakeProducer) gate(path string) func() {
	ch := make(chan struct{})
	p.mu.Lock()
	p.gates[path] = ch
	p.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (p *fakeProducer) Produce(path string, width, height int) (image.Image, error) {
	p.mu.Lock()
	p.calls[path]++
	gate := p.gates[path]
	err := p.err
	p.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	p.mu.Lock()
	p.produced[path] = img
	p.mu.Unlock()
	return img, nil
}

func (p *fakeProducer) callCount(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[path]
}

func (p *fakeProducer) image(path string) image.Image {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.produced[path]
}

// countingProducer wraps a real producer and counts calls per path.
type countingProducer struct {
	next  Producer
	mu    sync.Mutex
	calls map[string]int
}

func (p *countingProducer) Produce(path string, width, height int) (image.Image, error) {
	p.mu.Lock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[path]++
	p.mu.Unlock()
	return p.next.Produce(path, width, height)
}

func (p *countingProducer) callCount(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[path]
}

// maxChannelDiff returns the largest per-channel difference between two
// equally sized images, in 8-bit units.
func maxChannelDiff(a, b image.Image) int {
	diff := 0
	ab, bb := a.Bounds(), b.Bounds()
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			ca := color.NRGBAModel.Convert(a.At(ab.Min.X+x, ab.Min.Y+y)).(color.NRGBA)
			cb := color.NRGBAModel.Convert(b.At(bb.Min.X+x, bb.Min.Y+y)).(color.NRGBA)
			for _, d := range []int{
				int(ca.R) - int(cb.R),
				int(ca.G) - int(cb.G),
				int(ca.B) - int(cb.B),
			} {
				if d < 0 {
					d = -d
				}
				diff = max(diff, d)
			}
		}
	}
	return diff
}

type fakeSlot struct {
	id     SlotID
	mu     sync.Mutex
	images []image.Image
}

func (s *fakeSlot) ID() SlotID { return s.id }

func (s *fakeSlot) SetImage(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append(s.images, img)
}

func (s *fakeSlot) last() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.images) == 0 {
		return nil
	}
	return s.images[len(s.images)-1]
}

func (s *fakeSlot) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

type recordingObserver struct {
	mu       sync.Mutex
	requests map[string]int
	failures []string
	outcomes chan string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		requests: make(map[string]int),
		outcomes: make(chan string, 64),
	}
}

func (o *recordingObserver) ObserveRequest(source string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests[source]++
}

func (o *recordingObserver) ObserveOutcome(outcome string, _ float64) {
	o.outcomes <- outcome
}

func (o *recordingObserver) ObserveFailure(kind string, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, kind)
}

func (o *recordingObserver) requestCount(source string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.requests[source]
}

func (o *recordingObserver) failureKinds() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.failures...)
}

func waitOutcome(t *testing.T, obs *recordingObserver) string {
	t.Helper()
	select {
	case outcome := <-obs.outcomes:
		return outcome
	case <-time.After(waitTimeout):
		t.Fatal("Timed out waiting for a load outcome")
		return ""
	}
}

var placeholder = image.NewUniform(color.Gray{Y: 128})

type harness struct {
	coord    *Coordinator
	loop     *Loop
	cache    *cache.Service
	producer *fakeProducer
	observer *recordingObserver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	producer := newFakeProducer()
	h := newHarnessWith(t, producer)
	h.producer = producer
	return h
}

// newHarnessWith builds a harness around an arbitrary producer. h.producer
// stays nil.
func newHarnessWith(t *testing.T, producer Producer) *harness {
	t.Helper()

	svc, err := cache.New(cache.Config{Dir: t.TempDir(), MemoryEntries: 8})
	if err != nil {
		t.Fatalf("cache.New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop(64)
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})

	pool := workers.NewPool(4, 64)
	t.Cleanup(pool.Close)

	h := &harness{
		loop:     loop,
		cache:    svc,
		observer: newRecordingObserver(),
	}

	h.coord, err = NewCoordinator(Config{
		Cache:       svc,
		Producer:    producer,
		Pool:        pool,
		Loop:        loop,
		Placeholder: placeholder,
		Observer:    h.observer,
	})
	if err != nil {
		t.Fatalf("NewCoordinator() error: %v", err)
	}
	return h
}

// onLoop runs fn on the loop goroutine and waits for it.
func (h *harness) onLoop(t *testing.T, fn func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := h.loop.Call(ctx, fn); err != nil {
		t.Fatalf("loop.Call() error: %v", err)
	}
}

func (h *harness) request(t *testing.T, slot Slot, path string) Token {
	t.Helper()
	var token Token
	h.onLoop(t, func() { token = h.coord.Request(slot, path, 100, 100) })
	return token
}

func (h *harness) state(t *testing.T, id SlotID) (State, Token, bool) {
	t.Helper()
	var (
		state State
		token Token
		ok    bool
	)
	h.onLoop(t, func() { state, token, ok = h.coord.State(id) })
	return state, token, ok
}
