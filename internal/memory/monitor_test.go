package memory

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func newTestMonitor(heap *atomic.Uint64) *Monitor {
	m := NewMonitor(MonitorConfig{
		Limit:    1000,
		PauseAt:  0.8,
		ResumeAt: 0.5,
		Interval: time.Millisecond,
	})
	m.readHeap = heap.Load
	return m
}

func TestMonitorPausesAndResumes(t *testing.T) {
	var heap atomic.Uint64
	heap.Store(100)
	m := newTestMonitor(&heap)

	m.sample()
	if m.IsPaused() {
		t.Fatal("Should not pause at 10% usage")
	}
	if got := m.Usage(); got != 0.1 {
		t.Errorf("Usage() = %v, want 0.1", got)
	}

	heap.Store(900)
	m.sample()
	if !m.IsPaused() {
		t.Fatal("Expected pause at 90% usage")
	}

	released := make(chan bool, 1)
	go func() { released <- m.Wait() }()

	select {
	case <-released:
		t.Fatal("Wait returned while paused")
	case <-time.After(20 * time.Millisecond):
	}

	// Between the thresholds the monitor stays paused.
	heap.Store(600)
	m.sample()
	if !m.IsPaused() {
		t.Fatal("Expected to stay paused between thresholds")
	}

	heap.Store(400)
	m.sample()
	select {
	case ok := <-released:
		if !ok {
			t.Error("Wait should report true after resuming")
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after resume")
	}
}

func TestMonitorWaitUnpaused(t *testing.T) {
	var heap atomic.Uint64
	m := newTestMonitor(&heap)
	if !m.Wait() {
		t.Error("Wait should return true immediately when not paused")
	}
}

func TestMonitorRunReleasesWaitersOnStop(t *testing.T) {
	var heap atomic.Uint64
	heap.Store(950)
	m := newTestMonitor(&heap)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for !m.IsPaused() {
		if time.Now().After(deadline) {
			t.Fatal("Monitor never paused")
		}
		time.Sleep(time.Millisecond)
	}

	released := make(chan bool, 1)
	go func() { released <- m.Wait() }()

	cancel()
	<-done

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("Waiter was not released when the monitor stopped")
	}
	if m.IsPaused() {
		t.Error("Stopped monitor should not report paused")
	}
}

func TestMonitorWithoutLimit(t *testing.T) {
	m := NewMonitor(MonitorConfig{Limit: 0, PauseAt: 0.8, ResumeAt: 0.5, Interval: time.Millisecond})
	m.limit = 0
	if m.Usage() != 0 {
		t.Error("Usage without a limit should be 0")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Run(ctx); err != nil {
		t.Errorf("Run() error: %v", err)
	}
}
