package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"thumbgrid/internal/logging"
	"thumbgrid/internal/metrics"
)

// MonitorConfig holds the backpressure thresholds.
type MonitorConfig struct {
	// Limit is the heap budget in bytes. Zero means use GOMEMLIMIT; with
	// neither set the monitor never pauses.
	Limit int64
	// PauseAt and ResumeAt are fractions of Limit. Decoding pauses when heap
	// usage reaches PauseAt and resumes once it drops below ResumeAt.
	PauseAt  float64
	ResumeAt float64
	// Interval between samples.
	Interval time.Duration
}

// DefaultMonitorConfig returns the production thresholds.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PauseAt:  0.85,
		ResumeAt: 0.7,
		Interval: 2 * time.Second,
	}
}

// Monitor samples heap usage and holds back new full-resolution decodes
// while the heap is near its limit.
type Monitor struct {
	config   MonitorConfig
	limit    int64
	readHeap func() uint64

	mu      sync.Mutex
	current uint64
	paused  bool
	resume  chan struct{}
	stopped chan struct{}
}

// NewMonitor creates a monitor. It does nothing until Run is called.
func NewMonitor(config MonitorConfig) *Monitor {
	limit := config.Limit
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < 1<<62 {
			limit = l
		}
	}
	if limit == 0 {
		logging.Info("Memory monitor: no limit configured, decode backpressure disabled")
	} else {
		logging.Info("Memory monitor: pausing decodes above %.0f%% of %s", config.PauseAt*100, formatBytes(limit))
	}

	return &Monitor{
		config:   config,
		limit:    limit,
		readHeap: heapAlloc,
		resume:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Run samples until ctx is done. Waiters blocked in Wait are released when
// it returns.
func (m *Monitor) Run(ctx context.Context) error {
	defer func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		close(m.stopped)
		if m.paused {
			m.paused = false
			close(m.resume)
		}
	}()

	if m.limit == 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) sample() {
	heap := m.readHeap()
	usage := float64(heap) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = heap

	switch {
	case !m.paused && usage >= m.config.PauseAt:
		logging.Warn("Heap at %.1f%% of limit, pausing thumbnail decodes", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPausesTotal.Inc()
		go runtime.GC()
	case m.paused && usage < m.config.ResumeAt:
		logging.Info("Heap at %.1f%% of limit, resuming thumbnail decodes", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
	}
}

// Wait blocks while decoding is paused. It returns false if the monitor
// stopped while paused.
func (m *Monitor) Wait() bool {
	m.mu.Lock()
	if !m.paused {
		m.mu.Unlock()
		return true
	}
	resume := m.resume
	m.mu.Unlock()

	select {
	case <-resume:
		return true
	case <-m.stopped:
		return false
	}
}

// IsPaused reports whether decodes are currently held back.
func (m *Monitor) IsPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Usage returns the last sampled heap usage as a fraction of the limit, or 0
// without a limit.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.current) / float64(m.limit)
}
