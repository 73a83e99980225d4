package metrics

import (
	"context"
	"time"

	"thumbgrid/internal/logging"
)

// StatsProvider reports point-in-time counts that are polled rather than
// tracked on every change.
type StatsProvider interface {
	GetStats() Stats
}

// StatsProviderFunc adapts a function to StatsProvider.
type StatsProviderFunc func() Stats

// GetStats calls f.
func (f StatsProviderFunc) GetStats() Stats {
	return f()
}

// Stats holds one poll's worth of counts.
type Stats struct {
	MemoryCacheEntries int
	Sources            int
	WorkersActive      int
}

// Collector copies Stats into gauges on a fixed interval.
type Collector struct {
	provider StatsProvider
	interval time.Duration
}

// NewCollector creates a collector polling provider every interval.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{provider: provider, interval: interval}
}

// Run polls once immediately and then on every tick until ctx is done.
func (c *Collector) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		c.collect()
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}
	s := c.provider.GetStats()
	MemoryCacheEntries.Set(float64(s.MemoryCacheEntries))
	IndexSourcesTotal.Set(float64(s.Sources))
	WorkersActive.Set(float64(s.WorkersActive))

	logging.Debug("Metrics collected: memory_entries=%d sources=%d workers_active=%d",
		s.MemoryCacheEntries, s.Sources, s.WorkersActive)
}
