package index

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"thumbgrid/internal/logging"
	"thumbgrid/internal/metrics"
)

// ErrScanInProgress is returned by ScanNow while another scan is running.
var ErrScanInProgress = errors.New("scan already in progress")

// Indexer keeps an Index in sync with a source directory.
type Indexer struct {
	idx        *Index
	root       string
	running    atomic.Bool
	onComplete func(ScanResult)
}

// NewIndexer creates an indexer for root.
func NewIndexer(idx *Index, root string) *Indexer {
	return &Indexer{idx: idx, root: root}
}

// SetOnComplete sets a callback invoked after every successful scan.
func (i *Indexer) SetOnComplete(callback func(ScanResult)) {
	i.onComplete = callback
}

// Run scans once immediately and then every interval until ctx is done.
// A non-positive interval scans only once.
func (i *Indexer) Run(ctx context.Context, interval time.Duration) error {
	logging.Info("Starting initial index of %s...", i.root)
	if _, err := i.ScanNow(ctx); err != nil && !errors.Is(err, ErrScanInProgress) {
		logging.Error("Initial index failed: %v", err)
	}

	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info("Indexer stopped")
			return nil
		case <-ticker.C:
			if _, err := i.ScanNow(ctx); err != nil && !errors.Is(err, ErrScanInProgress) {
				logging.Error("Periodic index failed: %v", err)
			}
		}
	}
}

// ScanNow runs one scan unless one is already in progress.
func (i *Indexer) ScanNow(ctx context.Context) (ScanResult, error) {
	if !i.running.CompareAndSwap(false, true) {
		logging.Info("Index already in progress, skipping...")
		return ScanResult{}, ErrScanInProgress
	}
	defer i.running.Store(false)

	result, err := i.idx.Scan(ctx, i.root)
	if err != nil {
		metrics.IndexRunsTotal.WithLabelValues("error").Inc()
		return result, err
	}

	metrics.IndexRunsTotal.WithLabelValues("success").Inc()
	metrics.IndexLastRunDuration.Set(result.Duration.Seconds())
	metrics.IndexLastRunTimestamp.Set(float64(time.Now().Unix()))

	if n, err := i.idx.Count(ctx); err == nil {
		metrics.IndexSourcesTotal.Set(float64(n))
	}
	if i.onComplete != nil {
		i.onComplete(result)
	}
	return result, nil
}

// IsScanning reports whether a scan is running.
func (i *Indexer) IsScanning() bool {
	return i.running.Load()
}
