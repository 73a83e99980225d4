package cache

import (
	"fmt"

	"thumbgrid/internal/logging"
)

// Config configures a cache Service.
type Config struct {
	// Dir is the disk tier root. Required.
	Dir string
	// MemoryEntries is the memory tier capacity (default 32).
	MemoryEntries int
	// Quality is the disk tier JPEG quality (default 97).
	Quality int
}

// Service bundles the two cache tiers. A process creates one and shares it
// with everything that needs thumbnails.
type Service struct {
	memory *MemoryCache
	disk   *DiskCache
}

// New creates the memory and disk tiers described by cfg.
func New(cfg Config) (*Service, error) {
	disk, err := NewDiskCache(cfg.Dir, cfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk cache: %w", err)
	}
	memory := NewMemoryCache(cfg.MemoryEntries)

	logging.Info("Thumbnail cache ready: memory=%d entries, disk=%s (quality %d)",
		memory.Capacity(), disk.Dir(), disk.quality)

	return &Service{memory: memory, disk: disk}, nil
}

// Memory returns the in-memory LRU tier.
func (s *Service) Memory() *MemoryCache {
	return s.memory
}

// Disk returns the on-disk tier.
func (s *Service) Disk() *DiskCache {
	return s.disk
}

// Close rejects further disk writes and drops the memory tier.
func (s *Service) Close() error {
	s.disk.Close()
	s.memory.Clear()
	logging.Info("Thumbnail cache closed")
	return nil
}
