package main

import (
	"context"
	"errors"
	"testing"

	"thumbgrid/internal/metrics"
)

type fixedLen int

func (n fixedLen) Len() int { return int(n) }

type fixedCount struct {
	n   int
	err error
}

func (c fixedCount) Count(context.Context) (int, error) { return c.n, c.err }

type fixedActive int

func (n fixedActive) Active() int { return int(n) }

func TestStatsAdapter(t *testing.T) {
	adapter := &statsAdapter{
		memory:  fixedLen(12),
		sources: fixedCount{n: 340},
		pool:    fixedActive(3),
	}

	var _ metrics.StatsProvider = adapter

	stats := adapter.GetStats()
	if stats.MemoryCacheEntries != 12 {
		t.Errorf("MemoryCacheEntries = %d, want 12", stats.MemoryCacheEntries)
	}
	if stats.Sources != 340 {
		t.Errorf("Sources = %d, want 340", stats.Sources)
	}
	if stats.WorkersActive != 3 {
		t.Errorf("WorkersActive = %d, want 3", stats.WorkersActive)
	}
}

func TestStatsAdapterCountError(t *testing.T) {
	adapter := &statsAdapter{
		memory:  fixedLen(0),
		sources: fixedCount{err: errors.New("database is locked")},
		pool:    fixedActive(0),
	}

	if stats := adapter.GetStats(); stats.Sources != 0 {
		t.Errorf("Sources = %d, want 0 on error", stats.Sources)
	}
}

func TestPlaceholder(t *testing.T) {
	img := placeholder(160, 120)
	b := img.Bounds()
	if b.Dx() != 160 || b.Dy() != 120 {
		t.Fatalf("Expected 160x120, got %v", b)
	}
	r, g, bl, a := img.At(80, 60).RGBA()
	if r != g || g != bl || a != 0xffff {
		t.Errorf("Expected opaque gray, got %d %d %d %d", r, g, bl, a)
	}
}
