package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thumbgrid/internal/cache"
	"thumbgrid/internal/filesystem"
	"thumbgrid/internal/grid"
	"thumbgrid/internal/handlers"
	"thumbgrid/internal/index"
	"thumbgrid/internal/loader"
	"thumbgrid/internal/logging"
	"thumbgrid/internal/media"
	"thumbgrid/internal/memory"
	"thumbgrid/internal/metrics"
	"thumbgrid/internal/middleware"
	"thumbgrid/internal/startup"
	"thumbgrid/internal/workers"

	"github.com/disintegration/imaging"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, startup.ErrHelp) {
			return
		}
		logging.Fatal("%v", err)
	}
}

func run(args []string) error {
	startTime := time.Now()

	memory.Configure(os.Getenv)

	config, err := startup.LoadConfig(args)
	if err != nil {
		return err
	}
	startup.PrintBanner()

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"source": config.SourceDir,
		"cache":  config.CacheDir,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startup.LogSection("COMPONENTS")

	if config.VipsEnabled {
		if err := media.InitVips(); err != nil {
			logging.Warn("libvips unavailable, using the Go decoders: %v", err)
		} else {
			defer media.ShutdownVips()
		}
	}

	thumbCache, err := cache.New(cache.Config{
		Dir:           config.CacheDir,
		MemoryEntries: config.MemoryEntries,
		Quality:       config.JPEGQuality,
	})
	if err != nil {
		return err
	}

	idx, err := index.Open(ctx, config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open source index: %w", err)
	}
	indexer := index.NewIndexer(idx, config.SourceDir)

	monitor := memory.NewMonitor(memory.DefaultMonitorConfig())
	generator := media.NewGenerator()
	generator.SetGate(monitor)

	pool := workers.NewPool(config.Workers, config.Workers*64)
	loop := loader.NewLoop(256)
	coord, err := loader.NewCoordinator(loader.Config{
		Cache:       thumbCache,
		Producer:    generator,
		Pool:        pool,
		Loop:        loop,
		Placeholder: placeholder(config.ThumbWidth, config.ThumbHeight),
		Observer:    metrics.NewLoadObserver(),
	})
	if err != nil {
		return err
	}
	thumbGrid := grid.New(coord, loop, config.GridSlots, config.ThumbWidth, config.ThumbHeight)
	logging.Info("Grid: %d cells of %dx%d, %d decode workers",
		config.GridSlots, config.ThumbWidth, config.ThumbHeight, config.Workers)

	indexer.SetOnComplete(func(result index.ScanResult) {
		logging.Info("Index updated: %d files, %d removed in %v", result.Files, result.Removed, result.Duration)
		if err := thumbGrid.Refresh(ctx, idx); err != nil && ctx.Err() == nil {
			logging.Warn("Failed to refresh grid after index update: %v", err)
		}
	})

	collector := metrics.NewCollector(&statsAdapter{
		memory:  thumbCache.Memory(),
		sources: idx,
		pool:    pool,
	}, time.Minute)

	h := handlers.New(ctx, handlers.Config{
		Catalog:     idx,
		Indexer:     indexer,
		Grid:        thumbGrid,
		Cache:       thumbCache,
		JPEGQuality: config.JPEGQuality,
	})

	router := mux.NewRouter()
	h.RegisterRoutes(router)
	router.Use(
		middleware.Logger(middleware.DefaultLoggingConfig()),
		middleware.Metrics(middleware.DefaultMetricsConfig()),
	)
	startup.LogHTTPRoutes(router)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error { return loop.Run(egCtx) })
	eg.Go(func() error { return monitor.Run(egCtx) })
	eg.Go(func() error { return indexer.Run(egCtx, config.IndexInterval) })
	eg.Go(func() error { return collector.Run(egCtx) })
	eg.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		select {
		case sig := <-sigChan:
			startup.LogShutdownInitiated(sig.String())
		case <-egCtx.Done():
			startup.LogShutdownInitiated("error")
		}
		return shutdownServer(srv, cancel)
	})

	startup.LogServerStarted(config.Port, time.Since(startTime))

	err = eg.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	startup.LogShutdownStepComplete("Loop, indexer, memory monitor and metrics collector stopped")

	pool.Close()
	startup.LogShutdownStepComplete("Decode workers stopped")

	if cerr := thumbCache.Close(); cerr != nil {
		logging.Warn("Cache close error: %v", cerr)
	}
	startup.LogShutdownStepComplete("Thumbnail cache closed")

	if cerr := idx.Close(); cerr != nil {
		logging.Warn("Index close error: %v", cerr)
	}
	startup.LogShutdownStepComplete("Source index closed")

	startup.LogShutdownComplete()
	return err
}

// shutdownServer stops accepting requests, then cancels the background
// components.
func shutdownServer(srv *http.Server, cancel context.CancelFunc) error {
	defer cancel()

	ctx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
		return nil
	}
	startup.LogShutdownStepComplete("HTTP server stopped")
	return nil
}

// placeholder is the neutral tile shown while a thumbnail loads.
func placeholder(width, height int) image.Image {
	return imaging.New(width, height, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff})
}

type memoryLen interface {
	Len() int
}

type sourceCounter interface {
	Count(ctx context.Context) (int, error)
}

type activeCounter interface {
	Active() int
}

// statsAdapter feeds the metrics collector from the running components.
type statsAdapter struct {
	memory  memoryLen
	sources sourceCounter
	pool    activeCounter
}

// GetStats implements metrics.StatsProvider
func (a *statsAdapter) GetStats() metrics.Stats {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sources, err := a.sources.Count(ctx)
	if err != nil {
		logging.Warn("Failed to count sources for metrics: %v", err)
	}
	return metrics.Stats{
		MemoryCacheEntries: a.memory.Len(),
		Sources:            sources,
		WorkersActive:      a.pool.Active(),
	}
}
