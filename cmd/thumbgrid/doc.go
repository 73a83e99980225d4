// Package main is the thumbgrid server.
//
// thumbgrid indexes a directory of photos and shows them through a fixed
// grid of recycled cells. Each cell asks the load coordinator for a
// thumbnail; the coordinator answers from the memory tier immediately or
// shows a placeholder and decodes in the background, applying the result
// only if the cell still wants it when the decode finishes.
//
// # Startup
//
//  1. GOMEMLIMIT from MEMORY_LIMIT / MEMORY_RATIO
//  2. Configuration: defaults, JSONC file, environment, flags
//  3. Metrics registration and filesystem retry instrumentation
//  4. libvips, when --vips is set
//  5. Thumbnail cache, source index, decode workers, loop, coordinator, grid
//  6. HTTP server with access logging and request metrics
//
// The initial index scan runs in the background and binds the grid to the
// first page when it completes; later scans refresh the current page.
//
// # Configuration
//
// Every setting has a flag, an environment variable and a config file key:
//
//	--source-dir      SOURCE_DIR            source_dir            (/photos)
//	--cache-dir       CACHE_DIR             cache_dir             (/cache)
//	--database-dir    DATABASE_DIR          database_dir          (/database)
//	--port            PORT                  port                  (8080)
//	--thumb-width     THUMB_WIDTH           thumb_width           (160)
//	--thumb-height    THUMB_HEIGHT          thumb_height          (160)
//	--memory-entries  MEMORY_CACHE_ENTRIES  memory_cache_entries  (32)
//	--jpeg-quality    JPEG_QUALITY          jpeg_quality          (97)
//	--workers         THUMBGRID_WORKERS     workers               (CPU count)
//	--vips            VIPS_ENABLED          vips_enabled          (false)
//	--index-interval  INDEX_INTERVAL        index_interval        (30m)
//	--grid-slots      GRID_SLOTS            grid_slots            (24)
//	--log-level       LOG_LEVEL             log_level             (info)
//
// The config file is named by --config or THUMBGRID_CONFIG.
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the HTTP server drains (30s timeout), then the loop,
// indexer and memory monitor stop, the decode workers finish their current
// task, and the cache and index are closed.
package main
