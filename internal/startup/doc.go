/*
Package startup loads configuration and provides the structured startup and
shutdown logging used by the thumbgrid binary.

# Configuration

LoadConfig resolves settings from, in increasing precedence: built-in
defaults, a JSONC config file, environment variables and command-line flags.

	config, err := startup.LoadConfig(os.Args[1:])

The config file is named by --config or THUMBGRID_CONFIG and may contain
comments and trailing commas:

	{
		// where the photos live
		"source_dir": "/photos",
		"thumb_width": 200,
		"thumb_height": 200,
		"index_interval": "15m",
	}

Environment variables:

	SOURCE_DIR            source image directory (default /photos)
	CACHE_DIR             thumbnail disk cache (default /cache)
	DATABASE_DIR          source index database directory (default /database)
	PORT                  HTTP port (default 8080)
	THUMB_WIDTH           thumbnail width (default 160)
	THUMB_HEIGHT          thumbnail height (default 160)
	MEMORY_CACHE_ENTRIES  memory cache capacity (default 32)
	JPEG_QUALITY          disk cache JPEG quality (default 97)
	THUMBGRID_WORKERS     decode workers (default based on GOMAXPROCS)
	VIPS_ENABLED          use libvips shrink-on-load for JPEG (default false)
	INDEX_INTERVAL        rescan interval, 0 disables (default 30m)
	GRID_SLOTS            number of display cells (default 24)
	LOG_LEVEL             debug, info, warn or error (default info)

The cache and database directories are created if missing and must be
writable. A missing source directory only produces a warning.

# Build Information

Version, Commit and BuildTime are set at build time:

	go build -ldflags "-X thumbgrid/internal/startup.Version=1.0.0"
*/
package startup
