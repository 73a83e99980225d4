package startup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"thumbgrid/internal/logging"
	"thumbgrid/internal/workers"

	"github.com/spf13/pflag"
	"github.com/tailscale/hujson"
)

// ConfigFileEnv names the environment variable that points at a config file
// when --config is not given.
const ConfigFileEnv = "THUMBGRID_CONFIG"

// ErrHelp is returned by LoadConfig when --help was requested.
var ErrHelp = pflag.ErrHelp

// Config holds all application configuration
type Config struct {
	SourceDir     string
	CacheDir      string
	DatabaseDir   string
	Port          string
	ThumbWidth    int
	ThumbHeight   int
	MemoryEntries int
	JPEGQuality   int
	Workers       int
	VipsEnabled   bool
	IndexInterval time.Duration
	GridSlots     int
	LogLevel      string

	// Derived
	ConfigFile   string
	DatabasePath string
}

// fileConfig is the JSONC config file layout. Missing keys keep the value
// they had before the file was read.
type fileConfig struct {
	SourceDir     string `json:"source_dir"`
	CacheDir      string `json:"cache_dir"`
	DatabaseDir   string `json:"database_dir"`
	Port          string `json:"port"`
	ThumbWidth    int    `json:"thumb_width"`
	ThumbHeight   int    `json:"thumb_height"`
	MemoryEntries int    `json:"memory_cache_entries"`
	JPEGQuality   int    `json:"jpeg_quality"`
	Workers       int    `json:"workers"`
	VipsEnabled   bool   `json:"vips_enabled"`
	IndexInterval string `json:"index_interval"`
	GridSlots     int    `json:"grid_slots"`
	LogLevel      string `json:"log_level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		SourceDir:     "/photos",
		CacheDir:      "/cache",
		DatabaseDir:   "/database",
		Port:          "8080",
		ThumbWidth:    160,
		ThumbHeight:   160,
		MemoryEntries: 32,
		JPEGQuality:   97,
		VipsEnabled:   false,
		IndexInterval: 30 * time.Minute,
		GridSlots:     24,
		LogLevel:      logging.GetLevel().String(),
	}
}

// LoadConfig builds the configuration from, in increasing precedence:
// defaults, the JSONC file named by --config or THUMBGRID_CONFIG,
// environment variables and command-line flags. It then validates the
// result and prepares the cache and database directories.
func LoadConfig(args []string) (*Config, error) {
	config := DefaultConfig()

	fs := newFlagSet(config)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	configFile, _ := fs.GetString("config")
	if configFile == "" {
		configFile = os.Getenv(ConfigFileEnv)
	}
	if configFile != "" {
		if err := applyFile(config, configFile); err != nil {
			return nil, err
		}
		config.ConfigFile = configFile
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}
	if err := applyFlags(config, fs); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, err
	}
	logging.SetLevel(level)

	if config.Workers <= 0 {
		config.Workers = workers.ForCPU(0)
	}

	logConfig(config)

	if err := config.prepareDirectories(); err != nil {
		return nil, err
	}
	return config, nil
}

func newFlagSet(defaults *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("thumbgrid", pflag.ContinueOnError)
	fs.String("config", "", "path to a JSONC config file (env "+ConfigFileEnv+")")
	fs.String("source-dir", defaults.SourceDir, "directory of source images")
	fs.String("cache-dir", defaults.CacheDir, "thumbnail disk cache directory")
	fs.String("database-dir", defaults.DatabaseDir, "directory for the source index database")
	fs.String("port", defaults.Port, "HTTP listen port")
	fs.Int("thumb-width", defaults.ThumbWidth, "thumbnail width in pixels")
	fs.Int("thumb-height", defaults.ThumbHeight, "thumbnail height in pixels")
	fs.Int("memory-entries", defaults.MemoryEntries, "memory cache capacity in thumbnails")
	fs.Int("jpeg-quality", defaults.JPEGQuality, "disk cache JPEG quality (1-100)")
	fs.Int("workers", 0, "decode worker count (0 = based on CPUs)")
	fs.Bool("vips", defaults.VipsEnabled, "decode JPEGs with libvips shrink-on-load")
	fs.Duration("index-interval", defaults.IndexInterval, "source rescan interval (0 disables)")
	fs.Int("grid-slots", defaults.GridSlots, "number of display cells")
	fs.String("log-level", defaults.LogLevel, "log level: debug, info, warn, error")
	return fs
}

func applyFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}

	fc := fileConfig{
		SourceDir:     config.SourceDir,
		CacheDir:      config.CacheDir,
		DatabaseDir:   config.DatabaseDir,
		Port:          config.Port,
		ThumbWidth:    config.ThumbWidth,
		ThumbHeight:   config.ThumbHeight,
		MemoryEntries: config.MemoryEntries,
		JPEGQuality:   config.JPEGQuality,
		Workers:       config.Workers,
		VipsEnabled:   config.VipsEnabled,
		IndexInterval: config.IndexInterval.String(),
		GridSlots:     config.GridSlots,
		LogLevel:      config.LogLevel,
	}
	if err := json.Unmarshal(standardized, &fc); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}

	interval, err := time.ParseDuration(fc.IndexInterval)
	if err != nil {
		return fmt.Errorf("invalid index_interval in %s: %w", path, err)
	}

	config.SourceDir = fc.SourceDir
	config.CacheDir = fc.CacheDir
	config.DatabaseDir = fc.DatabaseDir
	config.Port = fc.Port
	config.ThumbWidth = fc.ThumbWidth
	config.ThumbHeight = fc.ThumbHeight
	config.MemoryEntries = fc.MemoryEntries
	config.JPEGQuality = fc.JPEGQuality
	config.Workers = fc.Workers
	config.VipsEnabled = fc.VipsEnabled
	config.IndexInterval = interval
	config.GridSlots = fc.GridSlots
	config.LogLevel = fc.LogLevel
	return nil
}

func applyEnv(config *Config) error {
	config.SourceDir = getEnv("SOURCE_DIR", config.SourceDir)
	config.CacheDir = getEnv("CACHE_DIR", config.CacheDir)
	config.DatabaseDir = getEnv("DATABASE_DIR", config.DatabaseDir)
	config.Port = getEnv("PORT", config.Port)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)
	config.VipsEnabled = getEnvBool("VIPS_ENABLED", config.VipsEnabled)

	var errs []error
	for _, v := range []struct {
		key    string
		target *int
	}{
		{"THUMB_WIDTH", &config.ThumbWidth},
		{"THUMB_HEIGHT", &config.ThumbHeight},
		{"MEMORY_CACHE_ENTRIES", &config.MemoryEntries},
		{"JPEG_QUALITY", &config.JPEGQuality},
		{workers.OverrideEnv, &config.Workers},
		{"GRID_SLOTS", &config.GridSlots},
	} {
		n, err := getEnvInt(v.key, *v.target)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*v.target = n
	}

	interval, err := getEnvDuration("INDEX_INTERVAL", config.IndexInterval)
	if err != nil {
		errs = append(errs, err)
	} else {
		config.IndexInterval = interval
	}

	return errors.Join(errs...)
}

// applyFlags copies only the flags that were set on the command line.
func applyFlags(config *Config, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "source-dir":
			config.SourceDir, err = fs.GetString(f.Name)
		case "cache-dir":
			config.CacheDir, err = fs.GetString(f.Name)
		case "database-dir":
			config.DatabaseDir, err = fs.GetString(f.Name)
		case "port":
			config.Port, err = fs.GetString(f.Name)
		case "thumb-width":
			config.ThumbWidth, err = fs.GetInt(f.Name)
		case "thumb-height":
			config.ThumbHeight, err = fs.GetInt(f.Name)
		case "memory-entries":
			config.MemoryEntries, err = fs.GetInt(f.Name)
		case "jpeg-quality":
			config.JPEGQuality, err = fs.GetInt(f.Name)
		case "workers":
			config.Workers, err = fs.GetInt(f.Name)
		case "vips":
			config.VipsEnabled, err = fs.GetBool(f.Name)
		case "index-interval":
			config.IndexInterval, err = fs.GetDuration(f.Name)
		case "grid-slots":
			config.GridSlots, err = fs.GetInt(f.Name)
		case "log-level":
			config.LogLevel, err = fs.GetString(f.Name)
		}
	})
	return err
}

func (c *Config) validate() error {
	var errs []error
	if c.ThumbWidth <= 0 || c.ThumbHeight <= 0 {
		errs = append(errs, fmt.Errorf("thumbnail size must be positive, got %dx%d", c.ThumbWidth, c.ThumbHeight))
	}
	if c.MemoryEntries <= 0 {
		errs = append(errs, fmt.Errorf("memory cache entries must be positive, got %d", c.MemoryEntries))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("JPEG quality must be 1-100, got %d", c.JPEGQuality))
	}
	if c.GridSlots <= 0 {
		errs = append(errs, fmt.Errorf("grid slots must be positive, got %d", c.GridSlots))
	}
	if c.IndexInterval < 0 {
		errs = append(errs, fmt.Errorf("index interval must not be negative, got %v", c.IndexInterval))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("port must not be empty"))
	}
	if c.CacheDir == "" || c.DatabaseDir == "" || c.SourceDir == "" {
		errs = append(errs, errors.New("source, cache and database directories are required"))
	}
	return errors.Join(errs...)
}

func (c *Config) prepareDirectories() error {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	var err error
	if c.SourceDir, err = filepath.Abs(c.SourceDir); err != nil {
		return fmt.Errorf("failed to resolve source directory path: %w", err)
	}
	if c.CacheDir, err = filepath.Abs(c.CacheDir); err != nil {
		return fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	if c.DatabaseDir, err = filepath.Abs(c.DatabaseDir); err != nil {
		return fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Source directory (absolute):   %s", c.SourceDir)
	logging.Info("  Cache directory (absolute):    %s", c.CacheDir)
	logging.Info("  Database directory (absolute): %s", c.DatabaseDir)

	// A missing source directory is not fatal; the index stays empty.
	if err := ensureDirectory(c.SourceDir, "source"); err != nil {
		logging.Warn("  Source directory issue: %v", err)
	}

	for _, dir := range []struct{ path, name string }{
		{c.CacheDir, "cache"},
		{c.DatabaseDir, "database"},
	} {
		if err := ensureDirectory(dir.path, dir.name); err != nil {
			return fmt.Errorf("%s directory error: %w", dir.name, err)
		}
		if err := testWriteAccess(dir.path); err != nil {
			return fmt.Errorf("%s directory is not writable: %w", dir.name, err)
		}
		logging.Info("  [OK] %s directory is writable", dir.name)
	}

	c.DatabasePath = filepath.Join(c.DatabaseDir, "thumbgrid.db")
	return nil
}

func logConfig(c *Config) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if c.ConfigFile != "" {
		logging.Info("  Config file:          %s", c.ConfigFile)
	}
	logging.Info("  SOURCE_DIR:           %s", c.SourceDir)
	logging.Info("  CACHE_DIR:            %s", c.CacheDir)
	logging.Info("  DATABASE_DIR:         %s", c.DatabaseDir)
	logging.Info("  PORT:                 %s", c.Port)
	logging.Info("  THUMB_WIDTH:          %d", c.ThumbWidth)
	logging.Info("  THUMB_HEIGHT:         %d", c.ThumbHeight)
	logging.Info("  MEMORY_CACHE_ENTRIES: %d", c.MemoryEntries)
	logging.Info("  JPEG_QUALITY:         %d", c.JPEGQuality)
	logging.Info("  THUMBGRID_WORKERS:    %d", c.Workers)
	logging.Info("  VIPS_ENABLED:         %v", c.VipsEnabled)
	logging.Info("  INDEX_INTERVAL:       %v", c.IndexInterval)
	logging.Info("  GRID_SLOTS:           %d", c.GridSlots)
	logging.Info("  LOG_LEVEL:            %s", logging.GetLevel())
	logging.Info("  CPUs / GOMAXPROCS:    %d / %d", runtime.NumCPU(), runtime.GOMAXPROCS(0))
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid integer for %s: %q", key, value)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid duration for %s: %q", key, value)
	}
	return parsed, nil
}
