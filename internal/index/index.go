package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"thumbgrid/internal/logging"
	"thumbgrid/internal/metrics"
)

// Default timeout for read queries
const defaultTimeout = 5 * time.Second

// Source is one indexed image file.
type Source struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// Index is the SQLite table of source images, ordered most recent first.
type Index struct {
	db     *sql.DB
	dbPath string
	// mu serializes scans against each other; readers never take it.
	mu sync.Mutex
}

// Open opens or creates the index database at dbPath. The parent directory
// must already exist.
func Open(ctx context.Context, dbPath string) (*Index, error) {
	logging.Info("Index database path: %s", dbPath)

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close index database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to index database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	idx := &Index{db: db, dbPath: dbPath}
	if err := idx.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close index database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}

	logging.Info("Index database initialized successfully at %s", dbPath)
	return idx, nil
}

func (idx *Index) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sources (
		path TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		mod_time INTEGER NOT NULL,
		scan_id INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sources_recent ON sources(mod_time DESC, path ASC);
	CREATE INDEX IF NOT EXISTS idx_sources_scan ON sources(scan_id);
	`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := idx.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Paths returns up to limit source paths starting at offset, most recently
// modified first. Ties are broken by path so paging is stable.
func (idx *Index) Paths(ctx context.Context, offset, limit int) ([]string, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("invalid page offset=%d limit=%d", offset, limit)
	}
	if limit == 0 {
		return []string{}, nil
	}

	start := time.Now()
	defer recordQuery("paths", start)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := idx.db.QueryContext(ctx,
		"SELECT path FROM sources ORDER BY mod_time DESC, path ASC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	paths := make([]string, 0, limit)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Sources returns a page of full source records in the same order as Paths.
func (idx *Index) Sources(ctx context.Context, offset, limit int) ([]Source, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("invalid page offset=%d limit=%d", offset, limit)
	}

	start := time.Now()
	defer recordQuery("paths", start)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := idx.db.QueryContext(ctx,
		"SELECT path, name, size, mod_time FROM sources ORDER BY mod_time DESC, path ASC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	sources := make([]Source, 0, limit)
	for rows.Next() {
		var s Source
		var modTime int64
		if err := rows.Scan(&s.Path, &s.Name, &s.Size, &modTime); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		s.ModTime = time.Unix(0, modTime)
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// Count returns the number of indexed sources.
func (idx *Index) Count(ctx context.Context) (int, error) {
	start := time.Now()
	defer recordQuery("count", start)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	if err := idx.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sources").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return n, nil
}

func (idx *Index) upsert(ctx context.Context, tx *sql.Tx, s Source, scanID int64) error {
	start := time.Now()
	defer recordQuery("upsert", start)

	_, err := tx.ExecContext(ctx, `
	INSERT INTO sources (path, name, size, mod_time, scan_id)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		name = excluded.name,
		size = excluded.size,
		mod_time = excluded.mod_time,
		scan_id = excluded.scan_id
	`, s.Path, s.Name, s.Size, s.ModTime.UnixNano(), scanID)
	return err
}

func (idx *Index) deleteMissing(ctx context.Context, scanID int64) (int64, error) {
	start := time.Now()
	defer recordQuery("delete_missing", start)

	result, err := idx.db.ExecContext(ctx, "DELETE FROM sources WHERE scan_id != ?", scanID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// endBatch commits or rolls back tx depending on err.
func endBatch(tx *sql.Tx, err error) error {
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}
	return tx.Commit()
}

func recordQuery(operation string, start time.Time) {
	metrics.IndexQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
