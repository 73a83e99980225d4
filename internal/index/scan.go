package index

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"thumbgrid/internal/logging"
	"thumbgrid/internal/media"
)

// Number of rows written per transaction during a scan
const batchSize = 500

// ScanResult summarizes one scan.
type ScanResult struct {
	Files    int           `json:"files"`
	Removed  int64         `json:"removed"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// Scan walks root and makes the index match it: every decodable image is
// upserted and rows for files no longer present are deleted. Hidden
// directories are skipped, which also keeps a cache directory placed inside
// the source tree out of the index.
func (idx *Index) Scan(ctx context.Context, root string) (ScanResult, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	start := time.Now()
	scanID := start.UnixNano()
	var result ScanResult

	var tx *sql.Tx
	pending := 0
	flush := func(err error) error {
		if tx == nil {
			return err
		}
		err = endBatch(tx, err)
		tx = nil
		pending = 0
		return err
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logging.Warn("Skipping %s: %v", path, err)
			result.Skipped++
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !media.IsImage(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logging.Warn("Skipping %s: %v", path, err)
			result.Skipped++
			return nil
		}

		if tx == nil {
			tx, err = idx.db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("failed to begin batch: %w", err)
			}
		}

		src := Source{Path: path, Name: d.Name(), Size: info.Size(), ModTime: info.ModTime()}
		if err := idx.upsert(ctx, tx, src, scanID); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", path, err)
		}
		result.Files++
		pending++

		if pending >= batchSize {
			return flush(nil)
		}
		return nil
	})

	if err := flush(walkErr); err != nil {
		return result, fmt.Errorf("scan of %s failed: %w", root, err)
	}

	removed, err := idx.deleteMissing(ctx, scanID)
	if err != nil {
		return result, fmt.Errorf("failed to remove missing sources: %w", err)
	}
	result.Removed = removed
	result.Duration = time.Since(start)

	logging.Info("Indexed %d sources under %s in %v (%d removed, %d skipped)",
		result.Files, root, result.Duration.Round(time.Millisecond), result.Removed, result.Skipped)
	return result, nil
}
