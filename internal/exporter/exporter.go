// Package exporter writes backups of the local state: a consistent copy of
// the SQLite database and a data bundle the importer can read back.
package exporter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/pwvkpno/pwvkpno/internal/pwv"
)

// ExportDatabase writes a consistent snapshot of db to dstPath, replacing
// any existing file.
func ExportDatabase(ctx context.Context, db *sql.DB, dstPath string) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("create dst dir: %w", err)
	}
	if err := os.Remove(dstPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace %s: %w", dstPath, err)
	}
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dstPath); err != nil {
		return fmt.Errorf("snapshot db: %w", err)
	}
	return nil
}

// ExportData copies the PWV tables and atmospheric models into dst as
// pwv_tables/ and atm_models/. It returns the files written, relative to dst.
func ExportData(store *pwv.Store, dst string) ([]string, error) {
	var written []string
	copyInto := func(src, sub string) error {
		b, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		dir := filepath.Join(dst, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		rel := filepath.Join(sub, filepath.Base(src))
		if err := renameio.WriteFile(filepath.Join(dst, rel), b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
		written = append(written, filepath.ToSlash(rel))
		return nil
	}

	for _, p := range []string{store.MeasuredPath(), store.ModeledPath()} {
		if err := copyInto(p, "pwv_tables"); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return written, err
		}
	}
	models, err := filepath.Glob(filepath.Join(store.AtmModelsDir, "*.csv"))
	if err != nil {
		return written, err
	}
	for _, p := range models {
		if err := copyInto(p, "atm_models"); err != nil {
			return written, err
		}
	}
	if len(written) == 0 {
		return nil, fmt.Errorf("%w: nothing to export", pwv.ErrNoData)
	}
	return written, nil
}
