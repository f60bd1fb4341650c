package pwv

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// YearCatalog records which years have SuomiNet data on this machine.
type YearCatalog struct {
	db *sql.DB
}

// NewYearCatalog creates a YearCatalog using db.
func NewYearCatalog(db *sql.DB) *YearCatalog {
	return &YearCatalog{db: db}
}

// Add records year as downloaded from receivers, replacing any earlier
// entry for that year.
func (c *YearCatalog) Add(ctx context.Context, year int, receivers []string) error {
	_, err := c.db.ExecContext(ctx, `INSERT INTO suomi_years (year, receivers, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(year) DO UPDATE SET receivers = excluded.receivers, updated_at = excluded.updated_at`,
		year, strings.Join(receivers, ","), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record year %d: %w", year, err)
	}
	return nil
}

// Years returns the recorded years in ascending order.
func (c *YearCatalog) Years(ctx context.Context) ([]int, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT year FROM suomi_years ORDER BY year ASC")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}
