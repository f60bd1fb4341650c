package release

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// History stores release runs in SQLite.
type History struct {
	db *sql.DB
}

// NewHistory creates a History using db.
func NewHistory(db *sql.DB) *History {
	return &History{db: db}
}

// Run is a persisted release run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	WorkDir    string
	Operator   string
	DryRun     bool
	Confirmed  bool
	Uploaded   bool
	Signed     bool
	Error      string
	Artifacts  []RunArtifact
}

// RunArtifact is an artifact recorded with a run.
type RunArtifact struct {
	Path   string
	SHA256 string
}

// Record inserts res and its artifacts in one transaction.
func (h *History) Record(ctx context.Context, res *Result) error {
	trx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = trx.Rollback() }()

	var errText sql.NullString
	if err := res.Err(); err != nil {
		errText = sql.NullString{String: err.Error(), Valid: true}
	}
	if _, err := trx.ExecContext(ctx, `INSERT INTO release_runs
		(id, started_at, finished_at, work_dir, operator, dry_run, confirmed, uploaded, signed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID,
		res.StartedAt.UTC().Format(timeLayout),
		res.FinishedAt.UTC().Format(timeLayout),
		res.WorkDir,
		res.Operator,
		res.DryRun, res.Confirmed, res.Uploaded, res.Signed,
		errText,
	); err != nil {
		return fmt.Errorf("insert release run: %w", err)
	}
	for _, a := range res.Artifacts {
		if _, err := trx.ExecContext(ctx, "INSERT INTO release_artifacts (run_id, path, sha256) VALUES (?, ?, ?)", res.ID, a.Path, a.SHA256); err != nil {
			return fmt.Errorf("insert release artifact: %w", err)
		}
	}
	return trx.Commit()
}

// List returns the most recent runs first. limit <= 0 means no limit.
func (h *History) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.QueryContext(ctx, `SELECT id, started_at, finished_at, work_dir, operator,
		dry_run, confirmed, uploaded, signed, error
		FROM release_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var r Run
		var started string
		var finished, operator, errText sql.NullString
		if err := rows.Scan(&r.ID, &started, &finished, &r.WorkDir, &operator,
			&r.DryRun, &r.Confirmed, &r.Uploaded, &r.Signed, &errText); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		if finished.Valid {
			r.FinishedAt, _ = time.Parse(timeLayout, finished.String)
		}
		r.Operator = operator.String
		r.Error = errText.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		arts, err := h.artifacts(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Artifacts = arts
	}
	return out, nil
}

func (h *History) artifacts(ctx context.Context, runID string) ([]RunArtifact, error) {
	rows, err := h.db.QueryContext(ctx, "SELECT path, sha256 FROM release_artifacts WHERE run_id = ? ORDER BY id ASC", runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []RunArtifact
	for rows.Next() {
		var a RunArtifact
		var sum sql.NullString
		if err := rows.Scan(&a.Path, &sum); err != nil {
			return nil, err
		}
		a.SHA256 = sum.String
		out = append(out, a)
	}
	return out, rows.Err()
}
