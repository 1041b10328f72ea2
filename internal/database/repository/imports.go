package repository

import (
	"context"
	"fmt"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// ImportLogRepo records which files each run processed.
type ImportLogRepo struct {
	db Querier
}

func NewImportLogRepo(db Querier) *ImportLogRepo { return &ImportLogRepo{db: db} }

// Record appends one entry. A zero ImportedAt is stamped with the current
// time.
func (r *ImportLogRepo) Record(ctx context.Context, e ImportEntry) (int64, error) {
	at := e.ImportedAt
	if at.IsZero() {
		at = time.Now()
	}
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO import_log(run_id, filename, platform, status, error, row_count, imported_at)
	VALUES(?, ?, ?, ?, ?, ?, ?)
	`, e.RunID, e.Filename, e.Platform, e.Status, e.Error, e.RowCount, at.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("record import of %s: %w", e.Filename, err)
	}
	return res.LastInsertId()
}

// List returns import entries, most recent first.
func (r *ImportLogRepo) List(ctx context.Context, limit int) ([]ImportEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, run_id, filename, platform, status, error, row_count, imported_at
	FROM import_log
	ORDER BY imported_at DESC, id DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}
	defer rows.Close()

	var out []ImportEntry
	for rows.Next() {
		var (
			e  ImportEntry
			at string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Filename, &e.Platform, &e.Status, &e.Error, &e.RowCount, &at); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		if e.ImportedAt, err = time.Parse(timestampLayout, at); err != nil {
			return nil, fmt.Errorf("import %d timestamp %q: %w", e.ID, at, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
