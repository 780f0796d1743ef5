// Package sqlitesink persists the normalized observation table to SQLite.
// Deterministic observation IDs make writes idempotent: re-running the
// pipeline over the same inputs is a no-op.
package sqlitesink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tenkilab/tenki-etl/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	id                   TEXT PRIMARY KEY,
	entity_id            TEXT NOT NULL,
	date                 TEXT NOT NULL,
	metric               TEXT NOT NULL,
	value                REAL NOT NULL,
	unit                 TEXT NOT NULL,
	source               TEXT NOT NULL,
	display_name         TEXT,
	parent_region        TEXT,
	resolved_distance_km REAL NOT NULL DEFAULT 0,
	processed_at         TEXT NOT NULL,
	UNIQUE (entity_id, date, metric)
);
CREATE INDEX IF NOT EXISTS idx_observations_entity_date ON observations (entity_id, date);
`

// Writer implements pipeline.TableWriter over a SQLite database file.
type Writer struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the database and ensures the schema.
func Open(path string, logger *slog.Logger) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite sink %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure observations schema: %w", err)
	}
	return &Writer{db: db, logger: logger}, nil
}

// WriteTable inserts the normalized table in one transaction. Rows whose
// (entity_id, date, metric) already exist are ignored, keeping re-runs
// idempotent.
func (w *Writer) WriteTable(ctx context.Context, observations []domain.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin observations write: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO observations
			(id, entity_id, date, metric, value, unit, source,
			 display_name, parent_region, resolved_distance_km, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare observations insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range observations {
		if _, err := stmt.ExecContext(ctx,
			o.ID,
			o.EntityID,
			domain.DateKey(o.Date),
			string(o.Metric),
			o.Value,
			string(o.Unit),
			o.Source,
			o.DisplayName,
			o.ParentRegion,
			o.ResolvedDistanceKM,
			o.ProcessedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("insert observation %s: %w", o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit observations write: %w", err)
	}
	w.logger.Info("observation table written", "rows", len(observations))
	return nil
}

// Count returns the number of stored observations; the validator and
// tests use it.
func (w *Writer) Count(ctx context.Context) (int, error) {
	var n int
	if err := w.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM observations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return n, nil
}

// Close releases the database handle.
func (w *Writer) Close() error {
	return w.db.Close()
}
