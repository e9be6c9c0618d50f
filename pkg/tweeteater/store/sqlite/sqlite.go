package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/tweeteater/pkg/tweeteater/store"
	"github.com/cognicore/tweeteater/pkg/tweeteater/table"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// tables if they don't exist.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	files INTEGER NOT NULL,
	records INTEGER NOT NULL,
	posts INTEGER NOT NULL,
	engagements INTEGER NOT NULL,
	duplicates INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	stats TEXT
);

CREATE TABLE IF NOT EXISTS posts (
	run_id TEXT NOT NULL,
	id TEXT NOT NULL,
	tweettypes TEXT NOT NULL,
	attributes TEXT NOT NULL,
	PRIMARY KEY(run_id, id)
);

CREATE TABLE IF NOT EXISTS engagements (
	run_id TEXT NOT NULL,
	engagement_id TEXT NOT NULL,
	original_tweet_id TEXT NOT NULL,
	engagement_type TEXT NOT NULL,
	engagement_created_at TEXT,
	engagement_screen_name TEXT,
	engagement_count INTEGER,
	original_tweet_screen_name TEXT,
	original_tweet_created_at TEXT,
	PRIMARY KEY(run_id, engagement_id, original_tweet_id, engagement_type)
);

CREATE INDEX IF NOT EXISTS idx_engagements_target ON engagements(run_id, original_tweet_id);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// WritePosts inserts the post table; rows already stored for the run are kept.
func (s *sqliteStore) WritePosts(ctx context.Context, runID string, posts *table.Posts) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO posts (run_id, id, tweettypes, attributes)
VALUES (?, ?, ?, ?)
ON CONFLICT(run_id, id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range posts.Rows() {
		attrs, err := json.Marshal(store.PostFields(posts, row))
		if err != nil {
			return fmt.Errorf("encode attributes of %s: %w", row.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, string(row.ID), row.Labels.String(), string(attrs)); err != nil {
			return fmt.Errorf("insert post %s: %w", row.ID, err)
		}
	}
	return tx.Commit()
}

// WriteEngagements inserts the engagement table; the primary key keeps the
// first row per (engagement id, target id, kind).
func (s *sqliteStore) WriteEngagements(ctx context.Context, runID string, engagements *table.Engagements) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO engagements (
	run_id, engagement_id, original_tweet_id, engagement_type,
	engagement_created_at, engagement_screen_name, engagement_count,
	original_tweet_screen_name, original_tweet_created_at
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, engagement_id, original_tweet_id, engagement_type) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range engagements.Rows() {
		var count sql.NullInt64
		if row.Count.Known {
			count = sql.NullInt64{Int64: row.Count.N, Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			runID,
			string(row.ID),
			string(row.TargetID),
			string(row.Kind),
			nullString(row.CreatedAt.String()),
			nullString(row.Handle.String()),
			count,
			nullString(row.TargetHandle.String()),
			nullString(row.TargetCreatedAt.String()),
		)
		if err != nil {
			return fmt.Errorf("insert engagement %s->%s: %w", row.ID, row.TargetID, err)
		}
	}
	return tx.Commit()
}

// SaveRun inserts or updates a run summary
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	const stmt = `
INSERT INTO runs (id, started_at, finished_at, files, records, posts, engagements, duplicates, skipped, stats)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	finished_at=excluded.finished_at,
	files=excluded.files,
	records=excluded.records,
	posts=excluded.posts,
	engagements=excluded.engagements,
	duplicates=excluded.duplicates,
	skipped=excluded.skipped,
	stats=excluded.stats
`
	_, err := s.db.ExecContext(ctx, stmt,
		r.ID,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.FinishedAt.UTC().Format(time.RFC3339Nano),
		r.Files, r.Records, r.Posts, r.Engagements, r.Duplicates, r.Skipped,
		r.StatsJSON,
	)
	return err
}

// ListRuns returns all runs ordered by id
func (s *sqliteStore) ListRuns(ctx context.Context) ([]store.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, finished_at, files, records, posts, engagements, duplicates, skipped, COALESCE(stats, '')
FROM runs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var r store.Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Files, &r.Records, &r.Posts,
			&r.Engagements, &r.Duplicates, &r.Skipped, &r.StatsJSON); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s started_at: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("run %s finished_at: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
