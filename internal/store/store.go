// Package store persists canonical records and run diagnostics in the
// workspace catalog database. It is the persistence collaborator the
// orchestrator hands finished records to.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // sqlite driver for database/sql

	"github.com/entro314-labs/vdk/internal/model"
)

// Store wraps the catalog database.
type Store struct {
	db *sql.DB
}

// Open opens the catalog database at the given path and applies pragmas.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(context.Background(), p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %s: %w", p, err)
		}
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const catalogSchema = `
CREATE TABLE IF NOT EXISTS records (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    version TEXT NOT NULL,
    schema_version TEXT NOT NULL,
    category TEXT NOT NULL,
    scope TEXT NOT NULL,
    complexity TEXT NOT NULL,
    audience TEXT NOT NULL,
    maturity TEXT NOT NULL,
    platforms_json TEXT NOT NULL,
    relationships_json TEXT NOT NULL,
    source_path TEXT NOT NULL,
    body TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS record_tags (
    record_id TEXT NOT NULL,
    tag TEXT NOT NULL,
    PRIMARY KEY (record_id, tag),
    FOREIGN KEY (record_id) REFERENCES records(id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    root TEXT NOT NULL,
    started_at TEXT NOT NULL,
    completed_at TEXT NOT NULL,
    processed INTEGER NOT NULL,
    converted INTEGER NOT NULL,
    skipped INTEGER NOT NULL,
    duplicates INTEGER NOT NULL,
    errors INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS diagnostics (
    run_id TEXT NOT NULL,
    path TEXT NOT NULL,
    reason TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    is_error INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
`

func ensureSchema(db *sql.DB) error {
	if _, err := db.ExecContext(context.Background(), catalogSchema); err != nil {
		return fmt.Errorf("ensure catalog schema: %w", err)
	}
	return nil
}

// SaveRecord upserts a canonical record and replaces its tag set.
func (s *Store) SaveRecord(rec model.CanonicalRecord, sourcePath string) error {
	platforms, err := json.Marshal(rec.Platforms)
	if err != nil {
		return fmt.Errorf("marshal platforms for %s: %w", rec.ID, err)
	}
	rels, err := json.Marshal(rec.Relationships)
	if err != nil {
		return fmt.Errorf("marshal relationships for %s: %w", rec.ID, err)
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(context.Background(), `
		INSERT INTO records (id, kind, title, description, version, schema_version,
			category, scope, complexity, audience, maturity,
			platforms_json, relationships_json, source_path, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind=excluded.kind, title=excluded.title, description=excluded.description,
			version=excluded.version, schema_version=excluded.schema_version,
			category=excluded.category, scope=excluded.scope, complexity=excluded.complexity,
			audience=excluded.audience, maturity=excluded.maturity,
			platforms_json=excluded.platforms_json, relationships_json=excluded.relationships_json,
			source_path=excluded.source_path, body=excluded.body, updated_at=excluded.updated_at`,
		rec.ID, string(rec.Kind), rec.Title, rec.Description, rec.Version, rec.SchemaVersion,
		rec.Category, rec.Scope, rec.Complexity, rec.Audience, rec.Maturity,
		string(platforms), string(rels), sourcePath, rec.Body,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", rec.ID, err)
	}

	if _, err := tx.ExecContext(context.Background(), `DELETE FROM record_tags WHERE record_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clear tags for %s: %w", rec.ID, err)
	}
	for _, tag := range rec.Tags {
		if _, err := tx.ExecContext(context.Background(),
			`INSERT OR IGNORE INTO record_tags (record_id, tag) VALUES (?, ?)`, rec.ID, tag); err != nil {
			return fmt.Errorf("insert tag %s for %s: %w", tag, rec.ID, err)
		}
	}

	return tx.Commit()
}

// SaveRun records a run summary and its per-artifact diagnostics.
func (s *Store) SaveRun(res model.MigrationRunResult, root string) error {
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(context.Background(), `
		INSERT INTO runs (run_id, root, started_at, completed_at, processed, converted, skipped, duplicates, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, root,
		res.StartedAt.UTC().Format(time.RFC3339), res.FinishedAt.UTC().Format(time.RFC3339),
		res.Processed, res.ConvertedCount, res.SkippedCount, res.DuplicateCount, res.ErrorCount)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", res.RunID, err)
	}

	save := func(diags []model.Diagnostic) error {
		for _, d := range diags {
			if _, err := tx.ExecContext(context.Background(), `
				INSERT INTO diagnostics (run_id, path, reason, detail, is_error)
				VALUES (?, ?, ?, ?, ?)`,
				res.RunID, d.Path, d.Reason, d.Detail, boolToInt(d.IsError)); err != nil {
				return fmt.Errorf("insert diagnostic for %s: %w", d.Path, err)
			}
		}
		return nil
	}
	for _, diags := range [][]model.Diagnostic{res.Skipped, res.Duplicates, res.Failed} {
		if err := save(diags); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CountRecords returns how many canonical records the catalog holds.
func (s *Store) CountRecords() (int, error) {
	var count int
	if err := s.db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// Tags returns the stored tag set for a record.
func (s *Store) Tags(recordID string) ([]string, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT tag FROM record_tags WHERE record_id = ? ORDER BY tag`, recordID)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
