// Package store persists extracted facts to a single SQLite database
// file, keyed by patient, so timelines accumulate across extraction
// runs over a growing document set. Persistence is an optional
// collaborator: the engine itself never touches it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chartfact/chartfact/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS facts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	patient    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	year       INTEGER NOT NULL,
	month      INTEGER NOT NULL,
	day        INTEGER NOT NULL,
	raw_date   TEXT NOT NULL,
	summary    TEXT NOT NULL,
	payload    TEXT NOT NULL,
	context    TEXT NOT NULL,
	source     TEXT NOT NULL,
	dedup_key  TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	UNIQUE(patient, kind, dedup_key)
);
CREATE INDEX IF NOT EXISTS idx_facts_patient_kind ON facts(patient, kind, year, month, day);
`

// Store is a SQLite-backed fact archive.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path. Pass
// ":memory:" for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport inserts every fact of the report under its patient label.
// Facts whose dedup key is already stored for that patient and kind are
// skipped, so re-running extraction over the same documents is a no-op.
func (s *Store) SaveReport(ctx context.Context, report *model.Report) (inserted int, err error) {
	patient := report.Patient
	if patient == "" {
		patient = "unknown"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO facts
		(patient, kind, year, month, day, raw_date, summary, payload, context, source, dedup_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, kind := range model.AllKinds() {
		for _, fact := range report.Facts[kind] {
			payload, err := json.Marshal(fact)
			if err != nil {
				return inserted, fmt.Errorf("marshal fact: %w", err)
			}
			res, err := stmt.ExecContext(ctx,
				patient, string(fact.Kind),
				fact.Date.Year, fact.Date.Month, fact.Date.Day,
				fact.RawDate, fact.Summary(), string(payload),
				fact.Context, fact.Source, fact.DedupKey(), now)
			if err != nil {
				return inserted, fmt.Errorf("insert fact: %w", err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted++
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// ListFacts returns a patient's stored facts for one kind in
// chronological order, unknown dates first. Ties fall back to insertion
// order, matching the engine's stable sort.
func (s *Store) ListFacts(ctx context.Context, patient string, kind model.FactKind) ([]model.Fact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM facts
		WHERE patient = ? AND kind = ?
		ORDER BY year, month, day, id`, patient, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	defer rows.Close()

	var facts []model.Fact
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		var fact model.Fact
		if err := json.Unmarshal([]byte(payload), &fact); err != nil {
			return nil, fmt.Errorf("unmarshal fact: %w", err)
		}
		facts = append(facts, fact)
	}
	return facts, rows.Err()
}

// Patients lists the distinct patient labels in the store.
func (s *Store) Patients(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT patient FROM facts ORDER BY patient`)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var patients []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}
