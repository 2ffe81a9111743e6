// Package store persists exported templates and scan events in sqlite.
// Exports are grouped into batches so a sensor database can be restored
// from the exact set of records it was captured as.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/touchstone/zfm"
)

type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the sqlite database at path and brings
// the schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// sqlite allows one writer; serialising through a single connection
	// avoids SQLITE_BUSY under the api server.
	db.SetMaxOpenConns(1)

	s := &Store{db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// SaveExport stores one exported database snapshot under a fresh batch id
// and returns the id.
func (s *Store) SaveExport(records []zfm.Record) (string, error) {
	batchID := uuid.NewString()

	tx, err := s.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	for _, r := range records {
		_, err := tx.Exec(
			`INSERT INTO records (batch_id, position, sha256, characteristics) VALUES (?, ?, ?, ?)`,
			batchID, r.Position, r.SHA256, r.Characteristics,
		)
		if err != nil {
			return "", fmt.Errorf("store: insert record %d: %w", r.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return batchID, nil
}

// LatestBatch returns the id of the most recent export, or "" when none
// has been saved yet.
func (s *Store) LatestBatch() (string, error) {
	var batchID string
	err := s.QueryRow(
		`SELECT batch_id FROM records ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&batchID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return batchID, nil
}

// Records returns the records of one export batch ordered by position.
// An empty batchID selects the latest batch.
func (s *Store) Records(batchID string) ([]zfm.Record, error) {
	if batchID == "" {
		latest, err := s.LatestBatch()
		if err != nil {
			return nil, err
		}
		if latest == "" {
			return nil, nil
		}
		batchID = latest
	}

	rows, err := s.Query(
		`SELECT position, sha256, characteristics FROM records WHERE batch_id = ? ORDER BY position`,
		batchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []zfm.Record
	for rows.Next() {
		var r zfm.Record
		if err := rows.Scan(&r.Position, &r.SHA256, &r.Characteristics); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ScanEvent is one logged identification attempt.
type ScanEvent struct {
	ID        int64     `json:"id"`
	Matched   bool      `json:"matched"`
	Position  int       `json:"position"`
	Accuracy  int       `json:"accuracy"`
	CreatedAt time.Time `json:"created_at"`
}

// LogScan records the outcome of one identification attempt.
func (s *Store) LogScan(result zfm.SearchResult) error {
	_, err := s.Exec(
		`INSERT INTO scans (matched, position, accuracy) VALUES (?, ?, ?)`,
		result.Found, result.Position, result.Accuracy,
	)
	return err
}

// Scans returns up to limit scan events, most recent first.
func (s *Store) Scans(limit int) ([]ScanEvent, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.Query(
		`SELECT id, matched, position, accuracy, created_at FROM scans ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ScanEvent
	for rows.Next() {
		var e ScanEvent
		if err := rows.Scan(&e.ID, &e.Matched, &e.Position, &e.Accuracy, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
