// Package runlog persists verification run summaries to a local sqlite file
// so a dataset can be tracked across relabeling and conversion passes. The
// store is a plain cache: losing it costs history, never data.
package runlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the run history database at path.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verify_runs (
			run_id            TEXT PRIMARY KEY,
			images_dir        TEXT,
			annotations_dir   TEXT,
			matched           BIGINT,
			only_images       BIGINT,
			only_xmls         BIGINT,
			inspected         BIGINT,
			parse_errors      BIGINT,
			object_total      BIGINT,
			labels            TEXT,
			success           BOOLEAN,
			created_at        BIGINT
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// Run is one recorded verification summary.
type Run struct {
	RunID          string
	ImagesDir      string
	AnnotationsDir string
	Matched        int
	OnlyImages     int
	OnlyXMLs       int
	Inspected      int
	ParseErrors    int
	ObjectTotal    int
	Labels         map[string]int
	Success        bool
	Timestamp      time.Time
}

// RecordRun stores one run summary and returns its generated id.
func (db *DB) RecordRun(r Run) (string, error) {
	runID := uuid.New().String()

	labels, err := json.Marshal(r.Labels)
	if err != nil {
		return "", fmt.Errorf("failed to encode label histogram: %v", err)
	}

	createdAt := r.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = db.Exec(`
		INSERT INTO verify_runs (
			run_id, images_dir, annotations_dir,
			matched, only_images, only_xmls,
			inspected, parse_errors, object_total,
			labels, success, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.ImagesDir, r.AnnotationsDir,
		r.Matched, r.OnlyImages, r.OnlyXMLs,
		r.Inspected, r.ParseErrors, r.ObjectTotal,
		string(labels), r.Success, createdAt.Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %v", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT run_id, images_dir, annotations_dir,
		       matched, only_images, only_xmls,
		       inspected, parse_errors, object_total,
		       labels, success, created_at
		FROM verify_runs
		ORDER BY created_at DESC, run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %v", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var labels string
		var createdAtUnix int64
		if err := rows.Scan(
			&r.RunID, &r.ImagesDir, &r.AnnotationsDir,
			&r.Matched, &r.OnlyImages, &r.OnlyXMLs,
			&r.Inspected, &r.ParseErrors, &r.ObjectTotal,
			&labels, &r.Success, &createdAtUnix,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %v", err)
		}
		r.Timestamp = time.Unix(createdAtUnix, 0)
		if labels != "" {
			if err := json.Unmarshal([]byte(labels), &r.Labels); err != nil {
				return nil, fmt.Errorf("failed to decode label histogram: %v", err)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
