package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jlonij/dac-web/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "dacweb.db"

// timeLayout stores timestamps as fixed-width UTC text so they sort.
const timeLayout = "2006-01-02 15:04:05.000000000"

// HistoryDB stores evaluation runs.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

func (h *HistoryDB) createTables() error {
	schema := `
	-- One row per evaluation run; records are kept as JSON
	CREATE TABLE IF NOT EXISTS evaluation_runs (
		id TEXT PRIMARY KEY,
		dataset TEXT NOT NULL,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		instances INTEGER NOT NULL,
		correct_instances INTEGER NOT NULL,
		link_instances INTEGER NOT NULL,
		correct_links INTEGER NOT NULL,
		false_links INTEGER NOT NULL,
		failures INTEGER NOT NULL DEFAULT 0,
		records_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_dataset ON evaluation_runs(dataset);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON evaluation_runs(started_at);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a completed evaluation run.
func (h *HistoryDB) SaveRun(ctx context.Context, run *model.EvaluationRun) error {
	if run.ID == "" {
		return errors.New("run has no id")
	}

	recordsJSON, err := json.Marshal(run.Records)
	if err != nil {
		return fmt.Errorf("failed to serialize records: %w", err)
	}

	query := `
	INSERT INTO evaluation_runs (
		id, dataset, started_at, duration_ms,
		instances, correct_instances, link_instances, correct_links, false_links,
		failures, records_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	c := run.Counts
	_, err = h.db.ExecContext(ctx, query,
		run.ID,
		run.Dataset,
		run.StartedAt.UTC().Format(timeLayout),
		run.Duration.Milliseconds(),
		c.Instances,
		c.CorrectInstances,
		c.LinkInstances,
		c.CorrectLinks,
		c.FalseLinks,
		run.Failures,
		string(recordsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save evaluation run: %w", err)
	}
	return nil
}

// RunMetadata summarizes a stored run without its records.
type RunMetadata struct {
	ID        string
	Dataset   string
	StartedAt time.Time
	Duration  time.Duration
	Counts    model.Counts
	Failures  int
}

const metadataColumns = `id, dataset, started_at, duration_ms,
	instances, correct_instances, link_instances, correct_links, false_links, failures`

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMetadata(s scanner, extra ...any) (RunMetadata, error) {
	var (
		meta       RunMetadata
		startedAt  string
		durationMS int64
	)
	dest := []any{
		&meta.ID,
		&meta.Dataset,
		&startedAt,
		&durationMS,
		&meta.Counts.Instances,
		&meta.Counts.CorrectInstances,
		&meta.Counts.LinkInstances,
		&meta.Counts.CorrectLinks,
		&meta.Counts.FalseLinks,
		&meta.Failures,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return RunMetadata{}, err
	}
	meta.StartedAt = parseTimestamp(startedAt)
	meta.Duration = time.Duration(durationMS) * time.Millisecond
	return meta, nil
}

// GetRunHistory returns the runs of a dataset, newest first.
func (h *HistoryDB) GetRunHistory(ctx context.Context, dataset string) ([]RunMetadata, error) {
	query := `SELECT ` + metadataColumns + `
	FROM evaluation_runs
	WHERE dataset = ?
	ORDER BY started_at DESC, rowid DESC
	`

	rows, err := h.db.QueryContext(ctx, query, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		meta, err := scanMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		results = append(results, meta)
	}
	return results, rows.Err()
}

// GetRun returns the full run with the given id, or nil if there is none.
func (h *HistoryDB) GetRun(ctx context.Context, id string) (*model.EvaluationRun, error) {
	query := `SELECT ` + metadataColumns + `, records_json
	FROM evaluation_runs
	WHERE id = ?
	`

	var recordsJSON string
	meta, err := scanMetadata(h.db.QueryRowContext(ctx, query, id), &recordsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation run: %w", err)
	}

	run := &model.EvaluationRun{
		ID:        meta.ID,
		Dataset:   meta.Dataset,
		StartedAt: meta.StartedAt,
		Duration:  meta.Duration,
		Counts:    meta.Counts,
		Failures:  meta.Failures,
	}
	if err := json.Unmarshal([]byte(recordsJSON), &run.Records); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	return run, nil
}

// GetLatestRuns returns up to n full runs of a dataset, newest first.
func (h *HistoryDB) GetLatestRuns(ctx context.Context, dataset string, n int) ([]*model.EvaluationRun, error) {
	history, err := h.GetRunHistory(ctx, dataset)
	if err != nil {
		return nil, err
	}
	if len(history) > n {
		history = history[:n]
	}

	runs := make([]*model.EvaluationRun, 0, len(history))
	for _, meta := range history {
		run, err := h.GetRun(ctx, meta.ID)
		if err != nil {
			return nil, err
		}
		if run != nil {
			runs = append(runs, run)
		}
	}
	return runs, nil
}

// ListDatasets returns the names of all datasets with stored runs.
func (h *HistoryDB) ListDatasets(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT DISTINCT dataset FROM evaluation_runs ORDER BY dataset`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// timestampFormats contains the timestamp formats that may be stored.
var timestampFormats = []string{
	timeLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// parseTimestamp parses a stored timestamp, returning zero time when no
// format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
