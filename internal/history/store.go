// Package history keeps a queryable record of past runs in a SQL database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"vdt/internal/domain"
)

// RunSummary is one row of the run history
type RunSummary struct {
	RunID           string
	Project         string
	Status          string
	Error           string
	Shards          int
	Cases           int
	Passed          int
	Failed          int
	DurationSeconds float64
	StartedAt       string
}

// Store reads and writes run history
type Store struct {
	db *sql.DB
}

// Open connects to the history database. Supported drivers are sqlite3 and mysql.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite3", "mysql":
	default:
		return nil, &domain.ConfigurationError{Subject: "history.driver", Reason: fmt.Sprintf("unsupported driver %q", driver)}
	}

	if driver == "sqlite3" && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if driver == "sqlite3" {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}
	return NewStore(db), nil
}

// NewStore wraps an open database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a run and its instances in one transaction
func (s *Store) RecordRun(ctx context.Context, report *domain.RunReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	passed, failed := 0, 0
	summaries := make([]domain.TestSummary, len(report.Instances))
	for i, inst := range report.Instances {
		summaries[i] = inst.Summary()
		passed += summaries[i].Passed
		failed += summaries[i].Failed
	}

	m := report.Meta
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, project, status, error, shards, cases, passed, failed, duration_seconds, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.RunID, m.Project, m.Status, m.Error, m.Shards, m.Cases, passed, failed, m.DurationSeconds, m.StartedAt, m.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", m.RunID, err)
	}

	for i, inst := range report.Instances {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_instances (run_id, instance_id, shard_index, case_count, install_error, passed, failed, crashed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.RunID, inst.InstanceID, inst.ShardIndex, inst.CaseCount, inst.InstallError,
			summaries[i].Passed, summaries[i].Failed, summaries[i].Crashed)
		if err != nil {
			return fmt.Errorf("failed to insert instance %s: %w", inst.InstanceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", m.RunID, err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, project, status, error, shards, cases, passed, failed, duration_seconds, started_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.Project, &r.Status, &r.Error, &r.Shards, &r.Cases,
			&r.Passed, &r.Failed, &r.DurationSeconds, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
