package history

import (
	"context"
	"fmt"
)

// migration is one schema change, applied once in version order
type migration struct {
	version    int
	statements []string
}

// Statements are portable between sqlite and mysql
var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS runs (
				run_id VARCHAR(64) NOT NULL PRIMARY KEY,
				project VARCHAR(255) NOT NULL,
				status VARCHAR(32) NOT NULL,
				error TEXT NOT NULL,
				shards INTEGER NOT NULL,
				cases INTEGER NOT NULL,
				duration_seconds DOUBLE NOT NULL,
				started_at VARCHAR(64) NOT NULL,
				finished_at VARCHAR(64) NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS run_instances (
				run_id VARCHAR(64) NOT NULL,
				instance_id VARCHAR(128) NOT NULL,
				shard_index INTEGER NOT NULL,
				case_count INTEGER NOT NULL,
				install_error TEXT NOT NULL,
				PRIMARY KEY (run_id, instance_id)
			)`,
		},
	},
	{
		version: 2,
		statements: []string{
			`ALTER TABLE runs ADD COLUMN passed INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE runs ADD COLUMN failed INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE run_instances ADD COLUMN passed INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE run_instances ADD COLUMN failed INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE run_instances ADD COLUMN crashed BOOLEAN NOT NULL DEFAULT FALSE`,
		},
	},
}

// Migrate brings the schema up to date and returns how many migrations ran
func (s *Store) Migrate(ctx context.Context) (int, error) {
	if _, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL PRIMARY KEY)`); err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %d: %w", m.version, err)
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
		return fmt.Errorf("migration %d: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d: %w", m.version, err)
	}
	return nil
}
