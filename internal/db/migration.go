package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	SQL         string
	// Columns are added idempotently before SQL runs
	Columns []ColumnAddition
}

// ColumnAddition describes an ALTER TABLE ADD COLUMN applied only when missing
type ColumnAddition struct {
	Table      string
	Column     string
	Definition string
}

// migrations is the ordered list of all database migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS projects (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    is_archived INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL REFERENCES projects(id),
    name TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_categories_project ON categories(project_id);

CREATE TABLE IF NOT EXISTS tests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    category_id INTEGER NOT NULL REFERENCES categories(id),
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    command TEXT NOT NULL DEFAULT '',
    expected_result TEXT NOT NULL DEFAULT '',
    prep_steps TEXT NOT NULL DEFAULT '',
    priority INTEGER NOT NULL DEFAULT 1,
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_tests_category ON tests(category_id);

CREATE TABLE IF NOT EXISTS test_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL REFERENCES projects(id),
    major INTEGER NOT NULL DEFAULT 1,
    minor INTEGER NOT NULL DEFAULT 0,
    patch INTEGER NOT NULL DEFAULT 0,
    build_version TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    notes TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_test_runs_project ON test_runs(project_id, created_at DESC);

CREATE TABLE IF NOT EXISTS test_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    test_run_id INTEGER NOT NULL REFERENCES test_runs(id),
    test_id INTEGER NOT NULL REFERENCES tests(id),
    status INTEGER NOT NULL DEFAULT 0,
    notes TEXT NOT NULL DEFAULT '',
    executed_at TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_test_results_run_test ON test_results(test_run_id, test_id);

CREATE TABLE IF NOT EXISTS attachments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    test_result_id INTEGER NOT NULL REFERENCES test_results(id),
    file_name TEXT NOT NULL,
    file_path TEXT NOT NULL,
    content_type TEXT NOT NULL DEFAULT 'application/octet-stream',
    file_size INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_attachments_result ON attachments(test_result_id);

CREATE TABLE IF NOT EXISTS failure_templates (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`,
	},
	{
		Version:     2,
		Description: "Add automated flag to tests",
		Columns: []ColumnAddition{
			{Table: "tests", Column: "is_automated", Definition: "INTEGER NOT NULL DEFAULT 0"},
		},
	},
	{
		Version:     3,
		Description: "Seed default failure templates",
		SQL: `
INSERT INTO failure_templates (name, description, sort_order)
SELECT name, description, sort_order FROM (
    SELECT 'Timeout' AS name, 'Operation timed out' AS description, 1 AS sort_order
    UNION ALL SELECT 'Crash', 'Application crashed', 2
    UNION ALL SELECT 'Wrong Output', 'Output did not match expected result', 3
    UNION ALL SELECT 'Connection Failed', 'Failed to establish connection', 4
    UNION ALL SELECT 'Permission Denied', 'Insufficient permissions', 5
    UNION ALL SELECT 'File Not Found', 'Required file was not found', 6
    UNION ALL SELECT 'Exception Thrown', 'Unhandled exception occurred', 7
    UNION ALL SELECT 'Memory Error', 'Out of memory or memory corruption', 8
)
WHERE NOT EXISTS (SELECT 1 FROM failure_templates);
`,
	},
	{
		Version:     4,
		Description: "Index results by test for prior-result lookups",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_test_results_test ON test_results(test_id);
`,
	},
}

// Migrations returns a copy of the ordered migration list
func Migrations() []Migration {
	out := make([]Migration, len(migrations))
	copy(out, migrations)
	return out
}

// MigrationVersion represents a record of an applied migration
type MigrationVersion struct {
	Version   int
	AppliedAt time.Time
}

// ApplyMigrations applies all pending migrations inside one transaction
func (db *DB) ApplyMigrations(ctx context.Context) error {
	return db.Tx(ctx, func(tx *DB) error {
		if err := tx.ensureSchemaVersionTable(ctx); err != nil {
			return fmt.Errorf("ensure schema_version table: %w", err)
		}

		appliedVersions, err := tx.GetAppliedVersions(ctx)
		if err != nil {
			return fmt.Errorf("get applied versions: %w", err)
		}
		applied := make(map[int]bool)
		for _, v := range appliedVersions {
			applied[v.Version] = true
		}

		for _, migration := range migrations {
			if applied[migration.Version] {
				continue
			}

			for _, col := range migration.Columns {
				if err := tx.addColumnIfNotExists(ctx, col.Table, col.Column, col.Definition); err != nil {
					return fmt.Errorf("apply migration %d (%s): %w", migration.Version, migration.Description, err)
				}
			}

			if migration.SQL != "" {
				if _, err := tx.q.ExecContext(ctx, migration.SQL); err != nil {
					return fmt.Errorf("apply migration %d (%s): %w", migration.Version, migration.Description, err)
				}
			}

			if _, err := tx.q.ExecContext(ctx,
				"INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
				migration.Version, tx.timestamp()); err != nil {
				return fmt.Errorf("record migration %d: %w", migration.Version, err)
			}
			tx.log.Debug().Int("version", migration.Version).Str("description", migration.Description).Msg("applied migration")
		}
		return nil
	})
}

func (db *DB) ensureSchemaVersionTable(ctx context.Context) error {
	_, err := db.q.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`)
	return err
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
// SQLite has no ADD COLUMN IF NOT EXISTS, so PRAGMA table_info is checked first.
func (db *DB) addColumnIfNotExists(ctx context.Context, table, column, definition string) error {
	exists, err := db.columnExists(ctx, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	alterSQL := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)
	if _, err := db.q.ExecContext(ctx, alterSQL); err != nil {
		if strings.Contains(err.Error(), "duplicate column name") {
			return nil
		}
		return fmt.Errorf("alter table: %w", err)
	}
	return nil
}

func (db *DB) columnExists(ctx context.Context, table, column string) (bool, error) {
	rows, err := db.q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("query table info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("scan table info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// GetAppliedVersions retrieves all applied migration versions
func (db *DB) GetAppliedVersions(ctx context.Context) ([]MigrationVersion, error) {
	rows, err := db.q.QueryContext(ctx, `SELECT version, applied_at FROM schema_version ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("query schema versions: %w", err)
	}
	defer rows.Close()

	var versions []MigrationVersion
	for rows.Next() {
		var v MigrationVersion
		if err := rows.Scan(&v.Version, &v.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan schema version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// GetLatestVersion returns the highest applied migration version, 0 if none
func (db *DB) GetLatestVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	if err := db.q.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("query latest version: %w", err)
	}
	return int(version.Int64), nil
}

// tableExists reports whether a table with the given name exists
func (db *DB) tableExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := db.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
