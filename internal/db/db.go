package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when a lookup by id or name matches no row
	ErrNotFound = errors.New("not found")
	// ErrNameRequired is returned when a required name is blank
	ErrNameRequired = errors.New("name is required")
	// ErrTooLong is returned when a field exceeds its maximum length
	ErrTooLong = errors.New("value too long")
)

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps the database connection. A DB obtained inside Tx routes every
// statement through the transaction.
type DB struct {
	sqlDB *sql.DB
	q     queryer
	log   zerolog.Logger
	path  string
	now   func() time.Time

	inTx    bool
	orphans []string // attachment files to remove once the transaction commits
}

// Open opens (creating if needed) the database at path and applies pending
// migrations. Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string, logger zerolog.Logger) (*DB, error) {
	var dsn string
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps :memory: coherent
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{
		sqlDB: sqlDB,
		q:     sqlDB,
		log:   logger.With().Str("component", "db").Logger(),
		path:  path,
		now:   time.Now,
	}

	if err := db.ApplyMigrations(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return db, nil
}

// Close closes the underlying connection pool
func (db *DB) Close() error {
	return db.sqlDB.Close()
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// SetClock replaces the time source used for created/executed timestamps
func (db *DB) SetClock(now func() time.Time) {
	db.now = now
}

func (db *DB) timestamp() time.Time {
	return db.now().UTC()
}

// Tx runs fn inside one transaction. Nested calls join the outer transaction.
// Attachment files orphaned by cascading deletes are removed after commit.
func (db *DB) Tx(ctx context.Context, fn func(tx *DB) error) error {
	if db.inTx {
		return fn(db)
	}

	sqlTx, err := db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback() // no-op after commit

	txdb := &DB{
		sqlDB: db.sqlDB,
		q:     sqlTx,
		log:   db.log,
		path:  db.path,
		now:   db.now,
		inTx:  true,
	}
	if err := fn(txdb); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	db.removeFiles(txdb.orphans)
	return nil
}

// removeFiles deletes files best-effort; failures are logged
func (db *DB) removeFiles(paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			db.log.Warn().Err(err).Str("path", p).Msg("remove attachment file")
		}
	}
}

// GetSetting retrieves a setting value by key
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := db.q.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting sets a setting value
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.q.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func notFound(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func checkLen(field, value string, limit int) error {
	if len([]rune(value)) > limit {
		return fmt.Errorf("%s exceeds %d characters: %w", field, limit, ErrTooLong)
	}
	return nil
}
