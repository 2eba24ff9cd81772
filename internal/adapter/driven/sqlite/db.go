// Package sqlite implements the persistence ports on SQLite.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// connPragmas are applied to every connection through the DSN. WAL lets
// history reads proceed while a sweep is writing; foreign keys back the
// organizations -> snapshots delete cascade.
var connPragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
	"cache_size(-64000)",
}

// readerPoolSize bounds concurrent history reads. All writes funnel through
// the single sweep loop, so the writer keeps exactly one connection; extra
// writer connections are what produce "database is locked" errors, readers
// are not.
const readerPoolSize = 4

// DB pairs a single-connection writer with a small reader pool over the same
// SQLite database.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
}

func dsnFor(path string) string {
	var b strings.Builder
	b.WriteString("file:")
	b.WriteString(path)
	sep := "?"
	for _, pragma := range connPragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(pragma)
		sep = "&"
	}
	return b.String()
}

// NewDB opens the database at path, creating the file if needed.
func NewDB(path string) (*DB, error) {
	dsn := dsnFor(path)

	writer, err := openPool(dsn, 1)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}

	reader, err := openPool(dsn, readerPoolSize)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}

	return &DB{Writer: writer, Reader: reader}, nil
}

func openPool(dsn string, maxConns int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(maxConns)

	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Close closes both pools, reader first. Returns the first error encountered.
func (db *DB) Close() error {
	var firstErr error

	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}
	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	return firstErr
}
