package sqlite

import (
	"net/url"
	"testing"
)

// setupTestDB opens a migrated, test-scoped in-memory database. Writer and
// reader pools point at the same cache=shared memory database, named after
// the test (percent-encoded so subtest slashes cannot leak into the DSN) so
// parallel tests never share state. In-memory databases have no WAL, so the
// DSN carries only the behavioral pragmas.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := "file:" + url.PathEscape(t.Name()) +
		"?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"

	writer, err := openPool(dsn, 1)
	if err != nil {
		t.Fatalf("open test writer: %v", err)
	}

	reader, err := openPool(dsn, readerPoolSize)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("open test reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader}
	t.Cleanup(func() { _ = db.Close() })

	if err := RunMigrations(db.Writer); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}
