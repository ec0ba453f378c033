// Package sqlite provides the SQLite flavour of the SQL contact and
// account store, using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rbaliyan/groupware/store/sqlstore"
)

// Memory is the DSN of a private in-memory database.
const Memory = ":memory:"

// Dialect describes SQLite to sqlstore.
var Dialect = sqlstore.Dialect{
	Name:    "SQLite",
	Text:    "TEXT",
	Integer: "INTEGER",
	BigInt:  "INTEGER",
	Bool:    "BOOLEAN",
	Bytes:   "BLOB",
	JSON:    "TEXT",
	IsUniqueViolation: func(err error) bool {
		var e *sqlite.Error
		if errors.As(err, &e) {
			code := e.Code()
			return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
		}
		return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
	},
}

// New creates a SQLite store on db. Call Connect() to create the schema.
func New(db *sqlx.DB, opts ...sqlstore.Option) *sqlstore.Store {
	return sqlstore.New(db, Dialect, opts...)
}

// Open opens the database file at path, or a private in-memory database
// for Memory, and returns the store.
func Open(ctx context.Context, path string, opts ...sqlstore.Option) (*sqlstore.Store, error) {
	dsn := path
	if path != Memory {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	// SQLite serialises writers; one connection also keeps an in-memory
	// database alive and shared.
	db.SetMaxOpenConns(1)
	return New(db, opts...), nil
}
