package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/msomdec/gadget-registry/internal/repository/sqlite/migrations"
)

// DB owns the connection pool and hands out repositories bound to it.
type DB struct {
	SqlDB  *sql.DB
	logger *slog.Logger

	users   *UserRepository
	gadgets *GadgetRepository
}

// New opens a SQLite database at the given path and configures it for use.
// Every connection gets WAL mode, foreign keys, a busy timeout and the
// sqlite time format via the DSN.
func New(dbPath string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_time_format", "sqlite")

	sqlDB, err := sql.Open("sqlite", dbPath+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY churn.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{SqlDB: sqlDB, logger: logger}
	db.users = &UserRepository{db: sqlDB}
	db.gadgets = &GadgetRepository{db: sqlDB}
	return db, nil
}

// Migrate applies pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := migrations.Run(ctx, db.SqlDB, db.logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.SqlDB.PingContext(ctx)
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.SqlDB.Close()
}

// Users returns the user repository bound to db.
func (db *DB) Users() *UserRepository {
	return db.users
}

// Gadgets returns the gadget repository bound to db.
func (db *DB) Gadgets() *GadgetRepository {
	return db.gadgets
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// Primary result code only, when extended codes are not reported.
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}
