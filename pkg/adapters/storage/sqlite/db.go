// Package sqlite provides a SQLite implementation of the submodel store.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Options tunes the SQLite connections opened by Open.
type Options struct {
	// BusyTimeout is how long a writer waits on a locked database.
	BusyTimeout time.Duration
	// Pragmas are run on every new connection, e.g. "synchronous = NORMAL".
	Pragmas []string
}

// DefaultOptions returns the options used by the repository service.
func DefaultOptions() Options {
	return Options{
		BusyTimeout: 5 * time.Second,
		Pragmas: []string{
			"synchronous = NORMAL",
			"temp_store = MEMORY",
		},
	}
}

// DB wraps a SQLite database connection pool.
type DB struct {
	*sql.DB
}

// connector opens connections through a driver carrying a connect hook.
type connector struct {
	driver *sqlite3.SQLiteDriver
	dsn    string
}

func (c connector) Connect(context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c connector) Driver() driver.Driver {
	return c.driver
}

// Open opens the database at file with WAL journaling and applies
// opts.Pragmas to every pooled connection.
func Open(file string, opts Options) (*DB, error) {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	if opts.BusyTimeout > 0 {
		params.Set("_busy_timeout", fmt.Sprint(opts.BusyTimeout.Milliseconds()))
	}

	pragmas := append([]string(nil), opts.Pragmas...)
	drv := &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			for _, pragma := range pragmas {
				if _, err := conn.Exec("PRAGMA "+pragma, nil); err != nil {
					return fmt.Errorf("set pragma %q: %w", pragma, err)
				}
			}
			return nil
		},
	}

	db := sql.OpenDB(connector{driver: drv, dsn: file + "?" + params.Encode()})

	// In-memory databases exist per connection.
	if file == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Migrate applies embedded migrations that have not run yet, in file name
// order, and returns how many were applied.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return 0, fmt.Errorf("create migrations table: %w", err)
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return 0, err
	}

	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return 0, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	count := 0
	for _, file := range files {
		version := strings.TrimSuffix(path.Base(file), ".sql")
		if applied[version] {
			continue
		}
		if err := db.apply(ctx, file, version); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

func (db *DB) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan migration: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// apply runs one migration file and records it in a single transaction.
func (db *DB) apply(ctx context.Context, file, version string) error {
	content, err := migrationsFS.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("execute migration %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}
