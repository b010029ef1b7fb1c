// Package sqlite implements cachekeep.MetadataStore on top of
// modernc.org/sqlite, a pure-Go SQLite driver. Connection setup (WAL,
// synchronous=NORMAL, busy_timeout) applies with a bounded retry loop,
// since pragma application can transiently fail under lock contention.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	_ "modernc.org/sqlite"
)

const (
	busyTimeout  = 10 * time.Second
	retryTimes   = 3
	retryBackoff = 100 * time.Millisecond
)

type pragma struct {
	sql  string
	desc string
}

// Store is a cachekeep.MetadataStore backed by a single SQLite database
// file. Store is safe for concurrent use; concurrency is bounded by the
// connection pool, not by an in-process mutex.
type Store struct {
	db  *sql.DB
	uri string
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	poolSize int
}

// WithPoolSize overrides the default connection pool size (cpu_count * 4).
func WithPoolSize(n int) Option {
	return func(o *openOptions) { o.poolSize = n }
}

// Open opens (creating if necessary) a SQLite database at path, applies
// the WAL/synchronous/busy_timeout pragma sequence with retry, runs
// embedded migrations, and returns a ready-to-use Store.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	o := openOptions{poolSize: runtime.NumCPU() * 4}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(o.poolSize)

	if err := setPragmasWithRetry(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, uri: path}, nil
}

// setPragmasWithRetry applies the WAL/synchronous/busy_timeout pragma
// sequence, retrying up to retryTimes on failure. A freshly created
// database file can transiently fail the first pragma application under
// concurrent open, so this retries rather than failing the whole
// connection.
func setPragmasWithRetry(ctx context.Context, db *sql.DB) error {
	pragmas := []pragma{
		{"PRAGMA journal_mode = WAL", "enable WAL journal mode"},
		{"PRAGMA synchronous = NORMAL", "relax fsync to NORMAL under WAL"},
		{fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()), "set busy timeout"},
	}

	var lastErr error
	for attempt := 0; attempt <= retryTimes; attempt++ {
		lastErr = applyPragmas(ctx, db, pragmas)
		if lastErr == nil {
			return nil
		}
		slog.Warn("sqlite: pragma setup failed, retrying", "attempt", attempt+1, "err", lastErr)
		time.Sleep(retryBackoff)
	}
	return fmt.Errorf("sqlite: pragma setup failed after %d attempts: %w", retryTimes+1, lastErr)
}

func applyPragmas(ctx context.Context, db *sql.DB, pragmas []pragma) error {
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p.sql); err != nil {
			return fmt.Errorf("%s: %w", p.desc, err)
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }
