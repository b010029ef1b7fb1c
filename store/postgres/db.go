// Package postgres implements cachekeep.MetadataStore on top of
// jackc/pgx/v5's pgxpool. Open connects, pings, and applies the embedded
// migrations in one call rather than requiring a separately-run migration
// step; the resulting schema is not validated separately.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store is a cachekeep.MetadataStore backed by a Postgres database
// reachable through a pgxpool connection pool.
type Store struct {
	pool *pgxpool.Pool
	uri  string
}

// Open connects to dsn via pgxpool, applies embedded migrations, and
// returns a ready-to-use Store. Pool sizing is left to pgxpool's own
// defaults (derived from the DSN's pool_max_conns, or runtime.NumCPU()
// otherwise) rather than reimplementing cpu_count*4 a second time: that
// sizing rule belongs to store/sqlite, where there is no pool library
// supplying it already. The Store's URI is dsn with the password of a
// URL-form DSN redacted; a key=value DSN is kept unchanged.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	uri := dsn
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		uri = u.Redacted()
	}
	return &Store{pool: pool, uri: uri}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("postgres: read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin migration tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, name := range names {
		content, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("postgres: read migration %s: %w", name, err)
		}
		if _, err := tx.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("postgres: apply migration %s: %w", name, err)
		}
	}

	return tx.Commit(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }
