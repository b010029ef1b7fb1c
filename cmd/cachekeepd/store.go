package main

import (
	"context"
	"fmt"

	"github.com/sagarc03/cachekeep"
	"github.com/sagarc03/cachekeep/store/postgres"
	"github.com/sagarc03/cachekeep/store/sqlite"
)

// closer matches both *sqlite.Store (error-returning Close) and
// *postgres.Store (void Close) behind one call site.
type closer interface {
	closeStore() error
}

type sqliteCloser struct{ s *sqlite.Store }

func (c sqliteCloser) closeStore() error { return c.s.Close() }

type postgresCloser struct{ s *postgres.Store }

func (c postgresCloser) closeStore() error { s := c.s; s.Close(); return nil }

// openStore connects the metadata store named by cfg.Database.Type and
// returns it alongside a cleanup func.
func openStore(ctx context.Context) (cachekeep.MetadataStore, func() error, error) {
	switch cfg.Database.Type {
	case "sqlite":
		var opts []sqlite.Option
		if cfg.Database.PoolSize > 0 {
			opts = append(opts, sqlite.WithPoolSize(cfg.Database.PoolSize))
		}
		s, err := sqlite.Open(ctx, cfg.Database.DSN, opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, sqliteCloser{s}.closeStore, nil
	case "postgres":
		s, err := postgres.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, postgresCloser{s}.closeStore, nil
	default:
		return nil, nil, fmt.Errorf("unknown database type %q", cfg.Database.Type)
	}
}

func evictionPolicy() cachekeep.EvictionPolicy {
	switch cfg.Storage.EvictionPolicy {
	case "fifo":
		return cachekeep.EvictFIFO
	case "random":
		return cachekeep.EvictRandom
	default:
		return cachekeep.EvictLRU
	}
}
