package maintenance

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/cachekeep"
)

// Opts selects which maintenance steps Runner.RunOnce performs. The zero
// value runs nothing; callers opt into each step explicitly.
type Opts struct {
	FindCorrupted   bool
	RemoveCorrupted bool
	CleanExpired    bool
	PruneDangling   bool
}

// AllSteps returns an Opts with every step enabled.
func AllSteps() Opts {
	return Opts{FindCorrupted: true, RemoveCorrupted: true, CleanExpired: true, PruneDangling: true}
}

// Runner executes maintenance steps against a store's metadata and a cache
// directory. It holds no reference to a cachekeep.Manager because none of
// its steps go through the manager's single-writer ingest path; they
// operate directly on the store and filesystem.
type Runner struct {
	store  cachekeep.MetadataStore
	dir    string
	opts   Opts
	logger *slog.Logger
}

// New creates a Runner over store and dir (the cache directory) with the
// given Opts. A nil logger falls back to slog.Default().
func New(store cachekeep.MetadataStore, dir string, opts Opts, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: store, dir: dir, opts: opts, logger: logger}
}

// RunOnce runs every enabled step, in the fixed order find-corrupted,
// remove-corrupted, clean-expired, prune-dangling. A step failure is
// returned immediately; a single entry's failure within a step is logged
// and does not stop the rest of that step. Every pass gets its own
// correlation ID so its log lines can be grepped out of a long-running
// daemon's output as one unit.
func (r *Runner) RunOnce(ctx context.Context) error {
	runID := uuid.New()
	logger := r.logger.With("run_id", runID)
	logger.Info("maintenance pass starting")

	pass := *r
	pass.logger = logger

	if r.opts.FindCorrupted {
		if err := pass.FindCorruptedEntries(ctx); err != nil {
			return err
		}
	}
	if r.opts.RemoveCorrupted {
		if err := pass.RemoveCorruptedEntries(ctx); err != nil {
			return err
		}
	}
	if r.opts.CleanExpired {
		if err := pass.CleanExpiredEntries(ctx); err != nil {
			return err
		}
	}
	if r.opts.PruneDangling {
		if err := pass.PruneDanglingFiles(ctx); err != nil {
			return err
		}
	}

	logger.Info("maintenance pass complete")
	return nil
}

// RunForever calls RunOnce on every tick of interval until ctx is
// cancelled, logging (but not stopping on) a failed pass.
func (r *Runner) RunForever(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error("maintenance pass failed", "err", err)
			}
		}
	}
}

// FindCorruptedEntries scans every Ready record's cache path; any whose
// file is missing is marked Corrupted. Records in other states are skipped.
func (r *Runner) FindCorruptedEntries(ctx context.Context) error {
	records, err := r.store.List(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.Status != cachekeep.StatusReady {
			continue
		}
		if _, err := os.Stat(rec.Metadata.Path); err != nil {
			if !os.IsNotExist(err) {
				r.logger.Error("failed to stat cache file", "id", rec.ID, "path", rec.Metadata.Path, "err", err)
				continue
			}
			if _, err := r.store.UpdateStatus(ctx, rec.ID, cachekeep.StatusCorrupted); err != nil {
				r.logger.Error("failed to mark entry corrupted", "id", rec.ID, "err", err)
			}
		}
	}
	return nil
}

// RemoveCorruptedEntries deletes every Corrupted record's metadata row and,
// if present, its file. Should be called after FindCorruptedEntries when
// both are enabled, though RunOnce already orders them correctly.
func (r *Runner) RemoveCorruptedEntries(ctx context.Context) error {
	records, err := r.store.List(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.Status != cachekeep.StatusCorrupted {
			continue
		}
		if err := r.store.Remove(ctx, rec.ID); err != nil {
			r.logger.Error("failed to remove corrupted entry", "id", rec.ID, "err", err)
			continue
		}
		if err := os.Remove(rec.Metadata.Path); err != nil && !os.IsNotExist(err) {
			r.logger.Error("failed to remove corrupted file", "id", rec.ID, "path", rec.Metadata.Path, "err", err)
		}
	}
	return nil
}

// CleanExpiredEntries marks every Ready record expired under its own
// StorePolicy as ToRemove, then deletes all ToRemove records' rows and
// files in the same pass.
func (r *Runner) CleanExpiredEntries(ctx context.Context) error {
	records, err := r.store.List(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	for _, rec := range records {
		if rec.Status != cachekeep.StatusReady {
			continue
		}
		if rec.Metadata.StorePolicy.IsExpired(rec.Metadata.Created, rec.Metadata.LastUsed, now) {
			if _, err := r.store.UpdateStatus(ctx, rec.ID, cachekeep.StatusToRemove); err != nil {
				r.logger.Error("failed to mark entry to_remove", "id", rec.ID, "err", err)
			}
		}
	}

	records, err = r.store.List(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.Status != cachekeep.StatusToRemove {
			continue
		}
		if err := r.store.Remove(ctx, rec.ID); err != nil {
			r.logger.Error("failed to remove expired entry", "id", rec.ID, "err", err)
			continue
		}
		if err := os.Remove(rec.Metadata.Path); err != nil && !os.IsNotExist(err) {
			r.logger.Error("failed to remove expired file", "id", rec.ID, "path", rec.Metadata.Path, "err", err)
		}
	}
	return nil
}

// PruneDanglingFiles walks the cache directory and removes any regular
// file with no matching metadata row.
func (r *Runner) PruneDanglingFiles(ctx context.Context) error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(r.dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			r.logger.Error("failed to stat cache directory entry", "path", path, "err", err)
			continue
		}
		if !info.Mode().IsRegular() {
			r.logger.Warn("entry in cache directory is not a regular file", "path", path)
			continue
		}

		if _, err := r.store.GetByPath(ctx, path); err != nil {
			backendErr, isBackendErr := asBackendError(err)
			notFound := isBackendErr && backendErr.IsNotFound()
			if !notFound {
				r.logger.Error("failed to look up cache file in store", "path", path, "err", err)
				continue
			}
			r.logger.Info("dangling file not found in store, removing", "path", path)
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				r.logger.Error("failed to remove dangling file", "path", path, "err", rmErr)
			}
		}
	}
	return nil
}

func asBackendError(err error) (cachekeep.BackendError, bool) {
	type unwrapper interface{ Unwrap() error }
	for {
		if be, ok := err.(cachekeep.BackendError); ok {
			return be, true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
		if err == nil {
			return nil, false
		}
	}
}
