package cachekeep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// Manager is the storage manager: the adapter callers use to add files to
// and look files up in the cache. It owns the cache directory and a
// MetadataStore; it never owns an HTTP client or a fetch strategy.
type Manager struct {
	store  MetadataStore
	dir    string
	config StorageConfig
}

// Init opens a Manager over an already-migrated MetadataStore and an
// existing, absolute cache directory. Init itself performs no migrations;
// callers construct the backend (e.g. sqlite.Open) and pass it in here,
// matching this module's "backend connects and migrates itself" contract
// (see store/sqlite.Open).
func Init(store MetadataStore, dir string) (*Manager, error) {
	return InitWithConfig(store, dir, DefaultStorageConfig())
}

// InitWithConfig is Init with an explicit StorageConfig.
func InitWithConfig(store MetadataStore, dir string, config StorageConfig) (*Manager, error) {
	if !filepath.IsAbs(dir) {
		return nil, ErrStorageDirNotAbsolute
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, ErrStorageDirNotExist
	}
	return &Manager{store: store, dir: dir, config: config}, nil
}

// Config returns the manager's storage configuration.
func (m *Manager) Config() StorageConfig { return m.config }

// PathFromSource returns the on-disk path a file from source would be
// written to, without touching the store or the filesystem.
func (m *Manager) PathFromSource(source SourceIdentifier) string {
	return pathFromSource(m.dir, source)
}

// AddFileFromStream adds a new file to the cache, reading its content from
// stream. If another caller is already writing the same source, this call
// blocks (polling) until that write finishes and then returns the shared
// result instead of writing a second copy. The single-writer guarantee is
// enforced by the store's uniqueness constraint on fingerprint, not by
// any in-process lock.
//
// Created and LastUsed are both set to now. The path is whatever
// PathFromSource(source) returns.
func (m *Manager) AddFileFromStream(ctx context.Context, source SourceIdentifier, policy StorePolicy, filename string, stream io.Reader) (File, error) {
	path := m.PathFromSource(source)
	now := time.Now().UTC()
	metadata := FileMetadata{
		Source:      source,
		Filename:    filename,
		Path:        path,
		StorePolicy: policy,
		Created:     now,
		LastUsed:    now,
	}

	id, err := m.store.Store(ctx, metadata)
	if err != nil {
		var backendErr BackendError
		if errors.As(err, &backendErr) && backendErr.IsUniqueViolation() {
			return m.awaitExisting(ctx, source)
		}
		return File{}, fmt.Errorf("cachekeep: store metadata: %w", err)
	}

	record, writeErr := m.writeAndFinalize(ctx, id, path, stream)
	if writeErr != nil {
		if evicted, retryErr := m.tryEvictAndRetry(ctx, writeErr, id, path, stream); retryErr == nil {
			record = evicted
		} else {
			m.revert(ctx, id, path)
			return File{}, retryErr
		}
	}

	return File{BackendURI: m.store.URI(), Record: record}, nil
}

// writeAndFinalize performs the actual disk write for a Pending record and
// transitions it to Ready on success. It never cleans up on failure;
// AddFileFromStream's caller decides whether to revert or retry after
// eviction.
func (m *Manager) writeAndFinalize(ctx context.Context, id int32, path string, stream io.Reader) (FileRecord, error) {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return FileRecord{}, fmt.Errorf("cachekeep: create cache file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, &ctxReader{ctx: ctx, r: stream}); err != nil {
		return FileRecord{}, fmt.Errorf("cachekeep: write cache file: %w", err)
	}
	if err := out.Sync(); err != nil {
		return FileRecord{}, fmt.Errorf("cachekeep: sync cache file: %w", err)
	}

	record, err := m.store.UpdateStatus(ctx, id, StatusReady)
	if err != nil {
		return FileRecord{}, fmt.Errorf("cachekeep: mark ready: %w", err)
	}
	return record, nil
}

// revert undoes a failed ingest: remove whatever got written to disk (if
// anything did) and remove the Pending metadata row.
func (m *Manager) revert(ctx context.Context, id int32, path string) {
	_ = os.Remove(path)
	_ = m.store.Remove(ctx, id)
}

// awaitExisting polls the store for the record a concurrent builder is
// producing, blocking until it reaches Ready (success) or fails outright
// (ErrAwaiting). A status this loop doesn't expect to see is surfaced as
// an error rather than a panic, since a library must never panic on a
// condition outside its control. Collapsing onto an already-Ready record
// still counts as a hit for that source, so it advances LastUsed the same
// way Open does.
func (m *Manager) awaitExisting(ctx context.Context, source SourceIdentifier) (File, error) {
	for {
		if err := ctx.Err(); err != nil {
			return File{}, err
		}
		record, err := m.FindBySource(ctx, source)
		if err != nil {
			return File{}, fmt.Errorf("cachekeep: await existing: %w", err)
		}
		if record == nil {
			return File{}, ErrAwaiting
		}
		switch record.Status {
		case StatusReady:
			if err := m.store.TouchLastUsed(ctx, record.ID); err != nil {
				return File{}, fmt.Errorf("cachekeep: touch last used: %w", err)
			}
			return File{BackendURI: m.store.URI(), Record: *record}, nil
		case StatusPending:
			select {
			case <-ctx.Done():
				return File{}, ctx.Err()
			case <-time.After(pendingPollInterval):
			}
		default:
			return File{}, ErrAwaiting
		}
	}
}

// CopyLocalFile adds a new file to the cache by copying it from a local
// path. As with AddFileFromStream, re-calling this for a source whose
// fingerprint already exists in the store does not update the stored
// file, even if the local file's content has since changed: sources are
// unique in the store.
func (m *Manager) CopyLocalFile(ctx context.Context, source SourceIdentifier, policy StorePolicy, filename string, localPath string) (File, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return File{}, fmt.Errorf("cachekeep: open local file: %w", err)
	}
	defer f.Close()
	return m.AddFileFromStream(ctx, source, policy, filename, f)
}

// FindBySource looks a file up by its source without creating one. It
// returns a nil *FileRecord (not an error) when nothing matches.
func (m *Manager) FindBySource(ctx context.Context, source SourceIdentifier) (*FileRecord, error) {
	records, err := m.store.SelectBySource(ctx, source)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	// Because of how PathFromSource works, sources are also expected to
	// be unique; a backend that somehow returns more than one is a bug
	// in that backend, not something the manager tries to paper over.
	return &records[0], nil
}

// Open opens a Ready file's content for reading and advances its
// last-used timestamp. Returns ErrAwaiting if the record exists but is
// not Ready, and ErrNotFound if no record matches source at all.
func (m *Manager) Open(ctx context.Context, source SourceIdentifier) (io.ReadCloser, File, error) {
	record, err := m.FindBySource(ctx, source)
	if err != nil {
		return nil, File{}, err
	}
	if record == nil {
		return nil, File{}, ErrNotFound
	}
	if record.Status != StatusReady {
		return nil, File{}, ErrAwaiting
	}

	f, err := os.Open(record.Metadata.Path)
	if err != nil {
		return nil, File{}, fmt.Errorf("cachekeep: open cached file: %w", err)
	}
	if err := m.store.TouchLastUsed(ctx, record.ID); err != nil {
		f.Close()
		return nil, File{}, fmt.Errorf("cachekeep: touch last used: %w", err)
	}
	return f, File{BackendURI: m.store.URI(), Record: *record}, nil
}

// tryEvictAndRetry inspects writeErr for ENOSPC; if found, it runs one
// eviction pass via the configured EvictionPolicy and retries the write
// exactly once. Any other error is returned unchanged; a failed eviction
// (wrapping ErrNoSpace when nothing is left to evict) or a retry that still
// fails returns its own error. In every failure case the caller reverts.
func (m *Manager) tryEvictAndRetry(ctx context.Context, writeErr error, id int32, path string, stream io.Reader) (FileRecord, error) {
	var pathErr *fs.PathError
	if !errors.As(writeErr, &pathErr) || !errors.Is(pathErr.Err, syscall.ENOSPC) {
		return FileRecord{}, writeErr
	}

	if err := m.evictOne(ctx); err != nil {
		return FileRecord{}, fmt.Errorf("cachekeep: evict for space: %w", err)
	}

	_ = os.Remove(path) // the failed attempt may have left a partial file
	return m.writeAndFinalize(ctx, id, path, stream)
}

// evictOne removes exactly one Ready record (and its on-disk file) chosen
// by the manager's configured EvictionPolicy. It is invoked only when a
// write fails with ENOSPC; eviction never runs proactively, since cache
// size is intentionally unbounded.
func (m *Manager) evictOne(ctx context.Context) error {
	records, err := m.store.List(ctx)
	if err != nil {
		return err
	}

	candidate, ok := m.chooseEvictionCandidate(records)
	if !ok {
		return ErrNoSpace
	}

	if err := os.Remove(candidate.Metadata.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return m.store.Remove(ctx, candidate.ID)
}

func (m *Manager) chooseEvictionCandidate(records []FileRecord) (FileRecord, bool) {
	var ready []FileRecord
	for _, r := range records {
		if r.Status == StatusReady {
			ready = append(ready, r)
		}
	}
	if len(ready) == 0 {
		return FileRecord{}, false
	}

	switch m.config.EvictionPolicy {
	case EvictFIFO:
		best := ready[0]
		for _, r := range ready[1:] {
			if r.Metadata.Created.Before(best.Metadata.Created) {
				best = r
			}
		}
		return best, true
	case EvictRandom:
		return ready[rand.IntN(len(ready))], true
	case EvictLRU:
		fallthrough
	default:
		best := ready[0]
		for _, r := range ready[1:] {
			if r.Metadata.LastUsed.Before(best.Metadata.LastUsed) {
				best = r
			}
		}
		return best, true
	}
}

// ctxReader wraps an io.Reader so that Read returns early once ctx is
// done, letting a long write respect cancellation mid-copy.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
