package maintenance_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sagarc03/cachekeep"
	"github.com/sagarc03/cachekeep/maintenance"
	"github.com/sagarc03/cachekeep/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFindCorruptedEntriesMarksMissingFileCorrupted(t *testing.T) {
	dir := t.TempDir()
	store := memstore.New("memstore://x")
	ctx := context.Background()

	source := cachekeep.NewCustomSource("gone")
	path := filepath.Join(dir, string(cachekeep.FingerprintOf(source)))
	id, err := store.Store(ctx, cachekeep.FileMetadata{Source: source, Path: path, StorePolicy: cachekeep.StoreForever(), Created: time.Now(), LastUsed: time.Now()})
	require.NoError(t, err)
	_, err = store.UpdateStatus(ctx, id, cachekeep.StatusReady)
	require.NoError(t, err)
	// deliberately never write the file: it should be found corrupted

	runner := maintenance.New(store, dir, maintenance.Opts{FindCorrupted: true}, nil)
	require.NoError(t, runner.RunOnce(ctx))

	record, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, cachekeep.StatusCorrupted, record.Status)
}

func TestRemoveCorruptedEntriesDeletesRowAndFile(t *testing.T) {
	dir := t.TempDir()
	store := memstore.New("memstore://x")
	ctx := context.Background()

	source := cachekeep.NewCustomSource("corrupted")
	path := filepath.Join(dir, string(cachekeep.FingerprintOf(source)))
	writeFile(t, path, "stale")
	id, err := store.Store(ctx, cachekeep.FileMetadata{Source: source, Path: path, StorePolicy: cachekeep.StoreForever(), Created: time.Now(), LastUsed: time.Now()})
	require.NoError(t, err)
	_, err = store.UpdateStatus(ctx, id, cachekeep.StatusCorrupted)
	require.NoError(t, err)

	runner := maintenance.New(store, dir, maintenance.Opts{RemoveCorrupted: true}, nil)
	require.NoError(t, runner.RunOnce(ctx))

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleanExpiredEntriesRemovesExpiredReadyFiles(t *testing.T) {
	dir := t.TempDir()
	store := memstore.New("memstore://x")
	ctx := context.Background()

	source := cachekeep.NewCustomSource("expired")
	path := filepath.Join(dir, string(cachekeep.FingerprintOf(source)))
	writeFile(t, path, "old")

	id, err := store.Store(ctx, cachekeep.FileMetadata{
		Source:      source,
		Path:        path,
		StorePolicy: cachekeep.ExpiresAfter(time.Millisecond),
		Created:     time.Now().Add(-time.Hour),
		LastUsed:    time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = store.UpdateStatus(ctx, id, cachekeep.StatusReady)
	require.NoError(t, err)

	runner := maintenance.New(store, dir, maintenance.Opts{CleanExpired: true}, nil)
	require.NoError(t, runner.RunOnce(ctx))

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleanExpiredEntriesKeepsUnexpiredFiles(t *testing.T) {
	dir := t.TempDir()
	store := memstore.New("memstore://x")
	ctx := context.Background()

	source := cachekeep.NewCustomSource("fresh")
	path := filepath.Join(dir, string(cachekeep.FingerprintOf(source)))
	writeFile(t, path, "new")

	id, err := store.Store(ctx, cachekeep.FileMetadata{
		Source:      source,
		Path:        path,
		StorePolicy: cachekeep.ExpiresAfter(time.Hour),
		Created:     time.Now(),
		LastUsed:    time.Now(),
	})
	require.NoError(t, err)
	_, err = store.UpdateStatus(ctx, id, cachekeep.StatusReady)
	require.NoError(t, err)

	runner := maintenance.New(store, dir, maintenance.Opts{CleanExpired: true}, nil)
	require.NoError(t, runner.RunOnce(ctx))

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestPruneDanglingFilesRemovesFilesNotInStore(t *testing.T) {
	dir := t.TempDir()
	store := memstore.New("memstore://x")
	ctx := context.Background()

	danglingPath := filepath.Join(dir, "dangling")
	writeFile(t, danglingPath, "nobody owns me")

	runner := maintenance.New(store, dir, maintenance.Opts{PruneDangling: true}, nil)
	require.NoError(t, runner.RunOnce(ctx))

	_, statErr := os.Stat(danglingPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPruneDanglingFilesKeepsKnownFiles(t *testing.T) {
	dir := t.TempDir()
	store := memstore.New("memstore://x")
	ctx := context.Background()

	source := cachekeep.NewCustomSource("known")
	path := filepath.Join(dir, string(cachekeep.FingerprintOf(source)))
	writeFile(t, path, "keep me")
	_, err := store.Store(ctx, cachekeep.FileMetadata{Source: source, Path: path, StorePolicy: cachekeep.StoreForever(), Created: time.Now(), LastUsed: time.Now()})
	require.NoError(t, err)

	runner := maintenance.New(store, dir, maintenance.Opts{PruneDangling: true}, nil)
	require.NoError(t, runner.RunOnce(ctx))

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestRunOnceSkipsDisabledSteps(t *testing.T) {
	dir := t.TempDir()
	store := memstore.New("memstore://x")
	ctx := context.Background()

	danglingPath := filepath.Join(dir, "untouched")
	writeFile(t, danglingPath, "should survive")

	runner := maintenance.New(store, dir, maintenance.Opts{}, nil)
	require.NoError(t, runner.RunOnce(ctx))

	_, statErr := os.Stat(danglingPath)
	assert.NoError(t, statErr, "disabled steps must not touch the directory")
}
