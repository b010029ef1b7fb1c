package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sagarc03/cachekeep"
	"github.com/sagarc03/cachekeep/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	store, err := sqlite.Open(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newMetadata(source cachekeep.SourceIdentifier) cachekeep.FileMetadata {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return cachekeep.FileMetadata{
		Source:      source,
		Path:        "/var/cache/cachekeep/" + string(cachekeep.FingerprintOf(source)),
		StorePolicy: cachekeep.ExpiresAfter(time.Hour),
		Created:     now,
		LastUsed:    now,
	}
}

func TestSqliteStoreGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	source := cachekeep.NewCustomSource("round-trip")
	metadata := newMetadata(source)

	id, err := store.Store(ctx, metadata)
	require.NoError(t, err)

	record, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, cachekeep.StatusPending, record.Status)
	assert.Equal(t, metadata.Path, record.Metadata.Path)
	assert.Equal(t, metadata.StorePolicy, record.Metadata.StorePolicy)
	assert.WithinDuration(t, metadata.Created, record.Metadata.Created, time.Millisecond)
}

func TestSqliteStoreRejectsDuplicateFingerprint(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	source := cachekeep.NewCustomSource("dup")

	_, err := store.Store(ctx, newMetadata(source))
	require.NoError(t, err)

	_, err = store.Store(ctx, newMetadata(source))
	require.Error(t, err)

	var backendErr cachekeep.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.True(t, backendErr.IsUniqueViolation())
}

func TestSqliteStoreUpdateStatusAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id, err := store.Store(ctx, newMetadata(cachekeep.NewCustomSource("status")))
	require.NoError(t, err)

	record, err := store.UpdateStatus(ctx, id, cachekeep.StatusReady)
	require.NoError(t, err)
	assert.Equal(t, cachekeep.StatusReady, record.Status)
}

func TestSqliteStoreUpdateStatusNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.UpdateStatus(context.Background(), 9999, cachekeep.StatusReady)

	var backendErr cachekeep.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.True(t, backendErr.IsNotFound())
}

func TestSqliteStoreListReturnsEveryRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Store(ctx, newMetadata(cachekeep.NewCustomSource("one")))
	require.NoError(t, err)
	_, err = store.Store(ctx, newMetadata(cachekeep.NewCustomSource("two")))
	require.NoError(t, err)

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSqliteStoreTouchLastUsedAdvancesTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id, err := store.Store(ctx, newMetadata(cachekeep.NewCustomSource("touch")))
	require.NoError(t, err)

	before, err := store.Get(ctx, id)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.TouchLastUsed(ctx, id))

	after, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, after.Metadata.LastUsed.After(before.Metadata.LastUsed))
}

func TestSqliteStoreGetByPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	metadata := newMetadata(cachekeep.NewCustomSource("by-path"))

	_, err := store.Store(ctx, metadata)
	require.NoError(t, err)

	record, err := store.GetByPath(ctx, metadata.Path)
	require.NoError(t, err)
	assert.Equal(t, metadata.Path, record.Metadata.Path)
}
