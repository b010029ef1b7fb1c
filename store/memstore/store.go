// Package memstore implements an in-memory cachekeep.MetadataStore. It
// exists for unit tests that want the manager's behavior without a real
// SQL backend: a mutex-guarded map satisfying the full MetadataStore
// contract (store/get/remove/select_by_source/update_status/list/
// get_by_path).
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sagarc03/cachekeep"
)

// Store is a mutex-guarded, process-local MetadataStore. It is safe for
// concurrent use and is the backend recommended for tests that exercise
// the manager's concurrent-build collapsing behavior without the latency
// of a real database.
type Store struct {
	uri string

	mu      sync.Mutex
	nextID  int32
	records map[int32]cachekeep.FileRecord
}

// New creates an empty Store. uri is returned verbatim from URI(), useful
// for tests that assert on File.BackendURI.
func New(uri string) *Store {
	return &Store{uri: uri, records: make(map[int32]cachekeep.FileRecord)}
}

func (s *Store) URI() string { return s.uri }

type uniqueViolationError struct{ fingerprint cachekeep.Fingerprint }

func (e *uniqueViolationError) Error() string {
	return fmt.Sprintf("memstore: source already stored (fingerprint %s)", e.fingerprint)
}
func (e *uniqueViolationError) IsUniqueViolation() bool { return true }
func (e *uniqueViolationError) IsNotFound() bool        { return false }

type notFoundError struct{ detail string }

func (e *notFoundError) Error() string           { return "memstore: not found: " + e.detail }
func (e *notFoundError) IsUniqueViolation() bool { return false }
func (e *notFoundError) IsNotFound() bool        { return true }

func (s *Store) Store(_ context.Context, metadata cachekeep.FileMetadata) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp := cachekeep.FingerprintOf(metadata.Source)
	for _, r := range s.records {
		if cachekeep.FingerprintOf(r.Metadata.Source) == fp {
			return 0, &uniqueViolationError{fingerprint: fp}
		}
	}

	s.nextID++
	id := s.nextID
	s.records[id] = cachekeep.FileRecord{ID: id, Status: cachekeep.StatusPending, Metadata: metadata}
	return id, nil
}

func (s *Store) Get(_ context.Context, id int32) (cachekeep.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return cachekeep.FileRecord{}, &notFoundError{detail: fmt.Sprintf("id=%d", id)}
	}
	return r, nil
}

func (s *Store) Remove(_ context.Context, id int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}

func (s *Store) SelectBySource(_ context.Context, source cachekeep.SourceIdentifier) ([]cachekeep.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp := cachekeep.FingerprintOf(source)
	var out []cachekeep.FileRecord
	for _, r := range s.records {
		if cachekeep.FingerprintOf(r.Metadata.Source) == fp {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) UpdateStatus(_ context.Context, id int32, status cachekeep.FileStatus) (cachekeep.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return cachekeep.FileRecord{}, &notFoundError{detail: fmt.Sprintf("id=%d", id)}
	}
	r.Status = status
	s.records[id] = r
	return r, nil
}

func (s *Store) TouchLastUsed(_ context.Context, id int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return &notFoundError{detail: fmt.Sprintf("id=%d", id)}
	}
	r.Metadata.LastUsed = time.Now().UTC()
	s.records[id] = r
	return nil
}

func (s *Store) List(_ context.Context) ([]cachekeep.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]cachekeep.FileRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) GetByPath(_ context.Context, path string) (cachekeep.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.Metadata.Path == path {
			return r, nil
		}
	}
	return cachekeep.FileRecord{}, &notFoundError{detail: "path=" + path}
}

var _ cachekeep.MetadataStore = (*Store)(nil)
