package cachekeep

import "context"

// MetadataStore is the transactional contract every backend (SQLite,
// Postgres, or an in-memory test double) must satisfy. Every method takes
// a context so backends built on a connection pool can honor cancellation
// and deadlines the same way the filesystem side of the manager does.
//
// Store, UpdateStatus, and Remove each issue a single write statement, so
// each write is individually atomic; they mutate state other readers
// depend on for the single-writer guarantee. The SQL backends (store/sqlite,
// store/postgres) run every statement in autocommit mode: no explicit
// immediate or deferred transaction is opened, and UpdateStatus reads the
// updated record back with a separate query.
type MetadataStore interface {
	// URI identifies the backend connection in a way suitable for
	// embedding in a File's BackendURI field (e.g. a DSN with any
	// credentials redacted).
	URI() string

	// Store inserts a new Pending row for metadata and returns its
	// assigned ID. If a row already exists whose source maps to the same
	// fingerprint, Store must fail with an error whose
	// IsUniqueViolation() is true, never silently return the existing
	// row's ID.
	Store(ctx context.Context, metadata FileMetadata) (int32, error)

	// Get returns the record with the given ID, or an error whose
	// IsNotFound() is true if no such record exists.
	Get(ctx context.Context, id int32) (FileRecord, error)

	// Remove deletes the record with the given ID. Removing a row that
	// does not exist is not an error.
	Remove(ctx context.Context, id int32) error

	// SelectBySource returns every record whose metadata.Source
	// fingerprints to the same value as source. Because fingerprinting
	// is injective in practice and Store rejects duplicate
	// fingerprints, callers may assume the result has at most one
	// element, but backends must not assume this internally; they
	// return whatever the storage layer actually has.
	SelectBySource(ctx context.Context, source SourceIdentifier) ([]FileRecord, error)

	// UpdateStatus transitions a record's status and returns the record
	// as it stands after the transition.
	UpdateStatus(ctx context.Context, id int32, status FileStatus) (FileRecord, error)

	// TouchLastUsed advances a record's last-used timestamp to now,
	// called on every successful read-through hit.
	TouchLastUsed(ctx context.Context, id int32) error

	// List returns every record in the store regardless of status. The
	// maintenance loop and eviction-on-pressure both need to enumerate
	// every record to make their selection.
	List(ctx context.Context) ([]FileRecord, error)

	// GetByPath returns the record whose on-disk path equals path, or an
	// error whose IsNotFound() is true. Used by maintenance's
	// dangling-file prune step.
	GetByPath(ctx context.Context, path string) (FileRecord, error)
}
