package cachekeep

import "time"

// FileMetadata is the portion of a cache entry's state that a caller
// supplies or that evolves independently of the storage backend's own
// identity scheme.
type FileMetadata struct {
	Source      SourceIdentifier
	Filename    string // optional hint, stored verbatim, never interpreted
	Path        string // on-disk path, derived via pathFromSource
	StorePolicy StorePolicy
	Created     time.Time
	LastUsed    time.Time
}

// FileRecord is a metadata row as the store sees it: an identity plus the
// fields a backend is responsible for persisting and returning unchanged.
type FileRecord struct {
	ID       int32
	Status   FileStatus
	Metadata FileMetadata
}

// File is the full handle returned to a caller once a file is known to the
// manager: its metadata row plus the backend's own URI for the connection
// that produced it. The URI lets callers that hold onto a File across a
// reconnect detect a backend swap without re-querying.
type File struct {
	BackendURI string
	Record     FileRecord
}

// CachePath returns the on-disk path for this file's content.
func (f File) CachePath() string {
	return f.Record.Metadata.Path
}
