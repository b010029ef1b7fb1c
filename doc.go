// Package cachekeep implements a managed, content-addressed on-disk file
// cache. Callers hand the manager a source identifier and a byte stream;
// the manager fingerprints the source, derives a stable on-disk path, and
// records the file's lifecycle in a pluggable metadata store so that
// concurrent builders of the same source collapse onto a single writer.
//
// The manager never interprets source bytes itself and never talks HTTP:
// fetching, auth, and request routing are the caller's concern. cachekeep
// only owns fingerprinting, the file's lifecycle on disk, store-policy
// driven expiry, and maintenance of the cache directory against the
// metadata store.
package cachekeep
