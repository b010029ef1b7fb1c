package cachekeep

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// FingerprintOf hashes a SourceIdentifier's canonical string form into a
// stable SHA-256 hex digest. Two SourceIdentifiers with the same canonical
// string always yield the same fingerprint: deterministic and
// collision-free in practice.
func FingerprintOf(source SourceIdentifier) Fingerprint {
	sum := sha256.Sum256([]byte(source.String()))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// pathFromSource derives the on-disk cache path for a source by joining
// the cache directory with its fingerprint: no subdirectory sharding, no
// extension, no collision handling beyond what SHA-256 already gives.
func pathFromSource(dir string, source SourceIdentifier) string {
	return filepath.Join(dir, string(FingerprintOf(source)))
}
