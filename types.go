package cachekeep

import (
	"fmt"
	"net/url"
	"strings"
)

// SourceKind distinguishes the two shapes a SourceIdentifier can take.
type SourceKind int

const (
	// SourceURL is a source identifier that parsed as an absolute URL.
	SourceURL SourceKind = iota
	// SourceCustom is an opaque application-defined source string.
	SourceCustom
)

func (k SourceKind) String() string {
	switch k {
	case SourceURL:
		return "url"
	case SourceCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// SourceIdentifier names the origin of a cached file. It is never
// interpreted by the manager beyond fingerprinting: fetching whatever it
// names is the caller's job.
type SourceIdentifier struct {
	Kind SourceKind
	raw  string
	u    *url.URL
}

// ParseSource builds a SourceIdentifier from a raw string. If the string
// parses as an absolute URL it is kept as SourceURL; otherwise it is kept
// verbatim as SourceCustom. Callers are never required to pre-classify
// their sources.
func ParseSource(raw string) SourceIdentifier {
	if u, err := url.Parse(raw); err == nil && u.IsAbs() {
		return SourceIdentifier{Kind: SourceURL, raw: raw, u: u}
	}
	return SourceIdentifier{Kind: SourceCustom, raw: raw}
}

// NewCustomSource builds a SourceIdentifier explicitly tagged as opaque,
// bypassing URL parsing even if raw happens to look like a URL.
func NewCustomSource(raw string) SourceIdentifier {
	return SourceIdentifier{Kind: SourceCustom, raw: raw}
}

// String returns the canonical string representation used for
// fingerprinting and for display. For a SourceURL this is the URL's
// normalized form, with a bare authority's empty path normalized to "/"
// so that "https://example.com" and "https://example.com/" fingerprint
// identically; for SourceCustom it is the raw string unchanged.
func (s SourceIdentifier) String() string {
	if s.Kind == SourceURL && s.u != nil {
		u := *s.u
		if u.Path == "" {
			u.Path = "/"
		}
		return u.String()
	}
	return s.raw
}

// Fingerprint is the SHA-256 hex digest of a SourceIdentifier's canonical
// string form. It is the stable, deterministic key used to derive a file's
// on-disk path and to look an existing file up by its source.
type Fingerprint string

func (f Fingerprint) String() string { return string(f) }

// FileStatus tracks where a cached file sits in its lifecycle.
type FileStatus int

const (
	// StatusPending means the metadata row exists but the file content
	// has not finished writing yet.
	StatusPending FileStatus = iota
	// StatusReady means the file is fully written and safe to read.
	StatusReady
	// StatusToRemove marks a file scheduled for deletion by maintenance.
	StatusToRemove
	// StatusCorrupted marks a file whose on-disk content is missing or
	// inconsistent with its metadata row.
	StatusCorrupted
)

func (s FileStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusToRemove:
		return "to_remove"
	case StatusCorrupted:
		return "corrupted"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ParseFileStatus parses the string form produced by FileStatus.String.
func ParseFileStatus(s string) (FileStatus, error) {
	switch strings.ToLower(s) {
	case "pending":
		return StatusPending, nil
	case "ready":
		return StatusReady, nil
	case "to_remove":
		return StatusToRemove, nil
	case "corrupted":
		return StatusCorrupted, nil
	default:
		return 0, fmt.Errorf("cachekeep: invalid file status %q", s)
	}
}
