package cachekeep

import "time"

// PolicyKind distinguishes the three store-policy shapes.
type PolicyKind int

const (
	// PolicyStoreForever keeps a file until explicitly removed or
	// swept up by an eviction pass. This is the default policy.
	PolicyStoreForever PolicyKind = iota
	// PolicyExpiresAfter expires a file a fixed duration after it was
	// created, regardless of how often it is read.
	PolicyExpiresAfter
	// PolicyExpiresAfterNotUsedFor expires a file a fixed duration after
	// its last successful read, extending its life on every hit.
	PolicyExpiresAfterNotUsedFor
)

// StorePolicy governs when a cached file becomes eligible for expiry.
// The zero value is PolicyStoreForever.
type StorePolicy struct {
	Kind     PolicyKind
	Duration time.Duration // meaningful only for the two ExpiresAfter* kinds
}

// StoreForever returns the policy that never expires a file on its own.
func StoreForever() StorePolicy {
	return StorePolicy{Kind: PolicyStoreForever}
}

// ExpiresAfter returns a policy that expires d after the file was created.
func ExpiresAfter(d time.Duration) StorePolicy {
	return StorePolicy{Kind: PolicyExpiresAfter, Duration: d}
}

// ExpiresAfterNotUsedFor returns a policy that expires d after the file was
// last read.
func ExpiresAfterNotUsedFor(d time.Duration) StorePolicy {
	return StorePolicy{Kind: PolicyExpiresAfterNotUsedFor, Duration: d}
}

// TimeToLive returns how long a file has left under this policy, given its
// created and last-used timestamps evaluated against now. A nil result
// means the file never expires. A non-nil, non-positive result means the
// file is already expired.
func (p StorePolicy) TimeToLive(created, lastUsed, now time.Time) *time.Duration {
	switch p.Kind {
	case PolicyStoreForever:
		return nil
	case PolicyExpiresAfter:
		ttl := created.Add(p.Duration).Sub(now)
		return &ttl
	case PolicyExpiresAfterNotUsedFor:
		ttl := lastUsed.Add(p.Duration).Sub(now)
		return &ttl
	default:
		return nil
	}
}

// IsExpired reports whether a file governed by this policy is expired as
// of now, given its created and last-used timestamps. A StoreForever
// policy is never expired.
func (p StorePolicy) IsExpired(created, lastUsed, now time.Time) bool {
	ttl := p.TimeToLive(created, lastUsed, now)
	return ttl != nil && *ttl <= 0
}
