package postgres

import (
	"fmt"
	"math"
	"time"

	"github.com/sagarc03/cachekeep"
)

// encodePolicy splits a StorePolicy into an integer kind tag and a
// nullable duration in seconds, range-checked against a signed 32-bit
// second count so it stays portable with the sqlite backend's encoding.
func encodePolicy(p cachekeep.StorePolicy) (kind int, seconds *int64, err error) {
	switch p.Kind {
	case cachekeep.PolicyExpiresAfter, cachekeep.PolicyExpiresAfterNotUsedFor:
		secs := p.Duration / time.Second
		if secs > math.MaxInt32 || secs < math.MinInt32 {
			return 0, nil, cachekeep.ErrPolicyDurationOverflow
		}
		s := int64(secs)
		return int(p.Kind), &s, nil
	default:
		return int(cachekeep.PolicyStoreForever), nil, nil
	}
}

func decodePolicy(kind int, seconds *int64) (cachekeep.StorePolicy, error) {
	k := cachekeep.PolicyKind(kind)
	switch k {
	case cachekeep.PolicyStoreForever:
		return cachekeep.StoreForever(), nil
	case cachekeep.PolicyExpiresAfter, cachekeep.PolicyExpiresAfterNotUsedFor:
		if seconds == nil {
			return cachekeep.StorePolicy{}, fmt.Errorf("postgres: policy kind %d missing duration", kind)
		}
		d := time.Duration(*seconds) * time.Second
		if k == cachekeep.PolicyExpiresAfter {
			return cachekeep.ExpiresAfter(d), nil
		}
		return cachekeep.ExpiresAfterNotUsedFor(d), nil
	default:
		return cachekeep.StorePolicy{}, fmt.Errorf("postgres: unknown policy kind %d", kind)
	}
}
