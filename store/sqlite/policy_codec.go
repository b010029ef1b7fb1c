package sqlite

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/sagarc03/cachekeep"
)

// encodePolicy splits a StorePolicy into the two columns the files table
// stores it as: an integer kind tag and a nullable duration in seconds.
// The duration is range-checked against a signed 32-bit second count even
// though SQLite's INTEGER column itself is 64-bit wide, since the stored
// value must stay portable with the postgres backend's own encoding.
func encodePolicy(p cachekeep.StorePolicy) (kind int, seconds sql.NullInt64, err error) {
	switch p.Kind {
	case cachekeep.PolicyExpiresAfter, cachekeep.PolicyExpiresAfterNotUsedFor:
		secs := p.Duration / time.Second
		if secs > math.MaxInt32 || secs < math.MinInt32 {
			return 0, sql.NullInt64{}, cachekeep.ErrPolicyDurationOverflow
		}
		return int(p.Kind), sql.NullInt64{Int64: int64(secs), Valid: true}, nil
	default:
		return int(cachekeep.PolicyStoreForever), sql.NullInt64{}, nil
	}
}

// decodePolicy is encodePolicy's inverse. It returns an error if a
// duration-bearing kind was stored without a duration: a row that should
// never exist, but one a corrupt write could still produce.
func decodePolicy(kind int, seconds sql.NullInt64) (cachekeep.StorePolicy, error) {
	k := cachekeep.PolicyKind(kind)
	switch k {
	case cachekeep.PolicyStoreForever:
		return cachekeep.StoreForever(), nil
	case cachekeep.PolicyExpiresAfter, cachekeep.PolicyExpiresAfterNotUsedFor:
		if !seconds.Valid {
			return cachekeep.StorePolicy{}, fmt.Errorf("sqlite: policy kind %d missing duration", kind)
		}
		d := time.Duration(seconds.Int64) * time.Second
		if k == cachekeep.PolicyExpiresAfter {
			return cachekeep.ExpiresAfter(d), nil
		}
		return cachekeep.ExpiresAfterNotUsedFor(d), nil
	default:
		return cachekeep.StorePolicy{}, fmt.Errorf("sqlite: unknown policy kind %d", kind)
	}
}
