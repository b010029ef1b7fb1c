package sqlite

import (
	"database/sql"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sagarc03/cachekeep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyCodecRoundTripsStoreForever(t *testing.T) {
	kind, seconds, err := encodePolicy(cachekeep.StoreForever())
	require.NoError(t, err)
	got, err := decodePolicy(kind, seconds)
	require.NoError(t, err)
	assert.Equal(t, cachekeep.StoreForever(), got)
}

func TestPolicyCodecRoundTripsExpiresAfter(t *testing.T) {
	want := cachekeep.ExpiresAfter(90 * time.Second)
	kind, seconds, err := encodePolicy(want)
	require.NoError(t, err)
	got, err := decodePolicy(kind, seconds)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPolicyCodecRoundTripsExpiresAfterNotUsedFor(t *testing.T) {
	want := cachekeep.ExpiresAfterNotUsedFor(3600 * time.Second)
	kind, seconds, err := encodePolicy(want)
	require.NoError(t, err)
	got, err := decodePolicy(kind, seconds)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodePolicyRejectsMissingDuration(t *testing.T) {
	_, err := decodePolicy(int(cachekeep.PolicyExpiresAfter), sql.NullInt64{})
	assert.Error(t, err)
}

func TestEncodePolicyRejectsDurationOverflowingInt32Seconds(t *testing.T) {
	tooLong := time.Duration(math.MaxInt32+1) * time.Second
	_, _, err := encodePolicy(cachekeep.ExpiresAfter(tooLong))
	require.Error(t, err)
	assert.True(t, errors.Is(err, cachekeep.ErrPolicyDurationOverflow))
}

func TestEncodePolicyAcceptsMaxInt32Seconds(t *testing.T) {
	maxDuration := time.Duration(math.MaxInt32) * time.Second
	kind, seconds, err := encodePolicy(cachekeep.ExpiresAfter(maxDuration))
	require.NoError(t, err)
	got, err := decodePolicy(kind, seconds)
	require.NoError(t, err)
	assert.Equal(t, cachekeep.ExpiresAfter(maxDuration), got)
}
