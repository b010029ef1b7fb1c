package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/sagarc03/cachekeep"
)

// parseStorePolicyFlag parses the --store-policy flag's small grammar:
// "forever", a bare duration ("expires after" created), or
// "notused:<duration>" ("expires after" last used).
func parseStorePolicyFlag(s string) (cachekeep.StorePolicy, error) {
	if s == "" || s == "forever" {
		return cachekeep.StoreForever(), nil
	}
	if rest, ok := strings.CutPrefix(s, "notused:"); ok {
		d, err := time.ParseDuration(rest)
		if err != nil {
			return cachekeep.StorePolicy{}, fmt.Errorf("invalid --store-policy duration: %w", err)
		}
		return cachekeep.ExpiresAfterNotUsedFor(d), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return cachekeep.StorePolicy{}, fmt.Errorf("invalid --store-policy: %w", err)
	}
	return cachekeep.ExpiresAfter(d), nil
}
