// Package cache holds key-value stores used to memoize schedule
// lookups. Providers never fail from the caller's point of view: a
// store that can't be reached behaves like an empty one.
package cache

import (
	"context"
	"errors"
	"time"
)

// Failures talking to the backing store are classified as this
// error before being logged and absorbed.
var ErrUnavailable = errors.New("cache unavailable")

// A string key-value store with per entry expiry.
//
// Get reports a miss (false) both when the key is absent and when
// the store can't be reached. Set silently drops the write on
// failure.
type Provider interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration)
}

// Implemented by providers backed by a remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}
