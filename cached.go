package schedule

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tidbyt.dev/schedule/cache"
	"tidbyt.dev/schedule/model"
)

const DefaultCacheTTL = 60 * time.Second

// Cache-aside wrapper around any Repository.
//
// Results are stored as JSON under CacheKey for TTL. Entries that
// fail to decode are treated as misses and overwritten. The cache
// never causes a lookup to fail: errors from the wrapped repository
// are passed through and never cached.
type CachedRepository struct {
	Repo  Repository
	Cache cache.Provider
	TTL   time.Duration

	// Bounds each cache operation. Should be well below the
	// backend's own timeout.
	CacheTimeout time.Duration

	Logger *log.Logger
}

func NewCachedRepository(repo Repository, provider cache.Provider, ttl time.Duration) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRepository{
		Repo:         repo,
		Cache:        provider,
		TTL:          ttl,
		CacheTimeout: cache.DefaultTimeout,
		Logger:       log.Default(),
	}
}

func (c *CachedRepository) NextDepartures(
	ctx context.Context,
	feedID string,
	stopID string,
	serviceDate time.Time,
	fromTime time.Duration,
	limit int,
) ([]model.Departure, error) {
	key := CacheKey(feedID, stopID, serviceDate, fromTime, limit)

	if departures, ok := c.get(ctx, key); ok {
		return departures, nil
	}

	departures, err := c.Repo.NextDepartures(ctx, feedID, stopID, serviceDate, fromTime, limit)
	if err != nil {
		return nil, err
	}

	c.set(ctx, key, departures)

	return departures, nil
}

func (c *CachedRepository) get(ctx context.Context, key string) ([]model.Departure, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.CacheTimeout)
	defer cancel()

	data, found := c.Cache.Get(ctx, key)
	if !found {
		cacheRequests.With(prometheus.Labels{"result": "miss"}).Inc()
		return nil, false
	}

	var departures []model.Departure
	if err := json.Unmarshal([]byte(data), &departures); err != nil || departures == nil {
		cacheRequests.With(prometheus.Labels{"result": "corrupt"}).Inc()
		c.logf("discarding undecodable cache entry %s: %v", key, err)
		return nil, false
	}

	cacheRequests.With(prometheus.Labels{"result": "hit"}).Inc()
	return departures, true
}

func (c *CachedRepository) set(ctx context.Context, key string, departures []model.Departure) {
	data, err := json.Marshal(departures)
	if err != nil {
		c.logf("encoding cache entry %s: %v", key, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.CacheTimeout)
	defer cancel()

	c.Cache.Set(ctx, key, string(data), c.TTL)
}

func (c *CachedRepository) logf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}
