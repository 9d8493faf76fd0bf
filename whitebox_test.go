package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"tidbyt.dev/schedule/cache"
	"tidbyt.dev/schedule/model"
)

// Don't love this, but some internal functions are finicky and need
// testing.

func TestWhiteboxNormalizeClock(t *testing.T) {
	for _, tc := range []struct {
		In  string
		Out *string
	}{
		{"08:06:00", model.StringPtr("08:06:00")},
		{"8:06:00", nil},
		{"08:6:00", nil},
		{" 08:06:00 ", model.StringPtr("08:06:00")},
		{"25:10:00", model.StringPtr("25:10:00")},
		{"08:06:00.000", model.StringPtr("08:06:00")},
		{"08:06:00Z", model.StringPtr("08:06:00")},
		{"08:06:00+02:00", model.StringPtr("08:06:00")},
		{"08:06:00-05:00", model.StringPtr("08:06:00")},
		{"", nil},
		{"08:06", nil},
		{"080600", nil},
		{"08:60:00", nil},
		{"08:06:61", nil},
		{"ab:cd:ef", nil},
		{"008:06:00", nil},
		{"08::00", nil},
	} {
		assert.Equal(t, tc.Out, normalizeClock(tc.In), tc.In)
	}
}

func TestWhiteboxSortAndLimit(t *testing.T) {
	d := func(tripID string, departure string) model.Departure {
		dep := model.Departure{TripID: tripID}
		if departure != "" {
			dep.DepartureTime = model.StringPtr(departure)
		}
		return dep
	}

	in := []model.Departure{
		d("B", "08:10:00"),
		d("X", ""),
		d("C", "08:00:00"),
		d("A", "08:10:00"),
		d("D", "24:05:00"),
	}

	out := sortAndLimit(append([]model.Departure{}, in...), 10)
	ids := []string{}
	for _, dep := range out {
		ids = append(ids, dep.TripID)
	}
	assert.Equal(t, []string{"C", "A", "B", "D", "X"}, ids)

	assert.Equal(t, 2, len(sortAndLimit(append([]model.Departure{}, in...), 2)))
	assert.Equal(t, 0, len(sortAndLimit(append([]model.Departure{}, in...), 0)))
	assert.Equal(t, 0, len(sortAndLimit([]model.Departure{}, 3)))
}

type stubRepo struct {
	departures []model.Departure
}

func (r stubRepo) NextDepartures(context.Context, string, string, time.Time, time.Duration, int) ([]model.Departure, error) {
	return r.departures, nil
}

func TestWhiteboxCacheMetrics(t *testing.T) {
	count := func(result string) float64 {
		return promtest.ToFloat64(cacheRequests.With(prometheus.Labels{"result": result}))
	}
	hits, misses, corrupt := count("hit"), count("miss"), count("corrupt")

	provider := cache.NewMemoryProvider(time.Minute)
	repo := NewCachedRepository(stubRepo{departures: []model.Departure{}}, provider, time.Minute)
	repo.Logger = nil
	ctx := context.Background()
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	repo.NextDepartures(ctx, "F", "S", date, 0, 1)
	repo.NextDepartures(ctx, "F", "S", date, 0, 1)

	provider.Set(ctx, CacheKey("F", "S", date, 0, 2), "garbage", time.Minute)
	repo.NextDepartures(ctx, "F", "S", date, 0, 2)

	assert.Equal(t, hits+1, count("hit"))
	assert.Equal(t, misses+1, count("miss"))
	assert.Equal(t, corrupt+1, count("corrupt"))
}

func TestWhiteboxBackendError(t *testing.T) {
	err := &BackendError{Backend: BackendTripleStore, Err: context.DeadlineExceeded}
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "triplestore")
}
