// Package schedule answers "what are the next departures from this stop"
// against a relational store or a SPARQL endpoint, optionally behind a
// shared cache.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"tidbyt.dev/schedule/model"
)

// Returned (wrapped in a *BackendError) when the backing store
// can't answer. Callers must not mistake this for "no departures".
var ErrBackendUnavailable = errors.New("schedule backend unavailable")

// Wraps the transport or decoding failure of a specific backend.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Backend, ErrBackendUnavailable, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

// Answers "what are the next departures from this stop".
//
// serviceDate is the calendar day being asked about, fromTime the
// offset from that day's midnight (may exceed 24h, as in GTFS). The
// result has at most limit entries, ordered by departure time with
// ties broken by trip ID. An empty result is never nil.
type Repository interface {
	NextDepartures(
		ctx context.Context,
		feedID string,
		stopID string,
		serviceDate time.Time,
		fromTime time.Duration,
		limit int,
	) ([]model.Departure, error)
}

// Puts departures in canonical order and applies the limit.
// Entries without departure time sort last.
func sortAndLimit(departures []model.Departure, limit int) []model.Departure {
	sort.SliceStable(departures, func(i, j int) bool {
		di, dj := departures[i].DepartureTime, departures[j].DepartureTime
		if di == nil || dj == nil {
			return di != nil && dj == nil
		}
		if *di != *dj {
			return *di < *dj
		}
		return departures[i].TripID < departures[j].TripID
	})

	if limit >= 0 && len(departures) > limit {
		departures = departures[:limit]
	}

	return departures
}
