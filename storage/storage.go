package storage

import (
	"context"

	"tidbyt.dev/schedule/model"
)

// Relational store for scheduled service. All records are scoped to
// a feed, identified by its feed ID.
type Storage interface {
	// Gets a reader for the feed with the given ID.
	GetReader(feedID string) (FeedReader, error)

	// Gets a writer for the feed with the given ID.
	GetWriter(feedID string) (FeedWriter, error)

	// Checks that the store can be reached.
	Ping(ctx context.Context) error

	Close() error
}

// Writes GTFS records for a single feed.
//
// As stop_times.txt tends to be very large, BeginStopTimes() and
// EndStopTimes() are called before and after all calls to
// WriteStopTime(), allowing transactions/batching/whathaveyou.
type FeedWriter interface {
	WriteRoute(route model.Route) error
	WriteTrip(trip model.Trip) error
	WriteStopTime(stopTime model.StopTime) error
	BeginStopTimes() error
	EndStopTimes() error
	Close() error
}

type FeedReader interface {
	// List of stop_times and associated data matching the
	// provided filter, ordered by departure time and then trip
	// ID.
	StopTimeEvents(ctx context.Context, filter StopTimeEventFilter) ([]*StopTimeEvent, error)
}

// Filter for StopTimeEvents()
type StopTimeEventFilter struct {
	// Limit results to events for the given stop ID.
	StopID string

	// Limit results to stop_times departing at or after this
	// time, given as "HHMMSS". Stop times without a departure
	// time are always excluded.
	DepartureStart string

	// At most this many events. Pass 0 for no limit.
	Limit int
}

// Holds information about a stop_time record, along with the trip
// and route it belongs to. Trip and Route are nil when the feed
// lacks the corresponding record.
type StopTimeEvent struct {
	StopTime *model.StopTime
	Trip     *model.Trip
	Route    *model.Route
}
