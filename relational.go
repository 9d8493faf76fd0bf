package schedule

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tidbyt.dev/schedule/model"
	"tidbyt.dev/schedule/storage"
)

const (
	BackendRelational = "relational"

	DefaultQueryTimeout = 5 * time.Second
)

// Looks up departures in a relational schedule store.
//
// The service date is accepted but not used: all stop-times at the
// stop are candidates regardless of calendar. Filtering by active
// services is left for when calendars are loaded into storage.
type RelationalRepository struct {
	Storage storage.Storage
	Timeout time.Duration
}

func NewRelationalRepository(s storage.Storage, timeout time.Duration) *RelationalRepository {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &RelationalRepository{
		Storage: s,
		Timeout: timeout,
	}
}

func (r *RelationalRepository) NextDepartures(
	ctx context.Context,
	feedID string,
	stopID string,
	serviceDate time.Time,
	fromTime time.Duration,
	limit int,
) ([]model.Departure, error) {
	departures := []model.Departure{}
	if limit <= 0 {
		return departures, nil
	}

	timer := prometheus.NewTimer(backendQuerySeconds.With(prometheus.Labels{"backend": BackendRelational}))
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	reader, err := r.Storage.GetReader(feedID)
	if err != nil {
		return nil, &BackendError{Backend: BackendRelational, Err: err}
	}

	events, err := reader.StopTimeEvents(ctx, storage.StopTimeEventFilter{
		StopID:         stopID,
		DepartureStart: model.HHMMSS(fromTime),
		Limit:          limit,
	})
	if err != nil {
		return nil, &BackendError{Backend: BackendRelational, Err: err}
	}

	for _, event := range events {
		departures = append(departures, departureFromEvent(event))
	}

	return sortAndLimit(departures, limit), nil
}

func departureFromEvent(event *storage.StopTimeEvent) model.Departure {
	d := model.Departure{
		TripID:        event.StopTime.TripID,
		StopID:        event.StopTime.StopID,
		ArrivalTime:   model.ClockFromHHMMSS(event.StopTime.Arrival),
		DepartureTime: model.ClockFromHHMMSS(event.StopTime.Departure),
	}

	headsign := event.StopTime.Headsign

	if event.Trip != nil {
		d.RouteID = event.Trip.RouteID
		if event.Trip.DirectionID != nil {
			d.DirectionID = model.IntPtr(int(*event.Trip.DirectionID))
		}
		if headsign == "" {
			headsign = event.Trip.Headsign
		}
	}

	if event.Route != nil {
		d.RouteShortName = optional(event.Route.ShortName)
		d.RouteLongName = optional(event.Route.LongName)
	}

	d.Headsign = optional(headsign)

	return d
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
