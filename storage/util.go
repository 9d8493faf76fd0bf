package storage

import (
	"database/sql"
	"fmt"

	"tidbyt.dev/schedule/model"
)

// Shared between the SQL backends. Trips and routes are LEFT
// JOINed, so that stop_times referencing unknown trips (or trips
// referencing unknown routes) still produce events.
const stopTimeEventsQuery = `
SELECT
    stop_times.trip_id,
    stop_times.stop_id,
    stop_times.stop_sequence,
    stop_times.arrival_time,
    stop_times.departure_time,
    stop_times.headsign,
    trips.id,
    trips.route_id,
    trips.service_id,
    trips.headsign,
    trips.short_name,
    trips.direction_id,
    routes.id,
    routes.agency_id,
    routes.short_name,
    routes.long_name,
    routes.type
FROM stop_times
LEFT JOIN trips ON trips.feed_id = stop_times.feed_id AND trips.id = stop_times.trip_id
LEFT JOIN routes ON routes.feed_id = trips.feed_id AND routes.id = trips.route_id`

func scanStopTimeEvents(rows *sql.Rows) ([]*StopTimeEvent, error) {
	events := []*StopTimeEvent{}
	for rows.Next() {
		stopTime := model.StopTime{}
		var arrival, departure, stHeadsign sql.NullString
		var tripID, tripRouteID, tripServiceID, tripHeadsign, tripShortName sql.NullString
		var tripDirection sql.NullInt64
		var routeID, routeAgencyID, routeShortName, routeLongName sql.NullString
		var routeType sql.NullInt64

		err := rows.Scan(
			&stopTime.TripID,
			&stopTime.StopID,
			&stopTime.StopSequence,
			&arrival,
			&departure,
			&stHeadsign,
			&tripID,
			&tripRouteID,
			&tripServiceID,
			&tripHeadsign,
			&tripShortName,
			&tripDirection,
			&routeID,
			&routeAgencyID,
			&routeShortName,
			&routeLongName,
			&routeType,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stop time event: %w", err)
		}

		stopTime.Arrival = arrival.String
		stopTime.Departure = departure.String
		stopTime.Headsign = stHeadsign.String

		event := &StopTimeEvent{StopTime: &stopTime}

		if tripID.Valid {
			event.Trip = &model.Trip{
				ID:          tripID.String,
				RouteID:     tripRouteID.String,
				ServiceID:   tripServiceID.String,
				Headsign:    tripHeadsign.String,
				ShortName:   tripShortName.String,
			}
			if tripDirection.Valid {
				event.Trip.DirectionID = model.Int8Ptr(int8(tripDirection.Int64))
			}
		}

		if routeID.Valid {
			event.Route = &model.Route{
				ID:        routeID.String,
				AgencyID:  routeAgencyID.String,
				ShortName: routeShortName.String,
				LongName:  routeLongName.String,
				Type:      model.RouteType(routeType.Int64),
			}
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stop time events: %w", err)
	}

	return events, nil
}

// Blank GTFS times are stored as NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
