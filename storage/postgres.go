package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"tidbyt.dev/schedule/model"
)

const (
	PSQLTripBatchSize     = 10000
	PSQLStopTimeBatchSize = 5000
)

type PSQLStorage struct {
	db *sql.DB
}

type PSQLFeedWriter struct {
	id          string
	db          *sql.DB
	tripBuf     []model.Trip
	stopTimeBuf []model.StopTime
}

type PSQLFeedReader struct {
	id string
	db *sql.DB
}

// Creates a new Postgres Storage using the provided connection string.
//
// If clearDB is true, the database will be cleared on startup. You
// probably only want this for testing.
func NewPSQLStorage(connStr string, clearDB bool) (*PSQLStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if clearDB {
		_, err = db.Exec(`
DROP TABLE IF EXISTS stop_times;
DROP TABLE IF EXISTS routes;
DROP TABLE IF EXISTS trips;
`)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("clearing db: %w", err)
		}
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS routes (
    feed_id TEXT NOT NULL,
    id TEXT NOT NULL,
    agency_id TEXT,
    short_name TEXT,
    long_name TEXT,
    type INTEGER NOT NULL,
    PRIMARY KEY(feed_id, id)
);

CREATE TABLE IF NOT EXISTS trips (
    feed_id TEXT NOT NULL,
    id TEXT NOT NULL,
    route_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    headsign TEXT,
    short_name TEXT,
    direction_id INTEGER,
    PRIMARY KEY(feed_id, id)
);
CREATE INDEX IF NOT EXISTS trips_route_id ON trips (feed_id, route_id);

CREATE TABLE IF NOT EXISTS stop_times (
    feed_id TEXT NOT NULL,
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    arrival_time TEXT,
    departure_time TEXT,
    headsign TEXT,
    PRIMARY KEY(feed_id, trip_id, stop_id, stop_sequence)
);
CREATE INDEX IF NOT EXISTS stop_times_stop_departure ON stop_times (feed_id, stop_id, departure_time);
`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &PSQLStorage{
		db: db,
	}, nil
}

func (s *PSQLStorage) Close() error {
	err := s.db.Close()
	if err != nil {
		return fmt.Errorf("failed to close db: %w", err)
	}
	return nil
}

func (s *PSQLStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PSQLStorage) GetReader(feedID string) (FeedReader, error) {
	return &PSQLFeedReader{
		id: feedID,
		db: s.db,
	}, nil
}

func (s *PSQLStorage) GetWriter(feedID string) (FeedWriter, error) {
	// In case feed already exists, delete all records
	for _, table := range []string{"routes", "trips", "stop_times"} {
		_, err := s.db.Exec(`DELETE FROM `+table+` WHERE feed_id = $1`, feedID)
		if err != nil {
			return nil, fmt.Errorf("deleting %s records: %w", table, err)
		}
	}

	return &PSQLFeedWriter{
		id: feedID,
		db: s.db,
	}, nil
}

func (w *PSQLFeedWriter) WriteRoute(route model.Route) error {
	_, err := w.db.Exec(`
INSERT INTO routes (feed_id, id, agency_id, short_name, long_name, type)
VALUES ($1, $2, $3, $4, $5, $6)`,
		w.id,
		route.ID,
		route.AgencyID,
		route.ShortName,
		route.LongName,
		route.Type,
	)
	if err != nil {
		return fmt.Errorf("inserting route: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) WriteTrip(trip model.Trip) error {
	w.tripBuf = append(w.tripBuf, trip)

	if len(w.tripBuf) >= PSQLTripBatchSize {
		err := w.flushTrips()
		if err != nil {
			return fmt.Errorf("flushing trips: %w", err)
		}
	}

	return nil
}

func (w *PSQLFeedWriter) flushTrips() error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(pq.CopyIn(
		"trips", "feed_id", "id", "route_id", "service_id", "headsign", "short_name", "direction_id",
	))
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, trip := range w.tripBuf {
		_, err = stmt.Exec(
			w.id, trip.ID, trip.RouteID, trip.ServiceID, trip.Headsign, trip.ShortName, trip.DirectionID,
		)
		if err != nil {
			return fmt.Errorf("COPY trip: %w", err)
		}
	}

	_, err = stmt.Exec()
	if err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	w.tripBuf = nil

	return nil
}

func (w *PSQLFeedWriter) BeginStopTimes() error {
	return nil
}

func (w *PSQLFeedWriter) WriteStopTime(stopTime model.StopTime) error {
	w.stopTimeBuf = append(w.stopTimeBuf, stopTime)

	if len(w.stopTimeBuf) >= PSQLStopTimeBatchSize {
		err := w.flushStopTimes()
		if err != nil {
			return fmt.Errorf("flushing stop_times: %w", err)
		}
	}

	return nil
}

func (w *PSQLFeedWriter) EndStopTimes() error {
	if len(w.stopTimeBuf) > 0 {
		err := w.flushStopTimes()
		if err != nil {
			return fmt.Errorf("flushing stop_times: %w", err)
		}
	}
	return nil
}

func (w *PSQLFeedWriter) flushStopTimes() error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(pq.CopyIn(
		"stop_times", "feed_id", "trip_id", "stop_id", "stop_sequence", "arrival_time", "departure_time", "headsign",
	))
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, stopTime := range w.stopTimeBuf {
		_, err = stmt.Exec(
			w.id,
			stopTime.TripID,
			stopTime.StopID,
			stopTime.StopSequence,
			nullString(stopTime.Arrival),
			nullString(stopTime.Departure),
			stopTime.Headsign,
		)
		if err != nil {
			return fmt.Errorf("COPY stop_time: %w", err)
		}
	}

	_, err = stmt.Exec()
	if err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	w.stopTimeBuf = nil

	return nil
}

func (w *PSQLFeedWriter) Close() error {
	if len(w.tripBuf) > 0 {
		err := w.flushTrips()
		if err != nil {
			return fmt.Errorf("flushing trips: %w", err)
		}
	}
	if len(w.stopTimeBuf) > 0 {
		err := w.flushStopTimes()
		if err != nil {
			return fmt.Errorf("flushing stop_times: %w", err)
		}
	}

	_, err := w.db.Exec(`ANALYZE`)
	if err != nil {
		return fmt.Errorf("analyzing: %w", err)
	}
	return nil
}

func (r *PSQLFeedReader) StopTimeEvents(ctx context.Context, filter StopTimeEventFilter) ([]*StopTimeEvent, error) {
	query := stopTimeEventsQuery + `
WHERE stop_times.feed_id = $1 AND
      stop_times.stop_id = $2 AND
      stop_times.departure_time IS NOT NULL AND
      stop_times.departure_time >= $3
ORDER BY stop_times.departure_time ASC, stop_times.trip_id ASC`

	params := []interface{}{r.id, filter.StopID, filter.DepartureStart}
	if filter.Limit > 0 {
		query += " LIMIT $4"
		params = append(params, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying for stop time events: %w", err)
	}
	defer rows.Close()

	return scanStopTimeEvents(rows)
}
