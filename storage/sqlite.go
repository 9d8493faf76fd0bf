package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"tidbyt.dev/schedule/model"
)

type SQLiteConfig struct {
	OnDisk    bool
	Directory string
}

type SQLiteStorage struct {
	SQLiteConfig

	db *sql.DB
}

type SQLiteFeedWriter struct {
	id                  string
	db                  *sql.DB
	stopTimeInsertQuery *sql.Stmt
	stopTimeInsertTx    *sql.Tx
}

type SQLiteFeedReader struct {
	id string
	db *sql.DB
}

func NewSQLiteStorage(cfg ...SQLiteConfig) (*SQLiteStorage, error) {
	onDisk := false
	directory := ""
	if len(cfg) > 0 {
		onDisk = cfg[0].OnDisk
		directory = cfg[0].Directory
	}

	sourceName := ":memory:"
	if onDisk {
		sourceName = directory + "/schedule.db"
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if !onDisk {
		db.SetMaxOpenConns(1)
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS routes (
    feed_id TEXT NOT NULL,
    id TEXT NOT NULL,
    agency_id TEXT,
    short_name TEXT,
    long_name TEXT,
    type INTEGER NOT NULL,
PRIMARY KEY (feed_id, id)
);

CREATE TABLE IF NOT EXISTS trips (
    feed_id TEXT NOT NULL,
    id TEXT NOT NULL,
    route_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    headsign TEXT,
    short_name TEXT,
    direction_id INTEGER,
PRIMARY KEY (feed_id, id)
);
CREATE INDEX IF NOT EXISTS trips_route_id ON trips (feed_id, route_id);

CREATE TABLE IF NOT EXISTS stop_times (
    feed_id TEXT NOT NULL,
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    arrival_time TEXT,
    departure_time TEXT,
    headsign TEXT
);
CREATE INDEX IF NOT EXISTS stop_times_stop_departure ON stop_times (feed_id, stop_id, departure_time);
`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &SQLiteStorage{
		SQLiteConfig: SQLiteConfig{
			OnDisk:    onDisk,
			Directory: directory,
		},
		db: db,
	}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStorage) GetReader(feedID string) (FeedReader, error) {
	return &SQLiteFeedReader{
		id: feedID,
		db: s.db,
	}, nil
}

func (s *SQLiteStorage) GetWriter(feedID string) (FeedWriter, error) {
	for _, table := range []string{"routes", "trips", "stop_times"} {
		_, err := s.db.Exec(`DELETE FROM `+table+` WHERE feed_id = ?`, feedID)
		if err != nil {
			return nil, fmt.Errorf("deleting %s records: %w", table, err)
		}
	}

	return &SQLiteFeedWriter{
		id: feedID,
		db: s.db,
	}, nil
}

func (f *SQLiteFeedWriter) WriteRoute(route model.Route) error {
	_, err := f.db.Exec(`
INSERT INTO routes (feed_id, id, agency_id, short_name, long_name, type)
VALUES (?, ?, ?, ?, ?, ?)`,
		f.id,
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

func (f *SQLiteFeedWriter) WriteTrip(trip model.Trip) error {
	_, err := f.db.Exec(`
INSERT INTO trips (feed_id, id, route_id, service_id, headsign, short_name, direction_id)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.id,
		trip.ID,
		trip.RouteID,
		trip.ServiceID,
		trip.Headsign,
		trip.ShortName,
		trip.DirectionID,
	)
	if err != nil {
		return fmt.Errorf("inserting trip: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) BeginStopTimes() error {
	// transaction with prepared statement.
	var err error
	f.stopTimeInsertTx, err = f.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning stop_time insert transaction: %w", err)
	}

	f.stopTimeInsertQuery, err = f.stopTimeInsertTx.Prepare(`
INSERT INTO stop_times (feed_id, trip_id, stop_id, stop_sequence, arrival_time, departure_time, headsign)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		f.stopTimeInsertTx.Rollback()
		f.stopTimeInsertTx = nil
		return fmt.Errorf("preparing stop_time insert: %w", err)
	}

	return nil
}

func (f *SQLiteFeedWriter) WriteStopTime(stopTime model.StopTime) error {
	if f.stopTimeInsertQuery == nil {
		return fmt.Errorf("WriteStopTime called outside BeginStopTimes/EndStopTimes")
	}

	_, err := f.stopTimeInsertQuery.Exec(
		f.id,
		stopTime.TripID,
		stopTime.StopID,
		stopTime.StopSequence,
		nullString(stopTime.Arrival),
		nullString(stopTime.Departure),
		stopTime.Headsign,
	)
	if err != nil {
		f.stopTimeInsertQuery.Close()
		f.stopTimeInsertTx.Rollback()
		f.stopTimeInsertTx = nil
		f.stopTimeInsertQuery = nil
		return fmt.Errorf("inserting stop_time: %w", err)
	}

	return nil
}

func (f *SQLiteFeedWriter) EndStopTimes() error {
	if f.stopTimeInsertTx == nil {
		return nil
	}

	// commit transaction and clean up
	f.stopTimeInsertQuery.Close()
	err := f.stopTimeInsertTx.Commit()
	f.stopTimeInsertTx = nil
	f.stopTimeInsertQuery = nil
	if err != nil {
		return fmt.Errorf("committing stop_time insert transaction: %w", err)
	}

	return nil
}

func (f *SQLiteFeedWriter) Close() error {
	return f.EndStopTimes()
}

func (f *SQLiteFeedReader) StopTimeEvents(ctx context.Context, filter StopTimeEventFilter) ([]*StopTimeEvent, error) {
	query := stopTimeEventsQuery + `
WHERE stop_times.feed_id = ? AND
      stop_times.stop_id = ? AND
      stop_times.departure_time IS NOT NULL AND
      stop_times.departure_time >= ?
ORDER BY stop_times.departure_time ASC, stop_times.trip_id ASC`

	params := []interface{}{f.id, filter.StopID, filter.DepartureStart}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		params = append(params, filter.Limit)
	}

	rows, err := f.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying for stop time events: %w", err)
	}
	defer rows.Close()

	return scanStopTimeEvents(rows)
}
