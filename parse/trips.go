package parse

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"tidbyt.dev/schedule/model"
	"tidbyt.dev/schedule/storage"
)

type TripCSV struct {
	ID          string `csv:"trip_id"`
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	Headsign    string `csv:"trip_headsign"`
	ShortName   string `csv:"trip_short_name"`
	DirectionID string `csv:"direction_id"`
}

// direction_id is optional. Blank means unknown, which is not the
// same as outbound.
func parseDirection(s string) (*int8, error) {
	switch strings.TrimSpace(s) {
	case "":
		return nil, nil
	case "0":
		return model.Int8Ptr(0), nil
	case "1":
		return model.Int8Ptr(1), nil
	}
	return nil, fmt.Errorf("invalid direction_id '%s'", s)
}

// Parses trips.txt into writer. Returns the set of trip IDs seen.
// Route and service references are not checked.
func ParseTrips(writer storage.FeedWriter, data io.Reader) (map[string]bool, error) {
	trips := map[string]bool{}

	row := 0
	err := gocsv.UnmarshalToCallbackWithError(data, func(t *TripCSV) error {
		row += 1
		if t.ID == "" {
			return fmt.Errorf("empty trip_id (row %d)", row)
		}
		if trips[t.ID] {
			return fmt.Errorf("repeated trip_id '%s' (row %d)", t.ID, row)
		}
		trips[t.ID] = true

		if t.RouteID == "" {
			return fmt.Errorf("empty route_id for trip_id '%s'", t.ID)
		}

		direction, err := parseDirection(t.DirectionID)
		if err != nil {
			return errors.Wrapf(err, "trip_id '%s'", t.ID)
		}

		err = writer.WriteTrip(model.Trip{
			ID:          t.ID,
			RouteID:     t.RouteID,
			ServiceID:   t.ServiceID,
			Headsign:    t.Headsign,
			ShortName:   t.ShortName,
			DirectionID: direction,
		})
		if err != nil {
			return errors.Wrapf(err, "writing trip_id '%s'", t.ID)
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unmarshaling trips csv")
	}

	return trips, nil
}
