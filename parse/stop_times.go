package parse

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"tidbyt.dev/schedule/model"
	"tidbyt.dev/schedule/storage"
)

type StopTimeCSV struct {
	TripID        string `csv:"trip_id"`
	StopID        string `csv:"stop_id"`
	StopSequence  uint32 `csv:"stop_sequence"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
	Headsign      string `csv:"stop_headsign"`
}

// Parses "H:MM:SS" or "HH:MM:SS" into "HHMMSS". Blank input (allowed
// by GTFS for stops that aren't timepoints) yields "".
func parseStopTimeTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}

	split := strings.Split(s, ":")
	if len(split) != 3 {
		return "", fmt.Errorf("found %d parts in '%s'", len(split), s)
	}

	hms := [3]int{}
	for i, str := range split {
		j, err := strconv.Atoi(str)
		if err != nil {
			return "", fmt.Errorf("non-integer in '%s' pos %d", s, i)
		}
		hms[i] = j
	}

	if hms[0] < 0 || hms[0] > 99 {
		return "", fmt.Errorf("invalid hour in '%s'", s)
	}

	if hms[1] < 0 || hms[1] > 59 {
		return "", fmt.Errorf("invalid minute in '%s'", s)
	}

	if hms[2] < 0 || hms[2] > 59 {
		return "", fmt.Errorf("invalid second in '%s'", s)
	}

	return fmt.Sprintf("%02d%02d%02d", hms[0], hms[1], hms[2]), nil
}

// Parses stop_times.txt into writer. Returns the number of records
// written.
func ParseStopTimes(writer storage.FeedWriter, data io.Reader) (int, error) {
	stopSeq := map[string]map[uint32]bool{}

	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(st *StopTimeCSV) error {
		i += 1
		if st.TripID == "" {
			return fmt.Errorf("missing trip_id (row %d)", i+1)
		}
		if st.StopID == "" {
			return fmt.Errorf("missing stop_id (row %d)", i+1)
		}

		arrivalTime, err := parseStopTimeTime(st.ArrivalTime)
		if err != nil {
			return errors.Wrapf(err, "parsing arrival_time (row %d)", i+1)
		}

		departureTime, err := parseStopTimeTime(st.DepartureTime)
		if err != nil {
			return errors.Wrapf(err, "parsing departure_time (row %d)", i+1)
		}

		// stop_sequence must be unique within a trip
		if stopSeq[st.TripID] == nil {
			stopSeq[st.TripID] = map[uint32]bool{}
		}
		if stopSeq[st.TripID][st.StopSequence] {
			return fmt.Errorf("duplicate stop_sequence %d for trip_id '%s'", st.StopSequence, st.TripID)
		}
		stopSeq[st.TripID][st.StopSequence] = true

		err = writer.WriteStopTime(model.StopTime{
			TripID:       st.TripID,
			StopID:       st.StopID,
			Headsign:     st.Headsign,
			StopSequence: st.StopSequence,
			Arrival:      arrivalTime,
			Departure:    departureTime,
		})
		if err != nil {
			return errors.Wrapf(err, "writing stop_time (row %d)", i+1)
		}

		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "unmarshaling stop_times csv")
	}

	return i + 1, nil
}
