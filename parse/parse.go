package parse

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"

	"tidbyt.dev/schedule/storage"
)

func init() {
	// LazyCSVReader required (at least) to survive sloppy use of
	// quotes. The BOM reader strips unicode BOMs if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})
}

// Loads routes.txt, trips.txt and stop_times.txt from a zipped GTFS
// dump into writer. Only stop_times.txt is required. References
// between the files are not validated, so a feed can hold stop
// times for trips it doesn't define.
//
// The writer is closed when all files have been parsed.
func ParseFeed(writer storage.FeedWriter, buf []byte) error {
	file := map[string]io.ReadCloser{
		"routes.txt":     nil,
		"trips.txt":      nil,
		"stop_times.txt": nil,
	}

	defer func() {
		for _, rc := range file {
			if rc != nil {
				rc.Close()
			}
		}
	}()

	r, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return fmt.Errorf("unzipping: %w", err)
	}

	for _, f := range r.File {
		// There should not be any subdirectories. But, some
		// agencies don't care.
		if f.FileInfo().IsDir() {
			continue
		}
		path := strings.Split(f.Name, "/")
		fName := path[len(path)-1]

		if _, found := file[fName]; !found {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("opening %s: %w", f.Name, err)
		}

		file[fName] = rc
	}

	if file["stop_times.txt"] == nil {
		return fmt.Errorf("missing stop_times.txt")
	}

	if file["routes.txt"] != nil {
		_, err = ParseRoutes(writer, file["routes.txt"])
		if err != nil {
			return fmt.Errorf("parsing routes.txt: %w", err)
		}
	}

	if file["trips.txt"] != nil {
		_, err = ParseTrips(writer, file["trips.txt"])
		if err != nil {
			return fmt.Errorf("parsing trips.txt: %w", err)
		}
	}

	err = writer.BeginStopTimes()
	if err != nil {
		return fmt.Errorf("beginning stop_times: %w", err)
	}
	_, err = ParseStopTimes(writer, file["stop_times.txt"])
	if err != nil {
		return fmt.Errorf("parsing stop_times.txt: %w", err)
	}
	err = writer.EndStopTimes()
	if err != nil {
		return fmt.Errorf("ending stop_times: %w", err)
	}

	err = writer.Close()
	if err != nil {
		return fmt.Errorf("closing feed writer: %w", err)
	}

	return nil
}
