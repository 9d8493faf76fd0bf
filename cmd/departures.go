package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tidbyt.dev/schedule/model"
)

const maxLimit = 100

var departuresCmd = &cobra.Command{
	Use:   "departures <stop_id>",
	Short: "Lists the next departures from a stop",
	Args:  cobra.ExactArgs(1),
	RunE:  departures,
}

var (
	feedID   string
	date     string
	fromTime string
	limit    int
	asJSON   bool
	interval time.Duration
)

func init() {
	departuresCmd.Flags().StringVarP(&feedID, "feed", "f", "", "Feed ID")
	departuresCmd.Flags().StringVarP(&date, "date", "d", "", "Service date, YYYY-MM-DD (default today)")
	departuresCmd.Flags().StringVarP(&fromTime, "time", "t", "", "Earliest departure, HH:MM[:SS] (default now)")
	departuresCmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum number of departures")
	departuresCmd.Flags().BoolVarP(&asJSON, "json", "", false, "Print JSON")
	departuresCmd.Flags().DurationVarP(&interval, "interval", "i", 0, "Repeat the lookup at this interval until interrupted")
	departuresCmd.MarkFlagRequired("feed")
}

// Parses "HH:MM" or "HH:MM:SS" into an offset from midnight. Hours
// may exceed 23.
func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("time '%s' is not on form HH:MM[:SS]", s)
	}

	hms := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("time '%s' is not on form HH:MM[:SS]", s)
		}
		hms[i] = n
	}
	if hms[0] > 47 || hms[1] > 59 || hms[2] > 59 {
		return 0, fmt.Errorf("time '%s' is out of range", s)
	}

	return time.Duration(hms[0])*time.Hour +
		time.Duration(hms[1])*time.Minute +
		time.Duration(hms[2])*time.Second, nil
}

// Cache keys are ':' separated, so IDs must not contain one.
func validateIDs(feedID, stopID string) error {
	if strings.Contains(feedID, ":") {
		return fmt.Errorf("feed ID '%s' must not contain ':'", feedID)
	}
	if strings.Contains(stopID, ":") {
		return fmt.Errorf("stop ID '%s' must not contain ':'", stopID)
	}
	return nil
}

func departureArgs(now time.Time) (time.Time, time.Duration, error) {
	if limit < 1 || limit > maxLimit {
		return time.Time{}, 0, fmt.Errorf("limit must be between 1 and %d", maxLimit)
	}

	serviceDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date != "" {
		d, err := time.ParseInLocation("2006-01-02", date, now.Location())
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("date '%s' is not on form YYYY-MM-DD", date)
		}
		serviceDate = d
	}

	offset := now.Sub(serviceDate).Truncate(time.Second)
	if fromTime != "" {
		var err error
		offset, err = parseClock(fromTime)
		if err != nil {
			return time.Time{}, 0, err
		}
	}

	return serviceDate, offset, nil
}

func departures(cmd *cobra.Command, args []string) error {
	stopID := args[0]
	if err := validateIDs(feedID, stopID); err != nil {
		return err
	}

	serviceDate, offset, err := departureArgs(time.Now())
	if err != nil {
		return err
	}

	s, err := openSchedule()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for {
		departures, err := s.NextDepartures(ctx, feedID, stopID, serviceDate, offset, limit)
		if err != nil {
			return err
		}

		if err := printDepartures(departures); err != nil {
			return err
		}

		if interval <= 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func printDepartures(departures []model.Departure) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(departures)
	}

	for _, d := range departures {
		route := d.RouteID
		if d.RouteShortName != nil {
			route = *d.RouteShortName
		}
		fmt.Printf("%s %-8s %-10s %s\n", deref(d.DepartureTime), route, d.TripID, deref(d.Headsign))
	}

	return nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
