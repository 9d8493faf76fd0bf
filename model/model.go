package model

import (
	"fmt"
	"strconv"
	"time"
)

// Holds all external facing types and constants.

type RouteType int

const (
	RouteTypeTram       RouteType = 0
	RouteTypeSubway               = 1
	RouteTypeRail                 = 2
	RouteTypeBus                  = 3
	RouteTypeFerry                = 4
	RouteTypeCable                = 5
	RouteTypeAerial               = 6
	RouteTypeFunicular            = 7
	RouteTypeTrolleybus           = 11
	RouteTypeMonorail             = 12
)

type Route struct {
	ID        string
	AgencyID  string
	ShortName string
	LongName  string
	Type      RouteType
}

type Trip struct {
	ID          string
	RouteID     string
	ServiceID   string
	Headsign    string
	ShortName   string

	// 0 or 1, nil when the feed leaves it blank.
	DirectionID *int8
}

// A scheduled visit of one trip at one stop. Arrival and Departure
// are GTFS style "HHMMSS" strings (hours may exceed 23), or blank
// when the schedule has no value.
type StopTime struct {
	TripID       string
	StopID       string
	Headsign     string
	StopSequence uint32
	Arrival      string
	Departure    string
}

func (st *StopTime) ArrivalTime() time.Duration {
	return hhmmssDuration(st.Arrival)
}

func (st *StopTime) DepartureTime() time.Duration {
	return hhmmssDuration(st.Departure)
}

func hhmmssDuration(s string) time.Duration {
	if len(s) != 6 {
		return 0
	}
	h, _ := strconv.Atoi(s[0:2])
	m, _ := strconv.Atoi(s[2:4])
	sec, _ := strconv.Atoi(s[4:6])
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
}

// Translates a time offset into a GTFS style HHMMSS string.
func HHMMSS(offset time.Duration) string {
	h := int(offset.Hours())
	m := int(offset.Minutes()) - h*60
	s := int(offset.Seconds()) - h*3600 - m*60
	return fmt.Sprintf("%02d%02d%02d", h, m, s)
}

// Translates a time offset into "HH:MM:SS".
func Clock(offset time.Duration) string {
	s := HHMMSS(offset)
	return s[0:2] + ":" + s[2:4] + ":" + s[4:6]
}

// Formats a GTFS style "HHMMSS" string as "HH:MM:SS". Blank or
// malformed input yields nil.
func ClockFromHHMMSS(s string) *string {
	if len(s) != 6 {
		return nil
	}
	if _, err := strconv.Atoi(s); err != nil {
		return nil
	}
	c := s[0:2] + ":" + s[2:4] + ":" + s[4:6]
	return &c
}

// A vehicle departing from a stop.
//
// This is the backend agnostic record returned by schedule
// lookups. Optional fields are nil when the underlying data has no
// value; they are still present (as null) when serialized, so the
// shape is identical across backends. RouteID is "" rather than
// absent when the route can't be resolved.
type Departure struct {
	RouteID        string  `json:"route_id"`
	RouteShortName *string `json:"route_short_name"`
	RouteLongName  *string `json:"route_long_name"`
	TripID         string  `json:"trip_id"`
	StopID         string  `json:"stop_id"`
	Headsign       *string `json:"headsign"`
	DirectionID    *int    `json:"direction_id"`
	ArrivalTime    *string `json:"arrival_time"`
	DepartureTime  *string `json:"departure_time"`
}

// Convenience for filling optional string fields.
func StringPtr(s string) *string {
	return &s
}

func IntPtr(i int) *int {
	return &i
}

func Int8Ptr(i int8) *int8 {
	return &i
}
